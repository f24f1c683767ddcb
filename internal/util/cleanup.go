package util

import (
	"os"
	"path/filepath"
	"strings"
)

type infoLogger interface {
	Infof(string, ...any)
	Errorf(string, ...any)
}

// CleanupPartialFiles removes files in dir ending in suffix, left behind by
// writes that were interrupted. It returns how many were removed.
func CleanupPartialFiles(dir, suffix string, log infoLogger) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, suffix) {
			continue
		}

		full := filepath.Join(dir, name)
		if err := os.Remove(full); err != nil {
			if log != nil {
				log.Errorf("Error cleaning up %s: %v", full, err)
			}
			continue
		}

		removed++
		if log != nil {
			log.Infof("Removed %s", full)
		}
	}

	return removed
}

// RemoveIfEmpty deletes dir when nothing was written into it.
func RemoveIfEmpty(dir string, log infoLogger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	if len(entries) == 0 {
		if err := os.Remove(dir); err == nil && log != nil {
			log.Infof("Removed empty output folder: %s", dir)
		}
	}
}
