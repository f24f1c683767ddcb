package harvest

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ChunkSize is the buffer size used when streaming image bodies to disk.
const ChunkSize = 8 * 1024

// PartialSuffix marks files that are still being written.
const PartialSuffix = ".part"

// Store persists downloaded images by file name.
type Store interface {
	Exists(name string) (bool, error)
	Save(name string, r io.Reader, progress func(done int64)) (int64, error)
}

// DirStore keeps images as flat files in one directory.
type DirStore struct {
	dir     string
	created bool
}

// NewDirStore creates dir, including parents, when it is missing.
func NewDirStore(dir string) (*DirStore, error) {
	_, err := os.Stat(dir)
	existed := err == nil

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	return &DirStore{dir: dir, created: !existed}, nil
}

func (s *DirStore) Dir() string { return s.dir }

// Created reports whether NewDirStore made the directory itself.
func (s *DirStore) Created() bool { return s.created }

func (s *DirStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *DirStore) Exists(name string) (bool, error) {
	_, err := os.Stat(s.Path(name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Save streams r into name through a temporary .part file that is renamed
// into place once the copy succeeds. A failed copy leaves nothing behind.
func (s *DirStore) Save(name string, r io.Reader, progress func(done int64)) (int64, error) {
	target := s.Path(name)
	tmp := target + PartialSuffix

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", tmp, err)
	}

	written, err := copyChunked(f, r, ChunkSize, progress)
	closeErr := f.Close()

	if err != nil {
		_ = os.Remove(tmp)
		return written, fmt.Errorf("write %s: %w", name, err)
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return written, fmt.Errorf("close %s: %w", name, closeErr)
	}

	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return written, fmt.Errorf("rename %s: %w", name, err)
	}

	return written, nil
}

func copyChunked(dst io.Writer, src io.Reader, size int, progress func(done int64)) (int64, error) {
	buf := make([]byte, size)
	var total int64
	for {
		nr, er := src.Read(buf)

		if nr > 0 {
			nw, ew := dst.Write(buf[0:nr])
			if nw > 0 {
				total += int64(nw)
				if progress != nil {
					progress(total)
				}
			}
			if ew != nil {
				return total, ew
			}
			if nr != nw {
				return total, io.ErrShortWrite
			}
		}

		if er != nil {
			if er == io.EOF {
				return total, nil
			}
			return total, er
		}
	}
}
