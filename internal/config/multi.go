package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	appName      = "reciterd"
	DefaultLabel = "Default"
)

var ErrNoConfig = errors.New("no config selected")

// ConfigRoot is RECITERD_CONFIG_HOME when set, else the platform config dir.
func ConfigRoot() string {
	if dir := os.Getenv(envPrefix + "CONFIG_HOME"); dir != "" {
		return dir
	}

	// Windows
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, appName)
	}

	// Linux/macOS XDG
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

func ConfigsDir() string {
	return filepath.Join(ConfigRoot(), "configs")
}

func CurrentLabelFile() string {
	return filepath.Join(ConfigRoot(), "current_config")
}

func ensureDirs() error {
	return os.MkdirAll(ConfigsDir(), 0755)
}

func validLabel(label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return errors.New("label cannot be empty")
	}
	if strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		return fmt.Errorf("invalid label %q", label)
	}
	return nil
}

// ConfigPathByLabel returns where the profile label is stored. It does not
// check that the file exists.
func ConfigPathByLabel(label string) (string, error) {
	if err := validLabel(label); err != nil {
		return "", err
	}
	return filepath.Join(ConfigsDir(), label+".yaml"), nil
}

func CurrentLabel() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	b, err := os.ReadFile(CurrentLabelFile())
	if os.IsNotExist(err) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}

func ActiveConfigPath() (string, error) {
	label, err := CurrentLabel()
	if err != nil {
		return "", err
	}
	if label == "" {
		return "", ErrNoConfig
	}

	return ConfigPathByLabel(label)
}

type ConfigInfo struct {
	Label  string
	Path   string
	Active bool
}

func ListConfigs() ([]ConfigInfo, error) {
	if err := ensureDirs(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ConfigsDir())
	if err != nil {
		return nil, err
	}

	activeLabel, _ := CurrentLabel()
	var out []ConfigInfo

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") {
			continue
		}

		label := strings.TrimSuffix(name, ".yaml")
		out = append(out, ConfigInfo{
			Label:  label,
			Path:   filepath.Join(ConfigsDir(), name),
			Active: label == activeLabel,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func SwitchConfig(label string) error {
	cfgPath, err := ConfigPathByLabel(label)
	if err != nil {
		return err
	}
	if err := ensureDirs(); err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err != nil {
		return fmt.Errorf("config %q does not exist", label)
	}

	return os.WriteFile(CurrentLabelFile(), []byte(label), 0644)
}

// CreateConfig writes a new profile. With an empty srcPath the profile holds
// the defaults, otherwise srcPath is parsed and copied.
func CreateConfig(label, srcPath string) (string, error) {
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return "", err
	}
	if err := ensureDirs(); err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config %q already exists", label)
	}

	cfg := DefaultConfig()
	if srcPath != "" {
		cfg, err = loadYAML(srcPath)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", srcPath, err)
		}
	}

	if err := SaveYAML(cfg, path); err != nil {
		return "", err
	}

	return path, nil
}

func RenameConfig(oldLabel, newLabel string) error {
	oldPath, err := ConfigPathByLabel(oldLabel)
	if err != nil {
		return err
	}
	newPath, err := ConfigPathByLabel(newLabel)
	if err != nil {
		return err
	}

	if _, err := os.Stat(oldPath); err != nil {
		return fmt.Errorf("config %q does not exist", oldLabel)
	}
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("config %q already exists", newLabel)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}

	active, _ := CurrentLabel()
	if active == oldLabel {
		return os.WriteFile(CurrentLabelFile(), []byte(newLabel), 0644)
	}

	return nil
}

// RemoveConfig deletes a profile. Removing the active one switches back to
// Default, which itself cannot be removed. The returned flag reports that
// switch.
func RemoveConfig(label string) (bool, error) {
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return false, err
	}
	if label == DefaultLabel {
		return false, errors.New("cannot remove the Default config")
	}

	if _, err := os.Stat(path); err != nil {
		return false, fmt.Errorf("config %q does not exist", label)
	}

	switched := false
	active, _ := CurrentLabel()
	if active == label {
		if err := SwitchConfig(DefaultLabel); err != nil {
			return false, fmt.Errorf("failed switching to Default: %w", err)
		}
		switched = true
	}

	return switched, os.Remove(path)
}

// InitDefaultConfig creates Default.yaml and makes it active. When the file
// is already there it is only re-activated and os.ErrExist is returned.
func InitDefaultConfig() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	defPath := filepath.Join(ConfigsDir(), DefaultLabel+".yaml")

	if _, err := os.Stat(defPath); err == nil {
		_ = os.WriteFile(CurrentLabelFile(), []byte(DefaultLabel), 0644)
		return defPath, os.ErrExist
	}

	if err := SaveYAML(DefaultConfig(), defPath); err != nil {
		return "", err
	}

	if err := os.WriteFile(CurrentLabelFile(), []byte(DefaultLabel), 0644); err != nil {
		return "", err
	}
	return defPath, nil
}
