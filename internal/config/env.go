package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "RECITERD_"

// LoadEnvFiles loads path into the process environment, or ./.env when path
// is empty. A missing ./.env is not an error; variables already set win.
func LoadEnvFiles(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

func applyEnv(c *Config) error {
	c.BaseURL = EnvString("BASE_URL", c.BaseURL)
	c.Output = EnvString("OUTPUT", c.Output)
	c.PageSuffix = EnvString("PAGE_SUFFIX", c.PageSuffix)
	c.PathPrefix = EnvString("PATH_PREFIX", c.PathPrefix)
	c.UserAgent = EnvString("USER_AGENT", c.UserAgent)
	c.Cookie = EnvString("COOKIE", c.Cookie)
	c.CookieFile = EnvString("COOKIE_FILE", c.CookieFile)
	c.MetricsAddr = EnvString("METRICS_ADDR", c.MetricsAddr)

	if v := EnvString("ALLOW_EXT", ""); v != "" {
		c.AllowExt = SplitList(v)
	}

	var err error
	if c.MaxPages, err = EnvInt("MAX_PAGES", c.MaxPages); err != nil {
		return err
	}
	if c.CacheSize, err = EnvInt("CACHE_SIZE", c.CacheSize); err != nil {
		return err
	}
	if c.Timeout, err = envDuration("TIMEOUT", c.Timeout); err != nil {
		return err
	}
	if c.ImagePause, err = envDuration("IMAGE_PAUSE", c.ImagePause); err != nil {
		return err
	}
	if c.PagePause, err = envDuration("PAGE_PAUSE", c.PagePause); err != nil {
		return err
	}
	if c.MaxRPS, err = envFloat("MAX_RPS", c.MaxRPS); err != nil {
		return err
	}
	if c.CloudflareBypass, err = envBool("CLOUDFLARE_BYPASS", c.CloudflareBypass); err != nil {
		return err
	}
	if c.Debug, err = envBool("DEBUG", c.Debug); err != nil {
		return err
	}
	if c.NoProgress, err = envBool("NO_PROGRESS", c.NoProgress); err != nil {
		return err
	}

	return nil
}

// EnvString returns RECITERD_<key>, or fallback when unset or blank.
func EnvString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
		return v
	}
	return fallback
}

func EnvInt(key string, fallback int) (int, error) {
	v := EnvString(key, "")
	if v == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := EnvString(key, "")
	if v == "" {
		return fallback, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return f, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := EnvString(key, "")
	if v == "" {
		return fallback, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := EnvString(key, "")
	if v == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return d, nil
}

// SplitList splits "jpg|png,webp" style lists.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ',' || r == ' '
	})

	out := []string{}
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			out = append(out, f)
		}
	}

	return out
}
