package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("RECITERD_CONFIG_HOME", dir)
	return dir
}

func TestLoadMergedDefaults(t *testing.T) {
	isolate(t)

	cfg, used, err := LoadMerged(Options{})
	require.NoError(t, err)

	assert.Contains(t, used, "default config in memory")
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, 0, cfg.MaxPages)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, time.Second, cfg.ImagePause)
	assert.Equal(t, 2*time.Second, cfg.PagePause)
	assert.Equal(t, []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}, cfg.AllowExt)
}

func TestLoadMergedPrecedence(t *testing.T) {
	isolate(t)

	_, err := InitDefaultConfig()
	require.NoError(t, err)

	path, err := ActiveConfigPath()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("base_url: https://profile.test\noutput: out\nmax_pages: 3\npage_pause: 5s\n"), 0o644))

	t.Setenv("RECITERD_OUTPUT", "env-out")
	t.Setenv("RECITERD_MAX_PAGES", "4")

	zero := time.Duration(0)
	seven := 7
	cfg, used, err := LoadMerged(Options{MaxPages: &seven, ImagePause: &zero})
	require.NoError(t, err)

	assert.Equal(t, path, used)
	assert.Equal(t, "https://profile.test", cfg.BaseURL)
	assert.Equal(t, "env-out", cfg.Output)
	assert.Equal(t, 7, cfg.MaxPages)
	assert.Equal(t, 5*time.Second, cfg.PagePause)
	assert.Equal(t, time.Duration(0), cfg.ImagePause)
	// keys absent from the profile keep their defaults
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}

func TestLoadMergedZeroMaxPagesClearsProfile(t *testing.T) {
	isolate(t)

	_, err := InitDefaultConfig()
	require.NoError(t, err)
	path, err := ActiveConfigPath()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("max_pages: 5\n"), 0o644))

	cfg, _, err := LoadMerged(Options{})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxPages)

	unlimited := 0
	cfg, _, err = LoadMerged(Options{MaxPages: &unlimited})
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MaxPages)
}

func TestLoadMergedIgnoreConfig(t *testing.T) {
	isolate(t)
	_, err := InitDefaultConfig()
	require.NoError(t, err)

	_, used, err := LoadMerged(Options{IgnoreConfig: true, BaseURL: "http://flag.test"})
	require.NoError(t, err)
	assert.Equal(t, "(ignored config)", used)
}

func TestLoadMergedEnvFile(t *testing.T) {
	isolate(t)

	envFile := filepath.Join(t.TempDir(), "harvest.env")
	require.NoError(t, os.WriteFile(envFile, []byte("RECITERD_BASE_URL=https://dotenv.test\nRECITERD_MAX_RPS=0.5\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("RECITERD_BASE_URL")
		os.Unsetenv("RECITERD_MAX_RPS")
	})

	cfg, _, err := LoadMerged(Options{EnvFile: envFile})
	require.NoError(t, err)

	assert.Equal(t, "https://dotenv.test", cfg.BaseURL)
	assert.Equal(t, 0.5, cfg.MaxRPS)
}

func TestLoadMergedBadEnv(t *testing.T) {
	isolate(t)
	t.Setenv("RECITERD_TIMEOUT", "soon")

	_, _, err := LoadMerged(Options{})
	assert.ErrorContains(t, err, "RECITERD_TIMEOUT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative base", func(c *Config) { c.BaseURL = "/quran" }},
		{"ftp base", func(c *Config) { c.BaseURL = "ftp://x.test" }},
		{"suffix without verb", func(c *Config) { c.PageSuffix = "quran/page" }},
		{"prefix without slash", func(c *Config) { c.PathPrefix = "media/person/" }},
		{"negative pages", func(c *Config) { c.MaxPages = -1 }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"negative pause", func(c *Config) { c.PagePause = -time.Second }},
		{"negative rps", func(c *Config) { c.MaxRPS = -1 }},
	}

	require.NoError(t, DefaultConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestProfiles(t *testing.T) {
	root := isolate(t)

	_, err := ActiveConfigPath()
	assert.True(t, errors.Is(err, ErrNoConfig))

	defPath, err := InitDefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "configs", "Default.yaml"), defPath)

	_, err = InitDefaultConfig()
	assert.ErrorIs(t, err, os.ErrExist)

	_, err = CreateConfig("mirror", "")
	require.NoError(t, err)
	_, err = CreateConfig("mirror", "")
	assert.Error(t, err)
	_, err = CreateConfig("../evil", "")
	assert.Error(t, err)

	require.NoError(t, SwitchConfig("mirror"))
	label, err := CurrentLabel()
	require.NoError(t, err)
	assert.Equal(t, "mirror", label)

	require.NoError(t, RenameConfig("mirror", "backup"))
	label, _ = CurrentLabel()
	assert.Equal(t, "backup", label)

	list, err := ListConfigs()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Default", list[0].Label)
	assert.Equal(t, "backup", list[1].Label)
	assert.True(t, list[1].Active)

	switched, err := RemoveConfig("backup")
	require.NoError(t, err)
	assert.True(t, switched)
	label, _ = CurrentLabel()
	assert.Equal(t, DefaultLabel, label)

	_, err = RemoveConfig(DefaultLabel)
	assert.Error(t, err)
	assert.Error(t, SwitchConfig("missing"))
}

func TestCreateConfigFromFile(t *testing.T) {
	isolate(t)

	src := filepath.Join(t.TempDir(), "src.yaml")
	require.NoError(t, os.WriteFile(src, []byte("max_pages: 9\n"), 0o644))

	path, err := CreateConfig("copy", src)
	require.NoError(t, err)

	cfg, err := loadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.MaxPages)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
}

func TestSaveYAMLRoundTripsDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, SaveYAML(DefaultConfig(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "page_pause: 2s")
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	DefaultConfig().Print(&buf)

	assert.Contains(t, buf.String(), "-base_url: https://www.assabile.com")
	assert.Contains(t, buf.String(), "-max_pages: unlimited")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"webp", "jpg", "png"}, SplitList("WEBP|jpg, png"))
}
