package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brogergvhs/reciterd/internal/harvest"
)

const (
	DefaultBaseURL = "https://www.assabile.com"
	DefaultOutput  = "client/public/reciters"
	DefaultTimeout = 15 * time.Second
)

type Config struct {
	BaseURL    string   `yaml:"base_url"`
	Output     string   `yaml:"output"`
	MaxPages   int      `yaml:"max_pages"`
	PageSuffix string   `yaml:"page_suffix"`
	PathPrefix string   `yaml:"path_prefix"`
	AllowExt   []string `yaml:"allow_ext"`

	Timeout    time.Duration `yaml:"timeout"`
	ImagePause time.Duration `yaml:"image_pause"`
	PagePause  time.Duration `yaml:"page_pause"`
	MaxRPS     float64       `yaml:"max_rps"`
	CacheSize  int           `yaml:"cache_size"`

	Cookie           string `yaml:"cookie"`
	CookieFile       string `yaml:"cookie_file"`
	UserAgent        string `yaml:"user_agent"`
	CloudflareBypass bool   `yaml:"cloudflare_bypass"`

	Debug       bool   `yaml:"debug"`
	NoProgress  bool   `yaml:"no_progress"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Options carries CLI flag values. Zero values leave the profile untouched.
type Options struct {
	IgnoreConfig bool
	EnvFile      string

	Debug      bool
	BaseURL    string
	Output     string
	MaxPages   *int // nil leaves the profile value, 0 means unlimited
	PageSuffix string
	PathPrefix string
	AllowExt   []string

	Timeout    time.Duration
	ImagePause *time.Duration
	PagePause  *time.Duration
	MaxRPS     float64

	Cookie           string
	CookieFile       string
	UserAgent        string
	CloudflareBypass bool
	NoProgress       bool
	MetricsAddr      string
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:    DefaultBaseURL,
		Output:     DefaultOutput,
		MaxPages:   0,
		PageSuffix: harvest.DefaultPageSuffix,
		PathPrefix: harvest.DefaultPathPrefix,
		AllowExt:   []string{"jpg", "jpeg", "png", "gif", "webp"},
		Timeout:    DefaultTimeout,
		ImagePause: harvest.DefaultImagePause,
		PagePause:  harvest.DefaultPagePause,
		CacheSize:  harvest.DefaultCacheSize,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Start from defaults so keys missing from older profiles keep sane values.
	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadMerged resolves the effective config: active profile (or defaults),
// then RECITERD_* environment, then CLI flags. The second return value
// describes where the profile came from.
func LoadMerged(opts Options) (*Config, string, error) {
	if err := LoadEnvFiles(opts.EnvFile); err != nil {
		return nil, "", err
	}

	cfg, used, err := loadProfile(opts.IgnoreConfig)
	if err != nil {
		return nil, "", err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, "", err
	}
	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, used, nil
}

func loadProfile(ignore bool) (*Config, string, error) {
	if ignore {
		return DefaultConfig(), "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if errors.Is(err, ErrNoConfig) || (err == nil && activePath == "") {
		return DefaultConfig(), "(default config in memory)\nRun `reciterd config init` to create an actual config", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	return cfg, activePath, nil
}

func mergeConfig(c *Config, o Options) {
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.MaxPages != nil {
		c.MaxPages = *o.MaxPages
	}
	if o.PageSuffix != "" {
		c.PageSuffix = o.PageSuffix
	}
	if o.PathPrefix != "" {
		c.PathPrefix = o.PathPrefix
	}
	if len(o.AllowExt) > 0 {
		c.AllowExt = o.AllowExt
	}
	if o.Timeout != 0 {
		c.Timeout = o.Timeout
	}
	if o.ImagePause != nil {
		c.ImagePause = *o.ImagePause
	}
	if o.PagePause != nil {
		c.PagePause = *o.PagePause
	}
	if o.MaxRPS != 0 {
		c.MaxRPS = o.MaxRPS
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.CloudflareBypass {
		c.CloudflareBypass = true
	}
	if o.Debug {
		c.Debug = true
	}
	if o.NoProgress {
		c.NoProgress = true
	}
	if o.MetricsAddr != "" {
		c.MetricsAddr = o.MetricsAddr
	}
}

func normalizeDefaults(c *Config) {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.PageSuffix == "" {
		c.PageSuffix = harvest.DefaultPageSuffix
	}
	if c.PathPrefix == "" {
		c.PathPrefix = harvest.DefaultPathPrefix
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.CacheSize == 0 {
		c.CacheSize = harvest.DefaultCacheSize
	}
	c.AllowExt = harvest.NormalizeExtList(c.AllowExt)
	if len(c.AllowExt) == 0 {
		c.AllowExt = harvest.NormalizeExtList(harvest.DefaultAllowExt)
	}
}

// Validate reports the first setting that cannot produce a working run.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if strings.Count(c.PageSuffix, "%d") != 1 {
		return fmt.Errorf("page_suffix must contain exactly one %%d, got %q", c.PageSuffix)
	}
	if !strings.HasPrefix(c.PathPrefix, "/") {
		return fmt.Errorf("path_prefix must start with /, got %q", c.PathPrefix)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max_pages must be >= 0, got %d", c.MaxPages)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %s", c.Timeout)
	}
	if c.ImagePause < 0 || c.PagePause < 0 {
		return errors.New("pauses must not be negative")
	}
	if c.MaxRPS < 0 {
		return fmt.Errorf("max_rps must be >= 0, got %g", c.MaxRPS)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must be >= 0, got %d", c.CacheSize)
	}

	return nil
}

// HarvestOptions maps the config onto the harvester's settings.
func (c *Config) HarvestOptions() harvest.Options {
	return harvest.Options{
		BaseURL:    c.BaseURL,
		MaxPages:   c.MaxPages,
		PageSuffix: c.PageSuffix,
		PathPrefix: c.PathPrefix,
		AllowExt:   c.AllowExt,
		ImagePause: c.ImagePause,
		PagePause:  c.PagePause,
		CacheSize:  c.CacheSize,
	}
}

func (c *Config) Print(w io.Writer) {
	fmt.Fprintf(w, " -base_url: %s\n", c.BaseURL)
	fmt.Fprintf(w, " -output: %s\n", c.Output)
	if c.MaxPages > 0 {
		fmt.Fprintf(w, " -max_pages: %d\n", c.MaxPages)
	} else {
		fmt.Fprintln(w, " -max_pages: unlimited")
	}
	fmt.Fprintf(w, " -page_suffix: %s\n", c.PageSuffix)
	fmt.Fprintf(w, " -path_prefix: %s\n", c.PathPrefix)
	if len(c.AllowExt) > 0 {
		fmt.Fprintf(w, " -allow_ext: %s\n", strings.Join(c.AllowExt, ", "))
	}
	fmt.Fprintf(w, " -timeout: %s\n", c.Timeout)
	fmt.Fprintf(w, " -image_pause: %s\n", c.ImagePause)
	fmt.Fprintf(w, " -page_pause: %s\n", c.PagePause)
	if c.MaxRPS > 0 {
		fmt.Fprintf(w, " -max_rps: %g\n", c.MaxRPS)
	}
	if c.CookieFile != "" {
		fmt.Fprintf(w, " -cookie_file: %s\n", c.CookieFile)
	}
	if c.UserAgent != "" {
		fmt.Fprintf(w, " -user_agent: %s\n", c.UserAgent)
	}
	if c.CloudflareBypass {
		fmt.Fprintf(w, " -cloudflare_bypass: %t\n", c.CloudflareBypass)
	}
	if c.Debug {
		fmt.Fprintf(w, " -debug: %t\n", c.Debug)
	}
	if c.MetricsAddr != "" {
		fmt.Fprintf(w, " -metrics_addr: %s\n", c.MetricsAddr)
	}
}
