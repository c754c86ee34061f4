package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Output    string `yaml:"output"`
	ComicHost string `yaml:"comic_host"`
	ImageHost string `yaml:"image_host"`
	Headless  bool   `yaml:"headless"`
	Debug     bool   `yaml:"debug"`
	CBZ       bool   `yaml:"cbz"`

	MaxPages      int  `yaml:"max_pages"`
	BoundaryCheck bool `yaml:"boundary_check"`

	InitialDelay    time.Duration `yaml:"initial_delay"`
	PageDelay       time.Duration `yaml:"page_delay"`
	SettleDelay     time.Duration `yaml:"settle_delay"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	MinFileSize     int64         `yaml:"min_file_size"`

	Cookie           string `yaml:"cookie"`
	CookieFile       string `yaml:"cookie_file"`
	UserAgent        string `yaml:"user_agent"`
	CloudflareBypass bool   `yaml:"cloudflare_bypass"`

	ComicVineAPIKey string        `yaml:"comicvine_api_key"`
	EnvFile         string        `yaml:"env_file"`
	RequestDelay    time.Duration `yaml:"request_delay"`
}

// Options carries CLI flags. Zero values mean "not given".
type Options struct {
	IgnoreConfig bool
	Debug        bool
	Output       string
	ComicHost    string
	Headless     bool
	CBZ          bool

	MaxPages     int
	NoBoundary   bool
	InitialDelay time.Duration
	PageDelay    time.Duration

	Cookie     string
	CookieFile string
	UserAgent  string
	Cloudflare bool

	ComicVineAPIKey string
}

func DefaultConfig() *Config {
	return &Config{
		Output:          "assets",
		ComicHost:       "readcomiconline.li",
		ImageHost:       "blogspot.com",
		MaxPages:        200,
		BoundaryCheck:   true,
		InitialDelay:    5 * time.Second,
		PageDelay:       3 * time.Second,
		SettleDelay:     time.Second,
		DownloadTimeout: 15 * time.Second,
		MinFileSize:     10000,
		EnvFile:         ".env",
		RequestDelay:    time.Second,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// loadYAML reads path over the defaults, so keys missing from older files
// keep their default value.
func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if err == ErrNoConfig || activePath == "" {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory)\nRun `comicd config init` to create an actual config\n", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.ComicHost != "" {
		c.ComicHost = o.ComicHost
	}
	if o.Debug {
		c.Debug = true
	}
	if o.Headless {
		c.Headless = true
	}
	if o.CBZ {
		c.CBZ = true
	}
	if o.MaxPages > 0 {
		c.MaxPages = o.MaxPages
	}
	if o.NoBoundary {
		c.BoundaryCheck = false
	}
	if o.InitialDelay > 0 {
		c.InitialDelay = o.InitialDelay
	}
	if o.PageDelay > 0 {
		c.PageDelay = o.PageDelay
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
	if o.Cloudflare {
		c.CloudflareBypass = true
	}
	if o.ComicVineAPIKey != "" {
		c.ComicVineAPIKey = o.ComicVineAPIKey
	}
}

func normalizeDefaults(c *Config) {
	def := DefaultConfig()

	if c.Output == "" {
		c.Output = def.Output
	}
	if c.ComicHost == "" {
		c.ComicHost = def.ComicHost
	}
	if c.ImageHost == "" {
		c.ImageHost = def.ImageHost
	}
	if c.MaxPages <= 0 {
		c.MaxPages = def.MaxPages
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = def.DownloadTimeout
	}
	if c.MinFileSize < 0 {
		c.MinFileSize = 0
	}
	if c.InitialDelay < 0 {
		c.InitialDelay = 0
	}
	if c.PageDelay < 0 {
		c.PageDelay = 0
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	if c.RequestDelay < 0 {
		c.RequestDelay = 0
	}
}

func (c *Config) Print(w io.Writer) {
	fmt.Fprintf(w, " -output: %s\n", c.Output)
	fmt.Fprintf(w, " -comic_host: %s\n", c.ComicHost)
	fmt.Fprintf(w, " -image_host: %s\n", c.ImageHost)
	fmt.Fprintf(w, " -max_pages: %d\n", c.MaxPages)
	fmt.Fprintf(w, " -boundary_check: %t\n", c.BoundaryCheck)
	fmt.Fprintf(w, " -delays: initial=%s page=%s settle=%s\n", c.InitialDelay, c.PageDelay, c.SettleDelay)
	fmt.Fprintf(w, " -download_timeout: %s\n", c.DownloadTimeout)
	fmt.Fprintf(w, " -min_file_size: %d\n", c.MinFileSize)
	if c.Headless {
		fmt.Fprintf(w, " -headless: %t\n", c.Headless)
	}
	if c.Debug {
		fmt.Fprintf(w, " -debug: %t\n", c.Debug)
	}
	if c.CBZ {
		fmt.Fprintf(w, " -cbz: %t\n", c.CBZ)
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
	if c.ComicVineAPIKey != "" {
		fmt.Fprintf(w, " -comicvine_api_key: %s\n", mask(c.ComicVineAPIKey))
	}
}

func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
