package cmd

import (
	"fmt"
	"os"

	"github.com/brogergvhs/comicd/internal/catalog"
	"github.com/brogergvhs/comicd/internal/config"
	"github.com/brogergvhs/comicd/internal/ui"
	"github.com/brogergvhs/comicd/internal/util"
)

// shared by scrape and covers
var (
	flagOutput     string
	flagAPIKey     string
	flagCookie     string
	flagCookieFile string
	flagUserAgent  string
	flagCloudflare bool
)

func loadConfig(opts config.Options) (*config.Config, *ui.Logger, error) {
	opts.IgnoreConfig = flagIgnoreConfig
	opts.Debug = flagDebug
	opts.Output = flagOutput
	opts.ComicVineAPIKey = flagAPIKey
	opts.Cookie = flagCookie
	opts.CookieFile = flagCookieFile
	opts.UserAgent = flagUserAgent
	opts.Cloudflare = flagCloudflare

	cfg, usedPath, err := config.LoadMerged(opts)
	if err != nil {
		return nil, nil, err
	}

	log := ui.NewLogger(cfg.Debug)
	if cfg.Debug {
		fmt.Printf("Config file: %s\n", usedPath)
		cfg.Print(os.Stdout)
		fmt.Println()
	}

	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return nil, nil, fmt.Errorf("cannot create output folder: %w", err)
	}

	return cfg, log, nil
}

func newCatalog(cfg *config.Config, log *ui.Logger) (*catalog.Client, error) {
	key := cfg.ComicVineAPIKey
	if key == "" {
		key = catalog.APIKeyFromEnv(cfg.EnvFile)
	}
	if key == "" {
		return nil, catalog.ErrMissingAPIKey
	}

	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:     cfg.DownloadTimeout * 2,
		UserAgent:   "comicd/" + Version + " (Comic Vine API client)",
		DebugLogger: log,
	})
	if err != nil {
		return nil, err
	}

	return catalog.New(catalog.Options{
		APIKey:       key,
		HTTPClient:   client,
		RequestDelay: cfg.RequestDelay,
		Log:          log,
	})
}
