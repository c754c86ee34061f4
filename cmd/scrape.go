package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/brogergvhs/comicd/internal/boundary"
	"github.com/brogergvhs/comicd/internal/browser"
	"github.com/brogergvhs/comicd/internal/catalog"
	"github.com/brogergvhs/comicd/internal/config"
	"github.com/brogergvhs/comicd/internal/fetch"
	"github.com/brogergvhs/comicd/internal/imagecheck"
	"github.com/brogergvhs/comicd/internal/locate"
	"github.com/brogergvhs/comicd/internal/naming"
	"github.com/brogergvhs/comicd/internal/navigate"
	"github.com/brogergvhs/comicd/internal/scrape"
	"github.com/brogergvhs/comicd/internal/store"
	"github.com/brogergvhs/comicd/internal/ui"
	"github.com/brogergvhs/comicd/internal/util"

	"github.com/spf13/cobra"
)

var (
	flagURL          string
	flagHost         string
	flagHeadless     bool
	flagFrom         int
	flagLookup       bool
	flagCBZ          bool
	flagMaxPages     int
	flagNoBoundary   bool
	flagNoPrime      bool
	flagNoProgress   bool
	flagInitialDelay time.Duration
	flagPageDelay    time.Duration
)

func init() {
	scrapeCmd := &cobra.Command{
		Use:   "scrape <volume> [issue]",
		Short: "Download the pages of one issue, or of every issue of a volume when no issue is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runScrape,
	}

	// selection
	scrapeCmd.Flags().StringVar(&flagURL, "url", "", "start URL, overrides the one built from volume and issue")
	scrapeCmd.Flags().StringVar(&flagHost, "host", "", "comic host (default from config)")
	scrapeCmd.Flags().IntVar(&flagFrom, "from", 1, "bulk mode: first issue number to try")
	scrapeCmd.Flags().BoolVar(&flagLookup, "lookup", false, "bulk mode: take the issue list from Comic Vine")

	// runtime
	scrapeCmd.Flags().StringVar(&flagOutput, "output", "", "output root folder")
	scrapeCmd.Flags().BoolVar(&flagHeadless, "headless", false, "run the browser headless")
	scrapeCmd.Flags().BoolVar(&flagCBZ, "cbz", false, "also pack each issue into a CBZ file")
	scrapeCmd.Flags().IntVar(&flagMaxPages, "max-pages", 0, "safety ceiling of pages per issue")
	scrapeCmd.Flags().BoolVar(&flagNoBoundary, "no-boundary", false, "do not stop when navigation reaches another issue")
	scrapeCmd.Flags().BoolVar(&flagNoPrime, "no-prime", false, "skip the reader server/quality clicks")
	scrapeCmd.Flags().BoolVar(&flagNoProgress, "no-progress", false, "hide progress bars")
	scrapeCmd.Flags().DurationVar(&flagInitialDelay, "initial-delay", 0, "wait after the first page load")
	scrapeCmd.Flags().DurationVar(&flagPageDelay, "page-delay", 0, "wait between pages")

	// headers/auth
	scrapeCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	scrapeCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	scrapeCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	scrapeCmd.Flags().BoolVar(&flagCloudflare, "cloudflare", false, "wrap image downloads with a Cloudflare-friendly transport")
	scrapeCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "Comic Vine API key for --lookup")

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(config.Options{
		ComicHost:    flagHost,
		Headless:     flagHeadless,
		CBZ:          flagCBZ,
		MaxPages:     flagMaxPages,
		NoBoundary:   flagNoBoundary,
		InitialDelay: flagInitialDelay,
		PageDelay:    flagPageDelay,
	})
	if err != nil {
		return err
	}

	volume := args[0]
	issue := ""
	if len(args) == 2 {
		issue = args[1]
	}

	if issue == "" && flagURL != "" {
		got, ok := boundary.ExtractIssue(flagURL)
		if !ok {
			return fmt.Errorf("cannot tell the issue from --url %q, pass it as an argument", flagURL)
		}
		issue = got
	}

	ctx, cancel := util.InterruptContext(context.Background(), os.Stdout)
	defer cancel()

	// Resolve the issue list before launching anything.
	var issues []string
	if issue == "" && flagLookup {
		issues, err = lookupIssues(ctx, cfg, log, volume)
		if err != nil {
			return err
		}
	}

	referer := "https://" + cfg.ComicHost + "/"
	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:          cfg.DownloadTimeout,
		UserAgent:        cfg.UserAgent,
		Cookie:           cfg.Cookie,
		CookieFile:       cfg.CookieFile,
		Referer:          referer,
		CloudflareBypass: cfg.CloudflareBypass,
		DebugLogger:      log,
	})
	if err != nil {
		return err
	}

	sess, err := browser.NewChrome(ctx, browser.ChromeOptions{
		Headless:  cfg.Headless,
		UserAgent: cfg.UserAgent,
		Cookie:    cfg.Cookie,
		Log:       log,
	})
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer sess.Close()

	var pm *ui.MPBProgressManager
	if !flagNoProgress {
		pm = ui.NewProgressManager(os.Stdout)
	}

	locator := locate.DefaultPolicy()
	locator.Hosts = []string{cfg.ImageHost}

	opts := scrape.DefaultOptions()
	opts.MaxPages = cfg.MaxPages
	opts.BoundaryCheck = cfg.BoundaryCheck
	opts.Prime = !flagNoPrime
	opts.CBZ = cfg.CBZ
	opts.InitialDelay = cfg.InitialDelay
	opts.PageDelay = cfg.PageDelay

	stats := &ui.Stats{}
	ctl := &scrape.Controller{
		Session: sess,
		Fetcher: fetch.New(client, fetch.Options{
			Timeout: cfg.DownloadTimeout,
			MinSize: cfg.MinFileSize,
			Referer: referer,
			Log:     log,
		}),
		Validator: imagecheck.DefaultPolicy(),
		Locator:   locator,
		Navigator: navigate.New(sess, cfg.SettleDelay, log),
		Layout:    store.Layout{Root: cfg.Output},
		Opts:      opts,
		Log:       log,
		Progress:  pm,
		Stats:     stats,
	}

	start := time.Now()

	if issue != "" {
		url := flagURL
		if url == "" {
			url = naming.IssueURL(cfg.ComicHost, volume, issue)
		}
		_, err = ctl.Run(ctx, scrape.Request{Volume: volume, Issue: issue, URL: url})
	} else {
		_, err = ctl.RunVolume(ctx, scrape.VolumeRequest{
			Volume: volume,
			Host:   cfg.ComicHost,
			Issues: issues,
			From:   flagFrom,
		})
	}

	pm.Close()

	fmt.Println()
	fmt.Println("Scrape Summary:")
	fmt.Println(stats.Summary())
	fmt.Printf("Time: %s\n", time.Since(start).Round(time.Second))

	if errors.Is(err, context.Canceled) {
		log.Warnf("Interrupted, partial results kept\n")
		return nil
	}

	return err
}

func lookupIssues(ctx context.Context, cfg *config.Config, log *ui.Logger, volume string) ([]string, error) {
	cv, err := newCatalog(cfg, log)
	if err != nil {
		return nil, err
	}

	vol, err := cv.SearchVolume(ctx, volume)
	if err != nil {
		return nil, err
	}

	list, err := cv.ListIssues(ctx, vol.ID)
	if err != nil {
		return nil, err
	}

	nums := catalog.Numbers(list)
	log.Infof("%s (%s): %d issue(s) listed\n", vol.Name, vol.PublisherName(), len(nums))
	if len(nums) == 0 {
		return nil, fmt.Errorf("volume %q: no issues: %w", vol.Name, catalog.ErrNotFound)
	}

	return nums, nil
}
