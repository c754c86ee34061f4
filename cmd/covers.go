package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/brogergvhs/comicd/internal/config"
	"github.com/brogergvhs/comicd/internal/covers"
	"github.com/brogergvhs/comicd/internal/fetch"
	"github.com/brogergvhs/comicd/internal/store"
	"github.com/brogergvhs/comicd/internal/ui"
	"github.com/brogergvhs/comicd/internal/util"

	"github.com/spf13/cobra"
)

func init() {
	coversCmd := &cobra.Command{
		Use:   "covers <volume>",
		Short: "Download every issue cover of a volume from Comic Vine",
		Args:  cobra.ExactArgs(1),
		RunE:  runCovers,
	}

	coversCmd.Flags().StringVar(&flagOutput, "output", "", "output root folder")
	coversCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "Comic Vine API key")

	rootCmd.AddCommand(coversCmd)
}

func runCovers(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(config.Options{})
	if err != nil {
		return err
	}

	cv, err := newCatalog(cfg, log)
	if err != nil {
		return err
	}

	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:     cfg.DownloadTimeout,
		UserAgent:   cfg.UserAgent,
		DebugLogger: log,
	})
	if err != nil {
		return err
	}

	ctx, cancel := util.InterruptContext(context.Background(), os.Stdout)
	defer cancel()

	pm := ui.NewProgressManager(os.Stdout)

	d := &covers.Downloader{
		Catalog:  cv,
		Fetcher:  fetch.New(client, fetch.Options{Timeout: cfg.DownloadTimeout, Log: log}),
		Layout:   store.Layout{Root: cfg.Output},
		Delay:    cfg.RequestDelay / 2,
		Log:      log,
		Progress: pm,
	}

	sum, err := d.Run(ctx, args[0])
	pm.Close()
	if err != nil && ctx.Err() == nil {
		return err
	}

	fmt.Println()
	fmt.Println("Download Summary:")
	fmt.Printf("Volume:     %s\n", sum.Volume.Name)
	fmt.Printf("Issues:     %d\n", sum.Total)
	fmt.Printf("Downloaded: %d\n", sum.Downloaded)
	fmt.Printf("Skipped:    %d\n", sum.Skipped)
	fmt.Printf("Failed:     %d\n", sum.Failed)
	fmt.Printf("Data:       %s\n", util.Human(sum.Bytes))
	fmt.Printf("Output:     %s\n", sum.Dir)

	return nil
}
