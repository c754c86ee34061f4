// Package covers downloads every issue cover of a catalog volume.
package covers

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/brogergvhs/comicd/internal/catalog"
	"github.com/brogergvhs/comicd/internal/naming"
	"github.com/brogergvhs/comicd/internal/store"
	"github.com/brogergvhs/comicd/internal/ui"
)

type Catalog interface {
	SearchVolume(ctx context.Context, name string) (catalog.Volume, error)
	ListIssues(ctx context.Context, volumeID int) ([]catalog.Issue, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, url, dest string, progress func(done int64)) (int64, error)
}

type Downloader struct {
	Catalog  Catalog
	Fetcher  Fetcher
	Layout   store.Layout
	Delay    time.Duration
	Log      *ui.Logger
	Progress *ui.MPBProgressManager
}

type Summary struct {
	Volume     catalog.Volume
	Dir        string
	Total      int
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
}

// Filename is "<issue number>-<issue name><ext>", ext taken from the cover
// URL path and defaulting to .jpg.
func Filename(is catalog.Issue) (string, bool) {
	if is.Image.SuperURL == "" {
		return "", false
	}

	ext := ".jpg"
	if u, err := url.Parse(is.Image.SuperURL); err == nil {
		if e := path.Ext(u.Path); e != "" {
			ext = strings.ToLower(e)
		}
	}

	num := is.IssueNumber
	if strings.TrimSpace(num) == "" {
		num = "Unknown"
	}

	return naming.ForFilesystem(num) + "-" + naming.ForFilesystem(is.Name) + ext, true
}

func (d *Downloader) Run(ctx context.Context, name string) (Summary, error) {
	if d.Log == nil {
		d.Log = ui.NewLogger(false)
	}

	var sum Summary

	vol, err := d.Catalog.SearchVolume(ctx, name)
	if err != nil {
		return sum, err
	}
	sum.Volume = vol
	d.Log.Infof("Found %s (%s), %s, %d issue(s)\n", vol.Name, orNA(vol.StartYear), vol.PublisherName(), vol.CountOfIssues)

	issues, err := d.Catalog.ListIssues(ctx, vol.ID)
	if err != nil {
		return sum, err
	}

	sum.Dir = d.Layout.CoversDir(vol.Name)
	sum.Total = len(issues)
	if len(issues) == 0 {
		d.Log.Warnf("No issues found for %s\n", vol.Name)
		return sum, nil
	}

	if err := os.MkdirAll(sum.Dir, 0o755); err != nil {
		return sum, err
	}

	d.Log.Infof("Saving %d cover(s) to %s\n", len(issues), sum.Dir)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if d.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(d.Delay), 1)
	}

	bar := d.Progress.Register(vol.Name + " covers")
	bar.SetTotal(len(issues))
	defer bar.MarkDone()

	for i, is := range issues {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		prefix := fmt.Sprintf("[%d/%d] Issue %s", i+1, len(issues), is.IssueNumber)

		file, ok := Filename(is)
		if !ok {
			sum.Failed++
			d.Log.Errorf("%s: no cover image\n", prefix)
			bar.Update(i+1, sum.Bytes)
			continue
		}

		dest := filepath.Join(sum.Dir, file)
		if _, err := os.Stat(dest); err == nil {
			sum.Skipped++
			d.Log.Infof("%s: already downloaded\n", prefix)
			bar.Update(i+1, sum.Bytes)
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return sum, err
		}

		n, err := d.Fetcher.Fetch(ctx, is.Image.SuperURL, dest, nil)
		if err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			sum.Failed++
			d.Log.Errorf("%s: %v\n", prefix, err)
			bar.Update(i+1, sum.Bytes)
			continue
		}

		sum.Downloaded++
		sum.Bytes += n
		d.Log.Debugf("%s: saved %s\n", prefix, file)
		bar.Update(i+1, sum.Bytes)
	}

	return sum, nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
