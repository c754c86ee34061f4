package scrape

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/comicd/internal/naming"
)

// NotFoundMarkers are page texts the host shows for a missing issue.
var NotFoundMarkers = []string{
	"sorry, not found",
	"page not found",
	"404 not found",
	"this comic is not available",
}

// maxSequentialIssues bounds bulk mode when no issue list is known.
const maxSequentialIssues = 1000

type VolumeRequest struct {
	Volume string
	Host   string

	// Issues, when set, is scraped in order. Otherwise issue numbers count
	// up from From until one does not exist.
	Issues []string
	From   int
}

// Probe loads url and reports whether it shows a readable issue.
func (c *Controller) Probe(ctx context.Context, url string) (bool, error) {
	c.defaults()

	if err := c.Session.Open(ctx, url); err != nil {
		return false, err
	}
	if err := c.Session.Settle(ctx, c.Opts.InitialDelay); err != nil {
		return false, err
	}

	html, err := c.Session.HTML(ctx)
	if err != nil {
		return false, err
	}

	missing, err := notFoundPage(html)
	if err != nil {
		return false, err
	}
	if missing {
		return false, nil
	}

	imgs, err := c.Session.Images(ctx)
	if err != nil {
		return false, err
	}

	_, ok := c.Locator.Select(imgs)
	return ok, nil
}

func notFoundPage(html string) (bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false, fmt.Errorf("parse page: %w", err)
	}

	text := strings.ToLower(doc.Find("title").Text() + " " + doc.Find("body").Text())
	for _, m := range NotFoundMarkers {
		if strings.Contains(text, m) {
			return true, nil
		}
	}

	return false, nil
}

// RunVolume scrapes issues one after another and stops at the first issue
// the host does not have.
func (c *Controller) RunVolume(ctx context.Context, vr VolumeRequest) ([]Result, error) {
	c.defaults()

	next := c.issueSource(vr)

	var results []Result
	for {
		issue, ok := next()
		if !ok {
			return results, nil
		}

		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		url := naming.IssueURL(vr.Host, vr.Volume, issue)

		exists, err := c.Probe(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			c.Log.Warnf("probe %s #%s: %v\n", vr.Volume, issue, err)
		}
		if !exists {
			c.Log.Infof("Issue %s of %s not found, stopping\n", issue, vr.Volume)
			return results, nil
		}

		res, err := c.Run(ctx, Request{Volume: vr.Volume, Issue: issue, URL: url})
		results = append(results, res)
		if err != nil {
			return results, err
		}

		if res.Reason == StopInterrupted {
			return results, ctx.Err()
		}
	}
}

func (c *Controller) issueSource(vr VolumeRequest) func() (string, bool) {
	if len(vr.Issues) > 0 {
		i := 0
		return func() (string, bool) {
			if i >= len(vr.Issues) {
				return "", false
			}
			i++
			return vr.Issues[i-1], true
		}
	}

	n := vr.From
	if n < 1 {
		n = 1
	}
	last := n + maxSequentialIssues
	return func() (string, bool) {
		if n >= last {
			return "", false
		}
		n++
		return strconv.Itoa(n - 1), true
	}
}
