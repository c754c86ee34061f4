// Package scrape walks a reader page by page, saving each comic page until
// the issue ends.
package scrape

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brogergvhs/comicd/internal/boundary"
	"github.com/brogergvhs/comicd/internal/browser"
	"github.com/brogergvhs/comicd/internal/fingerprint"
	"github.com/brogergvhs/comicd/internal/imagecheck"
	"github.com/brogergvhs/comicd/internal/locate"
	"github.com/brogergvhs/comicd/internal/naming"
	"github.com/brogergvhs/comicd/internal/navigate"
	"github.com/brogergvhs/comicd/internal/store"
	"github.com/brogergvhs/comicd/internal/ui"
	"github.com/brogergvhs/comicd/internal/util"
)

type Fetcher interface {
	Fetch(ctx context.Context, url, dest string, progress func(done int64)) (int64, error)
}

type Validator interface {
	Validate(path string) error
}

type Options struct {
	MaxPages      int
	BoundaryCheck bool
	Prime         bool
	CBZ           bool

	InitialDelay time.Duration
	PageDelay    time.Duration

	// A freshly navigated page may still show the previous image. The
	// locator is polled until the source changes or attempts run out.
	PollInterval time.Duration
	PollAttempts int

	CounterSelectors []string
}

func DefaultOptions() Options {
	return Options{
		MaxPages:         200,
		BoundaryCheck:    true,
		Prime:            true,
		InitialDelay:     5 * time.Second,
		PageDelay:        3 * time.Second,
		PollInterval:     500 * time.Millisecond,
		PollAttempts:     6,
		CounterSelectors: []string{"#pageInfo", ".page-info", ".page-count", "#selectPage"},
	}
}

type Request struct {
	Volume string
	Issue  string
	URL    string
}

type Result struct {
	Request

	Reason StopReason
	Err    error

	Pages      []store.PageRecord
	Resumed    int
	Downloaded int
	Bytes      int64
	TotalHint  int

	IssueDir     string
	MetadataPath string
	CBZPath      string
}

type Controller struct {
	Session   browser.Session
	Fetcher   Fetcher
	Validator Validator
	Locator   locate.Policy
	Navigator *navigate.Navigator
	Layout    store.Layout
	Opts      Options

	Log      *ui.Logger
	Progress *ui.MPBProgressManager
	Stats    *ui.Stats
	Now      func() time.Time
}

// run is the mutable state of a single issue scrape.
type run struct {
	req       Request
	pagesDir  string
	expected  string
	seq       int
	hint      int
	prevSrc   string
	seen      *fingerprint.Set
	existing  []store.ExistingPage
	priorURLs map[int]string
	bar       *ui.ProgressHandle
	res       *Result
}

// Run scrapes one issue. Every outcome, including failures and interrupts,
// ends with exactly one metadata write; the returned error is non-nil only
// when that write fails.
func (c *Controller) Run(ctx context.Context, req Request) (Result, error) {
	c.defaults()

	res := Result{
		Request:      req,
		IssueDir:     c.Layout.IssueDir(req.Volume, req.Issue),
		MetadataPath: c.Layout.MetadataPath(req.Volume, req.Issue),
	}

	r := &run{
		req:      req,
		pagesDir: c.Layout.PagesDir(req.Volume, req.Issue),
		seen:     fingerprint.NewSet(),
		res:      &res,
	}

	r.bar = c.Progress.Register(fmt.Sprintf("%s #%s", req.Volume, req.Issue))

	res.Reason, res.Err = c.loop(ctx, r)

	r.bar.MarkDone()

	if n := util.RemovePartials(r.pagesDir); n > 0 {
		c.Log.Debugf("removed %d partial download(s)\n", n)
	}

	if err := c.writeMetadata(&res); err != nil {
		return res, err
	}

	if c.Opts.CBZ && len(res.Pages) > 0 {
		c.pack(&res, r.pagesDir)
	}

	c.Stats.TotalIssues.Add(1)
	if res.Reason.IsFailure() {
		c.Stats.FailedIssues.Add(1)
	}

	c.summary(res)
	return res, nil
}

func (c *Controller) defaults() {
	if c.Log == nil {
		c.Log = ui.NewLogger(false)
	}
	if c.Stats == nil {
		c.Stats = &ui.Stats{}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Validator == nil {
		c.Validator = imagecheck.DefaultPolicy()
	}
	if c.Navigator == nil {
		c.Navigator = navigate.New(c.Session, time.Second, c.Log)
	}
	if len(c.Locator.Hosts) == 0 {
		c.Locator = locate.DefaultPolicy()
	}
	if c.Opts.MaxPages <= 0 {
		c.Opts.MaxPages = DefaultOptions().MaxPages
	}
	if c.Opts.PollAttempts < 1 {
		c.Opts.PollAttempts = 1
	}
}

func (c *Controller) loop(ctx context.Context, r *run) (StopReason, error) {
	if err := os.MkdirAll(r.pagesDir, 0o755); err != nil {
		return StopWriteFailed, err
	}

	if err := c.resume(r); err != nil {
		return StopWriteFailed, err
	}

	if err := c.open(ctx, r); err != nil {
		if ctx.Err() != nil {
			return StopInterrupted, ctx.Err()
		}
		return StopOpenFailed, err
	}

	for {
		if ctx.Err() != nil {
			return StopInterrupted, ctx.Err()
		}

		if r.seq > c.Opts.MaxPages {
			return StopMaxPages, nil
		}
		if r.hint > 0 && r.seq > r.hint {
			return StopExpectedCount, nil
		}

		if p, ok := store.FindPage(r.existing, r.seq); ok {
			c.replay(r, p)
		} else {
			reason, err := c.step(ctx, r)
			if reason != StopNone {
				return reason, err
			}

			if r.hint == 0 {
				c.readHint(ctx, r)
			}
			if r.hint > 0 && r.seq > r.hint {
				return StopExpectedCount, nil
			}
		}

		if r.seq > c.Opts.MaxPages {
			return StopMaxPages, nil
		}

		nav := c.Navigator.Next(ctx)
		if !nav.Moved() {
			if ctx.Err() != nil {
				return StopInterrupted, ctx.Err()
			}
			c.Log.Debugf("next control: %s\n", nav.Outcome)
			return StopNoNext, nil
		}

		if c.Opts.BoundaryCheck {
			if got, crossed := boundary.Crossed(r.expected, nav.URL); crossed {
				c.Log.Infof("Reached issue %s (expected %s)\n", got, r.expected)
				return StopNextIssue, nil
			}
		}

		if err := c.Session.Settle(ctx, c.Opts.PageDelay); err != nil {
			return StopInterrupted, err
		}
	}
}

// resume seeds the session from pages already on disk.
func (c *Controller) resume(r *run) error {
	existing, err := store.ScanPages(r.pagesDir)
	if err != nil {
		return err
	}

	r.existing = existing
	r.seq = 1

	if len(existing) == 0 {
		return nil
	}

	if prior, err := store.ReadMetadata(r.res.MetadataPath); err == nil {
		r.priorURLs = make(map[int]string, len(prior.Pages))
		for _, p := range prior.Pages {
			r.priorURLs[p.PageNumber] = p.URL
		}
	}

	for _, p := range existing {
		c.replay(r, p)
	}

	r.seq = store.NextSeq(existing)
	c.Log.Infof("Resuming %s #%s at page %d (%d on disk)\n", r.req.Volume, r.req.Issue, r.seq, len(existing))

	return nil
}

// replay records an on-disk page as accepted history.
func (c *Controller) replay(r *run, p store.ExistingPage) {
	d, err := fingerprint.File(p.Path)
	if err != nil {
		c.Log.Pagef(p.Seq, ui.PageWarn, "cannot fingerprint %s: %v\n", filepath.Base(p.Path), err)
	} else {
		r.seen.Remember(d, p.Seq)
	}

	if r.seq <= p.Seq {
		r.seq = p.Seq + 1
	}

	for _, rec := range r.res.Pages {
		if rec.PageNumber == p.Seq {
			return
		}
	}

	r.res.Pages = append(r.res.Pages, store.PageRecord{
		PageNumber: p.Seq,
		Filename:   filepath.Base(p.Path),
		URL:        r.priorURLs[p.Seq],
		Hash:       hashString(d),
	})
	r.res.Resumed++
	c.Stats.ResumedPages.Add(1)
	c.Log.Pagef(p.Seq, ui.PageSkip, "%s already downloaded\n", filepath.Base(p.Path))
}

func (c *Controller) open(ctx context.Context, r *run) error {
	start := r.req.URL
	if r.seq > 1 {
		if _, ok := boundary.PageFromFragment(start); !ok {
			start = boundary.WithPage(start, r.seq)
		}
	}

	if err := c.Session.Open(ctx, start); err != nil {
		return err
	}

	if err := c.Session.Settle(ctx, c.Opts.InitialDelay); err != nil {
		return err
	}

	if c.Opts.Prime {
		if n := c.Navigator.Prime(ctx, navigate.PrimeSteps()); n > 0 {
			c.Log.Debugf("reader primed with %d click(s)\n", n)
		}
	}

	loc, err := c.Session.Location(ctx)
	if err != nil {
		loc = start
	}

	r.expected = expectedIssue(loc, start, r.req.Issue)
	c.readHint(ctx, r)

	c.Log.Debugf("expected issue %q, page hint %d\n", r.expected, r.hint)
	return nil
}

func expectedIssue(loc, start, issue string) string {
	if got, ok := boundary.ExtractIssue(loc); ok {
		return got
	}
	if got, ok := boundary.ExtractIssue(start); ok {
		return got
	}
	return naming.ForURL(issue)
}

func (c *Controller) readHint(ctx context.Context, r *run) {
	for _, css := range c.Opts.CounterSelectors {
		text, err := c.Session.Text(ctx, css)
		if err != nil || text == "" {
			continue
		}

		if _, total, ok := boundary.ParseCounter(text); ok {
			r.hint = total
			r.bar.SetTotal(total)
			r.res.TotalHint = total
			return
		}
	}
}

// step handles one page: locate, download, validate and dedupe. It returns
// StopNone when the page was accepted.
func (c *Controller) step(ctx context.Context, r *run) (StopReason, error) {
	cand, ok, err := c.locate(ctx, r.prevSrc)
	if err != nil && ctx.Err() != nil {
		return StopInterrupted, ctx.Err()
	}
	if !ok {
		c.Log.Pagef(r.seq, ui.PageFail, "no page image found\n")
		return StopNoImage, err
	}

	name := store.PageName(r.seq, store.ExtFromURL(cand.Src))
	dest := filepath.Join(r.pagesDir, name)

	done := len(r.res.Pages)
	base := r.res.Bytes
	n, err := c.Fetcher.Fetch(ctx, cand.Src, dest, func(b int64) {
		r.bar.Update(done, base+b)
	})
	if err != nil {
		if ctx.Err() != nil {
			return StopInterrupted, ctx.Err()
		}
		c.Log.Pagef(r.seq, ui.PageFail, "download %s: %v\n", cand.Src, err)
		return StopDownloadFailed, err
	}

	if err := c.Validator.Validate(dest); err != nil {
		_ = os.Remove(dest)
		c.Log.Pagef(r.seq, ui.PageFail, "%s rejected: %s\n", name, imagecheck.Reason(err))
		return StopInvalidImage, err
	}

	d, err := fingerprint.File(dest)
	if err != nil {
		_ = os.Remove(dest)
		c.Log.Pagef(r.seq, ui.PageFail, "%v\n", err)
		return StopWriteFailed, err
	}

	if !r.seen.Add(d, r.seq) {
		_ = os.Remove(dest)
		owner, _ := r.seen.Owner(d)
		c.Log.Pagef(r.seq, ui.PageSkip, "duplicate of page %d, end of issue\n", owner)
		return StopDuplicate, nil
	}

	r.res.Pages = append(r.res.Pages, store.PageRecord{
		PageNumber: r.seq,
		Filename:   name,
		URL:        cand.Src,
		Hash:       d.String(),
	})
	r.res.Downloaded++
	r.res.Bytes += n
	r.prevSrc = cand.Src

	c.Stats.TotalPages.Add(1)
	c.Stats.TotalBytes.Add(n)
	r.bar.Update(len(r.res.Pages), r.res.Bytes)

	c.Log.Pagef(r.seq, ui.PageOK, "%s (%s)\n", name, util.Human(n))
	r.seq++

	return StopNone, nil
}

// locate polls the page until a qualifying image other than prev shows up.
// If the image never changes the last candidate is returned anyway and the
// duplicate check decides.
func (c *Controller) locate(ctx context.Context, prev string) (locate.Candidate, bool, error) {
	var (
		best    locate.Candidate
		found   bool
		lastErr error
	)

	for i := 0; i < c.Opts.PollAttempts; i++ {
		if i > 0 {
			if err := c.Session.Settle(ctx, c.Opts.PollInterval); err != nil {
				return best, found, err
			}
		}

		imgs, err := c.Session.Images(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		cand, ok := c.Locator.Select(imgs)
		if !ok {
			continue
		}

		best, found = cand, true
		if cand.Src != prev {
			return cand, true, nil
		}
	}

	return best, found, lastErr
}

func (c *Controller) writeMetadata(res *Result) error {
	m := store.Metadata{
		Volume:          res.Volume,
		Issue:           res.Issue,
		URL:             res.URL,
		TotalPages:      len(res.Pages),
		Pages:           res.Pages,
		ScrapedAt:       c.Now(),
		OutputDirectory: res.IssueDir,
		StopReason:      res.Reason.String(),
	}

	if err := store.WriteMetadata(res.MetadataPath, m); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

func (c *Controller) pack(res *Result, pagesDir string) {
	files := make([]string, 0, len(res.Pages))
	for _, p := range res.Pages {
		files = append(files, filepath.Join(pagesDir, p.Filename))
	}

	out := filepath.Join(res.IssueDir, naming.ForFilesystem(res.Issue)+".cbz")
	if err := store.PackCBZ(files, out); err != nil {
		c.Log.Warnf("cbz for %s #%s: %v\n", res.Volume, res.Issue, err)
		return
	}

	res.CBZPath = out
}

func (c *Controller) summary(res Result) {
	c.Log.Infof("---- %s #%s ----\n", res.Volume, res.Issue)
	c.Log.Infof("pages:    %d (%d new, %d resumed)\n", len(res.Pages), res.Downloaded, res.Resumed)
	c.Log.Infof("output:   %s\n", res.IssueDir)
	c.Log.Infof("metadata: %s\n", res.MetadataPath)
	if res.CBZPath != "" {
		c.Log.Infof("cbz:      %s\n", res.CBZPath)
	}

	switch {
	case res.Reason.IsFailure():
		c.Log.Errorf("stopped:  %s: %v\n", res.Reason, res.Err)
	case res.Reason == StopInterrupted:
		c.Log.Warnf("stopped:  %s\n", res.Reason)
	default:
		c.Log.Infof("stopped:  %s\n", res.Reason)
	}
}

func hashString(d fingerprint.Digest) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
