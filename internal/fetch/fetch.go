// Package fetch downloads single page images to disk.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/brogergvhs/comicd/internal/ui"
	"github.com/brogergvhs/comicd/internal/util"
)

var (
	ErrPayloadTooSmall = errors.New("payload too small")
	ErrStatus          = errors.New("unexpected HTTP status")
	ErrNotImage        = errors.New("unexpected content type")
)

const (
	DefaultTimeout = 15 * time.Second
	DefaultMinSize = 10000
)

type Options struct {
	Timeout time.Duration
	MinSize int64
	Referer string
	Log     *ui.Logger
}

type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	minSize int64
	referer string
	log     *ui.Logger
}

func New(c *http.Client, opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Log == nil {
		opts.Log = ui.NewLogger(false)
	}

	return &Fetcher{
		client:  c,
		timeout: opts.Timeout,
		minSize: opts.MinSize,
		referer: opts.Referer,
		log:     opts.Log,
	}
}

// Fetch downloads u into dest. The body is written to dest+".part" and only
// renamed into place once complete and large enough; on any error nothing is
// left at either path.
func (f *Fetcher) Fetch(ctx context.Context, u, dest string, progress func(done int64)) (n int64, err error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}

	if f.referer != "" {
		req.Header.Set("Referer", f.referer)
	}
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.log.Debugf("close body for %s: %v\n", u, cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); !strings.HasPrefix(mt, "image/") && mt != "application/octet-stream" {
			return 0, fmt.Errorf("%w: %s", ErrNotImage, ct)
		}
	}

	tmp := dest + util.PartialSuffix
	out, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	n, err = copyWithProgress(out, resp.Body, progress)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, err
	}

	if n < f.minSize {
		return n, fmt.Errorf("%w: %d bytes (min %d)", ErrPayloadTooSmall, n, f.minSize)
	}

	if err = os.Rename(tmp, dest); err != nil {
		return n, err
	}

	return n, nil
}
