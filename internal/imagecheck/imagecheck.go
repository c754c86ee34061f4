// Package imagecheck decides whether a downloaded file looks like a comic
// page: decodable, large enough, and roughly portrait shaped.
package imagecheck

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/webp"
)

const (
	MinWidth  = 500
	MinHeight = 700
	MinAspect = 0.5
	MaxAspect = 1.5
)

var (
	ErrTooSmall  = errors.New("image too small")
	ErrBadAspect = errors.New("image aspect ratio out of range")
	ErrDecode    = errors.New("image could not be decoded")
)

type Policy struct {
	MinWidth  int
	MinHeight int
	MinAspect float64
	MaxAspect float64
}

func DefaultPolicy() Policy {
	return Policy{
		MinWidth:  MinWidth,
		MinHeight: MinHeight,
		MinAspect: MinAspect,
		MaxAspect: MaxAspect,
	}
}

// Rejection carries the measured size alongside one of the sentinel errors.
type Rejection struct {
	Reason error
	Width  int
	Height int
	Format string
}

func (r *Rejection) Error() string {
	if r.Reason == ErrDecode {
		return r.Reason.Error()
	}
	return fmt.Sprintf("%v (%dx%d %s)", r.Reason, r.Width, r.Height, r.Format)
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}

// Check applies the policy to already known dimensions.
func (p Policy) Check(width, height int) error {
	if width < p.MinWidth || height < p.MinHeight {
		return ErrTooSmall
	}

	aspect := float64(width) / float64(height)
	if aspect < p.MinAspect || aspect > p.MaxAspect {
		return ErrBadAspect
	}

	return nil
}

// Validate decodes the header of the file at path and applies the policy.
// Rejections wrap ErrTooSmall, ErrBadAspect or ErrDecode.
func (p Policy) Validate(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &Rejection{Reason: ErrDecode}
	}
	defer func() {
		_ = f.Close()
	}()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return &Rejection{Reason: ErrDecode}
	}

	if err := p.Check(cfg.Width, cfg.Height); err != nil {
		return &Rejection{Reason: err, Width: cfg.Width, Height: cfg.Height, Format: format}
	}

	return nil
}

// Reason returns a short code for a Validate error, used in logs and stop
// summaries.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTooSmall):
		return "too-small"
	case errors.Is(err, ErrBadAspect):
		return "bad-aspect"
	default:
		return "decode-failure"
	}
}
