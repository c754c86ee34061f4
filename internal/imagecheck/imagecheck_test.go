package imagecheck

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, w, h int) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, w, h))
	img.SetGray(0, 0, color.Gray{Y: 200})

	path := filepath.Join(t.TempDir(), "page.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	return path
}

func TestValidateAcceptsPortraitPage(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate(writePNG(t, 600, 800)))
}

func TestValidateRejectsNarrowImage(t *testing.T) {
	err := DefaultPolicy().Validate(writePNG(t, 400, 600))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooSmall)
	assert.Equal(t, "too-small", Reason(err))

	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, 400, rej.Width)
	assert.Equal(t, "png", rej.Format)
}

func TestCheckRejectsWideStrip(t *testing.T) {
	// 1000x100 fails the height minimum before the ratio is considered.
	assert.ErrorIs(t, DefaultPolicy().Check(1000, 100), ErrTooSmall)
	assert.Error(t, DefaultPolicy().Validate(writePNG(t, 1000, 100)))

	p := DefaultPolicy()
	p.MinHeight = 50
	assert.ErrorIs(t, p.Check(1000, 100), ErrBadAspect)
}

func TestCheckAspectBounds(t *testing.T) {
	p := DefaultPolicy()
	assert.NoError(t, p.Check(700, 1400))  // exactly 0.5
	assert.NoError(t, p.Check(1500, 1000)) // exactly 1.5
	assert.ErrorIs(t, p.Check(1600, 1000), ErrBadAspect)
	assert.ErrorIs(t, p.Check(500, 1100), ErrBadAspect)
}

func TestValidateReportsDecodeFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.jpg")
	require.NoError(t, os.WriteFile(path, []byte("<html>not an image</html>"), 0644))

	err := DefaultPolicy().Validate(path)
	assert.ErrorIs(t, err, ErrDecode)
	assert.Equal(t, "decode-failure", Reason(err))

	err = DefaultPolicy().Validate(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, ErrDecode)
}
