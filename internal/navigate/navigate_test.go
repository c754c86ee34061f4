package navigate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/comicd/internal/browser"
	"github.com/brogergvhs/comicd/internal/browser/browsertest"
)

func controls(qs ...browser.Query) map[string]browser.Element {
	m := map[string]browser.Element{}
	for _, q := range qs {
		m[q.String()] = browser.Element{}
	}
	return m
}

func TestNextUsesFirstMatchingControl(t *testing.T) {
	ctx := context.Background()
	fake := browsertest.New(
		browsertest.Page{
			URL:      "https://h/Comic/X/Issue-1#1",
			Controls: controls(browser.CSS(".next-button"), browser.XPath("//a[contains(text(), 'Next')]")),
		},
		browsertest.Page{URL: "https://h/Comic/X/Issue-1#2", Title: "X Issue 1 page 2"},
	)
	require.NoError(t, fake.Open(ctx, "https://h/Comic/X/Issue-1#1"))

	nav := New(fake, time.Second, nil)
	res := nav.Next(ctx)

	assert.True(t, res.Moved())
	assert.Equal(t, browser.XPath("//a[contains(text(), 'Next')]"), res.Via)
	assert.Equal(t, "https://h/Comic/X/Issue-1#2", res.URL)
	assert.Equal(t, "X Issue 1 page 2", res.Title)
	assert.Equal(t, time.Second, fake.Settled)
}

func TestNextNotFound(t *testing.T) {
	ctx := context.Background()
	fake := browsertest.New(browsertest.Page{URL: "https://h/a"})
	require.NoError(t, fake.Open(ctx, "https://h/a"))

	res := New(fake, 0, nil).Next(ctx)
	assert.Equal(t, NotFound, res.Outcome)
	assert.False(t, res.Moved())
}

func TestNextDisabledIsNotClicked(t *testing.T) {
	ctx := context.Background()
	fake := browsertest.New(
		browsertest.Page{
			URL: "https://h/a",
			Controls: map[string]browser.Element{
				browser.CSS("#btnNext").String(): {Class: "btn BtnDisabled"},
			},
		},
		browsertest.Page{URL: "https://h/b"},
	)
	require.NoError(t, fake.Open(ctx, "https://h/a"))

	res := New(fake, 0, nil).Next(ctx)
	assert.Equal(t, Disabled, res.Outcome)
	assert.Equal(t, 0, fake.Current())
	assert.Empty(t, fake.Clicked)
}

func TestNextSwallowsErrors(t *testing.T) {
	ctx := context.Background()
	fake := browsertest.New(
		browsertest.Page{URL: "https://h/a", Controls: controls(browser.CSS("#btnNext"), browser.CSS("#nextPage"))},
		browsertest.Page{URL: "https://h/b", Controls: controls(browser.CSS("#nextPage"))},
	)
	fake.FindErr = map[string]error{browser.CSS("#btnNext").String(): errors.New("detached node")}
	require.NoError(t, fake.Open(ctx, "https://h/a"))

	res := New(fake, 0, nil).Next(ctx)
	assert.True(t, res.Moved())
	assert.Equal(t, browser.CSS("#nextPage"), res.Via)

	fake.ClickErr = errors.New("not clickable")
	res = New(fake, 0, nil).Next(ctx)
	assert.Equal(t, ClickFailed, res.Outcome)
}

func TestHidden(t *testing.T) {
	assert.True(t, Hidden(nil))
	assert.True(t, Hidden(&browser.Element{Class: "disabled"}))
	assert.True(t, Hidden(&browser.Element{Style: "display: none;"}))
	assert.True(t, Hidden(&browser.Element{Style: "DISPLAY:NONE"}))
	assert.False(t, Hidden(&browser.Element{Class: "btn", Style: "display: inline"}))
}

func TestPrime(t *testing.T) {
	ctx := context.Background()
	quality := browser.XPath("//a[contains(text(), 'Quality')]")
	fake := browsertest.New(browsertest.Page{
		URL: "https://h/a",
		Controls: map[string]browser.Element{
			browser.XPath("//a[contains(text(), 'Server')]").String(): {Handle: 0},
			quality.String(): {Handle: 0},
		},
	})
	require.NoError(t, fake.Open(ctx, "https://h/a"))

	clicked := New(fake, 0, nil).Prime(ctx, PrimeSteps())
	assert.Equal(t, 2, clicked)
	assert.Equal(t, 0, fake.Current())
}
