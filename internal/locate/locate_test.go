package locate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectPicksLargestArea(t *testing.T) {
	p := DefaultPolicy()
	p.MinWidth, p.MinHeight = 1, 1

	cands := []Candidate{
		{Src: "https://2.bp.blogspot.com/a.jpg", Width: 10, Height: 10},
		{Src: "https://2.bp.blogspot.com/b.jpg", Width: 250, Height: 200},
		{Src: "https://2.bp.blogspot.com/c.jpg", Width: 200, Height: 100},
	}

	got, ok := p.Select(cands)
	assert.True(t, ok)
	assert.Equal(t, "https://2.bp.blogspot.com/b.jpg", got.Src)
}

func TestSelectFiltersHostsAndDecorations(t *testing.T) {
	cands := []Candidate{
		{Src: "https://cdn.example.com/page.jpg", Width: 2000, Height: 3000},
		{Src: "https://evil.com/x.jpg?host=blogspot.com", Width: 2000, Height: 3000},
		{Src: "https://1.bp.blogspot.com/Site-LOGO.png", Width: 1900, Height: 2900},
		{Src: "https://1.bp.blogspot.com/user/avatar.jpg", Width: 1900, Height: 2900},
		{Src: "https://1.bp.blogspot.com/thumb.jpg", Width: 1200, Height: 200},
		{Src: "https://1.bp.blogspot.com/narrow.jpg", Width: 299, Height: 2000},
		{Src: "https://1.bp.blogspot.com/page.jpg", Width: 1000, Height: 1500},
	}

	got, ok := DefaultPolicy().Select(cands)
	assert.True(t, ok)
	assert.Equal(t, "https://1.bp.blogspot.com/page.jpg", got.Src)
}

func TestSelectTieKeepsFirst(t *testing.T) {
	cands := []Candidate{
		{Src: "https://bp.blogspot.com/first.jpg", Width: 800, Height: 1200},
		{Src: "https://bp.blogspot.com/second.jpg", Width: 1200, Height: 800},
	}

	got, ok := DefaultPolicy().Select(cands)
	assert.True(t, ok)
	assert.Equal(t, "https://bp.blogspot.com/first.jpg", got.Src)
}

func TestSelectUnknownHeight(t *testing.T) {
	cands := []Candidate{
		{Src: "https://bp.blogspot.com/page.jpg", Width: 900},
	}

	_, ok := DefaultPolicy().Select(cands)
	assert.True(t, ok)
}

func TestSelectNothingQualifies(t *testing.T) {
	_, ok := DefaultPolicy().Select(nil)
	assert.False(t, ok)

	_, ok = DefaultPolicy().Select([]Candidate{
		{Src: "", Width: 1000, Height: 1000},
		{Src: "not a url", Width: 1000, Height: 1000},
		{Src: "https://bp.blogspot.com/icons/next.png", Width: 1000, Height: 1000},
	})
	assert.False(t, ok)
}
