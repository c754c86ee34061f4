package covers

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/comicd/internal/catalog"
	"github.com/brogergvhs/comicd/internal/store"
	"github.com/brogergvhs/comicd/internal/ui"
)

type fakeCatalog struct {
	vol    catalog.Volume
	issues []catalog.Issue
	err    error
}

func (f fakeCatalog) SearchVolume(ctx context.Context, name string) (catalog.Volume, error) {
	return f.vol, f.err
}

func (f fakeCatalog) ListIssues(ctx context.Context, id int) ([]catalog.Issue, error) {
	return f.issues, nil
}

type fakeFetcher struct {
	fail  map[string]bool
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, dest string, _ func(int64)) (int64, error) {
	f.calls = append(f.calls, url)
	if f.fail[url] {
		return 0, errors.New("HTTP 500")
	}
	return 3, os.WriteFile(dest, []byte("img"), 0o644)
}

func issue(num, name, cover string) catalog.Issue {
	return catalog.Issue{IssueNumber: num, Name: name, Image: catalog.Image{SuperURL: cover}}
}

func TestFilename(t *testing.T) {
	name, ok := Filename(issue("1", "The Zoo: Part One", "https://cv/uploads/scale_large/1/123.PNG?x=1"))
	require.True(t, ok)
	assert.Equal(t, "1-The_Zoo_Part_One.png", name)

	name, ok = Filename(issue("2", "", "https://cv/uploads/original/cover"))
	require.True(t, ok)
	assert.Equal(t, "2-Unnamed.jpg", name)

	_, ok = Filename(issue("3", "x", ""))
	assert.False(t, ok)
}

func TestRunDownloadsSkipsAndCountsFailures(t *testing.T) {
	root := t.TempDir()
	cat := fakeCatalog{
		vol: catalog.Volume{ID: 9, Name: "Absolute Batman"},
		issues: []catalog.Issue{
			issue("1", "The Zoo", "https://cv/1.jpg"),
			issue("2", "Abyss", "https://cv/2.jpg"),
			issue("3", "No Cover", ""),
			issue("4", "Broken", "https://cv/4.jpg"),
		},
	}
	f := &fakeFetcher{fail: map[string]bool{"https://cv/4.jpg": true}}

	dir := filepath.Join(root, "Absolute_Batman", "covers")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2-Abyss.jpg"), []byte("old"), 0o644))

	d := &Downloader{
		Catalog: cat,
		Fetcher: f,
		Layout:  store.Layout{Root: root},
		Log:     ui.NewLogger(false).WithOutput(io.Discard),
	}

	sum, err := d.Run(context.Background(), "absolute batman")
	require.NoError(t, err)

	assert.Equal(t, dir, sum.Dir)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 1, sum.Downloaded)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, []string{"https://cv/1.jpg", "https://cv/4.jpg"}, f.calls)
	assert.FileExists(t, filepath.Join(dir, "1-The_Zoo.jpg"))
}

func TestRunPropagatesCatalogErrors(t *testing.T) {
	d := &Downloader{
		Catalog: fakeCatalog{err: catalog.ErrNotFound},
		Fetcher: &fakeFetcher{},
		Layout:  store.Layout{Root: t.TempDir()},
		Log:     ui.NewLogger(false).WithOutput(io.Discard),
	}

	_, err := d.Run(context.Background(), "nothing")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}
