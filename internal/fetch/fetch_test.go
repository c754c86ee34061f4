package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imageServer(t *testing.T, body []byte, contentType string, status int) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://reader.example/", r.Header.Get("Referer"))
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func newFetcher(srv *httptest.Server, minSize int64) *Fetcher {
	return New(srv.Client(), Options{
		Timeout: time.Second,
		MinSize: minSize,
		Referer: "https://reader.example/",
	})
}

func TestFetchWritesFile(t *testing.T) {
	body := bytes.Repeat([]byte{0xAB}, 4096)
	srv := imageServer(t, body, "image/jpeg", http.StatusOK)
	dest := filepath.Join(t.TempDir(), "page_001.jpg")

	var last int64
	n, err := newFetcher(srv, 100).Fetch(context.Background(), srv.URL+"/p.jpg", dest, func(done int64) { last = done })
	require.NoError(t, err)

	assert.Equal(t, int64(len(body)), n)
	assert.Equal(t, n, last)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.NoFileExists(t, dest+".part")
}

func TestFetchRejectsSmallPayload(t *testing.T) {
	srv := imageServer(t, []byte("tiny"), "image/png", http.StatusOK)
	dest := filepath.Join(t.TempDir(), "page_001.png")

	_, err := newFetcher(srv, 10000).Fetch(context.Background(), srv.URL, dest, nil)
	assert.ErrorIs(t, err, ErrPayloadTooSmall)
	assert.NoFileExists(t, dest)
	assert.NoFileExists(t, dest+".part")
}

func TestFetchStatusAndMime(t *testing.T) {
	dir := t.TempDir()

	srv := imageServer(t, []byte("gone"), "image/png", http.StatusNotFound)
	_, err := newFetcher(srv, 0).Fetch(context.Background(), srv.URL, filepath.Join(dir, "a.png"), nil)
	assert.ErrorIs(t, err, ErrStatus)

	html := imageServer(t, []byte("<html></html>"), "text/html; charset=utf-8", http.StatusOK)
	_, err = newFetcher(html, 0).Fetch(context.Background(), html.URL, filepath.Join(dir, "b.png"), nil)
	assert.ErrorIs(t, err, ErrNotImage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := New(srv.Client(), Options{Timeout: 50 * time.Millisecond})
	dest := filepath.Join(t.TempDir(), "slow.jpg")

	_, err := f.Fetch(context.Background(), srv.URL, dest, nil)
	require.Error(t, err)
	assert.NoFileExists(t, dest)
}
