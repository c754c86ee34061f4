package util

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuman(t *testing.T) {
	assert.Equal(t, "512 B", Human(512))
	assert.Equal(t, "1.50 KB", Human(1536))
	assert.Equal(t, "2.00 MB", Human(2<<20))
	assert.Equal(t, "1.00 GB", Human(1<<30))
}

func TestRemovePartials(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "a", "pages")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(sub, "page_001.jpg"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "page_002.jpg.part"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page_009.png.part"), []byte("x"), 0o644))

	assert.Equal(t, 2, RemovePartials(dir))
	assert.FileExists(t, filepath.Join(sub, "page_001.jpg"))
	assert.NoFileExists(t, filepath.Join(sub, "page_002.jpg.part"))
}

func TestRemoveIfEmpty(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))

	assert.True(t, RemoveIfEmpty(empty))
	assert.NoDirExists(t, empty)
	assert.False(t, RemoveIfEmpty(dir+"/missing"))
}

func TestJoinCookies(t *testing.T) {
	f := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(f, []byte("\n  session=abc  \nother=1\n"), 0o644))

	assert.Equal(t, "a=1", joinCookies(" a=1 ", ""))
	assert.Equal(t, "a=1; session=abc", joinCookies("a=1", f))
	assert.Equal(t, "session=abc", joinCookies("", f))
	assert.Equal(t, "a=1", joinCookies("a=1", "/does/not/exist"))
}

func TestHTTPClientSetsHeaders(t *testing.T) {
	var gotUA, gotRef, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotRef = r.Header.Get("Referer")
		gotCookie = r.Header.Get("Cookie")
	}))
	defer srv.Close()

	c, err := NewHTTPClient(HTTPClientOptions{
		Timeout:   time.Second,
		UserAgent: "comicd-test",
		Referer:   "https://example.org/",
		Cookie:    "k=v",
	})
	require.NoError(t, err)

	resp, err := c.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "comicd-test", gotUA)
	assert.Equal(t, "https://example.org/", gotRef)
	assert.Equal(t, "k=v", gotCookie)
}

func TestDoWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := DoWithRetry(srv.Client(), req, 3, time.Millisecond)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(-100)
	_, err = DoWithRetry(srv.Client(), req, 2, time.Millisecond)
	assert.ErrorContains(t, err, "HTTP 502 after 2 attempts")
}

func TestPickUserAgent(t *testing.T) {
	assert.Equal(t, "x", PickUserAgent("x"))
	assert.Contains(t, PickUserAgent(""), "Mozilla/5.0")
}
