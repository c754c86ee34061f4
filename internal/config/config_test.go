package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	return filepath.Join(dir, "comicd")
}

func TestConfigRootFollowsXDG(t *testing.T) {
	root := isolate(t)
	assert.Equal(t, root, ConfigRoot())
	assert.Equal(t, filepath.Join(root, "configs"), ConfigsDir())
}

func TestLoadMergedWithoutConfigUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, used, err := LoadMerged(Options{Output: "out", NoBoundary: true, MaxPages: 5})
	require.NoError(t, err)

	assert.Contains(t, used, "default config in memory")
	assert.Equal(t, "out", cfg.Output)
	assert.Equal(t, "readcomiconline.li", cfg.ComicHost)
	assert.False(t, cfg.BoundaryCheck)
	assert.Equal(t, 5, cfg.MaxPages)
	assert.Equal(t, 5*time.Second, cfg.InitialDelay)
}

func TestLoadMergedReadsActiveProfile(t *testing.T) {
	root := isolate(t)

	path, err := InitDefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "configs", "Default.yaml"), path)

	raw := "output: comics\npage_delay: 750ms\nmax_pages: 40\nheadless: true\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, used, err := LoadMerged(Options{MaxPages: 10})
	require.NoError(t, err)

	assert.Equal(t, path, used)
	assert.Equal(t, "comics", cfg.Output)
	assert.Equal(t, 750*time.Millisecond, cfg.PageDelay)
	assert.Equal(t, 10, cfg.MaxPages)
	assert.True(t, cfg.Headless)
	// Missing keys keep defaults.
	assert.True(t, cfg.BoundaryCheck)
	assert.Equal(t, int64(10000), cfg.MinFileSize)
}

func TestLoadMergedIgnoreConfig(t *testing.T) {
	isolate(t)
	_, err := InitDefaultConfig()
	require.NoError(t, err)

	cfg, used, err := LoadMerged(Options{IgnoreConfig: true, Debug: true})
	require.NoError(t, err)
	assert.Equal(t, "(ignored config)", used)
	assert.True(t, cfg.Debug)
}

func TestSaveYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	def := DefaultConfig()
	def.ComicVineAPIKey = "abc123"

	require.NoError(t, SaveYAML(def, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "initial_delay: 5s")

	got, err := loadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, def, got)
}

func TestProfiles(t *testing.T) {
	isolate(t)

	_, err := InitDefaultConfig()
	require.NoError(t, err)

	_, err = CreateEmptyConfig("work")
	require.NoError(t, err)
	_, err = CreateEmptyConfig("work")
	assert.Error(t, err)
	_, err = CreateEmptyConfig("../escape")
	assert.Error(t, err)

	require.NoError(t, SwitchConfig("work"))
	label, err := CurrentLabel()
	require.NoError(t, err)
	assert.Equal(t, "work", label)

	require.NoError(t, RenameConfig("work", "home"))
	label, _ = CurrentLabel()
	assert.Equal(t, "home", label)

	p, err := ConfigPathByLabel("home")
	require.NoError(t, err)
	assert.FileExists(t, p)
	_, err = ConfigPathByLabel("work")
	assert.Error(t, err)

	list, err := ListConfigs()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Default", list[0].Label)
	assert.True(t, list[1].Active)

	require.NoError(t, RemoveConfig("home"))
	label, _ = CurrentLabel()
	assert.Equal(t, "Default", label)
	assert.Error(t, RemoveConfig("Default"))
}

func TestPrintMasksAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ComicVineAPIKey = "supersecretkey"

	var buf bytes.Buffer
	cfg.Print(&buf)

	assert.Contains(t, buf.String(), " -comicvine_api_key: ****tkey")
	assert.NotContains(t, buf.String(), "supersecret")
}
