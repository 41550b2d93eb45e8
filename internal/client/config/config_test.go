package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, "sqlite", c.StoreBackend)
	assert.Equal(t, 30.0, c.ScratchSpacingMeters)
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func Test_parseFile(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		p := writeFile(t, "cfg.json", `{"server_endpoint_addr":"www.example:9000","online_check_interval":"10s","scratch_spacing_meters":12.5}`)
		cfg := defaults()
		require.NoError(t, parseFile(cfg, []string{"-c", p}))

		want := defaults()
		want.ServerEndpointAddr = "www.example:9000"
		want.OnlineCheckInterval = 10 * time.Second
		want.ScratchSpacingMeters = 12.5
		assert.Empty(t, cmp.Diff(want, cfg))
	})

	t.Run("yaml", func(t *testing.T) {
		p := writeFile(t, "cfg.yaml", "store_backend: bolt\nonline_check_interval: 1m\ngeocoder_url: \"\"\n")
		cfg := defaults()
		require.NoError(t, parseFile(cfg, []string{"--config=" + p, "sync"}))

		want := defaults()
		want.StoreBackend = "bolt"
		want.OnlineCheckInterval = time.Minute
		want.GeocoderURL = ""
		assert.Empty(t, cmp.Diff(want, cfg))
	})

	t.Run("no flag leaves values alone", func(t *testing.T) {
		cfg := defaults()
		require.NoError(t, parseFile(cfg, []string{"sync"}))
		assert.Empty(t, cmp.Diff(defaults(), cfg))
	})

	t.Run("errors", func(t *testing.T) {
		bad := writeFile(t, "bad.json", `{ not json`)
		assert.ErrorContains(t, parseFile(defaults(), []string{"-c", bad}), "parse config")
		assert.ErrorContains(t, parseFile(defaults(), []string{"-c", filepath.Join(t.TempDir(), "none.json")}), "read config")
	})
}

func Test_parseEnv(t *testing.T) {
	t.Setenv("SCRATCHMAP_SERVER_ADDR", "env:1")
	t.Setenv("SCRATCHMAP_ONLINE_CHECK_INTERVAL", "5s")
	t.Setenv("SCRATCHMAP_SCRATCH_SPACING", "40")
	t.Setenv("SCRATCHMAP_STORE_BACKEND", "bolt")

	cfg := defaults()
	require.NoError(t, parseEnv(cfg))

	want := defaults()
	want.ServerEndpointAddr = "env:1"
	want.OnlineCheckInterval = 5 * time.Second
	want.ScratchSpacingMeters = 40
	want.StoreBackend = "bolt"
	assert.Empty(t, cmp.Diff(want, cfg))

	t.Setenv("SCRATCHMAP_ONLINE_CHECK_INTERVAL", "soon")
	assert.Error(t, parseEnv(defaults()))
}

func Test_loadDotEnv(t *testing.T) {
	p := writeFile(t, ".env", "SCRATCHMAP_LOG_LEVEL=debug\nSCRATCHMAP_GEOCODER_URL=http://geo\n")
	t.Setenv("SCRATCHMAP_LOG_LEVEL", "warn")
	t.Setenv("SCRATCHMAP_GEOCODER_URL", "")
	require.NoError(t, os.Unsetenv("SCRATCHMAP_GEOCODER_URL"))

	require.NoError(t, loadDotEnv(p))
	assert.Equal(t, "warn", os.Getenv("SCRATCHMAP_LOG_LEVEL"), "existing variables win")
	assert.Equal(t, "http://geo", os.Getenv("SCRATCHMAP_GEOCODER_URL"))

	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), ".env")), "missing file is fine")
}

func TestBindFlags_OverrideEarlierSources(t *testing.T) {
	cfg := defaults()
	cfg.ServerEndpointAddr = "from-file:1"

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-i", "10s", "--backend", "bolt", "-c", "ignored.json"}))

	want := defaults()
	want.ServerEndpointAddr = "from-file:1"
	want.OnlineCheckInterval = 10 * time.Second
	want.StoreBackend = "bolt"
	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestLoadConfig(t *testing.T) {
	p := writeFile(t, "cfg.json", `{"log_level":"debug"}`)
	t.Setenv("SCRATCHMAP_SERVER_ADDR", "env:2")

	cfg, err := LoadConfig([]string{"-c", p})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "env:2", cfg.ServerEndpointAddr)

	_, err = LoadConfig([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}
