package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, 10, cfg.Server.RequestTimeoutSec)
	require.Equal(t, SourceFinnhub, cfg.Source)
	require.Equal(t, "https://finnhub.io/api/v1", cfg.Finnhub.BaseURL)
	require.Equal(t, "quarterly", cfg.Finnhub.EPSFrequency)
	require.Equal(t, 60, cfg.Finnhub.MaxRequestsPerMinute)
	require.Equal(t, 300, cfg.Finnhub.CacheTTLSeconds)
	require.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `{
		"server": {"port": "9090"},
		"finnhub": {"eps_frequency": "annual", "cache_ttl_sec": 0},
		"log": {"format": "console"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, 10, cfg.Server.RequestTimeoutSec)
	require.Equal(t, "annual", cfg.Finnhub.EPSFrequency)
	require.Equal(t, 0, cfg.Finnhub.CacheTTLSeconds)
	require.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("FINNHUB_API_KEY", "secret")
	t.Setenv("FINNHUB_MAX_RPM", "30")
	t.Setenv("SOURCE", "fixture")
	t.Setenv("FIXTURE_PATH", "testdata/analysts.yaml")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.Equal(t, "7000", cfg.Server.Port)
	require.Equal(t, "secret", cfg.Finnhub.APIKey)
	require.Equal(t, 30, cfg.Finnhub.MaxRequestsPerMinute)
	require.Equal(t, SourceFixture, cfg.Source)
	require.Equal(t, "testdata/analysts.yaml", cfg.Fixture.Path)
}

func TestLoad_BadEnvInt(t *testing.T) {
	t.Setenv("FINNHUB_BURST", "many")

	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorContains(t, err, "FINNHUB_BURST")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "bad json", body: `{`, want: "parse config"},
		{name: "unknown source", body: `{"source": "bloomberg"}`, want: "Config.Source"},
		{name: "bad frequency", body: `{"finnhub": {"eps_frequency": "monthly"}}`, want: "Config.Finnhub.EPSFrequency"},
		{name: "bad port", body: `{"server": {"port": "http"}}`, want: "Config.Server.Port"},
		{name: "fixture without path", body: `{"source": "fixture"}`, want: "fixture.path"},
		{name: "bad level", body: `{"log": {"level": "trace"}}`, want: "Config.Log.Level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			require.ErrorContains(t, err, tt.want)
		})
	}
}
