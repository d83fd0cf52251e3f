package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func loadIn(t *testing.T, dir string) (Config, error) {
	t.Helper()
	return Load(Options{
		SearchFrom: dir,
		EnvFile:    filepath.Join(dir, ".env"),
	})
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadIn(t, t.TempDir())
	require.NoError(t, err)
	require.Equal(t, DefaultBaseUrl, cfg.BaseUrl)
	require.Equal(t, "zh", cfg.Language)
	require.Equal(t, Duration(30*time.Second), cfg.Timeout)
	require.Equal(t, 0, cfg.MaxConcurrency)
	require.True(t, cfg.ShouldPause())
	require.True(t, cfg.TelemetryLog().Pretty)
	require.Equal(t, DefaultLogLevel, cfg.TelemetryLog().Level)
}

func TestLoadFileAndLocalOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `{
		base_url: "http://localhost:8080/api",
		timeout: "5s",
		max_concurrency: 8,
		log: { level: "debug", pretty: false },
	}`)
	writeFile(t, filepath.Join(dir, "courseodds.local.json5"), `{ pause: false }`)

	cfg, err := loadIn(t, dir)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/api", cfg.BaseUrl)
	require.Equal(t, Duration(5*time.Second), cfg.Timeout)
	require.Equal(t, 8, cfg.MaxConcurrency)
	require.False(t, cfg.ShouldPause())
	require.Equal(t, "debug", cfg.Log.Level)
	require.False(t, cfg.TelemetryLog().Pretty)
	// untouched fields keep their defaults
	require.Equal(t, "zh", cfg.Language)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `{ max_concurrency: 8 }`)
	t.Setenv("COURSEODDS_MAX_CONCURRENCY", "2")
	t.Setenv("COURSEODDS_TIMEOUT", "1m")
	t.Setenv("COURSEODDS_LOG_LEVEL", "error")

	cfg, err := loadIn(t, dir)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.MaxConcurrency)
	require.Equal(t, Duration(time.Minute), cfg.Timeout)
	require.Equal(t, "error", cfg.Log.Level)
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	_, err := Load(Options{
		Path:    filepath.Join(t.TempDir(), "missing.json5"),
		EnvFile: filepath.Join(t.TempDir(), ".env"),
	})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRejectsInvalid(t *testing.T) {
	testCases := []string{
		`{ base_url: "not a url" }`,
		`{ language: "fr" }`,
		`{ max_concurrency: -1 }`,
		`{ log: { level: "loud" } }`,
	}

	for _, contents := range testCases {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), contents)
		_, err := loadIn(t, dir)
		require.Error(t, err, contents)
	}
}
