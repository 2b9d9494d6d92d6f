package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const configBase = `{
	"database": {"host": "localhost"},
	"ai": {"embed_provider": "gemini", "embed_model": "text-embedding-004"}`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, configBase+`}`))
	require.NoError(t, err)
	require.Equal(t, 8321, cfg.Port)
	require.Equal(t, 4, cfg.Chunking.TurnPairs)
	require.NotNil(t, cfg.Chunking.OverlapPairs)
	require.Equal(t, 1, *cfg.Chunking.OverlapPairs)
	require.Equal(t, 2000, cfg.Chunking.MaxChars)
	require.Equal(t, 0.7, cfg.Search.SemanticWeight)
	require.Equal(t, 0.3, cfg.Search.KeywordWeight)
	require.Equal(t, 10, cfg.Search.DefaultLimit)
}

func TestLoadExplicitZeroOverlap(t *testing.T) {
	cfg, err := Load(writeConfig(t, configBase+`,
	"chunking": {"turn_pairs": 4, "overlap_pairs": 0}}`))
	require.NoError(t, err)
	require.NotNil(t, cfg.Chunking.OverlapPairs)
	require.Equal(t, 0, *cfg.Chunking.OverlapPairs)
}

func TestLoadRejectsOverlapNotBelowWindow(t *testing.T) {
	_, err := Load(writeConfig(t, configBase+`,
	"chunking": {"turn_pairs": 2, "overlap_pairs": 2}}`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, configBase+`,
	"chunking": {"turn_pairs": 2, "overlap_pairs": -1}}`))
	require.Error(t, err)
}

func TestLoadRequiresDatabaseAndProvider(t *testing.T) {
	_, err := Load(writeConfig(t, `{"ai": {"embed_provider": "gemini", "embed_model": "m"}}`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{"database": {"host": "localhost"}}`))
	require.Error(t, err)
}
