package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONToMap(t *testing.T) {
	m, err := JSONToMap([]byte(`{"a": {"b": {"c": 1}}, "d": "e", "f": {"g": true}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"a/b/c": float64(1),
		"d":     "e",
		"f/g":   true,
	}, m)
}

func TestLoadFile(t *testing.T) {
	require.NoError(t, Register(&Option{
		Name:           "soft",
		Key:            "file/soft",
		Description:    "d",
		ExpertiseLevel: ExpertiseLevelExpert,
		OptType:        OptTypeInt,
		DefaultValue:   1,
	}))
	require.NoError(t, Register(&Option{
		Name:            "gen",
		Key:             "file/gen",
		Description:     "d",
		ExpertiseLevel:  ExpertiseLevelExpert,
		OptType:         OptTypeString,
		DefaultValue:    "digest",
		ValidationRegex: "^(digest|fortuna)$",
	}))
	soft := GetAsInt("file/soft", 0)
	gen := GetAsString("file/gen", "")

	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("file:\n  soft: 42\n  gen: fortuna\n"), 0o0600))
	require.NoError(t, LoadFile(yamlPath))
	assert.Equal(t, int64(42), soft())
	assert.Equal(t, "fortuna", gen())

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"file": {"soft": 7}}`), 0o0600))
	require.NoError(t, LoadFile(jsonPath))
	assert.Equal(t, int64(7), soft())
	assert.Equal(t, "digest", gen())

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{"file": {"gen": "dice"}}`), 0o0600))
	assert.ErrorIs(t, LoadFile(badPath), ErrInvalidValue)

	assert.Error(t, LoadFile(filepath.Join(dir, "missing.json")))
}
