package preference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-form-guide/internal/guidance"
)

func TestFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, guidance.LanguageEnglish, nil)

	assert.Equal(t, guidance.LanguageEnglish, s.Get())

	got, err := s.Set(guidance.LanguageNepali)
	require.NoError(t, err)
	assert.Equal(t, guidance.LanguageNepali, got)
	assert.Equal(t, guidance.LanguageNepali, s.Get())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.JSONEq(t, `{"language": "nepali"}`, string(data))

	reopened := NewFileStore(dir, guidance.LanguageEnglish, nil)
	assert.Equal(t, guidance.LanguageNepali, reopened.Get())
}

func TestFileStore_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, guidance.LanguageEnglish, nil)

	got, err := s.Set("klingon")
	require.NoError(t, err)
	assert.Equal(t, guidance.LanguageEnglish, got)

	got, err = s.Set("ne")
	require.NoError(t, err)
	assert.Equal(t, guidance.LanguageNepali, got)

	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o600))
	assert.Equal(t, guidance.LanguageEnglish, s.Get())

	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"language": "french"}`), 0o600))
	assert.Equal(t, guidance.LanguageEnglish, s.Get())
}

func TestFileStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s := NewFileStore(dir, guidance.LanguageNepali, nil)

	assert.Equal(t, guidance.LanguageNepali, s.Get())
	_, err := s.Set(guidance.LanguageEnglish)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, FileName))
}

func TestMemory(t *testing.T) {
	m := NewMemory("")
	assert.Equal(t, guidance.DefaultLanguage, m.Get())

	got, err := m.Set(guidance.LanguageNepali)
	require.NoError(t, err)
	assert.Equal(t, guidance.LanguageNepali, got)
	assert.Equal(t, guidance.LanguageNepali, m.Get())
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*Memory)(nil)
)
