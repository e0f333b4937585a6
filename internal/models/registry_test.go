package models

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, "gemini-2.0-flash-exp", r.Default())
	assert.Len(t, r.Models(), 6)

	m, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, m.Provider)

	m, err = r.Resolve("llama-3.3-70b-versatile")
	require.NoError(t, err)
	assert.Equal(t, ProviderGroq, m.Provider)
}

func TestResolve_UnknownModel(t *testing.T) {
	_, err := DefaultRegistry().Resolve("gpt-17")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownModel))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "")
	assert.Error(t, err)

	_, err = New([]Model{{ID: "a", Provider: "acme"}}, "")
	assert.ErrorContains(t, err, "unknown provider")

	_, err = New([]Model{{ID: "a", Provider: ProviderGroq}, {ID: "a", Provider: ProviderGroq}}, "")
	assert.ErrorContains(t, err, "twice")

	_, err = New([]Model{{ID: "a", Provider: ProviderGroq}}, "b")
	assert.True(t, errors.Is(err, ErrUnknownModel))
}

func TestWithDefault(t *testing.T) {
	r, err := DefaultRegistry().WithDefault("mixtral-8x7b-32768")
	require.NoError(t, err)
	assert.Equal(t, "mixtral-8x7b-32768", r.Default())
	assert.Equal(t, "gemini-2.0-flash-exp", DefaultRegistry().Default())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	content := `default: qwen2.5
models:
  - id: llama-3.3-70b-versatile
    name: Llama
    provider: groq
  - id: qwen2.5
    name: Qwen local
    provider: ollama
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err := LoadFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5", r.Default())

	r, err = LoadFile(path, "llama-3.3-70b-versatile")
	require.NoError(t, err)
	assert.Equal(t, "llama-3.3-70b-versatile", r.Default())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}
