// Package models holds the registry of selectable text-generation models.
package models

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Provider names a family of text-generation services.
type Provider string

const (
	ProviderGoogle     Provider = "google"
	ProviderGroq       Provider = "groq"
	ProviderOpenRouter Provider = "openrouter"
	ProviderOllama     Provider = "ollama"
)

// Valid reports whether p is a known family.
func (p Provider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderGroq, ProviderOpenRouter, ProviderOllama:
		return true
	}
	return false
}

// ErrUnknownModel is returned when a model id is not in the registry.
var ErrUnknownModel = errors.New("unknown model")

// Model is one selectable entry.
type Model struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Provider Provider `json:"provider" yaml:"provider"`
}

// Registry is an ordered, read-only list of models plus the id used when a
// caller does not pick one.
type Registry struct {
	models    []Model
	defaultID string
}

var builtin = []Model{
	{ID: "gemini-2.0-flash-exp", Name: "✨ Gemini 2.0 Flash (Gratuit - Expérimental)", Provider: ProviderGoogle},
	{ID: "gemini-1.5-flash", Name: "⚡ Gemini 1.5 Flash (Gratuit)", Provider: ProviderGoogle},
	{ID: "gemini-1.5-pro", Name: "🧠 Gemini 1.5 Pro (Gratuit Limitée)", Provider: ProviderGoogle},
	{ID: "llama-3.3-70b-versatile", Name: "🦙 Groq - Llama 3.3 70B (Payant/Gratuit limité)", Provider: ProviderGroq},
	{ID: "llama-3.1-8b-instant", Name: "⚡ Groq - Llama 3.1 8B (Payant/Gratuit limité)", Provider: ProviderGroq},
	{ID: "mixtral-8x7b-32768", Name: "🌪️ Groq - Mixtral (Payant/Gratuit limité)", Provider: ProviderGroq},
}

// DefaultRegistry returns the built-in model list. Its first entry is the
// default model.
func DefaultRegistry() *Registry {
	r, _ := New(builtin, "")
	return r
}

// New builds a registry. defaultID must name one of the models; an empty
// defaultID selects the first entry.
func New(list []Model, defaultID string) (*Registry, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("model registry is empty")
	}
	seen := make(map[string]bool, len(list))
	for i, m := range list {
		if m.ID == "" {
			return nil, fmt.Errorf("model %d: id is required", i)
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("model %q listed twice", m.ID)
		}
		if !m.Provider.Valid() {
			return nil, fmt.Errorf("model %q: unknown provider %q", m.ID, m.Provider)
		}
		seen[m.ID] = true
	}
	if defaultID == "" {
		defaultID = list[0].ID
	}
	if !seen[defaultID] {
		return nil, fmt.Errorf("default model %q: %w", defaultID, ErrUnknownModel)
	}
	cp := make([]Model, len(list))
	copy(cp, list)
	return &Registry{models: cp, defaultID: defaultID}, nil
}

type registryFile struct {
	Default string  `yaml:"default"`
	Models  []Model `yaml:"models"`
}

// LoadFile reads a YAML registry:
//
//	default: llama-3.3-70b-versatile
//	models:
//	  - id: llama-3.3-70b-versatile
//	    name: Llama 3.3 70B
//	    provider: groq
//
// defaultID, when non-empty, overrides the file's default.
func LoadFile(path, defaultID string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model registry: %w", err)
	}
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing model registry %s: %w", path, err)
	}
	if defaultID == "" {
		defaultID = f.Default
	}
	return New(f.Models, defaultID)
}

// WithDefault returns a copy of r whose default is id.
func (r *Registry) WithDefault(id string) (*Registry, error) {
	return New(r.models, id)
}

// Models returns the registry entries in order.
func (r *Registry) Models() []Model {
	out := make([]Model, len(r.models))
	copy(out, r.models)
	return out
}

// Default returns the id used when no model is selected.
func (r *Registry) Default() string {
	return r.defaultID
}

// Resolve looks up id. An empty id resolves to the default model; an
// unknown id yields ErrUnknownModel.
func (r *Registry) Resolve(id string) (Model, error) {
	if id == "" {
		id = r.defaultID
	}
	for _, m := range r.models {
		if m.ID == id {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("%w: %q", ErrUnknownModel, id)
}
