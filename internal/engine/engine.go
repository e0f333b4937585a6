// Package engine abstracts the text-generation backends (Gemini, Groq,
// OpenRouter, Ollama). The gateway sees every family through the same
// single-call Engine interface.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/kalambet/giftgenius/internal/models"
)

// Engine runs one prompt against one model and returns the raw text.
// Implementations make exactly one request: no retry, no streaming.
type Engine interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is a rendered prompt plus sampling options.
type Request struct {
	Model       string
	System      string
	User        string
	Temperature float64
	// JSON asks the backend for a JSON document when it supports it.
	JSON bool
}

var (
	// ErrMissingCredential is matched by MissingCredentialError.
	ErrMissingCredential = errors.New("missing provider credential")
	// ErrEmptyResponse is returned when the backend answers without text.
	ErrEmptyResponse = errors.New("provider returned no text")
)

// MissingCredentialError names the family whose key is absent and the
// environment variable that supplies it.
type MissingCredentialError struct {
	Family models.Provider
	EnvVar string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s: %s is not set", ErrMissingCredential, e.EnvVar)
}

func (e *MissingCredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}

// StatusError carries the HTTP status a backend answered with.
type StatusError struct {
	Family     models.Provider
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %v", e.Family, e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }
