package engine

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kalambet/giftgenius/internal/models"
	"github.com/kalambet/giftgenius/internal/ollama"
	"github.com/kalambet/giftgenius/internal/proxy"
)

// Environment variables that supply each family's key. They appear in
// MissingCredentialError so callers can print an actionable hint.
const (
	EnvGeminiKey     = "GEMINI_API_KEY"
	EnvGroqKey       = "GROQ_API_KEY"
	EnvOpenRouterKey = "GIFTGENIUS_OPENROUTER_API_KEY"
	EnvOllamaURL     = "GIFTGENIUS_OLLAMA_BASE_URL"
)

// Credentials holds per-family keys and endpoints. Empty keys are allowed;
// they only fail when a model of that family is called.
type Credentials struct {
	GeminiAPIKey     string
	GroqAPIKey       string
	OpenRouterAPIKey string
	OllamaBaseURL    string

	// Endpoint overrides, empty for the public defaults.
	GeminiBaseURL     string
	GroqBaseURL       string
	OpenRouterBaseURL string

	Timeout time.Duration
}

// Set hands out one Engine per family, built on first use.
type Set struct {
	creds Credentials

	mu      sync.Mutex
	engines map[models.Provider]Engine
}

// NewSet creates a Set. No client is built until For is called.
func NewSet(creds Credentials) *Set {
	return &Set{creds: creds, engines: make(map[models.Provider]Engine)}
}

// Register installs e for family, replacing any built engine.
func (s *Set) Register(family models.Provider, e Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engines[family] = e
}

// For returns the engine serving family.
func (s *Set) For(ctx context.Context, family models.Provider) (Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.engines[family]; ok {
		return e, nil
	}
	e, err := s.build(ctx, family)
	if err != nil {
		return nil, err
	}
	s.engines[family] = e
	return e, nil
}

func (s *Set) build(ctx context.Context, family models.Provider) (Engine, error) {
	httpClient := &http.Client{Timeout: s.creds.Timeout}

	switch family {
	case models.ProviderGoogle:
		if s.creds.GeminiAPIKey == "" {
			return nil, &MissingCredentialError{Family: family, EnvVar: EnvGeminiKey}
		}
		return NewGoogleEngine(ctx, s.creds.GeminiAPIKey, s.creds.GeminiBaseURL, httpClient)
	case models.ProviderGroq:
		if s.creds.GroqAPIKey == "" {
			return nil, &MissingCredentialError{Family: family, EnvVar: EnvGroqKey}
		}
		return NewGroqEngine(s.creds.GroqAPIKey, s.creds.GroqBaseURL, httpClient), nil
	case models.ProviderOpenRouter:
		if s.creds.OpenRouterAPIKey == "" {
			return nil, &MissingCredentialError{Family: family, EnvVar: EnvOpenRouterKey}
		}
		c := proxy.NewClientWithBaseURL(s.creds.OpenRouterAPIKey, s.creds.OpenRouterBaseURL).WithTimeout(s.creds.Timeout)
		return NewOpenRouterEngine(c), nil
	case models.ProviderOllama:
		if s.creds.OllamaBaseURL == "" {
			return nil, &MissingCredentialError{Family: family, EnvVar: EnvOllamaURL}
		}
		return NewOllamaEngine(ollama.New(s.creds.OllamaBaseURL, s.creds.Timeout)), nil
	}
	return nil, fmt.Errorf("no engine for provider %q", family)
}
