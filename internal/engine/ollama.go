package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/kalambet/giftgenius/internal/models"
	"github.com/kalambet/giftgenius/internal/ollama"
)

// OllamaEngine adapts the internal/ollama.Client to the Engine interface.
type OllamaEngine struct {
	client *ollama.Client
}

// NewOllamaEngine wraps an Ollama client.
func NewOllamaEngine(client *ollama.Client) *OllamaEngine {
	return &OllamaEngine{client: client}
}

func (e *OllamaEngine) Generate(ctx context.Context, req Request) (string, error) {
	msgs := make([]ollama.Message, 0, 2)
	if req.System != "" {
		msgs = append(msgs, ollama.Message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, ollama.Message{Role: "user", Content: req.User})

	out, err := e.client.Chat(ctx, ollama.ChatRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
		JSON:        req.JSON,
	})
	if err != nil {
		var se *ollama.StatusError
		if errors.As(err, &se) {
			return "", &StatusError{Family: models.ProviderOllama, StatusCode: se.StatusCode, Err: err}
		}
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
