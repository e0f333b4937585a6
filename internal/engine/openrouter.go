package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/kalambet/giftgenius/internal/models"
	"github.com/kalambet/giftgenius/internal/proxy"
)

// OpenRouterEngine adapts proxy.Client to the Engine interface.
type OpenRouterEngine struct {
	client *proxy.Client
}

// NewOpenRouterEngine wraps an OpenRouter client.
func NewOpenRouterEngine(client *proxy.Client) *OpenRouterEngine {
	return &OpenRouterEngine{client: client}
}

func (e *OpenRouterEngine) Generate(ctx context.Context, req Request) (string, error) {
	temp := req.Temperature
	cr := proxy.ChatRequest{
		Model: req.Model,
		Messages: []proxy.Message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: &temp,
	}
	if req.JSON {
		cr.ResponseFormat = proxy.JSONObject
	}

	out, err := e.client.Complete(ctx, cr)
	if err != nil {
		var se *proxy.StatusError
		if errors.As(err, &se) {
			return "", &StatusError{Family: models.ProviderOpenRouter, StatusCode: se.StatusCode, Err: err}
		}
		if errors.Is(err, proxy.ErrNoChoices) {
			return "", ErrEmptyResponse
		}
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
