// Package gateway runs gift and tag generation: it resolves the model,
// renders the prompt, makes one provider call and decodes the answer.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kalambet/giftgenius/internal/composer"
	"github.com/kalambet/giftgenius/internal/engine"
	"github.com/kalambet/giftgenius/internal/gift"
	"github.com/kalambet/giftgenius/internal/metrics"
	"github.com/kalambet/giftgenius/internal/models"
	"github.com/kalambet/giftgenius/internal/profile"
)

// Sampling temperatures per operation.
const (
	GiftTemperature = 0.8
	TagTemperature  = 0.5
)

// Operation names used in logs and metrics.
const (
	OpGenerateGifts = "generate_gifts"
	OpSuggestTags   = "suggest_tags"
)

// EngineSource returns the engine for a provider family.
type EngineSource interface {
	For(ctx context.Context, family models.Provider) (engine.Engine, error)
}

// Gateway is safe for concurrent use; it holds no per-call state.
type Gateway struct {
	registry *models.Registry
	engines  EngineSource
	rules    composer.RuleSet
	metrics  *metrics.Metrics
}

// New creates a Gateway. m may be nil.
func New(registry *models.Registry, engines EngineSource, m *metrics.Metrics) *Gateway {
	return &Gateway{
		registry: registry,
		engines:  engines,
		rules:    composer.DefaultRules(),
		metrics:  m,
	}
}

// Registry returns the model registry the gateway resolves against.
func (g *Gateway) Registry() *models.Registry {
	return g.registry
}

// GiftRequest asks for one batch of gift ideas.
type GiftRequest struct {
	Profile          profile.Profile
	AlreadySuggested []string
	UsedTagPairs     [][]string
	// Model is a registry id; empty selects the default.
	Model string
}

// GiftResult is a finalized batch.
type GiftResult struct {
	Model string
	Ideas []profile.GiftIdea
}

// TagRequest asks for interest suggestions.
type TagRequest struct {
	CurrentTags []string
	Sliders     map[string]int
	Ignored     []string
	Model       string
}

// TagResult holds the cleaned suggestions.
type TagResult struct {
	Model string
	Tags  []string
}

type giftEnvelope struct {
	GiftIdeas *[]gift.RawIdea `json:"gift_ideas"`
}

type tagEnvelope struct {
	SuggestedTags *[]string `json:"suggested_tags"`
}

// GenerateGifts produces one batch of ideas for the profile.
func (g *Gateway) GenerateGifts(ctx context.Context, req GiftRequest) (GiftResult, error) {
	if err := req.Profile.Validate(); err != nil {
		return GiftResult{}, &RequestError{Err: err}
	}

	msgs := composer.BuildGift(composer.GiftInput{
		Profile:          req.Profile.Normalize(),
		AlreadySuggested: req.AlreadySuggested,
		UsedTagPairs:     req.UsedTagPairs,
	}, g.rules)

	var env giftEnvelope
	model, err := g.call(ctx, OpGenerateGifts, req.Model, msgs, GiftTemperature, func(text string) error {
		if err := json.Unmarshal([]byte(text), &env); err != nil {
			return err
		}
		if env.GiftIdeas == nil {
			return errors.New(`missing "gift_ideas" field`)
		}
		return nil
	})
	if err != nil {
		return GiftResult{Model: model}, err
	}
	return GiftResult{Model: model, Ideas: gift.Finalize(*env.GiftIdeas)}, nil
}

// SuggestTags proposes adjacent interests.
func (g *Gateway) SuggestTags(ctx context.Context, req TagRequest) (TagResult, error) {
	for k, v := range req.Sliders {
		if v < 0 || v > 100 {
			return TagResult{}, &RequestError{Err: fmt.Errorf("slider %s = %d out of range [0,100]", k, v)}
		}
	}

	msgs := composer.BuildTags(composer.TagInput{
		CurrentTags: req.CurrentTags,
		Sliders:     req.Sliders,
		Ignored:     req.Ignored,
	})

	var env tagEnvelope
	model, err := g.call(ctx, OpSuggestTags, req.Model, msgs, TagTemperature, func(text string) error {
		if err := json.Unmarshal([]byte(text), &env); err != nil {
			return err
		}
		if env.SuggestedTags == nil {
			return errors.New(`missing "suggested_tags" field`)
		}
		return nil
	})
	if err != nil {
		return TagResult{Model: model}, err
	}
	return TagResult{Model: model, Tags: gift.CleanSuggestions(*env.SuggestedTags, req.CurrentTags, req.Ignored)}, nil
}

// call resolves the model, makes exactly one provider request and hands the
// text to decode. It returns the resolved model id.
func (g *Gateway) call(ctx context.Context, op, modelID string, msgs composer.Messages, temp float64, decode func(string) error) (string, error) {
	start := time.Now()

	m, err := g.registry.Resolve(modelID)
	if err != nil {
		g.observe(op, modelID, "", metrics.OutcomeConfiguration, start, err)
		return modelID, configurationError(modelID, err)
	}

	eng, err := g.engines.For(ctx, m.Provider)
	if err != nil {
		g.observe(op, m.ID, m.Provider, metrics.OutcomeConfiguration, start, err)
		return m.ID, configurationError(m.ID, err)
	}

	text, err := eng.Generate(ctx, engine.Request{
		Model:       m.ID,
		System:      msgs.System,
		User:        msgs.User,
		Temperature: temp,
		JSON:        true,
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = engine.ErrEmptyResponse
	}
	if err != nil {
		g.observe(op, m.ID, m.Provider, metrics.OutcomeProvider, start, err)
		return m.ID, &ProviderError{Model: m.ID, Provider: m.Provider, Err: err}
	}

	if err := decode(text); err != nil {
		slog.Debug("gateway: undecodable response", "operation", op, "model", m.ID, "response", text)
		g.observe(op, m.ID, m.Provider, metrics.OutcomeSchema, start, err)
		return m.ID, &SchemaError{Model: m.ID, Err: err}
	}

	g.observe(op, m.ID, m.Provider, metrics.OutcomeOK, start, nil)
	return m.ID, nil
}

func (g *Gateway) observe(op, model string, provider models.Provider, outcome string, start time.Time, err error) {
	d := time.Since(start)
	g.metrics.ObserveGateway(op, string(provider), outcome, d)

	attrs := []any{"operation", op, "model", model, "provider", provider, "duration", d, "outcome", outcome}
	if err != nil {
		slog.Warn("gateway call failed", append(attrs, "error", err)...)
		return
	}
	slog.Info("gateway call", attrs...)
}
