// Package session keeps a recipient profile, its gift history and its tag
// suggestion state across requests, and runs generation on top of them.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/giftgenius/internal/gateway"
	"github.com/kalambet/giftgenius/internal/gift"
	"github.com/kalambet/giftgenius/internal/metrics"
	"github.com/kalambet/giftgenius/internal/models"
	"github.com/kalambet/giftgenius/internal/profile"
	"github.com/kalambet/giftgenius/internal/storage"
)

// ErrBusy is returned when a generation or suggestion call is already
// running for the session.
var ErrBusy = errors.New("session busy: a generation is already running")

// Store defines the storage operations the Manager needs.
// Implemented by storage.Store.
type Store interface {
	CreateSession(s storage.Session) error
	GetSession(id string) (storage.Session, error)
	ListSessions(limit int) ([]storage.Session, error)
	UpdateSessionProfile(id string, p profile.Profile) error
	UpdateSessionModel(id, model string) error
	DeleteSession(id string) error

	PrependGiftIdeas(sessionID, model string, ideas []profile.GiftIdea) error
	ListGiftIdeas(sessionID string, includeDismissed bool) ([]storage.GiftRecord, error)
	DismissGiftIdea(sessionID, giftID string) (storage.GiftRecord, error)
	TagPairs(sessionID string) ([][]string, error)

	OfferSuggestions(sessionID string, labels []string) error
	IgnoreOffered(sessionID string) error
	AcceptSuggestion(sessionID, label string) error
	Suggestions(sessionID, status string) ([]string, error)
}

// Generator runs the provider calls. Implemented by gateway.Gateway.
type Generator interface {
	GenerateGifts(ctx context.Context, req gateway.GiftRequest) (gateway.GiftResult, error)
	SuggestTags(ctx context.Context, req gateway.TagRequest) (gateway.TagResult, error)
	Registry() *models.Registry
}

// View is a session as shown to clients.
type View struct {
	ID          string             `json:"id"`
	Model       string             `json:"model"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Profile     profile.Profile    `json:"profile"`
	GiftIdeas   []profile.GiftIdea `json:"gift_ideas"`
	Suggestions []string           `json:"suggested_tags"`
}

// Manager coordinates storage and generation for sessions.
type Manager struct {
	store   Store
	gen     Generator
	metrics *metrics.Metrics

	// mu serialises profile read-modify-write cycles and guards busy.
	mu   sync.Mutex
	busy map[string]bool
}

// NewManager creates a Manager. m may be nil.
func NewManager(store Store, gen Generator, m *metrics.Metrics) *Manager {
	return &Manager{
		store:   store,
		gen:     gen,
		metrics: m,
		busy:    make(map[string]bool),
	}
}

// Create starts a session. A nil profile starts from profile.Default; an
// empty model follows the registry default.
func (m *Manager) Create(p *profile.Profile, model string) (View, error) {
	prof := profile.Default()
	if p != nil {
		prof = p.Normalize()
	}
	if err := prof.Validate(); err != nil {
		return View{}, &gateway.RequestError{Err: err}
	}
	if err := m.checkModel(model); err != nil {
		return View{}, err
	}

	sess := storage.Session{ID: uuid.NewString(), Model: model, Profile: prof}
	if err := m.store.CreateSession(sess); err != nil {
		return View{}, fmt.Errorf("creating session: %w", err)
	}
	slog.Info("session created", "session", sess.ID, "model", model)
	return m.Get(sess.ID)
}

// Get loads a session with its visible ideas and pending suggestions.
func (m *Manager) Get(id string) (View, error) {
	sess, err := m.store.GetSession(id)
	if err != nil {
		return View{}, err
	}
	records, err := m.store.ListGiftIdeas(id, false)
	if err != nil {
		return View{}, fmt.Errorf("listing gift ideas: %w", err)
	}
	offered, err := m.store.Suggestions(id, storage.SuggestionOffered)
	if err != nil {
		return View{}, fmt.Errorf("listing suggestions: %w", err)
	}

	ideas := make([]profile.GiftIdea, len(records))
	for i, r := range records {
		ideas[i] = r.GiftIdea
	}
	if offered == nil {
		offered = []string{}
	}
	return View{
		ID:          sess.ID,
		Model:       m.effectiveModel(sess.Model),
		CreatedAt:   sess.CreatedAt,
		UpdatedAt:   sess.UpdatedAt,
		Profile:     sess.Profile,
		GiftIdeas:   ideas,
		Suggestions: offered,
	}, nil
}

// List returns summaries of the most recent sessions.
func (m *Manager) List(limit int) ([]View, error) {
	sessions, err := m.store.ListSessions(limit)
	if err != nil {
		return nil, err
	}
	out := make([]View, len(sessions))
	for i, s := range sessions {
		out[i] = View{ID: s.ID, Model: m.effectiveModel(s.Model), CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt, Profile: s.Profile}
	}
	return out, nil
}

// Delete removes a session and its history.
func (m *Manager) Delete(id string) error {
	return m.store.DeleteSession(id)
}

// UpdateProfile replaces the session's profile.
func (m *Manager) UpdateProfile(id string, p profile.Profile) (View, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return View{}, &gateway.RequestError{Err: err}
	}
	m.mu.Lock()
	err := m.store.UpdateSessionProfile(id, p)
	m.mu.Unlock()
	if err != nil {
		return View{}, err
	}
	return m.Get(id)
}

// SetModel selects the model used by later calls. Unknown ids are rejected.
func (m *Manager) SetModel(id, model string) (View, error) {
	if err := m.checkModel(model); err != nil {
		return View{}, err
	}
	if err := m.store.UpdateSessionModel(id, model); err != nil {
		return View{}, err
	}
	return m.Get(id)
}

func (m *Manager) checkModel(model string) error {
	if model == "" {
		return nil
	}
	if _, err := m.gen.Registry().Resolve(model); err != nil {
		return &gateway.ConfigurationError{Model: model, Hint: "Choisissez un modèle listé par /api/models.", Err: err}
	}
	return nil
}

func (m *Manager) effectiveModel(model string) string {
	if model == "" {
		return m.gen.Registry().Default()
	}
	return model
}

// acquire marks the session busy, failing fast if it already is.
func (m *Manager) acquire(id string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy[id] {
		return nil, ErrBusy
	}
	m.busy[id] = true
	m.metrics.SessionCallStarted()
	return func() {
		m.mu.Lock()
		delete(m.busy, id)
		m.mu.Unlock()
		m.metrics.SessionCallDone()
	}, nil
}

// Generate asks for a new batch of ideas and prepends it to the history.
// A failure leaves the history untouched.
func (m *Manager) Generate(ctx context.Context, id string) ([]profile.GiftIdea, error) {
	release, err := m.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := m.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	history, err := m.store.ListGiftIdeas(id, true)
	if err != nil {
		return nil, fmt.Errorf("listing gift ideas: %w", err)
	}
	pairs, err := m.store.TagPairs(id)
	if err != nil {
		return nil, fmt.Errorf("listing tag pairs: %w", err)
	}

	titles := make([]string, len(history))
	for i, r := range history {
		titles[i] = r.Title
	}

	res, err := m.gen.GenerateGifts(ctx, gateway.GiftRequest{
		Profile:          sess.Profile,
		AlreadySuggested: titles,
		UsedTagPairs:     pairs,
		Model:            sess.Model,
	})
	if err != nil {
		return nil, err
	}

	if err := m.store.PrependGiftIdeas(id, res.Model, res.Ideas); err != nil {
		return nil, fmt.Errorf("saving gift ideas: %w", err)
	}
	slog.Info("session ideas generated", "session", id, "model", res.Model, "count", len(res.Ideas), "pairs", len(gift.UsedPairs(res.Ideas)))
	return res.Ideas, nil
}

// SuggestTags asks for adjacent interests. Suggestions offered by the
// previous call and not accepted become ignored first.
func (m *Manager) SuggestTags(ctx context.Context, id string) ([]string, error) {
	release, err := m.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := m.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	if err := m.store.IgnoreOffered(id); err != nil {
		return nil, fmt.Errorf("expiring suggestions: %w", err)
	}
	ignored, err := m.store.Suggestions(id, storage.SuggestionIgnored)
	if err != nil {
		return nil, fmt.Errorf("listing ignored suggestions: %w", err)
	}

	res, err := m.gen.SuggestTags(ctx, gateway.TagRequest{
		CurrentTags: profile.InterestLabels(sess.Profile.Interests),
		Sliders:     sess.Profile.SliderMap(),
		Ignored:     ignored,
		Model:       sess.Model,
	})
	if err != nil {
		return nil, err
	}
	if err := m.store.OfferSuggestions(id, res.Tags); err != nil {
		return nil, fmt.Errorf("saving suggestions: %w", err)
	}
	return res.Tags, nil
}

// AcceptSuggestion adds label as a casual interest.
func (m *Manager) AcceptSuggestion(id, label string) (View, error) {
	err := m.editProfile(id, func(p profile.Profile) (profile.Profile, error) {
		p.Interests, _ = profile.AddInterest(p.Interests, label, profile.LevelCasual)
		return p, nil
	})
	if err != nil {
		return View{}, err
	}
	if strings.TrimSpace(label) != "" {
		if err := m.store.AcceptSuggestion(id, label); err != nil {
			return View{}, fmt.Errorf("recording accepted suggestion: %w", err)
		}
	}
	return m.Get(id)
}

// AddInterest adds a free-text interest. Duplicates are ignored.
func (m *Manager) AddInterest(id, label string, level profile.Level) (View, error) {
	if level == "" {
		level = profile.LevelCasual
	}
	return m.edit(id, func(p profile.Profile) (profile.Profile, error) {
		p.Interests, _ = profile.AddInterest(p.Interests, label, level)
		return p, nil
	})
}

// ToggleInterest flips an interest between casual and expert.
func (m *Manager) ToggleInterest(id, interestID string) (View, error) {
	return m.edit(id, func(p profile.Profile) (profile.Profile, error) {
		p.Interests = profile.ToggleLevel(p.Interests, interestID)
		return p, nil
	})
}

// RemoveInterest deletes an interest.
func (m *Manager) RemoveInterest(id, interestID string) (View, error) {
	return m.edit(id, func(p profile.Profile) (profile.Profile, error) {
		p.Interests = profile.RemoveInterest(p.Interests, interestID)
		return p, nil
	})
}

// AddTag adds label to the named tag group.
func (m *Manager) AddTag(id, group, label string) (View, error) {
	return m.edit(id, func(p profile.Profile) (profile.Profile, error) {
		if !profile.ValidGroup(group) {
			return p, &gateway.RequestError{Err: fmt.Errorf("unknown tag group %q", group)}
		}
		tags, _ := profile.AddTag(p.Group(group), label)
		return p.SetGroup(group, tags), nil
	})
}

// RemoveTag deletes a tag from the named group.
func (m *Manager) RemoveTag(id, group, tagID string) (View, error) {
	return m.edit(id, func(p profile.Profile) (profile.Profile, error) {
		if !profile.ValidGroup(group) {
			return p, &gateway.RequestError{Err: fmt.Errorf("unknown tag group %q", group)}
		}
		return p.SetGroup(group, profile.RemoveTag(p.Group(group), tagID)), nil
	})
}

// Dismiss hides a gift idea and, when blacklistLabel is not blank, adds it
// to the profile's blacklist.
func (m *Manager) Dismiss(id, giftID, blacklistLabel string) (View, error) {
	if _, err := m.store.DismissGiftIdea(id, giftID); err != nil {
		return View{}, err
	}
	if strings.TrimSpace(blacklistLabel) == "" {
		return m.Get(id)
	}
	return m.edit(id, func(p profile.Profile) (profile.Profile, error) {
		p, _ = profile.DismissGift(p, blacklistLabel)
		return p, nil
	})
}

func (m *Manager) edit(id string, fn func(profile.Profile) (profile.Profile, error)) (View, error) {
	if err := m.editProfile(id, fn); err != nil {
		return View{}, err
	}
	return m.Get(id)
}

func (m *Manager) editProfile(id string, fn func(profile.Profile) (profile.Profile, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.store.GetSession(id)
	if err != nil {
		return err
	}
	p, err := fn(sess.Profile)
	if err != nil {
		return err
	}
	return m.store.UpdateSessionProfile(id, p)
}
