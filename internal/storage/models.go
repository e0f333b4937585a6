package storage

import (
	"errors"
	"time"

	"github.com/kalambet/giftgenius/internal/profile"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Session is a saved recipient profile plus its selected model.
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Model     string
	Profile   profile.Profile
}

// GiftRecord is a stored gift idea.
type GiftRecord struct {
	profile.GiftIdea
	SessionID string
	Model     string
	Dismissed bool
	CreatedAt time.Time
}

// Suggestion statuses.
const (
	SuggestionOffered  = "offered"
	SuggestionAccepted = "accepted"
	SuggestionIgnored  = "ignored"
)
