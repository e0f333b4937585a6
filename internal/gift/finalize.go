// Package gift post-processes raw model output into gift ideas and tag
// suggestions ready for the client.
package gift

import (
	"strings"

	"github.com/google/uuid"

	"github.com/kalambet/giftgenius/internal/profile"
)

// FallbackCategory labels an idea with neither category nor tags.
const FallbackCategory = "Divers"

// MaxTagsUsed caps the justification tags kept per idea.
const MaxTagsUsed = 2

// RawIdea is one element of the "gift_ideas" array as the model returned it.
// Every field is optional.
type RawIdea struct {
	ID        string   `json:"id,omitempty"`
	Emoji     string   `json:"emoji"`
	Category  string   `json:"category"`
	Title     string   `json:"title"`
	Reasoning string   `json:"reasoning"`
	Price     string   `json:"price"`
	TagsUsed  []string `json:"tags_used,omitempty"`
}

// Finalize assigns fresh identifiers and fills the gaps the model left.
// Provider-supplied ids are discarded. A nil input yields an empty slice.
func Finalize(raw []RawIdea) []profile.GiftIdea {
	out := make([]profile.GiftIdea, 0, len(raw))
	for _, r := range raw {
		tags := trimTags(r.TagsUsed)
		category := strings.TrimSpace(r.Category)
		if category == "" {
			if len(tags) > 0 {
				category = tags[0]
			} else {
				category = FallbackCategory
			}
		}
		out = append(out, profile.GiftIdea{
			ID:        uuid.NewString(),
			Emoji:     strings.TrimSpace(r.Emoji),
			Category:  category,
			Title:     strings.TrimSpace(r.Title),
			Reasoning: strings.TrimSpace(r.Reasoning),
			Price:     strings.TrimSpace(r.Price),
			TagsUsed:  tags,
		})
	}
	return out
}

func trimTags(in []string) []string {
	var out []string
	for _, t := range in {
		if t = strings.TrimSpace(t); t == "" {
			continue
		}
		out = append(out, t)
		if len(out) == MaxTagsUsed {
			break
		}
	}
	return out
}

// UsedPairs returns the tags_used of every idea that cites exactly two tags.
func UsedPairs(ideas []profile.GiftIdea) [][]string {
	var out [][]string
	for _, g := range ideas {
		if len(g.TagsUsed) == 2 {
			out = append(out, []string{g.TagsUsed[0], g.TagsUsed[1]})
		}
	}
	return out
}

// Titles returns the idea titles in order.
func Titles(ideas []profile.GiftIdea) []string {
	out := make([]string, len(ideas))
	for i, g := range ideas {
		out[i] = g.Title
	}
	return out
}
