package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kalambet/giftgenius/internal/gateway"
	"github.com/kalambet/giftgenius/internal/models"
	"github.com/kalambet/giftgenius/internal/profile"
	"github.com/kalambet/giftgenius/internal/session"
)

type generateGiftsRequest struct {
	Profile          *profile.Profile `json:"profile"`
	AlreadySuggested []string         `json:"alreadySuggestedGiftTitles"`
	UsedTagPairs     [][]string       `json:"usedTagPairs"`
	Model            string           `json:"model"`
}

type generateGiftsResponse struct {
	GiftIdeas []profile.GiftIdea `json:"gift_ideas"`
}

type suggestTagsRequest struct {
	CurrentTags labelList      `json:"currentTags"`
	Sliders     map[string]int `json:"sliders"`
	Ignored     labelList      `json:"ignoredTags"`
	Model       string         `json:"model"`
}

type suggestTagsResponse struct {
	SuggestedTags []string `json:"suggested_tags"`
}

type modelsResponse struct {
	Default string         `json:"default"`
	Models  []models.Model `json:"models"`
}

// labelList accepts either plain strings or objects carrying a "label".
type labelList []string

func (l *labelList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(labelList, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return err
			}
			out = append(out, s)
			continue
		}
		var t profile.Tag
		if err := json.Unmarshal(item, &t); err != nil {
			return fmt.Errorf("tag must be a string or an object with a label: %w", err)
		}
		out = append(out, t.Label)
	}
	*l = out
	return nil
}

// decodeBody reads a size-limited JSON body into v and answers 400 on
// failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "Requête invalide", "invalid request body: %v", err)
		return false
	}
	return true
}

func handleModels(gen session.Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg := gen.Registry()
		writeJSON(w, http.StatusOK, modelsResponse{Default: reg.Default(), Models: reg.Models()})
	}
}

func handleGenerateGifts(gen session.Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateGiftsRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Profile == nil {
			httpError(w, http.StatusBadRequest, "Requête invalide", "profile is required")
			return
		}

		res, err := gen.GenerateGifts(r.Context(), gateway.GiftRequest{
			Profile:          *req.Profile,
			AlreadySuggested: req.AlreadySuggested,
			UsedTagPairs:     req.UsedTagPairs,
			Model:            req.Model,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, generateGiftsResponse{GiftIdeas: res.Ideas})
	}
}

func handleSuggestTags(gen session.Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req suggestTagsRequest
		if !decodeBody(w, r, &req) {
			return
		}

		res, err := gen.SuggestTags(r.Context(), gateway.TagRequest{
			CurrentTags: req.CurrentTags,
			Sliders:     req.Sliders,
			Ignored:     req.Ignored,
			Model:       req.Model,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		tags := res.Tags
		if tags == nil {
			tags = []string{}
		}
		writeJSON(w, http.StatusOK, suggestTagsResponse{SuggestedTags: tags})
	}
}
