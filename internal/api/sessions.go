package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/giftgenius/internal/profile"
	"github.com/kalambet/giftgenius/internal/session"
)

const defaultSessionListLimit = 20

type createSessionRequest struct {
	Profile *profile.Profile `json:"profile"`
	Model   string           `json:"model"`
}

type modelRequest struct {
	Model string `json:"model"`
}

type labelRequest struct {
	Label string        `json:"label"`
	Level profile.Level `json:"level"`
}

type dismissRequest struct {
	Blacklist string `json:"blacklist"`
}

func sessionRoutes(r chi.Router, mgr *session.Manager) {
	r.Post("/", handleCreateSession(mgr))
	r.Get("/", handleListSessions(mgr))

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", handleGetSession(mgr))
		r.Delete("/", handleDeleteSession(mgr))
		r.Put("/profile", handlePutProfile(mgr))
		r.Put("/model", handlePutModel(mgr))

		r.Post("/generate", handleSessionGenerate(mgr))
		r.Post("/suggest-tags", handleSessionSuggest(mgr))
		r.Post("/suggestions/accept", handleAcceptSuggestion(mgr))

		r.Post("/interests", handleAddInterest(mgr))
		r.Post("/interests/{interestID}/toggle", handleToggleInterest(mgr))
		r.Delete("/interests/{interestID}", handleRemoveInterest(mgr))

		r.Post("/tags/{group}", handleAddTag(mgr))
		r.Delete("/tags/{group}/{tagID}", handleRemoveTag(mgr))

		r.Post("/gifts/{giftID}/dismiss", handleDismiss(mgr))
	})
}

// respond writes v, or the mapped error when err is set.
func respond(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, v)
}

func handleCreateSession(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if r.ContentLength != 0 && !decodeBody(w, r, &req) {
			return
		}
		v, err := mgr.Create(req.Profile, req.Model)
		respond(w, http.StatusCreated, v, err)
	}
}

func handleListSessions(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultSessionListLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				httpError(w, http.StatusBadRequest, "Requête invalide", "limit must be a positive integer")
				return
			}
			limit = n
		}
		list, err := mgr.List(limit)
		respond(w, http.StatusOK, map[string]any{"sessions": list}, err)
	}
}

func handleGetSession(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := mgr.Get(chi.URLParam(r, "id"))
		respond(w, http.StatusOK, v, err)
	}
}

func handleDeleteSession(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mgr.Delete(chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handlePutProfile(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p profile.Profile
		if !decodeBody(w, r, &p) {
			return
		}
		v, err := mgr.UpdateProfile(chi.URLParam(r, "id"), p)
		respond(w, http.StatusOK, v, err)
	}
}

func handlePutModel(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req modelRequest
		if !decodeBody(w, r, &req) {
			return
		}
		v, err := mgr.SetModel(chi.URLParam(r, "id"), req.Model)
		respond(w, http.StatusOK, v, err)
	}
}

func handleSessionGenerate(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ideas, err := mgr.Generate(r.Context(), chi.URLParam(r, "id"))
		respond(w, http.StatusOK, generateGiftsResponse{GiftIdeas: ideas}, err)
	}
}

func handleSessionSuggest(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := mgr.SuggestTags(r.Context(), chi.URLParam(r, "id"))
		if tags == nil {
			tags = []string{}
		}
		respond(w, http.StatusOK, suggestTagsResponse{SuggestedTags: tags}, err)
	}
}

func handleAcceptSuggestion(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req labelRequest
		if !decodeBody(w, r, &req) {
			return
		}
		v, err := mgr.AcceptSuggestion(chi.URLParam(r, "id"), req.Label)
		respond(w, http.StatusOK, v, err)
	}
}

func handleAddInterest(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req labelRequest
		if !decodeBody(w, r, &req) {
			return
		}
		v, err := mgr.AddInterest(chi.URLParam(r, "id"), req.Label, req.Level)
		respond(w, http.StatusOK, v, err)
	}
}

func handleToggleInterest(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := mgr.ToggleInterest(chi.URLParam(r, "id"), chi.URLParam(r, "interestID"))
		respond(w, http.StatusOK, v, err)
	}
}

func handleRemoveInterest(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := mgr.RemoveInterest(chi.URLParam(r, "id"), chi.URLParam(r, "interestID"))
		respond(w, http.StatusOK, v, err)
	}
}

func handleAddTag(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req labelRequest
		if !decodeBody(w, r, &req) {
			return
		}
		v, err := mgr.AddTag(chi.URLParam(r, "id"), chi.URLParam(r, "group"), req.Label)
		respond(w, http.StatusOK, v, err)
	}
}

func handleRemoveTag(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := mgr.RemoveTag(chi.URLParam(r, "id"), chi.URLParam(r, "group"), chi.URLParam(r, "tagID"))
		respond(w, http.StatusOK, v, err)
	}
}

func handleDismiss(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dismissRequest
		if r.ContentLength != 0 && !decodeBody(w, r, &req) {
			return
		}
		v, err := mgr.Dismiss(chi.URLParam(r, "id"), chi.URLParam(r, "giftID"), req.Blacklist)
		respond(w, http.StatusOK, v, err)
	}
}
