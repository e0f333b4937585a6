package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kalambet/giftgenius/internal/engine"
	"github.com/kalambet/giftgenius/internal/models"
)

// RequestError reports invalid caller input, such as an out-of-range slider.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return "invalid request: " + e.Err.Error() }
func (e *RequestError) Unwrap() error { return e.Err }

// ConfigurationError covers an unknown model or a missing credential.
type ConfigurationError struct {
	Model string
	// Hint is a user-facing remedy, e.g. which variable to set.
	Hint string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for model %q: %v", e.Model, e.Err)
}
func (e *ConfigurationError) Unwrap() error { return e.Err }

// ProviderError covers network failures, non-success statuses and empty
// answers.
type ProviderError struct {
	Model    string
	Provider models.Provider
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed for model %q: %v", e.Provider, e.Model, e.Err)
}
func (e *ProviderError) Unwrap() error { return e.Err }

// SchemaError means the provider answered with text that is not the
// expected JSON document.
type SchemaError struct {
	Model string
	Err   error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unexpected response from model %q: %v", e.Model, e.Err)
}
func (e *SchemaError) Unwrap() error { return e.Err }

// ErrorBody is the failure envelope returned to clients.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// Describe maps any error to an HTTP status and a failure envelope.
func Describe(err error) (int, ErrorBody) {
	var (
		reqErr  *RequestError
		confErr *ConfigurationError
		provErr *ProviderError
		schErr  *SchemaError
	)
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, ErrorBody{Error: "Requête invalide", Details: reqErr.Err.Error()}
	case errors.As(err, &confErr):
		return http.StatusInternalServerError, ErrorBody{
			Error:   "Configuration incomplète",
			Details: confErr.Err.Error(),
			Hint:    confErr.Hint,
		}
	case errors.As(err, &provErr):
		body := ErrorBody{Error: "Le fournisseur IA n'a pas pu répondre", Details: provErr.Err.Error()}
		var se *engine.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests {
			body.Hint = "Quota atteint, réessayez plus tard ou choisissez un autre modèle."
		}
		return http.StatusBadGateway, body
	case errors.As(err, &schErr):
		return http.StatusBadGateway, ErrorBody{
			Error:   "Réponse IA illisible",
			Details: schErr.Err.Error(),
			Hint:    "Relancez la génération ou choisissez un autre modèle.",
		}
	}
	return http.StatusInternalServerError, ErrorBody{Error: "Erreur interne", Details: err.Error()}
}

func configurationError(model string, err error) *ConfigurationError {
	ce := &ConfigurationError{Model: model, Err: err}
	var mc *engine.MissingCredentialError
	switch {
	case errors.As(err, &mc):
		ce.Hint = fmt.Sprintf("Définissez %s dans l'environnement ou le fichier de secrets.", mc.EnvVar)
	case errors.Is(err, models.ErrUnknownModel):
		ce.Hint = "Choisissez un modèle listé par /api/models."
	}
	return ce
}
