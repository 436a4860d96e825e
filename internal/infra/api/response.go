package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/infra/logging"

	"github.com/rs/zerolog"
)

type detailResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, detailResponse{Detail: msg})
}

// statusOf maps an error kind to its HTTP status; anything unclassified is a 500.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, domain.ErrAuth):
		return http.StatusUnauthorized, "Could not validate credentials"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests"
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusInternalServerError, "Error generating response"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, err error) {
	status, fallback := statusOf(err)
	msg := fallback
	if status != http.StatusInternalServerError || errors.Is(err, domain.ErrUpstream) {
		msg = domain.Message(err, fallback)
	}
	if status == http.StatusInternalServerError {
		logging.With(r.Context(), logger).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeDetail(w, status, msg)
}

// decode reads a JSON body; an empty body decodes to the zero value.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return domain.NewError(domain.ErrValidation, "Invalid request body")
	}
	return nil
}
