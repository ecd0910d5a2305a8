// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ManuGH/vidfolio/internal/api/problem"
	"github.com/ManuGH/vidfolio/internal/log"
	"github.com/ManuGH/vidfolio/internal/notify"
	"github.com/ManuGH/vidfolio/internal/player"
	"github.com/ManuGH/vidfolio/internal/player/session"
	"github.com/ManuGH/vidfolio/internal/validate"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

var errEmptyBody = errors.New("request body is empty")

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// withNotices attaches a fresh collector to the request context. Notices raised
// while serving the request reach both the collector and the server notifier.
func (s *Server) withNotices(r *http.Request) (context.Context, *notify.Collector) {
	col := notify.NewCollector()
	return notify.WithNotifier(r.Context(), notify.Multi(s.notifier, col)), col
}

// readBody reads at most maxBodyBytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errEmptyBody
	}
	return body, nil
}

// decodeJSON strictly decodes the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		problem.Write(w, r, http.StatusRequestEntityTooLarge, "api/body_too_large", "Request Entity Too Large", "BODY_TOO_LARGE", err.Error(), nil)
		return
	}
	problem.Write(w, r, http.StatusBadRequest, "api/bad_request", "Bad Request", "BAD_REQUEST", err.Error(), nil)
}

func writeNotFound(w http.ResponseWriter, r *http.Request, problemType, detail string, notices []notify.Notice) {
	var extra map[string]any
	if len(notices) > 0 {
		extra = map[string]any{"notices": notices}
	}
	problem.Write(w, r, http.StatusNotFound, problemType, "Not Found", "NOT_FOUND", detail, extra)
}

// writeValidation maps a validate.ValidationError to a 422 with per-field errors.
func writeValidation(w http.ResponseWriter, r *http.Request, err error) {
	d := problem.Details{
		Type:   "api/validation",
		Title:  "Unprocessable Entity",
		Status: http.StatusUnprocessableEntity,
		Code:   "VALIDATION_FAILED",
		Detail: "one or more fields are invalid",
	}
	var verr validate.ValidationError
	if errors.As(err, &verr) {
		for _, e := range verr.Errors() {
			d.Errors = append(d.Errors, problem.FieldError{Field: e.Field, Message: e.Message})
		}
	} else {
		d.Detail = err.Error()
	}
	problem.WriteDetails(w, r, d)
}

// writeSessionError maps playback session and player errors to responses.
func writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", `Bearer realm="playback"`)
		problem.Write(w, r, http.StatusUnauthorized, "playback/unauthorized", "Unauthorized", "UNAUTHORIZED", "invalid or missing session token", nil)
	case errors.Is(err, session.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, "playback/not_found", "Not Found", "SESSION_NOT_FOUND", "playback session not found", nil)
	case errors.Is(err, session.ErrTooManySessions):
		w.Header().Set("Retry-After", "60")
		problem.Write(w, r, http.StatusServiceUnavailable, "playback/capacity", "Service Unavailable", "TOO_MANY_SESSIONS", err.Error(), nil)
	case errors.Is(err, session.ErrRegistryShutdown):
		problem.Write(w, r, http.StatusServiceUnavailable, "playback/shutdown", "Service Unavailable", "SHUTTING_DOWN", err.Error(), nil)
	case errors.Is(err, player.ErrUnknownMessage):
		problem.Write(w, r, http.StatusBadRequest, "playback/unknown_message", "Bad Request", "UNKNOWN_MESSAGE", err.Error(), nil)
	case errors.Is(err, player.ErrInvalidQuality), errors.Is(err, player.ErrNoSource):
		problem.Write(w, r, http.StatusUnprocessableEntity, "playback/invalid", "Unprocessable Entity", "INVALID_PLAYBACK", err.Error(), nil)
	default:
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "playback.request_failed").
			Msg("playback request failed")
		problem.Write(w, r, http.StatusInternalServerError, "system/internal", "Internal Server Error", "INTERNAL_ERROR", "", nil)
	}
}
