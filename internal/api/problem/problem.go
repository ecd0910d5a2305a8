// SPDX-License-Identifier: MIT

// Package problem writes RFC 7807 problem details responses.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/vidfolio/internal/log"
)

// HeaderRequestID carries the request correlation id.
const HeaderRequestID = "X-Request-ID"

// ContentType is the RFC 7807 media type.
const ContentType = "application/problem+json"

// Details is the JSON body of a problem response.
type Details struct {
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Status    int            `json:"status"`
	Code      string         `json:"code"`
	Detail    string         `json:"detail,omitempty"`
	Instance  string         `json:"instance,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Errors    []FieldError   `json:"errors,omitempty"`
	Extra     map[string]any `json:"-"`
}

// FieldError names one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Write writes an RFC 7807 problem details response.
//
//   - problemType: canonical machine identifier (e.g. "catalog/not_found").
//   - title: short human label (e.g. "Not Found").
//   - code: stable machine-readable code (e.g. "NOT_FOUND").
//   - detail: explanation of this occurrence; optional.
//
// extra is merged at the top level; reserved keys are ignored.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string, extra map[string]any) {
	WriteDetails(w, r, Details{
		Type:   problemType,
		Title:  title,
		Status: status,
		Code:   code,
		Detail: detail,
		Extra:  extra,
	})
}

// WriteDetails writes d, filling in instance and request id from r.
func WriteDetails(w http.ResponseWriter, r *http.Request, d Details) {
	if r != nil {
		d.Instance = r.URL.EscapedPath()
		d.RequestID = log.RequestIDFromContext(r.Context())
	}
	if d.RequestID == "" {
		d.RequestID = w.Header().Get(HeaderRequestID)
	}

	body := map[string]any{
		"type":   d.Type,
		"title":  d.Title,
		"status": d.Status,
		"code":   d.Code,
	}
	for k, v := range d.Extra {
		switch k {
		case "type", "title", "status", "detail", "instance", "code", "request_id", "errors":
			log.L().Warn().Str("key", k).Str("problem_type", d.Type).Msg("ignoring reserved key in problem extras")
			continue
		}
		body[k] = v
	}
	if d.Detail != "" {
		body["detail"] = d.Detail
	}
	if d.Instance != "" {
		body["instance"] = d.Instance
	}
	if d.RequestID != "" {
		body["request_id"] = d.RequestID
		w.Header().Set(HeaderRequestID, d.RequestID)
	}
	if len(d.Errors) > 0 {
		body["errors"] = d.Errors
	}

	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(d.Status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.L().Error().
			Err(err).
			Str("type", d.Type).
			Int("status", d.Status).
			Msg("failed to encode problem response")
	}
}
