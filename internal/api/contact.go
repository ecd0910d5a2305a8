// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"net/http"

	"github.com/ManuGH/vidfolio/internal/api/problem"
	"github.com/ManuGH/vidfolio/internal/contact"
	"github.com/ManuGH/vidfolio/internal/log"
)

// ContactHandoff is the body of a successful POST /contact.
type ContactHandoff struct {
	URL string `json:"url"`
}

// handleContact validates a contact message and returns its messaging handoff URL.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var m contact.Message
	if err := decodeJSON(w, r, &m); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	link, err := s.handoff.Submit(r.Context(), m)
	switch {
	case errors.Is(err, contact.ErrNoPhone):
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Str(log.FieldEvent, "contact.unconfigured").
			Msg("contact handoff number is not configured")
		problem.Write(w, r, http.StatusServiceUnavailable, "contact/unavailable", "Service Unavailable", "CONTACT_UNAVAILABLE", "contact handoff is not configured", nil)
		return
	case err != nil:
		writeValidation(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ContactHandoff{URL: link})
}
