// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package contact turns the four-field contact form into a WhatsApp deep link.
// Nothing is stored or sent server side; the visitor's browser opens the link.
package contact

import (
	"context"
	"errors"
	"net/url"
	"strings"

	xglog "github.com/ManuGH/vidfolio/internal/log"
	"github.com/ManuGH/vidfolio/internal/metrics"
	"github.com/ManuGH/vidfolio/internal/validate"
)

// DefaultPhone is the handoff number used when none is configured.
const DefaultPhone = "237695666275"

// Field limits.
const (
	MaxName    = 100
	MaxEmail   = 254
	MaxSubject = 200
	MaxMessage = 5000
)

// Submission outcomes reported to metrics.
const (
	OutcomeHandoff = "handoff"
	OutcomeInvalid = "invalid"
)

// ErrNoPhone is returned by Link when the handoff has no number.
var ErrNoPhone = errors.New("contact: no handoff phone configured")

// Message is one contact form submission.
type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Normalize trims surrounding whitespace from every field.
func (m Message) Normalize() Message {
	return Message{
		Name:    strings.TrimSpace(m.Name),
		Email:   strings.TrimSpace(m.Email),
		Subject: strings.TrimSpace(m.Subject),
		Message: strings.TrimSpace(m.Message),
	}
}

// Validate requires all four fields and a well-formed email. Every failing field
// is reported in the returned validate.ValidationError.
func (m Message) Validate() error {
	m = m.Normalize()
	v := validate.New()
	v.NotEmpty("name", m.Name)
	v.MaxLength("name", m.Name, MaxName)
	v.NotEmpty("email", m.Email)
	v.Email("email", m.Email)
	v.MaxLength("email", m.Email, MaxEmail)
	v.NotEmpty("subject", m.Subject)
	v.MaxLength("subject", m.Subject, MaxSubject)
	v.NotEmpty("message", m.Message)
	v.MaxLength("message", m.Message, MaxMessage)
	return v.Err()
}

// Handoff builds deep links to a messaging number.
type Handoff struct {
	Phone string
}

// Text renders the message block sent to the handoff number.
func (h Handoff) Text(m Message) string {
	var b strings.Builder
	b.WriteString("*Nouveau message de contact*\n\n")
	b.WriteString("*Nom:* " + m.Name + "\n")
	b.WriteString("*Email:* " + m.Email + "\n")
	b.WriteString("*Sujet:* " + m.Subject + "\n\n")
	b.WriteString("*Message:*\n" + m.Message)
	return b.String()
}

// Link returns https://wa.me/<phone>?text=<text>. The message is not validated
// here; see Submit.
func (h Handoff) Link(m Message) (string, error) {
	phone := strings.TrimPrefix(strings.TrimSpace(h.Phone), "+")
	if phone == "" {
		return "", ErrNoPhone
	}
	return "https://wa.me/" + phone + "?text=" + encodeComponent(h.Text(m)), nil
}

// Submit validates m and returns its handoff link.
func (h Handoff) Submit(ctx context.Context, m Message) (string, error) {
	logger := xglog.WithComponentFromContext(ctx, "contact")
	m = m.Normalize()
	if err := m.Validate(); err != nil {
		metrics.RecordContact(OutcomeInvalid)
		logger.Debug().Err(err).Str(xglog.FieldEvent, "contact.invalid").Msg("contact submission rejected")
		return "", err
	}
	link, err := h.Link(m)
	if err != nil {
		return "", err
	}
	metrics.RecordContact(OutcomeHandoff)
	logger.Info().Str(xglog.FieldEvent, "contact.handoff").Msg("contact submission handed off")
	return link, nil
}

// componentUnescape restores the characters encodeURIComponent leaves alone but
// url.QueryEscape encodes.
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent percent-encodes s like the browser's encodeURIComponent.
func encodeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}

// MapEmbedURL returns the Google Maps embed URL for a location query.
func MapEmbedURL(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}
	return "https://www.google.com/maps?q=" + url.QueryEscape(query) + "&output=embed"
}
