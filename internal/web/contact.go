// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package web

import (
	"errors"
	"net/http"

	"github.com/ManuGH/vidfolio/internal/contact"
	"github.com/ManuGH/vidfolio/internal/notify"
	"github.com/ManuGH/vidfolio/internal/validate"
)

// Contact page notices.
const (
	MsgContactInvalid     = "Veuillez vérifier les champs du formulaire"
	MsgContactUnavailable = "Le contact est momentanément indisponible"
	MsgContactRedirect    = "Redirection vers WhatsApp..."
)

type contactData struct {
	Form        contact.FormState
	FieldErrors map[string]string
	MapURL      string
	ResetMillis int64
}

func (s *Server) newForm() *contact.Form {
	var opts []contact.FormOption
	if s.clock != nil {
		opts = append(opts, contact.WithFormClock(s.clock))
	}
	return contact.NewForm(s.handoff, opts...)
}

func (s *Server) contactPage(state contact.FormState, fieldErrors map[string]string) contactData {
	return contactData{
		Form:        state,
		FieldErrors: fieldErrors,
		MapURL:      contact.MapEmbedURL(s.site.MapQuery),
		ResetMillis: contact.ResetDelay.Milliseconds(),
	}
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	f := s.newForm()
	defer f.Close()
	s.render(w, r, http.StatusOK, "contact", page{
		Title:  "Contact",
		Active: "contact",
		Data:   s.contactPage(f.State(), nil),
	})
}

// handleContactSubmit is the no-script path of the contact form; contact.js
// normally posts to the JSON API from the submit click instead. A valid
// submission renders the submitting state with a clickable handoff link. The
// form lives for this request only, so its own reset timer never fires here:
// the page carries contact.ResetDelay and the browser clears the fields. An
// invalid submission re-renders the idle form with per-field errors.
func (s *Server) handleContactSubmit(w http.ResponseWriter, r *http.Request) {
	ctx, col := s.withNotices(r)
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	f := s.newForm()
	defer f.Close()
	_ = f.Fill(contact.Message{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Subject: r.PostFormValue("subject"),
		Message: r.PostFormValue("message"),
	})

	status := http.StatusOK
	var fieldErrors map[string]string
	if _, err := f.Submit(ctx); err != nil {
		var verr validate.ValidationError
		switch {
		case errors.As(err, &verr):
			status = http.StatusUnprocessableEntity
			fieldErrors = make(map[string]string, len(verr.Errors()))
			for _, e := range verr.Errors() {
				if _, seen := fieldErrors[e.Field]; !seen {
					fieldErrors[e.Field] = e.Message
				}
			}
			notify.Send(ctx, notify.Error, MsgContactInvalid)
		default:
			status = http.StatusServiceUnavailable
			notify.Send(ctx, notify.Error, MsgContactUnavailable)
		}
	} else {
		notify.Send(ctx, notify.Info, MsgContactRedirect)
	}

	s.render(w, r, status, "contact", page{
		Title:   "Contact",
		Active:  "contact",
		Data:    s.contactPage(f.State(), fieldErrors),
		Notices: col.Drain(),
	})
}
