// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package contact

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ResetDelay is how long the form stays in the submitting state after a handoff.
const ResetDelay = 500 * time.Millisecond

// Submit button labels.
const (
	LabelSubmit     = "Envoyer le message"
	LabelSubmitting = "Redirection..."
)

// Phase is the form's submission state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
)

var (
	ErrBusy         = errors.New("contact: submission in progress")
	ErrFormClosed   = errors.New("contact: form closed")
	ErrUnknownField = errors.New("contact: unknown field")
)

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Clock schedules the reset callback.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// FormState is a snapshot of the form.
type FormState struct {
	Phase          Phase   `json:"phase"`
	Fields         Message `json:"fields"`
	SubmitDisabled bool    `json:"submit_disabled"`
	SubmitLabel    string  `json:"submit_label"`
	// Link is the handoff URL of the submission in progress.
	Link string `json:"link,omitempty"`
}

// Form is the contact form state machine: idle, then submitting for ResetDelay
// after a valid submission, then idle again with every field cleared.
type Form struct {
	handoff Handoff
	clock   Clock
	delay   time.Duration

	mu       sync.Mutex
	state    FormState
	timer    Timer
	gen      uint64
	closed   bool
	onChange func(FormState)
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithFormClock replaces the clock used for the reset timer.
func WithFormClock(c Clock) FormOption {
	return func(f *Form) { f.clock = c }
}

// OnChange registers fn for every state change, including the timed reset.
// fn runs with the form locked and must not call back into it.
func OnChange(fn func(FormState)) FormOption {
	return func(f *Form) { f.onChange = fn }
}

// NewForm returns an idle, empty form handing off to h.
func NewForm(h Handoff, opts ...FormOption) *Form {
	f := &Form{
		handoff: h,
		clock:   realClock{},
		delay:   ResetDelay,
		state:   idleState(Message{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func idleState(fields Message) FormState {
	return FormState{Phase: PhaseIdle, Fields: fields, SubmitLabel: LabelSubmit}
}

// State returns the current snapshot.
func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Set updates one field ("name", "email", "subject" or "message") while idle.
func (f *Form) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.usableLocked(); err != nil {
		return err
	}
	m := &f.state.Fields
	switch field {
	case "name":
		m.Name = value
	case "email":
		m.Email = value
	case "subject":
		m.Subject = value
	case "message":
		m.Message = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	f.changedLocked()
	return nil
}

// Fill replaces every field while idle.
func (f *Form) Fill(m Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.usableLocked(); err != nil {
		return err
	}
	f.state.Fields = m
	f.changedLocked()
	return nil
}

// Submit validates the fields. An invalid form stays idle and keeps its fields.
// A valid one enters the submitting state, returns the handoff link, and resets
// after ResetDelay.
func (f *Form) Submit(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.usableLocked(); err != nil {
		return "", err
	}
	link, err := f.handoff.Submit(ctx, f.state.Fields)
	if err != nil {
		return "", err
	}

	f.state.Phase = PhaseSubmitting
	f.state.SubmitDisabled = true
	f.state.SubmitLabel = LabelSubmitting
	f.state.Link = link
	f.changedLocked()

	f.gen++
	gen := f.gen
	f.timer = f.clock.AfterFunc(f.delay, func() { f.reset(gen) })
	return link, nil
}

// Close cancels a pending reset. Further calls fail with ErrFormClosed.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.gen++
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

func (f *Form) usableLocked() error {
	switch {
	case f.closed:
		return ErrFormClosed
	case f.state.Phase != PhaseIdle:
		return ErrBusy
	}
	return nil
}

func (f *Form) reset(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || gen != f.gen {
		return
	}
	f.timer = nil
	f.state = idleState(Message{})
	f.changedLocked()
}

func (f *Form) changedLocked() {
	if f.onChange != nil {
		f.onChange(f.state)
	}
}
