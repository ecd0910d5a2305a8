// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package contact

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/vidfolio/internal/validate"
)

var valid = Message{
	Name:    "Awa Mbarga",
	Email:   "awa@example.com",
	Subject: "Clip",
	Message: "Bonjour, 50% de réduction ?",
}

func TestValidateRequiresAllFields(t *testing.T) {
	require.NoError(t, valid.Validate())

	err := Message{Name: "  ", Email: "not-an-email", Subject: "x"}.Validate()
	require.Error(t, err)
	var verr validate.ValidationError
	require.True(t, errors.As(err, &verr))

	fields := map[string]bool{}
	for _, e := range verr.Errors() {
		fields[e.Field] = true
	}
	assert.Equal(t, map[string]bool{"name": true, "email": true, "message": true}, fields)
}

func TestValidateLengthLimits(t *testing.T) {
	m := valid
	m.Subject = strings.Repeat("é", MaxSubject)
	assert.NoError(t, m.Validate(), "limits count runes")
	m.Subject += "a"
	assert.Error(t, m.Validate())
}

func TestHandoffText(t *testing.T) {
	got := Handoff{}.Text(valid)
	want := "*Nouveau message de contact*\n\n" +
		"*Nom:* Awa Mbarga\n" +
		"*Email:* awa@example.com\n" +
		"*Sujet:* Clip\n\n" +
		"*Message:*\nBonjour, 50% de réduction ?"
	assert.Equal(t, want, got)
}

func TestHandoffLink(t *testing.T) {
	link, err := Handoff{Phone: "+237695666275"}.Link(valid)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/237695666275", u.Path)
	assert.Equal(t, Handoff{}.Text(valid), u.Query().Get("text"))

	assert.Contains(t, link, "%20", "spaces are percent-encoded")
	assert.NotContains(t, link, "+")
	assert.Contains(t, link, "*Nouveau%20message", "asterisks are left as is")

	_, err = Handoff{}.Link(valid)
	assert.ErrorIs(t, err, ErrNoPhone)
}

func TestEncodeComponent(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a b", "a%20b"},
		{"*bold*", "*bold*"},
		{"it's (ok)!", "it's%20(ok)!"},
		{"1+1=2", "1%2B1%3D2"},
		{"line\nbreak", "line%0Abreak"},
		{"é", "%C3%A9"},
		{"~-_.", "~-_."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, encodeComponent(tt.in), tt.in)
	}
}

func TestSubmitRejectsInvalid(t *testing.T) {
	_, err := Handoff{Phone: DefaultPhone}.Submit(context.Background(), Message{Name: "x"})
	assert.Error(t, err)
}

func TestMapEmbedURL(t *testing.T) {
	assert.Equal(t, "https://www.google.com/maps?q=Paris%2C+France&output=embed", MapEmbedURL(" Paris, France "))
	assert.Empty(t, MapEmbedURL(""))
}

type fakeTimer struct {
	c       *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func TestFormSubmitAndReset(t *testing.T) {
	clock := &fakeClock{}
	var phases []Phase
	f := NewForm(Handoff{Phone: DefaultPhone}, WithFormClock(clock), OnChange(func(s FormState) {
		phases = append(phases, s.Phase)
	}))

	require.NoError(t, f.Fill(valid))
	link, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Contains(t, link, "https://wa.me/"+DefaultPhone+"?text=")

	s := f.State()
	assert.Equal(t, PhaseSubmitting, s.Phase)
	assert.True(t, s.SubmitDisabled)
	assert.Equal(t, LabelSubmitting, s.SubmitLabel)
	assert.Equal(t, link, s.Link)

	assert.ErrorIs(t, f.Set("name", "again"), ErrBusy)
	_, err = f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	clock.Advance(ResetDelay - time.Millisecond)
	assert.Equal(t, PhaseSubmitting, f.State().Phase)

	clock.Advance(time.Millisecond)
	s = f.State()
	assert.Equal(t, FormState{Phase: PhaseIdle, SubmitLabel: LabelSubmit}, s)
	assert.Equal(t, []Phase{PhaseIdle, PhaseSubmitting, PhaseIdle}, phases)
}

func TestFormInvalidStaysIdle(t *testing.T) {
	clock := &fakeClock{}
	f := NewForm(Handoff{Phone: DefaultPhone}, WithFormClock(clock))
	require.NoError(t, f.Set("name", "Awa"))
	require.NoError(t, f.Set("email", "awa@example.com"))

	_, err := f.Submit(context.Background())
	require.Error(t, err)

	s := f.State()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.False(t, s.SubmitDisabled)
	assert.Equal(t, "Awa", s.Fields.Name, "fields are kept")
	assert.Empty(t, s.Link)
	assert.Zero(t, clock.pending())

	assert.ErrorIs(t, f.Set("phone", "1"), ErrUnknownField)
}

func TestFormCloseCancelsReset(t *testing.T) {
	clock := &fakeClock{}
	f := NewForm(Handoff{Phone: DefaultPhone}, WithFormClock(clock))
	require.NoError(t, f.Fill(valid))
	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, clock.pending())

	f.Close()
	assert.Zero(t, clock.pending())
	clock.Advance(time.Second)
	assert.Equal(t, PhaseSubmitting, f.State().Phase)
	assert.ErrorIs(t, f.Fill(valid), ErrFormClosed)
}
