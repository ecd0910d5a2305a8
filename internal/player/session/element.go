// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import "sync"

// Directive types the browser applies to its media element.
const (
	DirectivePlay           = "play"
	DirectivePause          = "pause"
	DirectiveSeek           = "seek"
	DirectiveVolume         = "volume"
	DirectiveSource         = "source"
	DirectiveFullscreen     = "fullscreen"
	DirectiveExitFullscreen = "exit_fullscreen"
)

// Directive is one element call the player made while applying a message.
type Directive struct {
	Type     string   `json:"type"`
	Position *float64 `json:"position,omitempty"`
	Volume   *float64 `json:"volume,omitempty"`
	Source   string   `json:"source,omitempty"`
}

// element records the player's calls instead of touching a real media element.
// Play and RequestFullscreen always succeed here; the browser reports a refusal
// back as a play_rejected or fullscreen_failed event.
type element struct {
	mu      sync.Mutex
	pending []Directive
}

func (e *element) push(d Directive) {
	e.mu.Lock()
	e.pending = append(e.pending, d)
	e.mu.Unlock()
}

// drain returns the recorded directives in call order and resets the buffer.
func (e *element) drain() []Directive {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.pending
	e.pending = nil
	if out == nil {
		out = []Directive{}
	}
	return out
}

func (e *element) Play() error {
	e.push(Directive{Type: DirectivePlay})
	return nil
}

func (e *element) Pause() { e.push(Directive{Type: DirectivePause}) }

func (e *element) Seek(seconds float64) {
	e.push(Directive{Type: DirectiveSeek, Position: &seconds})
}

func (e *element) SetVolume(v float64) {
	e.push(Directive{Type: DirectiveVolume, Volume: &v})
}

func (e *element) SetSource(url string) {
	e.push(Directive{Type: DirectiveSource, Source: url})
}

func (e *element) RequestFullscreen() error {
	e.push(Directive{Type: DirectiveFullscreen})
	return nil
}

func (e *element) ExitFullscreen() { e.push(Directive{Type: DirectiveExitFullscreen}) }
