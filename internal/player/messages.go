// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message is a user command or a media element event.
type Message interface {
	// Type is the wire name of the message.
	Type() string
}

// User commands.
type (
	Play             struct{}
	Pause            struct{}
	TogglePlay       struct{}
	Seek             struct{ Position float64 }
	SkipForward      struct{}
	SkipBackward     struct{}
	SetVolume        struct{ Volume float64 }
	ToggleMute       struct{}
	PointerEnter     struct{}
	PointerLeave     struct{}
	PointerMove      struct{}
	ToggleFullscreen struct{}
	SelectQuality    struct{ Quality string }
	Close            struct{}
)

// Media element events.
type (
	TimeUpdate       struct{ Position float64 }
	LoadedMetadata   struct{ Duration float64 }
	Ended            struct{}
	Progress         struct{ Ranges []Range }
	Waiting          struct{}
	CanPlay          struct{}
	Playing          struct{}
	PlayRejected     struct{ Reason string }
	FullscreenFailed struct{ Reason string }
	FullscreenExited struct{}
)

func (Play) Type() string { return "play" }
func (Pause) Type() string { return "pause" }
func (TogglePlay) Type() string { return "toggle_play" }
func (Seek) Type() string { return "seek" }
func (SkipForward) Type() string { return "skip_forward" }
func (SkipBackward) Type() string { return "skip_backward" }
func (SetVolume) Type() string { return "set_volume" }
func (ToggleMute) Type() string { return "toggle_mute" }
func (PointerEnter) Type() string { return "pointer_enter" }
func (PointerLeave) Type() string { return "pointer_leave" }
func (PointerMove) Type() string { return "pointer_move" }
func (ToggleFullscreen) Type() string { return "toggle_fullscreen" }
func (SelectQuality) Type() string { return "select_quality" }
func (Close) Type() string { return "close" }

func (TimeUpdate) Type() string { return "timeupdate" }
func (LoadedMetadata) Type() string { return "loadedmetadata" }
func (Ended) Type() string { return "ended" }
func (Progress) Type() string { return "progress" }
func (Waiting) Type() string { return "waiting" }
func (CanPlay) Type() string { return "canplay" }
func (Playing) Type() string { return "playing" }
func (PlayRejected) Type() string { return "play_rejected" }
func (FullscreenFailed) Type() string { return "fullscreen_failed" }
func (FullscreenExited) Type() string { return "fullscreen_exited" }

// ErrUnknownMessage is returned for message types the player does not handle.
var ErrUnknownMessage = errors.New("player: unknown message")

// envelope is the JSON wire form: {"type": "seek", "position": 12.5}.
type envelope struct {
	Type     string   `json:"type"`
	Position *float64 `json:"position,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	Volume   *float64 `json:"volume,omitempty"`
	Ranges   []Range  `json:"ranges,omitempty"`
	Quality  string   `json:"quality,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// DecodeMessage parses the JSON wire form.
func DecodeMessage(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return env.message()
}

func (e envelope) message() (Message, error) {
	need := func(v *float64, field string) (float64, error) {
		if v == nil {
			return 0, fmt.Errorf("%s: missing %q", e.Type, field)
		}
		return *v, nil
	}
	switch e.Type {
	case "play":
		return Play{}, nil
	case "pause":
		return Pause{}, nil
	case "toggle_play":
		return TogglePlay{}, nil
	case "seek":
		p, err := need(e.Position, "position")
		return Seek{Position: p}, err
	case "skip_forward":
		return SkipForward{}, nil
	case "skip_backward":
		return SkipBackward{}, nil
	case "set_volume":
		v, err := need(e.Volume, "volume")
		return SetVolume{Volume: v}, err
	case "toggle_mute":
		return ToggleMute{}, nil
	case "pointer_enter":
		return PointerEnter{}, nil
	case "pointer_leave":
		return PointerLeave{}, nil
	case "pointer_move":
		return PointerMove{}, nil
	case "toggle_fullscreen":
		return ToggleFullscreen{}, nil
	case "select_quality":
		return SelectQuality{Quality: e.Quality}, nil
	case "close":
		return Close{}, nil
	case "timeupdate":
		p, err := need(e.Position, "position")
		return TimeUpdate{Position: p}, err
	case "loadedmetadata":
		d, err := need(e.Duration, "duration")
		return LoadedMetadata{Duration: d}, err
	case "ended":
		return Ended{}, nil
	case "progress":
		return Progress{Ranges: e.Ranges}, nil
	case "waiting":
		return Waiting{}, nil
	case "canplay":
		return CanPlay{}, nil
	case "playing":
		return Playing{}, nil
	case "play_rejected":
		return PlayRejected{Reason: e.Reason}, nil
	case "fullscreen_failed":
		return FullscreenFailed{Reason: e.Reason}, nil
	case "fullscreen_exited":
		return FullscreenExited{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, e.Type)
	}
}
