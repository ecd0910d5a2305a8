// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"fmt"
	"math"
)

// Phase is the playback phase.
type Phase string

const (
	PhasePaused    Phase = "paused"
	PhasePlaying   Phase = "playing"
	PhaseBuffering Phase = "buffering"
	PhaseEnded     Phase = "ended"
)

// Quality labels offered by the selector.
const (
	QualityAuto = "auto"
	Quality720  = "720p"
	Quality480  = "480p"
	Quality360  = "360p"
)

// Qualities lists the selector options in display order.
var Qualities = []string{QualityAuto, Quality720, Quality480, Quality360}

// Range is a buffered interval in seconds.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// State is a snapshot of one player.
type State struct {
	Seq              uint64  `json:"seq"`
	Phase            Phase   `json:"phase"`
	Position         float64 `json:"position"`
	Duration         float64 `json:"duration"`
	DurationKnown    bool    `json:"duration_known"`
	Volume           float64 `json:"volume"`
	Muted            bool    `json:"muted"`
	Playing          bool    `json:"playing"`
	ControlsVisible  bool    `json:"controls_visible"`
	Fullscreen       bool    `json:"fullscreen"`
	Buffered         []Range `json:"buffered"`
	BufferedFraction float64 `json:"buffered_fraction"`
	Loading          bool    `json:"loading"`
	Ended            bool    `json:"ended"`
	Quality          string  `json:"quality"`
	Source           string  `json:"source"`
	Hovering         bool    `json:"hovering"`
}

// ShowMutedIcon reports whether the volume control should render as muted.
func (s State) ShowMutedIcon() bool {
	return s.Muted || s.Volume == 0
}

// EffectiveVolume is the level the element outputs.
func (s State) EffectiveVolume() float64 {
	if s.Muted {
		return 0
	}
	return s.Volume
}

// Elapsed formats the position.
func (s State) Elapsed() string { return FormatTime(s.Position) }

// Total formats the duration.
func (s State) Total() string { return FormatTime(s.Duration) }

func (s State) clone() State {
	if s.Buffered != nil {
		s.Buffered = append([]Range(nil), s.Buffered...)
	}
	return s
}

// BufferedFraction returns end/duration of the range containing position, or 0.
func BufferedFraction(ranges []Range, position, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	for _, r := range ranges {
		if position >= r.Start && position <= r.End {
			return clamp(r.End/duration, 0, 1)
		}
	}
	return 0
}

// FormatTime renders seconds as M:SS, or H:MM:SS from one hour on.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int64(math.Floor(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// finite maps NaN and infinities to 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
