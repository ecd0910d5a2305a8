// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	playbackSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vidfolio_playback_sessions_active",
		Help: "Open server-side playback sessions",
	})

	playbackSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidfolio_playback_sessions_total",
		Help: "Playback sessions ended by reason",
	}, []string{"reason"}) // reason=closed|expired|shutdown

	playbackEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidfolio_playback_events_total",
		Help: "Player messages applied by type",
	}, []string{"type"})

	playbackPlayRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vidfolio_playback_play_rejected_total",
		Help: "Play requests rejected by the media element",
	})

	contactHandoffs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidfolio_contact_handoffs_total",
		Help: "Contact form submissions by outcome",
	}, []string{"outcome"}) // outcome=handoff|invalid|rate_limited
)

// SetPlaybackSessions publishes the number of open sessions.
func SetPlaybackSessions(n int) {
	playbackSessionsActive.Set(float64(n))
}

// RecordPlaybackSessionEnd counts a session teardown.
func RecordPlaybackSessionEnd(reason string) {
	playbackSessionsTotal.WithLabelValues(reason).Inc()
}

// RecordPlaybackEvent counts one applied player message.
func RecordPlaybackEvent(kind string) {
	playbackEvents.WithLabelValues(kind).Inc()
}

// RecordPlayRejected counts a rejected play request.
func RecordPlayRejected() {
	playbackPlayRejected.Inc()
}

// RecordContact counts a contact submission outcome.
func RecordContact(outcome string) {
	contactHandoffs.WithLabelValues(outcome).Inc()
}
