// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package player is the playback state machine behind the custom video player.
//
// The media element is reached through the Element interface; its signals come
// back as event messages. User commands and element events go through one
// mutex-guarded reducer (Dispatch) and are applied in issue order. Every applied
// message produces a State snapshot that observers receive.
package player

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	xglog "github.com/ManuGH/vidfolio/internal/log"
	"github.com/ManuGH/vidfolio/internal/metrics"
	"github.com/ManuGH/vidfolio/internal/notify"
)

// SkipStep is the relative skip distance in seconds.
const SkipStep = 10.0

// DefaultHideDelay is the idle time after which controls hide during playback.
const DefaultHideDelay = 3 * time.Second

var (
	// ErrClosed is returned by Dispatch after Close.
	ErrClosed = errors.New("player: closed")
	// ErrNoSource is returned by New without a source URL.
	ErrNoSource = errors.New("player: source is required")
	// ErrNoElement is returned by New without an element.
	ErrNoElement = errors.New("player: element is required")
	// ErrInvalidQuality is returned for labels outside Qualities.
	ErrInvalidQuality = errors.New("player: invalid quality")
)

// User-facing notification texts.
const (
	MsgPlayRejected       = "Impossible de lancer la lecture"
	MsgFullscreenFailed   = "Impossible de passer en plein écran"
	MsgQualityChanged     = "Qualité changée : "
	MsgQualityUnavailable = "Qualité indisponible pour cette vidéo : "
)

// Element is the media element transport.
type Element interface {
	// Play starts playback. It may fail synchronously, or later via PlayRejected.
	Play() error
	Pause()
	Seek(seconds float64)
	// SetVolume sets the output level in [0, 1].
	SetVolume(v float64)
	SetSource(url string)
	RequestFullscreen() error
	ExitFullscreen()
}

// Config describes the media a player presents.
type Config struct {
	Source string
	Poster string
	Title  string
	// Renditions maps quality labels to alternative sources.
	Renditions map[string]string
}

// Option configures a Player.
type Option func(*Player)

// WithClock replaces the wall clock used for the auto-hide timer.
func WithClock(c Clock) Option {
	return func(p *Player) { p.clock = c }
}

// WithHideDelay overrides DefaultHideDelay.
func WithHideDelay(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.hideDelay = d
		}
	}
}

// Player is one player instance. It is safe for concurrent use.
type Player struct {
	cfg       Config
	el        Element
	clock     Clock
	hideDelay time.Duration

	mu        sync.Mutex
	state     State
	closed    bool
	hideTimer Timer
	hideGen   uint64
	observers map[int]func(State)
	nextObs   int
}

// New creates a paused player with controls visible, full volume and auto quality.
func New(cfg Config, el Element, opts ...Option) (*Player, error) {
	if el == nil {
		return nil, ErrNoElement
	}
	cfg.Source = strings.TrimSpace(cfg.Source)
	if cfg.Source == "" {
		return nil, ErrNoSource
	}
	p := &Player{
		cfg:       cfg,
		el:        el,
		clock:     RealClock,
		hideDelay: DefaultHideDelay,
		observers: make(map[int]func(State)),
		state: State{
			Phase:           PhasePaused,
			Volume:          1,
			ControlsVisible: true,
			Quality:         QualityAuto,
			Source:          cfg.Source,
			Buffered:        []Range{},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the media description.
func (p *Player) Config() Config { return p.cfg }

// State returns the current snapshot.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.clone()
}

// Closed reports whether Close has run.
func (p *Player) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Subscribe registers fn for every snapshot. Observers run synchronously under the
// player lock and must not call back into the player. The returned func removes fn.
func (p *Player) Subscribe(fn func(State)) (cancel func()) {
	p.mu.Lock()
	id := p.nextObs
	p.nextObs++
	p.observers[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.observers, id)
		p.mu.Unlock()
	}
}

// Close stops the hide timer and rejects further messages. It is idempotent.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}

func (p *Player) closeLocked() {
	if p.closed {
		return
	}
	p.closed = true
	p.stopHideLocked()
}

// Dispatch applies msg and returns the resulting snapshot. Notifications go to
// the notifier carried by ctx.
func (p *Player) Dispatch(ctx context.Context, msg Message) (State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return p.state.clone(), ErrClosed
	}
	if msg == nil {
		return p.state.clone(), ErrUnknownMessage
	}
	if err := p.reduce(ctx, msg); err != nil {
		return p.state.clone(), err
	}
	metrics.RecordPlaybackEvent(msg.Type())
	if p.closed {
		return p.state.clone(), nil
	}

	_, moved := msg.(PointerMove)
	p.syncControlsLocked(moved)
	p.state.BufferedFraction = BufferedFraction(p.state.Buffered, p.state.Position, p.state.Duration)
	p.state.Playing = p.state.Phase == PhasePlaying || p.state.Phase == PhaseBuffering
	p.state.Ended = p.state.Phase == PhaseEnded
	return p.publishLocked(), nil
}

func (p *Player) publishLocked() State {
	p.state.Seq++
	snap := p.state.clone()
	for _, fn := range p.observers {
		fn(snap.clone())
	}
	return snap
}

func (p *Player) reduce(ctx context.Context, msg Message) error {
	s := &p.state
	switch m := msg.(type) {
	case Play:
		p.play(ctx)
	case Pause:
		p.pause()
	case TogglePlay:
		if s.Phase == PhasePlaying || s.Phase == PhaseBuffering {
			p.pause()
		} else {
			p.play(ctx)
		}
	case Seek:
		p.seek(m.Position)
	case SkipForward:
		p.seek(s.Position + SkipStep)
	case SkipBackward:
		p.seek(s.Position - SkipStep)
	case SetVolume:
		v := clamp(m.Volume, 0, 1)
		s.Volume = v
		if v == 0 {
			s.Muted = true
		} else if s.Muted {
			s.Muted = false
		}
		p.el.SetVolume(s.EffectiveVolume())
	case ToggleMute:
		s.Muted = !s.Muted
		p.el.SetVolume(s.EffectiveVolume())
	case PointerEnter:
		s.Hovering = true
	case PointerLeave:
		s.Hovering = false
	case PointerMove:
		s.ControlsVisible = true
	case ToggleFullscreen:
		p.toggleFullscreen(ctx)
	case SelectQuality:
		return p.selectQuality(ctx, m.Quality)
	case Close:
		p.closeLocked()

	case TimeUpdate:
		s.Position = p.clampPosition(m.Position)
		if s.Duration > 0 && s.Position >= s.Duration && s.Phase != PhaseEnded {
			s.Phase = PhaseEnded
			s.Loading = false
		}
	case LoadedMetadata:
		s.Duration = max(finite(m.Duration), 0)
		s.DurationKnown = true
		s.Position = p.clampPosition(s.Position)
	case Ended:
		s.Phase = PhaseEnded
		s.Loading = false
		if s.DurationKnown {
			s.Position = s.Duration
		}
	case Progress:
		s.Buffered = normalizeRanges(m.Ranges)
	case Waiting:
		s.Loading = true
		if s.Phase == PhasePlaying {
			s.Phase = PhaseBuffering
		}
	case CanPlay:
		s.Loading = false
		if s.Phase == PhaseBuffering {
			s.Phase = PhasePlaying
		}
	case Playing:
		s.Loading = false
		if s.Phase != PhaseEnded {
			s.Phase = PhasePlaying
		}
	case PlayRejected:
		p.rejectPlay(ctx, errors.New(m.Reason))
	case FullscreenFailed:
		p.fullscreenFailed(ctx, errors.New(m.Reason))
		s.Fullscreen = false
	case FullscreenExited:
		s.Fullscreen = false
	default:
		return ErrUnknownMessage
	}
	return nil
}

func (p *Player) play(ctx context.Context) {
	s := &p.state
	if s.Phase == PhasePlaying || s.Phase == PhaseBuffering {
		return
	}
	if s.Phase == PhaseEnded {
		// replay from the start
		s.Position = 0
		p.el.Seek(0)
	}
	if err := p.el.Play(); err != nil {
		p.rejectPlay(ctx, err)
		return
	}
	s.Phase = PhasePlaying
}

func (p *Player) rejectPlay(ctx context.Context, err error) {
	s := &p.state
	if s.Phase != PhaseEnded {
		s.Phase = PhasePaused
	}
	s.Loading = false
	metrics.RecordPlayRejected()
	logger := xglog.WithComponentFromContext(ctx, "player")
	logger.Warn().
		Err(err).
		Str(xglog.FieldEvent, "player.play_rejected").
		Msg("play request rejected")
	notify.Send(ctx, notify.Warning, MsgPlayRejected)
}

func (p *Player) pause() {
	s := &p.state
	if s.Phase != PhasePlaying && s.Phase != PhaseBuffering {
		return
	}
	p.el.Pause()
	s.Phase = PhasePaused
	s.Loading = false
}

func (p *Player) seek(pos float64) {
	s := &p.state
	s.Position = p.clampPosition(pos)
	p.el.Seek(s.Position)
	if s.Phase == PhaseEnded && (!s.DurationKnown || s.Position < s.Duration) {
		s.Phase = PhasePaused
	}
}

// clampPosition bounds pos to [0, duration], or to [0, +inf) until metadata
// has reported a duration. A reported duration of zero pins pos to 0.
func (p *Player) clampPosition(pos float64) float64 {
	pos = max(finite(pos), 0)
	if d := p.state.Duration; p.state.DurationKnown && pos > d {
		return d
	}
	return pos
}

func (p *Player) toggleFullscreen(ctx context.Context) {
	s := &p.state
	if s.Fullscreen {
		p.el.ExitFullscreen()
		s.Fullscreen = false
		return
	}
	if err := p.el.RequestFullscreen(); err != nil {
		p.fullscreenFailed(ctx, err)
		return
	}
	s.Fullscreen = true
}

func (p *Player) fullscreenFailed(ctx context.Context, err error) {
	logger := xglog.WithComponentFromContext(ctx, "player")
	logger.Warn().
		Err(err).
		Str(xglog.FieldEvent, "player.fullscreen_failed").
		Msg("fullscreen request failed")
	notify.Send(ctx, notify.Warning, MsgFullscreenFailed)
}

func (p *Player) selectQuality(ctx context.Context, label string) error {
	label = strings.ToLower(strings.TrimSpace(label))
	if !validQuality(label) {
		return ErrInvalidQuality
	}
	s := &p.state
	s.Quality = label

	target := p.cfg.Source
	if label != QualityAuto {
		target = p.cfg.Renditions[label]
	}
	if target == "" {
		notify.Send(ctx, notify.Info, MsgQualityUnavailable+label)
		return nil
	}
	if target != s.Source {
		p.switchSource(ctx, target)
	}
	notify.Send(ctx, notify.Success, MsgQualityChanged+label)
	return nil
}

// switchSource swaps the element source, restores the position and resumes if
// playback was running.
func (p *Player) switchSource(ctx context.Context, url string) {
	s := &p.state
	resume := s.Phase == PhasePlaying || s.Phase == PhaseBuffering
	pos := s.Position

	p.el.SetSource(url)
	s.Source = url
	s.Buffered = []Range{}
	p.el.Seek(pos)
	if !resume {
		return
	}
	s.Loading = true
	if err := p.el.Play(); err != nil {
		p.rejectPlay(ctx, err)
	}
}

func validQuality(label string) bool {
	for _, q := range Qualities {
		if q == label {
			return true
		}
	}
	return false
}

// syncControlsLocked keeps controls visible while paused or hovering and arms the
// hide timer while playing. The timer is restarted only on pointer movement or
// when it is not yet running, so frequent time updates do not postpone it.
func (p *Player) syncControlsLocked(pointerMoved bool) {
	s := &p.state
	running := s.Phase == PhasePlaying || s.Phase == PhaseBuffering
	if !running || s.Hovering {
		s.ControlsVisible = true
		p.stopHideLocked()
		return
	}
	if pointerMoved || (p.hideTimer == nil && s.ControlsVisible) {
		p.armHideLocked()
	}
}

func (p *Player) armHideLocked() {
	p.stopHideLocked()
	gen := p.hideGen
	p.hideTimer = p.clock.AfterFunc(p.hideDelay, func() { p.hide(gen) })
}

func (p *Player) stopHideLocked() {
	if p.hideTimer != nil {
		p.hideTimer.Stop()
		p.hideTimer = nil
	}
	// invalidate a callback that already started
	p.hideGen++
}

func (p *Player) hide(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.hideGen {
		return
	}
	p.hideTimer = nil
	s := &p.state
	if s.Hovering || (s.Phase != PhasePlaying && s.Phase != PhaseBuffering) || !s.ControlsVisible {
		return
	}
	s.ControlsVisible = false
	metrics.RecordPlaybackEvent("controls_hidden")
	p.publishLocked()
}

func normalizeRanges(in []Range) []Range {
	out := make([]Range, 0, len(in))
	for _, r := range in {
		start, end := max(finite(r.Start), 0), finite(r.End)
		if end < start {
			continue
		}
		out = append(out, Range{Start: start, End: end})
	}
	return out
}
