// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package session keeps server-side player instances for browser pages that act
// as thin clients. Each session owns one player.Player whose element calls are
// recorded as directives and returned to the page, which applies them to its
// media element and reports element events back.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/vidfolio/internal/log"
	"github.com/ManuGH/vidfolio/internal/metrics"
	"github.com/ManuGH/vidfolio/internal/notify"
	"github.com/ManuGH/vidfolio/internal/player"
)

const (
	// DefaultTTL is how long a session may stay idle before the janitor closes it.
	DefaultTTL = 30 * time.Minute
	// DefaultTokenLifetime bounds a session's total lifetime.
	DefaultTokenLifetime = 12 * time.Hour
	// DefaultMaxSessions caps concurrently open sessions.
	DefaultMaxSessions = 1000
)

// Session end reasons reported to metrics.
const (
	EndClosed   = "closed"
	EndExpired  = "expired"
	EndShutdown = "shutdown"
)

var (
	ErrNotFound         = errors.New("playback session not found")
	ErrUnauthorized     = errors.New("playback session token invalid")
	ErrTooManySessions  = errors.New("too many playback sessions")
	ErrRegistryShutdown = errors.New("playback session registry shut down")
)

// Config tunes a Registry. Zero values select the defaults.
type Config struct {
	TTL           time.Duration
	TokenLifetime time.Duration
	MaxSessions   int
	// Secret signs session tokens. A random key is generated when empty.
	Secret []byte
	// HideDelay overrides player.DefaultHideDelay.
	HideDelay time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock drives expiry, token validation and player timers from c.
func WithClock(c player.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// Registry owns every open session.
type Registry struct {
	cfg    Config
	clock  player.Clock
	tokens signer
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	shutdown bool
}

// NewRegistry builds an empty registry.
func NewRegistry(cfg Config, opts ...Option) (*Registry, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TokenLifetime <= 0 {
		cfg.TokenLifetime = DefaultTokenLifetime
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	r := &Registry{
		cfg:      cfg,
		clock:    player.RealClock,
		logger:   xglog.WithComponent("playback"),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}

	secret := cfg.Secret
	if len(secret) == 0 {
		var err error
		if secret, err = newSecret(); err != nil {
			return nil, err
		}
		r.logger.Info().
			Str(xglog.FieldEvent, "playback.secret_generated").
			Msg("no session secret configured, using an ephemeral key")
	}
	r.tokens = signer{secret: secret, now: r.clock.Now}
	return r, nil
}

// Created is the answer to a successful Create.
type Created struct {
	ID        string       `json:"id"`
	VideoID   string       `json:"video_id"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	State     player.State `json:"state"`
}

// Create opens a session playing pc for videoID.
func (r *Registry) Create(ctx context.Context, videoID string, pc player.Config) (Created, error) {
	if r.Len() >= r.cfg.MaxSessions {
		r.Sweep()
	}

	now := r.clock.Now()
	id := uuid.NewString()
	el := &element{}
	opts := []player.Option{player.WithClock(r.clock)}
	if r.cfg.HideDelay > 0 {
		opts = append(opts, player.WithHideDelay(r.cfg.HideDelay))
	}
	p, err := player.New(pc, el, opts...)
	if err != nil {
		return Created{}, fmt.Errorf("create player: %w", err)
	}

	expires := now.Add(r.cfg.TokenLifetime)
	token, err := r.tokens.sign(id, videoID, now, expires)
	if err != nil {
		p.Close()
		return Created{}, fmt.Errorf("sign session token: %w", err)
	}

	s := &Session{
		ID:       id,
		VideoID:  videoID,
		Created:  now,
		Expires:  expires,
		player:   p,
		el:       el,
		lastSeen: now,
		streams:  make(map[*Stream]struct{}),
	}

	r.mu.Lock()
	switch {
	case r.shutdown:
		r.mu.Unlock()
		p.Close()
		return Created{}, ErrRegistryShutdown
	case len(r.sessions) >= r.cfg.MaxSessions:
		r.mu.Unlock()
		p.Close()
		return Created{}, ErrTooManySessions
	}
	r.sessions[id] = s
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.SetPlaybackSessions(n)

	logger := xglog.WithComponentFromContext(ctx, "playback")

	logger.Info().
		Str(xglog.FieldEvent, "playback.session_created").
		Str(xglog.FieldSessionID, id).
		Str(xglog.FieldVideoID, videoID).
		Msg("playback session opened")

	return Created{ID: id, VideoID: videoID, Token: token, ExpiresAt: expires, State: p.State()}, nil
}

// Get returns session id once token is verified for it.
func (r *Registry) Get(id, token string) (*Session, error) {
	if _, err := r.tokens.verify(token, id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Dispatch applies msg to session id. A Close message also removes the session.
func (r *Registry) Dispatch(ctx context.Context, id, token string, msg player.Message) (Result, error) {
	s, err := r.Get(id, token)
	if err != nil {
		return Result{}, err
	}
	s.touch(r.clock.Now())
	res, err := s.Dispatch(ctx, msg)
	if errors.Is(err, player.ErrClosed) {
		return res, ErrNotFound
	}
	if _, closing := msg.(player.Close); closing && err == nil {
		r.remove(id, EndClosed)
	}
	return res, err
}

// Subscribe opens a state stream on session id.
func (r *Registry) Subscribe(id, token string) (*Stream, error) {
	s, err := r.Get(id, token)
	if err != nil {
		return nil, err
	}
	s.touch(r.clock.Now())
	st := s.subscribe()
	if st == nil {
		return nil, ErrNotFound
	}
	return st, nil
}

// Close removes session id.
func (r *Registry) Close(id, token string) error {
	if _, err := r.Get(id, token); err != nil {
		return err
	}
	if !r.remove(id, EndClosed) {
		return ErrNotFound
	}
	return nil
}

// Len reports the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) remove(id, reason string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	if !ok {
		return false
	}
	metrics.SetPlaybackSessions(n)
	r.end(s, reason)
	return true
}

func (r *Registry) end(s *Session, reason string) {
	s.close()
	metrics.RecordPlaybackSessionEnd(reason)
	r.logger.Info().
		Str(xglog.FieldEvent, "playback.session_ended").
		Str(xglog.FieldSessionID, s.ID).
		Str(xglog.FieldVideoID, s.VideoID).
		Str("reason", reason).
		Msg("playback session closed")
}

// Sweep closes sessions idle for longer than the TTL and sessions whose token has
// expired. A session with an open stream is not idle. It returns the number closed.
func (r *Registry) Sweep() int {
	now := r.clock.Now()

	// collect under lock, close outside it
	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.expired(now, r.cfg.TTL) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if len(expired) == 0 {
		return 0
	}
	metrics.SetPlaybackSessions(n)
	for _, s := range expired {
		r.end(s, EndExpired)
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done, then shuts the registry down.
func (r *Registry) Run(ctx context.Context) error {
	interval := min(r.cfg.TTL/2, time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug().
					Str(xglog.FieldEvent, "playback.sweep").
					Int("expired", n).
					Msg("expired idle playback sessions")
			}
		case <-ctx.Done():
			r.Shutdown()
			return nil
		}
	}
}

// Shutdown closes every session and rejects new ones. It is idempotent.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	r.shutdown = true
	all := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if len(all) == 0 {
		return
	}
	metrics.SetPlaybackSessions(0)
	for _, s := range all {
		r.end(s, EndShutdown)
	}
}

// Result is what one dispatched message produced.
type Result struct {
	State      player.State    `json:"state"`
	Directives []Directive     `json:"directives"`
	Notices    []notify.Notice `json:"notices"`
}

// Session is one open player.
type Session struct {
	ID      string
	VideoID string
	Created time.Time
	Expires time.Time

	player *player.Player
	el     *element

	// mu pairs each dispatch with the directives it recorded.
	mu sync.Mutex

	seenMu   sync.Mutex
	lastSeen time.Time

	streamMu sync.Mutex
	streams  map[*Stream]struct{}
	closed   bool
}

// State returns the current player snapshot.
func (s *Session) State() player.State { return s.player.State() }

// Dispatch applies msg and collects the directives and notices it produced.
// Notices also reach the notifier already carried by ctx.
func (s *Session) Dispatch(ctx context.Context, msg player.Message) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := notify.NewCollector()
	ctx = notify.WithNotifier(ctx, notify.Multi(notify.From(ctx), col))
	ctx = xglog.ContextWithSessionID(ctx, s.ID)

	state, err := s.player.Dispatch(ctx, msg)
	return Result{State: state, Directives: s.el.drain(), Notices: col.Drain()}, err
}

func (s *Session) touch(now time.Time) {
	s.seenMu.Lock()
	if now.After(s.lastSeen) {
		s.lastSeen = now
	}
	s.seenMu.Unlock()
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	if !now.Before(s.Expires) {
		return true
	}
	s.streamMu.Lock()
	streaming := len(s.streams) > 0
	s.streamMu.Unlock()
	if streaming {
		return false
	}
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	return now.Sub(s.lastSeen) > ttl
}

// close stops the player, clearing its timers, and ends every stream.
func (s *Session) close() {
	s.player.Close()

	s.streamMu.Lock()
	s.closed = true
	streams := make([]*Stream, 0, len(s.streams))
	for st := range s.streams {
		streams = append(streams, st)
	}
	s.streamMu.Unlock()

	for _, st := range streams {
		st.Close()
	}
}
