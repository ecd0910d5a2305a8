// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/vidfolio/internal/notify"
	"github.com/ManuGH/vidfolio/internal/player"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRegistry(t *testing.T, cfg Config) (*Registry, *player.ManualClock) {
	t.Helper()
	if cfg.Secret == nil {
		cfg.Secret = []byte("test-secret")
	}
	clock := player.NewManualClock(epoch)
	r, err := NewRegistry(cfg, WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(r.Shutdown)
	return r, clock
}

var testMedia = player.Config{
	Source:     "https://cdn.example.com/launch.mp4",
	Title:      "Launch film",
	Renditions: map[string]string{player.Quality480: "https://cdn.example.com/launch-480.mp4"},
}

func create(t *testing.T, r *Registry) Created {
	t.Helper()
	c, err := r.Create(context.Background(), "video-1", testMedia)
	require.NoError(t, err)
	return c
}

func recv(t *testing.T, st *Stream) player.State {
	t.Helper()
	select {
	case s, ok := <-st.C():
		require.True(t, ok, "stream closed")
		return s
	case <-time.After(time.Second):
		t.Fatal("no snapshot")
		return player.State{}
	}
}

func TestCreateReturnsInitialState(t *testing.T) {
	r, _ := newTestRegistry(t, Config{})
	c := create(t, r)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "video-1", c.VideoID)
	assert.Equal(t, epoch.Add(DefaultTokenLifetime), c.ExpiresAt)
	assert.Equal(t, player.PhasePaused, c.State.Phase)
	assert.True(t, c.State.ControlsVisible)
	assert.Equal(t, testMedia.Source, c.State.Source)
	assert.Equal(t, 1, r.Len())

	claims, err := r.tokens.verify(c.Token, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "video-1", claims.VideoID)
}

func TestCreateRejectsMissingSource(t *testing.T) {
	r, _ := newTestRegistry(t, Config{})
	_, err := r.Create(context.Background(), "video-1", player.Config{})
	assert.ErrorIs(t, err, player.ErrNoSource)
	assert.Zero(t, r.Len())
}

func TestDispatchReturnsDirectives(t *testing.T) {
	r, _ := newTestRegistry(t, Config{})
	c := create(t, r)
	ctx := context.Background()

	res, err := r.Dispatch(ctx, c.ID, c.Token, player.LoadedMetadata{Duration: 120})
	require.NoError(t, err)
	assert.Empty(t, res.Directives)
	assert.Equal(t, 120.0, res.State.Duration)

	res, err = r.Dispatch(ctx, c.ID, c.Token, player.Play{})
	require.NoError(t, err)
	require.Len(t, res.Directives, 1)
	assert.Equal(t, DirectivePlay, res.Directives[0].Type)
	assert.True(t, res.State.Playing)

	res, err = r.Dispatch(ctx, c.ID, c.Token, player.Seek{Position: 500})
	require.NoError(t, err)
	require.Len(t, res.Directives, 1)
	assert.Equal(t, DirectiveSeek, res.Directives[0].Type)
	require.NotNil(t, res.Directives[0].Position)
	assert.Equal(t, 120.0, *res.Directives[0].Position)

	res, err = r.Dispatch(ctx, c.ID, c.Token, player.SetVolume{Volume: 0})
	require.NoError(t, err)
	require.Len(t, res.Directives, 1)
	assert.Equal(t, DirectiveVolume, res.Directives[0].Type)
	assert.Equal(t, 0.0, *res.Directives[0].Volume)
	assert.True(t, res.State.Muted)

	res, err = r.Dispatch(ctx, c.ID, c.Token, player.ToggleFullscreen{})
	require.NoError(t, err)
	assert.Equal(t, []Directive{{Type: DirectiveFullscreen}}, res.Directives)
	res, err = r.Dispatch(ctx, c.ID, c.Token, player.ToggleFullscreen{})
	require.NoError(t, err)
	assert.Equal(t, []Directive{{Type: DirectiveExitFullscreen}}, res.Directives)
}

func TestQualitySwitchDirectives(t *testing.T) {
	r, _ := newTestRegistry(t, Config{})
	c := create(t, r)
	ctx := context.Background()

	_, err := r.Dispatch(ctx, c.ID, c.Token, player.TimeUpdate{Position: 42})
	require.NoError(t, err)
	_, err = r.Dispatch(ctx, c.ID, c.Token, player.Play{})
	require.NoError(t, err)

	res, err := r.Dispatch(ctx, c.ID, c.Token, player.SelectQuality{Quality: player.Quality480})
	require.NoError(t, err)
	types := make([]string, 0, len(res.Directives))
	for _, d := range res.Directives {
		types = append(types, d.Type)
	}
	assert.Equal(t, []string{DirectiveSource, DirectiveSeek, DirectivePlay}, types)
	assert.Equal(t, testMedia.Renditions[player.Quality480], res.Directives[0].Source)
	assert.Equal(t, 42.0, *res.Directives[1].Position)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, notify.Success, res.Notices[0].Kind)
}

func TestDispatchCollectsNotices(t *testing.T) {
	r, _ := newTestRegistry(t, Config{})
	c := create(t, r)

	outer := notify.NewCollector()
	ctx := notify.WithNotifier(context.Background(), outer)

	res, err := r.Dispatch(ctx, c.ID, c.Token, player.PlayRejected{Reason: "NotAllowedError"})
	require.NoError(t, err)
	assert.Equal(t, []notify.Notice{{Kind: notify.Warning, Text: player.MsgPlayRejected}}, res.Notices)
	assert.Equal(t, player.PhasePaused, res.State.Phase)
	assert.Len(t, outer.Notices(), 1, "the caller's notifier still sees the notice")

	res, err = r.Dispatch(ctx, c.ID, c.Token, player.Pause{})
	require.NoError(t, err)
	assert.Empty(t, res.Notices, "notices do not leak into the next dispatch")
}

func TestTokenChecks(t *testing.T) {
	r, clock := newTestRegistry(t, Config{TokenLifetime: time.Hour})
	a := create(t, r)
	b := create(t, r)
	ctx := context.Background()

	_, err := r.Dispatch(ctx, a.ID, "", player.Play{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = r.Dispatch(ctx, a.ID, b.Token, player.Play{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = r.Dispatch(ctx, a.ID, a.Token+"x", player.Play{})
	assert.ErrorIs(t, err, ErrUnauthorized)

	other, err := NewRegistry(Config{Secret: []byte("other")}, WithClock(clock))
	require.NoError(t, err)
	_, err = other.tokens.verify(a.Token, a.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = r.Dispatch(ctx, "missing", a.Token, player.Play{})
	assert.ErrorIs(t, err, ErrUnauthorized)

	clock.Advance(time.Hour)
	_, err = r.Dispatch(ctx, a.ID, a.Token, player.Play{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 2, r.Sweep())
}

func TestRejectsNoneAlgorithm(t *testing.T) {
	r, _ := newTestRegistry(t, Config{})
	c := create(t, r)

	parts := strings.Split(c.Token, ".")
	require.Len(t, parts, 3)
	// {"alg":"none","typ":"JWT"}
	forged := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." + parts[1] + "."
	_, err := r.Get(c.ID, forged)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestStreamDeliversAutoHide(t *testing.T) {
	r, clock := newTestRegistry(t, Config{})
	c := create(t, r)

	st, err := r.Subscribe(c.ID, c.Token)
	require.NoError(t, err)
	defer st.Close()

	initial := recv(t, st)
	assert.True(t, initial.ControlsVisible)

	_, err = r.Dispatch(context.Background(), c.ID, c.Token, player.Play{})
	require.NoError(t, err)
	playing := recv(t, st)
	assert.True(t, playing.Playing)
	assert.True(t, playing.ControlsVisible)

	clock.Advance(player.DefaultHideDelay)
	hidden := recv(t, st)
	assert.False(t, hidden.ControlsVisible)
	assert.Greater(t, hidden.Seq, playing.Seq)
}

func TestStreamSkipsStaleSnapshots(t *testing.T) {
	r, _ := newTestRegistry(t, Config{})
	c := create(t, r)
	s, err := r.Get(c.ID, c.Token)
	require.NoError(t, err)

	st := &Stream{s: s, ch: make(chan player.State, 4), cancel: func() {}}
	st.send(player.State{Seq: 3})
	st.send(player.State{Seq: 2})
	st.send(player.State{Seq: 3})
	st.send(player.State{Seq: 4})
	st.Close()

	var seqs []uint64
	for s := range st.C() {
		seqs = append(seqs, s.Seq)
	}
	assert.Equal(t, []uint64{3, 4}, seqs)
}

func TestCloseMessageRemovesSession(t *testing.T) {
	r, _ := newTestRegistry(t, Config{})
	c := create(t, r)
	st, err := r.Subscribe(c.ID, c.Token)
	require.NoError(t, err)
	recv(t, st)

	_, err = r.Dispatch(context.Background(), c.ID, c.Token, player.Close{})
	require.NoError(t, err)
	assert.Zero(t, r.Len())

	_, ok := <-st.C()
	assert.False(t, ok, "stream ends with its session")

	_, err = r.Dispatch(context.Background(), c.ID, c.Token, player.Play{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCloseClearsTimers(t *testing.T) {
	r, clock := newTestRegistry(t, Config{})
	c := create(t, r)

	_, err := r.Dispatch(context.Background(), c.ID, c.Token, player.Play{})
	require.NoError(t, err)
	assert.Equal(t, 1, clock.Pending())

	require.NoError(t, r.Close(c.ID, c.Token))
	assert.Zero(t, clock.Pending())
	assert.ErrorIs(t, r.Close(c.ID, c.Token), ErrNotFound)
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	r, clock := newTestRegistry(t, Config{TTL: 10 * time.Minute})
	idle := create(t, r)
	busy := create(t, r)
	watched := create(t, r)

	st, err := r.Subscribe(watched.ID, watched.Token)
	require.NoError(t, err)
	recv(t, st)

	clock.Advance(8 * time.Minute)
	_, err = r.Dispatch(context.Background(), busy.ID, busy.Token, player.PointerMove{})
	require.NoError(t, err)

	clock.Advance(3 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	_, err = r.Get(idle.ID, idle.Token)
	assert.ErrorIs(t, err, ErrNotFound)

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 1, r.Sweep(), "busy session went idle")
	assert.Equal(t, 1, r.Len(), "streaming session is kept")

	st.Close()
	assert.Equal(t, 1, r.Sweep())
	assert.Zero(t, r.Len())
}

func TestMaxSessions(t *testing.T) {
	r, clock := newTestRegistry(t, Config{MaxSessions: 2, TTL: time.Minute})
	create(t, r)
	create(t, r)

	_, err := r.Create(context.Background(), "video-1", testMedia)
	assert.ErrorIs(t, err, ErrTooManySessions)

	clock.Advance(2 * time.Minute)
	create(t, r)
	assert.Equal(t, 1, r.Len(), "expired sessions make room")
}

func TestShutdown(t *testing.T) {
	r, _ := newTestRegistry(t, Config{})
	c := create(t, r)
	st, err := r.Subscribe(c.ID, c.Token)
	require.NoError(t, err)
	recv(t, st)

	r.Shutdown()
	r.Shutdown()
	assert.Zero(t, r.Len())
	_, ok := <-st.C()
	assert.False(t, ok)

	_, err = r.Create(context.Background(), "video-1", testMedia)
	assert.ErrorIs(t, err, ErrRegistryShutdown)
}

func TestRunStopsOnCancel(t *testing.T) {
	r, err := NewRegistry(Config{TTL: time.Minute})
	require.NoError(t, err)
	_, err = r.Create(context.Background(), "video-1", testMedia)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Zero(t, r.Len())
}
