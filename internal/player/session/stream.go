// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"sync"

	"github.com/ManuGH/vidfolio/internal/player"
)

// streamBuffer is the number of snapshots a slow reader may lag behind.
const streamBuffer = 16

// Stream delivers state snapshots of one session, starting with the current one.
// A reader that falls more than streamBuffer snapshots behind misses the
// intermediate ones; every snapshot is complete, so the next one catches it up.
type Stream struct {
	s      *Session
	ch     chan player.State
	cancel func()

	mu      sync.Mutex
	closed  bool
	sent    bool
	lastSeq uint64
	once    sync.Once
}

// C yields snapshots until the stream or its session is closed.
func (st *Stream) C() <-chan player.State { return st.ch }

// Close detaches the stream. It is idempotent.
func (st *Stream) Close() {
	st.once.Do(func() {
		st.cancel()

		st.mu.Lock()
		st.closed = true
		close(st.ch)
		st.mu.Unlock()

		st.s.streamMu.Lock()
		delete(st.s.streams, st)
		st.s.streamMu.Unlock()
	})
}

// send never blocks: it runs under the player lock. Snapshots older than the
// last one delivered are skipped.
func (st *Stream) send(state player.State) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed || (st.sent && state.Seq <= st.lastSeq) {
		return
	}
	select {
	case st.ch <- state:
		st.sent = true
		st.lastSeq = state.Seq
	default:
	}
}

// subscribe returns nil once the session is closed.
func (s *Session) subscribe() *Stream {
	st := &Stream{s: s, ch: make(chan player.State, streamBuffer)}
	st.cancel = s.player.Subscribe(st.send)
	st.send(s.player.State())

	s.streamMu.Lock()
	if s.closed {
		s.streamMu.Unlock()
		st.Close()
		return nil
	}
	s.streams[st] = struct{}{}
	s.streamMu.Unlock()
	return st
}
