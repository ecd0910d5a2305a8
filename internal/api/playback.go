// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/vidfolio/internal/api/problem"
	"github.com/ManuGH/vidfolio/internal/auth"
	"github.com/ManuGH/vidfolio/internal/catalog"
	"github.com/ManuGH/vidfolio/internal/log"
	"github.com/ManuGH/vidfolio/internal/media"
	"github.com/ManuGH/vidfolio/internal/notify"
	"github.com/ManuGH/vidfolio/internal/player"
	"github.com/ManuGH/vidfolio/internal/telemetry"
)

// streamKeepAlive is the interval of SSE comment pings.
const streamKeepAlive = 25 * time.Second

// CreateSessionRequest is the body of POST /playback/sessions.
type CreateSessionRequest struct {
	VideoID string `json:"video_id"`
}

// handleCreateSession opens a playback session on a catalog video.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	req.VideoID = strings.TrimSpace(req.VideoID)
	if req.VideoID == "" {
		writeBadRequest(w, r, errors.New("video_id is required"))
		return
	}

	ctx, span := telemetry.StartSpan(r.Context(), "vidfolio/api", "playback.create",
		telemetry.PlaybackAttributes("", "create", "")...)
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	// Store lookup: opening a session must not count another view.
	v, err := s.catalog.Store().GetVideo(ctx, req.VideoID)
	switch {
	case errors.Is(err, catalog.ErrNotFound) || (err == nil && v == nil):
		err = nil
		writeNotFound(w, r, "catalog/video_not_found", "video not found", nil)
		return
	case err != nil:
		logger := log.WithComponentFromContext(ctx, "api")
		logger.Error().
			Err(err).
			Str(log.FieldVideoID, req.VideoID).
			Str(log.FieldEvent, "playback.lookup_failed").
			Msg("video lookup failed")
		problem.Write(w, r, http.StatusBadGateway, "catalog/unavailable", "Bad Gateway", "CATALOG_UNAVAILABLE", catalog.MsgVideoFailed, nil)
		return
	}

	resolved := media.Video(ctx, s.media, *v)
	created, err := s.sessions.Create(ctx, resolved.ID, playerConfig(resolved))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("%s/playback/sessions/%s", Prefix, created.ID))
	writeJSON(w, http.StatusCreated, created)
}

func playerConfig(v catalog.Video) player.Config {
	var renditions map[string]string
	if len(v.Renditions) > 0 {
		renditions = make(map[string]string, len(v.Renditions))
		for q, u := range v.Renditions {
			renditions[strings.ToLower(strings.TrimSpace(q))] = u
		}
	}
	return player.Config{
		Source:     v.VideoURL,
		Poster:     v.ThumbnailURL,
		Title:      v.Title,
		Renditions: renditions,
	}
}

// SessionState is the body of GET /playback/sessions/{id}.
type SessionState struct {
	ID      string       `json:"id"`
	VideoID string       `json:"video_id"`
	State   player.State `json:"state"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"), auth.ExtractToken(r, false))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionState{ID: sess.ID, VideoID: sess.VideoID, State: sess.State()})
}

// handleSessionEvent applies one command or media event to the session and
// returns the resulting state with the directives for the page's media element.
func (s *Server) handleSessionEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	token := auth.ExtractToken(r, false)

	body, err := readBody(w, r)
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}
	msg, err := player.DecodeMessage(body)
	if err != nil {
		if errors.Is(err, player.ErrUnknownMessage) {
			writeSessionError(w, r, err)
			return
		}
		writeBadRequest(w, r, err)
		return
	}

	ctx := notify.WithNotifier(r.Context(), s.notifier)
	res, err := s.sessions.Dispatch(ctx, id, token, msg)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleSessionStream streams state snapshots as Server-Sent Events. The token
// may travel in the query since EventSource cannot set headers.
func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		problem.Write(w, r, http.StatusInternalServerError, "system/streaming_unsupported", "Internal Server Error", "STREAMING_UNSUPPORTED", "", nil)
		return
	}
	stream, err := s.sessions.Subscribe(chi.URLParam(r, "id"), auth.ExtractToken(r, true))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	defer stream.Close()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if err := pumpStates(r.Context(), w, flusher, stream.C(), streamKeepAlive); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Debug().
			Err(err).
			Str(log.FieldEvent, "playback.stream_ended").
			Msg("playback stream ended")
	}
}

// pumpStates writes each snapshot from states as an "state" event until ctx is
// done or states is closed.
func pumpStates(ctx context.Context, w http.ResponseWriter, f http.Flusher, states <-chan player.State, keepAlive time.Duration) error {
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st, ok := <-states:
			if !ok {
				_, err := fmt.Fprint(w, "event: end\ndata: {}\n\n")
				f.Flush()
				return err
			}
			data, err := json.Marshal(st)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: state\ndata: %s\n\n", st.Seq, data); err != nil {
				return err
			}
			f.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return err
			}
			f.Flush()
		}
	}
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(chi.URLParam(r, "id"), auth.ExtractToken(r, false)); err != nil {
		writeSessionError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
