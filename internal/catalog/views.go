// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"sync"
	"time"

	xglog "github.com/ManuGH/vidfolio/internal/log"
	"github.com/ManuGH/vidfolio/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// ViewCounter records a detail-page view. Record never blocks and never fails;
// increments are best effort.
type ViewCounter interface {
	Record(videoID string)
}

// NopCounter discards views.
type NopCounter struct{}

// Record implements ViewCounter.
func (NopCounter) Record(string) {}

// AsyncOptions configures an AsyncCounter.
type AsyncOptions struct {
	// Mode labels metrics ("async" or "queue").
	Mode    string
	Workers int
	Buffer  int
	// Timeout bounds each increment.
	Timeout time.Duration
}

// AsyncCounter hands increments to a bounded pool of workers. When the buffer is
// full the view is dropped with a log line.
type AsyncCounter struct {
	sink Incrementer
	opts AsyncOptions

	mu      sync.RWMutex
	closed  bool
	pending chan string
}

// NewAsyncCounter creates a counter writing through sink. Call Run to start workers.
func NewAsyncCounter(sink Incrementer, opts AsyncOptions) *AsyncCounter {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 64
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Mode == "" {
		opts.Mode = "async"
	}
	return &AsyncCounter{
		sink:    sink,
		opts:    opts,
		pending: make(chan string, opts.Buffer),
	}
}

// Record implements ViewCounter.
func (c *AsyncCounter) Record(videoID string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		metrics.RecordViewIncrement(c.opts.Mode, "dropped")
		return
	}
	select {
	case c.pending <- videoID:
		metrics.SetViewQueueDepth(len(c.pending))
	default:
		metrics.RecordViewIncrement(c.opts.Mode, "dropped")
		logger := xglog.WithComponent("catalog")
		logger.Warn().
			Str(xglog.FieldVideoID, videoID).
			Str(xglog.FieldEvent, "views.dropped").
			Msg("view increment buffer full, dropping view")
	}
}

// Run processes increments until ctx is cancelled, then drains what is already
// buffered and returns. Run may only be called once.
func (c *AsyncCounter) Run(ctx context.Context) error {
	g := new(errgroup.Group)
	for i := 0; i < c.opts.Workers; i++ {
		g.Go(func() error {
			c.work()
			return nil
		})
	}

	<-ctx.Done()
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.pending)
	}
	c.mu.Unlock()

	return g.Wait()
}

func (c *AsyncCounter) work() {
	for id := range c.pending {
		metrics.SetViewQueueDepth(len(c.pending))
		c.increment(id)
	}
}

func (c *AsyncCounter) increment(videoID string) {
	// detached from the request: the page may already be rendered
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
	defer cancel()

	if err := c.sink.IncrementViews(ctx, videoID); err != nil {
		metrics.RecordViewIncrement(c.opts.Mode, metrics.ResultError)
		logger := xglog.WithComponent("catalog")
		logger.Warn().
			Err(err).
			Str(xglog.FieldVideoID, videoID).
			Str(xglog.FieldEvent, "views.increment_failed").
			Msg("view increment failed")
		return
	}
	metrics.RecordViewIncrement(c.opts.Mode, metrics.ResultOK)
}
