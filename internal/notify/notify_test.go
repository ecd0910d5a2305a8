// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromDefaultsToDiscard(t *testing.T) {
	assert.Equal(t, Discard, From(context.Background()))
	//nolint:staticcheck // nil context is part of the contract under test
	assert.Equal(t, Discard, From(nil))
	assert.NotPanics(t, func() { Send(context.Background(), Error, "ignored") })
}

func TestCollectorThroughContext(t *testing.T) {
	c := NewCollector()
	ctx := WithNotifier(context.Background(), c)

	Send(ctx, Error, "Impossible de charger les vidéos")
	Send(ctx, Info, "Qualité changée")

	assert.Equal(t, []Notice{
		{Kind: Error, Text: "Impossible de charger les vidéos"},
		{Kind: Info, Text: "Qualité changée"},
	}, c.Notices())

	assert.Len(t, c.Drain(), 2)
	assert.Empty(t, c.Notices())
	assert.NotNil(t, c.Drain(), "drain of empty collector returns empty slice")
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Notify(context.Background(), Warning, "w")
		}()
	}
	wg.Wait()
	assert.Len(t, c.Notices(), 50)
}

func TestMulti(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	n := Multi(a, b, LogNotifier{})
	n.Notify(context.Background(), Success, "ok")
	assert.Len(t, a.Notices(), 1)
	assert.Len(t, b.Notices(), 1)
}
