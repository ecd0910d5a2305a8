// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	xglog "github.com/ManuGH/vidfolio/internal/log"
	"github.com/ManuGH/vidfolio/internal/metrics"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ViewEvent is the message body published for every recorded view.
type ViewEvent struct {
	VideoID string    `json:"video_id"`
	At      time.Time `json:"at"`
}

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type amqpConsumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
}

// DeclareViewQueue declares the durable queue view events are published to.
func DeclareViewQueue(ch *amqp.Channel, queue string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return nil
}

// QueuePublisher is an Incrementer that publishes view events instead of writing
// the store. Wrap it in an AsyncCounter to keep publishing off the request path.
type QueuePublisher struct {
	ch    amqpPublisher
	queue string
	now   func() time.Time
}

// NewQueuePublisher publishes on ch to queue through the default exchange.
func NewQueuePublisher(ch *amqp.Channel, queue string) *QueuePublisher {
	return newQueuePublisher(ch, queue)
}

func newQueuePublisher(ch amqpPublisher, queue string) *QueuePublisher {
	return &QueuePublisher{ch: ch, queue: queue, now: time.Now}
}

// IncrementViews implements Incrementer.
func (p *QueuePublisher) IncrementViews(ctx context.Context, videoID string) error {
	body, err := json.Marshal(ViewEvent{VideoID: videoID, At: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode view event: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    p.now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish view event: %w", err)
	}
	metrics.RecordViewIncrement("queue", "published")
	return nil
}

// ViewConsumer applies queued view events to the store.
type ViewConsumer struct {
	ch      amqpConsumer
	queue   string
	tag     string
	store   Incrementer
	timeout time.Duration
}

// NewViewConsumer consumes queue on ch and increments store.
func NewViewConsumer(ch *amqp.Channel, queue string, store Incrementer) *ViewConsumer {
	return newViewConsumer(ch, queue, store)
}

func newViewConsumer(ch amqpConsumer, queue string, store Incrementer) *ViewConsumer {
	return &ViewConsumer{
		ch:      ch,
		queue:   queue,
		tag:     "vidfolio-views-" + uuid.NewString()[:8],
		store:   store,
		timeout: 5 * time.Second,
	}
}

// Run consumes until ctx is cancelled or the delivery channel closes.
// Failed increments are acknowledged negatively without requeue.
func (c *ViewConsumer) Run(ctx context.Context) error {
	deliveries, err := c.ch.Consume(c.queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	logger := xglog.WithComponent("catalog")
	logger.Info().Str(xglog.FieldEvent, "views.consumer_started").Str("queue", c.queue).Msg("view consumer started")

	for {
		select {
		case <-ctx.Done():
			if err := c.ch.Cancel(c.tag, false); err != nil {
				logger.Warn().Err(err).Msg("cancel view consumer")
			}
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handle(d)
		}
	}
}

func (c *ViewConsumer) handle(d amqp.Delivery) {
	logger := xglog.WithComponent("catalog")

	var ev ViewEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil || ev.VideoID == "" {
		logger.Warn().Err(err).Str(xglog.FieldEvent, "views.bad_message").Msg("discarding malformed view event")
		_ = d.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.store.IncrementViews(ctx, ev.VideoID); err != nil {
		metrics.RecordViewIncrement("queue", metrics.ResultError)
		logger.Warn().Err(err).
			Str(xglog.FieldVideoID, ev.VideoID).
			Str(xglog.FieldEvent, "views.increment_failed").
			Msg("view increment failed")
		_ = d.Nack(false, false)
		return
	}
	metrics.RecordViewIncrement("queue", metrics.ResultOK)
	_ = d.Ack(false)
}
