package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/logger"
	"github.com/bimuz/bimuz-backend/internal/model"
)

// EventPublisher announces invoice status changes.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.InvoiceEvent)
}

// EventBus fans invoice events out to every replica through Redis pub/sub.
type EventBus struct {
	rdb     *redis.Client
	channel string
	log     zerolog.Logger
}

// NewEventBus creates a new EventBus.
func NewEventBus(rdb *redis.Client, log zerolog.Logger) *EventBus {
	return &EventBus{
		rdb:     rdb,
		channel: config.CacheKey.InvoiceEventsChannel(),
		log:     logger.Component(log, "event_bus"),
	}
}

// Publish is fire-and-forget: a lost event only delays a dashboard refresh.
func (b *EventBus) Publish(ctx context.Context, ev model.InvoiceEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.log.Error().Err(err).Int64("invoice_id", ev.InvoiceID).Msg("Failed to encode invoice event")
		return
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.log.Warn().Err(err).Int64("invoice_id", ev.InvoiceID).Msg("Failed to publish invoice event")
	}
}

// Subscribe streams invoice events until ctx is cancelled. The returned
// channel is closed when the subscription ends.
func (b *EventBus) Subscribe(ctx context.Context) <-chan model.InvoiceEvent {
	sub := b.rdb.Subscribe(ctx, b.channel)
	out := make(chan model.InvoiceEvent, 16)

	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev model.InvoiceEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.log.Warn().Err(err).Msg("Dropping malformed invoice event")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
