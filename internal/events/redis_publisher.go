package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisPublisher decorates a Dispatcher and mirrors every published event
// to a Redis pub/sub channel for external consumers. Publish failures are
// logged and never fail the local dispatch.
type redisPublisher struct {
	inner   Dispatcher
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisPublisher wraps inner with Redis channel publication. A nil
// client returns inner unchanged.
func NewRedisPublisher(inner Dispatcher, client *redis.Client, channel string, logger *zap.Logger) Dispatcher {
	if client == nil || channel == "" {
		return inner
	}
	return &redisPublisher{inner: inner, client: client, channel: channel, logger: logger}
}

func (p *redisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("event marshal failed", zap.String("event_id", event.ID), zap.Error(err))
	} else if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Warn("redis event publish failed",
			zap.String("channel", p.channel),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
	return p.inner.Publish(ctx, event)
}

func (p *redisPublisher) Subscribe(eventType EventType, handler EventHandler) {
	p.inner.Subscribe(eventType, handler)
}
