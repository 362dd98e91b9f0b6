package services

import (
	"context"

	"github.com/jasperedu/jasper-backend/internal/clients/redis"
	"github.com/jasperedu/jasper-backend/internal/sse"
)

type SSEEmitter interface {
	Emit(ctx context.Context, msg sse.SSEMessage)
}

// HubEmitter delivers directly to the in-process hub; used when no redis
// bus is configured (single replica).
type HubEmitter struct{ Hub *sse.SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg sse.SSEMessage) {
	e.Hub.Broadcast(msg)
}

// RedisEmitter publishes to the bus; every replica's forwarder hands the
// message to its local hub.
type RedisEmitter struct{ Bus redis.SSEBus }

func (e *RedisEmitter) Emit(ctx context.Context, msg sse.SSEMessage) {
	_ = e.Bus.Publish(ctx, msg)
}
