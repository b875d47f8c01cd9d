package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/lsv-booking-widget/internal/widget"
	"github.com/wolfman30/lsv-booking-widget/pkg/logging"
)

// RedisRelay appends notifications to a Redis stream. It implements
// widget.Notifier.
type RedisRelay struct {
	redis  *redis.Client
	stream string
	maxLen int64
	tracer trace.Tracer
	logger *logging.Logger
}

// NewRedisRelay creates a relay writing to stream. A positive maxLen caps the
// stream length.
func NewRedisRelay(client *redis.Client, stream string, maxLen int64, logger *logging.Logger) *RedisRelay {
	if client == nil {
		panic("events: redis client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisRelay{
		redis:  client,
		stream: stream,
		maxLen: maxLen,
		tracer: otel.Tracer("lsv-booking/events"),
		logger: logger,
	}
}

// Notify appends one envelope for n and returns once Redis has accepted it.
func (r *RedisRelay) Notify(ctx context.Context, instanceID string, n widget.Notification) error {
	ctx, span := r.tracer.Start(ctx, "events.relay",
		trace.WithAttributes(
			attribute.String("lsv.stream", r.stream),
			attribute.String("lsv.event", n.Name),
		))
	defer span.End()

	env, err := NewEnvelope(instanceID, n)
	if err != nil {
		span.RecordError(err)
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("events: marshal envelope: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"id":          env.ID.String(),
			"instance_id": env.InstanceID,
			"event":       env.Event,
			"envelope":    string(data),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
	}
	id, err := r.redis.XAdd(ctx, args).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("events: append to %s: %w", r.stream, err)
	}
	r.logger.Debug("notification relayed", "stream", r.stream, "entry_id", id, "event", n.Name, "instance_id", instanceID)
	return nil
}
