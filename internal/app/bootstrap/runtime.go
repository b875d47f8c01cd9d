// Package bootstrap wires the widget host's runtime dependencies from config.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/lsv-booking-widget/internal/bookingapi"
	appconfig "github.com/wolfman30/lsv-booking-widget/internal/config"
	"github.com/wolfman30/lsv-booking-widget/internal/events"
	"github.com/wolfman30/lsv-booking-widget/internal/host"
	"github.com/wolfman30/lsv-booking-widget/internal/observability/metrics"
	"github.com/wolfman30/lsv-booking-widget/internal/widget"
	"github.com/wolfman30/lsv-booking-widget/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildNotificationRelay returns the stream relay, or nil when Redis is not
// configured. The result is safe to pass to host.Options as is.
func BuildNotificationRelay(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) widget.Notifier {
	if cfg == nil || redisClient == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger.Info("notification relay enabled", "stream", cfg.NotificationStream, "max_len", cfg.NotificationStreamMaxLen)
	return events.NewRedisRelay(redisClient, cfg.NotificationStream, cfg.NotificationStreamMaxLen, logger)
}

// BuildHost wires the widget host handler.
func BuildHost(cfg *appconfig.Config, relay widget.Notifier, m *metrics.WidgetMetrics, logger *logging.Logger) (*host.Handler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	allowlist, err := widget.NewAPIAllowlist(cfg.BookingAPIAllowedRoots...)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	if allowlist.Len() == 0 {
		logger.Warn("BOOKING_API_ALLOWED_ROOTS is empty; every widget mount will be rejected")
	}
	return host.NewHandler(host.Options{
		API:             bookingapi.NewClient(cfg.BookingAPITimeout, logger),
		Notifier:        relay,
		Metrics:         m,
		Logger:          logger,
		DefaultLocation: cfg.Location(),
		PublicBaseURL:   cfg.PublicBaseURL,
		APIAllowlist:    allowlist,
	}), nil
}
