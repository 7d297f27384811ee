package messenger

import (
	"context"
	"log/slog"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
)

// NoopChannel is a disabled placeholder channel. It is used when no
// messaging credentials are configured in development, logging what would
// have been sent instead of delivering.
type NoopChannel struct {
	// LogOnly makes the channel report itself enabled and log each
	// notification at debug level.
	LogOnly bool
}

// Name identifies the channel.
func (n *NoopChannel) Name() string { return "noop" }

// IsEnabled reports whether the channel participates in dispatch.
func (n *NoopChannel) IsEnabled() bool { return n.LogOnly }

// Send logs the notification and discards it.
func (n *NoopChannel) Send(_ context.Context, notification *entity.Notification) error {
	slog.Debug("noop channel discarding notification",
		slog.String("kind", string(notification.Kind)),
		slog.String("title", notification.Title))
	return nil
}
