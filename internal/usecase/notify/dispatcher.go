package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/wang2-lat/my-personal-bloomberg/internal/observability/logging"
	"github.com/wang2-lat/my-personal-bloomberg/internal/observability/metrics"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
)

// Dispatcher fans a notification out to every enabled channel, one
// channel at a time. A channel failure is logged and counted but never
// stops delivery to the remaining channels.
type Dispatcher struct {
	channels []Channel
}

// NewDispatcher creates a Dispatcher over the given channels.
func NewDispatcher(channels []Channel) *Dispatcher {
	return &Dispatcher{channels: channels}
}

// EnabledCount returns the number of channels that will actually deliver.
func (d *Dispatcher) EnabledCount() int {
	count := 0
	for _, ch := range d.channels {
		if ch.IsEnabled() {
			count++
		}
	}
	return count
}

// Dispatch sends the notification to every enabled channel in order.
// It returns the number of successful deliveries.
func (d *Dispatcher) Dispatch(ctx context.Context, notification *entity.Notification) int {
	logger := logging.FromContext(ctx)

	delivered := 0
	for _, ch := range d.channels {
		if !ch.IsEnabled() {
			continue
		}

		start := time.Now()
		err := ch.Send(ctx, notification)
		elapsed := time.Since(start)
		metrics.RecordDelivery(ch.Name(), err == nil, elapsed)

		if err != nil {
			logger.Error("notification delivery failed",
				slog.String("channel", ch.Name()),
				slog.String("kind", string(notification.Kind)),
				slog.String("title", notification.Title),
				slog.Any("error", err))
			continue
		}

		delivered++
		logger.Info("notification delivered",
			slog.String("channel", ch.Name()),
			slog.String("kind", string(notification.Kind)),
			slog.Duration("duration", elapsed))
	}
	return delivered
}
