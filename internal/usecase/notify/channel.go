// Package notify assembles notifications and dispatches them to the
// configured delivery channels.
package notify

import (
	"context"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
)

// Channel is a delivery target for notifications. Implementations own
// their platform's payload schema, credentials, and rate limiting.
type Channel interface {
	// Name identifies the channel for logging and metrics.
	Name() string

	// IsEnabled reports whether the channel has usable credentials.
	// Disabled channels are skipped silently by the dispatcher.
	IsEnabled() bool

	// Send delivers one notification. Implementations handle their own
	// retry; a returned error means the notification is lost on this
	// channel.
	Send(ctx context.Context, notification *entity.Notification) error
}
