package notify

import (
	"context"

	"github.com/bouncehire/rentals/internal/domain"
)

// NoopNotifier drops every event. Used when no broker is configured and in
// tests.
type NoopNotifier struct{}

func (NoopNotifier) Publish(context.Context, string, domain.Booking) error {
	return nil
}
