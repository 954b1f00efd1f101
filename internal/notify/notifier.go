// Package notify publishes booking lifecycle events for downstream consumers
// (customer confirmation emails, admin alerts). Delivery is best-effort: the
// booking itself is the durability boundary, so callers log publish failures
// and move on.
package notify

import (
	"context"

	"github.com/bouncehire/rentals/internal/domain"
)

const (
	EventBookingCreated       = "booking.created"
	EventBookingCancelled     = "booking.cancelled"
	EventBookingStatusChanged = "booking.status_changed"
)

type Notifier interface {
	Publish(ctx context.Context, eventType string, booking domain.Booking) error
}
