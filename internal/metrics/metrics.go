// Package metrics holds the service's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReservationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentals_reservations_total",
		Help: "Successful inventory reservations.",
	})

	InsufficientInventoryTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentals_insufficient_inventory_total",
		Help: "Reservation attempts rejected for lack of inventory.",
	})

	BookingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentals_bookings_created_total",
		Help: "Bookings persisted by the checkout path.",
	})

	BookingsCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentals_bookings_cancelled_total",
		Help: "Bookings cancelled by users or admins.",
	})

	SweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentals_sweep_runs_total",
		Help: "Expiry sweeper passes.",
	})

	BookingsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentals_bookings_expired_total",
		Help: "Pending bookings reclaimed by the expiry sweeper.",
	})
)
