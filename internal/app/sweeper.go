package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bouncehire/rentals/internal/clock"
	"github.com/bouncehire/rentals/internal/metrics"
)

// Sweeper reaps pending bookings that were never paid for within the
// timeout, releasing their inventory so other customers can book it.
type Sweeper struct {
	bookings     BookingRepository
	reservations ReservationManager
	clock        clock.Clock
	timeout      time.Duration
	logger       zerolog.Logger
}

func NewSweeper(
	bookings BookingRepository,
	reservations ReservationManager,
	clk clock.Clock,
	timeout time.Duration,
	logger zerolog.Logger,
) *Sweeper {
	return &Sweeper{
		bookings:     bookings,
		reservations: reservations,
		clock:        clk,
		timeout:      timeout,
		logger:       logger,
	}
}

// SweepOnce expires every pending booking older than the timeout and
// returns how many were removed. A failure on one booking is logged and
// does not stop the rest of the sweep.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	metrics.SweepRunsTotal.Inc()

	cutoff := s.clock.Now().Add(-s.timeout)
	expired, err := s.bookings.FindExpiredPending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find expired pending bookings: %w", err)
	}

	removed := 0
	for _, booking := range expired {
		err := s.bookings.WithTx(ctx, func(txCtx context.Context) error {
			if err := s.reservations.Release(txCtx, booking.ID); err != nil {
				return err
			}
			return s.bookings.DeleteBooking(txCtx, booking.ID)
		})
		if err != nil {
			s.logger.Error().Err(err).
				Str("booking_id", booking.ID).
				Str("booking_number", booking.Number).
				Msg("failed to expire booking")
			continue
		}

		removed++
		metrics.BookingsExpiredTotal.Inc()
		s.logger.Info().
			Str("booking_id", booking.ID).
			Str("booking_number", booking.Number).
			Time("created_at", booking.CreatedAt).
			Msg("expired pending booking")
	}
	return removed, nil
}

// Run sweeps on the given interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info().
		Dur("interval", interval).
		Dur("timeout", s.timeout).
		Msg("sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("sweep failed")
			}
		}
	}
}
