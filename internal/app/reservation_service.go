package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bouncehire/rentals/internal/domain"
	"github.com/bouncehire/rentals/internal/metrics"
)

// InventoryRepository is the write-side store contract for reservations.
// FindUnitsForUpdate must take row locks that hold until the surrounding
// transaction commits, so the availability re-check and the writes form one
// atomic step.
type InventoryRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	FindUnitsForUpdate(ctx context.Context, productID string) ([]domain.InventoryUnit, error)
	FindUnitsByBookingForUpdate(ctx context.Context, bookingID string) ([]domain.InventoryUnit, error)
	AddReservation(ctx context.Context, res domain.Reservation) error
	DeleteReservationsByBooking(ctx context.Context, bookingID string) (int64, error)
	UpdateUnitStatus(ctx context.Context, unitID string, status domain.UnitStatus) error
}

type ReservationService struct {
	repo   InventoryRepository
	logger zerolog.Logger
}

func NewReservationService(repo InventoryRepository, logger zerolog.Logger) *ReservationService {
	return &ReservationService{repo: repo, logger: logger}
}

type ReserveInput struct {
	ProductID string
	StartDate time.Time
	EndDate   time.Time
	Quantity  int
	BookingID string
}

// Reserve re-checks availability under row locks and attaches reservations to
// enough units to cover the requested quantity, all in one transaction. A
// transaction conflict is retried once; InsufficientInventory means the whole
// booking attempt must abort.
func (s *ReservationService) Reserve(ctx context.Context, in ReserveInput) ([]domain.InventoryUnit, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if domain.Day(in.EndDate).Before(domain.Day(in.StartDate)) {
		return nil, domain.ErrInvalidDateRange
	}

	reserved, err := s.reserveOnce(ctx, in)
	if errors.Is(err, domain.ErrTransactionConflict) {
		s.logger.Warn().
			Str("product_id", in.ProductID).
			Str("booking_id", in.BookingID).
			Msg("reserve hit transaction conflict, retrying once")
		reserved, err = s.reserveOnce(ctx, in)
	}
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientInventory) {
			metrics.InsufficientInventoryTotal.Inc()
		}
		return nil, err
	}

	metrics.ReservationsTotal.Inc()
	return reserved, nil
}

func (s *ReservationService) reserveOnce(ctx context.Context, in ReserveInput) ([]domain.InventoryUnit, error) {
	start, end := domain.Day(in.StartDate), domain.Day(in.EndDate)

	var reserved []domain.InventoryUnit
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		reserved = reserved[:0]

		units, err := s.repo.FindUnitsForUpdate(txCtx, in.ProductID)
		if err != nil {
			return err
		}

		av := domain.ComputeAvailability(units, start, end, in.Quantity)
		if !av.Available {
			return &domain.InsufficientInventoryError{
				ProductID: in.ProductID,
				Available: av.AvailableQuantity,
				Requested: in.Quantity,
			}
		}

		remaining := in.Quantity
		for _, unit := range av.Candidates {
			if remaining <= 0 {
				break
			}

			res := domain.Reservation{
				ID:        uuid.NewString(),
				UnitID:    unit.ID,
				BookingID: in.BookingID,
				StartDate: start,
				EndDate:   end,
			}
			if err := s.repo.AddReservation(txCtx, res); err != nil {
				return err
			}
			if err := s.repo.UpdateUnitStatus(txCtx, unit.ID, domain.UnitStatusBooked); err != nil {
				return err
			}

			unit.Reservations = append(unit.Reservations, res)
			unit.Status = domain.UnitStatusBooked
			reserved = append(reserved, unit)
			remaining -= unit.Quantity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reserved, nil
}

// Release removes every reservation tied to the booking and returns units
// with no remaining reservations to available. Calling it again for the same
// booking is a no-op.
func (s *ReservationService) Release(ctx context.Context, bookingID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		units, err := s.repo.FindUnitsByBookingForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}
		if len(units) == 0 {
			return nil
		}

		if _, err := s.repo.DeleteReservationsByBooking(txCtx, bookingID); err != nil {
			return err
		}

		for _, unit := range units {
			others := 0
			for _, res := range unit.Reservations {
				if res.BookingID != bookingID {
					others++
				}
			}
			if others == 0 && unit.Status == domain.UnitStatusBooked {
				if err := s.repo.UpdateUnitStatus(txCtx, unit.ID, domain.UnitStatusAvailable); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
