package app

import (
	"context"
	"time"

	"github.com/bouncehire/rentals/internal/domain"
)

// UnitReader is the read-only slice of the inventory store the availability
// checks need.
type UnitReader interface {
	FindUnits(ctx context.Context, productID string) ([]domain.InventoryUnit, error)
}

type AvailabilityService struct {
	units UnitReader
}

func NewAvailabilityService(units UnitReader) *AvailabilityService {
	return &AvailabilityService{units: units}
}

type AvailabilityResult struct {
	IsAvailable       bool
	AvailableQuantity int
	Reason            string
}

// Check reports whether quantity units of the product are free over the
// closed interval [start, end]. It reads without locks; the authoritative
// re-check happens inside Reserve.
func (s *AvailabilityService) Check(ctx context.Context, productID string, start, end time.Time, quantity int) (AvailabilityResult, error) {
	if quantity <= 0 {
		return AvailabilityResult{}, domain.ErrInvalidQuantity
	}
	if domain.Day(end).Before(domain.Day(start)) {
		return AvailabilityResult{}, domain.ErrInvalidDateRange
	}

	units, err := s.units.FindUnits(ctx, productID)
	if err != nil {
		return AvailabilityResult{}, err
	}

	av := domain.ComputeAvailability(units, start, end, quantity)
	return AvailabilityResult{
		IsAvailable:       av.Available,
		AvailableQuantity: av.AvailableQuantity,
		Reason:            av.Reason,
	}, nil
}

// Calendar returns per-day remaining quantity over [start, end], for date
// pickers.
func (s *AvailabilityService) Calendar(ctx context.Context, productID string, start, end time.Time, quantity int) ([]domain.DayQuantity, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if domain.Day(end).Before(domain.Day(start)) {
		return nil, domain.ErrInvalidDateRange
	}

	units, err := s.units.FindUnits(ctx, productID)
	if err != nil {
		return nil, err
	}
	return domain.DayQuantities(units, start, end, quantity), nil
}
