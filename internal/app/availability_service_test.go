package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bouncehire/rentals/internal/domain"
)

func TestAvailabilityCheck(t *testing.T) {
	ctx := context.Background()
	start, end := day(2024, time.June, 10), day(2024, time.June, 12)

	store := newFakeStore()
	store.addUnit(unit("u1", "p1", 2, domain.UnitStatusAvailable))
	store.addUnit(unit("u2", "p1", 1, domain.UnitStatusBooked, domain.Reservation{
		ID: "r1", UnitID: "u2", BookingID: "b1", StartDate: start, EndDate: end,
	}))
	store.addUnit(unit("u3", "p1", 5, domain.UnitStatusMaintenance))
	svc := NewAvailabilityService(store)

	t.Run("counts only free units", func(t *testing.T) {
		res, err := svc.Check(ctx, "p1", start, end, 2)
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		if !res.IsAvailable || res.AvailableQuantity != 2 {
			t.Errorf("result = %+v, want available with quantity 2", res)
		}
	})

	t.Run("reports shortfall", func(t *testing.T) {
		res, err := svc.Check(ctx, "p1", start, end, 3)
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		if res.IsAvailable {
			t.Errorf("result = %+v, want unavailable", res)
		}
		if res.Reason == "" {
			t.Error("expected a human-readable reason")
		}
	})

	t.Run("reserved window frees up outside the overlap", func(t *testing.T) {
		res, err := svc.Check(ctx, "p1", day(2024, time.June, 20), day(2024, time.June, 22), 3)
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		if !res.IsAvailable || res.AvailableQuantity != 3 {
			t.Errorf("result = %+v, want all non-maintenance stock free", res)
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		if _, err := svc.Check(ctx, "p1", start, end, 0); !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Errorf("zero quantity: err = %v, want ErrInvalidQuantity", err)
		}
		if _, err := svc.Check(ctx, "p1", end, start, 1); !errors.Is(err, domain.ErrInvalidDateRange) {
			t.Errorf("reversed dates: err = %v, want ErrInvalidDateRange", err)
		}
	})
}

func TestAvailabilityCalendar(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	store.addUnit(unit("u1", "p1", 2, domain.UnitStatusAvailable))
	store.addUnit(unit("u2", "p1", 1, domain.UnitStatusBooked, domain.Reservation{
		ID: "r1", UnitID: "u2", BookingID: "b1",
		StartDate: day(2024, time.June, 11), EndDate: day(2024, time.June, 12),
	}))
	svc := NewAvailabilityService(store)

	days, err := svc.Calendar(ctx, "p1", day(2024, time.June, 10), day(2024, time.June, 13), 1)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if len(days) != 4 {
		t.Fatalf("days = %d, want 4", len(days))
	}

	wantRemaining := []int{3, 2, 2, 3}
	for i, d := range days {
		if d.Remaining != wantRemaining[i] {
			t.Errorf("day %s remaining = %d, want %d", d.Date.Format("2006-01-02"), d.Remaining, wantRemaining[i])
		}
	}
}
