package domain

import (
	"fmt"
	"time"
)

// Availability is the outcome of a date-range availability check for one
// product.
type Availability struct {
	Available         bool
	AvailableQuantity int
	Reason            string
	// Candidates are the unblocked units, in store order, for the Reservation
	// Manager to consume greedily.
	Candidates []InventoryUnit
}

// DayQuantity reports remaining quantity for a single calendar day.
type DayQuantity struct {
	Date      time.Time
	Remaining int
	Available bool
}

// Overlaps reports whether two closed day intervals share at least one
// calendar day. A checkout day equal to another booking's start day counts
// as a conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !Day(aStart).After(Day(bEnd)) && !Day(aEnd).Before(Day(bStart))
}

// Blocked reports whether any reservation on the unit overlaps the requested
// interval. Units are not divisible below the unit grain, so one overlap
// blocks the whole unit.
func (u InventoryUnit) Blocked(start, end time.Time) bool {
	for _, r := range u.Reservations {
		if Overlaps(r.StartDate, r.EndDate, start, end) {
			return true
		}
	}
	return false
}

// ComputeAvailability decides whether quantity units are free over the closed
// interval [start, end]. It is pure: callers fetch the product's
// non-maintenance units (reservations included) and must have validated the
// date ordering already.
func ComputeAvailability(units []InventoryUnit, start, end time.Time, quantity int) Availability {
	var (
		free       int
		candidates []InventoryUnit
	)
	for _, u := range units {
		if u.Status == UnitStatusMaintenance || u.Status == UnitStatusOutOfStock {
			continue
		}
		if u.Blocked(start, end) {
			continue
		}
		free += u.Quantity
		candidates = append(candidates, u)
	}

	if free >= quantity {
		return Availability{
			Available:         true,
			AvailableQuantity: free,
			Candidates:        candidates,
		}
	}
	return Availability{
		AvailableQuantity: free,
		Reason:            fmt.Sprintf("only %d available, %d requested", free, quantity),
		Candidates:        candidates,
	}
}

// DayQuantities computes per-day remaining quantity over [start, end] for a
// calendar view. Blocking stays unit-grained: a unit contributes nothing to a
// day covered by any of its reservations.
func DayQuantities(units []InventoryUnit, start, end time.Time, quantity int) []DayQuantity {
	start, end = Day(start), Day(end)

	var out []DayQuantity
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		remaining := 0
		for _, u := range units {
			if u.Status == UnitStatusMaintenance || u.Status == UnitStatusOutOfStock {
				continue
			}
			if !u.Blocked(d, d) {
				remaining += u.Quantity
			}
		}
		out = append(out, DayQuantity{
			Date:      d,
			Remaining: remaining,
			Available: remaining >= quantity,
		})
	}
	return out
}
