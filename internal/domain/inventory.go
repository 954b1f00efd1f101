package domain

import "time"

type UnitStatus string

const (
	UnitStatusAvailable   UnitStatus = "available"
	UnitStatusBooked      UnitStatus = "booked"
	UnitStatusMaintenance UnitStatus = "maintenance"
	UnitStatusOutOfStock  UnitStatus = "out_of_stock"
)

func (s UnitStatus) Valid() bool {
	switch s {
	case UnitStatusAvailable, UnitStatusBooked, UnitStatusMaintenance, UnitStatusOutOfStock:
		return true
	}
	return false
}

// Reservation ties a date range to a booking on one inventory unit. Intervals
// are closed and whole-day; the unit is unavailable for every day in
// [StartDate, EndDate].
type Reservation struct {
	ID        string
	UnitID    string
	BookingID string
	StartDate time.Time
	EndDate   time.Time
}

// InventoryUnit is one schedulable stock record for a product at a warehouse.
// Allocation is unit-grained: any overlapping reservation blocks the whole
// unit, regardless of Quantity.
type InventoryUnit struct {
	ID           string
	ProductID    string
	Warehouse    string
	Vendor       string
	Quantity     int
	RentalFee    int64 // pence per day
	Status       UnitStatus
	Reservations []Reservation
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Product is the slice of the catalog the booking path consumes.
type Product struct {
	ID        string
	Name      string
	DailyRate int64 // pence
}

// Day truncates t to midnight UTC. All availability math is date-only.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RentalDays is the billable day count for a closed interval, never less
// than one: a same-day hire is billed for a full day.
func RentalDays(start, end time.Time) int {
	days := int(Day(end).Sub(Day(start)).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}
