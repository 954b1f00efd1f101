package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bouncehire/rentals/internal/domain"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. WithTx
// snapshots the whole state and restores it when the callback fails, so the
// all-or-nothing behaviour of the real transactions can be asserted. Nested
// WithTx calls join the ambient transaction, like the real repositories do.
type fakeStore struct {
	units    map[string]*domain.InventoryUnit
	bookings map[string]*domain.Booking
	seq      int

	conflictsLeft      int
	failAddReservation error
	failDelete         map[string]error
	failNextNumber     error
}

type fakeTxKey struct{}

func newFakeStore() *fakeStore {
	return &fakeStore{
		units:      map[string]*domain.InventoryUnit{},
		bookings:   map[string]*domain.Booking{},
		failDelete: map[string]error{},
	}
}

func (f *fakeStore) snapshot() (map[string]*domain.InventoryUnit, map[string]*domain.Booking) {
	units := make(map[string]*domain.InventoryUnit, len(f.units))
	for id, u := range f.units {
		cp := *u
		cp.Reservations = append([]domain.Reservation(nil), u.Reservations...)
		units[id] = &cp
	}
	bookings := make(map[string]*domain.Booking, len(f.bookings))
	for id, b := range f.bookings {
		cp := *b
		cp.Items = append([]domain.BookingItem(nil), b.Items...)
		cp.History = append([]domain.StatusChange(nil), b.History...)
		bookings[id] = &cp
	}
	return units, bookings
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}

	units, bookings := f.snapshot()
	err := fn(context.WithValue(ctx, fakeTxKey{}, true))
	if err != nil {
		f.units, f.bookings = units, bookings
		return err
	}
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		f.units, f.bookings = units, bookings
		return domain.ErrTransactionConflict
	}
	return nil
}

func (f *fakeStore) addUnit(u domain.InventoryUnit) {
	cp := u
	f.units[u.ID] = &cp
}

func (f *fakeStore) sortedUnits(include func(*domain.InventoryUnit) bool) []domain.InventoryUnit {
	ids := make([]string, 0, len(f.units))
	for id, u := range f.units {
		if include(u) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]domain.InventoryUnit, 0, len(ids))
	for _, id := range ids {
		u := *f.units[id]
		u.Reservations = append([]domain.Reservation(nil), f.units[id].Reservations...)
		out = append(out, u)
	}
	return out
}

func (f *fakeStore) FindUnits(ctx context.Context, productID string) ([]domain.InventoryUnit, error) {
	return f.sortedUnits(func(u *domain.InventoryUnit) bool {
		return u.ProductID == productID && u.Status != domain.UnitStatusMaintenance
	}), nil
}

func (f *fakeStore) FindUnitsForUpdate(ctx context.Context, productID string) ([]domain.InventoryUnit, error) {
	return f.FindUnits(ctx, productID)
}

func (f *fakeStore) FindUnitsByBookingForUpdate(ctx context.Context, bookingID string) ([]domain.InventoryUnit, error) {
	return f.sortedUnits(func(u *domain.InventoryUnit) bool {
		for _, res := range u.Reservations {
			if res.BookingID == bookingID {
				return true
			}
		}
		return false
	}), nil
}

func (f *fakeStore) AddReservation(ctx context.Context, res domain.Reservation) error {
	if f.failAddReservation != nil {
		return f.failAddReservation
	}
	u, ok := f.units[res.UnitID]
	if !ok {
		return domain.ErrUnitNotFound
	}
	u.Reservations = append(u.Reservations, res)
	return nil
}

func (f *fakeStore) DeleteReservationsByBooking(ctx context.Context, bookingID string) (int64, error) {
	var removed int64
	for _, u := range f.units {
		kept := u.Reservations[:0]
		for _, res := range u.Reservations {
			if res.BookingID == bookingID {
				removed++
				continue
			}
			kept = append(kept, res)
		}
		u.Reservations = kept
	}
	return removed, nil
}

func (f *fakeStore) UpdateUnitStatus(ctx context.Context, unitID string, status domain.UnitStatus) error {
	u, ok := f.units[unitID]
	if !ok {
		return domain.ErrUnitNotFound
	}
	u.Status = status
	return nil
}

func (f *fakeStore) NextBookingNumber(ctx context.Context, prefix string, now time.Time) (string, error) {
	if f.failNextNumber != nil {
		return "", f.failNextNumber
	}
	f.seq++
	return fmt.Sprintf("%s%s%04d", prefix, now.Format("0601"), f.seq), nil
}

func (f *fakeStore) CreateBooking(ctx context.Context, b domain.Booking) error {
	cp := b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeStore) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	cp := *b
	cp.Items = append([]domain.BookingItem(nil), b.Items...)
	cp.History = append([]domain.StatusChange(nil), b.History...)
	return cp, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, bookingID string, status domain.BookingStatus, change domain.StatusChange) error {
	b, ok := f.bookings[bookingID]
	if !ok {
		return domain.ErrBookingNotFound
	}
	b.Status = status
	b.History = append(b.History, change)
	return nil
}

func (f *fakeStore) SetCancellationReason(ctx context.Context, bookingID, reason string) error {
	b, ok := f.bookings[bookingID]
	if !ok {
		return domain.ErrBookingNotFound
	}
	b.CancellationReason = reason
	return nil
}

func (f *fakeStore) FindExpiredPending(ctx context.Context, cutoff time.Time) ([]domain.Booking, error) {
	ids := make([]string, 0, len(f.bookings))
	for id, b := range f.bookings {
		if b.Status == domain.BookingStatusPending && !b.CreatedAt.After(cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]domain.Booking, 0, len(ids))
	for _, id := range ids {
		out = append(out, *f.bookings[id])
	}
	return out, nil
}

func (f *fakeStore) DeleteBooking(ctx context.Context, id string) error {
	if err := f.failDelete[id]; err != nil {
		return err
	}
	delete(f.bookings, id)
	return nil
}

type fakeCatalog map[string]domain.Product

func (c fakeCatalog) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, ok := c[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

type fakeNotifier struct {
	events []string
	err    error
}

func (n *fakeNotifier) Publish(ctx context.Context, eventType string, booking domain.Booking) error {
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, eventType)
	return nil
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
