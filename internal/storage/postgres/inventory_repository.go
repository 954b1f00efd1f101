package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bouncehire/rentals/internal/domain"
)

type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

func (r *InventoryRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const unitColumns = `id, product_id, warehouse, vendor, quantity, rental_fee_pence, status, created_at, updated_at`

// FindUnits returns the product's non-maintenance units with reservations
// loaded, oldest unit first. Out-of-stock units are included so callers can
// report zero availability instead of not-found.
func (r *InventoryRepository) FindUnits(ctx context.Context, productID string) ([]domain.InventoryUnit, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM inventory_units
WHERE product_id = $1 AND status <> 'maintenance'
ORDER BY created_at, id`, unitColumns)

	return r.queryUnits(ctx, query, productID)
}

// FindUnitsForUpdate is FindUnits with FOR UPDATE row locks, so a concurrent
// reserve for the same product blocks until this transaction finishes. Must
// run inside a transaction.
func (r *InventoryRepository) FindUnitsForUpdate(ctx context.Context, productID string) ([]domain.InventoryUnit, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM inventory_units
WHERE product_id = $1 AND status <> 'maintenance'
ORDER BY created_at, id
FOR UPDATE`, unitColumns)

	return r.queryUnits(ctx, query, productID)
}

// FindUnitsByBookingForUpdate locks and returns every unit holding a
// reservation for the booking. Supports release; returns an empty slice when
// the booking holds nothing.
func (r *InventoryRepository) FindUnitsByBookingForUpdate(ctx context.Context, bookingID string) ([]domain.InventoryUnit, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM inventory_units
WHERE id IN (SELECT unit_id FROM reservations WHERE booking_id = $1)
ORDER BY created_at, id
FOR UPDATE`, unitColumns)

	return r.queryUnits(ctx, query, bookingID)
}

func (r *InventoryRepository) queryUnits(ctx context.Context, query string, arg any) ([]domain.InventoryUnit, error) {
	rows, err := r.query(ctx, query, arg)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("query units: %w", err)
	}
	defer rows.Close()

	var units []domain.InventoryUnit
	for rows.Next() {
		var u domain.InventoryUnit
		var status string
		if err := rows.Scan(&u.ID, &u.ProductID, &u.Warehouse, &u.Vendor, &u.Quantity,
			&u.RentalFee, &status, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		u.Status = domain.UnitStatus(status)
		units = append(units, u)
	}
	if rows.Err() != nil {
		if isInvalidUUID(rows.Err()) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("iterate units: %w", rows.Err())
	}

	if err := r.loadReservations(ctx, units); err != nil {
		return nil, err
	}
	return units, nil
}

func (r *InventoryRepository) loadReservations(ctx context.Context, units []domain.InventoryUnit) error {
	if len(units) == 0 {
		return nil
	}

	ids := make([]string, len(units))
	index := make(map[string]int, len(units))
	for i, u := range units {
		ids[i] = u.ID
		index[u.ID] = i
	}

	const query = `
SELECT id, unit_id, booking_id, start_date, end_date
FROM reservations
WHERE unit_id = ANY($1)
ORDER BY start_date, id`

	rows, err := r.query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.UnitID, &res.BookingID, &res.StartDate, &res.EndDate); err != nil {
			return fmt.Errorf("scan reservation: %w", err)
		}
		i := index[res.UnitID]
		units[i].Reservations = append(units[i].Reservations, res)
	}
	if rows.Err() != nil {
		return fmt.Errorf("iterate reservations: %w", rows.Err())
	}
	return nil
}

func (r *InventoryRepository) AddReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, unit_id, booking_id, start_date, end_date)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.exec(ctx, stmt, res.ID, res.UnitID, res.BookingID, res.StartDate, res.EndDate)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("add reservation: %w", err)
	}
	return nil
}

// DeleteReservationsByBooking removes every reservation tied to the booking
// and reports how many were removed. Zero means the release was already done.
func (r *InventoryRepository) DeleteReservationsByBooking(ctx context.Context, bookingID string) (int64, error) {
	tag, err := r.exec(ctx, `DELETE FROM reservations WHERE booking_id = $1`, bookingID)
	if err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("delete reservations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *InventoryRepository) UpdateUnitStatus(ctx context.Context, unitID string, status domain.UnitStatus) error {
	tag, err := r.exec(ctx, `UPDATE inventory_units SET status = $2, updated_at = NOW() WHERE id = $1`, unitID, status)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update unit status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUnitNotFound
	}
	return nil
}

func (r *InventoryRepository) CreateUnit(ctx context.Context, unit domain.InventoryUnit) error {
	const stmt = `
INSERT INTO inventory_units (id, product_id, warehouse, vendor, quantity, rental_fee_pence, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt, unit.ID, unit.ProductID, unit.Warehouse, unit.Vendor,
		unit.Quantity, unit.RentalFee, unit.Status)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create unit: %w", err)
	}
	return nil
}

// ListUnits returns all of a product's units, maintenance included, for the
// admin stock view.
func (r *InventoryRepository) ListUnits(ctx context.Context, productID string) ([]domain.InventoryUnit, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM inventory_units
WHERE product_id = $1
ORDER BY created_at, id`, unitColumns)

	return r.queryUnits(ctx, query, productID)
}

func (r *InventoryRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *InventoryRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
