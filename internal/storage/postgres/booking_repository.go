package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bouncehire/rentals/internal/domain"
)

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// NextBookingNumber yields BK<YY><MM><seq4>, monotonic within the month. The
// upsert takes a row lock on the month's counter, serializing concurrent
// checkouts.
func (r *BookingRepository) NextBookingNumber(ctx context.Context, prefix string, now time.Time) (string, error) {
	monthKey := now.UTC().Format("0601")

	const stmt = `
INSERT INTO booking_counters (month_key, seq)
VALUES ($1, 1)
ON CONFLICT (month_key) DO UPDATE SET seq = booking_counters.seq + 1
RETURNING seq`

	var seq int
	if err := r.queryRow(ctx, stmt, monthKey).Scan(&seq); err != nil {
		return "", fmt.Errorf("next booking number: %w", err)
	}
	return fmt.Sprintf("%s%s%04d", prefix, monthKey, seq), nil
}

func (r *BookingRepository) CreateBooking(ctx context.Context, b domain.Booking) error {
	const stmt = `
INSERT INTO bookings (
	id, booking_number, user_id, status,
	payment_method, payment_status,
	subtotal_pence, tax_pence, delivery_fee_pence, collection_fee_pence, total_pence,
	invoice_type, bank_details,
	ship_first_name, ship_last_name, ship_email, ship_phone,
	ship_street, ship_city, ship_postal_code, ship_country,
	delivery_slot, collection_slot, ship_notes,
	created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
	$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $25
)`

	a := b.ShippingAddress
	_, err := r.exec(ctx, stmt,
		b.ID, b.Number, b.UserID, b.Status,
		b.Payment.Method, b.Payment.Status,
		b.Subtotal, b.Tax, b.DeliveryFee, b.CollectionFee, b.Total,
		b.InvoiceType, b.BankDetails,
		a.FirstName, a.LastName, a.Email, a.Phone,
		a.Street, a.City, a.PostalCode, a.Country,
		a.DeliverySlot, a.CollectionSlot, a.Notes,
		b.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("booking number collision: %w", domain.ErrTransactionConflict)
		}
		return fmt.Errorf("create booking: %w", err)
	}

	for _, item := range b.Items {
		const itemStmt = `
INSERT INTO booking_items (id, booking_id, product_id, name, quantity, start_date, end_date, total_days, rental_type, daily_rate_pence, line_total_pence)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		if _, err := r.exec(ctx, itemStmt, item.ID, b.ID, item.ProductID, item.Name,
			item.Quantity, item.StartDate, item.EndDate, item.TotalDays,
			item.RentalType, item.DailyRate, item.LineTotal); err != nil {
			return fmt.Errorf("create booking item: %w", err)
		}
	}

	for _, change := range b.History {
		if err := r.insertHistory(ctx, b.ID, change); err != nil {
			return err
		}
	}
	return nil
}

func (r *BookingRepository) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	const query = `
SELECT id, booking_number, user_id, status,
	payment_method, payment_status,
	subtotal_pence, tax_pence, delivery_fee_pence, collection_fee_pence, total_pence,
	invoice_type, bank_details, cancellation_reason,
	ship_first_name, ship_last_name, ship_email, ship_phone,
	ship_street, ship_city, ship_postal_code, ship_country,
	delivery_slot, collection_slot, ship_notes,
	created_at, updated_at
FROM bookings
WHERE id = $1`

	var (
		b                               domain.Booking
		status, method, payStatus, ityp string
	)
	err := r.queryRow(ctx, query, id).Scan(
		&b.ID, &b.Number, &b.UserID, &status,
		&method, &payStatus,
		&b.Subtotal, &b.Tax, &b.DeliveryFee, &b.CollectionFee, &b.Total,
		&ityp, &b.BankDetails, &b.CancellationReason,
		&b.ShippingAddress.FirstName, &b.ShippingAddress.LastName,
		&b.ShippingAddress.Email, &b.ShippingAddress.Phone,
		&b.ShippingAddress.Street, &b.ShippingAddress.City,
		&b.ShippingAddress.PostalCode, &b.ShippingAddress.Country,
		&b.ShippingAddress.DeliverySlot, &b.ShippingAddress.CollectionSlot,
		&b.ShippingAddress.Notes,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Booking{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Booking{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	b.Status = domain.BookingStatus(status)
	b.Payment = domain.Payment{
		Method: domain.PaymentMethod(method),
		Status: domain.PaymentStatus(payStatus),
		Amount: b.Total,
	}
	b.InvoiceType = domain.InvoiceType(ityp)

	if b.Items, err = r.loadItems(ctx, id); err != nil {
		return domain.Booking{}, err
	}
	if b.History, err = r.loadHistory(ctx, id); err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

func (r *BookingRepository) loadItems(ctx context.Context, bookingID string) ([]domain.BookingItem, error) {
	const query = `
SELECT id, product_id, name, quantity, start_date, end_date, total_days, rental_type, daily_rate_pence, line_total_pence
FROM booking_items
WHERE booking_id = $1
ORDER BY start_date, id`

	rows, err := r.query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("query booking items: %w", err)
	}
	defer rows.Close()

	var items []domain.BookingItem
	for rows.Next() {
		var it domain.BookingItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Name, &it.Quantity,
			&it.StartDate, &it.EndDate, &it.TotalDays, &it.RentalType,
			&it.DailyRate, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("scan booking item: %w", err)
		}
		items = append(items, it)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate booking items: %w", rows.Err())
	}
	return items, nil
}

func (r *BookingRepository) loadHistory(ctx context.Context, bookingID string) ([]domain.StatusChange, error) {
	const query = `
SELECT status, changed_at, changed_by, notes
FROM booking_status_history
WHERE booking_id = $1
ORDER BY changed_at, id`

	rows, err := r.query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	var history []domain.StatusChange
	for rows.Next() {
		var (
			c      domain.StatusChange
			status string
		)
		if err := rows.Scan(&status, &c.ChangedAt, &c.ChangedBy, &c.Notes); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		c.Status = domain.BookingStatus(status)
		history = append(history, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate status history: %w", rows.Err())
	}
	return history, nil
}

// UpdateStatus flips the booking's status and appends the audit entry in one
// call. Transition legality is the service's job; the repository only
// persists.
func (r *BookingRepository) UpdateStatus(ctx context.Context, bookingID string, status domain.BookingStatus, change domain.StatusChange) error {
	tag, err := r.exec(ctx, `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`, bookingID, status)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return r.insertHistory(ctx, bookingID, change)
}

func (r *BookingRepository) SetCancellationReason(ctx context.Context, bookingID, reason string) error {
	tag, err := r.exec(ctx, `UPDATE bookings SET cancellation_reason = $2, updated_at = NOW() WHERE id = $1`, bookingID, reason)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("set cancellation reason: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) insertHistory(ctx context.Context, bookingID string, change domain.StatusChange) error {
	const stmt = `
INSERT INTO booking_status_history (booking_id, status, changed_at, changed_by, notes)
VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.exec(ctx, stmt, bookingID, change.Status, change.ChangedAt, change.ChangedBy, change.Notes); err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

// FindExpiredPending lists pending bookings created on or before the cutoff,
// oldest first. Only the fields the sweeper needs are loaded.
func (r *BookingRepository) FindExpiredPending(ctx context.Context, cutoff time.Time) ([]domain.Booking, error) {
	const query = `
SELECT id, booking_number, user_id, status, created_at
FROM bookings
WHERE status = 'pending' AND created_at <= $1
ORDER BY created_at`

	rows, err := r.query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query expired bookings: %w", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var (
			b      domain.Booking
			status string
		)
		if err := rows.Scan(&b.ID, &b.Number, &b.UserID, &status, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expired booking: %w", err)
		}
		b.Status = domain.BookingStatus(status)
		bookings = append(bookings, b)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate expired bookings: %w", rows.Err())
	}
	return bookings, nil
}

func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	tag, err := r.exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *BookingRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *BookingRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
