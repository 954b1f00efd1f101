package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bouncehire/rentals/internal/clock"
	"github.com/bouncehire/rentals/internal/config"
	"github.com/bouncehire/rentals/internal/domain"
	"github.com/bouncehire/rentals/internal/metrics"
	"github.com/bouncehire/rentals/internal/notify"
)

type BookingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	NextBookingNumber(ctx context.Context, prefix string, now time.Time) (string, error)
	CreateBooking(ctx context.Context, b domain.Booking) error
	GetBooking(ctx context.Context, id string) (domain.Booking, error)
	UpdateStatus(ctx context.Context, bookingID string, status domain.BookingStatus, change domain.StatusChange) error
	SetCancellationReason(ctx context.Context, bookingID, reason string) error
	FindExpiredPending(ctx context.Context, cutoff time.Time) ([]domain.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// ProductCatalog is the external catalog collaborator; the core only asks
// for products by id.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

// ReservationManager converts availability into durable reservations and
// back.
type ReservationManager interface {
	Reserve(ctx context.Context, in ReserveInput) ([]domain.InventoryUnit, error)
	Release(ctx context.Context, bookingID string) error
}

// BookingService drives cart checkout, cancellation and status changes.
type BookingService struct {
	bookings     BookingRepository
	catalog      ProductCatalog
	reservations ReservationManager
	notifier     notify.Notifier
	clock        clock.Clock
	pricing      config.Pricing
	numberPrefix string
	logger       zerolog.Logger
}

func NewBookingService(
	bookings BookingRepository,
	catalog ProductCatalog,
	reservations ReservationManager,
	notifier notify.Notifier,
	clk clock.Clock,
	pricing config.Pricing,
	numberPrefix string,
	logger zerolog.Logger,
) *BookingService {
	return &BookingService{
		bookings:     bookings,
		catalog:      catalog,
		reservations: reservations,
		notifier:     notifier,
		clock:        clk,
		pricing:      pricing,
		numberPrefix: numberPrefix,
		logger:       logger,
	}
}

type CreateBookingInput struct {
	UserID          string
	Items           []domain.CartItem
	ShippingAddress domain.ShippingAddress
	PaymentMethod   domain.PaymentMethod
	InvoiceType     domain.InvoiceType
	BankDetails     string
}

// CreateBookingFromCart validates the cart snapshot, reserves inventory for
// every line and persists the booking, all inside one transaction: if any
// line cannot be reserved or the booking cannot be written, the rollback
// releases everything reserved so far. Notification happens after commit and
// never fails the booking.
func (s *BookingService) CreateBookingFromCart(ctx context.Context, in CreateBookingInput) (domain.Booking, error) {
	if err := s.validate(in); err != nil {
		return domain.Booking{}, err
	}

	now := s.clock.Now()
	bookingID := uuid.NewString()
	deliveryFee, _ := s.pricing.DeliveryFee(in.ShippingAddress.DeliverySlot)
	collectionFee, _ := s.pricing.CollectionFee(in.ShippingAddress.CollectionSlot)

	var booking domain.Booking
	err := s.bookings.WithTx(ctx, func(txCtx context.Context) error {
		number, err := s.bookings.NextBookingNumber(txCtx, s.numberPrefix, now)
		if err != nil {
			return err
		}

		var (
			items    []domain.BookingItem
			subtotal int64
		)
		for _, line := range in.Items {
			product, err := s.catalog.GetProduct(txCtx, line.ProductID)
			if err != nil {
				return err
			}

			if _, err := s.reservations.Reserve(txCtx, ReserveInput{
				ProductID: line.ProductID,
				StartDate: line.StartDate,
				EndDate:   line.EndDate,
				Quantity:  line.Quantity,
				BookingID: bookingID,
			}); err != nil {
				return err
			}

			days := domain.RentalDays(line.StartDate, line.EndDate)
			lineTotal := int64(line.Quantity) * product.DailyRate * int64(days)
			subtotal += lineTotal

			items = append(items, domain.BookingItem{
				ID:         uuid.NewString(),
				ProductID:  product.ID,
				Name:       product.Name,
				Quantity:   line.Quantity,
				StartDate:  domain.Day(line.StartDate),
				EndDate:    domain.Day(line.EndDate),
				TotalDays:  days,
				RentalType: "daily",
				DailyRate:  product.DailyRate,
				LineTotal:  lineTotal,
			})
		}

		tax := subtotal * int64(s.pricing.TaxRatePercent) / 100
		total := subtotal + tax + deliveryFee + collectionFee

		booking = domain.Booking{
			ID:              bookingID,
			Number:          number,
			UserID:          in.UserID,
			Items:           items,
			ShippingAddress: in.ShippingAddress,
			Payment: domain.Payment{
				Method: in.PaymentMethod,
				Status: domain.PaymentStatusPending,
				Amount: total,
			},
			Status: domain.BookingStatusPending,
			History: []domain.StatusChange{{
				Status:    domain.BookingStatusPending,
				ChangedAt: now,
				ChangedBy: in.UserID,
				Notes:     "booking created",
			}},
			Subtotal:      subtotal,
			Tax:           tax,
			DeliveryFee:   deliveryFee,
			CollectionFee: collectionFee,
			Total:         total,
			InvoiceType:   in.InvoiceType,
			BankDetails:   in.BankDetails,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return s.bookings.CreateBooking(txCtx, booking)
	})
	if err != nil {
		return domain.Booking{}, err
	}

	metrics.BookingsCreatedTotal.Inc()
	s.publish(ctx, notify.EventBookingCreated, booking)
	return booking, nil
}

func (s *BookingService) validate(in CreateBookingInput) error {
	if len(in.Items) == 0 {
		return domain.ErrEmptyCart
	}
	if !in.ShippingAddress.Complete() {
		return domain.ErrIncompleteAddress
	}
	if !in.PaymentMethod.Valid() {
		return domain.ErrInvalidPayment
	}
	if in.InvoiceType == domain.InvoiceCorporate && in.BankDetails == "" {
		return domain.ErrBankDetailsMissing
	}
	if _, ok := s.pricing.DeliveryFee(in.ShippingAddress.DeliverySlot); !ok {
		return domain.ErrInvalidSlot
	}
	if _, ok := s.pricing.CollectionFee(in.ShippingAddress.CollectionSlot); !ok {
		return domain.ErrInvalidSlot
	}
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
		if domain.Day(line.EndDate).Before(domain.Day(line.StartDate)) {
			return domain.ErrInvalidDateRange
		}
	}
	return nil
}

// GetBooking loads a booking, enforcing ownership for non-admin callers.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID string, isAdmin bool) (domain.Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if !isAdmin && booking.UserID != userID {
		return domain.Booking{}, domain.ErrForbidden
	}
	return booking, nil
}

// CancelBooking cancels a non-terminal booking and releases its inventory.
// Owners may cancel their own bookings; admins may cancel any.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, actorID string, isAdmin bool, reason string) (domain.Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if !isAdmin && booking.UserID != actorID {
		return domain.Booking{}, domain.ErrForbidden
	}
	if !booking.Status.CanTransitionTo(domain.BookingStatusCancelled) {
		return domain.Booking{}, domain.ErrInvalidTransition
	}

	now := s.clock.Now()
	err = s.bookings.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.bookings.UpdateStatus(txCtx, bookingID, domain.BookingStatusCancelled, domain.StatusChange{
			Status:    domain.BookingStatusCancelled,
			ChangedAt: now,
			ChangedBy: actorID,
			Notes:     "cancelled: " + reason,
		}); err != nil {
			return err
		}
		if err := s.bookings.SetCancellationReason(txCtx, bookingID, reason); err != nil {
			return err
		}
		return s.reservations.Release(txCtx, bookingID)
	})
	if err != nil {
		return domain.Booking{}, err
	}

	metrics.BookingsCancelledTotal.Inc()

	updated, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	s.publish(ctx, notify.EventBookingCancelled, updated)
	return updated, nil
}

// UpdateBookingStatus moves a booking forward along its lifecycle (or to
// cancelled, which also releases inventory). The caller is expected to be
// pre-authorized; transition legality is enforced here.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, bookingID string, next domain.BookingStatus, actorID, notes string) (domain.Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if !booking.Status.CanTransitionTo(next) {
		return domain.Booking{}, domain.ErrInvalidTransition
	}

	if notes == "" {
		notes = "status updated"
	}
	now := s.clock.Now()
	err = s.bookings.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.bookings.UpdateStatus(txCtx, bookingID, next, domain.StatusChange{
			Status:    next,
			ChangedAt: now,
			ChangedBy: actorID,
			Notes:     notes,
		}); err != nil {
			return err
		}
		if next == domain.BookingStatusCancelled {
			return s.reservations.Release(txCtx, bookingID)
		}
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}

	updated, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	s.publish(ctx, notify.EventBookingStatusChanged, updated)
	return updated, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking domain.Booking) {
	if err := s.notifier.Publish(ctx, eventType, booking); err != nil {
		s.logger.Error().Err(err).
			Str("event", eventType).
			Str("booking_id", booking.ID).
			Msg("notification publish failed")
	}
}
