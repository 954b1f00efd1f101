package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bouncehire/rentals/internal/clock"
	"github.com/bouncehire/rentals/internal/config"
	"github.com/bouncehire/rentals/internal/domain"
	"github.com/bouncehire/rentals/internal/notify"
)

func validAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		FirstName:      "Jo",
		LastName:       "Smith",
		Email:          "jo@example.com",
		Phone:          "07000000000",
		Street:         "1 High Street",
		City:           "Leeds",
		PostalCode:     "LS1 1AA",
		Country:        "GB",
		DeliverySlot:   "8am-12pm",
		CollectionSlot: "before_5pm",
	}
}

type bookingEnv struct {
	store    *fakeStore
	catalog  fakeCatalog
	notifier *fakeNotifier
	svc      *BookingService
}

func newBookingEnv(t *testing.T, now time.Time) *bookingEnv {
	t.Helper()

	store := newFakeStore()
	catalog := fakeCatalog{
		"p1": {ID: "p1", Name: "Castle Classic", DailyRate: 5000},
		"p2": {ID: "p2", Name: "Mega Slide", DailyRate: 8000},
	}
	notifier := &fakeNotifier{}
	reservations := NewReservationService(store, zerolog.Nop())
	svc := NewBookingService(
		store, catalog, reservations, notifier,
		clock.NewFixed(now),
		config.Default().Pricing, "BK",
		zerolog.Nop(),
	)
	return &bookingEnv{store: store, catalog: catalog, notifier: notifier, svc: svc}
}

func TestCreateBookingFromCart(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	start, end := day(2024, time.June, 10), day(2024, time.June, 12)

	t.Run("prices the cart and reserves inventory", func(t *testing.T) {
		env := newBookingEnv(t, now)
		env.store.addUnit(unit("u1", "p1", 2, domain.UnitStatusAvailable))
		env.store.addUnit(unit("u2", "p2", 1, domain.UnitStatusAvailable))

		addr := validAddress()
		addr.CollectionSlot = "after_5pm"
		booking, err := env.svc.CreateBookingFromCart(ctx, CreateBookingInput{
			UserID: "user-1",
			Items: []domain.CartItem{
				{ProductID: "p1", Quantity: 2, StartDate: start, EndDate: end},
				{ProductID: "p2", Quantity: 1, StartDate: start, EndDate: start},
			},
			ShippingAddress: addr,
			PaymentMethod:   domain.PaymentCard,
			InvoiceType:     domain.InvoiceRegular,
		})
		if err != nil {
			t.Fatalf("CreateBookingFromCart: %v", err)
		}

		// 2 x 5000 x 2 days + 1 x 8000 x 1 day
		wantSubtotal := int64(2*5000*2 + 8000)
		if booking.Subtotal != wantSubtotal {
			t.Errorf("subtotal = %d, want %d", booking.Subtotal, wantSubtotal)
		}
		wantTax := wantSubtotal * 20 / 100
		if booking.Tax != wantTax {
			t.Errorf("tax = %d, want %d", booking.Tax, wantTax)
		}
		if booking.DeliveryFee != 0 {
			t.Errorf("delivery fee = %d, want 0 for the free morning slot", booking.DeliveryFee)
		}
		if booking.CollectionFee != 1000 {
			t.Errorf("collection fee = %d, want 1000", booking.CollectionFee)
		}
		wantTotal := wantSubtotal + wantTax + 1000
		if booking.Total != wantTotal {
			t.Errorf("total = %d, want %d", booking.Total, wantTotal)
		}
		if booking.Payment.Amount != wantTotal || booking.Payment.Status != domain.PaymentStatusPending {
			t.Errorf("payment = %+v, want pending for %d", booking.Payment, wantTotal)
		}

		if booking.Status != domain.BookingStatusPending {
			t.Errorf("status = %s, want pending", booking.Status)
		}
		if !strings.HasPrefix(booking.Number, "BK2406") {
			t.Errorf("number = %q, want BK2406 prefix", booking.Number)
		}
		if len(booking.History) != 1 || booking.History[0].Status != domain.BookingStatusPending {
			t.Errorf("history = %+v, want single pending entry", booking.History)
		}
		if len(booking.Items) != 2 {
			t.Fatalf("items = %d, want 2", len(booking.Items))
		}
		if booking.Items[1].TotalDays != 1 {
			t.Errorf("same-day rental TotalDays = %d, want 1", booking.Items[1].TotalDays)
		}

		if got := len(env.store.units["u1"].Reservations); got != 1 {
			t.Errorf("u1 reservations = %d, want 1", got)
		}
		if got := len(env.store.units["u2"].Reservations); got != 1 {
			t.Errorf("u2 reservations = %d, want 1", got)
		}
		if env.notifier.events[0] != notify.EventBookingCreated {
			t.Errorf("published %v, want booking created event", env.notifier.events)
		}
		if _, err := env.store.GetBooking(ctx, booking.ID); err != nil {
			t.Errorf("booking not persisted: %v", err)
		}
	})

	t.Run("one unreservable line aborts the whole booking", func(t *testing.T) {
		env := newBookingEnv(t, now)
		env.store.addUnit(unit("u1", "p1", 2, domain.UnitStatusAvailable))
		// no p2 stock at all

		_, err := env.svc.CreateBookingFromCart(ctx, CreateBookingInput{
			UserID: "user-1",
			Items: []domain.CartItem{
				{ProductID: "p1", Quantity: 1, StartDate: start, EndDate: end},
				{ProductID: "p2", Quantity: 1, StartDate: start, EndDate: end},
			},
			ShippingAddress: validAddress(),
			PaymentMethod:   domain.PaymentCard,
		})
		if !errors.Is(err, domain.ErrInsufficientInventory) {
			t.Fatalf("err = %v, want ErrInsufficientInventory", err)
		}

		if got := len(env.store.units["u1"].Reservations); got != 0 {
			t.Errorf("u1 reservations = %d, want 0 after rollback", got)
		}
		if len(env.store.bookings) != 0 {
			t.Errorf("bookings persisted after rollback: %d", len(env.store.bookings))
		}
		if len(env.notifier.events) != 0 {
			t.Errorf("events published after rollback: %v", env.notifier.events)
		}
	})

	t.Run("notification failure does not fail the booking", func(t *testing.T) {
		env := newBookingEnv(t, now)
		env.store.addUnit(unit("u1", "p1", 1, domain.UnitStatusAvailable))
		env.notifier.err = errors.New("broker down")

		booking, err := env.svc.CreateBookingFromCart(ctx, CreateBookingInput{
			UserID: "user-1",
			Items: []domain.CartItem{
				{ProductID: "p1", Quantity: 1, StartDate: start, EndDate: end},
			},
			ShippingAddress: validAddress(),
			PaymentMethod:   domain.PaymentCard,
		})
		if err != nil {
			t.Fatalf("CreateBookingFromCart: %v", err)
		}
		if _, err := env.store.GetBooking(ctx, booking.ID); err != nil {
			t.Errorf("booking not persisted: %v", err)
		}
	})

	t.Run("validation", func(t *testing.T) {
		env := newBookingEnv(t, now)
		env.store.addUnit(unit("u1", "p1", 1, domain.UnitStatusAvailable))

		valid := CreateBookingInput{
			UserID: "user-1",
			Items: []domain.CartItem{
				{ProductID: "p1", Quantity: 1, StartDate: start, EndDate: end},
			},
			ShippingAddress: validAddress(),
			PaymentMethod:   domain.PaymentCard,
		}

		tests := []struct {
			name    string
			mutate  func(in *CreateBookingInput)
			wantErr error
		}{
			{"empty cart", func(in *CreateBookingInput) { in.Items = nil }, domain.ErrEmptyCart},
			{"incomplete address", func(in *CreateBookingInput) { in.ShippingAddress.PostalCode = "" }, domain.ErrIncompleteAddress},
			{"unknown payment method", func(in *CreateBookingInput) { in.PaymentMethod = "barter" }, domain.ErrInvalidPayment},
			{"corporate invoice without bank details", func(in *CreateBookingInput) {
				in.InvoiceType = domain.InvoiceCorporate
			}, domain.ErrBankDetailsMissing},
			{"unknown delivery slot", func(in *CreateBookingInput) {
				in.ShippingAddress.DeliverySlot = "midnight"
			}, domain.ErrInvalidSlot},
			{"unknown collection slot", func(in *CreateBookingInput) {
				in.ShippingAddress.CollectionSlot = "whenever"
			}, domain.ErrInvalidSlot},
			{"zero quantity", func(in *CreateBookingInput) { in.Items[0].Quantity = 0 }, domain.ErrInvalidQuantity},
			{"end before start", func(in *CreateBookingInput) {
				in.Items[0].StartDate, in.Items[0].EndDate = end, start
			}, domain.ErrInvalidDateRange},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				in := valid
				in.Items = append([]domain.CartItem(nil), valid.Items...)
				tt.mutate(&in)

				_, err := env.svc.CreateBookingFromCart(ctx, in)
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
			})
		}
	})
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	start, end := day(2024, time.June, 10), day(2024, time.June, 12)

	create := func(t *testing.T, env *bookingEnv) domain.Booking {
		t.Helper()
		env.store.addUnit(unit("u1", "p1", 1, domain.UnitStatusAvailable))
		booking, err := env.svc.CreateBookingFromCart(ctx, CreateBookingInput{
			UserID: "user-1",
			Items: []domain.CartItem{
				{ProductID: "p1", Quantity: 1, StartDate: start, EndDate: end},
			},
			ShippingAddress: validAddress(),
			PaymentMethod:   domain.PaymentCard,
		})
		if err != nil {
			t.Fatalf("CreateBookingFromCart: %v", err)
		}
		return booking
	}

	t.Run("owner cancels and inventory is released", func(t *testing.T) {
		env := newBookingEnv(t, now)
		booking := create(t, env)

		cancelled, err := env.svc.CancelBooking(ctx, booking.ID, "user-1", false, "changed plans")
		if err != nil {
			t.Fatalf("CancelBooking: %v", err)
		}
		if cancelled.Status != domain.BookingStatusCancelled {
			t.Errorf("status = %s, want cancelled", cancelled.Status)
		}
		if cancelled.CancellationReason != "changed plans" {
			t.Errorf("reason = %q, want recorded", cancelled.CancellationReason)
		}
		if u := env.store.units["u1"]; u.Status != domain.UnitStatusAvailable || len(u.Reservations) != 0 {
			t.Errorf("inventory not released: %+v", u)
		}
		if env.notifier.events[len(env.notifier.events)-1] != notify.EventBookingCancelled {
			t.Errorf("events = %v, want cancellation event last", env.notifier.events)
		}
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		env := newBookingEnv(t, now)
		booking := create(t, env)

		if _, err := env.svc.CancelBooking(ctx, booking.ID, "user-2", false, "nope"); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("admin may cancel any booking", func(t *testing.T) {
		env := newBookingEnv(t, now)
		booking := create(t, env)

		if _, err := env.svc.CancelBooking(ctx, booking.ID, "admin-1", true, "fraud check"); err != nil {
			t.Fatalf("CancelBooking as admin: %v", err)
		}
	})

	t.Run("terminal bookings cannot be cancelled", func(t *testing.T) {
		env := newBookingEnv(t, now)
		booking := create(t, env)
		env.store.bookings[booking.ID].Status = domain.BookingStatusCompleted

		if _, err := env.svc.CancelBooking(ctx, booking.ID, "user-1", false, "late"); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("err = %v, want ErrInvalidTransition", err)
		}
	})
}

func TestUpdateBookingStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	start, end := day(2024, time.June, 10), day(2024, time.June, 12)

	env := newBookingEnv(t, now)
	env.store.addUnit(unit("u1", "p1", 1, domain.UnitStatusAvailable))
	booking, err := env.svc.CreateBookingFromCart(ctx, CreateBookingInput{
		UserID: "user-1",
		Items: []domain.CartItem{
			{ProductID: "p1", Quantity: 1, StartDate: start, EndDate: end},
		},
		ShippingAddress: validAddress(),
		PaymentMethod:   domain.PaymentCard,
	})
	if err != nil {
		t.Fatalf("CreateBookingFromCart: %v", err)
	}

	updated, err := env.svc.UpdateBookingStatus(ctx, booking.ID, domain.BookingStatusConfirmed, "admin-1", "payment received")
	if err != nil {
		t.Fatalf("UpdateBookingStatus: %v", err)
	}
	if updated.Status != domain.BookingStatusConfirmed {
		t.Errorf("status = %s, want confirmed", updated.Status)
	}
	if len(updated.History) != 2 || updated.History[1].Notes != "payment received" {
		t.Errorf("history = %+v, want confirmation entry appended", updated.History)
	}

	if _, err := env.svc.UpdateBookingStatus(ctx, booking.ID, domain.BookingStatusPending, "admin-1", ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("backwards move: err = %v, want ErrInvalidTransition", err)
	}

	// cancelling through the status endpoint still releases inventory
	if _, err := env.svc.UpdateBookingStatus(ctx, booking.ID, domain.BookingStatusCancelled, "admin-1", "customer no-show"); err != nil {
		t.Fatalf("cancel via status update: %v", err)
	}
	if u := env.store.units["u1"]; u.Status != domain.UnitStatusAvailable || len(u.Reservations) != 0 {
		t.Errorf("inventory not released on cancel: %+v", u)
	}
}

func TestGetBookingOwnership(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

	env := newBookingEnv(t, now)
	env.store.addUnit(unit("u1", "p1", 1, domain.UnitStatusAvailable))
	booking, err := env.svc.CreateBookingFromCart(ctx, CreateBookingInput{
		UserID: "user-1",
		Items: []domain.CartItem{
			{ProductID: "p1", Quantity: 1, StartDate: day(2024, time.June, 10), EndDate: day(2024, time.June, 12)},
		},
		ShippingAddress: validAddress(),
		PaymentMethod:   domain.PaymentCard,
	})
	if err != nil {
		t.Fatalf("CreateBookingFromCart: %v", err)
	}

	if _, err := env.svc.GetBooking(ctx, booking.ID, "user-1", false); err != nil {
		t.Errorf("owner read: %v", err)
	}
	if _, err := env.svc.GetBooking(ctx, booking.ID, "user-2", false); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("stranger read: err = %v, want ErrForbidden", err)
	}
	if _, err := env.svc.GetBooking(ctx, booking.ID, "admin-1", true); err != nil {
		t.Errorf("admin read: %v", err)
	}
	if _, err := env.svc.GetBooking(ctx, "missing", "user-1", false); !errors.Is(err, domain.ErrBookingNotFound) {
		t.Errorf("missing booking: err = %v, want ErrBookingNotFound", err)
	}
}
