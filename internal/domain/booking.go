package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending            BookingStatus = "pending"
	BookingStatusConfirmed          BookingStatus = "confirmed"
	BookingStatusProcessing         BookingStatus = "processing"
	BookingStatusReadyForDelivery   BookingStatus = "ready_for_delivery"
	BookingStatusOutForDelivery     BookingStatus = "out_for_delivery"
	BookingStatusDelivered          BookingStatus = "delivered"
	BookingStatusReadyForCollection BookingStatus = "ready_for_collection"
	BookingStatusCollected          BookingStatus = "collected"
	BookingStatusCompleted          BookingStatus = "completed"
	BookingStatusCancelled          BookingStatus = "cancelled"
)

// statusRank orders the forward path of the lifecycle. Cancellation is the
// only edge outside it.
var statusRank = map[BookingStatus]int{
	BookingStatusPending:            0,
	BookingStatusConfirmed:          1,
	BookingStatusProcessing:         2,
	BookingStatusReadyForDelivery:   3,
	BookingStatusOutForDelivery:     4,
	BookingStatusDelivered:          5,
	BookingStatusReadyForCollection: 6,
	BookingStatusCollected:          7,
	BookingStatusCompleted:          8,
}

func (s BookingStatus) Valid() bool {
	if s == BookingStatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// CanTransitionTo permits strictly-forward moves along the lifecycle, plus a
// single cancellation from any non-terminal state.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s.Terminal() {
		return false
	}
	if next == BookingStatusCancelled {
		return true
	}
	return statusRank[next] > statusRank[s]
}

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentCard           PaymentMethod = "card"
	PaymentPaypal         PaymentMethod = "paypal"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentBankTransfer, PaymentCard, PaymentPaypal:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type InvoiceType string

const (
	InvoiceRegular   InvoiceType = "regular"
	InvoiceCorporate InvoiceType = "corporate"
)

type Payment struct {
	Method PaymentMethod
	Status PaymentStatus
	Amount int64 // pence
}

type ShippingAddress struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Street         string
	City           string
	PostalCode     string
	Country        string
	DeliverySlot   string
	CollectionSlot string
	Notes          string
}

// Complete reports whether the fields the checkout requires are all present.
// Slot and note fields are optional.
func (a ShippingAddress) Complete() bool {
	return a.FirstName != "" && a.LastName != "" && a.Email != "" &&
		a.Phone != "" && a.Street != "" && a.City != "" &&
		a.PostalCode != "" && a.Country != ""
}

type BookingItem struct {
	ID         string
	ProductID  string
	Name       string
	Quantity   int
	StartDate  time.Time
	EndDate    time.Time
	TotalDays  int
	RentalType string
	DailyRate  int64 // pence
	LineTotal  int64 // pence
}

// StatusChange is one audit-trail entry. ChangedBy is a user id or a system
// actor label such as "sweeper".
type StatusChange struct {
	Status    BookingStatus
	ChangedAt time.Time
	ChangedBy string
	Notes     string
}

type Booking struct {
	ID                 string
	Number             string
	UserID             string
	Items              []BookingItem
	ShippingAddress    ShippingAddress
	Payment            Payment
	Status             BookingStatus
	History            []StatusChange
	Subtotal           int64
	Tax                int64
	DeliveryFee        int64
	CollectionFee      int64
	Total              int64
	InvoiceType        InvoiceType
	BankDetails        string
	CancellationReason string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
