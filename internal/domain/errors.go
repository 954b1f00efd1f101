package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrUnitNotFound        = errors.New("inventory unit not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidDateRange    = errors.New("end date must not be before start date")
	ErrInvalidDate         = errors.New("dates must be formatted YYYY-MM-DD")
	ErrIncompleteAddress   = errors.New("shipping address is incomplete")
	ErrInvalidPayment      = errors.New("payment method is not accepted")
	ErrBankDetailsMissing  = errors.New("corporate invoices require bank details")
	ErrInvalidSlot         = errors.New("unknown delivery or collection slot")
	ErrInvalidTransition   = errors.New("invalid booking status transition")
	ErrForbidden           = errors.New("caller may not act on this booking")
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidUnitStatus   = errors.New("unknown unit status")
	ErrProductNameRequired = errors.New("product name is required")
	ErrInvalidRate         = errors.New("daily rate must not be negative")

	// ErrInsufficientInventory is the errors.Is target for
	// InsufficientInventoryError.
	ErrInsufficientInventory = errors.New("insufficient inventory")

	// ErrTransactionConflict marks a storage transaction aborted by concurrent
	// contention. Reserve retries it once before giving up.
	ErrTransactionConflict = errors.New("transaction conflict")
)

// InsufficientInventoryError reports how far short the inventory fell, so the
// caller can tell which line item failed and why.
type InsufficientInventoryError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for product %s: only %d available, %d requested",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientInventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}
