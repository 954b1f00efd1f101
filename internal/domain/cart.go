package domain

import "time"

// CartItem is one line of the checkout cart snapshot handed to the booking
// controller. The cart itself lives outside the core; this is read-only
// input.
type CartItem struct {
	ProductID string
	Quantity  int
	StartDate time.Time
	EndDate   time.Time
}
