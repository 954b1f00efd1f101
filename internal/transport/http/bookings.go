package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bouncehire/rentals/internal/app"
	"github.com/bouncehire/rentals/internal/domain"
)

// BookingManager is the minimal interface the booking endpoints need.
type BookingManager interface {
	CreateBookingFromCart(ctx context.Context, in app.CreateBookingInput) (domain.Booking, error)
	GetBooking(ctx context.Context, bookingID, userID string, isAdmin bool) (domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID, actorID string, isAdmin bool, reason string) (domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, next domain.BookingStatus, actorID, notes string) (domain.Booking, error)
}

// HandleCreateBooking returns an HTTP handler for cart checkout.
func HandleCreateBooking(svc BookingManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}

		var req createBookingRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		in, err := req.toInput(caller.UserID)
		if err != nil {
			writeBookingError(w, err)
			return
		}

		booking, err := svc.CreateBookingFromCart(r.Context(), in)
		if err != nil {
			writeBookingError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toBookingResponse(booking))
	}
}

// HandleBooking routes /bookings/{id}, /bookings/{id}/cancel and
// /bookings/{id}/status.
func HandleBooking(svc BookingManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookingID, action, ok := parseBookingPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}

		switch {
		case action == "" && r.Method == http.MethodGet:
			booking, err := svc.GetBooking(r.Context(), bookingID, caller.UserID, caller.admin())
			if err != nil {
				writeBookingError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toBookingResponse(booking))

		case action == "cancel" && r.Method == http.MethodPost:
			var req cancelBookingRequest
			if r.Body != nil && r.ContentLength != 0 {
				dec := json.NewDecoder(r.Body)
				dec.DisallowUnknownFields()
				if err := dec.Decode(&req); err != nil {
					writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
					return
				}
			}
			if req.Reason == "" {
				req.Reason = "cancelled by customer"
			}

			booking, err := svc.CancelBooking(r.Context(), bookingID, caller.UserID, caller.admin(), req.Reason)
			if err != nil {
				writeBookingError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toBookingResponse(booking))

		case action == "status" && r.Method == http.MethodPatch:
			if !caller.admin() {
				writeError(w, http.StatusForbidden, codeForbidden, "admin role required")
				return
			}

			var req updateStatusRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			next := domain.BookingStatus(req.Status)
			if !next.Valid() {
				writeError(w, http.StatusBadRequest, codeInvalidStatus, "unknown booking status")
				return
			}

			booking, err := svc.UpdateBookingStatus(r.Context(), bookingID, next, caller.UserID, req.Notes)
			if err != nil {
				writeBookingError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toBookingResponse(booking))

		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

func parseBookingPath(path string) (string, string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "bookings" || parts[1] == "" {
		return "", "", false
	}
	if len(parts) == 2 {
		return parts[1], "", true
	}
	if parts[2] != "cancel" && parts[2] != "status" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

func writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, codeEmptyCart, err.Error())
	case errors.Is(err, domain.ErrIncompleteAddress):
		writeError(w, http.StatusBadRequest, codeIncompleteAddress, err.Error())
	case errors.Is(err, domain.ErrInvalidPayment):
		writeError(w, http.StatusBadRequest, codeInvalidPayment, err.Error())
	case errors.Is(err, domain.ErrBankDetailsMissing):
		writeError(w, http.StatusBadRequest, codeBankDetailsMissing, err.Error())
	case errors.Is(err, domain.ErrInvalidSlot):
		writeError(w, http.StatusBadRequest, codeInvalidSlot, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, codeInvalidDateRange, err.Error())
	case errors.Is(err, domain.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, codeInvalidDate, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, codeProductNotFound, err.Error())
	case errors.Is(err, domain.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, codeBookingNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientInventory):
		writeError(w, http.StatusConflict, codeInsufficientInventory, err.Error())
	case errors.Is(err, domain.ErrTransactionConflict):
		writeError(w, http.StatusConflict, codeInsufficientInventory, "inventory contention, please retry")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type shippingAddressRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Street         string `json:"street"`
	City           string `json:"city"`
	PostalCode     string `json:"postal_code"`
	Country        string `json:"country"`
	DeliverySlot   string `json:"delivery_slot,omitempty"`
	CollectionSlot string `json:"collection_slot,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

type createBookingRequest struct {
	Items           []cartItemRequest      `json:"items"`
	ShippingAddress shippingAddressRequest `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
	InvoiceType     string                 `json:"invoice_type,omitempty"`
	BankDetails     string                 `json:"bank_details,omitempty"`
}

func (r createBookingRequest) toInput(userID string) (app.CreateBookingInput, error) {
	items := make([]domain.CartItem, 0, len(r.Items))
	for _, item := range r.Items {
		start, err := time.Parse(dateLayout, item.StartDate)
		if err != nil {
			return app.CreateBookingInput{}, domain.ErrInvalidDate
		}
		end, err := time.Parse(dateLayout, item.EndDate)
		if err != nil {
			return app.CreateBookingInput{}, domain.ErrInvalidDate
		}
		items = append(items, domain.CartItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			StartDate: start,
			EndDate:   end,
		})
	}

	invoiceType := domain.InvoiceType(r.InvoiceType)
	if invoiceType == "" {
		invoiceType = domain.InvoiceRegular
	}

	return app.CreateBookingInput{
		UserID: userID,
		Items:  items,
		ShippingAddress: domain.ShippingAddress{
			FirstName:      r.ShippingAddress.FirstName,
			LastName:       r.ShippingAddress.LastName,
			Email:          r.ShippingAddress.Email,
			Phone:          r.ShippingAddress.Phone,
			Street:         r.ShippingAddress.Street,
			City:           r.ShippingAddress.City,
			PostalCode:     r.ShippingAddress.PostalCode,
			Country:        r.ShippingAddress.Country,
			DeliverySlot:   r.ShippingAddress.DeliverySlot,
			CollectionSlot: r.ShippingAddress.CollectionSlot,
			Notes:          r.ShippingAddress.Notes,
		},
		PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
		InvoiceType:   invoiceType,
		BankDetails:   r.BankDetails,
	}, nil
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

type bookingItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	TotalDays int    `json:"total_days"`
	DailyRate int64  `json:"daily_rate_pence"`
	LineTotal int64  `json:"line_total_pence"`
}

type statusChangeResponse struct {
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
	ChangedBy string    `json:"changed_by"`
	Notes     string    `json:"notes,omitempty"`
}

type bookingResponse struct {
	ID                 string                 `json:"id"`
	Number             string                 `json:"number"`
	Status             string                 `json:"status"`
	Items              []bookingItemResponse  `json:"items"`
	PaymentMethod      string                 `json:"payment_method"`
	PaymentStatus      string                 `json:"payment_status"`
	Subtotal           int64                  `json:"subtotal_pence"`
	Tax                int64                  `json:"tax_pence"`
	DeliveryFee        int64                  `json:"delivery_fee_pence"`
	CollectionFee      int64                  `json:"collection_fee_pence"`
	Total              int64                  `json:"total_pence"`
	History            []statusChangeResponse `json:"history"`
	CancellationReason string                 `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
}

func toBookingResponse(b domain.Booking) bookingResponse {
	items := make([]bookingItemResponse, 0, len(b.Items))
	for _, item := range b.Items {
		items = append(items, bookingItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			StartDate: item.StartDate.Format(dateLayout),
			EndDate:   item.EndDate.Format(dateLayout),
			TotalDays: item.TotalDays,
			DailyRate: item.DailyRate,
			LineTotal: item.LineTotal,
		})
	}
	history := make([]statusChangeResponse, 0, len(b.History))
	for _, change := range b.History {
		history = append(history, statusChangeResponse{
			Status:    string(change.Status),
			ChangedAt: change.ChangedAt,
			ChangedBy: change.ChangedBy,
			Notes:     change.Notes,
		})
	}
	return bookingResponse{
		ID:                 b.ID,
		Number:             b.Number,
		Status:             string(b.Status),
		Items:              items,
		PaymentMethod:      string(b.Payment.Method),
		PaymentStatus:      string(b.Payment.Status),
		Subtotal:           b.Subtotal,
		Tax:                b.Tax,
		DeliveryFee:        b.DeliveryFee,
		CollectionFee:      b.CollectionFee,
		Total:              b.Total,
		History:            history,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
	}
}
