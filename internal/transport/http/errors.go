package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed      = "method_not_allowed"
	codeNotFound              = "not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeInvalidDate           = "invalid_date"
	codeInvalidDateRange      = "invalid_date_range"
	codeInvalidQuantity       = "invalid_quantity"
	codeInvalidID             = "invalid_id"
	codeProductNotFound       = "product_not_found"
	codeUnitNotFound          = "unit_not_found"
	codeBookingNotFound       = "booking_not_found"
	codeEmptyCart             = "empty_cart"
	codeIncompleteAddress     = "incomplete_address"
	codeInvalidPayment        = "invalid_payment_method"
	codeBankDetailsMissing    = "bank_details_missing"
	codeInvalidSlot           = "invalid_slot"
	codeInvalidTransition     = "invalid_status_transition"
	codeInvalidStatus         = "invalid_status"
	codeProductNameRequired   = "product_name_required"
	codeInvalidRate           = "invalid_rate"
	codeInsufficientInventory = "insufficient_inventory"
	codeForbidden             = "forbidden"
	codeUnauthenticated       = "unauthenticated"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}
