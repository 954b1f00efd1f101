package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bouncehire/rentals/internal/app"
	"github.com/bouncehire/rentals/internal/domain"
)

const dateLayout = "2006-01-02"

// AvailabilityChecker is the minimal interface needed for availability
// lookups.
type AvailabilityChecker interface {
	Check(ctx context.Context, productID string, start, end time.Time, quantity int) (app.AvailabilityResult, error)
	Calendar(ctx context.Context, productID string, start, end time.Time, quantity int) ([]domain.DayQuantity, error)
}

// HandleAvailability returns an HTTP handler for point availability checks.
func HandleAvailability(svc AvailabilityChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		q, ok := parseAvailabilityQuery(w, r)
		if !ok {
			return
		}

		res, err := svc.Check(r.Context(), q.productID, q.start, q.end, q.quantity)
		if err != nil {
			writeAvailabilityError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(availabilityResponse{
			IsAvailable:       res.IsAvailable,
			AvailableQuantity: res.AvailableQuantity,
			Reason:            res.Reason,
		})
	}
}

// HandleAvailabilityCalendar returns an HTTP handler for the per-day
// calendar view.
func HandleAvailabilityCalendar(svc AvailabilityChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		q, ok := parseAvailabilityQuery(w, r)
		if !ok {
			return
		}

		days, err := svc.Calendar(r.Context(), q.productID, q.start, q.end, q.quantity)
		if err != nil {
			writeAvailabilityError(w, err)
			return
		}

		resp := make([]calendarDayResponse, 0, len(days))
		for _, d := range days {
			resp = append(resp, calendarDayResponse{
				Date:      d.Date.Format(dateLayout),
				Remaining: d.Remaining,
				Available: d.Available,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type availabilityQuery struct {
	productID  string
	start, end time.Time
	quantity   int
}

func parseAvailabilityQuery(w http.ResponseWriter, r *http.Request) (availabilityQuery, bool) {
	params := r.URL.Query()

	q := availabilityQuery{
		productID: params.Get("product_id"),
		quantity:  1,
	}
	if q.productID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidID, "product_id is required")
		return availabilityQuery{}, false
	}

	var err error
	q.start, err = time.Parse(dateLayout, params.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidDate, "start must be YYYY-MM-DD")
		return availabilityQuery{}, false
	}
	q.end, err = time.Parse(dateLayout, params.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidDate, "end must be YYYY-MM-DD")
		return availabilityQuery{}, false
	}

	if raw := params.Get("quantity"); raw != "" {
		q.quantity, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidQuantity, "quantity must be an integer")
			return availabilityQuery{}, false
		}
	}
	return q, true
}

func writeAvailabilityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, codeInvalidDateRange, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, codeProductNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

type availabilityResponse struct {
	IsAvailable       bool   `json:"is_available"`
	AvailableQuantity int    `json:"available_quantity"`
	Reason            string `json:"reason,omitempty"`
}

type calendarDayResponse struct {
	Date      string `json:"date"`
	Remaining int    `json:"remaining"`
	Available bool   `json:"available"`
}
