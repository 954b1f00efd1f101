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

// AdminStockService is the minimal interface needed for admin stock
// endpoints.
type AdminStockService interface {
	CreateUnit(ctx context.Context, in app.CreateUnitInput) (domain.InventoryUnit, error)
	ListUnits(ctx context.Context, productID string) ([]domain.InventoryUnit, error)
	SetUnitStatus(ctx context.Context, unitID string, status domain.UnitStatus) error
}

// AdminProductService is the minimal interface needed for admin product
// endpoints.
type AdminProductService interface {
	CreateProduct(ctx context.Context, in app.CreateProductInput) (domain.Product, error)
}

// HandleAdminUnits returns an HTTP handler for stock entry and listing.
func HandleAdminUnits(svc AdminStockService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			productID := r.URL.Query().Get("product_id")
			if productID == "" {
				writeError(w, http.StatusBadRequest, codeInvalidID, "product_id is required")
				return
			}
			units, err := svc.ListUnits(r.Context(), productID)
			if err != nil {
				writeAdminError(w, err)
				return
			}
			resp := make([]unitResponse, 0, len(units))
			for _, u := range units {
				resp = append(resp, toUnitResponse(u))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)

		case http.MethodPost:
			var req createUnitRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			unit, err := svc.CreateUnit(r.Context(), app.CreateUnitInput{
				ProductID: req.ProductID,
				Warehouse: req.Warehouse,
				Vendor:    req.Vendor,
				Quantity:  req.Quantity,
				RentalFee: req.RentalFee,
				Status:    domain.UnitStatus(req.Status),
			})
			if err != nil {
				writeAdminError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(toUnitResponse(unit))

		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleAdminUnitStatus returns an HTTP handler for PATCH
// /admin/units/{id}/status.
func HandleAdminUnitStatus(svc AdminStockService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID, ok := parseAdminUnitStatusPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		if r.Method != http.MethodPatch {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req updateUnitStatusRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		if err := svc.SetUnitStatus(r.Context(), unitID, domain.UnitStatus(req.Status)); err != nil {
			writeAdminError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleAdminProducts returns an HTTP handler for product creation.
func HandleAdminProducts(svc AdminProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createProductRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		product, err := svc.CreateProduct(r.Context(), app.CreateProductInput{
			Name:      req.Name,
			DailyRate: req.DailyRate,
		})
		if err != nil {
			writeAdminError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(productResponse{
			ID:        product.ID,
			Name:      product.Name,
			DailyRate: product.DailyRate,
		})
	}
}

func parseAdminUnitStatusPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 || parts[0] != "admin" || parts[1] != "units" || parts[3] != "status" {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

func writeAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrInvalidUnitStatus):
		writeError(w, http.StatusBadRequest, codeInvalidStatus, err.Error())
	case errors.Is(err, domain.ErrProductNameRequired):
		writeError(w, http.StatusBadRequest, codeProductNameRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidRate):
		writeError(w, http.StatusBadRequest, codeInvalidRate, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, codeProductNotFound, err.Error())
	case errors.Is(err, domain.ErrUnitNotFound):
		writeError(w, http.StatusNotFound, codeUnitNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

type createUnitRequest struct {
	ProductID string `json:"product_id"`
	Warehouse string `json:"warehouse,omitempty"`
	Vendor    string `json:"vendor,omitempty"`
	Quantity  int    `json:"quantity"`
	RentalFee int64  `json:"rental_fee_pence,omitempty"`
	Status    string `json:"status,omitempty"`
}

type updateUnitStatusRequest struct {
	Status string `json:"status"`
}

type createProductRequest struct {
	Name      string `json:"name"`
	DailyRate int64  `json:"daily_rate_pence"`
}

type productResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DailyRate int64  `json:"daily_rate_pence"`
}

type reservationResponse struct {
	ID        string `json:"id"`
	BookingID string `json:"booking_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type unitResponse struct {
	ID           string                `json:"id"`
	ProductID    string                `json:"product_id"`
	Warehouse    string                `json:"warehouse,omitempty"`
	Vendor       string                `json:"vendor,omitempty"`
	Quantity     int                   `json:"quantity"`
	RentalFee    int64                 `json:"rental_fee_pence"`
	Status       string                `json:"status"`
	Reservations []reservationResponse `json:"reservations"`
	CreatedAt    time.Time             `json:"created_at"`
}

func toUnitResponse(u domain.InventoryUnit) unitResponse {
	reservations := make([]reservationResponse, 0, len(u.Reservations))
	for _, res := range u.Reservations {
		reservations = append(reservations, reservationResponse{
			ID:        res.ID,
			BookingID: res.BookingID,
			StartDate: res.StartDate.Format(dateLayout),
			EndDate:   res.EndDate.Format(dateLayout),
		})
	}
	return unitResponse{
		ID:           u.ID,
		ProductID:    u.ProductID,
		Warehouse:    u.Warehouse,
		Vendor:       u.Vendor,
		Quantity:     u.Quantity,
		RentalFee:    u.RentalFee,
		Status:       string(u.Status),
		Reservations: reservations,
		CreatedAt:    u.CreatedAt,
	}
}
