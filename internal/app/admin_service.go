package app

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bouncehire/rentals/internal/domain"
)

// UnitWriter is the store slice behind admin stock management.
type UnitWriter interface {
	CreateUnit(ctx context.Context, unit domain.InventoryUnit) error
	ListUnits(ctx context.Context, productID string) ([]domain.InventoryUnit, error)
	UpdateUnitStatus(ctx context.Context, unitID string, status domain.UnitStatus) error
}

type ProductWriter interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product) error
}

// AdminService covers stock entry and product setup.
type AdminService struct {
	units    UnitWriter
	products ProductWriter
	logger   zerolog.Logger
}

func NewAdminService(units UnitWriter, products ProductWriter, logger zerolog.Logger) *AdminService {
	return &AdminService{units: units, products: products, logger: logger}
}

type CreateUnitInput struct {
	ProductID string
	Warehouse string
	Vendor    string
	Quantity  int
	RentalFee int64
	Status    domain.UnitStatus
}

func (s *AdminService) CreateUnit(ctx context.Context, in CreateUnitInput) (domain.InventoryUnit, error) {
	if in.Quantity <= 0 {
		return domain.InventoryUnit{}, domain.ErrInvalidQuantity
	}
	if in.Status == "" {
		in.Status = domain.UnitStatusAvailable
	}
	if !in.Status.Valid() {
		return domain.InventoryUnit{}, domain.ErrInvalidUnitStatus
	}
	if _, err := s.products.GetProduct(ctx, in.ProductID); err != nil {
		return domain.InventoryUnit{}, err
	}

	unit := domain.InventoryUnit{
		ID:        uuid.NewString(),
		ProductID: in.ProductID,
		Warehouse: in.Warehouse,
		Vendor:    in.Vendor,
		Quantity:  in.Quantity,
		RentalFee: in.RentalFee,
		Status:    in.Status,
	}
	if err := s.units.CreateUnit(ctx, unit); err != nil {
		return domain.InventoryUnit{}, err
	}

	s.logger.Info().
		Str("unit_id", unit.ID).
		Str("product_id", unit.ProductID).
		Int("quantity", unit.Quantity).
		Msg("inventory unit created")
	return unit, nil
}

func (s *AdminService) ListUnits(ctx context.Context, productID string) ([]domain.InventoryUnit, error) {
	return s.units.ListUnits(ctx, productID)
}

// SetUnitStatus moves a unit in or out of service, for maintenance or
// stock write-offs.
func (s *AdminService) SetUnitStatus(ctx context.Context, unitID string, status domain.UnitStatus) error {
	if !status.Valid() {
		return domain.ErrInvalidUnitStatus
	}
	return s.units.UpdateUnitStatus(ctx, unitID, status)
}

type CreateProductInput struct {
	Name      string
	DailyRate int64
}

func (s *AdminService) CreateProduct(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Product{}, domain.ErrProductNameRequired
	}
	if in.DailyRate < 0 {
		return domain.Product{}, domain.ErrInvalidRate
	}

	product := domain.Product{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		DailyRate: in.DailyRate,
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}
