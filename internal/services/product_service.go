package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"souq/internal/apperr"
	"souq/internal/models"
	"souq/internal/pricing"
	"souq/internal/repositories"
)

// ProductService handles business logic related to products.
type ProductService struct {
	store repositories.Store
	clock func() time.Time
}

// NewProductService creates a new ProductService.
func NewProductService(store repositories.Store, clock func() time.Time) *ProductService {
	if clock == nil {
		clock = time.Now
	}
	return &ProductService{
		store: store,
		clock: clock,
	}
}

// ProductView is a product together with the price that currently applies.
type ProductView struct {
	models.Product
	EffectivePrice decimal.Decimal `json:"effective_price"`
	OnSpot         bool            `json:"on_spot"`
}

// GetAll retrieves all products with their effective prices resolved against
// the current Spot Mode state.
func (s *ProductService) GetAll() ([]ProductView, error) {
	products, err := s.store.Products().GetAll()
	if err != nil {
		return nil, err
	}
	spotActive, err := spotModeActive(s.store, s.clock())
	if err != nil {
		return nil, err
	}

	views := make([]ProductView, 0, len(products))
	for i := range products {
		views = append(views, ProductView{
			Product:        products[i],
			EffectivePrice: pricing.Resolve(&products[i], spotActive),
			OnSpot:         spotActive && products[i].SpotPrice.Valid,
		})
	}
	return views, nil
}

// GetByID retrieves a single product with its effective price.
func (s *ProductService) GetByID(id string) (*ProductView, error) {
	product, err := s.store.Products().GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("product %s not found", id)
		}
		return nil, err
	}
	spotActive, err := spotModeActive(s.store, s.clock())
	if err != nil {
		return nil, err
	}
	return &ProductView{
		Product:        *product,
		EffectivePrice: pricing.Resolve(product, spotActive),
		OnSpot:         spotActive && product.SpotPrice.Valid,
	}, nil
}

// Create creates a new product.
func (s *ProductService) Create(product *models.Product) error {
	if product.RegularPrice.LessThanOrEqual(decimal.Zero) {
		return apperr.Validation("regular price must be greater than 0")
	}
	if product.SpotPrice.Valid && product.SpotPrice.Decimal.LessThanOrEqual(decimal.Zero) {
		return apperr.Validation("spot price must be greater than 0 when set")
	}
	if product.Stock < 0 {
		return apperr.Validation("stock cannot be negative")
	}
	return s.store.Products().Create(product)
}

// Update updates an existing product.
func (s *ProductService) Update(product *models.Product) error {
	if product.RegularPrice.LessThanOrEqual(decimal.Zero) {
		return apperr.Validation("regular price must be greater than 0")
	}
	if product.Stock < 0 {
		return apperr.Validation("stock cannot be negative")
	}
	err := s.store.Products().Update(product)
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("product %s not found", product.ID)
	}
	return err
}

// Delete soft-deletes a product. Existing order history keeps referencing
// it; open carts lose the line at the next repricing sweep.
func (s *ProductService) Delete(id string) error {
	err := s.store.Products().Delete(id)
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("product %s not found", id)
	}
	return err
}

// Restore brings a soft-deleted product back.
func (s *ProductService) Restore(id string) error {
	err := s.store.Products().Restore(id)
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("product %s not found", id)
	}
	return err
}
