package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hugh/go-storefront/internal/database/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product does not exist")
	ErrProductExists   = errors.New("product with given name exists")
)

// Catalog is the set of product operations the HTTP layer needs.
type Catalog interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id uint64) (*models.Product, error)
	Add(ctx context.Context, input AddInput) (*models.Product, error)
	Remove(ctx context.Context, id uint64) error
	Update(ctx context.Context, id uint64, input UpdateInput) error
}

var _ Catalog = (*Service)(nil)

type AddInput struct {
	Name        string
	Stock       int
	Description string
	Price       decimal.Decimal
}

// UpdateInput carries the columns an update may change. Name is fixed once
// a product exists.
type UpdateInput struct {
	Description string
	Stock       int
	Price       decimal.Decimal
}

// Service manages the product catalog
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
	}
}

// List returns every product ordered by id.
func (s *Service) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id uint64) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return &product, nil
}

// Add stores a new product. Names are unique; a concurrent insert that
// slips past the existence check is caught by the unique index.
func (s *Service) Add(ctx context.Context, input AddInput) (*models.Product, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("name = ?", input.Name).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking product name: %w", err)
	}
	if count > 0 {
		return nil, ErrProductExists
	}

	product := &models.Product{
		Name:        input.Name,
		Stock:       input.Stock,
		Description: input.Description,
		Price:       input.Price,
	}

	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProductExists
		}
		return nil, fmt.Errorf("saving product: %w", err)
	}

	s.logger.Info("product added", "id", product.ID, "name", product.Name)
	return product, nil
}

func (s *Service) Remove(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}

	s.logger.Info("product removed", "id", id)
	return nil
}

// Update overwrites description, stock and price. Concurrent updates are
// last-write-wins.
func (s *Service) Update(ctx context.Context, id uint64, input UpdateInput) error {
	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"description": input.Description,
			"stock":       input.Stock,
			"price":       input.Price,
		})
	if res.Error != nil {
		return fmt.Errorf("updating product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
