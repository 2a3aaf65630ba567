package dto

import "github.com/shopspring/decimal"

type ProductRequest struct {
	Name        string          `json:"name" validate:"required,notblank,max=255"`
	Stock       *int            `json:"stock" validate:"required,min=0,max=2147483647"`
	Description string          `json:"description" validate:"required,notblank"`
	Price       decimal.Decimal `json:"price" validate:"required,gt=0,lte=9999999999.99,decimal2"`
}

// UpdateProductRequest replaces description, stock and price. All three are
// required; there is no partial update.
type UpdateProductRequest struct {
	Description string          `json:"description" validate:"required,notblank"`
	Stock       *int            `json:"stock" validate:"required,min=0,max=2147483647"`
	Price       decimal.Decimal `json:"price" validate:"required,gt=0,lte=9999999999.99,decimal2"`
}
