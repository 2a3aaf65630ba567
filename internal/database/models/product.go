package models

import "github.com/shopspring/decimal"

type Product struct {
	Base
	Name        string          `gorm:"uniqueIndex;not null" json:"name"`
	Stock       int             `gorm:"not null" json:"stock"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
}

func (Product) TableName() string {
	return "products"
}
