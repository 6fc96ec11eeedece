package models

import "github.com/shopspring/decimal"

// SizeVariant is one selectable size for a category key.
type SizeVariant struct {
	ID            string          `json:"id"`
	Label         string          `json:"label"`
	Dimensions    string          `json:"dimensions"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
}

// SizeChart maps a category key (subcategory or product name) to its
// ordered variants.
type SizeChart map[string][]SizeVariant

// PricedSizeVariant is a variant with the resolved price for one product.
type PricedSizeVariant struct {
	SizeVariant
	Price decimal.Decimal `json:"price"`
}

// SizeConfiguration is the row form of one variant.
type SizeConfiguration struct {
	ID            uint            `gorm:"primaryKey"`
	CategoryName  string          `gorm:"not null;uniqueIndex:idx_size_category_size"`
	SizeID        string          `gorm:"not null;uniqueIndex:idx_size_category_size"`
	SizeLabel     string          `gorm:"not null"`
	Dimensions    string
	PriceModifier decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Position      int             `gorm:"not null"`
}

func (SizeConfiguration) TableName() string {
	return "size_configurations"
}
