package models

import (
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Orders copy its fields at checkout and never
// reference the row afterwards.
type Product struct {
	BaseModel
	Name          string           `gorm:"not null" json:"name"`
	Description   string           `gorm:"type:text" json:"description"`
	Price         decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"price"`
	OriginalPrice *decimal.Decimal `gorm:"type:numeric(12,2)" json:"original_price,omitempty"`
	Discount      *decimal.Decimal `gorm:"type:numeric(5,2)" json:"discount,omitempty"`
	Image         string           `json:"image"`
	Images        pq.StringArray   `gorm:"type:text[]" json:"images"`
	Category      string           `gorm:"index;not null" json:"category"`
	Subcategory   string           `gorm:"index" json:"subcategory,omitempty"`
	InStock       bool             `gorm:"not null" json:"in_stock"`
	Stock         *int             `json:"stock,omitempty"`
	CatalogID     string           `gorm:"index" json:"catalog_id,omitempty"`
	CatalogName   string           `json:"catalog_name,omitempty"`
}

// CategoryMetadata stores display images for categories and subcategories.
// Rows with a nil SubcategoryName describe the top-level category.
type CategoryMetadata struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	CategoryName    string  `gorm:"index;not null" json:"category_name"`
	SubcategoryName *string `json:"subcategory_name,omitempty"`
	Image           *string `json:"image,omitempty"`
}

func (CategoryMetadata) TableName() string {
	return "categories_metadata"
}

// CategoryInfo is the API shape of a top-level category entry.
type CategoryInfo struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// SubcategoryInfo is the API shape of a subcategory entry.
type SubcategoryInfo struct {
	CategoryName    string `json:"categoryName"`
	SubcategoryName string `json:"subcategoryName"`
	Image           string `json:"image,omitempty"`
}

// CategoriesMetadata groups category images by name and subcategory images
// by "category::subcategory".
type CategoriesMetadata struct {
	Categories    map[string]CategoryInfo    `json:"categories"`
	Subcategories map[string]SubcategoryInfo `json:"subcategories"`
}

func SubcategoryKey(category, subcategory string) string {
	return category + "::" + subcategory
}

// PriceUpdate is one entry of a bulk price change.
type PriceUpdate struct {
	ProductID     string           `json:"product_id"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
}

// InventoryUpdate is one entry of a bulk stock change.
type InventoryUpdate struct {
	ProductID string `json:"product_id"`
	InStock   bool   `json:"in_stock"`
	Stock     *int   `json:"stock,omitempty"`
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	Search string
	Limit  int
	Offset int
}
