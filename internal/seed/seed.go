// Package seed loads the fallback catalog served when the product store is
// unreachable or incomplete.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/kvishal2109/magicofresinn/internal/models"
)

//go:embed fallback_catalog.yaml
var defaultCatalog []byte

const defaultMinProducts = 10

var defaultRequiredCategories = []string{"Wedding", "Jewellery", "Home Decor", "Furniture"}

// Catalog is the fallback data set plus the thresholds that decide when it
// is merged into store results.
type Catalog struct {
	MinProducts        int
	RequiredCategories []string
	Products           []models.Product
}

type fileCatalog struct {
	MinProducts        int           `yaml:"min_products"`
	RequiredCategories []string      `yaml:"required_categories"`
	Products           []fileProduct `yaml:"products"`
}

type fileProduct struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Price         float64  `yaml:"price"`
	OriginalPrice *float64 `yaml:"original_price"`
	Discount      *float64 `yaml:"discount"`
	Image         string   `yaml:"image"`
	Images        []string `yaml:"images"`
	Category      string   `yaml:"category"`
	Subcategory   string   `yaml:"subcategory"`
	InStock       *bool    `yaml:"in_stock"`
	Stock         *int     `yaml:"stock"`
	CatalogID     string   `yaml:"catalog_id"`
	CatalogName   string   `yaml:"catalog_name"`
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("seed: read %s: %w", path, err)
		}
		data = raw
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var fc fileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("seed: decode catalog: %w", err)
	}

	cat := &Catalog{
		MinProducts:        fc.MinProducts,
		RequiredCategories: fc.RequiredCategories,
		Products:           make([]models.Product, 0, len(fc.Products)),
	}
	if cat.MinProducts <= 0 {
		cat.MinProducts = defaultMinProducts
	}
	if len(cat.RequiredCategories) == 0 {
		cat.RequiredCategories = append([]string(nil), defaultRequiredCategories...)
	}

	// Fallback entries get a stable creation time so store rows sort first.
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seen := make(map[string]bool, len(fc.Products))

	for i, fp := range fc.Products {
		if err := fp.validate(); err != nil {
			return nil, fmt.Errorf("seed: product %d: %w", i, err)
		}
		if seen[fp.ID] {
			return nil, fmt.Errorf("seed: product %d: duplicate id %q", i, fp.ID)
		}
		seen[fp.ID] = true

		cat.Products = append(cat.Products, fp.toModel(created))
	}

	return cat, nil
}

func (fp fileProduct) validate() error {
	var missing []string
	if strings.TrimSpace(fp.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(fp.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(fp.Category) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(fp.Image) == "" {
		missing = append(missing, "image")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	if fp.Price < 0 {
		return fmt.Errorf("negative price %v", fp.Price)
	}
	return nil
}

func (fp fileProduct) toModel(created time.Time) models.Product {
	p := models.Product{
		BaseModel:   models.BaseModel{ID: fp.ID, CreatedAt: created, UpdatedAt: created},
		Name:        fp.Name,
		Description: fp.Description,
		Price:       money(fp.Price),
		Image:       fp.Image,
		Images:      pq.StringArray(fp.Images),
		Category:    fp.Category,
		Subcategory: fp.Subcategory,
		InStock:     true,
		Stock:       fp.Stock,
		CatalogID:   fp.CatalogID,
		CatalogName: fp.CatalogName,
	}
	if p.Images == nil {
		p.Images = pq.StringArray{}
	}
	if fp.InStock != nil {
		p.InStock = *fp.InStock
	}
	if fp.OriginalPrice != nil {
		v := money(*fp.OriginalPrice)
		p.OriginalPrice = &v
	}
	if fp.Discount != nil {
		v := money(*fp.Discount)
		p.Discount = &v
	}
	return p
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Find returns the fallback product with id.
func (c *Catalog) Find(id string) (models.Product, bool) {
	for _, p := range c.Products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// Clone returns a copy of the products safe for callers to modify.
func (c *Catalog) Clone() []models.Product {
	out := make([]models.Product, len(c.Products))
	copy(out, c.Products)
	for i := range out {
		out[i].Images = append(pq.StringArray{}, out[i].Images...)
	}
	return out
}
