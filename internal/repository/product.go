package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kvishal2109/magicofresinn/internal/apperr"
	"github.com/kvishal2109/magicofresinn/internal/models"
)

// ProductRepository persists catalog products.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&products).Error
	return products, translate("select products", "product", err)
}

func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("LOWER(category) = LOWER(?)", category).
		Order("created_at desc").
		Find(&products).Error
	return products, translate("select products by category", "product", err)
}

func (r *ProductRepository) ListByCatalog(ctx context.Context, catalogID string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("catalog_id = ?", catalogID).
		Order("created_at desc").
		Find(&products).Error
	return products, translate("select products by catalog", "product", err)
}

// Search matches name and description case-insensitively.
func (r *ProductRepository) Search(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		q := "%" + s + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", q, q)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate("count products", "product", err)
	}

	var products []models.Product
	if err := query.Order("created_at desc").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&products).Error; err != nil {
		return nil, 0, translate("search products", "product", err)
	}

	return products, total, nil
}

// ListBySizeKeys returns products whose size key (subcategory, else name) is
// one of keys.
func (r *ProductRepository) ListBySizeKeys(ctx context.Context, keys []string) ([]models.Product, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("(COALESCE(TRIM(subcategory), '') <> '' AND subcategory IN ?) OR (COALESCE(TRIM(subcategory), '') = '' AND name IN ?)", keys, keys).
		Find(&products).Error
	return products, translate("select products by size key", "product", err)
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate("select product", "product", err)
	}
	return &product, nil
}

func (r *ProductRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error
	return count > 0, translate("count product", "product", err)
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return translate("insert product", "product", r.db.WithContext(ctx).Create(product).Error)
}

// Update applies column updates and returns the stored row.
func (r *ProductRepository) Update(ctx context.Context, id string, updates map[string]any) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&product, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate("update product", "product", err)
	}
	return &product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return translate("delete product", "product", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("product")
	}
	return nil
}

// BulkUpdatePrices applies every update or none of them.
func (r *ProductRepository) BulkUpdatePrices(ctx context.Context, updates []models.PriceUpdate) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			cols := map[string]any{"price": u.Price}
			if u.OriginalPrice != nil {
				cols["original_price"] = *u.OriginalPrice
			}
			if u.Discount != nil {
				cols["discount"] = *u.Discount
			}
			if err := updateOne(tx, u.ProductID, cols); err != nil {
				return err
			}
		}
		return nil
	})
	return translate("bulk update prices", "product", err)
}

// BulkUpdateInventory applies every update or none of them.
func (r *ProductRepository) BulkUpdateInventory(ctx context.Context, updates []models.InventoryUpdate) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			cols := map[string]any{"in_stock": u.InStock}
			if u.Stock != nil {
				cols["stock"] = *u.Stock
			}
			if err := updateOne(tx, u.ProductID, cols); err != nil {
				return err
			}
		}
		return nil
	})
	return translate("bulk update inventory", "product", err)
}

func updateOne(tx *gorm.DB, id string, cols map[string]any) error {
	res := tx.Model(&models.Product{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("product " + id)
	}
	return nil
}

// RenameCategory rewrites the category of every product tagged old.
func (r *ProductRepository) RenameCategory(ctx context.Context, oldName, newName string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("category = ?", oldName).
		Updates(map[string]any{"category": newName})
	return res.RowsAffected, translate("rename category", "category", res.Error)
}

// DeleteCategory removes every product whose category matches
// case-insensitively.
func (r *ProductRepository) DeleteCategory(ctx context.Context, category string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("category ILIKE ?", escapeLike(category)).
		Delete(&models.Product{})
	return res.RowsAffected, translate("delete category", "category", res.Error)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Upsert inserts product or overwrites the row with the same id.
func (r *ProductRepository) Upsert(ctx context.Context, product *models.Product) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(product).Error
	return translate("upsert product", "product", err)
}
