package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kvishal2109/magicofresinn/internal/models"
)

// CategoryRepository persists categories_metadata rows.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) All(ctx context.Context) ([]models.CategoryMetadata, error) {
	var rows []models.CategoryMetadata
	err := r.db.WithContext(ctx).Order("id asc").Find(&rows).Error
	return rows, translate("select categories metadata", "category metadata", err)
}

func (r *CategoryRepository) ReplaceAll(ctx context.Context, rows []models.CategoryMetadata) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.CategoryMetadata{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	return translate("replace categories metadata", "category metadata", err)
}

// SetImage upserts the image of a category, or of a subcategory when
// subcategory is non-nil.
func (r *CategoryRepository) SetImage(ctx context.Context, category string, subcategory, image *string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("category_name = ?", category)
		if subcategory == nil {
			query = query.Where("subcategory_name IS NULL")
		} else {
			query = query.Where("subcategory_name = ?", *subcategory)
		}

		var existing models.CategoryMetadata
		err := query.First(&existing).Error
		switch {
		case err == nil:
			return tx.Model(&existing).Update("image", image).Error
		case err == gorm.ErrRecordNotFound:
			return tx.Create(&models.CategoryMetadata{
				CategoryName:    category,
				SubcategoryName: subcategory,
				Image:           image,
			}).Error
		default:
			return err
		}
	})
	return translate("set category image", "category metadata", err)
}
