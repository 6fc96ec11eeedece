package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kvishal2109/magicofresinn/internal/models"
)

// SizeRepository persists size_configurations rows.
type SizeRepository struct {
	db *gorm.DB
}

func NewSizeRepository(db *gorm.DB) *SizeRepository {
	return &SizeRepository{db: db}
}

// All returns rows ordered by category, modifier and insertion position.
func (r *SizeRepository) All(ctx context.Context) ([]models.SizeConfiguration, error) {
	var rows []models.SizeConfiguration
	err := r.db.WithContext(ctx).
		Order("category_name asc").
		Order("price_modifier asc").
		Order("position asc").
		Order("id asc").
		Find(&rows).Error
	return rows, translate("select size configurations", "size configuration", err)
}

// ReplaceAll swaps the whole table inside one transaction, so readers never
// observe the empty intermediate state.
func (r *SizeRepository) ReplaceAll(ctx context.Context, rows []models.SizeConfiguration) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.SizeConfiguration{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 200).Error
	})
	return translate("replace size configurations", "size configuration", err)
}
