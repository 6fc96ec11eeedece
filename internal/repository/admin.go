package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kvishal2109/magicofresinn/internal/models"
)

// AdminRepository stores the admin password hash.
type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// PasswordHash returns the most recent hash, or NotFound when none is stored.
func (r *AdminRepository) PasswordHash(ctx context.Context) (string, error) {
	var row models.AdminAuth
	if err := r.db.WithContext(ctx).Order("updated_at desc").First(&row).Error; err != nil {
		return "", translate("select admin password", "admin password", err)
	}
	return row.PasswordHash, nil
}

func (r *AdminRepository) SetPasswordHash(ctx context.Context, hash string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.AdminAuth
		err := tx.Order("updated_at desc").First(&row).Error
		if err == gorm.ErrRecordNotFound {
			return tx.Create(&models.AdminAuth{PasswordHash: hash}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&row).Update("password_hash", hash).Error
	})
	return translate("save admin password", "admin password", err)
}
