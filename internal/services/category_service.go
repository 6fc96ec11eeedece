package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kvishal2109/magicofresinn/internal/apperr"
	"github.com/kvishal2109/magicofresinn/internal/cache"
	"github.com/kvishal2109/magicofresinn/internal/models"
)

const categoriesCacheKey = "categories_metadata"

type CategoryRepository interface {
	All(ctx context.Context) ([]models.CategoryMetadata, error)
	ReplaceAll(ctx context.Context, rows []models.CategoryMetadata) error
	SetImage(ctx context.Context, category string, subcategory, image *string) error
}

// CategoryService manages category and subcategory display images.
type CategoryService struct {
	repo  CategoryRepository
	cache cache.Store
}

func NewCategoryService(repo CategoryRepository, store cache.Store) *CategoryService {
	return &CategoryService{repo: repo, cache: store}
}

// GetMetadata never fails; a store error yields empty maps.
func (s *CategoryService) GetMetadata(ctx context.Context) models.CategoriesMetadata {
	var meta models.CategoriesMetadata
	if hit, err := s.cache.Get(ctx, categoriesCacheKey, &meta); err != nil {
		log.Warn().Err(err).Msg("categories: cache read failed")
	} else if hit && meta.Categories != nil && meta.Subcategories != nil {
		return meta
	}

	rows, err := s.repo.All(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("categories: store unavailable, serving empty metadata")
		return emptyMetadata()
	}

	meta = metadataFromRows(rows)
	if err := s.cache.Set(ctx, categoriesCacheKey, meta); err != nil {
		log.Warn().Err(err).Msg("categories: cache write failed")
	}
	return meta
}

func (s *CategoryService) ReplaceMetadata(ctx context.Context, meta models.CategoriesMetadata) error {
	rows, err := rowsFromMetadata(meta)
	if err != nil {
		return err
	}

	if err := s.repo.ReplaceAll(ctx, rows); err != nil {
		return fmt.Errorf("categories: replace metadata: %w", err)
	}
	s.invalidate(ctx)
	log.Info().Int("count", len(rows)).Msg("categories: metadata replaced")
	return nil
}

func (s *CategoryService) SetCategoryImage(ctx context.Context, category, url string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return apperr.Validation("category is required", "category")
	}

	if err := s.repo.SetImage(ctx, category, nil, optionalString(url)); err != nil {
		return fmt.Errorf("categories: set image for %q: %w", category, err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *CategoryService) SetSubcategoryImage(ctx context.Context, category, subcategory, url string) error {
	category, subcategory = strings.TrimSpace(category), strings.TrimSpace(subcategory)

	var missing []string
	if category == "" {
		missing = append(missing, "category")
	}
	if subcategory == "" {
		missing = append(missing, "subcategory")
	}
	if err := apperr.MissingFields(missing); err != nil {
		return err
	}

	if err := s.repo.SetImage(ctx, category, &subcategory, optionalString(url)); err != nil {
		return fmt.Errorf("categories: set image for %q: %w", models.SubcategoryKey(category, subcategory), err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *CategoryService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, categoriesCacheKey); err != nil {
		log.Warn().Err(err).Msg("categories: cache invalidation failed")
	}
}

func emptyMetadata() models.CategoriesMetadata {
	return models.CategoriesMetadata{
		Categories:    map[string]models.CategoryInfo{},
		Subcategories: map[string]models.SubcategoryInfo{},
	}
}

func metadataFromRows(rows []models.CategoryMetadata) models.CategoriesMetadata {
	meta := emptyMetadata()
	for _, row := range rows {
		image := ""
		if row.Image != nil {
			image = *row.Image
		}

		if row.SubcategoryName == nil || *row.SubcategoryName == "" {
			meta.Categories[row.CategoryName] = models.CategoryInfo{Name: row.CategoryName, Image: image}
			continue
		}
		key := models.SubcategoryKey(row.CategoryName, *row.SubcategoryName)
		meta.Subcategories[key] = models.SubcategoryInfo{
			CategoryName:    row.CategoryName,
			SubcategoryName: *row.SubcategoryName,
			Image:           image,
		}
	}
	return meta
}

func rowsFromMetadata(meta models.CategoriesMetadata) ([]models.CategoryMetadata, error) {
	var rows []models.CategoryMetadata
	var invalid []string

	names := make([]string, 0, len(meta.Categories))
	for key := range meta.Categories {
		names = append(names, key)
	}
	sort.Strings(names)
	for _, key := range names {
		info := meta.Categories[key]
		name := strings.TrimSpace(info.Name)
		if name == "" {
			name = strings.TrimSpace(key)
		}
		if name == "" {
			invalid = append(invalid, "categories."+key)
			continue
		}
		rows = append(rows, models.CategoryMetadata{CategoryName: name, Image: optionalString(info.Image)})
	}

	keys := make([]string, 0, len(meta.Subcategories))
	for key := range meta.Subcategories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		info := meta.Subcategories[key]
		category, subcategory := strings.TrimSpace(info.CategoryName), strings.TrimSpace(info.SubcategoryName)
		if category == "" || subcategory == "" {
			if c, s, ok := strings.Cut(key, "::"); ok {
				category, subcategory = firstNonEmpty(category, c), firstNonEmpty(subcategory, s)
			}
		}
		if category == "" || subcategory == "" {
			invalid = append(invalid, "subcategories."+key)
			continue
		}
		sub := subcategory
		rows = append(rows, models.CategoryMetadata{
			CategoryName:    category,
			SubcategoryName: &sub,
			Image:           optionalString(info.Image),
		})
	}

	if len(invalid) > 0 {
		return nil, apperr.Validation("invalid category metadata: "+strings.Join(invalid, ", "), invalid...)
	}
	return rows, nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
