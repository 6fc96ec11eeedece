package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/kvishal2109/magicofresinn/internal/cache"
	"github.com/kvishal2109/magicofresinn/internal/models"
	"github.com/kvishal2109/magicofresinn/internal/pricing"
)

const sizeCacheKey = "size_configurations"

type SizeRepository interface {
	All(ctx context.Context) ([]models.SizeConfiguration, error)
	ReplaceAll(ctx context.Context, rows []models.SizeConfiguration) error
}

// SizeKeyProducts finds products by their size chart key.
type SizeKeyProducts interface {
	ListBySizeKeys(ctx context.Context, keys []string) ([]models.Product, error)
}

// SizeService owns the size configuration: category key to ordered variants.
type SizeService struct {
	repo     SizeRepository
	products SizeKeyProducts
	cache    cache.Store
}

func NewSizeService(repo SizeRepository, products SizeKeyProducts, store cache.Store) *SizeService {
	return &SizeService{repo: repo, products: products, cache: store}
}

// Get returns the size chart. Store failures degrade to an empty chart.
func (s *SizeService) Get(ctx context.Context) models.SizeChart {
	var chart models.SizeChart
	if hit, err := s.cache.Get(ctx, sizeCacheKey, &chart); err != nil {
		log.Warn().Err(err).Msg("sizes: cache read failed")
	} else if hit && chart != nil {
		return chart
	}

	rows, err := s.repo.All(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("sizes: store unavailable, serving empty size chart")
		return models.SizeChart{}
	}

	chart = chartFromRows(rows)
	if err := s.cache.Set(ctx, sizeCacheKey, chart); err != nil {
		log.Warn().Err(err).Msg("sizes: cache write failed")
	}
	return chart
}

// ReplaceAll validates and stores chart as the complete configuration.
func (s *SizeService) ReplaceAll(ctx context.Context, chart models.SizeChart) error {
	if err := pricing.ValidateChart(chart); err != nil {
		return err
	}
	if err := s.checkResolvedPrices(ctx, chart); err != nil {
		return err
	}

	if err := s.repo.ReplaceAll(ctx, rowsFromChart(chart)); err != nil {
		return fmt.Errorf("sizes: replace configuration: %w", err)
	}

	s.invalidate(ctx)
	log.Info().Int("categories", len(chart)).Msg("sizes: configuration replaced")
	return nil
}

func (s *SizeService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, sizeCacheKey); err != nil {
		log.Warn().Err(err).Msg("sizes: cache invalidation failed")
	}
}

// checkResolvedPrices rejects negative modifiers that would push an existing
// product below zero.
func (s *SizeService) checkResolvedPrices(ctx context.Context, chart models.SizeChart) error {
	var keys []string
	for key, variants := range chart {
		if pricing.MinModifier(variants).IsNegative() {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	products, err := s.products.ListBySizeKeys(ctx, keys)
	if err != nil {
		return fmt.Errorf("sizes: load products for price check: %w", err)
	}

	for _, p := range products {
		key := pricing.SizeKeyFor(p)
		field := fmt.Sprintf("%s.price_modifier", key)
		if err := pricing.CheckNonNegative(p.Price, chart[key], field); err != nil {
			return fmt.Errorf("product %s: %w", p.ID, err)
		}
	}
	return nil
}

func chartFromRows(rows []models.SizeConfiguration) models.SizeChart {
	type positioned struct {
		models.SizeVariant
		position int
		id       uint
	}

	grouped := make(map[string][]positioned)
	for _, row := range rows {
		grouped[row.CategoryName] = append(grouped[row.CategoryName], positioned{
			SizeVariant: models.SizeVariant{
				ID:            row.SizeID,
				Label:         row.SizeLabel,
				Dimensions:    row.Dimensions,
				PriceModifier: row.PriceModifier,
			},
			position: row.Position,
			id:       row.ID,
		})
	}

	chart := make(models.SizeChart, len(grouped))
	for key, list := range grouped {
		sort.SliceStable(list, func(i, j int) bool {
			if c := list[i].PriceModifier.Cmp(list[j].PriceModifier); c != 0 {
				return c < 0
			}
			if list[i].position != list[j].position {
				return list[i].position < list[j].position
			}
			return list[i].id < list[j].id
		})
		variants := make([]models.SizeVariant, len(list))
		for i, p := range list {
			variants[i] = p.SizeVariant
		}
		chart[key] = variants
	}
	return chart
}

func rowsFromChart(chart models.SizeChart) []models.SizeConfiguration {
	keys := make([]string, 0, len(chart))
	for key := range chart {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var rows []models.SizeConfiguration
	for _, key := range keys {
		for i, v := range chart[key] {
			rows = append(rows, models.SizeConfiguration{
				CategoryName:  key,
				SizeID:        v.ID,
				SizeLabel:     v.Label,
				Dimensions:    v.Dimensions,
				PriceModifier: v.PriceModifier.Round(2),
				Position:      i,
			})
		}
	}
	return rows
}
