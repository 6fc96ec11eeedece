// Package pricing resolves size-variant prices and validates size charts.
package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kvishal2109/magicofresinn/internal/apperr"
	"github.com/kvishal2109/magicofresinn/internal/models"
)

// Resolve returns base + variant.PriceModifier.
func Resolve(base decimal.Decimal, variant models.SizeVariant) decimal.Decimal {
	return base.Add(variant.PriceModifier)
}

// SizeKeyFor returns the size chart key for a product: its subcategory when
// set, otherwise its name.
func SizeKeyFor(p models.Product) string {
	if s := strings.TrimSpace(p.Subcategory); s != "" {
		return p.Subcategory
	}
	return p.Name
}

// PricedVariants returns the product's variants from chart with their
// resolved prices. It returns nil when the product has no size chart.
func PricedVariants(p models.Product, chart models.SizeChart) []models.PricedSizeVariant {
	variants := chart[SizeKeyFor(p)]
	if len(variants) == 0 {
		return nil
	}

	priced := make([]models.PricedSizeVariant, 0, len(variants))
	for _, v := range variants {
		priced = append(priced, models.PricedSizeVariant{SizeVariant: v, Price: Resolve(p.Price, v)})
	}
	return priced
}

// FindVariant looks up a variant by id in the product's size chart.
func FindVariant(p models.Product, chart models.SizeChart, sizeID string) (models.SizeVariant, bool) {
	for _, v := range chart[SizeKeyFor(p)] {
		if v.ID == sizeID {
			return v, true
		}
	}
	return models.SizeVariant{}, false
}

// MinModifier returns the most negative modifier in variants, or zero.
func MinModifier(variants []models.SizeVariant) decimal.Decimal {
	lowest := decimal.Zero
	for _, v := range variants {
		if v.PriceModifier.LessThan(lowest) {
			lowest = v.PriceModifier
		}
	}
	return lowest
}

// CheckNonNegative reports a validation error when any variant would push
// base below zero.
func CheckNonNegative(base decimal.Decimal, variants []models.SizeVariant, field string) error {
	for _, v := range variants {
		if Resolve(base, v).IsNegative() {
			return apperr.Validation(
				fmt.Sprintf("size %q would resolve to a negative price (%s)", v.ID, Resolve(base, v).StringFixed(2)),
				field,
			)
		}
	}
	return nil
}

// ValidateChart checks keys, ids and labels. Variant ids must be unique
// within their key.
func ValidateChart(chart models.SizeChart) error {
	var fields []string

	keys := make([]string, 0, len(chart))
	for key := range chart {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			fields = append(fields, "category_name")
			continue
		}

		seen := make(map[string]bool, len(chart[key]))
		for i, v := range chart[key] {
			prefix := fmt.Sprintf("%s[%d]", key, i)
			if strings.TrimSpace(v.ID) == "" {
				fields = append(fields, prefix+".id")
			} else if seen[v.ID] {
				fields = append(fields, prefix+".id (duplicate)")
			}
			seen[v.ID] = true

			if strings.TrimSpace(v.Label) == "" {
				fields = append(fields, prefix+".label")
			}
		}
	}

	if len(fields) > 0 {
		return apperr.Validation("invalid size configuration: "+strings.Join(fields, ", "), fields...)
	}
	return nil
}
