package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvishal2109/magicofresinn/internal/apperr"
	"github.com/kvishal2109/magicofresinn/internal/models"
)

func variant(id string, modifier string) models.SizeVariant {
	return models.SizeVariant{ID: id, Label: id, PriceModifier: decimal.RequireFromString(modifier)}
}

func TestResolveWallClockScenario(t *testing.T) {
	chart := models.SizeChart{
		"Wall Clocks": {
			{ID: "s", Label: "S", Dimensions: "25x25 cm", PriceModifier: decimal.Zero},
			{ID: "m", Label: "M", Dimensions: "35x35 cm", PriceModifier: decimal.NewFromInt(300)},
		},
	}
	clock := models.Product{Name: "Ocean Clock", Subcategory: "Wall Clocks", Price: decimal.NewFromInt(999)}

	v, ok := FindVariant(clock, chart, "m")
	require.True(t, ok)
	assert.True(t, Resolve(clock.Price, v).Equal(decimal.NewFromInt(1299)))
}

func TestResolveHasNoRoundingDrift(t *testing.T) {
	tests := []struct {
		base, modifier, want string
	}{
		{"0.10", "0.20", "0.30"},
		{"1999.99", "0.01", "2000.00"},
		{"499.95", "-100.05", "399.90"},
		{"1200", "-1500", "-300"},
		{"0", "0", "0"},
	}

	for _, tt := range tests {
		got := Resolve(decimal.RequireFromString(tt.base), variant("x", tt.modifier))
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%s + %s = %s", tt.base, tt.modifier, got)
	}
}

func TestSizeKeyFor(t *testing.T) {
	tests := []struct {
		name    string
		product models.Product
		want    string
	}{
		{"subcategory wins", models.Product{Name: "Wall Clocks", Subcategory: "Coasters"}, "Coasters"},
		{"name when no subcategory", models.Product{Name: "Resin Tray"}, "Resin Tray"},
		{"blank subcategory ignored", models.Product{Name: "Resin Tray", Subcategory: "  "}, "Resin Tray"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SizeKeyFor(tt.product))
		})
	}
}

func TestPricedVariantsUsesSubcategoryOverSameNamedEntry(t *testing.T) {
	chart := models.SizeChart{
		"Wall Clocks": {variant("xl", "900")},
		"Coasters":    {variant("set4", "0"), variant("set6", "250")},
	}
	p := models.Product{Name: "Wall Clocks", Subcategory: "Coasters", Price: decimal.NewFromInt(650)}

	priced := PricedVariants(p, chart)
	require.Len(t, priced, 2)
	assert.Equal(t, "set4", priced[0].ID)
	assert.True(t, priced[1].Price.Equal(decimal.NewFromInt(900)))

	assert.Nil(t, PricedVariants(models.Product{Name: "Unsized"}, chart))
}

func TestValidateChart(t *testing.T) {
	assert.NoError(t, ValidateChart(models.SizeChart{"Trays": {variant("s", "0"), variant("m", "100")}}))

	err := ValidateChart(models.SizeChart{
		"Trays": {
			{ID: "", Label: "Small"},
			{ID: "m", Label: ""},
			{ID: "m", Label: "Medium"},
		},
		" ": {variant("s", "0")},
	})
	require.Error(t, err)
	var v *apperr.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, []string{"category_name", "Trays[0].id", "Trays[1].label", "Trays[2].id (duplicate)"}, v.Fields)
}

func TestCheckNonNegative(t *testing.T) {
	variants := []models.SizeVariant{variant("s", "-200"), variant("l", "400")}

	assert.NoError(t, CheckNonNegative(decimal.NewFromInt(200), variants, "price"))
	err := CheckNonNegative(decimal.NewFromInt(199), variants, "price")
	assert.True(t, apperr.IsValidation(err))

	assert.True(t, MinModifier(variants).Equal(decimal.NewFromInt(-200)))
	assert.True(t, MinModifier(nil).IsZero())
}
