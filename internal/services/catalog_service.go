package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/kvishal2109/magicofresinn/internal/apperr"
	"github.com/kvishal2109/magicofresinn/internal/models"
	"github.com/kvishal2109/magicofresinn/internal/pricing"
	"github.com/kvishal2109/magicofresinn/internal/seed"
	"github.com/kvishal2109/magicofresinn/internal/storage"
	"github.com/kvishal2109/magicofresinn/internal/utils"
)

const createAttempts = 3

type ProductRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	ListByCategory(ctx context.Context, category string) ([]models.Product, error)
	ListByCatalog(ctx context.Context, catalogID string) ([]models.Product, error)
	Search(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, product *models.Product) error
	Upsert(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id string, updates map[string]any) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	BulkUpdatePrices(ctx context.Context, updates []models.PriceUpdate) error
	BulkUpdateInventory(ctx context.Context, updates []models.InventoryUpdate) error
	RenameCategory(ctx context.Context, oldName, newName string) (int64, error)
	DeleteCategory(ctx context.Context, category string) (int64, error)
}

// SizeChartSource supplies the current size chart.
type SizeChartSource interface {
	Get(ctx context.Context) models.SizeChart
}

// ProductInput carries create and patch payloads. Nil fields are left
// untouched on update.
type ProductInput struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Discount      *decimal.Decimal `json:"discount"`
	Image         *string          `json:"image"`
	Images        *[]string        `json:"images"`
	Category      *string          `json:"category"`
	Subcategory   *string          `json:"subcategory"`
	InStock       *bool            `json:"in_stock"`
	Stock         *int             `json:"stock"`
	CatalogID     *string          `json:"catalog_id"`
	CatalogName   *string          `json:"catalog_name"`
}

// ImportOptions control ImportProducts.
type ImportOptions struct {
	MigrateImages bool `json:"migrateImages"`
	SkipExisting  bool `json:"skipExisting"`
	BatchSize     int  `json:"batchSize"`
}

// ImportResult summarises an import run.
type ImportResult struct {
	Total    int      `json:"total"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}

// CatalogService serves products with the fallback merge policy and runs
// admin catalog mutations.
type CatalogService struct {
	repo     ProductRepository
	sizes    SizeChartSource
	fallback *seed.Catalog
	uploader storage.Uploader
	fetch    func(ctx context.Context, url string) ([]byte, string, error)
	now      func() time.Time
}

func NewCatalogService(repo ProductRepository, sizes SizeChartSource, fallback *seed.Catalog, uploader storage.Uploader) *CatalogService {
	return &CatalogService{
		repo:     repo,
		sizes:    sizes,
		fallback: fallback,
		uploader: uploader,
		fetch:    storage.Fetch,
		now:      time.Now,
	}
}

// GetAllProducts never fails: an unreachable store yields the fallback
// catalog and an incomplete one is topped up from it.
func (s *CatalogService) GetAllProducts(ctx context.Context) []models.Product {
	products, err := s.repo.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("catalog: store unavailable, serving fallback catalog")
		return s.fallback.Clone()
	}

	if s.isComplete(products) {
		return products
	}

	merged := mergeMissing(products, s.fallback.Clone())
	log.Info().
		Int("store_products", len(products)).
		Int("merged_products", len(merged)).
		Msg("catalog: incomplete store data, merged fallback catalog")
	return merged
}

func (s *CatalogService) isComplete(products []models.Product) bool {
	if len(products) < s.fallback.MinProducts {
		return false
	}

	present := make(map[string]bool)
	for _, p := range products {
		present[p.Category] = true
	}
	for _, required := range s.fallback.RequiredCategories {
		if !present[required] {
			return false
		}
	}
	return true
}

// mergeMissing appends fallback products whose id is absent from primary.
func mergeMissing(primary, fallback []models.Product) []models.Product {
	ids := make(map[string]bool, len(primary))
	for _, p := range primary {
		ids[p.ID] = true
	}

	merged := make([]models.Product, 0, len(primary)+len(fallback))
	merged = append(merged, primary...)
	for _, p := range fallback {
		if !ids[p.ID] {
			ids[p.ID] = true
			merged = append(merged, p)
		}
	}
	return merged
}

// GetProductByID checks the store first and then the fallback catalog.
func (s *CatalogService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err == nil {
		return product, nil
	}

	if fb, ok := s.fallback.Find(id); ok {
		return &fb, nil
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	return nil, fmt.Errorf("catalog: get product %s: %w", id, err)
}

func (s *CatalogService) GetProductsByCategory(ctx context.Context, category string) []models.Product {
	products, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		log.Warn().Err(err).Str("category", category).Msg("catalog: category query failed, filtering fallback")
		return filterProducts(s.GetAllProducts(ctx), func(p models.Product) bool {
			return strings.EqualFold(p.Category, category)
		})
	}
	return products
}

func (s *CatalogService) GetProductsByCatalog(ctx context.Context, catalogID string) []models.Product {
	products, err := s.repo.ListByCatalog(ctx, catalogID)
	if err != nil {
		log.Warn().Err(err).Str("catalog_id", catalogID).Msg("catalog: catalog query failed, filtering fallback")
		return filterProducts(s.GetAllProducts(ctx), func(p models.Product) bool {
			return p.CatalogID == catalogID
		})
	}
	return products
}

// SearchProducts pages through products matching query. Store failures fall
// back to an in-memory search of the merged catalog.
func (s *CatalogService) SearchProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64) {
	products, total, err := s.repo.Search(ctx, filter)
	if err == nil {
		return products, total
	}

	log.Warn().Err(err).Msg("catalog: search failed, searching fallback")
	needle := strings.ToLower(strings.TrimSpace(filter.Search))
	matches := filterProducts(s.GetAllProducts(ctx), func(p models.Product) bool {
		return needle == "" ||
			strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle)
	})

	total = int64(len(matches))
	if filter.Offset >= len(matches) {
		return []models.Product{}, total
	}
	end := len(matches)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return matches[filter.Offset:end], total
}

// GetAllCategories lists required categories first, then any others in the
// order they first appear.
func (s *CatalogService) GetAllCategories(ctx context.Context) []string {
	categories := append([]string(nil), s.fallback.RequiredCategories...)
	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		seen[c] = true
	}

	for _, p := range s.GetAllProducts(ctx) {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	return categories
}

// SizeChartFor returns the product's size variants with resolved prices.
func (s *CatalogService) SizeChartFor(ctx context.Context, product models.Product) []models.PricedSizeVariant {
	priced := pricing.PricedVariants(product, s.sizes.Get(ctx))
	if priced == nil {
		return []models.PricedSizeVariant{}
	}
	return priced
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := validateNewProduct(in); err != nil {
		return nil, err
	}

	product := models.Product{InStock: true, Images: pq.StringArray{}}
	applyProductInput(&product, in)

	if err := s.checkSizePrices(ctx, product); err != nil {
		return nil, err
	}

	var err error
	for attempt := 1; attempt <= createAttempts; attempt++ {
		product.ID = utils.NewID("prod", s.now())
		err = s.repo.Create(ctx, &product)
		if !errors.Is(err, apperr.ErrConflict) {
			break
		}
		log.Warn().Str("product_id", product.ID).Int("attempt", attempt).Msg("catalog: product id collision, regenerating")
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: create product: %w", err)
	}

	log.Info().Str("product_id", product.ID).Str("category", product.Category).Msg("catalog: product created")
	return &product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	if err := validateProductPatch(in); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("catalog: load product %s: %w", id, err)
	}

	next := *current
	applyProductInput(&next, in)
	if in.Price != nil || in.Subcategory != nil || in.Name != nil {
		if err := s.checkSizePrices(ctx, next); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, id, productUpdates(in))
	if err != nil {
		return nil, fmt.Errorf("catalog: update product %s: %w", id, err)
	}
	return updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("catalog: delete product %s: %w", id, err)
	}
	log.Info().Str("product_id", id).Msg("catalog: product deleted")
	return nil
}

func (s *CatalogService) BulkUpdatePrices(ctx context.Context, updates []models.PriceUpdate) error {
	if len(updates) == 0 {
		return apperr.Validation("updates must not be empty", "updates")
	}
	for i, u := range updates {
		if strings.TrimSpace(u.ProductID) == "" {
			return apperr.Validation(fmt.Sprintf("updates[%d]: product_id is required", i), "product_id")
		}
		if u.Price.IsNegative() {
			return apperr.Validation(fmt.Sprintf("updates[%d]: price must not be negative", i), "price")
		}
	}
	if err := s.checkBulkSizePrices(ctx, updates); err != nil {
		return err
	}

	if err := s.repo.BulkUpdatePrices(ctx, updates); err != nil {
		return fmt.Errorf("catalog: bulk update prices: %w", err)
	}
	log.Info().Int("count", len(updates)).Msg("catalog: prices updated")
	return nil
}

func (s *CatalogService) BulkUpdateInventory(ctx context.Context, updates []models.InventoryUpdate) error {
	if len(updates) == 0 {
		return apperr.Validation("updates must not be empty", "updates")
	}
	for i, u := range updates {
		if strings.TrimSpace(u.ProductID) == "" {
			return apperr.Validation(fmt.Sprintf("updates[%d]: product_id is required", i), "product_id")
		}
		if u.Stock != nil && *u.Stock < 0 {
			return apperr.Validation(fmt.Sprintf("updates[%d]: stock must not be negative", i), "stock")
		}
	}

	if err := s.repo.BulkUpdateInventory(ctx, updates); err != nil {
		return fmt.Errorf("catalog: bulk update inventory: %w", err)
	}
	log.Info().Int("count", len(updates)).Msg("catalog: inventory updated")
	return nil
}

// RenameCategory retags products from oldName to newName. Size charts are
// keyed by subcategory or name and are left as they are.
func (s *CatalogService) RenameCategory(ctx context.Context, oldName, newName string) (int64, error) {
	oldName, newName = strings.TrimSpace(oldName), strings.TrimSpace(newName)

	var missing []string
	if oldName == "" {
		missing = append(missing, "oldCategory")
	}
	if newName == "" {
		missing = append(missing, "newCategory")
	}
	if err := apperr.MissingFields(missing); err != nil {
		return 0, err
	}
	if oldName == newName {
		return 0, apperr.Validation("Old and new category names cannot be the same", "newCategory")
	}

	count, err := s.repo.RenameCategory(ctx, oldName, newName)
	if err != nil {
		return 0, fmt.Errorf("catalog: rename category %q: %w", oldName, err)
	}
	log.Info().Str("from", oldName).Str("to", newName).Int64("count", count).Msg("catalog: category renamed")
	return count, nil
}

// DeleteCategory permanently removes every product in category.
func (s *CatalogService) DeleteCategory(ctx context.Context, category string) (int64, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return 0, apperr.Validation("Category parameter is required", "category")
	}

	count, err := s.repo.DeleteCategory(ctx, category)
	if err != nil {
		return 0, fmt.Errorf("catalog: delete category %q: %w", category, err)
	}
	log.Warn().Str("category", category).Int64("count", count).Msg("catalog: category deleted with its products")
	return count, nil
}

// ImportProducts copies the fallback catalog into the store, preserving ids.
func (s *CatalogService) ImportProducts(ctx context.Context, opts ImportOptions) (*ImportResult, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}

	products := s.fallback.Clone()
	result := &ImportResult{Total: len(products), Errors: []string{}}

	for start := 0; start < len(products); start += opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := start + opts.BatchSize
		if end > len(products) {
			end = len(products)
		}

		for i := start; i < end; i++ {
			s.importOne(ctx, &products[i], opts, result)
		}
		log.Info().Int("processed", end).Int("total", len(products)).Msg("catalog: import batch done")
	}

	return result, nil
}

func (s *CatalogService) importOne(ctx context.Context, p *models.Product, opts ImportOptions, result *ImportResult) {
	if opts.SkipExisting {
		exists, err := s.repo.Exists(ctx, p.ID)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", p.ID, err))
			return
		}
		if exists {
			result.Skipped++
			return
		}
	}

	if opts.MigrateImages {
		p.Image = s.migrateImage(ctx, p.Image, p.ID, 0)
		for i, img := range p.Images {
			p.Images[i] = s.migrateImage(ctx, img, p.ID, i+1)
		}
	}

	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := s.repo.Upsert(ctx, p); err != nil {
		result.Failed++
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", p.ID, err))
		return
	}
	result.Imported++
}

// migrateImage re-hosts a remote image on the object store and keeps the
// original URL when anything fails.
func (s *CatalogService) migrateImage(ctx context.Context, url, productID string, index int) string {
	if s.uploader == nil || !(strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")) {
		return url
	}

	data, contentType, err := s.fetch(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("catalog: image fetch failed, keeping original url")
		return url
	}

	data, name, contentType := storage.Prepare(data, fmt.Sprintf("product-%s-%d.img", productID, index), contentType)
	uploaded, err := s.uploader.Upload(ctx, data, name, contentType, storage.FolderProducts)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("catalog: image upload failed, keeping original url")
		return url
	}
	return uploaded
}

func (s *CatalogService) checkSizePrices(ctx context.Context, p models.Product) error {
	variants := s.sizes.Get(ctx)[pricing.SizeKeyFor(p)]
	return pricing.CheckNonNegative(p.Price, variants, "price")
}

// checkBulkSizePrices applies the negative-price guard to every product of
// a bulk price change against the current size chart.
func (s *CatalogService) checkBulkSizePrices(ctx context.Context, updates []models.PriceUpdate) error {
	chart := s.sizes.Get(ctx)
	for i, u := range updates {
		p, err := s.repo.GetByID(ctx, u.ProductID)
		if err != nil {
			return fmt.Errorf("catalog: load product %s: %w", u.ProductID, err)
		}
		field := fmt.Sprintf("updates[%d].price", i)
		if err := pricing.CheckNonNegative(u.Price, chart[pricing.SizeKeyFor(*p)], field); err != nil {
			return fmt.Errorf("product %s: %w", p.ID, err)
		}
	}
	return nil
}

func validateNewProduct(in ProductInput) error {
	var missing []string
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		missing = append(missing, "name")
	}
	if in.Description == nil || strings.TrimSpace(*in.Description) == "" {
		missing = append(missing, "description")
	}
	if in.Price == nil {
		missing = append(missing, "price")
	}
	if in.Image == nil || strings.TrimSpace(*in.Image) == "" {
		missing = append(missing, "image")
	}
	if in.Category == nil || strings.TrimSpace(*in.Category) == "" {
		missing = append(missing, "category")
	}
	if err := apperr.MissingFields(missing); err != nil {
		return err
	}
	return validateProductPatch(in)
}

func validateProductPatch(in ProductInput) error {
	if in.Price != nil && in.Price.IsNegative() {
		return apperr.Validation("price must not be negative", "price")
	}
	if in.OriginalPrice != nil && in.OriginalPrice.IsNegative() {
		return apperr.Validation("original_price must not be negative", "original_price")
	}
	if in.Discount != nil && (in.Discount.IsNegative() || in.Discount.GreaterThan(decimal.NewFromInt(100))) {
		return apperr.Validation("discount must be between 0 and 100", "discount")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return apperr.Validation("stock must not be negative", "stock")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return apperr.Validation("name must not be empty", "name")
	}
	if in.Category != nil && strings.TrimSpace(*in.Category) == "" {
		return apperr.Validation("category must not be empty", "category")
	}
	return nil
}

func applyProductInput(p *models.Product, in ProductInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = in.Price.Round(2)
	}
	if in.OriginalPrice != nil {
		v := in.OriginalPrice.Round(2)
		p.OriginalPrice = &v
	}
	if in.Discount != nil {
		v := in.Discount.Round(2)
		p.Discount = &v
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.Images != nil {
		p.Images = pq.StringArray(*in.Images)
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Subcategory != nil {
		p.Subcategory = strings.TrimSpace(*in.Subcategory)
	}
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
	if in.Stock != nil {
		v := *in.Stock
		p.Stock = &v
	}
	if in.CatalogID != nil {
		p.CatalogID = *in.CatalogID
	}
	if in.CatalogName != nil {
		p.CatalogName = *in.CatalogName
	}
}

func productUpdates(in ProductInput) map[string]any {
	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Price != nil {
		updates["price"] = in.Price.Round(2)
	}
	if in.OriginalPrice != nil {
		updates["original_price"] = in.OriginalPrice.Round(2)
	}
	if in.Discount != nil {
		updates["discount"] = in.Discount.Round(2)
	}
	if in.Image != nil {
		updates["image"] = *in.Image
	}
	if in.Images != nil {
		updates["images"] = pq.StringArray(*in.Images)
	}
	if in.Category != nil {
		updates["category"] = strings.TrimSpace(*in.Category)
	}
	if in.Subcategory != nil {
		updates["subcategory"] = strings.TrimSpace(*in.Subcategory)
	}
	if in.InStock != nil {
		updates["in_stock"] = *in.InStock
	}
	if in.Stock != nil {
		updates["stock"] = *in.Stock
	}
	if in.CatalogID != nil {
		updates["catalog_id"] = *in.CatalogID
	}
	if in.CatalogName != nil {
		updates["catalog_name"] = *in.CatalogName
	}
	return updates
}

func filterProducts(products []models.Product, keep func(models.Product) bool) []models.Product {
	out := make([]models.Product, 0)
	for _, p := range products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
