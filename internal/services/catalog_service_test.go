package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kvishal2109/magicofresinn/internal/apperr"
	"github.com/kvishal2109/magicofresinn/internal/models"
	"github.com/kvishal2109/magicofresinn/internal/seed"
	"github.com/kvishal2109/magicofresinn/internal/storage"
)

func loadFallback(t *testing.T) *seed.Catalog {
	t.Helper()
	catalog, err := seed.Load("")
	require.NoError(t, err)
	return catalog
}

func product(id, category, price string) models.Product {
	p := models.Product{
		Name:     "Product " + id,
		Price:    decimal.RequireFromString(price),
		Category: category,
		Image:    "https://img.example/" + id + ".jpg",
		InStock:  true,
	}
	p.ID = id
	return p
}

func ptr[T any](v T) *T { return &v }

func ids(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func fullStore() []models.Product {
	var products []models.Product
	for _, category := range []string{"Wedding", "Jewellery", "Home Decor", "Furniture"} {
		for i := 0; i < 3; i++ {
			products = append(products, product(fmt.Sprintf("%s-%d", category, i), category, "100"))
		}
	}
	return products
}

func TestGetAllProductsServesFallbackWhenStoreDown(t *testing.T) {
	repo := newFakeProductRepo()
	repo.err = errStoreDown
	fallback := loadFallback(t)
	svc := NewCatalogService(repo, staticChart{}, fallback, nil)

	products := svc.GetAllProducts(context.Background())

	require.NotEmpty(t, products)
	assert.Equal(t, ids(fallback.Products), ids(products))
}

func TestGetAllProductsKeepsCompleteStore(t *testing.T) {
	store := fullStore()
	svc := NewCatalogService(newFakeProductRepo(store...), staticChart{}, loadFallback(t), nil)

	assert.Equal(t, ids(store), ids(svc.GetAllProducts(context.Background())))
}

func TestGetAllProductsMergesWhenBelowThreshold(t *testing.T) {
	fallback := loadFallback(t)
	own := product("prod-1", "Wedding", "2500")
	dup := fallback.Products[0]
	dup.Name = "Store copy"
	svc := NewCatalogService(newFakeProductRepo(own, dup), staticChart{}, fallback, nil)

	products := svc.GetAllProducts(context.Background())

	require.Len(t, products, 1+len(fallback.Products))
	assert.Equal(t, "prod-1", products[0].ID)
	assert.Equal(t, "Store copy", products[1].Name, "store rows win over fallback rows with the same id")

	seen := map[string]int{}
	for _, p := range products {
		seen[p.ID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "id %s duplicated", id)
	}
}

func TestGetAllProductsMergesWhenRequiredCategoryMissing(t *testing.T) {
	var store []models.Product
	for i := 0; i < 12; i++ {
		store = append(store, product(fmt.Sprintf("p-%d", i), "Wedding", "100"))
	}
	fallback := loadFallback(t)
	svc := NewCatalogService(newFakeProductRepo(store...), staticChart{}, fallback, nil)

	products := svc.GetAllProducts(context.Background())

	assert.Len(t, products, len(store)+len(fallback.Products))
}

func TestGetProductByIDFallsBack(t *testing.T) {
	repo := newFakeProductRepo(product("prod-1", "Wedding", "10"))
	svc := NewCatalogService(repo, staticChart{}, loadFallback(t), nil)
	ctx := context.Background()

	p, err := svc.GetProductByID(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "prod-1", p.ID)

	p, err = svc.GetProductByID(ctx, "decor-ocean-wall-clock")
	require.NoError(t, err)
	assert.Equal(t, "Home Decor", p.Category)

	_, err = svc.GetProductByID(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	repo.err = errStoreDown
	p, err = svc.GetProductByID(ctx, "furniture-wall-shelf")
	require.NoError(t, err)
	assert.False(t, p.InStock)
}

func TestGetProductsByCategoryFallsBackOnStoreError(t *testing.T) {
	repo := newFakeProductRepo()
	repo.err = errStoreDown
	svc := NewCatalogService(repo, staticChart{}, loadFallback(t), nil)

	products := svc.GetProductsByCategory(context.Background(), "jewellery")

	require.Len(t, products, 3)
	for _, p := range products {
		assert.Equal(t, "Jewellery", p.Category)
	}
}

func TestGetAllCategoriesListsRequiredFirst(t *testing.T) {
	store := append(fullStore(), product("extra", "Keychains", "99"))
	svc := NewCatalogService(newFakeProductRepo(store...), staticChart{}, loadFallback(t), nil)

	assert.Equal(t,
		[]string{"Wedding", "Jewellery", "Home Decor", "Furniture", "Keychains"},
		svc.GetAllCategories(context.Background()))
}

func TestSearchProductsFallbackPaginates(t *testing.T) {
	repo := newFakeProductRepo()
	repo.err = errStoreDown
	svc := NewCatalogService(repo, staticChart{}, loadFallback(t), nil)

	products, total := svc.SearchProducts(context.Background(), models.ProductFilter{Search: "table", Limit: 1})

	assert.EqualValues(t, 2, total)
	assert.Len(t, products, 1)
}

func TestCreateProductRequiresFields(t *testing.T) {
	svc := NewCatalogService(newFakeProductRepo(), staticChart{}, loadFallback(t), nil)

	_, err := svc.CreateProduct(context.Background(), ProductInput{Name: ptr("Lamp")})

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"description", "price", "image", "category"}, verr.Fields)
}

func validInput() ProductInput {
	return ProductInput{
		Name:        ptr("Ocean Clock"),
		Description: ptr("Resin wall clock"),
		Price:       ptr(decimal.NewFromInt(999)),
		Image:       ptr("https://img.example/clock.jpg"),
		Category:    ptr("Home Decor"),
		Subcategory: ptr("Wall Clocks"),
	}
}

func TestCreateProductDefaultsAndRetriesOnConflict(t *testing.T) {
	repo := newFakeProductRepo()
	repo.conflict = 2
	svc := NewCatalogService(repo, staticChart{}, loadFallback(t), nil)

	p, err := svc.CreateProduct(context.Background(), validInput())

	require.NoError(t, err)
	assert.Regexp(t, `^prod-\d+-[0-9a-f]{9}$`, p.ID)
	assert.True(t, p.InStock)
	stored, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ocean Clock", stored.Name)
}

func TestCreateProductGivesUpAfterRepeatedConflicts(t *testing.T) {
	repo := newFakeProductRepo()
	repo.conflict = createAttempts
	svc := NewCatalogService(repo, staticChart{}, loadFallback(t), nil)

	_, err := svc.CreateProduct(context.Background(), validInput())

	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCreateProductRejectsNegativeResolvedPrice(t *testing.T) {
	chart := staticChart{"Wall Clocks": {{ID: "xs", Label: "XS", PriceModifier: decimal.NewFromInt(-1500)}}}
	svc := NewCatalogService(newFakeProductRepo(), chart, loadFallback(t), nil)

	_, err := svc.CreateProduct(context.Background(), validInput())

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"price"}, verr.Fields)
}

func TestUpdateProductPatchesOnlyGivenFields(t *testing.T) {
	existing := product("prod-1", "Wedding", "1000")
	existing.Subcategory = "Name Plates"
	repo := newFakeProductRepo(existing)
	svc := NewCatalogService(repo, staticChart{}, loadFallback(t), nil)

	updated, err := svc.UpdateProduct(context.Background(), "prod-1", ProductInput{Price: ptr(decimal.RequireFromString("1250.499"))})

	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("1250.50")))
	assert.Equal(t, existing.Name, updated.Name)
	assert.Equal(t, "Name Plates", updated.Subcategory)
}

func TestUpdateProductMissing(t *testing.T) {
	svc := NewCatalogService(newFakeProductRepo(), staticChart{}, loadFallback(t), nil)

	_, err := svc.UpdateProduct(context.Background(), "nope", ProductInput{Name: ptr("x")})

	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBulkUpdatePricesValidatesBeforeWriting(t *testing.T) {
	repo := newFakeProductRepo(product("a", "Wedding", "10"))
	svc := NewCatalogService(repo, staticChart{}, loadFallback(t), nil)
	ctx := context.Background()

	err := svc.BulkUpdatePrices(ctx, []models.PriceUpdate{{ProductID: "a", Price: decimal.NewFromInt(-1)}})
	assert.True(t, apperr.IsValidation(err))

	err = svc.BulkUpdatePrices(ctx, []models.PriceUpdate{
		{ProductID: "a", Price: decimal.NewFromInt(20)},
		{ProductID: "ghost", Price: decimal.NewFromInt(30)},
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	p, _ := repo.GetByID(ctx, "a")
	assert.True(t, p.Price.Equal(decimal.NewFromInt(10)), "batch with an unknown id must not apply")
}

func TestBulkUpdatePricesRejectsNegativeResolvedPrice(t *testing.T) {
	clock := product("clock", "Home Decor", "2000")
	clock.Subcategory = "Wall Clocks"
	repo := newFakeProductRepo(clock, product("a", "Wedding", "10"))
	chart := staticChart{"Wall Clocks": {
		{ID: "xs", Label: "XS", PriceModifier: decimal.NewFromInt(-1500)},
		{ID: "l", Label: "L", PriceModifier: decimal.NewFromInt(500)},
	}}
	svc := NewCatalogService(repo, chart, loadFallback(t), nil)
	ctx := context.Background()

	err := svc.BulkUpdatePrices(ctx, []models.PriceUpdate{
		{ProductID: "a", Price: decimal.NewFromInt(20)},
		{ProductID: "clock", Price: decimal.NewFromInt(1000)},
	})

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"updates[1].price"}, verr.Fields)

	stored, _ := repo.GetByID(ctx, "clock")
	assert.True(t, stored.Price.Equal(decimal.NewFromInt(2000)))
	for _, v := range svc.SizeChartFor(ctx, *stored) {
		assert.False(t, v.Price.IsNegative(), "size %s", v.ID)
	}
	stored, _ = repo.GetByID(ctx, "a")
	assert.True(t, stored.Price.Equal(decimal.NewFromInt(10)), "no update of the batch may apply")

	require.NoError(t, svc.BulkUpdatePrices(ctx, []models.PriceUpdate{{ProductID: "clock", Price: decimal.NewFromInt(1500)}}))
}

func TestRenameCategoryMovesEveryProduct(t *testing.T) {
	var store []models.Product
	for i := 0; i < 5; i++ {
		p := product(fmt.Sprintf("d-%d", i), "Decor", "100")
		p.Subcategory = "Wall Clocks"
		store = append(store, p)
	}
	repo := newFakeProductRepo(store...)
	svc := NewCatalogService(repo, staticChart{}, loadFallback(t), nil)

	n, err := svc.RenameCategory(context.Background(), "Decor", "Home Decor")

	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	assert.Equal(t, 0, repo.countCategory("Decor"))
	assert.Equal(t, 5, repo.countCategory("Home Decor"))
	p, _ := repo.GetByID(context.Background(), "d-0")
	assert.Equal(t, "Wall Clocks", p.Subcategory)
}

func TestRenameCategoryValidation(t *testing.T) {
	svc := NewCatalogService(newFakeProductRepo(), staticChart{}, loadFallback(t), nil)
	ctx := context.Background()

	_, err := svc.RenameCategory(ctx, " ", "")
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"oldCategory", "newCategory"}, verr.Fields)

	_, err = svc.RenameCategory(ctx, "Decor", "Decor")
	assert.True(t, apperr.IsValidation(err))
}

func TestDeleteCategoryIsCaseInsensitive(t *testing.T) {
	repo := newFakeProductRepo(product("a", "Wedding", "1"), product("b", "wedding", "1"), product("c", "Furniture", "1"))
	svc := NewCatalogService(repo, staticChart{}, loadFallback(t), nil)

	n, err := svc.DeleteCategory(context.Background(), "WEDDING")

	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestSizeChartForResolvesPrices(t *testing.T) {
	chart := staticChart{
		"Wall Clocks": {
			{ID: "s", Label: "S", Dimensions: "25x25 cm", PriceModifier: decimal.Zero},
			{ID: "m", Label: "M", Dimensions: "35x35 cm", PriceModifier: decimal.NewFromInt(300)},
		},
	}
	fallback := loadFallback(t)
	svc := NewCatalogService(newFakeProductRepo(), chart, fallback, nil)
	clock, ok := fallback.Find("decor-ocean-wall-clock")
	require.True(t, ok)

	sizes := svc.SizeChartFor(context.Background(), clock)

	require.Len(t, sizes, 2)
	assert.True(t, sizes[1].Price.Equal(decimal.NewFromInt(1299)))
	assert.Empty(t, svc.SizeChartFor(context.Background(), product("x", "Wedding", "1")))
}

const remoteCatalog = `
products:
  - id: remote-a
    name: Remote A
    price: 100
    category: Wedding
    image: https://old.example/a.jpg
  - id: remote-b
    name: Remote B
    price: 200
    category: Wedding
    image: https://old.example/b.jpg
  - id: remote-c
    name: Remote C
    price: 300
    category: Wedding
    image: https://old.example/c.jpg
    images: [https://old.example/c-side.jpg, /images/local.jpg]
`

func TestImportProductsSkipsExistingAndMigratesImages(t *testing.T) {
	fallback, err := seed.Parse([]byte(remoteCatalog))
	require.NoError(t, err)
	repo := newFakeProductRepo(fallback.Products[0])

	uploader := new(mockUploader)
	uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, storage.FolderProducts).
		Return("https://cdn.example/migrated.jpg", nil)

	svc := NewCatalogService(repo, staticChart{}, fallback, uploader)
	var fetched []string
	svc.fetch = func(_ context.Context, url string) ([]byte, string, error) {
		fetched = append(fetched, url)
		if url == "https://old.example/b.jpg" {
			return nil, "", errors.New("boom")
		}
		return []byte("not really an image"), "image/jpeg", nil
	}

	result, err := svc.ImportProducts(context.Background(), ImportOptions{MigrateImages: true, SkipExisting: true, BatchSize: 2})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Imported)
	assert.Zero(t, result.Failed)
	assert.NotContains(t, fetched, "https://old.example/a.jpg")
	assert.NotContains(t, fetched, "/images/local.jpg")

	kept, err := repo.GetByID(context.Background(), "remote-b")
	require.NoError(t, err)
	assert.Equal(t, "https://old.example/b.jpg", kept.Image, "failed fetch keeps the original url")

	migrated, err := repo.GetByID(context.Background(), "remote-c")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/migrated.jpg", migrated.Image)
	assert.Equal(t, []string{"https://cdn.example/migrated.jpg", "/images/local.jpg"}, []string(migrated.Images))
	uploader.AssertNumberOfCalls(t, "Upload", 2)
}

func TestImportProductsCountsFailures(t *testing.T) {
	repo := newFakeProductRepo()
	repo.err = errStoreDown
	svc := NewCatalogService(repo, staticChart{}, loadFallback(t), nil)

	result, err := svc.ImportProducts(context.Background(), ImportOptions{})

	require.NoError(t, err)
	assert.Equal(t, result.Total, result.Failed)
	assert.Len(t, result.Errors, result.Total)
}
