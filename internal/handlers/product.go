package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kvishal2109/magicofresinn/internal/models"
	"github.com/kvishal2109/magicofresinn/internal/pricing"
	"github.com/kvishal2109/magicofresinn/internal/services"
	"github.com/kvishal2109/magicofresinn/internal/utils"
)

// Catalog is the product surface the HTTP layer needs.
type Catalog interface {
	GetAllProducts(ctx context.Context) []models.Product
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	GetProductsByCategory(ctx context.Context, category string) []models.Product
	GetProductsByCatalog(ctx context.Context, catalogID string) []models.Product
	SearchProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64)
	GetAllCategories(ctx context.Context) []string
	SizeChartFor(ctx context.Context, product models.Product) []models.PricedSizeVariant
	CreateProduct(ctx context.Context, in services.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, in services.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	BulkUpdatePrices(ctx context.Context, updates []models.PriceUpdate) error
	BulkUpdateInventory(ctx context.Context, updates []models.InventoryUpdate) error
	RenameCategory(ctx context.Context, oldName, newName string) (int64, error)
	DeleteCategory(ctx context.Context, category string) (int64, error)
	ImportProducts(ctx context.Context, opts services.ImportOptions) (*services.ImportResult, error)
}

// ProductHandler serves the storefront catalog and its admin mutations.
type ProductHandler struct {
	catalog Catalog
}

func NewProductHandler(catalog Catalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// RegisterProductRoutes attaches the public product endpoints.
func (h *ProductHandler) RegisterProductRoutes(router fiber.Router) {
	router.Get("/", h.ListProducts)
	router.Get("/:id", h.GetProduct)
	router.Get("/:id/sizes", h.GetProductSizes)
}

// RegisterAdminRoutes attaches the admin product endpoints.
func (h *ProductHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/", h.AdminListProducts)
	router.Post("/", h.CreateProduct)
	router.Put("/bulk/prices", h.BulkUpdatePrices)
	router.Put("/bulk/inventory", h.BulkUpdateInventory)
	router.Put("/:id", h.UpdateProduct)
	router.Delete("/:id", h.DeleteProduct)
}

// ListProducts filters by category or catalog, or pages through a search
// when search/page is given. Without parameters it returns the merged catalog.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if category := strings.TrimSpace(c.Query("category")); category != "" {
		return c.JSON(fiber.Map{"success": true, "data": h.catalog.GetProductsByCategory(ctx, category)})
	}
	if catalogID := strings.TrimSpace(c.Query("catalog")); catalogID != "" {
		return c.JSON(fiber.Map{"success": true, "data": h.catalog.GetProductsByCatalog(ctx, catalogID)})
	}
	if c.Query("search") != "" || c.Query("page") != "" {
		return h.searchProducts(c)
	}

	return c.JSON(fiber.Map{"success": true, "data": h.catalog.GetAllProducts(ctx)})
}

func (h *ProductHandler) searchProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	products, total := h.catalog.SearchProducts(c.UserContext(), models.ProductFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Limit:  pg.Limit,
		Offset: pg.Offset,
	})
	if products == nil {
		products = []models.Product{}
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       products,
		"pagination": pg.Meta(total),
	})
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.catalog.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

// GetProductSizes returns the product's size variants with resolved prices.
func (h *ProductHandler) GetProductSizes(c *fiber.Ctx) error {
	ctx := c.UserContext()
	product, err := h.catalog.GetProductByID(ctx, c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"product_id": product.ID,
			"size_key":   pricing.SizeKeyFor(*product),
			"base_price": product.Price,
			"sizes":      h.catalog.SizeChartFor(ctx, *product),
		},
	})
}

func (h *ProductHandler) ListCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": h.catalog.GetAllCategories(c.UserContext())})
}

func (h *ProductHandler) AdminListProducts(c *fiber.Ctx) error {
	return h.searchProducts(c)
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req services.ProductInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product, err := h.catalog.CreateProduct(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	var req services.ProductInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product, err := h.catalog.UpdateProduct(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	if err := h.catalog.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"id": c.Params("id")}})
}

type bulkPriceRequest struct {
	Updates []models.PriceUpdate `json:"updates"`
}

func (h *ProductHandler) BulkUpdatePrices(c *fiber.Ctx) error {
	var req bulkPriceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.catalog.BulkUpdatePrices(c.UserContext(), req.Updates); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"updated": len(req.Updates)}})
}

type bulkInventoryRequest struct {
	Updates []models.InventoryUpdate `json:"updates"`
}

func (h *ProductHandler) BulkUpdateInventory(c *fiber.Ctx) error {
	var req bulkInventoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.catalog.BulkUpdateInventory(c.UserContext(), req.Updates); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"updated": len(req.Updates)}})
}

type renameCategoryRequest struct {
	OldCategory string `json:"oldCategory"`
	NewCategory string `json:"newCategory"`
}

// RenameCategory retags every product of oldCategory.
func (h *ProductHandler) RenameCategory(c *fiber.Ctx) error {
	var req renameCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	count, err := h.catalog.RenameCategory(c.UserContext(), req.OldCategory, req.NewCategory)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"oldCategory":     strings.TrimSpace(req.OldCategory),
			"newCategory":     strings.TrimSpace(req.NewCategory),
			"updatedProducts": count,
		},
	})
}

// DeleteCategory removes every product in the category given by ?category=.
func (h *ProductHandler) DeleteCategory(c *fiber.Ctx) error {
	category := c.Query("category")
	count, err := h.catalog.DeleteCategory(c.UserContext(), category)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"category": strings.TrimSpace(category), "deletedProducts": count},
	})
}

// MigrateProducts imports the fallback catalog into the store.
func (h *ProductHandler) MigrateProducts(c *fiber.Ctx) error {
	var opts services.ImportOptions
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&opts); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	result, err := h.catalog.ImportProducts(c.UserContext(), opts)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": result})
}
