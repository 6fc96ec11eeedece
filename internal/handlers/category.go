package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kvishal2109/magicofresinn/internal/models"
)

type CategoryMetadata interface {
	GetMetadata(ctx context.Context) models.CategoriesMetadata
	ReplaceMetadata(ctx context.Context, meta models.CategoriesMetadata) error
	SetCategoryImage(ctx context.Context, category, url string) error
	SetSubcategoryImage(ctx context.Context, category, subcategory, url string) error
}

// CategoryHandler serves category and subcategory display images.
type CategoryHandler struct {
	metadata CategoryMetadata
}

func NewCategoryHandler(metadata CategoryMetadata) *CategoryHandler {
	return &CategoryHandler{metadata: metadata}
}

func (h *CategoryHandler) GetMetadata(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": h.metadata.GetMetadata(c.UserContext())})
}

func (h *CategoryHandler) ReplaceMetadata(c *fiber.Ctx) error {
	var req models.CategoriesMetadata
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ctx := c.UserContext()
	if err := h.metadata.ReplaceMetadata(ctx, req); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": h.metadata.GetMetadata(ctx)})
}

type categoryImageRequest struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Image       string `json:"image"`
}

// SetImage updates a category image, or a subcategory image when subcategory
// is present.
func (h *CategoryHandler) SetImage(c *fiber.Ctx) error {
	var req categoryImageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ctx := c.UserContext()
	var err error
	if strings.TrimSpace(req.Subcategory) == "" {
		err = h.metadata.SetCategoryImage(ctx, req.Category, req.Image)
	} else {
		err = h.metadata.SetSubcategoryImage(ctx, req.Category, req.Subcategory, req.Image)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": h.metadata.GetMetadata(ctx)})
}
