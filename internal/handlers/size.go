package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/kvishal2109/magicofresinn/internal/models"
)

type SizeConfig interface {
	Get(ctx context.Context) models.SizeChart
	ReplaceAll(ctx context.Context, chart models.SizeChart) error
}

// SizeHandler exposes the size configuration.
type SizeHandler struct {
	sizes SizeConfig
}

func NewSizeHandler(sizes SizeConfig) *SizeHandler {
	return &SizeHandler{sizes: sizes}
}

func (h *SizeHandler) GetSizes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": h.sizes.Get(c.UserContext())})
}

type replaceSizesRequest struct {
	SizeConfigurations models.SizeChart `json:"sizeConfigurations"`
}

// ReplaceSizes stores the request body as the complete size configuration.
func (h *SizeHandler) ReplaceSizes(c *fiber.Ctx) error {
	var req replaceSizesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.SizeConfigurations == nil {
		return fiber.NewError(fiber.StatusBadRequest, "sizeConfigurations is required")
	}

	ctx := c.UserContext()
	if err := h.sizes.ReplaceAll(ctx, req.SizeConfigurations); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": h.sizes.Get(ctx)})
}
