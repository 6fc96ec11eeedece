package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kvishal2109/magicofresinn/internal/models"
	"github.com/kvishal2109/magicofresinn/internal/storage"
)

const (
	recentOrdersLimit = 5
	maxUploadBytes    = 10 << 20
)

type DashboardSource interface {
	Stats(ctx context.Context) (*models.OrderStats, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error)
}

// AdminHandler manages admin-only endpoints that are not tied to one resource.
type AdminHandler struct {
	orders   DashboardSource
	uploader storage.Uploader
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(orders DashboardSource, uploader storage.Uploader) *AdminHandler {
	return &AdminHandler{orders: orders, uploader: uploader}
}

// DashboardStats returns order counts, verified revenue and the latest orders.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	ctx := c.UserContext()

	stats, err := h.orders.Stats(ctx)
	if err != nil {
		return err
	}

	recent, _, err := h.orders.ListOrders(ctx, models.OrderFilter{Limit: recentOrdersLimit})
	if err != nil {
		return err
	}
	if recent == nil {
		recent = []models.Order{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_orders":             stats.TotalOrders,
			"orders_by_payment_status": stats.ByPaymentStatus,
			"orders_by_order_status":   stats.ByOrderStatus,
			"verified_revenue":         stats.VerifiedRevenue,
			"awaiting_verification":    stats.AwaitingReview,
			"recent_orders":            recent,
		},
	})
}

// Upload stores an image in the object store and returns its public URL.
func (h *AdminHandler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	if header.Size > maxUploadBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file is too large")
	}

	contentType := header.Header.Get("Content-Type")
	if !storage.IsImage(contentType) {
		return fiber.NewError(fiber.StatusBadRequest, "only image uploads are allowed")
	}

	folder := strings.TrimSpace(c.FormValue("folder"))
	if folder == "" {
		folder = storage.FolderProducts
	}

	data, err := readFileHeader(header)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "cannot read file")
	}

	data, name, contentType := storage.Prepare(data, header.Filename, contentType)
	url, err := h.uploader.Upload(c.UserContext(), data, name, contentType, folder)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"url": url},
	})
}
