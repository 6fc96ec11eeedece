package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kvishal2109/magicofresinn/internal/middleware"
	"github.com/kvishal2109/magicofresinn/internal/models"
	"github.com/kvishal2109/magicofresinn/internal/services"
	"github.com/kvishal2109/magicofresinn/internal/utils"
)

const maxProofBytes = 10 << 20

type Orders interface {
	CreateOrder(ctx context.Context, in services.CreateOrderInput) (*models.Order, error)
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error)
	SubmitPayment(ctx context.Context, orderID, utr string, proof *services.Upload) (*models.Order, error)
	VerifyPayment(ctx context.Context, orderID string, in services.VerifyInput) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, force bool) (*models.Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
	Stats(ctx context.Context) (*models.OrderStats, error)
}

// OrderHandler manages checkout, payment submission and admin order review.
type OrderHandler struct {
	orders Orders
}

func NewOrderHandler(orders Orders) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// RegisterAdminRoutes attaches the admin order endpoints.
func (h *OrderHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/", h.ListOrders)
	router.Get("/:id", h.GetOrder)
	router.Put("/:id/verify", h.VerifyPayment)
	router.Put("/:id/status", h.UpdateStatus)
	router.Delete("/:id", h.DeleteOrder)
}

// CreateOrder places an order from the submitted cart.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.CreateOrder(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.orders.GetOrderByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

// ConfirmPayment accepts the customer's UTR number and optional proof image
// as multipart form data.
func (h *OrderHandler) ConfirmPayment(c *fiber.Ctx) error {
	orderID := strings.TrimSpace(c.FormValue("orderId"))
	if orderID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Order ID is required")
	}

	proof, err := readProof(c)
	if err != nil {
		return err
	}

	order, err := h.orders.SubmitPayment(c.UserContext(), orderID, c.FormValue("utrNumber"), proof)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Payment details submitted successfully",
		"orderId": order.ID,
		"data":    order,
	})
}

func readProof(c *fiber.Ctx) (*services.Upload, error) {
	header, err := c.FormFile("paymentProof")
	if err != nil {
		// No file part.
		return nil, nil
	}
	if header.Size > maxProofBytes {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge, "payment proof is too large")
	}

	data, err := readFileHeader(header)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "cannot read payment proof")
	}

	return &services.Upload{
		Data:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// ListOrders returns orders newest first with pagination and filters.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	orders, total, err := h.orders.ListOrders(c.UserContext(), models.OrderFilter{
		PaymentStatus: models.PaymentStatus(c.Query("payment_status")),
		OrderStatus:   models.OrderStatus(c.Query("order_status")),
		Search:        c.Query("search"),
		Limit:         pg.Limit,
		Offset:        pg.Offset,
	})
	if err != nil {
		return err
	}
	if orders == nil {
		orders = []models.Order{}
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Meta(total),
	})
}

func (h *OrderHandler) VerifyPayment(c *fiber.Ctx) error {
	var req services.VerifyInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.VerifiedBy) == "" {
		if admin, ok := middleware.CurrentAdmin(c); ok {
			req.VerifiedBy = admin
		}
	}

	order, err := h.orders.VerifyPayment(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

type updateStatusRequest struct {
	OrderStatus models.OrderStatus `json:"order_status"`
	Force       bool               `json:"force"`
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.UpdateOrderStatus(c.UserContext(), c.Params("id"), req.OrderStatus, req.Force)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	if err := h.orders.DeleteOrder(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"id": c.Params("id")}})
}
