package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/kvishal2109/magicofresinn/internal/config"
	"github.com/kvishal2109/magicofresinn/internal/handlers"
	"github.com/kvishal2109/magicofresinn/internal/middleware"
	"github.com/kvishal2109/magicofresinn/internal/services"
	"github.com/kvishal2109/magicofresinn/internal/storage"
)

const (
	paymentConfirmLimit  = 10
	paymentConfirmWindow = time.Minute
)

// Services are the application services the HTTP layer is built on.
type Services struct {
	Catalog    *services.CatalogService
	Sizes      *services.SizeService
	Categories *services.CategoryService
	Orders     *services.OrderService
	Auth       *services.AuthService
	Uploader   storage.Uploader
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, cfg *config.Config, svc Services) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	})

	// Local uploads are served from disk; Drive URLs point at Google.
	if !cfg.DriveEnabled() {
		app.Static("/uploads", cfg.UploadDir)
	}

	productHandler := handlers.NewProductHandler(svc.Catalog)
	sizeHandler := handlers.NewSizeHandler(svc.Sizes)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)
	orderHandler := handlers.NewOrderHandler(svc.Orders)
	adminHandler := handlers.NewAdminHandler(svc.Orders, svc.Uploader)
	authHandler := handlers.NewAuthHandler(svc.Auth)

	api := app.Group("/api", middleware.Timeout(cfg.StoreTimeout))

	// Storefront
	productHandler.RegisterProductRoutes(api.Group("/products"))

	api.Get("/categories", productHandler.ListCategories)
	api.Get("/categories/metadata", categoryHandler.GetMetadata)
	api.Get("/sizes", sizeHandler.GetSizes)

	api.Post("/orders", orderHandler.CreateOrder)
	api.Get("/orders/:id", orderHandler.GetOrder)

	api.Post("/payment/confirm", limiter.New(limiter.Config{
		Max:        paymentConfirmLimit,
		Expiration: paymentConfirmWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many payment submissions, try again later")
		},
	}), orderHandler.ConfirmPayment)

	// Must be registered before the admin group so the gate never sees it.
	api.Post("/admin/login", authHandler.Login)

	// Admin
	admin := api.Group("/admin", middleware.AdminOnly(cfg.JWTSecret))

	productHandler.RegisterAdminRoutes(admin.Group("/products"))

	admin.Get("/categories", productHandler.ListCategories)
	admin.Put("/categories", productHandler.RenameCategory)
	admin.Delete("/categories", productHandler.DeleteCategory)
	admin.Put("/categories/metadata", categoryHandler.ReplaceMetadata)
	admin.Put("/categories/image", categoryHandler.SetImage)

	admin.Get("/sizes", sizeHandler.GetSizes)
	admin.Put("/sizes", sizeHandler.ReplaceSizes)

	orderHandler.RegisterAdminRoutes(admin.Group("/orders"))

	admin.Get("/dashboard", adminHandler.DashboardStats)
	admin.Post("/upload", adminHandler.Upload)
	admin.Post("/migrate/products", productHandler.MigrateProducts)
	admin.Put("/password", authHandler.ChangePassword)
}
