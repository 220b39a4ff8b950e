package app

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/handlers"
	"marketplace/internal/logging"
	"marketplace/internal/middleware"
	"marketplace/internal/repositories"
	"marketplace/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Deps are the collaborators the HTTP application is built from.
type Deps struct {
	Config *config.Config
	Store  *repositories.Store
	Events services.EventPublisher // optional
	Index  services.ProductIndex   // optional
	Logger *slog.Logger
}

// New wires services, handlers and middleware into a fiber app.
func New(d Deps) *fiber.App {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	validate := validator.New()

	authService := services.NewAuthService(d.Store.Users, d.Config.JWTSecret, d.Config.TokenTTL, logger)
	userService := services.NewUserService(d.Store.Users)
	productService := services.NewProductService(d.Store.Products, d.Store.Users, d.Index, logger)
	orderService := services.NewOrderService(d.Store.Orders, d.Store.Users, d.Events, logger)
	ratingService := services.NewRatingService(d.Store.Users, d.Store.Products, d.Events, logger)

	authHandler := handlers.NewAuthHandler(authService, validate)
	userHandler := handlers.NewUserHandler(userService, ratingService, validate)
	productHandler := handlers.NewProductHandler(productService, ratingService, validate)
	orderHandler := handlers.NewOrderHandler(orderService, validate)

	app := fiber.New(fiber.Config{
		AppName:      "marketplace",
		ErrorHandler: errorHandler,
		// params and bodies outlive the request in the memory store
		Immutable:    true,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logging.RequestLogger(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(d.Config.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	health := healthHandler(d.Store)
	app.Get("/health", health)

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/health", health)

	requireAuth := middleware.AuthRequired(authService)
	authHandler.RegisterRoutes(apiV1, requireAuth)
	productHandler.RegisterRoutes(apiV1, requireAuth)
	userHandler.RegisterRoutes(apiV1)
	orderHandler.RegisterRoutes(apiV1, requireAuth)

	return app
}

func healthHandler(store *repositories.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, code := "healthy", fiber.StatusOK
		if err := store.Ping(c.UserContext()); err != nil {
			status, code = "unhealthy", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"store":  store.Driver,
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

// errorHandler renders errors that escape handlers, such as unknown routes or
// recovered panics, in the same body shape handlers use.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
