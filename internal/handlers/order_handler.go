package handlers

import (
	"marketplace/internal/middleware"
	"marketplace/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, validate *validator.Validate) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validate,
	}
}

// RegisterRoutes registers the buyer-facing order routes and the seller
// order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", requireAuth, h.HandleCreateOrder)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)

	sellerRoutes := router.Group("/sellers/:id/orders")
	sellerRoutes.Put("/", h.HandleAttachOrder)
	sellerRoutes.Get("/", h.HandleSellerOrderStats)
	sellerRoutes.Get("/:status", h.HandleSellerOrdersByState)
	sellerRoutes.Put("/:orderId", h.HandleUpdateOrderState)
	sellerRoutes.Delete("/:orderId", h.HandleDeleteOrder)
}

// CreateOrderRequest represents the request body for a new order.
type CreateOrderRequest struct {
	UserID    string  `json:"userId"`
	ProductID string  `json:"productId"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Material  string  `json:"material"`
	Quantity  int     `json:"quantity"`
	Total     float64 `json:"total"`
	Address   string  `json:"address"`
	Phone     string  `json:"phone"`
}

// HandleCreateOrder creates a new order in the pending state.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if req.UserID == "" {
		if principal, ok := middleware.PrincipalFrom(c); ok {
			req.UserID = principal.UserID
		}
	}

	order, err := h.service.CreateOrder(c.UserContext(), services.CreateOrderInput{
		BuyerID:   req.UserID,
		ProductID: req.ProductID,
		Size:      req.Size,
		Color:     req.Color,
		Material:  req.Material,
		Quantity:  req.Quantity,
		Total:     req.Total,
		Address:   req.Address,
		Phone:     req.Phone,
	})
	if err != nil {
		return respondError(c, "Error creating order", err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

// AttachOrderRequest carries the order id pushed onto a seller.
type AttachOrderRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

// HandleAttachOrder appends an order id to the seller's order list.
func (h *OrderHandler) HandleAttachOrder(c *fiber.Ctx) error {
	var req AttachOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	if err := h.service.AttachOrderToSeller(c.UserContext(), c.Params("id"), req.OrderID); err != nil {
		return respondError(c, "Error updating seller orders", err)
	}
	return c.JSON(fiber.Map{"message": "Seller orders updated successfully"})
}

// HandleSellerOrderStats returns the seller's orders broken down by state.
func (h *OrderHandler) HandleSellerOrderStats(c *fiber.Ctx) error {
	stats, err := h.service.SellerOrderStats(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Error getting seller orders", err)
	}
	return c.JSON(stats)
}

// HandleSellerOrdersByState returns the seller's orders in one state.
func (h *OrderHandler) HandleSellerOrdersByState(c *fiber.Ctx) error {
	orders, err := h.service.SellerOrdersByState(c.UserContext(), c.Params("id"), c.Params("status"))
	if err != nil {
		return respondError(c, "Error getting seller orders", err)
	}
	return c.JSON(fiber.Map{
		"orders":      orders,
		"totalOrders": len(orders),
	})
}

// UpdateOrderStateRequest carries the new state. Any string is accepted.
type UpdateOrderStateRequest struct {
	Status string `json:"status"`
}

// HandleUpdateOrderState overwrites an order's state.
func (h *OrderHandler) HandleUpdateOrderState(c *fiber.Ctx) error {
	var req UpdateOrderStateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	order, err := h.service.UpdateOrderState(c.UserContext(), c.Params("orderId"), req.Status)
	if err != nil {
		return respondError(c, "Error updating order state", err)
	}
	return c.JSON(fiber.Map{
		"message": "Order state updated successfully",
		"order":   order,
	})
}

// HandleDeleteOrder deletes an order and retracts it from its buyer and
// the seller in the path.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	if err := h.service.DeleteOrder(c.UserContext(), c.Params("orderId"), c.Params("id")); err != nil {
		return respondError(c, "Error deleting order", err)
	}
	return c.JSON(fiber.Map{"message": "Order deleted successfully"})
}
