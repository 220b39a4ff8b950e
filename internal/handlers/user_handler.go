package handlers

import (
	"marketplace/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for users and sellers.
type UserHandler struct {
	service  *services.UserService
	ratings  *services.RatingService
	validate *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, ratings *services.RatingService, validate *validator.Validate) *UserHandler {
	return &UserHandler{service: service, ratings: ratings, validate: validate}
}

// RegisterRoutes registers the user and seller routes.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleGetUsers)
	userRoutes.Get("/:id", h.HandleGetUser)
	userRoutes.Get("/:id/liked", h.HandleGetLiked)
	userRoutes.Put("/:id/liked/:productId", h.HandleToggleLike)

	sellerRoutes := router.Group("/sellers")
	sellerRoutes.Get("/", h.HandleGetSellers)
	sellerRoutes.Post("/:id/ratings", h.HandleRateSeller)
	sellerRoutes.Get("/:id/rating", h.HandleSellerRating)
}

// HandleGetUsers lists every user.
func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, "Internal Server Error", err)
	}
	return c.JSON(users)
}

// HandleGetSellers lists users with the seller role.
func (h *UserHandler) HandleGetSellers(c *fiber.Ctx) error {
	sellers, err := h.service.ListSellers(c.UserContext())
	if err != nil {
		return respondError(c, "Error fetching sellers", err)
	}
	return c.JSON(sellers)
}

// HandleGetUser retrieves a user by id.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	user, err := h.service.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Error fetching user", err)
	}
	return c.JSON(user)
}

// HandleGetLiked lists the product ids a user liked.
func (h *UserHandler) HandleGetLiked(c *fiber.Ctx) error {
	liked, err := h.service.LikedProducts(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Error fetching liked products", err)
	}
	return c.JSON(liked)
}

// HandleToggleLike likes or unlikes a product.
func (h *UserHandler) HandleToggleLike(c *fiber.Ctx) error {
	liked, err := h.service.ToggleLike(c.UserContext(), c.Params("id"), c.Params("productId"))
	if err != nil {
		return respondError(c, "Error liking/unliking product", err)
	}
	message := "Product successfully unliked!"
	if liked {
		message = "Product successfully liked!"
	}
	return c.JSON(fiber.Map{
		"message": message,
		"liked":   liked,
	})
}

// HandleRateSeller records a rating on a seller.
func (h *UserHandler) HandleRateSeller(c *fiber.Ctx) error {
	var req RatingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	summary, err := h.ratings.SubmitSellerRating(c.UserContext(), c.Params("id"), req.UserID, req.Rating)
	if err != nil {
		return respondError(c, "Could not rate seller", err)
	}
	return c.JSON(fiber.Map{
		"message":         "Rating submitted successfully",
		"averageRating":   summary.AverageRating,
		"numberOfRatings": summary.NumberOfRatings,
	})
}

// HandleSellerRating returns a seller's rating summary.
func (h *UserHandler) HandleSellerRating(c *fiber.Ctx) error {
	summary, err := h.ratings.SellerRating(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Could not retrieve rating", err)
	}
	return c.JSON(summary)
}
