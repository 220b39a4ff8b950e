package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"marketplace/internal/middleware"
	"marketplace/internal/models"
	"marketplace/internal/repositories"
	"marketplace/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	ratings  *services.RatingService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, ratings *services.RatingService, validate *validator.Validate) *ProductHandler {
	return &ProductHandler{
		service:  service,
		ratings:  ratings,
		validate: validate,
	}
}

// RegisterRoutes registers the product routes. Creating a product needs an
// authenticated seller.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Post("/", requireAuth, middleware.SellerOnly(), h.HandleCreateProduct)
	productRoutes.Get("/filter", h.HandleFilterProducts)
	productRoutes.Get("/search", h.HandleSearchProducts)
	productRoutes.Get("/categories/:category", h.HandleProductsByCategory)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/:id/ratings", h.HandleRateProduct)
	productRoutes.Get("/:id/ratings", h.HandleProductRating)

	sellerRoutes := router.Group("/sellers/:id/products")
	sellerRoutes.Get("/", h.HandleSellerProducts)
	sellerRoutes.Delete("/:productId", h.HandleDeleteSellerProduct)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// CreateProductRequest represents the request body for a new listing.
// Photos are names of files that were already uploaded.
type CreateProductRequest struct {
	SellerID    string   `json:"sellerId"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"required"`
	Colors      []string `json:"colors"`
	Materials   []string `json:"materials"`
	Sizes       []string `json:"sizes"`
	Photos      []string `json:"photos"`
	Categories  []string `json:"categories"`
}

// HandleCreateProduct lists a new product for the calling seller.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	principal, _ := middleware.PrincipalFrom(c)

	product := models.Product{
		SellerID:    req.SellerID,
		Price:       req.Price,
		Name:        req.Name,
		Description: req.Description,
		Colors:      req.Colors,
		Materials:   req.Materials,
		Sizes:       req.Sizes,
		Photos:      req.Photos,
		Categories:  req.Categories,
	}
	if err := h.service.CreateProduct(c.UserContext(), principal, &product); err != nil {
		return respondError(c, "Error adding product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleProductsByCategory lists products in one category.
func (h *ProductHandler) HandleProductsByCategory(c *fiber.Ctx) error {
	products, err := h.service.ProductsByCategory(c.UserContext(), c.Params("category"))
	if err != nil {
		return respondError(c, "Error fetching products", err)
	}
	return c.JSON(products)
}

// HandleFilterProducts filters by categories, colors and price.
// Price comes from priceRanges=min-max or from minPrice and maxPrice; the
// latter pair wins when both are present.
func (h *ProductHandler) HandleFilterProducts(c *fiber.Ctx) error {
	filter := repositories.ProductFilter{
		Categories: splitList(c.Query("categories")),
		Colors:     splitList(c.Query("colors")),
	}
	if r := c.Query("priceRanges"); r != "" {
		minPrice, maxPrice, err := parsePriceRange(r)
		if err != nil {
			return respondError(c, "Invalid price range", err)
		}
		filter.MinPrice, filter.MaxPrice = &minPrice, &maxPrice
	}
	if c.Query("minPrice") != "" && c.Query("maxPrice") != "" {
		minPrice, err := parsePrice("minPrice", c.Query("minPrice"))
		if err != nil {
			return respondError(c, "Invalid price range", err)
		}
		maxPrice, err := parsePrice("maxPrice", c.Query("maxPrice"))
		if err != nil {
			return respondError(c, "Invalid price range", err)
		}
		filter.MinPrice, filter.MaxPrice = &minPrice, &maxPrice
	}

	products, err := h.service.FilterProducts(c.UserContext(), filter)
	if err != nil {
		return respondError(c, "Error fetching products", err)
	}
	return c.JSON(products)
}

// HandleSearchProducts matches a keyword, optionally within ids.
func (h *ProductHandler) HandleSearchProducts(c *fiber.Ctx) error {
	products, err := h.service.SearchProducts(c.UserContext(), c.Query("keyword"), splitList(c.Query("ids")))
	if err != nil {
		return respondError(c, "Error fetching search results", err)
	}
	return c.JSON(products)
}

// HandleSellerProducts lists a seller's products.
func (h *ProductHandler) HandleSellerProducts(c *fiber.Ctx) error {
	products, err := h.service.ProductsBySeller(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Server Error", err)
	}
	return c.JSON(products)
}

// HandleDeleteSellerProduct deletes one of the seller's products.
func (h *ProductHandler) HandleDeleteSellerProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteSellerProduct(c.UserContext(), c.Params("id"), c.Params("productId")); err != nil {
		return respondError(c, "Could not delete product", err)
	}
	return c.JSON(fiber.Map{"message": "Item deleted successfully"})
}

// RatingRequest carries a rating on a seller or product.
type RatingRequest struct {
	UserID string  `json:"userId" validate:"required"`
	Rating float64 `json:"rating"`
}

// HandleRateProduct records a rating on a product.
func (h *ProductHandler) HandleRateProduct(c *fiber.Ctx) error {
	var req RatingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	summary, err := h.ratings.SubmitProductRating(c.UserContext(), c.Params("id"), req.UserID, req.Rating)
	if err != nil {
		return respondError(c, "Could not rate product", err)
	}
	return c.JSON(fiber.Map{
		"message":         "Rating submitted successfully",
		"averageRating":   summary.AverageRating,
		"numberOfRatings": summary.NumberOfRatings,
	})
}

// HandleProductRating returns a product's rating summary.
func (h *ProductHandler) HandleProductRating(c *fiber.Ctx) error {
	summary, err := h.ratings.ProductRating(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Could not retrieve rating", err)
	}
	return c.JSON(summary)
}

// splitList parses a comma separated query value. An absent value gives nil.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if out == nil {
		return []string{}
	}
	return out
}

func parsePriceRange(v string) (float64, float64, error) {
	lo, hi, ok := strings.Cut(v, "-")
	if !ok {
		return 0, 0, &models.ValidationError{Field: "priceRanges", Reason: fmt.Sprintf("%q is not min-max", v)}
	}
	minPrice, err := parsePrice("priceRanges", lo)
	if err != nil {
		return 0, 0, err
	}
	maxPrice, err := parsePrice("priceRanges", hi)
	if err != nil {
		return 0, 0, err
	}
	return minPrice, maxPrice, nil
}

func parsePrice(field, v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, &models.ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a number", v)}
	}
	return f, nil
}
