package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace/internal/app"
	"marketplace/internal/config"
	"marketplace/internal/logging"
	"marketplace/internal/models"
	"marketplace/internal/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupApp builds the full application on a private in-memory sqlite database.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := repositories.OpenGORM(config.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	store, err := repositories.NewGORMStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	cfg := &config.Config{
		StoreDriver: config.DriverSQLite,
		JWTSecret:   "test_jwt_secret",
		TokenTTL:    time.Hour,
		CORSOrigins: []string{"*"},
	}
	return app.New(app.Deps{Config: cfg, Store: store, Logger: logging.Discard()})
}

// call performs a request and decodes the JSON response into out (when non-nil).
func call(t *testing.T, a *fiber.App, method, path, token string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type authResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func registerAndLogin(t *testing.T, a *fiber.App, username, role string) authResult {
	t.Helper()
	status := call(t, a, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"role":     role,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var res authResult
	status = call(t, a, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    username + "@example.com",
		"password": "password123",
	}, &res)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, res.Token)
	return res
}

func TestAuthRegisterAndLogin(t *testing.T) {
	a := setupApp(t)

	var registerResp map[string]any
	status := call(t, a, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	}, &registerResp)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "User registered successfully", registerResp["message"])
	user := registerResp["user"].(map[string]any)
	assert.NotContains(t, user, "password")

	// Test Duplicate Registration (username)
	var dupResp map[string]string
	status = call(t, a, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "testuser",
		"email":    "other@example.com",
		"password": "password123",
	}, &dupResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username already taken", dupResp["message"])

	// Test Duplicate Registration (email)
	status = call(t, a, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "someoneelse",
		"email":    "test@example.com",
		"password": "password123",
	}, &dupResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email already taken", dupResp["message"])

	// Test validation
	status = call(t, a, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// Test Login
	var loginResp authResult
	status = call(t, a, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "test@example.com",
		"password": "password123",
	}, &loginResp)
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, loginResp.Token)

	var profile map[string]string
	status = call(t, a, http.MethodGet, "/api/v1/auth/profile", loginResp.Token, nil, &profile)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, loginResp.User.ID, profile["user_id"])

	// Test wrong password
	status = call(t, a, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "test@example.com",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status = call(t, a, http.MethodPost, "/api/v1/auth/logout", "", nil, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestProductEndpoints(t *testing.T) {
	a := setupApp(t)
	seller := registerAndLogin(t, a, "seller", models.RoleSeller)
	buyer := registerAndLogin(t, a, "buyer", "buyer")

	newProduct := map[string]any{
		"name":        "Smartphone",
		"description": "Latest model smartphone",
		"price":       799.99,
		"colors":      []string{"black", "silver"},
		"categories":  []string{"electronics"},
	}

	// POST /products without token
	status := call(t, a, http.MethodPost, "/api/v1/products", "", newProduct, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// POST /products as a buyer
	status = call(t, a, http.MethodPost, "/api/v1/products", buyer.Token, newProduct, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var created models.Product
	status = call(t, a, http.MethodPost, "/api/v1/products", seller.Token, newProduct, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, seller.User.ID, created.SellerID)

	cheap := map[string]any{"name": "Case", "description": "Phone case", "price": 9.5, "colors": []string{"red"}, "categories": []string{"accessories"}}
	var cheapCreated models.Product
	require.Equal(t, http.StatusCreated, call(t, a, http.MethodPost, "/api/v1/products", seller.Token, cheap, &cheapCreated))

	var products []models.Product
	status = call(t, a, http.MethodGet, "/api/v1/products", "", nil, &products)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, products, 2)

	var fetched models.Product
	status = call(t, a, http.MethodGet, "/api/v1/products/"+created.ID, "", nil, &fetched)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, created.ID, fetched.ID)

	status = call(t, a, http.MethodGet, "/api/v1/products/"+uuid.NewString(), "", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status = call(t, a, http.MethodGet, "/api/v1/products/not-an-id", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status = call(t, a, http.MethodGet, "/api/v1/products/categories/accessories", "", nil, &products)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, products, 1)
	assert.Equal(t, cheapCreated.ID, products[0].ID)

	status = call(t, a, http.MethodGet, "/api/v1/products/filter?colors=black,green&priceRanges=100-1000", "", nil, &products)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, products, 1)
	assert.Equal(t, created.ID, products[0].ID)

	// minPrice/maxPrice win over priceRanges
	status = call(t, a, http.MethodGet, "/api/v1/products/filter?priceRanges=100-1000&minPrice=1&maxPrice=10", "", nil, &products)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, products, 1)
	assert.Equal(t, cheapCreated.ID, products[0].ID)

	status = call(t, a, http.MethodGet, "/api/v1/products/filter?priceRanges=cheap", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = call(t, a, http.MethodGet, "/api/v1/products/search?keyword=PHONE", "", nil, &products)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, products, 2)
	status = call(t, a, http.MethodGet, "/api/v1/products/search?keyword=phone&ids="+cheapCreated.ID, "", nil, &products)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, products, 1)

	status = call(t, a, http.MethodGet, "/api/v1/sellers/"+seller.User.ID+"/products", "", nil, &products)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, products, 2)

	var deleteResp map[string]string
	status = call(t, a, http.MethodDelete, "/api/v1/sellers/"+seller.User.ID+"/products/"+created.ID, "", nil, &deleteResp)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, deleteResp["message"], "deleted successfully")

	// Verify deletion
	status = call(t, a, http.MethodGet, "/api/v1/products/"+created.ID, "", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLikesAndRatings(t *testing.T) {
	a := setupApp(t)
	seller := registerAndLogin(t, a, "seller", models.RoleSeller)
	buyer := registerAndLogin(t, a, "buyer", "buyer")

	var product models.Product
	require.Equal(t, http.StatusCreated, call(t, a, http.MethodPost, "/api/v1/products", seller.Token,
		map[string]any{"name": "Lamp", "description": "Desk lamp", "price": 20}, &product))

	likePath := "/api/v1/users/" + buyer.User.ID + "/liked/" + product.ID
	var toggle map[string]any
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodPut, likePath, "", nil, &toggle))
	assert.Equal(t, "Product successfully liked!", toggle["message"])

	var liked []string
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/api/v1/users/"+buyer.User.ID+"/liked", "", nil, &liked))
	assert.Equal(t, []string{product.ID}, liked)

	assert.Equal(t, http.StatusOK, call(t, a, http.MethodPut, likePath, "", nil, &toggle))
	assert.Equal(t, "Product successfully unliked!", toggle["message"])
	assert.Equal(t, http.StatusNotFound, call(t, a, http.MethodPut, "/api/v1/users/"+uuid.NewString()+"/liked/"+product.ID, "", nil, nil))

	rate := map[string]any{"userId": buyer.User.ID, "rating": 4}
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodPost, "/api/v1/sellers/"+seller.User.ID+"/ratings", "", rate, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, a, http.MethodPost, "/api/v1/sellers/"+seller.User.ID+"/ratings", "", rate, nil))
	assert.Equal(t, http.StatusNotFound, call(t, a, http.MethodPost, "/api/v1/sellers/"+uuid.NewString()+"/ratings", "", rate, nil))

	var summary models.RatingSummary
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/api/v1/sellers/"+seller.User.ID+"/rating", "", nil, &summary))
	assert.Equal(t, models.RatingSummary{AverageRating: 4, NumberOfRatings: 1}, summary)

	assert.Equal(t, http.StatusOK, call(t, a, http.MethodPost, "/api/v1/products/"+product.ID+"/ratings", "", rate, nil))
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/api/v1/products/"+product.ID+"/ratings", "", nil, &summary))
	assert.Equal(t, models.RatingSummary{AverageRating: 4, NumberOfRatings: 1}, summary)

	var sellers []models.User
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/api/v1/sellers", "", nil, &sellers))
	require.Len(t, sellers, 1)
	assert.Equal(t, seller.User.ID, sellers[0].ID)

	var users []models.User
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/api/v1/users", "", nil, &users))
	assert.Len(t, users, 2)
}

func TestOrderEndpoints(t *testing.T) {
	a := setupApp(t)
	seller := registerAndLogin(t, a, "seller", models.RoleSeller)
	buyer := registerAndLogin(t, a, "buyer", "buyer")

	orderBody := map[string]any{"productId": uuid.NewString(), "size": "M", "color": "red", "quantity": 2, "total": 40}
	assert.Equal(t, http.StatusUnauthorized, call(t, a, http.MethodPost, "/api/v1/orders", "", orderBody, nil))

	var order models.Order
	require.Equal(t, http.StatusCreated, call(t, a, http.MethodPost, "/api/v1/orders", buyer.Token, orderBody, &order))
	assert.Equal(t, models.OrderStatePending, order.State)
	assert.Equal(t, buyer.User.ID, order.UserID)

	ordersPath := "/api/v1/sellers/" + seller.User.ID + "/orders"
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodPut, ordersPath, "", map[string]string{"orderId": order.ID}, nil))
	assert.Equal(t, http.StatusNotFound, call(t, a, http.MethodPut, "/api/v1/sellers/"+uuid.NewString()+"/orders", "", map[string]string{"orderId": order.ID}, nil))

	assert.Equal(t, http.StatusOK, call(t, a, http.MethodPut, ordersPath+"/"+order.ID, "", map[string]string{"status": models.OrderStateCompleted}, nil))

	var fetched models.Order
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/api/v1/orders/"+order.ID, "", nil, &fetched))
	assert.Equal(t, models.OrderStateCompleted, fetched.State)

	var stats map[string]any
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, ordersPath, "", nil, &stats))
	assert.EqualValues(t, 1, stats["totalOrders"])
	assert.EqualValues(t, 1, stats["numCompleted"])
	assert.EqualValues(t, 40, stats["totalIncome"])

	var byState map[string]any
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, ordersPath+"/"+models.OrderStateCompleted, "", nil, &byState))
	assert.EqualValues(t, 1, byState["totalOrders"])

	assert.Equal(t, http.StatusOK, call(t, a, http.MethodDelete, ordersPath+"/"+order.ID, "", nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, a, http.MethodGet, "/api/v1/orders/"+order.ID, "", nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, a, http.MethodPut, ordersPath+"/"+order.ID, "", map[string]string{"status": "shipped"}, nil))

	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, ordersPath, "", nil, &stats))
	assert.EqualValues(t, 0, stats["totalOrders"])
}

func TestHealth(t *testing.T) {
	a := setupApp(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/health", "", nil, &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, http.StatusNotFound, call(t, a, http.MethodGet, "/api/v1/nowhere", "", nil, nil))
}
