package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"pasar/internal/handlers"
	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/payment"
	"pasar/internal/repositories"
	"pasar/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq int64

// testApp bundles the Fiber app with the pieces tests poke at directly.
type testApp struct {
	app          *fiber.App
	authService  *services.AuthService
	orderService *services.OrderService
	gateway      *payment.MockGateway
}

// setupApp wires the full application against an in-memory SQLite
// database and the mock payment gateway. Each call gets its own named
// memory database so tests stay isolated.
func setupApp() (*testApp, error) {
	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to in-memory database: %w", err)
	}

	if err := db.AutoMigrate(&models.Product{}, &models.User{}, &models.Address{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	// Repositories: SQL-backed where the schema exists, in-memory for
	// session-scoped state.
	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	addressRepo := repositories.NewGORMAddressRepository(db)
	cartRepo := repositories.NewMemoryCartRepository()
	orderRepo := repositories.NewMockOrderRepository()
	favouriteRepo := repositories.NewMemoryFavouriteRepository()

	pricing := services.PricingConfig{
		TaxRateBps:                 1100,
		DeliveryFeeMinor:           1500,
		FreeDeliveryThresholdMinor: 10000,
		PromoDiscounts:             map[string]int64{"WELCOME": 1000},
	}
	gateway := payment.NewMockGateway()

	authService := services.NewAuthService(userRepo, "test_jwt_secret", 5*time.Minute)
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo, productRepo, pricing)
	orderService := services.NewOrderService(orderRepo, nil, 60, 0)
	checkoutService := services.NewCheckoutService(cartService, orderService, addressRepo, gateway, "IDR")
	favouriteService := services.NewFavouriteService(favouriteRepo, productRepo)

	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	orderHandler := handlers.NewOrderHandler(orderService)
	profileHandler := handlers.NewProfileHandler(addressRepo, favouriteService)

	app := fiber.New()

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)

	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	productHandler.RegisterRoutes(protectedRoutes)
	cartHandler.RegisterRoutes(protectedRoutes)
	checkoutHandler.RegisterRoutes(protectedRoutes)
	orderHandler.RegisterRoutes(protectedRoutes)
	profileHandler.RegisterRoutes(protectedRoutes)

	return &testApp{
		app:          app,
		authService:  authService,
		orderService: orderService,
		gateway:      gateway,
	}, nil
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

// doJSON fires a JSON request at the app and decodes the response body
// into out (which may be nil).
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}, out interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	if out != nil {
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	resp.Body.Close()
	return resp
}

// registerAndLogin creates a user and returns a bearer token for them.
func registerAndLogin(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"phone":    "+6281234567890",
	}, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var loginResp map[string]string
	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	}, &loginResp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

// createProduct inserts a catalog item through the API and returns it.
func createProduct(t *testing.T, app *fiber.App, token, name string, priceMinor int64) models.Product {
	t.Helper()

	var created models.Product
	resp := doJSON(t, app, http.MethodPost, "/api/v1/products", token, map[string]interface{}{
		"name":        name,
		"description": "integration test item",
		"category":    "grocery",
		"price_minor": priceMinor,
		"stock":       100,
	}, &created)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, created.ID)
	return created
}

func TestAuthRegisterAndLogin(t *testing.T) {
	ta, err := setupApp()
	assert.NoError(t, err)
	defer ta.orderService.Close()

	token := registerAndLogin(t, ta.app, "authuser")

	claims, err := ta.authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "authuser", claims["username"])
	assert.Contains(t, claims, "user_id")

	// Duplicate registration is rejected with a conflict
	resp := doJSON(t, ta.app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "authuser",
		"email":    "authuser@example.com",
		"password": "password123",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAuthOTPLogin(t *testing.T) {
	ta, err := setupApp()
	assert.NoError(t, err)
	defer ta.orderService.Close()

	registerAndLogin(t, ta.app, "otpuser")

	// An unregistered phone gets a 401 without revealing anything
	resp := doJSON(t, ta.app, http.MethodPost, "/api/v1/auth/otp/request", "", map[string]string{
		"phone": "+6289999999999",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The registered phone gets a 6-digit code
	var otpResp map[string]string
	resp = doJSON(t, ta.app, http.MethodPost, "/api/v1/auth/otp/request", "", map[string]string{
		"phone": "+6281234567890",
	}, &otpResp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, otpResp["code"], 6)

	// The code exchanges for a working JWT
	var verifyResp map[string]string
	resp = doJSON(t, ta.app, http.MethodPost, "/api/v1/auth/otp/verify", "", map[string]string{
		"phone": "+6281234567890",
		"code":  otpResp["code"],
	}, &verifyResp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	claims, err := ta.authService.ValidateToken(verifyResp["token"])
	assert.NoError(t, err)
	assert.Equal(t, "otpuser", claims["username"])
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	ta, err := setupApp()
	assert.NoError(t, err)
	defer ta.orderService.Close()

	for _, path := range []string{
		"/api/v1/products",
		"/api/v1/cart",
		"/api/v1/orders",
		"/api/v1/addresses",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := ta.app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		resp.Body.Close()
	}
}

func TestProductSearch(t *testing.T) {
	ta, err := setupApp()
	assert.NoError(t, err)
	defer ta.orderService.Close()

	token := registerAndLogin(t, ta.app, "searcher")
	createProduct(t, ta.app, token, "Kopi Susu Botol", 2500)
	createProduct(t, ta.app, token, "Teh Melati", 1800)

	var results []models.Product
	resp := doJSON(t, ta.app, http.MethodGet, "/api/v1/products/search?q=kopi", token, nil, &results)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, results, 1)
	assert.Equal(t, "Kopi Susu Botol", results[0].Name)

	// Price filter in minor units
	resp = doJSON(t, ta.app, http.MethodGet, "/api/v1/products/search?price_max=2000", token, nil, &results)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, results, 1)
	assert.Equal(t, "Teh Melati", results[0].Name)
}

func TestCartEndpoints(t *testing.T) {
	ta, err := setupApp()
	assert.NoError(t, err)
	defer ta.orderService.Close()

	token := registerAndLogin(t, ta.app, "shopper")
	product := createProduct(t, ta.app, token, "Kopi Susu", 1000)

	// Add 2 units
	var cart models.Cart
	resp := doJSON(t, ta.app, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": product.ID,
		"quantity":   2,
	}, &cart)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Quantity)

	// Unknown product is a 404
	resp = doJSON(t, ta.app, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": "no-such-product",
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Totals: subtotal 2000, 11% tax 220, fee 1500
	var totals models.CartTotals
	resp = doJSON(t, ta.app, http.MethodGet, "/api/v1/cart/totals", token, nil, &totals)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(2000), totals.SubtotalMinor)
	assert.Equal(t, int64(220), totals.TaxMinor)
	assert.Equal(t, int64(1500), totals.DeliveryFeeMinor)
	assert.Equal(t, int64(3720), totals.GrandTotalMinor)

	// Change the quantity
	resp = doJSON(t, ta.app, http.MethodPatch, "/api/v1/cart/items/"+product.ID, token, map[string]int{
		"quantity": 5,
	}, &cart)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, cart.Lines[0].Quantity)

	// Promo codes: unknown rejected, known applied
	resp = doJSON(t, ta.app, http.MethodPost, "/api/v1/cart/promo", token, map[string]string{"code": "BOGUS"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = doJSON(t, ta.app, http.MethodPost, "/api/v1/cart/promo", token, map[string]string{"code": "WELCOME"}, &cart)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "WELCOME", cart.PromoCode)

	// Remove the line
	resp = doJSON(t, ta.app, http.MethodDelete, "/api/v1/cart/items/"+product.ID, token, nil, &cart)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, cart.Lines)
}

// unavailableCartRepo stands in for a persistent cart store whose
// lookup misses for the requesting user.
type unavailableCartRepo struct{}

func (unavailableCartRepo) Get(userID string) (*models.Cart, error) {
	return nil, fmt.Errorf("cart for user %s: %w", userID, repositories.ErrUserNotFound)
}

func (unavailableCartRepo) Save(*models.Cart) error { return nil }

func (unavailableCartRepo) Clear(string) error { return nil }

func TestCartSetQuantityMapsRepositoryMiss(t *testing.T) {
	cartService := services.NewCartService(unavailableCartRepo{}, repositories.NewMockProductRepository(), services.PricingConfig{})

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	})
	handlers.NewCartHandler(cartService).RegisterRoutes(app.Group("/api/v1"))

	// A repository miss is the caller's problem, not the server's
	resp := doJSON(t, app, http.MethodPatch, "/api/v1/cart/items/p1", "", map[string]int{"quantity": 3}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckoutAndOrderFlow(t *testing.T) {
	ta, err := setupApp()
	assert.NoError(t, err)
	defer ta.orderService.Close()

	token := registerAndLogin(t, ta.app, "buyer")
	product := createProduct(t, ta.app, token, "Kopi Susu", 1000)

	doJSON(t, ta.app, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": product.ID,
		"quantity":   2,
	}, nil)

	var session services.CheckoutSession
	resp := doJSON(t, ta.app, http.MethodPost, "/api/v1/checkout", token, map[string]interface{}{
		"address": map[string]string{
			"street": "Jl. Sudirman No. 1",
			"city":   "Jakarta",
		},
	}, &session)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, int64(2000), session.Totals.SubtotalMinor)

	// Pay; the default mock gateway approves
	var payResp struct {
		Outcome payment.Outcome `json:"outcome"`
		Order   models.Order    `json:"order"`
	}
	resp = doJSON(t, ta.app, http.MethodPost, "/api/v1/checkout/"+session.Token+"/payment", token, map[string]string{
		"method": "card",
	}, &payResp)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, payment.OutcomeApproved, payResp.Outcome.Status)
	assert.Equal(t, models.StatusPlaced, payResp.Order.Status)
	orderID := payResp.Order.ID

	// The cart is now empty
	var cart models.Cart
	resp = doJSON(t, ta.app, http.MethodGet, "/api/v1/cart", token, nil, &cart)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, cart.Lines)

	// The order shows up with its cancellation window open
	var orderView struct {
		Order               models.Order `json:"order"`
		Cancellable         bool         `json:"cancellable"`
		CancelWindowSeconds int          `json:"cancel_window_seconds"`
	}
	resp = doJSON(t, ta.app, http.MethodGet, "/api/v1/orders/"+orderID, token, nil, &orderView)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, orderView.Cancellable)
	assert.Equal(t, 60, orderView.CancelWindowSeconds)

	// An out-of-order transition is rejected
	resp = doJSON(t, ta.app, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", token, map[string]string{
		"status": "out_for_delivery",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The single legal successor is accepted
	resp = doJSON(t, ta.app, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", token, map[string]string{
		"status": "confirmed",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Still cancellable from confirmed, inside the window
	var cancelResp struct {
		Order models.Order `json:"order"`
	}
	resp = doJSON(t, ta.app, http.MethodPost, "/api/v1/orders/"+orderID+"/cancel", token, nil, &cancelResp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusCancelled, cancelResp.Order.Status)

	// A second cancel attempt conflicts
	resp = doJSON(t, ta.app, http.MethodPost, "/api/v1/orders/"+orderID+"/cancel", token, nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCheckoutDeclinedKeepsCart(t *testing.T) {
	ta, err := setupApp()
	assert.NoError(t, err)
	defer ta.orderService.Close()

	token := registerAndLogin(t, ta.app, "decliner")
	product := createProduct(t, ta.app, token, "Kopi Susu", 1000)

	doJSON(t, ta.app, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": product.ID,
		"quantity":   1,
	}, nil)

	var session services.CheckoutSession
	resp := doJSON(t, ta.app, http.MethodPost, "/api/v1/checkout", token, map[string]interface{}{
		"address": map[string]string{"street": "Jl. Sudirman No. 1", "city": "Jakarta"},
	}, &session)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	ta.gateway.Enqueue(payment.Outcome{Status: payment.OutcomeDeclined, Reason: "insufficient funds"})

	var payResp struct {
		Outcome payment.Outcome `json:"outcome"`
	}
	resp = doJSON(t, ta.app, http.MethodPost, "/api/v1/checkout/"+session.Token+"/payment", token, map[string]string{
		"method": "card",
	}, &payResp)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, payment.OutcomeDeclined, payResp.Outcome.Status)

	// The cart survived and no order exists
	var cart models.Cart
	doJSON(t, ta.app, http.MethodGet, "/api/v1/cart", token, nil, &cart)
	assert.Len(t, cart.Lines, 1)

	var orders []models.Order
	doJSON(t, ta.app, http.MethodGet, "/api/v1/orders", token, nil, &orders)
	assert.Empty(t, orders)
}

func TestCheckoutEmptyCart(t *testing.T) {
	ta, err := setupApp()
	assert.NoError(t, err)
	defer ta.orderService.Close()

	token := registerAndLogin(t, ta.app, "emptybuyer")

	resp := doJSON(t, ta.app, http.MethodPost, "/api/v1/checkout", token, map[string]interface{}{
		"address": map[string]string{"street": "Jl. Sudirman No. 1", "city": "Jakarta"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckoutUsesDefaultAddress(t *testing.T) {
	ta, err := setupApp()
	assert.NoError(t, err)
	defer ta.orderService.Close()

	token := registerAndLogin(t, ta.app, "addressed")
	product := createProduct(t, ta.app, token, "Kopi Susu", 1000)

	doJSON(t, ta.app, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": product.ID,
	}, nil)

	// Without an address anywhere the checkout cannot start
	resp := doJSON(t, ta.app, http.MethodPost, "/api/v1/checkout", token, map[string]interface{}{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Save a default address, then checkout without one in the request
	var saved models.Address
	resp = doJSON(t, ta.app, http.MethodPost, "/api/v1/addresses", token, map[string]interface{}{
		"label":      "Home",
		"street":     "Jl. Thamrin No. 9",
		"city":       "Jakarta",
		"is_default": true,
	}, &saved)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var session services.CheckoutSession
	resp = doJSON(t, ta.app, http.MethodPost, "/api/v1/checkout", token, map[string]interface{}{}, &session)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Jl. Thamrin No. 9", session.DeliveryAddress.Street)
}

func TestFavourites(t *testing.T) {
	ta, err := setupApp()
	assert.NoError(t, err)
	defer ta.orderService.Close()

	token := registerAndLogin(t, ta.app, "collector")
	product := createProduct(t, ta.app, token, "Kopi Susu", 1000)

	// Toggle on
	resp := doJSON(t, ta.app, http.MethodPost, "/api/v1/favourites/"+product.ID, token, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var favourites []models.Product
	doJSON(t, ta.app, http.MethodGet, "/api/v1/favourites", token, nil, &favourites)
	assert.Len(t, favourites, 1)

	// Toggle off
	resp = doJSON(t, ta.app, http.MethodPost, "/api/v1/favourites/"+product.ID, token, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	doJSON(t, ta.app, http.MethodGet, "/api/v1/favourites", token, nil, &favourites)
	assert.Empty(t, favourites)
}
