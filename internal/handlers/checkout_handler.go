package handlers

import (
	"errors"
	"log"

	"pasar/internal/models"
	"pasar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler handles HTTP requests for the checkout flow.
type CheckoutHandler struct {
	service *services.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
	}
}

// RegisterRoutes registers the checkout routes with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	checkoutRoutes := router.Group("/checkout")
	checkoutRoutes.Post("/", h.HandleBeginCheckout)
	checkoutRoutes.Post("/:token/payment", h.HandleSubmitPayment)
}

// BeginCheckoutRequest represents the request body for opening a
// checkout session. The address may be omitted to use the saved
// default.
type BeginCheckoutRequest struct {
	Address        models.Address `json:"address"`
	DeliveryOption string         `json:"delivery_option"`
}

// HandleBeginCheckout validates the cart and opens a checkout session.
func (h *CheckoutHandler) HandleBeginCheckout(c *fiber.Ctx) error {
	var req BeginCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing checkout request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	session, err := h.service.BeginCheckout(currentUserID(c), req.Address, req.DeliveryOption)
	if err != nil {
		log.Printf("Error beginning checkout: %v", err)
		if services.IsCheckoutError(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Checkout cannot start",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not begin checkout",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// SubmitPaymentRequest represents the request body for a payment attempt.
type SubmitPaymentRequest struct {
	Method string `json:"method"`
}

// HandleSubmitPayment sends the session total through the payment
// gateway. An approval returns the new order; a decline or abandon
// returns the outcome with the cart untouched.
func (h *CheckoutHandler) HandleSubmitPayment(c *fiber.Ctx) error {
	var req SubmitPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing payment request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	order, outcome, err := h.service.SubmitPayment(c.Params("token"), req.Method)
	if err != nil {
		log.Printf("Error submitting payment: %v", err)
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Checkout session not found",
				"error":   err.Error(),
			})
		case errors.Is(err, services.ErrCheckoutInProgress):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "A payment is already in progress for this session",
				"error":   err.Error(),
			})
		case errors.Is(err, services.ErrSessionClosed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "This checkout session is already completed",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not submit payment",
			"error":   err.Error(),
		})
	}

	if order != nil {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"outcome": outcome,
			"order":   order,
		})
	}
	// Declined or abandoned at the gateway: the caller decides whether
	// to retry; their cart is still intact.
	return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
		"outcome": outcome,
	})
}
