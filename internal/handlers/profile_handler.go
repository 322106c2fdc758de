package handlers

import (
	"errors"
	"fmt"
	"log"

	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProfileHandler handles HTTP requests for the profile screens:
// address book and favourites.
type ProfileHandler struct {
	addressRepo      repositories.AddressRepository
	favouriteService *services.FavouriteService
	validate         *validator.Validate
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(addressRepo repositories.AddressRepository, favouriteService *services.FavouriteService) *ProfileHandler {
	return &ProfileHandler{
		addressRepo:      addressRepo,
		favouriteService: favouriteService,
		validate:         validator.New(),
	}
}

// RegisterRoutes registers the profile routes with the Fiber app.
func (h *ProfileHandler) RegisterRoutes(router fiber.Router) {
	addressRoutes := router.Group("/addresses")
	addressRoutes.Get("/", h.HandleGetAddresses)
	addressRoutes.Post("/", h.HandleCreateAddress)
	addressRoutes.Put("/:id", h.HandleUpdateAddress)
	addressRoutes.Delete("/:id", h.HandleDeleteAddress)

	favouriteRoutes := router.Group("/favourites")
	favouriteRoutes.Get("/", h.HandleGetFavourites)
	favouriteRoutes.Post("/:productID", h.HandleToggleFavourite)
}

// HandleGetAddresses returns the user's address book.
func (h *ProfileHandler) HandleGetAddresses(c *fiber.Ctx) error {
	addresses, err := h.addressRepo.GetAllForUser(currentUserID(c))
	if err != nil {
		log.Printf("Error getting addresses: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve addresses",
			"error":   err.Error(),
		})
	}
	return c.JSON(addresses)
}

// HandleCreateAddress saves a new address for the user.
func (h *ProfileHandler) HandleCreateAddress(c *fiber.Ctx) error {
	var address models.Address
	if err := c.BodyParser(&address); err != nil {
		log.Printf("Error parsing address request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	address.UserID = currentUserID(c)

	if err := h.validate.Struct(address); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	if err := h.addressRepo.Create(&address); err != nil {
		log.Printf("Error creating address: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not save address",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(address)
}

// HandleUpdateAddress updates an address in the user's book.
func (h *ProfileHandler) HandleUpdateAddress(c *fiber.Ctx) error {
	addressID := c.Params("id")

	existing, err := h.addressRepo.GetByID(addressID)
	if err != nil || existing.UserID != currentUserID(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Address with ID %s not found", addressID),
		})
	}

	var address models.Address
	if err := c.BodyParser(&address); err != nil {
		log.Printf("Error parsing address update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	address.ID = addressID
	address.UserID = currentUserID(c)

	if err := h.validate.Struct(address); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	if err := h.addressRepo.Update(&address); err != nil {
		log.Printf("Error updating address %s: %v", addressID, err)
		if errors.Is(err, repositories.ErrAddressNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Address with ID %s not found", addressID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update address",
			"error":   err.Error(),
		})
	}
	return c.JSON(address)
}

// HandleDeleteAddress removes an address from the user's book.
func (h *ProfileHandler) HandleDeleteAddress(c *fiber.Ctx) error {
	addressID := c.Params("id")

	existing, err := h.addressRepo.GetByID(addressID)
	if err != nil || existing.UserID != currentUserID(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Address with ID %s not found", addressID),
		})
	}

	if err := h.addressRepo.Delete(addressID); err != nil {
		log.Printf("Error deleting address %s: %v", addressID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete address",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Address %s deleted successfully", addressID),
	})
}

// HandleGetFavourites returns the user's favourited products.
func (h *ProfileHandler) HandleGetFavourites(c *fiber.Ctx) error {
	products, err := h.favouriteService.List(currentUserID(c))
	if err != nil {
		log.Printf("Error getting favourites: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve favourites",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleToggleFavourite flips a product's favourite state for the user.
func (h *ProfileHandler) HandleToggleFavourite(c *fiber.Ctx) error {
	productID := c.Params("productID")
	favourited, err := h.favouriteService.Toggle(currentUserID(c), productID)
	if err != nil {
		log.Printf("Error toggling favourite %s: %v", productID, err)
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update favourites",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"product_id": productID,
		"favourited": favourited,
	})
}
