package handlers

import "github.com/gofiber/fiber/v2"

// currentUserID pulls the authenticated user's ID out of the request
// context. The auth middleware stores it in Locals as a string.
func currentUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}
