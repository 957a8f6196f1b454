package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"bim-viewer-service/internal/auth"
	"bim-viewer-service/internal/identity"
)

// ProfileHandler proxies profile updates to the identity provider.
type ProfileHandler struct {
	Identity *identity.Client
}

// NewProfileHandler creates a new ProfileHandler with the given identity client.
func NewProfileHandler(client *identity.Client) *ProfileHandler {
	return &ProfileHandler{Identity: client}
}

// UpdateProfile handles PUT /profile to change the caller's display name.
// @Summary Update profile
// @Description Change the authenticated user's display name at the identity provider
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body object{name=string} true "New display name"
// @Success 200 {object} map[string]interface{} "Update confirmation"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 502 {object} map[string]interface{} "Identity provider error"
// @Router /profile [put]
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "invalid request body",
		})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "name must not be empty",
		})
	}
	if err := h.Identity.UpdateProfile(c.Context(), auth.ExtractToken(c), name); err != nil {
		log.Printf("Profile update failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": true, "message": "could not update profile",
		})
	}
	return c.JSON(fiber.Map{"message": "profile updated successfully"})
}

// Health handles GET /health for liveness probes.
// @Summary Health check
// @Description Reports service liveness
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "Service is healthy"
// @Router /health [get]
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}
