package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/fundme/internal/auth"
)

// RegisterAuthRoutes wires session endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter, jwtmw fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/unlock", rateLimiter, h.Unlock)
	} else {
		group.Post("/unlock", h.Unlock)
	}
	group.Post("/refresh", h.Refresh)
	group.Post("/lock", jwtmw, h.Lock)
}
