package routes

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/fundme/internal/keystore"
	"github.com/congo-pay/fundme/internal/middleware"
)

// RegisterKeystoreRoutes wires account import and logs each new address.
func RegisterKeystoreRoutes(r fiber.Router, keys *keystore.Service, logger *slog.Logger) {
	h := keystore.NewHandler(keys)
	r.Post("/keystore/accounts", func(c *fiber.Ctx) error {
		if err := h.Import(c); err != nil {
			return err
		}
		if logger != nil && c.Response().StatusCode() == http.StatusCreated {
			logger.Info("keystore.import completed",
				slog.String("request_id", middleware.RequestIDFrom(c)),
				slog.Int("status", http.StatusCreated),
			)
		}
		return nil
	})
}
