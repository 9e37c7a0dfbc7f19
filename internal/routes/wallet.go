package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/fundme/internal/wallet"
)

// RegisterWalletRoutes wires account balance, faucet and transfer endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, jwtmw fiber.Handler) {
	r.Get("/accounts/:address/balance", h.Balance)
	r.Post("/accounts/:address/faucet", h.Faucet)
	r.Post("/transfers", jwtmw, h.Send)
}
