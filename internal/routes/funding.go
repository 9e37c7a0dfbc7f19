package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/fundme/internal/funding"
)

// RegisterFundingRoutes wires the contract endpoints. Reads are public;
// fund and withdraw act on behalf of the authenticated caller.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler, jwtmw fiber.Handler) {
	group := r.Group("/fundme")
	group.Get("", h.Contract)
	group.Get("/price", h.Price)
	group.Get("/funders/:index", h.FunderAt)
	group.Get("/funded/:address", h.AmountFunded)
	group.Post("/fund", jwtmw, h.Fund)
	group.Post("/withdraw", jwtmw, h.Withdraw)
}
