package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/fundme/internal/funding"
	"github.com/congo-pay/fundme/internal/ledger"
	"github.com/congo-pay/fundme/internal/middleware"
	"github.com/congo-pay/fundme/internal/wallet"
)

// RegisterAccountMeRoute exposes a GET endpoint describing the caller's
// balance and standing with the contract.
func RegisterAccountMeRoute(r fiber.Router, wallets *wallet.Service, fundme *funding.Service, jwtmw fiber.Handler) {
	r.Get("/me", jwtmw, func(c *fiber.Ctx) error {
		caller, ok := middleware.Caller(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		bal, err := wallets.Balance(c.UserContext(), caller)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		funded, err := fundme.AmountFunded(c.UserContext(), caller)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"address":           caller.Hex(),
			"balance_wei":       bal.Amount.String(),
			"balance_eth":       ledger.FormatEther(bal.Amount),
			"amount_funded_wei": funded.String(),
			"is_owner":          caller == fundme.Owner(),
			"as_of":             bal.AsOf,
		})
	})
}
