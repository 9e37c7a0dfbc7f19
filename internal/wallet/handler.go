package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/fundme/internal/ledger"
	"github.com/congo-pay/fundme/internal/middleware"
	"github.com/congo-pay/fundme/internal/pricefeed"
)

// Handler exposes account HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type valueRequest struct {
	ValueWei string `json:"value_wei"`
	ValueEth string `json:"value_eth"`
}

type sendRequest struct {
	To string `json:"to"`
	valueRequest
}

type balanceResponse struct {
	Address    string `json:"address"`
	BalanceWei string `json:"balance_wei"`
	BalanceEth string `json:"balance_eth"`
}

type sendResponse struct {
	TransactionID  string `json:"transaction_id"`
	From           string `json:"from"`
	To             string `json:"to"`
	AmountWei      string `json:"amount_wei"`
	FromBalanceWei string `json:"from_balance_wei"`
	ToBalanceWei   string `json:"to_balance_wei"`
}

// Balance returns the account balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	addr, err := ledger.ParseAddress(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	balance, err := h.service.Balance(c.UserContext(), addr)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(toBalanceResponse(balance))
}

// Faucet credits test value to the account.
func (h *Handler) Faucet(c *fiber.Ctx) error {
	addr, err := ledger.ParseAddress(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	var req valueRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := ledger.ParseValue(req.ValueWei, req.ValueEth)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	balance, err := h.service.Faucet(c.UserContext(), addr, amount)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(toBalanceResponse(balance))
}

// Send moves value from the authenticated account.
func (h *Handler) Send(c *fiber.Ctx) error {
	caller, ok := middleware.Caller(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	to, err := ledger.ParseAddress(req.To)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := ledger.ParseValue(req.ValueWei, req.ValueEth)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Send(c.UserContext(), SendInput{From: caller, To: to, Amount: amount})
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(sendResponse{
		TransactionID:  res.TransactionID,
		From:           res.From.Hex(),
		To:             res.To.Hex(),
		AmountWei:      res.Amount.String(),
		FromBalanceWei: res.FromBalance.String(),
		ToBalanceWei:   res.ToBalance.String(),
	})
}

func toBalanceResponse(b Balance) balanceResponse {
	return balanceResponse{
		Address:    b.Address.Hex(),
		BalanceWei: b.Amount.String(),
		BalanceEth: ledger.FormatEther(b.Amount),
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrFaucetDisabled):
		return http.StatusForbidden
	case errors.Is(err, pricefeed.ErrOracleUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrReceiverRejected),
		errors.Is(err, ErrFaucetLimit),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInvalidAddress),
		errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
