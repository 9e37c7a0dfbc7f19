package funding

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/fundme/internal/ledger"
	"github.com/congo-pay/fundme/internal/middleware"
	"github.com/congo-pay/fundme/internal/pricefeed"
)

// Handler exposes HTTP endpoints for the FundMe contract.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Fund records a contribution from the authenticated account.
func (h *Handler) Fund(c *fiber.Ctx) error {
	caller, ok := middleware.Caller(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}
	var req FundRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	value, err := ledger.ParseValue(req.ValueWei, req.ValueEth)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Fund(c.UserContext(), FundInput{Caller: caller, Value: value})
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}

	return c.Status(http.StatusCreated).JSON(FundResponse{
		TransactionID:      result.TransactionID,
		Funder:             result.Funder.Hex(),
		ValueWei:           result.Value.String(),
		ValueEth:           ledger.FormatEther(result.Value),
		ValueUSD:           ledger.FormatEther(result.ValueUSD),
		TotalFundedWei:     result.TotalFunded.String(),
		ContractBalanceWei: result.ContractBalance.String(),
		FunderIndex:        result.FunderIndex,
		CompletedAt:        result.CompletedAt,
	})
}

// Withdraw moves the contract balance to the owner.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	caller, ok := middleware.Caller(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}

	result, err := h.service.Withdraw(c.UserContext(), caller)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}

	return c.JSON(WithdrawResponse{
		TransactionID:   result.TransactionID,
		Owner:           result.Owner.Hex(),
		AmountWei:       result.Amount.String(),
		AmountEth:       ledger.FormatEther(result.Amount),
		FundersReset:    result.FundersReset,
		OwnerBalanceWei: result.OwnerBalance.String(),
		CompletedAt:     result.CompletedAt,
	})
}

// Contract describes the deployment and its current balance.
func (h *Handler) Contract(c *fiber.Ctx) error {
	ctx := c.UserContext()
	balance, err := h.service.Balance(ctx)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	count, err := h.service.FunderCount(ctx)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(ContractResponse{
		Address:     h.service.Address().Hex(),
		Owner:       h.service.Owner().Hex(),
		PriceFeed:   h.service.PriceFeed().Hex(),
		MinimumUSD:  ledger.FormatEther(h.service.MinimumUSD()),
		BalanceWei:  balance.String(),
		BalanceEth:  ledger.FormatEther(balance),
		FunderCount: count,
	})
}

// Price returns the latest oracle round.
func (h *Handler) Price(c *fiber.Ctx) error {
	quote, err := h.service.Rate(c.UserContext())
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(RateResponse{
		Answer:    quote.Rate.Value.String(),
		Decimals:  quote.Rate.Decimals,
		RoundID:   quote.Rate.RoundID,
		UpdatedAt: quote.Rate.UpdatedAt,
		EthUSD:    ledger.FormatEther(quote.EtherUSD),
	})
}

// FunderAt returns the roster entry at the index path parameter.
func (h *Handler) FunderAt(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "index must be an integer")
	}
	funder, err := h.service.FunderAt(c.UserContext(), index)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(FunderResponse{Index: index, Funder: funder.Hex()})
}

// AmountFunded returns the recorded total for the address path parameter.
func (h *Handler) AmountFunded(c *fiber.Ctx) error {
	addr, err := ledger.ParseAddress(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := h.service.AmountFunded(c.UserContext(), addr)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(AmountFundedResponse{
		Funder:    addr.Hex(),
		AmountWei: amount.String(),
		AmountEth: ledger.FormatEther(amount),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, pricefeed.ErrOracleUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrInsufficientContribution),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInvalidAddress),
		errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
