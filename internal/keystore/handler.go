package keystore

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/fundme/internal/ledger"
)

// Handler exposes keystore endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a keystore HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type importRequest struct {
	Address    string `json:"address"`
	Passphrase string `json:"passphrase"`
}

type accountResponse struct {
	Address   string `json:"address"`
	CreatedAt string `json:"created_at"`
}

// Import registers an account.
func (h *Handler) Import(c *fiber.Ctx) error {
	var req importRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	account, err := h.service.Import(c.UserContext(), ImportInput{Address: req.Address, Passphrase: req.Passphrase})
	if err != nil {
		switch {
		case errors.Is(err, ErrAccountExists):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, ErrAddressAssigned), errors.Is(err, ErrReservedAddress):
			return fiber.NewError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrWeakPassphrase), errors.Is(err, ledger.ErrInvalidAddress):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(accountResponse{
		Address:   account.Address.Hex(),
		CreatedAt: account.CreatedAt.Format(http.TimeFormat),
	})
}
