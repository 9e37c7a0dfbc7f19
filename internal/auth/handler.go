package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/fundme/internal/keystore"
	"github.com/congo-pay/fundme/internal/ledger"
	"github.com/congo-pay/fundme/internal/middleware"
)

// Handler exposes session endpoints for unlock/refresh/lock.
type Handler struct {
	svc *Service
}

// NewHandler builds an auth HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type unlockRequest struct {
	Address    string `json:"address"`
	Passphrase string `json:"passphrase"`
}

type unlockResponse struct {
	Address      string `json:"address"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Unlock validates the passphrase and returns a token pair.
func (h *Handler) Unlock(c *fiber.Ctx) error {
	var req unlockRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	addr, err := ledger.ParseAddress(req.Address)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	pair, err := h.svc.Unlock(c.UserContext(), addr, req.Passphrase)
	if err != nil {
		if errors.Is(err, keystore.ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(unlockResponse{
		Address:      addr.Hex(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh issues a new access token using a valid refresh token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	token, exp, err := h.svc.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"access_token": token, "expires_in": exp})
}

// Lock invalidates the caller's outstanding tokens.
func (h *Handler) Lock(c *fiber.Ctx) error {
	caller, ok := middleware.Caller(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}
	if err := h.svc.Lock(c.UserContext(), caller); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "locked"})
}
