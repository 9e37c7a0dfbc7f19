package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/fundme/internal/ledger"
)

const callerLocal = "caller"

// TokenVerifier resolves a bearer token to the account it was issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (ledger.Address, error)
}

// JWTAuth returns a middleware that validates access tokens and stores the
// caller address for downstream handlers.
func JWTAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])
		addr, err := verifier.Verify(c.UserContext(), token)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		c.Locals(callerLocal, addr)
		return c.Next()
	}
}

// Caller returns the authenticated account set by JWTAuth.
func Caller(c *fiber.Ctx) (ledger.Address, bool) {
	addr, ok := c.Locals(callerLocal).(ledger.Address)
	return addr, ok && !addr.IsZero()
}
