package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/congo-pay/fundme/internal/config"
	"github.com/congo-pay/fundme/internal/keystore"
	"github.com/congo-pay/fundme/internal/ledger"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

var (
	// ErrInvalidToken covers malformed, expired or wrongly signed tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenRevoked is returned once the account has been locked since issue.
	ErrTokenRevoked = errors.New("token version invalidated")
)

// Claims carried by both access and refresh tokens. Subject is the account
// address.
type Claims struct {
	Version int    `json:"ver"`
	Kind    string `json:"kind"`
	jwt.RegisteredClaims
}

// Service issues and verifies session tokens for unlocked accounts.
type Service struct {
	cfg  config.Config
	keys *keystore.Service
	repo keystore.Repository
}

// NewService wires the token service to the keystore.
func NewService(cfg config.Config, keys *keystore.Service, repo keystore.Repository) *Service {
	return &Service{cfg: cfg, keys: keys, repo: repo}
}

// TokenPair is returned by a successful unlock.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Unlock verifies the passphrase and issues tokens for the account.
func (s *Service) Unlock(ctx context.Context, addr ledger.Address, passphrase string) (TokenPair, error) {
	account, err := s.keys.Unlock(ctx, addr, passphrase)
	if err != nil {
		return TokenPair{}, err
	}
	return s.Issue(account)
}

// Issue signs an access and a refresh token at the account's current version.
func (s *Service) Issue(account keystore.Account) (TokenPair, error) {
	access, err := s.sign(account.Address, account.TokenVersion, kindAccess, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(account.Address, account.TokenVersion, kindRefresh, s.cfg.RefreshSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: int64(s.cfg.AccessTokenTTL.Seconds())}, nil
}

func (s *Service) sign(addr ledger.Address, version int, kind, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Version: version,
		Kind:    kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   addr.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks an access token and returns the caller address it names.
func (s *Service) Verify(ctx context.Context, accessToken string) (ledger.Address, error) {
	claims, err := s.check(ctx, accessToken, kindAccess, s.cfg.JWTSecret)
	if err != nil {
		return ledger.Address{}, err
	}
	return ledger.ParseAddress(claims.Subject)
}

// Refresh verifies the refresh token and returns a new access token if valid.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := s.check(ctx, refreshToken, kindRefresh, s.cfg.RefreshSecret)
	if err != nil {
		return "", 0, err
	}
	addr, err := ledger.ParseAddress(claims.Subject)
	if err != nil {
		return "", 0, ErrInvalidToken
	}
	signed, err := s.sign(addr, claims.Version, kindAccess, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}

// Lock increments the token version so older tokens become invalid.
func (s *Service) Lock(ctx context.Context, addr ledger.Address) error {
	_, err := s.repo.BumpTokenVersion(ctx, addr)
	return err
}

func (s *Service) check(ctx context.Context, raw, kind, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || claims.Kind != kind {
		return nil, ErrInvalidToken
	}

	addr, err := ledger.ParseAddress(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	account, err := s.repo.Find(ctx, addr)
	if err != nil {
		if errors.Is(err, keystore.ErrAccountNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if account.TokenVersion != claims.Version {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}
