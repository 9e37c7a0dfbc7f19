package middleware

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/sha3"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
	idempotencyPrefix    = "fundme:idempotency:"
	pendingMarker        = "pending"
	cacheTimeout         = 2 * time.Second
)

type replay struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type idempotencyStore struct {
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Idempotency lets an unsafe request run at most once per Idempotency-Key.
// Keys are scoped to the route and to the Authorization header, so one
// caller can never receive another caller's stored response. A repeat
// while the first request is still running gets 409; a repeat after it
// completed gets the stored response.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	store := &idempotencyStore{cache: cache, ttl: ttl, logger: logger}
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		key := strings.TrimSpace(c.Get(idempotencyKeyHeader))
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing Idempotency-Key header")
		}
		cacheKey := scopedKey(c, key)

		reserved, err := store.reserve(cacheKey)
		if err != nil {
			logger.Error("idempotency reservation failed", slog.String("key", key), slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		}
		if !reserved {
			return store.replay(c, cacheKey, key)
		}

		if err := c.Next(); err != nil {
			store.release(cacheKey)
			return err
		}
		if err := store.save(c, cacheKey); err != nil {
			logger.Error("failed to persist idempotent response", slog.String("key", key), slog.Any("error", err))
			store.release(cacheKey)
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency persistence failure")
		}
		return nil
	}
}

// scopedKey binds the client key to the method, the path and a digest of
// the credentials presented with the request.
func scopedKey(c *fiber.Ctx, key string) string {
	digest := sha3.Sum256([]byte(c.Get(fiber.HeaderAuthorization)))
	return idempotencyPrefix + c.Method() + ":" + c.Path() + ":" + hex.EncodeToString(digest[:12]) + ":" + key
}

func (s *idempotencyStore) reserve(cacheKey string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	return s.cache.SetNX(ctx, cacheKey, pendingMarker, s.ttl).Result()
}

func (s *idempotencyStore) release(cacheKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	if err := s.cache.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Warn("idempotency release failed", slog.String("cache_key", cacheKey), slog.Any("error", err))
	}
}

func (s *idempotencyStore) save(c *fiber.Ctx, cacheKey string) error {
	payload, err := json.Marshal(replay{
		Status:      c.Response().StatusCode(),
		ContentType: string(c.Response().Header.ContentType()),
		Body:        append([]byte(nil), c.Response().Body()...),
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	return s.cache.Set(ctx, cacheKey, payload, s.ttl).Err()
}

func (s *idempotencyStore) replay(c *fiber.Ctx, cacheKey, key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()

	raw, err := s.cache.Get(ctx, cacheKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// Released between the reservation attempt and the lookup.
		return fiber.NewError(fiber.StatusConflict, "duplicate request, retry")
	case err != nil:
		s.logger.Error("idempotency lookup failed", slog.String("key", key), slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
	case raw == pendingMarker:
		return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
	}

	var stored replay
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Warn("failed to decode stored idempotent response", slog.String("key", key), slog.Any("error", err))
		return fiber.NewError(fiber.StatusConflict, "duplicate request")
	}
	if stored.ContentType != "" {
		c.Set(fiber.HeaderContentType, stored.ContentType)
	}
	c.Set(replayedHeader, "true")
	return c.Status(stored.Status).Send(stored.Body)
}
