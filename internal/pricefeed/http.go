package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

// HTTPDoer abstracts http.Client for ease of testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

const defaultHTTPTimeout = 5 * time.Second

// HTTPFeed reads the latest round from a JSON endpoint that mirrors an
// on-chain aggregator:
//
//	{"answer": "200000000000", "decimals": 8, "round_id": 42, "updated_at": 1700000000}
type HTTPFeed struct {
	client   HTTPDoer
	endpoint string
	timeout  time.Duration
	maxAge   time.Duration
	now      func() time.Time
}

// HTTPOption customises an HTTPFeed.
type HTTPOption func(*HTTPFeed)

// WithClient overrides the HTTP client.
func WithClient(client HTTPDoer) HTTPOption {
	return func(f *HTTPFeed) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFeed) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxAge rejects rounds whose updated_at is older than d. Zero disables the check.
func WithMaxAge(d time.Duration) HTTPOption {
	return func(f *HTTPFeed) { f.maxAge = d }
}

// NewHTTPFeed constructs a feed for endpoint.
func NewHTTPFeed(endpoint string, opts ...HTTPOption) (*HTTPFeed, error) {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		return nil, fmt.Errorf("price feed endpoint is required")
	}
	f := &HTTPFeed{
		client:   http.DefaultClient,
		endpoint: ep,
		timeout:  defaultHTTPTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

type roundPayload struct {
	Answer    json.Number `json:"answer"`
	Decimals  *int        `json:"decimals"`
	RoundID   uint64      `json:"round_id"`
	UpdatedAt int64       `json:"updated_at"`
}

// CurrentRate fetches and validates the latest round.
func (f *HTTPFeed) CurrentRate(ctx context.Context) (Rate, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return Rate{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Rate{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Rate{}, fmt.Errorf("%w: status %d: %s", ErrOracleUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload roundPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Rate{}, fmt.Errorf("%w: decode: %v", ErrOracleUnavailable, err)
	}
	answer, ok := new(big.Int).SetString(payload.Answer.String(), 10)
	if !ok {
		return Rate{}, fmt.Errorf("%w: invalid answer %q", ErrOracleUnavailable, payload.Answer)
	}
	if payload.Decimals == nil || *payload.Decimals < 0 || *payload.Decimals > MaxDecimals {
		return Rate{}, fmt.Errorf("%w: invalid decimals", ErrOracleUnavailable)
	}

	rate := Rate{
		Value:    answer,
		Decimals: uint8(*payload.Decimals),
		RoundID:  payload.RoundID,
	}
	if payload.UpdatedAt > 0 {
		rate.UpdatedAt = time.Unix(payload.UpdatedAt, 0).UTC()
	}
	if err := rate.Validate(); err != nil {
		return Rate{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	if f.maxAge > 0 && (rate.UpdatedAt.IsZero() || f.now().Sub(rate.UpdatedAt) > f.maxAge) {
		return Rate{}, fmt.Errorf("%w: stale round %d", ErrOracleUnavailable, rate.RoundID)
	}
	return rate, nil
}
