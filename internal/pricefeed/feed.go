package pricefeed

import (
	"context"
	"errors"
	"math/big"
	"time"
)

// ErrOracleUnavailable reports that the price source could not be reached or
// returned data that cannot be used.
var ErrOracleUnavailable = errors.New("price oracle unavailable")

// MaxDecimals bounds the fixed-point precision accepted from a source.
const MaxDecimals = 36

// Feed represents a connector to an external ETH/USD price source.
// Implementations keep no local copy of the rate: every call re-reads it.
type Feed interface {
	CurrentRate(ctx context.Context) (Rate, error)
}

// Rate is one price round: Value is USD per ether with Decimals fixed-point
// digits, so 2000 USD at 8 decimals is 200000000000.
type Rate struct {
	Value     *big.Int
	Decimals  uint8
	RoundID   uint64
	UpdatedAt time.Time
}

// Validate checks a rate is usable for conversion.
func (r Rate) Validate() error {
	if r.Value == nil || r.Value.Sign() <= 0 {
		return errors.New("non-positive answer")
	}
	if r.Decimals > MaxDecimals {
		return errors.New("too many decimals")
	}
	return nil
}

// Scale returns 10^Decimals.
func (r Rate) Scale() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(r.Decimals)), nil)
}
