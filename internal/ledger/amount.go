package ledger

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// EtherDecimals is the number of decimals between wei and ether.
const EtherDecimals = 18

// Ether is one ether expressed in wei.
var Ether = new(big.Int).Exp(big.NewInt(10), big.NewInt(EtherDecimals), nil)

// ParseWei decodes a base-10 wei amount. Negative values are rejected.
func ParseWei(s string) (*big.Int, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidAmount, s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative amount", ErrInvalidAmount)
	}
	return v, nil
}

// ParseEther converts a decimal ether amount such as "0.03" into wei.
// Amounts with more than 18 fractional digits are rejected.
func ParseEther(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: negative amount", ErrInvalidAmount)
	}
	wei := d.Shift(EtherDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("%w: more than %d decimals", ErrInvalidAmount, EtherDecimals)
	}
	return wei.BigInt(), nil
}

// ParseValue decodes a value given either in wei or in ether. Setting both is
// an error; setting neither yields zero.
func ParseValue(wei, eth string) (*big.Int, error) {
	switch {
	case wei != "" && eth != "":
		return nil, fmt.Errorf("%w: set either wei or ether, not both", ErrInvalidAmount)
	case wei != "":
		return ParseWei(wei)
	case eth != "":
		return ParseEther(eth)
	default:
		return zero(), nil
	}
}

// FormatEther renders a wei amount as a decimal ether string.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -EtherDecimals).String()
}

// FormatUnits renders a fixed-point integer with the given decimals.
func FormatUnits(v *big.Int, decimals int32) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -decimals).String()
}

func zero() *big.Int {
	return new(big.Int)
}

func valid(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}
