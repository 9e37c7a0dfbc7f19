package funding

import (
	"fmt"
	"math/big"

	"github.com/congo-pay/fundme/internal/ledger"
	"github.com/congo-pay/fundme/internal/pricefeed"
)

// ConvertToUSD returns the USD value of a wei amount using rate. Because wei
// carries 18 decimals the result is USD with 18 decimals:
//
//	usd = wei * rate.Value / 10^rate.Decimals
//
// Division truncates, which is floor for the non-negative inputs accepted here.
func ConvertToUSD(wei *big.Int, rate pricefeed.Rate) (*big.Int, error) {
	if err := rate.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pricefeed.ErrOracleUnavailable, err)
	}
	usd := new(big.Int).Mul(wei, rate.Value)
	return usd.Quo(usd, rate.Scale()), nil
}

// usdUnits expresses a whole-dollar amount with 18 decimals.
func usdUnits(whole int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(whole), ledger.Ether)
}
