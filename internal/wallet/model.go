package wallet

import (
	"math/big"
	"time"

	"github.com/congo-pay/fundme/internal/ledger"
)

// Balance encapsulates the native value held by an account.
type Balance struct {
	Address ledger.Address
	Amount  *big.Int
	AsOf    time.Time
}

// SendResult describes the ledger outcome of a value transfer.
type SendResult struct {
	TransactionID string
	From          ledger.Address
	To            ledger.Address
	Amount        *big.Int
	FromBalance   *big.Int
	ToBalance     *big.Int
	CompletedAt   time.Time
}
