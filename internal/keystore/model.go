package keystore

import (
	"time"

	"github.com/congo-pay/fundme/internal/ledger"
)

// Account binds an address to a passphrase. TokenVersion is bumped on lock
// so that previously issued session tokens stop verifying.
type Account struct {
	Address        ledger.Address
	PassphraseHash []byte
	TokenVersion   int
	CreatedAt      time.Time
	LastUnlockedAt *time.Time
}

// ImportInput request structure. Address must be empty; a non-empty value
// is rejected.
type ImportInput struct {
	Address    string
	Passphrase string
}
