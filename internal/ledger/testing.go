package ledger

import (
	"context"
	"math/big"
)

// SeedBalance is a test helper that credits an account on any ledger backend.
func SeedBalance(l Ledger, addr Address, amount *big.Int) {
	_ = l.Apply(context.Background(), func(tx Tx) error {
		return tx.Mint(context.Background(), addr, amount)
	})
}

// BalanceOf is a test helper returning the native balance of addr, or nil
// when the read fails.
func BalanceOf(l Ledger, addr Address) *big.Int {
	var out *big.Int
	_ = l.View(context.Background(), func(tx Tx) error {
		b, err := tx.Balance(context.Background(), addr)
		out = b
		return err
	})
	return out
}
