package ledger

import (
	"context"
	"errors"
	"math/big"
)

var (
	// ErrInsufficientFunds occurs when the source account lacks available balance
	// to cover a requested transfer.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAddress reports a malformed or unusable account address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidAmount reports a missing, negative or malformed amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrReadOnly is returned by mutating calls made inside View.
	ErrReadOnly = errors.New("read-only transaction")
)

// Ledger is the execution environment every state transition runs against.
// Apply calls are applied one at a time in a single total order; when the
// callback returns an error none of its effects become visible.
type Ledger interface {
	Apply(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
}

// Tx exposes native balances and contract storage inside a single atomic unit.
// Amounts returned are never nil and are owned by the caller.
type Tx interface {
	Balance(ctx context.Context, addr Address) (*big.Int, error)
	Transfer(ctx context.Context, from, to Address, amount *big.Int) error
	Mint(ctx context.Context, to Address, amount *big.Int) error

	AmountFunded(ctx context.Context, contract, funder Address) (*big.Int, error)
	AddFunded(ctx context.Context, contract, funder Address, amount *big.Int) error
	ResetFunded(ctx context.Context, contract, funder Address) error

	AppendFunder(ctx context.Context, contract, funder Address) error
	Funders(ctx context.Context, contract Address) ([]Address, error)
	FunderAt(ctx context.Context, contract Address, index int) (Address, bool, error)
	FunderCount(ctx context.Context, contract Address) (int, error)
	ClearFunders(ctx context.Context, contract Address) error
}
