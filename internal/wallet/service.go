package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/congo-pay/fundme/internal/ledger"
)

var (
	// ErrFaucetDisabled is returned outside development networks.
	ErrFaucetDisabled = errors.New("faucet is only available on development networks")

	// ErrFaucetLimit rejects faucet requests above the per-call cap.
	ErrFaucetLimit = errors.New("faucet amount exceeds limit")

	// ErrReceiverRejected wraps an error returned by a registered receiver.
	ErrReceiverRejected = errors.New("receiver rejected transfer")
)

// Receiver is notified instead of a plain credit when value is sent to its
// address. It performs the transfer itself.
type Receiver interface {
	Receive(ctx context.Context, from ledger.Address, amount *big.Int) error
}

// Options tune development-only behaviour.
type Options struct {
	FaucetEnabled bool
	FaucetLimit   *big.Int
}

// Service exposes account operations backed by the ledger.
type Service struct {
	ledger ledger.Ledger
	opts   Options

	mu        sync.RWMutex
	receivers map[ledger.Address]Receiver
}

// NewService builds a wallet service instance.
func NewService(backend ledger.Ledger, opts Options) *Service {
	return &Service{ledger: backend, opts: opts, receivers: make(map[ledger.Address]Receiver)}
}

// RegisterReceiver routes sends addressed to addr through r.
func (s *Service) RegisterReceiver(addr ledger.Address, r Receiver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receivers[addr] = r
}

func (s *Service) receiver(addr ledger.Address) (Receiver, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receivers[addr]
	return r, ok
}

// Balance returns the ledger balance for the account.
func (s *Service) Balance(ctx context.Context, addr ledger.Address) (Balance, error) {
	var amount *big.Int
	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		amount, err = tx.Balance(ctx, addr)
		return err
	})
	if err != nil {
		return Balance{}, err
	}
	return Balance{Address: addr, Amount: amount, AsOf: time.Now().UTC()}, nil
}

// SendInput captures the data needed to move value between accounts.
type SendInput struct {
	From   ledger.Address
	To     ledger.Address
	Amount *big.Int
}

// Send moves value from one account to another. Sends to an address with a
// registered receiver are handed to that receiver; such addresses can never
// be the sender.
func (s *Service) Send(ctx context.Context, input SendInput) (SendResult, error) {
	if input.Amount == nil || input.Amount.Sign() <= 0 {
		return SendResult{}, fmt.Errorf("%w: amount must be positive", ledger.ErrInvalidAmount)
	}
	if input.From.IsZero() || input.To.IsZero() {
		return SendResult{}, ledger.ErrInvalidAddress
	}
	if _, ok := s.receiver(input.From); ok {
		return SendResult{}, fmt.Errorf("%w: sender %s is a contract", ledger.ErrInvalidAddress, input.From.Hex())
	}

	if r, ok := s.receiver(input.To); ok {
		if err := r.Receive(ctx, input.From, input.Amount); err != nil {
			return SendResult{}, fmt.Errorf("%w: %w", ErrReceiverRejected, err)
		}
	} else {
		err := s.ledger.Apply(ctx, func(tx ledger.Tx) error {
			return tx.Transfer(ctx, input.From, input.To, input.Amount)
		})
		if err != nil {
			return SendResult{}, err
		}
	}

	outcome := SendResult{
		TransactionID: uuid.NewString(),
		From:          input.From,
		To:            input.To,
		Amount:        new(big.Int).Set(input.Amount),
		CompletedAt:   time.Now().UTC(),
	}
	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		if outcome.FromBalance, err = tx.Balance(ctx, input.From); err != nil {
			return err
		}
		outcome.ToBalance, err = tx.Balance(ctx, input.To)
		return err
	})
	if err != nil {
		return SendResult{}, err
	}
	return outcome, nil
}

// Faucet mints test value into an account on development networks.
func (s *Service) Faucet(ctx context.Context, addr ledger.Address, amount *big.Int) (Balance, error) {
	if !s.opts.FaucetEnabled {
		return Balance{}, ErrFaucetDisabled
	}
	if addr.IsZero() {
		return Balance{}, ledger.ErrInvalidAddress
	}
	if _, ok := s.receiver(addr); ok {
		return Balance{}, fmt.Errorf("%w: %s is a contract", ledger.ErrInvalidAddress, addr.Hex())
	}
	if amount == nil || amount.Sign() <= 0 {
		return Balance{}, fmt.Errorf("%w: amount must be positive", ledger.ErrInvalidAmount)
	}
	if s.opts.FaucetLimit != nil && amount.Cmp(s.opts.FaucetLimit) > 0 {
		return Balance{}, fmt.Errorf("%w: max %s ETH", ErrFaucetLimit, ledger.FormatEther(s.opts.FaucetLimit))
	}
	err := s.ledger.Apply(ctx, func(tx ledger.Tx) error {
		return tx.Mint(ctx, addr, amount)
	})
	if err != nil {
		return Balance{}, err
	}
	return s.Balance(ctx, addr)
}

// Genesis credits addr with amount unless it already holds value. It
// reports whether a credit happened.
func (s *Service) Genesis(ctx context.Context, addr ledger.Address, amount *big.Int) (bool, error) {
	if amount == nil || amount.Sign() <= 0 {
		return false, nil
	}
	minted := false
	err := s.ledger.Apply(ctx, func(tx ledger.Tx) error {
		current, err := tx.Balance(ctx, addr)
		if err != nil {
			return err
		}
		if current.Sign() != 0 {
			return nil
		}
		minted = true
		return tx.Mint(ctx, addr, amount)
	})
	if err != nil {
		return false, err
	}
	return minted, nil
}
