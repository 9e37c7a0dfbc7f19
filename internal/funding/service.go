package funding

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/congo-pay/fundme/internal/ledger"
	"github.com/congo-pay/fundme/internal/notification"
	"github.com/congo-pay/fundme/internal/pricefeed"
)

var (
	// ErrInsufficientContribution rejects contributions worth less than the minimum.
	ErrInsufficientContribution = errors.New("You need to spend more ETH!")

	// ErrNotOwner rejects privileged calls from anyone but the deployer.
	ErrNotOwner = errors.New("FundMe__NotOwner")

	// ErrIndexOutOfRange is returned by FunderAt for an index past the roster.
	ErrIndexOutOfRange = errors.New("funder index out of range")
)

// DefaultMinimumUSD is the contribution threshold in whole US dollars.
const DefaultMinimumUSD = 50

// Deployment fixes the immutable parameters of a FundMe contract.
type Deployment struct {
	Deployer   ledger.Address
	PriceFeed  ledger.Address
	Nonce      uint64
	MinimumUSD int64
}

// Service is a deployed FundMe contract: it records contributions worth at
// least the minimum and lets the owner withdraw everything.
type Service struct {
	ledger     ledger.Ledger
	feed       pricefeed.Feed
	notifier   notification.Notifier
	address    ledger.Address
	owner      ledger.Address
	priceFeed  ledger.Address
	minimumUSD *big.Int
}

// NewService deploys a contract. The owner is the deployer.
func NewService(ledgerBackend ledger.Ledger, feed pricefeed.Feed, d Deployment, notifier notification.Notifier) (*Service, error) {
	if ledgerBackend == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if feed == nil {
		return nil, fmt.Errorf("price feed is required")
	}
	if d.Deployer.IsZero() {
		return nil, fmt.Errorf("deployer: %w", ledger.ErrInvalidAddress)
	}
	if d.MinimumUSD < 0 {
		return nil, fmt.Errorf("minimum usd must not be negative")
	}
	if d.MinimumUSD == 0 {
		d.MinimumUSD = DefaultMinimumUSD
	}
	return &Service{
		ledger:     ledgerBackend,
		feed:       feed,
		notifier:   notifier,
		address:    ledger.CreateAddress(d.Deployer, d.Nonce),
		owner:      d.Deployer,
		priceFeed:  d.PriceFeed,
		minimumUSD: usdUnits(d.MinimumUSD),
	}, nil
}

// FundInput captures a contribution: the caller and the attached value in wei.
type FundInput struct {
	Caller ledger.Address
	Value  *big.Int
}

// FundResult represents the outcome of a recorded contribution.
type FundResult struct {
	TransactionID   string
	Funder          ledger.Address
	Value           *big.Int
	ValueUSD        *big.Int
	TotalFunded     *big.Int
	ContractBalance *big.Int
	FunderIndex     int
	CompletedAt     time.Time
}

// Fund converts the attached value to USD and, when it meets the minimum,
// moves it into the contract and records the caller as a funder.
func (s *Service) Fund(ctx context.Context, input FundInput) (FundResult, error) {
	if input.Caller.IsZero() || input.Caller == s.address {
		return FundResult{}, fmt.Errorf("caller: %w", ledger.ErrInvalidAddress)
	}
	if input.Value == nil || input.Value.Sign() < 0 {
		return FundResult{}, ledger.ErrInvalidAmount
	}

	rate, err := s.feed.CurrentRate(ctx)
	if err != nil {
		if errors.Is(err, pricefeed.ErrOracleUnavailable) {
			return FundResult{}, err
		}
		return FundResult{}, fmt.Errorf("%w: %v", pricefeed.ErrOracleUnavailable, err)
	}
	usd, err := ConvertToUSD(input.Value, rate)
	if err != nil {
		return FundResult{}, err
	}
	if usd.Cmp(s.minimumUSD) < 0 {
		return FundResult{}, ErrInsufficientContribution
	}

	res := FundResult{
		TransactionID: uuid.NewString(),
		Funder:        input.Caller,
		Value:         new(big.Int).Set(input.Value),
		ValueUSD:      usd,
	}
	err = s.ledger.Apply(ctx, func(tx ledger.Tx) error {
		if err := tx.Transfer(ctx, input.Caller, s.address, input.Value); err != nil {
			return err
		}
		if err := tx.AddFunded(ctx, s.address, input.Caller, input.Value); err != nil {
			return err
		}
		if err := tx.AppendFunder(ctx, s.address, input.Caller); err != nil {
			return err
		}
		if res.TotalFunded, err = tx.AmountFunded(ctx, s.address, input.Caller); err != nil {
			return err
		}
		if res.ContractBalance, err = tx.Balance(ctx, s.address); err != nil {
			return err
		}
		count, err := tx.FunderCount(ctx, s.address)
		if err != nil {
			return err
		}
		res.FunderIndex = count - 1
		return nil
	})
	if err != nil {
		return FundResult{}, err
	}
	res.CompletedAt = time.Now().UTC()

	s.emit(ctx, notification.Message{
		Kind:      notification.KindFunded,
		Account:   input.Caller.Hex(),
		AmountWei: input.Value.String(),
		Detail:    fmt.Sprintf("%s USD", ledger.FormatEther(usd)),
	})
	return res, nil
}

// Receive handles value sent straight to the contract address.
func (s *Service) Receive(ctx context.Context, from ledger.Address, amount *big.Int) error {
	_, err := s.Fund(ctx, FundInput{Caller: from, Value: amount})
	return err
}

// WithdrawResult represents the outcome of an owner withdrawal.
type WithdrawResult struct {
	TransactionID string
	Owner         ledger.Address
	Amount        *big.Int
	FundersReset  int
	OwnerBalance  *big.Int
	CompletedAt   time.Time
}

// Withdraw zeroes every funder record, clears the roster and then moves the
// whole contract balance to the owner, all in one atomic unit. Records are
// reset before any value leaves the contract.
func (s *Service) Withdraw(ctx context.Context, caller ledger.Address) (WithdrawResult, error) {
	if caller != s.owner {
		return WithdrawResult{}, ErrNotOwner
	}

	res := WithdrawResult{TransactionID: uuid.NewString(), Owner: s.owner}
	err := s.ledger.Apply(ctx, func(tx ledger.Tx) error {
		funders, err := tx.Funders(ctx, s.address)
		if err != nil {
			return err
		}
		for _, funder := range funders {
			if err := tx.ResetFunded(ctx, s.address, funder); err != nil {
				return err
			}
		}
		if err := tx.ClearFunders(ctx, s.address); err != nil {
			return err
		}
		res.FundersReset = len(funders)

		if res.Amount, err = tx.Balance(ctx, s.address); err != nil {
			return err
		}
		if err := tx.Transfer(ctx, s.address, s.owner, res.Amount); err != nil {
			return fmt.Errorf("call failed: %w", err)
		}
		res.OwnerBalance, err = tx.Balance(ctx, s.owner)
		return err
	})
	if err != nil {
		return WithdrawResult{}, err
	}
	res.CompletedAt = time.Now().UTC()

	s.emit(ctx, notification.Message{
		Kind:      notification.KindWithdrawn,
		Account:   s.owner.Hex(),
		AmountWei: res.Amount.String(),
		Detail:    fmt.Sprintf("%d funder entries reset", res.FundersReset),
	})
	return res, nil
}

func (s *Service) emit(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	msg.Contract = s.address.Hex()
	msg.OccurredAt = time.Now().UTC()
	_ = s.notifier.Send(ctx, msg)
}

// AmountFunded returns what addr has contributed since the last withdrawal.
func (s *Service) AmountFunded(ctx context.Context, addr ledger.Address) (*big.Int, error) {
	var out *big.Int
	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.AmountFunded(ctx, s.address, addr)
		return err
	})
	return out, err
}

// FunderAt returns the roster entry at index.
func (s *Service) FunderAt(ctx context.Context, index int) (ledger.Address, error) {
	var (
		out ledger.Address
		ok  bool
	)
	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		out, ok, err = tx.FunderAt(ctx, s.address, index)
		return err
	})
	if err != nil {
		return ledger.Address{}, err
	}
	if !ok {
		return ledger.Address{}, ErrIndexOutOfRange
	}
	return out, nil
}

// FunderCount returns the roster length, one entry per contribution.
func (s *Service) FunderCount(ctx context.Context) (int, error) {
	var n int
	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		n, err = tx.FunderCount(ctx, s.address)
		return err
	})
	return n, err
}

// Balance returns the value held by the contract.
func (s *Service) Balance(ctx context.Context) (*big.Int, error) {
	var out *big.Int
	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.Balance(ctx, s.address)
		return err
	})
	return out, err
}

// Quote is the current oracle round together with the USD value of one ether.
type Quote struct {
	Rate     pricefeed.Rate
	EtherUSD *big.Int
}

// Rate reads the oracle.
func (s *Service) Rate(ctx context.Context) (Quote, error) {
	rate, err := s.feed.CurrentRate(ctx)
	if err != nil {
		return Quote{}, err
	}
	usd, err := ConvertToUSD(ledger.Ether, rate)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Rate: rate, EtherUSD: usd}, nil
}

// Address is the contract account holding contributions.
func (s *Service) Address() ledger.Address { return s.address }

// Owner is the deployer.
func (s *Service) Owner() ledger.Address { return s.owner }

// PriceFeed is the oracle reference fixed at deployment.
func (s *Service) PriceFeed() ledger.Address { return s.priceFeed }

// MinimumUSD is the threshold with 18 decimals.
func (s *Service) MinimumUSD() *big.Int { return new(big.Int).Set(s.minimumUSD) }
