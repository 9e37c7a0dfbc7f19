package ledger

import (
	"context"
	"math/big"
	"sync"
)

// memState values are treated as immutable: every write stores a fresh
// *big.Int so a shallow clone is a full snapshot.
type memState struct {
	balances map[Address]*big.Int
	funded   map[Address]map[Address]*big.Int
	funders  map[Address][]Address
}

func newMemState() *memState {
	return &memState{
		balances: make(map[Address]*big.Int),
		funded:   make(map[Address]map[Address]*big.Int),
		funders:  make(map[Address][]Address),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for contract, records := range s.funded {
		m := make(map[Address]*big.Int, len(records))
		for k, v := range records {
			m[k] = v
		}
		c.funded[contract] = m
	}
	for contract, list := range s.funders {
		c.funders[contract] = append([]Address(nil), list...)
	}
	return c
}

type inMemoryLedger struct {
	mu    sync.RWMutex
	state *memState
}

// NewInMemory creates a concurrency-safe in-memory ledger for development
// networks and unit tests.
func NewInMemory() Ledger {
	return &inMemoryLedger{state: newMemState()}
}

func (l *inMemoryLedger) Apply(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	work := l.state.clone()
	if err := fn(&memTx{state: work}); err != nil {
		return err
	}
	l.state = work
	return nil
}

func (l *inMemoryLedger) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(&memTx{state: l.state, readOnly: true})
}

type memTx struct {
	state    *memState
	readOnly bool
}

func (t *memTx) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (t *memTx) Balance(_ context.Context, addr Address) (*big.Int, error) {
	if v, ok := t.state.balances[addr]; ok {
		return new(big.Int).Set(v), nil
	}
	return zero(), nil
}

func (t *memTx) Transfer(_ context.Context, from, to Address, amount *big.Int) error {
	if err := t.writable(); err != nil {
		return err
	}
	if err := valid(amount); err != nil {
		return err
	}
	fromBalance := t.state.balances[from]
	if fromBalance == nil {
		fromBalance = zero()
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	t.state.balances[from] = new(big.Int).Sub(fromBalance, amount)

	toBalance := t.state.balances[to]
	if toBalance == nil {
		toBalance = zero()
	}
	t.state.balances[to] = new(big.Int).Add(toBalance, amount)
	return nil
}

func (t *memTx) Mint(_ context.Context, to Address, amount *big.Int) error {
	if err := t.writable(); err != nil {
		return err
	}
	if err := valid(amount); err != nil {
		return err
	}
	current := t.state.balances[to]
	if current == nil {
		current = zero()
	}
	t.state.balances[to] = new(big.Int).Add(current, amount)
	return nil
}

func (t *memTx) AmountFunded(_ context.Context, contract, funder Address) (*big.Int, error) {
	if v, ok := t.state.funded[contract][funder]; ok {
		return new(big.Int).Set(v), nil
	}
	return zero(), nil
}

func (t *memTx) AddFunded(_ context.Context, contract, funder Address, amount *big.Int) error {
	if err := t.writable(); err != nil {
		return err
	}
	if err := valid(amount); err != nil {
		return err
	}
	records := t.state.funded[contract]
	if records == nil {
		records = make(map[Address]*big.Int)
		t.state.funded[contract] = records
	}
	current := records[funder]
	if current == nil {
		current = zero()
	}
	records[funder] = new(big.Int).Add(current, amount)
	return nil
}

func (t *memTx) ResetFunded(_ context.Context, contract, funder Address) error {
	if err := t.writable(); err != nil {
		return err
	}
	if records := t.state.funded[contract]; records != nil {
		records[funder] = zero()
	}
	return nil
}

func (t *memTx) AppendFunder(_ context.Context, contract, funder Address) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.state.funders[contract] = append(t.state.funders[contract], funder)
	return nil
}

func (t *memTx) Funders(_ context.Context, contract Address) ([]Address, error) {
	return append([]Address(nil), t.state.funders[contract]...), nil
}

func (t *memTx) FunderAt(_ context.Context, contract Address, index int) (Address, bool, error) {
	list := t.state.funders[contract]
	if index < 0 || index >= len(list) {
		return Address{}, false, nil
	}
	return list[index], true, nil
}

func (t *memTx) FunderCount(_ context.Context, contract Address) (int, error) {
	return len(t.state.funders[contract]), nil
}

func (t *memTx) ClearFunders(_ context.Context, contract Address) error {
	if err := t.writable(); err != nil {
		return err
	}
	delete(t.state.funders, contract)
	return nil
}
