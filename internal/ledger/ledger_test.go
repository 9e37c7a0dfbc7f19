package ledger

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// runLedgerSuite exercises a backend through the Ledger interface only.
// Every case works on freshly generated addresses so a persistent backend
// can run it repeatedly.
func runLedgerSuite(t *testing.T, l Ledger) {
	t.Run("transfer maintains balance", func(t *testing.T) { testTransfer(t, l) })
	t.Run("insufficient funds", func(t *testing.T) { testInsufficientFunds(t, l) })
	t.Run("failed apply leaves no trace", func(t *testing.T) { testRollback(t, l) })
	t.Run("view is read only", func(t *testing.T) { testReadOnly(t, l) })
	t.Run("funder roster", func(t *testing.T) { testRoster(t, l) })
	t.Run("concurrent transfers", func(t *testing.T) { testConcurrentTransfers(t, l) })
	t.Run("withdraw resets every funder", func(t *testing.T) { testFiveFunderWithdraw(t, l) })
}

func freshAddress(t *testing.T) Address {
	t.Helper()
	addr, err := GenerateAddress()
	require.NoError(t, err)
	return addr
}

func requireWei(t *testing.T, want, got *big.Int) {
	t.Helper()
	require.NotNil(t, got)
	require.Equal(t, want.String(), got.String())
}

func testTransfer(t *testing.T, l Ledger) {
	ctx := context.Background()
	alice, bob := freshAddress(t), freshAddress(t)
	SeedBalance(l, alice, big.NewInt(10_000))

	err := l.Apply(ctx, func(tx Tx) error {
		return tx.Transfer(ctx, alice, bob, big.NewInt(1_500))
	})
	require.NoError(t, err)
	requireWei(t, big.NewInt(8_500), BalanceOf(l, alice))
	requireWei(t, big.NewInt(1_500), BalanceOf(l, bob))
}

func testInsufficientFunds(t *testing.T, l Ledger) {
	ctx := context.Background()
	alice, bob := freshAddress(t), freshAddress(t)
	SeedBalance(l, alice, big.NewInt(100))

	err := l.Apply(ctx, func(tx Tx) error {
		return tx.Transfer(ctx, alice, bob, big.NewInt(101))
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	requireWei(t, big.NewInt(100), BalanceOf(l, alice))
}

func testRollback(t *testing.T, l Ledger) {
	ctx := context.Background()
	alice, pool := freshAddress(t), freshAddress(t)
	SeedBalance(l, alice, big.NewInt(1_000))
	boom := errors.New("boom")

	err := l.Apply(ctx, func(tx Tx) error {
		if err := tx.Transfer(ctx, alice, pool, big.NewInt(400)); err != nil {
			return err
		}
		if err := tx.AddFunded(ctx, pool, alice, big.NewInt(400)); err != nil {
			return err
		}
		if err := tx.AppendFunder(ctx, pool, alice); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	requireWei(t, big.NewInt(1_000), BalanceOf(l, alice))

	require.NoError(t, l.View(ctx, func(tx Tx) error {
		amount, err := tx.AmountFunded(ctx, pool, alice)
		require.NoError(t, err)
		require.Zero(t, amount.Sign())
		n, err := tx.FunderCount(ctx, pool)
		require.NoError(t, err)
		require.Zero(t, n)
		return nil
	}))
}

func testReadOnly(t *testing.T, l Ledger) {
	ctx := context.Background()
	alice := freshAddress(t)
	err := l.View(ctx, func(tx Tx) error {
		return tx.Mint(ctx, alice, big.NewInt(1))
	})
	require.ErrorIs(t, err, ErrReadOnly)
}

func testRoster(t *testing.T, l Ledger) {
	ctx := context.Background()
	alice, bob, pool := freshAddress(t), freshAddress(t), freshAddress(t)

	require.NoError(t, l.Apply(ctx, func(tx Tx) error {
		for _, f := range []Address{alice, bob, alice} {
			if err := tx.AppendFunder(ctx, pool, f); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, l.View(ctx, func(tx Tx) error {
		n, err := tx.FunderCount(ctx, pool)
		require.NoError(t, err)
		require.Equal(t, 3, n, "duplicates are kept")

		list, err := tx.Funders(ctx, pool)
		require.NoError(t, err)
		require.Equal(t, []Address{alice, bob, alice}, list)

		got, ok, err := tx.FunderAt(ctx, pool, 2)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, alice, got)

		for _, idx := range []int{3, -1} {
			_, ok, err := tx.FunderAt(ctx, pool, idx)
			require.NoError(t, err)
			require.False(t, ok, "index %d", idx)
		}
		return nil
	}))

	require.NoError(t, l.Apply(ctx, func(tx Tx) error { return tx.ClearFunders(ctx, pool) }))
	require.NoError(t, l.View(ctx, func(tx Tx) error {
		n, err := tx.FunderCount(ctx, pool)
		require.NoError(t, err)
		require.Zero(t, n)
		return nil
	}))
}

func testConcurrentTransfers(t *testing.T, l Ledger) {
	ctx := context.Background()
	alice, bob := freshAddress(t), freshAddress(t)
	SeedBalance(l, alice, big.NewInt(100_000))

	const workers = 10
	amount := big.NewInt(500)

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- l.Apply(ctx, func(tx Tx) error {
				return tx.Transfer(ctx, alice, bob, amount)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	total := new(big.Int).Add(BalanceOf(l, alice), BalanceOf(l, bob))
	requireWei(t, big.NewInt(100_000), total)
	requireWei(t, big.NewInt(5_000), BalanceOf(l, bob))
}

func testFiveFunderWithdraw(t *testing.T, l Ledger) {
	ctx := context.Background()
	owner, contract := freshAddress(t), freshAddress(t)
	oneEther := new(big.Int).Set(Ether)

	funders := make([]Address, 5)
	for i := range funders {
		funders[i] = freshAddress(t)
		SeedBalance(l, funders[i], new(big.Int).Mul(oneEther, big.NewInt(2)))
		require.NoError(t, l.Apply(ctx, func(tx Tx) error {
			if err := tx.Transfer(ctx, funders[i], contract, oneEther); err != nil {
				return err
			}
			if err := tx.AddFunded(ctx, contract, funders[i], oneEther); err != nil {
				return err
			}
			return tx.AppendFunder(ctx, contract, funders[i])
		}))
	}

	require.NoError(t, l.View(ctx, func(tx Tx) error {
		list, err := tx.Funders(ctx, contract)
		require.NoError(t, err)
		require.Equal(t, funders, list)
		return nil
	}))

	require.NoError(t, l.Apply(ctx, func(tx Tx) error {
		list, err := tx.Funders(ctx, contract)
		if err != nil {
			return err
		}
		for _, f := range list {
			if err := tx.ResetFunded(ctx, contract, f); err != nil {
				return err
			}
		}
		if err := tx.ClearFunders(ctx, contract); err != nil {
			return err
		}
		balance, err := tx.Balance(ctx, contract)
		if err != nil {
			return err
		}
		return tx.Transfer(ctx, contract, owner, balance)
	}))

	requireWei(t, new(big.Int).Mul(oneEther, big.NewInt(5)), BalanceOf(l, owner))
	require.Zero(t, BalanceOf(l, contract).Sign())
	require.NoError(t, l.View(ctx, func(tx Tx) error {
		for _, f := range funders {
			amount, err := tx.AmountFunded(ctx, contract, f)
			require.NoError(t, err)
			require.Zero(t, amount.Sign())
		}
		n, err := tx.FunderCount(ctx, contract)
		require.NoError(t, err)
		require.Zero(t, n)
		return nil
	}))
}

func TestInMemoryLedger(t *testing.T) {
	runLedgerSuite(t, NewInMemory())
}
