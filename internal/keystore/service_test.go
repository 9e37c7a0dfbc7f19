package keystore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/congo-pay/fundme/internal/ledger"
)

const passphrase = "correct horse battery"

var (
	deployer = ledger.MustParseAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	contract = ledger.CreateAddress(deployer, 1)
)

func TestImportAndUnlock(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	account, err := svc.Import(ctx, ImportInput{Passphrase: passphrase})
	require.NoError(t, err)
	require.False(t, account.Address.IsZero())
	require.NotEqual(t, []byte(passphrase), account.PassphraseHash)

	unlocked, err := svc.Unlock(ctx, account.Address, passphrase)
	require.NoError(t, err)
	require.NotNil(t, unlocked.LastUnlockedAt)

	_, err = svc.Unlock(ctx, account.Address, "wrong passphrase")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestImportGeneratesDistinctAddresses(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	a, err := svc.Import(ctx, ImportInput{Passphrase: passphrase})
	require.NoError(t, err)
	b, err := svc.Import(ctx, ImportInput{Passphrase: passphrase})
	require.NoError(t, err)
	require.NotEqual(t, a.Address, b.Address)
}

func TestImportRejectsChosenAddress(t *testing.T) {
	svc := NewService(NewMemoryRepository(), contract)
	ctx := context.Background()

	for _, addr := range []string{deployer.Hex(), contract.Hex(), "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"} {
		_, err := svc.Import(ctx, ImportInput{Address: addr, Passphrase: passphrase})
		require.ErrorIs(t, err, ErrAddressAssigned, addr)
	}

	_, err := svc.Unlock(ctx, deployer, passphrase)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestImportValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	_, err := svc.Import(context.Background(), ImportInput{Passphrase: "short"})
	require.ErrorIs(t, err, ErrWeakPassphrase)
}

func TestRegister(t *testing.T) {
	svc := NewService(NewMemoryRepository(), contract)
	ctx := context.Background()

	account, err := svc.Register(ctx, deployer, passphrase)
	require.NoError(t, err)
	require.Equal(t, deployer, account.Address)

	_, err = svc.Register(ctx, deployer, passphrase)
	require.NoError(t, err)

	_, err = svc.Register(ctx, deployer, "another passphrase")
	require.ErrorIs(t, err, ErrPassphraseMismatch)

	_, err = svc.Unlock(ctx, deployer, passphrase)
	require.NoError(t, err)
}

func TestRegisterRejectsReservedAddress(t *testing.T) {
	svc := NewService(NewMemoryRepository(), contract)
	ctx := context.Background()

	_, err := svc.Register(ctx, contract, passphrase)
	require.ErrorIs(t, err, ErrReservedAddress)

	_, err = svc.Register(ctx, ledger.Address{}, passphrase)
	require.ErrorIs(t, err, ledger.ErrInvalidAddress)

	_, err = svc.Register(ctx, deployer, "short")
	require.ErrorIs(t, err, ErrWeakPassphrase)
}

func TestUnlockUnknownAccount(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	_, err := svc.Unlock(context.Background(), ledger.MustParseAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906"), passphrase)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestBumpTokenVersion(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	account, err := svc.Import(ctx, ImportInput{Passphrase: passphrase})
	require.NoError(t, err)

	v, err := repo.BumpTokenVersion(ctx, account.Address)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	stored, err := repo.Find(ctx, account.Address)
	require.NoError(t, err)
	require.Equal(t, 1, stored.TokenVersion)
}
