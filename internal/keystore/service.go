package keystore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/congo-pay/fundme/internal/ledger"
)

// MinPassphraseLength is the shortest passphrase Import accepts.
const MinPassphraseLength = 8

var (
	// ErrWeakPassphrase rejects passphrases shorter than MinPassphraseLength.
	ErrWeakPassphrase = fmt.Errorf("passphrase must be at least %d characters", MinPassphraseLength)

	// ErrInvalidCredentials is returned for a wrong passphrase or unknown address.
	ErrInvalidCredentials = errors.New("invalid address or passphrase")

	// ErrAddressAssigned rejects imports that name their own address.
	ErrAddressAssigned = errors.New("addresses are assigned by the keystore")

	// ErrReservedAddress rejects accounts for contract addresses.
	ErrReservedAddress = errors.New("address is reserved")

	// ErrPassphraseMismatch is returned by Register when the address already
	// holds a different passphrase.
	ErrPassphraseMismatch = errors.New("stored passphrase does not match")
)

// Service manages keystore accounts. Reserved addresses belong to deployed
// contracts and can never hold a passphrase.
type Service struct {
	repo     Repository
	reserved map[ledger.Address]struct{}
}

// NewService creates a new keystore service.
func NewService(repo Repository, reserved ...ledger.Address) *Service {
	s := &Service{repo: repo, reserved: make(map[ledger.Address]struct{}, len(reserved))}
	for _, addr := range reserved {
		s.reserved[addr] = struct{}{}
	}
	return s
}

func (s *Service) isReserved(addr ledger.Address) bool {
	_, ok := s.reserved[addr]
	return ok
}

// Import generates a fresh address and stores a bcrypt hash of the
// passphrase for it. Callers cannot choose the address.
func (s *Service) Import(ctx context.Context, input ImportInput) (Account, error) {
	if strings.TrimSpace(input.Address) != "" {
		return Account{}, ErrAddressAssigned
	}
	if len(input.Passphrase) < MinPassphraseLength {
		return Account{}, ErrWeakPassphrase
	}
	addr, err := ledger.GenerateAddress()
	if err != nil {
		return Account{}, err
	}
	if s.isReserved(addr) {
		return Account{}, ErrReservedAddress
	}
	return s.create(ctx, addr, input.Passphrase)
}

// Register binds a passphrase to a known address at startup. Registering
// the same address again succeeds only with the stored passphrase.
func (s *Service) Register(ctx context.Context, addr ledger.Address, passphrase string) (Account, error) {
	if addr.IsZero() {
		return Account{}, ledger.ErrInvalidAddress
	}
	if s.isReserved(addr) {
		return Account{}, ErrReservedAddress
	}
	if len(passphrase) < MinPassphraseLength {
		return Account{}, ErrWeakPassphrase
	}

	account, err := s.create(ctx, addr, passphrase)
	if !errors.Is(err, ErrAccountExists) {
		return account, err
	}
	existing, err := s.repo.Find(ctx, addr)
	if err != nil {
		return Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword(existing.PassphraseHash, []byte(passphrase)); err != nil {
		return Account{}, ErrPassphraseMismatch
	}
	return existing, nil
}

func (s *Service) create(ctx context.Context, addr ledger.Address, passphrase string) (Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}
	account := Account{
		Address:        addr,
		PassphraseHash: hash,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return Account{}, err
	}
	return account, nil
}

// Unlock verifies the passphrase and records the unlock time.
func (s *Service) Unlock(ctx context.Context, addr ledger.Address, passphrase string) (Account, error) {
	account, err := s.repo.Find(ctx, addr)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword(account.PassphraseHash, []byte(passphrase)); err != nil {
		return Account{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.repo.RecordUnlock(ctx, addr, now); err != nil {
		return Account{}, err
	}
	account.LastUnlockedAt = &now
	return account, nil
}
