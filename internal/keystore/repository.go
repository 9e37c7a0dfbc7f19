package keystore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/fundme/internal/ledger"
)

var (
	// ErrAccountExists is returned when importing an address twice.
	ErrAccountExists = errors.New("account already exists")

	// ErrAccountNotFound is returned for addresses that were never imported.
	ErrAccountNotFound = errors.New("account not found")
)

// Schema creates the tables used by PostgresRepository.
const Schema = `
CREATE TABLE IF NOT EXISTS keystore_accounts (
	address          TEXT PRIMARY KEY,
	passphrase_hash  BYTEA NOT NULL,
	token_version    INTEGER NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL,
	last_unlocked_at TIMESTAMPTZ
);`

// Repository persists keystore accounts.
type Repository interface {
	Create(ctx context.Context, account Account) error
	Find(ctx context.Context, addr ledger.Address) (Account, error)
	RecordUnlock(ctx context.Context, addr ledger.Address, at time.Time) error
	BumpTokenVersion(ctx context.Context, addr ledger.Address) (int, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed keystore repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account.
func (r *PostgresRepository) Create(ctx context.Context, account Account) error {
	_, err := r.db.Exec(ctx, `INSERT INTO keystore_accounts (address, passphrase_hash, token_version, created_at)
        VALUES ($1, $2, $3, $4)`, account.Address.Key(), account.PassphraseHash, account.TokenVersion, account.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAccountExists
	}
	return err
}

// Find fetches an account by address.
func (r *PostgresRepository) Find(ctx context.Context, addr ledger.Address) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT passphrase_hash, token_version, created_at, last_unlocked_at
        FROM keystore_accounts WHERE address = $1`, addr.Key())
	account := Account{Address: addr}
	var unlocked *time.Time
	if err := row.Scan(&account.PassphraseHash, &account.TokenVersion, &account.CreatedAt, &unlocked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	account.CreatedAt = account.CreatedAt.UTC()
	if unlocked != nil {
		u := unlocked.UTC()
		account.LastUnlockedAt = &u
	}
	return account, nil
}

// RecordUnlock stores the time of the latest successful unlock.
func (r *PostgresRepository) RecordUnlock(ctx context.Context, addr ledger.Address, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE keystore_accounts SET last_unlocked_at = $1 WHERE address = $2`, at.UTC(), addr.Key())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// BumpTokenVersion increments and returns the account's token version.
func (r *PostgresRepository) BumpTokenVersion(ctx context.Context, addr ledger.Address) (int, error) {
	var version int
	err := r.db.QueryRow(ctx, `UPDATE keystore_accounts SET token_version = token_version + 1
        WHERE address = $1 RETURNING token_version`, addr.Key()).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	return version, err
}
