package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the tables used by PostgresLedger.
const Schema = `
CREATE TABLE IF NOT EXISTS ledger_accounts (
    address TEXT PRIMARY KEY,
    balance NUMERIC(78, 0) NOT NULL DEFAULT 0 CHECK (balance >= 0)
);
CREATE TABLE IF NOT EXISTS funded_amounts (
    contract TEXT NOT NULL,
    funder   TEXT NOT NULL,
    amount   NUMERIC(78, 0) NOT NULL DEFAULT 0 CHECK (amount >= 0),
    PRIMARY KEY (contract, funder)
);
CREATE TABLE IF NOT EXISTS funders (
    contract TEXT NOT NULL,
    position BIGINT NOT NULL,
    funder   TEXT NOT NULL,
    PRIMARY KEY (contract, position)
);`

// applyLockKey serialises every Apply across all service replicas.
const applyLockKey int64 = 0x66756e646d65

// PostgresLedger persists balances and contract storage in PostgreSQL.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Apply runs fn inside one database transaction holding the global apply lock.
func (l *PostgresLedger) Apply(ctx context.Context, fn func(Tx) error) error {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, applyLockKey); err != nil {
		return fmt.Errorf("acquire apply lock: %w", err)
	}
	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// View runs fn inside a read-only transaction.
func (l *PostgresLedger) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck
	return fn(&pgTx{tx: tx, readOnly: true})
}

type pgTx struct {
	tx       pgx.Tx
	readOnly bool
}

func (t *pgTx) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (t *pgTx) Balance(ctx context.Context, addr Address) (*big.Int, error) {
	return t.balance(ctx, addr, false)
}

func (t *pgTx) balance(ctx context.Context, addr Address, forUpdate bool) (*big.Int, error) {
	query := `SELECT balance FROM ledger_accounts WHERE address = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var n pgtype.Numeric
	if err := t.tx.QueryRow(ctx, query, addr.Key()).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero(), nil
		}
		return nil, err
	}
	return fromNumeric(n)
}

func (t *pgTx) Transfer(ctx context.Context, from, to Address, amount *big.Int) error {
	if err := t.writable(); err != nil {
		return err
	}
	if err := valid(amount); err != nil {
		return err
	}
	fromBalance, err := t.balance(ctx, from, true)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	if amount.Sign() == 0 {
		return nil
	}
	if _, err := t.tx.Exec(ctx, `UPDATE ledger_accounts SET balance = balance - $2 WHERE address = $1`,
		from.Key(), toNumeric(amount)); err != nil {
		return err
	}
	return t.credit(ctx, to, amount)
}

func (t *pgTx) Mint(ctx context.Context, to Address, amount *big.Int) error {
	if err := t.writable(); err != nil {
		return err
	}
	if err := valid(amount); err != nil {
		return err
	}
	return t.credit(ctx, to, amount)
}

func (t *pgTx) credit(ctx context.Context, to Address, amount *big.Int) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO ledger_accounts (address, balance) VALUES ($1, $2)
        ON CONFLICT (address) DO UPDATE SET balance = ledger_accounts.balance + EXCLUDED.balance`,
		to.Key(), toNumeric(amount))
	return err
}

func (t *pgTx) AmountFunded(ctx context.Context, contract, funder Address) (*big.Int, error) {
	var n pgtype.Numeric
	err := t.tx.QueryRow(ctx, `SELECT amount FROM funded_amounts WHERE contract = $1 AND funder = $2`,
		contract.Key(), funder.Key()).Scan(&n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero(), nil
		}
		return nil, err
	}
	return fromNumeric(n)
}

func (t *pgTx) AddFunded(ctx context.Context, contract, funder Address, amount *big.Int) error {
	if err := t.writable(); err != nil {
		return err
	}
	if err := valid(amount); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `INSERT INTO funded_amounts (contract, funder, amount) VALUES ($1, $2, $3)
        ON CONFLICT (contract, funder) DO UPDATE SET amount = funded_amounts.amount + EXCLUDED.amount`,
		contract.Key(), funder.Key(), toNumeric(amount))
	return err
}

func (t *pgTx) ResetFunded(ctx context.Context, contract, funder Address) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `UPDATE funded_amounts SET amount = 0 WHERE contract = $1 AND funder = $2`,
		contract.Key(), funder.Key())
	return err
}

func (t *pgTx) AppendFunder(ctx context.Context, contract, funder Address) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `INSERT INTO funders (contract, position, funder)
        SELECT $1, COALESCE(MAX(position) + 1, 0), $2 FROM funders WHERE contract = $1`,
		contract.Key(), funder.Key())
	return err
}

func (t *pgTx) Funders(ctx context.Context, contract Address) ([]Address, error) {
	rows, err := t.tx.Query(ctx, `SELECT funder FROM funders WHERE contract = $1 ORDER BY position`, contract.Key())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Address
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		addr, err := ParseAddress(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, rows.Err()
}

func (t *pgTx) FunderAt(ctx context.Context, contract Address, index int) (Address, bool, error) {
	if index < 0 {
		return Address{}, false, nil
	}
	var raw string
	err := t.tx.QueryRow(ctx, `SELECT funder FROM funders WHERE contract = $1 ORDER BY position OFFSET $2 LIMIT 1`,
		contract.Key(), index).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Address{}, false, nil
		}
		return Address{}, false, err
	}
	addr, err := ParseAddress(raw)
	if err != nil {
		return Address{}, false, err
	}
	return addr, true, nil
}

func (t *pgTx) FunderCount(ctx context.Context, contract Address) (int, error) {
	var count int64
	if err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM funders WHERE contract = $1`, contract.Key()).Scan(&count); err != nil {
		return 0, err
	}
	return int(count), nil
}

func (t *pgTx) ClearFunders(ctx context.Context, contract Address) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `DELETE FROM funders WHERE contract = $1`, contract.Key())
	return err
}

func toNumeric(v *big.Int) pgtype.Numeric {
	return pgtype.Numeric{Int: new(big.Int).Set(v), Valid: true}
}

func fromNumeric(n pgtype.Numeric) (*big.Int, error) {
	if !n.Valid || n.Int == nil {
		return zero(), nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return nil, fmt.Errorf("non-finite numeric amount")
	}
	v := new(big.Int).Set(n.Int)
	switch {
	case n.Exp > 0:
		v.Mul(v, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Exp)), nil))
	case n.Exp < 0:
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-n.Exp)), nil)
		rem := new(big.Int)
		v.QuoRem(v, scale, rem)
		if rem.Sign() != 0 {
			return nil, fmt.Errorf("fractional amount stored")
		}
	}
	return v, nil
}
