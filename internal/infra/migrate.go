package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/fundme/internal/keystore"
	"github.com/congo-pay/fundme/internal/ledger"
)

// Migrate creates the ledger and keystore tables if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for name, ddl := range map[string]string{
		"ledger":   ledger.Schema,
		"keystore": keystore.Schema,
	} {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}
