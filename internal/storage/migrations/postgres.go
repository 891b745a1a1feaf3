package migrations

import (
	"context"
	"fmt"

	"northbound-factor-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies all embedded SQL files in lexical order.
// Migrations are expected to be idempotent.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	scripts, err := readScripts(PostgresFS, "postgres")
	if err != nil {
		return err
	}
	for _, s := range scripts {
		if _, err := pool.Exec(ctx, s.body); err != nil {
			return fmt.Errorf("apply migration %s: %w", s.name, err)
		}
	}
	return nil
}
