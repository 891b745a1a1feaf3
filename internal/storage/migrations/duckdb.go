package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// RunDuckDBMigrations applies all embedded DuckDB SQL files in lexical order.
func RunDuckDBMigrations(ctx context.Context, db *sql.DB) error {
	scripts, err := readScripts(DuckDBFS, "duckdb")
	if err != nil {
		return err
	}
	for _, s := range scripts {
		if _, err := db.ExecContext(ctx, s.body); err != nil {
			return fmt.Errorf("apply migration %s: %w", s.name, err)
		}
	}
	return nil
}
