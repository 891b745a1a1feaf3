// Package main loads a constituent CSV into the DuckDB connect_holdings table
// that the pipeline reads stock records from.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	"northbound-factor-lab/internal/config"
	"northbound-factor-lab/internal/ingest"
	"northbound-factor-lab/internal/logging"
	"northbound-factor-lab/internal/storage/duckdb"
	"northbound-factor-lab/internal/storage/migrations"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config")
	envFile := flag.String("env", ".env", "Dotenv file loaded before the config")
	input := flag.String("input", "", "Constituent CSV (default inputs.stock_csv)")
	dbPath := flag.String("duckdb", "", "DuckDB database file (default inputs.duckdb_path)")
	encoding := flag.String("encoding", "", "CSV encoding: utf8, gbk or gb18030 (default inputs.encoding)")
	flag.Parse()

	if err := run(*configPath, *envFile, *input, *dbPath, *encoding); err != nil {
		logger := logging.NewConsole("info")
		logger.Error().Err(err).Msg("ingest failed")
		os.Exit(1)
	}
}

func run(configPath, envFile, input, dbPath, encoding string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logging.New(cfg.App.LogLevel, os.Stdout)

	src := firstNonEmpty(input, cfg.Inputs.StockCSV)
	dst := firstNonEmpty(dbPath, cfg.Inputs.DuckDBPath)
	enc := firstNonEmpty(encoding, cfg.Inputs.Encoding)
	if src == "" || dst == "" {
		return errors.New("both an input CSV and a DuckDB path are required")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	records, err := ingest.LoadStocksFile(src, enc)
	if err != nil {
		return fmt.Errorf("read constituent CSV %s: %w", src, err)
	}

	db, err := duckdb.Open(ctx, dst)
	if err != nil {
		return fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	if err := migrations.RunDuckDBMigrations(ctx, db); err != nil {
		return fmt.Errorf("duckdb migrations: %w", err)
	}

	if err := duckdb.NewStockRecordStore(db).InsertBulk(ctx, records); err != nil {
		return fmt.Errorf("insert connect holdings: %w", err)
	}

	log.Info().
		Str("input", src).
		Str("duckdb", dst).
		Int("records", len(records)).
		Msg("connect holdings loaded")
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
