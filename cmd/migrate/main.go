// Package main applies the embedded schema migrations to the configured
// PostgreSQL, ClickHouse and DuckDB databases.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"northbound-factor-lab/internal/config"
	"northbound-factor-lab/internal/logging"
	"northbound-factor-lab/internal/storage/duckdb"
	"northbound-factor-lab/internal/storage/migrations"
	pgstore "northbound-factor-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config")
	envFile := flag.String("env", ".env", "Dotenv file loaded before the config")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	boot := logging.NewConsole("info")
	if err := config.LoadDotEnv(*envFile); err != nil {
		boot.Fatal().Err(err).Msg("load dotenv")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.App.LogLevel, os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	applied := 0

	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pool, err := pgstore.NewPool(ctx, dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to postgres")
		}
		err = migrations.RunPostgresMigrations(ctx, pool)
		pool.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("postgres migrations")
		}
		log.Info().Msg("postgres migrations applied")
		applied++
	}

	if dsn := cfg.Storage.ClickHouseDSN; dsn != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("clickhouse migrations")
		}
		conn.Close()
		log.Info().Msg("clickhouse migrations applied")
		applied++
	}

	if path := cfg.Inputs.DuckDBPath; path != "" {
		db, err := duckdb.Open(ctx, path)
		if err != nil {
			log.Fatal().Err(err).Msg("open duckdb")
		}
		err = migrations.RunDuckDBMigrations(ctx, db)
		db.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("duckdb migrations")
		}
		log.Info().Str("path", path).Msg("duckdb migrations applied")
		applied++
	}

	if applied == 0 {
		log.Warn().Msg("no database configured; set storage.postgres_dsn, storage.clickhouse_dsn or inputs.duckdb_path")
	}
}
