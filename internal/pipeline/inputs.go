package pipeline

import (
	"context"
	"fmt"

	"northbound-factor-lab/internal/config"
	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/idhash"
	"northbound-factor-lab/internal/ingest"
	"northbound-factor-lab/internal/reporting"
	"northbound-factor-lab/internal/storage"
	"northbound-factor-lab/internal/storage/duckdb"
)

// LoadInputs reads the tables named in cfg.Inputs. Stock records come from
// StockCSV when set, otherwise from the DuckDB database at DuckDBPath.
// Every file read is digested for the report.
func LoadInputs(ctx context.Context, cfg *config.Config) (Inputs, error) {
	var in Inputs
	enc := cfg.Inputs.Encoding

	switch {
	case cfg.Inputs.StockCSV != "":
		stocks, err := ingest.LoadStocksFile(cfg.Inputs.StockCSV, enc)
		if err != nil {
			return in, err
		}
		in.Stocks = stocks
		if err := in.digest("stocks", cfg.Inputs.StockCSV); err != nil {
			return in, err
		}
	case cfg.Inputs.DuckDBPath != "":
		db, err := duckdb.Open(ctx, cfg.Inputs.DuckDBPath)
		if err != nil {
			return in, err
		}
		defer db.Close()

		stocks, err := StocksFromStore(ctx, duckdb.NewStockRecordStore(db), cfg)
		if err != nil {
			return in, err
		}
		in.Stocks = stocks
	default:
		return in, fmt.Errorf("no stock source: set inputs.stock_csv or inputs.duckdb_path")
	}

	if cfg.Inputs.FuturesCSV == "" {
		return in, fmt.Errorf("no futures source: set inputs.futures_csv")
	}
	futures, err := ingest.LoadFuturesFile(cfg.Inputs.FuturesCSV, enc)
	if err != nil {
		return in, err
	}
	in.Futures = futures
	if err := in.digest("futures", cfg.Inputs.FuturesCSV); err != nil {
		return in, err
	}

	if cfg.Inputs.NorthFlow == "" {
		return in, fmt.Errorf("no north flow source: set inputs.north_flow")
	}
	flows, err := ingest.LoadNorthFlowFile(cfg.Inputs.NorthFlow, enc)
	if err != nil {
		return in, err
	}
	in.Flows = flows
	if err := in.digest("north_flow", cfg.Inputs.NorthFlow); err != nil {
		return in, err
	}

	return in, nil
}

// StocksFromStore reads the stock records of cfg's date range from store.
func StocksFromStore(ctx context.Context, store storage.StockRecordStore, cfg *config.Config) ([]domain.StockDailyRecord, error) {
	stocks, err := store.GetByDateRange(ctx, cfg.StartDate(), cfg.EndDate())
	if err != nil {
		return nil, fmt.Errorf("load stock records: %w", err)
	}
	return stocks, nil
}

func (in *Inputs) digest(name, path string) error {
	sum, err := idhash.DigestFile(path)
	if err != nil {
		return err
	}
	in.Digests = append(in.Digests, reporting.InputDigest{Name: name, Path: path, SHA256: sum})
	return nil
}
