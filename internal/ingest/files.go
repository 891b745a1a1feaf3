package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"northbound-factor-lab/internal/domain"
)

// LoadStocksFile opens path and reads it with ReadStocks.
func LoadStocksFile(path, encoding string) ([]domain.StockDailyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stock file: %w", err)
	}
	defer f.Close()
	return ReadStocks(f, encoding)
}

// LoadFuturesFile opens path and reads it with ReadFutures.
func LoadFuturesFile(path, encoding string) ([]domain.FuturesDailyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open futures file: %w", err)
	}
	defer f.Close()
	return ReadFutures(f, encoding)
}

// LoadNorthFlowFile reads an .xlsx workbook or a CSV file, chosen by extension.
func LoadNorthFlowFile(path, encoding string) ([]domain.NorthFlowRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open north flow file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadNorthFlowXLSX(f)
	default:
		return ReadNorthFlowCSV(f, encoding)
	}
}

// FilterStocks keeps records with start <= Date <= end.
func FilterStocks(records []domain.StockDailyRecord, start, end domain.TradeDate) []domain.StockDailyRecord {
	out := make([]domain.StockDailyRecord, 0, len(records))
	for _, r := range records {
		if r.Date >= start && r.Date <= end {
			out = append(out, r)
		}
	}
	return out
}

// FilterFutures keeps bars with start <= Date <= end.
func FilterFutures(bars []domain.FuturesDailyRecord, start, end domain.TradeDate) []domain.FuturesDailyRecord {
	out := make([]domain.FuturesDailyRecord, 0, len(bars))
	for _, b := range bars {
		if b.Date >= start && b.Date <= end {
			out = append(out, b)
		}
	}
	return out
}

// FilterNorthFlow keeps records whose calendar date of DateTime lies in [start, end].
func FilterNorthFlow(flows []domain.NorthFlowRecord, start, end domain.TradeDate) []domain.NorthFlowRecord {
	out := make([]domain.NorthFlowRecord, 0, len(flows))
	for _, f := range flows {
		if d := domain.TradeDateFromTime(f.DateTime); d >= start && d <= end {
			out = append(out, f)
		}
	}
	return out
}
