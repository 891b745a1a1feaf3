// Package ingest reads stock, futures and northbound flow tables from CSV
// and spreadsheet files into domain records.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/factor"
)

// table is a header-indexed CSV body.
type table struct {
	name string
	cols map[string]int
	rows [][]string
}

func readTable(r io.Reader, name, encoding string, required []string) (*table, error) {
	dr, err := decode(r, encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(dr)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &factor.SchemaError{Table: name, Field: "header", Row: -1, Reason: "empty file"}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", name, err)
	}
	normalized := normalizeHeader(header)
	if err := factor.CheckColumns(name, normalized, required); err != nil {
		return nil, err
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s rows: %w", name, err)
	}

	t := &table{name: name, cols: make(map[string]int, len(normalized)), rows: rows}
	for i, h := range normalized {
		if _, dup := t.cols[h]; !dup {
			t.cols[h] = i
		}
	}
	return t, nil
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

// cell returns the trimmed value of col in row i, "" when absent.
func (t *table) cell(i int, col string) string {
	j, ok := t.cols[col]
	if !ok || j >= len(t.rows[i]) {
		return ""
	}
	return strings.TrimSpace(t.rows[i][j])
}

func (t *table) has(col string) bool {
	_, ok := t.cols[col]
	return ok
}

// float parses a numeric cell. Empty cells become NaN, which the factor
// computation reads as a missing value.
func (t *table) float(i int, col string) (float64, error) {
	s := strings.ReplaceAll(t.cell(i, col), ",", "")
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s row %d: parse %s %q: %w", t.name, i+1, col, s, err)
	}
	return v, nil
}

// optFloat is float for columns that may be absent from the header; absent
// columns read as 0.
func (t *table) optFloat(i int, col string) (float64, error) {
	if !t.has(col) {
		return 0, nil
	}
	return t.float(i, col)
}

func (t *table) date(i int, col string) (domain.TradeDate, error) {
	s := t.cell(i, col)
	if s == "" {
		return 0, &factor.SchemaError{Table: t.name, Field: col, Row: i, Reason: "empty value"}
	}
	if strings.ContainsAny(s, "-/") {
		ts, err := parseTimestamp(s)
		if err != nil {
			return 0, fmt.Errorf("%s row %d: %w", t.name, i+1, err)
		}
		return domain.TradeDateFromTime(ts), nil
	}
	// Tolerate "20200102.0" from spreadsheet round trips.
	s = strings.TrimSuffix(s, ".0")
	d, err := domain.ParseTradeDate(s)
	if err != nil {
		return 0, fmt.Errorf("%s row %d: %w", t.name, i+1, err)
	}
	return d, nil
}

var timestampLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"2006/1/2",
	"2006/01/02 15:04:05",
	"20060102",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// ReadStocks reads constituent records. Required columns: date, code, close, amount, oi.
func ReadStocks(r io.Reader, encoding string) ([]domain.StockDailyRecord, error) {
	t, err := readTable(r, "stock", encoding, factor.StockColumns)
	if err != nil {
		return nil, err
	}

	records := make([]domain.StockDailyRecord, 0, len(t.rows))
	for i := range t.rows {
		var rec domain.StockDailyRecord
		if rec.Date, err = t.date(i, "date"); err != nil {
			return nil, err
		}
		rec.Code = t.cell(i, "code")
		if rec.Close, err = t.float(i, "close"); err != nil {
			return nil, err
		}
		if rec.Amount, err = t.float(i, "amount"); err != nil {
			return nil, err
		}
		if rec.OI, err = t.float(i, "oi"); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadFutures reads adjusted futures bars. Required columns: date, close, factor.
// open, high, low, volume, amount and ret are read when present.
func ReadFutures(r io.Reader, encoding string) ([]domain.FuturesDailyRecord, error) {
	t, err := readTable(r, "futures", encoding, factor.FuturesColumns)
	if err != nil {
		return nil, err
	}

	records := make([]domain.FuturesDailyRecord, 0, len(t.rows))
	for i := range t.rows {
		var rec domain.FuturesDailyRecord
		if rec.Date, err = t.date(i, "date"); err != nil {
			return nil, err
		}
		fields := []struct {
			col string
			dst *float64
			opt bool
		}{
			{"close", &rec.Close, false},
			{"factor", &rec.Factor, false},
			{"open", &rec.Open, true},
			{"high", &rec.High, true},
			{"low", &rec.Low, true},
			{"volume", &rec.Volume, true},
			{"amount", &rec.Amount, true},
			{"ret", &rec.Return, true},
		}
		for _, f := range fields {
			read := t.float
			if f.opt {
				read = t.optFloat
			}
			if *f.dst, err = read(i, f.col); err != nil {
				return nil, err
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadNorthFlowCSV reads market-wide buy/sell turnover. Required columns:
// date_time, buy, sell.
func ReadNorthFlowCSV(r io.Reader, encoding string) ([]domain.NorthFlowRecord, error) {
	t, err := readTable(r, "north_flow", encoding, factor.NorthFlowColumns)
	if err != nil {
		return nil, err
	}
	return northFlowFromTable(t, parseTimestamp)
}

func northFlowFromTable(t *table, parseTime func(string) (time.Time, error)) ([]domain.NorthFlowRecord, error) {
	records := make([]domain.NorthFlowRecord, 0, len(t.rows))
	for i := range t.rows {
		raw := t.cell(i, "date_time")
		if raw == "" {
			return nil, &factor.SchemaError{Table: t.name, Field: "date_time", Row: i, Reason: "empty value"}
		}
		ts, err := parseTime(raw)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.name, i+1, err)
		}
		rec := domain.NorthFlowRecord{DateTime: ts}
		if rec.Buy, err = t.float(i, "buy"); err != nil {
			return nil, err
		}
		if rec.Sell, err = t.float(i, "sell"); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
