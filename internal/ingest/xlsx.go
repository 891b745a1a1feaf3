package ingest

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/factor"
)

// ReadNorthFlowXLSX reads the first sheet of a workbook whose header row
// names date_time, buy and sell. Date cells may hold Excel serial dates or
// text timestamps.
func ReadNorthFlowXLSX(r io.Reader) ([]domain.NorthFlowRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open north flow workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &factor.SchemaError{Table: "north_flow", Field: "sheet", Row: -1, Reason: "workbook has no sheets"}
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, &factor.SchemaError{Table: "north_flow", Field: "header", Row: -1, Reason: "empty sheet"}
	}

	header := normalizeHeader(rows[0])
	if err := factor.CheckColumns("north_flow", header, factor.NorthFlowColumns); err != nil {
		return nil, err
	}

	t := &table{name: "north_flow", cols: make(map[string]int, len(header))}
	for i, h := range header {
		if _, dup := t.cols[h]; !dup {
			t.cols[h] = i
		}
	}
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		t.rows = append(t.rows, row)
	}
	return northFlowFromTable(t, parseSpreadsheetTime)
}

// parseSpreadsheetTime accepts an Excel serial date (1900 system) or any
// layout understood by parseTimestamp.
func parseSpreadsheetTime(s string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial < 100000 {
		return excelize.ExcelDateToTime(serial, false)
	}
	return parseTimestamp(s)
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
