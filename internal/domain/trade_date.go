package domain

import (
	"fmt"
	"strconv"
	"time"
)

// TradeDate is an integer trading-day key in YYYYMMDD form (e.g. 20200102).
type TradeDate int

// ParseTradeDate parses a YYYYMMDD string into a TradeDate.
func ParseTradeDate(s string) (TradeDate, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse trade date %q: %w", s, err)
	}
	d := TradeDate(n)
	if !d.Valid() {
		return 0, fmt.Errorf("parse trade date %q: not a calendar date", s)
	}
	return d, nil
}

// TradeDateFromTime returns the calendar date of t in t's own location.
func TradeDateFromTime(t time.Time) TradeDate {
	y, m, d := t.Date()
	return TradeDate(y*10000 + int(m)*100 + d)
}

// Valid reports whether d names a real calendar date.
func (d TradeDate) Valid() bool {
	if d < 10000101 || d > 99991231 {
		return false
	}
	y, m, day := int(d)/10000, int(d)/100%100, int(d)%100
	if m < 1 || m > 12 || day < 1 {
		return false
	}
	t := time.Date(y, time.Month(m), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && int(t.Month()) == m
}

// Time returns midnight UTC of d.
func (d TradeDate) Time() time.Time {
	return time.Date(int(d)/10000, time.Month(int(d)/100%100), int(d)%100, 0, 0, 0, 0, time.UTC)
}

// String returns the YYYYMMDD form.
func (d TradeDate) String() string {
	return strconv.Itoa(int(d))
}
