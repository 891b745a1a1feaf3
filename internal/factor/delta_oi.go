package factor

import (
	"math"
	"sort"

	"northbound-factor-lab/internal/domain"
)

// ComputeDeltaOI returns every record with DeltaOI = oi[t] - oi[t-1] taken
// within the record's own code, ordered by date. The first record of each
// code, including codes that join mid-range, gets DeltaOI = 0. A missing
// (NaN) oi also yields 0, both on its own row and on the row after it.
//
// Output is ordered by (code, date). The input slice is not modified.
func ComputeDeltaOI(records []domain.StockDailyRecord) []domain.DeltaOIRecord {
	if len(records) == 0 {
		return nil
	}

	sorted := make([]domain.StockDailyRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Code != sorted[j].Code {
			return sorted[i].Code < sorted[j].Code
		}
		return sorted[i].Date < sorted[j].Date
	})

	result := make([]domain.DeltaOIRecord, len(sorted))
	for i, r := range sorted {
		result[i] = domain.DeltaOIRecord{StockDailyRecord: r}
		if i > 0 && sorted[i-1].Code == r.Code {
			result[i].DeltaOI = zeroIfNaN(r.OI - sorted[i-1].OI)
		}
	}
	return result
}

// zeroIfNaN treats a missing value as no contribution. Infinities pass through.
func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
