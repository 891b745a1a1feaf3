package factor

import (
	"sort"

	"northbound-factor-lab/internal/domain"
)

// ComputeDailyFactors reduces delta-augmented rows to one factor per date:
//
//	factor(date) = sum(deltaOI * close) / sum(amount)
//
// Both sums run over exactly the codes that have a record on that date.
// A missing (NaN) close or amount contributes 0 to its sum. Dates without
// records produce no row. A zero amount sum is not guarded, so the factor
// comes out NaN or ±Inf for that date.
//
// Output is ordered by date ascending.
func ComputeDailyFactors(rows []domain.DeltaOIRecord) []domain.DailyFactor {
	if len(rows) == 0 {
		return nil
	}

	type sums struct {
		weighted float64
		amount   float64
	}
	byDate := make(map[domain.TradeDate]*sums)
	for _, r := range rows {
		s, ok := byDate[r.Date]
		if !ok {
			s = &sums{}
			byDate[r.Date] = s
		}
		s.weighted += zeroIfNaN(r.DeltaOI) * zeroIfNaN(r.Close)
		s.amount += zeroIfNaN(r.Amount)
	}

	result := make([]domain.DailyFactor, 0, len(byDate))
	for date, s := range byDate {
		result = append(result, domain.DailyFactor{
			Date:   date,
			Factor: s.weighted / s.amount,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})
	return result
}
