package pipeline

import (
	"time"

	"northbound-factor-lab/internal/domain"
)

// Fixtures returns a small deterministic data set for demonstration runs.
// It covers a factor date without a futures bar, a futures bar without
// stock data, a day with no north flow and a day with zero flow.
func Fixtures() Inputs {
	dates := []domain.TradeDate{20210104, 20210105, 20210106, 20210107, 20210108, 20210111}

	type series struct {
		code   string
		closes []float64
		oi     []float64
	}
	codes := []series{
		{"600519", []float64{2000, 2050, 2080, 2030, 2100, 2120}, []float64{1000, 1300, 1450, 1200, 1500, 1520}},
		{"000858", []float64{300, 305, 310, 298, 303, 311}, []float64{5000, 5400, 5700, 5100, 5900, 6000}},
		{"601318", []float64{85, 86, 84, 83, 85, 87}, []float64{20000, 20500, 20200, 19800, 21000, 21300}},
	}

	var in Inputs
	for _, s := range codes {
		for i, d := range dates {
			in.Stocks = append(in.Stocks, domain.StockDailyRecord{
				Date:   d,
				Code:   s.code,
				Close:  s.closes[i],
				Amount: 3000,
				OI:     s.oi[i],
			})
		}
	}

	// No bar on 20210111; an extra bar on 20210112 with no stock data.
	for i, d := range append(dates[:5:5], 20210112) {
		px := 6200 + float64(i)*25
		in.Futures = append(in.Futures, domain.FuturesDailyRecord{
			Date:   d,
			Open:   px - 10,
			High:   px + 30,
			Low:    px - 40,
			Close:  px,
			Volume: 120000,
			Amount: px * 120000 * 200,
			Return: 25 / (px - 25),
		})
	}

	flows := map[domain.TradeDate][2]float64{
		20210104: {1200, 1000},
		20210105: {1100, 900},
		20210106: {0, 0},
		// 20210107 missing
		20210108: {600, 500},
		20210111: {800, 700},
		20210112: {1000, 1000},
	}
	for _, d := range []domain.TradeDate{20210104, 20210105, 20210106, 20210108, 20210111, 20210112} {
		f := flows[d]
		in.Flows = append(in.Flows, domain.NorthFlowRecord{
			DateTime: d.Time().Add(15 * time.Hour),
			Buy:      f[0],
			Sell:     f[1],
		})
	}

	return in
}
