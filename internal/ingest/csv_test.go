package ingest

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/factor"
)

func TestReadStocks(t *testing.T) {
	in := "\ufeffDate, Code ,close,amount,oi,name\n" +
		"20200101,600519,10,100,5,a\n" +
		"20200102,600519,11,\"1,150\",8,a\n"

	records, err := ReadStocks(strings.NewReader(in), EncodingUTF8)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, domain.StockDailyRecord{Date: 20200101, Code: "600519", Close: 10, Amount: 100, OI: 5}, records[0])
	assert.Equal(t, 1150.0, records[1].Amount)
}

func TestReadStocks_GBK(t *testing.T) {
	utf8 := "date,code,close,amount,oi,名称\n20200101,000001,12.5,300,40,平安银行\n"
	gbk, err := simplifiedchinese.GBK.NewEncoder().String(utf8)
	require.NoError(t, err)

	records, err := ReadStocks(bytes.NewReader([]byte(gbk)), EncodingGBK)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "000001", records[0].Code)
	assert.Equal(t, 12.5, records[0].Close)
}

func TestReadStocks_MissingColumn(t *testing.T) {
	_, err := ReadStocks(strings.NewReader("date,code,close,amount\n20200101,A,1,1\n"), EncodingUTF8)

	var se *factor.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "stock", se.Table)
	assert.Equal(t, "oi", se.Field)
}

func TestReadStocks_EmptyFile(t *testing.T) {
	_, err := ReadStocks(strings.NewReader(""), EncodingUTF8)
	assert.ErrorIs(t, err, factor.ErrSchema)
}

func TestReadStocks_EmptyNumericIsNaN(t *testing.T) {
	records, err := ReadStocks(strings.NewReader("date,code,close,amount,oi\n20200101,A,,1,1\n"), EncodingUTF8)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(records[0].Close))
}

func TestReadStocks_BadNumber(t *testing.T) {
	_, err := ReadStocks(strings.NewReader("date,code,close,amount,oi\n20200101,A,abc,1,1\n"), EncodingUTF8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close")
}

func TestReadFutures(t *testing.T) {
	in := "date,open,high,low,close,volume,ret,factor\n" +
		"2020-01-02,5000,5100,4990,5050,1200,0.01,7\n" +
		"20200103,5050,5060,5000,5010,1100,-0.008,7\n"

	records, err := ReadFutures(strings.NewReader(in), "")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, domain.TradeDate(20200102), records[0].Date)
	assert.Equal(t, 5050.0, records[0].Close)
	assert.Equal(t, 7.0, records[0].Factor)
	assert.Equal(t, 0.0, records[0].Amount, "absent optional column reads as 0")
	assert.Equal(t, -0.008, records[1].Return)
}

func TestReadFutures_RequiresFactorSlot(t *testing.T) {
	_, err := ReadFutures(strings.NewReader("date,close\n20200101,1\n"), "")

	var se *factor.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "factor", se.Field)
}

func TestReadNorthFlowCSV(t *testing.T) {
	in := "date_time,buy,sell\n2020-01-02,120.5,110\n2020/01/03 00:00:00,0,0\n"

	records, err := ReadNorthFlowCSV(strings.NewReader(in), EncodingUTF8)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), records[0].DateTime)
	assert.Equal(t, 120.5, records[0].Buy)
	assert.Equal(t, domain.TradeDate(20200103), domain.TradeDateFromTime(records[1].DateTime))
}

func TestReadNorthFlowCSV_BadTimestamp(t *testing.T) {
	_, err := ReadNorthFlowCSV(strings.NewReader("date_time,buy,sell\nyesterday,1,1\n"), EncodingUTF8)
	assert.Error(t, err)
}

func TestDecode_UnknownEncoding(t *testing.T) {
	_, err := ReadStocks(strings.NewReader("date\n"), "latin1")
	assert.ErrorContains(t, err, "unsupported encoding")
}

func TestFilterStocks(t *testing.T) {
	records := []domain.StockDailyRecord{{Date: 20161230}, {Date: 20170103}, {Date: 20210618}}
	got := FilterStocks(records, 20170101, 20210617)
	require.Len(t, got, 1)
	assert.Equal(t, domain.TradeDate(20170103), got[0].Date)
}

func TestFilterFuturesAndNorthFlow(t *testing.T) {
	bars := []domain.FuturesDailyRecord{{Date: 20161230}, {Date: 20170103}, {Date: 20210617}, {Date: 20210618}}
	got := FilterFutures(bars, 20170101, 20210617)
	require.Len(t, got, 2)
	assert.Equal(t, domain.TradeDate(20170103), got[0].Date)
	assert.Equal(t, domain.TradeDate(20210617), got[1].Date)

	flows := []domain.NorthFlowRecord{
		{DateTime: time.Date(2016, 12, 30, 15, 0, 0, 0, time.UTC)},
		{DateTime: time.Date(2021, 6, 17, 15, 0, 0, 0, time.UTC)},
		{DateTime: time.Date(2021, 6, 18, 0, 0, 0, 0, time.UTC)},
	}
	gotFlows := FilterNorthFlow(flows, 20170101, 20210617)
	require.Len(t, gotFlows, 1)
	assert.Equal(t, 17, gotFlows[0].DateTime.Day())
}
