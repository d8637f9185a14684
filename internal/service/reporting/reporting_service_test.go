package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/shopledger/internal/domain/models"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func sale(ts time.Time, amount, cogs string) models.Transaction {
	c := dec(cogs)
	return models.Transaction{Type: models.TransactionSale, Timestamp: ts, Amount: dec(amount), COGS: &c}
}

func tx(kind models.TransactionType, ts time.Time, amount string) models.Transaction {
	return models.Transaction{Type: kind, Timestamp: ts, Amount: dec(amount)}
}

func TestSummarize(t *testing.T) {
	ts := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		tx(models.TransactionPurchase, ts, "30"),
		sale(ts, "50", "20"),
		tx(models.TransactionExpense, ts, "10"),
		tx(models.TransactionAdjustment, ts, "0"),
	}

	s := Summarize(txs)
	require.True(t, s.Revenue.Equal(dec("50")))
	require.True(t, s.COGS.Equal(dec("20")))
	require.True(t, s.GrossProfit.Equal(dec("30")))
	require.True(t, s.OperatingExpenses.Equal(dec("10")))
	require.True(t, s.NetProfit.Equal(dec("20")))
	require.True(t, s.PurchasesTotal.Equal(dec("30")))
	require.True(t, s.TotalOutflows.Equal(dec("40")))
	require.Equal(t, 4, s.TransactionCount)

	reversed := []models.Transaction{txs[3], txs[2], txs[1], txs[0]}
	require.True(t, Summarize(reversed).NetProfit.Equal(s.NetProfit))
}

func TestSummarizeSaleWithoutCOGS(t *testing.T) {
	s := Summarize([]models.Transaction{tx(models.TransactionSale, time.Now(), "12.50")})
	require.True(t, s.Revenue.Equal(dec("12.50")))
	require.True(t, s.COGS.IsZero())
	require.True(t, s.GrossProfit.Equal(dec("12.50")))
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	require.True(t, s.Revenue.IsZero())
	require.True(t, s.NetProfit.IsZero())
	require.True(t, s.TotalOutflows.IsZero())
	require.Zero(t, s.TransactionCount)
}

func TestFilterDayBoundaries(t *testing.T) {
	day := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	r := models.DateRange{Start: day, End: day}

	inside := []time.Time{
		day,
		day.Add(13 * time.Hour),
		day.Add(24*time.Hour - time.Millisecond),
	}
	outside := []time.Time{
		day.Add(-time.Millisecond),
		day.Add(24 * time.Hour),
	}
	for _, ts := range inside {
		require.True(t, InRange(ts, r), ts)
	}
	for _, ts := range outside {
		require.False(t, InRange(ts, r), ts)
	}

	require.True(t, InRange(day.AddDate(-5, 0, 0), models.DateRange{End: day}))
	require.True(t, InRange(day.AddDate(5, 0, 0), models.DateRange{Start: day}))
	require.True(t, InRange(day, models.DateRange{}))
}

func TestFilterIgnoresTimeOfDayInBounds(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	r := models.DateRange{Start: day.Add(15 * time.Hour), End: day.Add(2 * time.Hour)}
	require.True(t, InRange(day.Add(time.Hour), r))
	require.True(t, InRange(day.Add(23*time.Hour), r))
}

func TestFilterPreservesOrder(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		{ID: "a", Timestamp: base},
		{ID: "b", Timestamp: base.AddDate(0, 0, 2)},
		{ID: "c", Timestamp: base.AddDate(0, 0, 1)},
		{ID: "d", Timestamp: base.AddDate(0, 0, 9)},
	}
	out := Filter(txs, models.DateRange{Start: base, End: base.AddDate(0, 0, 2)})
	require.Len(t, out, 3)
	require.Equal(t, "a", out[0].ID)
	require.Equal(t, "b", out[1].ID)
	require.Equal(t, "c", out[2].ID)
}

func TestComputeIsIdempotent(t *testing.T) {
	ts := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	txs := []models.Transaction{sale(ts, "9.99", "4.25"), tx(models.TransactionExpense, ts, "1.10")}
	r := models.DateRange{Start: ts}

	first := Compute(txs, r)
	second := Compute(txs, r)
	require.Equal(t, first.NetProfit.String(), second.NetProfit.String())
	require.True(t, first.NetProfit.Equal(dec("4.64")))
}

func TestParseDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	got, err := ParseDate("2024-07-04", loc)
	require.NoError(t, err)
	require.True(t, got.Equal(time.Date(2024, 7, 4, 0, 0, 0, 0, loc)))
	require.Equal(t, loc, got.Location())

	got, err = ParseDate("2024-07-04T18:30:00Z", nil)
	require.NoError(t, err)
	require.True(t, got.Equal(time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)))

	got, err = ParseDate("  ", loc)
	require.NoError(t, err)
	require.True(t, got.IsZero())

	_, err = ParseDate("04/07/2024", loc)
	require.Error(t, err)
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("2024-01-01", "", time.UTC)
	require.NoError(t, err)
	require.False(t, r.Start.IsZero())
	require.True(t, r.End.IsZero())
	require.False(t, r.IsOpen())

	r, err = ParseRange("", "", time.UTC)
	require.NoError(t, err)
	require.True(t, r.IsOpen())

	r, err = ParseRange("2024-01-01", "2024-01-01", time.UTC)
	require.NoError(t, err)
	require.True(t, r.Start.Equal(r.End))

	_, err = ParseRange("2024-02-01", "2024-01-01", time.UTC)
	require.Error(t, err)
}

func TestRangeLabel(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "Showing all available data", RangeLabel(models.DateRange{}))
	require.Equal(t, "From: 2024-01-02", RangeLabel(models.DateRange{Start: day}))
	require.Equal(t, "To: 2024-01-02", RangeLabel(models.DateRange{End: day}))
	require.Equal(t, "From: 2024-01-02 To: 2024-01-03", RangeLabel(models.DateRange{Start: day, End: day.AddDate(0, 0, 1)}))
}

func TestFormatSummary(t *testing.T) {
	s := models.FinancialSummary{
		Revenue:           dec("50"),
		COGS:              dec("20"),
		GrossProfit:       dec("30"),
		OperatingExpenses: dec("10"),
		NetProfit:         dec("20"),
		TotalOutflows:     dec("40"),
		TransactionCount:  4,
	}
	line := FormatSummary(s, models.DateRange{})
	require.Contains(t, line, "Showing all available data")
	require.Contains(t, line, "revenue 50.00")
	require.Contains(t, line, "net profit 20.00")
	require.Contains(t, line, "4 transactions")
}

type stubLedger struct {
	items   []models.InventoryItem
	txs     []models.Transaction
	lastArg models.DateRange
}

func (s *stubLedger) Inventory() []models.InventoryItem { return s.items }

func (s *stubLedger) Summary(r models.DateRange) models.FinancialSummary {
	s.lastArg = r
	return Compute(s.txs, r)
}

func TestDailyReport(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, loc)
	ledger := &stubLedger{
		items: []models.InventoryItem{
			{ID: "a", Quantity: 3, PurchasePrice: dec("2.50")},
			{ID: "b", Quantity: 0, PurchasePrice: dec("9")},
			{ID: "c", Quantity: 2, PurchasePrice: dec("1.25")},
		},
		txs: []models.Transaction{
			sale(day.Add(10*time.Hour), "20", "8"),
			sale(day.Add(-time.Hour), "99", "1"),
			tx(models.TransactionExpense, day.Add(23*time.Hour), "5"),
		},
	}

	svc := NewService(ledger, loc, nil)
	created := time.Date(2024, 6, 2, 3, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return created }

	report, err := svc.DailyReport(context.Background(), day.Add(15*time.Hour).UTC())
	require.NoError(t, err)
	require.True(t, report.Date.Equal(day))
	require.True(t, ledger.lastArg.Start.Equal(day))
	require.Equal(t, 2, report.Summary.TransactionCount)
	require.True(t, report.Summary.Revenue.Equal(dec("20")))
	require.True(t, report.Summary.NetProfit.Equal(dec("7")))
	require.True(t, report.InventoryValue.Equal(dec("10")))
	require.Equal(t, 3, report.ItemCount)
	require.True(t, created.Equal(report.CreatedAt))
}

func TestDailyReportCanceledContext(t *testing.T) {
	svc := NewService(&stubLedger{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.DailyReport(ctx, time.Now())
	require.ErrorIs(t, err, context.Canceled)
}
