package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/shopledger/internal/domain/models"
	"github.com/mamadbah2/shopledger/internal/repository"
	"github.com/mamadbah2/shopledger/internal/service/ledger"
	"github.com/mamadbah2/shopledger/pkg/clients/gotenberg"
)

type fakeRenderer struct {
	html string
	err  error
}

func (f *fakeRenderer) RenderHTML(_ context.Context, html string) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7 fake"), nil
}

func (f *fakeRenderer) Ping(context.Context) error { return nil }

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func seededLedger(t *testing.T) *ledger.Service {
	t.Helper()
	ctx := context.Background()
	ts := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		ts = ts.Add(time.Hour)
		return ts
	}
	l := ledger.NewService(repository.State{}, nil, nil, ledger.WithClock(clock))

	_, err := l.RecordPurchase(ctx, ledger.PurchaseInput{Name: "Lamp", Quantity: 3, PurchasePrice: dec("10"), SellingPrice: dec("1250"), IsNew: true})
	require.NoError(t, err)
	lamp, err := l.FindItem("Lamp")
	require.NoError(t, err)
	_, err = l.RecordSale(ctx, []ledger.SaleLine{{ItemID: lamp.ID, Quantity: 2}})
	require.NoError(t, err)
	_, err = l.RecordExpense(ctx, "Electricity", dec("10"))
	require.NoError(t, err)
	_, err = l.AdjustStock(ctx, lamp.ID, -1, "broken")
	require.NoError(t, err)
	return l
}

func TestBuildReportAllSections(t *testing.T) {
	l := seededLedger(t)
	now := time.Date(2024, 5, 11, 8, 0, 0, 0, time.UTC)

	rep, err := BuildReport(l, models.DateRange{}, Options{Summary: true, Transactions: true, Inventory: true}, "USD", now)
	require.NoError(t, err)
	require.Equal(t, "Custom Report", rep.Title)
	require.Equal(t, "Showing all available data", rep.RangeLabel)

	require.Equal(t, []SummaryRow{
		{Label: "Total Revenue", Value: "$2,500.00"},
		{Label: "Cost of Goods Sold (COGS)", Value: "$20.00"},
		{Label: "Gross Profit", Value: "$2,480.00"},
		{Label: "Operating Expenses", Value: "$10.00"},
		{Label: "Net Profit", Value: "$2,470.00"},
	}, rep.Summary)

	require.Len(t, rep.Transactions, 4)
	require.Equal(t, "Stock Adjustment", rep.Transactions[0].Type)
	require.Equal(t, "-", rep.Transactions[0].Amount)
	require.Equal(t, "-$10.00", rep.Transactions[1].Amount)
	require.Equal(t, "+$2,500.00", rep.Transactions[2].Amount)
	require.Equal(t, "-$30.00", rep.Transactions[3].Amount)
	require.Equal(t, "2024-05-10 10:00", rep.Transactions[3].Date)

	require.Equal(t, []InventoryRow{{Name: "Lamp", Quantity: 0, PurchasePrice: "$10.00", SellingPrice: "$1,250.00"}}, rep.Inventory)
}

func TestBuildReportSections(t *testing.T) {
	l := seededLedger(t)
	now := time.Now()

	_, err := BuildReport(l, models.DateRange{}, Options{}, "USD", now)
	require.ErrorIs(t, err, ErrNoSections)

	rep, err := BuildReport(l, models.DateRange{}, Options{Inventory: true}, "USD", now)
	require.NoError(t, err)
	require.Nil(t, rep.Summary)
	require.Nil(t, rep.Transactions)
	require.Len(t, rep.Inventory, 1)

	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	rep, err = BuildReport(l, models.DateRange{Start: future}, Options{Summary: true, Transactions: true}, "USD", now)
	require.NoError(t, err)
	require.Equal(t, "From: 2030-01-01", rep.RangeLabel)
	require.Nil(t, rep.Transactions)
	require.Equal(t, "$0.00", rep.Summary[0].Value)
}

func TestFormatMoney(t *testing.T) {
	require.Equal(t, "$1,234.57", FormatMoney(dec("1234.567"), "USD"))
	require.Equal(t, "-$5.00", FormatMoney(dec("-5"), "USD"))
	require.Equal(t, "¥1,235", FormatMoney(dec("1234.5"), "JPY"))
	require.Equal(t, "12.30", FormatMoney(dec("12.3"), "XXQ"))
}

func TestSignedAmount(t *testing.T) {
	require.Equal(t, "+$5.00", SignedAmount(models.Transaction{Type: models.TransactionSale, Amount: dec("5")}, "USD"))
	require.Equal(t, "-$5.00", SignedAmount(models.Transaction{Type: models.TransactionPurchase, Amount: dec("5")}, "USD"))
	require.Equal(t, "-$5.00", SignedAmount(models.Transaction{Type: models.TransactionExpense, Amount: dec("5")}, "USD"))
	require.Equal(t, "-", SignedAmount(models.Transaction{Type: models.TransactionAdjustment, Amount: decimal.Zero}, "USD"))
	require.Equal(t, "-", SignedAmount(models.Transaction{Type: models.TransactionSale, Amount: decimal.Zero}, "USD"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatPDF, f)

	f, err = ParseFormat(" CSV ")
	require.NoError(t, err)
	require.Equal(t, FormatCSV, f)
	require.Equal(t, "text/csv; charset=utf-8", f.ContentType())

	_, err = ParseFormat("xlsx")
	require.Error(t, err)
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 2, 3, 23, 0, 0, 0, time.UTC)
	require.Equal(t, "Shop-Ledger-Report-2024-02-03.pdf", FileName(now, FormatPDF))
	require.Equal(t, "Shop-Ledger-Report-2024-02-03.csv", FileName(now, FormatCSV))
}

func TestRenderHTMLEscapesAndOmitsSections(t *testing.T) {
	rep := Report{
		Title:        "Custom Report",
		RangeLabel:   "Showing all available data",
		Transactions: []TransactionRow{{Date: "2024-01-01 10:00", Type: "Expense", Description: "<script>alert(1)</script>", Amount: "-$1.00"}},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, rep))
	out := buf.String()
	require.Contains(t, out, "<h1>Custom Report</h1>")
	require.Contains(t, out, "Transaction List")
	require.NotContains(t, out, "Financial Summary")
	require.NotContains(t, out, "Current Inventory Status")
	require.NotContains(t, out, "<script>")
	require.Contains(t, out, "&lt;script&gt;")
}

func TestRenderCSV(t *testing.T) {
	l := seededLedger(t)
	rep, err := BuildReport(l, models.DateRange{}, Options{Summary: true, Transactions: true}, "USD", time.Now())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderCSV(&buf, rep))

	r := csv.NewReader(strings.NewReader(buf.String()))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	require.Equal(t, []string{"Custom Report"}, records[0])
	require.Equal(t, []string{"Financial Summary"}, records[2])
	require.Equal(t, []string{"Total Revenue", "$2,500.00"}, records[3])
	require.Equal(t, []string{"Date", "Type", "Description", "Amount"}, records[8])
	require.Len(t, records, 13)
	require.NotContains(t, buf.String(), "Item Name")
}

func TestExporterPDF(t *testing.T) {
	renderer := &fakeRenderer{}
	exp := NewExporter(seededLedger(t), renderer, "USD", time.UTC, nil)
	exp.now = func() time.Time { return time.Date(2024, 5, 12, 18, 0, 0, 0, time.UTC) }

	doc, err := exp.Export(context.Background(), FormatPDF, models.DateRange{}, Options{Summary: true})
	require.NoError(t, err)
	require.Equal(t, "Shop-Ledger-Report-2024-05-12.pdf", doc.FileName)
	require.Equal(t, "application/pdf", doc.ContentType)
	require.Equal(t, "%PDF-1.7 fake", string(doc.Body))
	require.Contains(t, renderer.html, "Financial Summary")
}

func TestExporterPDFFailures(t *testing.T) {
	l := seededLedger(t)

	_, err := NewExporter(l, nil, "USD", nil, nil).Export(context.Background(), FormatPDF, models.DateRange{}, Options{Summary: true})
	require.ErrorIs(t, err, gotenberg.ErrNotConfigured)

	boom := errors.New("gotenberg down")
	_, err = NewExporter(l, &fakeRenderer{err: boom}, "USD", nil, nil).Export(context.Background(), FormatPDF, models.DateRange{}, Options{Summary: true})
	require.ErrorIs(t, err, boom)

	_, err = NewExporter(l, nil, "USD", nil, nil).Export(context.Background(), FormatHTML, models.DateRange{}, Options{})
	require.ErrorIs(t, err, ErrNoSections)
}

func TestExporterHTMLWithoutRenderer(t *testing.T) {
	doc, err := NewExporter(seededLedger(t), nil, "EUR", nil, nil).Export(context.Background(), FormatHTML, models.DateRange{}, Options{Inventory: true})
	require.NoError(t, err)
	require.Equal(t, "text/html; charset=utf-8", doc.ContentType)
	require.Contains(t, string(doc.Body), "Lamp")
	require.Contains(t, string(doc.Body), "€")
}
