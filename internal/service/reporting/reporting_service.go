package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/shopledger/internal/domain/models"
)

const dateLayout = "2006-01-02"

// Filter returns the transactions whose timestamp falls inside r. Both bounds
// are inclusive at day granularity: Start counts from its midnight, End runs
// through 23:59:59.999 of its day. Input order is preserved.
func Filter(txs []models.Transaction, r models.DateRange) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if InRange(tx.Timestamp, r) {
			out = append(out, tx)
		}
	}
	return out
}

// InRange reports whether ts satisfies the day-granular bounds of r.
func InRange(ts time.Time, r models.DateRange) bool {
	if !r.Start.IsZero() && ts.Before(StartOfDay(r.Start)) {
		return false
	}
	if !r.End.IsZero() && ts.After(EndOfDay(r.End)) {
		return false
	}
	return true
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// Summarize aggregates transactions into a FinancialSummary. The result only
// depends on the multiset of transactions, never on their order or on
// inventory quantities.
func Summarize(txs []models.Transaction) models.FinancialSummary {
	var s models.FinancialSummary
	for _, tx := range txs {
		switch tx.Type {
		case models.TransactionSale:
			s.Revenue = s.Revenue.Add(tx.Amount)
			s.COGS = s.COGS.Add(tx.CostOfGoods())
		case models.TransactionExpense:
			s.OperatingExpenses = s.OperatingExpenses.Add(tx.Amount)
		case models.TransactionPurchase:
			s.PurchasesTotal = s.PurchasesTotal.Add(tx.Amount)
		}
	}
	s.TotalOutflows = s.OperatingExpenses.Add(s.PurchasesTotal)
	s.GrossProfit = s.Revenue.Sub(s.COGS)
	s.NetProfit = s.GrossProfit.Sub(s.OperatingExpenses)
	s.TransactionCount = len(txs)
	return s
}

// Compute filters txs by r and summarizes the result.
func Compute(txs []models.Transaction, r models.DateRange) models.FinancialSummary {
	return Summarize(Filter(txs, r))
}

// ParseDate parses a YYYY-MM-DD value in loc. A blank value yields the zero
// time, which leaves the corresponding range bound open.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if len(value) > len(dateLayout) {
		value = value[:len(dateLayout)]
	}
	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", value, err)
	}
	return t, nil
}

// ParseRange parses optional start and end dates into a DateRange.
func ParseRange(start, end string, loc *time.Location) (models.DateRange, error) {
	from, err := ParseDate(start, loc)
	if err != nil {
		return models.DateRange{}, err
	}
	to, err := ParseDate(end, loc)
	if err != nil {
		return models.DateRange{}, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return models.DateRange{}, fmt.Errorf("end date %s is before start date %s", to.Format(dateLayout), from.Format(dateLayout))
	}
	return models.DateRange{Start: from, End: to}, nil
}

// LedgerReader is the read-only view of the ledger the reporting service needs.
type LedgerReader interface {
	Inventory() []models.InventoryItem
	Summary(r models.DateRange) models.FinancialSummary
}

// Service builds periodic reports over a ledger.
type Service struct {
	ledger LedgerReader
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(ledger LedgerReader, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{ledger: ledger, loc: loc, logger: logger, now: time.Now}
}

// DailyReport summarizes one calendar day, in the service time zone, and
// values the current inventory at purchase cost.
func (s *Service) DailyReport(ctx context.Context, day time.Time) (models.DailyReport, error) {
	if err := ctx.Err(); err != nil {
		return models.DailyReport{}, err
	}

	day = StartOfDay(day.In(s.loc))
	summary := s.ledger.Summary(models.DateRange{Start: day, End: day})

	value := decimal.Zero
	items := s.ledger.Inventory()
	for _, item := range items {
		value = value.Add(item.StockValue())
	}

	s.logger.Debug("daily report built",
		zap.String("day", day.Format(dateLayout)),
		zap.Int("transactions", summary.TransactionCount),
		zap.String("net_profit", summary.NetProfit.String()))

	return models.DailyReport{
		Date:           day,
		Summary:        summary,
		InventoryValue: value,
		ItemCount:      len(items),
		CreatedAt:      s.now().UTC(),
	}, nil
}

// FormatSummary renders a one-line human readable summary, used by text
// command replies and log lines.
func FormatSummary(s models.FinancialSummary, r models.DateRange) string {
	return fmt.Sprintf("%s: revenue %s, cogs %s, gross profit %s, expenses %s, net profit %s, outflows %s across %d transactions.",
		RangeLabel(r),
		s.Revenue.StringFixed(2),
		s.COGS.StringFixed(2),
		s.GrossProfit.StringFixed(2),
		s.OperatingExpenses.StringFixed(2),
		s.NetProfit.StringFixed(2),
		s.TotalOutflows.StringFixed(2),
		s.TransactionCount)
}

// RangeLabel describes a date range the way report headers show it.
func RangeLabel(r models.DateRange) string {
	var parts []string
	if !r.Start.IsZero() {
		parts = append(parts, "From: "+r.Start.Format(dateLayout))
	}
	if !r.End.IsZero() {
		parts = append(parts, "To: "+r.End.Format(dateLayout))
	}
	if len(parts) == 0 {
		return "Showing all available data"
	}
	return strings.Join(parts, " ")
}
