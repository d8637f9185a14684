// Package export renders ledger reports as HTML, CSV or PDF documents.
package export

import (
	"errors"
	"strconv"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/shopledger/internal/domain/models"
	"github.com/mamadbah2/shopledger/internal/service/reporting"
)

// ErrNoSections is returned when an export selects no report section.
var ErrNoSections = errors.New("export: select at least one section")

const (
	reportTitle    = "Custom Report"
	fileDateLayout = "2006-01-02"
	rowDateLayout  = "2006-01-02 15:04"
)

// Options selects the sections of an exported report.
type Options struct {
	Summary      bool
	Transactions bool
	Inventory    bool
}

// Empty reports whether no section is selected.
func (o Options) Empty() bool {
	return !o.Summary && !o.Transactions && !o.Inventory
}

// Ledger is the read side of the ledger used to build reports.
type Ledger interface {
	Inventory() []models.InventoryItem
	FilteredTransactions(r models.DateRange) []models.Transaction
	Summary(r models.DateRange) models.FinancialSummary
}

// SummaryRow is one label/value line of the financial summary section.
type SummaryRow struct {
	Label string
	Value string
}

// TransactionRow is one line of the transaction list section.
type TransactionRow struct {
	Date        string
	Type        string
	Description string
	Amount      string
}

// InventoryRow is one line of the inventory status section.
type InventoryRow struct {
	Name          string
	Quantity      int
	PurchasePrice string
	SellingPrice  string
}

// Report is the rendered-ready view of a ledger slice. A nil section is
// omitted from every output format.
type Report struct {
	Title        string
	RangeLabel   string
	GeneratedAt  time.Time
	Summary      []SummaryRow
	Transactions []TransactionRow
	Inventory    []InventoryRow
}

// BuildReport assembles the selected sections for r. Transaction and
// inventory sections are left out when they have no rows.
func BuildReport(l Ledger, r models.DateRange, opts Options, currency string, now time.Time) (Report, error) {
	if opts.Empty() {
		return Report{}, ErrNoSections
	}

	rep := Report{
		Title:       reportTitle,
		RangeLabel:  reporting.RangeLabel(r),
		GeneratedAt: now,
	}

	if opts.Summary {
		s := l.Summary(r)
		rep.Summary = []SummaryRow{
			{Label: "Total Revenue", Value: FormatMoney(s.Revenue, currency)},
			{Label: "Cost of Goods Sold (COGS)", Value: FormatMoney(s.COGS, currency)},
			{Label: "Gross Profit", Value: FormatMoney(s.GrossProfit, currency)},
			{Label: "Operating Expenses", Value: FormatMoney(s.OperatingExpenses, currency)},
			{Label: "Net Profit", Value: FormatMoney(s.NetProfit, currency)},
		}
	}

	if opts.Transactions {
		for _, tx := range l.FilteredTransactions(r) {
			rep.Transactions = append(rep.Transactions, TransactionRow{
				Date:        tx.Timestamp.In(now.Location()).Format(rowDateLayout),
				Type:        string(tx.Type),
				Description: tx.Description,
				Amount:      SignedAmount(tx, currency),
			})
		}
	}

	if opts.Inventory {
		for _, item := range l.Inventory() {
			rep.Inventory = append(rep.Inventory, InventoryRow{
				Name:          item.Name,
				Quantity:      item.Quantity,
				PurchasePrice: FormatMoney(item.PurchasePrice, currency),
				SellingPrice:  FormatMoney(item.SellingPrice, currency),
			})
		}
	}

	return rep, nil
}

// FormatMoney renders amount in currency with its symbol and grouping. Unknown
// currencies fall back to a plain two-decimal number.
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2)
	}
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := amount.Mul(factor).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// SignedAmount renders a transaction amount as money in (+) for sales, money
// out (-) for every other non-zero amount and "-" for zero.
func SignedAmount(tx models.Transaction, currency string) string {
	if tx.Amount.IsZero() {
		return "-"
	}
	formatted := FormatMoney(tx.Amount.Abs(), currency)
	if tx.Type == models.TransactionSale {
		return "+" + formatted
	}
	return "-" + formatted
}

// FileName returns the download name of a report generated at now.
func FileName(now time.Time, format Format) string {
	return "Shop-Ledger-Report-" + now.Format(fileDateLayout) + "." + string(format)
}

func quantityString(q int) string {
	return strconv.Itoa(q)
}
