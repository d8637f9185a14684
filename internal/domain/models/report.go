package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateRange bounds a report. A zero Start or End leaves that side open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsOpen reports whether neither bound is set.
func (r DateRange) IsOpen() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// FinancialSummary aggregates a slice of the ledger.
type FinancialSummary struct {
	Revenue           decimal.Decimal `json:"revenue"`
	COGS              decimal.Decimal `json:"cogs"`
	GrossProfit       decimal.Decimal `json:"grossProfit"`
	OperatingExpenses decimal.Decimal `json:"operatingExpenses"`
	NetProfit         decimal.Decimal `json:"netProfit"`
	PurchasesTotal    decimal.Decimal `json:"purchasesTotal"`
	TotalOutflows     decimal.Decimal `json:"totalOutflows"`
	TransactionCount  int             `json:"transactionCount"`
}

// DailyReport represents the aggregated daily data archived by the scheduler.
type DailyReport struct {
	Date           time.Time        `json:"date"`
	Summary        FinancialSummary `json:"summary"`
	InventoryValue decimal.Decimal  `json:"inventory_value"`
	ItemCount      int              `json:"item_count"`
	CreatedAt      time.Time        `json:"created_at"`
}
