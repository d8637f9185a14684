package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType enumerates the kinds of ledger transactions.
type TransactionType string

const (
	TransactionSale       TransactionType = "Sale"
	TransactionPurchase   TransactionType = "Purchase"
	TransactionExpense    TransactionType = "Expense"
	TransactionAdjustment TransactionType = "Stock Adjustment"
)

// Valid reports whether t is one of the known transaction kinds.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionSale, TransactionPurchase, TransactionExpense, TransactionAdjustment:
		return true
	default:
		return false
	}
}

// StockSign is the direction a line quantity moves stock for this kind:
// -1 for sales, +1 for purchases and adjustments (whose quantity is already
// signed), 0 for expenses.
func (t TransactionType) StockSign() int {
	switch t {
	case TransactionSale:
		return -1
	case TransactionPurchase, TransactionAdjustment:
		return 1
	default:
		return 0
	}
}

// TransactionItem snapshots an inventory item as it was when the transaction
// was recorded. For adjustments Quantity holds the signed delta.
type TransactionItem struct {
	ItemID    string          `json:"itemId"`
	ItemName  string          `json:"itemName"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Transaction is an immutable ledger record.
type Transaction struct {
	ID          string            `json:"id"`
	Type        TransactionType   `json:"type"`
	Timestamp   time.Time         `json:"timestamp"`
	Description string            `json:"description"`
	Amount      decimal.Decimal   `json:"amount"`
	COGS        *decimal.Decimal  `json:"cogs,omitempty"`
	Items       []TransactionItem `json:"items,omitempty"`
}

// CostOfGoods returns the COGS figure, treating a missing value as zero.
func (t Transaction) CostOfGoods() decimal.Decimal {
	if t.COGS == nil {
		return decimal.Zero
	}
	return *t.COGS
}

// QuantityDelta returns the signed stock movement this transaction implies
// for the given item.
func (t Transaction) QuantityDelta(itemID string) int {
	delta := 0
	for _, line := range t.Items {
		if line.ItemID == itemID {
			delta += t.Type.StockSign() * line.Quantity
		}
	}
	return delta
}

// Clone returns a deep copy so callers cannot alias ledger internals.
func (t Transaction) Clone() Transaction {
	out := t
	if t.COGS != nil {
		cogs := *t.COGS
		out.COGS = &cogs
	}
	if t.Items != nil {
		out.Items = make([]TransactionItem, len(t.Items))
		copy(out.Items, t.Items)
	}
	return out
}

// LedgerEntryType classifies a stock card line.
type LedgerEntryType string

const (
	LedgerEntryIn      LedgerEntryType = "IN"
	LedgerEntryOut     LedgerEntryType = "OUT"
	LedgerEntryInitial LedgerEntryType = "INITIAL"
)

// LedgerEntry is one line of an item's stock card. QuantityChange is a
// magnitude; the direction is carried by Type.
type LedgerEntry struct {
	ID             string          `json:"id"`
	ItemID         string          `json:"itemId"`
	ItemName       string          `json:"itemName"`
	Timestamp      time.Time       `json:"timestamp"`
	Type           LedgerEntryType `json:"type"`
	QuantityChange int             `json:"quantityChange"`
	NewQuantity    int             `json:"newQuantity"`
}
