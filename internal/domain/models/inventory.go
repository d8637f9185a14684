package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem is a stock keeping unit held by the shop. Quantity is a cached
// projection of the transaction log and never goes negative.
type InventoryItem struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// StockValue returns the inventory value of the item at purchase cost.
func (i InventoryItem) StockValue() decimal.Decimal {
	return i.PurchasePrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
