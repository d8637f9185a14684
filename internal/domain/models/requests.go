package models

import "github.com/shopspring/decimal"

// SaleLineRequest is one cart line of a sale request.
type SaleLineRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// SaleRequest is the HTTP payload for recording a sale.
type SaleRequest struct {
	Items []SaleLineRequest `json:"items"`
}

// PurchaseRequest is the HTTP payload for recording a purchase. ItemID is
// used when restocking, Name when IsNew is set. Field checks happen in the
// ledger so every caller gets the same validation.
type PurchaseRequest struct {
	ItemID        string          `json:"itemId"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	IsNew         bool            `json:"isNew"`
}

// ExpenseRequest is the HTTP payload for recording an operating expense.
type ExpenseRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// AdjustmentRequest is the HTTP payload for a manual stock correction.
type AdjustmentRequest struct {
	Change int    `json:"change"`
	Reason string `json:"reason"`
}

// CommandRequest carries a free-text command.
type CommandRequest struct {
	Text string `json:"text" binding:"required"`
}

// CommandReply describes the response returned for a text command.
type CommandReply struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}
