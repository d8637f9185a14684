// Package ledger is the only mutation surface for inventory items and
// transactions. Every commit operation validates first, then updates stock
// and appends exactly one transaction, then persists both collections.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/shopledger/internal/domain/models"
	"github.com/mamadbah2/shopledger/internal/repository"
)

// StateSaver persists both collections in full.
type StateSaver interface {
	SaveState(ctx context.Context, items []models.InventoryItem, transactions []models.Transaction) error
}

// EventPublisher is notified of every committed transaction.
type EventPublisher interface {
	PublishTransaction(ctx context.Context, tx models.Transaction) error
}

// SaleLine requests a quantity of one item in a sale.
type SaleLine struct {
	ItemID   string
	Quantity int
}

// PurchaseInput describes a purchase of new or existing stock. ItemID is
// used for restocks, Name and SellingPrice for new items.
type PurchaseInput struct {
	ItemID        string
	Name          string
	Quantity      int
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal
	IsNew         bool
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides id generation. The generator receives the
// entity prefix ("item" or "txn").
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithPublisher registers a transaction event publisher.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// Service owns the inventory and the transaction log of one shop.
type Service struct {
	mu           sync.RWMutex
	items        []models.InventoryItem
	index        map[string]int
	transactions []models.Transaction

	saver     StateSaver
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
	newID     func(prefix string) string
}

// NewService builds a ledger from previously loaded state. saver may be nil
// for purely in-memory use.
func NewService(state repository.State, saver StateSaver, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		items:        make([]models.InventoryItem, 0, len(state.Items)),
		index:        make(map[string]int, len(state.Items)),
		transactions: make([]models.Transaction, 0, len(state.Transactions)),
		saver:        saver,
		logger:       logger,
		now:          time.Now,
		newID:        defaultID,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, item := range state.Items {
		if _, dup := s.index[item.ID]; dup {
			s.logger.Warn("duplicate inventory item id in stored state, keeping first", zap.String("item_id", item.ID))
			continue
		}
		s.index[item.ID] = len(s.items)
		s.items = append(s.items, item)
	}
	for _, tx := range state.Transactions {
		s.transactions = append(s.transactions, tx.Clone())
	}
	return s
}

func defaultID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// RecordSale sells the requested quantities at current selling prices.
func (s *Service) RecordSale(ctx context.Context, lines []SaleLine) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(lines) == 0 {
		return models.Transaction{}, invalid("items", ErrEmptyCart, "sale must contain at least one item")
	}

	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return models.Transaction{}, invalid("quantity", ErrInvalidQuantity, "quantity for item %s must be positive, got %d", line.ItemID, line.Quantity)
		}
		if _, dup := seen[line.ItemID]; dup {
			return models.Transaction{}, invalid("items", ErrDuplicateItem, "item %s is listed more than once", line.ItemID)
		}
		seen[line.ItemID] = struct{}{}

		idx, ok := s.index[line.ItemID]
		if !ok {
			return models.Transaction{}, invalid("itemId", ErrItemNotFound, "item %s not found", line.ItemID)
		}
		if item := s.items[idx]; item.Quantity < line.Quantity {
			return models.Transaction{}, invalid("quantity", ErrInsufficientStock, "only %d of %s in stock, requested %d", item.Quantity, item.Name, line.Quantity)
		}
	}

	revenue := decimal.Zero
	cogs := decimal.Zero
	txItems := make([]models.TransactionItem, 0, len(lines))
	for _, line := range lines {
		item := s.items[s.index[line.ItemID]]
		qty := decimal.NewFromInt(int64(line.Quantity))
		revenue = revenue.Add(item.SellingPrice.Mul(qty))
		cogs = cogs.Add(item.PurchasePrice.Mul(qty))
		txItems = append(txItems, models.TransactionItem{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Quantity:  line.Quantity,
			UnitPrice: item.SellingPrice,
		})
	}

	tx := models.Transaction{
		ID:          s.newID("txn"),
		Type:        models.TransactionSale,
		Timestamp:   s.now(),
		Description: fmt.Sprintf("Sale of %d item types", len(lines)),
		Amount:      revenue,
		COGS:        &cogs,
		Items:       txItems,
	}

	for _, line := range lines {
		s.items[s.index[line.ItemID]].Quantity -= line.Quantity
	}
	return s.commitLocked(ctx, tx)
}

// RecordPurchase buys stock. A new item is created when in.IsNew is set;
// otherwise the existing item is restocked and its purchase price replaced.
func (s *Service) RecordPurchase(ctx context.Context, in PurchaseInput) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.Quantity <= 0 {
		return models.Transaction{}, invalid("quantity", ErrInvalidQuantity, "quantity must be positive, got %d", in.Quantity)
	}
	if in.PurchasePrice.IsNegative() {
		return models.Transaction{}, invalid("purchasePrice", ErrInvalidAmount, "purchase price must not be negative")
	}
	if in.SellingPrice.IsNegative() {
		return models.Transaction{}, invalid("sellingPrice", ErrInvalidAmount, "selling price must not be negative")
	}

	now := s.now()
	var item models.InventoryItem
	if in.IsNew {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return models.Transaction{}, invalid("name", ErrBlankText, "item name is required")
		}
		item = models.InventoryItem{
			ID:            s.newID("item"),
			Name:          name,
			Quantity:      in.Quantity,
			PurchasePrice: in.PurchasePrice,
			SellingPrice:  in.SellingPrice,
			CreatedAt:     now,
		}
	} else {
		idx, ok := s.index[in.ItemID]
		if !ok {
			return models.Transaction{}, invalid("itemId", ErrItemNotFound, "item %s not found", in.ItemID)
		}
		item = s.items[idx]
		item.Quantity += in.Quantity
		item.PurchasePrice = in.PurchasePrice
	}

	tx := models.Transaction{
		ID:          s.newID("txn"),
		Type:        models.TransactionPurchase,
		Timestamp:   now,
		Description: "Purchased " + item.Name,
		Amount:      in.PurchasePrice.Mul(decimal.NewFromInt(int64(in.Quantity))),
		Items: []models.TransactionItem{{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Quantity:  in.Quantity,
			UnitPrice: in.PurchasePrice,
		}},
	}

	if in.IsNew {
		s.index[item.ID] = len(s.items)
		s.items = append(s.items, item)
	} else {
		s.items[s.index[item.ID]] = item
	}
	return s.commitLocked(ctx, tx)
}

// RecordExpense logs an operating expense. Inventory is untouched.
func (s *Service) RecordExpense(ctx context.Context, description string, amount decimal.Decimal) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	description = strings.TrimSpace(description)
	if description == "" {
		return models.Transaction{}, invalid("description", ErrBlankText, "expense description is required")
	}
	if !amount.IsPositive() {
		return models.Transaction{}, invalid("amount", ErrInvalidAmount, "expense amount must be positive, got %s", amount.String())
	}

	tx := models.Transaction{
		ID:          s.newID("txn"),
		Type:        models.TransactionExpense,
		Timestamp:   s.now(),
		Description: description,
		Amount:      amount,
	}
	return s.commitLocked(ctx, tx)
}

// AdjustStock applies a signed, reason-tagged correction to an item.
func (s *Service) AdjustStock(ctx context.Context, itemID string, change int, reason string) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if change == 0 {
		return models.Transaction{}, invalid("change", ErrInvalidQuantity, "adjustment must not be zero")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.Transaction{}, invalid("reason", ErrBlankText, "adjustment reason is required")
	}
	idx, ok := s.index[itemID]
	if !ok {
		return models.Transaction{}, invalid("itemId", ErrItemNotFound, "item %s not found", itemID)
	}
	item := s.items[idx]
	if item.Quantity+change < 0 {
		return models.Transaction{}, invalid("change", ErrNegativeStock, "adjusting %s by %d would leave %d in stock", item.Name, change, item.Quantity+change)
	}

	tx := models.Transaction{
		ID:          s.newID("txn"),
		Type:        models.TransactionAdjustment,
		Timestamp:   s.now(),
		Description: fmt.Sprintf("Adjusted %s by %s. Reason: %s", item.Name, signed(change), reason),
		Amount:      decimal.Zero,
		Items: []models.TransactionItem{{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Quantity:  change,
			UnitPrice: decimal.Zero,
		}},
	}

	s.items[idx].Quantity += change
	return s.commitLocked(ctx, tx)
}

// commitLocked appends tx, persists and publishes. The in-memory commit
// stands even when persistence fails; the PersistenceError is returned
// alongside the committed transaction.
func (s *Service) commitLocked(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	s.transactions = append(s.transactions, tx)
	s.logger.Info("transaction committed",
		zap.String("id", tx.ID),
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.String()))

	var persistErr error
	if s.saver != nil {
		if err := s.saver.SaveState(ctx, s.itemsLocked(), s.transactionsLocked()); err != nil {
			s.logger.Error("ledger state not persisted, in-memory commit kept", zap.String("id", tx.ID), zap.Error(err))
			persistErr = asPersistenceError(err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTransaction(ctx, tx.Clone()); err != nil {
			s.logger.Warn("failed to publish transaction event", zap.String("id", tx.ID), zap.Error(err))
		}
	}

	return tx.Clone(), persistErr
}

func asPersistenceError(err error) error {
	var perr *repository.PersistenceError
	if errors.As(err, &perr) {
		return err
	}
	return &repository.PersistenceError{Op: "save", Key: "state", Err: err}
}

func (s *Service) itemsLocked() []models.InventoryItem {
	out := make([]models.InventoryItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Service) transactionsLocked() []models.Transaction {
	out := make([]models.Transaction, len(s.transactions))
	for i, tx := range s.transactions {
		out[i] = tx.Clone()
	}
	return out
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}
