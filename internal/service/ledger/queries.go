package ledger

import (
	"strings"

	"github.com/mamadbah2/shopledger/internal/domain/models"
	"github.com/mamadbah2/shopledger/internal/service/reporting"
)

// Inventory returns a snapshot of every item in creation order.
func (s *Service) Inventory() []models.InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemsLocked()
}

// Item returns the item with the given id.
func (s *Service) Item(id string) (models.InventoryItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.index[id]
	if !ok {
		return models.InventoryItem{}, false
	}
	return s.items[idx], true
}

// FindItem resolves ref as an item id first, then as a case-insensitive item
// name. An ambiguous name is rejected.
func (s *Service) FindItem(ref string) (models.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref = strings.TrimSpace(ref)
	if idx, ok := s.index[ref]; ok {
		return s.items[idx], nil
	}

	var matches []models.InventoryItem
	for _, item := range s.items {
		if strings.EqualFold(item.Name, ref) {
			matches = append(matches, item)
		}
	}
	switch len(matches) {
	case 0:
		return models.InventoryItem{}, invalid("item", ErrItemNotFound, "item %q not found", ref)
	case 1:
		return matches[0], nil
	default:
		return models.InventoryItem{}, invalid("item", ErrItemNotFound, "%d items are named %q, use the item id", len(matches), ref)
	}
}

// Transactions returns the whole log, newest first.
func (s *Service) Transactions() []models.Transaction {
	return s.FilteredTransactions(models.DateRange{})
}

// FilteredTransactions returns the transactions inside r, newest first.
func (s *Service) FilteredTransactions(r models.DateRange) []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := reporting.Filter(s.transactions, r)
	out := make([]models.Transaction, len(filtered))
	for i, tx := range filtered {
		out[len(filtered)-1-i] = tx.Clone()
	}
	return out
}

// Summary computes the financial summary of the transactions inside r. It
// reads only the transaction log.
func (s *Service) Summary(r models.DateRange) models.FinancialSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reporting.Compute(s.transactions, r)
}
