package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/shopledger/internal/domain/models"
)

// Discrepancy describes an item whose cached quantity disagrees with the
// quantity derived from the transaction log.
type Discrepancy struct {
	ItemID   string `json:"itemId"`
	ItemName string `json:"itemName"`
	Cached   int    `json:"cached"`
	Derived  int    `json:"derived"`
	Reason   string `json:"reason"`
}

const (
	reasonMismatch    = "cached quantity differs from transaction log"
	reasonNegative    = "transaction log drives quantity below zero"
	reasonUnknownItem = "transaction references an unknown item"
)

// Verify replays the transaction log in insertion order and reports every
// inconsistency with the cached item quantities. An empty result means the
// cache is a faithful projection of the log.
func (s *Service) Verify() []Discrepancy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	derived, problems := s.replayLocked()
	for _, item := range s.items {
		if qty := derived[item.ID]; qty != item.Quantity {
			problems = append(problems, Discrepancy{
				ItemID:   item.ID,
				ItemName: item.Name,
				Cached:   item.Quantity,
				Derived:  qty,
				Reason:   reasonMismatch,
			})
		}
	}
	return problems
}

// Rebuild resets every cached quantity to the value derived from the log and
// persists the result. It returns the number of items that changed.
func (s *Service) Rebuild(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	derived, _ := s.replayLocked()
	for _, item := range s.items {
		if qty := derived[item.ID]; qty < 0 {
			return 0, fmt.Errorf("rebuild %s: derived quantity %d is negative", item.ID, qty)
		}
	}

	changed := 0
	for i, item := range s.items {
		qty := derived[item.ID]
		if qty != item.Quantity {
			s.logger.Warn("rebuilding item quantity from log",
				zap.String("item_id", item.ID),
				zap.Int("cached", item.Quantity),
				zap.Int("derived", qty))
			s.items[i].Quantity = qty
			changed++
		}
	}

	if changed == 0 || s.saver == nil {
		return changed, nil
	}
	if err := s.saver.SaveState(ctx, s.itemsLocked(), s.transactionsLocked()); err != nil {
		return changed, asPersistenceError(err)
	}
	return changed, nil
}

// StockCard lists the movements of one item in chronological order with the
// running quantity after each one. The purchase that created the item is the
// INITIAL entry.
func (s *Service) StockCard(itemID string) ([]models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.index[itemID]
	if !ok {
		return nil, invalid("itemId", ErrItemNotFound, "item %s not found", itemID)
	}
	item := s.items[idx]

	var entries []models.LedgerEntry
	running := 0
	for _, tx := range s.transactions {
		if !references(tx, itemID) {
			continue
		}
		delta := tx.QuantityDelta(itemID)
		running += delta

		entryType := models.LedgerEntryIn
		switch {
		case len(entries) == 0 && tx.Type == models.TransactionPurchase:
			entryType = models.LedgerEntryInitial
		case delta < 0:
			entryType = models.LedgerEntryOut
		}

		entries = append(entries, models.LedgerEntry{
			ID:             tx.ID,
			ItemID:         itemID,
			ItemName:       item.Name,
			Timestamp:      tx.Timestamp,
			Type:           entryType,
			QuantityChange: abs(delta),
			NewQuantity:    running,
		})
	}
	return entries, nil
}

func (s *Service) replayLocked() (map[string]int, []Discrepancy) {
	derived := make(map[string]int, len(s.items))
	flagged := make(map[string]bool)
	var problems []Discrepancy

	for _, tx := range s.transactions {
		for _, line := range tx.Items {
			if _, known := s.index[line.ItemID]; !known {
				if !flagged[line.ItemID] {
					flagged[line.ItemID] = true
					problems = append(problems, Discrepancy{
						ItemID:   line.ItemID,
						ItemName: line.ItemName,
						Reason:   reasonUnknownItem,
					})
				}
				continue
			}
			before := derived[line.ItemID]
			derived[line.ItemID] = before + tx.Type.StockSign()*line.Quantity
			if derived[line.ItemID] < 0 && before >= 0 {
				problems = append(problems, Discrepancy{
					ItemID:   line.ItemID,
					ItemName: line.ItemName,
					Cached:   s.items[s.index[line.ItemID]].Quantity,
					Derived:  derived[line.ItemID],
					Reason:   reasonNegative,
				})
			}
		}
	}
	return derived, problems
}

func references(tx models.Transaction, itemID string) bool {
	for _, line := range tx.Items {
		if line.ItemID == itemID {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
