// Package repository persists the ledger state. Each entity collection is
// stored independently under its own key of a key-value backend so a corrupt
// collection never prevents the other one from loading.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/mamadbah2/shopledger/internal/domain/models"
)

const (
	// InventoryKey stores the inventory item collection.
	InventoryKey = "inventoryItems"
	// TransactionsKey stores the transaction log.
	TransactionsKey = "transactions"
)

// ErrKeyNotFound is returned by backends when a key has never been written.
var ErrKeyNotFound = errors.New("repository: key not found")

// KeyValueStore is the durable storage collaborator behind the gateway.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close(ctx context.Context) error
}

// State is the full persisted ledger: both entity collections.
type State struct {
	Items        []models.InventoryItem
	Transactions []models.Transaction
}

// PersistenceError reports a failure to read or write the durable store.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Gateway loads and saves State through a KeyValueStore.
type Gateway struct {
	store  KeyValueStore
	logger *zap.Logger
}

// NewGateway wires a gateway over the given backend.
func NewGateway(store KeyValueStore, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{store: store, logger: logger}
}

// LoadState reads both collections. Any failure for one collection degrades
// to an empty collection for that one only; the error is logged, never returned.
func (g *Gateway) LoadState(ctx context.Context) State {
	var state State

	items, err := loadCollection[models.InventoryItem](ctx, g.store, InventoryKey)
	if err != nil {
		g.logLoadFailure(InventoryKey, err)
		items = []models.InventoryItem{}
	}
	state.Items = items

	txs, err := loadCollection[models.Transaction](ctx, g.store, TransactionsKey)
	if err != nil {
		g.logLoadFailure(TransactionsKey, err)
		txs = []models.Transaction{}
	}
	// Older snapshots were written newest-first; the ledger wants insertion order.
	slices.SortStableFunc(txs, func(a, b models.Transaction) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	state.Transactions = txs

	g.logger.Info("ledger state loaded",
		zap.Int("items", len(state.Items)),
		zap.Int("transactions", len(state.Transactions)))
	return state
}

// SaveState writes both collections in full. Both writes are attempted even
// when the first one fails; the first failure is returned.
func (g *Gateway) SaveState(ctx context.Context, items []models.InventoryItem, transactions []models.Transaction) error {
	if items == nil {
		items = []models.InventoryItem{}
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	errItems := saveCollection(ctx, g.store, InventoryKey, items)
	errTxs := saveCollection(ctx, g.store, TransactionsKey, transactions)

	for _, err := range []error{errItems, errTxs} {
		if err != nil {
			g.logger.Error("failed to persist ledger state", zap.Error(err))
			return err
		}
	}

	g.logger.Debug("ledger state persisted",
		zap.Int("items", len(items)),
		zap.Int("transactions", len(transactions)))
	return nil
}

// Close releases the underlying backend.
func (g *Gateway) Close(ctx context.Context) error {
	return g.store.Close(ctx)
}

func (g *Gateway) logLoadFailure(key string, err error) {
	if errors.Is(err, ErrKeyNotFound) {
		g.logger.Info("no stored collection, starting empty", zap.String("key", key))
		return
	}
	g.logger.Warn("failed to load collection, starting empty", zap.String("key", key), zap.Error(err))
}

func loadCollection[T any](ctx context.Context, store KeyValueStore, key string) ([]T, error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Key: key, Err: err}
	}

	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &PersistenceError{Op: "decode", Key: key, Err: err}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func saveCollection[T any](ctx context.Context, store KeyValueStore, key string, values []T) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return &PersistenceError{Op: "encode", Key: key, Err: err}
	}
	if err := store.Put(ctx, key, raw); err != nil {
		return &PersistenceError{Op: "save", Key: key, Err: err}
	}
	return nil
}
