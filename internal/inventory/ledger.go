// Package inventory maintains one merchant's stock items with an append-only
// history per item. Current quantity is derived from that history; the four
// mutating operations here are the only code paths that touch it.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"warungpay/backend/internal/domain"
	"warungpay/backend/internal/store"
	"warungpay/backend/internal/xid"
)

const defaultLowStockThreshold = 10

// Ledger is the per-merchant inventory. All operations serialize on one
// mutex and read-modify-write the whole snapshot through the Snapshots port.
type Ledger struct {
	mu    sync.Mutex
	snaps store.Snapshots
	key   string
}

func NewLedger(snaps store.Snapshots, key string) *Ledger {
	return &Ledger{snaps: snaps, key: key}
}

func (l *Ledger) load(ctx context.Context) (map[string]domain.InventoryItem, error) {
	items := make(map[string]domain.InventoryItem)
	if err := l.snaps.Load(ctx, l.key, &items); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return items, nil
		}
		return nil, err
	}
	return items, nil
}

// save reports storage failures without rolling back the in-memory mutation;
// the caller already holds the updated items.
func (l *Ledger) save(ctx context.Context, items map[string]domain.InventoryItem) error {
	if err := l.snaps.Save(ctx, l.key, items); err != nil {
		log.Printf("[inventory] WARN: snapshot write failed for %s: %v", l.key, err)
		return err
	}
	return nil
}

// AddItem creates a new stock item with a synthetic "Initial stock" IN entry
// carrying the purchase cost.
func (l *Ledger) AddItem(ctx context.Context, draft domain.ItemDraft) (domain.InventoryItem, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	draft.SKU = strings.ToUpper(strings.TrimSpace(draft.SKU))
	if draft.Name == "" || draft.SKU == "" {
		return domain.InventoryItem{}, fmt.Errorf("%w: name and sku are required", domain.ErrValidation)
	}
	if draft.PurchaseCostCents <= 0 || draft.SellingPriceCents <= 0 {
		return domain.InventoryItem{}, fmt.Errorf("%w: cost and price must be positive", domain.ErrValidation)
	}
	if draft.Quantity <= 0 {
		return domain.InventoryItem{}, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}

	threshold := defaultLowStockThreshold
	if draft.LowStockThreshold != nil {
		threshold = *draft.LowStockThreshold
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.load(ctx)
	if err != nil {
		return domain.InventoryItem{}, err
	}

	now := time.Now().UTC()
	item := domain.InventoryItem{
		ID:                xid.New("item"),
		Name:              draft.Name,
		SKU:               draft.SKU,
		PurchaseCostCents: draft.PurchaseCostCents,
		SellingPriceCents: draft.SellingPriceCents,
		LowStockThreshold: threshold,
		StockHistory: []domain.StockEntry{{
			ID:       xid.New("stk"),
			Type:     domain.StockIn,
			Qty:      draft.Quantity,
			Date:     now,
			Reason:   "Initial stock",
			Purchase: &domain.PurchaseDetail{CostCents: draft.PurchaseCostCents},
		}},
		CreatedAt:   now,
		LastUpdated: now,
	}
	item.Quantity = quantityFromHistory(item.StockHistory)

	items[item.ID] = item
	if err := l.save(ctx, items); err != nil {
		return domain.InventoryItem{}, err
	}
	return item, nil
}

// Restock appends a "Restock" IN entry and raises the quantity.
func (l *Ledger) Restock(ctx context.Context, itemID string, amount int) (domain.InventoryItem, error) {
	if amount <= 0 {
		return domain.InventoryItem{}, fmt.Errorf("%w: restock amount must be positive", domain.ErrValidation)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.load(ctx)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	item, ok := items[itemID]
	if !ok {
		return domain.InventoryItem{}, fmt.Errorf("%w: item %s", domain.ErrNotFound, itemID)
	}

	now := time.Now().UTC()
	item.StockHistory = append(item.StockHistory, domain.StockEntry{
		ID:       xid.New("stk"),
		Type:     domain.StockIn,
		Qty:      amount,
		Date:     now,
		Reason:   "Restock",
		Purchase: &domain.PurchaseDetail{CostCents: item.PurchaseCostCents},
	})
	item.Quantity = quantityFromHistory(item.StockHistory)
	item.LastUpdated = now

	items[itemID] = item
	if err := l.save(ctx, items); err != nil {
		return domain.InventoryItem{}, err
	}
	return item, nil
}

// DebitForSale removes sold quantities, all-or-nothing: every line is
// re-validated against current stock before any item is touched. One OUT
// entry per line, each with the sale price and a fresh receipt id.
func (l *Ledger) DebitForSale(ctx context.Context, lines []domain.SaleLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: no sale lines", domain.ErrValidation)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.load(ctx)
	if err != nil {
		return err
	}

	for _, line := range lines {
		if line.Qty <= 0 {
			return fmt.Errorf("%w: non-positive quantity for item %s", domain.ErrValidation, line.ItemID)
		}
		item, ok := items[line.ItemID]
		if !ok {
			return fmt.Errorf("%w: item %s", domain.ErrNotFound, line.ItemID)
		}
		if line.Qty > item.Quantity {
			return fmt.Errorf("%w: item %s has %d, sale needs %d",
				domain.ErrInsufficientStock, line.ItemID, item.Quantity, line.Qty)
		}
	}

	now := time.Now().UTC()
	for _, line := range lines {
		item := items[line.ItemID]
		item.StockHistory = append(item.StockHistory, domain.StockEntry{
			ID:     xid.New("stk"),
			Type:   domain.StockOut,
			Qty:    line.Qty,
			Date:   now,
			Reason: "Sale",
			Sale:   &domain.SaleDetail{PriceCents: line.PriceCents, Receipt: xid.New("rcpt")},
		})
		item.Quantity = quantityFromHistory(item.StockHistory)
		item.LastUpdated = now
		items[line.ItemID] = item
	}

	return l.save(ctx, items)
}

// UndoSale appends a compensating "Undo" IN entry per line. The caller is
// responsible for invoking this at most once per purchase, by removing the
// purchase record in the same turn.
func (l *Ledger) UndoSale(ctx context.Context, sold []domain.CartItem) error {
	if len(sold) == 0 {
		return fmt.Errorf("%w: nothing to undo", domain.ErrValidation)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.load(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, line := range sold {
		item, ok := items[line.ItemID]
		if !ok {
			return fmt.Errorf("%w: item %s", domain.ErrNotFound, line.ItemID)
		}
		item.StockHistory = append(item.StockHistory, domain.StockEntry{
			ID:     xid.New("stk"),
			Type:   domain.StockIn,
			Qty:    line.Qty,
			Date:   now,
			Reason: "Undo",
		})
		item.Quantity = quantityFromHistory(item.StockHistory)
		item.LastUpdated = now
		items[line.ItemID] = item
	}

	return l.save(ctx, items)
}

// Get returns one item by id.
func (l *Ledger) Get(ctx context.Context, itemID string) (domain.InventoryItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.load(ctx)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	item, ok := items[itemID]
	if !ok {
		return domain.InventoryItem{}, fmt.Errorf("%w: item %s", domain.ErrNotFound, itemID)
	}
	return item, nil
}

// QuantityOf reports the current stock of an item; the second return is
// false for unknown ids. Satisfies cart.StockReader.
func (l *Ledger) QuantityOf(ctx context.Context, itemID string) (int, bool) {
	item, err := l.Get(ctx, itemID)
	if err != nil {
		return 0, false
	}
	return item.Quantity, true
}

// List returns all items sorted by name for stable presentation.
func (l *Ledger) List(ctx context.Context) ([]domain.InventoryItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.InventoryItem, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// LowStock returns items at or below their low-stock threshold.
func (l *Ledger) LowStock(ctx context.Context) ([]domain.InventoryItem, error) {
	all, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]domain.InventoryItem, 0)
	for _, item := range all {
		if item.Quantity <= item.LowStockThreshold {
			low = append(low, item)
		}
	}
	return low, nil
}

// quantityFromHistory folds the append-only history into the current
// quantity: sum of IN minus sum of OUT.
func quantityFromHistory(history []domain.StockEntry) int {
	qty := 0
	for _, e := range history {
		switch e.Type {
		case domain.StockIn:
			qty += e.Qty
		case domain.StockOut:
			qty -= e.Qty
		}
	}
	return qty
}
