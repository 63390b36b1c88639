// Package cart holds the single active checkout cart for one merchant,
// in memory, bounded by the inventory's current quantities.
package cart

import (
	"context"
	"fmt"
	"sync"

	"warungpay/backend/internal/domain"
)

// StockReader answers how many units of an item the inventory currently
// holds. inventory.Ledger satisfies it.
type StockReader interface {
	QuantityOf(ctx context.Context, itemID string) (int, bool)
}

type Manager struct {
	mu    sync.Mutex
	stock StockReader
	lines []domain.CartItem
}

func NewManager(stock StockReader) *Manager {
	return &Manager{stock: stock}
}

// Add puts one unit of the item in the cart. A new line starts at quantity 1
// and requires the item to be in stock; an existing line is incremented only
// while the new total stays within inventory, otherwise the cart is left
// unchanged.
func (m *Manager) Add(ctx context.Context, item domain.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	available, ok := m.stock.QuantityOf(ctx, item.ID)
	if !ok {
		return fmt.Errorf("%w: item %s", domain.ErrNotFound, item.ID)
	}

	idx := m.indexOf(item.ID)
	if idx < 0 {
		if available <= 0 {
			return fmt.Errorf("%w: %s", domain.ErrOutOfStock, item.Name)
		}
		m.lines = append(m.lines, domain.CartItem{
			ItemID:            item.ID,
			Name:              item.Name,
			SellingPriceCents: item.SellingPriceCents,
			Qty:               1,
		})
		return nil
	}

	if m.lines[idx].Qty+1 > available {
		return fmt.Errorf("%w: only %d of %s in stock", domain.ErrInsufficientStock, available, item.Name)
	}
	m.lines[idx].Qty++
	return nil
}

// Adjust changes a line's quantity by delta. A result of zero or less removes
// the line; a result above the inventory quantity is rejected, not clamped.
func (m *Manager) Adjust(ctx context.Context, itemID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(itemID)
	if idx < 0 {
		return fmt.Errorf("%w: item %s not in cart", domain.ErrNotFound, itemID)
	}

	newQty := m.lines[idx].Qty + delta
	if newQty <= 0 {
		m.lines = append(m.lines[:idx], m.lines[idx+1:]...)
		return nil
	}

	available, ok := m.stock.QuantityOf(ctx, itemID)
	if !ok {
		return fmt.Errorf("%w: item %s", domain.ErrNotFound, itemID)
	}
	if newQty > available {
		return fmt.Errorf("%w: only %d in stock", domain.ErrInsufficientStock, available)
	}
	m.lines[idx].Qty = newQty
	return nil
}

// Items returns a copy of the cart lines.
func (m *Manager) Items() []domain.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CartItem, len(m.lines))
	copy(out, m.lines)
	return out
}

// Total is always recomputed from the lines, never cached.
func (m *Manager) Total() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, line := range m.lines {
		total += line.SellingPriceCents * int64(line.Qty)
	}
	return total
}

func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = nil
}

func (m *Manager) indexOf(itemID string) int {
	for i, line := range m.lines {
		if line.ItemID == itemID {
			return i
		}
	}
	return -1
}
