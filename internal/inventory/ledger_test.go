package inventory

import (
	"context"
	"errors"
	"testing"

	"warungpay/backend/internal/domain"
	"warungpay/backend/internal/store/memory"
)

func newTestLedger() *Ledger {
	return NewLedger(memory.New(), "inventory:test")
}

func mustAdd(t *testing.T, l *Ledger, name string, priceCents int64, qty int) domain.InventoryItem {
	t.Helper()
	item, err := l.AddItem(context.Background(), domain.ItemDraft{
		Name:              name,
		SKU:               "SKU-" + name,
		PurchaseCostCents: 500,
		SellingPriceCents: priceCents,
		Quantity:          qty,
	})
	if err != nil {
		t.Fatalf("add item %s: %v", name, err)
	}
	return item
}

func assertInvariant(t *testing.T, item domain.InventoryItem) {
	t.Helper()
	if got := quantityFromHistory(item.StockHistory); got != item.Quantity {
		t.Fatalf("quantity %d does not match history fold %d for %s", item.Quantity, got, item.ID)
	}
	if item.Quantity < 0 {
		t.Fatalf("quantity went negative for %s", item.ID)
	}
}

func TestAddItemValidation(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()

	cases := []domain.ItemDraft{
		{Name: "", SKU: "S", PurchaseCostCents: 1, SellingPriceCents: 1, Quantity: 1},
		{Name: "A", SKU: "", PurchaseCostCents: 1, SellingPriceCents: 1, Quantity: 1},
		{Name: "A", SKU: "S", PurchaseCostCents: 0, SellingPriceCents: 1, Quantity: 1},
		{Name: "A", SKU: "S", PurchaseCostCents: 1, SellingPriceCents: 0, Quantity: 1},
		{Name: "A", SKU: "S", PurchaseCostCents: 1, SellingPriceCents: 1, Quantity: 0},
	}
	for i, draft := range cases {
		if _, err := ledger.AddItem(ctx, draft); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}

	if items, err := ledger.List(ctx); err != nil || len(items) != 0 {
		t.Fatalf("rejected drafts must not mutate state: items=%v err=%v", items, err)
	}
}

func TestAddItemCreatesInitialStockEntry(t *testing.T) {
	ledger := newTestLedger()
	item := mustAdd(t, ledger, "Kopi", 2600, 12)

	if item.Quantity != 12 {
		t.Fatalf("expected quantity 12, got %d", item.Quantity)
	}
	if item.LowStockThreshold != 10 {
		t.Fatalf("expected default threshold 10, got %d", item.LowStockThreshold)
	}
	if len(item.StockHistory) != 1 {
		t.Fatalf("expected exactly one history entry, got %d", len(item.StockHistory))
	}
	entry := item.StockHistory[0]
	if entry.Type != domain.StockIn || entry.Reason != "Initial stock" {
		t.Fatalf("unexpected initial entry: %+v", entry)
	}
	if entry.Purchase == nil || entry.Purchase.CostCents != 500 {
		t.Fatalf("initial entry should carry the purchase cost: %+v", entry.Purchase)
	}
	assertInvariant(t, item)
}

func TestRestock(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()
	item := mustAdd(t, ledger, "Teh", 9800, 3)

	if _, err := ledger.Restock(ctx, item.ID, 0); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}
	if _, err := ledger.Restock(ctx, "missing", 5); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unknown item, got %v", err)
	}

	updated, err := ledger.Restock(ctx, item.ID, 7)
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if updated.Quantity != 10 {
		t.Fatalf("expected quantity 10, got %d", updated.Quantity)
	}
	last := updated.StockHistory[len(updated.StockHistory)-1]
	if last.Type != domain.StockIn || last.Reason != "Restock" || last.Qty != 7 {
		t.Fatalf("unexpected restock entry: %+v", last)
	}
	assertInvariant(t, updated)
}

func TestDebitForSaleIsAllOrNothing(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()
	a := mustAdd(t, ledger, "A", 100, 5)
	b := mustAdd(t, ledger, "B", 200, 1)

	err := ledger.DebitForSale(ctx, []domain.SaleLine{
		{ItemID: a.ID, Qty: 2, PriceCents: 100},
		{ItemID: b.ID, Qty: 3, PriceCents: 200},
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	// Neither item may have been touched.
	for _, id := range []string{a.ID, b.ID} {
		item, err := ledger.Get(ctx, id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if len(item.StockHistory) != 1 {
			t.Fatalf("failed debit must not append history, got %d entries", len(item.StockHistory))
		}
		assertInvariant(t, item)
	}
}

func TestDebitForSaleAppendsOutEntries(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()
	item := mustAdd(t, ledger, "A", 100, 5)

	if err := ledger.DebitForSale(ctx, []domain.SaleLine{{ItemID: item.ID, Qty: 2, PriceCents: 100}}); err != nil {
		t.Fatalf("debit: %v", err)
	}

	updated, err := ledger.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if updated.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", updated.Quantity)
	}
	last := updated.StockHistory[len(updated.StockHistory)-1]
	if last.Type != domain.StockOut || last.Qty != 2 {
		t.Fatalf("unexpected sale entry: %+v", last)
	}
	if last.Sale == nil || last.Sale.PriceCents != 100 || last.Sale.Receipt == "" {
		t.Fatalf("sale entry missing price or receipt: %+v", last.Sale)
	}
	assertInvariant(t, updated)
}

func TestUndoSaleRestoresQuantity(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()
	item := mustAdd(t, ledger, "A", 100, 5)

	lines := []domain.SaleLine{{ItemID: item.ID, Qty: 4, PriceCents: 100}}
	if err := ledger.DebitForSale(ctx, lines); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if err := ledger.UndoSale(ctx, []domain.CartItem{{ItemID: item.ID, Qty: 4, SellingPriceCents: 100}}); err != nil {
		t.Fatalf("undo: %v", err)
	}

	updated, err := ledger.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if updated.Quantity != 5 {
		t.Fatalf("expected quantity restored to 5, got %d", updated.Quantity)
	}
	last := updated.StockHistory[len(updated.StockHistory)-1]
	if last.Type != domain.StockIn || last.Reason != "Undo" {
		t.Fatalf("unexpected undo entry: %+v", last)
	}
	// History is append-only: the OUT entry is still there.
	if len(updated.StockHistory) != 3 {
		t.Fatalf("expected 3 history entries (in, out, undo), got %d", len(updated.StockHistory))
	}
	assertInvariant(t, updated)
}

func TestInvariantHoldsAcrossOperationSequence(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()
	item := mustAdd(t, ledger, "A", 150, 10)

	steps := []func() error{
		func() error { _, err := ledger.Restock(ctx, item.ID, 5); return err },
		func() error {
			return ledger.DebitForSale(ctx, []domain.SaleLine{{ItemID: item.ID, Qty: 8, PriceCents: 150}})
		},
		func() error { return ledger.UndoSale(ctx, []domain.CartItem{{ItemID: item.ID, Qty: 8}}) },
		func() error {
			return ledger.DebitForSale(ctx, []domain.SaleLine{{ItemID: item.ID, Qty: 15, PriceCents: 150}})
		},
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		current, err := ledger.Get(ctx, item.ID)
		if err != nil {
			t.Fatalf("step %d get: %v", i, err)
		}
		assertInvariant(t, current)
	}

	final, _ := ledger.Get(ctx, item.ID)
	if final.Quantity != 0 {
		t.Fatalf("expected final quantity 0, got %d", final.Quantity)
	}
}

func TestLowStock(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()
	low := 3
	_, err := ledger.AddItem(ctx, domain.ItemDraft{
		Name: "Scarce", SKU: "SC", PurchaseCostCents: 1, SellingPriceCents: 2,
		Quantity: 2, LowStockThreshold: &low,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	mustAdd(t, ledger, "Plenty", 100, 50)

	items, err := ledger.LowStock(ctx)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Scarce" {
		t.Fatalf("expected only Scarce to be low, got %+v", items)
	}
}
