// Package payment coordinates the point-of-sale payment lifecycle: cart →
// remote payment request → push-delivered settlement → inventory debit, with
// manual undo as the only escape hatch. Records move Pending → Completed or
// Failed exactly once; duplicate or unknown notifications are no-ops.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"warungpay/backend/internal/cart"
	"warungpay/backend/internal/domain"
	"warungpay/backend/internal/history"
	"warungpay/backend/internal/inventory"
	"warungpay/backend/internal/realtime"
	"warungpay/backend/internal/xid"
)

// CustomerLookup resolves a customer's full identity before any side effect.
type CustomerLookup interface {
	LookupCustomer(ctx context.Context, token, phoneOrUsername string) (domain.Customer, error)
}

// RequestSender submits the asynchronous payment request to the counterparty.
type RequestSender interface {
	SendPaymentRequest(ctx context.Context, token string, customer domain.Customer, merchant domain.Merchant, amountCents int64, purchaseID string) error
}

// Coordinator drives one merchant's payment lifecycle. A single mutex
// serializes every operation touching the merchant's cart, history and
// inventory, which is what makes the debit-on-completion at most once.
type Coordinator struct {
	mu        sync.Mutex
	merchant  domain.Merchant
	cart      *cart.Manager
	inventory *inventory.Ledger
	history   *history.Store
	users     CustomerLookup
	pay       RequestSender
}

func NewCoordinator(merchant domain.Merchant, c *cart.Manager, inv *inventory.Ledger, hist *history.Store, users CustomerLookup, pay RequestSender) *Coordinator {
	return &Coordinator{
		merchant:  merchant,
		cart:      c,
		inventory: inv,
		history:   hist,
		users:     users,
		pay:       pay,
	}
}

// CreateRequest resolves the customer, sends the payment request and, only
// after the remote acknowledges it, persists a pending record and clears the
// cart. Any failure before that point leaves cart and history untouched, so
// the whole call is safely retryable.
func (c *Coordinator) CreateRequest(ctx context.Context, token, customerRef string) (domain.PurchaseRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	customer, err := c.users.LookupCustomer(ctx, token, customerRef)
	if err != nil {
		return domain.PurchaseRecord{}, err
	}

	items := c.cart.Items()
	if len(items) == 0 {
		return domain.PurchaseRecord{}, fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	}
	total := c.cart.Total()
	purchaseID := uuid.NewString()

	if err := c.pay.SendPaymentRequest(ctx, token, customer, c.merchant, total, purchaseID); err != nil {
		return domain.PurchaseRecord{}, err
	}

	record := domain.PurchaseRecord{
		ID:            xid.New("pur"),
		PurchaseID:    purchaseID,
		Items:         items,
		TotalCents:    total,
		Timestamp:     time.Now().UTC(),
		PaymentStatus: domain.PaymentPending,
		Customer:      &customer,
	}
	if err := c.history.Append(ctx, record); err != nil {
		// The request is already out; without a persisted record the
		// eventual notification will be ignored, so keep the cart intact
		// and surface the failure.
		return domain.PurchaseRecord{}, err
	}

	c.cart.Clear()
	return record, nil
}

// HandleComplete settles a pending purchase. The record is resolved by
// purchase id in the persisted store, never from cart state, because the
// notification may arrive long after the cart was cleared. Unknown or
// already-resolved purchase ids are no-ops.
func (c *Coordinator) HandleComplete(ctx context.Context, evt domain.PaymentCompleteEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	record, err := c.history.Get(ctx, evt.PurchaseID)
	if err != nil {
		// Unknown purchase ids are expected (records evicted or undone);
		// anything else is a real failure and must surface.
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if record.PaymentStatus != domain.PaymentPending {
		return nil
	}

	if evt.Status != "success" {
		_, err := c.history.UpdateStatus(ctx, evt.PurchaseID, domain.PaymentFailed, nil)
		return err
	}

	lines := make([]domain.SaleLine, 0, len(record.Items))
	for _, item := range record.Items {
		lines = append(lines, domain.SaleLine{ItemID: item.ItemID, Qty: item.Qty, PriceCents: item.SellingPriceCents})
	}
	// Debit before the status flip: if the debit fails the record stays
	// pending and a later delivery may retry, so the stock is still never
	// debited more than once.
	if err := c.inventory.DebitForSale(ctx, lines); err != nil {
		return err
	}

	settlement := &domain.Settlement{Timestamp: time.Now().UTC(), UserID: evt.UserID}
	if _, err := c.history.UpdateStatus(ctx, evt.PurchaseID, domain.PaymentCompleted, settlement); err != nil {
		// The stock is already debited but the record is still pending; a
		// redelivered notification would debit again. Make the half-settled
		// state loud so an operator can reconcile it.
		log.Printf("[payment] WARN: stock debited for %s but status write failed, record still pending: %v", evt.PurchaseID, err)
		return err
	}
	return nil
}

// HandleError fails a pending purchase without touching inventory.
func (c *Coordinator) HandleError(ctx context.Context, evt domain.PaymentErrorEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.history.UpdateStatus(ctx, evt.PurchaseID, domain.PaymentFailed, nil)
	return err
}

// Undo removes a purchase record, compensating inventory first when the
// purchase had already settled. Removal is what makes a second undo
// impossible. This is local only; the counterparty is not notified.
func (c *Coordinator) Undo(ctx context.Context, recordID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	record, err := c.history.Get(ctx, recordID)
	if err != nil {
		return err
	}
	if record.PaymentStatus == domain.PaymentCompleted {
		if err := c.inventory.UndoSale(ctx, record.Items); err != nil {
			return err
		}
	}
	return c.history.Remove(ctx, record.ID)
}

// Listen subscribes the coordinator to the push channel. The returned stop
// function cancels both subscriptions.
func (c *Coordinator) Listen(bus *realtime.Bus) func() {
	completeCh, cancelComplete := bus.Subscribe(realtime.EventPaymentComplete)
	errorCh, cancelError := bus.Subscribe(realtime.EventPaymentError)

	go func() {
		for evt := range completeCh {
			var payload domain.PaymentCompleteEvent
			if err := json.Unmarshal(evt.Data, &payload); err != nil {
				log.Printf("[payment] WARN: bad payment-complete payload: %v", err)
				continue
			}
			if err := c.HandleComplete(context.Background(), payload); err != nil {
				log.Printf("[payment] WARN: settle %s: %v", payload.PurchaseID, err)
			}
		}
	}()
	go func() {
		for evt := range errorCh {
			var payload domain.PaymentErrorEvent
			if err := json.Unmarshal(evt.Data, &payload); err != nil {
				log.Printf("[payment] WARN: bad payment-error payload: %v", err)
				continue
			}
			if err := c.HandleError(context.Background(), payload); err != nil {
				log.Printf("[payment] WARN: fail %s: %v", payload.PurchaseID, err)
			}
		}
	}()

	return func() {
		cancelComplete()
		cancelError()
	}
}
