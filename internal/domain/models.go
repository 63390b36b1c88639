package domain

import "time"

// TxDirection is the on-chain direction of a raw wallet transaction, as
// received from the wallet API.
type TxDirection string

const (
	TxSent     TxDirection = "SENT"
	TxReceived TxDirection = "RECEIVED"
)

// RawTransaction is a wallet ledger row exactly as the wallet API returned
// it. Rows are immutable; reconciliation never rewrites them.
type RawTransaction struct {
	Direction    TxDirection `json:"type"`
	AmountSats   int64       `json:"amount_sats"`
	Counterparty string      `json:"counterparty,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
	BlockHeight  int64       `json:"block_height"`
}

// LogicalTransaction is a user-facing transaction after fee-pair merging:
// one per block height, optionally carrying the fee that was deducted in a
// sibling SENT row.
type LogicalTransaction struct {
	RawTransaction
	FeeSats int64 `json:"fee_sats,omitempty"`
}

// TxKind is the presentation classification of a logical transaction. It is
// derived, never stored.
type TxKind string

const (
	TxKindSent     TxKind = "SENT"
	TxKindReceived TxKind = "RECEIVED"
	TxKindWithdraw TxKind = "WITHDRAW"
	TxKindDeposit  TxKind = "DEPOSIT"
)

// Kind classifies the transaction: rows without a counterparty are the
// merchant moving funds to or from their own wallet.
func (t LogicalTransaction) Kind() TxKind {
	switch {
	case t.Direction == TxSent && t.Counterparty == "":
		return TxKindWithdraw
	case t.Direction == TxReceived && t.Counterparty == "":
		return TxKindDeposit
	case t.Direction == TxReceived:
		return TxKindReceived
	default:
		return TxKindSent
	}
}

type StockEntryType string

const (
	StockIn  StockEntryType = "IN"
	StockOut StockEntryType = "OUT"
)

// PurchaseDetail records cost information on an IN stock entry.
type PurchaseDetail struct {
	CostCents int64  `json:"cost_cents"`
	Invoice   string `json:"invoice,omitempty"`
}

// SaleDetail records price information on an OUT stock entry.
type SaleDetail struct {
	PriceCents int64  `json:"price_cents"`
	Receipt    string `json:"receipt,omitempty"`
}

// StockEntry is one append-only movement in an item's stock history.
// Entries are never mutated or deleted once appended.
type StockEntry struct {
	ID       string          `json:"id"`
	Type     StockEntryType  `json:"type"`
	Qty      int             `json:"qty"`
	Date     time.Time       `json:"date"`
	Reason   string          `json:"reason"`
	Purchase *PurchaseDetail `json:"purchase,omitempty"`
	Sale     *SaleDetail     `json:"sale,omitempty"`
}

// InventoryItem is a merchant stock item. Quantity is a cached value; the
// stock history is the source of truth and the two must always agree.
type InventoryItem struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	SKU               string       `json:"sku"`
	PurchaseCostCents int64        `json:"purchase_cost_cents"`
	SellingPriceCents int64        `json:"selling_price_cents"`
	Quantity          int          `json:"quantity"`
	LowStockThreshold int          `json:"low_stock_threshold"`
	StockHistory      []StockEntry `json:"stock_history"`
	CreatedAt         time.Time    `json:"created_at"`
	LastUpdated       time.Time    `json:"last_updated"`
}

// ItemDraft is the input for creating an inventory item.
type ItemDraft struct {
	Name              string `json:"name"`
	SKU               string `json:"sku"`
	PurchaseCostCents int64  `json:"purchase_cost_cents"`
	SellingPriceCents int64  `json:"selling_price_cents"`
	Quantity          int    `json:"quantity"`
	LowStockThreshold *int   `json:"low_stock_threshold,omitempty"`
}

// SaleLine is one line of a sale debit against inventory.
type SaleLine struct {
	ItemID     string `json:"item_id"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"price_cents"`
}

// CartItem is a cart line. SellingPriceCents is a snapshot taken when the
// item entered the cart, so a later price change cannot alter an open cart.
type CartItem struct {
	ItemID            string `json:"item_id"`
	Name              string `json:"name"`
	SellingPriceCents int64  `json:"selling_price_cents"`
	Qty               int    `json:"qty"`
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Customer is the resolved identity of a paying customer, looked up from the
// users service before a payment request is sent.
type Customer struct {
	PhoneNumber string `json:"phone_number"`
	Username    string `json:"username,omitempty"`
	PublicKey   string `json:"public_key"`
}

// Settlement records when and by whom a purchase was settled.
type Settlement struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
}

// PurchaseRecord is one entry in the merchant's purchase history.
// PurchaseID is the external correlation key linking the record to the push
// notification that eventually settles it. TotalCents is frozen at creation.
type PurchaseRecord struct {
	ID            string        `json:"id"`
	PurchaseID    string        `json:"purchase_id"`
	Items         []CartItem    `json:"items"`
	TotalCents    int64         `json:"total_cents"`
	Timestamp     time.Time     `json:"timestamp"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Customer      *Customer     `json:"customer,omitempty"`
	Settlement    *Settlement   `json:"settlement,omitempty"`
}

// Merchant is the authenticated merchant identity supplied by the identity
// collaborator on every request.
type Merchant struct {
	AccountID     string
	Username      string
	PublicKey     string
	PhoneNumber   string
	WalletAddress string
}

// PaymentCompleteEvent is the payload of a "payment-complete" push event.
type PaymentCompleteEvent struct {
	UserID      string `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
	PurchaseID  string `json:"purchase_id"`
}

// PaymentErrorEvent is the payload of a "payment-error" push event.
type PaymentErrorEvent struct {
	UserID     string `json:"user_id,omitempty"`
	PurchaseID string `json:"purchase_id"`
}
