// Package store defines the per-merchant snapshot persistence port. Core
// logic loads a full JSON document, mutates it in memory and saves it back
// wholesale; it never talks to a database directly.
package store

import (
	"context"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"warungpay/backend/internal/domain"
)

// Snapshots persists whole JSON-serializable collections under stable keys.
// Load fills dest from the stored document and returns domain.ErrNotFound
// when no snapshot exists for the key. Save failures wrap domain.ErrStorage.
type Snapshots interface {
	Load(ctx context.Context, key string, dest any) error
	Save(ctx context.Context, key string, value any) error
}

// SnapshotKey derives the merchant's storage namespace as a content hash of
// the stable identity fields, so a renamed username or reformatted phone
// number does not strand previously saved snapshots behind a different key.
func SnapshotKey(m domain.Merchant) string {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%s\x00%s", m.AccountID, m.PublicKey)
	return hex.EncodeToString(h.Sum(nil))
}

// InventoryKey and PurchasesKey name the two documents kept per merchant.
func InventoryKey(m domain.Merchant) string { return "inventory:" + SnapshotKey(m) }
func PurchasesKey(m domain.Merchant) string { return "purchases:" + SnapshotKey(m) }
