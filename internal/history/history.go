// Package history persists one merchant's purchase records, newest first,
// capped at the most recent records. Every mutation is a single atomic
// load-modify-save of the full snapshot.
package history

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"warungpay/backend/internal/domain"
	"warungpay/backend/internal/store"
)

// MaxRecords is the history cap; the oldest record is evicted silently when
// an append overflows it.
const MaxRecords = 100

type Store struct {
	mu    sync.Mutex
	snaps store.Snapshots
	key   string
}

func NewStore(snaps store.Snapshots, key string) *Store {
	return &Store{snaps: snaps, key: key}
}

func (s *Store) load(ctx context.Context) ([]domain.PurchaseRecord, error) {
	records := make([]domain.PurchaseRecord, 0)
	if err := s.snaps.Load(ctx, s.key, &records); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return records, nil
		}
		return nil, err
	}
	return records, nil
}

// Append prepends the record and evicts past the cap.
func (s *Store) Append(ctx context.Context, record domain.PurchaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return err
	}
	records = append([]domain.PurchaseRecord{record}, records...)
	if len(records) > MaxRecords {
		records = records[:MaxRecords]
	}
	return s.snaps.Save(ctx, s.key, records)
}

// UpdateStatus resolves the record matching purchaseID. The transition is
// applied only while the record is still pending; the boolean reports
// whether it was. A resolved or unknown record leaves the store untouched.
func (s *Store) UpdateStatus(ctx context.Context, purchaseID string, status domain.PaymentStatus, settlement *domain.Settlement) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	for i := range records {
		if records[i].PurchaseID != purchaseID {
			continue
		}
		if records[i].PaymentStatus != domain.PaymentPending {
			return false, nil
		}
		records[i].PaymentStatus = status
		records[i].Settlement = settlement
		return true, s.snaps.Save(ctx, s.key, records)
	}
	return false, nil
}

// Remove deletes the record with the given id. Used by undo.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].ID == id {
			records = append(records[:i], records[i+1:]...)
			return s.snaps.Save(ctx, s.key, records)
		}
	}
	return fmt.Errorf("%w: purchase record %s", domain.ErrNotFound, id)
}

// Get finds a record by its id or its external purchase id.
func (s *Store) Get(ctx context.Context, id string) (domain.PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return domain.PurchaseRecord{}, err
	}
	for _, r := range records {
		if r.ID == id || r.PurchaseID == id {
			return r, nil
		}
	}
	return domain.PurchaseRecord{}, fmt.Errorf("%w: purchase record %s", domain.ErrNotFound, id)
}

// List returns the records, newest first.
func (s *Store) List(ctx context.Context) ([]domain.PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}
