// Package cache keeps the last reconciled transaction list per wallet
// address, so a failed ledger pull can degrade to the last-known view
// instead of an empty screen.
package cache

import (
	"context"
	"time"

	"warungpay/backend/internal/domain"
)

type TransactionCache interface {
	Get(ctx context.Context, key string) ([]domain.LogicalTransaction, bool, error)
	Set(ctx context.Context, key string, txs []domain.LogicalTransaction, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type NoopTransactionCache struct{}

func (NoopTransactionCache) Get(_ context.Context, _ string) ([]domain.LogicalTransaction, bool, error) {
	return nil, false, nil
}

func (NoopTransactionCache) Set(_ context.Context, _ string, _ []domain.LogicalTransaction, _ time.Duration) error {
	return nil
}

func (NoopTransactionCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
