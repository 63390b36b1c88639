// Package wallet serves the reconciled view of a merchant's on-chain ledger.
// Reads go remote-first; a failed pull degrades to the last-known cached
// list instead of failing the caller.
package wallet

import (
	"context"
	"log"
	"time"

	"warungpay/backend/internal/cache"
	"warungpay/backend/internal/domain"
	"warungpay/backend/internal/realtime"
	"warungpay/backend/internal/reconcile"
)

// LedgerFetcher pulls raw transactions for a wallet address.
type LedgerFetcher interface {
	FetchTransactions(ctx context.Context, token, address string, limit int) ([]domain.RawTransaction, error)
}

type Service struct {
	fetcher  LedgerFetcher
	txCache  cache.TransactionCache
	cacheTTL time.Duration
	limit    int
}

func NewService(fetcher LedgerFetcher, txCache cache.TransactionCache, cacheTTL time.Duration, limit int) *Service {
	if limit < 1 {
		limit = 50
	}
	return &Service{fetcher: fetcher, txCache: txCache, cacheTTL: cacheTTL, limit: limit}
}

// View is the transaction list plus whether it came from the degraded
// (cached) path.
type View struct {
	Transactions []domain.LogicalTransaction `json:"transactions"`
	Degraded     bool                        `json:"degraded"`
}

// Transactions fetches and reconciles the ledger for one address. On a
// fetch failure it falls back to the last cached list; only when there is no
// cached list either does the error propagate.
func (s *Service) Transactions(ctx context.Context, token, address string) (View, error) {
	raw, err := s.fetcher.FetchTransactions(ctx, token, address, s.limit)
	if err != nil {
		cached, ok, cacheErr := s.txCache.Get(ctx, cacheKey(address))
		if cacheErr != nil {
			log.Printf("[wallet] WARN: cache read failed for %s: %v", address, cacheErr)
		}
		if ok {
			log.Printf("[wallet] ledger pull failed (%v), serving last-known list for %s", err, address)
			return View{Transactions: cached, Degraded: true}, nil
		}
		return View{}, err
	}

	txs := reconcile.Reconcile(raw)
	if err := s.txCache.Set(ctx, cacheKey(address), txs, s.cacheTTL); err != nil {
		log.Printf("[wallet] WARN: cache write failed for %s: %v", address, err)
	}
	return View{Transactions: txs}, nil
}

// Listen invalidates the cached list whenever a payment settles, so the next
// read reflects the new on-chain rows. Returns an unsubscribe function.
func (s *Service) Listen(bus *realtime.Bus, address string) func() {
	ch, cancel := bus.Subscribe(realtime.EventPaymentComplete)
	go func() {
		for range ch {
			if err := s.txCache.Invalidate(context.Background(), cacheKey(address)); err != nil {
				log.Printf("[wallet] WARN: cache invalidate failed for %s: %v", address, err)
			}
		}
	}()
	return cancel
}

func cacheKey(address string) string {
	return "wallet:txs:" + address
}
