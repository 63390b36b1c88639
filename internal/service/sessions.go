// Package service wires one session per merchant: the inventory ledger,
// cart, purchase history and payment coordinator all bound to the same
// storage namespace. Memoizing sessions by that namespace keeps a single
// writer per merchant.
package service

import (
	"sync"

	"warungpay/backend/internal/cart"
	"warungpay/backend/internal/domain"
	"warungpay/backend/internal/history"
	"warungpay/backend/internal/inventory"
	"warungpay/backend/internal/payment"
	"warungpay/backend/internal/realtime"
	"warungpay/backend/internal/store"
	"warungpay/backend/internal/wallet"
)

type Session struct {
	Merchant    domain.Merchant
	Inventory   *inventory.Ledger
	Cart        *cart.Manager
	History     *history.Store
	Coordinator *payment.Coordinator

	stopListening func()
}

type Sessions struct {
	mu     sync.Mutex
	snaps  store.Snapshots
	users  payment.CustomerLookup
	pay    payment.RequestSender
	bus    *realtime.Bus
	wallet *wallet.Service
	open   map[string]*Session
}

func NewSessions(snaps store.Snapshots, users payment.CustomerLookup, pay payment.RequestSender, bus *realtime.Bus, walletSvc *wallet.Service) *Sessions {
	return &Sessions{
		snaps:  snaps,
		users:  users,
		pay:    pay,
		bus:    bus,
		wallet: walletSvc,
		open:   make(map[string]*Session),
	}
}

// Get returns the merchant's session, building and subscribing it on first
// use. Sessions live for the merchant's session lifetime; state survives in
// the snapshot store.
func (s *Sessions) Get(m domain.Merchant) *Session {
	key := store.SnapshotKey(m)

	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.open[key]; ok {
		return session
	}

	inv := inventory.NewLedger(s.snaps, store.InventoryKey(m))
	hist := history.NewStore(s.snaps, store.PurchasesKey(m))
	c := cart.NewManager(inv)
	coord := payment.NewCoordinator(m, c, inv, hist, s.users, s.pay)

	session := &Session{
		Merchant:    m,
		Inventory:   inv,
		Cart:        c,
		History:     hist,
		Coordinator: coord,
	}
	if s.bus != nil {
		stopCoord := coord.Listen(s.bus)
		var stopWallet func()
		if s.wallet != nil && m.WalletAddress != "" {
			stopWallet = s.wallet.Listen(s.bus, m.WalletAddress)
		}
		session.stopListening = func() {
			stopCoord()
			if stopWallet != nil {
				stopWallet()
			}
		}
	}
	s.open[key] = session
	return session
}

// Close unsubscribes every open session from the push channel.
func (s *Sessions) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.open {
		if session.stopListening != nil {
			session.stopListening()
		}
	}
	s.open = make(map[string]*Session)
}
