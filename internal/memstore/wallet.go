// Package memstore holds process-local implementations of the repositories.
// They back the "memory" database driver used for local runs and tests and
// enforce the same unique keys as the PostgreSQL schema.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"referral_wallet/internal/wallet"
)

type WalletStore struct {
	mu      sync.Mutex
	wallets map[string]*wallet.Wallet
	txs     []wallet.Transaction
	refs    map[string]struct{}
	events  map[string]*wallet.DepositEvent
	// FailCredits makes the next n Credit calls return ErrOptimisticLock.
	FailCredits int
}

func NewWalletStore() *WalletStore {
	return &WalletStore{
		wallets: make(map[string]*wallet.Wallet),
		refs:    make(map[string]struct{}),
		events:  make(map[string]*wallet.DepositEvent),
	}
}

func (s *WalletStore) GetWallet(_ context.Context, playerID string) (*wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[playerID]
	if !ok {
		return nil, wallet.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *WalletStore) CreateWallet(_ context.Context, playerID string) (*wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wallets[playerID]; ok {
		return nil, wallet.ErrWalletExists
	}
	now := time.Now()
	w := &wallet.Wallet{
		WalletID:  uuid.NewString(),
		PlayerID:  playerID,
		Balance:   decimal.Zero,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.wallets[playerID] = w
	cp := *w
	return &cp, nil
}

func (s *WalletStore) GetTransactionByReference(_ context.Context, txType wallet.TransactionType, referenceID string) (*wallet.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txs {
		t := s.txs[i]
		if t.Type == txType && t.ReferenceID != nil && *t.ReferenceID == referenceID {
			return &t, nil
		}
	}
	return nil, nil
}

func (s *WalletStore) Credit(_ context.Context, tx *wallet.Transaction, event *wallet.DepositEvent) (*wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCredits > 0 {
		s.FailCredits--
		return nil, wallet.ErrOptimisticLock
	}
	return s.apply(tx, event, tx.Amount)
}

func (s *WalletStore) Debit(_ context.Context, tx *wallet.Transaction) (*wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[tx.PlayerID]
	if !ok {
		return nil, wallet.ErrWalletNotFound
	}
	if w.Balance.LessThan(tx.Amount) {
		return nil, wallet.ErrInsufficientFunds
	}
	return s.apply(tx, nil, tx.Amount.Neg())
}

// apply must be called with mu held.
func (s *WalletStore) apply(tx *wallet.Transaction, event *wallet.DepositEvent, delta decimal.Decimal) (*wallet.Wallet, error) {
	w, ok := s.wallets[tx.PlayerID]
	if !ok {
		return nil, wallet.ErrWalletNotFound
	}
	refKey := ""
	if tx.ReferenceID != nil {
		refKey = string(tx.Type) + "|" + *tx.ReferenceID
		if _, dup := s.refs[refKey]; dup {
			return nil, wallet.ErrDuplicateReference
		}
	}

	now := time.Now()
	tx.TransactionID = uuid.NewString()
	tx.WalletID = w.WalletID
	tx.BalanceBefore = w.Balance
	tx.BalanceAfter = w.Balance.Add(delta)
	tx.CreatedAt = now

	w.Balance = tx.BalanceAfter
	w.Version++
	w.UpdatedAt = now
	s.txs = append(s.txs, *tx)
	if refKey != "" {
		s.refs[refKey] = struct{}{}
	}

	if event != nil {
		event.DepositTransactionID = tx.TransactionID
		event.PlayerID = tx.PlayerID
		event.Amount = tx.Amount
		event.Status = wallet.DepositEventPending
		event.CreatedAt = now
		event.UpdatedAt = now
		ev := *event
		s.events[ev.DepositTransactionID] = &ev
	}

	cp := *w
	return &cp, nil
}

func (s *WalletStore) ListTransactions(_ context.Context, playerID string) ([]wallet.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wallet.Transaction, 0)
	// walk backwards so equal timestamps still come out newest first
	for i := len(s.txs) - 1; i >= 0; i-- {
		if s.txs[i].PlayerID == playerID {
			out = append(out, s.txs[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *WalletStore) ClaimPendingDepositEvents(_ context.Context, updatedBefore time.Time, limit int) ([]wallet.DepositEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wallet.DepositEvent, 0)
	for _, ev := range s.events {
		if ev.Status == wallet.DepositEventPending && !ev.UpdatedAt.After(updatedBefore) {
			out = append(out, *ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	now := time.Now()
	for _, ev := range out {
		s.events[ev.DepositTransactionID].UpdatedAt = now
	}
	return out, nil
}

func (s *WalletStore) MarkDepositEventProcessed(_ context.Context, depositTransactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev, ok := s.events[depositTransactionID]; ok {
		ev.Status = wallet.DepositEventProcessed
		ev.Attempts++
		ev.LastError = ""
		ev.UpdatedAt = time.Now()
	}
	return nil
}

func (s *WalletStore) RecordDepositEventFailure(_ context.Context, depositTransactionID string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev, ok := s.events[depositTransactionID]; ok {
		ev.Attempts++
		ev.LastError = reason
		ev.UpdatedAt = time.Now()
	}
	return nil
}

// DepositEvent returns a copy of the stored event, for inspection.
func (s *WalletStore) DepositEvent(depositTransactionID string) (wallet.DepositEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[depositTransactionID]
	if !ok {
		return wallet.DepositEvent{}, false
	}
	return *ev, true
}
