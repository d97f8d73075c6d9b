package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"referral_wallet/internal/referral"
)

type ReferralStore struct {
	mu        sync.RWMutex
	referrals []referral.Referral
	bonuses   map[string]referral.DepositBonus
	order     []string
}

func NewReferralStore() *ReferralStore {
	return &ReferralStore{bonuses: make(map[string]referral.DepositBonus)}
}

func (s *ReferralStore) Create(_ context.Context, r *referral.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.referrals {
		if existing.ReferredID == r.ReferredID {
			return referral.ErrReferralExists
		}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	cp := *r
	cp.DepositBonuses = nil
	s.referrals = append(s.referrals, cp)
	return nil
}

func (s *ReferralStore) FindByPair(_ context.Context, referrerID string, referredID string) (*referral.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.referrals {
		if r.ReferrerID == referrerID && r.ReferredID == referredID {
			return &r, nil
		}
	}
	return nil, referral.ErrReferralNotFound
}

func (s *ReferralStore) AppendDepositBonus(_ context.Context, b *referral.DepositBonus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.bonuses[b.DepositTransactionID]; dup {
		return referral.ErrDepositBonusExists
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	s.bonuses[b.DepositTransactionID] = *b
	s.order = append(s.order, b.DepositTransactionID)
	return nil
}

func (s *ReferralStore) ListByReferrer(_ context.Context, referrerID string) ([]referral.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]referral.Referral, 0)
	for _, r := range s.referrals {
		if r.ReferrerID != referrerID {
			continue
		}
		r.DepositBonuses = s.bonusesFor(r.ID)
		out = append(out, r)
	}
	return out, nil
}

func (s *ReferralStore) Totals(_ context.Context, referrerID string) (*referral.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := &referral.Totals{DepositBonusSum: decimal.Zero}
	for _, r := range s.referrals {
		if r.ReferrerID != referrerID {
			continue
		}
		t.Referrals++
		if r.RegistrationBonus {
			t.RegistrationBonusCount++
		}
		for _, b := range s.bonusesFor(r.ID) {
			t.DepositBonusSum = t.DepositBonusSum.Add(b.Amount)
		}
	}
	return t, nil
}

// bonusesFor must be called with mu held.
func (s *ReferralStore) bonusesFor(referralID string) []referral.DepositBonus {
	out := make([]referral.DepositBonus, 0)
	for _, key := range s.order {
		if b := s.bonuses[key]; b.ReferralID == referralID {
			out = append(out, b)
		}
	}
	return out
}
