package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"referral_wallet/internal/player"
)

type PlayerStore struct {
	mu      sync.RWMutex
	players map[string]player.Player
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{players: make(map[string]player.Player)}
}

func (s *PlayerStore) Create(_ context.Context, p *player.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.players {
		if existing.ID == p.ID || existing.PhoneNumber == p.PhoneNumber || existing.ReferralCode == p.ReferralCode {
			return player.ErrPlayerExists
		}
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.players[p.ID] = *p
	return nil
}

func (s *PlayerStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	return nil
}

func (s *PlayerStore) FindByID(_ context.Context, id string) (*player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, player.ErrPlayerNotFound
	}
	return &p, nil
}

func (s *PlayerStore) FindByIDs(_ context.Context, ids []string) ([]player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]player.Player, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.players[id]; ok {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *PlayerStore) FindByReferralCode(_ context.Context, code string) (*player.Player, error) {
	return s.find(func(p player.Player) bool { return p.ReferralCode == code })
}

func (s *PlayerStore) FindByPhone(_ context.Context, phone string) (*player.Player, error) {
	return s.find(func(p player.Player) bool { return p.PhoneNumber == phone })
}

func (s *PlayerStore) find(match func(player.Player) bool) (*player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.players {
		if match(p) {
			return &p, nil
		}
	}
	return nil, player.ErrPlayerNotFound
}
