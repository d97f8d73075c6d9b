package player

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"referral_wallet/internal/wallet"
)

type WalletReader interface {
	GetWallet(ctx context.Context, playerID string) (*wallet.Wallet, error)
}

type Service struct {
	repo    PlayerRepository
	wallets WalletReader
}

func NewService(repo PlayerRepository, wallets WalletReader) *Service {
	return &Service{repo: repo, wallets: wallets}
}

// GetProfile reports a zero balance for a player whose wallet is missing.
func (s *Service) GetProfile(ctx context.Context, playerID string) (*Profile, error) {
	p, err := s.repo.FindByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	balance := decimal.Zero
	w, err := s.wallets.GetWallet(ctx, playerID)
	switch {
	case err == nil:
		balance = w.Balance
	case errors.Is(err, wallet.ErrWalletNotFound):
	default:
		return nil, err
	}

	return &Profile{
		ID:           p.ID,
		Name:         p.Name,
		PhoneNumber:  p.PhoneNumber,
		ReferralCode: p.ReferralCode,
		Balance:      balance,
		RegisteredAt: p.CreatedAt,
	}, nil
}
