package player_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral_wallet/internal/apperr"
	"referral_wallet/internal/memstore"
	"referral_wallet/internal/player"
	"referral_wallet/internal/wallet"
)

func seedPlayer(t *testing.T, store *memstore.PlayerStore, id string) *player.Player {
	t.Helper()
	p := &player.Player{
		ID:           id,
		Name:         "Player " + id,
		PhoneNumber:  "+1555" + id[5:],
		PasswordHash: "x",
		ReferralCode: player.ReferralCodeFor(id),
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, store.Create(context.Background(), p))
	return p
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	players := memstore.NewPlayerStore()
	wallets := memstore.NewWalletStore()
	seedPlayer(t, players, "abcde00001")

	_, err := wallets.CreateWallet(ctx, "abcde00001")
	require.NoError(t, err)
	_, err = wallets.Credit(ctx, &wallet.Transaction{PlayerID: "abcde00001", Type: wallet.TypeDeposit, Amount: decimal.NewFromInt(750)}, nil)
	require.NoError(t, err)

	svc := player.NewService(players, wallets)
	profile, err := svc.GetProfile(ctx, "abcde00001")
	require.NoError(t, err)
	assert.Equal(t, "abcde00001", profile.ID)
	assert.Equal(t, "REF-abcde00001", profile.ReferralCode)
	assert.True(t, profile.Balance.Equal(decimal.NewFromInt(750)))
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), profile.RegisteredAt)
}

func TestGetProfileWithoutWalletReportsZero(t *testing.T) {
	players := memstore.NewPlayerStore()
	seedPlayer(t, players, "abcde00002")

	svc := player.NewService(players, memstore.NewWalletStore())
	profile, err := svc.GetProfile(context.Background(), "abcde00002")
	require.NoError(t, err)
	assert.True(t, profile.Balance.IsZero())
}

func TestGetProfileUnknownPlayer(t *testing.T) {
	svc := player.NewService(memstore.NewPlayerStore(), memstore.NewWalletStore())

	_, err := svc.GetProfile(context.Background(), "nobody0000")
	assert.ErrorIs(t, err, player.ErrPlayerNotFound)
	assert.True(t, apperr.IsNotFound(err))
}
