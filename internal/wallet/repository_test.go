package wallet_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral_wallet/internal/config"
	"referral_wallet/internal/database/dbtest"
	"referral_wallet/internal/player"
	"referral_wallet/internal/wallet"
)

func setUpWallet(t *testing.T, repo wallet.WalletRepository, balance decimal.Decimal) string {
	t.Helper()
	playerID, err := player.NewID()
	require.NoError(t, err)

	_, err = repo.CreateWallet(context.Background(), playerID)
	require.NoError(t, err)
	if balance.IsPositive() {
		_, err = repo.Credit(context.Background(), &wallet.Transaction{
			PlayerID: playerID,
			Type:     wallet.TypeDeposit,
			Amount:   balance,
		}, nil)
		require.NoError(t, err)
	}
	return playerID
}

func TestRepositoryConcurrentDebits(t *testing.T) {
	db := dbtest.Open(t)
	repo := wallet.NewWalletRepositoryImpl(db)
	policy := config.DefaultWalletPolicy()
	policy.MaxRetries = 20
	svc := wallet.NewService(repo, policy, zerolog.Nop(), nil)
	playerID := setUpWallet(t, repo, decimal.NewFromInt(50))

	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount, failCount := 0, 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Withdraw(context.Background(), playerID, decimal.NewFromInt(10))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failCount++
				return
			}
			successCount++
		}()
	}
	wg.Wait()

	w, err := repo.GetWallet(context.Background(), playerID)
	require.NoError(t, err)
	assert.True(t, w.Balance.GreaterThanOrEqual(decimal.Zero))
	// every committed withdrawal is reflected exactly once
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(int64(50-10*successCount))))
	assert.Equal(t, 10, successCount+failCount)

	txs, err := repo.ListTransactions(context.Background(), playerID)
	require.NoError(t, err)
	assert.Len(t, txs, 1+successCount)
}

func TestRepositoryDebitInsufficientFunds(t *testing.T) {
	db := dbtest.Open(t)
	repo := wallet.NewWalletRepositoryImpl(db)
	playerID := setUpWallet(t, repo, decimal.NewFromInt(500))

	_, err := repo.Debit(context.Background(), &wallet.Transaction{
		PlayerID: playerID,
		Type:     wallet.TypeWithdrawal,
		Amount:   decimal.NewFromInt(2000),
	})
	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	w, err := repo.GetWallet(context.Background(), playerID)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(500)))
}

func TestRepositoryDuplicateReference(t *testing.T) {
	db := dbtest.Open(t)
	repo := wallet.NewWalletRepositoryImpl(db)
	playerID := setUpWallet(t, repo, decimal.Zero)
	ref := "deposit:" + uuid.NewString()

	credit := func() error {
		r := ref
		_, err := repo.Credit(context.Background(), &wallet.Transaction{
			PlayerID:    playerID,
			Type:        wallet.TypeReferralDepositBonus,
			Amount:      decimal.NewFromInt(100),
			ReferenceID: &r,
		}, nil)
		return err
	}
	require.NoError(t, credit())
	assert.ErrorIs(t, credit(), wallet.ErrDuplicateReference)

	w, err := repo.GetWallet(context.Background(), playerID)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(100)))

	found, err := repo.GetTransactionByReference(context.Background(), wallet.TypeReferralDepositBonus, ref)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, playerID, found.PlayerID)
}

func TestRepositoryDepositEventLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	repo := wallet.NewWalletRepositoryImpl(db)
	playerID := setUpWallet(t, repo, decimal.Zero)
	ctx := context.Background()

	tx := &wallet.Transaction{PlayerID: playerID, Type: wallet.TypeDeposit, Amount: decimal.NewFromInt(300)}
	ev := &wallet.DepositEvent{}
	_, err := repo.Credit(ctx, tx, ev)
	require.NoError(t, err)
	assert.Equal(t, tx.TransactionID, ev.DepositTransactionID)

	require.NoError(t, repo.RecordDepositEventFailure(ctx, ev.DepositTransactionID, "boom"))
	pending, err := repo.ClaimPendingDepositEvents(ctx, time.Now().Add(time.Hour), 1000)
	require.NoError(t, err)
	assert.True(t, containsEvent(pending, ev.DepositTransactionID))

	require.NoError(t, repo.MarkDepositEventProcessed(ctx, ev.DepositTransactionID))
	pending, err = repo.ClaimPendingDepositEvents(ctx, time.Now().Add(time.Hour), 1000)
	require.NoError(t, err)
	assert.False(t, containsEvent(pending, ev.DepositTransactionID))
}

func containsEvent(events []wallet.DepositEvent, id string) bool {
	for _, ev := range events {
		if ev.DepositTransactionID == id {
			return true
		}
	}
	return false
}
