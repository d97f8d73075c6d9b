package referral_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral_wallet/internal/database/dbtest"
	"referral_wallet/internal/player"
	"referral_wallet/internal/referral"
)

func newID(t *testing.T) string {
	t.Helper()
	id, err := player.NewID()
	require.NoError(t, err)
	return id
}

func TestRepositoryReferralLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	repo := referral.NewReferralRepository(db)
	ctx := context.Background()
	referrer, referred := newID(t), newID(t)

	ref := &referral.Referral{ReferrerID: referrer, ReferredID: referred, RegistrationBonus: true}
	require.NoError(t, repo.Create(ctx, ref))
	assert.NotEmpty(t, ref.ID)

	// a second referrer for the same player is rejected
	err := repo.Create(ctx, &referral.Referral{ReferrerID: newID(t), ReferredID: referred})
	assert.ErrorIs(t, err, referral.ErrReferralExists)

	found, err := repo.FindByPair(ctx, referrer, referred)
	require.NoError(t, err)
	assert.Equal(t, ref.ID, found.ID)

	_, err = repo.FindByPair(ctx, referred, referrer)
	assert.ErrorIs(t, err, referral.ErrReferralNotFound)

	depositID := uuid.NewString()
	bonus := &referral.DepositBonus{
		ReferralID:           ref.ID,
		DepositTransactionID: depositID,
		Amount:               decimal.NewFromInt(100),
		Percentage:           decimal.NewFromInt(10),
		DepositAmount:        decimal.NewFromInt(1000),
	}
	require.NoError(t, repo.AppendDepositBonus(ctx, bonus))
	dup := *bonus
	dup.ID = ""
	assert.ErrorIs(t, repo.AppendDepositBonus(ctx, &dup), referral.ErrDepositBonusExists)

	refs, err := repo.ListByReferrer(ctx, referrer)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Len(t, refs[0].DepositBonuses, 1)
	assert.True(t, refs[0].DepositBonuses[0].Amount.Equal(decimal.NewFromInt(100)))

	totals, err := repo.Totals(ctx, referrer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals.Referrals)
	assert.Equal(t, int64(1), totals.RegistrationBonusCount)
	assert.True(t, totals.DepositBonusSum.Equal(decimal.NewFromInt(100)))

	empty, err := repo.Totals(ctx, newID(t))
	require.NoError(t, err)
	assert.Zero(t, empty.Referrals)
	assert.True(t, empty.DepositBonusSum.IsZero())
}
