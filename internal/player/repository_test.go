package player_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral_wallet/internal/database/dbtest"
	"referral_wallet/internal/player"
)

func TestRepositoryPlayerLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	repo := player.NewPlayerRepository(db)
	ctx := context.Background()

	id, err := player.NewID()
	require.NoError(t, err)
	phone := fmt.Sprintf("+1%010d", time.Now().UnixNano()%1e10)
	p := &player.Player{
		ID:           id,
		Name:         "Integration",
		PhoneNumber:  phone,
		PasswordHash: "hash",
		ReferralCode: player.ReferralCodeFor(id),
		OriginURL:    "https://play.example.com/?" + strings.Repeat("utm=campaign&", 50),
	}
	require.NoError(t, repo.Create(ctx, p))

	clash := *p
	clash.ID = id[:5] + "99999"
	clash.ReferralCode = player.ReferralCodeFor(clash.ID)
	assert.ErrorIs(t, repo.Create(ctx, &clash), player.ErrPlayerExists)

	byPhone, err := repo.FindByPhone(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, id, byPhone.ID)
	assert.Equal(t, p.OriginURL, byPhone.OriginURL)

	byCode, err := repo.FindByReferralCode(ctx, p.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, id, byCode.ID)

	many, err := repo.FindByIDs(ctx, []string{id, "missing000"})
	require.NoError(t, err)
	require.Len(t, many, 1)

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.FindByID(ctx, id)
	assert.ErrorIs(t, err, player.ErrPlayerNotFound)
}
