package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral_wallet/internal/config"
)

type fakeRetrier struct {
	mu    sync.Mutex
	calls int
	grace time.Duration
	limit int
	err   error
}

func (f *fakeRetrier) RetryPendingDeposits(_ context.Context, grace time.Duration, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.grace = grace
	f.limit = limit
	return 1, f.err
}

func (f *fakeRetrier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRunOncePassesPolicy(t *testing.T) {
	r := &fakeRetrier{}
	s, err := New(r, config.WorkerConfig{BonusRetryInterval: time.Minute, BonusRetryBatch: 25}, zerolog.Nop())
	require.NoError(t, err)

	s.RunOnce(context.Background())
	assert.Equal(t, 1, r.Calls())
	assert.Equal(t, time.Minute, r.grace)
	assert.Equal(t, 25, r.limit)

	r.err = errors.New("db down")
	s.RunOnce(context.Background())
	assert.Equal(t, 2, r.Calls())
}

func TestStartRunsJob(t *testing.T) {
	r := &fakeRetrier{}
	s, err := New(r, config.WorkerConfig{BonusRetryInterval: 20 * time.Millisecond, BonusRetryBatch: 10}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool { return r.Calls() >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())
}
