package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"referral_wallet/internal/config"
)

type DepositRetrier interface {
	RetryPendingDeposits(ctx context.Context, grace time.Duration, limit int) (int, error)
}

// Scheduler periodically re-drives deposit events whose referral bonus
// could not be credited when the deposit was made.
type Scheduler struct {
	sched   gocron.Scheduler
	retrier DepositRetrier
	cfg     config.WorkerConfig
	logger  zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(retrier DepositRetrier, cfg config.WorkerConfig, logger zerolog.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		sched:   sched,
		retrier: retrier,
		cfg:     cfg,
		logger:  logger.With().Str("component", "scheduler").Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

func (s *Scheduler) Start() error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(s.cfg.BonusRetryInterval),
		gocron.NewTask(func() {
			s.RunOnce(s.ctx)
		}),
		gocron.WithName("deposit-bonus-retry"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("schedule deposit bonus retry: %w", err)
	}
	s.sched.Start()
	s.logger.Info().Dur("interval", s.cfg.BonusRetryInterval).Msg("deposit bonus retry scheduled")
	return nil
}

// RunOnce retries one batch. Only events untouched for a full interval are
// picked up, so a hook still running inside a request is left alone.
func (s *Scheduler) RunOnce(ctx context.Context) {
	done, err := s.retrier.RetryPendingDeposits(ctx, s.cfg.BonusRetryInterval, s.cfg.BonusRetryBatch)
	if err != nil {
		s.logger.Error().Err(err).Int("completed", done).Msg("deposit bonus retry failed")
		return
	}
	if done > 0 {
		s.logger.Info().Int("completed", done).Msg("pending deposit bonuses credited")
	}
}

func (s *Scheduler) Stop() error {
	s.cancel()
	return s.sched.Shutdown()
}
