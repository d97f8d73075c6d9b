package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"referral_wallet/internal/auth"
	"referral_wallet/internal/config"
	"referral_wallet/internal/database"
	"referral_wallet/internal/logger"
	"referral_wallet/internal/memstore"
	"referral_wallet/internal/player"
	"referral_wallet/internal/referral"
	"referral_wallet/internal/scheduler"
	"referral_wallet/internal/server"
	"referral_wallet/internal/server/handlers"
	"referral_wallet/internal/server/middleware"
	"referral_wallet/internal/wallet"
)

type repositories struct {
	players   player.PlayerRepository
	wallets   wallet.WalletRepository
	referrals referral.ReferralRepository
	db        *gorm.DB
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	repos, err := openRepositories(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	if repos.db != nil {
		defer func() {
			if err := database.Close(repos.db); err != nil {
				log.Error().Err(err).Msg("failed to close database")
			}
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	walletSvc := wallet.NewService(repos.wallets, cfg.Wallet, log, wallet.MustNewMetrics(reg))
	referralSvc := referral.NewService(repos.referrals, repos.players, walletSvc, cfg.Referral, log, referral.MustNewMetrics(reg))
	walletSvc.SetDepositHook(referralSvc.ProcessDepositReferral)

	authSvc, err := auth.NewService(repos.players, walletSvc, referralSvc, cfg.Auth, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create auth service")
	}
	playerSvc := player.NewService(repos.players, walletSvc)

	h := &handlers.Handlers{
		Auth:          authSvc,
		Players:       playerSvc,
		Wallets:       walletSvc,
		Referral:      referralSvc,
		Gatherer:      reg,
		PublicBaseURL: cfg.Server.PublicBaseURL,
		Logger:        log,
	}
	srv := server.New(cfg.Server, h, middleware.NewMiddleware(authSvc, log), log)

	sched, err := scheduler.New(walletSvc, cfg.Worker, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
	}
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop scheduler")
	}
}

func openRepositories(cfg config.DatabaseConfig, log zerolog.Logger) (*repositories, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return &repositories{
			players:   memstore.NewPlayerStore(),
			wallets:   memstore.NewWalletStore(),
			referrals: memstore.NewReferralStore(),
		}, nil
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &repositories{
		players:   player.NewPlayerRepository(db),
		wallets:   wallet.NewWalletRepositoryImpl(db),
		referrals: referral.NewReferralRepository(db),
		db:        db,
	}, nil
}
