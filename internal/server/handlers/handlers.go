package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"referral_wallet/internal/auth"
	"referral_wallet/internal/player"
	"referral_wallet/internal/referral"
	"referral_wallet/internal/wallet"
)

// PlayerIDKey is the gin context key holding the authenticated player id.
const PlayerIDKey = "player_id"

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput, ipAddress string, originURL string) (*auth.AuthResult, error)
	Login(ctx context.Context, in auth.LoginInput) (*auth.AuthResult, error)
}

type PlayerService interface {
	GetProfile(ctx context.Context, playerID string) (*player.Profile, error)
}

type WalletService interface {
	GetWallet(ctx context.Context, playerID string) (*wallet.Wallet, error)
	Deposit(ctx context.Context, playerID string, amount decimal.Decimal) (*wallet.DepositResult, error)
	Withdraw(ctx context.Context, playerID string, amount decimal.Decimal) (*wallet.Wallet, error)
	GetHistory(ctx context.Context, playerID string) ([]wallet.Transaction, error)
}

type ReferralService interface {
	GenerateReferralLink(ctx context.Context, playerID string, baseURL string) (string, error)
	GetReferredPlayers(ctx context.Context, referrerID string) ([]player.Summary, error)
	GetReferralStats(ctx context.Context, referrerID string) (*referral.Stats, error)
}

type Handlers struct {
	Auth     AuthService
	Players  PlayerService
	Wallets  WalletService
	Referral ReferralService
	Gatherer prometheus.Gatherer
	// PublicBaseURL overrides the request host in referral links.
	PublicBaseURL string
	Logger        zerolog.Logger
}

// SetupHandlers mounts every route. requireAuth guards the player routes.
func (h *Handlers) SetupHandlers(router *gin.Engine, requireAuth gin.HandlerFunc) {
	healthHandler := NewHealthHandler()
	authHandler := &AuthHandler{svc: h.Auth, logger: h.Logger}
	playerHandler := &PlayerHandler{svc: h.Players, logger: h.Logger}
	walletHandler := &WalletHandler{svc: h.Wallets, logger: h.Logger}
	referralHandler := &ReferralHandler{svc: h.Referral, baseURL: h.PublicBaseURL, logger: h.Logger}

	router.GET("/", healthHandler.Index)
	router.GET("/healthz", healthHandler.Health)
	if h.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
		}

		players := api.Group("/players", requireAuth)
		{
			players.GET("/profile", playerHandler.Profile)
		}

		wallets := api.Group("/wallet", requireAuth)
		{
			wallets.GET("", walletHandler.Get)
			wallets.POST("/deposit", walletHandler.Deposit)
			wallets.POST("/withdraw", walletHandler.Withdraw)
			wallets.GET("/transactions", walletHandler.Transactions)
		}

		referrals := api.Group("/referrals", requireAuth)
		{
			referrals.GET("/link", referralHandler.Link)
			referrals.GET("/players", referralHandler.Players)
			referrals.GET("/stats", referralHandler.Stats)
		}
	}
}

func playerID(c *gin.Context) string {
	return c.GetString(PlayerIDKey)
}
