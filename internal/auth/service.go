package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"referral_wallet/internal/apperr"
	"referral_wallet/internal/config"
	"referral_wallet/internal/player"
	"referral_wallet/internal/wallet"
)

var (
	ErrValidation          = apperr.New(apperr.KindInvalidArgument, "VALIDATION_FAILED", "Invalid request")
	ErrPhoneTaken          = apperr.New(apperr.KindConflict, "PHONE_ALREADY_REGISTERED", "Phone number already registered")
	ErrInvalidReferralCode = apperr.New(apperr.KindInvalidArgument, "INVALID_REFERRAL_CODE", "Invalid referral code")
	ErrInvalidCredentials  = apperr.New(apperr.KindUnauthorized, "INVALID_CREDENTIALS", "Invalid phone number or password")
	ErrTokenMissing        = apperr.New(apperr.KindUnauthorized, "TOKEN_MISSING", "Authentication token is missing")
	ErrInvalidToken        = apperr.New(apperr.KindUnauthorized, "INVALID_TOKEN", "Invalid authentication token")
	ErrUnknownTokenPlayer  = apperr.New(apperr.KindUnauthorized, "TOKEN_PLAYER_NOT_FOUND", "Player not found")
)

// maxIDAttempts bounds regeneration when a random player id collides.
const maxIDAttempts = 5

type RegisterInput struct {
	Name         string `json:"name" validate:"required,min=3,max=50"`
	PhoneNumber  string `json:"phoneNumber" validate:"required,phone"`
	Password     string `json:"password" validate:"required,min=6"`
	ReferralCode string `json:"referralCode"`
}

type LoginInput struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

type AuthResult struct {
	Player player.Summary `json:"player"`
	Token  string         `json:"token"`
}

type WalletOpener interface {
	OpenWallet(ctx context.Context, playerID string) (*wallet.Wallet, error)
}

type RegistrationReferrals interface {
	ProcessRegistrationReferral(ctx context.Context, referrerID string, referredID string) error
}

type Service struct {
	players    player.PlayerRepository
	wallets    WalletOpener
	referrals  RegistrationReferrals
	tokens     *TokenIssuer
	bcryptCost int
	validator  *validator.Validate
	logger     zerolog.Logger
}

func NewService(players player.PlayerRepository, wallets WalletOpener, referrals RegistrationReferrals, cfg config.AuthConfig, logger zerolog.Logger) (*Service, error) {
	tokens, err := NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		players:    players,
		wallets:    wallets,
		referrals:  referrals,
		tokens:     tokens,
		bcryptCost: cost,
		validator:  newValidator(),
		logger:     logger.With().Str("component", "auth").Logger(),
	}, nil
}

// Register creates a player and an empty wallet, records the referral when a
// referral code is given, and returns a signed token. An unknown referral
// code rejects the registration before anything is stored.
func (s *Service) Register(ctx context.Context, in RegisterInput, ipAddress string, originURL string) (*AuthResult, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	if _, err := s.players.FindByPhone(ctx, in.PhoneNumber); err == nil {
		return nil, ErrPhoneTaken
	} else if !errors.Is(err, player.ErrPlayerNotFound) {
		return nil, err
	}

	var referrer *player.Player
	if in.ReferralCode != "" {
		r, err := s.players.FindByReferralCode(ctx, in.ReferralCode)
		if err != nil {
			if errors.Is(err, player.ErrPlayerNotFound) {
				return nil, ErrInvalidReferralCode
			}
			return nil, err
		}
		referrer = r
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := &player.Player{
		Name:         in.Name,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: string(hash),
		IPAddress:    ipAddress,
		OriginURL:    originURL,
	}
	if referrer != nil {
		p.ReferredBy = &referrer.ID
	}
	if err := s.createPlayer(ctx, p); err != nil {
		return nil, err
	}

	if _, err := s.wallets.OpenWallet(ctx, p.ID); err != nil {
		if delErr := s.players.Delete(ctx, p.ID); delErr != nil {
			s.logger.Error().Err(delErr).Str("player_id", p.ID).Msg("failed to remove player after wallet error")
		}
		return nil, fmt.Errorf("open wallet: %w", err)
	}

	if referrer != nil {
		if err := s.referrals.ProcessRegistrationReferral(ctx, referrer.ID, p.ID); err != nil {
			s.logger.Error().Err(err).
				Str("player_id", p.ID).
				Str("referrer_id", referrer.ID).
				Msg("registration referral failed")
			return nil, err
		}
	}

	token, err := s.tokens.Issue(Claims{ID: p.ID, PhoneNumber: p.PhoneNumber})
	if err != nil {
		return nil, err
	}

	ev := s.logger.Info().Str("player_id", p.ID)
	if referrer != nil {
		ev = ev.Str("referrer_id", referrer.ID)
	}
	ev.Msg("player registered")

	return &AuthResult{Player: p.Summary(), Token: token}, nil
}

// createPlayer assigns a fresh id and referral code, retrying on collision.
// A collision on the phone number is reported as ErrPhoneTaken.
func (s *Service) createPlayer(ctx context.Context, p *player.Player) error {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := player.NewID()
		if err != nil {
			return fmt.Errorf("generate player id: %w", err)
		}
		p.ID = id
		p.ReferralCode = player.ReferralCodeFor(id)

		err = s.players.Create(ctx, p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, player.ErrPlayerExists) {
			return err
		}
		if _, findErr := s.players.FindByPhone(ctx, p.PhoneNumber); findErr == nil {
			return ErrPhoneTaken
		}
	}
	return fmt.Errorf("could not allocate a player id after %d attempts", maxIDAttempts)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	p, err := s.players.FindByPhone(ctx, in.PhoneNumber)
	if err != nil {
		if errors.Is(err, player.ErrPlayerNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(Claims{ID: p.ID, PhoneNumber: p.PhoneNumber})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Player: p.Summary(), Token: token}, nil
}

// Authenticate resolves a bearer token to the player it was issued for.
func (s *Service) Authenticate(ctx context.Context, token string) (*player.Player, error) {
	if token == "" {
		return nil, ErrTokenMissing
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken.Wrap(err)
	}
	p, err := s.players.FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, player.ErrPlayerNotFound) {
			return nil, ErrUnknownTokenPlayer
		}
		return nil, err
	}
	return p, nil
}
