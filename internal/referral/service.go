package referral

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"referral_wallet/internal/apperr"
	"referral_wallet/internal/config"
	"referral_wallet/internal/player"
	"referral_wallet/internal/wallet"
)

var ErrSelfReferral = apperr.New(apperr.KindInvalidArgument, "SELF_REFERRAL", "A player cannot refer themselves")

var hundred = decimal.NewFromInt(100)

// BonusCreditor is the wallet capability the referral program relies on.
type BonusCreditor interface {
	CreditBonus(ctx context.Context, c wallet.BonusCredit) (*wallet.Wallet, error)
}

type PlayerDirectory interface {
	FindByID(ctx context.Context, id string) (*player.Player, error)
	FindByIDs(ctx context.Context, ids []string) ([]player.Player, error)
}

type Service struct {
	repo    ReferralRepository
	players PlayerDirectory
	credits BonusCreditor
	policy  config.ReferralPolicy
	logger  zerolog.Logger
	metrics *Metrics
}

func NewService(repo ReferralRepository, players PlayerDirectory, credits BonusCreditor, policy config.ReferralPolicy, logger zerolog.Logger, metrics *Metrics) *Service {
	return &Service{
		repo:    repo,
		players: players,
		credits: credits,
		policy:  policy,
		logger:  logger.With().Str("component", "referral").Logger(),
		metrics: metrics,
	}
}

// ProcessRegistrationReferral records that referredID joined through
// referrerID and credits the registration bonus. It runs once per referred
// player; a second call for the same pair fails with ErrReferralExists after
// settling a registration bonus an earlier call failed to credit.
func (s *Service) ProcessRegistrationReferral(ctx context.Context, referrerID string, referredID string) error {
	if referrerID == referredID {
		return ErrSelfReferral
	}

	ref := &Referral{
		ReferrerID:        referrerID,
		ReferredID:        referredID,
		RegistrationBonus: true,
	}
	if err := s.repo.Create(ctx, ref); err != nil {
		if !errors.Is(err, ErrReferralExists) {
			return err
		}
		if _, findErr := s.repo.FindByPair(ctx, referrerID, referredID); findErr != nil {
			// referred by someone else
			return err
		}
		if creditErr := s.creditRegistrationBonus(ctx, referrerID, referredID); creditErr != nil {
			return creditErr
		}
		return err
	}
	s.metrics.referralCreated()

	if err := s.creditRegistrationBonus(ctx, referrerID, referredID); err != nil {
		return err
	}

	s.logger.Info().
		Str("referrer_id", referrerID).
		Str("referred_id", referredID).
		Str("amount", s.policy.RegistrationBonus.String()).
		Msg("registration referral processed")
	return nil
}

// creditRegistrationBonus is idempotent per referred player.
func (s *Service) creditRegistrationBonus(ctx context.Context, referrerID string, referredID string) error {
	if !s.policy.RegistrationBonus.IsPositive() {
		return nil
	}

	_, err := s.credits.CreditBonus(ctx, wallet.BonusCredit{
		PlayerID:       referrerID,
		Amount:         s.policy.RegistrationBonus,
		SourcePlayerID: referredID,
		Type:           wallet.TypeReferralBonus,
		ReferenceID:    "registration:" + referredID,
	})
	s.metrics.bonus(string(wallet.TypeReferralBonus), err)
	if err != nil {
		s.logger.Error().Err(err).
			Str("referrer_id", referrerID).
			Str("referred_id", referredID).
			Msg("registration bonus credit failed")
		return fmt.Errorf("credit registration bonus: %w", err)
	}
	return nil
}

// ProcessDepositReferral credits the depositor's direct referrer with the
// configured percentage of the deposit. Players without a referrer are a
// no-op. Replaying the same deposit event credits nothing new.
func (s *Service) ProcessDepositReferral(ctx context.Context, ev wallet.DepositEvent) error {
	p, err := s.players.FindByID(ctx, ev.PlayerID)
	if err != nil {
		if errors.Is(err, player.ErrPlayerNotFound) {
			s.metrics.skip("player_missing")
			s.logger.Warn().Str("player_id", ev.PlayerID).Msg("deposit from unknown player, no referral bonus")
			return nil
		}
		return err
	}
	if p.ReferredBy == nil || *p.ReferredBy == "" {
		s.metrics.skip("not_referred")
		return nil
	}
	referrerID := *p.ReferredBy

	ref, err := s.repo.FindByPair(ctx, referrerID, p.ID)
	if err != nil {
		if errors.Is(err, ErrReferralNotFound) {
			s.metrics.skip("referral_missing")
			s.logger.Warn().
				Str("player_id", p.ID).
				Str("referrer_id", referrerID).
				Msg("player has a referrer but no referral record")
			return nil
		}
		return err
	}

	bonus := ev.Amount.Mul(s.policy.DepositBonusPercentage).Div(hundred).Round(2)
	if !bonus.IsPositive() {
		s.metrics.skip("zero_bonus")
		return nil
	}

	err = s.repo.AppendDepositBonus(ctx, &DepositBonus{
		ReferralID:           ref.ID,
		DepositTransactionID: ev.DepositTransactionID,
		Amount:               bonus,
		Percentage:           s.policy.DepositBonusPercentage,
		DepositAmount:        ev.Amount,
	})
	if err != nil && !errors.Is(err, ErrDepositBonusExists) {
		return err
	}

	_, err = s.credits.CreditBonus(ctx, wallet.BonusCredit{
		PlayerID:       referrerID,
		Amount:         bonus,
		SourcePlayerID: p.ID,
		Type:           wallet.TypeReferralDepositBonus,
		ReferenceID:    "deposit:" + ev.DepositTransactionID,
	})
	s.metrics.bonus(string(wallet.TypeReferralDepositBonus), err)
	if err != nil {
		return fmt.Errorf("credit deposit bonus: %w", err)
	}

	s.logger.Info().
		Str("referrer_id", referrerID).
		Str("referred_id", p.ID).
		Str("deposit", ev.Amount.String()).
		Str("bonus", bonus.String()).
		Msg("deposit referral processed")
	return nil
}

func (s *Service) GenerateReferralLink(ctx context.Context, playerID string, baseURL string) (string, error) {
	p, err := s.players.FindByID(ctx, playerID)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(baseURL, "/") + "/register?ref=" + url.QueryEscape(p.ReferralCode), nil
}

func (s *Service) GetReferredPlayers(ctx context.Context, referrerID string) ([]player.Summary, error) {
	refs, err := s.repo.ListByReferrer(ctx, referrerID)
	if err != nil {
		return nil, err
	}

	summaries := make([]player.Summary, 0, len(refs))
	if len(refs) == 0 {
		return summaries, nil
	}

	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ReferredID)
	}
	players, err := s.players.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*player.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
	}

	for _, r := range refs {
		if p, ok := byID[r.ReferredID]; ok {
			summaries = append(summaries, p.Summary())
		}
	}
	return summaries, nil
}

func (s *Service) GetReferralStats(ctx context.Context, referrerID string) (*Stats, error) {
	t, err := s.repo.Totals(ctx, referrerID)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalReferrals:         t.Referrals,
		TotalRegistrationBonus: s.policy.RegistrationBonus.Mul(decimal.NewFromInt(t.RegistrationBonusCount)),
		TotalDepositBonus:      t.DepositBonusSum,
	}, nil
}
