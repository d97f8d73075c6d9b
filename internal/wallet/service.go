package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"referral_wallet/internal/apperr"
	"referral_wallet/internal/config"
)

var (
	ErrDepositOutOfRange = apperr.New(apperr.KindInvalidArgument, "DEPOSIT_AMOUNT_OUT_OF_RANGE", "Deposit amount is out of range")
	ErrInvalidWithdrawal = apperr.New(apperr.KindInvalidArgument, "WITHDRAWAL_AMOUNT_INVALID", "Withdrawal amount is invalid")
	ErrInvalidAmount     = apperr.New(apperr.KindInvalidArgument, "INVALID_AMOUNT", "Amount must be positive")
	ErrInvalidBonusType  = apperr.New(apperr.KindInvalidArgument, "INVALID_TRANSACTION_TYPE", "Transaction type is not a referral bonus")
	ErrAmountPrecision   = apperr.New(apperr.KindInvalidArgument, "AMOUNT_PRECISION", "Amount must have at most 2 decimal places")
)

// amountScale matches the numeric(20,2) money columns.
const amountScale = 2

func validScale(amount decimal.Decimal) bool {
	return amount.Exponent() >= -amountScale || amount.Equal(amount.Truncate(amountScale))
}

// DepositHook is invoked after a deposit commits. It must be safe to call
// more than once for the same event.
type DepositHook func(ctx context.Context, ev DepositEvent) error

type Service struct {
	repo    WalletRepository
	policy  config.WalletPolicy
	logger  zerolog.Logger
	metrics *Metrics
	hook    DepositHook
	printer *message.Printer
}

func NewService(repo WalletRepository, policy config.WalletPolicy, logger zerolog.Logger, metrics *Metrics) *Service {
	if policy.MaxRetries < 1 {
		policy.MaxRetries = 1
	}
	return &Service{
		repo:    repo,
		policy:  policy,
		logger:  logger.With().Str("component", "wallet").Logger(),
		metrics: metrics,
		printer: message.NewPrinter(language.English),
	}
}

// SetDepositHook installs the post-deposit hook. Call it during startup,
// before the service handles requests.
func (s *Service) SetDepositHook(h DepositHook) {
	s.hook = h
}

func (s *Service) OpenWallet(ctx context.Context, playerID string) (*Wallet, error) {
	return s.repo.CreateWallet(ctx, playerID)
}

func (s *Service) GetWallet(ctx context.Context, playerID string) (*Wallet, error) {
	return s.repo.GetWallet(ctx, playerID)
}

func (s *Service) Deposit(ctx context.Context, playerID string, amount decimal.Decimal) (*DepositResult, error) {
	if amount.LessThan(s.policy.MinDeposit) || amount.GreaterThan(s.policy.MaxDeposit) {
		return nil, ErrDepositOutOfRange.Withf("Deposit amount must be between %s and %s",
			s.formatAmount(s.policy.MinDeposit), s.formatAmount(s.policy.MaxDeposit))
	}
	if !validScale(amount) {
		return nil, ErrAmountPrecision
	}

	tx := &Transaction{PlayerID: playerID, Type: TypeDeposit, Amount: amount}
	event := &DepositEvent{}
	w, err := s.withRetry(ctx, TypeDeposit, func() (*Wallet, error) {
		return s.repo.Credit(ctx, tx, event)
	})
	s.metrics.observe(TypeDeposit, amount, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("player_id", playerID).
		Str("transaction_id", tx.TransactionID).
		Str("amount", amount.String()).
		Str("balance", w.Balance.String()).
		Msg("deposit recorded")

	result := &DepositResult{Wallet: w, TransactionID: tx.TransactionID}
	// The deposit is committed; the hook must not be cut short by the caller
	// going away.
	result.BonusErr = s.runDepositHook(context.WithoutCancel(ctx), *event)
	return result, nil
}

func (s *Service) Withdraw(ctx context.Context, playerID string, amount decimal.Decimal) (*Wallet, error) {
	if !amount.IsPositive() || amount.LessThan(s.policy.MinWithdrawal) {
		return nil, ErrInvalidWithdrawal.Withf("Withdrawal amount must be at least %s", s.formatAmount(s.policy.MinWithdrawal))
	}
	if !validScale(amount) {
		return nil, ErrAmountPrecision
	}

	tx := &Transaction{PlayerID: playerID, Type: TypeWithdrawal, Amount: amount}
	w, err := s.withRetry(ctx, TypeWithdrawal, func() (*Wallet, error) {
		return s.repo.Debit(ctx, tx)
	})
	s.metrics.observe(TypeWithdrawal, amount, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("player_id", playerID).
		Str("transaction_id", tx.TransactionID).
		Str("amount", amount.String()).
		Str("balance", w.Balance.String()).
		Msg("withdrawal recorded")
	return w, nil
}

// CreditBonus is the only mutation the referral program performs on wallets.
func (s *Service) CreditBonus(ctx context.Context, c BonusCredit) (*Wallet, error) {
	if !c.Type.IsBonus() {
		return nil, ErrInvalidBonusType
	}
	if !c.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !validScale(c.Amount) {
		return nil, ErrAmountPrecision
	}

	if c.ReferenceID != "" {
		existing, err := s.repo.GetTransactionByReference(ctx, c.Type, c.ReferenceID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Debug().Str("reference_id", c.ReferenceID).Msg("bonus already credited")
			return s.repo.GetWallet(ctx, c.PlayerID)
		}
	}

	tx := &Transaction{
		PlayerID: c.PlayerID,
		Type:     c.Type,
		Amount:   c.Amount,
	}
	if c.SourcePlayerID != "" {
		src := c.SourcePlayerID
		tx.SourcePlayerID = &src
	}
	if c.ReferenceID != "" {
		ref := c.ReferenceID
		tx.ReferenceID = &ref
	}

	w, err := s.withRetry(ctx, c.Type, func() (*Wallet, error) {
		return s.repo.Credit(ctx, tx, nil)
	})
	if errors.Is(err, ErrDuplicateReference) {
		// lost a race with another credit carrying the same reference
		return s.repo.GetWallet(ctx, c.PlayerID)
	}
	s.metrics.observe(c.Type, c.Amount, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("player_id", c.PlayerID).
		Str("source_player_id", c.SourcePlayerID).
		Str("type", string(c.Type)).
		Str("amount", c.Amount.String()).
		Msg("referral bonus credited")
	return w, nil
}

func (s *Service) GetHistory(ctx context.Context, playerID string) ([]Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []Transaction{}
	}
	return txs, nil
}

// RetryPendingDeposits re-runs the deposit hook for events that have been
// pending for at least grace. It returns how many events were completed.
func (s *Service) RetryPendingDeposits(ctx context.Context, grace time.Duration, limit int) (int, error) {
	events, err := s.repo.ClaimPendingDepositEvents(ctx, time.Now().Add(-grace), limit)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, ev := range events {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		if err := s.runDepositHook(ctx, ev); err == nil {
			done++
		}
	}
	return done, nil
}

func (s *Service) runDepositHook(ctx context.Context, ev DepositEvent) error {
	if s.hook != nil {
		if err := s.hook(ctx, ev); err != nil {
			s.metrics.hookFailed()
			s.logger.Error().Err(err).
				Str("player_id", ev.PlayerID).
				Str("transaction_id", ev.DepositTransactionID).
				Msg("deposit hook failed, left pending for retry")
			if recErr := s.repo.RecordDepositEventFailure(ctx, ev.DepositTransactionID, err.Error()); recErr != nil {
				s.logger.Error().Err(recErr).Str("transaction_id", ev.DepositTransactionID).Msg("failed to record hook failure")
			}
			return fmt.Errorf("deposit %s committed, referral bonus pending: %w", ev.DepositTransactionID, err)
		}
	}

	if err := s.repo.MarkDepositEventProcessed(ctx, ev.DepositTransactionID); err != nil {
		s.logger.Warn().Err(err).Str("transaction_id", ev.DepositTransactionID).Msg("failed to mark deposit event processed")
	}
	return nil
}

func (s *Service) withRetry(ctx context.Context, txType TransactionType, op func() (*Wallet, error)) (*Wallet, error) {
	var (
		w   *Wallet
		err error
	)
	for i := 0; i < s.policy.MaxRetries; i++ {
		w, err = op()
		if !errors.Is(err, ErrOptimisticLock) {
			return w, err
		}
		s.metrics.retried(txType)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.policy.RetryDelay):
		}
	}
	return nil, err
}

func (s *Service) formatAmount(d decimal.Decimal) string {
	if d.IsInteger() {
		return s.printer.Sprintf("%d", d.IntPart())
	}
	return s.printer.Sprintf("%.2f", d.InexactFloat64())
}
