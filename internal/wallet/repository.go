package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"referral_wallet/internal/apperr"
)

var (
	ErrWalletNotFound    = apperr.New(apperr.KindNotFound, "WALLET_NOT_FOUND", "Wallet not found")
	ErrWalletExists      = apperr.New(apperr.KindConflict, "WALLET_EXISTS", "Wallet already exists")
	ErrInsufficientFunds = apperr.New(apperr.KindInvalidArgument, "INSUFFICIENT_BALANCE", "Insufficient balance")

	ErrOptimisticLock     = errors.New("optimistic lock error")
	ErrDuplicateReference = errors.New("transaction reference already recorded")
)

type WalletRepository interface {
	GetWallet(ctx context.Context, playerID string) (*Wallet, error)
	CreateWallet(ctx context.Context, playerID string) (*Wallet, error)
	GetTransactionByReference(ctx context.Context, txType TransactionType, referenceID string) (*Transaction, error)
	// Credit adds tx.Amount to the player's wallet and records tx. When event
	// is non-nil it is stored in the same database transaction.
	Credit(ctx context.Context, tx *Transaction, event *DepositEvent) (*Wallet, error)
	Debit(ctx context.Context, tx *Transaction) (*Wallet, error)
	ListTransactions(ctx context.Context, playerID string) ([]Transaction, error)

	ClaimPendingDepositEvents(ctx context.Context, updatedBefore time.Time, limit int) ([]DepositEvent, error)
	MarkDepositEventProcessed(ctx context.Context, depositTransactionID string) error
	RecordDepositEventFailure(ctx context.Context, depositTransactionID string, reason string) error
}

type WalletRepositoryImpl struct {
	db *gorm.DB
}

func NewWalletRepositoryImpl(db *gorm.DB) WalletRepository {
	return &WalletRepositoryImpl{db: db}
}

func (r *WalletRepositoryImpl) GetWallet(ctx context.Context, playerID string) (*Wallet, error) {
	var w Wallet
	err := r.db.WithContext(ctx).Where("player_id = ?", playerID).First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

func (r *WalletRepositoryImpl) CreateWallet(ctx context.Context, playerID string) (*Wallet, error) {
	now := time.Now()
	w := Wallet{
		WalletID:  uuid.NewString(),
		PlayerID:  playerID,
		Balance:   decimal.Zero,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.db.WithContext(ctx).Create(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrWalletExists
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return &w, nil
}

func (r *WalletRepositoryImpl) GetTransactionByReference(ctx context.Context, txType TransactionType, referenceID string) (*Transaction, error) {
	var t Transaction
	err := r.db.WithContext(ctx).Where("reference_id = ? AND type = ?", referenceID, txType).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction by reference: %w", err)
	}
	return &t, nil
}

func (r *WalletRepositoryImpl) Credit(ctx context.Context, tx *Transaction, event *DepositEvent) (*Wallet, error) {
	return r.apply(ctx, tx, event, func(balance decimal.Decimal) (decimal.Decimal, error) {
		return balance.Add(tx.Amount), nil
	})
}

func (r *WalletRepositoryImpl) Debit(ctx context.Context, tx *Transaction) (*Wallet, error) {
	return r.apply(ctx, tx, nil, func(balance decimal.Decimal) (decimal.Decimal, error) {
		if balance.LessThan(tx.Amount) {
			return decimal.Zero, ErrInsufficientFunds
		}
		return balance.Sub(tx.Amount), nil
	})
}

// apply runs the balance change and the ledger insert in one database
// transaction. The wallet row is guarded by its version column, so a
// concurrent writer makes this return ErrOptimisticLock instead of
// overwriting a balance it never saw.
func (r *WalletRepositoryImpl) apply(ctx context.Context, tx *Transaction, event *DepositEvent, next func(decimal.Decimal) (decimal.Decimal, error)) (*Wallet, error) {
	var updated Wallet
	err := r.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		var w Wallet
		if err := dbtx.Where("player_id = ?", tx.PlayerID).First(&w).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWalletNotFound
			}
			return err
		}

		newBalance, err := next(w.Balance)
		if err != nil {
			return err
		}

		now := time.Now()
		result := dbtx.Model(&Wallet{}).Where("wallet_id = ? AND version = ?", w.WalletID, w.Version).
			Updates(map[string]interface{}{
				"balance":    newBalance,
				"version":    gorm.Expr("version + 1"),
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOptimisticLock
		}

		tx.TransactionID = uuid.NewString()
		tx.WalletID = w.WalletID
		tx.BalanceBefore = w.Balance
		tx.BalanceAfter = newBalance
		tx.CreatedAt = now

		if err := dbtx.Create(tx).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateReference
			}
			return err
		}

		if event != nil {
			event.DepositTransactionID = tx.TransactionID
			event.PlayerID = tx.PlayerID
			event.Amount = tx.Amount
			event.Status = DepositEventPending
			event.CreatedAt = now
			event.UpdatedAt = now
			if err := dbtx.Create(event).Error; err != nil {
				return err
			}
		}

		w.Balance = newBalance
		w.Version++
		w.UpdatedAt = now
		updated = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *WalletRepositoryImpl) ListTransactions(ctx context.Context, playerID string) ([]Transaction, error) {
	txs := make([]Transaction, 0)
	err := r.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("created_at DESC").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// ClaimPendingDepositEvents locks up to limit pending events last touched
// before updatedBefore and stamps them with the current time, so another
// worker using the same cutoff skips them until the lease runs out.
func (r *WalletRepositoryImpl) ClaimPendingDepositEvents(ctx context.Context, updatedBefore time.Time, limit int) ([]DepositEvent, error) {
	events := make([]DepositEvent, 0)
	err := r.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		err := dbtx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND updated_at <= ?", DepositEventPending, updatedBefore).
			Order("created_at ASC").
			Limit(limit).
			Find(&events).Error
		if err != nil || len(events) == 0 {
			return err
		}

		ids := make([]string, 0, len(events))
		for _, ev := range events {
			ids = append(ids, ev.DepositTransactionID)
		}
		return dbtx.Model(&DepositEvent{}).
			Where("deposit_transaction_id IN ?", ids).
			Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending deposit events: %w", err)
	}
	return events, nil
}

func (r *WalletRepositoryImpl) MarkDepositEventProcessed(ctx context.Context, depositTransactionID string) error {
	err := r.db.WithContext(ctx).
		Model(&DepositEvent{}).
		Where("deposit_transaction_id = ?", depositTransactionID).
		Updates(map[string]interface{}{
			"status":     DepositEventProcessed,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": "",
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark deposit event processed: %w", err)
	}
	return nil
}

func (r *WalletRepositoryImpl) RecordDepositEventFailure(ctx context.Context, depositTransactionID string, reason string) error {
	err := r.db.WithContext(ctx).
		Model(&DepositEvent{}).
		Where("deposit_transaction_id = ?", depositTransactionID).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record deposit event failure: %w", err)
	}
	return nil
}
