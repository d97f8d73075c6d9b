package referral

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"referral_wallet/internal/apperr"
)

var (
	ErrReferralExists   = apperr.New(apperr.KindConflict, "REFERRAL_EXISTS", "Player has already been referred")
	ErrReferralNotFound = apperr.New(apperr.KindNotFound, "REFERRAL_NOT_FOUND", "Referral not found")

	ErrDepositBonusExists = errors.New("deposit bonus already recorded")
)

type ReferralRepository interface {
	Create(ctx context.Context, r *Referral) error
	FindByPair(ctx context.Context, referrerID string, referredID string) (*Referral, error)
	AppendDepositBonus(ctx context.Context, b *DepositBonus) error
	ListByReferrer(ctx context.Context, referrerID string) ([]Referral, error)
	Totals(ctx context.Context, referrerID string) (*Totals, error)
}

type ReferralRepositoryImpl struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepositoryImpl {
	return &ReferralRepositoryImpl{db: db}
}

func (r *ReferralRepositoryImpl) Create(ctx context.Context, ref *Referral) error {
	if ref.ID == "" {
		ref.ID = uuid.NewString()
	}
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = time.Now()
	}
	err := r.db.WithContext(ctx).Omit("DepositBonuses").Create(ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrReferralExists
		}
		return fmt.Errorf("failed to create referral: %w", err)
	}
	return nil
}

func (r *ReferralRepositoryImpl) FindByPair(ctx context.Context, referrerID string, referredID string) (*Referral, error) {
	var ref Referral
	err := r.db.WithContext(ctx).
		Where("referrer_id = ? AND referred_id = ?", referrerID, referredID).
		First(&ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferralNotFound
		}
		return nil, fmt.Errorf("failed to get referral: %w", err)
	}
	return &ref, nil
}

func (r *ReferralRepositoryImpl) AppendDepositBonus(ctx context.Context, b *DepositBonus) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	err := r.db.WithContext(ctx).Create(b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDepositBonusExists
		}
		return fmt.Errorf("failed to append deposit bonus: %w", err)
	}
	return nil
}

func (r *ReferralRepositoryImpl) ListByReferrer(ctx context.Context, referrerID string) ([]Referral, error) {
	refs := make([]Referral, 0)
	err := r.db.WithContext(ctx).
		Preload("DepositBonuses", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("referrer_id = ?", referrerID).
		Order("created_at ASC").
		Find(&refs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	return refs, nil
}

func (r *ReferralRepositoryImpl) Totals(ctx context.Context, referrerID string) (*Totals, error) {
	var counts struct {
		Referrals              int64
		RegistrationBonusCount int64
	}
	err := r.db.WithContext(ctx).
		Model(&Referral{}).
		Select("COUNT(*) AS referrals, COUNT(*) FILTER (WHERE registration_bonus) AS registration_bonus_count").
		Where("referrer_id = ?", referrerID).
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count referrals: %w", err)
	}

	var sum struct {
		Total decimal.NullDecimal
	}
	err = r.db.WithContext(ctx).
		Model(&DepositBonus{}).
		Select("SUM(referral_deposit_bonuses.amount) AS total").
		Joins("JOIN referrals ON referrals.id = referral_deposit_bonuses.referral_id").
		Where("referrals.referrer_id = ?", referrerID).
		Scan(&sum).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum deposit bonuses: %w", err)
	}

	totals := &Totals{
		Referrals:              counts.Referrals,
		RegistrationBonusCount: counts.RegistrationBonusCount,
		DepositBonusSum:        decimal.Zero,
	}
	if sum.Total.Valid {
		totals.DepositBonusSum = sum.Total.Decimal
	}
	return totals, nil
}
