package referral

import (
	"time"

	"github.com/shopspring/decimal"
)

// Referral links a referrer to the player they brought in. A player can be
// referred at most once, which the unique index on referred_id enforces.
type Referral struct {
	ID                string         `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	ReferrerID        string         `gorm:"column:referrer_id;type:varchar(32);not null;uniqueIndex:idx_referrals_pair,priority:1" json:"referrerId"`
	ReferredID        string         `gorm:"column:referred_id;type:varchar(32);not null;uniqueIndex:idx_referrals_pair,priority:2;uniqueIndex:idx_referrals_referred" json:"referredId"`
	RegistrationBonus bool           `gorm:"column:registration_bonus;not null;default:false" json:"registrationBonus"`
	DepositBonuses    []DepositBonus `gorm:"foreignKey:ReferralID;references:ID" json:"depositBonuses"`
	CreatedAt         time.Time      `gorm:"column:created_at;not null;default:now()" json:"createdAt"`
}

type DepositBonus struct {
	ID                   string          `gorm:"column:id;primaryKey;type:uuid" json:"-"`
	ReferralID           string          `gorm:"column:referral_id;type:uuid;not null;index" json:"-"`
	DepositTransactionID string          `gorm:"column:deposit_transaction_id;type:uuid;not null;uniqueIndex" json:"-"`
	Amount               decimal.Decimal `gorm:"column:amount;type:numeric(20,2);not null" json:"amount"`
	Percentage           decimal.Decimal `gorm:"column:percentage;type:numeric(5,2);not null" json:"percentage"`
	DepositAmount        decimal.Decimal `gorm:"column:deposit_amount;type:numeric(20,2);not null" json:"depositAmount"`
	CreatedAt            time.Time       `gorm:"column:created_at;not null;default:now()" json:"createdAt"`
}

func (DepositBonus) TableName() string {
	return "referral_deposit_bonuses"
}

type Stats struct {
	TotalReferrals         int64           `json:"totalReferrals"`
	TotalRegistrationBonus decimal.Decimal `json:"totalRegistrationBonus"`
	TotalDepositBonus      decimal.Decimal `json:"totalDepositBonus"`
}

// Totals is the raw aggregate a repository reports for one referrer.
type Totals struct {
	Referrals              int64
	RegistrationBonusCount int64
	DepositBonusSum        decimal.Decimal
}
