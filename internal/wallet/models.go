package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeDeposit              TransactionType = "DEPOSIT"
	TypeWithdrawal           TransactionType = "WITHDRAWAL"
	TypeReferralBonus        TransactionType = "REFERRAL_BONUS"
	TypeReferralDepositBonus TransactionType = "REFERRAL_DEPOSIT_BONUS"
)

func (t TransactionType) IsBonus() bool {
	return t == TypeReferralBonus || t == TypeReferralDepositBonus
}

type Wallet struct {
	WalletID  string          `gorm:"column:wallet_id;primaryKey;type:uuid" json:"-"`
	PlayerID  string          `gorm:"column:player_id;type:varchar(32);not null;uniqueIndex" json:"playerId"`
	Balance   decimal.Decimal `gorm:"column:balance;type:numeric(20,2);not null;default:0;check:chk_wallets_balance_non_negative,balance >= 0" json:"balance"`
	Version   int             `gorm:"column:version;not null;default:1" json:"-"`
	CreatedAt time.Time       `gorm:"column:created_at;not null;default:now()" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"column:updated_at;not null;default:now()" json:"updatedAt"`
}

// Transaction is an append-only ledger entry. PlayerID is the beneficiary;
// SourcePlayerID names the player whose action produced a bonus.
type Transaction struct {
	TransactionID  string          `gorm:"column:transaction_id;primaryKey;type:uuid" json:"id"`
	WalletID       string          `gorm:"column:wallet_id;type:uuid;not null;index" json:"-"`
	PlayerID       string          `gorm:"column:player_id;type:varchar(32);not null;index:idx_wallet_tx_player_created,priority:1" json:"playerId"`
	Type           TransactionType `gorm:"column:type;type:varchar(32);not null;uniqueIndex:idx_wallet_tx_type_reference,priority:1" json:"type"`
	Amount         decimal.Decimal `gorm:"column:amount;type:numeric(20,2);not null" json:"amount"`
	BalanceBefore  decimal.Decimal `gorm:"column:balance_before;type:numeric(20,2);not null" json:"balanceBefore"`
	BalanceAfter   decimal.Decimal `gorm:"column:balance_after;type:numeric(20,2);not null" json:"balanceAfter"`
	SourcePlayerID *string         `gorm:"column:source_player_id;type:varchar(32)" json:"sourcePlayerId,omitempty"`
	ReferenceID    *string         `gorm:"column:reference_id;type:varchar(255);uniqueIndex:idx_wallet_tx_type_reference,priority:2" json:"-"`
	CreatedAt      time.Time       `gorm:"column:created_at;not null;index:idx_wallet_tx_player_created,priority:2,sort:desc" json:"createdAt"`
}

func (Transaction) TableName() string {
	return "wallet_transactions"
}

type DepositEventStatus string

const (
	DepositEventPending   DepositEventStatus = "pending"
	DepositEventProcessed DepositEventStatus = "processed"
)

// DepositEvent is written in the same database transaction as the deposit it
// describes, so the downstream bonus hook can be re-driven after a failure.
type DepositEvent struct {
	DepositTransactionID string             `gorm:"column:deposit_transaction_id;primaryKey;type:uuid"`
	PlayerID             string             `gorm:"column:player_id;type:varchar(32);not null"`
	Amount               decimal.Decimal    `gorm:"column:amount;type:numeric(20,2);not null"`
	Status               DepositEventStatus `gorm:"column:status;type:varchar(16);not null;index"`
	Attempts             int                `gorm:"column:attempts;not null;default:0"`
	LastError            string             `gorm:"column:last_error;type:text"`
	CreatedAt            time.Time          `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt            time.Time          `gorm:"column:updated_at;not null;default:now()"`
}

func (DepositEvent) TableName() string {
	return "wallet_deposit_events"
}

// BonusCredit describes a referral credit. ReferenceID makes the credit
// idempotent: replaying the same (Type, ReferenceID) credits nothing.
type BonusCredit struct {
	PlayerID       string
	Amount         decimal.Decimal
	SourcePlayerID string
	Type           TransactionType
	ReferenceID    string
}

type DepositResult struct {
	Wallet        *Wallet
	TransactionID string
	// BonusErr reports a failed referral hook. The deposit itself is
	// committed when this is set.
	BonusErr error
}
