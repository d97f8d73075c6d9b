package player

import (
	"time"

	"github.com/shopspring/decimal"
)

type Player struct {
	ID           string    `gorm:"column:id;primaryKey;type:varchar(32)"`
	Name         string    `gorm:"column:name;type:varchar(50);not null"`
	PhoneNumber  string    `gorm:"column:phone_number;type:varchar(20);not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(100);not null"`
	IPAddress    string    `gorm:"column:ip_address;type:varchar(64);not null"`
	OriginURL    string    `gorm:"column:origin_url;type:text;not null"`
	ReferralCode string    `gorm:"column:referral_code;type:varchar(40);not null;uniqueIndex"`
	ReferredBy   *string   `gorm:"column:referred_by;type:varchar(32);index"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// Summary is the public projection of a player.
type Summary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PhoneNumber  string    `json:"phoneNumber"`
	ReferralCode string    `json:"referralCode"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (p *Player) Summary() Summary {
	return Summary{
		ID:           p.ID,
		Name:         p.Name,
		PhoneNumber:  p.PhoneNumber,
		ReferralCode: p.ReferralCode,
		CreatedAt:    p.CreatedAt,
	}
}

type Profile struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	PhoneNumber  string          `json:"phoneNumber"`
	ReferralCode string          `json:"referralCode"`
	Balance      decimal.Decimal `json:"balance"`
	RegisteredAt time.Time       `json:"registeredAt"`
}
