package player

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"referral_wallet/internal/apperr"
)

var (
	ErrPlayerNotFound = apperr.New(apperr.KindNotFound, "PLAYER_NOT_FOUND", "Player not found")
	// ErrPlayerExists is returned when a unique column (id, phone number or
	// referral code) is already taken.
	ErrPlayerExists = apperr.New(apperr.KindConflict, "PLAYER_EXISTS", "Player already exists")
)

type PlayerRepository interface {
	Create(ctx context.Context, p *Player) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Player, error)
	FindByIDs(ctx context.Context, ids []string) ([]Player, error)
	FindByReferralCode(ctx context.Context, code string) (*Player, error)
	FindByPhone(ctx context.Context, phone string) (*Player, error)
}

type PlayerRepositoryImpl struct {
	db *gorm.DB
}

func NewPlayerRepository(db *gorm.DB) *PlayerRepositoryImpl {
	return &PlayerRepositoryImpl{db: db}
}

func (r *PlayerRepositoryImpl) Create(ctx context.Context, p *Player) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrPlayerExists
		}
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *PlayerRepositoryImpl) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Player{}).Error; err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}
	return nil
}

func (r *PlayerRepositoryImpl) FindByID(ctx context.Context, id string) (*Player, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *PlayerRepositoryImpl) FindByReferralCode(ctx context.Context, code string) (*Player, error) {
	return r.findOne(ctx, "referral_code = ?", code)
}

func (r *PlayerRepositoryImpl) FindByPhone(ctx context.Context, phone string) (*Player, error) {
	return r.findOne(ctx, "phone_number = ?", phone)
}

func (r *PlayerRepositoryImpl) FindByIDs(ctx context.Context, ids []string) ([]Player, error) {
	players := make([]Player, 0, len(ids))
	if len(ids) == 0 {
		return players, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at ASC").
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find players: %w", err)
	}
	return players, nil
}

func (r *PlayerRepositoryImpl) findOne(ctx context.Context, query string, arg string) (*Player, error) {
	var p Player
	err := r.db.WithContext(ctx).Where(query, arg).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &p, nil
}
