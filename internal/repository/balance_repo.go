package repository

import (
	"context"

	"messbill/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BalanceRepository interface {
	Create(ctx context.Context, b *model.WeeklyBalance) error
	Save(ctx context.Context, b *model.WeeklyBalance) error
	Find(ctx context.Context, userID uuid.UUID, year, month, week int) (*model.WeeklyBalance, error)
	ListByUserMonth(ctx context.Context, userID uuid.UUID, year, month int) ([]model.WeeklyBalance, error)
	// FindLatest returns the chronologically last computed week for a user.
	FindLatest(ctx context.Context, userID uuid.UUID) (*model.WeeklyBalance, error)
	DeleteAll(ctx context.Context) error
}

type balanceRepo struct{ db *gorm.DB }

func NewBalanceRepository(db *gorm.DB) BalanceRepository { return &balanceRepo{db: db} }

func (r *balanceRepo) Create(ctx context.Context, b *model.WeeklyBalance) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *balanceRepo) Save(ctx context.Context, b *model.WeeklyBalance) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *balanceRepo) Find(ctx context.Context, userID uuid.UUID, year, month, week int) (*model.WeeklyBalance, error) {
	var b model.WeeklyBalance
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND year = ? AND month = ? AND week = ?", userID, year, month, week).
		First(&b).Error
	return &b, err
}

func (r *balanceRepo) ListByUserMonth(ctx context.Context, userID uuid.UUID, year, month int) ([]model.WeeklyBalance, error) {
	var balances []model.WeeklyBalance
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND year = ? AND month = ?", userID, year, month).
		Order("week ASC").
		Find(&balances).Error
	return balances, err
}

func (r *balanceRepo) FindLatest(ctx context.Context, userID uuid.UUID) (*model.WeeklyBalance, error) {
	var b model.WeeklyBalance
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("year DESC, month DESC, week DESC").
		First(&b).Error
	return &b, err
}

func (r *balanceRepo) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.WeeklyBalance{}).Error
}
