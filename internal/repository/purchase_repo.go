package repository

import (
	"context"
	"time"

	"messbill/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, p *model.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	Update(ctx context.Context, p *model.Purchase) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDateRange(ctx context.Context, from, to time.Time) ([]model.Purchase, error)
	ListByUserAndDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.Purchase, error)
	SumByUserAndDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
	EarliestDate(ctx context.Context) (*time.Time, error)
}

type purchaseRepo struct{ db *gorm.DB }

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository { return &purchaseRepo{db: db} }

func (r *purchaseRepo) Create(ctx context.Context, p *model.Purchase) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *purchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var p model.Purchase
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *purchaseRepo) Update(ctx context.Context, p *model.Purchase) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *purchaseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Purchase{}, id).Error
}

func (r *purchaseRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.Purchase, error) {
	var purchases []model.Purchase
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to).
		Order("date ASC").
		Find(&purchases).Error
	return purchases, err
}

func (r *purchaseRepo) ListByUserAndDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.Purchase, error) {
	var purchases []model.Purchase
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&purchases).Error
	return purchases, err
}

func (r *purchaseRepo) SumByUserAndDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.Purchase{}).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *purchaseRepo) EarliestDate(ctx context.Context) (*time.Time, error) {
	var result struct{ Earliest *time.Time }
	err := r.db.WithContext(ctx).Model(&model.Purchase{}).
		Select("MIN(date) AS earliest").
		Scan(&result).Error
	return result.Earliest, err
}
