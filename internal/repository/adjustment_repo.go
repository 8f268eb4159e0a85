package repository

import (
	"context"

	"messbill/internal/dto"
	"messbill/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AdjustmentRepository interface {
	Create(ctx context.Context, a *model.DueAdjustment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DueAdjustment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter dto.AdjustmentFilter) ([]model.DueAdjustment, error)
	// SumByUserWeek returns the net signed delta of all adjustments applied
	// to one (user, year, month, week) — the value folded into
	// WeeklyBalance.TotalDueAdjustments during recalculation.
	SumByUserWeek(ctx context.Context, userID uuid.UUID, year, month, week int) (decimal.Decimal, error)
}

type adjustmentRepo struct{ db *gorm.DB }

func NewAdjustmentRepository(db *gorm.DB) AdjustmentRepository { return &adjustmentRepo{db: db} }

func (r *adjustmentRepo) Create(ctx context.Context, a *model.DueAdjustment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *adjustmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.DueAdjustment, error) {
	var a model.DueAdjustment
	err := r.db.WithContext(ctx).First(&a, id).Error
	return &a, err
}

func (r *adjustmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.DueAdjustment{}, id).Error
}

func (r *adjustmentRepo) List(ctx context.Context, filter dto.AdjustmentFilter) ([]model.DueAdjustment, error) {
	q := r.db.WithContext(ctx).Model(&model.DueAdjustment{})

	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Year != 0 {
		q = q.Where("year = ?", filter.Year)
	}
	if filter.Month != 0 {
		q = q.Where("month = ?", filter.Month)
	}
	if filter.Week != 0 {
		q = q.Where("week = ?", filter.Week)
	}

	var adjustments []model.DueAdjustment
	err := q.Order("adjustment_date ASC").Find(&adjustments).Error
	return adjustments, err
}

func (r *adjustmentRepo) SumByUserWeek(ctx context.Context, userID uuid.UUID, year, month, week int) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.DueAdjustment{}).
		Where("user_id = ? AND year = ? AND month = ? AND week = ?", userID, year, month, week).
		Select("COALESCE(SUM(adjustment_amount), 0)").
		Scan(&sum).Error
	return sum, err
}
