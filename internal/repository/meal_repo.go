package repository

import (
	"context"
	"time"

	"messbill/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MealRepository interface {
	Create(ctx context.Context, m *model.Meal) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Meal, error)
	ExistsForUserDate(ctx context.Context, userID uuid.UUID, date time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByDateRange returns ALL members' meals — the daily cost-per-meal
	// denominator pools everyone eating that day.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]model.Meal, error)
	ListByUserAndDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.Meal, error)
	EarliestDate(ctx context.Context) (*time.Time, error)
}

type mealRepo struct{ db *gorm.DB }

func NewMealRepository(db *gorm.DB) MealRepository { return &mealRepo{db: db} }

func (r *mealRepo) Create(ctx context.Context, m *model.Meal) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *mealRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Meal, error) {
	var m model.Meal
	err := r.db.WithContext(ctx).First(&m, id).Error
	return &m, err
}

func (r *mealRepo) ExistsForUserDate(ctx context.Context, userID uuid.UUID, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Meal{}).
		Where("user_id = ? AND date = ?", userID, date).
		Count(&count).Error
	return count > 0, err
}

func (r *mealRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Meal{}, id).Error
}

func (r *mealRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.Meal, error) {
	var meals []model.Meal
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to).
		Order("date ASC").
		Find(&meals).Error
	return meals, err
}

func (r *mealRepo) ListByUserAndDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.Meal, error) {
	var meals []model.Meal
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&meals).Error
	return meals, err
}

func (r *mealRepo) EarliestDate(ctx context.Context) (*time.Time, error) {
	var result struct{ Earliest *time.Time }
	err := r.db.WithContext(ctx).Model(&model.Meal{}).
		Select("MIN(date) AS earliest").
		Scan(&result).Error
	return result.Earliest, err
}
