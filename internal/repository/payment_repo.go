package repository

import (
	"context"
	"time"

	"messbill/internal/dto"
	"messbill/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *model.AdvancePayment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.AdvancePayment, error)
	// Delete removes a ledger entry; its monetary effect is reversed by the
	// recalculation the caller triggers afterwards, never by editing history.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter dto.PaymentFilter) ([]model.AdvancePayment, error)
	SumByUserAndDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepo{db: db} }

func (r *paymentRepo) Create(ctx context.Context, p *model.AdvancePayment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *paymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.AdvancePayment, error) {
	var p model.AdvancePayment
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *paymentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.AdvancePayment{}, id).Error
}

func (r *paymentRepo) List(ctx context.Context, filter dto.PaymentFilter) ([]model.AdvancePayment, error) {
	q := r.db.WithContext(ctx).Model(&model.AdvancePayment{})

	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.From != "" {
		q = q.Where("date >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("date <= ?", filter.To)
	}

	var payments []model.AdvancePayment
	err := q.Order("date ASC, created_at ASC").Find(&payments).Error
	return payments, err
}

func (r *paymentRepo) SumByUserAndDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.AdvancePayment{}).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}
