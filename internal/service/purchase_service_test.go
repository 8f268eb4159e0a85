package service

import (
	"context"
	"testing"
	"time"

	"messbill/internal/dto"
	"messbill/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purchaseFixture(t *testing.T, now time.Time) (*fixture, *purchaseService, *model.User) {
	t.Helper()
	f := newFixture(now)
	alice := f.users.add("alice")
	svc := NewPurchaseService(f.purchases, f.svc).(*purchaseService)
	svc.now = func() time.Time { return f.now }
	return f, svc, alice
}

func TestPurchaseUpdate_NotesOnlyKeepsAmount(t *testing.T) {
	f, svc, alice := purchaseFixture(t, june(7))
	f.addMeal(alice.ID, june(2))

	created, err := svc.Create(context.Background(), alice.ID, dto.CreatePurchaseRequest{
		Date: "2026-06-02", Amount: decimal.NewFromInt(40),
	})
	require.NoError(t, err)

	notes := "receipt attached"
	id, _ := uuid.Parse(created.ID)
	updated, err := svc.Update(context.Background(), alice.ID, model.RoleMember, id, dto.UpdatePurchaseRequest{
		Notes: &notes,
	})
	require.NoError(t, err)
	eq(t, 40, updated.Amount)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, notes, *updated.Notes)

	// The ripple after the update must still see the original amount.
	b, err := f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 1)
	require.NoError(t, err)
	eq(t, 40, b.TotalPurchases)
	eq(t, 0, b.WeeklyBalance) // bought 40, ate the lone 40-cost meal
}

func TestPurchaseUpdate_NewAmountRipples(t *testing.T) {
	f, svc, alice := purchaseFixture(t, june(7))
	f.addMeal(alice.ID, june(2))

	created, err := svc.Create(context.Background(), alice.ID, dto.CreatePurchaseRequest{
		Date: "2026-06-02", Amount: decimal.NewFromInt(40),
	})
	require.NoError(t, err)

	amount := decimal.NewFromInt(70)
	id, _ := uuid.Parse(created.ID)
	updated, err := svc.Update(context.Background(), alice.ID, model.RoleMember, id, dto.UpdatePurchaseRequest{
		Amount: &amount,
	})
	require.NoError(t, err)
	eq(t, 70, updated.Amount)

	b, err := f.balanceRepo.Find(context.Background(), alice.ID, 2026, 6, 1)
	require.NoError(t, err)
	eq(t, 70, b.TotalPurchases)
}

func TestPurchaseUpdate_OwnershipEnforced(t *testing.T) {
	f, svc, alice := purchaseFixture(t, june(7))
	bob := f.users.add("bob")

	created, err := svc.Create(context.Background(), alice.ID, dto.CreatePurchaseRequest{
		Date: "2026-06-02", Amount: decimal.NewFromInt(40),
	})
	require.NoError(t, err)

	id, _ := uuid.Parse(created.ID)
	_, err = svc.Update(context.Background(), bob.ID, model.RoleMember, id, dto.UpdatePurchaseRequest{})
	assert.ErrorIs(t, err, ErrNotOwner)
}
