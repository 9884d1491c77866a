package reconcile_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mwhite-dev/budgetd/internal/debt"
	"github.com/mwhite-dev/budgetd/internal/expense"
	"github.com/mwhite-dev/budgetd/internal/reconcile"
)

var (
	testPlanID    = uuid.New()
	testDebtID    = uuid.New()
	testExpenseID = uuid.New()
)

func derivedDebt(initial, current, paid float64) *debt.Debt {
	sourceType := debt.SourceTypeExpense
	expenseID := testExpenseID
	monthKey := "2024-03"

	return &debt.Debt{
		ID:              testDebtID,
		PlanID:          testPlanID,
		Name:            "Utilities: Electricity (2024-03 2024)",
		Type:            debt.TypeOther,
		InitialBalance:  initial,
		CurrentBalance:  current,
		PaidAmount:      paid,
		SourceType:      &sourceType,
		SourceExpenseID: &expenseID,
		SourceMonthKey:  &monthKey,
	}
}

func debtRow(amount float64, paidAt time.Time) *debt.Payment {
	return &debt.Payment{ID: uuid.New(), DebtID: testDebtID, Amount: amount, PaidAt: paidAt, Source: "income"}
}

func expenseRow(amount float64, paidAt time.Time) *expense.Payment {
	return &expense.Payment{ID: uuid.New(), ExpenseID: testExpenseID, Amount: amount, PaidAt: paidAt, Source: expense.SourceIncome}
}

func TestService_HealDebt_Derived(t *testing.T) {
	at1 := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	at2 := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)

	t.Run("AlignedLedgersAreLeftAlone", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := reconcile.NewMockRepository(ctrl)
		repo.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(derivedDebt(100, 40, 60), nil)
		repo.EXPECT().GetExpense(gomock.Any(), testPlanID, testExpenseID).
			Return(&expense.Expense{ID: testExpenseID, PlanID: testPlanID, Amount: 100, PaidAmount: 60}, nil)
		repo.EXPECT().ListDebtPayments(gomock.Any(), testDebtID).
			Return([]*debt.Payment{debtRow(40, at2), debtRow(20, at1)}, nil)
		repo.EXPECT().ListExpensePayments(gomock.Any(), testExpenseID).
			Return([]*expense.Payment{expenseRow(40, at2), expenseRow(20, at1)}, nil)

		svc := reconcile.NewService(repo)

		require.NoError(t, svc.HealDebt(context.Background(), testPlanID, testDebtID))
	})

	t.Run("InsertsMissingExpenseMirror", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		d := derivedDebt(100, 40, 60)

		repo := reconcile.NewMockRepository(ctrl)
		tx := reconcile.NewMockHealTx(ctrl)

		repo.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(d, nil)
		repo.EXPECT().GetExpense(gomock.Any(), testPlanID, testExpenseID).
			Return(&expense.Expense{ID: testExpenseID, PlanID: testPlanID, Amount: 100, PaidAmount: 20}, nil)
		repo.EXPECT().ListDebtPayments(gomock.Any(), testDebtID).
			Return([]*debt.Payment{debtRow(40, at2), debtRow(20, at1)}, nil)
		repo.EXPECT().ListExpensePayments(gomock.Any(), testExpenseID).
			Return([]*expense.Payment{expenseRow(20, at1)}, nil)

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().CreateExpensePayment(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p *expense.Payment) error {
				assert.Equal(t, 40.0, p.Amount)
				assert.Equal(t, at2, p.PaidAt)
				return nil
			})
		tx.EXPECT().UpdateExpensePaidState(gomock.Any(), testExpenseID, 60.0, false).Return(nil)
		tx.EXPECT().UpdateDebtBalances(gomock.Any(), d).DoAndReturn(
			func(_ context.Context, d *debt.Debt) error {
				assert.Equal(t, 40.0, d.CurrentBalance)
				assert.Equal(t, 60.0, d.PaidAmount)
				assert.False(t, d.Paid)
				return nil
			})
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := reconcile.NewService(repo)

		require.NoError(t, svc.HealDebt(context.Background(), testPlanID, testDebtID))
	})

	t.Run("InsertsMissingDebtMirror", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		d := derivedDebt(100, 100, 0)

		repo := reconcile.NewMockRepository(ctrl)
		tx := reconcile.NewMockHealTx(ctrl)

		repo.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(d, nil)
		repo.EXPECT().GetExpense(gomock.Any(), testPlanID, testExpenseID).
			Return(&expense.Expense{ID: testExpenseID, PlanID: testPlanID, Amount: 100, PaidAmount: 20}, nil)
		repo.EXPECT().ListDebtPayments(gomock.Any(), testDebtID).Return(nil, nil)
		repo.EXPECT().ListExpensePayments(gomock.Any(), testExpenseID).
			Return([]*expense.Payment{expenseRow(20, at1)}, nil)

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().CreateDebtPayment(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p *debt.Payment) error {
				assert.Equal(t, 20.0, p.Amount)
				assert.Equal(t, at1, p.PaidAt)
				return nil
			})
		tx.EXPECT().UpdateExpensePaidState(gomock.Any(), testExpenseID, 20.0, false).Return(nil)
		tx.EXPECT().UpdateDebtBalances(gomock.Any(), d).DoAndReturn(
			func(_ context.Context, d *debt.Debt) error {
				assert.Equal(t, 80.0, d.CurrentBalance)
				assert.Equal(t, 20.0, d.PaidAmount)
				return nil
			})
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := reconcile.NewService(repo)

		require.NoError(t, svc.HealDebt(context.Background(), testPlanID, testDebtID))
	})

	t.Run("DuplicateAmountsMatchWithMultiplicity", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		d := derivedDebt(100, 60, 40)

		// Two identical 20.00 rows on the debt side, one on the expense
		// side: exactly one mirror is missing.
		repo := reconcile.NewMockRepository(ctrl)
		tx := reconcile.NewMockHealTx(ctrl)

		repo.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(d, nil)
		repo.EXPECT().GetExpense(gomock.Any(), testPlanID, testExpenseID).
			Return(&expense.Expense{ID: testExpenseID, PlanID: testPlanID, Amount: 100, PaidAmount: 20}, nil)
		repo.EXPECT().ListDebtPayments(gomock.Any(), testDebtID).
			Return([]*debt.Payment{debtRow(20, at1), debtRow(20, at1)}, nil)
		repo.EXPECT().ListExpensePayments(gomock.Any(), testExpenseID).
			Return([]*expense.Payment{expenseRow(20, at1)}, nil)

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().CreateExpensePayment(gomock.Any(), gomock.Any()).Return(nil).Times(1)
		tx.EXPECT().UpdateExpensePaidState(gomock.Any(), testExpenseID, 40.0, false).Return(nil)
		tx.EXPECT().UpdateDebtBalances(gomock.Any(), d).Return(nil)
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := reconcile.NewService(repo)

		require.NoError(t, svc.HealDebt(context.Background(), testPlanID, testDebtID))
	})

	t.Run("PaidCapsAtExpenseAmount", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		d := derivedDebt(100, 100, 0)

		repo := reconcile.NewMockRepository(ctrl)
		tx := reconcile.NewMockHealTx(ctrl)

		repo.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(d, nil)
		repo.EXPECT().GetExpense(gomock.Any(), testPlanID, testExpenseID).
			Return(&expense.Expense{ID: testExpenseID, PlanID: testPlanID, Amount: 100, PaidAmount: 0}, nil)
		repo.EXPECT().ListDebtPayments(gomock.Any(), testDebtID).Return(nil, nil)
		repo.EXPECT().ListExpensePayments(gomock.Any(), testExpenseID).
			Return([]*expense.Payment{expenseRow(80, at2), expenseRow(50, at1)}, nil)

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().CreateDebtPayment(gomock.Any(), gomock.Any()).Return(nil).Times(2)
		tx.EXPECT().UpdateExpensePaidState(gomock.Any(), testExpenseID, 100.0, true).Return(nil)
		tx.EXPECT().UpdateDebtBalances(gomock.Any(), d).DoAndReturn(
			func(_ context.Context, d *debt.Debt) error {
				assert.Equal(t, 0.0, d.CurrentBalance)
				assert.True(t, d.Paid)
				return nil
			})
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := reconcile.NewService(repo)

		require.NoError(t, svc.HealDebt(context.Background(), testPlanID, testDebtID))
	})

	t.Run("MissingBackingExpenseIsNoOp", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := reconcile.NewMockRepository(ctrl)
		repo.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(derivedDebt(100, 100, 0), nil)
		repo.EXPECT().GetExpense(gomock.Any(), testPlanID, testExpenseID).Return(nil, expense.ErrNotFound)

		svc := reconcile.NewService(repo)

		require.NoError(t, svc.HealDebt(context.Background(), testPlanID, testDebtID))
	})
}

func TestService_HealDebt_Regular(t *testing.T) {
	regular := func(paid float64) *debt.Debt {
		return &debt.Debt{ID: testDebtID, PlanID: testPlanID, Type: debt.TypeLoan, InitialBalance: 500, CurrentBalance: 200, PaidAmount: paid}
	}

	at := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("WithinToleranceIsLeftAlone", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := reconcile.NewMockRepository(ctrl)
		repo.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(regular(300.005), nil)
		repo.EXPECT().ListDebtPayments(gomock.Any(), testDebtID).
			Return([]*debt.Payment{debtRow(300, at)}, nil)

		svc := reconcile.NewService(repo)

		require.NoError(t, svc.HealDebt(context.Background(), testPlanID, testDebtID))
	})

	t.Run("RealignsToLedgerSum", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		d := regular(250)

		repo := reconcile.NewMockRepository(ctrl)
		tx := reconcile.NewMockHealTx(ctrl)

		repo.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(d, nil)
		repo.EXPECT().ListDebtPayments(gomock.Any(), testDebtID).
			Return([]*debt.Payment{debtRow(200, at), debtRow(100, at)}, nil)
		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().UpdateDebtBalances(gomock.Any(), d).DoAndReturn(
			func(_ context.Context, d *debt.Debt) error {
				assert.Equal(t, 300.0, d.PaidAmount)
				return nil
			})
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := reconcile.NewService(repo)

		require.NoError(t, svc.HealDebt(context.Background(), testPlanID, testDebtID))
	})

	t.Run("LegacyLumpWithEmptyLedgerIsLeftAlone", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// A paid total with no ledger rows is pre-ledger data waiting for a
		// backfill. Healing must not re-align it down to zero: no Begin
		// expected means no write happens.
		repo := reconcile.NewMockRepository(ctrl)
		repo.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(regular(500), nil)
		repo.EXPECT().ListDebtPayments(gomock.Any(), testDebtID).Return(nil, nil)

		svc := reconcile.NewService(repo)

		require.NoError(t, svc.HealDebt(context.Background(), testPlanID, testDebtID))
	})
}

func TestService_BackfillHistory(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	legacy := func(paid, amount float64) *debt.Debt {
		due := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

		return &debt.Debt{
			ID:             testDebtID,
			PlanID:         testPlanID,
			Type:           debt.TypeLoan,
			InitialBalance: 1200,
			CurrentBalance: 1200 - paid,
			PaidAmount:     paid,
			Amount:         amount,
			DueDate:        &due,
		}
	}

	t.Run("SynthesizesMonthlyRows", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		d := legacy(300, 100)

		repo := reconcile.NewMockRepository(ctrl)
		tx := reconcile.NewMockHealTx(ctrl)

		repo.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(d, nil)
		repo.EXPECT().ListDebtPayments(gomock.Any(), testDebtID).Return(nil, nil)
		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)

		var rows []*debt.Payment

		tx.EXPECT().CreateDebtPayment(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p *debt.Payment) error {
				rows = append(rows, p)
				return nil
			}).Times(3)
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := reconcile.NewService(repo)

		require.NoError(t, svc.BackfillHistory(context.Background(), testPlanID, testDebtID, now))

		require.Len(t, rows, 3)
		assert.Equal(t, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), rows[0].PaidAt)
		assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), rows[1].PaidAt)
		assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), rows[2].PaidAt)

		var total float64
		for _, p := range rows {
			total += p.Amount
		}
		assert.Equal(t, 300.0, total)
	})

	t.Run("MessyTotalIsLeftAlone", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// 250 paid against 100-a-month is 2.5 installments: no honest
		// reconstruction exists.
		repo := reconcile.NewMockRepository(ctrl)
		repo.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(legacy(250, 100), nil)
		repo.EXPECT().ListDebtPayments(gomock.Any(), testDebtID).Return(nil, nil)

		svc := reconcile.NewService(repo)

		require.NoError(t, svc.BackfillHistory(context.Background(), testPlanID, testDebtID, now))
	})

	t.Run("NearIntegerQuotientRounds", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// 299.99 over 100-a-month sits within the lump tolerance of 3.
		d := legacy(299.99, 100)

		repo := reconcile.NewMockRepository(ctrl)
		tx := reconcile.NewMockHealTx(ctrl)

		repo.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(d, nil)
		repo.EXPECT().ListDebtPayments(gomock.Any(), testDebtID).Return(nil, nil)
		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)

		var total float64

		tx.EXPECT().CreateDebtPayment(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p *debt.Payment) error {
				total += p.Amount
				return nil
			}).Times(3)
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := reconcile.NewService(repo)

		require.NoError(t, svc.BackfillHistory(context.Background(), testPlanID, testDebtID, now))
		assert.InDelta(t, 299.99, total, 0.001)
	})

	t.Run("ExistingRowsBlockBackfill", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := reconcile.NewMockRepository(ctrl)
		repo.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(legacy(300, 100), nil)
		repo.EXPECT().ListDebtPayments(gomock.Any(), testDebtID).
			Return([]*debt.Payment{debtRow(300, now)}, nil)

		svc := reconcile.NewService(repo)

		require.NoError(t, svc.BackfillHistory(context.Background(), testPlanID, testDebtID, now))
	})

	t.Run("NothingPaidNothingToDo", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := reconcile.NewMockRepository(ctrl)
		repo.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(legacy(0, 100), nil)

		svc := reconcile.NewService(repo)

		require.NoError(t, svc.BackfillHistory(context.Background(), testPlanID, testDebtID, now))
	})
}
