package debt_test

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
)

var (
	testPlanID    = uuid.New()
	testDebtID    = uuid.New()
	testExpenseID = uuid.New()
)

func derivedDebt(initial, current float64) *debt.Debt {
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
		Amount:          initial,
		SourceType:      &sourceType,
		SourceExpenseID: &expenseID,
		SourceMonthKey:  &monthKey,
	}
}

func TestService_Create_ScheduledAmount(t *testing.T) {
	type testCase struct {
		name       string
		params     debt.CreateParams
		wantAmount float64
	}

	months := 12

	tests := []testCase{
		{
			name: "SpreadOverInstallments",
			params: debt.CreateParams{
				PlanID:            testPlanID,
				Name:              "Car loan",
				Type:              debt.TypeLoan,
				InitialBalance:    1200,
				InstallmentMonths: &months,
			},
			wantAmount: 100,
		},
		{
			name: "RaisedToMonthlyMinimum",
			params: debt.CreateParams{
				PlanID:            testPlanID,
				Name:              "Car loan",
				Type:              debt.TypeLoan,
				InitialBalance:    1200,
				InstallmentMonths: &months,
				MonthlyMinimum:    150,
			},
			wantAmount: 150,
		},
		{
			name: "NoInstallmentsMeansFullBalance",
			params: debt.CreateParams{
				PlanID:         testPlanID,
				Name:           "Dentist",
				Type:           debt.TypeOther,
				InitialBalance: 300,
			},
			wantAmount: 300,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := debt.NewMockRepository(ctrl)
			repo.EXPECT().CreateDebt(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, d *debt.Debt) error {
					d.ID = uuid.New()
					return nil
				})

			svc := debt.NewService(repo)

			d, err := svc.Create(context.Background(), tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAmount, d.Amount)
			assert.Equal(t, d.InitialBalance, d.CurrentBalance)
			assert.False(t, d.Paid)
		})
	}
}

func TestService_UpsertExpenseDebt(t *testing.T) {
	t.Run("CreatesDerivedDebt", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := debt.NewMockRepository(ctrl)
		repo.EXPECT().
			GetDebtBySourceExpense(gomock.Any(), testPlanID, testExpenseID, "2024-03").
			Return(nil, debt.ErrNotFound)
		repo.EXPECT().CreateDebt(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, d *debt.Debt) error {
				assert.Equal(t, "Utilities: Electricity (2024-03 2024)", d.Name)
				assert.Equal(t, debt.TypeOther, d.Type)
				assert.Equal(t, 75.0, d.InitialBalance)
				assert.Equal(t, 75.0, d.CurrentBalance)
				assert.Equal(t, 75.0, d.Amount)
				assert.True(t, d.IsExpenseDerived())
				d.ID = uuid.New()
				return nil
			})

		svc := debt.NewService(repo)

		d, err := svc.UpsertExpenseDebt(context.Background(), debt.UpsertExpenseParams{
			PlanID:          testPlanID,
			ExpenseID:       testExpenseID,
			MonthKey:        "2024-03",
			Year:            2024,
			CategoryName:    "Utilities",
			ExpenseName:     "Electricity",
			RemainingAmount: 75,
		})
		require.NoError(t, err)
		require.NotNil(t, d)
	})

	t.Run("SettledExpenseZeroesButKeepsDebt", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		existing := derivedDebt(100, 40)

		repo := debt.NewMockRepository(ctrl)
		repo.EXPECT().
			GetDebtBySourceExpense(gomock.Any(), testPlanID, testExpenseID, "2024-03").
			Return(existing, nil)
		repo.EXPECT().UpdateDebt(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, d *debt.Debt) error {
				assert.Equal(t, 0.0, d.CurrentBalance)
				assert.True(t, d.Paid)
				assert.Equal(t, 100.0, d.PaidAmount)
				assert.Equal(t, 100.0, d.InitialBalance)
				return nil
			})

		svc := debt.NewService(repo)

		d, err := svc.UpsertExpenseDebt(context.Background(), debt.UpsertExpenseParams{
			PlanID:          testPlanID,
			ExpenseID:       testExpenseID,
			MonthKey:        "2024-03",
			RemainingAmount: 0,
		})
		require.NoError(t, err)
		require.NotNil(t, d)
	})

	t.Run("SettledExpenseWithoutDebtIsNoOp", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := debt.NewMockRepository(ctrl)
		repo.EXPECT().
			GetDebtBySourceExpense(gomock.Any(), testPlanID, testExpenseID, "2024-03").
			Return(nil, debt.ErrNotFound)

		svc := debt.NewService(repo)

		d, err := svc.UpsertExpenseDebt(context.Background(), debt.UpsertExpenseParams{
			PlanID:          testPlanID,
			ExpenseID:       testExpenseID,
			MonthKey:        "2024-03",
			RemainingAmount: -5,
		})
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("InitialBalanceNeverShrinks", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		existing := derivedDebt(100, 100)

		repo := debt.NewMockRepository(ctrl)
		repo.EXPECT().
			GetDebtBySourceExpense(gomock.Any(), testPlanID, testExpenseID, "2024-03").
			Return(existing, nil)
		repo.EXPECT().UpdateDebt(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, d *debt.Debt) error {
				assert.Equal(t, 100.0, d.InitialBalance) // sticky
				assert.Equal(t, 30.0, d.CurrentBalance)
				assert.Equal(t, 70.0, d.PaidAmount)
				assert.False(t, d.Paid)
				return nil
			})

		svc := debt.NewService(repo)

		_, err := svc.UpsertExpenseDebt(context.Background(), debt.UpsertExpenseParams{
			PlanID:          testPlanID,
			ExpenseID:       testExpenseID,
			MonthKey:        "2024-03",
			ExpenseName:     "Electricity",
			RemainingAmount: 30,
		})
		require.NoError(t, err)
	})

	t.Run("InitialBalanceRatchetsUp", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		existing := derivedDebt(100, 100)

		repo := debt.NewMockRepository(ctrl)
		repo.EXPECT().
			GetDebtBySourceExpense(gomock.Any(), testPlanID, testExpenseID, "2024-03").
			Return(existing, nil)
		repo.EXPECT().UpdateDebt(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, d *debt.Debt) error {
				assert.Equal(t, 150.0, d.InitialBalance)
				assert.Equal(t, 150.0, d.CurrentBalance)
				assert.Equal(t, 0.0, d.PaidAmount)
				return nil
			})

		svc := debt.NewService(repo)

		_, err := svc.UpsertExpenseDebt(context.Background(), debt.UpsertExpenseParams{
			PlanID:          testPlanID,
			ExpenseID:       testExpenseID,
			MonthKey:        "2024-03",
			ExpenseName:     "Electricity",
			RemainingAmount: 150,
		})
		require.NoError(t, err)
	})
}

func TestService_SyncExpenseDebt(t *testing.T) {
	t.Run("PartiallyPaidExpenseCreatesDebt", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := debt.NewMockRepository(ctrl)
		repo.EXPECT().
			GetDebtBySourceExpense(gomock.Any(), testPlanID, testExpenseID, "2024-03").
			Return(nil, debt.ErrNotFound)
		repo.EXPECT().CreateDebt(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, d *debt.Debt) error {
				assert.Equal(t, "Utilities: Electricity (2024-03 2024)", d.Name)
				assert.Equal(t, 60.0, d.InitialBalance)
				assert.Equal(t, 60.0, d.CurrentBalance)
				assert.True(t, d.IsExpenseDerived())
				d.ID = uuid.New()
				return nil
			})

		svc := debt.NewService(repo)

		err := svc.SyncExpenseDebt(context.Background(), &expense.Expense{
			ID:           testExpenseID,
			PlanID:       testPlanID,
			CategoryName: "Utilities",
			Name:         "Electricity",
			Amount:       100,
			PaidAmount:   40,
			Month:        3,
			Year:         2024,
		})
		require.NoError(t, err)
	})

	t.Run("SettledExpenseZeroesDebt", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		existing := derivedDebt(100, 60)

		repo := debt.NewMockRepository(ctrl)
		repo.EXPECT().
			GetDebtBySourceExpense(gomock.Any(), testPlanID, testExpenseID, "2024-03").
			Return(existing, nil)
		repo.EXPECT().UpdateDebt(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, d *debt.Debt) error {
				assert.Equal(t, 0.0, d.CurrentBalance)
				assert.True(t, d.Paid)
				return nil
			})

		svc := debt.NewService(repo)

		err := svc.SyncExpenseDebt(context.Background(), &expense.Expense{
			ID:         testExpenseID,
			PlanID:     testPlanID,
			Name:       "Electricity",
			Amount:     100,
			PaidAmount: 100,
			Paid:       true,
			Month:      3,
			Year:       2024,
		})
		require.NoError(t, err)
	})
}

func TestService_AddPayment(t *testing.T) {
	paidAt := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)

	t.Run("ClampsToOutstandingBalance", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		d := &debt.Debt{ID: testDebtID, PlanID: testPlanID, Type: debt.TypeLoan, InitialBalance: 500, CurrentBalance: 30, PaidAmount: 470}

		repo := debt.NewMockRepository(ctrl)
		tx := debt.NewMockPaymentTx(ctrl)

		repo.EXPECT().BeginPayment(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(d, nil)
		tx.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p *debt.Payment) error {
				assert.Equal(t, 30.0, p.Amount) // clamped from 100
				p.ID = uuid.New()
				return nil
			})
		tx.EXPECT().UpdateBalances(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, d *debt.Debt) error {
				assert.Equal(t, 0.0, d.CurrentBalance)
				assert.Equal(t, 500.0, d.PaidAmount)
				assert.True(t, d.Paid)
				return nil
			})
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := debt.NewService(repo)

		p, err := svc.AddPayment(context.Background(), debt.AddPaymentParams{
			PlanID: testPlanID,
			DebtID: testDebtID,
			Amount: 100,
			Source: "income",
			PaidAt: paidAt,
		})
		require.NoError(t, err)
		assert.Equal(t, 30.0, p.Amount)
	})

	t.Run("SettledDebtRejectsPayment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := debt.NewMockRepository(ctrl)
		tx := debt.NewMockPaymentTx(ctrl)

		repo.EXPECT().BeginPayment(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).
			Return(&debt.Debt{ID: testDebtID, CurrentBalance: 0}, nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := debt.NewService(repo)

		_, err := svc.AddPayment(context.Background(), debt.AddPaymentParams{
			PlanID: testPlanID,
			DebtID: testDebtID,
			Amount: 10,
			Source: "income",
		})
		assert.ErrorIs(t, err, debt.ErrAlreadyPaid)
	})

	t.Run("DerivedDebtMirrorsIntoExpense", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		d := derivedDebt(100, 100)

		repo := debt.NewMockRepository(ctrl)
		tx := debt.NewMockPaymentTx(ctrl)

		repo.EXPECT().BeginPayment(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(d, nil)
		tx.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(nil)
		tx.EXPECT().UpdateBalances(gomock.Any(), d).Return(nil)
		tx.EXPECT().GetExpense(gomock.Any(), testPlanID, testExpenseID).
			Return(&expense.Expense{ID: testExpenseID, PlanID: testPlanID, Amount: 100, PaidAmount: 0}, nil)
		tx.EXPECT().CreateExpensePayment(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p *expense.Payment) error {
				// Mirror carries the same amount and timestamp so the
				// reconciliation key matches.
				assert.Equal(t, 40.0, p.Amount)
				assert.Equal(t, paidAt, p.PaidAt)
				assert.Equal(t, expense.SourceSavings, p.Source)
				return nil
			})
		tx.EXPECT().UpdateExpensePaidState(gomock.Any(), testExpenseID, 40.0, false).Return(nil)
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := debt.NewService(repo)

		_, err := svc.AddPayment(context.Background(), debt.AddPaymentParams{
			PlanID: testPlanID,
			DebtID: testDebtID,
			Amount: 40,
			Source: "savings",
			PaidAt: paidAt,
		})
		require.NoError(t, err)
	})

	t.Run("CardFundedPaymentChargesOtherCard", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		cardID := uuid.New()
		d := &debt.Debt{ID: testDebtID, PlanID: testPlanID, Type: debt.TypeLoan, InitialBalance: 500, CurrentBalance: 500}
		card := &debt.Debt{ID: cardID, PlanID: testPlanID, Type: debt.TypeCreditCard, InitialBalance: 200, CurrentBalance: 150}

		repo := debt.NewMockRepository(ctrl)
		tx := debt.NewMockPaymentTx(ctrl)

		repo.EXPECT().BeginPayment(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(d, nil)
		tx.EXPECT().GetDebt(gomock.Any(), testPlanID, cardID).Return(card, nil)
		tx.EXPECT().UpdateBalances(gomock.Any(), card).DoAndReturn(
			func(_ context.Context, c *debt.Debt) error {
				assert.Equal(t, 250.0, c.CurrentBalance)
				assert.Equal(t, 250.0, c.InitialBalance)
				assert.False(t, c.Paid)
				return nil
			})
		tx.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p *debt.Payment) error {
				require.NotNil(t, p.CardDebtID)
				assert.Equal(t, cardID, *p.CardDebtID)
				return nil
			})
		tx.EXPECT().UpdateBalances(gomock.Any(), d).Return(nil)
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := debt.NewService(repo)

		_, err := svc.AddPayment(context.Background(), debt.AddPaymentParams{
			PlanID:     testPlanID,
			DebtID:     testDebtID,
			Amount:     100,
			Source:     "credit_card",
			CardDebtID: &cardID,
			PaidAt:     paidAt,
		})
		require.NoError(t, err)
	})

	t.Run("PayingCardWithItselfRejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := debt.NewMockRepository(ctrl)
		tx := debt.NewMockPaymentTx(ctrl)

		repo.EXPECT().BeginPayment(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).
			Return(&debt.Debt{ID: testDebtID, Type: debt.TypeCreditCard, CurrentBalance: 100}, nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := debt.NewService(repo)

		_, err := svc.AddPayment(context.Background(), debt.AddPaymentParams{
			PlanID:     testPlanID,
			DebtID:     testDebtID,
			Amount:     10,
			Source:     "credit_card",
			CardDebtID: &testDebtID,
		})
		assert.ErrorIs(t, err, debt.ErrSameCard)
	})
}

func TestService_PayFromExpense(t *testing.T) {
	t.Run("DerivedDebtRefused", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := debt.NewMockRepository(ctrl)
		tx := debt.NewMockPaymentTx(ctrl)

		repo.EXPECT().BeginPayment(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(derivedDebt(100, 100), nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := debt.NewService(repo)

		err := svc.PayFromExpense(context.Background(), testPlanID, testDebtID, 50, expense.SourceIncome, time.Now())
		assert.ErrorIs(t, err, debt.ErrExpenseDerived)
	})

	t.Run("RegularDebtReduced", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		d := &debt.Debt{ID: testDebtID, PlanID: testPlanID, Type: debt.TypeLoan, InitialBalance: 500, CurrentBalance: 200, PaidAmount: 300}

		repo := debt.NewMockRepository(ctrl)
		tx := debt.NewMockPaymentTx(ctrl)

		repo.EXPECT().BeginPayment(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(d, nil)
		tx.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(nil)
		tx.EXPECT().UpdateBalances(gomock.Any(), d).DoAndReturn(
			func(_ context.Context, d *debt.Debt) error {
				assert.Equal(t, 150.0, d.CurrentBalance)
				assert.Equal(t, 350.0, d.PaidAmount)
				return nil
			})
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := debt.NewService(repo)

		err := svc.PayFromExpense(context.Background(), testPlanID, testDebtID, 50, expense.SourceIncome, time.Now())
		require.NoError(t, err)
	})
}

func TestService_UndoPayment(t *testing.T) {
	now := time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC)

	payment := func(id uuid.UUID, amount float64, paidAt time.Time) *debt.Payment {
		return &debt.Payment{ID: id, DebtID: testDebtID, Amount: amount, PaidAt: paidAt, Source: "income"}
	}

	t.Run("OnlyMostRecent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		older := payment(uuid.New(), 20, now.AddDate(0, 0, -3))
		newest := payment(uuid.New(), 30, now.AddDate(0, 0, -1))

		repo := debt.NewMockRepository(ctrl)
		repo.EXPECT().ListPayments(gomock.Any(), testDebtID).
			Return([]*debt.Payment{newest, older}, nil)

		svc := debt.NewService(repo)

		err := svc.UndoPayment(context.Background(), testPlanID, testDebtID, older.ID, now)
		assert.ErrorIs(t, err, debt.ErrNotMostRecent)
	})

	t.Run("OnlySameMonth", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		stale := payment(uuid.New(), 30, now.AddDate(0, -1, 0))

		repo := debt.NewMockRepository(ctrl)
		repo.EXPECT().ListPayments(gomock.Any(), testDebtID).
			Return([]*debt.Payment{stale}, nil)

		svc := debt.NewService(repo)

		err := svc.UndoPayment(context.Background(), testPlanID, testDebtID, stale.ID, now)
		assert.ErrorIs(t, err, debt.ErrDifferentMonth)
	})

	t.Run("ReversesBalances", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		latest := payment(uuid.New(), 30, now.AddDate(0, 0, -1))
		d := &debt.Debt{ID: testDebtID, PlanID: testPlanID, Type: debt.TypeLoan, InitialBalance: 500, CurrentBalance: 170, PaidAmount: 330, Paid: false}

		repo := debt.NewMockRepository(ctrl)
		tx := debt.NewMockPaymentTx(ctrl)

		repo.EXPECT().ListPayments(gomock.Any(), testDebtID).Return([]*debt.Payment{latest}, nil)
		repo.EXPECT().BeginPayment(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(d, nil)
		tx.EXPECT().UpdateBalances(gomock.Any(), d).DoAndReturn(
			func(_ context.Context, d *debt.Debt) error {
				assert.Equal(t, 200.0, d.CurrentBalance)
				assert.Equal(t, 300.0, d.PaidAmount)
				assert.False(t, d.Paid)
				return nil
			})
		tx.EXPECT().DeletePayment(gomock.Any(), latest.ID).Return(nil)
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := debt.NewService(repo)

		err := svc.UndoPayment(context.Background(), testPlanID, testDebtID, latest.ID, now)
		require.NoError(t, err)
	})

	t.Run("CardBalanceAlreadySpent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		cardID := uuid.New()
		latest := payment(uuid.New(), 30, now.AddDate(0, 0, -1))
		latest.CardDebtID = &cardID

		repo := debt.NewMockRepository(ctrl)
		tx := debt.NewMockPaymentTx(ctrl)

		repo.EXPECT().ListPayments(gomock.Any(), testDebtID).Return([]*debt.Payment{latest}, nil)
		repo.EXPECT().BeginPayment(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).
			Return(&debt.Debt{ID: testDebtID, PlanID: testPlanID, Type: debt.TypeLoan, InitialBalance: 500, CurrentBalance: 170, PaidAmount: 330}, nil)
		tx.EXPECT().GetDebt(gomock.Any(), testPlanID, cardID).
			Return(&debt.Debt{ID: cardID, Type: debt.TypeCreditCard, CurrentBalance: 10}, nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := debt.NewService(repo)

		err := svc.UndoPayment(context.Background(), testPlanID, testDebtID, latest.ID, now)
		assert.ErrorIs(t, err, debt.ErrCardBalanceSpent)
	})
}

func TestService_ProcessMissedPayments(t *testing.T) {
	t.Run("GraceBoundary", func(t *testing.T) {
		due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

		type testCase struct {
			name       string
			now        time.Time
			wantAccrue bool
		}

		tests := []testCase{
			{name: "DayFourStillInGrace", now: due.AddDate(0, 0, 4), wantAccrue: false},
			{name: "DayFiveAccrues", now: due.AddDate(0, 0, 5), wantAccrue: true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				dueDate := due
				d := &debt.Debt{
					ID:             testDebtID,
					PlanID:         testPlanID,
					Type:           debt.TypeLoan,
					InitialBalance: 1200,
					CurrentBalance: 1200,
					Amount:         100,
					DueDate:        &dueDate,
				}

				repo := debt.NewMockRepository(ctrl)
				repo.EXPECT().ListDebts(gomock.Any(), testPlanID).Return([]*debt.Debt{d}, nil)

				if tt.wantAccrue {
					repo.EXPECT().
						SumPaymentsBetween(gomock.Any(), testDebtID, gomock.Any(), gomock.Any()).
						Return(0.0, nil)
					repo.EXPECT().UpdateDebt(gomock.Any(), d).Return(nil)
				}

				svc := debt.NewService(repo)

				accrued, err := svc.ProcessMissedPayments(context.Background(), testPlanID, tt.now)
				require.NoError(t, err)

				if tt.wantAccrue {
					require.Len(t, accrued, 1)
					assert.Equal(t, 1300.0, d.CurrentBalance)
					assert.Equal(t, 1300.0, d.InitialBalance)
					assert.Equal(t, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), *d.DueDate)
				} else {
					assert.Empty(t, accrued)
					assert.Equal(t, 1200.0, d.CurrentBalance)
				}
			})
		}
	})

	t.Run("PartialPaymentAccruesOnlyShortfall", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		dueDate := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
		d := &debt.Debt{
			ID:             testDebtID,
			PlanID:         testPlanID,
			Type:           debt.TypeLoan,
			InitialBalance: 1200,
			CurrentBalance: 1200,
			Amount:         100,
			DueDate:        &dueDate,
		}

		repo := debt.NewMockRepository(ctrl)
		repo.EXPECT().ListDebts(gomock.Any(), testPlanID).Return([]*debt.Debt{d}, nil)
		repo.EXPECT().
			SumPaymentsBetween(gomock.Any(), testDebtID, gomock.Any(), gomock.Any()).
			Return(60.0, nil)
		repo.EXPECT().UpdateDebt(gomock.Any(), d).Return(nil)

		svc := debt.NewService(repo)

		_, err := svc.ProcessMissedPayments(context.Background(), testPlanID, dueDate.AddDate(0, 0, 5))
		require.NoError(t, err)
		assert.Equal(t, 1240.0, d.CurrentBalance)
	})

	t.Run("MultipleCyclesRollForward", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		dueDate := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
		d := &debt.Debt{
			ID:             testDebtID,
			PlanID:         testPlanID,
			Type:           debt.TypeLoan,
			InitialBalance: 1200,
			CurrentBalance: 1200,
			Amount:         100,
			DueDate:        &dueDate,
		}

		repo := debt.NewMockRepository(ctrl)
		repo.EXPECT().ListDebts(gomock.Any(), testPlanID).Return([]*debt.Debt{d}, nil)
		repo.EXPECT().
			SumPaymentsBetween(gomock.Any(), testDebtID, gomock.Any(), gomock.Any()).
			Return(0.0, nil).
			Times(3)
		repo.EXPECT().UpdateDebt(gomock.Any(), d).Return(nil)

		svc := debt.NewService(repo)

		// Three due dates (Jan, Feb, Mar) are past grace by March 20.
		_, err := svc.ProcessMissedPayments(context.Background(), testPlanID, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, 1500.0, d.CurrentBalance)
		assert.Equal(t, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), *d.DueDate)
	})

	t.Run("LegacyDueDayAccruesOncePerMonth", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		day := 10
		marker := "2024-02"
		d := &debt.Debt{
			ID:               testDebtID,
			PlanID:           testPlanID,
			Type:             debt.TypeLoan,
			InitialBalance:   1200,
			CurrentBalance:   1200,
			Amount:           100,
			DueDay:           &day,
			LastAccrualMonth: &marker,
		}

		repo := debt.NewMockRepository(ctrl)
		repo.EXPECT().ListDebts(gomock.Any(), testPlanID).Return([]*debt.Debt{d}, nil)

		svc := debt.NewService(repo)

		// February already accrued; nothing to do in March.
		accrued, err := svc.ProcessMissedPayments(context.Background(), testPlanID, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Empty(t, accrued)
	})

	t.Run("SkipsCardsDerivedAndSettled", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		dueDate := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
		card := &debt.Debt{ID: uuid.New(), Type: debt.TypeCreditCard, CurrentBalance: 100, Amount: 50, DueDate: &dueDate}
		derived := derivedDebt(100, 100)
		settled := &debt.Debt{ID: uuid.New(), Type: debt.TypeLoan, CurrentBalance: 0, Amount: 50, DueDate: &dueDate}

		repo := debt.NewMockRepository(ctrl)
		repo.EXPECT().ListDebts(gomock.Any(), testPlanID).
			Return([]*debt.Debt{card, derived, settled}, nil)

		svc := debt.NewService(repo)

		accrued, err := svc.ProcessMissedPayments(context.Background(), testPlanID, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Empty(t, accrued)
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("DerivedWithBalanceRefused", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := debt.NewMockRepository(ctrl)
		repo.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(derivedDebt(100, 40), nil)

		svc := debt.NewService(repo)

		err := svc.Delete(context.Background(), testPlanID, testDebtID)
		assert.ErrorIs(t, err, debt.ErrDerivedOutstanding)
	})

	t.Run("SettledDerivedDeletes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := debt.NewMockRepository(ctrl)
		repo.EXPECT().GetDebt(gomock.Any(), testPlanID, testDebtID).Return(derivedDebt(100, 0), nil)
		repo.EXPECT().DeleteDebt(gomock.Any(), testDebtID).Return(nil)

		svc := debt.NewService(repo)

		require.NoError(t, svc.Delete(context.Background(), testPlanID, testDebtID))
	})
}

func TestService_SummaryForPlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	loan := &debt.Debt{ID: uuid.New(), Type: debt.TypeLoan, CurrentBalance: 800, PaidAmount: 999}
	card := &debt.Debt{ID: uuid.New(), Type: debt.TypeCreditCard, CurrentBalance: 150}
	derived := derivedDebt(100, 40)
	settled := &debt.Debt{ID: uuid.New(), Type: debt.TypeLoan, CurrentBalance: 0}

	repo := debt.NewMockRepository(ctrl)
	repo.EXPECT().ListDebts(gomock.Any(), testPlanID).
		Return([]*debt.Debt{loan, card, derived, settled}, nil)
	repo.EXPECT().SumPayments(gomock.Any(), loan.ID).Return(400.0, nil)
	repo.EXPECT().SumPayments(gomock.Any(), settled.ID).Return(0.0, nil)

	svc := debt.NewService(repo)

	summary, err := svc.SummaryForPlan(context.Background(), testPlanID)
	require.NoError(t, err)
	assert.Equal(t, 990.0, summary.TotalBalance)
	assert.Equal(t, 3, summary.ActiveCount)
	assert.Len(t, summary.RegularDebts, 2)
	assert.Len(t, summary.CardDebts, 1)
	assert.Len(t, summary.ExpenseDebts, 1)

	// Ledger wins over the cached column.
	assert.Equal(t, 400.0, loan.PaidAmount)
}
