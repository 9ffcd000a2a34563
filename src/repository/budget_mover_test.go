package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestBudgetMoverApplyBudgetMove(t *testing.T) {
	day := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	executedAt := day.Add(12 * time.Hour)

	move := BudgetMove{
		ExecutionID: "exec-1",
		CampaignID:  "camp-1",
		NewBudget:   decimal.RequireFromString("104"),
		Delta:       decimal.RequireFromString("4"),
		Day:         day,
		DailyLimit:  decimal.RequireFromString("10"),
		ExecutedAt:  executedAt,
	}

	t.Run("commits budget, ledger and status together", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		mover := &BudgetMover{db: mockDB}

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "campaigns" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "daily_budget_moves" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "autopilot_executions" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		if err := mover.ApplyBudgetMove(context.Background(), move); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("missing campaign rolls the transaction back", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		mover := &BudgetMover{db: mockDB}

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "campaigns" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := mover.ApplyBudgetMove(context.Background(), move)
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Fatalf("expected ErrRecordNotFound, got %v", err)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("ledger cap failure rolls the budget change back", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		mover := &BudgetMover{db: mockDB}

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "campaigns" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "daily_budget_moves" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		// Cap-blocked: the ledger row already exists for the day.
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "daily_budget_moves" WHERE campaign_id = $1 AND date = $2`)).
			WithArgs("camp-1", day, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "campaign_id", "date", "total_moved", "net_change", "execution_count"}).
				AddRow(1, "camp-1", day, "8", "8", 2))
		mock.ExpectRollback()

		err := mover.ApplyBudgetMove(context.Background(), move)
		if !errors.Is(err, ErrDailyLimitReached) {
			t.Fatalf("expected ErrDailyLimitReached, got %v", err)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})
}

func TestBudgetMoverApplyRollback(t *testing.T) {
	day := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)

	move := RollbackMove{
		OriginalExecutionID: "exec-1",
		RollbackExecutionID: "exec-rb",
		CampaignID:          "camp-1",
		RestoredBudget:      decimal.RequireFromString("100"),
		Delta:               decimal.RequireFromString("-4"),
		Day:                 day,
		UserID:              "user-7",
		ExecutedAt:          day.Add(14 * time.Hour),
	}

	mockDB, mock := newMockDB(t)
	mover := &BudgetMover{db: mockDB}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "campaigns" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "daily_budget_moves" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Original marked ROLLED_BACK, then the rollback execution completed.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "autopilot_executions" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "autopilot_executions" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := mover.ApplyRollback(context.Background(), move); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
