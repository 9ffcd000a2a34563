// repository/budget_mover.go
package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"budgetpilot/src/database"
	"budgetpilot/src/model"
)

// BudgetMove is the unit of work for applying an allowed recommendation:
// mutate the campaign budget, debit the daily ledger (re-validating the cap),
// and complete the execution record as one unit.
type BudgetMove struct {
	ExecutionID string
	CampaignID  string
	NewBudget   decimal.Decimal
	Delta       decimal.Decimal
	Day         time.Time
	DailyLimit  decimal.Decimal
	ExecutedAt  time.Time
}

// RollbackMove is the unit of work for reversing a completed execution. The
// ledger is still debited (a reversal is not free movement) but uncapped.
type RollbackMove struct {
	OriginalExecutionID string
	RollbackExecutionID string
	CampaignID          string
	RestoredBudget      decimal.Decimal
	Delta               decimal.Decimal
	Day                 time.Time
	UserID              string
	ExecutedAt          time.Time
}

// BudgetMover runs the transactional core of execute and rollback. Partial
// application (budget changed but ledger not updated, or vice versa) would
// make every later daily-limit check wrong, so each method is one gorm
// transaction.
type BudgetMover struct {
	db *gorm.DB
}

func NewBudgetMover() *BudgetMover {
	return &BudgetMover{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or custom sessions/transactions.
func (m *BudgetMover) WithDB(db *gorm.DB) *BudgetMover {
	return &BudgetMover{db: db}
}

// ApplyBudgetMove commits an allowed move: campaign budget, ledger increment
// and COMPLETED status in one transaction. Returns ErrDailyLimitReached when
// the conditional ledger increment blocks the move.
func (m *BudgetMover) ApplyBudgetMove(ctx context.Context, move BudgetMove) error {
	logger.WithFields(map[string]interface{}{
		"repo":         "BudgetMover",
		"op":           "ApplyBudgetMove",
		"execution_id": move.ExecutionID,
		"campaign_id":  move.CampaignID,
	}).Info("Applying budget move transaction")

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		campaigns := NewCampaignRepository().WithDB(tx)
		if err := campaigns.UpdateBudget(ctx, move.CampaignID, move.NewBudget); err != nil {
			logger.WithError(err).Error("Failed to update campaign budget inside transaction")
			return err
		}

		ledger := NewDailyMoveRepository().WithDB(tx)
		if err := ledger.ApplyMove(ctx, move.CampaignID, move.Day, move.Delta, move.DailyLimit); err != nil {
			return err
		}

		if err := tx.
			Model(&model.AutopilotExecution{}).
			Where("id = ?", move.ExecutionID).
			Updates(map[string]interface{}{
				"status":      model.ExecutionStatusCompleted,
				"executed_at": move.ExecutedAt,
			}).Error; err != nil {
			logger.WithError(err).Error("Failed to complete execution inside transaction")
			return err
		}

		return nil
	})
}

// ApplyRollback commits the inverse move: restore the campaign budget, debit
// the ledger (uncapped), mark the original ROLLED_BACK and complete the
// rollback execution, all in one transaction.
func (m *BudgetMover) ApplyRollback(ctx context.Context, move RollbackMove) error {
	logger.WithFields(map[string]interface{}{
		"repo":        "BudgetMover",
		"op":          "ApplyRollback",
		"original_id": move.OriginalExecutionID,
		"rollback_id": move.RollbackExecutionID,
	}).Info("Applying rollback transaction")

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		campaigns := NewCampaignRepository().WithDB(tx)
		if err := campaigns.UpdateBudget(ctx, move.CampaignID, move.RestoredBudget); err != nil {
			logger.WithError(err).Error("Failed to restore campaign budget inside transaction")
			return err
		}

		ledger := NewDailyMoveRepository().WithDB(tx)
		if err := ledger.ApplyMove(ctx, move.CampaignID, move.Day, move.Delta, decimal.Zero); err != nil {
			return err
		}

		if err := tx.
			Model(&model.AutopilotExecution{}).
			Where("id = ?", move.OriginalExecutionID).
			Updates(map[string]interface{}{
				"status":                 model.ExecutionStatusRolledBack,
				"rolled_back_at":         move.ExecutedAt,
				"rolled_back_by_user_id": move.UserID,
			}).Error; err != nil {
			logger.WithError(err).Error("Failed to mark original execution rolled back")
			return err
		}

		if err := tx.
			Model(&model.AutopilotExecution{}).
			Where("id = ?", move.RollbackExecutionID).
			Updates(map[string]interface{}{
				"status":      model.ExecutionStatusCompleted,
				"executed_at": move.ExecutedAt,
			}).Error; err != nil {
			logger.WithError(err).Error("Failed to complete rollback execution")
			return err
		}

		return nil
	})
}
