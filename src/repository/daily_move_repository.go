// repository/daily_move_repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"budgetpilot/src/database"
	"budgetpilot/src/model"
)

// ErrDailyLimitReached is returned by ApplyMove when the conditional ledger
// increment is blocked by the daily cap. Surfacing it as a sentinel lets the
// execution transaction distinguish a cap hit from an infrastructure failure.
var ErrDailyLimitReached = errors.New("daily budget move limit reached")

// DailyMoveRepository maintains the per-campaign-per-day ledger of budget
// movement that enforces the daily cap.
type DailyMoveRepository struct {
	db *gorm.DB
}

func NewDailyMoveRepository() *DailyMoveRepository {
	return &DailyMoveRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or custom sessions/transactions.
func (r *DailyMoveRepository) WithDB(db *gorm.DB) *DailyMoveRepository {
	return &DailyMoveRepository{db: db}
}

// GetForDay fetches the ledger row for (campaign, day).
// Returns (nil, nil) when the campaign has not moved budget that day.
func (r *DailyMoveRepository) GetForDay(
	ctx context.Context,
	campaignID string,
	day time.Time,
) (*model.DailyBudgetMove, error) {

	var move model.DailyBudgetMove

	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND date = ?", campaignID, day).
		First(&move).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // not found is not an error
		}

		logger.WithFields(map[string]interface{}{
			"repo":        "DailyMoveRepository",
			"op":          "GetForDay",
			"campaign_id": campaignID,
		}).WithError(err).Error("Failed to fetch daily budget move")

		return nil, err
	}

	return &move, nil
}

// ApplyMove records a budget move against the (campaign, day) ledger row as
// one atomic conditional increment. The cap is re-validated by the UPDATE
// itself (total_moved + |delta| <= limit), so two concurrent executions for
// the same campaign cannot both slip under the cap the way a separate
// check-then-increment would allow.
//
// A non-positive limitAmount means no cap is in effect and the increment is
// unconditional (rollbacks use this: the reversal still counts against move
// totals but is never blocked by them).
func (r *DailyMoveRepository) ApplyMove(
	ctx context.Context,
	campaignID string,
	day time.Time,
	delta decimal.Decimal,
	limitAmount decimal.Decimal,
) error {

	abs := delta.Abs()
	capped := limitAmount.IsPositive()

	query := r.db.WithContext(ctx).
		Model(&model.DailyBudgetMove{}).
		Where("campaign_id = ? AND date = ?", campaignID, day)

	if capped {
		query = query.Where("total_moved + ? <= ?", abs, limitAmount)
	}

	result := query.Updates(map[string]interface{}{
		"total_moved":     gorm.Expr("total_moved + ?", abs),
		"net_change":      gorm.Expr("net_change + ?", delta),
		"execution_count": gorm.Expr("execution_count + 1"),
	})

	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "DailyMoveRepository",
			"op":          "ApplyMove",
			"campaign_id": campaignID,
		}).WithError(result.Error).Error("Failed to increment daily budget move")
		return result.Error
	}

	if result.RowsAffected > 0 {
		return nil
	}

	// Zero rows updated: either no ledger row exists yet for the day, or the
	// cap condition blocked the increment. Disambiguate by reading the row.
	existing, err := r.GetForDay(ctx, campaignID, day)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDailyLimitReached
	}

	// First move of the day. The very first move can already exceed the cap.
	if capped && abs.GreaterThan(limitAmount) {
		return ErrDailyLimitReached
	}

	move := model.DailyBudgetMove{
		CampaignID:     campaignID,
		Date:           day,
		TotalMoved:     abs,
		NetChange:      delta,
		ExecutionCount: 1,
	}

	if err := r.db.WithContext(ctx).Create(&move).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "DailyMoveRepository",
			"op":          "ApplyMove",
			"campaign_id": campaignID,
		}).WithError(err).Error("Failed to create daily budget move")
		return err
	}

	return nil
}
