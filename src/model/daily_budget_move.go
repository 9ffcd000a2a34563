package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyBudgetMove is the per-campaign-per-day accumulator of budget movement.
// TotalMoved sums absolute move amounts and is monotonically non-decreasing
// within a day; a new row starts each day. It exists solely to enforce the
// daily cap.
type DailyBudgetMove struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CampaignID string    `gorm:"size:64;not null;index:idx_daily_move_day,unique" json:"campaign_id"`
	Date       time.Time `gorm:"type:date;not null;index:idx_daily_move_day,unique" json:"date"`

	TotalMoved     decimal.Decimal `gorm:"type:numeric;not null" json:"total_moved"`
	NetChange      decimal.Decimal `gorm:"type:numeric;not null" json:"net_change"`
	ExecutionCount int             `gorm:"not null;default:0" json:"execution_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DailyBudgetMove) TableName() string {
	return "daily_budget_moves"
}
