package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExecutionStatus constants represent the lifecycle of one autopilot
// execution attempt.
const (
	ExecutionStatusExecuting  = "EXECUTING"
	ExecutionStatusCompleted  = "COMPLETED"
	ExecutionStatusFailed     = "FAILED"
	ExecutionStatusSkipped    = "SKIPPED"
	ExecutionStatusRolledBack = "ROLLED_BACK"
)

// Recommendation types the engine acts on. ROLLBACK is only ever produced
// internally for the inverse execution of a completed move.
const (
	RecommendationTypeBudgetIncrease = "BUDGET_INCREASE"
	RecommendationTypeBudgetDecrease = "BUDGET_DECREASE"
	RecommendationTypeReallocate     = "REALLOCATE"
	RecommendationTypeRollback       = "ROLLBACK"
)

// AutopilotExecution is the durable record of one attempt (successful,
// skipped, or failed) to apply a recommendation. Once a record reaches
// COMPLETED/FAILED/SKIPPED it is immutable except for the rollback-linkage
// fields.
type AutopilotExecution struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	WorkspaceID string `gorm:"size:64;not null;index" json:"workspace_id"`
	CampaignID  string `gorm:"size:64;not null;index" json:"campaign_id"`

	RecommendationID   string `gorm:"size:64;index" json:"recommendation_id"`
	RecommendationType string `gorm:"size:30;not null" json:"recommendation_type"`

	Status string `gorm:"size:20;not null;index" json:"status"`

	PreviousBudget decimal.Decimal `gorm:"type:numeric" json:"previous_budget"`
	NewBudget      decimal.Decimal `gorm:"type:numeric" json:"new_budget"`
	BudgetChange   decimal.Decimal `gorm:"type:numeric" json:"budget_change"`

	Metadata map[string]any `gorm:"type:jsonb;serializer:json" json:"metadata,omitempty"`

	ExecutedAt *time.Time `json:"executed_at,omitempty"`

	RolledBackAt       *time.Time `json:"rolled_back_at,omitempty"`
	RolledBackByUserID *string    `gorm:"size:64" json:"rolled_back_by_user_id,omitempty"`
	RollbackOfID       *string    `gorm:"size:36;index" json:"rollback_of_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AutopilotExecution) TableName() string {
	return "autopilot_executions"
}
