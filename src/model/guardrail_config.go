package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Autopilot modes control how aggressively the recommendation engine is
// allowed to move budgets. The engine itself only stores the mode; the
// thresholds below are what actually gate execution.
const (
	AutopilotModeConservative = "CONSERVATIVE"
	AutopilotModeModerate     = "MODERATE"
	AutopilotModeAggressive   = "AGGRESSIVE"
)

// GuardrailConfig is the per-workspace (optionally per-campaign) autopilot
// policy. A row with a nil CampaignID is the workspace-wide default; a row
// with a CampaignID overrides the default for that campaign only.
type GuardrailConfig struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	WorkspaceID string  `gorm:"size:64;not null;index:idx_guardrail_scope,unique" json:"workspace_id"`
	CampaignID  *string `gorm:"size:64;index:idx_guardrail_scope,unique" json:"campaign_id,omitempty"`

	IsEnabled bool   `gorm:"not null;default:false" json:"is_enabled"`
	Mode      string `gorm:"size:20;not null;default:CONSERVATIVE" json:"mode"`

	// Percent caps. MaxDailyBudgetChange limits the cumulative absolute
	// movement per campaign per day; MaxSingleChange limits one move.
	MaxDailyBudgetChange decimal.Decimal `gorm:"type:numeric;not null" json:"max_daily_budget_change"`
	MaxSingleChange      decimal.Decimal `gorm:"type:numeric;not null" json:"max_single_change"`

	MinRoasThreshold *decimal.Decimal `gorm:"type:numeric" json:"min_roas_threshold,omitempty"`
	MaxCpaThreshold  *decimal.Decimal `gorm:"type:numeric" json:"max_cpa_threshold,omitempty"`

	PauseOnAnomaly bool `gorm:"not null;default:true" json:"pause_on_anomaly"`

	// Absolute-amount guards.
	RequireApprovalAbove *decimal.Decimal `gorm:"type:numeric" json:"require_approval_above,omitempty"`
	MinBudget            *decimal.Decimal `gorm:"type:numeric" json:"min_budget,omitempty"`
	MaxBudget            *decimal.Decimal `gorm:"type:numeric" json:"max_budget,omitempty"`

	CooldownMinutes    int  `gorm:"not null;default:0" json:"cooldown_minutes"`
	IsEmergencyStopped bool `gorm:"not null;default:false" json:"is_emergency_stopped"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (GuardrailConfig) TableName() string {
	return "guardrail_configs"
}
