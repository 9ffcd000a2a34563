package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recommendation is the engine input: an externally generated proposal to
// change a campaign's budget. It is immutable once evaluated and is not
// persisted by the engine itself (see BudgetRecommendation for the queued
// form the worker loop drains).
type Recommendation struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	WorkspaceID     string          `json:"workspace_id"`
	CampaignID      string          `json:"campaign_id"`
	CurrentBudget   decimal.Decimal `json:"current_budget"`
	SuggestedBudget decimal.Decimal `json:"suggested_budget"`
	Reason          string          `json:"reason"`
	Confidence      float64         `json:"confidence"`
}

// BudgetChange is the signed move the recommendation proposes.
func (r Recommendation) BudgetChange() decimal.Decimal {
	return r.SuggestedBudget.Sub(r.CurrentBudget)
}

const (
	RecommendationStatusPending   = "PENDING"
	RecommendationStatusApplied   = "APPLIED"
	RecommendationStatusDismissed = "DISMISSED"
)

// BudgetRecommendation is the persisted queue row produced by the
// recommendation engine and drained by the autopilot worker loop.
type BudgetRecommendation struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	WorkspaceID string `gorm:"size:64;not null;index" json:"workspace_id"`
	CampaignID  string `gorm:"size:64;not null;index" json:"campaign_id"`
	Type        string `gorm:"size:30;not null" json:"type"`

	CurrentBudget   decimal.Decimal `gorm:"type:numeric;not null" json:"current_budget"`
	SuggestedBudget decimal.Decimal `gorm:"type:numeric;not null" json:"suggested_budget"`

	Reason     string  `gorm:"size:512" json:"reason"`
	Confidence float64 `gorm:"not null;default:0" json:"confidence"`

	Status      string  `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	ExecutionID *string `gorm:"size:36" json:"execution_id,omitempty"`
	StatusNote  string  `gorm:"size:512" json:"status_note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BudgetRecommendation) TableName() string {
	return "budget_recommendations"
}

// ToRecommendation converts the queued row into the engine input form.
func (b BudgetRecommendation) ToRecommendation() Recommendation {
	return Recommendation{
		ID:              b.ID,
		Type:            b.Type,
		WorkspaceID:     b.WorkspaceID,
		CampaignID:      b.CampaignID,
		CurrentBudget:   b.CurrentBudget,
		SuggestedBudget: b.SuggestedBudget,
		Reason:          b.Reason,
		Confidence:      b.Confidence,
	}
}
