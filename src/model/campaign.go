package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CampaignStatusActive   = "ACTIVE"
	CampaignStatusPaused   = "PAUSED"
	CampaignStatusArchived = "ARCHIVED"
)

// Campaign mirrors the ad-platform campaign we manage budgets for. The ID is
// the platform-scoped campaign id (string), not a local serial.
type Campaign struct {
	ID          string `gorm:"primaryKey;size:64" json:"id"`
	WorkspaceID string `gorm:"size:64;not null;index" json:"workspace_id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Status      string `gorm:"size:20;not null;default:ACTIVE" json:"status"`

	DailyBudget decimal.Decimal `gorm:"type:numeric;not null" json:"daily_budget"`

	// Sealed ad-account access token for the platform API. Stored encrypted;
	// see the security package.
	AccessTokenSealed []byte `gorm:"type:bytea" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
