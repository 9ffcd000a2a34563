package model

import "time"

// Alert types raised by the guardrail evaluator. Alerting is best-effort:
// the sink is never awaited for correctness.
const (
	AlertTypeBudgetFloorHit   = "BUDGET_FLOOR_HIT"
	AlertTypeBudgetCeilingHit = "BUDGET_CEILING_HIT"
	AlertTypeCooldownActive   = "COOLDOWN_ACTIVE"
)

const (
	AlertSeverityInfo     = "INFO"
	AlertSeverityWarning  = "WARNING"
	AlertSeverityCritical = "CRITICAL"
)

// AutopilotAlert is the payload handed to the alert sink when a guardrail
// blocks a move. It is a wire payload, not a table; storage and routing
// belong to the alerting service consuming the topic.
type AutopilotAlert struct {
	ID          string         `json:"id"`
	WorkspaceID string         `json:"workspace_id"`
	CampaignID  *string        `json:"campaign_id,omitempty"`
	AlertType   string         `json:"alert_type"`
	Severity    string         `json:"severity"`
	Message     string         `json:"message"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
