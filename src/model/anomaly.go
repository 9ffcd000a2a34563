package model

import "time"

// Anomaly is what the anomaly-detection service reports for a workspace.
// Any non-empty result is treated as a hard pause signal when the guardrail
// config has PauseOnAnomaly set.
type Anomaly struct {
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	DetectedAt  time.Time `json:"detected_at"`
	Description string    `json:"description"`
}
