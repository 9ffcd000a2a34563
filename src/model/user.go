package model

import "time"

// User is the workspace member on whose behalf manual autopilot actions
// (rollbacks, config changes) are recorded. Authentication itself is handled
// upstream; the engine only needs the identity for audit fields.
type User struct {
	ID          string `gorm:"primaryKey;size:64" json:"id"`
	WorkspaceID string `gorm:"size:64;not null;index" json:"workspace_id"`
	Email       string `gorm:"size:255;not null" json:"email"`
	Name        string `gorm:"size:255" json:"name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
