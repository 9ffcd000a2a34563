// repository/guardrail_config_repository.go
package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"budgetpilot/src/database"
	"budgetpilot/src/model"
)

// GuardrailConfigRepository handles persistence of the per-workspace and
// per-campaign autopilot policies.
type GuardrailConfigRepository struct {
	db *gorm.DB
}

// NewGuardrailConfigRepository creates a new repository instance bound to MainDB.
func NewGuardrailConfigRepository() *GuardrailConfigRepository {
	return &GuardrailConfigRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or custom sessions/transactions.
func (r *GuardrailConfigRepository) WithDB(db *gorm.DB) *GuardrailConfigRepository {
	return &GuardrailConfigRepository{db: db}
}

// Get fetches the config for an exact scope. A nil campaignID addresses the
// workspace-wide default row. Returns (nil, nil) if not found.
func (r *GuardrailConfigRepository) Get(
	ctx context.Context,
	workspaceID string,
	campaignID *string,
) (*model.GuardrailConfig, error) {

	query := r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID)
	if campaignID != nil {
		query = query.Where("campaign_id = ?", *campaignID)
	} else {
		query = query.Where("campaign_id IS NULL")
	}

	var cfg model.GuardrailConfig
	if err := query.First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // not found is not an error
		}

		logger.WithFields(map[string]interface{}{
			"repo":         "GuardrailConfigRepository",
			"op":           "Get",
			"workspace_id": workspaceID,
		}).WithError(err).Error("Failed to fetch guardrail config")

		return nil, err
	}

	return &cfg, nil
}

// Resolve looks up the effective config for a campaign: the campaign-specific
// row wins, the workspace-wide default is the fallback. Returns (nil, nil)
// when neither exists.
func (r *GuardrailConfigRepository) Resolve(
	ctx context.Context,
	workspaceID string,
	campaignID string,
) (*model.GuardrailConfig, error) {

	if campaignID != "" {
		cfg, err := r.Get(ctx, workspaceID, &campaignID)
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			return cfg, nil
		}
	}

	return r.Get(ctx, workspaceID, nil)
}

// Upsert creates or updates the config for its (workspace_id, campaign_id)
// scope. The nullable campaign_id makes ON CONFLICT unusable for the
// workspace-wide row, so this is a load-then-write; config mutation is a
// rare, operator-driven path.
func (r *GuardrailConfigRepository) Upsert(
	ctx context.Context,
	cfg *model.GuardrailConfig,
) (*model.GuardrailConfig, error) {

	logger.WithFields(map[string]interface{}{
		"repo":         "GuardrailConfigRepository",
		"op":           "Upsert",
		"workspace_id": cfg.WorkspaceID,
	}).Info("Upserting guardrail config")

	existing, err := r.Get(ctx, cfg.WorkspaceID, cfg.CampaignID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		if err := r.db.WithContext(ctx).Create(cfg).Error; err != nil {
			logger.WithError(err).Error("Failed to create guardrail config")
			return nil, err
		}
		return cfg, nil
	}

	cfg.ID = existing.ID
	cfg.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Save(cfg).Error; err != nil {
		logger.WithError(err).Error("Failed to update guardrail config")
		return nil, err
	}

	return cfg, nil
}
