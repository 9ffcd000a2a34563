// repository/recommendation_repository.go
package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"budgetpilot/src/database"
	"budgetpilot/src/model"
)

// RecommendationRepository is the queue the worker loop drains: pending
// budget recommendations produced by the recommendation engine.
type RecommendationRepository struct {
	db *gorm.DB
}

func NewRecommendationRepository() *RecommendationRepository {
	return &RecommendationRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or custom sessions/transactions.
func (r *RecommendationRepository) WithDB(db *gorm.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

func (r *RecommendationRepository) Create(ctx context.Context, rec *model.BudgetRecommendation) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "RecommendationRepository",
			"op":          "Create",
			"campaign_id": rec.CampaignID,
		}).WithError(err).Error("Failed to create budget recommendation")
		return err
	}

	return nil
}

// FindPending returns the oldest pending recommendations, bounded by limit.
// An empty workspaceID returns pending work across all workspaces.
func (r *RecommendationRepository) FindPending(
	ctx context.Context,
	workspaceID string,
	limit int,
) ([]model.BudgetRecommendation, error) {

	if limit <= 0 {
		limit = 20 // default safety limit
	}

	query := r.db.WithContext(ctx).
		Where("status = ?", model.RecommendationStatusPending)

	if workspaceID != "" {
		query = query.Where("workspace_id = ?", workspaceID)
	}

	var recs []model.BudgetRecommendation
	err := query.
		Order("created_at ASC").
		Limit(limit).
		Find(&recs).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "RecommendationRepository",
			"op":   "FindPending",
		}).WithError(err).Error("Failed to fetch pending recommendations")

		return nil, err
	}

	return recs, nil
}

// MarkApplied flags a recommendation as executed, linking the execution record.
func (r *RecommendationRepository) MarkApplied(ctx context.Context, id string, executionID string) error {
	return r.db.WithContext(ctx).
		Model(&model.BudgetRecommendation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       model.RecommendationStatusApplied,
			"execution_id": executionID,
		}).Error
}

// MarkDismissed flags a recommendation as skipped with the guardrail reason.
func (r *RecommendationRepository) MarkDismissed(ctx context.Context, id string, note string) error {
	return r.db.WithContext(ctx).
		Model(&model.BudgetRecommendation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      model.RecommendationStatusDismissed,
			"status_note": note,
		}).Error
}
