// repository/execution_repository.go
package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"budgetpilot/src/database"
	"budgetpilot/src/model"
)

// ExecutionRepository handles the durable audit trail of autopilot execution
// attempts.
type ExecutionRepository struct {
	db *gorm.DB
}

func NewExecutionRepository() *ExecutionRepository {
	return &ExecutionRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or custom sessions/transactions.
func (r *ExecutionRepository) WithDB(db *gorm.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

func (r *ExecutionRepository) Create(ctx context.Context, exec *model.AutopilotExecution) error {
	logger.WithFields(map[string]interface{}{
		"repo":         "ExecutionRepository",
		"op":           "Create",
		"execution_id": exec.ID,
		"campaign_id":  exec.CampaignID,
		"status":       exec.Status,
	}).Info("Creating autopilot execution record")

	if err := r.db.WithContext(ctx).Create(exec).Error; err != nil {
		logger.WithError(err).Error("Failed to create execution record")
		return err
	}

	return nil
}

// Update persists the full current state of an execution record.
func (r *ExecutionRepository) Update(ctx context.Context, exec *model.AutopilotExecution) error {
	if err := r.db.WithContext(ctx).Save(exec).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":         "ExecutionRepository",
			"op":           "Update",
			"execution_id": exec.ID,
		}).WithError(err).Error("Failed to update execution record")
		return err
	}

	return nil
}

// FindByID fetches an execution by id. Returns (nil, nil) if not found.
func (r *ExecutionRepository) FindByID(ctx context.Context, id string) (*model.AutopilotExecution, error) {
	var exec model.AutopilotExecution

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&exec).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // not found is not an error
		}

		logger.WithFields(map[string]interface{}{
			"repo":         "ExecutionRepository",
			"op":           "FindByID",
			"execution_id": id,
		}).WithError(err).Error("Failed to fetch execution")

		return nil, err
	}

	return &exec, nil
}

// FindLatestCompleted returns the most recent COMPLETED execution for a
// campaign, used by the cool-down gate. Returns (nil, nil) when the campaign
// has no completed executions yet.
func (r *ExecutionRepository) FindLatestCompleted(
	ctx context.Context,
	workspaceID string,
	campaignID string,
) (*model.AutopilotExecution, error) {

	var exec model.AutopilotExecution

	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND campaign_id = ? AND status = ?",
			workspaceID, campaignID, model.ExecutionStatusCompleted).
		Order("executed_at DESC").
		First(&exec).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":        "ExecutionRepository",
			"op":          "FindLatestCompleted",
			"campaign_id": campaignID,
		}).WithError(err).Error("Failed to fetch latest completed execution")

		return nil, err
	}

	return &exec, nil
}

// ExecutionSearchOptions are the audit-listing filters.
type ExecutionSearchOptions struct {
	WorkspaceID   string
	CampaignID    *string
	Status        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// Search lists execution records for a workspace, newest first.
func (r *ExecutionRepository) Search(
	ctx context.Context,
	options ExecutionSearchOptions,
) ([]model.AutopilotExecution, error) {

	query := r.db.WithContext(ctx).
		Where("workspace_id = ?", options.WorkspaceID)

	if options.CampaignID != nil {
		query = query.Where("campaign_id = ?", *options.CampaignID)
	}

	if options.Status != nil {
		query = query.Where("status = ?", *options.Status)
	}

	if options.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *options.CreatedAfter)
	}

	if options.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *options.CreatedBefore)
	}

	query = query.Order("created_at DESC, id DESC")

	if options.Limit > 0 {
		query = query.Limit(options.Limit)
	}

	if options.Offset > 0 {
		query = query.Offset(options.Offset)
	}

	var executions []model.AutopilotExecution
	if err := query.Find(&executions).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":         "ExecutionRepository",
			"op":           "Search",
			"workspace_id": options.WorkspaceID,
		}).WithError(err).Error("Failed to search executions")

		return nil, err
	}

	return executions, nil
}
