package executors

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"

	"budgetpilot/src/alerts"
	"budgetpilot/src/anomaly"
	"budgetpilot/src/autopilot"
	"budgetpilot/src/model"
	"budgetpilot/src/repository"
)

type executionService interface {
	Execute(ctx context.Context, rec model.Recommendation, triggerSource string) (autopilot.ExecutionResult, error)
}

type recommendationQueue interface {
	FindPending(ctx context.Context, workspaceID string, limit int) ([]model.BudgetRecommendation, error)
	MarkApplied(ctx context.Context, id string, executionID string) error
	MarkDismissed(ctx context.Context, id string, note string) error
}

// StartLoop runs the scheduled autopilot worker: each tick drains pending
// budget recommendations and pushes them through the guardrail engine.
// Blocks until ctx is canceled.
func StartLoop(ctx context.Context) error {
	config := GetConfig()

	service := autopilot.NewService(
		logger.WithField("component", "autopilot"),
		repository.NewGuardrailConfigRepository(),
		repository.NewExecutionRepository(),
		repository.NewDailyMoveRepository(),
		repository.NewBudgetMover(),
		anomaly.NewHTTPDetector(),
		alerts.NewSinkFromEnv(),
	)
	queue := repository.NewRecommendationRepository()

	ticker := time.NewTicker(config.LoopPeriod) // Set up a ticker that fires periodically
	defer ticker.Stop()

	logger.WithField("loop_period", config.LoopPeriod).Info("Autopilot worker loop started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("loop stopped")
			return nil

		case <-ticker.C:
			logger.Info("loop tick")
			if err := RunOnce(ctx, service, queue, config); err != nil {
				logger.WithError(err).Error("Autopilot tick failed, will exit here")
				return err
			}
		}
	}
}

// RunOnce processes one batch of pending recommendations. A failure on one
// item is logged and must not starve the rest of the batch; only a failure
// to read the queue itself aborts the tick.
func RunOnce(ctx context.Context, service executionService, queue recommendationQueue, config Config) error {
	pending, err := queue.FindPending(ctx, config.WorkspaceID, config.BatchSize)
	if err != nil {
		logger.WithError(err).Error("Failed to fetch pending recommendations")
		return err
	}

	for i := range pending {
		item := pending[i]

		result, err := service.Execute(ctx, item.ToRecommendation(), autopilot.TriggerSourceCron)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"recommendation_id": item.ID,
				"campaign_id":       item.CampaignID,
			}).WithError(err).Error("Recommendation execution failed")
			continue
		}

		switch result.Status {
		case model.ExecutionStatusCompleted:
			if err := queue.MarkApplied(ctx, item.ID, result.ExecutionID); err != nil {
				logger.WithField("recommendation_id", item.ID).
					WithError(err).Error("Failed to mark recommendation applied")
			}

		case model.ExecutionStatusSkipped:
			if err := queue.MarkDismissed(ctx, item.ID, result.Message); err != nil {
				logger.WithField("recommendation_id", item.ID).
					WithError(err).Error("Failed to mark recommendation dismissed")
			}
		}
	}

	return nil
}
