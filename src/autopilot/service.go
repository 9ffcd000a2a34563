package autopilot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"budgetpilot/src/alerts"
	"budgetpilot/src/anomaly"
	"budgetpilot/src/guardrail"
	"budgetpilot/src/metrics"
	"budgetpilot/src/model"
	"budgetpilot/src/repository"
	"budgetpilot/src/utils"
)

// Trigger sources recorded on execution metadata.
const (
	TriggerSourceCron     = "CRON"
	TriggerSourceManual   = "MANUAL"
	TriggerSourceRollback = "ROLLBACK"
)

const alertSendTimeout = 5 * time.Second

// ConfigStore resolves the effective guardrail config for a campaign
// (campaign-specific row first, workspace-wide default as fallback).
type ConfigStore interface {
	Resolve(ctx context.Context, workspaceID string, campaignID string) (*model.GuardrailConfig, error)
}

// ExecutionStore is the durable audit trail of execution attempts.
type ExecutionStore interface {
	Create(ctx context.Context, exec *model.AutopilotExecution) error
	Update(ctx context.Context, exec *model.AutopilotExecution) error
	FindByID(ctx context.Context, id string) (*model.AutopilotExecution, error)
	FindLatestCompleted(ctx context.Context, workspaceID string, campaignID string) (*model.AutopilotExecution, error)
}

// LedgerReader exposes the read side of the daily move ledger for the
// evaluation pre-check. The authoritative write happens inside the Mover.
type LedgerReader interface {
	GetForDay(ctx context.Context, campaignID string, day time.Time) (*model.DailyBudgetMove, error)
}

// Mover runs the transactional core: budget mutation, ledger increment and
// execution status transition as one all-or-nothing unit.
type Mover interface {
	ApplyBudgetMove(ctx context.Context, move repository.BudgetMove) error
	ApplyRollback(ctx context.Context, move repository.RollbackMove) error
}

// ExecutionResult is what callers get back from Execute and Rollback.
type ExecutionResult struct {
	ExecutionID  string          `json:"execution_id,omitempty"`
	Status       string          `json:"status"`
	BudgetChange decimal.Decimal `json:"budget_change"`
	NewBudget    decimal.Decimal `json:"new_budget"`
	Message      string          `json:"message,omitempty"`
}

// Service is the autopilot guardrail evaluation and execution engine. All
// state lives in the stores; Service instances are safe for concurrent use
// across campaigns, and the conditional ledger increment inside the Mover
// keeps concurrent executions for one campaign under the daily cap.
type Service struct {
	logger     *logrus.Entry
	configs    ConfigStore
	executions ExecutionStore
	ledger     LedgerReader
	mover      Mover
	detector   anomaly.Detector
	sink       alerts.Sink
	now        func() time.Time
}

func NewService(
	logger *logrus.Entry,
	configs ConfigStore,
	executions ExecutionStore,
	ledger LedgerReader,
	mover Mover,
	detector anomaly.Detector,
	sink alerts.Sink,
) *Service {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Service{
		logger:     logger,
		configs:    configs,
		executions: executions,
		ledger:     ledger,
		mover:      mover,
		detector:   detector,
		sink:       sink,
		now:        time.Now,
	}
}

// Evaluate resolves the effective config and runs the guardrail chain
// against a recommendation. A denial is a normal outcome, not an error; the
// error return covers store/infrastructure failures only.
func (s *Service) Evaluate(ctx context.Context, rec model.Recommendation) (guardrail.Decision, error) {
	cfg, err := s.configs.Resolve(ctx, rec.WorkspaceID, rec.CampaignID)
	if err != nil {
		return guardrail.Decision{}, err
	}

	return s.evaluateWithConfig(ctx, rec, cfg)
}

func (s *Service) evaluateWithConfig(
	ctx context.Context,
	rec model.Recommendation,
	cfg *model.GuardrailConfig,
) (guardrail.Decision, error) {

	st := guardrail.State{
		Now:             s.now(),
		TotalMovedToday: decimal.Zero,
	}

	// The state fetches below only matter once the cheap config-only gates
	// can pass, so skip the round-trips for disabled or stopped scopes.
	if cfg != nil && cfg.IsEnabled && !cfg.IsEmergencyStopped {
		last, err := s.executions.FindLatestCompleted(ctx, rec.WorkspaceID, rec.CampaignID)
		if err != nil {
			return guardrail.Decision{}, err
		}
		if last != nil && last.ExecutedAt != nil {
			st.LastCompletedAt = last.ExecutedAt
		}

		if cfg.PauseOnAnomaly {
			anomalies, err := s.detector.CheckForAnomalies(ctx, rec.WorkspaceID)
			if err != nil {
				// Fail closed: an unreachable detector must not wave moves
				// through a pause-on-anomaly policy.
				s.logger.WithField("workspace_id", rec.WorkspaceID).
					WithError(err).Warn("Anomaly check failed, treating as active anomaly")

				anomalies = []model.Anomaly{{
					Type:        "ANOMALY_CHECK_UNAVAILABLE",
					Severity:    model.AlertSeverityWarning,
					DetectedAt:  st.Now,
					Description: err.Error(),
				}}
			}
			st.Anomalies = anomalies
		}

		row, err := s.ledger.GetForDay(ctx, rec.CampaignID, utils.StartOfDay(st.Now))
		if err != nil {
			return guardrail.Decision{}, err
		}
		if row != nil {
			st.TotalMovedToday = row.TotalMoved
		}
	}

	decision := guardrail.Evaluate(rec, cfg, st)

	if !decision.Allow {
		metrics.GateDenialsTotal.WithLabelValues(string(decision.Gate)).Inc()
		s.alertForDenial(rec, cfg, decision)
	}

	return decision, nil
}

// Execute applies a recommendation through the guardrail chain. Denials are
// recorded as SKIPPED executions and returned without error; only store and
// transaction failures surface as errors, after the in-flight execution has
// been durably marked FAILED.
func (s *Service) Execute(
	ctx context.Context,
	rec model.Recommendation,
	triggerSource string,
) (ExecutionResult, error) {

	if triggerSource == "" {
		triggerSource = TriggerSourceCron
	}

	cfg, err := s.configs.Resolve(ctx, rec.WorkspaceID, rec.CampaignID)
	if err != nil {
		return ExecutionResult{}, err
	}

	// Emergency stop short-circuits before any record keeping. This is the
	// one decision path that does not leave an execution row: the stop flag
	// is pulled exactly when a runaway loop may be hammering this path.
	if cfg != nil && cfg.IsEmergencyStopped {
		metrics.ExecutionsTotal.WithLabelValues(model.ExecutionStatusSkipped, triggerSource).Inc()
		return ExecutionResult{
			Status:       model.ExecutionStatusSkipped,
			BudgetChange: decimal.Zero,
			NewBudget:    rec.CurrentBudget,
			Message:      "Emergency stop is active",
		}, nil
	}

	decision, err := s.evaluateWithConfig(ctx, rec, cfg)
	if err != nil {
		return ExecutionResult{}, err
	}

	if !decision.Allow {
		// Record what would have happened alongside the denial reason.
		exec := &model.AutopilotExecution{
			ID:                 uuid.NewString(),
			WorkspaceID:        rec.WorkspaceID,
			CampaignID:         rec.CampaignID,
			RecommendationID:   rec.ID,
			RecommendationType: rec.Type,
			Status:             model.ExecutionStatusSkipped,
			PreviousBudget:     rec.CurrentBudget,
			NewBudget:          rec.SuggestedBudget,
			BudgetChange:       rec.BudgetChange(),
			Metadata: map[string]any{
				"reason":         decision.Reason,
				"trigger_source": triggerSource,
			},
		}

		if err := s.executions.Create(ctx, exec); err != nil {
			return ExecutionResult{}, err
		}

		metrics.ExecutionsTotal.WithLabelValues(model.ExecutionStatusSkipped, triggerSource).Inc()

		return ExecutionResult{
			ExecutionID:  exec.ID,
			Status:       model.ExecutionStatusSkipped,
			BudgetChange: decimal.Zero,
			NewBudget:    rec.CurrentBudget,
			Message:      decision.Reason,
		}, nil
	}

	now := s.now()
	delta := rec.BudgetChange()

	// Persist the EXECUTING record before touching money so a crash
	// mid-mutation leaves a discoverable, non-terminal row.
	exec := &model.AutopilotExecution{
		ID:                 uuid.NewString(),
		WorkspaceID:        rec.WorkspaceID,
		CampaignID:         rec.CampaignID,
		RecommendationID:   rec.ID,
		RecommendationType: rec.Type,
		Status:             model.ExecutionStatusExecuting,
		PreviousBudget:     rec.CurrentBudget,
		NewBudget:          rec.SuggestedBudget,
		BudgetChange:       delta,
		Metadata: map[string]any{
			"reason":         rec.Reason,
			"trigger_source": triggerSource,
		},
	}

	if err := s.executions.Create(ctx, exec); err != nil {
		return ExecutionResult{}, err
	}

	move := repository.BudgetMove{
		ExecutionID: exec.ID,
		CampaignID:  rec.CampaignID,
		NewBudget:   rec.SuggestedBudget,
		Delta:       delta,
		Day:         utils.StartOfDay(now),
		DailyLimit:  guardrail.DailyLimitAmount(rec.CurrentBudget, cfg.MaxDailyBudgetChange),
		ExecutedAt:  now,
	}

	started := time.Now()
	if err := s.mover.ApplyBudgetMove(ctx, move); err != nil {
		// The transaction rolled back; record the failure on the execution
		// as a separate write, then surface the original error.
		exec.Status = model.ExecutionStatusFailed
		exec.Metadata["error"] = err.Error()

		if updateErr := s.executions.Update(ctx, exec); updateErr != nil {
			s.logger.WithField("execution_id", exec.ID).
				WithError(updateErr).Error("Failed to mark execution as FAILED")
		}

		metrics.ExecutionsTotal.WithLabelValues(model.ExecutionStatusFailed, triggerSource).Inc()

		return ExecutionResult{}, err
	}
	metrics.ExecutionDuration.Observe(time.Since(started).Seconds())
	metrics.ExecutionsTotal.WithLabelValues(model.ExecutionStatusCompleted, triggerSource).Inc()

	s.logger.WithFields(logrus.Fields{
		"execution_id":  exec.ID,
		"campaign_id":   rec.CampaignID,
		"budget_change": delta.String(),
	}).Info("Autopilot execution completed")

	return ExecutionResult{
		ExecutionID:  exec.ID,
		Status:       model.ExecutionStatusCompleted,
		BudgetChange: delta,
		NewBudget:    rec.SuggestedBudget,
	}, nil
}

// Rollback reverses a completed execution: the campaign budget is restored
// to the previous value, the reversal is debited against the daily ledger
// (uncapped), the original is marked ROLLED_BACK exactly once, and a new
// ROLLBACK execution linked to the original is recorded. Rollback bypasses
// the evaluator entirely: it is a forced operation.
func (s *Service) Rollback(
	ctx context.Context,
	executionID string,
	userID string,
) (ExecutionResult, error) {

	orig, err := s.executions.FindByID(ctx, executionID)
	if err != nil {
		return ExecutionResult{}, err
	}
	if orig == nil {
		return ExecutionResult{}, fmt.Errorf("%w: %s", ErrExecutionNotFound, executionID)
	}
	if orig.Status != model.ExecutionStatusCompleted {
		return ExecutionResult{}, fmt.Errorf("%w: status is %s", ErrExecutionNotCompleted, orig.Status)
	}
	if orig.RolledBackAt != nil {
		return ExecutionResult{}, ErrAlreadyRolledBack
	}
	// A reallocation has no well-defined single-campaign inverse.
	if orig.RecommendationType == model.RecommendationTypeReallocate {
		return ExecutionResult{}, ErrNotInvertible
	}

	now := s.now()
	delta := orig.PreviousBudget.Sub(orig.NewBudget)

	rollback := &model.AutopilotExecution{
		ID:                 uuid.NewString(),
		WorkspaceID:        orig.WorkspaceID,
		CampaignID:         orig.CampaignID,
		RecommendationID:   orig.RecommendationID,
		RecommendationType: model.RecommendationTypeRollback,
		Status:             model.ExecutionStatusExecuting,
		PreviousBudget:     orig.NewBudget,
		NewBudget:          orig.PreviousBudget,
		BudgetChange:       delta,
		RollbackOfID:       &orig.ID,
		Metadata: map[string]any{
			"reason":         fmt.Sprintf("Rollback of execution %s", orig.ID),
			"trigger_source": TriggerSourceRollback,
			"requested_by":   userID,
		},
	}

	if err := s.executions.Create(ctx, rollback); err != nil {
		return ExecutionResult{}, err
	}

	move := repository.RollbackMove{
		OriginalExecutionID: orig.ID,
		RollbackExecutionID: rollback.ID,
		CampaignID:          orig.CampaignID,
		RestoredBudget:      orig.PreviousBudget,
		Delta:               delta,
		Day:                 utils.StartOfDay(now),
		UserID:              userID,
		ExecutedAt:          now,
	}

	if err := s.mover.ApplyRollback(ctx, move); err != nil {
		rollback.Status = model.ExecutionStatusFailed
		rollback.Metadata["error"] = err.Error()

		if updateErr := s.executions.Update(ctx, rollback); updateErr != nil {
			s.logger.WithField("execution_id", rollback.ID).
				WithError(updateErr).Error("Failed to mark rollback as FAILED")
		}

		return ExecutionResult{}, err
	}

	metrics.RollbacksTotal.Inc()

	s.logger.WithFields(logrus.Fields{
		"execution_id": rollback.ID,
		"rollback_of":  orig.ID,
		"campaign_id":  orig.CampaignID,
	}).Info("Rollback completed")

	return ExecutionResult{
		ExecutionID:  rollback.ID,
		Status:       model.ExecutionStatusCompleted,
		BudgetChange: delta,
		NewBudget:    orig.PreviousBudget,
	}, nil
}

// alertForDenial fires the best-effort alert matching a blocked gate.
// Delivery runs on its own goroutine with its own timeout: a sink outage is
// logged and counted but never reaches the guardrail decision.
func (s *Service) alertForDenial(
	rec model.Recommendation,
	cfg *model.GuardrailConfig,
	decision guardrail.Decision,
) {

	var alertType, severity string
	metadata := map[string]any{
		"suggested_budget": rec.SuggestedBudget.String(),
		"current_budget":   rec.CurrentBudget.String(),
	}

	switch decision.Gate {
	case guardrail.GateBudgetFloor:
		alertType, severity = model.AlertTypeBudgetFloorHit, model.AlertSeverityWarning
		if cfg != nil && cfg.MinBudget != nil {
			metadata["min_budget"] = cfg.MinBudget.String()
		}
	case guardrail.GateBudgetCeiling:
		alertType, severity = model.AlertTypeBudgetCeilingHit, model.AlertSeverityWarning
		if cfg != nil && cfg.MaxBudget != nil {
			metadata["max_budget"] = cfg.MaxBudget.String()
		}
	case guardrail.GateCooldown:
		alertType, severity = model.AlertTypeCooldownActive, model.AlertSeverityInfo
	default:
		return
	}

	campaignID := rec.CampaignID
	alert := model.AutopilotAlert{
		ID:          uuid.NewString(),
		WorkspaceID: rec.WorkspaceID,
		CampaignID:  &campaignID,
		AlertType:   alertType,
		Severity:    severity,
		Message:     decision.Reason,
		Metadata:    metadata,
		CreatedAt:   s.now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), alertSendTimeout)
		defer cancel()

		if err := s.sink.Send(ctx, alert); err != nil {
			metrics.AlertSendFailuresTotal.Inc()
			s.logger.WithFields(logrus.Fields{
				"alert_type":   alert.AlertType,
				"workspace_id": alert.WorkspaceID,
			}).WithError(err).Error("Failed to send guardrail alert")
		}
	}()
}
