package executors

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"budgetpilot/src/autopilot"
	"budgetpilot/src/model"
)

type stubExecutionService struct {
	results map[string]autopilot.ExecutionResult
	errs    map[string]error

	executed []string
	sources  []string
}

func (s *stubExecutionService) Execute(ctx context.Context, rec model.Recommendation, triggerSource string) (autopilot.ExecutionResult, error) {
	s.executed = append(s.executed, rec.ID)
	s.sources = append(s.sources, triggerSource)
	if err := s.errs[rec.ID]; err != nil {
		return autopilot.ExecutionResult{}, err
	}
	return s.results[rec.ID], nil
}

type stubQueue struct {
	pending []model.BudgetRecommendation
	findErr error

	applied   map[string]string
	dismissed map[string]string
}

func newStubQueue(pending ...model.BudgetRecommendation) *stubQueue {
	return &stubQueue{
		pending:   pending,
		applied:   map[string]string{},
		dismissed: map[string]string{},
	}
}

func (s *stubQueue) FindPending(ctx context.Context, workspaceID string, limit int) ([]model.BudgetRecommendation, error) {
	return s.pending, s.findErr
}

func (s *stubQueue) MarkApplied(ctx context.Context, id string, executionID string) error {
	s.applied[id] = executionID
	return nil
}

func (s *stubQueue) MarkDismissed(ctx context.Context, id string, note string) error {
	s.dismissed[id] = note
	return nil
}

func pendingRec(id string) model.BudgetRecommendation {
	return model.BudgetRecommendation{
		ID:              id,
		WorkspaceID:     "ws-1",
		CampaignID:      "camp-1",
		Type:            model.RecommendationTypeBudgetIncrease,
		CurrentBudget:   decimal.RequireFromString("100"),
		SuggestedBudget: decimal.RequireFromString("104"),
		Status:          model.RecommendationStatusPending,
	}
}

func TestRunOnceMarksOutcomes(t *testing.T) {
	service := &stubExecutionService{
		results: map[string]autopilot.ExecutionResult{
			"rec-1": {ExecutionID: "exec-1", Status: model.ExecutionStatusCompleted},
			"rec-2": {Status: model.ExecutionStatusSkipped, Message: "Cool-down active. 30m vs 60m required"},
		},
	}
	queue := newStubQueue(pendingRec("rec-1"), pendingRec("rec-2"))

	err := RunOnce(context.Background(), service, queue, Config{BatchSize: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if queue.applied["rec-1"] != "exec-1" {
		t.Fatalf("completed recommendation not marked applied: %v", queue.applied)
	}
	if queue.dismissed["rec-2"] != "Cool-down active. 30m vs 60m required" {
		t.Fatalf("skipped recommendation not dismissed with reason: %v", queue.dismissed)
	}
	for _, source := range service.sources {
		if source != autopilot.TriggerSourceCron {
			t.Fatalf("worker executions must be CRON, got %s", source)
		}
	}
}

func TestRunOnceContinuesPastItemFailures(t *testing.T) {
	service := &stubExecutionService{
		results: map[string]autopilot.ExecutionResult{
			"rec-2": {ExecutionID: "exec-2", Status: model.ExecutionStatusCompleted},
		},
		errs: map[string]error{
			"rec-1": errors.New("campaign not found"),
		},
	}
	queue := newStubQueue(pendingRec("rec-1"), pendingRec("rec-2"))

	err := RunOnce(context.Background(), service, queue, Config{BatchSize: 20})
	if err != nil {
		t.Fatalf("one bad item must not fail the batch: %v", err)
	}

	if len(service.executed) != 2 {
		t.Fatalf("expected both items attempted, got %v", service.executed)
	}
	if queue.applied["rec-2"] != "exec-2" {
		t.Fatalf("surviving item not applied: %v", queue.applied)
	}
	if _, ok := queue.applied["rec-1"]; ok {
		t.Fatal("failed item must stay pending")
	}
}

func TestRunOnceAbortsOnQueueFailure(t *testing.T) {
	service := &stubExecutionService{}
	queue := newStubQueue()
	queue.findErr = errors.New("connection refused")

	err := RunOnce(context.Background(), service, queue, Config{BatchSize: 20})
	if err == nil {
		t.Fatal("expected error when the queue is unreadable")
	}
	if len(service.executed) != 0 {
		t.Fatal("nothing should execute when the queue read fails")
	}
}
