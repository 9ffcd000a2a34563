package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"budgetpilot/src/features"
	"budgetpilot/src/model"
)

type mockConfigUpserter struct {
	saved       *model.GuardrailConfig
	err         error
	calledCount int
}

func (m *mockConfigUpserter) Upsert(ctx context.Context, cfg *model.GuardrailConfig) (*model.GuardrailConfig, error) {
	m.calledCount++
	m.saved = cfg
	return cfg, m.err
}

func TestUpsertConfigHandler_Success(t *testing.T) {
	mockRepo := &mockConfigUpserter{}
	gate := features.StaticGate{AutopilotFeatureFlag: true}
	handler := UpsertConfigHandler(mockRepo, gate)

	body := `{
		"workspace_id": "ws-1",
		"is_enabled": true,
		"mode": "MODERATE",
		"max_daily_budget_change": "10",
		"max_single_change": "5",
		"cooldown_minutes": 60
	}`
	req := httptest.NewRequest(http.MethodPut, "/autopilot/config", strings.NewReader(body))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if mockRepo.saved == nil || mockRepo.saved.WorkspaceID != "ws-1" {
		t.Fatalf("config not forwarded: %+v", mockRepo.saved)
	}
	if mockRepo.saved.ID != 0 {
		t.Fatal("client-supplied id must be discarded")
	}
}

func TestUpsertConfigHandler_FlagDisabled(t *testing.T) {
	mockRepo := &mockConfigUpserter{}
	handler := UpsertConfigHandler(mockRepo, features.StaticGate{})

	req := httptest.NewRequest(http.MethodPut, "/autopilot/config",
		strings.NewReader(`{"workspace_id": "ws-1"}`))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
	if mockRepo.calledCount != 0 {
		t.Fatal("repo must not be called when the flag is off")
	}
}

type failingGate struct{}

func (failingGate) IsEnabled(ctx context.Context, flag, workspaceID string) (bool, error) {
	return false, assert.AnError
}

func TestUpsertConfigHandler_GateUnavailable(t *testing.T) {
	handler := UpsertConfigHandler(&mockConfigUpserter{}, failingGate{})

	req := httptest.NewRequest(http.MethodPut, "/autopilot/config",
		strings.NewReader(`{"workspace_id": "ws-1"}`))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

func TestUpsertConfigHandler_MissingWorkspace(t *testing.T) {
	handler := UpsertConfigHandler(&mockConfigUpserter{}, features.StaticGate{AutopilotFeatureFlag: true})

	req := httptest.NewRequest(http.MethodPut, "/autopilot/config", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
