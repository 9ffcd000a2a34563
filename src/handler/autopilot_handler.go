package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"budgetpilot/src/auth"
	"budgetpilot/src/autopilot"
	"budgetpilot/src/model"
	"budgetpilot/src/repository"
)

type autopilotService interface {
	Execute(ctx context.Context, rec model.Recommendation, triggerSource string) (autopilot.ExecutionResult, error)
	Rollback(ctx context.Context, executionID string, userID string) (autopilot.ExecutionResult, error)
}

type executeRequest struct {
	RecommendationID string          `json:"recommendation_id"`
	Type             string          `json:"type"`
	WorkspaceID      string          `json:"workspace_id"`
	CampaignID       string          `json:"campaign_id"`
	CurrentBudget    decimal.Decimal `json:"current_budget"`
	SuggestedBudget  decimal.Decimal `json:"suggested_budget"`
	Reason           string          `json:"reason"`
	Confidence       float64         `json:"confidence"`
}

// ExecuteHandler returns a handler that pushes one recommendation through
// the guardrail engine with a MANUAL trigger source.
func ExecuteHandler(service autopilotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req executeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if req.WorkspaceID == "" || req.CampaignID == "" {
			http.Error(w, "workspace_id and campaign_id are required", http.StatusBadRequest)
			return
		}

		rec := model.Recommendation{
			ID:              req.RecommendationID,
			Type:            req.Type,
			WorkspaceID:     req.WorkspaceID,
			CampaignID:      req.CampaignID,
			CurrentBudget:   req.CurrentBudget,
			SuggestedBudget: req.SuggestedBudget,
			Reason:          req.Reason,
			Confidence:      req.Confidence,
		}

		result, err := service.Execute(r.Context(), rec, autopilot.TriggerSourceManual)
		if err != nil {
			logger.WithError(err).Error("Manual execution failed")
			http.Error(w, "execution failed", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

type rollbackRequest struct {
	ExecutionID string `json:"execution_id"`
}

// RollbackHandler returns a handler that reverses a completed execution on
// behalf of the authenticated user.
func RollbackHandler(service autopilotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req rollbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.ExecutionID == "" {
			http.Error(w, "execution_id is required", http.StatusBadRequest)
			return
		}

		result, err := service.Rollback(r.Context(), req.ExecutionID, user.ID)
		if err != nil {
			switch {
			case errors.Is(err, autopilot.ErrExecutionNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, autopilot.ErrExecutionNotCompleted),
				errors.Is(err, autopilot.ErrAlreadyRolledBack),
				errors.Is(err, autopilot.ErrNotInvertible):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				logger.WithError(err).Error("Rollback failed")
				http.Error(w, "rollback failed", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

type executionSearcher interface {
	Search(ctx context.Context, options repository.ExecutionSearchOptions) ([]model.AutopilotExecution, error)
}

// SearchExecutionsHandler returns a handler that lists execution records for
// a workspace. Supports pagination and filters (campaignId, status,
// createdFrom, createdTo).
func SearchExecutionsHandler(repo executionSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID := r.URL.Query().Get("workspaceId")
		if workspaceID == "" {
			http.Error(w, "workspaceId is required", http.StatusBadRequest)
			return
		}

		options := repository.ExecutionSearchOptions{WorkspaceID: workspaceID}

		if campaignParam := r.URL.Query().Get("campaignId"); campaignParam != "" {
			options.CampaignID = &campaignParam
		}

		if statusParam := r.URL.Query().Get("status"); statusParam != "" {
			options.Status = &statusParam
		}

		if createdFromParam := r.URL.Query().Get("createdFrom"); createdFromParam != "" {
			parsed, err := time.Parse(time.RFC3339, createdFromParam)
			if err != nil {
				http.Error(w, "invalid createdFrom", http.StatusBadRequest)
				return
			}
			options.CreatedAfter = &parsed
		}

		if createdToParam := r.URL.Query().Get("createdTo"); createdToParam != "" {
			parsed, err := time.Parse(time.RFC3339, createdToParam)
			if err != nil {
				http.Error(w, "invalid createdTo", http.StatusBadRequest)
				return
			}
			options.CreatedBefore = &parsed
		}

		page := 1
		if pageParam := r.URL.Query().Get("page"); pageParam != "" {
			parsedPage, err := strconv.Atoi(pageParam)
			if err != nil || parsedPage <= 0 {
				http.Error(w, "invalid page", http.StatusBadRequest)
				return
			}
			page = parsedPage
		}

		pageSize := 50
		if sizeParam := r.URL.Query().Get("pageSize"); sizeParam != "" {
			parsedSize, err := strconv.Atoi(sizeParam)
			if err != nil || parsedSize <= 0 || parsedSize > 500 {
				http.Error(w, "invalid pageSize", http.StatusBadRequest)
				return
			}
			pageSize = parsedSize
		}

		options.Limit = pageSize
		options.Offset = (page - 1) * pageSize

		executions, err := repo.Search(r.Context(), options)
		if err != nil {
			http.Error(w, "search failed", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, executions)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WithError(err).Error("Failed to encode response")
	}
}
