package handler

import (
	"context"
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"budgetpilot/src/features"
	"budgetpilot/src/model"
)

// AutopilotFeatureFlag gates guardrail-config mutation. Evaluation and
// execution never consult the flag store.
const AutopilotFeatureFlag = "autopilot"

type configUpserter interface {
	Upsert(ctx context.Context, cfg *model.GuardrailConfig) (*model.GuardrailConfig, error)
}

// UpsertConfigHandler returns a handler that creates or updates the
// guardrail config for a (workspace, campaign) scope, behind the autopilot
// feature flag.
func UpsertConfigHandler(repo configUpserter, gate features.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cfg model.GuardrailConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if cfg.WorkspaceID == "" {
			http.Error(w, "workspace_id is required", http.StatusBadRequest)
			return
		}

		enabled, err := gate.IsEnabled(r.Context(), AutopilotFeatureFlag, cfg.WorkspaceID)
		if err != nil {
			logger.WithError(err).Error("Feature gate check failed")
			http.Error(w, "feature gate unavailable", http.StatusServiceUnavailable)
			return
		}
		if !enabled {
			http.Error(w, "autopilot is not enabled for this workspace", http.StatusForbidden)
			return
		}

		// Ignore client-supplied identity fields; the scope is the key.
		cfg.ID = 0

		saved, err := repo.Upsert(r.Context(), &cfg)
		if err != nil {
			logger.WithError(err).Error("Failed to upsert guardrail config")
			http.Error(w, "failed to save config", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, saved)
	}
}
