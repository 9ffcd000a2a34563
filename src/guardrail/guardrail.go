package guardrail

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budgetpilot/src/model"
)

// Gate identifies which guardrail produced a decision. Used for metrics and
// for mapping denials to alert types.
type Gate string

const (
	GateEnabled       Gate = "enabled"
	GateEmergencyStop Gate = "emergency_stop"
	GateBudgetFloor   Gate = "budget_floor"
	GateBudgetCeiling Gate = "budget_ceiling"
	GateCooldown      Gate = "cooldown"
	GateAnomaly       Gate = "anomaly"
	GateSingleMove    Gate = "single_move"
	GateApproval      Gate = "approval"
	GateDailyLimit    Gate = "daily_limit"
	GatePassed        Gate = "passed"
)

var oneHundred = decimal.NewFromInt(100)

// Decision is the evaluator outcome. Reason is empty when Allow is true.
type Decision struct {
	Allow  bool   `json:"should_execute"`
	Reason string `json:"reason,omitempty"`
	Gate   Gate   `json:"gate"`
}

// State is the mutable world the caller gathered before evaluation: the most
// recent completed execution, active anomalies (only fetched when the config
// pauses on anomaly) and today's ledger total. Keeping it a plain struct
// keeps Evaluate pure and table-testable.
type State struct {
	Now             time.Time
	LastCompletedAt *time.Time
	Anomalies       []model.Anomaly
	TotalMovedToday decimal.Decimal
}

// Evaluate applies the guardrail chain to a recommendation. Checks run in a
// fixed order and short-circuit: the first failing gate determines the
// outcome and reason. cfg may be nil (no config found for the scope), which
// denies at the first gate.
//
// Note the daily-limit gate here is a read-only pre-check; the authoritative
// cap enforcement is the conditional ledger increment inside the execution
// transaction.
func Evaluate(rec model.Recommendation, cfg *model.GuardrailConfig, st State) Decision {
	// 1. Enablement.
	if cfg == nil || !cfg.IsEnabled {
		return deny(GateEnabled, "Autopilot disabled")
	}

	// 2. Emergency stop. Re-verified independently at execution time.
	if cfg.IsEmergencyStopped {
		return deny(GateEmergencyStop, "Emergency stop is active")
	}

	// 3. Budget floor.
	if cfg.MinBudget != nil && rec.SuggestedBudget.LessThan(*cfg.MinBudget) {
		return deny(GateBudgetFloor, fmt.Sprintf(
			"Suggested budget %s is below the configured floor of %s",
			rec.SuggestedBudget.String(), cfg.MinBudget.String()))
	}

	// 4. Budget ceiling.
	if cfg.MaxBudget != nil && rec.SuggestedBudget.GreaterThan(*cfg.MaxBudget) {
		return deny(GateBudgetCeiling, fmt.Sprintf(
			"Suggested budget %s is above the configured ceiling of %s",
			rec.SuggestedBudget.String(), cfg.MaxBudget.String()))
	}

	// 5. Cooldown since the last completed execution.
	if cfg.CooldownMinutes > 0 && st.LastCompletedAt != nil {
		elapsed := int(st.Now.Sub(*st.LastCompletedAt).Minutes())
		if elapsed < cfg.CooldownMinutes {
			return deny(GateCooldown, fmt.Sprintf(
				"Cool-down active. %dm vs %dm required", elapsed, cfg.CooldownMinutes))
		}
	}

	// 6. Anomaly pause.
	if cfg.PauseOnAnomaly && len(st.Anomalies) > 0 {
		types := make([]string, 0, len(st.Anomalies))
		for _, a := range st.Anomalies {
			types = append(types, a.Type)
		}
		return deny(GateAnomaly, fmt.Sprintf(
			"Paused on anomaly: %s", strings.Join(types, ", ")))
	}

	delta := rec.BudgetChange()

	// 7. Single-move percent limit. A zero current budget has no base to
	// express a percent against, so unattended automation fails closed.
	if rec.CurrentBudget.IsZero() {
		return deny(GateSingleMove,
			"Current budget is zero. Refusing unattended move against a zero base")
	}
	pct := delta.Abs().Div(rec.CurrentBudget.Abs()).Mul(oneHundred)
	if pct.GreaterThan(cfg.MaxSingleChange) {
		return deny(GateSingleMove, fmt.Sprintf(
			"Change of %s%% exceeds single move limit of %s%%",
			pct.StringFixed(1), cfg.MaxSingleChange.String()))
	}

	// 8. Approval threshold (absolute amount, not percent).
	if cfg.RequireApprovalAbove != nil && delta.Abs().GreaterThan(*cfg.RequireApprovalAbove) {
		return deny(GateApproval, fmt.Sprintf(
			"Change of %s requires manual approval (threshold %s)",
			delta.Abs().String(), cfg.RequireApprovalAbove.String()))
	}

	// 9. Daily move limit against the running ledger.
	limit := DailyLimitAmount(rec.CurrentBudget, cfg.MaxDailyBudgetChange)
	if limit.IsPositive() && st.TotalMovedToday.Add(delta.Abs()).GreaterThan(limit) {
		return deny(GateDailyLimit, "Daily budget move limit reached")
	}

	return Decision{Allow: true, Gate: GatePassed}
}

// DailyLimitAmount converts the configured percent cap into an absolute
// amount against the campaign's current budget. A non-positive result means
// no cap is in effect.
func DailyLimitAmount(baseBudget, limitPercent decimal.Decimal) decimal.Decimal {
	return baseBudget.Mul(limitPercent).Div(oneHundred)
}

func deny(gate Gate, reason string) Decision {
	return Decision{Allow: false, Reason: reason, Gate: gate}
}
