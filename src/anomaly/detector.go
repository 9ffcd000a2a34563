package anomaly

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"budgetpilot/src/model"
)

// Detector supplies the active anomalies for a workspace. The autopilot
// engine treats any non-empty result as a hard pause signal when the
// guardrail config has PauseOnAnomaly set.
type Detector interface {
	CheckForAnomalies(ctx context.Context, workspaceID string) ([]model.Anomaly, error)
}

// HTTPDetector queries the anomaly-detection service over HTTP.
type HTTPDetector struct {
	http *resty.Client
}

func NewHTTPDetector() *HTTPDetector {
	config := GetConfig()

	httpClient := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetRetryCount(config.RetryCount)

	return &HTTPDetector{http: httpClient}
}

// WithClient overrides the resty client, useful for tests against httptest servers.
func (d *HTTPDetector) WithClient(client *resty.Client) *HTTPDetector {
	return &HTTPDetector{http: client}
}

type anomaliesResponse struct {
	Anomalies []model.Anomaly `json:"anomalies"`
}

func (d *HTTPDetector) CheckForAnomalies(ctx context.Context, workspaceID string) ([]model.Anomaly, error) {
	var out anomaliesResponse

	resp, err := d.http.R().
		SetContext(ctx).
		SetQueryParam("workspaceId", workspaceID).
		SetResult(&out).
		Get("/anomalies/active")

	if err != nil {
		logger.WithField("workspace_id", workspaceID).
			WithError(err).Error("Anomaly check request failed")
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("anomaly service returned %s", resp.Status())
	}

	return out.Anomalies, nil
}
