package anomaly

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
)

func TestHTTPDetectorCheckForAnomalies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/anomalies/active" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("workspaceId") != "ws-1" {
			t.Fatalf("workspace not forwarded: %s", r.URL.RawQuery)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"anomalies": [
			{"type": "SPEND_SPIKE", "severity": "CRITICAL", "description": "spend 3x above baseline"},
			{"type": "CTR_DROP", "severity": "WARNING", "description": "ctr fell 40%"}
		]}`))
	}))
	defer server.Close()

	detector := (&HTTPDetector{}).WithClient(resty.New().SetBaseURL(server.URL))

	anomalies, err := detector.CheckForAnomalies(context.Background(), "ws-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(anomalies) != 2 {
		t.Fatalf("expected 2 anomalies, got %d", len(anomalies))
	}
	if anomalies[0].Type != "SPEND_SPIKE" || anomalies[1].Type != "CTR_DROP" {
		t.Fatalf("unexpected anomalies: %+v", anomalies)
	}
}

func TestHTTPDetectorEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"anomalies": []}`))
	}))
	defer server.Close()

	detector := (&HTTPDetector{}).WithClient(resty.New().SetBaseURL(server.URL))

	anomalies, err := detector.CheckForAnomalies(context.Background(), "ws-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(anomalies) != 0 {
		t.Fatalf("expected no anomalies, got %+v", anomalies)
	}
}

func TestHTTPDetectorServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	detector := (&HTTPDetector{}).WithClient(resty.New().SetBaseURL(server.URL))

	if _, err := detector.CheckForAnomalies(context.Background(), "ws-1"); err == nil {
		t.Fatal("expected an error for a 5xx response")
	}
}
