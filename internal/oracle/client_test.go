package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestAssessSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/assess" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req["toolName"] != "ChatGPT" || req["dataType"] != "PII" || req["purpose"] != "drafting" {
			t.Errorf("request payload = %v", req)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"riskLevel":    "Medium",
			"confidence":   0.87,
			"rationale":    "heuristic mapping",
			"modelName":    "tiny-distilbert",
			"modelVersion": "v1",
			"policyAlerts": []string{"GDPR"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	v, err := c.Assess(context.Background(), "ChatGPT", "PII", "drafting")
	if err != nil {
		t.Fatalf("Assess returned error: %v", err)
	}
	if v.RiskLevel != "Medium" {
		t.Errorf("risk = %q", v.RiskLevel)
	}
	if v.Confidence == nil || *v.Confidence != 0.87 {
		t.Errorf("confidence = %v", v.Confidence)
	}
	if len(v.PolicyAlerts) != 1 || v.PolicyAlerts[0] != "GDPR" {
		t.Errorf("alerts = %v", v.PolicyAlerts)
	}
}

func TestAssessNilAlertsNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"riskLevel": "Low"})
	}))
	defer srv.Close()

	v, err := NewClient(srv.URL, time.Second, zap.NewNop()).Assess(context.Background(), "t", "d", "p")
	if err != nil {
		t.Fatalf("Assess returned error: %v", err)
	}
	if v.PolicyAlerts == nil {
		t.Error("alerts must be normalized to empty slice, not nil")
	}
	if v.Confidence != nil {
		t.Error("absent confidence must stay nil")
	}
}

func TestAssessNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, zap.NewNop()).Assess(context.Background(), "t", "d", "p")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestAssessMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, zap.NewNop()).Assess(context.Background(), "t", "d", "p")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestAssessEmptyVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, zap.NewNop()).Assess(context.Background(), "t", "d", "p")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestAssessConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // адрес валидный, но никто не слушает

	_, err := NewClient(srv.URL, time.Second, zap.NewNop()).Assess(context.Background(), "t", "d", "p")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
