package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnavailable — оракул недоступен: сетевой сбой, таймаут, не-2xx
// или битое тело ответа. Деградированный вердикт не возвращаем никогда —
// политику отката выбирает вызывающая сторона.
var ErrUnavailable = errors.New("risk oracle unavailable")

// Verdict — нормализованный ответ внешнего классификатора риска.
type Verdict struct {
	RiskLevel    string   `json:"risk_level"`
	Confidence   *float64 `json:"confidence,omitempty"`
	Rationale    string   `json:"rationale"`
	ModelName    string   `json:"model_name"`
	ModelVersion string   `json:"model_version"`
	PolicyAlerts []string `json:"policy_alerts"`
}

// Assessor — контракт шлюза для движка решений.
// Позволяет подменять оракула тест-двойником и оборачивать декоратором.
type Assessor interface {
	Assess(ctx context.Context, toolName, dataType, purpose string) (*Verdict, error)
}

// Client — HTTP-шлюз к сервису классификации. Один синхронный вызов
// на одну декларацию, без ретраев и без кэша.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.Named("oracle"),
	}
}

// Формат запроса/ответа сервиса оценки (POST /assess)
type assessRequest struct {
	ToolName string `json:"toolName"`
	DataType string `json:"dataType"`
	Purpose  string `json:"purpose"`
}

type assessResponse struct {
	RiskLevel    string   `json:"riskLevel"`
	Confidence   *float64 `json:"confidence"`
	Rationale    string   `json:"rationale"`
	ModelName    string   `json:"modelName"`
	ModelVersion string   `json:"modelVersion"`
	PolicyAlerts []string `json:"policyAlerts"`
}

func (c *Client) Assess(ctx context.Context, toolName, dataType, purpose string) (*Verdict, error) {
	body, err := json.Marshal(assessRequest{ToolName: toolName, DataType: dataType, Purpose: purpose})
	if err != nil {
		return nil, fmt.Errorf("oracle: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/assess", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("oracle: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("assessment call failed", zap.Error(err))
		return nil, fmt.Errorf("oracle: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("assessment returned non-success status", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("oracle: status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var api assessResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, fmt.Errorf("oracle: decode response: %v: %w", err, ErrUnavailable)
	}
	if api.RiskLevel == "" {
		// Пустое тело или ответ без вердикта — такой же отказ, как 500
		return nil, fmt.Errorf("oracle: empty verdict: %w", ErrUnavailable)
	}

	alerts := api.PolicyAlerts
	if alerts == nil {
		alerts = []string{}
	}

	return &Verdict{
		RiskLevel:    api.RiskLevel,
		Confidence:   api.Confidence,
		Rationale:    api.Rationale,
		ModelName:    api.ModelName,
		ModelVersion: api.ModelVersion,
		PolicyAlerts: alerts,
	}, nil
}
