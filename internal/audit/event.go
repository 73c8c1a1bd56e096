package audit

import "time"

// DecisionEvent — одна запись журнала решений движка.
// Пишется на каждый create/update, включая отказ оракула.
type DecisionEvent struct {
	ID      string `json:"id"`       // UUID события
	EntryID string `json:"entry_id"` // Какую декларацию решали
	Action  string `json:"action"`   // "create" или "update"

	Username string `json:"username"`
	ToolName string `json:"tool_name"`

	// Итог решения
	Status          string `json:"status"`          // Pending/Approved/Denied
	RiskLevel       string `json:"risk_level"`      // финальный уровень
	DecisionSource  string `json:"decision_source"` // AdversarialFilter / AI Compliance Guard / ""
	AdversarialFlag bool   `json:"adversarial_flag"`

	Error      string    `json:"error,omitempty"` // например, отказ оракула
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
