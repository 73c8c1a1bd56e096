package domain

import "time"

// ModelCard — неизменяемый аудит-слепок записи в момент ее первого
// перехода в статус Approved. На одну запись — максимум одна карта
// (уникальный индекс по usage_entry_id). Карта не обновляется и не
// удаляется иначе как каскадом при удалении самой записи.
type ModelCard struct {
	ID           string    `json:"id"`
	UsageEntryID string    `json:"usage_entry_id"`
	ApprovedBy   string    `json:"approved_by"`
	ApprovedAt   time.Time `json:"approved_at"`

	// Замороженное состояние риска/комплаенса на момент одобрения
	FinalRiskLevel      string     `json:"final_risk_level"`
	AiRiskLevel         string     `json:"ai_risk_level"`
	AiConfidence        *float64   `json:"ai_confidence,omitempty"`
	AiRationale         string     `json:"ai_rationale,omitempty"`
	ComplianceChecklist StringList `json:"compliance_checklist"`
	StatusDecision      string     `json:"status_decision"`
	PolicyAlerts        StringList `json:"policy_alerts"`
	Notes               string     `json:"notes,omitempty"`
}

// SnapshotCard строит карту из пост-апдейтного состояния записи.
// approvedBy по умолчанию "System", если актор неизвестен.
func SnapshotCard(id string, e *UsageEntry, approvedBy string, at time.Time) *ModelCard {
	if approvedBy == "" {
		approvedBy = "System"
	}
	return &ModelCard{
		ID:                  id,
		UsageEntryID:        e.ID,
		ApprovedBy:          approvedBy,
		ApprovedAt:          at,
		FinalRiskLevel:      e.RiskLevel,
		AiRiskLevel:         e.AiRiskLevel,
		AiConfidence:        e.AiConfidence,
		AiRationale:         e.AiRationale,
		ComplianceChecklist: e.ComplianceChecklist,
		StatusDecision:      e.Status,
		PolicyAlerts:        e.PolicyAlerts,
	}
}
