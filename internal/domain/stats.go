package domain

// GovernanceStats — агрегированная картина для дашборда комплаенс-офицера.
type GovernanceStats struct {
	TotalEntries    int64 `json:"total_entries"`
	PendingEntries  int64 `json:"pending_entries"`
	ApprovedEntries int64 `json:"approved_entries"`
	DeniedEntries   int64 `json:"denied_entries"`

	AdversarialFlagged int64 `json:"adversarial_flagged"` // сработки сканера
	AutoDenied         int64 `json:"auto_denied"`         // отказы AI Compliance Guard
	ModelCards         int64 `json:"model_cards"`

	RiskBreakdown map[string]int64 `json:"risk_breakdown"` // risk_level -> count
}
