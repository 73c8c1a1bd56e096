package compliance

import (
	"strings"

	"github.com/xela07ax/ai-governance-portal/internal/policy"
)

// Рекомендации движка. Auto-deny перекрывает уровень риска,
// если найдено хотя бы одно грубое нарушение.
const (
	RecAutoApprove   = "Auto-approve"
	RecManualReview  = "Manual review recommended"
	RecEscalate      = "Escalate for manual approval"
	RecAutoDeny      = "Auto-deny"
	RecPendingAssess = "Pending assessment"
)

// Recommendation — результат маппинга: чеклист обязательных действий,
// итоговая рекомендация и список грубых нарушений (non-empty = отказ).
type Recommendation struct {
	Checklist       []string
	Recommendation  string
	MajorViolations []string
}

// ChecklistString — человекочитаемый вид чеклиста.
// Структурный список остается источником правды для дальнейшей логики.
func (r Recommendation) ChecklistString() string {
	return strings.Join(r.Checklist, "; ")
}

// Mapper — чистый детерминированный маппер риска и ключевых слов
// в комплаенс-вердикт. Порядок пунктов фиксирован порядком проверок,
// дубликаты схлопываются с сохранением первого вхождения.
type Mapper struct {
	kw policy.Keywords
}

func NewMapper(kw policy.Keywords) *Mapper {
	return &Mapper{kw: kw}
}

// BuildChecklist собирает вердикт из уровня риска, категории данных,
// алертов оракула и текста назначения. Регистронезависим по всем входам.
func (m *Mapper) BuildChecklist(riskLevel, dataType string, policyAlerts []string, narrative string) Recommendation {
	var tasks []string
	var majorViolations []string

	alerts := make(map[string]bool, len(policyAlerts))
	for _, a := range policyAlerts {
		alerts[strings.ToLower(a)] = true
	}
	loweredData := strings.ToLower(dataType)
	loweredNarrative := strings.ToLower(narrative)

	hit := func(family []string) bool {
		for _, kw := range family {
			if alerts[kw] || strings.Contains(loweredNarrative, kw) || strings.Contains(loweredData, kw) {
				return true
			}
		}
		return false
	}

	if hit(m.kw.GDPR) {
		majorViolations = append(majorViolations, "GDPR data handling risk")
		tasks = append(tasks,
			"Data Protection Officer review (GDPR)",
			"Record processing activity in Article 30 register")
	}

	if hit(m.kw.HIPAA) {
		majorViolations = append(majorViolations, "HIPAA compliance risk")
		tasks = append(tasks,
			"Legal counsel sign-off for HIPAA",
			"Business Associate Agreement verification")
	}

	// Финансовая экспозиция фиксируется чеклистом, но отказ не форсирует
	if hit(m.kw.Financial) {
		tasks = append(tasks, "PCI DSS security checklist")
	}

	switch strings.ToLower(riskLevel) {
	case "high":
		tasks = append(tasks, "Executive approval required", "NIST AI RMF high-risk assessment")
	case "medium":
		tasks = append(tasks, "Team lead manual review", "Privacy impact assessment")
	default:
		tasks = append(tasks, "Auto-approval eligible")
	}

	if strings.Contains(loweredData, "pii") || strings.Contains(loweredNarrative, "personal data") {
		tasks = append(tasks, "Data minimization checklist")
	}

	var recommendation string
	switch strings.ToLower(riskLevel) {
	case "low":
		recommendation = RecAutoApprove
	case "medium":
		recommendation = RecManualReview
	case "high":
		recommendation = RecEscalate
	default:
		recommendation = RecPendingAssess
	}

	if len(majorViolations) > 0 {
		recommendation = RecAutoDeny
	}

	return Recommendation{
		Checklist:       dedup(tasks),
		Recommendation:  recommendation,
		MajorViolations: dedup(majorViolations),
	}
}

// dedup сохраняет первое вхождение каждого элемента
func dedup(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
