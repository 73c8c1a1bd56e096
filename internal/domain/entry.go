package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Статусы State Machine записи об использовании AI-инструмента.
// Автоматика движется только Pending -> {Approved, Denied};
// человек-ревьюер может двигать статус в любую сторону.
type EntryStatus = string

const (
	StatusPending  EntryStatus = "Pending"
	StatusApproved EntryStatus = "Approved"
	StatusDenied   EntryStatus = "Denied"
)

// Уровни риска. RiskPending означает «оценка еще не проведена» —
// движок заменит его вердиктом оракула.
const (
	RiskLow     = "Low"
	RiskMedium  = "Medium"
	RiskHigh    = "High"
	RiskUnknown = "Unknown"
	RiskPending = "Pending"
)

// Источники автоматического решения (поле auto_decision_source)
const (
	SourceAdversarialFilter = "AdversarialFilter"
	SourceComplianceGuard   = "AI Compliance Guard"
)

var (
	// ErrNotFound — запись с таким ID отсутствует в хранилище
	ErrNotFound = errors.New("entry not found")
)

// StringList — упорядоченный список строк с контрактом сериализации
// «JSON-массив». Заменяет склейку через запятую в одну строковую колонку:
// никакого экранирования разделителей, порядок сохраняется.
type StringList []string

// Join возвращает человекочитаемое представление списка.
// Структурный вид при этом остается источником правды.
func (l StringList) Join(sep string) string {
	return strings.Join(l, sep)
}

// UsageEntry — декларация сотрудника об использовании стороннего
// AI-инструмента плюс все поля governance-состояния, которые
// заполняет движок решений.
type UsageEntry struct {
	ID        string `json:"id"`
	Username  string `json:"username"`  // кто задекларировал
	ToolName  string `json:"tool_name"` // например, ChatGPT, Copilot
	DataType  string `json:"data_type"` // категория данных: PII, Marketing...
	Purpose   string `json:"purpose"`   // зачем нужен инструмент
	Frequency int    `json:"frequency"` // раз в неделю/месяц

	// Финальный уровень риска. Может быть задан заявителем/админом явно —
	// тогда движок его не перезаписывает.
	RiskLevel string      `json:"risk_level"`
	Status    EntryStatus `json:"status"`

	// Результат сканера враждебного контента (prompt injection)
	AdversarialFlag       bool       `json:"adversarial_flag"`
	AdversarialIndicators StringList `json:"adversarial_indicators"`

	// Вердикт внешнего ML-оракула (как есть, без переопределений)
	AiRiskLevel      string     `json:"ai_risk_level"`
	AiConfidence     *float64   `json:"ai_confidence,omitempty"`
	AiRationale      string     `json:"ai_rationale"`
	AiRecommendation string     `json:"ai_recommendation"`
	ModelName        string     `json:"model_name"`
	ModelVersion     string     `json:"model_version"`
	PolicyAlerts     StringList `json:"policy_alerts"`

	// Комплаенс-поля
	ComplianceChecklist StringList `json:"compliance_checklist"`
	MajorViolations     StringList `json:"major_violations"`

	DenialReason       string `json:"denial_reason,omitempty"`
	AutoDecisionSource string `json:"auto_decision_source,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	AssessedAt *time.Time `json:"assessed_at,omitempty"`
}

// Submission — входная декларация (create). Неизменяема после приема.
type Submission struct {
	Username  string `json:"username"`
	ToolName  string `json:"tool_name"`
	DataType  string `json:"data_type"`
	Purpose   string `json:"purpose"`
	Frequency int    `json:"frequency"`

	// Опциональные поля: пустая строка = «решает движок»
	RiskLevel string `json:"risk_level"`
	Status    string `json:"status"`
}

// EntryPatch — изменяемые поля при обновлении записи.
// RiskLevel и Status применяются только если непустые,
// остальные поля перезаписываются как есть.
type EntryPatch struct {
	ToolName  string `json:"tool_name"`
	DataType  string `json:"data_type"`
	Purpose   string `json:"purpose"`
	Frequency int    `json:"frequency"`
	RiskLevel string `json:"risk_level"`
	Status    string `json:"status"`

	// Кто инициировал изменение (из токена). Попадает в ModelCard.ApprovedBy.
	Actor string `json:"-"`
}

// ValidationError перечисляет обязательные поля, которых не хватает.
// Проверка идет ДО сканера и оракула, чтобы не тратить внешние вызовы.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// Validate проверяет обязательные поля декларации.
func (s Submission) Validate() error {
	var missing []string
	if strings.TrimSpace(s.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(s.ToolName) == "" {
		missing = append(missing, "tool_name")
	}
	if strings.TrimSpace(s.DataType) == "" {
		missing = append(missing, "data_type")
	}
	if strings.TrimSpace(s.Purpose) == "" {
		missing = append(missing, "purpose")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
