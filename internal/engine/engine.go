package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/ai-governance-portal/internal/adversarial"
	"github.com/xela07ax/ai-governance-portal/internal/audit"
	"github.com/xela07ax/ai-governance-portal/internal/compliance"
	"github.com/xela07ax/ai-governance-portal/internal/domain"
	"github.com/xela07ax/ai-governance-portal/internal/oracle"
)

// Рекомендация, которой сканер перекрывает вердикт комплаенса.
// Статус при этом не меняется — решение остается за человеком.
const RecAdversarialReview = "Manual review required: adversarial indicators detected"

// Store — требования движка к хранилищу (персистентный коллаборатор).
// Сериализацию конкурентных обновлений одной записи обеспечивает
// реализация: вставка карты идемпотентна (уникальный индекс по entry id).
type Store interface {
	CreateEntry(ctx context.Context, e *domain.UsageEntry) error
	GetEntry(ctx context.Context, id string) (*domain.UsageEntry, error)
	UpdateEntry(ctx context.Context, e *domain.UsageEntry) error

	// CreateModelCard создает карту, если ее еще нет.
	// Возвращает false без ошибки, когда карта для записи уже существует.
	CreateModelCard(ctx context.Context, card *domain.ModelCard) (bool, error)
}

// Engine — ядро принятия решений: одна проходка по декларации (create)
// или по обновлению. Сам по себе stateless, безопасен для конкурентных
// вызовов по разным записям.
type Engine struct {
	store   Store
	oracle  oracle.Assessor
	scanner *adversarial.Scanner
	mapper  *compliance.Mapper
	trail   audit.Recorder
	metrics *Metrics
	logger  *zap.Logger
}

func New(
	store Store,
	assessor oracle.Assessor,
	scanner *adversarial.Scanner,
	mapper *compliance.Mapper,
	trail audit.Recorder,
	metrics *Metrics,
	logger *zap.Logger,
) *Engine {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Engine{
		store:   store,
		oracle:  assessor,
		scanner: scanner,
		mapper:  mapper,
		trail:   trail,
		metrics: metrics,
		logger:  logger.Named("engine"),
	}
}

// CreateEntry обрабатывает новую декларацию: сканер -> оракул -> маппер ->
// правила статуса. Отказ оракула прерывает операцию целиком — частичная
// запись не сохраняется никогда.
func (e *Engine) CreateEntry(ctx context.Context, sub domain.Submission) (*domain.UsageEntry, error) {
	start := time.Now()

	// Валидация ДО внешних вызовов — не тратим оракула на заведомый брак
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	// 1. Сканер враждебного контента по склейке свободного текста
	scan := e.scanner.Scan(sub.ToolName + " " + sub.Purpose)

	// 2. Внешняя оценка риска (единственный сетевой вызов операции)
	oracleStart := time.Now()
	verdict, err := e.oracle.Assess(ctx, sub.ToolName, sub.DataType, sub.Purpose)
	e.metrics.OracleDuration.Observe(time.Since(oracleStart).Seconds())
	if err != nil {
		e.metrics.OracleFailures.Inc()
		e.logger.Error("risk oracle call failed, aborting create",
			zap.String("tool", sub.ToolName),
			zap.Error(err))
		e.trail.Record(audit.DecisionEvent{
			ID:         uuid.New().String(),
			Action:     "create",
			Username:   sub.Username,
			ToolName:   sub.ToolName,
			Error:      err.Error(),
			DurationMs: time.Since(start).Milliseconds(),
		})
		return nil, fmt.Errorf("assess %q: %w", sub.ToolName, err)
	}

	entry := &domain.UsageEntry{
		ID:        uuid.New().String(),
		Username:  sub.Username,
		ToolName:  sub.ToolName,
		DataType:  sub.DataType,
		Purpose:   sub.Purpose,
		Frequency: sub.Frequency,
		CreatedAt: start,
	}

	// 3. Поля AI-оценки — вердикт оракула как есть
	entry.AiRiskLevel = verdict.RiskLevel
	entry.AiConfidence = verdict.Confidence
	entry.AiRationale = verdict.Rationale
	entry.ModelName = verdict.ModelName
	entry.ModelVersion = verdict.ModelVersion
	entry.PolicyAlerts = verdict.PolicyAlerts
	assessedAt := time.Now()
	entry.AssessedAt = &assessedAt

	// Финальный уровень риска: явно заявленный не перезаписываем
	entry.RiskLevel = strings.TrimSpace(sub.RiskLevel)
	if entry.RiskLevel == "" || strings.EqualFold(entry.RiskLevel, domain.RiskPending) {
		entry.RiskLevel = verdict.RiskLevel
	}

	// 4-5. Комплаенс по ФИНАЛЬНОМУ уровню риска
	rec := e.mapper.BuildChecklist(entry.RiskLevel, sub.DataType, verdict.PolicyAlerts, sub.Purpose)
	entry.ComplianceChecklist = rec.Checklist
	entry.AiRecommendation = rec.Recommendation
	entry.MajorViolations = rec.MajorViolations

	// Статус: заявленный при подаче, иначе Pending
	entry.Status = strings.TrimSpace(sub.Status)
	if entry.Status == "" {
		entry.Status = domain.StatusPending
	}

	// 6. Сканер перекрывает рекомендацию (но не статус)
	if scan.Flagged {
		entry.AdversarialFlag = true
		entry.AdversarialIndicators = scan.Indicators
		entry.AiRecommendation = RecAdversarialReview
		entry.AutoDecisionSource = domain.SourceAdversarialFilter
	}

	// 7. Грубые нарушения форсируют отказ. Источник решения комплаенса
	// побеждает сканер, если сработали оба.
	if len(rec.MajorViolations) > 0 {
		entry.Status = domain.StatusDenied
		entry.DenialReason = "Major compliance violations: " + entry.MajorViolations.Join("; ")
		entry.AutoDecisionSource = domain.SourceComplianceGuard
	}

	if err := e.store.CreateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("persist entry: %w", err)
	}

	e.recordDecision("create", entry, start)
	return entry, nil
}

// UpdateEntry применяет патч и перепроверяет комплаенс. Сканер и оракул
// повторно НЕ запускаются — правки не перезапускают внешнюю оценку риска.
// Перерасчет маппера перезаписывает чеклист/рекомендацию/нарушения;
// причина отказа и источник решения заполняются только если пусты
// (first-write-wins: ручную формулировку ревьюера автоматика не трогает).
func (e *Engine) UpdateEntry(ctx context.Context, id string, patch domain.EntryPatch) (*domain.UsageEntry, error) {
	start := time.Now()

	entry, err := e.store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	prevStatus := entry.Status

	// 1. Изменяемые поля; риск и статус — только при непустых значениях
	entry.ToolName = patch.ToolName
	entry.DataType = patch.DataType
	entry.Purpose = patch.Purpose
	entry.Frequency = patch.Frequency
	if s := strings.TrimSpace(patch.RiskLevel); s != "" {
		entry.RiskLevel = s
	}
	if s := strings.TrimSpace(patch.Status); s != "" {
		entry.Status = s
	}

	// 2. Перерасчет комплаенса по сохраненным алертам оракула
	rec := e.mapper.BuildChecklist(entry.RiskLevel, entry.DataType, entry.PolicyAlerts, entry.Purpose)
	entry.ComplianceChecklist = rec.Checklist
	entry.AiRecommendation = rec.Recommendation
	entry.MajorViolations = rec.MajorViolations

	// 3. Нарушения форсируют отказ, не затирая ручные поля
	if len(rec.MajorViolations) > 0 && entry.Status != domain.StatusDenied {
		entry.Status = domain.StatusDenied
		if entry.DenialReason == "" {
			entry.DenialReason = "Major compliance violations: " + entry.MajorViolations.Join("; ")
		}
		if entry.AutoDecisionSource == "" {
			entry.AutoDecisionSource = domain.SourceComplianceGuard
		}
	}

	if err := e.store.UpdateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("persist entry update: %w", err)
	}

	// 4. Первый переход в Approved — ровно одна карта на запись.
	// Вставка идемпотентна на уровне хранилища (unique + do nothing),
	// гонка конкурентных апрувов не породит дубликат.
	if prevStatus != domain.StatusApproved && entry.Status == domain.StatusApproved {
		card := domain.SnapshotCard(uuid.New().String(), entry, patch.Actor, time.Now())
		created, err := e.store.CreateModelCard(ctx, card)
		if err != nil {
			e.logger.Error("entry approved but model card not persisted",
				zap.String("entry_id", entry.ID),
				zap.Error(err))
			return nil, fmt.Errorf("create model card: %w", err)
		}
		if created {
			e.logger.Info("model card created",
				zap.String("entry_id", entry.ID),
				zap.String("approved_by", card.ApprovedBy))
		}
	}

	e.recordDecision("update", entry, start)
	return entry, nil
}

func (e *Engine) recordDecision(action string, entry *domain.UsageEntry, start time.Time) {
	e.metrics.Decisions.WithLabelValues(action, entry.Status, entry.AutoDecisionSource).Inc()
	e.trail.Record(audit.DecisionEvent{
		ID:              uuid.New().String(),
		EntryID:         entry.ID,
		Action:          action,
		Username:        entry.Username,
		ToolName:        entry.ToolName,
		Status:          entry.Status,
		RiskLevel:       entry.RiskLevel,
		DecisionSource:  entry.AutoDecisionSource,
		AdversarialFlag: entry.AdversarialFlag,
		DurationMs:      time.Since(start).Milliseconds(),
		Timestamp:       time.Now(),
	})
}
