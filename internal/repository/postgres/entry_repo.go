package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xela07ax/ai-governance-portal/internal/domain"
)

const entryColumns = `id, username, tool_name, data_type, purpose, frequency,
	risk_level, status, adversarial_flag, adversarial_indicators,
	ai_risk_level, ai_confidence, ai_rationale, ai_recommendation,
	model_name, model_version, policy_alerts, compliance_checklist,
	major_violations, denial_reason, auto_decision_source,
	created_at, assessed_at`

func (r *Repo) CreateEntry(ctx context.Context, e *domain.UsageEntry) error {
	query := `
		INSERT INTO usage_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.Username, e.ToolName, e.DataType, e.Purpose, e.Frequency,
		e.RiskLevel, e.Status, e.AdversarialFlag, marshalList(e.AdversarialIndicators),
		e.AiRiskLevel, e.AiConfidence, e.AiRationale, e.AiRecommendation,
		e.ModelName, e.ModelVersion, marshalList(e.PolicyAlerts), marshalList(e.ComplianceChecklist),
		marshalList(e.MajorViolations), e.DenialReason, e.AutoDecisionSource,
		e.CreatedAt, e.AssessedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to create entry: %w", err)
	}
	return nil
}

func (r *Repo) GetEntry(ctx context.Context, id string) (*domain.UsageEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM usage_entries WHERE id = $1`
	return r.scanEntry(r.pool.QueryRow(ctx, query, id))
}

// ListEntries возвращает все декларации (админский обзор)
func (r *Repo) ListEntries(ctx context.Context) ([]*domain.UsageEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM usage_entries ORDER BY created_at DESC`
	return r.queryEntries(ctx, query)
}

func (r *Repo) ListEntriesByUser(ctx context.Context, username string) ([]*domain.UsageEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM usage_entries WHERE username = $1 ORDER BY created_at DESC`
	return r.queryEntries(ctx, query, username)
}

func (r *Repo) UpdateEntry(ctx context.Context, e *domain.UsageEntry) error {
	query := `
		UPDATE usage_entries SET
			tool_name = $2, data_type = $3, purpose = $4, frequency = $5,
			risk_level = $6, status = $7,
			ai_recommendation = $8, compliance_checklist = $9,
			major_violations = $10, denial_reason = $11,
			auto_decision_source = $12
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		e.ID, e.ToolName, e.DataType, e.Purpose, e.Frequency,
		e.RiskLevel, e.Status,
		e.AiRecommendation, marshalList(e.ComplianceChecklist),
		marshalList(e.MajorViolations), e.DenialReason,
		e.AutoDecisionSource,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to update entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteEntry удаляет декларацию; карта удаляется каскадом (FK ON DELETE CASCADE)
func (r *Repo) DeleteEntry(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM usage_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repo) scanEntry(row rowScanner) (*domain.UsageEntry, error) {
	var e domain.UsageEntry
	var indicators, alerts, checklist, violations []byte

	err := row.Scan(
		&e.ID, &e.Username, &e.ToolName, &e.DataType, &e.Purpose, &e.Frequency,
		&e.RiskLevel, &e.Status, &e.AdversarialFlag, &indicators,
		&e.AiRiskLevel, &e.AiConfidence, &e.AiRationale, &e.AiRecommendation,
		&e.ModelName, &e.ModelVersion, &alerts, &checklist,
		&violations, &e.DenialReason, &e.AutoDecisionSource,
		&e.CreatedAt, &e.AssessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: scan entry: %w", err)
	}

	e.AdversarialIndicators = unmarshalList(indicators)
	e.PolicyAlerts = unmarshalList(alerts)
	e.ComplianceChecklist = unmarshalList(checklist)
	e.MajorViolations = unmarshalList(violations)
	return &e, nil
}

func (r *Repo) queryEntries(ctx context.Context, query string, args ...any) ([]*domain.UsageEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query entries: %w", err)
	}
	defer rows.Close()

	// Пустой слайс, чтобы в JSON был [] вместо null
	results := make([]*domain.UsageEntry, 0)
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}
