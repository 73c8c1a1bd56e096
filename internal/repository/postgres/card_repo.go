package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xela07ax/ai-governance-portal/internal/domain"
)

const cardColumns = `id, usage_entry_id, approved_by, approved_at,
	final_risk_level, ai_risk_level, ai_confidence, ai_rationale,
	compliance_checklist, status_decision, policy_alerts, notes`

// CreateModelCard вставляет аудит-карту. Уникальный индекс по
// usage_entry_id плюс ON CONFLICT DO NOTHING делают вставку идемпотентной:
// гонка двух одновременных апрувов не породит вторую карту.
// Возвращает false, если карта для записи уже существовала.
func (r *Repo) CreateModelCard(ctx context.Context, c *domain.ModelCard) (bool, error) {
	query := `
		INSERT INTO model_cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (usage_entry_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		c.ID, c.UsageEntryID, c.ApprovedBy, c.ApprovedAt,
		c.FinalRiskLevel, c.AiRiskLevel, c.AiConfidence, c.AiRationale,
		marshalList(c.ComplianceChecklist), c.StatusDecision,
		marshalList(c.PolicyAlerts), c.Notes,
	)
	if err != nil {
		return false, fmt.Errorf("postgres: failed to create model card: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repo) GetModelCardByEntry(ctx context.Context, entryID string) (*domain.ModelCard, error) {
	query := `SELECT ` + cardColumns + ` FROM model_cards WHERE usage_entry_id = $1`
	return r.scanCard(r.pool.QueryRow(ctx, query, entryID))
}

func (r *Repo) ListModelCards(ctx context.Context) ([]*domain.ModelCard, error) {
	query := `SELECT ` + cardColumns + ` FROM model_cards ORDER BY approved_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query model cards: %w", err)
	}
	defer rows.Close()

	results := make([]*domain.ModelCard, 0)
	for rows.Next() {
		c, err := r.scanCard(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}

func (r *Repo) scanCard(row rowScanner) (*domain.ModelCard, error) {
	var c domain.ModelCard
	var checklist, alerts []byte

	err := row.Scan(
		&c.ID, &c.UsageEntryID, &c.ApprovedBy, &c.ApprovedAt,
		&c.FinalRiskLevel, &c.AiRiskLevel, &c.AiConfidence, &c.AiRationale,
		&checklist, &c.StatusDecision, &alerts, &c.Notes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: scan model card: %w", err)
	}

	c.ComplianceChecklist = unmarshalList(checklist)
	c.PolicyAlerts = unmarshalList(alerts)
	return &c, nil
}
