package postgres

import (
	"context"
	"fmt"

	"github.com/xela07ax/ai-governance-portal/internal/domain"
)

// GetGovernanceStats собирает агрегаты для дашборда одним проходом
// по usage_entries плюс разбивку по уровням риска.
func (r *Repo) GetGovernanceStats(ctx context.Context) (*domain.GovernanceStats, error) {
	stats := &domain.GovernanceStats{RiskBreakdown: make(map[string]int64)}

	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'Pending'),
			COUNT(*) FILTER (WHERE status = 'Approved'),
			COUNT(*) FILTER (WHERE status = 'Denied'),
			COUNT(*) FILTER (WHERE adversarial_flag),
			COUNT(*) FILTER (WHERE auto_decision_source = 'AI Compliance Guard')
		FROM usage_entries`).Scan(
		&stats.TotalEntries,
		&stats.PendingEntries,
		&stats.ApprovedEntries,
		&stats.DeniedEntries,
		&stats.AdversarialFlagged,
		&stats.AutoDenied,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch entry stats: %w", err)
	}

	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM model_cards`).Scan(&stats.ModelCards); err != nil {
		return nil, fmt.Errorf("postgres: failed to count model cards: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT risk_level, COUNT(*) FROM usage_entries GROUP BY risk_level`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch risk breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var level string
		var count int64
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("postgres: scan risk breakdown: %w", err)
		}
		stats.RiskBreakdown[level] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}

	return stats, nil
}
