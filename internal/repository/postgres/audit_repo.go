package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/xela07ax/ai-governance-portal/internal/audit"
)

// WriteBatch сохраняет пачку событий журнала решений одним INSERT.
// Вызывается воркером audit.Trail по таймеру или при заполнении пачки.
func (r *Repo) WriteBatch(ctx context.Context, events []audit.DecisionEvent) error {
	if len(events) == 0 {
		return nil
	}

	// Количество колонок в таблице decision_log
	const numFields = 12
	var sb strings.Builder
	vals := make([]interface{}, 0, len(events)*numFields)

	// Динамически строим запрос для пакетной вставки
	for i, e := range events {
		p := i * numFields
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8, p+9, p+10, p+11, p+12))

		vals = append(vals,
			e.ID, e.EntryID, e.Action, e.Username, e.ToolName,
			e.Status, e.RiskLevel, e.DecisionSource, e.AdversarialFlag,
			e.Error, e.DurationMs, e.Timestamp,
		)
	}

	query := fmt.Sprintf(
		"INSERT INTO decision_log (id, entry_id, action, username, tool_name, status, risk_level, decision_source, adversarial_flag, error, duration_ms, timestamp) VALUES %s",
		sb.String(),
	)

	_, err := r.pool.Exec(ctx, query, vals...)
	return err
}
