package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xela07ax/ai-governance-portal/internal/domain"
)

// Repo — единая точка доступа к PostgreSQL (pgxpool).
// Все списковые колонки (policy_alerts, compliance_checklist,
// major_violations, adversarial_indicators) хранятся как JSONB-массивы:
// порядок сохраняется, экранирование разделителей не нужно.
type Repo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string, maxConns, minConns int32) (*Repo, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	return &Repo{pool: pool}, nil
}

// Ping проверяет доступность базы при старте
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) Close() {
	r.pool.Close()
}

// marshalList сериализует список в JSONB; nil превращается в пустой массив
func marshalList(l domain.StringList) []byte {
	if l == nil {
		l = domain.StringList{}
	}
	data, _ := json.Marshal(l)
	return data
}

func unmarshalList(data []byte) domain.StringList {
	if len(data) == 0 {
		return domain.StringList{}
	}
	var l domain.StringList
	if err := json.Unmarshal(data, &l); err != nil {
		return domain.StringList{}
	}
	return l
}
