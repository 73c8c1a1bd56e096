package service

import (
	"context"

	"github.com/xela07ax/ai-governance-portal/internal/domain"
)

type StatsRepository interface {
	GetGovernanceStats(ctx context.Context) (*domain.GovernanceStats, error)
}

type DashboardService struct {
	repo StatsRepository
}

func NewDashboardService(repo StatsRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

func (s *DashboardService) GetGovernanceStats(ctx context.Context) (*domain.GovernanceStats, error) {
	// здесь можно добавить кэширование в Redis на 1 минуту,
	// чтобы не нагружать Postgres тяжелыми аналитическими запросами.
	return s.repo.GetGovernanceStats(ctx)
}
