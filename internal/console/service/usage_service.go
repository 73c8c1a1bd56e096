package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xela07ax/ai-governance-portal/internal/domain"
)

// Decider — движок принятия решений по заявкам.
// Сервис не знает про сканер и оракул, только про итоговый вердикт.
type Decider interface {
	CreateEntry(ctx context.Context, sub domain.Submission) (*domain.UsageEntry, error)
	UpdateEntry(ctx context.Context, id string, patch domain.EntryPatch) (*domain.UsageEntry, error)
}

// UsageRepository описывает требования к хранилищу заявок и карточек
type UsageRepository interface {
	GetEntry(ctx context.Context, id string) (*domain.UsageEntry, error)
	ListEntries(ctx context.Context) ([]*domain.UsageEntry, error)
	ListEntriesByUser(ctx context.Context, username string) ([]*domain.UsageEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	GetModelCardByEntry(ctx context.Context, entryID string) (*domain.ModelCard, error)
	ListModelCards(ctx context.Context) ([]*domain.ModelCard, error)
}

// DecisionNotifier транслирует смену статуса заинтересованным подписчикам
type DecisionNotifier interface {
	DecisionChanged(ctx context.Context, entryID, status string)
}

type UsageService struct {
	engine   Decider
	repo     UsageRepository
	notifier DecisionNotifier
	logger   *zap.Logger
}

func NewUsageService(engine Decider, repo UsageRepository, notifier DecisionNotifier, logger *zap.Logger) *UsageService {
	return &UsageService{
		engine:   engine,
		repo:     repo,
		notifier: notifier,
		logger:   logger.Named("usage-service"),
	}
}

// Submit проводит заявку через полный цикл оценки и рассылает сигнал о решении
func (s *UsageService) Submit(ctx context.Context, sub domain.Submission) (*domain.UsageEntry, error) {
	entry, err := s.engine.CreateEntry(ctx, sub)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.DecisionChanged(ctx, entry.ID, string(entry.Status))
	}
	return entry, nil
}

// Amend применяет правки и пересчитывает комплаенс-вердикт
func (s *UsageService) Amend(ctx context.Context, id string, patch domain.EntryPatch) (*domain.UsageEntry, error) {
	entry, err := s.engine.UpdateEntry(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.DecisionChanged(ctx, entry.ID, string(entry.Status))
	}
	return entry, nil
}

func (s *UsageService) GetEntry(ctx context.Context, id string) (*domain.UsageEntry, error) {
	return s.repo.GetEntry(ctx, id)
}

// ListEntries возвращает все заявки, новые первыми.
// Используется для отображения основной таблицы в Console API.
func (s *UsageService) ListEntries(ctx context.Context) ([]*domain.UsageEntry, error) {
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		s.logger.Error("failed to list entries from repository", zap.Error(err))
		return nil, fmt.Errorf("service: could not fetch entries: %w", err)
	}

	s.logger.Debug("entries listed successfully", zap.Int("count", len(entries)))
	return entries, nil
}

func (s *UsageService) ListEntriesByUser(ctx context.Context, username string) ([]*domain.UsageEntry, error) {
	return s.repo.ListEntriesByUser(ctx, username)
}

func (s *UsageService) DeleteEntry(ctx context.Context, id string) error {
	if err := s.repo.DeleteEntry(ctx, id); err != nil {
		return err
	}
	s.logger.Info("usage entry deleted", zap.String("entry_id", id))
	return nil
}

func (s *UsageService) GetModelCard(ctx context.Context, entryID string) (*domain.ModelCard, error) {
	return s.repo.GetModelCardByEntry(ctx, entryID)
}

func (s *UsageService) ListModelCards(ctx context.Context) ([]*domain.ModelCard, error) {
	return s.repo.ListModelCards(ctx)
}
