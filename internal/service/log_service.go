package service

import (
	"context"
	"errors"
	"time"

	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/model"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/apperrors"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/logger"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/repository"
	"github.com/shopspring/decimal"
)

const DefaultLogLimit = 100

type LogRepo interface {
	Create(ctx context.Context, entry *model.APILog) error
	List(ctx context.Context, level string, limit int) ([]model.APILog, error)
	Get(ctx context.Context, id uint) (*model.APILog, error)
	Between(ctx context.Context, from, to time.Time) ([]model.APILog, error)
	Stats(ctx context.Context) (*model.LogAggregate, error)
}

// LogMirror receives a copy of every recorded entry. It is optional.
type LogMirror interface {
	Push(ctx context.Context, entry *model.APILog) error
	Recent(ctx context.Context, n int) ([]model.APILog, error)
}

type LogService struct {
	repo   LogRepo
	mirror LogMirror
	now    func() time.Time
}

func NewLogService(repo LogRepo, mirror LogMirror) *LogService {
	return &LogService{repo: repo, mirror: mirror, now: time.Now}
}

// Record persists one entry. Only the database write decides the result;
// the mirror is best effort.
func (s *LogService) Record(ctx context.Context, entry *model.APILog) error {
	if err := s.repo.Create(ctx, entry); err != nil {
		return err
	}
	if s.mirror != nil {
		if err := s.mirror.Push(ctx, entry); err != nil {
			logger.Warn("log mirror push failed", "error", err)
		}
	}
	return nil
}

func (s *LogService) List(ctx context.Context, level string, limit int) ([]model.APILog, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	out, err := s.repo.List(ctx, level, limit)
	if err != nil {
		return nil, apperrors.NewInternal("failed to list logs", err)
	}
	return out, nil
}

// Recent reads the newest entries from the mirror when one is configured and
// answers, falling back to the database.
func (s *LogService) Recent(ctx context.Context, n int) ([]model.APILog, error) {
	if n <= 0 {
		n = DefaultLogLimit
	}
	if s.mirror != nil {
		out, err := s.mirror.Recent(ctx, n)
		if err == nil {
			return out, nil
		}
		logger.Warn("log mirror read failed, using database", "error", err)
	}
	return s.List(ctx, "", n)
}

func (s *LogService) Get(ctx context.Context, id uint) (*model.APILog, error) {
	entry, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrLogNotFound) {
		return nil, apperrors.NewNotFound("log not found")
	}
	if err != nil {
		return nil, apperrors.NewInternal("failed to load log", err)
	}
	return entry, nil
}

func (s *LogService) Between(ctx context.Context, from, to time.Time) ([]model.APILog, error) {
	if from.After(to) {
		return nil, apperrors.NewInvalidRequest("invalid date range", "start must not be after end")
	}
	out, err := s.repo.Between(ctx, from, to)
	if err != nil {
		return nil, apperrors.NewInternal("failed to list logs", err)
	}
	return out, nil
}

func (s *LogService) Statistics(ctx context.Context) (*model.LogStatistics, error) {
	agg, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, apperrors.NewInternal("failed to compute log statistics", err)
	}
	top := agg.TopEndpoints
	if top == nil {
		top = []model.EndpointUsage{}
	}
	return &model.LogStatistics{
		TotalLogs: agg.Total,
		LogsByLevel: model.LevelCounts{
			Info:    agg.ByLevel[model.LevelInfo],
			Error:   agg.ByLevel[model.LevelError],
			Warning: agg.ByLevel[model.LevelWarning],
		},
		AverageDurationMs: decimal.NewFromFloat(agg.AvgDurationMs).Round(2).InexactFloat64(),
		TopEndpoints:      top,
		GeneratedAt:       s.now().UTC(),
	}, nil
}
