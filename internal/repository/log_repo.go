package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/model"
	"gorm.io/gorm"
)

var ErrLogNotFound = errors.New("log not found")

const topEndpointsLimit = 10

type LogRepo struct {
	db *gorm.DB
}

func NewLogRepo(db *gorm.DB) *LogRepo {
	return &LogRepo{db: db}
}

func (r *LogRepo) Create(ctx context.Context, entry *model.APILog) error {
	if entry == nil {
		return nil
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// List returns the newest entries first. An empty level matches all levels;
// otherwise the match is case-insensitive.
func (r *LogRepo) List(ctx context.Context, level string, limit int) ([]model.APILog, error) {
	q := r.db.WithContext(ctx).Model(&model.APILog{})
	if level = strings.TrimSpace(level); level != "" {
		q = q.Where("UPPER(level) = ?", strings.ToUpper(level))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	out := []model.APILog{}
	err := q.Order("timestamp DESC").Order("id DESC").Find(&out).Error
	return out, err
}

func (r *LogRepo) Get(ctx context.Context, id uint) (*model.APILog, error) {
	var entry model.APILog
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLogNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Between returns entries with from <= timestamp <= to, newest first.
func (r *LogRepo) Between(ctx context.Context, from, to time.Time) ([]model.APILog, error) {
	out := []model.APILog{}
	err := r.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp <= ?", from.UTC(), to.UTC()).
		Order("timestamp DESC").Order("id DESC").
		Find(&out).Error
	return out, err
}

func (r *LogRepo) Stats(ctx context.Context) (*model.LogAggregate, error) {
	db := r.db.WithContext(ctx)
	agg := &model.LogAggregate{ByLevel: map[string]int64{}}

	if err := db.Model(&model.APILog{}).Count(&agg.Total).Error; err != nil {
		return nil, err
	}

	var levels []struct {
		Level string
		Count int64
	}
	if err := db.Model(&model.APILog{}).
		Select("UPPER(level) AS level, COUNT(*) AS count").
		Group("UPPER(level)").
		Scan(&levels).Error; err != nil {
		return nil, err
	}
	for _, l := range levels {
		agg.ByLevel[l.Level] += l.Count
	}

	var avg sql.NullFloat64
	if err := db.Model(&model.APILog{}).Select("AVG(duration_ms)").Row().Scan(&avg); err != nil {
		return nil, err
	}
	agg.AvgDurationMs = avg.Float64

	agg.TopEndpoints = []model.EndpointUsage{}
	if err := db.Model(&model.APILog{}).
		Select("url AS endpoint, method, COUNT(*) AS count").
		Group("url, method").
		Order("count DESC").Order("endpoint").
		Limit(topEndpointsLimit).
		Scan(&agg.TopEndpoints).Error; err != nil {
		return nil, err
	}
	return agg, nil
}
