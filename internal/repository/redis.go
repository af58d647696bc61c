package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/config"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/model"
	"github.com/redis/go-redis/v9"
)

func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// RedisLogMirror keeps a capped list of the most recent API log entries,
// newest at index 0. The relational store stays authoritative.
type RedisLogMirror struct {
	client  redis.Cmdable
	listKey string
	listMax int
}

func NewRedisLogMirror(client redis.Cmdable, listKey string, listMax int) *RedisLogMirror {
	if listKey == "" {
		listKey = "api_logs"
	}
	if listMax <= 0 {
		listMax = 10000
	}
	return &RedisLogMirror{client: client, listKey: listKey, listMax: listMax}
}

func (m *RedisLogMirror) Push(ctx context.Context, entry *model.APILog) error {
	if entry == nil {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	pipe := m.client.TxPipeline()
	pipe.LPush(ctx, m.listKey, payload)
	pipe.LTrim(ctx, m.listKey, 0, int64(m.listMax-1))
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to n mirrored entries, newest first.
func (m *RedisLogMirror) Recent(ctx context.Context, n int) ([]model.APILog, error) {
	if n <= 0 || n > m.listMax {
		n = m.listMax
	}
	raw, err := m.client.LRange(ctx, m.listKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.APILog, 0, len(raw))
	for _, item := range raw {
		var entry model.APILog
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}
