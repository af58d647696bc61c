//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/config"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

type PostgresSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
}

func (s *PostgresSuite) SetupSuite() {
	ctx := context.Background()
	c, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("clients"),
		postgres.WithUsername("clients"),
		postgres.WithPassword("clients"),
		postgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = c

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := NewDB(config.DatabaseConfig{Driver: "postgres", DSN: dsn, MaxRetries: 5, MaxRetryDelaySeconds: 2})
	s.Require().NoError(err)
	s.Require().NoError(Migrate(db))
	s.db = db
}

func (s *PostgresSuite) TearDownSuite() {
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = testcontainers.TerminateContainer(s.container)
}

func (s *PostgresSuite) SetupTest() {
	s.Require().NoError(s.db.Exec("TRUNCATE client_files, clients, api_logs RESTART IDENTITY CASCADE").Error)
}

func (s *PostgresSuite) TestDuplicateClientIsTranslated() {
	ctx := context.Background()
	repo := NewClientRepo(s.db)
	c := &model.Client{ID: "100", Name: "n", Address: "a", Phone: "p", RegisteredAt: time.Now().UTC()}
	s.Require().NoError(repo.Create(ctx, c))

	dup := *c
	s.ErrorIs(repo.Create(ctx, &dup), ErrDuplicateClient)
}

func (s *PostgresSuite) TestClientDeleteCascadesToFiles() {
	ctx := context.Background()
	s.Require().NoError(NewClientRepo(s.db).Create(ctx, &model.Client{ID: "200", Name: "n", Address: "a", Phone: "p", RegisteredAt: time.Now().UTC()}))
	files := NewFileRepo(s.db)
	s.Require().NoError(files.CreateBatch(ctx, []model.ClientFile{
		{ClientID: "200", FileName: "a.txt", StoredName: "a.txt", URL: "/UploadedFiles/200/a.txt", UploadedAt: time.Now().UTC()},
	}))

	s.Require().NoError(s.db.Exec("DELETE FROM clients WHERE id = ?", "200").Error)

	left, err := files.ListByClient(ctx, "200")
	s.Require().NoError(err)
	s.Empty(left)
}

func (s *PostgresSuite) TestStatsAndRange() {
	ctx := context.Background()
	repo := NewLogRepo(s.db)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		s.Require().NoError(repo.Create(ctx, &model.APILog{
			Timestamp: base.Add(time.Duration(i) * time.Hour), Level: model.LevelInfo,
			URL: "http://h/health", Method: "GET", StatusCode: 200, DurationMs: float64(i + 1),
		}))
	}

	agg, err := repo.Stats(ctx)
	s.Require().NoError(err)
	s.EqualValues(3, agg.Total)
	s.InDelta(2.0, agg.AvgDurationMs, 0.0001)

	got, err := repo.Between(ctx, base.Add(time.Hour), base.Add(2*time.Hour))
	s.Require().NoError(err)
	s.Len(got, 2)
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func TestRedisLogMirror(t *testing.T) {
	ctx := context.Background()
	c, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(c) })

	uri, err := c.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get redis connection string: %v", err)
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("failed to parse redis URL: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	mirror := NewRedisLogMirror(client, "test_logs", 2)
	for i := 1; i <= 3; i++ {
		if err := mirror.Push(ctx, &model.APILog{ID: uint(i), Level: model.LevelInfo}); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	got, err := mirror.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 2 {
		t.Fatalf("unexpected mirror contents: %+v", got)
	}
}
