//go:build integration

package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ghostwriter-server/internal/models"
	"ghostwriter-server/internal/repository"
	"ghostwriter-server/migrations"
	"ghostwriter-server/pkg/migration"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// RepositoryIntegrationSuite поднимает настоящие PostgreSQL и Redis в
// контейнерах и гоняет репозитории против них.
type RepositoryIntegrationSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	rdContainer *tcredis.RedisContainer
	pool        *pgxpool.Pool
	redisClient *redis.Client
	logger      *zap.Logger

	wallets  repository.WalletRepository
	stories  repository.StoryRepository
	contents repository.StoryContentRepository
	guard    repository.GenerationGuard
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.logger, err = zap.NewDevelopment()
	require.NoError(s.T(), err)

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	s.pool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err)

	migrator := migration.NewMigrator(migration.Config{
		MigrationsPath: ".",
		MigrationsFS:   migrations.FS,
	}, s.pool)
	require.NoError(s.T(), migrator.Up(s.ctx), "Failed to run migrations")

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")

	redisAddr, err := s.rdContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)
	opts, err := redis.ParseURL(redisAddr)
	require.NoError(s.T(), err)
	s.redisClient = redis.NewClient(opts)

	s.wallets = repository.NewPgWalletRepository(s.pool, s.logger)
	s.stories = repository.NewPgStoryRepository(s.pool, s.logger)
	s.contents = repository.NewPgStoryContentRepository(s.pool, s.logger)
	s.guard = repository.NewRedisGenerationGuard(s.redisClient, time.Minute, s.logger)
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.rdContainer != nil {
		_ = s.rdContainer.Terminate(s.ctx)
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(s.ctx)
	}
}

func (s *RepositoryIntegrationSuite) newStory(userID uuid.UUID) *models.Story {
	story := &models.Story{
		UserID:        userID,
		Title:         "Integration Story",
		Summary:       "summary",
		GenreDesc:     "mystery",
		TotalEpisodes: 20,
		NextOptions:   []string{"a", "b"},
	}
	require.NoError(s.T(), s.stories.Create(s.ctx, story))
	return story
}

func (s *RepositoryIntegrationSuite) TestWalletDebitIsAtomicAndConditional() {
	userID := uuid.New()
	require.NoError(s.T(), s.wallets.CreateIfAbsent(s.ctx, userID, 3))

	// Повторный CreateIfAbsent не перетирает баланс
	require.NoError(s.T(), s.wallets.CreateIfAbsent(s.ctx, userID, 100))
	wallet, err := s.wallets.Get(s.ctx, userID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 3, wallet.Balance)

	require.NoError(s.T(), s.wallets.DebitIfSufficient(s.ctx, userID, 2))

	err = s.wallets.DebitIfSufficient(s.ctx, userID, 2)
	require.True(s.T(), errors.Is(err, models.ErrInsufficientBalance))

	wallet, err = s.wallets.Get(s.ctx, userID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, wallet.Balance)
}

func (s *RepositoryIntegrationSuite) TestEpisodeOrderConflict() {
	story := s.newStory(uuid.New())

	first := &models.StoryContent{StoryID: story.ID, OrderIndex: 1, Content: "one"}
	require.NoError(s.T(), s.contents.Insert(s.ctx, first))

	duplicate := &models.StoryContent{StoryID: story.ID, OrderIndex: 1, Content: "racer"}
	err := s.contents.Insert(s.ctx, duplicate)
	require.True(s.T(), errors.Is(err, models.ErrEpisodeConflict))

	latest, err := s.contents.LatestIndex(s.ctx, story.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, latest)
}

func (s *RepositoryIntegrationSuite) TestStoryDeleteCascadesToContents() {
	userID := uuid.New()
	story := s.newStory(userID)
	require.NoError(s.T(), s.contents.Insert(s.ctx, &models.StoryContent{StoryID: story.ID, OrderIndex: 1, Content: "one"}))
	require.NoError(s.T(), s.contents.Insert(s.ctx, &models.StoryContent{StoryID: story.ID, OrderIndex: 2, Content: "two"}))

	require.NoError(s.T(), s.stories.Delete(s.ctx, story.ID, userID))

	_, err := s.stories.GetByID(s.ctx, story.ID)
	require.True(s.T(), errors.Is(err, models.ErrStoryNotFound))

	contents, err := s.contents.ListByStory(s.ctx, story.ID)
	require.NoError(s.T(), err)
	require.Empty(s.T(), contents)
}

func (s *RepositoryIntegrationSuite) TestUpdateAfterEpisodeOverwritesState() {
	userID := uuid.New()
	story := s.newStory(userID)

	require.NoError(s.T(), s.stories.UpdateAfterEpisode(s.ctx, story.ID, "new summary", []string{"x"}, "notes", true))

	got, err := s.stories.GetByID(s.ctx, story.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), "new summary", got.Summary)
	require.Equal(s.T(), []string{"x"}, got.NextOptions)
	require.Equal(s.T(), "notes", got.PlotNotes)
	require.True(s.T(), got.IsFinished)
}

func (s *RepositoryIntegrationSuite) TestGenerationGuardBlocksSecondAcquire() {
	userID := uuid.New()

	release, err := s.guard.Acquire(s.ctx, userID)
	require.NoError(s.T(), err)

	_, err = s.guard.Acquire(s.ctx, userID)
	require.True(s.T(), errors.Is(err, models.ErrUserHasActiveGeneration))

	release()

	release2, err := s.guard.Acquire(s.ctx, userID)
	require.NoError(s.T(), err)
	release2()
}

func TestRepositoryIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(RepositoryIntegrationSuite))
}
