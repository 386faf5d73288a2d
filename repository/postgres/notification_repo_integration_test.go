package postgres

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fastygo/dashboard/domain"
	"github.com/fastygo/dashboard/internal/config"
	infrapg "github.com/fastygo/dashboard/internal/infrastructure/postgres"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}
	os.Exit(runWithPostgres(m))
}

func runWithPostgres(m *testing.M) int {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("dashboard"),
		tcpostgres.WithUsername("dashboard"),
		tcpostgres.WithPassword("dashboard"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres container unavailable, integration tests skipped: %v\n", err)
		return m.Run()
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate postgres container: %v\n", err)
		}
	}()

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get connection string: %v\n", err)
		return 1
	}

	migrations, err := filepath.Abs(filepath.Join("..", "..", "assets", "migrations"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve migrations path: %v\n", err)
		return 1
	}
	dbCfg := config.DatabaseConfig{URL: connStr, Name: "dashboard"}
	if err := infrapg.RunMigrations(dbCfg, config.MigrationsConfig{Enabled: true, Path: migrations}, nil); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		return 1
	}

	testPool, err = infrapg.NewPool(ctx, dbCfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to test database: %v\n", err)
		return 1
	}
	defer testPool.Close()

	return m.Run()
}

func setupRepo(t *testing.T) *notificationRepository {
	t.Helper()
	if testPool == nil {
		t.Skip("skipping integration test")
	}
	_, err := testPool.Exec(context.Background(), "TRUNCATE notifications")
	require.NoError(t, err)
	return &notificationRepository{pool: testPool}
}

func TestNotificationRepository_SameTagReplaces(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	first := &domain.Notification{
		Title:   "Task assigned",
		Body:    "first",
		Tag:     "task-T1",
		Data:    map[string]string{"taskId": "T1", "round": "1"},
		Vibrate: []int{100},
	}
	require.NoError(t, repo.Save(ctx, first))
	assert.False(t, first.ShownAt.IsZero())

	second := &domain.Notification{
		Title:              "Task updated",
		Body:               "second",
		Icon:               domain.NotificationIcon,
		Badge:              domain.NotificationBadge,
		Tag:                "task-T1",
		Data:               map[string]string{"taskId": "T1", "round": "2"},
		RequireInteraction: true,
		Vibrate:            []int{200, 100, 200},
	}
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.Get(ctx, "task-T1")
	require.NoError(t, err)
	assert.Equal(t, "Task updated", got.Title)
	assert.Equal(t, "second", got.Body)
	assert.Equal(t, domain.NotificationIcon, got.Icon)
	assert.True(t, got.RequireInteraction)
	assert.Equal(t, map[string]string{"taskId": "T1", "round": "2"}, got.Data)
	assert.Equal(t, []int{200, 100, 200}, got.Vibrate)

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "second", list[0].Body)
	assert.Equal(t, got.Data, list[0].Data)
	assert.Equal(t, got.Vibrate, list[0].Vibrate)
}

func TestNotificationRepository_ListNewestFirst(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, tag := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, &domain.Notification{
			Title:   tag,
			Body:    tag,
			Tag:     tag,
			ShownAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	list, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].Tag)
	assert.Equal(t, "b", list[1].Tag)
	assert.Nil(t, list[0].Data)
	assert.Empty(t, list[0].Vibrate)

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestNotificationRepository_Delete(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Notification{Title: "t", Body: "b", Tag: "default"}))
	require.NoError(t, repo.Delete(ctx, "default"))

	assert.ErrorIs(t, repo.Delete(ctx, "default"), domain.ErrNotificationNotFound)
	_, err := repo.Get(ctx, "default")
	assert.ErrorIs(t, err, domain.ErrNotificationNotFound)
}

func TestNotificationRepository_CorruptDataIsReported(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	_, err := testPool.Exec(ctx,
		`INSERT INTO notifications (tag, title, body, data) VALUES ($1, 't', 'b', '"not-an-object"'::jsonb)`,
		"broken")
	require.NoError(t, err)

	_, err = repo.Get(ctx, "broken")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
	assert.NotErrorIs(t, err, domain.ErrNotificationNotFound)
}
