package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	platformpg "contest-tool-backend/internal/platform/postgres"
)

// TestDatabase поднятый в контейнере PostgreSQL с примененными миграциями
type TestDatabase struct {
	Container *postgres.PostgresContainer
	DB        *sql.DB
	URL       string
}

// SetupTestDatabase создает контейнер и применяет миграции.
// Тесты, которые его используют, пропускаются в режиме -short.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("contests_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{
			"test":      "contest-repository",
			"test-name": t.Name(),
			"cleanup":   "auto",
		}),
	)
	require.NoError(t, err)

	testDB := &TestDatabase{Container: container}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if testDB.DB != nil {
			_ = testDB.DB.Close()
		}
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate test container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, platformpg.MigrateUp(connStr))

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	require.NoError(t, db.PingContext(ctx))

	testDB.DB = db
	testDB.URL = connStr

	return testDB
}
