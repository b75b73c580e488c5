// Package testutil provides shared test infrastructure for integration
// tests. It uses testcontainers-go to spin up a real PostgreSQL instance,
// run all migrations, and provide a connection pool for test services.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ateliercms/api/internal/database"
)

// TestDB holds a PostgreSQL test container and connection pool. It is
// designed to be shared across tests in a single package via TestMain.
// Each test should call Truncate() to reset state.
type TestDB struct {
	Pool      *pgxpool.Pool
	container testcontainers.Container
	connStr   string
}

// SetupTestDB starts a PostgreSQL container, runs all migrations, and
// returns a TestDB with an active connection pool.
//
// Usage in TestMain:
//
//	var testDB *testutil.TestDB
//
//	func TestMain(m *testing.M) {
//	    var code int
//	    defer func() { os.Exit(code) }()
//
//	    db, err := testutil.SetupTestDB()
//	    if err != nil { log.Fatal(err) }
//	    defer db.Close()
//	    testDB = db
//
//	    code = m.Run()
//	}
func SetupTestDB() (*TestDB, error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("atelier_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("getting connection string: %w", err)
	}

	if err := database.Migrate(connStr); err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return &TestDB{
		Pool:      pool,
		container: container,
		connStr:   connStr,
	}, nil
}

// Close terminates the container and closes the pool.
func (tdb *TestDB) Close() {
	if tdb.Pool != nil {
		tdb.Pool.Close()
	}
	if tdb.container != nil {
		tdb.container.Terminate(context.Background())
	}
}

// Truncate removes all data from application tables while preserving
// schema. Call this at the start of each test for isolation.
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	ctx := context.Background()
	for _, table := range []string{"projects", "services", "contacts", "users"} {
		if _, err := tdb.Pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Fatalf("truncating %s: %v", table, err)
		}
	}
}
