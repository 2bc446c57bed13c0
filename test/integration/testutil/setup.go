//go:build integration

package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pickclub/platform/internal/app"
	"github.com/pickclub/platform/internal/auth"
	"github.com/pickclub/platform/internal/clock"
	"github.com/pickclub/platform/internal/infra"
)

const (
	TestJWTSecret  = "integration-test-secret-0123456789abcdef"
	TestDBHost     = "localhost"
	TestDBPort     = 5432
	TestDBUser     = "pickclub"
	TestDBPassword = "pickclub"
	TestDBName     = "pickclub_test"
)

// TestEnv bundles a running HTTP server, a DB pool, and the JWT manager
// for an integration test.
type TestEnv struct {
	Server *httptest.Server
	Pool   *pgxpool.Pool
	JWTMgr *auth.JWTManager

	t *testing.T
}

var (
	poolOnce   sync.Once
	sharedPool *pgxpool.Pool
	poolErr    error
)

func testDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPassword, TestDBHost, TestDBPort, TestDBName)
}

// ensureTestDB creates the test database if it does not exist yet,
// connecting through the default database.
func ensureTestDB(ctx context.Context) error {
	bootstrapDSN := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPassword, TestDBHost, TestDBPort, TestDBUser)

	conn, err := pgx.Connect(ctx, bootstrapDSN)
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", TestDBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check test db: %w", err)
	}
	if !exists {
		if _, err := conn.Exec(ctx, "CREATE DATABASE "+TestDBName); err != nil {
			return fmt.Errorf("create test db: %w", err)
		}
	}
	return nil
}

// findProjectRoot walks up from the working directory until it finds go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found above %s", dir)
		}
		dir = parent
	}
}

func runMigrations() error {
	root, err := findProjectRoot()
	if err != nil {
		return err
	}
	sourceURL := "file://" + filepath.Join(root, "db", "migrations")

	m, err := newMigrate(sourceURL, testDSN())
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err.Error() != "no change" {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func getSharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if poolErr = ensureTestDB(ctx); poolErr != nil {
			return
		}
		if poolErr = runMigrations(); poolErr != nil {
			return
		}
		sharedPool, poolErr = pgxpool.New(ctx, testDSN())
	})
	if poolErr != nil {
		t.Fatalf("test database setup: %v", poolErr)
	}
	return sharedPool
}

// NewTestEnv builds the full router against the shared test database and
// serves it over httptest. Tables are truncated before the test runs and
// again on cleanup.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	pool := getSharedPool(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	jwtMgr := auth.NewJWTManager(TestJWTSecret, 24*time.Hour, 8*time.Hour)

	cfg := &infra.Config{
		JWTSecret:           TestJWTSecret,
		PurchaseRateLimit:   50,
		PurchaseRateWindow:  time.Minute,
		PurchaseMaxRetries:  3,
		LowBalanceThreshold: 1000,
	}

	router := app.NewRouter(app.RouterDeps{
		Pool:     pool,
		Config:   cfg,
		JWTMgr:   jwtMgr,
		Producer: infra.NewKafkaProducer("", false, logger),
		Clock:    clock.System{},
		Logger:   logger,
	})

	server := httptest.NewServer(router)

	env := &TestEnv{
		Server: server,
		Pool:   pool,
		JWTMgr: jwtMgr,
		t:      t,
	}
	env.CleanAll()

	t.Cleanup(func() {
		env.CleanAll()
		server.Close()
	})
	return env
}
