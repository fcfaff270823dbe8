//go:build integration

package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dosdraw/platform/internal/app"
	"github.com/dosdraw/platform/internal/domain"
	"github.com/dosdraw/platform/internal/guard"
	"github.com/dosdraw/platform/internal/rounds"
)

const (
	TestAdminKey   = "integration-admin-key-000000"
	TestSecretSeed = "integration-secret-seed-000000"
	TestDBHost     = "localhost"
	TestDBPort     = 5435
	TestDBUser     = "ddj"
	TestDBPass     = "ddj"
	TestDBName     = "ddj_test"

	// Economy and timing used by every test router.
	TestSignupBonus  int64 = 50
	TestRoundSeconds int64 = 300
	TestCloseBetsAt  int64 = 30

	// Redemption rate limit: small enough to trip in one test.
	TestRedeemLimit  = 5
	TestRedeemWindow = time.Minute
)

// TestEnv holds all resources for one integration test: a real router over
// the shared test database. The clock is anchored two rounds plus ten
// seconds before env creation, so the current round is open for betting and
// two finished rounds exist for settlement tests.
type TestEnv struct {
	Server *httptest.Server
	Pool   *pgxpool.Pool
	Clock  *rounds.Clock
	t      *testing.T
}

var (
	sharedPool *pgxpool.Pool
	poolOnce   sync.Once
	poolErr    error
)

func testDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, TestDBName)
}

func bootstrapDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, "ddj")
}

func ensureTestDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bPool, err := pgxpool.New(ctx, bootstrapDSN())
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer bPool.Close()

	var exists bool
	err = bPool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", TestDBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check db exists: %w", err)
	}

	if !exists {
		if _, err := bPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", TestDBName)); err != nil {
			return fmt.Errorf("create test db: %w", err)
		}
	}
	return nil
}

func runMigrations() error {
	migratePath := fmt.Sprintf("file://%s/db/migrations", findProjectRoot())

	m, err := migrate.New(migratePath, testDSN())
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, _ := os.Getwd()
	for dir != "" && dir != "/" {
		if _, err := os.Stat(dir + "/go.mod"); err == nil {
			return dir
		}
		i := len(dir) - 1
		for i > 0 && dir[i] != '/' {
			i--
		}
		dir = dir[:i]
	}
	return "."
}

func getSharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		if err := ensureTestDB(); err != nil {
			poolErr = err
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		poolCfg, err := pgxpool.ParseConfig(testDSN())
		if err != nil {
			poolErr = fmt.Errorf("parse pool config: %w", err)
			return
		}
		poolCfg.MaxConns = 10
		poolCfg.MinConns = 1

		sharedPool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			poolErr = fmt.Errorf("create pool: %w", err)
			return
		}

		if err := runMigrations(); err != nil {
			poolErr = fmt.Errorf("run migrations: %w", err)
			sharedPool.Close()
			sharedPool = nil
			return
		}
	})

	if poolErr != nil {
		t.Fatalf("failed to initialize test pool: %v", poolErr)
	}
	return sharedPool
}

// NewTestEnv creates a test environment with an httptest.Server backed by
// the real router and the shared test database.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	pool := getSharedPool(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	clock := rounds.NewClock(domain.RoundParams{
		RoundSeconds: TestRoundSeconds,
		CloseBetsAt:  TestCloseBetsAt,
		AnchorMs:     time.Now().UnixMilli() - 10_000 - 2*TestRoundSeconds*1000,
	})
	limiter := guard.NewRateLimiter(TestRedeemLimit, TestRedeemWindow)

	router := app.NewRouter(app.RouterDeps{
		Pool:        pool,
		Logger:      logger,
		Clock:       clock,
		Limiter:     limiter,
		AdminKey:    TestAdminKey,
		SecretSeed:  TestSecretSeed,
		SignupBonus: TestSignupBonus,
		CORSOrigins: []string{"*"},
	})

	server := httptest.NewServer(router)

	env := &TestEnv{
		Server: server,
		Pool:   pool,
		Clock:  clock,
		t:      t,
	}

	t.Cleanup(func() {
		server.Close()
		env.CleanAll()
	})

	// Clean before the test too, in case a previous run left rows behind.
	env.CleanAll()

	return env
}
