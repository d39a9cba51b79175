package integration

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/appboardguru/boardguru/pkg/authz"
	"github.com/appboardguru/boardguru/pkg/cache"
	"github.com/appboardguru/boardguru/pkg/db"
	"github.com/appboardguru/boardguru/pkg/realtime"
	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/server/endpoints"
	gormstore "github.com/appboardguru/boardguru/pkg/server/store/gorm"
	"github.com/appboardguru/boardguru/pkg/service"
	"github.com/appboardguru/boardguru/pkg/storage"
)

const serverPort = "18080"

// TestContext holds all the resources needed for integration tests
type TestContext struct {
	DB            *gorm.DB
	Container     testcontainers.Container
	ServerURL     string
	DatabaseURL   string
	Secret        []byte
	HTTPClient    *http.Client
	Cancel        context.CancelFunc
	ServerProcess *exec.Cmd
}

// NewTestContext starts PostgreSQL in a container, migrates it and starts a
// server against it.
// Modes:
//   - Binary mode (default): Set BOARDGURU_BINARY to the path of the boardguructl binary
//   - Inline mode: Set BOARDGURU_INLINE=1 to run the server in-process
func NewTestContext(ctx context.Context) (*TestContext, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}
	migrationsDir := filepath.Join(projectRoot, "db", "migrations")

	inlineMode := os.Getenv("BOARDGURU_INLINE") == "1"
	binaryPath := os.Getenv("BOARDGURU_BINARY")

	if !inlineMode && binaryPath == "" {
		return nil, fmt.Errorf("Either BOARDGURU_BINARY or BOARDGURU_INLINE=1 is required.\n\nBinary mode:\n  go build -o boardguructl ./cmd/boardguructl\n  INTEGRATION_TEST=1 BOARDGURU_BINARY=$(pwd)/boardguructl go test -v ./test/integration/...\n\nInline mode:\n  INTEGRATION_TEST=1 BOARDGURU_INLINE=1 go test -v ./test/integration/...")
	}
	if !inlineMode {
		if _, err := os.Stat(binaryPath); err != nil {
			return nil, fmt.Errorf("BOARDGURU_BINARY path does not exist: %s", binaryPath)
		}
		log.Printf("Using binary: %s", binaryPath)
	} else {
		log.Println("Using inline server mode")
	}

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("boardguru_test"),
		tcpostgres.WithUsername("boardguru"),
		tcpostgres.WithPassword("boardguru"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	if err := runMigrations(migrationsDir, connStr); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	gdb, err := db.Connect(db.Config{URL: connStr})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, err
	}

	secret := []byte("integration-test-secret-0123456789abcdef")
	serverURL := "http://127.0.0.1:" + serverPort

	var serverProcess *exec.Cmd
	var cancel context.CancelFunc
	if inlineMode {
		cancel, err = startInlineServer(gdb, secret, serverPort)
	} else {
		serverProcess, cancel, err = startBinary(binaryPath, connStr, secret, migrationsDir, serverPort)
	}
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to start server: %w", err)
	}

	if err := waitForServer(serverURL, 30*time.Second); err != nil {
		cancel()
		if serverProcess != nil && serverProcess.Process != nil {
			_ = serverProcess.Process.Kill()
		}
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return &TestContext{
		DB:            gdb,
		Container:     pgContainer,
		ServerURL:     serverURL,
		DatabaseURL:   connStr,
		Secret:        secret,
		HTTPClient:    &http.Client{Timeout: 10 * time.Second},
		Cancel:        cancel,
		ServerProcess: serverProcess,
	}, nil
}

// startInlineServer assembles the server in-process with in-memory blobs
func startInlineServer(gdb *gorm.DB, secret []byte, port string) (context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(context.Background())

	stores := gormstore.NewStores(gdb)
	authorizer, err := authz.New(stores.Members, stores.Vaults)
	if err != nil {
		cancel()
		return nil, err
	}
	hub := realtime.NewHub()
	c := cache.New(stores.Cache)

	services := service.New(service.Deps{
		Stores:    stores,
		Authz:     authorizer,
		Publisher: hub,
		Cache:     c,
		Blobs:     storage.NewMemoryStore(),
	})

	s := server.NewServer(server.Options{
		DB:        gdb,
		Stores:    stores,
		Services:  services,
		Hub:       hub,
		Cache:     c,
		JWTSecret: secret,
		Host:      "127.0.0.1",
		Port:      port,
	})
	endpoints.RegisterAll(s)

	go func() { _ = hub.Run(ctx) }()
	go func() { _ = s.Start(ctx) }()

	return cancel, nil
}

// startBinary starts the boardguructl server binary
func startBinary(binaryPath, dbURL string, secret []byte, migrationsDir, port string) (*exec.Cmd, context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(context.Background())

	// migrations already ran in the test setup
	cmd := exec.CommandContext(ctx, binaryPath, "server", "--no-migrate", "--no-worker", "-b", "127.0.0.1", "-p", port)
	cmd.Env = append(os.Environ(),
		"DATABASE_URL="+dbURL,
		"BOARDGURU_JWT_SECRET="+string(secret),
		"BOARDGURU_MIGRATIONS_PATH="+migrationsDir,
		"BOARDGURU_CONFIG_PATH="+os.TempDir(),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to start binary: %w", err)
	}
	return cmd, cancel, nil
}

// waitForServer polls the health endpoint until it responds or times out
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.Cancel != nil {
		tc.Cancel()
	}
	if tc.ServerProcess != nil && tc.ServerProcess.Process != nil {
		_ = tc.ServerProcess.Process.Kill()
		_ = tc.ServerProcess.Wait()
	}
	if tc.DB != nil {
		if sqlDB, err := tc.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}

// findProjectRoot locates the project root directory
func findProjectRoot() (string, error) {
	for _, p := range []string{"../..", "..", "."} {
		if _, err := os.Stat(filepath.Join(p, "go.mod")); err == nil {
			return filepath.Abs(p)
		}
	}
	return "", fmt.Errorf("project root not found (looking for go.mod)")
}

// runMigrations applies db/migrations with golang-migrate
func runMigrations(migrationsDir, dbURL string) error {
	m, err := migrate.New("file://"+migrationsDir, dbURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
