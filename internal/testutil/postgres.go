// Package testutil provides test helpers: scripted dice, a PostgreSQL
// container and an in-memory Redis.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/storage/postgres"
	"github.com/cory-johannsen/dungeon/migrations"
)

const (
	pgImage    = "postgres:16-alpine"
	pgUser     = "dungeon"
	pgPassword = "dungeon"
	pgDatabase = "dungeon_test"
)

// PostgresContainer is a migrated PostgreSQL test container with a connected pool.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	RawPool   *pgxpool.Pool
	Config    config.DatabaseConfig
}

// StartPostgres starts a container, connects a pool and applies every up migration.
//
// Precondition: Docker must be available.
// Postcondition: Returns a ready container or a non-nil error; on error
// nothing is left running.
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        pgImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDatabase,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}

	pc := &PostgresContainer{container: container}
	if err := pc.connect(ctx); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := pc.migrate(ctx); err != nil {
		pc.Terminate(ctx)
		return nil, err
	}
	return pc, nil
}

func (pc *PostgresContainer) connect(ctx context.Context) error {
	host, err := pc.container.Host(ctx)
	if err != nil {
		return fmt.Errorf("getting container host: %w", err)
	}
	port, err := pc.container.MappedPort(ctx, "5432")
	if err != nil {
		return fmt.Errorf("getting mapped port: %w", err)
	}
	pc.Config = config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            pgUser,
		Password:        pgPassword,
		Name:            pgDatabase,
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}
	pool, err := postgres.NewPool(ctx, pc.Config)
	if err != nil {
		return fmt.Errorf("connecting to test postgres: %w", err)
	}
	pc.Pool = pool
	pc.RawPool = pool.DB()
	return nil
}

// migrate runs the embedded up migrations directly so tests do not need the migrate tool.
func (pc *PostgresContainer) migrate(ctx context.Context) error {
	schema, err := migrations.Up()
	if err != nil {
		return err
	}
	if _, err := pc.RawPool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Terminate closes the pool and removes the container.
func (pc *PostgresContainer) Terminate(ctx context.Context) {
	if pc.Pool != nil {
		pc.Pool.Close()
	}
	_ = pc.container.Terminate(ctx)
}

// NewPostgresContainer starts a migrated container owned by t.
//
// Postcondition: Returns a ready container, or fails the test. The
// container is removed when the test ends.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	start := time.Now()
	pc, err := StartPostgres(context.Background())
	if err != nil {
		t.Fatalf("%v [%s]", err, time.Since(start))
	}
	t.Logf("postgres container started [%s]", time.Since(start))
	t.Cleanup(func() { pc.Terminate(context.Background()) })
	return pc
}

// DSN returns the connection string for the test database.
func (pc *PostgresContainer) DSN() string {
	return pc.Config.DSN()
}
