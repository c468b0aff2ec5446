package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const (
	postgresImage = "postgres"
	postgresTag   = "16-alpine"
	postgresPort  = "5432/tcp"

	expireSeconds   = 120
	maxWaitDuration = 120 * time.Second
)

// PostgresPool starts a throwaway PostgreSQL container and returns a pool
// connected to it. The container is purged when the test finishes. Tests are
// skipped when no docker daemon is reachable.
func PostgresPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("could not construct docker pool: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker is not available: %v", err)
	}

	// pulls an image, creates a container based on it and runs it
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: postgresImage,
		Tag:        postgresTag,
		Env: []string{
			"POSTGRES_USER=snooker",
			"POSTGRES_PASSWORD=snooker",
			"POSTGRES_DB=snooker",
		},
	}, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start resource: %v", err)
	}

	// never returns error
	_ = resource.Expire(expireSeconds)

	dsn := fmt.Sprintf("postgres://snooker:snooker@%s/snooker?sslmode=disable", resource.GetHostPort(postgresPort))

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer cancel()

	// the database might not accept connections straight away
	pool.MaxWait = maxWaitDuration

	var db *pgxpool.Pool
	if err := pool.Retry(func() error {
		var err error
		db, err = pgxpool.New(ctx, dsn)
		if err != nil {
			return err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return err
		}
		return nil
	}); err != nil {
		if purgeErr := pool.Purge(resource); purgeErr != nil {
			t.Fatalf("could not purge resource: %v", purgeErr)
		}
		t.Fatalf("could not connect to postgres: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		if err := pool.Purge(resource); err != nil {
			t.Errorf("could not purge resource: %v", err)
		}
	})

	return db
}
