//go:build integration

package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/face-index/internal/config"
	"github.com/kozaktomas/face-index/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}
	return pool, cleanup
}

func TestIdentityRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewIdentityRepository(pool, 0)

	t.Run("EmptyLoad", func(t *testing.T) {
		entries, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("AppendAndLoad", func(t *testing.T) {
		batch := []identity.Entry{
			{Label: "a/b/Alice", Embedding: []float32{0.1, 0.2, 0.3}},
			{Label: "c/d/Bob", Embedding: []float32{0.9, 0.8, 0.7}},
		}
		require.NoError(t, repo.AppendAll(ctx, batch))

		got, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, batch, got)
	})

	t.Run("DimensionFixedByFirstRow", func(t *testing.T) {
		err := repo.AppendAll(ctx, []identity.Entry{{Label: "x", Embedding: []float32{1, 2}}})
		assert.ErrorIs(t, err, identity.ErrDimensionMismatch)
	})

	t.Run("ConcurrentAppends", func(t *testing.T) {
		before, err := repo.Count(ctx)
		require.NoError(t, err)

		const n = 25
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				e := identity.Entry{Label: fmt.Sprintf("p/%d", i), Embedding: []float32{float32(i), 0, 0}}
				assert.NoError(t, repo.AppendAll(ctx, []identity.Entry{e}))
			}(i)
		}
		wg.Wait()

		after, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before+n, after)
	})
}
