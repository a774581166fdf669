//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"altar/internal/platform/config"
	"altar/pkg/testutil/containers"
)

func TestOpen(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()

	db, err := Open(ctx, config.PostgresConfig{URL: pg.DSN, MaxOpenConns: 3, ConnMaxLifetime: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, 3, db.Stats().MaxOpenConnections)
	assert.NoError(t, db.PingContext(ctx))
}

func TestOpen_RequiresURL(t *testing.T) {
	_, err := Open(context.Background(), config.PostgresConfig{})
	assert.ErrorContains(t, err, "database URL is required")
}
