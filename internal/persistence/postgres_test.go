package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/command-center/internal/config"
	"github.com/spec-kit/command-center/internal/persistence"
)

func TestNewPostgres_EmptyDSNIsAStartupError(t *testing.T) {
	pg, err := persistence.NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.Error(t, err)
	require.Nil(t, pg)
}

func TestNewPostgres_MalformedDSNFailsBeforeConnecting(t *testing.T) {
	cfg := config.PostgresConfig{DSN: "://not-a-dsn"}
	pg, err := persistence.NewPostgres(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	require.Nil(t, pg)
}
