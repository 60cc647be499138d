package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tickify/tickify/internal/config"
)

func TestNewPostgresRequiresDSN(t *testing.T) {
	_, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.Error(t, err)
}

func TestPingWithoutPool(t *testing.T) {
	var p *Postgres
	require.Error(t, p.Ping(context.Background()))
	require.Error(t, (&Postgres{}).Ping(context.Background()))
}
