package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/discord-modmail/modmail/internal/config"
)

func TestNewRedis_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	r := NewRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	defer r.Close()

	require.NoError(t, r.Ping(context.Background()))
}

func TestRedis_NilPing(t *testing.T) {
	var r *Redis
	assert.ErrorIs(t, r.Ping(context.Background()), ErrNoRedis)
}

func TestNewPostgres_NoDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, pg.PoolHandle())
	assert.ErrorIs(t, pg.Ping(context.Background()), ErrNoDatabase)
	pg.Close()
}
