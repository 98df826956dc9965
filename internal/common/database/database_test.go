package database

import (
	"context"
	"errors"
	"testing"

	"admission-checker/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rc, err := NewRedis(ctx, config.RedisConfig{Enabled: true, Address: mr.Addr()})
	require.NoError(t, err)
	defer rc.Close()

	require.NoError(t, rc.GetClient().Set(ctx, "admission:ping", "1", 0).Err())
	assert.True(t, mr.Exists("admission:ping"))
	assert.NoError(t, rc.Ping(ctx))

	mr.Close()
	assert.Error(t, rc.Ping(ctx))
}

func TestNewRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(context.Background(), config.RedisConfig{Address: addr})
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
}

func TestRedisOptions(t *testing.T) {
	opts := redisOptions(config.RedisConfig{Address: "cache:6379", Password: "pw", DB: 3})
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)
}

func TestWrapPostgres(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	pg, err := wrapPostgres(context.Background(), db, config.PostgresConfig{MaxConnections: 4, MaxIdle: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, pg.GetDB().Stats().MaxOpenConnections)

	mock.ExpectPing().WillReturnError(errors.New("connection reset"))
	err = pg.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres ping failed")

	mock.ExpectClose()
	require.NoError(t, pg.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWrapPostgres_PingFailureCloses(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing().WillReturnError(errors.New("no route to host"))
	mock.ExpectClose()

	_, err = wrapPostgres(context.Background(), db, config.PostgresConfig{})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClient_NilClose(t *testing.T) {
	var pg *PostgresClient
	assert.NoError(t, pg.Close())
}
