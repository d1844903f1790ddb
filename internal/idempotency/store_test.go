package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ttl = time.Hour

func TestRedisStore_BeginReservesNewKey(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStoreWithClient(client, ttl)

	mock.ExpectSetNX("idempotency:payments:k1", "pending", ttl).SetVal(true)

	id, err := store.Begin(context.Background(), "k1")
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_BeginReplaysFinishedKey(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStoreWithClient(client, ttl)

	mock.ExpectSetNX("idempotency:payments:k1", "pending", ttl).SetVal(false)
	mock.ExpectGet("idempotency:payments:k1").SetVal("64b000000000000000000001")

	id, err := store.Begin(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, "64b000000000000000000001", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_BeginInFlight(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStoreWithClient(client, ttl)

	mock.ExpectSetNX("idempotency:payments:k1", "pending", ttl).SetVal(false)
	mock.ExpectGet("idempotency:payments:k1").SetVal("pending")

	_, err := store.Begin(context.Background(), "k1")
	assert.ErrorIs(t, err, ErrInFlight)

	mock.ExpectSetNX("idempotency:payments:k2", "pending", ttl).SetVal(false)
	mock.ExpectGet("idempotency:payments:k2").RedisNil()

	_, err = store.Begin(context.Background(), "k2")
	assert.ErrorIs(t, err, ErrInFlight)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_BeginRedisDown(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStoreWithClient(client, ttl)

	mock.ExpectSetNX("idempotency:payments:k1", "pending", ttl).SetErr(errors.New("connection refused"))

	_, err := store.Begin(context.Background(), "k1")
	assert.ErrorContains(t, err, "connection refused")
}

func TestRedisStore_CompleteAndRelease(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStoreWithClient(client, ttl)

	mock.ExpectSet("idempotency:payments:k1", "pay-1", ttl).SetVal("OK")
	mock.ExpectDel("idempotency:payments:k2").SetVal(1)

	require.NoError(t, store.Complete(context.Background(), "k1", "pay-1"))
	require.NoError(t, store.Release(context.Background(), "k2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
