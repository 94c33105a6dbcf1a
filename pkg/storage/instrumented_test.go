package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgsentry/tgsentry/pkg/observability"
)

// brokenStore fails every operation.
type brokenStore struct{}

var errBroken = errors.New("backend down")

func (brokenStore) Get(ctx context.Context, key string, dest interface{}) error { return errBroken }
func (brokenStore) Set(ctx context.Context, key string, value interface{}) error {
	return errBroken
}
func (brokenStore) Delete(ctx context.Context, key string) error { return errBroken }
func (brokenStore) Close() error                                 { return nil }

func TestInstrumentedStoreCountsOperations(t *testing.T) {
	ctx := context.Background()
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	inner, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	store := NewInstrumentedStore(inner, metrics)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "key", "value"))

	var got string
	require.NoError(t, store.Get(ctx, "key", &got))
	assert.ErrorIs(t, store.Get(ctx, "absent", &got), ErrNotFound)
	require.NoError(t, store.Delete(ctx, "key"))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StorageOperationsTotal.WithLabelValues("set", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StorageOperationsTotal.WithLabelValues("get", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StorageOperationsTotal.WithLabelValues("get", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StorageOperationsTotal.WithLabelValues("delete", "success")))

	// A miss is not an error.
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.StorageErrorsTotal.WithLabelValues("get")))
}

func TestInstrumentedStoreCountsErrors(t *testing.T) {
	ctx := context.Background()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	store := NewInstrumentedStore(brokenStore{}, metrics)

	var got string
	assert.ErrorIs(t, store.Get(ctx, "key", &got), errBroken)
	assert.ErrorIs(t, store.Set(ctx, "key", "value"), errBroken)
	assert.ErrorIs(t, store.Delete(ctx, "key"), errBroken)

	for _, op := range []string{"get", "set", "delete"} {
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StorageOperationsTotal.WithLabelValues(op, "error")), op)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StorageErrorsTotal.WithLabelValues(op)), op)
	}
}

func TestInstrumentedStorePing(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	inner, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	store := NewInstrumentedStore(inner, metrics)
	defer store.Close()

	assert.NoError(t, store.Ping(context.Background()))

	// Backends that cannot be pinged are reported healthy.
	assert.NoError(t, NewInstrumentedStore(brokenStore{}, metrics).Ping(context.Background()))
}
