package storage

import (
	"context"
	"errors"

	"github.com/tgsentry/tgsentry/pkg/observability"
)

// InstrumentedStore decorates a Store with prometheus operation counters.
// A Get miss counts as "not_found", not as an error.
type InstrumentedStore struct {
	inner   Store
	metrics *observability.Metrics
}

// NewInstrumentedStore wraps inner so every operation is counted.
func NewInstrumentedStore(inner Store, metrics *observability.Metrics) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, metrics: metrics}
}

// Get implements Store.Get.
func (s *InstrumentedStore) Get(ctx context.Context, key string, dest interface{}) error {
	err := s.inner.Get(ctx, key, dest)
	s.count("get", err)
	return err
}

// Set implements Store.Set.
func (s *InstrumentedStore) Set(ctx context.Context, key string, value interface{}) error {
	err := s.inner.Set(ctx, key, value)
	s.count("set", err)
	return err
}

// Delete implements Store.Delete.
func (s *InstrumentedStore) Delete(ctx context.Context, key string) error {
	err := s.inner.Delete(ctx, key)
	s.count("delete", err)
	return err
}

// Close implements Store.Close.
func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}

// Ping delegates to the wrapped backend when it supports probing.
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	if pinger, ok := s.inner.(observability.Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

func (s *InstrumentedStore) count(operation string, err error) {
	switch {
	case err == nil:
		s.metrics.StorageOperationsTotal.WithLabelValues(operation, "success").Inc()
	case errors.Is(err, ErrNotFound):
		s.metrics.StorageOperationsTotal.WithLabelValues(operation, "not_found").Inc()
	default:
		s.metrics.StorageOperationsTotal.WithLabelValues(operation, "error").Inc()
		s.metrics.StorageErrorsTotal.WithLabelValues(operation).Inc()
	}
}
