package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/club-pulse/internal/config"
)

type fakeES struct {
	pingFailures int
	pings        int
	maxAge       time.Duration
	batchSize    int
	err          error
}

func (f *fakeES) Ping(context.Context) error {
	f.pings++
	if f.pings <= f.pingFailures {
		return errors.New("connection refused")
	}
	return nil
}

func (f *fakeES) DeleteOlderThan(_ context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	f.maxAge, f.batchSize = maxAge, batchSize
	return 3, f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWaitForClusterRetries(t *testing.T) {
	es := &fakeES{pingFailures: 2}
	require.NoError(t, waitForCluster(context.Background(), discard(), es, 5, time.Millisecond))
	require.Equal(t, 3, es.pings)
}

func TestWaitForClusterGivesUp(t *testing.T) {
	es := &fakeES{pingFailures: 100}
	require.Error(t, waitForCluster(context.Background(), discard(), es, 3, time.Millisecond))
	require.Equal(t, 3, es.pings)
}

func TestWaitForClusterStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waitForCluster(ctx, discard(), &fakeES{pingFailures: 100}, 5, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunOncePassesRetentionSettings(t *testing.T) {
	es := &fakeES{}
	runOnce(context.Background(), discard(), es, &config.Retention{MaxAge: 48 * time.Hour, BatchSize: 250})

	require.Equal(t, 48*time.Hour, es.maxAge)
	require.Equal(t, 250, es.batchSize)

	es.err = errors.New("index missing")
	runOnce(context.Background(), discard(), es, &config.Retention{MaxAge: time.Hour, BatchSize: 1})
}
