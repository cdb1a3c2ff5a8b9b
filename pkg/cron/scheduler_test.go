package cron

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/subscription-finder/pkg/metrics"
	"github.com/FACorreiaa/subscription-finder/pkg/storage"
)

type failingSweeper struct{}

func (failingSweeper) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	return 1, errors.New("permission denied")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunNow_RemovesStaleFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir, 0)
	require.NoError(t, err)

	stale := filepath.Join(dir, "old_statement.pdf")
	fresh := filepath.Join(dir, "new_statement.pdf")
	require.NoError(t, os.WriteFile(stale, []byte("%PDF"), 0o600))
	require.NoError(t, os.WriteFile(fresh, []byte("%PDF"), 0o600))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	m := metrics.NewNoop()
	s := NewScheduler(store, time.Hour, m, discardLogger())
	s.RunNow()

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TempFilesSwept))
}

func TestRunNow_CountsPartialSweepOnError(t *testing.T) {
	m := metrics.NewNoop()
	s := NewScheduler(failingSweeper{}, time.Hour, m, discardLogger())
	s.RunNow()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.TempFilesSwept))
}

func TestStartRegistersHourlySweep(t *testing.T) {
	s := NewScheduler(failingSweeper{}, time.Hour, nil, discardLogger())
	require.NoError(t, s.Start())
	defer s.Stop()

	entries := s.cron.Entries()
	require.Len(t, entries, 1)
	next := entries[0].Next
	assert.Zero(t, next.Minute())
	assert.Zero(t, next.Second())
}
