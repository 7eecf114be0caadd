package audit

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFlusher_EmptyBufferIsNoop(t *testing.T) {
	store := newFakeStore()
	w, _ := newTestWAL(t)
	buffer := NewBuffer()
	f := NewFlusher(buffer, w, store, nil, testLogger(), time.Hour)

	f.Flush(context.Background())
	assert.Equal(t, 0, store.addCallCount())
}

func TestFlusher_SuccessDrainsBufferAndTruncatesWAL(t *testing.T) {
	store := newFakeStore()
	w, _ := newTestWAL(t)
	buffer := NewBuffer()

	records := []*AuditRecord{recordWithID("E1"), recordWithID("E2")}
	require.NoError(t, w.AppendMany(records))
	buffer.AddAll(records)

	f := NewFlusher(buffer, w, store, nil, testLogger(), time.Hour)
	f.Flush(context.Background())

	assert.Equal(t, 0, buffer.Size())
	assert.Equal(t, 2, store.count())

	size, err := w.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
}

func TestFlusher_FailureRetainsBufferAndWAL(t *testing.T) {
	store := newFakeStore()
	store.fail = true
	w, _ := newTestWAL(t)
	buffer := NewBuffer()

	records := []*AuditRecord{recordWithID("E1"), recordWithID("E2"), recordWithID("E3")}
	require.NoError(t, w.AppendMany(records))
	buffer.AddAll(records)

	f := NewFlusher(buffer, w, store, nil, testLogger(), time.Hour)
	f.Flush(context.Background())
	f.Flush(context.Background())

	assert.Equal(t, 3, buffer.Size())
	size, err := w.Size()
	require.NoError(t, err)
	assert.Greater(t, size, int64(0))

	store.fail = false
	f.Flush(context.Background())
	assert.Equal(t, 0, buffer.Size())
	size, err = w.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
}

func TestFlusher_NonReentrant(t *testing.T) {
	store := newFakeStore()
	path := filepath.Join(t.TempDir(), "audit-wal.log")
	w, err := NewWAL(path, false)
	require.NoError(t, err)
	defer w.Close()
	buffer := NewBuffer()
	buffer.Add(recordWithID("E1"))

	f := NewFlusher(buffer, w, store, nil, testLogger(), time.Hour)

	f.running.Lock()
	f.Flush(context.Background()) // should no-op: running already locked
	f.running.Unlock()

	assert.Equal(t, 0, store.addCallCount())
	assert.Equal(t, 1, buffer.Size())
}
