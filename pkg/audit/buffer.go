package audit

import "sync"

// Buffer holds audit records pending persistence, guarded by a single
// mutex. Producers append; the Flusher borrows a point-in-time snapshot
// and later removes exactly the drained entries, so records that arrive
// during a flush survive for the next one.
//
// Concurrency: add/addAll/size/snapshot/removeDrained all take the same
// mutex. The Buffer is not hard-bounded — add never blocks and never
// rejects; bufferSize (see Service) is purely a flush-trigger threshold,
// not a capacity limit enforced here.
type Buffer struct {
	mu      sync.Mutex
	records []*AuditRecord
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Add appends one record.
//
// Concurrency: safe for concurrent use with Add, AddAll, Snapshot, and
// RemoveDrained.
func (b *Buffer) Add(record *AuditRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, record)
}

// AddAll appends a batch atomically with respect to other Add/AddAll
// calls — no other producer's records interleave within the batch.
func (b *Buffer) AddAll(records []*AuditRecord) {
	if len(records) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, records...)
}

// Size returns the number of records currently buffered.
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Snapshot returns a consistent point-in-time copy of the buffered
// records. Concurrent producers may continue to Add while the caller
// works with the returned slice; it is never mutated in place.
//
// Returns: a new slice; the zero-length case returns an empty (not nil)
// slice so callers can range over it unconditionally.
func (b *Buffer) Snapshot() []*AuditRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*AuditRecord, len(b.records))
	copy(out, b.records)
	return out
}

// RemoveDrained removes exactly the records of a prior Snapshot from the
// Buffer, preserving any records that were added afterward. Matching is
// by EventID identity, not slice position, since concurrent Adds may have
// shifted the underlying backing array.
func (b *Buffer) RemoveDrained(drained []*AuditRecord) {
	if len(drained) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	drainedCounts := make(map[string]int, len(drained))
	for _, r := range drained {
		drainedCounts[r.EventID]++
	}

	remaining := b.records[:0:0]
	for _, r := range b.records {
		if drainedCounts[r.EventID] > 0 {
			drainedCounts[r.EventID]--
			continue
		}
		remaining = append(remaining, r)
	}
	b.records = remaining
}
