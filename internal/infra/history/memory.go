package history

import (
	"context"
	"sync"

	"github.com/nearbite/nearbite/internal/domain/pipeline"
)

// maxMemoryRecords bounds the in-process fallback store.
const maxMemoryRecords = 200

// MemoryRecorder keeps run history in process memory. It backs the service
// when no database is configured.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []pipeline.RunRecord
}

// NewMemoryRecorder constructs an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record appends one run, evicting the oldest past the cap.
func (r *MemoryRecorder) Record(_ context.Context, rec pipeline.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	if len(r.records) > maxMemoryRecords {
		r.records = r.records[len(r.records)-maxMemoryRecords:]
	}
	return nil
}

// ListRecent returns the newest runs, newest first.
func (r *MemoryRecorder) ListRecent(_ context.Context, limit int) ([]pipeline.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]pipeline.RunRecord, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.records[i])
	}
	return out, nil
}

var _ pipeline.Recorder = (*MemoryRecorder)(nil)
