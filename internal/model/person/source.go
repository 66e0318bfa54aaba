package person

import (
	"context"
	"sync"
)

// Source is the tabular directory backend: full snapshot reads and row appends.
type Source interface {
	Fetch(ctx context.Context) ([]Person, error)
	Count(ctx context.Context) (int, error)
	Append(ctx context.Context, row Row) error
}

// MemorySource implements Source with an in-memory row list, used when no
// spreadsheet is configured and in tests.
type MemorySource struct {
	mu   sync.RWMutex
	rows []Row
}

// NewMemorySource returns a MemorySource preloaded with rows.
func NewMemorySource(rows ...Row) *MemorySource {
	return &MemorySource{rows: append([]Row(nil), rows...)}
}

// Fetch returns every parseable row as a Person, skipping malformed ones.
func (s *MemorySource) Fetch(_ context.Context) ([]Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	people := make([]Person, 0, len(s.rows))
	for _, row := range s.rows {
		p, err := FromRow(row)
		if err != nil {
			continue
		}
		people = append(people, p)
	}
	return people, nil
}

// Count returns the number of stored rows, malformed ones included.
func (s *MemorySource) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows), nil
}

// Append stores a copy of row.
func (s *MemorySource) Append(_ context.Context, row Row) error {
	s.mu.Lock()
	s.rows = append(s.rows, append(Row(nil), row...))
	s.mu.Unlock()
	return nil
}

// Rows returns a copy of the stored rows.
func (s *MemorySource) Rows() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Row, len(s.rows))
	for i, row := range s.rows {
		out[i] = append(Row(nil), row...)
	}
	return out
}
