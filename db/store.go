package db

import (
	"context"
	"errors"
	"sort"
	"sync"

	"classgen-server-go/models"
)

// ErrRunNotFound is returned when a run id is unknown or has expired.
var ErrRunNotFound = errors.New("allocation run not found")

// RunStore persists finished allocation runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	// ListRuns returns up to limit summaries, newest first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error)
}

// MemoryStore keeps runs in process memory. Used when Redis is disabled.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*models.Run
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: map[string]*models.Run{}}
}

func (s *MemoryStore) SaveRun(_ context.Context, run *models.Run) error {
	if run == nil || run.ID == "" {
		return errors.New("run ID cannot be empty")
	}
	cp := *run
	s.mu.Lock()
	s.runs[run.ID] = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	cp := *run
	return &cp, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]models.RunSummary, error) {
	s.mu.RLock()
	out := make([]models.RunSummary, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run.Summary())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
