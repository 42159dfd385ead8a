// Package service runs allocations end to end: validate the cohort, derive
// the processing order from a seed, allocate, report and persist the run.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"classgen-server-go/allocator"
	"classgen-server-go/db"
	"classgen-server-go/importer"
	"classgen-server-go/models"
)

// AllocationService builds and stores allocation runs.
type AllocationService struct {
	store   db.RunStore
	opts    allocator.Options
	logger  *zap.Logger
	now     func() time.Time
	newSeed func() int64
}

// Option customises an AllocationService.
type Option func(*AllocationService)

// WithClock replaces the time source used to stamp runs.
func WithClock(now func() time.Time) Option {
	return func(s *AllocationService) { s.now = now }
}

// WithSeedSource replaces the generator used when a caller supplies no seed.
func WithSeedSource(next func() int64) Option {
	return func(s *AllocationService) { s.newSeed = next }
}

// NewAllocationService wires the service. A nil logger is replaced by a no-op logger.
func NewAllocationService(store db.RunStore, opts allocator.Options, logger *zap.Logger, options ...Option) *AllocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AllocationService{
		store:   store,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
		newSeed: func() int64 { return time.Now().UnixNano() },
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Allocate places students using the order derived from seed and returns the
// report. It neither stores nor logs anything.
func (s *AllocationService) Allocate(students []models.Student, seed int64) models.Report {
	index := allocator.NewIndex(students)
	result := allocator.Allocate(index, allocator.Shuffle(index.Names(), seed), s.opts)
	return allocator.BuildReport(index, result)
}

// Run normalizes and validates students, allocates them and stores the run.
// A nil seed draws a fresh one, which is recorded on the run so it can be
// replayed.
func (s *AllocationService) Run(ctx context.Context, source string, students []models.Student, seed *int64) (*models.Run, error) {
	students = importer.Normalize(students)
	if err := importer.Validate(students); err != nil {
		return nil, err
	}

	runSeed := s.newSeed()
	if seed != nil {
		runSeed = *seed
	}

	run := &models.Run{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Seed:      runSeed,
		Source:    source,
		Students:  students,
		Report:    s.Allocate(students, runSeed),
	}

	if err := s.store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to store run: %w", err)
	}

	s.logger.Info("allocation complete",
		zap.String("run", run.ID),
		zap.String("source", source),
		zap.Int64("seed", runSeed),
		zap.Int("students", run.Report.Stats.Students),
		zap.Int("placed", run.Report.Stats.Placed),
		zap.Int("unplaced", run.Report.Stats.Unplaced))
	if n := run.Report.Stats.Unplaced; n > 0 {
		s.logger.Warn("students left unplaced", zap.String("run", run.ID), zap.Strings("names", run.Report.Unplaced))
	}
	return run, nil
}

// Get loads a stored run.
func (s *AllocationService) Get(ctx context.Context, id string) (*models.Run, error) {
	return s.store.GetRun(ctx, id)
}

// List returns stored run summaries, newest first.
func (s *AllocationService) List(ctx context.Context, limit int) ([]models.RunSummary, error) {
	return s.store.ListRuns(ctx, limit)
}
