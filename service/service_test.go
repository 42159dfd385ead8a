package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"classgen-server-go/allocator"
	"classgen-server-go/db"
	"classgen-server-go/importer"
	"classgen-server-go/models"
	"classgen-server-go/service"
)

var fixedNow = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

func cohort() []models.Student {
	return []models.Student{
		{Name: "Ann", Friends: []string{"Bob"}},
		{Name: "Bob", Friends: []string{"Ann"}},
		{Name: "Cat", Avoids: []string{"Dan"}},
		{Name: "Dan"},
	}
}

type failingStore struct{ db.RunStore }

func (failingStore) SaveRun(context.Context, *models.Run) error { return errors.New("disk full") }

func TestRunStoresSeededRun(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	store := db.NewMemoryStore()
	svc := service.NewAllocationService(store, allocator.Options{}, zap.New(core),
		service.WithClock(func() time.Time { return fixedNow }))

	seed := int64(99)
	run, err := svc.Run(context.Background(), "pupils.csv", cohort(), &seed)
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, int64(99), run.Seed)
	assert.Equal(t, fixedNow, run.CreatedAt)
	assert.Equal(t, "pupils.csv", run.Source)
	assert.Equal(t, 4, run.Report.Stats.Placed)
	assert.Equal(t, svc.Allocate(cohort(), 99), run.Report, "same seed replays the same report")

	stored, err := svc.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, stored.ID)

	list, err := svc.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.Equal(t, 1, logs.FilterMessage("allocation complete").Len())
	fields := logs.FilterMessage("allocation complete").All()[0].ContextMap()
	assert.Equal(t, int64(99), fields["seed"])
}

func TestRunDrawsSeedWhenAbsent(t *testing.T) {
	svc := service.NewAllocationService(db.NewMemoryStore(), allocator.Options{}, nil,
		service.WithSeedSource(func() int64 { return 1234 }))

	run, err := svc.Run(context.Background(), "pupils.csv", cohort(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), run.Seed)
}

func TestRunRejectsInvalidCohort(t *testing.T) {
	svc := service.NewAllocationService(db.NewMemoryStore(), allocator.Options{}, nil)

	_, err := svc.Run(context.Background(), "x", []models.Student{{Name: "Ann"}, {Name: "Ann"}}, nil)
	assert.ErrorIs(t, err, importer.ErrDuplicateName)
}

func TestRunReportsStoreFailure(t *testing.T) {
	svc := service.NewAllocationService(failingStore{}, allocator.Options{}, nil)

	_, err := svc.Run(context.Background(), "x", cohort(), nil)
	assert.ErrorContains(t, err, "disk full")
}

func TestRunWarnsAboutUnplaced(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := service.NewAllocationService(db.NewMemoryStore(), allocator.Options{ClassCount: 1, Capacity: 2}, zap.New(core))

	run, err := svc.Run(context.Background(), "x", cohort(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, run.Report.Stats.Unplaced)
	assert.Equal(t, 1, logs.FilterMessage("students left unplaced").Len())
}

func TestRunAcceptsBlankReferences(t *testing.T) {
	svc := service.NewAllocationService(db.NewMemoryStore(), allocator.Options{}, nil)

	run, err := svc.Run(context.Background(), "api", []models.Student{
		{Name: "A", Friends: []string{"", "B"}, Avoids: []string{""}},
		{Name: "B"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "B"}, run.Students[0].Friends)
	assert.Equal(t, []string{}, run.Students[0].Avoids)
	assert.Equal(t, 2, run.Report.Stats.Placed)
	assert.Equal(t, []models.FriendMark{{Slot: 1, Name: "B", Satisfied: true}}, run.Report.Friendships[0].Friends)
}
