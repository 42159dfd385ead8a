package allocator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classgen-server-go/allocator"
	"classgen-server-go/models"
)

func TestAllocateFriendJoin(t *testing.T) {
	x := allocator.NewIndex([]models.Student{
		student("F", nil, nil),
		student("S", []string{"F"}, nil),
		student("O1", nil, nil),
		student("O2", nil, nil),
	})

	// O1 and O2 land in classes 1 and 2, leaving class 0 the largest when S
	// is visited; S must still follow F.
	res := allocator.Allocate(x, []string{"F", "O1", "O2", "S"}, allocator.Options{})

	fc, ok := res.ClassOf("F")
	require.True(t, ok)
	sc, ok := res.ClassOf("S")
	require.True(t, ok)
	assert.Equal(t, fc, sc)
	assert.Equal(t, []string{"F", "S"}, res.Classes[fc])
	requireInvariants(t, x, res)
}

func TestAllocateFriendJoinUsesDeclaredOrder(t *testing.T) {
	x := allocator.NewIndex([]models.Student{
		student("F1", nil, nil),
		student("F2", nil, nil),
		student("S", []string{"F2", "F1"}, nil),
	})

	res := allocator.Allocate(x, []string{"F1", "F2", "S"}, allocator.Options{})

	f2, _ := res.ClassOf("F2")
	sc, _ := res.ClassOf("S")
	assert.Equal(t, f2, sc)
}

func TestAllocatePairedPlacement(t *testing.T) {
	x := allocator.NewIndex([]models.Student{
		student("A", []string{"B"}, nil),
		student("B", []string{"A"}, nil),
	})

	for _, order := range [][]string{{"A", "B"}, {"B", "A"}} {
		res := allocator.Allocate(x, order, allocator.Options{})

		a, ok := res.ClassOf("A")
		require.True(t, ok)
		b, ok := res.ClassOf("B")
		require.True(t, ok)
		assert.Equal(t, a, b)
		assert.Equal(t, 0, a, "pair seeds the first empty class")
		assert.Equal(t, order, res.Classes[0])
	}
}

func TestAllocatePairNeedsTwoSeats(t *testing.T) {
	x := allocator.NewIndex([]models.Student{
		student("X", nil, nil),
		student("A", []string{"B"}, nil),
		student("B", []string{"A"}, nil),
	})

	res := allocator.Allocate(x, []string{"X", "A", "B"}, allocator.Options{ClassCount: 1, Capacity: 2})

	assert.Equal(t, []string{"X", "A"}, res.Classes[0])
	assert.Equal(t, []string{"B"}, res.Unplaced)
	requireInvariants(t, x, res)
}

func TestAllocatePairSkipsMutuallyAvoidingFriend(t *testing.T) {
	x := allocator.NewIndex([]models.Student{
		student("A", []string{"B"}, []string{"B"}),
		student("B", nil, nil),
	})

	res := allocator.Allocate(x, []string{"A", "B"}, allocator.Options{})

	a, _ := res.ClassOf("A")
	b, _ := res.ClassOf("B")
	assert.NotEqual(t, a, b)
	requireInvariants(t, x, res)
}

func TestAllocateAvoidanceBlocksFriendJoin(t *testing.T) {
	x := allocator.NewIndex([]models.Student{
		student("X", nil, nil),
		student("F", []string{"X"}, nil),
		student("S", []string{"F"}, []string{"X"}),
	})

	res := allocator.Allocate(x, []string{"X", "F", "S"}, allocator.Options{})

	fc, _ := res.ClassOf("F")
	assert.Equal(t, []string{"X", "F"}, res.Classes[fc])

	sc, ok := res.ClassOf("S")
	require.True(t, ok)
	assert.NotEqual(t, fc, sc)
	requireInvariants(t, x, res)
}

func TestAllocateFallbackPicksLeastFull(t *testing.T) {
	x := allocator.NewIndex([]models.Student{
		student("A", nil, nil),
		student("B", nil, nil),
		student("C", nil, nil),
		student("D", nil, nil),
		student("E", nil, nil),
	})

	res := allocator.Allocate(x, []string{"A", "B", "C", "D", "E"}, allocator.Options{})

	assert.Equal(t, [][]string{{"A", "E"}, {"B"}, {"C"}, {"D"}}, res.Classes)
	assert.Empty(t, res.Unplaced)
}

func TestAllocateUnplaced(t *testing.T) {
	x := allocator.NewIndex([]models.Student{
		student("A", nil, []string{"B"}),
		student("B", nil, nil),
		student("C", nil, nil),
	})

	res := allocator.Allocate(x, []string{"A", "B", "C"}, allocator.Options{ClassCount: 1, Capacity: 18})

	assert.Equal(t, []string{"A", "C"}, res.Classes[0])
	assert.Equal(t, []string{"B"}, res.Unplaced)
	requireInvariants(t, x, res)
}

func TestAllocateIgnoresUnknownAndSelfReferences(t *testing.T) {
	x := allocator.NewIndex([]models.Student{
		student("A", []string{"Ghost", "A"}, []string{"Phantom"}),
		student("B", nil, nil),
	})

	res := allocator.Allocate(x, []string{"A", "Ghost", "B"}, allocator.Options{})

	for _, roster := range res.Classes {
		assert.NotContains(t, roster, "Ghost")
	}
	assert.Empty(t, res.Unplaced)
	requireInvariants(t, x, res)
}

func TestAllocateVisitsStudentsMissingFromOrder(t *testing.T) {
	x := allocator.NewIndex([]models.Student{
		student("A", nil, nil),
		student("B", nil, nil),
		student("C", nil, nil),
	})

	res := allocator.Allocate(x, []string{"C", "C"}, allocator.Options{})

	assert.Equal(t, [][]string{{"C"}, {"A"}, {"B"}, {}}, res.Classes)
	requireInvariants(t, x, res)
}

func TestAllocateExampleScenario(t *testing.T) {
	x := allocator.NewIndex([]models.Student{
		student("A", nil, []string{"B"}),
		student("B", nil, nil),
		student("C", []string{"D"}, nil),
		student("D", []string{"C"}, nil),
		student("E", nil, nil),
	})

	for seed := int64(0); seed < 200; seed++ {
		order := allocator.Shuffle(x.Names(), seed)
		res := allocator.Allocate(x, order, allocator.Options{ClassCount: 4, Capacity: 2})

		c, ok := res.ClassOf("C")
		require.True(t, ok, "seed %d", seed)
		d, ok := res.ClassOf("D")
		require.True(t, ok, "seed %d", seed)
		require.Equal(t, c, d, "seed %d order %v", seed, order)
		require.Empty(t, res.Unplaced, "seed %d", seed)
		requireInvariants(t, x, res)
	}
}

func TestAllocateInvariantsHoldOnRandomCohorts(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		cohort := randomCohort(90, seed)
		x := allocator.NewIndex(cohort)
		res := allocator.Allocate(x, allocator.Shuffle(x.Names(), seed), allocator.Options{})
		requireInvariants(t, x, res)
	}
}

func TestAllocateSameOrderSameResult(t *testing.T) {
	x := allocator.NewIndex(randomCohort(60, 3))
	order := allocator.Shuffle(x.Names(), 11)

	first := allocator.Allocate(x, order, allocator.Options{})
	second := allocator.Allocate(x, order, allocator.Options{})

	assert.Equal(t, first, second)
}

func TestShuffle(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	got := allocator.Shuffle(names, 42)

	assert.ElementsMatch(t, names, got)
	assert.Equal(t, got, allocator.Shuffle(names, 42))
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, names, "input left untouched")
}
