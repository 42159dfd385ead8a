package allocator_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"classgen-server-go/allocator"
	"classgen-server-go/models"
)

// student builds a record with the given friends and avoidances.
func student(name string, friends, avoids []string) models.Student {
	return models.Student{Name: name, Friends: friends, Avoids: avoids}
}

// randomCohort generates n students with random friend and avoid lists drawn
// from the cohort plus the odd unknown name.
func randomCohort(n int, seed int64) []models.Student {
	r := rand.New(rand.NewSource(seed))
	name := func(i int) string { return fmt.Sprintf("S%03d", i) }
	pick := func() string {
		if r.Intn(20) == 0 {
			return "Nobody"
		}
		return name(r.Intn(n))
	}

	out := make([]models.Student, n)
	for i := range out {
		s := models.Student{Name: name(i), Gender: []string{"M", "F"}[r.Intn(2)], SEN: []string{"Yes", "No"}[r.Intn(2)]}
		for k := r.Intn(6); k > 0; k-- {
			s.Friends = append(s.Friends, pick())
		}
		for k := r.Intn(4); k > 0; k-- {
			s.Avoids = append(s.Avoids, pick())
		}
		out[i] = s
	}
	return out
}

// requireInvariants checks capacity, avoidance and partition over a result.
func requireInvariants(t *testing.T, x *allocator.Index, res *allocator.Result) {
	t.Helper()

	seen := map[string]int{}
	for c, roster := range res.Classes {
		require.LessOrEqual(t, len(roster), res.Capacity, "class %d over capacity", c)
		for i, a := range roster {
			seen[a]++
			got, ok := res.ClassOf(a)
			require.True(t, ok, "%s in roster but not in placement map", a)
			require.Equal(t, c, got)
			for _, b := range roster[i+1:] {
				require.False(t, x.Avoiding(a, b), "%s and %s share class %d", a, b, c)
			}
		}
	}
	for _, u := range res.Unplaced {
		seen[u]++
		_, ok := res.ClassOf(u)
		require.False(t, ok, "%s is both placed and unplaced", u)
	}

	require.Len(t, seen, x.Len())
	for _, name := range x.Names() {
		require.Equal(t, 1, seen[name], "student %s appears %d times", name, seen[name])
	}
}
