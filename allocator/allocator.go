package allocator

import "slices"

const (
	// DefaultClassCount is the number of classes filled when Options leaves it unset.
	DefaultClassCount = 4
	// DefaultCapacity is the per-class ceiling when Options leaves it unset.
	DefaultCapacity = 18
)

// Options tunes an allocation run. Zero values fall back to the defaults.
type Options struct {
	ClassCount int
	Capacity   int
}

func (o Options) withDefaults() Options {
	if o.ClassCount <= 0 {
		o.ClassCount = DefaultClassCount
	}
	if o.Capacity <= 0 {
		o.Capacity = DefaultCapacity
	}
	return o
}

// Result is the final state of an allocation run.
type Result struct {
	Classes   [][]string     // Class rosters in placement order
	Unplaced  []string       // Students no class admitted, in processing order
	Placement map[string]int // Student name -> class index
	Capacity  int
}

// ClassOf returns the class index name was placed in.
func (r *Result) ClassOf(name string) (int, bool) {
	c, ok := r.Placement[name]
	return c, ok
}

// allocation is the mutable state of one run. It is owned by Allocate and
// never escapes until the run is complete.
type allocation struct {
	index     *Index
	capacity  int
	classes   [][]string
	placement map[string]int
	decided   map[string]bool
	unplaced  []string
}

// Allocate places every student of x, visiting them in order. Names in order
// that are not students are ignored, and students missing from order are
// visited afterwards in input order, so every student ends either placed in
// exactly one class or unplaced.
func Allocate(x *Index, order []string, opts Options) *Result {
	opts = opts.withDefaults()
	a := &allocation{
		index:     x,
		capacity:  opts.Capacity,
		classes:   make([][]string, opts.ClassCount),
		placement: make(map[string]int, x.Len()),
		decided:   make(map[string]bool, x.Len()),
	}
	for i := range a.classes {
		a.classes[i] = []string{}
	}

	for _, name := range order {
		if x.Has(name) {
			a.visit(name)
		}
	}
	for _, name := range x.names {
		a.visit(name)
	}

	return &Result{
		Classes:   a.classes,
		Unplaced:  append([]string{}, a.unplaced...),
		Placement: a.placement,
		Capacity:  a.capacity,
	}
}

func (a *allocation) visit(student string) {
	if a.decided[student] {
		return
	}
	switch {
	case a.joinFriend(student):
	case a.pairWithFriend(student):
	case a.leastFull(student):
	default:
		a.decided[student] = true
		a.unplaced = append(a.unplaced, student)
	}
}

// joinFriend places student in the class of the first declared friend whose
// class admits them.
func (a *allocation) joinFriend(student string) bool {
	for _, friend := range a.index.Friends(student) {
		c, ok := a.placement[friend]
		if !ok {
			continue
		}
		if a.index.CanPlace(student, a.classes[c], a.capacity) {
			a.place(student, c)
			return true
		}
	}
	return false
}

// pairWithFriend seats student together with the first undecided friend for
// whom some class, tried least full first, admits both.
func (a *allocation) pairWithFriend(student string) bool {
	for _, friend := range a.index.Friends(student) {
		if friend == student || !a.index.Has(friend) || a.decided[friend] {
			continue
		}
		for _, c := range a.bySize() {
			if a.index.canPlacePair(student, friend, a.classes[c], a.capacity) {
				a.place(student, c)
				a.place(friend, c)
				return true
			}
		}
	}
	return false
}

// leastFull places student in the smallest class that admits them.
func (a *allocation) leastFull(student string) bool {
	for _, c := range a.bySize() {
		if a.index.CanPlace(student, a.classes[c], a.capacity) {
			a.place(student, c)
			return true
		}
	}
	return false
}

func (a *allocation) place(student string, class int) {
	a.classes[class] = append(a.classes[class], student)
	a.placement[student] = class
	a.decided[student] = true
}

// bySize lists class indices by ascending roster size, ties by index.
func (a *allocation) bySize() []int {
	idx := make([]int, len(a.classes))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(i, j int) int {
		return len(a.classes[i]) - len(a.classes[j])
	})
	return idx
}
