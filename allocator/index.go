package allocator

import (
	"slices"

	"classgen-server-go/models"
)

// Index holds the lookup tables the allocator consults, keyed by student name.
type Index struct {
	names   []string
	byName  map[string]models.Student
	friends map[string][]string
	avoids  map[string][]string
}

// NewIndex builds the lookup tables for students. Blank friend and avoid
// references are dropped; references to names outside students are kept and
// simply never resolve to a class. A repeated name keeps its first record.
func NewIndex(students []models.Student) *Index {
	x := &Index{
		names:   make([]string, 0, len(students)),
		byName:  make(map[string]models.Student, len(students)),
		friends: make(map[string][]string, len(students)),
		avoids:  make(map[string][]string, len(students)),
	}
	for _, s := range students {
		if _, dup := x.byName[s.Name]; dup {
			continue
		}
		x.names = append(x.names, s.Name)
		x.byName[s.Name] = s
		x.friends[s.Name] = nonBlank(s.Friends)
		x.avoids[s.Name] = nonBlank(s.Avoids)
	}
	return x
}

func nonBlank(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

// Names returns every student name in input order.
func (x *Index) Names() []string {
	return append([]string(nil), x.names...)
}

// Len is the number of distinct students.
func (x *Index) Len() int { return len(x.names) }

// Has reports whether name is a known student.
func (x *Index) Has(name string) bool {
	_, ok := x.byName[name]
	return ok
}

// Student returns the record for name.
func (x *Index) Student(name string) (models.Student, bool) {
	s, ok := x.byName[name]
	return s, ok
}

// Friends returns the declared friends of name, empty when unknown.
func (x *Index) Friends(name string) []string {
	return x.friends[name]
}

// Avoids returns the declared avoidances of name, empty when unknown.
func (x *Index) Avoids(name string) []string {
	return x.avoids[name]
}

// Avoiding reports whether either student declared they avoid the other.
func (x *Index) Avoiding(a, b string) bool {
	return slices.Contains(x.avoids[a], b) || slices.Contains(x.avoids[b], a)
}
