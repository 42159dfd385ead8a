package allocator

// CanPlace reports whether student may join roster: the roster must be
// below capacity and nobody in it may avoid, or be avoided by, student.
func (x *Index) CanPlace(student string, roster []string, capacity int) bool {
	if len(roster) >= capacity {
		return false
	}
	for _, peer := range roster {
		if x.Avoiding(student, peer) {
			return false
		}
	}
	return true
}

// canPlacePair reports whether a and b may join roster together.
func (x *Index) canPlacePair(a, b string, roster []string, capacity int) bool {
	if len(roster)+2 > capacity || x.Avoiding(a, b) {
		return false
	}
	return x.CanPlace(a, roster, capacity) && x.CanPlace(b, roster, capacity)
}
