package models

import "time"

// Student is one survey row: identity, attributes and declared preferences.
type Student struct {
	Name       string `json:"name" validate:"required"` // Unique student key
	Gender     string `json:"gender"`                   // e.g. "M" / "F"
	SEN        string `json:"sen"`                      // Special educational needs, "Yes" / "No"
	Attainment string `json:"attainment"`               // Attainment band

	// Friends is positional: Friends[i] is the Friend{i+1} slot and "" marks
	// an empty slot. Avoids keeps declared order with blanks dropped.
	Friends []string `json:"friends" validate:"max=5"`
	Avoids  []string `json:"avoids" validate:"max=3"`
}

// ClassRoster is one class group in insertion order.
type ClassRoster struct {
	Index    int      `json:"index"`    // Zero-based class index
	Label    string   `json:"label"`    // "Class 1", "Class 2", ...
	Students []string `json:"students"` // Names in placement order
}

// FriendMark records whether one declared friend ended up in the same class.
type FriendMark struct {
	Slot      int    `json:"slot"` // Zero-based Friend slot the name was declared in
	Name      string `json:"name"`
	Satisfied bool   `json:"satisfied"`
}

// FriendshipRow is the per-student friend satisfaction view.
type FriendshipRow struct {
	Name    string       `json:"name"`
	Class   string       `json:"class"` // Class label or "Unplaced"
	Friends []FriendMark `json:"friends"`
}

// ClassBreakdown counts the attribute mix of a single class.
type ClassBreakdown struct {
	Label      string         `json:"label"`
	Size       int            `json:"size"`
	Gender     map[string]int `json:"gender"`
	SEN        map[string]int `json:"sen"`
	Attainment map[string]int `json:"attainment"`
}

// RunStats summarises an allocation run.
type RunStats struct {
	Students          int `json:"students"`
	Placed            int `json:"placed"`
	Unplaced          int `json:"unplaced"`
	WithFriendPlaced  int `json:"withFriendPlaced"`  // Students with at least one declared friend co-placed
	WithFriendsListed int `json:"withFriendsListed"` // Students that declared at least one friend
}

// Report is everything derived from a finished allocation.
type Report struct {
	Classes     []ClassRoster    `json:"classes"`
	Unplaced    []string         `json:"unplaced"`
	Friendships []FriendshipRow  `json:"friendships"`
	Breakdown   []ClassBreakdown `json:"breakdown"`
	Stats       RunStats         `json:"stats"`
}

// Run is a persisted allocation run.
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Seed      int64     `json:"seed"`
	Source    string    `json:"source"` // Uploaded file name
	Students  []Student `json:"students"`
	Report    Report    `json:"report"`
}

// RunSummary is the listing view of a run.
type RunSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Seed      int64     `json:"seed"`
	Source    string    `json:"source"`
	Stats     RunStats  `json:"stats"`
}

// Summary returns the listing view of r.
func (r *Run) Summary() RunSummary {
	return RunSummary{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		Seed:      r.Seed,
		Source:    r.Source,
		Stats:     r.Report.Stats,
	}
}
