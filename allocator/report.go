package allocator

import (
	"fmt"

	"classgen-server-go/models"
)

const (
	// UnplacedLabel names the roster column and class value of unplaced students.
	UnplacedLabel = "Unplaced"
	// FriendSlots is the number of friend columns in tabular output.
	FriendSlots = 5

	unspecified = "Unspecified"
)

// ClassLabel returns the display name of the class at index i.
func ClassLabel(i int) string {
	return fmt.Sprintf("Class %d", i+1)
}

// BuildReport derives rosters, friend satisfaction, per-class breakdown and
// run statistics from a finished allocation. It does not modify r.
func BuildReport(x *Index, r *Result) models.Report {
	rep := models.Report{
		Classes:     make([]models.ClassRoster, len(r.Classes)),
		Unplaced:    append([]string{}, r.Unplaced...),
		Friendships: make([]models.FriendshipRow, 0, x.Len()),
		Breakdown:   make([]models.ClassBreakdown, len(r.Classes)),
	}

	for i, roster := range r.Classes {
		rep.Classes[i] = models.ClassRoster{
			Index:    i,
			Label:    ClassLabel(i),
			Students: append([]string{}, roster...),
		}
		rep.Breakdown[i] = breakdown(x, ClassLabel(i), roster)
	}

	stats := models.RunStats{
		Students: x.Len(),
		Unplaced: len(r.Unplaced),
	}
	for _, name := range x.names {
		class, placed := r.ClassOf(name)
		row := models.FriendshipRow{
			Name:    name,
			Class:   UnplacedLabel,
			Friends: []models.FriendMark{},
		}
		if placed {
			row.Class = ClassLabel(class)
			stats.Placed++
		}

		anySatisfied := false
		s, _ := x.Student(name)
		for slot, friend := range s.Friends {
			if friend == "" {
				continue
			}
			fc, ok := r.ClassOf(friend)
			mark := models.FriendMark{Slot: slot, Name: friend, Satisfied: placed && ok && fc == class}
			anySatisfied = anySatisfied || mark.Satisfied
			row.Friends = append(row.Friends, mark)
		}
		if len(row.Friends) > 0 {
			stats.WithFriendsListed++
		}
		if anySatisfied {
			stats.WithFriendPlaced++
		}
		rep.Friendships = append(rep.Friendships, row)
	}
	rep.Stats = stats

	return rep
}

func breakdown(x *Index, label string, roster []string) models.ClassBreakdown {
	b := models.ClassBreakdown{
		Label:      label,
		Size:       len(roster),
		Gender:     map[string]int{},
		SEN:        map[string]int{},
		Attainment: map[string]int{},
	}
	for _, name := range roster {
		s, ok := x.Student(name)
		if !ok {
			continue
		}
		b.Gender[orUnspecified(s.Gender)]++
		b.SEN[orUnspecified(s.SEN)]++
		b.Attainment[orUnspecified(s.Attainment)]++
	}
	return b
}

func orUnspecified(v string) string {
	if v == "" {
		return unspecified
	}
	return v
}

// RosterTable lays the class rosters and the unplaced list out as columns,
// padding shorter columns with empty strings so every row has equal width.
func RosterTable(rep models.Report) (header []string, rows [][]string) {
	columns := make([][]string, 0, len(rep.Classes)+1)
	for _, c := range rep.Classes {
		header = append(header, c.Label)
		columns = append(columns, c.Students)
	}
	header = append(header, UnplacedLabel)
	columns = append(columns, rep.Unplaced)

	depth := 0
	for _, col := range columns {
		depth = max(depth, len(col))
	}

	rows = make([][]string, depth)
	for r := range rows {
		row := make([]string, len(columns))
		for c, col := range columns {
			if r < len(col) {
				row[c] = col[r]
			}
		}
		rows[r] = row
	}
	return header, rows
}

// FriendshipHeader is the column header of FriendshipTable.
func FriendshipHeader() []string {
	header := []string{"Name", "Class"}
	for i := 1; i <= FriendSlots; i++ {
		header = append(header, fmt.Sprintf("Friend%d", i))
	}
	return header
}

// FriendshipTable renders the friend satisfaction view with one row per
// student, each friend in the column of the slot it was declared in. Empty
// slots stay blank, satisfied friends are prefixed with a check mark and
// unsatisfied ones with a cross.
func FriendshipTable(rep models.Report) [][]string {
	rows := make([][]string, 0, len(rep.Friendships))
	for _, f := range rep.Friendships {
		row := make([]string, 2+FriendSlots)
		row[0], row[1] = f.Name, f.Class
		for _, mark := range f.Friends {
			if mark.Slot < 0 || mark.Slot >= FriendSlots {
				continue
			}
			row[2+mark.Slot] = AnnotateFriend(mark)
		}
		rows = append(rows, row)
	}
	return rows
}

// AnnotateFriend renders a friend mark as "✅ name" or "❌ name".
func AnnotateFriend(m models.FriendMark) string {
	if m.Satisfied {
		return "✅ " + m.Name
	}
	return "❌ " + m.Name
}
