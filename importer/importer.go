// Package importer turns uploaded survey sheets into student records.
//
// Columns are addressed by header: Name, Gender, SEN, Attainment,
// Friend1..Friend5 and Avoid1..Avoid3. Only Name is required. Cells are
// trimmed and absent columns read as empty. Friends keep their slot
// positions; blank avoid cells are dropped.
package importer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"classgen-server-go/models"
)

var (
	ErrMissingName       = errors.New("student name is required")
	ErrDuplicateName     = errors.New("duplicate student name")
	ErrInvalidStudent    = errors.New("invalid student record")
	ErrNoNameColumn      = errors.New("header has no Name column")
	ErrNoHeader          = errors.New("file has no header row")
	ErrNoSheets          = errors.New("workbook does not contain any sheets")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

const (
	maxFriends = 5
	maxAvoids  = 3
)

var validate = validator.New()

// Parse reads students from r, choosing the decoder from filename's extension.
func Parse(filename string, r io.Reader) ([]models.Student, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(r)
	case ".xlsx", ".xlsm":
		return ParseExcel(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
}

// columns maps header names to positions.
type columns map[string]int

func newColumns(header []string) (columns, error) {
	cols := columns{}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, seen := cols[h]; !seen {
			cols[h] = i
		}
	}
	if _, ok := cols["Name"]; !ok {
		return nil, ErrNoNameColumn
	}
	return cols, nil
}

func (c columns) cell(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// refs reads the numbered columns prefix1..prefixN, one entry per slot.
func (c columns) refs(row []string, prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = c.cell(row, fmt.Sprintf("%s%d", prefix, i+1))
	}
	return out
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// fromRows converts a header plus data rows. Line numbers in errors count the
// header as line 1.
func fromRows(rows [][]string) ([]models.Student, error) {
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}
	cols, err := newColumns(rows[0])
	if err != nil {
		return nil, err
	}

	students := []models.Student{}
	lines := []int{}
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		students = append(students, models.Student{
			Name:       cols.cell(row, "Name"),
			Gender:     cols.cell(row, "Gender"),
			SEN:        cols.cell(row, "SEN"),
			Attainment: cols.cell(row, "Attainment"),
			Friends:    cols.refs(row, "Friend", maxFriends),
			Avoids:     cols.refs(row, "Avoid", maxAvoids),
		})
		lines = append(lines, i+2)
	}

	students = Normalize(students)
	if err := check(students, func(i int) string { return fmt.Sprintf("line %d", lines[i]) }); err != nil {
		return nil, err
	}
	return students, nil
}

// Normalize returns trimmed copies of students. Friends keep their slot
// positions with trailing empty slots cut; blank avoidances are dropped.
func Normalize(students []models.Student) []models.Student {
	out := make([]models.Student, len(students))
	for i, s := range students {
		out[i] = models.Student{
			Name:       strings.TrimSpace(s.Name),
			Gender:     strings.TrimSpace(s.Gender),
			SEN:        strings.TrimSpace(s.SEN),
			Attainment: strings.TrimSpace(s.Attainment),
			Friends:    friendSlots(s.Friends),
			Avoids:     nonBlank(s.Avoids),
		}
	}
	return out
}

func friendSlots(refs []string) []string {
	out := make([]string, len(refs))
	last := 0
	for i, r := range refs {
		out[i] = strings.TrimSpace(r)
		if out[i] != "" {
			last = i + 1
		}
	}
	return out[:last]
}

func nonBlank(refs []string) []string {
	out := []string{}
	for _, r := range refs {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// Validate checks records that did not come through a parser, such as a JSON
// request body, after normalizing them: every name present and unique, at
// most five friend slots and three avoidances. Blank references are allowed.
func Validate(students []models.Student) error {
	return check(Normalize(students), func(i int) string { return fmt.Sprintf("record %d", i+1) })
}

func check(students []models.Student, where func(int) string) error {
	seen := make(map[string]int, len(students))
	for i, s := range students {
		if err := validate.Struct(s); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Name" {
				return fmt.Errorf("%s: %w", where(i), ErrMissingName)
			}
			return fmt.Errorf("%s: %w: %v", where(i), ErrInvalidStudent, err)
		}
		if first, dup := seen[s.Name]; dup {
			return fmt.Errorf("%s: %w: %q already on %s", where(i), ErrDuplicateName, s.Name, where(first))
		}
		seen[s.Name] = i
	}
	return nil
}
