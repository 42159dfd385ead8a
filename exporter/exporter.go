// Package exporter serializes allocation reports for download.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"classgen-server-go/allocator"
	"classgen-server-go/models"
)

// Sheet names of the exported workbook.
const (
	AssignmentsSheet = "Assignments"
	FriendshipsSheet = "Friendships"
	BreakdownSheet   = "Breakdown"
)

// WriteCSV writes the padded roster table, one column per class plus Unplaced.
func WriteCSV(w io.Writer, rep models.Report) error {
	header, rows := allocator.RosterTable(rep)
	return writeCSV(w, header, rows)
}

// WriteFriendshipCSV writes one row per student with their friend marks.
func WriteFriendshipCSV(w io.Writer, rep models.Report) error {
	return writeCSV(w, allocator.FriendshipHeader(), allocator.FriendshipTable(rep))
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

// BreakdownHeader is the header row of the breakdown sheet.
var BreakdownHeader = []string{"Class", "Size", "Gender", "SEN", "Attainment"}

// BreakdownTable renders per-class counts as "key: n" lists sorted by key.
func BreakdownTable(rep models.Report) [][]string {
	rows := make([][]string, 0, len(rep.Breakdown))
	for _, b := range rep.Breakdown {
		rows = append(rows, []string{
			b.Label,
			fmt.Sprint(b.Size),
			counts(b.Gender),
			counts(b.SEN),
			counts(b.Attainment),
		})
	}
	return rows
}

func counts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, m[k]))
	}
	return strings.Join(parts, ", ")
}

// WriteExcel writes a workbook with the roster table, the friendship view and
// the class breakdown on separate sheets.
func WriteExcel(w io.Writer, rep models.Report) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), AssignmentsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{FriendshipsSheet, BreakdownSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header, rows := allocator.RosterTable(rep)
	sheets := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{AssignmentsSheet, header, rows},
		{FriendshipsSheet, allocator.FriendshipHeader(), allocator.FriendshipTable(rep)},
		{BreakdownSheet, BreakdownHeader, BreakdownTable(rep)},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.header, s.rows); err != nil {
			return err
		}
		if err := f.SetRowStyle(s.name, 1, 1, bold); err != nil {
			return fmt.Errorf("failed to style header of %s: %w", s.name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string) error {
	all := append([][]string{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
