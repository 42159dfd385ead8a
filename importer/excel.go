package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"classgen-server-go/models"
)

// ParseExcel reads students from the first sheet of an xlsx workbook.
func ParseExcel(r io.Reader) (students []models.Student, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close excel file: %w", cerr)
		}
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheets
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheet, err)
	}
	return fromRows(rows)
}
