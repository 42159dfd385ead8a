package importer

import (
	"encoding/csv"
	"fmt"
	"io"

	"classgen-server-go/models"
)

// ParseCSV reads students from a comma separated file with a header row.
func ParseCSV(r io.Reader) ([]models.Student, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return fromRows(rows)
}
