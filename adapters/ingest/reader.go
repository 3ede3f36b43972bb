// Package ingest reads spreadsheet files into the analyzable dataset
// model, inferring a semantic type for every column.
package ingest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"vendalytics/domain/dataset"
	"vendalytics/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Loaded is a parsed file ready for analysis
type Loaded struct {
	Dataset *dataset.Dataset
	Columns []dataset.ColumnMetadata
	Source  string
}

// Load reads an .xlsx or .csv file, builds the dataset and infers column
// metadata
func Load(path string) (*Loaded, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = readCSV(path)
	case ".xlsx", ".xlsm":
		records, err = readExcel(path)
	default:
		return nil, errors.New("UNSUPPORTED_FORMAT", "unsupported file format: "+filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, errors.New("EMPTY_FILE", "file has no data rows")
	}

	headers := records[0]
	rows := buildRows(headers, records[1:])
	ds := dataset.New(rows)
	return &Loaded{
		Dataset: ds,
		Columns: InferColumns(ds, headers),
		Source:  filepath.Base(path),
	}, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows
	records, err := r.ReadAll()
	return records, errors.Wrap(err, "failed to parse CSV file")
}

func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	records, err := f.GetRows(sheet)
	return records, errors.Wrapf(err, "failed to read sheet %q", sheet)
}

// buildRows maps header names onto cell values; blank cells become nil
func buildRows(headers []string, records [][]string) []dataset.Row {
	rows := make([]dataset.Row, 0, len(records))
	for _, record := range records {
		row := make(dataset.Row, len(headers))
		empty := true
		for i, name := range headers {
			if i < len(record) && strings.TrimSpace(record[i]) != "" {
				row[name] = record[i]
				empty = false
			} else {
				row[name] = nil
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows
}
