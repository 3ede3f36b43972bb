package dataset

// ColumnType is the semantic type assigned to a column by upstream inference
type ColumnType string

const (
	TypeDate       ColumnType = "DATE"
	TypeNumber     ColumnType = "NUMBER"
	TypeCurrency   ColumnType = "CURRENCY"
	TypePercentage ColumnType = "PERCENTAGE"
	TypeCategory   ColumnType = "CATEGORY"
	TypeProduct    ColumnType = "PRODUCT"
	TypeEmployee   ColumnType = "EMPLOYEE"
	TypeClient     ColumnType = "CLIENT"
	TypeText       ColumnType = "TEXT"
)

// IsNumeric reports whether values of this type are analyzable as numbers
func (t ColumnType) IsNumeric() bool {
	return t == TypeNumber || t == TypeCurrency || t == TypePercentage
}

// Row is a single record: column name to raw value (string, number or nil)
type Row map[string]any

// NumericStats carries distribution statistics for numeric columns
type NumericStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// ColumnMetadata describes a single column of the dataset.
// Produced upstream by type inference; analyzers treat it as read-only.
type ColumnMetadata struct {
	Name        string        `json:"name"`
	Type        ColumnType    `json:"type"`
	NullCount   int           `json:"null_count"`
	UniqueCount int           `json:"unique_count"`
	Stats       *NumericStats `json:"stats,omitempty"`
}

// Dataset is an ordered, immutable sequence of rows. Row index is stable
// for the lifetime of one analysis run.
type Dataset struct {
	rows []Row
}

// New builds a dataset from rows. The slice is not copied; callers hand
// ownership to the dataset and must not mutate it afterwards.
func New(rows []Row) *Dataset {
	return &Dataset{rows: rows}
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Row returns the row at index i
func (d *Dataset) Row(i int) Row {
	return d.rows[i]
}

// Rows returns the backing row slice. Read-only by convention.
func (d *Dataset) Rows() []Row {
	return d.rows
}

// Value returns the raw value of column col in row i, nil when absent
func (d *Dataset) Value(i int, col string) any {
	return d.rows[i][col]
}

// NumericColumn extracts all parseable numeric values of a column,
// skipping malformed entries. The returned indices map each value back
// to its source row.
func (d *Dataset) NumericColumn(col string) (values []float64, indices []int) {
	for i, row := range d.rows {
		if v, ok := ParseNumber(row[col]); ok {
			values = append(values, v)
			indices = append(indices, i)
		}
	}
	return values, indices
}
