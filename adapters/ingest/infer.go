package ingest

import (
	"strings"

	"vendalytics/domain/dataset"

	"github.com/montanaflynn/stats"
)

// Name hints used when value shapes alone are ambiguous
var (
	clientNameHints   = []string{"cliente", "customer", "comprador", "client"}
	employeeNameHints = []string{"vendedor", "funcionario", "funcionário", "employee", "atendente"}
	productNameHints  = []string{"produto", "item", "sku", "mercadoria", "product"}
	percentNameHints  = []string{"percentual", "taxa", "margem"}
)

// typedRate is the share of non-null values a shape test must match before
// the column takes that type
const typedRate = 0.8

// InferColumns assigns a semantic type to every column by sampling its
// values and falling back to name hints, and computes distribution stats
// for numeric columns.
func InferColumns(ds *dataset.Dataset, headers []string) []dataset.ColumnMetadata {
	cols := make([]dataset.ColumnMetadata, 0, len(headers))
	for _, name := range headers {
		cols = append(cols, inferColumn(ds, name))
	}
	return cols
}

func inferColumn(ds *dataset.Dataset, name string) dataset.ColumnMetadata {
	meta := dataset.ColumnMetadata{Name: name}

	var nonNull, dates, numbers, currencyMarks int
	var numeric []float64
	unique := make(map[string]struct{})

	for _, row := range ds.Rows() {
		v := row[name]
		if v == nil {
			meta.NullCount++
			continue
		}
		nonNull++

		if s, ok := v.(string); ok {
			unique[s] = struct{}{}
			if strings.Contains(s, "R$") {
				currencyMarks++
			}
		}
		if _, ok := dataset.ParseDate(v); ok {
			dates++
		}
		if n, ok := dataset.ParseNumber(v); ok {
			numbers++
			numeric = append(numeric, n)
		}
	}
	meta.UniqueCount = len(unique)

	if nonNull == 0 {
		meta.Type = dataset.TypeText
		return meta
	}

	rate := func(count int) float64 { return float64(count) / float64(nonNull) }
	lower := strings.ToLower(name)

	switch {
	case rate(dates) >= typedRate && rate(numbers) < typedRate:
		meta.Type = dataset.TypeDate
	case rate(numbers) >= typedRate:
		meta.Type = numericType(lower, currencyMarks)
		meta.Stats = numericStats(numeric)
	case matchesAny(lower, clientNameHints):
		meta.Type = dataset.TypeClient
	case matchesAny(lower, employeeNameHints):
		meta.Type = dataset.TypeEmployee
	case matchesAny(lower, productNameHints):
		meta.Type = dataset.TypeProduct
	case float64(meta.UniqueCount)/float64(nonNull) < 0.5:
		meta.Type = dataset.TypeCategory
	default:
		meta.Type = dataset.TypeText
	}
	return meta
}

func numericType(lowerName string, currencyMarks int) dataset.ColumnType {
	if currencyMarks > 0 || matchesAny(lowerName, dataset.CurrencyKeywords) {
		return dataset.TypeCurrency
	}
	if matchesAny(lowerName, percentNameHints) {
		return dataset.TypePercentage
	}
	return dataset.TypeNumber
}

func matchesAny(name string, hints []string) bool {
	for _, hint := range hints {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}

func numericStats(values []float64) *dataset.NumericStats {
	if len(values) == 0 {
		return nil
	}
	mean, _ := stats.Mean(values)
	median, _ := stats.Median(values)
	min, _ := stats.Min(values)
	max, _ := stats.Max(values)
	stdDev, _ := stats.StandardDeviation(values)
	return &dataset.NumericStats{Min: min, Max: max, Mean: mean, Median: median, StdDev: stdDev}
}
