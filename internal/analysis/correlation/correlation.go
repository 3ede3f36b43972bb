// Package correlation computes pairwise Pearson/Spearman correlation over
// the numeric columns of a dataset.
package correlation

import (
	"math"
	"sort"

	"vendalytics/domain/analysis"
	"vendalytics/domain/dataset"

	"github.com/montanaflynn/stats"
)

// Pair is one unordered column pair with its correlation verdict
type Pair struct {
	Variable1   string  `json:"variable1"`
	Variable2   string  `json:"variable2"`
	Coefficient float64 `json:"coefficient"`
	Spearman    float64 `json:"spearman"`
	Strength    string  `json:"strength"`
	Direction   string  `json:"direction"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
	SampleSize  int     `json:"sample_size"`
}

// Heatmap is the symmetric correlation matrix over all numeric columns
type Heatmap struct {
	Columns []string    `json:"columns"`
	Matrix  [][]float64 `json:"matrix"`
}

// Result is the full correlation analysis output
type Result struct {
	analysis.Availability
	Pairs       []Pair  `json:"pairs,omitempty"`
	Significant []Pair  `json:"significant,omitempty"`
	Heatmap     Heatmap `json:"heatmap,omitempty"`
}

// Engine computes the correlation analysis
type Engine struct{}

// NewEngine creates a correlation engine
func NewEngine() *Engine {
	return &Engine{}
}

const minPairSamples = 3

// Analyze computes Pearson and Spearman coefficients for every unordered
// pair of numeric columns. Requires at least two numeric columns.
func (e *Engine) Analyze(ds *dataset.Dataset, cols []dataset.ColumnMetadata) Result {
	numeric := dataset.NumericColumns(cols)
	if len(numeric) < 2 {
		return Result{Availability: analysis.Unavailable(
			"correlação requer pelo menos 2 colunas numéricas, encontradas %d", len(numeric))}
	}

	result := Result{Availability: analysis.Ok()}

	names := make([]string, len(numeric))
	for i, c := range numeric {
		names[i] = c.Name
	}
	matrix := identityMatrix(len(numeric))

	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			x, y := alignedValues(ds, numeric[i].Name, numeric[j].Name)
			if len(x) < minPairSamples {
				continue
			}

			r := Pearson(x, y)
			p := approximatePValue(r, len(x))
			pair := Pair{
				Variable1:   numeric[i].Name,
				Variable2:   numeric[j].Name,
				Coefficient: r,
				Spearman:    Spearman(x, y),
				Strength:    strengthLabel(r),
				Direction:   directionLabel(r),
				PValue:      p,
				Significant: math.Abs(r) >= 0.3 && p <= 0.05,
				SampleSize:  len(x),
			}
			result.Pairs = append(result.Pairs, pair)
			if pair.Significant {
				result.Significant = append(result.Significant, pair)
			}
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}

	sort.SliceStable(result.Pairs, func(a, b int) bool {
		return math.Abs(result.Pairs[a].Coefficient) > math.Abs(result.Pairs[b].Coefficient)
	})
	sort.SliceStable(result.Significant, func(a, b int) bool {
		return math.Abs(result.Significant[a].Coefficient) > math.Abs(result.Significant[b].Coefficient)
	})

	result.Heatmap = Heatmap{Columns: names, Matrix: matrix}
	return result
}

// Pearson computes the product-moment correlation coefficient with a
// zero-denominator guard: constant inputs yield 0, never NaN.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}
	meanX, _ := stats.Mean(x)
	meanY, _ := stats.Mean(y)

	var sumXY, sumXX, sumYY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sumXY += dx * dy
		sumXX += dx * dx
		sumYY += dy * dy
	}

	denom := math.Sqrt(sumXX * sumYY)
	if denom == 0 {
		return 0
	}
	return clampCoefficient(sumXY / denom)
}

// Spearman computes rank correlation as Pearson over rank-transformed
// values, averaging ranks across ties.
func Spearman(x, y []float64) float64 {
	return Pearson(ranks(x), ranks(y))
}

// ranks converts values to 1-based ranks, handling ties by averaging
func ranks(data []float64) []float64 {
	n := len(data)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return data[idx[a]] < data[idx[b]] })

	out := make([]float64, n)
	i := 0
	for i < n {
		j := i + 1
		for j < n && data[idx[j]] == data[idx[i]] {
			j++
		}
		avgRank := float64(i+1) + float64(j-i-1)/2.0
		for k := i; k < j; k++ {
			out[idx[k]] = avgRank
		}
		i = j
	}
	return out
}

// approximatePValue buckets the t-statistic against fixed critical values.
// This is a deliberate heuristic, not a real hypothesis test; downstream
// consumers rely on these exact buckets.
func approximatePValue(r float64, n int) float64 {
	if n <= 2 {
		return 1.0
	}
	denom := 1 - r*r
	if denom <= 0 {
		return 0.01
	}
	t := math.Abs(r * math.Sqrt(float64(n-2)) / math.Sqrt(denom))
	switch {
	case t >= 2.576:
		return 0.01
	case t >= 1.96:
		return 0.05
	case t >= 1.645:
		return 0.1
	default:
		return 0.2
	}
}

func strengthLabel(r float64) string {
	abs := math.Abs(r)
	switch {
	case abs >= 0.9:
		return "Muito Forte"
	case abs >= 0.7:
		return "Forte"
	case abs >= 0.5:
		return "Moderada"
	case abs >= 0.3:
		return "Fraca"
	default:
		return "Muito Fraca"
	}
}

func directionLabel(r float64) string {
	switch {
	case r > 0:
		return "positiva"
	case r < 0:
		return "negativa"
	default:
		return "neutra"
	}
}

func clampCoefficient(r float64) float64 {
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}

func identityMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	return m
}

// alignedValues extracts the rows where both columns hold parseable numbers
func alignedValues(ds *dataset.Dataset, colA, colB string) ([]float64, []float64) {
	var x, y []float64
	for _, row := range ds.Rows() {
		a, okA := dataset.ParseNumber(row[colA])
		b, okB := dataset.ParseNumber(row[colB])
		if okA && okB {
			x = append(x, a)
			y = append(y, b)
		}
	}
	return x, y
}
