// Package timeseries performs classical additive decomposition and pattern
// detection over a monthly series.
package timeseries

import (
	"fmt"
	"sort"

	"vendalytics/domain/analysis"
	"vendalytics/domain/dataset"

	"github.com/montanaflynn/stats"
)

// Point is one period of the series
type Point struct {
	Period string  `json:"period"` // year-month, e.g. "2024-03"
	Value  float64 `json:"value"`
	Label  string  `json:"label,omitempty"`
}

// Decomposition holds the additive components, each parallel to the input
// series. value = trend + seasonal + residual holds for every index.
type Decomposition struct {
	Trend    []float64 `json:"trend"`
	Seasonal []float64 `json:"seasonal"`
	Residual []float64 `json:"residual"`
}

// Seasonality reports the repeating monthly pattern
type Seasonality struct {
	Strength    float64 `json:"strength_pct"`
	PeakMonth   string  `json:"peak_month"`
	ValleyMonth string  `json:"valley_month"`
}

// TrendPattern reports long-run direction
type TrendPattern struct {
	Direction string  `json:"direction"` // "crescimento", "queda", "estável"
	ChangePct float64 `json:"change_pct"`
}

// Volatility reports the coefficient of variation
type Volatility struct {
	CoefficientPct float64 `json:"coefficient_pct"`
	Level          string  `json:"level"` // "alta", "moderada", "baixa"
}

// Cycle reports a detected repeating period
type Cycle struct {
	Detected bool `json:"detected"`
	Period   int  `json:"period,omitempty"`
}

// AutocorrelationLag is the correlation of the series with itself at a lag
type AutocorrelationLag struct {
	Lag         int     `json:"lag"`
	R           float64 `json:"r"`
	Significant bool    `json:"significant"`
}

// Result is the full time series analysis output
type Result struct {
	analysis.Availability
	Series          []Point              `json:"series,omitempty"`
	Decomposition   Decomposition        `json:"decomposition,omitempty"`
	Seasonality     Seasonality          `json:"seasonality,omitempty"`
	Trend           TrendPattern         `json:"trend,omitempty"`
	Volatility      Volatility           `json:"volatility,omitempty"`
	Cycle           Cycle                `json:"cycle,omitempty"`
	Autocorrelation []AutocorrelationLag `json:"autocorrelation,omitempty"`
}

// Engine analyzes monthly series
type Engine struct{}

// NewEngine creates a time series engine
func NewEngine() *Engine {
	return &Engine{}
}

const minPeriods = 12

var monthNames = []string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// AnalyzeDataset aggregates the dataset's value column by month and
// analyzes the resulting series. Requires DATE and CURRENCY columns.
func (e *Engine) AnalyzeDataset(ds *dataset.Dataset, cols []dataset.ColumnMetadata) Result {
	dateCol, ok := dataset.DateColumn(cols)
	if !ok {
		return Result{Availability: analysis.Unavailable("coluna de data não encontrada")}
	}
	valueCol, ok := dataset.CurrencyColumn(cols)
	if !ok {
		return Result{Availability: analysis.Unavailable("coluna de valor não encontrada")}
	}

	totals := make(map[string]float64)
	for _, row := range ds.Rows() {
		date, ok := dataset.ParseDate(row[dateCol.Name])
		if !ok {
			continue
		}
		value, ok := dataset.ParseNumber(row[valueCol.Name])
		if !ok {
			continue
		}
		totals[dataset.MonthKey(date)] += value
	}

	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	series := make([]Point, 0, len(keys))
	for _, k := range keys {
		series = append(series, Point{Period: k, Value: totals[k]})
	}
	return e.Analyze(series)
}

// Analyze decomposes the monthly series and detects patterns. Requires at
// least 12 periods.
func (e *Engine) Analyze(series []Point) Result {
	n := len(series)
	if n < minPeriods {
		return Result{Availability: analysis.Unavailable(
			"série temporal requer pelo menos %d períodos, encontrados %d", minPeriods, n)}
	}

	values := make([]float64, n)
	for i, p := range series {
		values[i] = p.Value
	}

	decomp := decompose(values)

	return Result{
		Availability:    analysis.Ok(),
		Series:          series,
		Decomposition:   decomp,
		Seasonality:     seasonality(series, values),
		Trend:           trendPattern(decomp.Trend),
		Volatility:      volatility(values),
		Cycle:           detectCycle(values),
		Autocorrelation: autocorrelation(values),
	}
}

// decompose performs classical additive decomposition: centered moving
// average trend, per-phase seasonal means, residual as the remainder.
func decompose(values []float64) Decomposition {
	n := len(values)
	window := minInt(12, n/2)

	trend := movingAverage(values, window)

	detrended := make([]float64, n)
	for i := range values {
		detrended[i] = values[i] - trend[i]
	}

	period := minInt(12, n)
	phaseSum := make([]float64, period)
	phaseCount := make([]int, period)
	for i, d := range detrended {
		phase := i % period
		phaseSum[phase] += d
		phaseCount[phase]++
	}

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := range values {
		phase := i % period
		if phaseCount[phase] > 0 {
			seasonal[i] = phaseSum[phase] / float64(phaseCount[phase])
		}
		residual[i] = values[i] - trend[i] - seasonal[i]
	}

	return Decomposition{Trend: trend, Seasonal: seasonal, Residual: residual}
}

// movingAverage computes a centered moving average, clipping the window at
// the series edges so every index has a defined trend value
func movingAverage(values []float64, window int) []float64 {
	n := len(values)
	half := window / 2
	out := make([]float64, n)
	for i := range values {
		lo := maxInt(0, i-half)
		hi := minInt(n-1, i+half)
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// seasonality measures the spread between the strongest and weakest month
// using 12-phase averages of the raw values, independent of the
// decomposition period
func seasonality(series []Point, values []float64) Seasonality {
	phaseSum := make([]float64, 12)
	phaseCount := make([]int, 12)
	for i, v := range values {
		phase := i % 12
		phaseSum[phase] += v
		phaseCount[phase]++
	}

	peak, valley := -1, -1
	var peakAvg, valleyAvg float64
	for phase := 0; phase < 12; phase++ {
		if phaseCount[phase] == 0 {
			continue
		}
		avg := phaseSum[phase] / float64(phaseCount[phase])
		if peak == -1 || avg > peakAvg {
			peak, peakAvg = phase, avg
		}
		if valley == -1 || avg < valleyAvg {
			valley, valleyAvg = phase, avg
		}
	}

	overall, _ := stats.Mean(values)
	s := Seasonality{}
	if overall != 0 && peak >= 0 {
		s.Strength = (peakAvg - valleyAvg) / overall * 100
	}
	if peak >= 0 {
		s.PeakMonth = phaseMonthName(series, peak)
		s.ValleyMonth = phaseMonthName(series, valley)
	}
	return s
}

// phaseMonthName maps a 12-cycle phase back to the calendar month of the
// series start
func phaseMonthName(series []Point, phase int) string {
	if len(series) == 0 {
		return ""
	}
	var year, month int
	if _, err := fmt.Sscanf(series[0].Period, "%d-%d", &year, &month); err != nil || month < 1 {
		return fmt.Sprintf("fase %d", phase+1)
	}
	return monthNames[(month-1+phase)%12]
}

// trendPattern compares the first and second halves of the trend component
// with a 10% reporting threshold
func trendPattern(trend []float64) TrendPattern {
	half := len(trend) / 2
	firstHalf, _ := stats.Mean(trend[:half])
	secondHalf, _ := stats.Mean(trend[half:])
	if firstHalf == 0 {
		return TrendPattern{Direction: "estável"}
	}
	change := (secondHalf - firstHalf) / firstHalf * 100
	p := TrendPattern{ChangePct: change, Direction: "estável"}
	switch {
	case change > 10:
		p.Direction = "crescimento"
	case change < -10:
		p.Direction = "queda"
	}
	return p
}

func volatility(values []float64) Volatility {
	mean, _ := stats.Mean(values)
	if mean == 0 {
		return Volatility{Level: "baixa"}
	}
	stdDev, _ := stats.StandardDeviation(values)
	cv := stdDev / mean * 100
	v := Volatility{CoefficientPct: cv, Level: "baixa"}
	switch {
	case cv > 30:
		v.Level = "alta"
	case cv > 15:
		v.Level = "moderada"
	}
	return v
}

// detectCycle tests candidate periods 3..n/3 and reports the first whose
// autocovariance exceeds 70% of the series variance
func detectCycle(values []float64) Cycle {
	n := len(values)
	mean, _ := stats.Mean(values)

	variance := autocovariance(values, mean, 0)
	if variance == 0 {
		return Cycle{}
	}
	for period := 3; period <= n/3; period++ {
		if autocovariance(values, mean, period) > 0.7*variance {
			return Cycle{Detected: true, Period: period}
		}
	}
	return Cycle{}
}

// autocorrelation reports lags 1..min(12, n/3), flagged significant at
// |r| > 0.3
func autocorrelation(values []float64) []AutocorrelationLag {
	n := len(values)
	mean, _ := stats.Mean(values)
	variance := autocovariance(values, mean, 0)

	maxLag := minInt(12, n/3)
	out := make([]AutocorrelationLag, 0, maxLag)
	for lag := 1; lag <= maxLag; lag++ {
		var r float64
		if variance != 0 {
			r = autocovariance(values, mean, lag) / variance
		}
		out = append(out, AutocorrelationLag{Lag: lag, R: r, Significant: r > 0.3 || r < -0.3})
	}
	return out
}

func autocovariance(values []float64, mean float64, lag int) float64 {
	n := len(values)
	if lag >= n {
		return 0
	}
	var sum float64
	for i := 0; i < n-lag; i++ {
		sum += (values[i] - mean) * (values[i+lag] - mean)
	}
	return sum / float64(n)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
