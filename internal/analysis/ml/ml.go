// Package ml bundles the lightweight machine-learning analyses: regression
// forecasting, k-means clustering and revenue concentration risk.
package ml

import (
	"fmt"
	"sort"

	"vendalytics/domain/analysis"
	"vendalytics/domain/dataset"
	"vendalytics/internal"
	"vendalytics/ports"
)

// MonthlyPoint is one pre-aggregated monthly total
type MonthlyPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// Result is the combined ML output. Individual analyses that fail are nil;
// a failing step never aborts the others.
type Result struct {
	analysis.Availability
	Forecast      *ForecastResult      `json:"forecast,omitempty"`
	Clustering    *ClusteringResult    `json:"clustering,omitempty"`
	Concentration *ConcentrationResult `json:"concentration,omitempty"`
}

// Engine runs the ML analyses with an injected random source so clustering
// is reproducible for a given seed
type Engine struct {
	rng  ports.RNG
	seed int64
	log  *internal.Logger
}

// NewEngine creates an ML engine
func NewEngine(rng ports.RNG, seed int64, log *internal.Logger) *Engine {
	return &Engine{rng: rng, seed: seed, log: log}
}

// AnalyzeAll runs forecasting, clustering and concentration risk over the
// same inputs. series may carry pre-aggregated monthly totals from an
// earlier analysis; when nil it is computed here. Each step recovers its
// own failures: the error is logged and the step excluded from the result.
func (e *Engine) AnalyzeAll(ds *dataset.Dataset, cols []dataset.ColumnMetadata, series []MonthlyPoint) Result {
	result := Result{}

	e.step("previsão", func() error {
		points := series
		if points == nil {
			points = monthlyTotals(ds, cols)
		}
		forecast, err := e.forecast(points)
		if err != nil {
			return err
		}
		result.Forecast = forecast
		return nil
	})

	e.step("clusterização", func() error {
		clustering, err := e.cluster(ds, cols)
		if err != nil {
			return err
		}
		result.Clustering = clustering
		return nil
	})

	e.step("concentração", func() error {
		concentration, err := e.concentration(ds, cols)
		if err != nil {
			return err
		}
		result.Concentration = concentration
		return nil
	})

	if result.Forecast == nil && result.Clustering == nil && result.Concentration == nil {
		result.Availability = analysis.Unavailable("dados insuficientes para as análises de machine learning")
		return result
	}
	result.Availability = analysis.Ok()
	return result
}

// step runs one analysis, converting panics into logged errors
func (e *Engine) step(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("análise de %s abortada: %v", name, r)
		}
	}()
	if err := fn(); err != nil {
		e.log.Info("análise de %s não disponível: %v", name, err)
	}
}

// monthlyTotals aggregates the value column by month
func monthlyTotals(ds *dataset.Dataset, cols []dataset.ColumnMetadata) []MonthlyPoint {
	dateCol, ok := dataset.DateColumn(cols)
	if !ok {
		return nil
	}
	valueCol, ok := dataset.CurrencyColumn(cols)
	if !ok {
		return nil
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

	points := make([]MonthlyPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, MonthlyPoint{Period: k, Value: totals[k]})
	}
	return points
}

// nextPeriods produces count month keys following the last series period
func nextPeriods(last string, count int) []string {
	var year, month int
	if _, err := fmt.Sscanf(last, "%d-%d", &year, &month); err != nil {
		out := make([]string, count)
		for i := range out {
			out[i] = fmt.Sprintf("t+%d", i+1)
		}
		return out
	}
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		month++
		if month > 12 {
			month = 1
			year++
		}
		out = append(out, fmt.Sprintf("%04d-%02d", year, month))
	}
	return out
}
