// Package app wires the independent analyzers into one dashboard run.
package app

import (
	"context"
	"time"

	"vendalytics/domain/analysis"
	"vendalytics/domain/core"
	"vendalytics/domain/dataset"
	"vendalytics/internal"
	"vendalytics/internal/analysis/basket"
	"vendalytics/internal/analysis/churn"
	"vendalytics/internal/analysis/cohort"
	"vendalytics/internal/analysis/correlation"
	"vendalytics/internal/analysis/ml"
	"vendalytics/internal/analysis/rfm"
	"vendalytics/internal/analysis/timeseries"
	"vendalytics/ports"

	"golang.org/x/sync/errgroup"
)

// DashboardResult joins every analyzer's output for one run
type DashboardResult struct {
	RunID       core.RunID         `json:"run_id"`
	StartedAt   core.Timestamp     `json:"started_at"`
	DurationMS  int64              `json:"duration_ms"`
	RowCount    int                `json:"row_count"`
	RFM         rfm.Result         `json:"rfm"`
	Cohort      cohort.Result      `json:"cohort"`
	Churn       churn.Result       `json:"churn"`
	Basket      basket.Result      `json:"basket"`
	Correlation correlation.Result `json:"correlation"`
	TimeSeries  timeseries.Result  `json:"time_series"`
	ML          ml.Result          `json:"ml"`
}

// Orchestrator runs the seven analyzers over one immutable dataset. The
// analyzers are pure and mutually independent, so they execute as parallel
// goroutines with no shared state beyond the read-only inputs.
type Orchestrator struct {
	rfm         *rfm.Engine
	cohort      *cohort.Engine
	churn       *churn.Engine
	basket      *basket.Engine
	correlation *correlation.Engine
	timeseries  *timeseries.Engine
	ml          *ml.Engine
	log         *internal.Logger
}

// Options carries the analyzer tunables
type Options struct {
	Basket basket.Config
	Churn  churn.Thresholds
	Seed   int64
}

// DefaultOptions returns the standard tunables
func DefaultOptions() Options {
	return Options{
		Basket: basket.DefaultConfig(),
		Churn:  churn.DefaultThresholds(),
		Seed:   42,
	}
}

// NewOrchestrator builds an orchestrator from the given tunables
func NewOrchestrator(opts Options, rng ports.RNG, log *internal.Logger) *Orchestrator {
	return &Orchestrator{
		rfm:         rfm.NewEngine(),
		cohort:      cohort.NewEngine(),
		churn:       churn.NewEngineAt(time.Now, opts.Churn),
		basket:      basket.NewEngineWithConfig(opts.Basket),
		correlation: correlation.NewEngine(),
		timeseries:  timeseries.NewEngine(),
		ml:          ml.NewEngine(rng, opts.Seed, log),
		log:         log,
	}
}

// RunAll executes every analyzer and joins the results. A panicking
// analyzer is recovered into an unavailable result; it never takes the
// other analyzers down with it.
func (o *Orchestrator) RunAll(ctx context.Context, ds *dataset.Dataset, cols []dataset.ColumnMetadata) DashboardResult {
	started := time.Now()
	result := DashboardResult{
		RunID:     core.RunID(core.NewID()),
		StartedAt: core.NewTimestamp(started),
		RowCount:  ds.Len(),
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(o.guarded("rfm", &result.RFM.Availability, func() { result.RFM = o.rfm.Analyze(ds, cols) }))
	g.Go(o.guarded("cohort", &result.Cohort.Availability, func() { result.Cohort = o.cohort.Analyze(ds, cols) }))
	g.Go(o.guarded("churn", &result.Churn.Availability, func() { result.Churn = o.churn.Analyze(ds, cols) }))
	g.Go(o.guarded("basket", &result.Basket.Availability, func() { result.Basket = o.basket.Analyze(ds, cols) }))
	g.Go(o.guarded("correlation", &result.Correlation.Availability, func() { result.Correlation = o.correlation.Analyze(ds, cols) }))
	g.Go(o.guarded("timeseries", &result.TimeSeries.Availability, func() { result.TimeSeries = o.timeseries.AnalyzeDataset(ds, cols) }))
	g.Go(o.guarded("ml", &result.ML.Availability, func() { result.ML = o.ml.AnalyzeAll(ds, cols, nil) }))
	_ = g.Wait()

	result.DurationMS = time.Since(started).Milliseconds()
	o.log.Info("análise %s concluída em %dms (%d linhas)", result.RunID, result.DurationMS, result.RowCount)
	return result
}

// guarded wraps one analyzer call with panic recovery. Each closure writes
// to its own result field, so the goroutines share nothing mutable.
func (o *Orchestrator) guarded(name string, avail *analysis.Availability, fn func()) func() error {
	return func() error {
		defer func() {
			if r := recover(); r != nil {
				o.log.Error("analisador %s em pânico: %v", name, r)
				*avail = analysis.Unavailable("falha interna no analisador %s", name)
			}
		}()
		fn()
		return nil
	}
}
