package app

import (
	"context"
	"testing"

	"vendalytics/adapters/rng"
	"vendalytics/domain/analysis"
	"vendalytics/internal"
	"vendalytics/internal/testkit"
)

func testOrchestrator() *Orchestrator {
	return NewOrchestrator(DefaultOptions(), rng.New(), internal.NewDefaultLogger())
}

func TestRunAll_EveryAnalyzerProducesAResult(t *testing.T) {
	ds, cols := testkit.NewSalesGenerator(testkit.DefaultSalesConfig()).Generate()

	result := testOrchestrator().RunAll(context.Background(), ds, cols)

	if result.RunID == "" {
		t.Error("run must carry an ID")
	}
	if result.RowCount != ds.Len() {
		t.Errorf("row count = %d, want %d", result.RowCount, ds.Len())
	}

	checks := []struct {
		name  string
		avail analysis.Availability
	}{
		{"rfm", result.RFM.Availability},
		{"cohort", result.Cohort.Availability},
		{"churn", result.Churn.Availability},
		{"basket", result.Basket.Availability},
		{"correlation", result.Correlation.Availability},
		{"timeseries", result.TimeSeries.Availability},
		{"ml", result.ML.Availability},
	}
	for _, c := range checks {
		if !c.avail.Available {
			t.Errorf("%s unavailable on a full synthetic base: %s", c.name, c.avail.Reason)
		}
	}
}

func TestRunAll_EmptyDatasetDegradesGracefully(t *testing.T) {
	ds, cols := testkit.NewSalesGenerator(testkit.SalesConfig{
		ClientCount:        0,
		AvgOrdersPerClient: 0,
		Seed:               1,
	}).Generate()

	result := testOrchestrator().RunAll(context.Background(), ds, cols)

	if result.RowCount != 0 {
		t.Fatalf("row count = %d, want 0", result.RowCount)
	}
	// Every analyzer must refuse with a reason instead of failing
	for name, avail := range map[string]analysis.Availability{
		"rfm":    result.RFM.Availability,
		"cohort": result.Cohort.Availability,
		"churn":  result.Churn.Availability,
		"basket": result.Basket.Availability,
	} {
		if avail.Available {
			t.Errorf("%s reported available on an empty dataset", name)
		}
		if avail.Reason == "" {
			t.Errorf("%s has no unavailability reason", name)
		}
	}
}

func TestGuarded_RecoversPanics(t *testing.T) {
	o := testOrchestrator()

	var avail analysis.Availability
	fn := o.guarded("teste", &avail, func() { panic("boom") })
	if err := fn(); err != nil {
		t.Fatalf("guarded returned error: %v", err)
	}
	if avail.Available {
		t.Fatal("panicking analyzer must be marked unavailable")
	}
	if avail.Reason == "" {
		t.Error("recovered panic must leave a reason")
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Seed != 42 {
		t.Errorf("seed = %d, want 42", opts.Seed)
	}
	if opts.Basket.MinSupport != 0.02 || opts.Basket.MinConfidence != 0.30 {
		t.Errorf("basket defaults = %+v", opts.Basket)
	}
	if opts.Churn.High != 70 || opts.Churn.Medium != 40 || opts.Churn.Low != 20 {
		t.Errorf("churn defaults = %+v", opts.Churn)
	}
}
