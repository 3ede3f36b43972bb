package timeseries

import (
	"fmt"
	"math"
	"testing"

	"vendalytics/domain/dataset"
)

func monthlySeries(n int, value func(i int) float64) []Point {
	series := make([]Point, 0, n)
	year, month := 2023, 1
	for i := 0; i < n; i++ {
		series = append(series, Point{
			Period: fmt.Sprintf("%04d-%02d", year, month),
			Value:  value(i),
		})
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return series
}

func TestAnalyze_RequiresTwelvePeriods(t *testing.T) {
	short := monthlySeries(11, func(i int) float64 { return float64(i) })
	result := NewEngine().Analyze(short)
	if result.Available {
		t.Fatal("expected unavailable under 12 periods")
	}
	if result.Reason == "" {
		t.Error("unavailable result must carry a reason")
	}
}

func TestAnalyze_DecompositionIdentity(t *testing.T) {
	series := monthlySeries(24, func(i int) float64 {
		return 1000 + 50*float64(i) + 200*math.Sin(2*math.Pi*float64(i)/12)
	})
	result := NewEngine().Analyze(series)
	if !result.Available {
		t.Fatalf("unavailable: %s", result.Reason)
	}

	d := result.Decomposition
	if len(d.Trend) != 24 || len(d.Seasonal) != 24 || len(d.Residual) != 24 {
		t.Fatal("components must be parallel to the series")
	}
	for i, p := range series {
		sum := d.Trend[i] + d.Seasonal[i] + d.Residual[i]
		if math.Abs(sum-p.Value) > 1e-9 {
			t.Fatalf("identity broken at %d: %v != %v", i, sum, p.Value)
		}
	}
}

func TestAnalyze_GrowingTrend(t *testing.T) {
	series := monthlySeries(24, func(i int) float64 { return 100 + 20*float64(i) })
	result := NewEngine().Analyze(series)

	if result.Trend.Direction != "crescimento" {
		t.Errorf("direction = %q, want crescimento", result.Trend.Direction)
	}
	if result.Trend.ChangePct <= 10 {
		t.Errorf("change = %v, want above the 10%% reporting threshold", result.Trend.ChangePct)
	}
}

func TestAnalyze_FlatSeries(t *testing.T) {
	series := monthlySeries(24, func(i int) float64 { return 500 })
	result := NewEngine().Analyze(series)

	if result.Trend.Direction != "estável" {
		t.Errorf("direction = %q, want estável", result.Trend.Direction)
	}
	if result.Volatility.Level != "baixa" || result.Volatility.CoefficientPct != 0 {
		t.Errorf("volatility = %+v, want baixa at 0", result.Volatility)
	}
}

func TestVolatility_Levels(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   string
	}{
		{"flat", []float64{100, 100, 100, 100}, "baixa"},
		{"wild", []float64{100, 300, 50, 400, 80, 350}, "alta"},
	}
	for _, tc := range cases {
		if got := volatility(tc.values).Level; got != tc.want {
			t.Errorf("%s: level = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestAnalyze_SeasonalPeakMonth(t *testing.T) {
	// December spikes, February dips, over two full years starting January
	series := monthlySeries(24, func(i int) float64 {
		switch i % 12 {
		case 11:
			return 2000
		case 1:
			return 100
		default:
			return 1000
		}
	})
	result := NewEngine().Analyze(series)

	if result.Seasonality.PeakMonth != "dezembro" {
		t.Errorf("peak = %q, want dezembro", result.Seasonality.PeakMonth)
	}
	if result.Seasonality.ValleyMonth != "fevereiro" {
		t.Errorf("valley = %q, want fevereiro", result.Seasonality.ValleyMonth)
	}
	if result.Seasonality.Strength <= 0 {
		t.Errorf("strength = %v, want positive", result.Seasonality.Strength)
	}
}

func TestAutocorrelation_LagTwoCycle(t *testing.T) {
	// Strict 2-period alternation correlates negatively at lag 1,
	// positively at lag 2
	values := make([]float64, 24)
	for i := range values {
		if i%2 == 0 {
			values[i] = 100
		} else {
			values[i] = 500
		}
	}
	lags := autocorrelation(values)
	if len(lags) == 0 {
		t.Fatal("no lags computed")
	}
	if lags[0].R >= 0 {
		t.Errorf("lag-1 r = %v, want negative", lags[0].R)
	}
	if lags[1].R <= 0.3 || !lags[1].Significant {
		t.Errorf("lag-2 r = %v significant=%v, want strong positive", lags[1].R, lags[1].Significant)
	}
}

func TestAnalyzeDataset_AggregatesByMonth(t *testing.T) {
	cols := []dataset.ColumnMetadata{
		{Name: "Data", Type: dataset.TypeDate},
		{Name: "Valor", Type: dataset.TypeCurrency},
	}
	var rows []dataset.Row
	for m := 1; m <= 12; m++ {
		// Two purchases per month that must be summed into one period
		rows = append(rows,
			dataset.Row{"Data": fmt.Sprintf("2024-%02d-05", m), "Valor": "100"},
			dataset.Row{"Data": fmt.Sprintf("2024-%02d-20", m), "Valor": "150"},
		)
	}
	result := NewEngine().AnalyzeDataset(dataset.New(rows), cols)
	if !result.Available {
		t.Fatalf("unavailable: %s", result.Reason)
	}
	if len(result.Series) != 12 {
		t.Fatalf("got %d periods, want 12", len(result.Series))
	}
	for _, p := range result.Series {
		if p.Value != 250 {
			t.Errorf("period %s total = %v, want 250", p.Period, p.Value)
		}
	}
	if result.Series[0].Period != "2024-01" {
		t.Errorf("first period = %q, want 2024-01", result.Series[0].Period)
	}
}

func TestAnalyzeDataset_MissingValueColumn(t *testing.T) {
	cols := []dataset.ColumnMetadata{{Name: "Data", Type: dataset.TypeDate}}
	result := NewEngine().AnalyzeDataset(dataset.New(nil), cols)
	if result.Available {
		t.Fatal("expected unavailable without a currency column")
	}
}
