package ml

import (
	"fmt"
	"math"
	"testing"

	"vendalytics/adapters/rng"
	"vendalytics/domain/dataset"
	"vendalytics/internal"
)

func testEngine(seed int64) *Engine {
	return NewEngine(rng.New(), seed, internal.NewDefaultLogger())
}

func linearMonths(n int) []MonthlyPoint {
	points := make([]MonthlyPoint, 0, n)
	year, month := 2024, 1
	for i := 0; i < n; i++ {
		points = append(points, MonthlyPoint{
			Period: fmt.Sprintf("%04d-%02d", year, month),
			Value:  1000 + 100*float64(i),
		})
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return points
}

func TestForecast_LinearSeriesPicksLinearModel(t *testing.T) {
	forecast, err := testEngine(42).forecast(linearMonths(12))
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if forecast.Model != "linear" {
		t.Errorf("model = %q, want linear", forecast.Model)
	}
	if math.Abs(forecast.R2-1) > 1e-9 {
		t.Errorf("R² = %v, want 1", forecast.R2)
	}
	if forecast.Confidence != 100 {
		t.Errorf("confidence = %v, want 100", forecast.Confidence)
	}
	if len(forecast.Points) != 3 {
		t.Fatalf("got %d forecast points, want 3", len(forecast.Points))
	}
	// Extrapolation continues the fitted line
	if math.Abs(forecast.Points[0].Value-2200) > 1e-6 {
		t.Errorf("first projection = %v, want 2200", forecast.Points[0].Value)
	}
	if forecast.Points[0].Period != "2025-01" {
		t.Errorf("first period = %q, want 2025-01", forecast.Points[0].Period)
	}
}

func TestForecast_ExponentialSeries(t *testing.T) {
	points := make([]MonthlyPoint, 12)
	for i := range points {
		points[i] = MonthlyPoint{
			Period: fmt.Sprintf("2024-%02d", i+1),
			Value:  100 * math.Exp(0.3*float64(i)),
		}
	}
	forecast, err := testEngine(42).forecast(points)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if forecast.Model != "exponencial" {
		t.Errorf("model = %q, want exponencial", forecast.Model)
	}
}

func TestForecast_TooFewPeriods(t *testing.T) {
	if _, err := testEngine(42).forecast(linearMonths(2)); err == nil {
		t.Fatal("expected an error under 3 periods")
	}
}

func TestNextPeriods_YearRollover(t *testing.T) {
	got := nextPeriods("2024-11", 3)
	want := []string{"2024-12", "2025-01", "2025-02"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("nextPeriods = %v, want %v", got, want)
		}
	}
}

func numericColumns() []dataset.ColumnMetadata {
	return []dataset.ColumnMetadata{
		{Name: "valor", Type: dataset.TypeCurrency},
		{Name: "qtd", Type: dataset.TypeNumber},
	}
}

// twoBlobDataset builds two well-separated groups of 10 rows each
func twoBlobDataset() *dataset.Dataset {
	var rows []dataset.Row
	for i := 0; i < 10; i++ {
		rows = append(rows, dataset.Row{"valor": 10.0 + float64(i), "qtd": 1.0 + float64(i%3)})
	}
	for i := 0; i < 10; i++ {
		rows = append(rows, dataset.Row{"valor": 1000.0 + float64(i), "qtd": 90.0 + float64(i%3)})
	}
	return dataset.New(rows)
}

func TestCluster_SeparatesBlobsDeterministically(t *testing.T) {
	first, err := testEngine(42).cluster(twoBlobDataset(), numericColumns())
	if err != nil {
		t.Fatalf("cluster: %v", err)
	}
	if first.K != 2 {
		t.Fatalf("k = %d, want 2", first.K)
	}
	if !first.Converged {
		t.Error("two clean blobs should converge")
	}

	// Every low row lands in one cluster, every high row in the other
	low := first.Assignments[0]
	high := first.Assignments[10]
	if low == high {
		t.Fatal("blobs not separated")
	}
	for i := 0; i < 10; i++ {
		if first.Assignments[i] != low {
			t.Errorf("row %d assigned %d, want %d", i, first.Assignments[i], low)
		}
		if first.Assignments[10+i] != high {
			t.Errorf("row %d assigned %d, want %d", 10+i, first.Assignments[10+i], high)
		}
	}

	// Same seed reproduces the exact assignment
	second, err := testEngine(42).cluster(twoBlobDataset(), numericColumns())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	for row, cluster := range first.Assignments {
		if second.Assignments[row] != cluster {
			t.Fatalf("row %d differs across runs with the same seed", row)
		}
	}
}

func TestCluster_LabelsReflectMagnitude(t *testing.T) {
	result, err := testEngine(42).cluster(twoBlobDataset(), numericColumns())
	if err != nil {
		t.Fatalf("cluster: %v", err)
	}
	labels := make(map[string]bool)
	for _, c := range result.Clusters {
		labels[c.Label] = true
		if c.Size > 0 && len(c.TopFeatures) == 0 {
			t.Errorf("cluster %d has no top features", c.ID)
		}
	}
	if !labels["Alto Valor"] || !labels["Baixo Valor"] {
		t.Errorf("labels = %v, want both Alto Valor and Baixo Valor", labels)
	}
}

func TestCluster_TooFewRows(t *testing.T) {
	ds := dataset.New([]dataset.Row{
		{"valor": 1.0, "qtd": 1.0},
		{"valor": 2.0, "qtd": 2.0},
	})
	if _, err := testEngine(42).cluster(ds, numericColumns()); err == nil {
		t.Fatal("expected an error under 10 complete rows")
	}
}

func concentrationColumns() []dataset.ColumnMetadata {
	return []dataset.ColumnMetadata{
		{Name: "Cliente", Type: dataset.TypeClient},
		{Name: "Valor", Type: dataset.TypeCurrency},
	}
}

func TestConcentration_RiskLevels(t *testing.T) {
	dominant := dataset.New([]dataset.Row{
		{"Cliente": "grande", "Valor": "700"},
		{"Cliente": "a", "Valor": "150"},
		{"Cliente": "b", "Valor": "150"},
	})
	result, err := testEngine(42).concentration(dominant, concentrationColumns())
	if err != nil {
		t.Fatalf("concentration: %v", err)
	}
	if result.TopClient != "grande" || result.RiskLevel != "ALTO" {
		t.Errorf("got %s/%s, want grande/ALTO", result.TopClient, result.RiskLevel)
	}
	if math.Abs(result.TopClientShare-70) > 1e-9 {
		t.Errorf("share = %v, want 70", result.TopClientShare)
	}

	balanced := dataset.New([]dataset.Row{
		{"Cliente": "a", "Valor": "100"},
		{"Cliente": "b", "Valor": "100"},
		{"Cliente": "c", "Valor": "100"},
		{"Cliente": "d", "Valor": "100"},
		{"Cliente": "e", "Valor": "100"},
		{"Cliente": "f", "Valor": "100"},
		{"Cliente": "g", "Valor": "100"},
	})
	result, err = testEngine(42).concentration(balanced, concentrationColumns())
	if err != nil {
		t.Fatalf("concentration: %v", err)
	}
	if result.RiskLevel != "BAIXO" {
		t.Errorf("balanced base risk = %s, want BAIXO", result.RiskLevel)
	}
}

func TestConcentration_ZeroRevenue(t *testing.T) {
	ds := dataset.New([]dataset.Row{{"Cliente": "a", "Valor": "0"}})
	if _, err := testEngine(42).concentration(ds, concentrationColumns()); err == nil {
		t.Fatal("expected an error for zero total revenue")
	}
}

func TestAnalyzeAll_PartialResults(t *testing.T) {
	// Concentration works; forecasting and clustering lack data
	ds := dataset.New([]dataset.Row{
		{"Cliente": "a", "Valor": "700"},
		{"Cliente": "b", "Valor": "300"},
	})
	result := testEngine(42).AnalyzeAll(ds, concentrationColumns(), nil)
	if !result.Available {
		t.Fatalf("one working step should keep ML available: %s", result.Reason)
	}
	if result.Concentration == nil {
		t.Error("concentration should be present")
	}
	if result.Clustering != nil {
		t.Error("clustering should be nil with a single numeric column")
	}
}

func TestAnalyzeAll_NothingWorks(t *testing.T) {
	result := testEngine(42).AnalyzeAll(dataset.New(nil), nil, nil)
	if result.Available {
		t.Fatal("expected unavailable when every step fails")
	}
}
