package churn

import (
	"strings"
	"testing"
	"time"

	"vendalytics/domain/dataset"
)

func salesColumns() []dataset.ColumnMetadata {
	return []dataset.ColumnMetadata{
		{Name: "Cliente", Type: dataset.TypeClient},
		{Name: "Data", Type: dataset.TypeDate},
		{Name: "Valor", Type: dataset.TypeCurrency},
	}
}

func fixedNow() time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
}

func testEngine() *Engine {
	return NewEngineAt(fixedNow, DefaultThresholds())
}

// mixedBase: an engaged client, a cold one and a new client that stopped
// buying right after the first purchases.
func mixedBase() *dataset.Dataset {
	return dataset.New([]dataset.Row{
		// Engaged: monthly purchases, growing ticket, bought last week
		{"Cliente": "ativo", "Data": "2024-09-10", "Valor": "100"},
		{"Cliente": "ativo", "Data": "2024-10-10", "Valor": "120"},
		{"Cliente": "ativo", "Data": "2024-11-10", "Valor": "140"},
		{"Cliente": "ativo", "Data": "2024-12-24", "Valor": "160"},
		// Cold: two old purchases, shrinking ticket
		{"Cliente": "frio", "Data": "2024-01-15", "Valor": "200"},
		{"Cliente": "frio", "Data": "2024-03-01", "Valor": "50"},
		// New but already inactive: lifetime under 90 days, quiet for 45
		{"Cliente": "novo", "Data": "2024-11-05", "Valor": "80"},
		{"Cliente": "novo", "Data": "2024-11-17", "Valor": "60"},
	})
}

func predictionByID(t *testing.T, result Result, id string) Prediction {
	t.Helper()
	for _, p := range result.Predictions {
		if p.ClientID == id {
			return p
		}
	}
	t.Fatalf("prediction %s not found", id)
	return Prediction{}
}

func TestAnalyze_ScoresWithinBounds(t *testing.T) {
	result := testEngine().Analyze(mixedBase(), salesColumns())
	if !result.Available {
		t.Fatalf("unavailable: %s", result.Reason)
	}
	for _, p := range result.Predictions {
		if p.Score < 0 || p.Score > 100 {
			t.Errorf("%s score = %v outside [0,100]", p.ClientID, p.Score)
		}
		if p.RiskLevel == "" || p.Recommendation == "" {
			t.Errorf("%s missing risk level or recommendation", p.ClientID)
		}
	}
}

func TestAnalyze_ColdClientScoresAboveEngaged(t *testing.T) {
	result := testEngine().Analyze(mixedBase(), salesColumns())

	cold := predictionByID(t, result, "frio")
	engaged := predictionByID(t, result, "ativo")
	if cold.Score <= engaged.Score {
		t.Errorf("cold score %v should exceed engaged score %v", cold.Score, engaged.Score)
	}
	if len(cold.Indicators) == 0 {
		t.Error("cold client should carry indicators")
	}

	// Predictions come sorted by score, worst first
	for i := 1; i < len(result.Predictions); i++ {
		if result.Predictions[i].Score > result.Predictions[i-1].Score {
			t.Fatal("predictions not sorted by descending score")
		}
	}
}

func TestAnalyze_NewButInactive(t *testing.T) {
	result := testEngine().Analyze(mixedBase(), salesColumns())

	novo := predictionByID(t, result, "novo")
	if novo.LifetimeDays >= 90 {
		t.Fatalf("fixture broken: lifetime = %d days", novo.LifetimeDays)
	}
	found := false
	for _, ind := range novo.Indicators {
		if ind == indicatorNewInactive {
			found = true
		}
	}
	if !found {
		t.Errorf("indicators = %v, want %q present", novo.Indicators, indicatorNewInactive)
	}
	if !strings.Contains(novo.Recommendation, "onboarding") {
		t.Errorf("recommendation %q should mention onboarding", novo.Recommendation)
	}
}

func TestAnalyze_StalenessAgainstClockNotDataset(t *testing.T) {
	// Whole dataset is a year old; against today's clock everyone is cold
	ds := dataset.New([]dataset.Row{
		{"Cliente": "a", "Data": "2024-01-05", "Valor": "100"},
		{"Cliente": "b", "Data": "2024-01-06", "Valor": "100"},
	})
	result := testEngine().Analyze(ds, salesColumns())
	for _, p := range result.Predictions {
		if p.DaysSinceLastPurchase < 300 {
			t.Errorf("%s days since last = %d, want measured against the injected clock", p.ClientID, p.DaysSinceLastPurchase)
		}
	}
}

func TestRiskLevel_Thresholds(t *testing.T) {
	e := NewEngineAt(fixedNow, Thresholds{High: 70, Medium: 40, Low: 20})
	cases := []struct {
		score float64
		want  string
	}{
		{85, LevelHigh},
		{70, LevelHigh},
		{55, LevelMedium},
		{40, LevelMedium},
		{25, LevelLow},
		{5, LevelMinimal},
	}
	for _, tc := range cases {
		if got := e.riskLevel(tc.score); got != tc.want {
			t.Errorf("riskLevel(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestAnalyze_MetricsAggregation(t *testing.T) {
	result := testEngine().Analyze(mixedBase(), salesColumns())

	m := result.Metrics
	if m.ClientCount != 3 {
		t.Fatalf("client count = %d, want 3", m.ClientCount)
	}
	if m.AtRiskCount != len(result.AtRisk) {
		t.Errorf("at-risk count %d disagrees with slice length %d", m.AtRiskCount, len(result.AtRisk))
	}
	wantRate := float64(m.AtRiskCount) / 3 * 100
	if m.ChurnRate != wantRate {
		t.Errorf("churn rate = %v, want %v", m.ChurnRate, wantRate)
	}
	for _, p := range result.AtRisk {
		if p.RiskLevel != LevelHigh && p.RiskLevel != LevelMedium {
			t.Errorf("at-risk list holds %s client", p.RiskLevel)
		}
	}
}

func TestValueTrend(t *testing.T) {
	growing := []purchase{
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 100},
		{time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 200},
	}
	if got := valueTrend(growing); got != 100 {
		t.Errorf("growing trend = %v, want 100", got)
	}
	single := growing[:1]
	if got := valueTrend(single); got != 0 {
		t.Errorf("single purchase trend = %v, want 0", got)
	}
}

func TestAnalyze_WithoutCurrencyColumn(t *testing.T) {
	cols := []dataset.ColumnMetadata{
		{Name: "Cliente", Type: dataset.TypeClient},
		{Name: "Data", Type: dataset.TypeDate},
	}
	result := testEngine().Analyze(mixedBase(), cols)
	if !result.Available {
		t.Fatalf("churn should work without values: %s", result.Reason)
	}
	p := predictionByID(t, result, "ativo")
	if p.TotalValue != float64(p.PurchaseCount) {
		t.Errorf("without currency each purchase weighs 1: total %v, count %d", p.TotalValue, p.PurchaseCount)
	}
}
