package cohort

import (
	"testing"

	"vendalytics/domain/dataset"
)

func salesColumns() []dataset.ColumnMetadata {
	return []dataset.ColumnMetadata{
		{Name: "Cliente", Type: dataset.TypeClient},
		{Name: "Data", Type: dataset.TypeDate},
		{Name: "Valor", Type: dataset.TypeCurrency},
	}
}

// twoCohortDataset: cohort 2024-01 holds clients a and b, a returns one
// month later; cohort 2024-02 holds client c, returning two months later.
func twoCohortDataset() *dataset.Dataset {
	return dataset.New([]dataset.Row{
		{"Cliente": "a", "Data": "2024-01-05", "Valor": "100"},
		{"Cliente": "b", "Data": "2024-01-20", "Valor": "100"},
		{"Cliente": "a", "Data": "2024-02-15", "Valor": "100"},
		{"Cliente": "c", "Data": "2024-02-10", "Valor": "100"},
		{"Cliente": "c", "Data": "2024-04-25", "Valor": "100"},
	})
}

func TestAnalyze_CohortAssignmentAndRetention(t *testing.T) {
	result := NewEngine().Analyze(twoCohortDataset(), salesColumns())
	if !result.Available {
		t.Fatalf("unavailable: %s", result.Reason)
	}
	if len(result.Cohorts) != 2 {
		t.Fatalf("got %d cohorts, want 2", len(result.Cohorts))
	}

	jan := result.Cohorts[0]
	if jan.Key != "2024-01" || jan.InitialSize != 2 {
		t.Fatalf("first cohort = %s size %d, want 2024-01 size 2", jan.Key, jan.InitialSize)
	}
	if jan.Periods[1].RetentionPct != 50 {
		t.Errorf("jan period-1 retention = %v, want 50", jan.Periods[1].RetentionPct)
	}

	feb := result.Cohorts[1]
	if feb.Periods[2].RetentionPct != 100 {
		t.Errorf("feb period-2 retention = %v, want 100", feb.Periods[2].RetentionPct)
	}
}

func TestAnalyze_PeriodZeroRetentionIsAlways100(t *testing.T) {
	result := NewEngine().Analyze(twoCohortDataset(), salesColumns())
	for _, c := range result.Cohorts {
		if got := c.Periods[0].RetentionPct; got != 100 {
			t.Errorf("cohort %s period-0 retention = %v, want 100", c.Key, got)
		}
	}
}

func TestAnalyze_MatricesAreDense(t *testing.T) {
	result := NewEngine().Analyze(twoCohortDataset(), salesColumns())

	m := result.RetentionMatrix
	if m.PeriodCount != 3 {
		t.Fatalf("period count = %d, want 3", m.PeriodCount)
	}
	if len(m.Values) != 2 {
		t.Fatalf("matrix rows = %d, want 2", len(m.Values))
	}
	for i, row := range m.Values {
		if len(row) != m.PeriodCount {
			t.Errorf("row %d has %d cells, want %d", i, len(row), m.PeriodCount)
		}
	}
	// Cohort 2024-01 had no period-2 activity; the cell exists and is zero
	if m.Values[0][2] != 0 {
		t.Errorf("jan period-2 = %v, want 0", m.Values[0][2])
	}
}

func TestAnalyze_LTVNormalizedByPeriodZeroActives(t *testing.T) {
	result := NewEngine().Analyze(twoCohortDataset(), salesColumns())
	if result.RevenueMatrix == nil {
		t.Fatal("revenue matrix missing with a currency column present")
	}

	jan := result.Cohorts[0]
	if jan.TotalRevenue != 300 || jan.LTV != 150 {
		t.Errorf("jan revenue/LTV = %v/%v, want 300/150", jan.TotalRevenue, jan.LTV)
	}

	if len(result.LTVRanking) == 0 || result.LTVRanking[0].Key != "2024-02" {
		t.Errorf("LTV leader should be 2024-02 (200 per client)")
	}
}

func TestAnalyze_NoRevenueColumn(t *testing.T) {
	cols := []dataset.ColumnMetadata{
		{Name: "Cliente", Type: dataset.TypeClient},
		{Name: "Data", Type: dataset.TypeDate},
	}
	result := NewEngine().Analyze(twoCohortDataset(), cols)
	if !result.Available {
		t.Fatalf("retention alone should still work: %s", result.Reason)
	}
	if result.RevenueMatrix != nil {
		t.Error("revenue matrix should be absent without a currency column")
	}
	if result.Summary.HasRevenue {
		t.Error("summary should report no revenue")
	}
}

func TestAnalyze_MissingDateColumn(t *testing.T) {
	cols := []dataset.ColumnMetadata{{Name: "Cliente", Type: dataset.TypeClient}}
	result := NewEngine().Analyze(twoCohortDataset(), cols)
	if result.Available {
		t.Fatal("expected unavailable without a date column")
	}
}

func TestRetentionTrend_Thresholds(t *testing.T) {
	cases := []struct {
		name string
		avg  []float64
		want string
	}{
		{"declining", []float64{100, 90, 40, 30}, "queda"},
		{"growing", []float64{30, 40, 90, 100}, "crescimento"},
		{"flat", []float64{50, 51, 49, 50}, "estável"},
		{"too short", []float64{100, 0}, "estável"},
	}
	for _, tc := range cases {
		if got := retentionTrend(tc.avg); got != tc.want {
			t.Errorf("%s: retentionTrend = %s, want %s", tc.name, got, tc.want)
		}
	}
}
