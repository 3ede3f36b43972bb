// Package cohort groups clients by first-purchase month and tracks
// retention and revenue over the following periods.
package cohort

import (
	"fmt"
	"sort"
	"time"

	"vendalytics/domain/analysis"
	"vendalytics/domain/dataset"
)

// PeriodCell is one cohort × period observation
type PeriodCell struct {
	PeriodIndex         int     `json:"period_index"`
	ActiveClients       int     `json:"active_clients"`
	RetentionPct        float64 `json:"retention_pct"`
	Revenue             float64 `json:"revenue"`
	Transactions        int     `json:"transactions"`
	RevenuePerClient    float64 `json:"revenue_per_client"`
	AvgTransactionValue float64 `json:"avg_transaction_value"`
}

// Cohort tracks one first-purchase-month group across periods. Periods is
// dense: every index up to the global max period is present, zero-filled
// when the cohort had no activity.
type Cohort struct {
	Key          string       `json:"key"` // year-month, e.g. "2024-03"
	InitialSize  int          `json:"initial_size"`
	Periods      []PeriodCell `json:"periods"`
	TotalRevenue float64      `json:"total_revenue"`
	LTV          float64      `json:"ltv"`
}

// Matrix is a dense cohorts × periods grid of one metric
type Matrix struct {
	CohortKeys  []string    `json:"cohort_keys"`
	PeriodCount int         `json:"period_count"`
	Values      [][]float64 `json:"values"`
}

// Summary carries the headline retention metrics
type Summary struct {
	CohortCount         int     `json:"cohort_count"`
	AvgPeriod1Retention float64 `json:"avg_period1_retention"`
	RetentionTrend      string  `json:"retention_trend"` // "queda", "crescimento", "estável"
	BestCohort          string  `json:"best_cohort"`
	HasRevenue          bool    `json:"has_revenue"`
}

// Result is the full cohort analysis output
type Result struct {
	analysis.Availability
	Cohorts         []Cohort           `json:"cohorts,omitempty"`
	RetentionMatrix Matrix             `json:"retention_matrix,omitempty"`
	RevenueMatrix   *Matrix            `json:"revenue_matrix,omitempty"`
	LTVRanking      []Cohort           `json:"ltv_ranking,omitempty"`
	Insights        []analysis.Insight `json:"insights,omitempty"`
	Summary         Summary            `json:"summary,omitempty"`
}

// Engine computes cohort retention
type Engine struct{}

// NewEngine creates a cohort engine
func NewEngine() *Engine {
	return &Engine{}
}

// Analyze groups clients into first-purchase-month cohorts and computes
// dense retention (and, when a value column exists, revenue/LTV) matrices.
// Requires CLIENT and DATE columns; CURRENCY is optional.
func (e *Engine) Analyze(ds *dataset.Dataset, cols []dataset.ColumnMetadata) Result {
	clientCol, ok := dataset.ClientColumn(cols)
	if !ok {
		return Result{Availability: analysis.Unavailable("coluna de cliente não encontrada")}
	}
	dateCol, ok := dataset.DateColumn(cols)
	if !ok {
		return Result{Availability: analysis.Unavailable("coluna de data não encontrada")}
	}
	valueCol, hasRevenue := dataset.CurrencyColumn(cols)

	type txn struct {
		client string
		date   time.Time
		value  float64
	}
	var txns []txn
	firstPurchase := make(map[string]time.Time)

	for _, row := range ds.Rows() {
		client, ok := dataset.StringValue(row[clientCol.Name])
		if !ok {
			continue
		}
		date, ok := dataset.ParseDate(row[dateCol.Name])
		if !ok {
			continue
		}
		var value float64
		if hasRevenue {
			value, _ = dataset.ParseNumber(row[valueCol.Name])
		}
		txns = append(txns, txn{client, date, value})
		if first, seen := firstPurchase[client]; !seen || date.Before(first) {
			firstPurchase[client] = date
		}
	}
	if len(txns) == 0 {
		return Result{Availability: analysis.Unavailable("nenhuma transação válida para análise de coortes")}
	}

	type periodAcc struct {
		active       map[string]struct{}
		revenue      float64
		transactions int
	}
	type cohortAcc struct {
		initial map[string]struct{}
		periods map[int]*periodAcc
	}
	cohorts := make(map[string]*cohortAcc)
	maxPeriod := 0

	for _, t := range txns {
		first := firstPurchase[t.client]
		key := dataset.MonthKey(first)

		c, ok := cohorts[key]
		if !ok {
			c = &cohortAcc{initial: make(map[string]struct{}), periods: make(map[int]*periodAcc)}
			cohorts[key] = c
		}
		c.initial[t.client] = struct{}{}

		period := dataset.MonthsBetween(first, t.date)
		if period < 0 {
			period = 0
		}
		if period > maxPeriod {
			maxPeriod = period
		}

		p, ok := c.periods[period]
		if !ok {
			p = &periodAcc{active: make(map[string]struct{})}
			c.periods[period] = p
		}
		p.active[t.client] = struct{}{}
		p.revenue += t.value
		p.transactions++
	}

	keys := make([]string, 0, len(cohorts))
	for k := range cohorts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Cohort, 0, len(keys))
	for _, key := range keys {
		c := cohorts[key]
		cohort := Cohort{Key: key, InitialSize: len(c.initial)}

		for period := 0; period <= maxPeriod; period++ {
			cell := PeriodCell{PeriodIndex: period}
			if p, ok := c.periods[period]; ok {
				cell.ActiveClients = len(p.active)
				cell.Revenue = p.revenue
				cell.Transactions = p.transactions
				if cohort.InitialSize > 0 {
					cell.RetentionPct = float64(cell.ActiveClients) / float64(cohort.InitialSize) * 100
				}
				if cell.ActiveClients > 0 {
					cell.RevenuePerClient = p.revenue / float64(cell.ActiveClients)
				}
				if p.transactions > 0 {
					cell.AvgTransactionValue = p.revenue / float64(p.transactions)
				}
			}
			cohort.TotalRevenue += cell.Revenue
			cohort.Periods = append(cohort.Periods, cell)
		}

		// LTV is normalized by the period-0 active count
		if len(cohort.Periods) > 0 && cohort.Periods[0].ActiveClients > 0 {
			cohort.LTV = cohort.TotalRevenue / float64(cohort.Periods[0].ActiveClients)
		}
		out = append(out, cohort)
	}

	result := Result{
		Availability:    analysis.Ok(),
		Cohorts:         out,
		RetentionMatrix: buildMatrix(out, maxPeriod, func(c PeriodCell) float64 { return c.RetentionPct }),
	}
	if hasRevenue {
		revenue := buildMatrix(out, maxPeriod, func(c PeriodCell) float64 { return c.Revenue })
		result.RevenueMatrix = &revenue
		result.LTVRanking = rankByLTV(out)
	}
	result.Summary = summarize(out, hasRevenue)
	result.Insights = buildInsights(out, result.Summary)
	return result
}

func buildMatrix(cohorts []Cohort, maxPeriod int, metric func(PeriodCell) float64) Matrix {
	m := Matrix{PeriodCount: maxPeriod + 1}
	for _, c := range cohorts {
		m.CohortKeys = append(m.CohortKeys, c.Key)
		row := make([]float64, maxPeriod+1)
		for i, cell := range c.Periods {
			row[i] = metric(cell)
		}
		m.Values = append(m.Values, row)
	}
	return m
}

func rankByLTV(cohorts []Cohort) []Cohort {
	ranked := make([]Cohort, len(cohorts))
	copy(ranked, cohorts)
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].LTV > ranked[b].LTV })
	return ranked
}

// averagedRetention returns, per period index, the retention averaged over
// all cohorts
func averagedRetention(cohorts []Cohort) []float64 {
	if len(cohorts) == 0 {
		return nil
	}
	periods := len(cohorts[0].Periods)
	avg := make([]float64, periods)
	for p := 0; p < periods; p++ {
		var sum float64
		for _, c := range cohorts {
			if p < len(c.Periods) {
				sum += c.Periods[p].RetentionPct
			}
		}
		avg[p] = sum / float64(len(cohorts))
	}
	return avg
}

func summarize(cohorts []Cohort, hasRevenue bool) Summary {
	s := Summary{CohortCount: len(cohorts), HasRevenue: hasRevenue, RetentionTrend: "estável"}

	var sum float64
	var n int
	for _, c := range cohorts {
		if len(c.Periods) > 1 {
			sum += c.Periods[1].RetentionPct
			n++
		}
	}
	if n > 0 {
		s.AvgPeriod1Retention = sum / float64(n)
	}

	s.RetentionTrend = retentionTrend(averagedRetention(cohorts))

	var best float64 = -1
	for _, c := range cohorts {
		avg := avgRetentionAfterStart(c)
		if avg > best {
			best = avg
			s.BestCohort = c.Key
		}
	}
	return s
}

func avgRetentionAfterStart(c Cohort) float64 {
	if len(c.Periods) < 2 {
		return 0
	}
	var sum float64
	for _, cell := range c.Periods[1:] {
		sum += cell.RetentionPct
	}
	return sum / float64(len(c.Periods)-1)
}

// retentionTrend compares the first and second halves of the averaged
// retention series with a ±10% threshold
func retentionTrend(avg []float64) string {
	if len(avg) < 4 {
		return "estável"
	}
	half := len(avg) / 2
	firstHalf := mean(avg[:half])
	secondHalf := mean(avg[half:])
	if firstHalf == 0 {
		return "estável"
	}
	change := (secondHalf - firstHalf) / firstHalf * 100
	switch {
	case change < -10:
		return "queda"
	case change > 10:
		return "crescimento"
	default:
		return "estável"
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func buildInsights(cohorts []Cohort, summary Summary) []analysis.Insight {
	var insights []analysis.Insight

	if summary.AvgPeriod1Retention < 30 {
		insights = append(insights, analysis.Insight{
			Title:       "Retenção inicial baixa",
			Description: fmt.Sprintf("Apenas %.1f%% dos clientes voltam no mês seguinte à primeira compra", summary.AvgPeriod1Retention),
			Priority:    "alta",
		})
	}

	insights = append(insights, analysis.Insight{
		Title:       "Tendência de retenção",
		Description: fmt.Sprintf("A retenção média está em %s entre as metades do histórico", summary.RetentionTrend),
		Priority:    trendPriority(summary.RetentionTrend),
	})

	if summary.BestCohort != "" {
		insights = append(insights, analysis.Insight{
			Title:       "Melhor coorte",
			Description: fmt.Sprintf("A coorte %s apresenta a maior retenção média após o período inicial", summary.BestCohort),
			Priority:    "baixa",
		})
	}

	if summary.HasRevenue && len(cohorts) > 0 {
		ranked := rankByLTV(cohorts)
		insights = append(insights, analysis.Insight{
			Title:       "LTV por coorte",
			Description: fmt.Sprintf("A coorte %s lidera em LTV com R$ %.2f por cliente", ranked[0].Key, ranked[0].LTV),
			Priority:    "media",
		})
	}
	return insights
}

func trendPriority(trend string) string {
	if trend == "queda" {
		return "alta"
	}
	return "media"
}
