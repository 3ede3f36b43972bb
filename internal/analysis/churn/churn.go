// Package churn scores each client's disengagement risk from behavioral
// signals using a weighted heuristic.
package churn

import (
	"sort"
	"time"

	"vendalytics/domain/analysis"
	"vendalytics/domain/dataset"
)

// Risk levels, ordered from worst to best
const (
	LevelHigh    = "ALTO"
	LevelMedium  = "MÉDIO"
	LevelLow     = "BAIXO"
	LevelMinimal = "MÍNIMO"
)

// Thresholds are the score cutoffs for each risk level
type Thresholds struct {
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

// DefaultThresholds returns the standard risk-level cutoffs
func DefaultThresholds() Thresholds {
	return Thresholds{High: 70, Medium: 40, Low: 20}
}

// Prediction is the per-client churn verdict
type Prediction struct {
	ClientID              string    `json:"client_id"`
	Score                 float64   `json:"score"` // 0-100
	RiskLevel             string    `json:"risk_level"`
	DaysSinceLastPurchase int       `json:"days_since_last_purchase"`
	LifetimeDays          int       `json:"lifetime_days"`
	PurchaseCount         int       `json:"purchase_count"`
	TotalValue            float64   `json:"total_value"`
	AvgPurchaseValue      float64   `json:"avg_purchase_value"`
	PurchaseFrequency     float64   `json:"purchase_frequency"` // transactions per 30-day window
	ValueTrend            float64   `json:"value_trend"`        // % change, first half vs second half
	Indicators            []string  `json:"indicators,omitempty"`
	Recommendation        string    `json:"recommendation"`
	LastPurchase          time.Time `json:"last_purchase"`
}

// Metrics aggregates churn risk across the client base
type Metrics struct {
	ClientCount  int     `json:"client_count"`
	AtRiskCount  int     `json:"at_risk_count"`
	ChurnRate    float64 `json:"churn_rate_pct"`
	AvgScore     float64 `json:"avg_score"`
	TopIndicator string  `json:"top_indicator,omitempty"`
}

// Result is the full churn analysis output
type Result struct {
	analysis.Availability
	Predictions []Prediction `json:"predictions,omitempty"`
	AtRisk      []Prediction `json:"at_risk,omitempty"`
	Metrics     Metrics      `json:"metrics,omitempty"`
}

// Indicator strings appended when a score component triggers
const (
	indicatorInactivity   = "inatividade acima da média"
	indicatorLowFrequency = "frequência de compra abaixo da média"
	indicatorLowValue     = "valor total abaixo da média"
	indicatorValueDrop    = "queda no valor das compras"
	indicatorNewInactive  = "cliente novo já inativo"
)

// Engine scores churn risk. Unlike RFM and cohort analysis, staleness is
// measured against wall-clock time, not the dataset's own max date: churn
// answers "how cold is this client today".
type Engine struct {
	now        func() time.Time
	thresholds Thresholds
}

// NewEngine creates a churn engine using the system clock
func NewEngine() *Engine {
	return &Engine{now: time.Now, thresholds: DefaultThresholds()}
}

// NewEngineAt creates a churn engine with an injected clock and thresholds,
// for reproducible analysis and tests
func NewEngineAt(now func() time.Time, thresholds Thresholds) *Engine {
	return &Engine{now: now, thresholds: thresholds}
}

type purchase struct {
	date  time.Time
	value float64
}

// Analyze builds behavioral profiles per client and scores each one.
// Requires CLIENT and DATE columns; CURRENCY is optional (purchase weight
// defaults to 1 when absent).
func (e *Engine) Analyze(ds *dataset.Dataset, cols []dataset.ColumnMetadata) Result {
	clientCol, ok := dataset.ClientColumn(cols)
	if !ok {
		return Result{Availability: analysis.Unavailable("coluna de cliente não encontrada")}
	}
	dateCol, ok := dataset.DateColumn(cols)
	if !ok {
		return Result{Availability: analysis.Unavailable("coluna de data não encontrada")}
	}
	valueCol, hasValue := dataset.CurrencyColumn(cols)

	byClient := make(map[string][]purchase)
	var order []string
	for _, row := range ds.Rows() {
		client, ok := dataset.StringValue(row[clientCol.Name])
		if !ok {
			continue
		}
		date, ok := dataset.ParseDate(row[dateCol.Name])
		if !ok {
			continue
		}
		value := 1.0
		if hasValue {
			if v, ok := dataset.ParseNumber(row[valueCol.Name]); ok {
				value = v
			}
		}
		if _, seen := byClient[client]; !seen {
			order = append(order, client)
		}
		byClient[client] = append(byClient[client], purchase{date, value})
	}
	if len(order) == 0 {
		return Result{Availability: analysis.Unavailable("nenhuma transação válida para análise de churn")}
	}

	now := e.now()
	predictions := make([]Prediction, 0, len(order))
	for _, client := range order {
		predictions = append(predictions, e.profile(client, byClient[client], now))
	}

	// Population averages feed the relative score components
	var avgDays, avgFreq, avgTotal float64
	for _, p := range predictions {
		avgDays += float64(p.DaysSinceLastPurchase)
		avgFreq += p.PurchaseFrequency
		avgTotal += p.TotalValue
	}
	n := float64(len(predictions))
	avgDays /= n
	avgFreq /= n
	avgTotal /= n

	for i := range predictions {
		e.score(&predictions[i], avgDays, avgFreq, avgTotal)
	}

	sort.SliceStable(predictions, func(a, b int) bool {
		return predictions[a].Score > predictions[b].Score
	})

	var atRisk []Prediction
	for _, p := range predictions {
		if p.RiskLevel == LevelHigh || p.RiskLevel == LevelMedium {
			atRisk = append(atRisk, p)
		}
	}

	return Result{
		Availability: analysis.Ok(),
		Predictions:  predictions,
		AtRisk:       atRisk,
		Metrics:      buildMetrics(predictions, atRisk),
	}
}

// profile derives the behavioral signals for one client
func (e *Engine) profile(client string, purchases []purchase, now time.Time) Prediction {
	sort.SliceStable(purchases, func(a, b int) bool {
		return purchases[a].date.Before(purchases[b].date)
	})

	first := purchases[0].date
	last := purchases[len(purchases)-1].date

	var total float64
	for _, p := range purchases {
		total += p.value
	}

	p := Prediction{
		ClientID:              client,
		DaysSinceLastPurchase: dataset.DaysBetween(last, now),
		LifetimeDays:          dataset.DaysBetween(first, now),
		PurchaseCount:         len(purchases),
		TotalValue:            total,
		AvgPurchaseValue:      total / float64(len(purchases)),
		ValueTrend:            valueTrend(purchases),
		LastPurchase:          last,
	}

	// Transactions per 30-day window over the client's lifetime
	windows := float64(p.LifetimeDays) / 30.0
	if windows < 1 {
		windows = 1
	}
	p.PurchaseFrequency = float64(len(purchases)) / windows
	return p
}

// valueTrend is the % change between the average purchase value of the
// date-sorted first and second halves
func valueTrend(purchases []purchase) float64 {
	if len(purchases) < 2 {
		return 0
	}
	half := len(purchases) / 2
	firstHalf := avgValue(purchases[:half])
	secondHalf := avgValue(purchases[half:])
	if firstHalf == 0 {
		return 0
	}
	return (secondHalf - firstHalf) / firstHalf * 100
}

func avgValue(purchases []purchase) float64 {
	if len(purchases) == 0 {
		return 0
	}
	var sum float64
	for _, p := range purchases {
		sum += p.value
	}
	return sum / float64(len(purchases))
}

// score applies the weighted component model in place. Components cap at
// 40/30/20/10 points with a +10 penalty for new-but-inactive clients; the
// final score clamps to [0,100].
func (e *Engine) score(p *Prediction, avgDays, avgFreq, avgTotal float64) {
	var score float64

	// Recency: up to 40 points, scaled by the ratio to the population
	// average days-since-last-purchase (full weight at twice the average)
	if avgDays > 0 {
		ratio := float64(p.DaysSinceLastPurchase) / avgDays
		component := 20 * ratio
		if component > 40 {
			component = 40
		}
		score += component
		if ratio > 1 {
			p.Indicators = append(p.Indicators, indicatorInactivity)
		}
	}

	// Frequency: up to 30 points for below-average purchase cadence
	if avgFreq > 0 && p.PurchaseFrequency < avgFreq {
		component := 30 * (avgFreq - p.PurchaseFrequency) / avgFreq
		score += component
		p.Indicators = append(p.Indicators, indicatorLowFrequency)
	}

	// Monetary: up to 20 points for below-average lifetime value
	if avgTotal > 0 && p.TotalValue < avgTotal {
		component := 20 * (avgTotal - p.TotalValue) / avgTotal
		score += component
		p.Indicators = append(p.Indicators, indicatorLowValue)
	}

	// Trend: 10 points for a steep drop, 5 for any decline
	if p.ValueTrend < -20 {
		score += 10
		p.Indicators = append(p.Indicators, indicatorValueDrop)
	} else if p.ValueTrend < 0 {
		score += 5
		p.Indicators = append(p.Indicators, indicatorValueDrop)
	}

	// New client that already went quiet
	newButInactive := p.LifetimeDays < 90 && p.DaysSinceLastPurchase > 30
	if newButInactive {
		score += 10
		p.Indicators = append(p.Indicators, indicatorNewInactive)
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	p.Score = score
	p.RiskLevel = e.riskLevel(score)
	p.Recommendation = recommendation(p.RiskLevel, newButInactive)
}

func (e *Engine) riskLevel(score float64) string {
	switch {
	case score >= e.thresholds.High:
		return LevelHigh
	case score >= e.thresholds.Medium:
		return LevelMedium
	case score >= e.thresholds.Low:
		return LevelLow
	default:
		return LevelMinimal
	}
}

var recommendations = map[string]string{
	LevelHigh:    "Contato imediato com oferta de retenção personalizada",
	LevelMedium:  "Campanha de reengajamento nas próximas semanas",
	LevelLow:     "Acompanhar e manter comunicação regular",
	LevelMinimal: "Cliente saudável, manter relacionamento",
}

func recommendation(level string, newButInactive bool) string {
	rec := recommendations[level]
	if newButInactive {
		rec += "; priorizar onboarding, cliente recente sem recompra"
	}
	return rec
}

func buildMetrics(predictions, atRisk []Prediction) Metrics {
	m := Metrics{ClientCount: len(predictions), AtRiskCount: len(atRisk)}
	if len(predictions) == 0 {
		return m
	}
	m.ChurnRate = float64(len(atRisk)) / float64(len(predictions)) * 100

	var sum float64
	counts := make(map[string]int)
	for _, p := range predictions {
		sum += p.Score
		for _, ind := range p.Indicators {
			counts[ind]++
		}
	}
	m.AvgScore = sum / float64(len(predictions))

	var top string
	var topCount int
	for ind, c := range counts {
		if c > topCount || (c == topCount && ind < top) {
			top = ind
			topCount = c
		}
	}
	m.TopIndicator = top
	return m
}
