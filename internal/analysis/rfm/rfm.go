// Package rfm scores clients on recency, frequency and monetary value and
// classifies them into named segments.
package rfm

import (
	"fmt"
	"math"
	"sort"
	"time"

	"vendalytics/domain/analysis"
	"vendalytics/domain/dataset"
)

// ClientProfile is the per-client RFM scorecard
type ClientProfile struct {
	ClientID       string    `json:"client_id"`
	RecencyDays    int       `json:"recency_days"`
	Frequency      int       `json:"frequency"`
	Monetary       float64   `json:"monetary"`
	FirstPurchase  time.Time `json:"first_purchase"`
	LastPurchase   time.Time `json:"last_purchase"`
	RecencyScore   int       `json:"recency_score"`
	FrequencyScore int       `json:"frequency_score"`
	MonetaryScore  int       `json:"monetary_score"`
	Segment        string    `json:"segment"`
}

// SegmentSummary aggregates every client classified into one segment
type SegmentSummary struct {
	Segment        string  `json:"segment"`
	Count          int     `json:"count"`
	TotalMonetary  float64 `json:"total_monetary"`
	AvgRecencyDays float64 `json:"avg_recency_days"`
	AvgFrequency   float64 `json:"avg_frequency"`
	Recommendation string  `json:"recommendation"`
}

// Summary carries the headline metrics of the segmentation
type Summary struct {
	ClientCount        int     `json:"client_count"`
	AvgRecencyScore    float64 `json:"avg_recency_score"`
	AvgFrequencyScore  float64 `json:"avg_frequency_score"`
	AvgMonetaryScore   float64 `json:"avg_monetary_score"`
	TopSegment         string  `json:"top_segment"`
	ValueConcentration float64 `json:"value_concentration_pct"`
}

// Result is the full RFM analysis output
type Result struct {
	analysis.Availability
	Profiles []ClientProfile    `json:"profiles,omitempty"`
	Segments []SegmentSummary   `json:"segments,omitempty"`
	Insights []analysis.Insight `json:"insights,omitempty"`
	Summary  Summary            `json:"summary,omitempty"`
}

// Engine computes RFM segmentation
type Engine struct{}

// NewEngine creates an RFM engine
func NewEngine() *Engine {
	return &Engine{}
}

// Analyze builds per-client RFM profiles and classifies them. Requires a
// CLIENT, a DATE and a CURRENCY column; recency is anchored at the latest
// purchase date across the whole dataset.
func (e *Engine) Analyze(ds *dataset.Dataset, cols []dataset.ColumnMetadata) Result {
	clientCol, ok := dataset.ClientColumn(cols)
	if !ok {
		return Result{Availability: analysis.Unavailable("coluna de cliente não encontrada")}
	}
	dateCol, ok := dataset.DateColumn(cols)
	if !ok {
		return Result{Availability: analysis.Unavailable("coluna de data não encontrada")}
	}
	valueCol, ok := dataset.CurrencyColumn(cols)
	if !ok {
		return Result{Availability: analysis.Unavailable("coluna de valor não encontrada")}
	}

	profiles, maxDate := buildProfiles(ds, clientCol.Name, dateCol.Name, valueCol.Name)
	if len(profiles) == 0 {
		return Result{Availability: analysis.Unavailable("nenhuma transação válida para análise RFM")}
	}
	for i := range profiles {
		profiles[i].RecencyDays = dataset.DaysBetween(profiles[i].LastPurchase, maxDate)
	}

	scoreProfiles(profiles)
	for i := range profiles {
		profiles[i].Segment = Classify(profiles[i].RecencyScore, profiles[i].FrequencyScore, profiles[i].MonetaryScore)
	}

	segments := summarizeSegments(profiles)
	summary := summarize(profiles, segments)

	return Result{
		Availability: analysis.Ok(),
		Profiles:     profiles,
		Segments:     segments,
		Insights:     buildInsights(profiles, segments, summary),
		Summary:      summary,
	}
}

// buildProfiles accumulates one profile per client. Purchases with value
// <= 0 count toward frequency/recency but not toward monetary.
func buildProfiles(ds *dataset.Dataset, clientCol, dateCol, valueCol string) ([]ClientProfile, time.Time) {
	type acc struct {
		first, last time.Time
		count       int
		total       float64
	}
	byClient := make(map[string]*acc)
	var order []string
	var maxDate time.Time

	for _, row := range ds.Rows() {
		client, ok := dataset.StringValue(row[clientCol])
		if !ok {
			continue
		}
		date, ok := dataset.ParseDate(row[dateCol])
		if !ok {
			continue
		}

		a, seen := byClient[client]
		if !seen {
			a = &acc{first: date, last: date}
			byClient[client] = a
			order = append(order, client)
		}
		if date.Before(a.first) {
			a.first = date
		}
		if date.After(a.last) {
			a.last = date
		}
		if date.After(maxDate) {
			maxDate = date
		}
		a.count++
		if v, ok := dataset.ParseNumber(row[valueCol]); ok && v > 0 {
			a.total += v
		}
	}

	profiles := make([]ClientProfile, 0, len(order))
	for _, client := range order {
		a := byClient[client]
		profiles = append(profiles, ClientProfile{
			ClientID:      client,
			Frequency:     a.count,
			Monetary:      a.total,
			FirstPurchase: a.first,
			LastPurchase:  a.last,
		})
	}
	return profiles, maxDate
}

// scoreProfiles assigns quintile scores in place. Quintile width is
// ceil(n/5); ties at a boundary resolve by stable sort order.
func scoreProfiles(profiles []ClientProfile) {
	n := len(profiles)
	width := (n + 4) / 5

	assign := func(better func(a, b ClientProfile) bool, set func(p *ClientProfile, score int)) {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return better(profiles[idx[a]], profiles[idx[b]])
		})
		for rank, i := range idx {
			set(&profiles[i], quintileScore(rank, width))
		}
	}

	// Recency inverted: fewer days since last purchase is better
	assign(func(a, b ClientProfile) bool { return a.RecencyDays < b.RecencyDays },
		func(p *ClientProfile, s int) { p.RecencyScore = s })
	assign(func(a, b ClientProfile) bool { return a.Frequency > b.Frequency },
		func(p *ClientProfile, s int) { p.FrequencyScore = s })
	assign(func(a, b ClientProfile) bool { return a.Monetary > b.Monetary },
		func(p *ClientProfile, s int) { p.MonetaryScore = s })
}

// quintileScore maps a best-first rank into a 5..1 score, clamped to [1,5]
func quintileScore(rank, width int) int {
	if width <= 0 {
		return 5
	}
	score := 5 - rank/width
	if score < 1 {
		return 1
	}
	if score > 5 {
		return 5
	}
	return score
}

func summarizeSegments(profiles []ClientProfile) []SegmentSummary {
	bySegment := make(map[string]*SegmentSummary)
	for _, p := range profiles {
		s, ok := bySegment[p.Segment]
		if !ok {
			s = &SegmentSummary{Segment: p.Segment, Recommendation: Recommendation(p.Segment)}
			bySegment[p.Segment] = s
		}
		s.Count++
		s.TotalMonetary += p.Monetary
		s.AvgRecencyDays += float64(p.RecencyDays)
		s.AvgFrequency += float64(p.Frequency)
	}

	out := make([]SegmentSummary, 0, len(bySegment))
	for _, s := range bySegment {
		if s.Count > 0 {
			s.AvgRecencyDays /= float64(s.Count)
			s.AvgFrequency /= float64(s.Count)
		}
		out = append(out, *s)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].TotalMonetary > out[b].TotalMonetary })
	return out
}

func summarize(profiles []ClientProfile, segments []SegmentSummary) Summary {
	s := Summary{ClientCount: len(profiles)}
	for _, p := range profiles {
		s.AvgRecencyScore += float64(p.RecencyScore)
		s.AvgFrequencyScore += float64(p.FrequencyScore)
		s.AvgMonetaryScore += float64(p.MonetaryScore)
	}
	if len(profiles) > 0 {
		n := float64(len(profiles))
		s.AvgRecencyScore /= n
		s.AvgFrequencyScore /= n
		s.AvgMonetaryScore /= n
	}

	var topCount int
	for _, seg := range segments {
		if seg.Count > topCount {
			topCount = seg.Count
			s.TopSegment = seg.Segment
		}
	}
	s.ValueConcentration = valueConcentration(profiles)
	return s
}

// valueConcentration returns the revenue share of the top 20% of clients
// by monetary value
func valueConcentration(profiles []ClientProfile) float64 {
	if len(profiles) == 0 {
		return 0
	}
	totals := make([]float64, len(profiles))
	var grand float64
	for i, p := range profiles {
		totals[i] = p.Monetary
		grand += p.Monetary
	}
	if grand == 0 {
		return 0
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(totals)))

	topN := int(math.Ceil(float64(len(totals)) / 5.0))
	var top float64
	for _, v := range totals[:topN] {
		top += v
	}
	return top / grand * 100
}

func buildInsights(profiles []ClientProfile, segments []SegmentSummary, summary Summary) []analysis.Insight {
	var insights []analysis.Insight

	if summary.ValueConcentration > 0 {
		insights = append(insights, analysis.Insight{
			Title:       "Concentração de valor",
			Description: fmt.Sprintf("Os 20%% melhores clientes respondem por %.1f%% da receita", summary.ValueConcentration),
			Priority:    priorityFor(summary.ValueConcentration > 60),
		})
	}

	var atRiskCount int
	var atRiskValue float64
	for _, seg := range segments {
		if seg.Segment == SegmentAtRisk || seg.Segment == SegmentCannotLose {
			atRiskCount += seg.Count
			atRiskValue += seg.TotalMonetary
		}
	}
	if atRiskCount > 0 {
		insights = append(insights, analysis.Insight{
			Title:       "Clientes em risco",
			Description: fmt.Sprintf("%d clientes de alto valor em risco, somando R$ %.2f em receita histórica", atRiskCount, atRiskValue),
			Priority:    "alta",
		})
	}

	var champions int
	for _, seg := range segments {
		if seg.Segment == SegmentChampions {
			champions = seg.Count
		}
	}
	if len(profiles) > 0 {
		share := float64(champions) / float64(len(profiles)) * 100
		insights = append(insights, analysis.Insight{
			Title:       "Participação de campeões",
			Description: fmt.Sprintf("%.1f%% da base está no segmento Champions", share),
			Priority:    priorityFor(share < 5),
		})
	}
	return insights
}

func priorityFor(high bool) string {
	if high {
		return "alta"
	}
	return "media"
}
