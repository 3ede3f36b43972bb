// Package basket mines association rules between products using a
// two-level Apriori pass.
//
// Depth is deliberately capped at item pairs: two-item rules carry most of
// the actionable cross-sell signal and keep the enumeration quadratic in
// the number of distinct items instead of combinatorial.
package basket

import (
	"fmt"
	"sort"

	"vendalytics/domain/analysis"
	"vendalytics/domain/dataset"
)

// Config tunes the mining thresholds
type Config struct {
	MinSupport    float64 `json:"min_support"`    // fraction of transactions, default 2%
	MinConfidence float64 `json:"min_confidence"` // default 30%
}

// DefaultConfig returns the standard mining thresholds
func DefaultConfig() Config {
	return Config{MinSupport: 0.02, MinConfidence: 0.30}
}

// Rule is one directional association A ⇒ B
type Rule struct {
	Antecedent []string `json:"antecedent"`
	Consequent []string `json:"consequent"`
	Support    float64  `json:"support"`
	Confidence float64  `json:"confidence"`
	Lift       float64  `json:"lift"`
}

// Combo is a top-ranked positively associated pair with display text
type Combo struct {
	Products    []string `json:"products"`
	Lift        float64  `json:"lift"`
	Confidence  float64  `json:"confidence"`
	Description string   `json:"description"`
}

// AnchorProduct is an item that pulls several other products into baskets
type AnchorProduct struct {
	Product        string  `json:"product"`
	RuleCount      int     `json:"rule_count"`
	CumulativeLift float64 `json:"cumulative_lift"`
}

// Metrics aggregates basket-level statistics
type Metrics struct {
	TransactionCount int     `json:"transaction_count"`
	DistinctItems    int     `json:"distinct_items"`
	AvgBasketSize    float64 `json:"avg_basket_size"`
	MaxLift          float64 `json:"max_lift"`
	GroupingKey      string  `json:"grouping_key"`
}

// Result is the full market basket output
type Result struct {
	analysis.Availability
	Rules   []Rule          `json:"rules,omitempty"`
	Combos  []Combo         `json:"combos,omitempty"`
	Anchors []AnchorProduct `json:"anchors,omitempty"`
	Metrics Metrics         `json:"metrics,omitempty"`
}

// Engine mines association rules
type Engine struct {
	cfg Config
}

// NewEngine creates a basket engine with default thresholds
func NewEngine() *Engine {
	return &Engine{cfg: DefaultConfig()}
}

// NewEngineWithConfig creates a basket engine with custom thresholds
func NewEngineWithConfig(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

const minTransactions = 10

// Analyze groups rows into transactions and mines pair rules. Requires a
// PRODUCT column and at least 10 distinct transactions. The grouping key
// is chosen by priority: an explicit order-like column, then DATE+CLIENT,
// then one transaction per row.
func (e *Engine) Analyze(ds *dataset.Dataset, cols []dataset.ColumnMetadata) Result {
	productCol, ok := dataset.ProductColumn(cols)
	if !ok {
		return Result{Availability: analysis.Unavailable("coluna de produto não encontrada")}
	}

	transactions, groupingKey := groupTransactions(ds, cols, productCol.Name)
	if len(transactions) < minTransactions {
		return Result{Availability: analysis.Unavailable(
			"análise de cesta requer pelo menos %d transações distintas, encontradas %d",
			minTransactions, len(transactions))}
	}

	txnCount := float64(len(transactions))

	// Level 1: item supports
	itemTxns := make(map[string]int)
	var totalItems int
	for _, items := range transactions {
		totalItems += len(items)
		for item := range items {
			itemTxns[item]++
		}
	}
	support := make(map[string]float64, len(itemTxns))
	var frequent []string
	for item, count := range itemTxns {
		s := float64(count) / txnCount
		if s >= e.cfg.MinSupport {
			support[item] = s
			frequent = append(frequent, item)
		}
	}
	sort.Strings(frequent)

	// Level 2: pair supports over the frequent items
	pairCount := make(map[[2]string]int)
	for _, items := range transactions {
		var present []string
		for _, item := range frequent {
			if _, ok := items[item]; ok {
				present = append(present, item)
			}
		}
		for i := 0; i < len(present); i++ {
			for j := i + 1; j < len(present); j++ {
				pairCount[[2]string{present[i], present[j]}]++
			}
		}
	}

	var rules []Rule
	for pair, count := range pairCount {
		pairSupport := float64(count) / txnCount
		if pairSupport < e.cfg.MinSupport {
			continue
		}
		for _, r := range []Rule{
			directionalRule(pair[0], pair[1], pairSupport, support),
			directionalRule(pair[1], pair[0], pairSupport, support),
		} {
			if r.Confidence >= e.cfg.MinConfidence {
				rules = append(rules, r)
			}
		}
	}

	sort.SliceStable(rules, func(a, b int) bool {
		if rules[a].Lift != rules[b].Lift {
			return rules[a].Lift > rules[b].Lift
		}
		return rules[a].Antecedent[0] < rules[b].Antecedent[0]
	})

	metrics := Metrics{
		TransactionCount: len(transactions),
		DistinctItems:    len(itemTxns),
		AvgBasketSize:    float64(totalItems) / txnCount,
		GroupingKey:      groupingKey,
	}
	if len(rules) > 0 {
		metrics.MaxLift = rules[0].Lift
	}

	return Result{
		Availability: analysis.Ok(),
		Rules:        rules,
		Combos:       topCombos(rules),
		Anchors:      anchorProducts(rules),
		Metrics:      metrics,
	}
}

// directionalRule builds A ⇒ B. Confidence is pairSupport/support(A) and
// lift normalizes it by support(B).
func directionalRule(a, b string, pairSupport float64, support map[string]float64) Rule {
	rule := Rule{
		Antecedent: []string{a},
		Consequent: []string{b},
		Support:    pairSupport,
	}
	if sa := support[a]; sa > 0 {
		rule.Confidence = pairSupport / sa
	}
	if sb := support[b]; sb > 0 {
		rule.Lift = rule.Confidence / sb
	}
	return rule
}

// topCombos keeps the ten strongest positively associated rules
func topCombos(rules []Rule) []Combo {
	var combos []Combo
	for _, r := range rules {
		if r.Lift <= 1 {
			continue
		}
		combos = append(combos, Combo{
			Products:   []string{r.Antecedent[0], r.Consequent[0]},
			Lift:       r.Lift,
			Confidence: r.Confidence,
			Description: fmt.Sprintf("Quem compra %s leva %s em %.0f%% das vezes (lift %.2f)",
				r.Antecedent[0], r.Consequent[0], r.Confidence*100, r.Lift),
		})
		if len(combos) == 10 {
			break
		}
	}
	return combos
}

// anchorProducts finds items appearing as antecedent in at least two rules
// with meaningful cumulative lift
func anchorProducts(rules []Rule) []AnchorProduct {
	acc := make(map[string]*AnchorProduct)
	for _, r := range rules {
		item := r.Antecedent[0]
		a, ok := acc[item]
		if !ok {
			a = &AnchorProduct{Product: item}
			acc[item] = a
		}
		a.RuleCount++
		a.CumulativeLift += r.Lift
	}

	var anchors []AnchorProduct
	for _, a := range acc {
		if a.RuleCount >= 2 && a.CumulativeLift > 2 {
			anchors = append(anchors, *a)
		}
	}
	sort.SliceStable(anchors, func(i, j int) bool {
		return anchors[i].CumulativeLift > anchors[j].CumulativeLift
	})
	return anchors
}

// groupTransactions buckets product occurrences by the derived transaction
// key. Returns the item sets and the name of the key used.
func groupTransactions(ds *dataset.Dataset, cols []dataset.ColumnMetadata, productCol string) (map[string]map[string]struct{}, string) {
	txnCol, hasTxn := dataset.TransactionColumn(cols)
	clientCol, hasClient := dataset.ClientColumn(cols)
	dateCol, hasDate := dataset.DateColumn(cols)

	transactions := make(map[string]map[string]struct{})
	groupingKey := "linha"

	for i, row := range ds.Rows() {
		product, ok := dataset.StringValue(row[productCol])
		if !ok {
			continue
		}

		var key string
		switch {
		case hasTxn:
			groupingKey = txnCol.Name
			key = fmt.Sprintf("%v", row[txnCol.Name])
		case hasClient && hasDate:
			groupingKey = dateCol.Name + "+" + clientCol.Name
			date, _ := dataset.ParseDate(row[dateCol.Name])
			key = fmt.Sprintf("%v|%s", row[clientCol.Name], date.Format("2006-01-02"))
		default:
			key = fmt.Sprintf("row-%d", i)
		}

		items, ok := transactions[key]
		if !ok {
			items = make(map[string]struct{})
			transactions[key] = items
		}
		items[product] = struct{}{}
	}
	return transactions, groupingKey
}
