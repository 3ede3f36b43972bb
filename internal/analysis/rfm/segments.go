package rfm

// Segment labels. The classification below is an ordered decision table:
// rules are evaluated top to bottom and the first match wins, with Lost as
// the unconditional fallback, so the segments stay mutually exclusive and
// exhaustive.
const (
	SegmentChampions          = "Champions"
	SegmentLoyalCustomers     = "Loyal Customers"
	SegmentPotentialLoyalists = "Potential Loyalists"
	SegmentRecentCustomers    = "Recent Customers"
	SegmentPromising          = "Promising"
	SegmentNeedsAttention     = "Needs Attention"
	SegmentAboutToSleep       = "About To Sleep"
	SegmentCannotLose         = "Cannot Lose"
	SegmentAtRisk             = "At Risk"
	SegmentHibernating        = "Hibernating"
	SegmentLost               = "Lost"
)

type segmentRule struct {
	name  string
	match func(r, f, m int) bool
}

var segmentRules = []segmentRule{
	{SegmentChampions, func(r, f, m int) bool { return r >= 4 && f >= 4 && m >= 4 }},
	{SegmentLoyalCustomers, func(r, f, m int) bool { return r >= 3 && f >= 4 }},
	{SegmentPotentialLoyalists, func(r, f, m int) bool { return r >= 4 && f >= 2 && m >= 2 }},
	{SegmentRecentCustomers, func(r, f, m int) bool { return r >= 4 }},
	{SegmentPromising, func(r, f, m int) bool { return r >= 3 && m >= 3 }},
	{SegmentCannotLose, func(r, f, m int) bool { return r <= 2 && f >= 4 && m >= 4 }},
	{SegmentAtRisk, func(r, f, m int) bool { return r <= 2 && f >= 3 && m >= 3 }},
	{SegmentNeedsAttention, func(r, f, m int) bool { return r >= 2 && f >= 2 && m >= 2 }},
	{SegmentAboutToSleep, func(r, f, m int) bool { return r >= 2 && f >= 2 }},
	{SegmentHibernating, func(r, f, m int) bool { return r <= 2 && (f >= 2 || m >= 2) }},
}

// Classify maps an (R,F,M) score triple to its segment label
func Classify(r, f, m int) string {
	for _, rule := range segmentRules {
		if rule.match(r, f, m) {
			return rule.name
		}
	}
	return SegmentLost
}

var recommendations = map[string]string{
	SegmentChampions:          "Recompense e transforme em embaixadores da marca",
	SegmentLoyalCustomers:     "Ofereça programas de fidelidade e vendas cruzadas",
	SegmentPotentialLoyalists: "Incentive a recompra com ofertas personalizadas",
	SegmentRecentCustomers:    "Invista em onboarding e primeira recompra",
	SegmentPromising:          "Crie ofertas para aumentar a frequência de compra",
	SegmentNeedsAttention:     "Reative com campanhas segmentadas antes que esfriem",
	SegmentAboutToSleep:       "Envie lembretes e ofertas de reativação",
	SegmentCannotLose:         "Contato direto imediato: clientes valiosos inativos",
	SegmentAtRisk:             "Campanhas de retenção com desconto agressivo",
	SegmentHibernating:        "Reengaje com conteúdo e promoções de baixo custo",
	SegmentLost:               "Recuperação de baixo investimento ou descarte da base",
}

// Recommendation returns the fixed action text for a segment
func Recommendation(segment string) string {
	if rec, ok := recommendations[segment]; ok {
		return rec
	}
	return recommendations[SegmentLost]
}
