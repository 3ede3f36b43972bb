package ml

import (
	"errors"

	"vendalytics/domain/dataset"
)

// ConcentrationResult reports how dependent revenue is on the top client
type ConcentrationResult struct {
	TopClient      string  `json:"top_client"`
	TopClientShare float64 `json:"top_client_share_pct"`
	RiskLevel      string  `json:"risk_level"` // "ALTO", "MÉDIO", "BAIXO"
	Recommendation string  `json:"recommendation"`
}

var concentrationRecommendations = map[string]string{
	"ALTO":  "Diversificar a carteira com urgência: a receita depende criticamente de um único cliente",
	"MÉDIO": "Desenvolver contas secundárias para reduzir a dependência do cliente principal",
	"BAIXO": "Carteira saudável, manter o equilíbrio atual",
}

// concentration computes the revenue share of the single largest client
func (e *Engine) concentration(ds *dataset.Dataset, cols []dataset.ColumnMetadata) (*ConcentrationResult, error) {
	clientCol, ok := dataset.ClientColumn(cols)
	if !ok {
		return nil, errors.New("coluna de cliente não encontrada")
	}
	valueCol, ok := dataset.CurrencyColumn(cols)
	if !ok {
		return nil, errors.New("coluna de valor não encontrada")
	}

	revenue := make(map[string]float64)
	var total float64
	for _, row := range ds.Rows() {
		client, ok := dataset.StringValue(row[clientCol.Name])
		if !ok {
			continue
		}
		value, ok := dataset.ParseNumber(row[valueCol.Name])
		if !ok {
			continue
		}
		revenue[client] += value
		total += value
	}
	if total <= 0 {
		return nil, errors.New("receita total nula, concentração indefinida")
	}

	var topClient string
	var topRevenue float64
	for client, r := range revenue {
		if r > topRevenue || (r == topRevenue && client < topClient) {
			topClient = client
			topRevenue = r
		}
	}

	share := topRevenue / total * 100
	level := "BAIXO"
	switch {
	case share > 30:
		level = "ALTO"
	case share > 15:
		level = "MÉDIO"
	}

	return &ConcentrationResult{
		TopClient:      topClient,
		TopClientShare: share,
		RiskLevel:      level,
		Recommendation: concentrationRecommendations[level],
	}, nil
}
