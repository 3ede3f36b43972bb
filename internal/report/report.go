// Package report renders an executive summary of a dashboard run.
package report

import (
	"fmt"
	"strings"

	"vendalytics/app"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown builds the executive summary of a run as markdown text
func Markdown(result app.DashboardResult) string {
	var b strings.Builder

	b.WriteString("# Resumo executivo\n\n")
	fmt.Fprintf(&b, "Análise `%s` sobre %d registros.\n\n", result.RunID, result.RowCount)

	if result.RFM.Available {
		fmt.Fprintf(&b, "## Segmentação de clientes\n\n")
		fmt.Fprintf(&b, "- %d clientes analisados, segmento dominante: **%s**\n",
			result.RFM.Summary.ClientCount, result.RFM.Summary.TopSegment)
		fmt.Fprintf(&b, "- Os 20%% melhores clientes concentram %.1f%% da receita\n\n",
			result.RFM.Summary.ValueConcentration)
	}

	if result.Churn.Available {
		fmt.Fprintf(&b, "## Risco de churn\n\n")
		fmt.Fprintf(&b, "- %.1f%% da base em risco (%d clientes)\n",
			result.Churn.Metrics.ChurnRate, result.Churn.Metrics.AtRiskCount)
		if result.Churn.Metrics.TopIndicator != "" {
			fmt.Fprintf(&b, "- Principal sinal: %s\n", result.Churn.Metrics.TopIndicator)
		}
		b.WriteString("\n")
	}

	if result.Cohort.Available {
		fmt.Fprintf(&b, "## Retenção\n\n")
		fmt.Fprintf(&b, "- Retenção média no primeiro mês: %.1f%% (tendência: %s)\n\n",
			result.Cohort.Summary.AvgPeriod1Retention, result.Cohort.Summary.RetentionTrend)
	}

	if result.Basket.Available && len(result.Basket.Combos) > 0 {
		fmt.Fprintf(&b, "## Cesta de compras\n\n")
		fmt.Fprintf(&b, "- %s\n\n", result.Basket.Combos[0].Description)
	}

	if result.ML.Available && result.ML.Forecast != nil {
		fmt.Fprintf(&b, "## Previsão\n\n")
		fmt.Fprintf(&b, "- Modelo %s (confiança %.0f%%), próximo período estimado em R$ %.2f\n\n",
			result.ML.Forecast.Model, result.ML.Forecast.Confidence, result.ML.Forecast.Points[0].Value)
	}

	if result.ML.Available && result.ML.Concentration != nil {
		fmt.Fprintf(&b, "## Concentração de receita\n\n")
		fmt.Fprintf(&b, "- Cliente principal: %s (%.1f%% da receita, risco %s)\n\n",
			result.ML.Concentration.TopClient, result.ML.Concentration.TopClientShare,
			result.ML.Concentration.RiskLevel)
	}

	return b.String()
}

// HTML renders the executive summary as an HTML fragment
func HTML(result app.DashboardResult) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(Markdown(result)), p, renderer)
}
