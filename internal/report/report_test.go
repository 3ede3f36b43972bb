package report

import (
	"context"
	"strings"
	"testing"

	"vendalytics/adapters/rng"
	"vendalytics/app"
	"vendalytics/internal"
	"vendalytics/internal/testkit"
)

func fullResult(t *testing.T) app.DashboardResult {
	t.Helper()
	ds, cols := testkit.NewSalesGenerator(testkit.DefaultSalesConfig()).Generate()
	o := app.NewOrchestrator(app.DefaultOptions(), rng.New(), internal.NewDefaultLogger())
	return o.RunAll(context.Background(), ds, cols)
}

func TestMarkdown_CoversAvailableSections(t *testing.T) {
	result := fullResult(t)
	md := Markdown(result)

	for _, want := range []string{
		"# Resumo executivo",
		"## Segmentação de clientes",
		"## Risco de churn",
		"## Retenção",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if !strings.Contains(md, result.RunID.String()) {
		t.Error("markdown should reference the run ID")
	}
}

func TestMarkdown_SkipsUnavailableSections(t *testing.T) {
	var empty app.DashboardResult
	md := Markdown(empty)

	if strings.Contains(md, "## Segmentação") {
		t.Error("unavailable RFM should not be rendered")
	}
	if !strings.Contains(md, "# Resumo executivo") {
		t.Error("header must always render")
	}
}

func TestHTML_RendersMarkdown(t *testing.T) {
	html := string(HTML(fullResult(t)))
	if !strings.Contains(html, "<h1") {
		t.Errorf("expected an h1 element, got: %.100s", html)
	}
	if !strings.Contains(html, "Resumo executivo") {
		t.Error("title missing from rendered HTML")
	}
}
