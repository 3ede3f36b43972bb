// Package testkit generates deterministic synthetic sales data for tests.
package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"vendalytics/domain/dataset"
)

// SalesConfig configures the synthetic sales generator
type SalesConfig struct {
	ClientCount        int
	ProductCount       int
	AvgOrdersPerClient float64
	ItemsPerOrder      int
	StartDate          time.Time
	EndDate            time.Time
	Seed               int64
}

// DefaultSalesConfig returns defaults that exercise every analyzer: enough
// clients for quintiles, enough months for cohorts and seasonality, enough
// orders for basket mining.
func DefaultSalesConfig() SalesConfig {
	return SalesConfig{
		ClientCount:        120,
		ProductCount:       20,
		AvgOrdersPerClient: 4,
		ItemsPerOrder:      3,
		StartDate:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Seed:               42,
	}
}

// SalesGenerator produces reproducible sales rows
type SalesGenerator struct {
	cfg SalesConfig
	rng *rand.Rand
}

// NewSalesGenerator creates a generator seeded from the config
func NewSalesGenerator(cfg SalesConfig) *SalesGenerator {
	return &SalesGenerator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// Column names used by the generated dataset
const (
	ColDate     = "Data"
	ColClient   = "Cliente"
	ColProduct  = "Produto"
	ColValue    = "Valor"
	ColQuantity = "Quantidade"
	ColOrder    = "Pedido"
)

// Generate builds the dataset and its column metadata. The same config
// always yields the same rows.
func (g *SalesGenerator) Generate() (*dataset.Dataset, []dataset.ColumnMetadata) {
	var rows []dataset.Row
	orderSeq := 0

	for c := 0; c < g.cfg.ClientCount; c++ {
		client := fmt.Sprintf("cliente_%03d", c+1)

		orders := int(math.Round(g.cfg.AvgOrdersPerClient + g.rng.NormFloat64()))
		if orders < 1 {
			orders = 1
		}

		// A fixed per-client budget keeps monetary scores spread out
		budget := 50 + g.rng.Float64()*450

		for o := 0; o < orders; o++ {
			orderSeq++
			date := g.randomDate()
			order := fmt.Sprintf("pedido_%05d", orderSeq)

			items := 1 + g.rng.Intn(g.cfg.ItemsPerOrder)
			for i := 0; i < items; i++ {
				product := fmt.Sprintf("produto_%02d", g.productIndex()+1)
				quantity := 1 + g.rng.Intn(5)
				value := budget * (0.5 + g.rng.Float64()) * float64(quantity)
				rows = append(rows, dataset.Row{
					ColDate:     date.Format("02/01/2006"),
					ColClient:   client,
					ColProduct:  product,
					ColValue:    fmt.Sprintf("R$ %.2f", value),
					ColQuantity: float64(quantity),
					ColOrder:    order,
				})
			}
		}
	}

	return dataset.New(rows), SalesColumns()
}

// SalesColumns returns the metadata matching the generated rows
func SalesColumns() []dataset.ColumnMetadata {
	return []dataset.ColumnMetadata{
		{Name: ColDate, Type: dataset.TypeDate},
		{Name: ColClient, Type: dataset.TypeClient},
		{Name: ColProduct, Type: dataset.TypeProduct},
		{Name: ColValue, Type: dataset.TypeCurrency},
		{Name: ColQuantity, Type: dataset.TypeNumber},
		{Name: ColOrder, Type: dataset.TypeText},
	}
}

// productIndex skews product picks toward the low indices so a handful of
// products co-occur often enough to produce association rules
func (g *SalesGenerator) productIndex() int {
	if g.rng.Float64() < 0.4 {
		return g.rng.Intn(3)
	}
	return g.rng.Intn(g.cfg.ProductCount)
}

func (g *SalesGenerator) randomDate() time.Time {
	span := int(g.cfg.EndDate.Sub(g.cfg.StartDate).Hours() / 24)
	if span <= 0 {
		return g.cfg.StartDate
	}
	return g.cfg.StartDate.AddDate(0, 0, g.rng.Intn(span))
}
