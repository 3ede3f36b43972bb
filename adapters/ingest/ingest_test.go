package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"vendalytics/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Data,Cliente,Produto,Valor,Quantidade,Observacao
05/01/2024,Maria,Caneta,"R$ 10,50",2,
06/01/2024,João,Caderno,"R$ 25,00",1,entrega rápida
07/01/2024,Maria,Caneta,"R$ 10,50",3,
08/01/2024,Ana,Borracha,"R$ 3,90",1,
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vendas.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	return path
}

func columnByName(t *testing.T, cols []dataset.ColumnMetadata, name string) dataset.ColumnMetadata {
	t.Helper()
	for _, c := range cols {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %s not found", name)
	return dataset.ColumnMetadata{}
}

func TestLoad_CSV(t *testing.T) {
	loaded, err := Load(writeSample(t))
	require.NoError(t, err)

	assert.Equal(t, 4, loaded.Dataset.Len())
	assert.Equal(t, "vendas.csv", loaded.Source)

	assert.Equal(t, dataset.TypeDate, columnByName(t, loaded.Columns, "Data").Type)
	assert.Equal(t, dataset.TypeClient, columnByName(t, loaded.Columns, "Cliente").Type)
	assert.Equal(t, dataset.TypeProduct, columnByName(t, loaded.Columns, "Produto").Type)
	assert.Equal(t, dataset.TypeCurrency, columnByName(t, loaded.Columns, "Valor").Type)
	assert.Equal(t, dataset.TypeNumber, columnByName(t, loaded.Columns, "Quantidade").Type)
}

func TestLoad_CurrencyStatsComputed(t *testing.T) {
	loaded, err := Load(writeSample(t))
	require.NoError(t, err)

	valor := columnByName(t, loaded.Columns, "Valor")
	require.NotNil(t, valor.Stats)
	assert.InDelta(t, 3.90, valor.Stats.Min, 1e-9)
	assert.InDelta(t, 25.00, valor.Stats.Max, 1e-9)
}

func TestLoad_BlankCellsBecomeNil(t *testing.T) {
	loaded, err := Load(writeSample(t))
	require.NoError(t, err)

	obs := columnByName(t, loaded.Columns, "Observacao")
	assert.Equal(t, 3, obs.NullCount)
	assert.Nil(t, loaded.Dataset.Row(0)["Observacao"])
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendas.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_HeaderOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vazio.csv")
	require.NoError(t, os.WriteFile(path, []byte("Data,Valor\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestInferColumns_CategoryByLowCardinality(t *testing.T) {
	rows := make([]dataset.Row, 0, 20)
	for i := 0; i < 20; i++ {
		region := "Sul"
		if i%2 == 0 {
			region = "Norte"
		}
		rows = append(rows, dataset.Row{"Regiao": region})
	}
	cols := InferColumns(dataset.New(rows), []string{"Regiao"})
	assert.Equal(t, dataset.TypeCategory, cols[0].Type)
}

func TestInferColumns_PercentageByNameHint(t *testing.T) {
	rows := []dataset.Row{
		{"Margem": "12,5"},
		{"Margem": "30,0"},
		{"Margem": "7,2"},
	}
	cols := InferColumns(dataset.New(rows), []string{"Margem"})
	assert.Equal(t, dataset.TypePercentage, cols[0].Type)
}
