package dataset

import "strings"

// Keyword lists used by the name-substring fallbacks of the role matcher.
// Kept as package vars so tests can pin the exact sets.
var (
	// CurrencyKeywords mark columns holding monetary amounts
	CurrencyKeywords = []string{"valor", "receita", "venda", "faturamento", "preco", "preço", "total"}

	// TransactionKeywords mark columns usable as a transaction grouping key
	TransactionKeywords = []string{"pedido", "order", "transacao", "transação", "nota", "invoice", "cupom", "nf"}

	// ProductKeywords mark columns naming a product or item
	ProductKeywords = []string{"produto", "item", "sku", "mercadoria"}
)

// FindByType returns the first column of the given semantic type
func FindByType(cols []ColumnMetadata, t ColumnType) (ColumnMetadata, bool) {
	for _, c := range cols {
		if c.Type == t {
			return c, true
		}
	}
	return ColumnMetadata{}, false
}

// FindByKeywords returns the first column whose lowercased name contains
// any of the given keywords
func FindByKeywords(cols []ColumnMetadata, keywords []string) (ColumnMetadata, bool) {
	for _, c := range cols {
		name := strings.ToLower(c.Name)
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				return c, true
			}
		}
	}
	return ColumnMetadata{}, false
}

// ClientColumn locates the client identifier column
func ClientColumn(cols []ColumnMetadata) (ColumnMetadata, bool) {
	return FindByType(cols, TypeClient)
}

// DateColumn locates the transaction date column
func DateColumn(cols []ColumnMetadata) (ColumnMetadata, bool) {
	return FindByType(cols, TypeDate)
}

// ProductColumn locates the product column, falling back to name keywords
// over categorical columns
func ProductColumn(cols []ColumnMetadata) (ColumnMetadata, bool) {
	if c, ok := FindByType(cols, TypeProduct); ok {
		return c, true
	}
	var categorical []ColumnMetadata
	for _, c := range cols {
		if c.Type == TypeCategory || c.Type == TypeText {
			categorical = append(categorical, c)
		}
	}
	return FindByKeywords(categorical, ProductKeywords)
}

// CurrencyColumn locates the monetary value column. Typed CURRENCY columns
// win; otherwise the first NUMBER column with a revenue-like name is used.
func CurrencyColumn(cols []ColumnMetadata) (ColumnMetadata, bool) {
	var currency []ColumnMetadata
	for _, c := range cols {
		if c.Type == TypeCurrency {
			currency = append(currency, c)
		}
	}
	if len(currency) == 1 {
		return currency[0], true
	}
	if len(currency) > 1 {
		// Prefer the one with a revenue-like name when several qualify
		if c, ok := FindByKeywords(currency, CurrencyKeywords); ok {
			return c, true
		}
		return currency[0], true
	}

	var numbers []ColumnMetadata
	for _, c := range cols {
		if c.Type == TypeNumber {
			numbers = append(numbers, c)
		}
	}
	return FindByKeywords(numbers, CurrencyKeywords)
}

// TransactionColumn locates an explicit order/invoice identifier column
// by name heuristic. Callers fall back to DATE+CLIENT composite keys when
// no such column exists.
func TransactionColumn(cols []ColumnMetadata) (ColumnMetadata, bool) {
	return FindByKeywords(cols, TransactionKeywords)
}

// NumericColumns returns every column analyzable as numbers
func NumericColumns(cols []ColumnMetadata) []ColumnMetadata {
	var out []ColumnMetadata
	for _, c := range cols {
		if c.Type.IsNumeric() {
			out = append(out, c)
		}
	}
	return out
}
