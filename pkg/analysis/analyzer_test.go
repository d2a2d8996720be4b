package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeQuery_Money(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		cents    int64
		currency string
	}{
		{"dollar symbol", "invoice for $9.30", 930, "USD"},
		{"euro symbol", "receipt €10.00 groceries", 1000, "EUR"},
		{"pound symbol", "£1,250.50 consulting", 125050, "GBP"},
		{"iso code before", "USD 42 subscription", 4200, "USD"},
		{"iso code after", "paid 100 EUR last week", 10000, "EUR"},
		{"currency word", "about 250 dollars", 25000, "USD"},
		{"czech crowns", "1 500 korun", 150000, "CZK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AnalyzeQuery(tt.query)
			require.NotNil(t, a.Money, "expected money in %q", tt.query)
			assert.Equal(t, tt.cents, a.Money.Cents)
			assert.Equal(t, tt.currency, a.Money.Currency)
		})
	}
}

func TestAnalyzeQuery_NoMoney(t *testing.T) {
	a := AnalyzeQuery("quarterly report about revenue")
	assert.Nil(t, a.Money)
}

func TestAnalyzeQuery_IDs(t *testing.T) {
	a := AnalyzeQuery("find INV-2024-00123 from billing")
	assert.Contains(t, a.IDs, "INV-2024-00123")

	a = AnalyzeQuery("contact john.doe@example.com about payment")
	assert.Contains(t, a.IDs, "john.doe@example.com")

	a = AnalyzeQuery("transfer to DE89370400440532013000")
	assert.Contains(t, a.IDs, "DE89370400440532013000")

	// Bare alphanumeric IDs need at least one digit.
	a = AnalyzeQuery("DOWNLOAD the ABC123XYZ9 report")
	assert.Contains(t, a.IDs, "ABC123XYZ9")
	assert.NotContains(t, a.IDs, "DOWNLOAD")
}

func TestAnalyzeQuery_Dates(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"invoices from 2024-03-15", "2024-03-15"},
		{"report from 3/15/2024", "3/15/2024"},
		{"faktura z 31.3.2024", "31.3.2024"},
		{"results for Q2 2024", "Q2 2024"},
		{"summary January 2025", "January 2025"},
		{"expenses last week", "last week"},
		{"forecast next quarter", "next quarter"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			a := AnalyzeQuery(tt.query)
			assert.Contains(t, a.Dates, tt.want)
		})
	}
}

func TestAnalyzeQuery_FileTypes(t *testing.T) {
	a := AnalyzeQuery("find the pdf invoice with the photo")
	assert.ElementsMatch(t, []string{"pdf", "invoice", "image"}, a.FileTypes)
}

func TestAnalyzeQuery_Entities(t *testing.T) {
	a := AnalyzeQuery("emails about Acme Corporation and Prague")
	assert.Contains(t, a.Entities, "Acme Corporation")
	assert.Contains(t, a.Entities, "Prague")

	// The leading token never counts as an entity.
	a = AnalyzeQuery("Reports about nothing")
	assert.NotContains(t, a.Entities, "Reports")
}

func TestAnalyzeQuery_Vendors(t *testing.T) {
	a := AnalyzeQuery("invoice from google")
	assert.Contains(t, a.Vendors, "google")

	a = AnalyzeQuery("contracts with Initech LLC")
	assert.Contains(t, a.Vendors, "initech")
}

func TestAnalyzeQuery_CleanText(t *testing.T) {
	a := AnalyzeQuery("invoice INV-2024-00123 for $9.30 from billing")
	assert.NotContains(t, a.CleanText, "INV-2024-00123")
	assert.NotContains(t, a.CleanText, "9.30")
	assert.Contains(t, a.CleanText, "invoice")
	assert.Contains(t, a.CleanText, "billing")

	// Removal that would empty the query falls back to the original.
	a = AnalyzeQuery("INV-2024-00123")
	assert.Equal(t, "INV-2024-00123", a.CleanText)
}

func TestAnalyzeQuery_EmptyInput(t *testing.T) {
	a := AnalyzeQuery("   ")
	assert.Nil(t, a.Money)
	assert.Empty(t, a.IDs)
	assert.Empty(t, a.Dates)
	assert.Empty(t, a.CleanText)
	assert.False(t, a.HasStructuredSignals())
}

func TestQueryAnalysis_HasStructuredSignals(t *testing.T) {
	assert.True(t, AnalyzeQuery("$12 lunch").HasStructuredSignals())
	assert.True(t, AnalyzeQuery("report from 2024-01-01").HasStructuredSignals())
	assert.True(t, AnalyzeQuery("invoice from google").HasStructuredSignals())
	assert.False(t, AnalyzeQuery("machine learning algorithms").HasStructuredSignals())
}
