package receipts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const biedronkaReceipt = `BIEDRONKA
ul. Przykładowa 1
Jeronimo Martins Polska S.A.
NIP 779-10-11-327
2024-05-12 18:42
PARAGON FISKALNY
Piwo Tyskie 0,5L 2 x3,99 7,98A
Coca-Cola 1L 5,49B
Chipsy Lays 6,99C
Serwetki 2,49A
SUMA PTU 1,95
SUMA PLN: 22.95
Karta 22,95`

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseLabelledTotal(t *testing.T) {
	r := Parse("SKLEP\nSUMA PLN: 11.49\n")

	require.NotNil(t, r.Total)
	assert.True(t, r.Total.Equal(amount("11.49")), "got %s", r.Total)
	assert.Equal(t, TotalLabel, r.TotalSource)
	assert.Equal(t, 11.49, *r.TotalFloat())
}

func TestParseStoreName(t *testing.T) {
	r := Parse("BIEDRONKA\nul. Przykładowa 1")

	require.NotNil(t, r.StoreName)
	assert.Equal(t, "Biedronka", *r.StoreName)
}

func TestStoreOrderWins(t *testing.T) {
	// Both patterns match; the earlier table entry takes precedence.
	r := Parse("Kaufland Polska\nzakupy dla Lidl hurt")
	require.NotNil(t, r.StoreName)
	assert.Equal(t, "Lidl", *r.StoreName)
}

func TestUnknownStoreLeftUnset(t *testing.T) {
	r := Parse("Hurtownia U Zenka\nSuma 10,00")
	assert.Nil(t, r.StoreName)
}

func TestFallbackTakesLargestPlausibleAmount(t *testing.T) {
	r := Parse("Sklep osiedlowy\nChleb 3.50\nSerek 12.00\nWino 47.90\n")

	require.NotNil(t, r.Total)
	assert.True(t, r.Total.Equal(amount("47.90")), "got %s", r.Total)
	assert.Equal(t, TotalFallback, r.TotalSource)
}

func TestFallbackIgnoresImplausibleAndDates(t *testing.T) {
	r := Parse("12.05.2024\nkod 123456.00\nx 0.50\nRazem towary 8,20 i 4,10")

	require.NotNil(t, r.Total)
	assert.True(t, r.Total.Equal(amount("8.20")), "got %s", r.Total)
}

func TestTotalRulePriority(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"suma before razem", "RAZEM 10,00\nSUMA 12,00", "12.00"},
		{"razem", "Razem: 33,10", "33.10"},
		{"do zaplaty with diacritics", "Do zapłaty 54,20 zł", "54.20"},
		{"do zaplaty ascii", "DO ZAPLATY PLN 19.99", "19.99"},
		{"total", "TOTAL = 7.50", "7.50"},
		{"brutto", "Wartość brutto 120,00", "120.00"},
		{"currency suffix", "Zapłacono 15,30 PLN", "15.30"},
		{"currency suffix zl", "kwota 9.99zł", "9.99"},
		{"implausible label skipped", "SUMA 0,00\nRAZEM 18,40", "18.40"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Parse(tt.text)
			require.NotNil(t, r.Total)
			assert.True(t, r.Total.Equal(amount(tt.want)), "got %s", r.Total)
			assert.Equal(t, TotalLabel, r.TotalSource)
		})
	}
}

func TestVATSumIsNotTotal(t *testing.T) {
	r := Parse("SUMA PTU 4,15\nDo zapłaty 41,50")
	require.NotNil(t, r.Total)
	assert.True(t, r.Total.Equal(amount("41.50")))
}

func TestDateExtraction(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"2024-05-12 18:42", "2024-05-12"},
		{"12-05-2024", "12-05-2024"},
		{"paragon 12.05.2024 nr 4", "12.05.2024"},
		{"12/05/24 10:11", "12/05/24"},
		{"Data: 3maja", "3maja"},
		{"12.05.2024 oraz 2023-01-01", "2023-01-01"},
	}
	for _, tt := range tests {
		r := Parse(tt.text)
		require.NotNil(t, r.Date, tt.text)
		assert.Equal(t, tt.want, *r.Date, tt.text)
	}

	assert.Nil(t, Parse("brak daty tutaj").Date)
}

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("12.05.2024")
	require.True(t, ok)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, 5, int(d.Month()))
	assert.Equal(t, 12, d.Day())

	d, ok = ParseDate("2024-01-31")
	require.True(t, ok)
	assert.Equal(t, 31, d.Day())

	_, ok = ParseDate("31-02-2024")
	assert.False(t, ok)
	_, ok = ParseDate("3maja")
	assert.False(t, ok)
}

func TestCategorySuggestion(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Piwo Żywiec 0,5L", CategoryAlcohol},
		{"Coca-Cola 1L", CategoryBeverages},
		{"Woda mineralna", CategoryBeverages},
		{"Chipsy paprykowe", CategoryFood},
		{"Serwetki białe", CategorySupplies},
		{"Kubki plastikowe 100szt", CategorySupplies},
		{"Płyn do naczyń", CategoryCleaning},
		{"COCACOLA 0.5L", CategoryBeverages},
		{"PIWOTYSKIE0,5L", CategoryAlcohol},
		{"Rumianek herbata", CategoryAlcohol},
		{"Żarówka LED", CategoryOther},
		{"", CategoryOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SuggestCategory(tt.name), tt.name)
	}
}

func TestFullReceipt(t *testing.T) {
	r := Parse(biedronkaReceipt)

	require.NotNil(t, r.StoreName)
	assert.Equal(t, "Biedronka", *r.StoreName)
	require.NotNil(t, r.Date)
	assert.Equal(t, "2024-05-12", *r.Date)
	require.NotNil(t, r.Total)
	assert.True(t, r.Total.Equal(amount("22.95")))
	assert.Equal(t, "PLN", r.Currency)

	require.Len(t, r.Items, 4)

	beer := r.Items[0]
	assert.Equal(t, "Piwo Tyskie 0,5L", beer.Name)
	assert.True(t, beer.Quantity.Equal(amount("2")))
	assert.True(t, beer.UnitPrice.Equal(amount("3.99")))
	assert.True(t, beer.TotalPrice.Equal(amount("7.98")))
	assert.Equal(t, CategoryAlcohol, beer.Category)

	assert.Equal(t, "Coca-Cola 1L", r.Items[1].Name)
	assert.Equal(t, CategoryBeverages, r.Items[1].Category)
	assert.True(t, r.Items[1].Quantity.Equal(amount("1")))

	assert.Equal(t, CategoryFood, r.Items[2].Category)
	assert.Equal(t, CategorySupplies, r.Items[3].Category)
}

func TestItemFilters(t *testing.T) {
	r := Parse("Ab 3,00\nReszta 5,00\nGOTÓWKA 50,00\nLampa 20000,00\nMop 19,99")

	require.Len(t, r.Items, 1)
	assert.Equal(t, "Mop", r.Items[0].Name)
	assert.Equal(t, CategoryCleaning, r.Items[0].Category)
}

func TestDateLineIsNotAnItem(t *testing.T) {
	r := Parse("Data 2024-01-15 godz 12.30\nGodz. 18:42 12,30\nCola 5,49")

	require.Len(t, r.Items, 1)
	assert.Equal(t, "Cola", r.Items[0].Name)
	require.NotNil(t, r.Date)
	assert.Equal(t, "2024-01-15", *r.Date)
}

func TestEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   \n\t"} {
		r := Parse(text)
		assert.Nil(t, r.StoreName)
		assert.Nil(t, r.Date)
		assert.Nil(t, r.Total)
		assert.Nil(t, r.TotalFloat())
		assert.Equal(t, TotalNone, r.TotalSource)
		assert.NotNil(t, r.Items)
		assert.Empty(t, r.Items)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	a := Parse(biedronkaReceipt)
	b := Parse(biedronkaReceipt)
	assert.Equal(t, a, b)
}

func TestCommaAndPeriodAreEquivalent(t *testing.T) {
	a := Parse("SUMA 12,30")
	b := Parse("SUMA 12.30")
	require.NotNil(t, a.Total)
	require.NotNil(t, b.Total)
	assert.True(t, a.Total.Equal(*b.Total))
}

func TestDominantCategory(t *testing.T) {
	items := []Item{
		{Name: "Piwo", TotalPrice: decimal.RequireFromString("7.98"), Category: CategoryAlcohol},
		{Name: "Cola", TotalPrice: decimal.RequireFromString("5.00"), Category: CategoryBeverages},
		{Name: "Cytryny", TotalPrice: decimal.RequireFromString("4.00"), Category: CategoryBeverages},
	}
	assert.Equal(t, CategoryBeverages, DominantCategory(items))

	items = append(items, Item{Name: "Stojak", TotalPrice: decimal.RequireFromString("20"), Category: CategoryOther})
	assert.Equal(t, CategoryOther, DominantCategory(items))

	assert.Equal(t, CategoryOther, DominantCategory(nil))

	tie := []Item{
		{TotalPrice: decimal.RequireFromString("3"), Category: CategoryCleaning},
		{TotalPrice: decimal.RequireFromString("3"), Category: CategoryAlcohol},
	}
	assert.Equal(t, CategoryAlcohol, DominantCategory(tie))
}
