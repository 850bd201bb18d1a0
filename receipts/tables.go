package receipts

import "regexp"

// Cost categories suggested for receipt line items.
const (
	CategoryAlcohol   = "bar_alcohol"
	CategoryBeverages = "bar_beverages"
	CategoryFood      = "bar_food"
	CategorySupplies  = "bar_supplies"
	CategoryCleaning  = "cleaning"
	CategoryOther     = "other"
)

// DefaultCurrency is assigned to every parsed receipt.
const DefaultCurrency = "PLN"

// Plausible ranges for extracted amounts.
var (
	maxLabelledTotal = 100000.0
	minFallbackTotal = 1.0
	maxFallbackTotal = 10000.0
	maxItemPrice     = 10000.0
	minItemNameRunes = 3
)

type storeRule struct {
	re   *regexp.Regexp
	name string
}

// Earlier entries win when several stores appear in the text.
var storeRules = []storeRule{
	{regexp.MustCompile(`(?i)biedronka`), "Biedronka"},
	{regexp.MustCompile(`(?i)\blidl\b`), "Lidl"},
	{regexp.MustCompile(`(?i)kaufland`), "Kaufland"},
	{regexp.MustCompile(`(?i)auchan`), "Auchan"},
	{regexp.MustCompile(`(?i)carrefour`), "Carrefour"},
	{regexp.MustCompile(`(?i)[żz]abka`), "Żabka"},
	{regexp.MustCompile(`(?i)\bmakro\b`), "Makro"},
	{regexp.MustCompile(`(?i)selgros`), "Selgros"},
	{regexp.MustCompile(`(?i)eurocash`), "Eurocash"},
	{regexp.MustCompile(`(?i)\bnetto\s+sp`), "Netto"},
	{regexp.MustCompile(`(?i)\bdino\b`), "Dino"},
	{regexp.MustCompile(`(?i)lewiatan`), "Lewiatan"},
	{regexp.MustCompile(`(?i)stokrotka`), "Stokrotka"},
	{regexp.MustCompile(`(?i)rossmann`), "Rossmann"},
	{regexp.MustCompile(`(?i)\bhebe\b`), "Hebe"},
	{regexp.MustCompile(`(?i)leroy\s*merlin`), "Leroy Merlin"},
	{regexp.MustCompile(`(?i)castorama`), "Castorama"},
	{regexp.MustCompile(`(?i)media\s*markt`), "Media Markt"},
	{regexp.MustCompile(`(?i)\borlen\b`), "Orlen"},
	{regexp.MustCompile(`(?i)circle\s*k\b`), "Circle K"},
}

// Date shapes in priority order. The first capture group is the date.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`),
	regexp.MustCompile(`(\d{2}[-./]\d{2}[-./]\d{4})`),
	regexp.MustCompile(`(\d{2}[-./]\d{2}[-./]\d{2})(?:\D|$)`),
	regexp.MustCompile(`(?i)data[:\s]+(\S+)`),
}

const amountExpr = `(\d+[.,]\d{2})`

type totalRule struct {
	label string
	re    *regexp.Regexp
}

// Label-anchored total rules in priority order. "SUMA PTU" (the VAT sum)
// does not match because the label must be followed by an optional currency
// and the amount.
var totalRules = []totalRule{
	{"suma", regexp.MustCompile(`(?i)suma\s*(?:pln)?\s*[:=]?\s*` + amountExpr)},
	{"razem", regexp.MustCompile(`(?i)razem\s*(?:pln)?\s*[:=]?\s*` + amountExpr)},
	{"do zaplaty", regexp.MustCompile(`(?i)do\s+zap[łl]aty\s*(?:pln)?\s*[:=]?\s*` + amountExpr)},
	{"total", regexp.MustCompile(`(?i)total\s*(?:pln)?\s*[:=]?\s*` + amountExpr)},
	{"brutto", regexp.MustCompile(`(?i)brutto\s*(?:pln)?\s*[:=]?\s*` + amountExpr)},
	{"currency", regexp.MustCompile(`(?i)` + amountExpr + `\s*(?:pln|zł|zl)`)},
}

var anyAmount = regexp.MustCompile(amountExpr)

// <name> <price>[tax letter]
var itemLine = regexp.MustCompile(`^\s*(.+?)\s+` + amountExpr + `\s*[A-Da-d]?\s*$`)

// qty x unit price embedded in an item name, e.g. "2 x3,99" or "1,000*4.50".
var quantityExpr = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:szt\.?)?\s*[x*×]\s*` + amountExpr)

var itemBlacklist = []string{
	"suma", "razem", "vat", "ptu", "gotówka", "gotowka", "karta", "reszta",
	"total", "zapłaty", "zaplaty", "brutto", "netto", "nip", "paragon",
	"sprzedaż", "sprzedaz", "rabat", "wydano", "płatność", "platnosc",
	"data", "godz",
}

type categoryRule struct {
	category string
	keywords []string
}

// A keyword matches anywhere in the lower-cased item name. Groups are
// tried in order.
var categoryRules = []categoryRule{
	{CategoryAlcohol, []string{
		"piwo", "piwa", "beer", "wódka", "wodka", "vodka", "wino", "whisky", "whiskey",
		"rum", "gin", "likier", "tequila", "jager", "prosecco", "cydr", "brandy",
		"koniak", "żubrówka", "zubrowka", "tyskie", "żywiec", "zywiec", "lech",
	}},
	{CategoryBeverages, []string{
		"cola", "pepsi", "sprite", "fanta", "woda", "sok", "tonic", "red bull",
		"redbull", "energy", "napój", "napoj", "lemoniada", "schweppes", "kawa",
		"herbata", "juice", "kinley", "cappy",
	}},
	{CategoryFood, []string{
		"chips", "chipsy", "orzeszki", "paluszki", "precle", "przekąsk", "przekask",
		"kanapk", "pizza", "chleb", "snack", "baton", "czekolad", "żelki", "zelki",
	}},
	{CategorySupplies, []string{
		"kubek", "kubki", "słomk", "slomk", "serwetk", "lód", "lodu", "cytryn",
		"limonk", "rurk", "tack", "mięta", "mieta", "syrop",
	}},
	{CategoryCleaning, []string{
		"płyn", "plyn", "domestos", "ręcznik", "recznik", "papier", "mop", "worki",
		"gąbk", "gabk", "detergent", "ludwik", "cif", "środek", "srodek",
	}},
}
