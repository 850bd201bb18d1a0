// Package receipts turns raw OCR text of a shop receipt into structured
// data using ordered heuristic rule tables.
//
// Parsing never fails: a field that cannot be recognised is left nil.
package receipts

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// TotalSource tells how the total was obtained.
type TotalSource string

const (
	TotalNone     TotalSource = ""
	TotalLabel    TotalSource = "label"
	TotalFallback TotalSource = "fallback"
)

// Item is one purchased line of a receipt.
type Item struct {
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Category   string          `json:"category_suggestion"`
}

// Receipt is the structured result of parsing one OCR text.
type Receipt struct {
	StoreName   *string          `json:"store_name"`
	Date        *string          `json:"receipt_date"`
	Total       *decimal.Decimal `json:"total"`
	TotalSource TotalSource      `json:"total_source,omitempty"`
	Currency    string           `json:"currency"`
	Items       []Item           `json:"items"`
	RawText     string           `json:"raw_text,omitempty"`
}

// Parse extracts store, date, total and line items from text.
func Parse(text string) Receipt {
	r := Receipt{
		Currency: DefaultCurrency,
		Items:    []Item{},
		RawText:  text,
	}
	if strings.TrimSpace(text) == "" {
		return r
	}

	r.StoreName = findStore(text)
	r.Date = findDate(text)
	r.Total, r.TotalSource = findTotal(text)
	r.Items = findItems(text)
	return r
}

func findStore(text string) *string {
	for _, rule := range storeRules {
		if rule.re.MatchString(text) {
			name := rule.name
			return &name
		}
	}
	return nil
}

func findDate(text string) *string {
	for _, re := range datePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			d := m[1]
			return &d
		}
	}
	return nil
}

func findTotal(text string) (*decimal.Decimal, TotalSource) {
	for _, rule := range totalRules {
		for _, m := range rule.re.FindAllStringSubmatch(text, -1) {
			v, ok := parseAmount(m[1])
			if !ok || !v.IsPositive() || v.GreaterThanOrEqual(decimal.NewFromFloat(maxLabelledTotal)) {
				continue
			}
			return &v, TotalLabel
		}
	}

	if v, ok := largestPlausibleAmount(text); ok {
		return &v, TotalFallback
	}
	return nil, TotalNone
}

// largestPlausibleAmount ignores numbers that are part of a recognised date.
func largestPlausibleAmount(text string) (decimal.Decimal, bool) {
	for _, re := range datePatterns[:3] {
		text = re.ReplaceAllString(text, " ")
	}

	lo := decimal.NewFromFloat(minFallbackTotal)
	hi := decimal.NewFromFloat(maxFallbackTotal)

	var best decimal.Decimal
	found := false
	for _, s := range anyAmount.FindAllString(text, -1) {
		v, ok := parseAmount(s)
		if !ok || v.LessThan(lo) || v.GreaterThan(hi) {
			continue
		}
		if !found || v.GreaterThan(best) {
			best = v
			found = true
		}
	}
	return best, found
}

func findItems(text string) []Item {
	items := []Item{}
	maxPrice := decimal.NewFromFloat(maxItemPrice)

	for _, line := range strings.Split(text, "\n") {
		m := itemLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if isBlacklisted(name) {
			continue
		}

		price, ok := parseAmount(m[2])
		if !ok || !price.IsPositive() || price.GreaterThan(maxPrice) {
			continue
		}

		qty := decimal.NewFromInt(1)
		unit := price
		if loc := quantityExpr.FindStringSubmatchIndex(name); loc != nil {
			q, qok := parseAmount(name[loc[2]:loc[3]])
			u, uok := parseAmount(name[loc[4]:loc[5]])
			if qok && uok && q.IsPositive() {
				qty, unit = q, u
			}
			name = strings.TrimSpace(name[:loc[0]])
		}

		if utf8.RuneCountInString(name) < minItemNameRunes {
			continue
		}

		items = append(items, Item{
			Name:       name,
			Quantity:   qty,
			UnitPrice:  unit,
			TotalPrice: price,
			Category:   SuggestCategory(name),
		})
	}
	return items
}

func isBlacklisted(name string) bool {
	lower := strings.ToLower(name)
	for _, token := range itemBlacklist {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// SuggestCategory maps an item name to a cost category. Keyword groups are
// tried in order and the first keyword contained in the lower-cased name
// wins; names matching none get CategoryOther.
func SuggestCategory(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return CategoryOther
	}
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}

// parseAmount accepts comma or period as decimal separator.
func parseAmount(s string) (decimal.Decimal, bool) {
	v, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(s), ",", ".", 1))
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006", "02.01.2006", "02/01/2006",
	"02-01-06", "02.01.06", "02/01/06",
}

// ParseDate converts a matched receipt date into a calendar date. It reports
// false for strings that are not real dates, such as "31-02-2024".
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TotalFloat returns the total as float64, or nil.
func (r Receipt) TotalFloat() *float64 {
	if r.Total == nil {
		return nil
	}
	f := r.Total.InexactFloat64()
	return &f
}

// DominantCategory returns the category with the largest summed item total,
// CategoryOther when there are no items. Ties go to the earlier rule.
func DominantCategory(items []Item) string {
	sums := make(map[string]decimal.Decimal)
	for _, it := range items {
		sums[it.Category] = sums[it.Category].Add(it.TotalPrice)
	}

	best, bestSum := CategoryOther, decimal.Zero
	for _, rule := range categoryRules {
		if s, ok := sums[rule.category]; ok && s.GreaterThan(bestSum) {
			best, bestSum = rule.category, s
		}
	}
	if s, ok := sums[CategoryOther]; ok && s.GreaterThan(bestSum) {
		best = CategoryOther
	}
	return best
}
