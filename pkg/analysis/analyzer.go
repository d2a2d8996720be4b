// Package analysis turns free text into structured search signals: money,
// identifiers, dates, file-type hints, entities, and vendor names. The same
// recognizers serve two callers: the query analyzer (per-query) and the
// metadata extractor (per-chunk at ingest and reindex time).
//
// Nothing in this package performs I/O and nothing fails on malformed input;
// unrecognizable text yields an empty result.
package analysis

import (
	"math"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
)

// Money is an amount in integer minor units plus its ISO currency.
type Money struct {
	Cents    int64
	Currency string
}

// QueryAnalysis is the structured interpretation of one free-text query.
type QueryAnalysis struct {
	Money     *Money
	IDs       []string
	Dates     []string
	FileTypes []string
	Entities  []string
	Vendors   []string

	// CleanText is the original query with money, ID, and IBAN runs removed
	// and whitespace collapsed. Falls back to the original when removal
	// would leave nothing.
	CleanText string
}

// HasStructuredSignals reports whether the analysis found anything beyond
// plain text, which drives search-mode routing.
func (a *QueryAnalysis) HasStructuredSignals() bool {
	return a.Money != nil || len(a.IDs) > 0 || len(a.Dates) > 0 || len(a.Vendors) > 0
}

// AnalyzeQuery extracts structured signals from a free-text query.
// It never fails; ambiguous input yields an empty analysis.
func AnalyzeQuery(query string) *QueryAnalysis {
	a := &QueryAnalysis{CleanText: query}
	if strings.TrimSpace(query) == "" {
		a.CleanText = ""
		return a
	}

	a.Money = firstMoney(query)
	a.IDs = extractIDs(query)
	a.Dates = extractDates(query)
	a.FileTypes = extractFileTypes(query)
	a.Entities = extractEntities(query)
	a.Vendors = extractQueryVendors(query)
	a.CleanText = cleanText(query)

	return a
}

// firstMoney returns the first money expression in s, applying the currency
// precedence symbol > explicit code > USD default.
func firstMoney(s string) *Money {
	if m := patterns["money_symbol_amount"].FindStringSubmatch(s); m != nil {
		if cents, ok := parseAmountCents(m[2]); ok {
			return &Money{Cents: cents, Currency: symbolCurrencies[m[1]]}
		}
	}
	if m := patterns["money_code_amount"].FindStringSubmatch(s); m != nil {
		if cents, ok := parseAmountCents(m[2]); ok {
			return &Money{Cents: cents, Currency: strings.ToUpper(m[1])}
		}
	}
	if m := patterns["money_amount_code"].FindStringSubmatch(s); m != nil {
		if cents, ok := parseAmountCents(m[1]); ok {
			currency := "USD"
			word := strings.ToLower(m[2])
			if iso, ok := wordCurrencies[word]; ok {
				currency = iso
			} else if len(m[2]) == 3 && m[2] == strings.ToUpper(m[2]) {
				currency = m[2]
			}
			return &Money{Cents: cents, Currency: currency}
		}
	}
	return nil
}

// parseAmountCents converts a textual amount to integer cents. "," and " "
// are thousands separators, "." is the decimal point.
func parseAmountCents(amount string) (int64, bool) {
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(amount)
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(f * 100)), true
}

func extractIDs(s string) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(matches []string) {
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				ids = append(ids, m)
			}
		}
	}

	add(patterns["id_prefixed"].FindAllString(s, -1))
	add(patterns["email"].FindAllString(s, -1))
	add(patterns["iban"].FindAllString(s, -1))

	// Bare IDs must carry at least one digit; an all-caps word is a word.
	for _, m := range patterns["id_bare"].FindAllString(s, -1) {
		if strings.ContainsAny(m, "0123456789") && !seen[m] {
			seen[m] = true
			ids = append(ids, m)
		}
	}

	for _, m := range patterns["phone"].FindAllString(s, -1) {
		if digitCount(m) >= 8 && !seen[m] {
			seen[m] = true
			ids = append(ids, m)
		}
	}
	return ids
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// extractDates tags date spans. Absolute formats are validated with dateparse;
// quarter, month-year, and relative spans are kept verbatim as filter hints.
func extractDates(s string) []string {
	var dates []string
	seen := make(map[string]bool)

	for _, name := range []string{"date_iso", "date_us", "date_european"} {
		for _, m := range patterns[name].FindAllString(s, -1) {
			if seen[m] {
				continue
			}
			if _, err := dateparse.ParseAny(m); err != nil {
				continue
			}
			seen[m] = true
			dates = append(dates, m)
		}
	}
	for _, name := range []string{"date_quarter", "date_month_year", "date_relative"} {
		for _, m := range patterns[name].FindAllString(s, -1) {
			if !seen[m] {
				seen[m] = true
				dates = append(dates, m)
			}
		}
	}
	return dates
}

func extractFileTypes(s string) []string {
	var types []string
	seen := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if label, ok := fileTypeHints[word]; ok && !seen[label] {
			seen[label] = true
			types = append(types, label)
		}
	}
	return types
}

// extractEntities returns capitalized tokens that do not start the text,
// with consecutive capitalized tokens merged into a single phrase.
func extractEntities(s string) []string {
	fields := strings.Fields(s)
	var entities []string
	seen := make(map[string]bool)

	var phrase []string
	flush := func() {
		if len(phrase) == 0 {
			return
		}
		e := strings.Join(phrase, " ")
		phrase = nil
		if !seen[e] {
			seen[e] = true
			entities = append(entities, e)
		}
	}

	for i, f := range fields {
		word := strings.Trim(f, ".,;:!?\"'()")
		if i > 0 && word != "" && patterns["capitalized_word"].MatchString(word) {
			phrase = append(phrase, word)
			continue
		}
		flush()
	}
	flush()
	return entities
}

// extractQueryVendors finds vendor hints in a query: capitalized phrases with
// a legal suffix and "from <name>" constructions, normalized lowercase with
// legal suffixes stripped.
func extractQueryVendors(s string) []string {
	var vendors []string
	seen := make(map[string]bool)
	add := func(v string) {
		v = normalizeVendor(v)
		if v != "" && !seen[v] {
			seen[v] = true
			vendors = append(vendors, v)
		}
	}

	for _, m := range patterns["vendor_legal_suffix"].FindAllStringSubmatch(s, -1) {
		add(m[1] + " " + m[2])
	}
	for _, m := range patterns["vendor_query_hint"].FindAllStringSubmatch(s, -1) {
		add(m[1])
	}
	return vendors
}

// normalizeVendor lowercases a vendor name, trims punctuation, and strips
// trailing legal-suffix tokens ("Google LLC" becomes "google").
func normalizeVendor(v string) string {
	v = strings.ToLower(strings.TrimRight(strings.TrimSpace(v), ".,;:"))
	words := strings.Fields(v)
	for len(words) > 1 && legalSuffixes[strings.TrimRight(words[len(words)-1], ".")] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// cleanText removes money, ID, and IBAN runs and collapses whitespace.
func cleanText(s string) string {
	cleaned := s
	for _, name := range []string{
		"money_symbol_amount", "money_code_amount", "money_amount_code",
		"id_prefixed", "iban",
	} {
		cleaned = patterns[name].ReplaceAllString(cleaned, " ")
	}
	// Bare IDs are removed only when they carry a digit, mirroring extractIDs.
	cleaned = patterns["id_bare"].ReplaceAllStringFunc(cleaned, func(m string) string {
		if strings.ContainsAny(m, "0123456789") {
			return " "
		}
		return m
	})

	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return s
	}
	return cleaned
}
