package analysis

import "strings"

// Metadata is the structured-field extraction for a chunk of stored text.
// It reuses the query recognizers plus a richer keyword pass and the vendor
// heuristics.
type Metadata struct {
	Keywords     []string
	Currency     string
	AmountsCents []int64
	Vendor       string
	Entities     []string
	FileType     string
	Dates        []string
}

// ExtractMetadata runs the full extraction pass over stored chunk text.
// Like AnalyzeQuery, it never fails; empty or unrecognizable text yields an
// empty record.
func ExtractMetadata(text string) *Metadata {
	md := &Metadata{}
	if strings.TrimSpace(text) == "" {
		return md
	}

	md.AmountsCents, md.Currency = extractAmounts(text)
	md.Keywords = extractKeywords(text)
	md.Vendor = extractVendor(text)
	md.Entities = extractEntities(text)
	md.Dates = extractDates(text)
	if types := extractFileTypes(text); len(types) > 0 {
		md.FileType = types[0]
	}
	return md
}

// extractAmounts collects every money expression; the currency of the first
// match wins (same precedence order as the query analyzer).
func extractAmounts(s string) ([]int64, string) {
	var amounts []int64
	currency := ""

	for _, m := range patterns["money_symbol_amount"].FindAllStringSubmatch(s, -1) {
		if cents, ok := parseAmountCents(m[2]); ok {
			amounts = append(amounts, cents)
			if currency == "" {
				currency = symbolCurrencies[m[1]]
			}
		}
	}
	for _, m := range patterns["money_code_amount"].FindAllStringSubmatch(s, -1) {
		if cents, ok := parseAmountCents(m[2]); ok {
			amounts = append(amounts, cents)
			if currency == "" {
				currency = strings.ToUpper(m[1])
			}
		}
	}
	for _, m := range patterns["money_amount_code"].FindAllStringSubmatch(s, -1) {
		if cents, ok := parseAmountCents(m[1]); ok {
			amounts = append(amounts, cents)
			if currency == "" {
				if iso, ok := wordCurrencies[strings.ToLower(m[2])]; ok {
					currency = iso
				} else {
					currency = "USD"
				}
			}
		}
	}
	return amounts, currency
}

// extractKeywords is the richer ingest-time keyword pass: pattern IDs,
// emails, IBANs, phones, long numbers, and tax identifiers.
func extractKeywords(s string) []string {
	var keywords []string
	seen := make(map[string]bool)
	add := func(matches []string) {
		for _, m := range matches {
			m = strings.TrimSpace(m)
			if m != "" && !seen[m] {
				seen[m] = true
				keywords = append(keywords, m)
			}
		}
	}

	add(extractIDs(s))
	add(patterns["long_number"].FindAllString(s, -1))
	add(patterns["tax_id"].FindAllString(s, -1))
	return keywords
}

// extractVendor applies the two vendor heuristics in priority order:
// explicit label ("Vendor: Acme Corp"), then capitalized phrase with a
// legal suffix ("Acme Corp GmbH"). The result is normalized lowercase.
func extractVendor(s string) string {
	if m := patterns["vendor_label"].FindStringSubmatch(s); m != nil {
		if v := normalizeVendor(m[1]); v != "" {
			return v
		}
	}
	if m := patterns["vendor_legal_suffix"].FindStringSubmatch(s); m != nil {
		if v := normalizeVendor(m[1] + " " + m[2]); v != "" {
			return v
		}
	}
	return ""
}
