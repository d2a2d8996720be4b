package analysis

import "regexp"

// amountPattern matches a numeric amount with "." as the decimal point and
// "," or space as thousands separators.
const amountPattern = `\d{1,3}(?:[, ]\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?`

// patterns is the read-only table of all precompiled recognizers, keyed by
// name so log lines can reference the pattern that fired.
var patterns = map[string]*regexp.Regexp{
	// Money. Currency precedence at parse time: symbol, then explicit ISO
	// code, then USD.
	"money_symbol_amount": regexp.MustCompile(`([$€£¥])\s?(` + amountPattern + `)`),
	"money_code_amount":   regexp.MustCompile(`\b(USD|EUR|GBP|CZK|PLN|JPY|CHF|CAD|AUD)\s?(` + amountPattern + `)`),
	"money_amount_code":   regexp.MustCompile(`\b(` + amountPattern + `)\s?(USD|EUR|GBP|CZK|PLN|JPY|CHF|CAD|AUD|Kč|zł|dollars?|euros?|pounds?|crowns?|korun)\b`),

	// Identifiers.
	"id_prefixed": regexp.MustCompile(`\b[A-Z]{2,}-\d{4,}\b`),
	"id_bare":     regexp.MustCompile(`\b[A-Z0-9]{8,}\b`),
	"email":       regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
	"iban":        regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{10,30}\b`),
	"phone":       regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`),
	"long_number": regexp.MustCompile(`\b\d{6,}\b`),
	"tax_id":      regexp.MustCompile(`\b(?:VAT|TAX|EIN|TIN|DIČ|IČO)[-:\s]{0,2}[A-Z0-9][A-Z0-9-]{5,}\b`),

	// Dates. The analyzer only tags the span; downstream treats it as a
	// filter hint, not an absolute instant.
	"date_iso":        regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	"date_us":         regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	"date_european":   regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\.\d{4}\b`),
	"date_quarter":    regexp.MustCompile(`\b[Qq][1-4]\s+\d{4}\b`),
	"date_month_year": regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{4}\b`),
	"date_relative":   regexp.MustCompile(`(?i)\b(?:last|this|next)\s+(?:week|month|quarter|year)\b`),

	// Vendor heuristics.
	"vendor_label":        regexp.MustCompile(`(?m)\b(?:From|Vendor|Company|Supplier|Provider|Seller|Sold by|Billed by|Issued by):\s*([A-Z][^\n,;|]{0,60})`),
	"vendor_legal_suffix": regexp.MustCompile(`\b([A-Z][\w&]*(?:\s+[A-Z][\w&]*)*)\s+(Inc|LLC|Ltd|Corp|Corporation|GmbH|AG|SA|sro|s\.r\.o\.|a\.s\.)\.?`),
	"vendor_query_hint":   regexp.MustCompile(`(?i)\bfrom\s+([\p{L}][\w&.-]*)`),

	// Capitalized token, used by the entity pass.
	"capitalized_word": regexp.MustCompile(`^\p{Lu}[\p{Ll}\p{Lu}\d&.-]+$`),
}

// legalSuffixes are stripped from the tail of a detected vendor name.
var legalSuffixes = map[string]bool{
	"inc": true, "llc": true, "ltd": true, "corp": true, "corporation": true,
	"gmbh": true, "ag": true, "sa": true, "sro": true, "s.r.o.": true, "a.s.": true,
}

// symbolCurrencies maps currency symbols to ISO codes.
var symbolCurrencies = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"¥": "JPY",
}

// wordCurrencies maps currency words and local symbols to ISO codes.
var wordCurrencies = map[string]string{
	"dollar": "USD", "dollars": "USD",
	"euro": "EUR", "euros": "EUR",
	"pound": "GBP", "pounds": "GBP",
	"crown": "CZK", "crowns": "CZK", "korun": "CZK", "kč": "CZK",
	"zł": "PLN",
}

// fileTypeHints is the closed set of file-type words recognized in queries,
// mapping each hint to its canonical file kind label.
var fileTypeHints = map[string]string{
	"pdf":         "pdf",
	"csv":         "csv",
	"xlsx":        "spreadsheet",
	"xls":         "spreadsheet",
	"spreadsheet": "spreadsheet",
	"png":         "image",
	"jpg":         "image",
	"jpeg":        "image",
	"gif":         "image",
	"image":       "image",
	"photo":       "image",
	"picture":     "image",
	"txt":         "text",
	"md":          "text",
	"json":        "text",
	"xml":         "text",
	"yaml":        "text",
	"ini":         "text",
	"document":    "document",
	"invoice":     "invoice",
	"receipt":     "receipt",
	"contract":    "contract",
}
