// Package textnorm provides diacritic-insensitive text normalization and
// tokenization used by ingestion, the suggestion index, and search scoring.
// All functions are pure and idempotent: Normalize(Normalize(s)) == Normalize(s).
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks decomposes to NFD, drops all combining marks, and recomposes.
// "datová" and "datova" fold to the same string.
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// tokenSeparators are the rune classes Tokenize splits on, in addition to
// unicode whitespace.
const tokenSeparators = "-_.,;:!?(){}[]<>/\"'"

// Normalize folds diacritics, lowercases, collapses runs of whitespace to a
// single space, and trims. Non-transformable input falls back to the original
// string (callers are expected to pre-decode bytes to valid UTF-8).
func Normalize(s string) string {
	return normalize(s, true)
}

// NormalizeQuery normalizes a user query for matching. Identical to Normalize;
// kept as a separate name so call sites read as intent.
func NormalizeQuery(s string) string {
	return Normalize(s)
}

// NormalizeForEmbedding folds diacritics and collapses whitespace but
// preserves case, which embedding models are sensitive to.
func NormalizeForEmbedding(s string) string {
	return normalize(s, false)
}

// CreateSearchableText joins the non-empty parts with single spaces and
// normalizes the result. This is the canonical derivation of a chunk's
// searchable_text field.
func CreateSearchableText(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return Normalize(strings.Join(nonEmpty, " "))
}

// Tokenize normalizes s and splits it on whitespace and common punctuation.
// Tokens shorter than 2 runes are dropped.
func Tokenize(s string) []string {
	normalized := Normalize(s)
	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(tokenSeparators, r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func normalize(s string, lowercase bool) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(foldMarks, s)
	if err != nil {
		folded = s
	}
	if lowercase {
		folded = strings.ToLower(folded)
	}
	return strings.Join(strings.Fields(folded), " ")
}
