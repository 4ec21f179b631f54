// Package textkey normalizes report text for matching.
package textkey

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Name trims the text and collapses inner whitespace to single spaces.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Key returns the accent-folded, lower-cased form of s with collapsed
// whitespace: "Evolución  de los RECURSOS" -> "evolucion de los recursos".
func Key(s string) string {
	return strings.ToLower(Fold(Name(s)))
}

// Fold strips combining marks after canonical decomposition.
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}

	return out
}

// Slug builds an upper-case identifier from free text, e.g.
// "Partidas no asignables" -> "PARTIDAS_NO_ASIGNABLES".
func Slug(s string) string {
	var b strings.Builder

	underscore := false

	for _, r := range strings.ToUpper(Fold(s)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)

			underscore = false

			continue
		}

		if !underscore && b.Len() > 0 {
			b.WriteByte('_')

			underscore = true
		}
	}

	return strings.TrimSuffix(b.String(), "_")
}

// ContainsAny reports whether key contains any of the keywords.
func ContainsAny(key string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(key, k) {
			return true
		}
	}

	return false
}
