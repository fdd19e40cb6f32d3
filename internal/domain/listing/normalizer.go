package listing

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ---------------------------------------------------------------------------
// Identifier Normalization
// ---------------------------------------------------------------------------
//
// All identifier matching goes through these canonical forms. The functions
// are pure and idempotent: normalizing an already-normalized value returns it
// unchanged. An empty string means "no usable identifier".

// NormalizeMarketplaceCode canonicalizes a marketplace product code (e.g. an
// ASIN). Returns the trimmed, uppercased code, or "" when the input is empty
// or whitespace only.
func NormalizeMarketplaceCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// NormalizeSellerCode canonicalizes a seller-assigned SKU. Same rules as
// marketplace codes: trim and uppercase, "" when nothing remains.
func NormalizeSellerCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// FingerprintTitle reduces a free-text listing title to a fuzzy-matching key:
// NFKC-folded, lowercased, punctuation replaced with spaces, whitespace
// collapsed to single spaces. Punctuation acts as a word boundary, so
// hyphen-joined compounds like "Makita-DHP481" split the same way their
// spaced form does. Titles differing only in case, punctuation, or spacing
// fingerprint identically; titles differing in substantive words do not.
// Returns "" when no letters or digits survive.
func FingerprintTitle(raw string) string {
	folded := strings.ToLower(norm.NFKC.String(raw))

	var b strings.Builder
	b.Grow(len(folded))
	lastWasSpace := true // leading whitespace is dropped
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastWasSpace = false
		default:
			// punctuation, symbols, and whitespace all separate words
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		}
	}

	return strings.TrimRight(b.String(), " ")
}
