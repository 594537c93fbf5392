// Package parser interprets short utterances: trigger phrases, note titles
// and confirmation replies, in English and Hebrew.
package parser

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/starford/voxnote/internal/locale"
)

var punctReplacer = strings.NewReplacer(
	"־", "-", // hebrew maqaf
	"‐", "-",
	"‑", "-",
	"–", "-",
	"’", "'",
	"‘", "'",
	"׳", "'", // geresh
)

// Normalize applies NFKC, unifies hyphen and apostrophe variants and trims
// the text. Non-Hebrew text is lower-cased; Hebrew has no case.
func Normalize(text string, lang locale.Language) string {
	s := punctReplacer.Replace(norm.NFKC.String(text))
	s = strings.TrimSpace(s)
	if !lang.IsHebrew() {
		s = strings.ToLower(s)
	}
	return s
}

// Tokenize splits normalized text into words. Letters, digits and combining
// marks form words; inner hyphens and apostrophes are kept ("sub-note",
// "don't"); everything else separates.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.Is(unicode.Mn, r):
			return false
		case r == '-' || r == '\'':
			return false
		}
		return true
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "-'")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// trimTitle strips surrounding whitespace, quotes and trailing sentence
// punctuation from an extracted title.
func trimTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'“”״`)
	s = strings.TrimRight(s, ".,!?;:")
	return strings.TrimSpace(s)
}

func normNFKC(s string) string {
	return norm.NFKC.String(s)
}
