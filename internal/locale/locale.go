// Package locale resolves conversation languages and renders the bilingual
// message catalog.
package locale

import (
	"strings"
	"unicode"
)

// Language is a supported conversation language.
type Language string

const (
	English Language = "en"
	Hebrew  Language = "he"
)

// ParseLanguage maps a language tag to a supported Language. Anything that
// is not a Hebrew tag is treated as English.
func ParseLanguage(tag string) Language {
	tag = strings.ToLower(strings.TrimSpace(tag))
	base, _, _ := strings.Cut(strings.ReplaceAll(tag, "_", "-"), "-")
	switch base {
	case "he", "iw":
		return Hebrew
	default:
		return English
	}
}

// IsHebrew reports whether l is Hebrew.
func (l Language) IsHebrew() bool { return l == Hebrew }

// String implements fmt.Stringer.
func (l Language) String() string { return string(l) }

// DetectScript guesses the language of text from its letters. Any letter in
// the Hebrew Unicode block makes the text Hebrew. ok is false when text has
// no letters at all (ids, numbers, punctuation).
func DetectScript(text string) (lang Language, ok bool) {
	hasLetter := false
	for _, r := range text {
		if unicode.Is(unicode.Hebrew, r) {
			return Hebrew, true
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	if hasLetter {
		return English, true
	}
	return English, false
}

// ScriptOr returns the detected language of text, or fallback when text
// carries no letters.
func ScriptOr(text string, fallback Language) Language {
	if lang, ok := DetectScript(text); ok {
		return lang
	}
	if fallback == "" {
		return English
	}
	return fallback
}
