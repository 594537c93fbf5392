package parser

import (
	"regexp"
	"strings"

	"github.com/starford/voxnote/internal/locale"
)

// TitleResult is the outcome of a sub-note title extraction.
type TitleResult struct {
	Title   string
	Success bool
}

type titleRules struct {
	marker  *regexp.Regexp
	subNote *regexp.Regexp
	// words that can never be a title on their own
	reserved map[string]bool
}

var titleRuleSet = map[locale.Language]titleRules{
	locale.English: {
		marker:  regexp.MustCompile(`(?i)\b(?:called|named|titled)\s+["'“”]?([^"'“”]+)["'“”]?`),
		subNote: regexp.MustCompile(`(?i)\b(?:sub[- ]?note|child[- ]note)s?\s+["'“”]?([^"'“”]+)["'“”]?`),
		reserved: wordSet("sub", "note", "notes", "sub-note", "subnote", "child", "child-note",
			"called", "named", "titled", "a", "an", "the"),
	},
	locale.Hebrew: {
		marker:   regexp.MustCompile(`(?:^|\s)(?:בשם|השם)\s+["'״]?([^"'״]+)["'״]?`),
		subNote:  regexp.MustCompile(`תת[- ]?רשומה\s+["'״]?([^"'״]+)["'״]?`),
		reserved: wordSet("תת", "רשומה", "תת-רשומה", "בשם", "השם", "חדשה"),
	},
}

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// ExtractSubNoteTitle pulls the title out of a sub-note request. It tries,
// in order: text after a naming word ("called", "בשם"), text after the
// sub-note phrase itself, and finally the last word when the utterance has
// more than two words.
func ExtractSubNoteTitle(text string, lang locale.Language) TitleResult {
	rules, ok := titleRuleSet[lang]
	if !ok {
		rules = titleRuleSet[locale.English]
	}
	s := strings.TrimSpace(punctReplacer.Replace(normNFKC(text)))

	for _, re := range []*regexp.Regexp{rules.marker, rules.subNote} {
		if m := re.FindStringSubmatch(s); m != nil {
			if title := trimTitle(m[1]); title != "" {
				return TitleResult{Title: title, Success: true}
			}
		}
	}

	words := strings.Fields(s)
	if len(words) > 2 {
		last := trimTitle(words[len(words)-1])
		if last != "" && !rules.reserved[strings.ToLower(last)] {
			return TitleResult{Title: last, Success: true}
		}
	}
	return TitleResult{}
}
