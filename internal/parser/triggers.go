package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/starford/voxnote/internal/locale"
)

// Intent is a command class signalled by a trigger phrase.
type Intent string

const (
	IntentCreate  Intent = "create"
	IntentSubNote Intent = "subnote"
	IntentUpdate  Intent = "update"
	IntentAppend  Intent = "append"
	IntentDelete  Intent = "delete"
)

// Triggers is the phrase table. A phrase matches when its words appear
// consecutively in the utterance; a word ending in "*" matches any word
// with that prefix (Hebrew attaches prepositions such as ל to the next word).
var Triggers = map[locale.Language]map[Intent][]string{
	locale.English: {
		IntentCreate:  {"create", "new", "add", "make", "write", "note down", "remember"},
		IntentSubNote: {"sub-note", "sub note", "subnote", "child note", "child-note"},
		IntentUpdate:  {"update", "change", "modify", "edit"},
		IntentAppend:  {"add to", "append"},
		IntentDelete:  {"delete", "remove", "erase"},
	},
	locale.Hebrew: {
		IntentCreate:  {"צור", "הוסף", "חדש", "כתוב", "רשום", "זכור", "תיצור", "תיצרי", "תיצרו"},
		IntentSubNote: {"תת רשומה", "תת-רשומה"},
		IntentUpdate:  {"עדכן", "שנה", "ערוך", "לעדכן", "תעדכן"},
		IntentAppend:  {"הוסף ל*", "תוסיף ל*"},
		IntentDelete:  {"מחק", "תמחק", "תמחוק", "למחוק", "הסר"},
	},
}

type phrase struct {
	text  string
	words []string
}

var compiled = compileTriggers(Triggers)

func compileTriggers(table map[locale.Language]map[Intent][]string) map[locale.Language]map[Intent][]phrase {
	out := make(map[locale.Language]map[Intent][]phrase, len(table))
	for lang, intents := range table {
		out[lang] = make(map[Intent][]phrase, len(intents))
		for intent, phrases := range intents {
			for _, p := range phrases {
				out[lang][intent] = append(out[lang][intent], phrase{text: p, words: strings.Fields(p)})
			}
			// Longer phrases first so the reported phrase is the most specific.
			sort.SliceStable(out[lang][intent], func(i, j int) bool {
				return len(out[lang][intent][i].words) > len(out[lang][intent][j].words)
			})
		}
	}
	return out
}

// Match reports whether text contains a trigger phrase for intent and
// returns the phrase that matched.
func Match(intent Intent, text string, lang locale.Language) (string, bool) {
	tokens := Tokenize(Normalize(text, lang))
	for _, p := range compiled[lang][intent] {
		if containsWords(tokens, p.words) {
			return p.text, true
		}
	}
	return "", false
}

func containsWords(tokens, words []string) bool {
	if len(words) == 0 || len(words) > len(tokens) {
		return false
	}
	for i := 0; i+len(words) <= len(tokens); i++ {
		if hasWordsAt(tokens, words, i) {
			return true
		}
	}
	return false
}

func hasWordsAt(tokens, words []string, at int) bool {
	for j, w := range words {
		tok := tokens[at+j]
		if prefix, ok := strings.CutSuffix(w, "*"); ok {
			if !strings.HasPrefix(tok, prefix) || len(tok) == len(prefix) {
				return false
			}
			continue
		}
		if tok != w {
			return false
		}
	}
	return true
}

var createPatterns = map[locale.Language]*regexp.Regexp{
	locale.English: regexp.MustCompile(`(?is)^(?:` + alternation(Triggers[locale.English][IntentCreate]) + `)(?:\s+|$)` +
		`(?:(?:a|an)(?:\s+|$))?(?:new(?:\s+|$))?(?:note(?:\s+|$))?(?:(?:called|named|titled)(?:\s+|$))?(.*)$`),
	locale.Hebrew: regexp.MustCompile(`(?s)^(?:` + alternation(Triggers[locale.Hebrew][IntentCreate]) + `)(?:\s+|$)` +
		`(?:רשומה(?:\s+|$))?(?:חדשה(?:\s+|$))?(?:(?:בשם|השם)(?:\s+|$))?(.*)$`),
}

// alternation builds a regexp alternation from phrases, longest first,
// allowing any run of whitespace between words.
func alternation(phrases []string) string {
	sorted := append([]string(nil), phrases...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	parts := make([]string, len(sorted))
	for i, p := range sorted {
		words := strings.Fields(p)
		for k := range words {
			words[k] = regexp.QuoteMeta(words[k])
		}
		parts[i] = strings.Join(words, `\s+`)
	}
	return strings.Join(parts, "|")
}

// StripCreate recognises a create command at the start of text and returns
// the remaining title with the trigger and its optional qualifiers ("a",
// "new", "note", "called"; "רשומה", "חדשה", "בשם") removed. ok is false when
// text does not start with a create trigger. The title may be empty.
func StripCreate(text string, lang locale.Language) (title string, ok bool) {
	re := createPatterns[lang]
	if re == nil {
		re = createPatterns[locale.English]
	}
	s := strings.TrimSpace(punctReplacer.Replace(normNFKC(text)))
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return trimTitle(m[1]), true
}

var searchPrefixRe = regexp.MustCompile(`(?i)^(?:find|note|list|search|תמצא(?:י|ו)?|מצא|חפש|רשימה|רשומה)\s+`)

// StripSearchPrefixes repeatedly removes leading search words ("find note",
// "תמצא רשומה") from a query.
func StripSearchPrefixes(query string) string {
	q := strings.TrimSpace(normNFKC(query))
	for {
		next := searchPrefixRe.ReplaceAllString(q, "")
		if next == q {
			break
		}
		q = strings.TrimSpace(next)
	}
	return trimTitle(q)
}
