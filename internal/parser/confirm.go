package parser

import (
	"strings"

	"github.com/starford/voxnote/internal/locale"
)

// Reply classifies an answer to a yes/no question.
type Reply string

const (
	ReplyYes       Reply = "yes"
	ReplyNo        Reply = "no"
	ReplyAmbiguous Reply = "ambiguous"
)

// Pending names the action a confirmation question is about. Delete
// questions accept extra affirmatives ("delete it", "תמחק").
type Pending string

const (
	PendingNone   Pending = ""
	PendingCreate Pending = "create"
	PendingUpdate Pending = "update"
	PendingDelete Pending = "delete"
)

// Confirmation is the result of ClassifyConfirmation.
type Confirmation struct {
	Reply  Reply
	Phrase string
}

type confirmPhrases struct {
	yes, no, deleteYes []string
}

var confirmations = map[locale.Language]confirmPhrases{
	locale.English: {
		yes: []string{"yes", "yeah", "yep", "ok", "okay", "sure", "add", "create", "go ahead", "do it", "confirm"},
		no:  []string{"no", "nope", "cancel", "don't", "do not", "stop", "never", "don't do it"},
		deleteYes: []string{"delete", "delete it", "yes delete", "remove", "remove it"},
	},
	locale.Hebrew: {
		yes: []string{"כן", "תוסיף", "צור", "הוסף", "בצע", "אשר", "לך על זה"},
		no:  []string{"לא", "בטל", "אל", "לא רוצה", "אל תבצע", "אל תוסיף", "אל תעדכן", "אל תמחק"},
		deleteYes: []string{"תמחק", "מחק", "כן תמחק", "כן מחק",
			"תמחק רשומה", "מחק רשומה", "כן תמחק רשומה", "כן מחק רשומה"},
	},
}

// ClassifyConfirmation decides whether text answers yes or no. The longest
// matching phrase wins; an utterance that matches neither list, or matches
// both with phrases of equal length, is ambiguous.
func ClassifyConfirmation(text string, lang locale.Language, pending Pending) Confirmation {
	phrases, ok := confirmations[lang]
	if !ok {
		phrases = confirmations[locale.English]
	}
	tokens := Tokenize(Normalize(text, lang))

	yes := phrases.yes
	if pending == PendingDelete {
		yes = append(append([]string(nil), yes...), phrases.deleteYes...)
	}
	yesPhrase, yesLen := longestMatch(tokens, yes)
	noPhrase, noLen := longestMatch(tokens, phrases.no)

	switch {
	case yesLen > noLen:
		return Confirmation{Reply: ReplyYes, Phrase: yesPhrase}
	case noLen > yesLen:
		return Confirmation{Reply: ReplyNo, Phrase: noPhrase}
	default:
		return Confirmation{Reply: ReplyAmbiguous}
	}
}

// IsBareConfirmation reports whether text is only a short yes or no, as
// opposed to content that happens to contain one.
func IsBareConfirmation(text string, lang locale.Language, pending Pending) bool {
	if len(Tokenize(Normalize(text, lang))) > 3 {
		return false
	}
	return ClassifyConfirmation(text, lang, pending).Reply != ReplyAmbiguous
}

func longestMatch(tokens []string, phrases []string) (string, int) {
	best, bestLen := "", 0
	for _, p := range phrases {
		words := strings.Fields(p)
		if len(words) > bestLen && containsWords(tokens, words) {
			best, bestLen = p, len(words)
		}
	}
	return best, bestLen
}
