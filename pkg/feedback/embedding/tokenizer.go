package embedding

import (
	"strings"
	"unicode"
)

// DefaultStopwords are common Italian function words that carry no topic.
var DefaultStopwords = []string{
	"il", "lo", "la", "le", "gli", "un", "uno", "una",
	"di", "da", "in", "con", "su", "per", "tra", "fra",
	"del", "della", "dei", "delle", "al", "alla", "ai", "alle",
	"e", "ed", "che", "ma", "o", "si", "ci", "mi", "ti",
	"è", "ha", "sono", "a",
}

// Tokenizer splits text into lower-cased word tokens, removing stopwords.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a new tokenizer with the given stopword list
func NewTokenizer(stopwords []string) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops}
}

// Tokenize splits text on anything that is not a letter, digit or apostrophe
// and drops stopwords. Elided articles ("l'insegnante") lose their prefix.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if word := t.processToken(current.String()); word != "" {
			tokens = append(tokens, word)
		}
		current.Reset()
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			current.WriteRune(unicode.ToLower(r))
		case r == '\'' || r == '’':
			// "l'aula" -> "aula"
			current.Reset()
		default:
			flush()
		}
	}
	flush()

	return tokens
}

func (t *Tokenizer) processToken(word string) string {
	if word == "" {
		return ""
	}
	if _, stop := t.stopwords[word]; stop {
		return ""
	}
	return word
}
