package similarity

import (
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
)

var stopWords = loadStopWords()

func loadStopWords() analysis.TokenMap {
	tm := analysis.NewTokenMap()
	if err := tm.LoadBytes(en.EnglishStopWords); err != nil {
		panic("similarity: cannot load english stop words: " + err.Error())
	}
	return tm
}

// IsStopWord reports whether the lowercase token is an English stop word.
func IsStopWord(token string) bool {
	return stopWords[token]
}

// Tokenize lowercases s, splits it on whitespace and on internal '-' and '/'
// separators, trims edge punctuation, and drops stop words. Order is preserved
// and duplicates are kept.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '/'
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if f == "" || IsStopWord(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
