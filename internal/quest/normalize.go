package quest

import (
	"strings"
	"unicode"
)

// NormalizeAnswer lowercases s, strips punctuation and symbols, and returns
// the set of remaining words. Word order and repetition are irrelevant when
// comparing answers.
func NormalizeAnswer(s string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// AnswersMatch reports whether two answers contain exactly the same set of
// normalized words.
func AnswersMatch(a, b string) bool {
	sa, sb := NormalizeAnswer(a), NormalizeAnswer(b)
	if len(sa) != len(sb) {
		return false
	}
	for w := range sa {
		if _, ok := sb[w]; !ok {
			return false
		}
	}
	return len(sa) > 0
}
