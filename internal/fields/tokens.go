package fields

import (
	"strings"
	"unicode"
)

// Tokens is the normalized, lowercase token set of a field's identifying strings.
type Tokens struct {
	list []string
	set  map[string]bool
}

// Tokenize splits each part on separators, camelCase and letter/digit boundaries.
// "phoneCountry", "phone_country" and "Phone country" all yield {phone, country}.
func Tokenize(parts ...string) Tokens {
	t := Tokens{set: map[string]bool{}}
	for _, p := range parts {
		for _, tok := range splitWords(p) {
			if !t.set[tok] {
				t.set[tok] = true
				t.list = append(t.list, tok)
			}
		}
	}
	return t
}

// Has reports whether tok is present.
func (t Tokens) Has(tok string) bool {
	return t.set[tok]
}

// Any reports whether any of toks is present.
func (t Tokens) Any(toks ...string) bool {
	for _, tok := range toks {
		if t.set[tok] {
			return true
		}
	}
	return false
}

// Len returns the number of distinct tokens.
func (t Tokens) Len() int {
	return len(t.list)
}

// Slice returns the tokens in first-seen order.
func (t Tokens) Slice() []string {
	return append([]string(nil), t.list...)
}

func (t Tokens) String() string {
	return strings.Join(t.list, " ")
}

func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			switch {
			case unicode.IsLower(prev) && unicode.IsUpper(r):
				flush()
			case unicode.IsUpper(prev) && unicode.IsUpper(r) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				// "URLField" -> url, field
				flush()
			case unicode.IsDigit(prev) != unicode.IsDigit(r):
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}
