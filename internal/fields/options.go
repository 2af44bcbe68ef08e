package fields

import (
	"regexp"
	"strings"

	"github.com/jonathan/apply-agent/internal/browser"
)

var placeholderPrefixes = []string{"select", "choose", "please select", "please choose", "--", "- "}

// IsPlaceholder reports whether an option text is a "Select..." style prompt.
func IsPlaceholder(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" || t == "-" {
		return true
	}
	for _, p := range placeholderPrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

// ChooseOption picks the option index for a dropdown: the first non-leading option whose
// text contains want (as a whole number when want is numeric, so "5" never matches
// "15 years"), else the first non-placeholder option after the leading one. Returns -1
// when the list has no usable option.
func ChooseOption(options []browser.Option, want string) int {
	if len(options) <= 1 {
		return -1
	}

	if want = strings.TrimSpace(want); want != "" {
		match := containsFold(want)
		if isNumber(want) {
			match = containsNumber(want)
		}
		for i := 1; i < len(options); i++ {
			if match(options[i].Text) {
				return i
			}
		}
	}

	for i := 1; i < len(options); i++ {
		if !IsPlaceholder(options[i].Text) {
			return i
		}
	}
	return -1
}

// MatchOption finds the option for a set of exact variants: exact text first, then exact
// value, then a whole-word match of any search term in the option text, then a plain
// substring match. Returns -1 when nothing matches.
func MatchOption(options []browser.Option, variants []string, search []string) int {
	for _, v := range variants {
		for i, o := range options {
			if strings.TrimSpace(o.Text) == v {
				return i
			}
		}
	}
	for _, v := range variants {
		for i, o := range options {
			if o.Value == v {
				return i
			}
		}
	}
	for _, s := range search {
		re := wordPattern(s)
		for i, o := range options {
			if re.MatchString(o.Text) {
				return i
			}
		}
	}
	for _, s := range search {
		match := containsFold(s)
		for i, o := range options {
			if !IsPlaceholder(o.Text) && match(o.Text) {
				return i
			}
		}
	}
	return -1
}

func containsFold(want string) func(string) bool {
	w := strings.ToLower(want)
	return func(s string) bool {
		return strings.Contains(strings.ToLower(s), w)
	}
}

func containsNumber(want string) func(string) bool {
	re := regexp.MustCompile(`(^|[^0-9])` + regexp.QuoteMeta(want) + `([^0-9]|$)`)
	return re.MatchString
}

// wordPattern matches term case-insensitively where it is not part of a longer word or number.
func wordPattern(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}])` + regexp.QuoteMeta(term) + `([^\p{L}\p{N}]|$)`)
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
