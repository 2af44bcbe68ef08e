package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  []string
	}{
		{"snake case", []string{"phone_country"}, []string{"phone", "country"}},
		{"camel case", []string{"phoneCountry"}, []string{"phone", "country"}},
		{"acronym", []string{"URLField"}, []string{"url", "field"}},
		{"digits", []string{"address2Line"}, []string{"address", "2", "line"}},
		{"dedup across parts", []string{"email", "Email Address"}, []string{"email", "address"}},
		{"brackets", []string{"applicant[first_name]"}, []string{"applicant", "first", "name"}},
		{"empty", []string{"", "  "}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.parts...)
			if tt.want == nil {
				assert.Equal(t, 0, got.Len())
				return
			}
			assert.Equal(t, tt.want, got.Slice())
		})
	}
}

func TestTokens_HasAny(t *testing.T) {
	tok := Tokenize("countryCode")
	assert.True(t, tok.Has("country"))
	assert.True(t, tok.Any("zip", "code"))
	assert.False(t, tok.Any("zip", "postal"))
	assert.Equal(t, "country code", tok.String())
}
