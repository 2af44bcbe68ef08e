package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfile_GetAndHas(t *testing.T) {
	p := NewProfile(map[string]string{
		" First_Name ": "Laxmana",
		"city":         "Hyderabad",
		"state":        "  ",
	})

	assert.Equal(t, "Laxmana", p.Get(ProfileFirstName))
	assert.True(t, p.Has(ProfileCity))
	assert.False(t, p.Has(ProfileState))
	assert.False(t, p.Has(ProfileEmail))
}

func TestProfile_CountryDefaults(t *testing.T) {
	var empty Profile
	assert.Equal(t, "India", empty.Country())
	assert.Equal(t, "IN", empty.CountryCode())
	assert.Equal(t, "+91", empty.DialCode())

	p := NewProfile(map[string]string{"country": "Germany", "country_code": "DE", "phone_country_code": "+49"})
	assert.Equal(t, "Germany", p.Country())
	assert.Equal(t, "DE", p.CountryCode())
	assert.Equal(t, "+49", p.DialCode())
}

func TestProfile_ImmutableCopy(t *testing.T) {
	src := map[string]string{"city": "Hyderabad"}
	p := NewProfile(src)
	src["city"] = "Pune"

	assert.Equal(t, "Hyderabad", p.Get(ProfileCity))

	q := p.With(ProfileCity, "Chennai")
	assert.Equal(t, "Hyderabad", p.Get(ProfileCity))
	assert.Equal(t, "Chennai", q.Get(ProfileCity))
}

func TestProfile_FieldsSorted(t *testing.T) {
	p := NewProfile(map[string]string{"last_name": "Rao", "email": "a@b.c", "city": "X"})
	fields := p.Fields()
	assert.Equal(t, []ProfileField{
		{Key: "city", Value: "X"},
		{Key: "email", Value: "a@b.c"},
		{Key: "last_name", Value: "Rao"},
	}, fields)
}
