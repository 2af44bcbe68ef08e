package types

import (
	"sort"
	"strings"
)

// Profile keys understood by the form filler.
const (
	ProfileFirstName        = "first_name"
	ProfileLastName         = "last_name"
	ProfileEmail            = "email"
	ProfilePhone            = "phone" // fully-qualified, e.g. +91-7993803176
	ProfilePhoneNumber      = "phone_number"
	ProfilePhoneCountryCode = "phone_country_code"
	ProfileCity             = "city"
	ProfileState            = "state"
	ProfileCountry          = "country"
	ProfileCountryCode      = "country_code"
	ProfilePostalCode       = "postal_code"
	ProfileExperienceYears  = "experience_years"
	ProfileCurrentCompany   = "current_company"
	ProfileLinkedInURL      = "linkedin_url"
	ProfileCoverLetter      = "cover_letter"
)

// Defaults applied when the profile leaves the country fields empty.
const (
	DefaultCountry          = "India"
	DefaultCountryCode      = "IN"
	DefaultPhoneCountryCode = "+91"
)

// ProfileField is one semantic category and its value.
type ProfileField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Profile is the immutable applicant data set. The zero value is an empty profile.
type Profile struct {
	values map[string]string
}

// NewProfile copies the given values into a Profile. Keys are lowercased and trimmed.
func NewProfile(values map[string]string) Profile {
	p := Profile{values: make(map[string]string, len(values))}
	for k, v := range values {
		p.values[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return p
}

// Get returns the value for key, or "".
func (p Profile) Get(key string) string {
	return p.values[key]
}

// Has reports whether key has a non-empty value.
func (p Profile) Has(key string) bool {
	return strings.TrimSpace(p.values[key]) != ""
}

// Country returns the applicant country name, defaulting to India.
func (p Profile) Country() string {
	if p.Has(ProfileCountry) {
		return p.Get(ProfileCountry)
	}
	return DefaultCountry
}

// CountryCode returns the ISO country code, defaulting to IN.
func (p Profile) CountryCode() string {
	if p.Has(ProfileCountryCode) {
		return p.Get(ProfileCountryCode)
	}
	return DefaultCountryCode
}

// DialCode returns the phone country code, defaulting to +91.
func (p Profile) DialCode() string {
	if p.Has(ProfilePhoneCountryCode) {
		return p.Get(ProfilePhoneCountryCode)
	}
	return DefaultPhoneCountryCode
}

// FullName joins first and last name.
func (p Profile) FullName() string {
	return strings.TrimSpace(p.Get(ProfileFirstName) + " " + p.Get(ProfileLastName))
}

// Fields returns the profile as a key-sorted slice.
func (p Profile) Fields() []ProfileField {
	out := make([]ProfileField, 0, len(p.values))
	for k, v := range p.values {
		out = append(out, ProfileField{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// With returns a copy of the profile with key set to value.
func (p Profile) With(key, value string) Profile {
	values := make(map[string]string, len(p.values)+1)
	for k, v := range p.values {
		values[k] = v
	}
	values[key] = value
	return Profile{values: values}
}
