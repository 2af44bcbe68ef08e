package fields

import "github.com/jonathan/apply-agent/internal/types"

// Category is the outcome of classifying a field.
type Category string

const (
	// CategoryNone means no rule matched.
	CategoryNone Category = "none"
	// CategoryCountry routes to the country handler.
	CategoryCountry Category = "country"
	// CategoryPhoneCode routes to the phone-country-code handler.
	CategoryPhoneCode Category = "phone_country_code"
	// CategoryProfile fills a profile value; Classification.Key names it.
	CategoryProfile Category = "profile"
)

// Classification says how a field is filled.
type Classification struct {
	Category Category
	Key      string // profile key for CategoryProfile
}

func (c Classification) String() string {
	if c.Category == CategoryProfile {
		return string(c.Category) + ":" + c.Key
	}
	return string(c.Category)
}

type rule struct {
	key string
	any []string
}

// genericRules is the keyword table, in priority order.
var genericRules = []rule{
	{types.ProfileFirstName, []string{"first", "fname", "firstname", "given", "givenname", "forename"}},
	{types.ProfileLastName, []string{"last", "lname", "lastname", "family", "familyname", "surname"}},
	{types.ProfileEmail, []string{"email", "emailaddress", "mail"}},
	{types.ProfilePhoneNumber, []string{"phone", "mobile", "telephone", "tel", "phonenumber", "cell", "cellphone"}},
	{types.ProfileCity, []string{"city", "location", "town", "currentcity"}},
	{types.ProfileState, []string{"state", "region", "province"}},
	{types.ProfilePostalCode, []string{"postal", "zip", "zipcode", "pincode", "postcode", "postalcode", "pin"}},
	{types.ProfileExperienceYears, []string{"experience", "yoe"}},
	{types.ProfileCurrentCompany, []string{"company", "employer", "organization", "organisation"}},
	{types.ProfileLinkedInURL, []string{"linkedin"}},
	{types.ProfileCoverLetter, []string{"cover", "coverletter"}},
}

// profileFullName is a pseudo key resolved to "first last".
const profileFullName = "full_name"

var (
	phoneWords     = []string{"phone", "mobile", "telephone", "tel", "cell", "calling"}
	codeExclusions = []string{"postal", "zip", "pin", "post", "promo", "coupon", "referral", "discount", "area", "otp", "verification", "security"}
)

// Classify maps a token set to a handler. First match wins, most specific first:
// country, phone country code, full phone with code, then the generic keyword table.
func Classify(t Tokens) Classification {
	switch {
	case isCountry(t):
		return Classification{Category: CategoryCountry}
	case isPhoneCode(t):
		return Classification{Category: CategoryPhoneCode}
	case isFullPhone(t):
		return Classification{Category: CategoryProfile, Key: types.ProfilePhone}
	}

	for _, r := range genericRules {
		if t.Any(r.any...) {
			return Classification{Category: CategoryProfile, Key: r.key}
		}
	}

	if t.Has("name") && (t.Len() == 1 || t.Has("full")) || t.Has("fullname") {
		return Classification{Category: CategoryProfile, Key: profileFullName}
	}
	return Classification{Category: CategoryNone}
}

// isCountry matches country-like fields that are not about a dialing code.
func isCountry(t Tokens) bool {
	if !t.Any("country", "nation") {
		return false
	}
	return !t.Any("code", "dial") && !t.Any(phoneWords...)
}

func isPhoneCode(t Tokens) bool {
	if t.Any("full", "with") || t.Any(codeExclusions...) {
		return false
	}
	if t.Any("countrycode", "phonecode", "dialcode", "dial") {
		return true
	}
	if t.Has("code") {
		return true
	}
	return t.Has("country") && t.Any(phoneWords...)
}

func isFullPhone(t Tokens) bool {
	if !t.Any(phoneWords...) && !t.Any("phonefull", "fullphone") {
		return false
	}
	return t.Any("full", "phonefull", "fullphone") || (t.Has("with") && t.Has("code"))
}
