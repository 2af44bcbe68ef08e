package selector

import "github.com/jonathan/apply-agent/internal/browser"

var (
	css   = browser.CSS
	xpath = browser.XPath
)

// Listing page.
var (
	// JobLinks finds job-card links on a search results page.
	JobLinks = NewStrategy("job links",
		css("a.job-card-container__link.job-card-list__title"),
		css("a[data-control-name='job_card_click']"),
		css("a.job-card-list__title-link"),
		css("a[href*='/jobs/view/']"),
		css(".jobs-search-results__list-item a[href*='/jobs/view/']"),
		css(".job-card-container a[href*='/jobs/view/']"),
		css(".jobs-search-results-list a[href*='/jobs/view/']"),
		css("a[data-control-name*='job']"),
	)

	// JobLinksFallback is the minimal generic rescan used after scrolling.
	JobLinksFallback = NewStrategy("job links fallback",
		css("a[href*='/jobs/view/']"),
	)
)

// Job page.
var (
	// CompanyName finds the employer name in the job top card.
	CompanyName = NewStrategy("company name",
		css(".jobs-unified-top-card__company-name a"),
		css(".jobs-unified-top-card__company-name"),
		css(".topcard__org-name-link"),
		css(".job-details-jobs-unified-top-card__company-name"),
	)

	// ApplyButton finds the apply affordance, Easy Apply variants first.
	ApplyButton = NewStrategy("apply button",
		css("button.jobs-apply-button").WithText("Easy Apply"),
		css("button").WithText("Easy Apply"),
		css("a").WithText("Easy Apply"),
		css("button.jobs-apply-button"),
		css("button").WithText("Apply"),
		css("a").WithText("Apply"),
		css("span").WithText("apply"),
		css("input[type='submit'], input[type='button']").WithText("apply"),
	)
)

// Easy Apply modal.
var (
	// Progression finds the control that advances a multi-step form.
	Progression = NewStrategy("progression control",
		css("button").WithText("Next"),
		css("button").WithText("Continue"),
		css("button").WithText("Submit"),
		css("button").WithText("Review"),
		css("button[aria-label*='Continue']"),
		css("button[aria-label*='Submit']"),
		css("button.artdeco-button--primary"),
	)
)

// Company sites.
var (
	// CookieConsent finds a cookie banner accept control.
	CookieConsent = NewStrategy("cookie consent",
		css("button").WithText("accept"),
		css("button").WithText("allow"),
		css("button").WithText("agree"),
		css("a").WithText("accept"),
		css("button[id*='accept']"),
		css("button[class*='accept']"),
		css("button[id*='cookie']"),
		css("button[class*='cookie']"),
		css(".cookie-accept, .accept-cookies, #cookie-accept, #accept-cookies"),
		css("button").WithText("ok"),
	)

	// ExternalApply finds an apply-like control on an employer site. Resolve it with
	// OpensForm so a form's own submit button is never taken for it.
	ExternalApply = NewStrategy("company site apply",
		css("button").WithText("apply"),
		css("a").WithText("apply"),
		css("input[type='button']").WithText("apply"),
		css("button").WithText("Join Us"),
		css("button").WithText("Get Started"),
	)

	// ExternalSubmit finds the submit control of an employer-site form. Resolve it with
	// SubmitsApplication to pass over search and newsletter boxes.
	ExternalSubmit = NewStrategy("company site submit",
		css("button[type='submit']"),
		css("input[type='submit']"),
		css("button").WithText("submit"),
		css("button").WithText("send"),
		css("button").WithText("apply"),
	)
)

// Forms.
var (
	// FormFields finds every fillable control.
	FormFields = NewStrategy("form fields",
		css("input:not([type='hidden']):not([type='submit']):not([type='button']), select, textarea"),
	)

	// FileInputs finds resume upload inputs.
	FileInputs = NewStrategy("file inputs", css("input[type='file']"))

	// RequiredTextFields finds required free-text inputs.
	RequiredTextFields = NewStrategy("required text fields",
		css("input[type='text'][required], input[required]:not([type]), textarea[required]"),
	)
)

// CountrySuggestions finds an autocomplete entry for the given country name.
func CountrySuggestions(name string) Strategy {
	return NewStrategy("country suggestion",
		css("[role='listbox'] [role='option']").WithText(name),
		css("[class*='dropdown'] div, [class*='menu'] div, [class*='autocomplete'] li").WithText(name),
		xpath("//div[contains(@class, 'dropdown') or contains(@class, 'menu')]//div[contains(text(), '"+name+"')]"),
	)
}

// Login page.
var (
	LoginUsername = NewStrategy("login username", css("input#username"), css("input[name='session_key']"))
	LoginPassword = NewStrategy("login password", css("input#password"), css("input[name='session_password']"))
	LoginSubmit   = NewStrategy("login submit", css("button[type='submit']"))

	// LoggedIn finds markers that only render for an authenticated session.
	LoggedIn = NewStrategy("logged in marker",
		css("a[href*='/feed/']"),
		css("button[aria-label*='Me']"),
		css("span").WithText("Me"),
	)
)
