package selector

import (
	"net/url"
	"strings"

	"github.com/jonathan/apply-agent/internal/browser"
)

// Platform represents a known applicant tracking system.
type Platform string

const (
	// PlatformGreenhouse is the Greenhouse ATS platform
	PlatformGreenhouse Platform = "greenhouse"
	// PlatformLever is the Lever ATS platform
	PlatformLever Platform = "lever"
	// PlatformWorkday is the Workday ATS platform
	PlatformWorkday Platform = "workday"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the ATS from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Host)
	switch {
	case strings.Contains(host, "greenhouse.io"):
		return PlatformGreenhouse
	case strings.Contains(host, "lever.co"):
		return PlatformLever
	case strings.Contains(host, "workday.com"), strings.Contains(host, "myworkdayjobs.com"):
		return PlatformWorkday
	default:
		return PlatformUnknown
	}
}

// ApplyFor returns the apply strategy for a platform, platform-specific locators first.
func ApplyFor(p Platform) Strategy {
	switch p {
	case PlatformGreenhouse:
		return NewStrategy("greenhouse apply",
			browser.CSS("#apply_button"),
			browser.CSS("a[href*='#app']"),
		).Then(ExternalApply)
	case PlatformLever:
		return NewStrategy("lever apply",
			browser.CSS("a.postings-btn[href*='/apply']"),
			browser.CSS("a[data-qa='show-page-apply']"),
		).Then(ExternalApply)
	case PlatformWorkday:
		return NewStrategy("workday apply",
			browser.CSS("a[data-automation-id='adventureButton']"),
			browser.CSS("button[data-automation-id='applyManually']"),
		).Then(ExternalApply)
	default:
		return ExternalApply
	}
}

// SubmitFor returns the submit strategy for a platform, platform-specific locators first.
func SubmitFor(p Platform) Strategy {
	switch p {
	case PlatformGreenhouse:
		return NewStrategy("greenhouse submit",
			browser.CSS("#submit_app"),
			browser.CSS("button[type='submit']").WithText("Submit"),
		).Then(ExternalSubmit)
	case PlatformLever:
		return NewStrategy("lever submit",
			browser.CSS("button[data-qa='btn-submit']"),
			browser.CSS("#btn-submit"),
		).Then(ExternalSubmit)
	case PlatformWorkday:
		return NewStrategy("workday submit",
			browser.CSS("button[data-automation-id='bottom-navigation-next-button']"),
		).Then(ExternalSubmit)
	default:
		return ExternalSubmit
	}
}

// OpensForm reports whether an apply-like control leads to a form rather than submitting one.
func OpensForm(e browser.Element) bool {
	if strings.EqualFold(e.Attr("type"), "submit") {
		return false
	}
	return !strings.Contains(strings.ToLower(e.Caption()), "submit")
}

var notApplicationSubmit = []string{"search", "subscribe", "newsletter", "sign in", "log in", "login"}

// SubmitsApplication reports whether a submit-like control belongs to an application form.
func SubmitsApplication(e browser.Element) bool {
	if strings.EqualFold(e.Attr("role"), "search") {
		return false
	}
	caption := strings.ToLower(e.Caption() + " " + e.Attr("id") + " " + e.Attr("name"))
	for _, word := range notApplicationSubmit {
		if strings.Contains(caption, word) {
			return false
		}
	}
	return true
}
