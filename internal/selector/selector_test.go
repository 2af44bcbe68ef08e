package selector

import (
	"context"
	"testing"
	"time"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/browser/browsertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func load(t *testing.T, page string) *browsertest.Browser {
	t.Helper()
	b := browsertest.New().AddPage("https://example.com/", page)
	require.NoError(t, b.Navigate(context.Background(), "https://example.com/"))
	return b
}

func TestResolve_PriorityReportsFirstUsableLocator(t *testing.T) {
	b := load(t, `<html><body>
		<button id="a" hidden>A</button>
		<button id="b" disabled>B</button>
		<button id="c">C</button>
	</body></html>`)
	r := New(b, WithTimeout(0), WithLogger(zaptest.NewLogger(t)))

	s := NewStrategy("abc",
		browser.CSS("#a"),
		browser.CSS("#b"),
		browser.CSS("#c"),
	)
	res := r.Resolve(context.Background(), s)

	require.True(t, res.Found)
	assert.Equal(t, 2, res.Index)
	assert.Equal(t, "#c", res.Locator.Query)
	assert.Equal(t, "c", res.Element.Attr("id"))
}

func TestResolve_FirstSuccessShortCircuits(t *testing.T) {
	b := load(t, `<html><body><button id="x">Next</button><button id="y">Next</button></body></html>`)
	r := New(b, WithTimeout(0))

	res := r.Resolve(context.Background(), NewStrategy("s", browser.CSS("#x"), browser.CSS("#y")))
	require.True(t, res.Found)
	assert.Equal(t, 0, res.Index)
	assert.Len(t, res.Handles, 1)
}

func TestResolve_TextFilter(t *testing.T) {
	b := load(t, `<html><body>
		<button id="save">Save draft</button>
		<button id="cont" aria-label="Continue to next step"></button>
		<input id="sub" type="submit" value="Submit application">
	</body></html>`)
	r := New(b, WithTimeout(0))
	ctx := context.Background()

	res := r.Resolve(ctx, NewStrategy("continue", browser.CSS("button").WithText("continue")))
	require.True(t, res.Found)
	assert.Equal(t, "cont", res.Element.Attr("id"))

	res = r.Resolve(ctx, NewStrategy("submit", browser.CSS("input").WithText("SUBMIT")))
	require.True(t, res.Found)
	assert.Equal(t, "sub", res.Element.Attr("id"))

	res = r.Resolve(ctx, NewStrategy("review", browser.CSS("button").WithText("review")))
	assert.False(t, res.Found)
	assert.Equal(t, -1, res.Index)
}

func TestResolve_NotFoundIsNotAnError(t *testing.T) {
	b := load(t, `<html><body></body></html>`)
	r := New(b, WithTimeout(0))

	res := r.Resolve(context.Background(), NewStrategy("missing",
		browser.XPath("//button"),
		browser.CSS("button.none"),
	))
	assert.Equal(t, NotFound, res)
}

func TestResolve_WaitsForLateElement(t *testing.T) {
	b := load(t, `<html><body><div id="root"></div></body></html>`)
	r := New(b, WithTimeout(500*time.Millisecond), WithInterval(5*time.Millisecond))

	polls := 0
	accept := func(browser.Element) bool {
		polls++
		return polls >= 2
	}
	res := r.ResolveFunc(context.Background(), NewStrategy("root", browser.CSS("#root")), accept)
	assert.True(t, res.Found)
	assert.GreaterOrEqual(t, polls, 2)
}

func TestResolveAll(t *testing.T) {
	b := load(t, `<html><body>
		<a class="job" href="/jobs/view/1">One</a>
		<a class="job" href="/jobs/view/2" hidden>Two</a>
		<a class="job" href="/jobs/view/3">Three</a>
	</body></html>`)
	r := New(b, WithTimeout(0))

	res := r.ResolveAll(context.Background(), NewStrategy("jobs", browser.CSS(".none"), browser.CSS("a.job")))
	require.True(t, res.Found)
	assert.Equal(t, 1, res.Index)
	assert.Len(t, res.Handles, 2)
}

func TestResolveFunc_Predicate(t *testing.T) {
	b := load(t, `<html><body>
		<div class="jobs-unified-top-card__company-name"><a> </a></div>
		<div class="topcard__org-name-link">Acme</div>
	</body></html>`)
	r := New(b, WithTimeout(0))

	res := r.ResolveFunc(context.Background(), CompanyName, func(el browser.Element) bool { return el.Text != "" })
	require.True(t, res.Found)
	assert.Equal(t, "Acme", res.Element.Text)
	assert.Equal(t, 2, res.Index)
}

func TestResolve_CancelledContext(t *testing.T) {
	b := load(t, `<html><body><button>Next</button></body></html>`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New(b, WithTimeout(0)).Resolve(ctx, Progression)
	assert.False(t, res.Found)
}

func TestProbeDoesNotWait(t *testing.T) {
	b := load(t, `<html><body></body></html>`)
	r := New(b, WithTimeout(time.Minute))

	start := time.Now()
	assert.False(t, r.Probe().Exists(context.Background(), Progression))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStrategyThen(t *testing.T) {
	s := NewStrategy("a", browser.CSS("#a")).Then(NewStrategy("b", browser.CSS("#b")))
	assert.Equal(t, "a", s.Name)
	require.Len(t, s.Locators, 2)
	assert.Equal(t, "#b", s.Locators[1].Query)
}

func TestApplyButton_EasyApplyBeforeGenericApply(t *testing.T) {
	b := load(t, `<html><body>
		<button id="save">Save</button>
		<button id="apply">Apply</button>
		<button id="easy" class="jobs-apply-button">Easy Apply</button>
	</body></html>`)

	res := New(b, WithTimeout(0)).Resolve(context.Background(), ApplyButton)
	require.True(t, res.Found)
	assert.Equal(t, "easy", res.Element.Attr("id"))
	assert.Equal(t, 0, res.Index)
}

func TestProgression_Order(t *testing.T) {
	b := load(t, `<html><body>
		<button class="artdeco-button--primary" id="primary">Done</button>
		<button id="review">Review your application</button>
	</body></html>`)

	res := New(b, WithTimeout(0)).Resolve(context.Background(), Progression)
	require.True(t, res.Found)
	assert.Equal(t, "review", res.Element.Attr("id"))
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://boards.greenhouse.io/acme/jobs/1", PlatformGreenhouse},
		{"https://jobs.lever.co/acme/123", PlatformLever},
		{"https://acme.wd5.myworkdayjobs.com/en-US/careers", PlatformWorkday},
		{"https://careers.acme.com/apply", PlatformUnknown},
		{"::bad", PlatformUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectPlatform(tt.url), tt.url)
	}
}

func TestPlatformStrategies(t *testing.T) {
	gh := SubmitFor(PlatformGreenhouse)
	assert.Equal(t, "#submit_app", gh.Locators[0].Query)
	assert.Equal(t, ExternalSubmit.Locators[len(ExternalSubmit.Locators)-1], gh.Locators[len(gh.Locators)-1])

	assert.Equal(t, ExternalApply, ApplyFor(PlatformUnknown))
	assert.Greater(t, len(ApplyFor(PlatformLever).Locators), len(ExternalApply.Locators))
}

func TestApplyFor_SkipsFormSubmitButton(t *testing.T) {
	b := load(t, `<html><body>
		<nav><a id="jobs" href="/jobs">Jobs</a></nav>
		<form>
			<input id="email" type="email">
			<button id="submit_app" type="submit">Submit Application</button>
		</form>
	</body></html>`)
	r := New(b, WithTimeout(0))

	res := r.ResolveFunc(context.Background(), ApplyFor(PlatformGreenhouse), OpensForm)
	assert.False(t, res.Found)
}

func TestApplyFor_FindsApplyLink(t *testing.T) {
	b := load(t, `<html><body>
		<button id="search" type="submit">Search</button>
		<a id="go" href="/apply">Apply now</a>
	</body></html>`)
	r := New(b, WithTimeout(0))

	res := r.ResolveFunc(context.Background(), ApplyFor(PlatformUnknown), OpensForm)
	require.True(t, res.Found)
	assert.Equal(t, "go", res.Element.Attr("id"))
}

func TestSubmitFor_PassesOverSearchBox(t *testing.T) {
	b := load(t, `<html><body>
		<form role="search"><input id="q"><button id="search" type="submit">Search</button></form>
		<form>
			<input id="email" type="email">
			<button id="send" type="submit">Send application</button>
		</form>
	</body></html>`)
	r := New(b, WithTimeout(0))

	res := r.ResolveFunc(context.Background(), SubmitFor(PlatformUnknown), SubmitsApplication)
	require.True(t, res.Found)
	assert.Equal(t, "send", res.Element.Attr("id"))
}

func TestControlPredicates(t *testing.T) {
	el := func(tag, text string, attrs map[string]string) browser.Element {
		return browser.Element{Tag: tag, Text: text, Attrs: attrs}
	}

	assert.True(t, OpensForm(el("a", "Apply for this job", nil)))
	assert.True(t, OpensForm(el("button", "Apply", map[string]string{"type": "button"})))
	assert.False(t, OpensForm(el("button", "Apply", map[string]string{"type": "SUBMIT"})))
	assert.False(t, OpensForm(el("button", "Submit application", nil)))

	assert.True(t, SubmitsApplication(el("button", "Submit Application", map[string]string{"type": "submit"})))
	assert.False(t, SubmitsApplication(el("button", "Search", map[string]string{"type": "submit"})))
	assert.False(t, SubmitsApplication(el("button", "Go", map[string]string{"id": "search-submit"})))
	assert.False(t, SubmitsApplication(el("button", "Subscribe", nil)))
}
