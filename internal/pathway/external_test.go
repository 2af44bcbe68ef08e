package pathway

import (
	"context"
	"testing"

	"github.com/jonathan/apply-agent/internal/browser/browsertest"
	"github.com/jonathan/apply-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	greenhouseURL = "https://boards.greenhouse.io/acme/jobs/42"
	careersURL    = "https://careers.acme.example/jobs/42"
)

const greenhouseForm = `<div class="cookie-banner"><button id="cookie-ok">Accept cookies</button></div>
<form>
	<input id="first_name" name="first_name">
	<input id="email" name="email">
	<label for="why">Why Acme?</label><input id="why" name="question_1" required>
	<button id="submit_app" type="submit">Submit Application</button>
</form>`

const careersSearchPage = `<header>
	<form role="search"><input id="q" name="q" placeholder="Search jobs"><button id="search" type="submit">Search</button></form>
</header>
<h1>Analyst</h1>
<a id="go" href="#apply">Apply now</a>`

const noSubmitForm = `<form>
	<input id="first_name" name="first_name">
	<input id="email" name="email">
</form>`

func openOnClick(b *browsertest.Browser, url, page string) {
	b.OnClick("apply", func(b *browsertest.Browser) error {
		b.OpenWindow(url, page)
		return nil
	})
}

func TestExternal_Submitted(t *testing.T) {
	b := browsertest.New().AddPage(jobURL, jobPage("Acme", "Apply on company website"))
	openOnClick(b, greenhouseURL, greenhouseForm)
	h := newHarness(t, b, defaults())
	h.op.Answers = map[string]string{"Why Acme?": "Your analytics platform"}

	out := h.machine.Apply(context.Background(), job())

	assert.Equal(t, types.StatusApplied, out.Status)
	assert.Equal(t, types.ApplicationCompanySite, out.Type)
	assert.False(t, out.Ambiguous)

	assert.Equal(t, []string{
		`#apply click`,
		`#cookie-ok click`,
		`#first_name clear`,
		`#first_name type("Asha")`,
		`#email clear`,
		`#email type("asha@example.com")`,
		`#why clear`,
		`#why type("Your analytics platform")`,
		`#submit_app click`,
	}, b.Actions)

	require.Len(t, h.op.Asked, 1)
	assert.Equal(t, "Why Acme?", h.op.Asked[0].Field)
	assert.Equal(t, "Acme", h.op.Asked[0].Job.Company)

	assert.Equal(t, 1, b.Windows(), "company site window is closed")
	win, err := b.CurrentWindow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "main", win)

	require.Equal(t, 1, h.ledger.Len())
	assert.Equal(t, types.ApplicationCompanySite, h.ledger.Snapshot()[0].ApplicationType)
	assert.Equal(t, []State{StateOpened, StateDedupCheck, StateAffordanceSearch, StateExternalSite, StateSubmitted}, h.states)
}

func TestExternal_ApplyControlLeadsToForm(t *testing.T) {
	b := browsertest.New().AddPage(jobURL, jobPage("Acme", "Apply"))
	openOnClick(b, careersURL, `<h1>Analyst</h1><a id="go" href="#form">Apply for this job</a>`)
	b.OnClick("go", func(b *browsertest.Browser) error {
		b.SetHTML(`<form><input id="email" name="email"><button id="send" type="submit">Send</button></form>`)
		return nil
	})
	h := newHarness(t, b, defaults())

	out := h.machine.Apply(context.Background(), job())

	assert.Equal(t, types.StatusApplied, out.Status)
	assert.Equal(t, types.ApplicationCompanySite, out.Type)
	assert.Contains(t, b.Actions, `#go click`)
	assert.Contains(t, b.Actions, `#email type("asha@example.com")`)
	assert.Equal(t, `#send click`, b.Actions[len(b.Actions)-1])
}

func TestExternal_PartialSuccessPolicy(t *testing.T) {
	tests := []struct {
		name       string
		optimistic bool
		status     types.Status
		reason     string
		records    int
	}{
		{"optimistic", true, types.StatusApplied, types.ReasonPartialSuccess, 1},
		{"conservative", false, types.StatusFailed, types.ReasonNoSubmitControl, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := browsertest.New().AddPage(jobURL, jobPage("Acme", "Apply on company website"))
			openOnClick(b, careersURL, noSubmitForm)
			s := defaults()
			s.Optimistic = tt.optimistic
			h := newHarness(t, b, s)

			out := h.machine.Apply(context.Background(), job())

			assert.Equal(t, tt.status, out.Status)
			assert.Equal(t, tt.reason, out.Reason)
			assert.Equal(t, tt.optimistic, out.Ambiguous)
			assert.Equal(t, tt.records, h.ledger.Len())
			assert.Equal(t, 1, b.Windows())
		})
	}
}

func TestExternal_NothingFilled(t *testing.T) {
	b := browsertest.New().AddPage(jobURL, jobPage("Acme", "Apply on company website"))
	openOnClick(b, careersURL, `<p>Page not found</p>`)
	h := newHarness(t, b, defaults())

	out := h.machine.Apply(context.Background(), job())

	assert.Equal(t, types.StatusFailed, out.Status)
	assert.Equal(t, types.ReasonNothingFilled, out.Reason)
	assert.Zero(t, h.ledger.Len())
}

func TestExternal_ApplyControlTriedBeforeSearchBox(t *testing.T) {
	b := browsertest.New().AddPage(jobURL, jobPage("Acme", "Apply on company website"))
	openOnClick(b, careersURL, careersSearchPage)
	b.OnClick("go", func(b *browsertest.Browser) error {
		b.SetHTML(`<form role="search"><input id="q" name="q"><button id="search" type="submit">Search</button></form>
<form><input id="email" name="email"><button id="send" type="submit">Send application</button></form>`)
		return nil
	})
	h := newHarness(t, b, defaults())

	out := h.machine.Apply(context.Background(), job())

	assert.Equal(t, types.StatusApplied, out.Status)
	assert.False(t, out.Ambiguous)
	assert.Equal(t, []string{
		`#apply click`,
		`#go click`,
		`#email clear`,
		`#email type("asha@example.com")`,
		`#send click`,
	}, b.Actions)
	assert.Equal(t, 1, h.ledger.Len())
}

func TestExternal_SearchBoxIsNotAnApplication(t *testing.T) {
	b := browsertest.New().AddPage(jobURL, jobPage("Acme", "Apply on company website"))
	openOnClick(b, careersURL, careersSearchPage)
	h := newHarness(t, b, defaults())

	out := h.machine.Apply(context.Background(), job())

	assert.Equal(t, types.StatusFailed, out.Status)
	assert.Equal(t, types.ReasonNothingFilled, out.Reason)
	assert.Contains(t, b.Actions, `#go click`)
	assert.NotContains(t, b.Actions, `#search click`)
	assert.Zero(t, h.ledger.Len())
	assert.Equal(t, 1, b.Windows())
}

func TestExternal_CompanySitesDisabled(t *testing.T) {
	t.Run("external label is not clicked", func(t *testing.T) {
		b := browsertest.New().AddPage(jobURL, jobPage("Acme", "Apply on company website"))
		openOnClick(b, greenhouseURL, greenhouseForm)
		s := defaults()
		s.CompanySites = false
		h := newHarness(t, b, s)

		out := h.machine.Apply(context.Background(), job())

		assert.Equal(t, types.ReasonCompanySiteOff, out.Reason)
		assert.Empty(t, b.Actions)
	})

	t.Run("unexpected window is closed", func(t *testing.T) {
		b := browsertest.New().AddPage(jobURL, jobPage("Acme", "Apply"))
		openOnClick(b, greenhouseURL, greenhouseForm)
		s := defaults()
		s.CompanySites = false
		h := newHarness(t, b, s)

		out := h.machine.Apply(context.Background(), job())

		assert.Equal(t, types.ReasonCompanySiteOff, out.Reason)
		assert.Equal(t, 1, b.Windows())
		assert.Equal(t, []string{`#apply click`}, b.Actions)
	})
}
