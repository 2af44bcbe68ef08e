package pathway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonathan/apply-agent/internal/browser/browsertest"
	"github.com/jonathan/apply-agent/internal/fields"
	"github.com/jonathan/apply-agent/internal/ledger"
	"github.com/jonathan/apply-agent/internal/metrics"
	"github.com/jonathan/apply-agent/internal/operator"
	"github.com/jonathan/apply-agent/internal/selector"
	"github.com/jonathan/apply-agent/internal/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const jobURL = "https://jobs.example.com/jobs/view/1/"

var appliedAt = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func jobPage(company, button string) string {
	top := ""
	if company != "" {
		top = `<div class="jobs-unified-top-card__company-name"><a href="/company/x">` + company + `</a></div>`
	}
	return top + `<h1>Data Analyst</h1><button id="apply" class="jobs-apply-button">` + button + `</button>`
}

const contactStep = `<div role="dialog">
	<input id="fn" name="firstName">
	<input id="em" name="email">
	<button id="next">Next</button>
</div>`

type harness struct {
	b       *browsertest.Browser
	store   *ledger.MemoryStore
	ledger  *ledger.Ledger
	op      *operator.Scripted
	metrics *metrics.Recorder
	states  []State
	machine *Machine
}

func newHarness(t *testing.T, b *browsertest.Browser, s Settings) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	h := &harness{
		b:       b,
		store:   ledger.NewMemoryStore(),
		op:      &operator.Scripted{},
		metrics: metrics.NewRecorder(),
	}
	h.ledger = ledger.New(h.store, ledger.WithLogger(logger))
	r := selector.New(b, selector.WithTimeout(0), selector.WithLogger(logger))
	f := fields.NewFiller(b, types.NewProfile(map[string]string{
		"first_name":   "Asha",
		"last_name":    "Rao",
		"email":        "asha@example.com",
		"phone_number": "7993803176",
	}), fields.WithSuggestionWait(0), fields.WithLogger(logger))
	h.machine = New(r, f, h.ledger,
		WithSettings(s),
		WithOperator(h.op),
		WithMetrics(h.metrics),
		WithWindowWait(0),
		WithClock(func() time.Time { return appliedAt }),
		WithObserver(func(st State) { h.states = append(h.states, st) }),
		WithLogger(logger))
	return h
}

func defaults() Settings {
	return Settings{Dedup: true, CompanySites: true, MaxSteps: 5, Optimistic: true}
}

func job() types.JobPosting {
	return types.JobPosting{Title: "Data Analyst", URL: jobURL}
}

func count(actions []string, want string) int {
	n := 0
	for _, a := range actions {
		if a == want {
			n++
		}
	}
	return n
}

func TestEasyApply_Submitted(t *testing.T) {
	b := browsertest.New().AddPage(jobURL, jobPage("Acme", "Easy Apply"))
	b.OnClick("apply", func(b *browsertest.Browser) error {
		b.SetHTML(contactStep)
		return nil
	})
	b.OnClick("next", func(b *browsertest.Browser) error {
		b.SetHTML(`<div role="dialog"><button id="submit">Submit application</button></div>`)
		return nil
	})
	h := newHarness(t, b, defaults())

	out := h.machine.Apply(context.Background(), job())

	assert.Equal(t, types.StatusApplied, out.Status)
	assert.Equal(t, types.ApplicationEasyApply, out.Type)
	assert.False(t, out.Ambiguous)
	assert.Equal(t, 2, out.Steps)
	assert.Equal(t, "Acme", out.Job.Company)
	assert.Contains(t, b.Actions, `#fn type("Asha")`)
	assert.Contains(t, b.Actions, `#submit click`)
	assert.Equal(t, []State{StateOpened, StateDedupCheck, StateAffordanceSearch, StateEasyApply, StateSubmitted}, h.states)

	require.Equal(t, 1, h.ledger.Len())
	rec := h.ledger.Snapshot()[0]
	assert.Equal(t, "data analyst_acme", rec.Signature)
	assert.Equal(t, types.ApplicationEasyApply, rec.ApplicationType)
	assert.Equal(t, appliedAt, rec.AppliedAt)
	assert.Equal(t, jobURL, rec.URL)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Outcomes.WithLabelValues("applied", "easy_apply")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.FieldFills.WithLabelValues("filled")))
}

func TestEasyApply_StepCapAbandons(t *testing.T) {
	b := browsertest.New().AddPage(jobURL, jobPage("Acme", "Easy Apply"))
	b.OnClick("apply", func(b *browsertest.Browser) error {
		b.SetHTML(contactStep)
		return nil
	})
	h := newHarness(t, b, defaults())

	out := h.machine.Apply(context.Background(), job())

	assert.Equal(t, types.StatusFailed, out.Status)
	assert.Equal(t, types.ReasonStepLimit, out.Reason)
	assert.Equal(t, 5, out.Steps)
	assert.Equal(t, 5, count(b.Actions, "#next click"))
	assert.Equal(t, 0, h.ledger.Len())
	assert.Equal(t, StateAbandoned, h.states[len(h.states)-1])
	assert.Equal(t, 1, count(b.Actions, `#fn type("Asha")`), "second and later steps leave filled fields alone")
}

func TestEasyApply_CustomStepCap(t *testing.T) {
	b := browsertest.New().AddPage(jobURL, jobPage("Acme", "Easy Apply"))
	b.OnClick("apply", func(b *browsertest.Browser) error {
		b.SetHTML(contactStep)
		return nil
	})
	s := defaults()
	s.MaxSteps = 2
	h := newHarness(t, b, s)

	out := h.machine.Apply(context.Background(), job())

	assert.Equal(t, types.ReasonStepLimit, out.Reason)
	assert.Equal(t, 2, count(b.Actions, "#next click"))
}

func TestEasyApply_ConfirmationAfterClick(t *testing.T) {
	b := browsertest.New().AddPage(jobURL, jobPage("Acme", "Easy Apply"))
	b.OnClick("apply", func(b *browsertest.Browser) error {
		b.SetHTML(contactStep)
		return nil
	})
	b.OnClick("next", func(b *browsertest.Browser) error {
		b.SetHTML(`<div role="dialog"><h2>Thank you for applying!</h2><button id="done">Done</button></div>`)
		return nil
	})
	h := newHarness(t, b, defaults())

	out := h.machine.Apply(context.Background(), job())

	assert.Equal(t, types.StatusApplied, out.Status)
	assert.False(t, out.Ambiguous)
	assert.Equal(t, 1, out.Steps)
	assert.Equal(t, 1, h.ledger.Len())
}

func TestEasyApply_AmbiguousSuccess(t *testing.T) {
	b := browsertest.New().AddPage(jobURL, jobPage("Acme", "Easy Apply"))
	b.OnClick("apply", func(b *browsertest.Browser) error {
		b.SetHTML(contactStep)
		return nil
	})
	b.OnClick("next", func(b *browsertest.Browser) error {
		b.SetHTML(`<div role="dialog"><p>Your details were sent.</p></div>`)
		return nil
	})
	h := newHarness(t, b, defaults())

	out := h.machine.Apply(context.Background(), job())

	assert.Equal(t, types.StatusApplied, out.Status)
	assert.True(t, out.Ambiguous)
	assert.Equal(t, types.ReasonSubmissionAmbiguous, out.Reason)
	assert.Equal(t, 2, out.Steps)
	assert.Equal(t, 1, h.ledger.Len())
}

func TestEasyApply_NoProgression(t *testing.T) {
	b := browsertest.New().AddPage(jobURL, jobPage("Acme", "Easy Apply"))
	b.OnClick("apply", func(b *browsertest.Browser) error {
		b.SetHTML(`<div role="dialog"><p>Something went wrong</p></div>`)
		return nil
	})
	h := newHarness(t, b, defaults())

	out := h.machine.Apply(context.Background(), job())

	assert.Equal(t, types.StatusFailed, out.Status)
	assert.Equal(t, types.ReasonNoProgression, out.Reason)
	assert.Equal(t, 0, h.ledger.Len())
}

func TestApply_DedupEndToEnd(t *testing.T) {
	second := "https://jobs.example.com/jobs/view/2/"
	b := browsertest.New().
		AddPage(jobURL, jobPage("Acme", "Easy Apply")).
		AddPage(second, jobPage("ACME", "Easy Apply"))
	b.OnClick("apply", func(b *browsertest.Browser) error {
		b.SetHTML(`<div role="dialog"><button id="submit">Submit application</button></div>`)
		return nil
	})
	h := newHarness(t, b, defaults())

	first := h.machine.Apply(context.Background(), types.JobPosting{Title: "Data Analyst", URL: jobURL})
	require.Equal(t, types.StatusApplied, first.Status)
	assert.Equal(t, 1, h.ledger.Len())

	h.states = nil
	again := h.machine.Apply(context.Background(), types.JobPosting{Title: "data analyst", URL: second})
	assert.Equal(t, types.StatusSkipped, again.Status)
	assert.Equal(t, types.ReasonAlreadyApplied, again.Reason)
	assert.Equal(t, 1, h.ledger.Len())
	assert.Equal(t, []State{StateOpened, StateDedupCheck, StateSkipped}, h.states)
	assert.Equal(t, 1, count(b.Actions, "#apply click"))
}

func TestApply_DedupDisabledKeepsOneRecord(t *testing.T) {
	b := browsertest.New().AddPage(jobURL, jobPage("Acme", "Easy Apply"))
	b.OnClick("apply", func(b *browsertest.Browser) error {
		b.SetHTML(`<div role="dialog"><button id="submit">Submit application</button></div>`)
		return nil
	})
	s := defaults()
	s.Dedup = false
	h := newHarness(t, b, s)

	for i := 0; i < 2; i++ {
		out := h.machine.Apply(context.Background(), job())
		assert.Equal(t, types.StatusApplied, out.Status)
		assert.Empty(t, out.Reason)
	}
	assert.Equal(t, 1, h.ledger.Len())
}

func TestApply_EarlyFailures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(b *browsertest.Browser)
		reason string
		last   State
	}{
		{
			name:   "navigation",
			setup:  func(b *browsertest.Browser) { b.FailNavigation(jobURL, errors.New("timeout")) },
			reason: types.ReasonNavigation,
			last:   StateAbandoned,
		},
		{
			name:   "no apply control",
			setup:  func(b *browsertest.Browser) { b.AddPage(jobURL, `<h1>Data Analyst</h1><p>No longer accepting applications</p>`) },
			reason: types.ReasonNoApplyButton,
			last:   StateNoAffordance,
		},
		{
			name:   "unknown application type",
			setup:  func(b *browsertest.Browser) { b.AddPage(jobURL, jobPage("Acme", "Apply")) },
			reason: types.ReasonUnknownApplication,
			last:   StateAbandoned,
		},
		{
			name:   "external label without a window",
			setup:  func(b *browsertest.Browser) { b.AddPage(jobURL, jobPage("Acme", "Apply on company website")) },
			reason: types.ReasonNoNewWindow,
			last:   StateAbandoned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := browsertest.New()
			tt.setup(b)
			h := newHarness(t, b, defaults())

			out := h.machine.Apply(context.Background(), job())

			assert.Equal(t, types.StatusFailed, out.Status)
			assert.Equal(t, tt.reason, out.Reason)
			assert.Equal(t, tt.last, h.states[len(h.states)-1])
			assert.Equal(t, 0, h.ledger.Len())
		})
	}
}

func TestApply_UnknownCompany(t *testing.T) {
	b := browsertest.New().AddPage(jobURL, jobPage("", "Easy Apply"))
	b.OnClick("apply", func(b *browsertest.Browser) error {
		b.SetHTML(`<button id="submit">Submit</button>`)
		return nil
	})
	h := newHarness(t, b, defaults())

	out := h.machine.Apply(context.Background(), job())

	assert.Equal(t, types.UnknownCompany, out.Job.Company)
	assert.Equal(t, "data analyst_unknown company", h.ledger.Snapshot()[0].Signature)
}

func TestApply_NotRecorded(t *testing.T) {
	b := browsertest.New().AddPage(jobURL, jobPage("Acme", "Easy Apply"))
	b.OnClick("apply", func(b *browsertest.Browser) error {
		b.SetHTML(`<button id="submit">Submit</button>`)
		return nil
	})
	h := newHarness(t, b, defaults())
	h.store.FailAppend = errors.New("disk full")

	out := h.machine.Apply(context.Background(), job())

	assert.Equal(t, types.StatusApplied, out.Status)
	assert.Equal(t, types.ReasonNotRecorded, out.Reason)
	assert.Equal(t, 0, h.ledger.Len())
	assert.False(t, h.ledger.Contains("data analyst_acme"))
}

func TestState_Terminal(t *testing.T) {
	for _, s := range []State{StateSkipped, StateNoAffordance, StateSubmitted, StateAbandoned} {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range []State{StateOpened, StateDedupCheck, StateAffordanceSearch, StateEasyApply, StateExternalSite} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestSettingsDefaultsStepCap(t *testing.T) {
	m := New(nil, nil, nil, WithSettings(Settings{}))
	assert.Equal(t, DefaultMaxSteps, m.settings.MaxSteps)
}
