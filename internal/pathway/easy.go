package pathway

import (
	"context"
	"strings"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/fields"
	"github.com/jonathan/apply-agent/internal/selector"
	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

// easyApply runs the bounded multi-step form loop. Each step fills the visible form and
// clicks the first progression control. A submit click or a confirmation phrase ends in
// Submitted. A step without any progression control ends the loop: the page is checked
// for confirmation and, failing that, a click in an earlier step is taken as an
// ambiguous success. Reaching the step cap without submitting is Abandoned.
func (m *Machine) easyApply(ctx context.Context, job types.JobPosting) types.Outcome {
	m.enter(StateEasyApply)
	d := m.resolver.Driver()
	log := m.logger.With(zap.String("title", job.Title))
	clicked := false

	for step := 1; step <= m.settings.MaxSteps; step++ {
		log.Debug("easy apply step", zap.Int("step", step))

		rep, err := m.filler.Pass(ctx, fields.PassOptions{ResumePath: m.settings.ResumePath})
		if err != nil {
			log.Warn("form fields unreadable", zap.Int("step", step), zap.Error(err))
		}
		m.observeFills(rep)

		ctl := m.resolver.Resolve(ctx, selector.Progression)
		if !ctl.Found {
			return m.implicitCompletion(ctx, job, step, clicked)
		}
		label := ctl.Element.Caption()
		if err := d.ScrollIntoView(ctx, ctl.Handle); err != nil {
			log.Debug("scroll to progression control failed", zap.Error(err))
		}
		if err := d.Act(ctx, ctl.Handle, browser.Click()); err != nil {
			log.Warn("progression control not clickable", zap.String("label", label), zap.Error(err))
			return m.implicitCompletion(ctx, job, step, clicked)
		}
		clicked = true
		log.Info("clicked", zap.String("label", label), zap.Int("step", step))
		m.pause(ctx)

		if strings.Contains(strings.ToLower(label), "submit") || m.confirmed(ctx) {
			return m.submitted(job, types.ApplicationEasyApply, step)
		}
	}

	out := m.abandon(job, types.ReasonStepLimit)
	out.Steps = m.settings.MaxSteps
	return out
}

func (m *Machine) implicitCompletion(ctx context.Context, job types.JobPosting, step int, clicked bool) types.Outcome {
	switch {
	case m.confirmed(ctx):
		return m.submitted(job, types.ApplicationEasyApply, step)
	case clicked:
		out := m.submitted(job, types.ApplicationEasyApply, step)
		out.Ambiguous = true
		out.Reason = types.ReasonSubmissionAmbiguous
		return out
	default:
		out := m.abandon(job, types.ReasonNoProgression)
		out.Steps = step
		return out
	}
}

// confirmed reports whether the page text carries a confirmation phrase.
func (m *Machine) confirmed(ctx context.Context) bool {
	text, err := m.resolver.Driver().PageText(ctx)
	if err != nil {
		m.logger.Debug("page text unavailable", zap.Error(err))
		return false
	}
	return browser.ContainsAny(text, Confirmations...)
}

func (m *Machine) submitted(job types.JobPosting, t types.ApplicationType, steps int) types.Outcome {
	m.enter(StateSubmitted)
	out := types.Applied(job, t, "")
	out.Steps = steps
	return out
}
