package pathway

import (
	"context"
	"errors"
	"io"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/fields"
	"github.com/jonathan/apply-agent/internal/operator"
	"github.com/jonathan/apply-agent/internal/selector"
	"github.com/jonathan/apply-agent/internal/session"
	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

// maxOperatorPrompts caps how many required fields are put to the operator per form.
const maxOperatorPrompts = 5

// external runs the company-site flow. When popup is set the flow runs in that window,
// which is closed afterwards; the job window is active again on return.
func (m *Machine) external(ctx context.Context, job types.JobPosting, popup, origin string) types.Outcome {
	m.enter(StateExternalSite)
	d := m.resolver.Driver()
	log := m.logger.With(zap.String("title", job.Title))

	if popup != "" {
		defer m.closeWindow(ctx, popup, origin)
		if err := d.SwitchWindow(ctx, popup); err != nil {
			log.Warn("company site window unreachable", zap.Error(err))
			return m.abandon(job, types.ReasonNoNewWindow)
		}
	}
	m.pause(ctx)

	site, _ := d.CurrentURL(ctx)
	platform := selector.DetectPlatform(site)
	log.Info("company site opened", zap.String("url", site), zap.String("platform", string(platform)))

	session.DismissCookies(ctx, m.resolver, log)

	// The apply control is tried first even when fields are visible, since careers pages
	// often carry search or newsletter inputs ahead of the real form.
	if ctl := m.resolver.ResolveFunc(ctx, selector.ApplyFor(platform), selector.OpensForm); ctl.Found {
		if err := d.Act(ctx, ctl.Handle, browser.Click()); err != nil {
			log.Debug("company site apply control not clickable", zap.Error(err))
		} else {
			log.Info("clicked company site apply control", zap.String("label", ctl.Element.Caption()))
			m.pause(ctx)
		}
	}

	rep, err := m.filler.Pass(ctx, fields.PassOptions{ResumePath: m.settings.ResumePath})
	if err != nil {
		log.Warn("company site form unreadable", zap.Error(err))
	}
	m.observeFills(rep)
	filled := rep.Filled() + m.askOperator(ctx, job, rep.Unresolved)
	if filled == 0 {
		log.Warn("company site form had nothing to fill", zap.String("url", site))
		return m.abandon(job, types.ReasonNothingFilled)
	}

	submit := m.resolver.ResolveFunc(ctx, selector.SubmitFor(platform), selector.SubmitsApplication)
	if submit.Found {
		err := d.Act(ctx, submit.Handle, browser.Click())
		if err == nil {
			log.Info("company site application submitted",
				zap.String("label", submit.Element.Caption()), zap.Int("filled", filled))
			m.pause(ctx)
			return m.submitted(job, types.ApplicationCompanySite, 0)
		}
		log.Warn("submit control not clickable", zap.Error(err))
	}

	if m.settings.Optimistic {
		log.Warn("no submit control, counting filled form as applied", zap.Int("filled", filled))
		out := m.submitted(job, types.ApplicationCompanySite, 0)
		out.Ambiguous = true
		out.Reason = types.ReasonPartialSuccess
		return out
	}
	return m.abandon(job, types.ReasonNoSubmitControl)
}

// askOperator puts required empty fields to the operator, one blocking request at a time,
// and types the answers. It returns the number of fields written.
func (m *Machine) askOperator(ctx context.Context, job types.JobPosting, unresolved []fields.Field) int {
	if m.operator == nil || len(unresolved) == 0 {
		return 0
	}
	if len(unresolved) > maxOperatorPrompts {
		unresolved = unresolved[:maxOperatorPrompts]
	}

	written := 0
	for _, fld := range unresolved {
		answer, ok, err := m.operator.Ask(ctx, operator.Request{Job: job, Field: fld.Describe()})
		if errors.Is(err, io.EOF) {
			m.logger.Info("operator input closed, leaving required fields empty", zap.String("field", fld.Describe()))
			return written
		}
		if err != nil {
			m.logger.Warn("operator input failed", zap.String("field", fld.Describe()), zap.Error(err))
			return written
		}
		if !ok || answer == "" {
			continue
		}
		if res := m.filler.FillText(ctx, fld, answer); res.Status == fields.Filled {
			written++
		}
	}
	return written
}
