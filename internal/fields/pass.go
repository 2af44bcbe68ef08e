package fields

import (
	"context"
	"os"
	"strings"

	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

// PassOptions configures one fill pass.
type PassOptions struct {
	// ResumePath is uploaded to file inputs when set and present on disk.
	ResumePath string
	// SkipFiles leaves file inputs alone.
	SkipFiles bool
}

// Report summarizes one fill pass.
type Report struct {
	Results []Result
	// Unresolved lists required text fields that are still empty after the pass.
	Unresolved []Field
}

// Filled counts the fields written in this pass.
func (r Report) Filled() int {
	return r.count(Filled)
}

// Failed counts the fields that could not be written.
func (r Report) Failed() int {
	return r.count(Failed)
}

func (r Report) count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

var contactKeys = map[string]bool{
	types.ProfileFirstName:   true,
	types.ProfileLastName:    true,
	profileFullName:          true,
	types.ProfileEmail:       true,
	types.ProfilePhone:       true,
	types.ProfilePhoneNumber: true,
}

// Pass discovers every control on the page and fills it in a fixed order: contact
// fields, country and phone code, the remaining text fields, file inputs, dropdowns,
// textareas and consent checkboxes. Fields already holding a value are left untouched.
func (f *Filler) Pass(ctx context.Context, opts PassOptions) (Report, error) {
	all, err := DiscoverAll(ctx, f.driver)
	if err != nil {
		return Report{}, err
	}

	var rep Report
	done := map[int]bool{}
	classes := make([]Classification, len(all))
	for i, fld := range all {
		classes[i] = Classify(fld.Tokens())
	}

	step := func(match func(i int, fld Field) bool, fill func(fld Field) Result) {
		for i, fld := range all {
			if done[i] || !match(i, fld) {
				continue
			}
			done[i] = true
			rep.Results = append(rep.Results, fill(fld))
		}
	}
	fill := func(fld Field) Result { return f.Fill(ctx, fld) }
	isText := func(fld Field) bool { return fld.Kind == KindText }

	// contact
	step(func(i int, fld Field) bool {
		return isText(fld) && classes[i].Category == CategoryProfile && contactKeys[classes[i].Key]
	}, fill)

	// country and phone code, selects included
	step(func(i int, fld Field) bool {
		c := classes[i].Category
		return (isText(fld) || fld.Kind == KindSelect) && (c == CategoryCountry || c == CategoryPhoneCode)
	}, fill)

	// city, location and the rest of the keyword table
	step(func(i int, fld Field) bool {
		return isText(fld) && classes[i].Category == CategoryProfile
	}, fill)

	if !opts.SkipFiles && resumeExists(opts.ResumePath) {
		step(func(_ int, fld Field) bool {
			return fld.Kind == KindFile && fld.Enabled && fld.Empty()
		}, func(fld Field) Result { return f.Upload(ctx, fld, opts.ResumePath) })
	}

	step(func(_ int, fld Field) bool {
		return fld.Kind == KindSelect
	}, func(fld Field) Result {
		return f.selectFor(ctx, fld)
	})

	coverUsed := false
	step(func(_ int, fld Field) bool {
		return fld.Kind == KindTextarea
	}, func(fld Field) Result {
		if !fld.Usable() || !fld.Empty() {
			return f.done(Result{Field: fld}, NotApplicable, "already filled", nil)
		}
		if !coverUsed && fld.Tokens().Any("cover", "coverletter", "message") {
			coverUsed = true
			text := f.profile.Get(types.ProfileCoverLetter)
			if text == "" {
				text = GenericInterest
			}
			return f.FillText(ctx, fld, text)
		}
		return f.FillText(ctx, fld, GenericInterest)
	})

	step(func(_ int, fld Field) bool {
		return fld.Kind == KindCheckbox
	}, func(fld Field) Result { return f.Consent(ctx, fld) })

	rep.Unresolved = f.unresolved(ctx, all)

	f.logger.Debug("fill pass complete",
		zap.Int("fields", len(all)),
		zap.Int("filled", rep.Filled()),
		zap.Int("failed", rep.Failed()),
		zap.Int("unresolved", len(rep.Unresolved)))
	return rep, nil
}

// selectFor fills a dropdown with its classified profile value, else the experience years.
func (f *Filler) selectFor(ctx context.Context, fld Field) Result {
	class := Classify(fld.Tokens())
	if class.Category == CategoryProfile {
		return f.Fill(ctx, fld)
	}
	res := Result{Field: fld, Class: class}
	if !fld.Usable() {
		return f.done(res, NotApplicable, "hidden or disabled", nil)
	}
	if !fld.Empty() {
		return f.done(res, NotApplicable, "already filled", nil)
	}
	return f.tag(f.Dropdown(ctx, fld, f.profile.Get(types.ProfileExperienceYears)), class)
}

// unresolved re-reads required text fields and returns those still empty.
func (f *Filler) unresolved(ctx context.Context, all []Field) []Field {
	var out []Field
	for _, fld := range all {
		if !fld.Required || (fld.Kind != KindText && fld.Kind != KindTextarea) {
			continue
		}
		now, err := Discover(ctx, f.driver, fld.Handle)
		if err != nil || !now.Usable() {
			continue
		}
		if strings.TrimSpace(now.Value) == "" {
			out = append(out, now)
		}
	}
	return out
}

func resumeExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
