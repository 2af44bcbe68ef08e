// Package observability provides formatted console output for runs and the ledger.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/apply-agent/internal/ledger"
	"github.com/jonathan/apply-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// recentPerType is how many applications are listed per type
	recentPerType = 3
)

// typeOrder fixes the display order of application types.
var typeOrder = []types.ApplicationType{types.ApplicationEasyApply, types.ApplicationCompanySite}

// Printer handles formatted console output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // console output; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// Banner is the start-of-run information shown before any job is processed.
type Banner struct {
	Applicant    string
	Email        string
	Keywords     []string
	Location     string
	ResumePath   string
	ResumeFound  bool
	CompanySites bool
	Country      string
	DialCode     string
	LedgerSize   int
}

// PrintBanner outputs the run configuration.
func (p *Printer) PrintBanner(b Banner) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Applicant:  %s", b.Applicant)
	if b.Email != "" {
		fmt.Fprintf(&sb, " <%s>", b.Email)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Keywords:   %s\n", strings.Join(b.Keywords, ", "))
	fmt.Fprintf(&sb, "Location:   %s\n", b.Location)
	fmt.Fprintf(&sb, "Country:    %s (%s)\n", b.Country, b.DialCode)

	resume := "not found, uploads skipped"
	if b.ResumeFound {
		resume = b.ResumePath
	}
	fmt.Fprintf(&sb, "Resume:     %s\n", resume)
	fmt.Fprintf(&sb, "Company sites: %s\n", onOff(b.CompanySites))
	fmt.Fprintf(&sb, "Already applied: %d\n", b.LedgerSize)

	p.printBox("APPLY AGENT", sb.String())
}

// PrintOutcome writes a one-line result for a processed job.
//
//nolint:errcheck // console output
func (p *Printer) PrintOutcome(o types.Outcome) {
	mark := "✗"
	switch o.Status {
	case types.StatusApplied:
		mark = "✓"
	case types.StatusSkipped:
		mark = "-"
	}
	line := fmt.Sprintf("%s %s", mark, jobLabel(o.Job))
	if o.Status == types.StatusApplied {
		line += fmt.Sprintf(" [%s]", typeLabel(o.Type))
	}
	if o.Reason != "" {
		line += ": " + o.Reason
	}
	fmt.Fprintln(p.out, line)
}

// PrintSummary outputs the end-of-run report.
func (p *Printer) PrintSummary(s *types.RunSummary) {
	if s == nil {
		return
	}

	var sb strings.Builder
	if s.Interrupted {
		sb.WriteString("Run interrupted; totals cover processed jobs only\n\n")
	}
	fmt.Fprintf(&sb, "Attempted:    %d\n", s.Attempted)
	fmt.Fprintf(&sb, "Applied:      %d\n", s.Applied)
	fmt.Fprintf(&sb, "Skipped:      %d\n", s.Skipped)
	fmt.Fprintf(&sb, "Failed:       %d\n", len(s.Failed))
	fmt.Fprintf(&sb, "Success rate: %.1f%%\n", s.SuccessRate())
	if s.Ambiguous > 0 {
		fmt.Fprintf(&sb, "Unconfirmed:  %d\n", s.Ambiguous)
	}

	for _, t := range typeOrder {
		applied := s.AppliedOf(t)
		fmt.Fprintf(&sb, "\n%s: %d\n", typeLabel(t), len(applied))
		// Last few of this type, newest first.
		for i := len(applied) - 1; i >= 0 && i >= len(applied)-recentPerType; i-- {
			fmt.Fprintf(&sb, "  • %s\n", jobLabel(applied[i].Job))
		}
	}

	if len(s.Failed) > 0 {
		sb.WriteString("\nFailures:\n")
		for _, f := range s.Failed {
			fmt.Fprintf(&sb, "  • %s: %s\n", f.Title, f.Reason)
		}
	}

	p.printBox("RUN SUMMARY", sb.String())

	sites := s.AppliedOf(types.ApplicationCompanySite)
	if len(sites) > 0 {
		var list strings.Builder
		for _, o := range sites {
			fmt.Fprintf(&list, "%s\n  %s\n", jobLabel(o.Job), o.Job.URL)
		}
		p.printBox("COMPANY SITE APPLICATIONS", list.String())
	}
}

// PrintLedger outputs every recorded application, oldest first.
//
//nolint:errcheck // console output
func (p *Printer) PrintLedger(recs []types.ApplicationRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(p.out, "No applications recorded.")
		return
	}
	for _, r := range recs {
		fmt.Fprintf(p.out, "%s  %-12s  %s @ %s\n",
			r.AppliedAt.Local().Format("2006-01-02 15:04"), r.ApplicationType, r.Title, r.Company)
	}
}

// PrintLedgerSummary outputs totals and the latest applications per type.
func (p *Printer) PrintLedgerSummary(s ledger.Summary) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Total applications: %d\n", s.Total)
	for _, t := range typeOrder {
		fmt.Fprintf(&sb, "\n%s: %d\n", typeLabel(t), s.ByType[t])
		for _, r := range s.Recent[t] {
			fmt.Fprintf(&sb, "  • %s @ %s (%s)\n", r.Title, r.Company, r.AppliedAt.Local().Format("Jan 2"))
		}
	}
	p.printBox("APPLICATION LEDGER", sb.String())
}

func jobLabel(j types.JobPosting) string {
	if j.Company == "" {
		return j.Title
	}
	return j.Title + " @ " + j.Company
}

func typeLabel(t types.ApplicationType) string {
	switch t {
	case types.ApplicationEasyApply:
		return "Easy Apply"
	case types.ApplicationCompanySite:
		return "Company site"
	default:
		return string(t)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
