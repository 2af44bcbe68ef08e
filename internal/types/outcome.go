package types

import "fmt"

// Status is the terminal state of one job.
type Status string

const (
	// StatusApplied means the application was submitted and recorded.
	StatusApplied Status = "applied"
	// StatusFailed means the job ended without a submission.
	StatusFailed Status = "failed"
	// StatusSkipped means the job was already in the ledger.
	StatusSkipped Status = "skipped"
)

// Reasons reported on outcomes.
const (
	ReasonAlreadyApplied     = "already applied"
	ReasonNoApplyButton      = "no apply button found"
	ReasonUnknownApplication = "unknown application type"
	ReasonCompanySiteOff     = "company site handling disabled"
	ReasonStepLimit          = "easy apply step limit reached without submit"
	ReasonNoProgression      = "easy apply form ended without any progression"
	ReasonNoSubmitControl    = "company site form has no submit control"
	ReasonNothingFilled      = "company site form had nothing to fill"
	ReasonNoNewWindow        = "company site window did not open"
	ReasonNavigation         = "navigation failed"
	ReasonNotRecorded        = "application could not be recorded"

	// ReasonSubmissionAmbiguous marks an Easy Apply success inferred only from a prior click.
	ReasonSubmissionAmbiguous = "submission ambiguous: no confirmation after progression"
	// ReasonPartialSuccess marks a company-site success inferred from filled fields without a submit control.
	ReasonPartialSuccess = "partial success: fields filled but no submit control"
)

// Outcome is the tagged result produced once per job.
type Outcome struct {
	Job    JobPosting      `json:"job"`
	Status Status          `json:"status"`
	Type   ApplicationType `json:"application_type,omitempty"`
	Reason string          `json:"reason,omitempty"`
	// Ambiguous marks success inferred without an explicit confirmation signal.
	Ambiguous bool `json:"ambiguous,omitempty"`
	// Steps is the number of Easy Apply iterations executed.
	Steps int `json:"steps,omitempty"`
}

// Applied builds a success outcome.
func Applied(job JobPosting, t ApplicationType, reason string) Outcome {
	return Outcome{Job: job, Status: StatusApplied, Type: t, Reason: reason}
}

// Failed builds a failure outcome carrying a reason.
func Failed(job JobPosting, reason string) Outcome {
	return Outcome{Job: job, Status: StatusFailed, Reason: reason}
}

// Skipped builds the already-applied outcome.
func Skipped(job JobPosting) Outcome {
	return Outcome{Job: job, Status: StatusSkipped, Reason: ReasonAlreadyApplied}
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusApplied:
		return fmt.Sprintf("applied(%s)", o.Type)
	case StatusSkipped:
		return "skipped(already applied)"
	default:
		return fmt.Sprintf("failed(%s)", o.Reason)
	}
}
