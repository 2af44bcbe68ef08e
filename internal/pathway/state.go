// Package pathway drives one job from its posting page to a terminal outcome.
//
// The machine moves through Opened, DedupCheck and AffordanceSearch, then runs either the
// Easy Apply flow or the company-site flow and ends in Submitted or Abandoned. Skipped and
// NoAffordance end the job early. Every failure becomes a Failed outcome with a reason.
package pathway

// State is a node of the application pathway.
type State string

const (
	StateOpened           State = "opened"
	StateDedupCheck       State = "dedup_check"
	StateSkipped          State = "skipped"
	StateAffordanceSearch State = "affordance_search"
	StateEasyApply        State = "easy_apply"
	StateExternalSite     State = "external_site"
	StateNoAffordance     State = "no_affordance"
	StateSubmitted        State = "submitted"
	StateAbandoned        State = "abandoned"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	switch s {
	case StateSkipped, StateNoAffordance, StateSubmitted, StateAbandoned:
		return true
	}
	return false
}

// Confirmations are page phrases that mean an application went through.
var Confirmations = []string{"application submitted", "thank you", "application received"}

// affordance is how the apply control presents itself.
type affordance int

const (
	affordanceUnknown affordance = iota
	affordanceEasy
	affordanceExternal
)

func (a affordance) String() string {
	switch a {
	case affordanceEasy:
		return "easy apply"
	case affordanceExternal:
		return "external"
	default:
		return "unknown"
	}
}
