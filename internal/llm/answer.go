package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/apply-agent/internal/prompts"
	"github.com/jonathan/apply-agent/internal/types"
)

// Question is an application form question the profile could not answer.
type Question struct {
	Label   string
	Job     types.JobPosting
	Profile types.Profile
}

// Answer is a suggested reply.
type Answer struct {
	Text       string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

// Answerer suggests answers for unresolved questions.
type Answerer struct {
	client Client
	tier   ModelTier
}

// NewAnswerer wraps a client.
func NewAnswerer(client Client) *Answerer {
	return &Answerer{client: client, tier: TierLite}
}

// Suggest asks the model for a short answer. An empty Text means no suggestion.
func (a *Answerer) Suggest(ctx context.Context, q Question) (Answer, error) {
	prompt, err := BuildAnswerPrompt(q)
	if err != nil {
		return Answer{}, err
	}
	raw, err := a.client.GenerateJSON(ctx, prompt, a.tier)
	if err != nil {
		return Answer{}, fmt.Errorf("failed to suggest answer for %q: %w", q.Label, err)
	}
	var ans Answer
	if err := json.Unmarshal([]byte(raw), &ans); err != nil {
		return Answer{}, fmt.Errorf("failed to parse suggestion for %q: %w", q.Label, err)
	}
	ans.Text = strings.TrimSpace(ans.Text)
	return ans, nil
}

// BuildAnswerPrompt renders the field-answer prompt.
func BuildAnswerPrompt(q Question) (string, error) {
	tmpl, err := prompts.Get("apply.json", "answer-field")
	if err != nil {
		return "", err
	}
	var profile strings.Builder
	for _, f := range q.Profile.Fields() {
		if f.Key == types.ProfileCoverLetter {
			continue
		}
		fmt.Fprintf(&profile, "- %s: %s\n", f.Key, f.Value)
	}
	company := q.Job.Company
	if company == "" {
		company = types.UnknownCompany
	}
	return prompts.Format(tmpl, map[string]string{
		"Question": q.Label,
		"Title":    q.Job.Title,
		"Company":  company,
		"Profile":  strings.TrimSpace(profile.String()),
	}), nil
}
