// Package operator asks the person running the bot for values the profile cannot supply.
package operator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jonathan/apply-agent/internal/llm"
	"github.com/jonathan/apply-agent/internal/prompts"
	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

// Request describes one required field with no resolvable value.
type Request struct {
	Job        types.JobPosting
	Field      string
	Suggestion string
}

// Operator answers requests. ok is false when the field should stay empty.
// Implementations block until an answer is available.
type Operator interface {
	Ask(ctx context.Context, req Request) (answer string, ok bool, err error)
}

// Console prompts on out and reads one line per request from in.
type Console struct {
	out io.Writer

	once  sync.Once
	in    *bufio.Reader
	lines chan lineResult
	mu    sync.Mutex
}

type lineResult struct {
	text string
	err  error
}

// NewConsole returns an operator reading from in.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Ask prints the request and blocks for a line. An empty line accepts the suggestion
// when there is one and skips the field otherwise. Once the input is exhausted every
// call returns io.EOF.
func (c *Console) Ask(ctx context.Context, req Request) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	company := req.Job.Company
	if company == "" {
		company = types.UnknownCompany
	}
	msg, err := prompts.Render("apply.json", "operator-request", map[string]string{
		"Field":   req.Field,
		"Title":   req.Job.Title,
		"Company": company,
	})
	if err != nil {
		return "", false, err
	}
	fmt.Fprintf(c.out, "\n%s\n", msg)
	if req.Suggestion != "" {
		fmt.Fprintf(c.out, "  suggested: %q (Enter to accept)\n", req.Suggestion)
	} else {
		fmt.Fprintln(c.out, "  (Enter to leave empty)")
	}
	fmt.Fprint(c.out, "> ")

	text, err := c.readLine(ctx)
	if err != nil {
		return "", false, err
	}
	if text == "" {
		return req.Suggestion, req.Suggestion != "", nil
	}
	return text, true, nil
}

// Confirm asks a yes/no question. Anything but y or yes, including exhausted input,
// is a no.
func (c *Console) Confirm(ctx context.Context, question string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "%s [y/N] ", question)
	text, err := c.readLine(ctx)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(text) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// readLine returns the next trimmed line. The caller holds mu.
func (c *Console) readLine(ctx context.Context) (string, error) {
	c.once.Do(c.startReader)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		text := strings.TrimSpace(line.text)
		if line.err != nil && text == "" {
			if errors.Is(line.err, io.EOF) {
				return "", io.EOF
			}
			return "", fmt.Errorf("failed to read operator input: %w", line.err)
		}
		return text, nil
	}
}

// startReader feeds lines from in to a channel so a cancelled read never leaves two
// readers on the same input.
func (c *Console) startReader() {
	c.lines = make(chan lineResult)
	go func() {
		for {
			text, err := c.in.ReadString('\n')
			c.lines <- lineResult{text: text, err: err}
			if err != nil {
				close(c.lines)
				return
			}
		}
	}()
}

// Suggester proposes answers for unresolved questions.
type Suggester interface {
	Suggest(ctx context.Context, q llm.Question) (llm.Answer, error)
}

// Suggesting fills Request.Suggestion from a model before delegating to next.
type Suggesting struct {
	next          Operator
	suggester     Suggester
	profile       types.Profile
	minConfidence float64
	logger        *zap.Logger
}

// NewSuggesting wraps next. Suggestions below minConfidence are dropped.
func NewSuggesting(next Operator, s Suggester, profile types.Profile, minConfidence float64, logger *zap.Logger) *Suggesting {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Suggesting{next: next, suggester: s, profile: profile, minConfidence: minConfidence, logger: logger}
}

func (s *Suggesting) Ask(ctx context.Context, req Request) (string, bool, error) {
	if req.Suggestion == "" {
		ans, err := s.suggester.Suggest(ctx, llm.Question{Label: req.Field, Job: req.Job, Profile: s.profile})
		switch {
		case err != nil:
			s.logger.Warn("answer suggestion failed", zap.String("field", req.Field), zap.Error(err))
		case ans.Text != "" && ans.Confidence >= s.minConfidence:
			req.Suggestion = ans.Text
		}
	}
	return s.next.Ask(ctx, req)
}

// Scripted answers from a fixed map keyed by field description and records every request.
type Scripted struct {
	Answers map[string]string
	Asked   []Request
}

func (s *Scripted) Ask(_ context.Context, req Request) (string, bool, error) {
	s.Asked = append(s.Asked, req)
	if a, ok := s.Answers[req.Field]; ok {
		return a, true, nil
	}
	if req.Suggestion != "" {
		return req.Suggestion, true, nil
	}
	return "", false, nil
}
