// Package synthesis turns a navigation decision into the actual reply. It
// prefers fixed wording for protocol-critical moments, fixed escape lines
// when a loop budget runs out, and grounded generation for everything else.
package synthesis

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/karimzakaria/guideflow/internal/decision"
	"github.com/karimzakaria/guideflow/internal/llm"
	"github.com/karimzakaria/guideflow/internal/protocol"
	"github.com/karimzakaria/guideflow/internal/session"
	"github.com/karimzakaria/guideflow/internal/vectordb"
)

// Result is the reply plus the state effects the lifecycle manager must
// apply. The synthesizer itself never mutates session state.
type Result struct {
	Text string

	// Bump names the loop counter the decision consumes, or "" when the
	// decision is free. Applied exactly once per turn by the caller.
	Bump protocol.Counter

	// Escaped reports that the bump reaches the counter's ceiling this
	// turn; the caller advances the phase in the same turn.
	Escaped bool
}

// Synthesizer renders replies. A nil provider degrades every generative
// path to the per-code fallback line.
type Synthesizer struct {
	provider llm.Provider
	model    string
	temp     float64
	timeout  time.Duration
	limits   decision.Limits
}

func New(provider llm.Provider, model string, temperature float64, timeout time.Duration, limits decision.Limits) *Synthesizer {
	return &Synthesizer{
		provider: provider,
		model:    model,
		temp:     temperature,
		timeout:  timeout,
		limits:   limits,
	}
}

// Synthesize produces the reply for one decision. It never fails: a
// generation error degrades to the decision's fallback line, and the caller
// only sees finished text.
func (s *Synthesizer) Synthesize(ctx context.Context, dec decision.Decision, st *session.State, examples []vectordb.Exchange) Result {
	res := Result{}
	if ctr, ok := protocol.CounterFor(dec.Code); ok {
		res.Bump = ctr
		res.Escaped = st.Counter(ctr)+1 >= s.limits.Ceiling(ctr)
	}

	// Protocol-critical moments use one exact wording, always.
	if dec.RuleOverridden || dec.Code == protocol.CodeSafetyProtocol {
		if text, ok := templates[dec.Code]; ok {
			res.Text = renderTemplate(text, st)
			return res
		}
	}

	// A budget exhausted this turn bypasses generation entirely.
	if res.Escaped {
		res.Text = escapeLine(st.Phase)
		return res
	}

	res.Text = s.generate(ctx, dec, st, examples)
	return res
}

// generate invokes the dialogue model, few-shot grounded when examples are
// available. Output is returned verbatim.
func (s *Synthesizer) generate(ctx context.Context, dec decision.Decision, st *session.State, examples []vectordb.Exchange) string {
	if s.provider == nil {
		return fallbackLine(dec.Code)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.provider.Generate(ctx, llm.Request{
		Model: s.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: dialogueSystemPrompt},
			{Role: llm.RoleUser, Content: buildDialoguePrompt(dec, st, examples)},
		},
		MaxTokens:   256,
		Temperature: s.temp,
	})
	if err != nil {
		log.Printf("dialogue generation failed, using fallback line: %v", err)
		return fallbackLine(dec.Code)
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return fallbackLine(dec.Code)
	}
	return text
}

const dialogueSystemPrompt = `You are a calm, attentive guide in a structured reflection dialogue. Reply with a single short conversational turn, two sentences at most. Speak plainly and warmly. Ask at most one question. Never give advice, diagnoses, or interpretations the user did not offer themselves.`

func buildDialoguePrompt(dec decision.Decision, st *session.State, examples []vectordb.Exchange) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Conversational move to make: %s (%s)\n", dec.Code, protocol.SituationTag(dec.Code))
	if topic := st.Tracked.Topic; topic != "" {
		fmt.Fprintf(&b, "The user's stated topic, in their own words: %q\n", topic)
	}
	if loc := st.Tracked.Location; loc != "" {
		fmt.Fprintf(&b, "Where they notice it: %q\n", loc)
	}

	if len(examples) > 0 {
		b.WriteString("\nReference replies from similar situations, match their tone and length:\n")
		for _, ex := range examples {
			fmt.Fprintf(&b, "- %s\n", ex.Text)
		}
	}

	if turns := st.LastN(2); len(turns) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, t := range turns {
			fmt.Fprintf(&b, "user: %s\nguide: %s\n", t.Input, t.Response)
		}
	}

	b.WriteString("\nWrite the guide's next reply.")
	return b.String()
}
