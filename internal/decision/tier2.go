package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/karimzakaria/guideflow/internal/llm"
	"github.com/karimzakaria/guideflow/internal/protocol"
	"github.com/karimzakaria/guideflow/internal/session"
	"github.com/karimzakaria/guideflow/internal/signals"
)

const reasoningSystemPrompt = `You are the navigation component of a guided reflection dialogue. Given the session's position in the protocol and the latest user input, choose the single best next conversational move.

You MUST respond with valid JSON matching this schema:
{
  "decision": "one of the legal decision codes, exactly as listed",
  "situation": "one short phrase describing the conversational situation",
  "retrieval": "one or two keywords for example lookup",
  "reasoning": "one sentence explaining the choice"
}

Rules:
- "decision" MUST be one of the legal codes given in the prompt; anything else is discarded
- Prefer the smallest move that keeps the session progressing
- Never choose a move belonging to an earlier phase than the current one`

// tier2Response is the structured output the reasoning tier expects. It is
// a loosely typed payload from an external model; every field is validated
// before use.
type tier2Response struct {
	Decision  string `json:"decision"`
	Situation string `json:"situation"`
	Retrieval string `json:"retrieval"`
	Reasoning string `json:"reasoning"`
}

// reason consults the generative backend for a decision. Any failure
// (transport, timeout, malformed JSON, unknown code) is returned as an
// error so Decide falls through to the static fallback.
func (e *Engine) reason(ctx context.Context, st *session.State, sig signals.Signals) (Decision, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.provider.Generate(ctx, llm.Request{
		Model: e.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: reasoningSystemPrompt},
			{Role: llm.RoleUser, Content: buildReasoningPrompt(st, sig)},
		},
		MaxTokens:   512,
		Temperature: e.temperature,
		JSONMode:    true,
	})
	if err != nil {
		return Decision{}, fmt.Errorf("reasoning completion: %w", err)
	}

	parsed, err := parseReasoningResponse(resp.Content)
	if err != nil {
		return Decision{}, err
	}

	code := protocol.Code(strings.TrimSpace(parsed.Decision))
	if !protocol.IsLegal(code) {
		return Decision{}, fmt.Errorf("illegal decision code %q", parsed.Decision)
	}
	// The safety path is owned by the short circuit, never by the model.
	if code == protocol.CodeSafetyProtocol {
		return Decision{}, fmt.Errorf("model attempted to emit safety code")
	}

	dec := fromCode(code, false, "", parsed.Reasoning)
	if parsed.Situation != "" {
		dec.SituationTag = parsed.Situation
	}
	if parsed.Retrieval != "" {
		dec.RetrievalTag = parsed.Retrieval
	}
	return dec, nil
}

func buildReasoningPrompt(st *session.State, sig signals.Signals) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Session Position\nphase: %s\n", st.Phase)
	if st.Subphase != protocol.SubphaseNone {
		fmt.Fprintf(&b, "subphase: %s\n", st.Subphase)
	}
	fmt.Fprintf(&b, "turns in phase: %d\n", st.TurnsInPhase)

	b.WriteString("\n## Completion Flags\n")
	for _, f := range protocol.RequiredFlags(st.Phase) {
		fmt.Fprintf(&b, "- %s: %v\n", f, st.Flag(f))
	}

	if topic := st.Tracked.Topic; topic != "" {
		fmt.Fprintf(&b, "\nsession topic (user's words): %s\n", topic)
	}

	if turns := st.LastN(3); len(turns) > 0 {
		b.WriteString("\n## Recent Turns\n")
		for _, t := range turns {
			fmt.Fprintf(&b, "user: %s\nguide: %s (decision: %s)\n", t.Input, t.Response, t.DecisionCode)
		}
	}

	b.WriteString("\n## Latest Input Signals\n")
	fmt.Fprintf(&b, "tense: %s, intensity: %s\n", sig.Tense, sig.Intensity)
	for cat := range sig.Categories {
		fmt.Fprintf(&b, "- matched: %s\n", cat)
	}

	b.WriteString("\n## Legal Decision Codes\n")
	for _, c := range protocol.LegalCodes() {
		if c == protocol.CodeSafetyProtocol {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", c, protocol.SituationTag(c))
	}

	b.WriteString("\nChoose the next move.")
	return b.String()
}

// parseReasoningResponse extracts JSON from a model response that may be
// wrapped in markdown fences or prose.
func parseReasoningResponse(content string) (*tier2Response, error) {
	jsonStr := content
	if idx := strings.Index(content, "{"); idx >= 0 {
		jsonStr = content[idx:]
	}
	if idx := strings.LastIndex(jsonStr, "}"); idx >= 0 {
		jsonStr = jsonStr[:idx+1]
	}

	var parsed tier2Response
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("parsing reasoning response: %w", err)
	}
	if parsed.Decision == "" {
		return nil, fmt.Errorf("reasoning response missing decision field")
	}
	return &parsed, nil
}
