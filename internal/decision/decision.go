// Package decision implements the navigation decision engine: a safety
// short-circuit, a fixed list of ordered deterministic rules, model-assisted
// reasoning, and a static fallback, tried in that order. Decide always
// returns a decision; external failures degrade, they never propagate.
package decision

import (
	"time"

	"github.com/karimzakaria/guideflow/internal/llm"
	"github.com/karimzakaria/guideflow/internal/protocol"
)

// Decision is the engine's choice of conversational move for one turn. It is
// ephemeral; only the code and phase are recorded into history.
type Decision struct {
	Code           protocol.Code
	SituationTag   string
	RetrievalTag   string
	RuleOverridden bool
	Rule           string
	Reasoning      string
}

// Limits carries the loop-prevention configuration. The two ceilings are
// deliberately independent knobs; protocol revisions disagree on their
// values, so no shared default is assumed.
type Limits struct {
	MaxClarifyQuestions int
	MaxExploreCycles    int
	LookbackTurns       int
}

// DefaultLimits returns the stock ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxClarifyQuestions: 3,
		MaxExploreCycles:    2,
		LookbackTurns:       8,
	}
}

// Ceiling returns the configured ceiling for a counter.
func (l Limits) Ceiling(c protocol.Counter) int {
	switch c {
	case protocol.CounterClarify:
		return l.MaxClarifyQuestions
	case protocol.CounterExplore:
		return l.MaxExploreCycles
	}
	return 0
}

// Engine produces navigation decisions.
type Engine struct {
	provider    llm.Provider
	model       string
	temperature float64
	timeout     time.Duration
	limits      Limits
}

// NewEngine creates a decision engine. provider may be nil, in which case
// the reasoning tier is skipped entirely and the static fallback handles
// everything the rules don't.
func NewEngine(provider llm.Provider, model string, temperature float64, timeout time.Duration, limits Limits) *Engine {
	return &Engine{
		provider:    provider,
		model:       model,
		temperature: temperature,
		timeout:     timeout,
		limits:      limits,
	}
}

// fromCode builds a full Decision from a code.
func fromCode(code protocol.Code, overridden bool, rule, reasoning string) Decision {
	return Decision{
		Code:           code,
		SituationTag:   protocol.SituationTag(code),
		RetrievalTag:   protocol.RetrievalTag(code),
		RuleOverridden: overridden,
		Rule:           rule,
		Reasoning:      reasoning,
	}
}
