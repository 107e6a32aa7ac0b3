package decision

import (
	"github.com/karimzakaria/guideflow/internal/protocol"
	"github.com/karimzakaria/guideflow/internal/session"
	"github.com/karimzakaria/guideflow/internal/signals"
)

// rule is one deterministic predicate. Rules are evaluated in the order of
// the rules slice and the first match wins; reordering them changes protocol
// behavior. Do not reorder without updating the rule table below.
type rule struct {
	name  string
	apply func(e *Engine, st *session.State, sig signals.Signals) (protocol.Code, bool)
}

// Rule table, highest priority first:
//
//	1. early_phase_gate    - intake must establish a topic before anything else
//	2. mandatory_step_gate - location must be named before quality is explored
//	3. redirect_rule       - past-tense or ahead-of-phase talk during grounding
//	4. single_ask_rule     - never repeat a clarifying question; skip forward
//	5. escape_rule         - counter ceiling or "nothing more" forces an advance
//	6. phase_lock_rule     - closing only checks readiness, never regresses
var rules = []rule{
	{"early_phase_gate", ruleEarlyPhaseGate},
	{"mandatory_step_gate", ruleMandatoryStep},
	{"redirect_rule", ruleRedirect},
	{"single_ask_rule", ruleSingleAsk},
	{"escape_rule", ruleEscape},
	{"phase_lock_rule", rulePhaseLock},
}

// seekFlags maps each ask code to the completion flag it tries to set. Codes
// without an entry (ask_deeper, anything_else, check_readiness) probe rather
// than establish anything.
var seekFlags = map[protocol.Code]protocol.Flag{
	protocol.CodeEstablishTopic: protocol.FlagTopicEstablished,
	protocol.CodeConfirmPresent: protocol.FlagPresentConfirmed,
	protocol.CodeAskLocation:    protocol.FlagDetailLocationKnown,
	protocol.CodeAskQuality:     protocol.FlagDetailQualityKnown,
	protocol.CodeReflectPattern: protocol.FlagPatternUnderstood,
}

// ruleEarlyPhaseGate keeps the first turns of a session on topic
// establishment: until the topic flag is set and for a small number of
// turns, intake either asks the opening question or acknowledges the topic
// the user just named.
func ruleEarlyPhaseGate(e *Engine, st *session.State, sig signals.Signals) (protocol.Code, bool) {
	if st.Phase != protocol.PhaseIntake || st.Flag(protocol.FlagTopicEstablished) || st.TurnsInPhase >= 2 {
		return "", false
	}
	if sig.Has(signals.CategoryTopic) {
		return protocol.CodeAcknowledgeTopic, true
	}
	return protocol.CodeEstablishTopic, true
}

// ruleMandatoryStep protects step ordering inside exploration: if the user
// is already describing the quality of a feeling but has never said where it
// is, force the location question first.
func ruleMandatoryStep(e *Engine, st *session.State, sig signals.Signals) (protocol.Code, bool) {
	if st.Phase != protocol.PhaseExploration {
		return "", false
	}
	if st.Flag(protocol.FlagDetailLocationKnown) {
		return "", false
	}
	if !sig.Has(signals.CategoryQuality) {
		return "", false
	}
	if recentlyAsked(st, protocol.CodeAskLocation, e.limits.LookbackTurns) {
		return "", false
	}
	return protocol.CodeAskLocation, true
}

// ruleRedirect brings the user back when grounding has not confirmed the
// present moment but the text drifts to the past or jumps ahead to
// pattern-level talk. The extractor's present-override keeps this from
// firing on input that merely mentions the past.
func ruleRedirect(e *Engine, st *session.State, sig signals.Signals) (protocol.Code, bool) {
	if st.Phase != protocol.PhaseGrounding || st.Flag(protocol.FlagPresentConfirmed) {
		return "", false
	}
	if sig.Has(signals.CategoryLaterStep) || sig.Tense == signals.TensePast {
		return protocol.CodeRedirectPresent, true
	}
	return "", false
}

// ruleSingleAsk prevents re-asking: when the question the protocol would
// pose next was already posed within the look-back window and its flag is
// still unset, skip straight to the next unmet step instead.
func ruleSingleAsk(e *Engine, st *session.State, sig signals.Signals) (protocol.Code, bool) {
	// Closing has no flag-seeking questions; its repeat handling belongs
	// to the phase lock, which answers a repeated readiness check with
	// close_session rather than a skip.
	if st.Phase == protocol.PhaseClosing {
		return "", false
	}
	candidate, ok := pendingAsk(st)
	if !ok {
		return "", false
	}
	if !recentlyAsked(st, candidate, e.limits.LookbackTurns) {
		return "", false
	}
	return e.skipAsked(st, candidate), true
}

// ruleEscape is the liveness guarantee: a counter at its ceiling, or an
// explicit "nothing more" after an anything-else probe, forces the session
// out of the current phase no matter which flags are still unset.
func ruleEscape(e *Engine, st *session.State, sig signals.Signals) (protocol.Code, bool) {
	if st.AtCeiling(protocol.CounterClarify, e.limits.MaxClarifyQuestions) {
		return protocol.CodeAdvancePhase, true
	}
	if st.AtCeiling(protocol.CounterExplore, e.limits.MaxExploreCycles) {
		return protocol.CodeAdvancePhase, true
	}
	if sig.Has(signals.CategoryNothingMore) && st.LastDecision() == protocol.CodeAnythingElse {
		return protocol.CodeAdvancePhase, true
	}
	return "", false
}

// rulePhaseLock closes the regression loophole: once a session reaches
// closing, the only moves left are the readiness check and ending the
// session.
func rulePhaseLock(e *Engine, st *session.State, sig signals.Signals) (protocol.Code, bool) {
	if st.Phase != protocol.PhaseClosing {
		return "", false
	}
	if st.LastDecision() == protocol.CodeCheckReadiness {
		return protocol.CodeCloseSession, true
	}
	return protocol.CodeCheckReadiness, true
}

// pendingAsk returns the first question of the current phase's ask sequence
// whose flag is still unset.
func pendingAsk(st *session.State) (protocol.Code, bool) {
	for _, c := range protocol.AskSequence(st.Phase) {
		flag, hasFlag := seekFlags[c]
		if !hasFlag || !st.Flag(flag) {
			return c, true
		}
	}
	return "", false
}

// recentlyAsked reports whether a code was emitted within the look-back
// window.
func recentlyAsked(st *session.State, code protocol.Code, lookback int) bool {
	for _, c := range st.RecentDecisions(lookback) {
		if c == code {
			return true
		}
	}
	return false
}

// skipAsked walks the ask sequence forward from the given code to the first
// step that is both unmet and not recently asked. When the whole chain is
// exhausted it falls back to a clarify, whose bounded counter guarantees an
// eventual escape.
func (e *Engine) skipAsked(st *session.State, from protocol.Code) protocol.Code {
	seq := protocol.AskSequence(st.Phase)
	idx := -1
	for i, c := range seq {
		if c == from {
			idx = i
			break
		}
	}
	for i := idx + 1; i >= 0 && i < len(seq); i++ {
		c := seq[i]
		if flag, hasFlag := seekFlags[c]; hasFlag && st.Flag(flag) {
			continue
		}
		if recentlyAsked(st, c, e.limits.LookbackTurns) {
			continue
		}
		return c
	}
	return protocol.CodeClarify
}

// guardSingleAsk applies the single-ask invariant to a code produced by the
// reasoning or fallback tier: those tiers may propose a question that was
// already posed, and the guard rewrites it the same way the rule would.
func (e *Engine) guardSingleAsk(st *session.State, code protocol.Code) protocol.Code {
	flag, hasFlag := seekFlags[code]
	if !hasFlag || st.Flag(flag) {
		return code
	}
	if !recentlyAsked(st, code, e.limits.LookbackTurns) {
		return code
	}
	return e.skipAsked(st, code)
}
