// Package lifecycle coordinates one dialogue turn end to end: extract
// signals, decide, retrieve grounding, synthesize the reply, then mutate and
// persist the session as one final step. It owns per-session serialization
// and is the only writer of session state.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/karimzakaria/guideflow/internal/decision"
	"github.com/karimzakaria/guideflow/internal/protocol"
	"github.com/karimzakaria/guideflow/internal/retrieval"
	"github.com/karimzakaria/guideflow/internal/session"
	"github.com/karimzakaria/guideflow/internal/signals"
	"github.com/karimzakaria/guideflow/internal/synthesis"
)

// Auditor records per-turn diagnostics. Implemented by the SQL session
// store; nil disables auditing.
type Auditor interface {
	AuditTurn(ctx context.Context, key string, phase protocol.Phase, code protocol.Code, overridden bool, latency time.Duration) error
}

// TurnResult is what the inbound surfaces return for one submitted turn.
type TurnResult struct {
	Response string            `json:"response"`
	Phase    protocol.Phase    `json:"phase"`
	Subphase protocol.Subphase `json:"subphase,omitempty"`
	Decision protocol.Code     `json:"decision"`
}

// Progress is the status view of a session. A key with no stored state
// reports the zero-value view, not an error.
type Progress struct {
	Phase    protocol.Phase           `json:"phase"`
	Subphase protocol.Subphase        `json:"subphase,omitempty"`
	Flags    map[protocol.Flag]bool   `json:"completion_flags"`
	Counters map[protocol.Counter]int `json:"counters"`
	Turns    int                      `json:"turns"`
}

// Manager runs the per-turn pipeline.
type Manager struct {
	store     session.Store
	engine    *decision.Engine
	retriever *retrieval.Retriever
	synth     *synthesis.Synthesizer
	auditor   Auditor
	ttl       time.Duration
	locks     *keyedMutex
}

// New wires the pipeline. auditor may be nil.
func New(store session.Store, engine *decision.Engine, retriever *retrieval.Retriever, synth *synthesis.Synthesizer, auditor Auditor, ttl time.Duration) *Manager {
	return &Manager{
		store:     store,
		engine:    engine,
		retriever: retriever,
		synth:     synth,
		auditor:   auditor,
		ttl:       ttl,
		locks:     newKeyedMutex(),
	}
}

// SubmitTurn resolves one turn for the session. Turns for the same key are
// strictly serialized; state is mutated and persisted only as the final
// step, so cancellation mid-turn leaves the stored session untouched.
func (m *Manager) SubmitTurn(ctx context.Context, key, text string) (*TurnResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("session key is required")
	}
	unlock := m.locks.lock(key)
	defer unlock()

	started := time.Now()

	st, err := m.store.Get(ctx, key)
	if errors.Is(err, session.ErrNotFound) {
		st = session.New(key)
	} else if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", key, err)
	}

	sig := signals.Extract(text)
	dec := m.engine.Decide(ctx, st, sig)
	phaseAtTime := st.Phase

	examples, err := m.retriever.Retrieve(ctx, text, dec.RetrievalTag, st.Phase)
	if err != nil {
		// Missing grounding degrades the reply, it never fails the turn.
		log.Printf("retrieval failed for session %s: %v", key, err)
		examples = nil
	}

	res := m.synth.Synthesize(ctx, dec, st, examples)

	// All fallible work is done; refuse to persist a half-finished turn.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("turn cancelled before commit: %w", err)
	}

	m.applyTurn(st, sig, dec, res, text)
	if err := m.store.Put(ctx, st, m.ttl); err != nil {
		return nil, fmt.Errorf("persisting session %s: %w", key, err)
	}

	if m.auditor != nil {
		if err := m.auditor.AuditTurn(ctx, key, phaseAtTime, dec.Code, dec.RuleOverridden, time.Since(started)); err != nil {
			log.Printf("audit write failed for session %s: %v", key, err)
		}
	}

	return &TurnResult{
		Response: res.Text,
		Phase:    st.Phase,
		Subphase: st.Subphase,
		Decision: dec.Code,
	}, nil
}

// applyTurn performs the single state mutation of the turn: history append,
// flag and tracked-entity updates from signals, the counter bump, and any
// phase advance.
func (m *Manager) applyTurn(st *session.State, sig signals.Signals, dec decision.Decision, res synthesis.Result, input string) {
	// Flags first: applySignals inspects the previous turn's decision, so
	// it must run before this turn joins the history.
	applySignals(st, sig, input)

	st.AppendTurn(session.Turn{
		Input:        input,
		Response:     res.Text,
		PhaseAtTime:  st.Phase,
		DecisionCode: dec.Code,
		At:           time.Now().UTC(),
	})

	if res.Bump != "" {
		st.Increment(res.Bump, m.engine.Limits().Ceiling(res.Bump))
	}

	switch {
	case res.Escaped:
		st.AdvancePhase()
	case dec.Code == protocol.CodeAdvancePhase:
		st.AdvancePhase()
	case dec.Code == protocol.CodeCloseSession:
		// Terminal; closing has no successor and AdvancePhase is a no-op.
	case st.PhaseComplete() && st.Phase != protocol.PhaseClosing:
		st.AdvancePhase()
	}
}

// applySignals sets completion flags and tracked entities the current input
// supports. Flags are phase-gated so talk about a later step never
// short-circuits the protocol.
func applySignals(st *session.State, sig signals.Signals, input string) {
	switch st.Phase {
	case protocol.PhaseIntake:
		if sig.Has(signals.CategoryTopic) {
			if st.SetFlag(protocol.FlagTopicEstablished) {
				st.Tracked.Topic = clip(input, 140)
			}
		}
	case protocol.PhaseGrounding:
		if sig.Tense == signals.TensePresent && !sig.Has(signals.CategoryLaterStep) {
			st.SetFlag(protocol.FlagPresentConfirmed)
		}
	case protocol.PhaseExploration:
		if sig.Has(signals.CategoryLocation) {
			if st.SetFlag(protocol.FlagDetailLocationKnown) {
				st.Tracked.Location = sig.FirstHit(signals.CategoryLocation)
				st.Subphase = protocol.SubphaseQuality
			}
		}
		if sig.Has(signals.CategoryQuality) && st.Flag(protocol.FlagDetailLocationKnown) {
			if st.SetFlag(protocol.FlagDetailQualityKnown) {
				st.Tracked.Quality = sig.FirstHit(signals.CategoryQuality)
				st.Subphase = protocol.SubphaseDeepen
			}
		}
	case protocol.PhaseIntegration:
		// A substantive answer to the pattern reflection counts as
		// understanding; a shrug or "nothing more" does not.
		if st.LastDecision() == protocol.CodeReflectPattern &&
			len(strings.Fields(input)) >= 3 &&
			!sig.Has(signals.CategoryNothingMore) {
			st.SetFlag(protocol.FlagPatternUnderstood)
		}
	}
}

// GetProgress reports a session's position. Unknown keys return the
// zero-value view of a brand-new session.
func (m *Manager) GetProgress(ctx context.Context, key string) (*Progress, error) {
	st, err := m.store.Get(ctx, key)
	if errors.Is(err, session.ErrNotFound) {
		st = session.New(key)
	} else if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", key, err)
	}

	flags := make(map[protocol.Flag]bool)
	for _, p := range protocol.Phases() {
		for _, f := range protocol.RequiredFlags(p) {
			flags[f] = st.Flag(f)
		}
	}
	counters := map[protocol.Counter]int{
		protocol.CounterClarify: st.Counter(protocol.CounterClarify),
		protocol.CounterExplore: st.Counter(protocol.CounterExplore),
	}
	return &Progress{
		Phase:    st.Phase,
		Subphase: st.Subphase,
		Flags:    flags,
		Counters: counters,
		Turns:    len(st.History),
	}, nil
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
