// Package session holds the per-conversation state record and its durable
// store. One State exists per session key; the lifecycle manager mutates it
// exactly once per turn and persists it as the turn's final step.
package session

import (
	"time"

	"github.com/karimzakaria/guideflow/internal/protocol"
)

// Turn is one completed exchange. History is append-only; the decision
// engine only reads it through bounded look-back.
type Turn struct {
	Input        string         `json:"input"`
	Response     string         `json:"response"`
	PhaseAtTime  protocol.Phase `json:"phase_at_time"`
	DecisionCode protocol.Code  `json:"decision_code"`
	At           time.Time      `json:"at"`
}

// Tracked holds the most recently stated free-text values, overwritten as
// the user restates them. Later prompts reference these so replies use the
// user's own words.
type Tracked struct {
	Topic    string `json:"topic,omitempty"`
	Location string `json:"location,omitempty"`
	Quality  string `json:"quality,omitempty"`
}

// State is the mutable record of one conversation's progress.
type State struct {
	Key          string                   `json:"key"`
	Phase        protocol.Phase           `json:"phase"`
	Subphase     protocol.Subphase        `json:"subphase,omitempty"`
	Flags        map[protocol.Flag]bool   `json:"flags"`
	Counters     map[protocol.Counter]int `json:"counters"`
	Tracked      Tracked                  `json:"tracked"`
	History      []Turn                   `json:"history"`
	TurnsInPhase int                      `json:"turns_in_phase"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// New creates the state for a fresh session. Absence of stored state is not
// an error; the lifecycle manager calls this on the first turn for a key.
func New(key string) *State {
	now := time.Now().UTC()
	return &State{
		Key:       key,
		Phase:     protocol.First(),
		Flags:     map[protocol.Flag]bool{},
		Counters:  map[protocol.Counter]int{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Flag reports whether a completion flag is set.
func (s *State) Flag(f protocol.Flag) bool {
	return s.Flags[f]
}

// SetFlag sets a completion flag. Flags are set-once: re-setting is a no-op.
// It reports whether the flag was newly set.
func (s *State) SetFlag(f protocol.Flag) bool {
	if s.Flags[f] {
		return false
	}
	s.Flags[f] = true
	return true
}

// Counter returns the current value of a loop-prevention counter.
func (s *State) Counter(c protocol.Counter) int {
	return s.Counters[c]
}

// Increment bumps a counter, clamped at its ceiling. It returns the new
// value and whether the ceiling was reached by this increment.
func (s *State) Increment(c protocol.Counter, ceiling int) (int, bool) {
	v := s.Counters[c]
	if v >= ceiling {
		return v, false
	}
	v++
	s.Counters[c] = v
	return v, v == ceiling
}

// AtCeiling reports whether a counter has reached its ceiling.
func (s *State) AtCeiling(c protocol.Counter, ceiling int) bool {
	return s.Counters[c] >= ceiling
}

// PhaseComplete reports whether every completion flag the current phase
// requires is set.
func (s *State) PhaseComplete() bool {
	for _, f := range protocol.RequiredFlags(s.Phase) {
		if !s.Flags[f] {
			return false
		}
	}
	return true
}

// AdvancePhase moves the session to the next phase. Movement is strictly
// forward; at the terminal phase this is a no-op. Loop counters reset so a
// ceiling reached in one phase cannot instantly eject the session from the
// next. It reports whether the phase changed.
func (s *State) AdvancePhase() bool {
	next, ok := protocol.Next(s.Phase)
	if !ok {
		return false
	}
	s.Phase = next
	s.Subphase = protocol.SubphaseNone
	if next == protocol.PhaseExploration {
		s.Subphase = protocol.SubphaseLocation
	}
	s.TurnsInPhase = 0
	for c := range s.Counters {
		s.Counters[c] = 0
	}
	return true
}

// AppendTurn records a completed turn.
func (s *State) AppendTurn(t Turn) {
	s.History = append(s.History, t)
	s.TurnsInPhase++
	s.UpdatedAt = time.Now().UTC()
}

// LastN returns up to n most recent turns, oldest first.
func (s *State) LastN(n int) []Turn {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	if n > len(s.History) {
		n = len(s.History)
	}
	return s.History[len(s.History)-n:]
}

// RecentDecisions returns the decision codes of the last n turns, oldest
// first. The single-ask rule scans these rather than raw text.
func (s *State) RecentDecisions(n int) []protocol.Code {
	turns := s.LastN(n)
	codes := make([]protocol.Code, len(turns))
	for i, t := range turns {
		codes[i] = t.DecisionCode
	}
	return codes
}

// LastDecision returns the most recent decision code, or "" for a fresh
// session.
func (s *State) LastDecision() protocol.Code {
	if len(s.History) == 0 {
		return ""
	}
	return s.History[len(s.History)-1].DecisionCode
}
