// Package protocol defines the fixed dialogue protocol: the ordered phase
// graph, the completion flags each phase requires, and the enumeration of
// decision codes the engine is allowed to emit.
package protocol

// Phase identifies a position in the protocol graph. Sessions only ever move
// forward along phaseOrder, never backward.
type Phase string

const (
	PhaseIntake      Phase = "intake"
	PhaseGrounding   Phase = "grounding"
	PhaseExploration Phase = "exploration"
	PhaseIntegration Phase = "integration"
	PhaseClosing     Phase = "closing"
)

// Subphase identifies a position within a phase. Only exploration has
// meaningful subphases.
type Subphase string

const (
	SubphaseNone     Subphase = ""
	SubphaseLocation Subphase = "location"
	SubphaseQuality  Subphase = "quality"
	SubphaseDeepen   Subphase = "deepen"
)

// phaseOrder is the full protocol graph. It is a straight line; changing it
// changes session semantics everywhere.
var phaseOrder = []Phase{
	PhaseIntake,
	PhaseGrounding,
	PhaseExploration,
	PhaseIntegration,
	PhaseClosing,
}

// Phases returns the protocol phases in order.
func Phases() []Phase {
	out := make([]Phase, len(phaseOrder))
	copy(out, phaseOrder)
	return out
}

// Flag is a named completion criterion. Flags are set exactly once per
// session and never cleared.
type Flag string

const (
	FlagTopicEstablished      Flag = "topic_established"
	FlagPresentConfirmed      Flag = "present_moment_confirmed"
	FlagDetailLocationKnown   Flag = "detail_location_known"
	FlagDetailQualityKnown    Flag = "detail_quality_known"
	FlagPatternUnderstood     Flag = "pattern_understood"
)

// requiredFlags lists the flags that must be set before a phase is complete.
var requiredFlags = map[Phase][]Flag{
	PhaseIntake:      {FlagTopicEstablished},
	PhaseGrounding:   {FlagPresentConfirmed},
	PhaseExploration: {FlagDetailLocationKnown, FlagDetailQualityKnown},
	PhaseIntegration: {FlagPatternUnderstood},
	PhaseClosing:     nil,
}

// primaryFlag is the single flag that gates the earliest advance out of a
// phase; it is the first entry of requiredFlags.
func PrimaryFlag(p Phase) (Flag, bool) {
	flags := requiredFlags[p]
	if len(flags) == 0 {
		return "", false
	}
	return flags[0], true
}

// RequiredFlags returns the completion flags a session must set before it is
// eligible to leave the given phase.
func RequiredFlags(p Phase) []Flag {
	return requiredFlags[p]
}

// Ordinal returns the 1-based position of a phase in the protocol graph, or 0
// for an unknown phase.
func Ordinal(p Phase) int {
	for i, ph := range phaseOrder {
		if ph == p {
			return i + 1
		}
	}
	return 0
}

// Next returns the phase that follows p. ok is false when p is terminal or
// unknown.
func Next(p Phase) (Phase, bool) {
	for i, ph := range phaseOrder {
		if ph == p && i+1 < len(phaseOrder) {
			return phaseOrder[i+1], true
		}
	}
	return p, false
}

// Before reports whether a comes strictly earlier than b in the protocol.
func Before(a, b Phase) bool {
	return Ordinal(a) != 0 && Ordinal(b) != 0 && Ordinal(a) < Ordinal(b)
}

// ValidPhase reports whether p is a known phase.
func ValidPhase(p Phase) bool {
	return Ordinal(p) != 0
}

// First returns the initial phase of every new session.
func First() Phase {
	return phaseOrder[0]
}

// categoryKeys are the broad retrieval keys used when a tag-filtered search
// comes back short and the retriever retries without the tag.
var categoryKeys = map[Phase]string{
	PhaseIntake:      "naming a topic or goal for the session",
	PhaseGrounding:   "settling into the present moment",
	PhaseExploration: "exploring where and how something is felt",
	PhaseIntegration: "recognizing a pattern or meaning",
	PhaseClosing:     "checking readiness to finish",
}

// CategoryKey returns the broadened retrieval query for a phase.
func CategoryKey(p Phase) string {
	if k, ok := categoryKeys[p]; ok {
		return k
	}
	return categoryKeys[PhaseIntake]
}
