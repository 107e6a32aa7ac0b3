package protocol

// Code is a decision code: the engine's choice of conversational move for one
// turn. Every tier of the decision engine must emit a code from this
// enumeration; anything else is rejected.
type Code string

const (
	CodeEstablishTopic   Code = "establish_topic"
	CodeAcknowledgeTopic Code = "acknowledge_topic"
	CodeConfirmPresent   Code = "confirm_present"
	CodeRedirectPresent  Code = "redirect_present"
	CodeAskLocation      Code = "ask_location"
	CodeAskQuality       Code = "ask_quality"
	CodeAskDeeper        Code = "ask_deeper"
	CodeAnythingElse     Code = "anything_else"
	CodeClarify          Code = "clarify"
	CodeReflectPattern   Code = "reflect_pattern"
	CodeCheckReadiness   Code = "check_readiness"
	CodeAdvancePhase     Code = "advance_phase"
	CodeSafetyProtocol   Code = "safety_protocol"
	CodeCloseSession     Code = "close_session"
)

var legalCodes = map[Code]bool{
	CodeEstablishTopic:   true,
	CodeAcknowledgeTopic: true,
	CodeConfirmPresent:   true,
	CodeRedirectPresent:  true,
	CodeAskLocation:      true,
	CodeAskQuality:       true,
	CodeAskDeeper:        true,
	CodeAnythingElse:     true,
	CodeClarify:          true,
	CodeReflectPattern:   true,
	CodeCheckReadiness:   true,
	CodeAdvancePhase:     true,
	CodeSafetyProtocol:   true,
	CodeCloseSession:     true,
}

// IsLegal reports whether c is part of the decision-code enumeration.
func IsLegal(c Code) bool {
	return legalCodes[c]
}

// LegalCodes returns every valid decision code in a stable order. The slice
// is used verbatim in the Tier-2 reasoning prompt.
func LegalCodes() []Code {
	return []Code{
		CodeEstablishTopic,
		CodeAcknowledgeTopic,
		CodeConfirmPresent,
		CodeRedirectPresent,
		CodeAskLocation,
		CodeAskQuality,
		CodeAskDeeper,
		CodeAnythingElse,
		CodeClarify,
		CodeReflectPattern,
		CodeCheckReadiness,
		CodeAdvancePhase,
		CodeSafetyProtocol,
		CodeCloseSession,
	}
}

// situationTags describe the conversational situation each code responds to;
// they feed the synthesis prompt.
var situationTags = map[Code]string{
	CodeEstablishTopic:   "opening, no topic yet",
	CodeAcknowledgeTopic: "user named a topic",
	CodeConfirmPresent:   "inviting attention to right now",
	CodeRedirectPresent:  "user drifted to the past or skipped ahead",
	CodeAskLocation:      "asking where something is felt",
	CodeAskQuality:       "asking what the feeling is like",
	CodeAskDeeper:        "inviting a closer look",
	CodeAnythingElse:     "checking for anything more",
	CodeClarify:          "answer was ambiguous",
	CodeReflectPattern:   "mirroring an emerging pattern",
	CodeCheckReadiness:   "checking readiness to finish",
	CodeAdvancePhase:     "moving the session forward",
	CodeSafetyProtocol:   "risk language detected",
	CodeCloseSession:     "session complete",
}

// retrievalTags are the corpus tags used to fetch grounding examples for a
// code.
var retrievalTags = map[Code]string{
	CodeEstablishTopic:   "opening",
	CodeAcknowledgeTopic: "topic",
	CodeConfirmPresent:   "present",
	CodeRedirectPresent:  "redirect",
	CodeAskLocation:      "location",
	CodeAskQuality:       "quality",
	CodeAskDeeper:        "deepen",
	CodeAnythingElse:     "more",
	CodeClarify:          "clarify",
	CodeReflectPattern:   "pattern",
	CodeCheckReadiness:   "readiness",
	CodeAdvancePhase:     "advance",
	CodeSafetyProtocol:   "safety",
	CodeCloseSession:     "closing",
}

// SituationTag returns the situation description for a code.
func SituationTag(c Code) string {
	return situationTags[c]
}

// RetrievalTag returns the corpus tag for a code.
func RetrievalTag(c Code) string {
	return retrievalTags[c]
}

// Counter names a bounded loop-prevention counter. The two counters are
// configured independently; different protocol revisions disagree on their
// ceilings, so no shared value is assumed.
type Counter string

const (
	CounterClarify Counter = "clarify_questions"
	CounterExplore Counter = "explore_cycles"
)

// countedCodes maps each decision code that consumes loop budget to the
// counter it increments.
var countedCodes = map[Code]Counter{
	CodeClarify:   CounterClarify,
	CodeAskDeeper: CounterExplore,
}

// CounterFor returns the counter a decision code increments, if any. The
// lifecycle manager applies the increment exactly once per turn.
func CounterFor(c Code) (Counter, bool) {
	ctr, ok := countedCodes[c]
	return ctr, ok
}

// AskSequence returns the ordered clarifying questions of a phase: the chain
// the single-ask rule walks when an earlier question was already posed. Codes
// later in the chain are only reached by skipping, never by regression.
func AskSequence(p Phase) []Code {
	switch p {
	case PhaseIntake:
		return []Code{CodeEstablishTopic}
	case PhaseGrounding:
		return []Code{CodeConfirmPresent}
	case PhaseExploration:
		return []Code{CodeAskLocation, CodeAskQuality, CodeAskDeeper, CodeAnythingElse}
	case PhaseIntegration:
		return []Code{CodeReflectPattern, CodeAnythingElse}
	case PhaseClosing:
		return []Code{CodeCheckReadiness}
	}
	return nil
}
