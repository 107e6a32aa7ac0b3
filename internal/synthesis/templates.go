package synthesis

import (
	"strings"

	"github.com/karimzakaria/guideflow/internal/protocol"
	"github.com/karimzakaria/guideflow/internal/session"
)

// templates holds the replies whose wording must never vary. The {topic}
// placeholder is filled from tracked entities when present.
var templates = map[protocol.Code]string{
	protocol.CodeEstablishTopic:  "Welcome. Before we begin, what would you like to focus on today?",
	protocol.CodeRedirectPresent: "We'll get to that. For now, let's stay with what is here right now. What do you notice in this moment?",
	protocol.CodeSafetyProtocol:  "Thank you for telling me. What you're describing deserves more support than this exercise can offer. Please reach out to someone you trust or a local crisis line right away. We can pause here.",
	protocol.CodeCloseSession:    "Thank you for taking this time. We'll leave it here for today.",
}

func renderTemplate(text string, st *session.State) string {
	if topic := st.Tracked.Topic; topic != "" {
		text = strings.ReplaceAll(text, "{topic}", topic)
	}
	return text
}

// escapeLine is the fixed utterance emitted when a loop budget runs out. It
// names the move forward so the transition is visible to the user.
func escapeLine(p protocol.Phase) string {
	next, ok := protocol.Next(p)
	if !ok {
		return "Let's gently bring this to a close."
	}
	switch next {
	case protocol.PhaseGrounding:
		return "That's okay, it doesn't need to be precise. Let's move on and settle into the present moment together."
	case protocol.PhaseExploration:
		return "That's enough to work with. Let's move on and look at what you're noticing more closely."
	case protocol.PhaseIntegration:
		return "We've spent good time here. Let's step back and see what this has shown so far."
	default:
		return "We've covered a lot. Let's begin drawing this to a close."
	}
}

// fallbackLine is the degraded reply when generation is unavailable. One
// serviceable line per decision code so the protocol keeps moving.
var fallbackLines = map[protocol.Code]string{
	protocol.CodeEstablishTopic:   "What would you like to focus on today?",
	protocol.CodeAcknowledgeTopic: "Thank you for sharing that. Let's take a moment to arrive before we look closer.",
	protocol.CodeConfirmPresent:   "Take a breath. What do you notice right now, in this moment?",
	protocol.CodeRedirectPresent:  "Let's come back to right now. What is present for you in this moment?",
	protocol.CodeAskLocation:      "Where in your body do you notice that most?",
	protocol.CodeAskQuality:       "How would you describe the feeling there?",
	protocol.CodeAskDeeper:        "Stay with that a moment. Does anything shift as you notice it?",
	protocol.CodeAnythingElse:     "Is there anything else you notice?",
	protocol.CodeClarify:          "Could you say a little more about that?",
	protocol.CodeReflectPattern:   "As you look at what came up today, what stands out to you?",
	protocol.CodeCheckReadiness:   "Does this feel like a good place to pause for today?",
	protocol.CodeAdvancePhase:     "Let's take the next step together.",
	protocol.CodeCloseSession:     "Thank you for taking this time. We'll leave it here for today.",
}

func fallbackLine(c protocol.Code) string {
	if line, ok := fallbackLines[c]; ok {
		return line
	}
	return "I'm here with you. Take your time."
}
