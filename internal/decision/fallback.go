package decision

import (
	"github.com/karimzakaria/guideflow/internal/protocol"
	"github.com/karimzakaria/guideflow/internal/session"
)

// fallbackCode returns a safe default move for the session's position.
// It consults only the phase and its primary completion flag so its output
// is fully deterministic.
func fallbackCode(st *session.State) protocol.Code {
	primarySet := false
	if f, ok := protocol.PrimaryFlag(st.Phase); ok {
		primarySet = st.Flag(f)
	}

	switch st.Phase {
	case protocol.PhaseIntake:
		if primarySet {
			return protocol.CodeAcknowledgeTopic
		}
		return protocol.CodeEstablishTopic
	case protocol.PhaseGrounding:
		if primarySet {
			return protocol.CodeAdvancePhase
		}
		return protocol.CodeConfirmPresent
	case protocol.PhaseExploration:
		if !st.Flag(protocol.FlagDetailLocationKnown) {
			return protocol.CodeAskLocation
		}
		if !st.Flag(protocol.FlagDetailQualityKnown) {
			return protocol.CodeAskQuality
		}
		return protocol.CodeAskDeeper
	case protocol.PhaseIntegration:
		if primarySet {
			return protocol.CodeAdvancePhase
		}
		return protocol.CodeReflectPattern
	case protocol.PhaseClosing:
		return protocol.CodeCheckReadiness
	}
	return protocol.CodeClarify
}
