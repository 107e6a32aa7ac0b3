package decision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/karimzakaria/guideflow/internal/llm"
	"github.com/karimzakaria/guideflow/internal/protocol"
	"github.com/karimzakaria/guideflow/internal/session"
	"github.com/karimzakaria/guideflow/internal/signals"
)

// stubProvider returns a canned completion or error.
type stubProvider struct {
	content string
	err     error
	calls   int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Content: s.content, Model: req.Model}, nil
}

func newTestEngine(t *testing.T, p llm.Provider) *Engine {
	t.Helper()
	return NewEngine(p, "test-model", 0.3, 5*time.Second, DefaultLimits())
}

func TestSafetyShortCircuit(t *testing.T) {
	// A risk signal must win even when a rule would otherwise fire and
	// without ever touching the provider.
	stub := &stubProvider{content: `{"decision": "clarify"}`}
	eng := newTestEngine(t, stub)

	st := session.New("s1")
	sig := signals.Extract("I can't take this anymore, I want to hurt myself")
	if !sig.Risk {
		t.Fatal("extractor did not flag risk input")
	}

	dec := eng.Decide(context.Background(), st, sig)
	if dec.Code != protocol.CodeSafetyProtocol {
		t.Fatalf("code = %s, want %s", dec.Code, protocol.CodeSafetyProtocol)
	}
	if !dec.RuleOverridden {
		t.Error("safety decision should be marked as rule overridden")
	}
	if stub.calls != 0 {
		t.Errorf("provider called %d times during safety turn", stub.calls)
	}
}

func TestEarlyPhaseGateBeatsReasoning(t *testing.T) {
	stub := &stubProvider{content: `{"decision": "ask_deeper"}`}
	eng := newTestEngine(t, stub)

	st := session.New("s1")
	dec := eng.Decide(context.Background(), st, signals.Extract("hello"))
	if dec.Code != protocol.CodeEstablishTopic {
		t.Fatalf("code = %s, want %s", dec.Code, protocol.CodeEstablishTopic)
	}
	if dec.Rule != "early_phase_gate" {
		t.Errorf("rule = %q", dec.Rule)
	}
	if stub.calls != 0 {
		t.Errorf("provider consulted despite a matching rule")
	}
}

func TestEarlyPhaseGateAcknowledgesStatedTopic(t *testing.T) {
	eng := newTestEngine(t, nil)

	st := session.New("s1")
	dec := eng.Decide(context.Background(), st, signals.Extract("I want to work on my anxiety about work"))
	if dec.Code != protocol.CodeAcknowledgeTopic {
		t.Fatalf("code = %s, want %s", dec.Code, protocol.CodeAcknowledgeTopic)
	}
}

func TestRedirectOnPastTenseDuringGrounding(t *testing.T) {
	eng := newTestEngine(t, nil)

	st := session.New("s1")
	st.Phase = protocol.PhaseGrounding
	st.SetFlag(protocol.FlagTopicEstablished)

	dec := eng.Decide(context.Background(), st, signals.Extract("last week I remember it was much worse"))
	if dec.Code != protocol.CodeRedirectPresent {
		t.Fatalf("code = %s, want %s", dec.Code, protocol.CodeRedirectPresent)
	}
}

func TestRedirectSkippedOncePresentConfirmed(t *testing.T) {
	eng := newTestEngine(t, nil)

	st := session.New("s1")
	st.Phase = protocol.PhaseGrounding
	st.SetFlag(protocol.FlagTopicEstablished)
	st.SetFlag(protocol.FlagPresentConfirmed)

	dec := eng.Decide(context.Background(), st, signals.Extract("last week I remember it was much worse"))
	if dec.Code == protocol.CodeRedirectPresent {
		t.Fatal("redirect fired after present moment was already confirmed")
	}
}

func TestSingleAskSkipsForward(t *testing.T) {
	eng := newTestEngine(t, nil)

	st := session.New("s1")
	st.Phase = protocol.PhaseExploration
	st.AppendTurn(session.Turn{
		Input:        "it's hard to say",
		Response:     "where in your body do you notice it?",
		PhaseAtTime:  protocol.PhaseExploration,
		DecisionCode: protocol.CodeAskLocation,
	})

	dec := eng.Decide(context.Background(), st, signals.Extract("hm"))
	if dec.Code == protocol.CodeAskLocation {
		t.Fatal("location question repeated within the look-back window")
	}
	if dec.Rule != "single_ask_rule" {
		t.Errorf("rule = %q", dec.Rule)
	}
	if dec.Code != protocol.CodeAskQuality {
		t.Errorf("code = %s, want the next unmet step %s", dec.Code, protocol.CodeAskQuality)
	}
}

func TestMandatoryStepDefersToSingleAsk(t *testing.T) {
	// Quality talk with location unknown normally forces ask_location, but
	// not when the location question was just posed.
	eng := newTestEngine(t, nil)

	st := session.New("s1")
	st.Phase = protocol.PhaseExploration
	st.AppendTurn(session.Turn{
		Input:        "ok",
		Response:     "where do you feel it?",
		PhaseAtTime:  protocol.PhaseExploration,
		DecisionCode: protocol.CodeAskLocation,
	})

	dec := eng.Decide(context.Background(), st, signals.Extract("it feels tight and heavy"))
	if dec.Code == protocol.CodeAskLocation {
		t.Fatal("mandatory step re-asked a question within the look-back window")
	}
}

func TestEscapeOnClarifyCeiling(t *testing.T) {
	eng := newTestEngine(t, nil)

	st := session.New("s1")
	st.Phase = protocol.PhaseExploration
	for i := 0; i < eng.Limits().MaxClarifyQuestions; i++ {
		st.Increment(protocol.CounterClarify, eng.Limits().MaxClarifyQuestions)
	}

	dec := eng.Decide(context.Background(), st, signals.Extract("I don't know"))
	if dec.Code != protocol.CodeAdvancePhase {
		t.Fatalf("code = %s, want %s", dec.Code, protocol.CodeAdvancePhase)
	}
	if dec.Rule != "escape_rule" {
		t.Errorf("rule = %q", dec.Rule)
	}
}

func TestEscapeOnNothingMore(t *testing.T) {
	eng := newTestEngine(t, nil)

	st := session.New("s1")
	st.Phase = protocol.PhaseExploration
	st.SetFlag(protocol.FlagDetailLocationKnown)
	st.SetFlag(protocol.FlagDetailQualityKnown)
	st.AppendTurn(session.Turn{
		Input:        "a dull ache",
		Response:     "is there anything else you notice?",
		PhaseAtTime:  protocol.PhaseExploration,
		DecisionCode: protocol.CodeAnythingElse,
	})

	dec := eng.Decide(context.Background(), st, signals.Extract("no, nothing else really"))
	if dec.Code != protocol.CodeAdvancePhase {
		t.Fatalf("code = %s, want %s", dec.Code, protocol.CodeAdvancePhase)
	}
}

func TestPhaseLockInClosing(t *testing.T) {
	eng := newTestEngine(t, nil)

	st := session.New("s1")
	st.Phase = protocol.PhaseClosing

	first := eng.Decide(context.Background(), st, signals.Extract("ok"))
	if first.Code != protocol.CodeCheckReadiness {
		t.Fatalf("first closing move = %s, want %s", first.Code, protocol.CodeCheckReadiness)
	}

	st.AppendTurn(session.Turn{
		Input:        "ok",
		Response:     "does this feel like a good place to pause?",
		PhaseAtTime:  protocol.PhaseClosing,
		DecisionCode: protocol.CodeCheckReadiness,
	})
	second := eng.Decide(context.Background(), st, signals.Extract("yes, I'm done"))
	if second.Code != protocol.CodeCloseSession {
		t.Fatalf("second closing move = %s, want %s", second.Code, protocol.CodeCloseSession)
	}
}

func TestClosingNeverEmitsQuestions(t *testing.T) {
	eng := newTestEngine(t, nil)

	st := session.New("s1")
	st.Phase = protocol.PhaseClosing

	// However many turns the user lingers, closing only checks readiness
	// or ends the session. Repeated readiness checks must not degrade
	// into clarifying questions.
	for i := 0; i < 5; i++ {
		dec := eng.Decide(context.Background(), st, signals.Extract("mm"))
		if dec.Code != protocol.CodeCheckReadiness && dec.Code != protocol.CodeCloseSession {
			t.Fatalf("closing turn %d emitted %s", i, dec.Code)
		}
		st.AppendTurn(session.Turn{
			Input:        "mm",
			Response:     "ok",
			PhaseAtTime:  protocol.PhaseClosing,
			DecisionCode: dec.Code,
		})
	}
}

func TestReasoningTierAcceptsLegalCode(t *testing.T) {
	stub := &stubProvider{content: `{"decision": "ask_deeper", "situation": "details named", "retrieval": "deepen", "reasoning": "both details are known"}`}
	eng := newTestEngine(t, stub)

	st := explorationWithDetails()
	dec := eng.Decide(context.Background(), st, signals.Extract("it spreads when I breathe"))
	if dec.Code != protocol.CodeAskDeeper {
		t.Fatalf("code = %s, want %s", dec.Code, protocol.CodeAskDeeper)
	}
	if dec.RuleOverridden {
		t.Error("reasoning tier output should not be marked overridden")
	}
	if dec.Reasoning == "" {
		t.Error("reasoning field dropped")
	}
	if stub.calls != 1 {
		t.Errorf("provider calls = %d, want 1", stub.calls)
	}
}

func TestReasoningTierFencedJSON(t *testing.T) {
	stub := &stubProvider{content: "Here is my choice:\n```json\n{\"decision\": \"ask_deeper\"}\n```"}
	eng := newTestEngine(t, stub)

	st := explorationWithDetails()
	dec := eng.Decide(context.Background(), st, signals.Extract("it spreads when I breathe"))
	if dec.Code != protocol.CodeAskDeeper {
		t.Fatalf("code = %s, want %s", dec.Code, protocol.CodeAskDeeper)
	}
}

func TestIllegalCodeFallsToStatic(t *testing.T) {
	stub := &stubProvider{content: `{"decision": "hypnotize_user"}`}
	eng := newTestEngine(t, stub)

	st := explorationWithDetails()
	dec := eng.Decide(context.Background(), st, signals.Extract("it spreads when I breathe"))
	if !protocol.IsLegal(dec.Code) {
		t.Fatalf("illegal code %q leaked through", dec.Code)
	}
	if dec.Code != protocol.CodeAskDeeper {
		t.Errorf("static fallback = %s, want %s", dec.Code, protocol.CodeAskDeeper)
	}
}

func TestModelCannotEmitSafetyCode(t *testing.T) {
	stub := &stubProvider{content: `{"decision": "safety_protocol"}`}
	eng := newTestEngine(t, stub)

	st := explorationWithDetails()
	dec := eng.Decide(context.Background(), st, signals.Extract("it spreads when I breathe"))
	if dec.Code == protocol.CodeSafetyProtocol {
		t.Fatal("model-originated safety code was accepted")
	}
}

func TestProviderErrorFallsToStatic(t *testing.T) {
	stub := &stubProvider{err: errors.New("backend down")}
	eng := newTestEngine(t, stub)

	st := session.New("s1")
	st.Phase = protocol.PhaseGrounding
	st.SetFlag(protocol.FlagTopicEstablished)
	st.SetFlag(protocol.FlagPresentConfirmed)

	dec := eng.Decide(context.Background(), st, signals.Extract("alright"))
	if dec.Code != protocol.CodeAdvancePhase {
		t.Fatalf("code = %s, want %s", dec.Code, protocol.CodeAdvancePhase)
	}
}

func TestNilProviderUsesStaticFallback(t *testing.T) {
	eng := newTestEngine(t, nil)

	st := session.New("s1")
	st.Phase = protocol.PhaseIntegration
	st.SetFlag(protocol.FlagTopicEstablished)

	dec := eng.Decide(context.Background(), st, signals.Extract("I see how these connect"))
	if dec.Code != protocol.CodeReflectPattern {
		t.Fatalf("code = %s, want %s", dec.Code, protocol.CodeReflectPattern)
	}
}

func TestStaticFallbackCoversEveryPhase(t *testing.T) {
	eng := newTestEngine(t, nil)

	for _, p := range protocol.Phases() {
		st := session.New("p-" + string(p))
		st.Phase = p
		st.TurnsInPhase = 5 // keep the early phase gate out of the way

		dec := eng.Decide(context.Background(), st, signals.Extract("mm"))
		if !protocol.IsLegal(dec.Code) {
			t.Errorf("phase %s: illegal fallback code %q", p, dec.Code)
		}
	}
}

func TestFallbackCodeFollowsPrimaryFlag(t *testing.T) {
	grounded := session.New("s1")
	grounded.Phase = protocol.PhaseGrounding
	if got := fallbackCode(grounded); got != protocol.CodeConfirmPresent {
		t.Errorf("grounding without flag = %s, want %s", got, protocol.CodeConfirmPresent)
	}
	grounded.SetFlag(protocol.FlagPresentConfirmed)
	if got := fallbackCode(grounded); got != protocol.CodeAdvancePhase {
		t.Errorf("grounding with flag = %s, want %s", got, protocol.CodeAdvancePhase)
	}

	// Closing has no primary flag at all; the lookup must tolerate that.
	closing := session.New("s2")
	closing.Phase = protocol.PhaseClosing
	if got := fallbackCode(closing); got != protocol.CodeCheckReadiness {
		t.Errorf("closing = %s, want %s", got, protocol.CodeCheckReadiness)
	}
}

func explorationWithDetails() *session.State {
	st := session.New("s1")
	st.Phase = protocol.PhaseExploration
	st.SetFlag(protocol.FlagTopicEstablished)
	st.SetFlag(protocol.FlagPresentConfirmed)
	st.SetFlag(protocol.FlagDetailLocationKnown)
	st.SetFlag(protocol.FlagDetailQualityKnown)
	return st
}
