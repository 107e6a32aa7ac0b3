package protocol

import "testing"

func TestPhaseOrderIsMonotonic(t *testing.T) {
	p := First()
	seen := map[Phase]bool{p: true}
	ord := Ordinal(p)

	for {
		next, ok := Next(p)
		if !ok {
			break
		}
		if seen[next] {
			t.Fatalf("phase %s visited twice; graph has a cycle", next)
		}
		if Ordinal(next) <= ord {
			t.Fatalf("Next(%s)=%s does not move forward", p, next)
		}
		seen[next] = true
		ord = Ordinal(next)
		p = next
	}

	if p != PhaseClosing {
		t.Errorf("terminal phase = %s, want %s", p, PhaseClosing)
	}
}

func TestNextTerminal(t *testing.T) {
	if _, ok := Next(PhaseClosing); ok {
		t.Error("closing phase should have no successor")
	}
	if _, ok := Next(Phase("bogus")); ok {
		t.Error("unknown phase should have no successor")
	}
}

func TestBefore(t *testing.T) {
	if !Before(PhaseIntake, PhaseClosing) {
		t.Error("intake should be before closing")
	}
	if Before(PhaseClosing, PhaseIntake) {
		t.Error("closing should not be before intake")
	}
	if Before(PhaseIntake, Phase("bogus")) {
		t.Error("unknown phase should compare false")
	}
}

func TestLegalCodesAllMapped(t *testing.T) {
	for _, c := range LegalCodes() {
		if !IsLegal(c) {
			t.Errorf("LegalCodes contains illegal code %q", c)
		}
		if SituationTag(c) == "" {
			t.Errorf("code %q has no situation tag", c)
		}
		if RetrievalTag(c) == "" {
			t.Errorf("code %q has no retrieval tag", c)
		}
	}
	if IsLegal(Code("made_up")) {
		t.Error("unknown code reported legal")
	}
}

func TestPrimaryFlag(t *testing.T) {
	f, ok := PrimaryFlag(PhaseIntake)
	if !ok || f != FlagTopicEstablished {
		t.Errorf("PrimaryFlag(intake) = %q, %v", f, ok)
	}
	if _, ok := PrimaryFlag(PhaseClosing); ok {
		t.Error("closing phase should have no primary flag")
	}
}

func TestCounterFor(t *testing.T) {
	if ctr, ok := CounterFor(CodeClarify); !ok || ctr != CounterClarify {
		t.Errorf("CounterFor(clarify) = %q, %v", ctr, ok)
	}
	if ctr, ok := CounterFor(CodeAskDeeper); !ok || ctr != CounterExplore {
		t.Errorf("CounterFor(ask_deeper) = %q, %v", ctr, ok)
	}
	if _, ok := CounterFor(CodeEstablishTopic); ok {
		t.Error("establish_topic should not be counted")
	}
}

func TestAskSequenceCoversPhases(t *testing.T) {
	for _, p := range []Phase{PhaseIntake, PhaseGrounding, PhaseExploration, PhaseIntegration, PhaseClosing} {
		seq := AskSequence(p)
		if len(seq) == 0 {
			t.Errorf("phase %s has empty ask sequence", p)
		}
		for _, c := range seq {
			if !IsLegal(c) {
				t.Errorf("phase %s ask sequence contains illegal code %q", p, c)
			}
		}
	}
}

func TestCategoryKeyFallback(t *testing.T) {
	if CategoryKey(Phase("bogus")) == "" {
		t.Error("unknown phase should fall back to a non-empty category key")
	}
}
