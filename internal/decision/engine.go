package decision

import (
	"context"

	"github.com/karimzakaria/guideflow/internal/protocol"
	"github.com/karimzakaria/guideflow/internal/session"
	"github.com/karimzakaria/guideflow/internal/signals"
)

// Decide produces the navigation decision for one turn. It never fails: a
// risk signal short-circuits to the safety path, the ordered rules cover the
// protocol invariants, the reasoning tier handles everything else, and the
// static fallback absorbs reasoning failures.
func (e *Engine) Decide(ctx context.Context, st *session.State, sig signals.Signals) Decision {
	// Safety routes before any rule or tier and is never delegated to the
	// model.
	if sig.Risk {
		return fromCode(protocol.CodeSafetyProtocol, true, "safety_short_circuit", "")
	}

	// Tier 1: ordered deterministic rules, first match wins.
	for _, r := range rules {
		if code, ok := r.apply(e, st, sig); ok {
			return fromCode(code, true, r.name, "")
		}
	}

	// Tier 2: model-assisted reasoning.
	if e.provider != nil {
		if dec, err := e.reason(ctx, st, sig); err == nil {
			dec.Code = e.guardSingleAsk(st, dec.Code)
			if dec.Code != "" {
				return dec
			}
		}
	}

	// Tier 3: static fallback, guarded the same way.
	code := e.guardSingleAsk(st, fallbackCode(st))
	return fromCode(code, false, "", "static fallback")
}

// Limits exposes the engine's loop-prevention configuration to the
// lifecycle manager, which applies counter increments.
func (e *Engine) Limits() Limits {
	return e.limits
}
