// Package retrieval selects reference exchanges for the synthesizer. It
// layers tag filtering and a broadened fallback query on top of the raw
// similarity search so the synthesizer always receives the best available
// grounding, or an honest empty set.
package retrieval

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/karimzakaria/guideflow/internal/protocol"
	"github.com/karimzakaria/guideflow/internal/vectordb"
)

// Retriever finds reference exchanges matching the current conversational
// situation.
type Retriever struct {
	store   vectordb.Store
	k       int
	timeout time.Duration
}

// New creates a retriever that returns at most k exchanges per lookup. The
// timeout bounds each lookup; the store's query embeds the query text, so
// this is a real network call.
func New(store vectordb.Store, k int, timeout time.Duration) *Retriever {
	if k <= 0 {
		k = 3
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Retriever{store: store, k: k, timeout: timeout}
}

// Retrieve returns up to k exchanges relevant to the query, preferring those
// carrying the given tag. It over-fetches so the tag filter has candidates
// to discard; when too few tagged exchanges survive, it re-queries with the
// phase's broad category key and no tag requirement. An empty index or a
// total miss yields an empty slice, never an error the caller must branch
// on.
func (r *Retriever) Retrieve(ctx context.Context, query, tag string, phase protocol.Phase) ([]vectordb.Exchange, error) {
	if r.store == nil || r.store.Count() == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	results, err := r.store.Query(ctx, query, 2*r.k, nil)
	if err != nil {
		return nil, fmt.Errorf("querying exchanges: %w", err)
	}

	picked := filterByTag(results, tag, r.k)
	if len(picked) >= r.k {
		return picked, nil
	}

	// Too few tagged matches; broaden to the phase category and accept
	// anything similar.
	broad, err := r.store.Query(ctx, protocol.CategoryKey(phase), 2*r.k, nil)
	if err != nil {
		log.Printf("broadened retrieval failed, keeping %d narrow matches: %v", len(picked), err)
		return picked, nil
	}

	seen := make(map[string]bool, len(picked))
	for _, e := range picked {
		seen[e.ID] = true
	}
	for _, res := range broad {
		if len(picked) >= r.k {
			break
		}
		if seen[res.Exchange.ID] {
			continue
		}
		picked = append(picked, res.Exchange)
		seen[res.Exchange.ID] = true
	}
	return picked, nil
}

// filterByTag keeps results carrying the tag, in descending similarity
// order, up to the limit. An empty tag keeps everything.
func filterByTag(results []vectordb.Result, tag string, limit int) []vectordb.Exchange {
	var out []vectordb.Exchange
	for _, res := range results {
		if len(out) >= limit {
			break
		}
		if tag != "" && !res.Exchange.HasTag(tag) {
			continue
		}
		out = append(out, res.Exchange)
	}
	return out
}
