package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/karimzakaria/guideflow/internal/protocol"
	"github.com/karimzakaria/guideflow/internal/vectordb"
)

// fakeStore serves canned results keyed by query text.
type fakeStore struct {
	byQuery     map[string][]vectordb.Result
	count       int
	err         error
	queries     []string
	hadDeadline bool
}

func (f *fakeStore) Add(ctx context.Context, exchanges []vectordb.Exchange) error { return nil }

func (f *fakeStore) Query(ctx context.Context, query string, limit int, where map[string]string) ([]vectordb.Result, error) {
	f.queries = append(f.queries, query)
	_, f.hadDeadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	results := f.byQuery[query]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (f *fakeStore) Persist(ctx context.Context, dir string) error { return nil }
func (f *fakeStore) Load(ctx context.Context, dir string) error    { return nil }
func (f *fakeStore) Count() int                                    { return f.count }

func ex(id, tag string) vectordb.Result {
	return vectordb.Result{
		Exchange:   vectordb.Exchange{ID: id, Text: "example " + id, Tags: []string{tag}},
		Similarity: 0.9,
	}
}

func TestRetrieveFiltersByTag(t *testing.T) {
	store := &fakeStore{
		count: 6,
		byQuery: map[string][]vectordb.Result{
			"tense shoulders": {
				ex("a", "location"), ex("b", "quality"), ex("c", "location"),
				ex("d", "location"), ex("e", "quality"), ex("f", "location"),
			},
		},
	}
	r := New(store, 3, time.Second)

	got, err := r.Retrieve(context.Background(), "tense shoulders", "location", protocol.PhaseExploration)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for _, e := range got {
		if !e.HasTag("location") {
			t.Errorf("exchange %s missing required tag", e.ID)
		}
	}
	// Similarity ordering from the store must be preserved.
	if got[0].ID != "a" || got[1].ID != "c" || got[2].ID != "d" {
		t.Errorf("order = %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestRetrieveBroadensWhenTagSparse(t *testing.T) {
	broad := protocol.CategoryKey(protocol.PhaseExploration)
	store := &fakeStore{
		count: 4,
		byQuery: map[string][]vectordb.Result{
			"tense shoulders": {ex("a", "location"), ex("b", "quality")},
			broad:             {ex("a", "location"), ex("c", "deepen"), ex("d", "quality")},
		},
	}
	r := New(store, 3, time.Second)

	got, err := r.Retrieve(context.Background(), "tense shoulders", "location", protocol.PhaseExploration)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ID != "a" {
		t.Errorf("tagged match should rank first, got %s", got[0].ID)
	}
	// The broadened pass must not reintroduce an exchange already picked.
	seen := make(map[string]int)
	for _, e := range got {
		seen[e.ID]++
	}
	if seen["a"] != 1 {
		t.Errorf("exchange a appears %d times", seen["a"])
	}
	if len(store.queries) != 2 || store.queries[1] != broad {
		t.Errorf("queries = %v, want narrow then broad", store.queries)
	}
}

func TestRetrieveEmptyIndex(t *testing.T) {
	r := New(&fakeStore{count: 0}, 3, time.Second)

	got, err := r.Retrieve(context.Background(), "anything", "location", protocol.PhaseExploration)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestRetrieveNilStore(t *testing.T) {
	r := New(nil, 3, time.Second)
	got, err := r.Retrieve(context.Background(), "anything", "", protocol.PhaseIntake)
	if err != nil || got != nil {
		t.Errorf("nil store: got %v, %v", got, err)
	}
}

func TestRetrieveTotalMiss(t *testing.T) {
	store := &fakeStore{count: 2, byQuery: map[string][]vectordb.Result{}}
	r := New(store, 3, time.Second)

	got, err := r.Retrieve(context.Background(), "no such thing", "location", protocol.PhaseExploration)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestRetrieveQueryError(t *testing.T) {
	store := &fakeStore{count: 2, err: errors.New("index corrupt")}
	r := New(store, 3, time.Second)

	if _, err := r.Retrieve(context.Background(), "anything", "", protocol.PhaseIntake); err == nil {
		t.Fatal("expected error from failing store")
	}
}

func TestRetrieveEmptyTagKeepsAll(t *testing.T) {
	store := &fakeStore{
		count: 2,
		byQuery: map[string][]vectordb.Result{
			"q": {ex("a", "location"), ex("b", "quality")},
		},
	}
	r := New(store, 2, time.Second)

	got, err := r.Retrieve(context.Background(), "q", "", protocol.PhaseExploration)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestRetrieveBoundsLookupWithTimeout(t *testing.T) {
	store := &fakeStore{
		count: 1,
		byQuery: map[string][]vectordb.Result{
			"q": {ex("a", "location")},
		},
	}
	r := New(store, 1, time.Second)

	if _, err := r.Retrieve(context.Background(), "q", "location", protocol.PhaseExploration); err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if !store.hadDeadline {
		t.Error("store query ran without a deadline")
	}
}
