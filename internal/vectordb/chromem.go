package vectordb

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"

	"github.com/karimzakaria/guideflow/internal/embeddings"
)

const collectionName = "exchanges"

// ChromemStore implements Store using chromem-go.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embeddings.Embedder
	embedFunc  chromem.EmbeddingFunc
}

// NewChromemStore creates a new in-memory ChromemStore.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		embedder:   embedder,
		embedFunc:  ef,
	}, nil
}

func (s *ChromemStore) Add(ctx context.Context, exchanges []Exchange) error {
	if len(exchanges) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(exchanges))
	for i, ex := range exchanges {
		docs[i] = chromem.Document{
			ID:      ex.ID,
			Content: ex.Text,
			Metadata: map[string]string{
				"tags":      joinTags(ex.Tags),
				"phase":     ex.Phase,
				"situation": ex.Situation,
			},
		}
	}

	return s.collection.AddDocuments(ctx, docs, 1)
}

func (s *ChromemStore) Query(ctx context.Context, query string, limit int, where map[string]string) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	if len(where) == 0 {
		where = nil
	}

	results, err := s.collection.Query(ctx, query, limit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = Result{
			Exchange: Exchange{
				ID:        r.ID,
				Text:      r.Content,
				Tags:      splitTags(r.Metadata["tags"]),
				Phase:     r.Metadata["phase"],
				Situation: r.Metadata["situation"],
			},
			Similarity: r.Similarity,
		}
	}

	return out, nil
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	return s.db.ExportToFile(dir+"/chromem.gob.gz", true, "")
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	err := s.db.ImportFromFile(dir+"/chromem.gob.gz", "")
	if err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}
