package vectordb

import "context"

// Store defines the interface for indexing and searching reference
// exchanges by embedding similarity.
type Store interface {
	// Add indexes or re-indexes exchanges.
	Add(ctx context.Context, exchanges []Exchange) error

	// Query performs a semantic search with the query text. where narrows
	// candidates by exact-match metadata fields ("phase", "situation");
	// it may be nil. An empty index yields an empty result, not an error.
	Query(ctx context.Context, query string, limit int, where map[string]string) ([]Result, error)

	// Persist saves the index to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the index from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the total number of indexed exchanges.
	Count() int
}
