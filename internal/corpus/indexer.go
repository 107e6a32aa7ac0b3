package corpus

import (
	"context"
	"fmt"

	"github.com/karimzakaria/guideflow/internal/progress"
	"github.com/karimzakaria/guideflow/internal/vectordb"
)

// indexBatchSize bounds how many exchanges are embedded per store call.
const indexBatchSize = 32

// Indexer embeds exchanges into the vector store and persists the result.
type Indexer struct {
	store    vectordb.Store
	reporter progress.Reporter
}

// NewIndexer creates an indexer. reporter may be nil for silent operation.
func NewIndexer(store vectordb.Store, reporter progress.Reporter) *Indexer {
	if reporter == nil {
		reporter = progress.SilentReporter{}
	}
	return &Indexer{store: store, reporter: reporter}
}

// Index adds all exchanges to the store in batches and persists the index
// under dataDir. It returns the number of exchanges indexed.
func (ix *Indexer) Index(ctx context.Context, exchanges []vectordb.Exchange, dataDir string) (int, error) {
	if len(exchanges) == 0 {
		return 0, fmt.Errorf("corpus is empty, nothing to index")
	}

	ix.reporter.Start(len(exchanges))
	defer ix.reporter.Finish()

	done := 0
	for start := 0; start < len(exchanges); start += indexBatchSize {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		end := start + indexBatchSize
		if end > len(exchanges) {
			end = len(exchanges)
		}
		batch := exchanges[start:end]
		if err := ix.store.Add(ctx, batch); err != nil {
			return done, fmt.Errorf("indexing batch at %d: %w", start, err)
		}
		done += len(batch)
		ix.reporter.Update(done, fmt.Sprintf("indexed %d exchanges", done))
	}

	if err := ix.store.Persist(ctx, dataDir); err != nil {
		return done, fmt.Errorf("persisting index: %w", err)
	}
	return done, nil
}
