package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karimzakaria/guideflow/internal/corpus"
	"github.com/karimzakaria/guideflow/internal/progress"
	"github.com/karimzakaria/guideflow/internal/vectordb"
)

var indexCorpusDir string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the exchange index from the labeled corpus",
	Long: `Loads the YAML corpus of reference exchanges, embeds every entry and
persists the vector index under the data dir. Run this after editing
corpus files; serve, mcp and chat load the persisted index at startup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dir := indexCorpusDir
		if dir == "" {
			dir = cfg.CorpusDir
		}

		exchanges, err := corpus.Load(dir)
		if err != nil {
			return err
		}

		embedder, err := createEmbedderFromConfig(cfg)
		if err != nil {
			return err
		}
		store, err := vectordb.NewChromemStore(embedder)
		if err != nil {
			return fmt.Errorf("creating vector store: %w", err)
		}

		ix := corpus.NewIndexer(store, progress.NewReporter())
		n, err := ix.Index(cmd.Context(), exchanges, indexDir(cfg))
		if err != nil {
			return err
		}

		fmt.Printf("Indexed %d exchanges from %s into %s\n", n, dir, indexDir(cfg))
		return nil
	},
}

func init() {
	indexCmd.Flags().StringVar(&indexCorpusDir, "corpus", "", "corpus directory (defaults to corpus_dir from config)")
	rootCmd.AddCommand(indexCmd)
}
