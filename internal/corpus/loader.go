// Package corpus loads the labeled reference exchanges and builds the
// vector index from them. Corpus files are plain YAML so counselors can
// edit them without touching code.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/karimzakaria/guideflow/internal/vectordb"
)

// Entry is one exchange as written in a corpus file.
type Entry struct {
	ID        string   `yaml:"id,omitempty"`
	Text      string   `yaml:"text"`
	Tags      []string `yaml:"tags"`
	Phase     string   `yaml:"phase"`
	Situation string   `yaml:"situation,omitempty"`
}

// File is the top-level shape of a corpus YAML file.
type File struct {
	Exchanges []Entry `yaml:"exchanges"`
}

// Load reads every YAML file under dir (recursively) and returns the
// validated exchanges. Entries without an explicit id get a generated one,
// so re-indexing the same file twice replaces rather than duplicates.
func Load(dir string) ([]vectordb.Exchange, error) {
	paths, err := doublestar.FilepathGlob(filepath.Join(dir, "**", "*.{yaml,yml}"))
	if err != nil {
		return nil, fmt.Errorf("globbing corpus dir %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no corpus files found under %s", dir)
	}

	var exchanges []vectordb.Exchange
	seen := map[string]string{}
	for _, path := range paths {
		entries, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		for i, e := range entries {
			ex, err := toExchange(e, path, i)
			if err != nil {
				return nil, err
			}
			if prev, dup := seen[ex.ID]; dup {
				return nil, fmt.Errorf("duplicate exchange id %q in %s (first seen in %s)", ex.ID, path, prev)
			}
			seen[ex.ID] = path
			exchanges = append(exchanges, ex)
		}
	}
	return exchanges, nil
}

func loadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus file %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing corpus file %s: %w", path, err)
	}
	return f.Exchanges, nil
}

func toExchange(e Entry, path string, idx int) (vectordb.Exchange, error) {
	if strings.TrimSpace(e.Text) == "" {
		return vectordb.Exchange{}, fmt.Errorf("%s: exchange %d has empty text", path, idx)
	}
	if len(e.Tags) == 0 {
		return vectordb.Exchange{}, fmt.Errorf("%s: exchange %d has no tags", path, idx)
	}
	for _, t := range e.Tags {
		if strings.Contains(t, ",") {
			return vectordb.Exchange{}, fmt.Errorf("%s: exchange %d tag %q contains a comma", path, idx, t)
		}
	}

	id := strings.TrimSpace(e.ID)
	if id == "" {
		// Derive a stable id from the file and position so unchanged
		// files re-index onto the same records.
		id = fmt.Sprintf("%s-%d", strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), idx)
	}

	return vectordb.Exchange{
		ID:        id,
		Text:      strings.TrimSpace(e.Text),
		Tags:      e.Tags,
		Phase:     strings.TrimSpace(e.Phase),
		Situation: strings.TrimSpace(e.Situation),
	}, nil
}
