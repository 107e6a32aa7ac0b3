package vectordb

import "strings"

// Exchange is one reference exchange from the labeled corpus: an example of
// how a guide responded in a given situation. Exchanges are immutable at
// runtime; the index is rebuilt offline.
type Exchange struct {
	ID        string
	Text      string
	Tags      []string
	Phase     string
	Situation string
}

// HasTag reports whether the exchange carries the given tag.
func (e Exchange) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Result pairs an exchange with its similarity score.
type Result struct {
	Exchange   Exchange
	Similarity float32
}

// joinTags and splitTags round-trip the tag set through chromem's flat
// string metadata.
func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
