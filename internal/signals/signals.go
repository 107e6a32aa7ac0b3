// Package signals turns raw user text into the structured features the
// decision engine consumes: category hits, tense, intensity, and a safety
// risk flag. Extraction is a pure function over package lexicons; it never
// calls out and never fails.
package signals

import (
	"strings"
)

// Category names a vocabulary class the extractor can match.
type Category string

const (
	CategoryTopic       Category = "topic"
	CategoryLocation    Category = "location"
	CategoryQuality     Category = "quality"
	CategoryLaterStep   Category = "later_step"
	CategoryNothingMore Category = "nothing_more"
)

// Intensity is a coarse emotional-intensity label.
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// Tense is the dominant tense of the input. Present markers override past
// markers: "I felt this yesterday but right now my chest is tight" counts as
// present, which keeps the redirect rule from firing on grounded input.
type Tense string

const (
	TensePresent Tense = "present"
	TensePast    Tense = "past"
	TenseUnknown Tense = "unknown"
)

// Signals is the structured result of extraction. The zero value is what
// empty or unmatched input produces.
type Signals struct {
	Categories map[Category]bool
	Hits       map[Category][]string
	Tense      Tense
	Intensity  Intensity
	Risk       bool
}

// Has reports whether a category matched.
func (s Signals) Has(c Category) bool {
	return s.Categories[c]
}

// FirstHit returns the first matched word of a category, or "".
func (s Signals) FirstHit(c Category) string {
	if hits := s.Hits[c]; len(hits) > 0 {
		return hits[0]
	}
	return ""
}

// Extract analyzes raw user text. Empty input yields neutral Signals.
func Extract(text string) Signals {
	s := Signals{
		Categories: map[Category]bool{},
		Hits:       map[Category][]string{},
		Tense:      TenseUnknown,
		Intensity:  IntensityMedium,
	}

	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return s
	}

	for cat, words := range map[Category][]string{
		CategoryTopic:       topicWords,
		CategoryLocation:    locationWords,
		CategoryQuality:     qualityWords,
		CategoryLaterStep:   laterStepWords,
		CategoryNothingMore: nothingMoreWords,
	} {
		for _, w := range words {
			if containsWord(lower, w) {
				s.Categories[cat] = true
				s.Hits[cat] = append(s.Hits[cat], w)
			}
		}
	}

	s.Tense = detectTense(lower)
	s.Intensity = detectIntensity(lower)

	for _, w := range riskWords {
		if strings.Contains(lower, w) {
			s.Risk = true
			break
		}
	}

	return s
}

// containsWord matches w against lower on word boundaries. Multi-word
// entries fall back to substring matching.
func containsWord(lower, w string) bool {
	if strings.Contains(w, " ") {
		return strings.Contains(lower, w)
	}
	idx := 0
	for {
		i := strings.Index(lower[idx:], w)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(w)
		beforeOK := start == 0 || !isWordChar(lower[start-1])
		afterOK := end == len(lower) || !isWordChar(lower[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '\''
}

// detectTense applies the present-override: if any present marker appears,
// the text is present tense even when past markers also match.
func detectTense(lower string) Tense {
	for _, m := range presentMarkers {
		if containsWord(lower, m) {
			return TensePresent
		}
	}
	for _, m := range pastMarkers {
		if containsWord(lower, m) {
			return TensePast
		}
	}
	return TenseUnknown
}

func detectIntensity(lower string) Intensity {
	for _, w := range intensifiers {
		if containsWord(lower, w) {
			return IntensityHigh
		}
	}
	for _, w := range softeners {
		if strings.Contains(lower, w) {
			return IntensityLow
		}
	}
	return IntensityMedium
}
