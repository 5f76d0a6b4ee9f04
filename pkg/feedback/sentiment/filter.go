package sentiment

import (
	"strings"

	"github.com/cognicore/feedback/pkg/feedback/vocabulary"
)

// DefaultOffensiveThreshold is the compound score below which a comment is
// considered too negative to keep.
const DefaultOffensiveThreshold = -0.5

// Filter drops offensive or strongly negative comments.
type Filter struct {
	vocab     *vocabulary.Vocabulary
	scorer    Scorer
	threshold float64
}

// NewFilter creates an offense filter using DefaultOffensiveThreshold.
func NewFilter(vocab *vocabulary.Vocabulary, scorer Scorer) *Filter {
	return &Filter{vocab: vocab, scorer: scorer, threshold: DefaultOffensiveThreshold}
}

// SetThreshold overrides the compound score threshold.
func (f *Filter) SetThreshold(t float64) {
	f.threshold = t
}

// IsOffensive reports whether a comment contains a blocklisted phrase or
// scores below the threshold. Either condition alone is enough.
func (f *Filter) IsOffensive(comment string) bool {
	text := strings.ToLower(comment)
	if vocabulary.ContainsAny(text, f.vocab.Offensive) {
		return true
	}
	return f.scorer.Compound(text) < f.threshold
}

// Apply splits comments into kept and removed, preserving order in both.
func (f *Filter) Apply(comments []string) (kept, removed []string) {
	for _, c := range comments {
		if f.IsOffensive(c) {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	return kept, removed
}
