package sentiment

import (
	"strings"

	"github.com/cognicore/feedback/pkg/feedback/vocabulary"
)

// Label is the sentiment assigned to a comment.
type Label int

const (
	Neutral Label = iota
	Positive
	Negative
)

func (l Label) String() string {
	switch l {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "neutral"
	}
}

// DefaultNeutralMargin bounds the compound scores treated as neutral.
const DefaultNeutralMargin = 0.05

// Classifier labels comments by combining phrase counts with the lexicon
// compound score.
type Classifier struct {
	vocab  *vocabulary.Vocabulary
	scorer Scorer
	margin float64
}

// NewClassifier creates a classifier using DefaultNeutralMargin.
func NewClassifier(vocab *vocabulary.Vocabulary, scorer Scorer) *Classifier {
	return &Classifier{vocab: vocab, scorer: scorer, margin: DefaultNeutralMargin}
}

// SetMargin overrides the neutral margin.
func (c *Classifier) SetMargin(m float64) {
	c.margin = m
}

// Evidence is the intermediate state of a classification.
type Evidence struct {
	PositiveCount int
	NegativeCount int
	Negated       bool
	Compound      float64
}

// Inspect gathers the phrase counts and score used by Classify.
//
// A negation marker anywhere in the text zeroes the positive count and lifts
// the negative count to at least one. The marker is not scoped to any phrase.
func (c *Classifier) Inspect(comment string) Evidence {
	text := strings.ToLower(comment)

	ev := Evidence{
		PositiveCount: vocabulary.Count(text, c.vocab.Positive),
		NegativeCount: vocabulary.Count(text, c.vocab.Negative),
		Negated:       vocabulary.ContainsAny(text, c.vocab.Negations),
	}
	if ev.Negated {
		ev.PositiveCount = 0
		ev.NegativeCount = max(ev.NegativeCount, 1)
	}
	ev.Compound = c.scorer.Compound(text)
	return ev
}

// Classify labels a single comment. The positive test runs first; the two
// tests are not mutually exclusive.
func (c *Classifier) Classify(comment string) Label {
	return c.decide(c.Inspect(comment))
}

func (c *Classifier) decide(ev Evidence) Label {
	if ev.PositiveCount > ev.NegativeCount || (ev.Compound > c.margin && ev.NegativeCount == 0) {
		return Positive
	}
	if ev.NegativeCount > ev.PositiveCount || ev.Compound < -c.margin {
		return Negative
	}
	return Neutral
}

// Buckets partitions comments by label, preserving input order.
type Buckets struct {
	Positive []string
	Negative []string
	Neutral  []string
}

// Partition classifies every comment into its bucket.
func (c *Classifier) Partition(comments []string) Buckets {
	var b Buckets
	for _, comment := range comments {
		switch c.Classify(comment) {
		case Positive:
			b.Positive = append(b.Positive, comment)
		case Negative:
			b.Negative = append(b.Negative, comment)
		default:
			b.Neutral = append(b.Neutral, comment)
		}
	}
	return b
}
