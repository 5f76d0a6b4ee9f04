package sentiment

import (
	"os"
	"strings"

	"github.com/jonreiter/govader"
	"gopkg.in/yaml.v3"
)

// Scorer produces a compound sentiment score in [-1, 1] for a text.
// Positive values mean a favorable tone.
type Scorer interface {
	Compound(text string) float64
}

// Vader scores text with the VADER valence lexicon.
type Vader struct {
	sia *govader.SentimentIntensityAnalyzer
}

// NewVader loads the VADER lexicon. Loading is comparatively expensive, so
// callers create one Vader per process and share it; scoring is read-only.
func NewVader() *Vader {
	return &Vader{sia: govader.NewSentimentIntensityAnalyzer()}
}

// Compound implements Scorer.
func (v *Vader) Compound(text string) float64 {
	return v.sia.PolarityScores(text).Compound
}

// Extend adds valence entries to the lexicon. Words VADER already knows keep
// their built-in valence. Returns the number of entries added.
// Extend must be called before the scorer is shared.
func (v *Vader) Extend(entries map[string]float64) int {
	added := 0
	for word, valence := range entries {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		if _, exists := v.sia.Lexicon[word]; exists {
			continue
		}
		v.sia.Lexicon[word] = valence
		added++
	}
	return added
}

// LoadLexiconYAML reads extra valence entries from a YAML file.
//
// Expected format:
//
//	entries:
//	  pessimo: -2.5
//	  ottimo: 3.1
func LoadLexiconYAML(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file struct {
		Entries map[string]float64 `yaml:"entries"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if file.Entries == nil {
		file.Entries = map[string]float64{}
	}
	return file.Entries, nil
}
