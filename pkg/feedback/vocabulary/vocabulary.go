package vocabulary

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary holds the fixed phrase lists used by the offense filter and the
// sentiment classifier. Matching is plain case-insensitive substring
// containment, never tokenized or stemmed, so the lists may overlap
// ("chiaro" is both positive and negative in the default set).
type Vocabulary struct {
	Offensive []string `yaml:"offensive"`
	Positive  []string `yaml:"positive"`
	Negative  []string `yaml:"negative"`
	Negations []string `yaml:"negations"`
}

// Default returns the Italian vocabulary the tool ships with.
func Default() *Vocabulary {
	return &Vocabulary{
		Offensive: []string{
			"incapace", "vergognoso", "fa schifo",
			"inutile", "idiota", "stupido",
		},
		Positive: []string{
			"chiaro", "ottimo", "molto", "disponibile", "paziente", "attento",
			"utile", "bene", "bravo", "brava", "buono", "buona", "eccellente",
			"meraviglioso", "fantastico", "grande", "perfetto", "perfetta",
		},
		Negative: []string{
			"difficile", "troppo veloce", "velocemente", "rapido", "scortese", "sgarbato",
			"chiaro", "non capisce", "malato", "sintetiche", "non risponde", "male",
			"cattivo", "cattiva", "brutto", "brutta", "pessimo", "pessima", "orribile",
		},
		// Trailing spaces are significant: "non " must not match "nonna".
		Negations: []string{"non ", "non s", "difficile", "troppo", "male", "non sempre"},
	}
}

// LoadFromYAML loads a vocabulary from a YAML file.
//
// Expected format:
//
//	offensive: [incapace, fa schifo]
//	positive:  [ottimo, bravo]
//	negative:  [pessimo, "non risponde"]
//	negations: ["non ", troppo]
//
// Lists left out of the file keep their default entries. Entries are
// lower-cased but never trimmed.
func LoadFromYAML(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file Vocabulary
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	v := Default()
	if file.Offensive != nil {
		v.Offensive = lowerAll(file.Offensive)
	}
	if file.Positive != nil {
		v.Positive = lowerAll(file.Positive)
	}
	if file.Negative != nil {
		v.Negative = lowerAll(file.Negative)
	}
	if file.Negations != nil {
		v.Negations = lowerAll(file.Negations)
	}
	return v, nil
}

// Count returns how many phrases of list occur in text. Each phrase counts
// at most once regardless of how often it repeats.
func Count(text string, list []string) int {
	text = strings.ToLower(text)
	n := 0
	for _, p := range list {
		if strings.Contains(text, p) {
			n++
		}
	}
	return n
}

// ContainsAny reports whether any phrase of list occurs in text.
func ContainsAny(text string, list []string) bool {
	text = strings.ToLower(text)
	for _, p := range list {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// Stats returns the size of each list.
func (v *Vocabulary) Stats() Stats {
	return Stats{
		Offensive: len(v.Offensive),
		Positive:  len(v.Positive),
		Negative:  len(v.Negative),
		Negations: len(v.Negations),
	}
}

// Stats holds vocabulary list sizes.
type Stats struct {
	Offensive int
	Positive  int
	Negative  int
	Negations int
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
