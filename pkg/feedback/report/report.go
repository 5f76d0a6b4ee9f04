// Package report renders clustered feedback as a two-section text summary.
package report

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/feedback/pkg/feedback/cluster"
)

// Messages holds the fixed strings of a report.
type Messages struct {
	PositiveHeading string
	NegativeHeading string
	NoPositive      string
	NoNegative      string
	NoSignificant   string

	// Console lines printed by the command around the report.
	ResultTitle     string
	Saved           string // formatted with the output path
	NoValidComments string
	InputNotFound   string // formatted with the error
	InvalidJSON     string // formatted with the error
	Unexpected      string // formatted with the error
}

var catalogs = map[string]Messages{
	"it": {
		PositiveHeading: "📈 FEEDBACK POSITIVI:",
		NegativeHeading: "📉 FEEDBACK NEGATIVI:",
		NoPositive:      "Nessun feedback positivo.",
		NoNegative:      "Nessun feedback negativo.",
		NoSignificant:   "Nessun feedback significativo.",

		ResultTitle:     "📋 RISULTATO FINALE:",
		Saved:           "💾 File '%s' salvato con successo!",
		NoValidComments: "⚠️ Nessuna frase valida dopo il filtro!",
		InputNotFound:   "❌ ERRORE: File non trovato - %v",
		InvalidJSON:     "❌ ERRORE: File JSON non valido - %v",
		Unexpected:      "❌ ERRORE INASPETTATO: %v",
	},
	"en": {
		PositiveHeading: "📈 POSITIVE FEEDBACK:",
		NegativeHeading: "📉 NEGATIVE FEEDBACK:",
		NoPositive:      "No positive feedback.",
		NoNegative:      "No negative feedback.",
		NoSignificant:   "No significant feedback.",

		ResultTitle:     "📋 FINAL RESULT:",
		Saved:           "💾 File '%s' saved successfully!",
		NoValidComments: "⚠️ No valid comments left after filtering!",
		InputNotFound:   "❌ ERROR: file not found - %v",
		InvalidJSON:     "❌ ERROR: invalid JSON file - %v",
		Unexpected:      "❌ UNEXPECTED ERROR: %v",
	},
}

// DefaultLanguage is the catalog used when none is configured.
const DefaultLanguage = "it"

// Catalog returns the messages for a language code.
func Catalog(lang string) (Messages, bool) {
	if lang == "" {
		lang = DefaultLanguage
	}
	m, ok := catalogs[strings.ToLower(lang)]
	return m, ok
}

// Languages lists the available catalogs.
func Languages() []string {
	langs := make([]string, 0, len(catalogs))
	for l := range catalogs {
		langs = append(langs, l)
	}
	slices.Sort(langs)
	return langs
}

// Representative returns the longest member, counted in characters.
// Among equally long members the first one wins.
func Representative(members []string) string {
	sorted := slices.Clone(members)
	slices.SortStableFunc(sorted, func(a, b string) int {
		return utf8.RuneCountInString(b) - utf8.RuneCountInString(a)
	})
	if len(sorted) == 0 {
		return ""
	}
	return sorted[0]
}

// Summarize emits one bullet per cluster, in cluster order.
func Summarize(clusters cluster.Clusters, msgs Messages) string {
	if len(clusters) == 0 {
		return msgs.NoSignificant
	}
	lines := make([]string, 0, len(clusters))
	for _, c := range clusters {
		lines = append(lines, "- "+Representative(c.Members))
	}
	return strings.Join(lines, "\n")
}

// Render builds the positive and negative sections separated by a blank line.
func Render(positive, negative cluster.Clusters, msgs Messages) string {
	out := []string{msgs.PositiveHeading}
	if len(positive) > 0 {
		out = append(out, Summarize(positive, msgs))
	} else {
		out = append(out, msgs.NoPositive)
	}

	out = append(out, "", msgs.NegativeHeading)
	if len(negative) > 0 {
		out = append(out, Summarize(negative, msgs))
	} else {
		out = append(out, msgs.NoNegative)
	}
	return strings.Join(out, "\n")
}

// WriteFile saves a rendered report as UTF-8 text.
func WriteFile(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
