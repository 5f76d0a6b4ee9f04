// Package loader reads survey comments from JSON input.
//
// Three input shapes are accepted and resolved once, up front:
//
//	["testo uno", "testo due"]                      ShapeStrings
//	[{"testo": "uno", "sentimento": "pos"}, ...]    ShapeRecords
//	{"3A": ["uno", "due"], "3B": "tre"}             ShapeGroups
//
// Non-string values are coerced to their JSON text rather than rejected.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/cognicore/feedback/pkg/feedback/internalerr"
)

// DefaultTextKey is the record field holding the comment text.
const DefaultTextKey = "testo"

// Shape identifies which input layout was found.
type Shape int

const (
	ShapeStrings Shape = iota
	ShapeRecords
	ShapeGroups
)

func (s Shape) String() string {
	switch s {
	case ShapeRecords:
		return "records"
	case ShapeGroups:
		return "groups"
	default:
		return "strings"
	}
}

// Loader extracts comments from JSON documents.
type Loader struct {
	textKey string
}

// New creates a loader reading record text from textKey.
// An empty key selects DefaultTextKey.
func New(textKey string) *Loader {
	if textKey == "" {
		textKey = DefaultTextKey
	}
	return &Loader{textKey: textKey}
}

// LoadFile reads and parses a JSON file.
func (l *Loader) LoadFile(path string) ([]string, Shape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ShapeStrings, fmt.Errorf("%w: %s", internalerr.ErrInputNotFound, path)
		}
		return nil, ShapeStrings, fmt.Errorf("read %s: %w", path, err)
	}
	return l.Parse(data)
}

// Parse extracts comments from a JSON document in input order.
func (l *Loader) Parse(data []byte) ([]string, Shape, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !gjson.ValidBytes(data) {
		return nil, ShapeStrings, fmt.Errorf("%w: %s", internalerr.ErrInvalidJSON, syntaxDetail(data))
	}

	root := gjson.ParseBytes(data)
	switch {
	case root.IsObject():
		return flattenGroups(root), ShapeGroups, nil
	case root.IsArray():
		items := root.Array()
		if len(items) > 0 && items[0].IsObject() {
			return l.extractRecords(items), ShapeRecords, nil
		}
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = coerce(item)
		}
		return out, ShapeStrings, nil
	default:
		return nil, ShapeStrings, fmt.Errorf("%w: top-level %s", internalerr.ErrUnsupportedShape, root.Type)
	}
}

// flattenGroups concatenates array values and appends scalar values, in
// document order. A repeated key keeps its first position and its last value.
func flattenGroups(root gjson.Result) []string {
	var keys []string
	values := make(map[string]gjson.Result)
	root.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if _, seen := values[k]; !seen {
			keys = append(keys, k)
		}
		values[k] = value
		return true
	})

	var out []string
	for _, k := range keys {
		value := values[k]
		if value.IsArray() {
			for _, item := range value.Array() {
				out = append(out, coerce(item))
			}
		} else {
			out = append(out, coerce(value))
		}
	}
	return out
}

func (l *Loader) extractRecords(items []gjson.Result) []string {
	out := make([]string, len(items))
	for i, item := range items {
		if text, ok := l.field(item); ok {
			out[i] = coerce(text)
			continue
		}
		out[i] = coerce(item)
	}
	return out
}

// field looks the text key up by exact name. gjson paths would treat dots and
// wildcards in the key as syntax. Duplicate keys resolve to the last one.
func (l *Loader) field(item gjson.Result) (gjson.Result, bool) {
	if !item.IsObject() {
		return gjson.Result{}, false
	}
	var found gjson.Result
	ok := false
	item.ForEach(func(key, value gjson.Result) bool {
		if key.String() == l.textKey {
			found, ok = value, true
		}
		return true
	})
	return found, ok
}

// coerce returns string values as text and anything else as its JSON text.
func coerce(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.String()
	}
	return strings.TrimSpace(v.Raw)
}

// syntaxDetail produces a decoder diagnostic for invalid input.
func syntaxDetail(data []byte) string {
	var v any
	err := json.Unmarshal(data, &v)
	if err == nil {
		return "malformed document"
	}
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return fmt.Sprintf("%v (offset %d)", se, se.Offset)
	}
	return err.Error()
}
