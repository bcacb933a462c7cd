// Package record holds the change record model, its JSON file I/O and the
// structural matcher and filter applied to fetched records.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformedInput is returned when a results document cannot be decoded or
// lacks a "results" array of objects.
var ErrMalformedInput = errors.New("malformed input file")

// Record is a change record as returned by the API: an open mapping whose
// values are strings, json.Number, bools, nil, []any or map[string]any.
type Record map[string]any

// Get returns the value stored under key, or nil.
func (r Record) Get(key string) any {
	return r[key]
}

// Identifier returns the string form of the record's identifier, or "" if absent.
func (r Record) Identifier() string {
	v := r.Get("identifier")
	if v == nil {
		return ""
	}
	return String(v)
}

// String renders a decoded JSON value the way it is compared by the matcher:
// strings verbatim, numbers in their JSON text form, booleans as true/false,
// null as "null", containers as compact JSON.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// Document is the on-disk shape shared by both tools: {"results": [...]}.
type Document struct {
	Results []Record `json:"results" yaml:"results"`
}

// ReadResults decodes a results document, keeping numbers as json.Number.
func ReadResults(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	results, ok := raw["results"]
	if !ok {
		return nil, fmt.Errorf("%w: no \"results\" field", ErrMalformedInput)
	}
	items, ok := results.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: \"results\" is not an array", ErrMalformedInput)
	}

	out := make([]Record, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: results[%d] is not an object", ErrMalformedInput, i)
		}
		out = append(out, Record(m))
	}
	return out, nil
}

// WriteResults encodes records as {"results": [...]} in the given format
// ("json" or "yaml").
func WriteResults(w io.Writer, records []Record, format string) error {
	if records == nil {
		records = []Record{}
	}

	switch strings.ToLower(format) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		return enc.Encode(Document{Results: records})
	case "yaml", "yml":
		plain := make([]any, 0, len(records))
		for _, rec := range records {
			plain = append(plain, yamlValue(map[string]any(rec)))
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any{"results": plain}); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// yamlValue converts json.Number leaves to native numbers so yaml emits them
// unquoted.
func yamlValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case Record:
		return yamlValue(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = yamlValue(vv)
		}
		return out
	default:
		return v
	}
}
