package record

import "strings"

// FilterSpec selects records after retrieval. Empty fields are ignored; the
// structural step runs only when both Key and Value are set.
type FilterSpec struct {
	SourceSystem string
	Key          string
	Value        string
	ArrayKey     string
}

// Structural reports whether the key/value step is active.
func (s FilterSpec) Structural() bool {
	return s.Key != "" && s.Value != ""
}

// Filter applies the source-system substring filter and then the structural
// matcher. The input slice is not modified and relative order is kept.
func Filter(records []Record, spec FilterSpec) []Record {
	out := make([]Record, 0, len(records))
	source := strings.ToLower(spec.SourceSystem)

	for _, rec := range records {
		if source != "" && !strings.Contains(strings.ToLower(sourceSystem(rec)), source) {
			continue
		}
		if spec.Structural() && !Match(rec, spec.Key, spec.Value, spec.ArrayKey) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func sourceSystem(rec Record) string {
	v := rec.Get("source_system")
	if v == nil {
		return ""
	}
	return String(v)
}
