package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleRecords() []Record {
	return []Record{
		{"identifier": "C1", "source_system": "servicenow_change.sn_DEV1", "tags": map[string]any{"env": "prod"}},
		{"identifier": "C2", "source_system": "other", "tags": map[string]any{"env": "prod"}},
		{"identifier": "C3", "source_system": "sn.dev1", "tags": map[string]any{"env": "qa"}},
		{"identifier": "C4", "tags": map[string]any{"env": "prod"}},
		{"identifier": "C5", "source_system": nil},
	}
}

func ids(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Identifier())
	}
	return out
}

func TestFilter_NoSpecReturnsCopy(t *testing.T) {
	in := sampleRecords()
	out := Filter(in, FilterSpec{})

	assert.Equal(t, ids(in), ids(out))
	out[0] = Record{"identifier": "replaced"}
	assert.Equal(t, "C1", in[0].Identifier())
}

func TestFilter_SourceSystemSubstring(t *testing.T) {
	out := Filter(sampleRecords(), FilterSpec{SourceSystem: "dev1"})
	assert.Equal(t, []string{"C1", "C3"}, ids(out))
}

func TestFilter_KeyValue(t *testing.T) {
	out := Filter(sampleRecords(), FilterSpec{Key: "env", Value: "PROD"})
	assert.Equal(t, []string{"C1", "C2", "C4"}, ids(out))
}

func TestFilter_Conjunction(t *testing.T) {
	out := Filter(sampleRecords(), FilterSpec{SourceSystem: "dev1", Key: "env", Value: "prod"})
	assert.Equal(t, []string{"C1"}, ids(out))
}

func TestFilter_KeyWithoutValueIsSkipped(t *testing.T) {
	in := sampleRecords()

	assert.Len(t, Filter(in, FilterSpec{Key: "env"}), len(in))
	assert.Len(t, Filter(in, FilterSpec{Value: "prod"}), len(in))
}

func TestFilter_ArrayKey(t *testing.T) {
	in := []Record{
		{"identifier": "A", "affectedCIs": []any{"web01", "db01"}},
		{"identifier": "B", "affectedCIs": []any{"app01"}},
	}

	out := Filter(in, FilterSpec{Key: "affectedCIs", Value: "DB01", ArrayKey: "affectedCIs"})
	assert.Equal(t, []string{"A"}, ids(out))
}

func TestFilter_EmptyInput(t *testing.T) {
	out := Filter(nil, FilterSpec{SourceSystem: "x"})
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
