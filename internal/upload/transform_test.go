package upload

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpchanges/bpchanges/internal/record"
)

func fakeChange(f *gofakeit.Faker) record.Record {
	start := f.Number(1600000000, 1800000000)
	return record.Record{
		"identifier": "CHG" + f.DigitN(7),
		"status":     f.RandomString([]string{"Planned", "In Progress", "Done", "Canceled"}),
		"summary":    f.Sentence(6),
		"start":      json.Number(strconv.Itoa(start)),
		"end":        json.Number(strconv.Itoa(start + f.Number(60, 86400))),
		"tags": map[string]any{
			"change_type": f.RandomString([]string{"normal", "standard", "emergency"}),
			"assignee":    f.Email(),
		},
		"ticket_url":    f.URL(),
		"source_system": "servicenow_change." + f.Word(),
	}
}

func TestTransform_GeneratedRecords(t *testing.T) {
	f := gofakeit.New(42)

	for i := 0; i < 50; i++ {
		rec := fakeChange(f)

		p, err := Transform(rec, "SN-")
		require.NoError(t, err)

		assert.Equal(t, "SN-"+rec.Identifier(), p.Identifier)
		assert.Equal(t, rec["status"], p.Status)
		assert.Equal(t, rec["summary"], p.Summary)
		assert.Equal(t, rec["tags"], p.Tags)
		assert.Equal(t, rec["ticket_url"], p.TicketURL)
		assert.Greater(t, p.End, p.Start)
		assert.Equal(t, Metadata{MetadataID: MetadataID, ChangeSource: ChangeSource}, p.Metadata)
	}
}

func TestTransform_MissingStartFails(t *testing.T) {
	rec := fakeChange(gofakeit.New(7))
	delete(rec, "start")

	p, err := Transform(rec, "")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
	assert.Contains(t, err.Error(), "start")
}

func TestTransform_BadEndFails(t *testing.T) {
	rec := fakeChange(gofakeit.New(8))
	rec["end"] = json.Number("9999999999")

	p, err := Transform(rec, "")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
	assert.Contains(t, err.Error(), "end")
}

func TestTransform_MissingIdentifier(t *testing.T) {
	rec := fakeChange(gofakeit.New(9))
	delete(rec, "identifier")

	_, err := Transform(rec, "")
	assert.ErrorIs(t, err, ErrMissingIdentifier)
}

func TestTransform_Defaults(t *testing.T) {
	rec := record.Record{
		"identifier": "CHG1",
		"start":      "1700000000",
		"end":        1700003600,
		"summary":    nil,
	}

	p, err := Transform(rec, "")
	require.NoError(t, err)

	assert.Equal(t, "CHG1", p.Identifier)
	assert.Equal(t, DefaultStatus, p.Status)
	assert.Equal(t, DefaultSummary, p.Summary)
	assert.Equal(t, map[string]any{}, p.Tags)
	assert.Nil(t, p.TicketURL)
	assert.Equal(t, int64(1700000000), p.Start)
	assert.Equal(t, int64(1700003600), p.End)
}

func TestTransform_WireShape(t *testing.T) {
	rec := record.Record{
		"identifier": json.Number("12"),
		"start":      json.Number("1700000000"),
		"end":        json.Number("1700000001"),
		"tags":       map[string]any{"env": "prod"},
		"extra":      "dropped",
	}

	p, err := Transform(rec, "X-")
	require.NoError(t, err)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"identifier": "X-12",
		"status": "Unknown",
		"summary": "No summary provided",
		"start": 1700000000,
		"end": 1700000001,
		"tags": {"env": "prod"},
		"ticket_url": null,
		"metadata": {"metadata_id": "RSA-FG", "change_source": "bp-postchanges"}
	}`, string(b))
}

func TestTransform_DoesNotMutateSource(t *testing.T) {
	rec := fakeChange(gofakeit.New(11))
	before := len(rec)

	_, err := Transform(rec, "P-")
	require.NoError(t, err)

	assert.Len(t, rec, before)
	assert.NotContains(t, rec, "metadata")
}
