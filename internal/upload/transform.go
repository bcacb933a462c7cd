// Package upload reshapes locally-held change records into the upload schema
// and submits them one at a time.
package upload

import (
	"errors"
	"fmt"

	"github.com/bpchanges/bpchanges/internal/record"
)

// Placeholders used when a record has no status or summary.
const (
	DefaultStatus  = "Unknown"
	DefaultSummary = "No summary provided"
)

// Provenance values attached to every uploaded change.
const (
	MetadataID   = "RSA-FG"
	ChangeSource = "bp-postchanges"
)

// ErrMissingIdentifier is returned for records without an identifier.
var ErrMissingIdentifier = errors.New("missing identifier")

// Metadata is the provenance block.
type Metadata struct {
	MetadataID   string `json:"metadata_id"`
	ChangeSource string `json:"change_source"`
}

// Payload is the body accepted by the upload endpoint.
type Payload struct {
	Identifier string   `json:"identifier"`
	Status     any      `json:"status"`
	Summary    any      `json:"summary"`
	Start      int64    `json:"start"`
	End        int64    `json:"end"`
	Tags       any      `json:"tags"`
	TicketURL  any      `json:"ticket_url"`
	Metadata   Metadata `json:"metadata"`
}

// Transform builds the upload payload for rec. It fails when the identifier
// is missing or either timestamp does not normalize; the caller skips such
// records.
func Transform(rec record.Record, prefix string) (*Payload, error) {
	id := rec.Identifier()
	if id == "" {
		return nil, ErrMissingIdentifier
	}

	start, err := NormalizeTimestamp(rec["start"])
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	end, err := NormalizeTimestamp(rec["end"])
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}

	tags := rec["tags"]
	if _, ok := rec["tags"]; !ok {
		tags = map[string]any{}
	}

	return &Payload{
		Identifier: prefix + id,
		Status:     valueOr(rec, "status", DefaultStatus),
		Summary:    valueOr(rec, "summary", DefaultSummary),
		Start:      start,
		End:        end,
		Tags:       tags,
		TicketURL:  rec["ticket_url"],
		Metadata: Metadata{
			MetadataID:   MetadataID,
			ChangeSource: ChangeSource,
		},
	}, nil
}

func valueOr(rec record.Record, key string, def any) any {
	if v, ok := rec[key]; ok && v != nil {
		return v
	}
	return def
}
