// Package timewindow converts user-supplied local date-times into the UTC epoch
// window expected by the changes API.
package timewindow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	// Embedded zone database so resolution never depends on host zoneinfo.
	_ "time/tzdata"
)

// Layout is the only accepted date-time format (YYYY-MM-DDTHH:MM:SS).
const Layout = "2006-01-02T15:04:05"

// ErrInvalidTimeSpec is returned when a date-time or zone name cannot be parsed.
var ErrInvalidTimeSpec = errors.New("invalid time specification")

// Window is a pair of UTC epoch seconds. Start <= End is the caller's concern.
type Window struct {
	Start int64
	End   int64
}

// LoadZone resolves an IANA zone name or alias (e.g. "America/Chicago",
// "Etc/GMT+2", "EST", "UTC"). "Local" and "" are rejected so results never
// depend on the host's configured zone.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return nil, fmt.Errorf("%w: unknown time zone %q", ErrInvalidTimeSpec, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown time zone %q", ErrInvalidTimeSpec, name)
	}
	return loc, nil
}

// ToEpoch interprets value as a wall-clock time in zone and returns the
// corresponding UTC epoch seconds. Ambiguous and non-existent wall times
// around DST transitions are read as standard time.
func ToEpoch(value, zone string) (int64, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return 0, err
	}
	return toEpoch(value, loc)
}

func toEpoch(value string, loc *time.Location) (int64, error) {
	wall, err := time.Parse(Layout, strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %q does not match YYYY-MM-DDTHH:MM:SS", ErrInvalidTimeSpec, value)
	}
	return resolveWall(wall.Unix(), loc), nil
}

// resolveWall maps wall-clock seconds (the wall time read as if it were UTC)
// to an instant in loc. A wall time repeated by a DST fall-back or skipped by
// a spring-forward resolves with the standard-time offset.
func resolveWall(wall int64, loc *time.Location) int64 {
	type side struct {
		offset int64
		dst    bool
	}
	var sides []side
	for _, at := range []int64{wall - 86400, wall + 86400} {
		t := time.Unix(at, 0).In(loc)
		_, off := t.Zone()
		s := side{offset: int64(off), dst: t.IsDST()}
		if len(sides) == 0 || sides[0].offset != s.offset {
			sides = append(sides, s)
		}
	}

	var valid []side
	for _, s := range sides {
		if _, off := time.Unix(wall-s.offset, 0).In(loc).Zone(); int64(off) == s.offset {
			valid = append(valid, s)
		}
	}

	switch len(valid) {
	case 1:
		return wall - valid[0].offset
	case 0:
		// Skipped wall time.
		valid = sides
	}
	for _, s := range valid {
		if !s.dst {
			return wall - s.offset
		}
	}
	return wall - valid[0].offset
}

// Resolve builds a Window from start and end in the same zone. An empty end
// means now, taken as an instant rather than a wall-clock string.
func Resolve(start, end, zone string, now time.Time) (Window, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return Window{}, err
	}

	s, err := toEpoch(start, loc)
	if err != nil {
		return Window{}, fmt.Errorf("start time: %w", err)
	}

	if strings.TrimSpace(end) == "" {
		return Window{Start: s, End: now.UTC().Unix()}, nil
	}

	e, err := toEpoch(end, loc)
	if err != nil {
		return Window{}, fmt.Errorf("end time: %w", err)
	}
	return Window{Start: s, End: e}, nil
}
