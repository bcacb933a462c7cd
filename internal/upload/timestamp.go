package upload

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxTimestamp is 2100-01-01T00:00:00Z. Valid timestamps lie strictly
// between 0 and this bound.
const MaxTimestamp int64 = 4102444800

// ErrInvalidTimestamp marks a start or end value that cannot be uploaded.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// NormalizeTimestamp coerces v to Unix epoch seconds. Integers, floats
// (truncated), json.Number and decimal strings are accepted.
func NormalizeTimestamp(v any) (int64, error) {
	var ts int64

	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: no value provided", ErrInvalidTimestamp)
	case int:
		ts = int64(t)
	case int32:
		ts = int64(t)
	case int64:
		ts = t
	case uint32:
		ts = int64(t)
	case uint64:
		if t > math.MaxInt64 {
			return 0, outOfRange(v)
		}
		ts = int64(t)
	case float64:
		f, err := truncate(t)
		if err != nil {
			return 0, err
		}
		ts = f
	case json.Number:
		if i, err := t.Int64(); err == nil {
			ts = i
			break
		}
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidTimestamp, t.String())
		}
		if ts, err = truncate(f); err != nil {
			return 0, err
		}
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidTimestamp, t)
		}
		ts = i
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidTimestamp, v)
	}

	if ts <= 0 || ts >= MaxTimestamp {
		return 0, outOfRange(v)
	}
	return ts, nil
}

func truncate(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= float64(MaxTimestamp) || f <= -float64(MaxTimestamp) {
		return 0, outOfRange(f)
	}
	return int64(f), nil
}

func outOfRange(v any) error {
	return fmt.Errorf("%w: %v is out of range (0, %d)", ErrInvalidTimestamp, v, MaxTimestamp)
}
