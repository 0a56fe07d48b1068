package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrUnparseableTime the value could not be interpreted as a timestamp
var ErrUnparseableTime = errors.New("unparseable timestamp")

// FlexibleTime unmarshals the timestamp shapes subscription data arrives in:
// an RFC3339 string, a serialized {"seconds": N} object, or a bare unix
// epoch number.
type FlexibleTime struct {
	time.Time
}

type secondsForm struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

// UnmarshalJSON implements json.Unmarshaler
func (t *FlexibleTime) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		parsed, err := ParseTimeString(v)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	case float64:
		t.Time = time.Unix(int64(v), 0).UTC()
		return nil
	case map[string]interface{}:
		var sf secondsForm
		if err := json.Unmarshal(data, &sf); err != nil {
			return err
		}
		if sf.Seconds == 0 {
			return fmt.Errorf("%w: %s", ErrUnparseableTime, string(data))
		}
		t.Time = time.Unix(sf.Seconds, sf.Nanoseconds).UTC()
		return nil
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnparseableTime, string(data))
	}
}

// MarshalJSON implements json.Marshaler
func (t FlexibleTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// ParseTimeString interprets a string timestamp: RFC3339 first, then a date
// without time, then a numeric epoch.
func ParseTimeString(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrUnparseableTime)
	}
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse("2006-01-02", s); err == nil {
		return parsed, nil
	}
	if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(epoch, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableTime, s)
}
