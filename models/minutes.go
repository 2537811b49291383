package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DailyLeave is the sentinel an approved delay carries instead of a minute
// count when the teacher is excused for the whole day.
const DailyLeave = "اذن يومى"

// Minutes holds the duration of an approved delay: either a minute count or
// the daily-leave sentinel. Stored as text, serialized as a JSON number or
// the sentinel string.
type Minutes struct {
	Count   int
	IsDaily bool
	isSet   bool
}

// ParseMinutes accepts a raw value from the approval payload. The sentinel
// passes through unparsed; anything else must be an integer.
func ParseMinutes(raw string) (Minutes, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Minutes{}, nil
	}
	if raw == DailyLeave {
		return Minutes{IsDaily: true, isSet: true}, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return Minutes{}, fmt.Errorf("invalid minutes value %q", raw)
	}
	return Minutes{Count: n, isSet: true}, nil
}

func MinutesOf(n int) Minutes { return Minutes{Count: n, isSet: true} }

func (m Minutes) IsZero() bool { return !m.isSet }

func (m Minutes) String() string {
	if !m.isSet {
		return ""
	}
	if m.IsDaily {
		return DailyLeave
	}
	return strconv.Itoa(m.Count)
}

func (m Minutes) MarshalJSON() ([]byte, error) {
	if !m.isSet {
		return []byte("null"), nil
	}
	if m.IsDaily {
		return json.Marshal(DailyLeave)
	}
	return json.Marshal(m.Count)
}

func (m *Minutes) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Minutes{}
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*m = Minutes{Count: n, isSet: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseMinutes(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer; unset stores NULL.
func (m Minutes) Value() (driver.Value, error) {
	if !m.isSet {
		return nil, nil
	}
	return m.String(), nil
}

// Scan implements sql.Scanner for text and integer columns.
func (m *Minutes) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = Minutes{}
		return nil
	case int64:
		*m = Minutes{Count: int(v), isSet: true}
		return nil
	case string:
		parsed, err := ParseMinutes(v)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case []byte:
		parsed, err := ParseMinutes(string(v))
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Minutes", src)
	}
}
