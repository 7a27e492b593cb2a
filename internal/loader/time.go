package loader

import (
	"fmt"
	"time"

	"github.com/valyala/fastjson"
)

// ParseTimestamp attempts to parse a timestamp from a string using multiple formats
func ParseTimestamp(ts string, formats ...string) (time.Time, error) {
	if len(formats) == 0 {
		formats = DefaultTimeFormats()
	}

	for _, format := range formats {
		if t, err := time.Parse(format, ts); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("failed to parse timestamp: %s", ts)
}

// DefaultTimeFormats returns common timestamp formats
func DefaultTimeFormats() []string {
	return []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.000",
		"2006/01/02 15:04:05",
		"Jan 02 15:04:05",
		"Jan 02, 2006 15:04:05",
		"02/Jan/2006:15:04:05 -0700",
	}
}

// epoch values above this are milliseconds
const millisThreshold = 1e12

func momentOf(v *fastjson.Value, formats []string) time.Time {
	switch v.Type() {
	case fastjson.TypeNumber:
		n := v.GetFloat64()
		if n <= 0 {
			return time.Time{}
		}
		if n > millisThreshold {
			return time.UnixMilli(int64(n)).UTC()
		}
		sec := int64(n)
		return time.Unix(sec, int64((n-float64(sec))*1e9)).UTC()
	case fastjson.TypeString:
		ts, err := ParseTimestamp(string(v.GetStringBytes()), formats...)
		if err != nil {
			return time.Time{}
		}
		return ts
	default:
		return time.Time{}
	}
}
