package types

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

// Level is a normalized log severity
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// Levels is the fixed level enumeration, in severity order
var Levels = []Level{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal}

// NormalizeLevel maps common level spellings onto the fixed enumeration.
// Unrecognized input is returned lower-cased and will fail any level filter.
func NormalizeLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace", "verbose":
		return LevelDebug
	case "info", "information", "notice":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error", "err":
		return LevelError
	case "fatal", "critical", "crit", "panic", "emergency":
		return LevelFatal
	default:
		return Level(strings.ToLower(level))
	}
}

// LogRecord is one parsed log entry. Records are built once at load time and
// never mutated afterwards.
type LogRecord struct {
	Index     int               `json:"index"`
	Timestamp string            `json:"timestamp"`
	Moment    time.Time         `json:"moment,omitempty"`
	Level     Level             `json:"level"`
	Message   string            `json:"message"`
	LogType   string            `json:"log_type,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
	Repeated  []int             `json:"repeated,omitempty"` // indices of earlier identical records
}

// HasMeta reports whether a structured payload is attached
func (r *LogRecord) HasMeta() bool {
	return len(r.Meta) > 0
}

// Occurrences is the number of log lines this record stands for
func (r *LogRecord) Occurrences() int {
	return len(r.Repeated) + 1
}

// LevelFilter enables or disables each level
type LevelFilter map[Level]bool

// AllLevels returns a filter with every level set to enabled
func AllLevels(enabled bool) LevelFilter {
	f := make(LevelFilter, len(Levels))
	for _, l := range Levels {
		f[l] = enabled
	}
	return f
}

// ParseLevelFilter builds a filter enabling only the comma-separated levels.
// An empty string enables everything.
func ParseLevelFilter(s string) (LevelFilter, error) {
	if strings.TrimSpace(s) == "" {
		return AllLevels(true), nil
	}
	f := AllLevels(false)
	for _, part := range strings.Split(s, ",") {
		l := NormalizeLevel(part)
		if _, ok := f[l]; !ok {
			return nil, fmt.Errorf("unknown level: %q", part)
		}
		f[l] = true
	}
	return f, nil
}

// Equal compares two filters value by value
func (f LevelFilter) Equal(other LevelFilter) bool {
	return maps.Equal(f, other)
}

// SortKey selects the field used to order records
type SortKey string

const (
	SortByIndex     SortKey = "index"
	SortByTimestamp SortKey = "timestamp"
	SortByLevel     SortKey = "level"
	SortByMessage   SortKey = "message"
)

// ParseSortKey validates a sort key name. Empty means index.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(s)); k {
	case "", SortByIndex:
		return SortByIndex, nil
	case SortByTimestamp, SortByLevel, SortByMessage:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort key: %q", s)
	}
}

// SortDirection is ascending or descending
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSortDirection validates a direction name. Empty means ascending.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(s) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return "", fmt.Errorf("unknown sort direction: %q", s)
	}
}

// ViewParameters is the full set of user-controlled view inputs. A new value is
// built for every interaction.
type ViewParameters struct {
	SortBy          SortKey       `json:"sort_by,omitempty"`
	SortDirection   SortDirection `json:"sort_direction,omitempty"`
	Search          string        `json:"search,omitempty"`
	OnlyShowMatches bool          `json:"only_show_matches,omitempty"`
	Levels          LevelFilter   `json:"levels,omitempty"`
}

// Clone returns a copy that shares no mutable state with p
func (p ViewParameters) Clone() ViewParameters {
	p.Levels = maps.Clone(p.Levels)
	return p
}

// SortKeyOrDefault treats an unset key as index
func (p ViewParameters) SortKeyOrDefault() SortKey {
	if p.SortBy == "" {
		return SortByIndex
	}
	return p.SortBy
}

// DirectionOrDefault treats an unset direction as ascending
func (p ViewParameters) DirectionOrDefault() SortDirection {
	if p.SortDirection == "" {
		return Ascending
	}
	return p.SortDirection
}
