package filter

import (
	"github.com/therealutkarshpriyadarshi/logview/pkg/types"
)

// IsNoop reports whether levels has no discriminating power: it is nil, lacks
// one of the known levels, or maps every level to the same value.
func IsNoop(levels types.LevelFilter) bool {
	if levels == nil {
		return true
	}

	first, seen := false, false
	for _, l := range types.Levels {
		enabled, ok := levels[l]
		if !ok {
			return true
		}
		if !seen {
			first, seen = enabled, true
			continue
		}
		if enabled != first {
			return false
		}
	}
	return true
}

// Apply keeps the records whose level is enabled, in their original order.
// A no-op filter returns records itself without allocating. Records with a
// level outside the enumeration are dropped.
func Apply(records []*types.LogRecord, levels types.LevelFilter) []*types.LogRecord {
	if IsNoop(levels) {
		return records
	}

	out := make([]*types.LogRecord, 0, len(records))
	for _, r := range records {
		if levels[r.Level] {
			out = append(out, r)
		}
	}
	return out
}
