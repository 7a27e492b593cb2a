package view

import (
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/therealutkarshpriyadarshi/logview/pkg/types"
)

// Highlight is the mutually exclusive highlight state of a row
type Highlight int

const (
	HighlightNone Highlight = iota
	HighlightSelected
	HighlightActiveMatch
	HighlightMatch
)

func (h Highlight) String() string {
	switch h {
	case HighlightSelected:
		return "selected"
	case HighlightActiveMatch:
		return "active-match"
	case HighlightMatch:
		return "match"
	default:
		return "none"
	}
}

// Highlight returns the highlight state of display row i. Selection takes
// precedence over the active match.
func (s State) Highlight(i int) Highlight {
	rec, ok := s.Record(i)
	if !ok {
		return HighlightNone
	}
	if s.hasSelected && rec.Index == s.selected {
		return HighlightSelected
	}
	if active, ok := s.ActiveMatch(); ok && active == i {
		return HighlightActiveMatch
	}
	if _, found := slices.BinarySearch(s.Matches, i); found {
		return HighlightMatch
	}
	return HighlightNone
}

// Window returns the displayed records in [offset, offset+limit), clamped to
// the displayed range. A non-positive limit means "to the end".
func (s State) Window(offset, limit int) []*types.LogRecord {
	n := len(s.Displayed)
	offset = min(max(offset, 0), n)
	end := n
	if limit > 0 {
		end = min(offset+limit, n)
	}
	return s.Displayed[offset:end]
}

// Row holds the rendered cells of one displayed record
type Row struct {
	Index     int
	Timestamp string
	Level     types.Level
	Message   string
	Highlight Highlight
}

// DefaultMetaIndicator marks messages carrying a structured payload
const DefaultMetaIndicator = "◆"

// CellFormatter renders record fields for display
type CellFormatter struct {
	TimeLayout    string // Go time layout; empty keeps the raw timestamp
	MetaIndicator string
}

// Timestamp formats the record's instant with the layout, falling back to the
// raw timestamp when either is missing
func (f CellFormatter) Timestamp(r *types.LogRecord) string {
	if f.TimeLayout == "" || r.Moment.IsZero() {
		return r.Timestamp
	}
	return r.Moment.Format(f.TimeLayout)
}

// Message renders the message with a repeat count prefix and meta indicator
func (f CellFormatter) Message(r *types.LogRecord) string {
	if len(r.Repeated) == 0 && !r.HasMeta() {
		return r.Message
	}

	var b strings.Builder
	if len(r.Repeated) > 0 {
		b.WriteString("(×")
		b.WriteString(humanize.Comma(int64(r.Occurrences())))
		b.WriteString(") ")
	}
	if r.HasMeta() {
		indicator := f.MetaIndicator
		if indicator == "" {
			indicator = DefaultMetaIndicator
		}
		b.WriteString(indicator)
		b.WriteByte(' ')
	}
	b.WriteString(r.Message)
	return b.String()
}

// Row renders display row i
func (s State) Row(i int, f CellFormatter) (Row, bool) {
	rec, ok := s.Record(i)
	if !ok {
		return Row{}, false
	}
	return Row{
		Index:     rec.Index,
		Timestamp: f.Timestamp(rec),
		Level:     rec.Level,
		Message:   f.Message(rec),
		Highlight: s.Highlight(i),
	}, true
}
