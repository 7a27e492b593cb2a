package search

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/therealutkarshpriyadarshi/logview/pkg/types"
)

// Term is one whitespace-delimited token of a search string
type Term struct {
	Text    string // pattern without the leading '!'
	Exclude bool
	Literal bool // pattern failed to compile and is matched literally
	re      *regexp.Regexp
}

// Matches reports whether the term is satisfied by message
func (t Term) Matches(message string) bool {
	return t.re.MatchString(message) != t.Exclude
}

// Query is a parsed search string. The zero value matches everything.
type Query struct {
	Source  string
	Terms   []Term
	Invalid []string // terms that fell back to literal matching
}

// Empty reports whether the query has no terms
func (q Query) Empty() bool {
	return len(q.Terms) == 0
}

// Match reports whether message satisfies every term
func (q Query) Match(message string) bool {
	for _, t := range q.Terms {
		if !t.Matches(message) {
			return false
		}
	}
	return true
}

// Parse splits text on whitespace into terms. A term starting with '!' and
// longer than one character excludes messages matching the remainder; any other
// term must match. Terms are case-insensitive regular expressions. A term that
// does not compile is matched as a literal substring and listed in Invalid.
func Parse(text string) Query {
	fields := strings.Fields(text)
	q := Query{Source: text, Terms: make([]Term, 0, len(fields))}

	for _, f := range fields {
		t := Term{Text: f}
		if len(f) > 1 && f[0] == '!' {
			t.Text, t.Exclude = f[1:], true
		}

		re, err := regexp.Compile("(?i)" + t.Text)
		if err != nil {
			re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(t.Text))
			t.Literal = true
			q.Invalid = append(q.Invalid, f)
		}
		t.re = re
		q.Terms = append(q.Terms, t)
	}

	return q
}

// Filter keeps the records whose message satisfies every term of q, in order.
// An empty query returns records unchanged.
func Filter(records []*types.LogRecord, q Query) []*types.LogRecord {
	if q.Empty() {
		return records
	}

	out := make([]*types.LogRecord, 0, len(records))
	for _, r := range records {
		if q.Match(r.Message) {
			out = append(out, r)
		}
	}
	return out
}

// Indices returns the ascending positions in records whose message satisfies
// every term of q. An empty query yields no positions.
func Indices(records []*types.LogRecord, q Query) []int {
	if q.Empty() {
		return []int{}
	}

	out := []int{}
	for i, r := range records {
		if q.Match(r.Message) {
			out = append(out, i)
		}
	}
	return out
}

// Search parses text and filters records with it
func Search(records []*types.LogRecord, text string) []*types.LogRecord {
	return Filter(records, Parse(text))
}

// SearchIndices parses text and returns matching positions in records
func SearchIndices(records []*types.LogRecord, text string) []int {
	return Indices(records, Parse(text))
}

// Highlight returns the [start, end) byte ranges of message matched by the
// inclusion terms of q, sorted and merged.
func Highlight(message string, q Query) [][2]int {
	var spans [][2]int
	for _, t := range q.Terms {
		if t.Exclude {
			continue
		}
		for _, loc := range t.re.FindAllStringIndex(message, -1) {
			if loc[0] == loc[1] {
				continue
			}
			spans = append(spans, [2]int{loc[0], loc[1]})
		}
	}
	return mergeSpans(spans)
}

func mergeSpans(spans [][2]int) [][2]int {
	if len(spans) < 2 {
		return spans
	}
	slices.SortFunc(spans, func(a, b [2]int) int {
		return cmp.Compare(a[0], b[0])
	})

	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s[0] <= last[1] {
			if s[1] > last[1] {
				last[1] = s[1]
			}
			continue
		}
		out = append(out, s)
	}
	return out
}
