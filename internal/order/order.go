package order

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/therealutkarshpriyadarshi/logview/pkg/types"
)

// Sorter orders record sequences. It holds a collator and is not safe for
// concurrent use.
type Sorter struct {
	collator *collate.Collator
}

// New creates a sorter comparing text with the rules of the given locale
func New(tag language.Tag) *Sorter {
	return &Sorter{collator: collate.New(tag)}
}

// NewForLocale parses a BCP 47 locale name, falling back to English
func NewForLocale(locale string) *Sorter {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.English
	}
	return New(tag)
}

// IsNatural reports whether key and dir are satisfied by load order
func IsNatural(key types.SortKey, dir types.SortDirection) bool {
	return isNaturalKey(key) && dir != types.Descending
}

func isNaturalKey(key types.SortKey) bool {
	return key == "" || key == types.SortByIndex || key == types.SortByTimestamp
}

// Sort returns records ordered by key and dir. Index and timestamp are taken to
// be the load order already; message and level are compared as text, so level
// sorts by name rather than severity. Descending is the exact reverse of
// ascending. The input slice is never modified, and the natural ascending order
// returns it as is.
func (s *Sorter) Sort(records []*types.LogRecord, key types.SortKey, dir types.SortDirection) []*types.LogRecord {
	if IsNatural(key, dir) {
		return records
	}

	out := slices.Clone(records)
	switch key {
	case types.SortByMessage:
		slices.SortStableFunc(out, func(a, b *types.LogRecord) int {
			return s.collator.CompareString(a.Message, b.Message)
		})
	case types.SortByLevel:
		slices.SortStableFunc(out, func(a, b *types.LogRecord) int {
			return s.collator.CompareString(string(a.Level), string(b.Level))
		})
	}

	if dir == types.Descending {
		slices.Reverse(out)
	}
	return out
}
