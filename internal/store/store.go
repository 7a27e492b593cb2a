package store

import (
	"slices"

	"github.com/therealutkarshpriyadarshi/logview/pkg/types"
)

// Store is an immutable, ordered set of records from one logical source.
// Growing a store produces a new *Store so that callers comparing pointers see
// the change.
type Store struct {
	logType string
	records []*types.LogRecord
}

// New wraps records in a store. The slice is owned by the store afterwards.
func New(logType string, records []*types.LogRecord) *Store {
	return &Store{
		logType: logType,
		records: slices.Clip(records),
	}
}

// Records returns the records in load order. Callers must not modify the slice.
func (s *Store) Records() []*types.LogRecord {
	if s == nil {
		return nil
	}
	return s.records
}

// Len returns the number of records
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// LogType returns the source type tag
func (s *Store) LogType() string {
	if s == nil {
		return ""
	}
	return s.logType
}

// At returns the record at position i
func (s *Store) At(i int) (*types.LogRecord, bool) {
	if s == nil || i < 0 || i >= len(s.records) {
		return nil, false
	}
	return s.records[i], true
}

// Append returns a new store holding the existing records followed by recs.
// The receiver is left untouched.
func (s *Store) Append(recs ...*types.LogRecord) *Store {
	// records is clipped, so append always copies into a fresh array
	return &Store{
		logType: s.LogType(),
		records: slices.Clip(append(s.Records()[:s.Len():s.Len()], recs...)),
	}
}

// Merge builds the time-ordered union of several stores. Records are copied and
// renumbered in merged order; records without an instant keep their position
// relative to their own source. Ties keep the order of the stores argument.
// A collapsed record takes one number per repeat, just before its own, and
// Repeated is rewritten to those numbers.
func Merge(logType string, stores ...*Store) *Store {
	total := 0
	for _, s := range stores {
		total += s.Len()
	}

	merged := make([]*types.LogRecord, 0, total)
	cursors := make([]int, len(stores))
	next := 0
	for len(merged) < total {
		pick := -1
		for i, s := range stores {
			if cursors[i] >= s.Len() {
				continue
			}
			if pick < 0 || before(s.records[cursors[i]], stores[pick].records[cursors[pick]]) {
				pick = i
			}
		}
		rec := *stores[pick].records[cursors[pick]]
		cursors[pick]++

		if n := len(rec.Repeated); n > 0 {
			rec.Repeated = make([]int, n)
			for i := range rec.Repeated {
				rec.Repeated[i] = next + i
			}
			next += n
		}
		rec.Index = next
		next++
		merged = append(merged, &rec)
	}

	return &Store{logType: logType, records: merged}
}

func before(a, b *types.LogRecord) bool {
	if a.Moment.IsZero() || b.Moment.IsZero() {
		return false
	}
	return a.Moment.Before(b.Moment)
}
