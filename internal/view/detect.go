package view

import (
	"reflect"

	"github.com/therealutkarshpriyadarshi/logview/pkg/types"
)

// Source is a read-only record sequence. Implementations should be comparable
// (pointer types) and return a new value whenever their contents change. A
// source of a non-comparable type is treated as changed on every update.
type Source interface {
	Records() []*types.LogRecord
	Len() int
	LogType() string
}

// SourceRef snapshots the identity, length and type of a source at the time a
// view was computed
type SourceRef struct {
	Source  Source
	Len     int
	LogType string
}

// RefOf snapshots src. A nil source yields the zero ref.
func RefOf(src Source) SourceRef {
	if src == nil {
		return SourceRef{}
	}
	return SourceRef{Source: src, Len: src.Len(), LogType: src.LogType()}
}

func (r SourceRef) records() []*types.LogRecord {
	if r.Source == nil {
		return nil
	}
	return r.Source.Records()
}

// Change describes how much of the pipeline an update must rerun
type Change int

const (
	// ChangeNone means the previous output is still valid
	ChangeNone Change = iota
	// ChangeSort means only the ordering changed
	ChangeSort
	// ChangePipeline means filter and search must rerun
	ChangePipeline
)

func (c Change) String() string {
	switch c {
	case ChangeNone:
		return "none"
	case ChangeSort:
		return "sort"
	case ChangePipeline:
		return "pipeline"
	default:
		return "unknown"
	}
}

// Classify decides how much work moving from (prev, prevSrc) to (next, nextSrc)
// requires. The level filter is compared by value. Selection and search cursor
// are not part of the parameters and never cause work.
func Classify(prev, next types.ViewParameters, prevSrc, nextSrc SourceRef) Change {
	switch {
	case !sameSource(prevSrc.Source, nextSrc.Source),
		prevSrc.Len != nextSrc.Len,
		prevSrc.LogType != nextSrc.LogType,
		!prev.Levels.Equal(next.Levels),
		prev.Search != next.Search,
		prev.OnlyShowMatches != next.OnlyShowMatches:
		return ChangePipeline
	case prev.SortKeyOrDefault() != next.SortKeyOrDefault(),
		prev.DirectionOrDefault() != next.DirectionOrDefault():
		return ChangeSort
	default:
		return ChangeNone
	}
}

func sameSource(a, b Source) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) || !t.Comparable() {
		return false
	}
	return a == b
}

// NeedsRecompute reports whether any pipeline work is required
func NeedsRecompute(prev, next types.ViewParameters, prevSrc, nextSrc SourceRef) bool {
	return Classify(prev, next, prevSrc, nextSrc) != ChangeNone
}
