package view

import (
	"context"
	"slices"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/therealutkarshpriyadarshi/logview/internal/filter"
	"github.com/therealutkarshpriyadarshi/logview/internal/logging"
	"github.com/therealutkarshpriyadarshi/logview/internal/metrics"
	"github.com/therealutkarshpriyadarshi/logview/internal/order"
	"github.com/therealutkarshpriyadarshi/logview/internal/search"
	"github.com/therealutkarshpriyadarshi/logview/internal/tracing"
	"github.com/therealutkarshpriyadarshi/logview/pkg/types"
)

// State is one computed view. It is a value: every operation on a Coordinator
// returns a new State and leaves the old one usable.
type State struct {
	Params    types.ViewParameters
	Source    SourceRef
	Displayed []*types.LogRecord
	Matches   []int // ascending positions in Displayed

	base     []*types.LogRecord // filtered and searched, not yet sorted
	query    search.Query
	computed bool

	selected    int // record Index
	hasSelected bool
	cursor      int // position in Matches
	manual      bool
}

// Len returns the number of displayed rows
func (s State) Len() int {
	return len(s.Displayed)
}

// Record returns the record shown at display row i
func (s State) Record(i int) (*types.LogRecord, bool) {
	if i < 0 || i >= len(s.Displayed) {
		return nil, false
	}
	return s.Displayed[i], true
}

// Query returns the parsed search of the current parameters
func (s State) Query() search.Query {
	return s.query
}

// Selection returns the Index of the selected record
func (s State) Selection() (int, bool) {
	return s.selected, s.hasSelected
}

// SelectedRow returns the display row of the selected record, if it is shown
func (s State) SelectedRow() (int, bool) {
	if !s.hasSelected {
		return -1, false
	}
	row := slices.IndexFunc(s.Displayed, func(r *types.LogRecord) bool {
		return r.Index == s.selected
	})
	return row, row >= 0
}

// ActiveMatch returns the display row the search cursor points at
func (s State) ActiveMatch() (int, bool) {
	if len(s.Matches) == 0 {
		return -1, false
	}
	return s.Matches[s.cursor], true
}

// activeRecord returns the Index of the record under the search cursor
func (s State) activeRecord() (int, bool) {
	row, ok := s.ActiveMatch()
	if !ok {
		return 0, false
	}
	return s.Displayed[row].Index, true
}

// matchOf returns the position in Matches of the record with the given Index,
// or -1 when that record is not a match
func (s State) matchOf(index int) int {
	return slices.IndexFunc(s.Matches, func(row int) bool {
		return s.Displayed[row].Index == index
	})
}

// FollowingMatches reports whether the view should scroll to the active match.
// A manual selection suspends it until the search text changes.
func (s State) FollowingMatches() bool {
	return !s.manual
}

// ScrollTarget returns the row a renderer should keep visible
func (s State) ScrollTarget() (int, bool) {
	if s.FollowingMatches() {
		if row, ok := s.ActiveMatch(); ok {
			return row, true
		}
	}
	return s.SelectedRow()
}

// Config holds the coordinator's collaborators. Every field is optional.
type Config struct {
	Sorter  *order.Sorter
	Logger  *logging.Logger
	Metrics *metrics.Collector
	Tracer  trace.Tracer
}

// Coordinator turns view parameters and a record source into States. It keeps
// no view state of its own besides run counters, and is meant to be driven from
// a single goroutine.
type Coordinator struct {
	sorter  *order.Sorter
	logger  *logging.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer

	pipelineRuns int
	sortRuns     int
}

// New creates a coordinator
func New(cfg Config) *Coordinator {
	c := &Coordinator{
		sorter:  cfg.Sorter,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
	}
	if c.sorter == nil {
		c.sorter = order.NewForLocale("")
	}
	if c.logger == nil {
		c.logger = logging.Nop()
	}
	c.logger = c.logger.WithComponent("view")
	if c.tracer == nil {
		c.tracer = noop.NewTracerProvider().Tracer("view")
	}
	return c
}

// PipelineRuns counts full filter/search/sort runs
func (c *Coordinator) PipelineRuns() int {
	return c.pipelineRuns
}

// SortRuns counts sort-only runs
func (c *Coordinator) SortRuns() int {
	return c.sortRuns
}

// Recomputations counts every update that did pipeline work
func (c *Coordinator) Recomputations() int {
	return c.pipelineRuns + c.sortRuns
}

// Update moves prev to the given parameters and source. When nothing relevant
// changed prev is returned as is. A sort-only change reorders the cached base
// sequence without filtering or searching again.
func (c *Coordinator) Update(prev State, params types.ViewParameters, src Source) State {
	ref := RefOf(src)

	change := ChangePipeline
	if prev.computed {
		change = Classify(prev.Params, params, prev.Source, ref)
	}
	if change == ChangeNone {
		c.count(metrics.KindSkipped)
		return prev
	}

	return c.recompute(prev, params.Clone(), ref, change)
}

func (c *Coordinator) recompute(prev State, params types.ViewParameters, ref SourceRef, change Change) (next State) {
	kind := change.String()
	start := time.Now()

	_, span := tracing.TraceRecompute(context.Background(), c.tracer, kind, ref.Len)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Interface("panic", r).
				Str("kind", kind).
				Msg("Recompute failed, keeping previous view")
			c.count(metrics.KindFailed)
			span.AddEvent("recompute.failed")

			next = prev
			if ref.Len == 0 {
				next = State{Params: params, Source: ref, Matches: []int{}, computed: true}
			}
		}
	}()

	active, hadActive := prev.activeRecord()

	next = prev
	next.Params = params
	next.Source = ref
	next.computed = true

	if change == ChangePipeline {
		next.query = search.Parse(params.Search)
		if len(next.query.Invalid) > 0 && (params.Search != prev.Params.Search || !prev.computed) {
			c.logger.Warn().
				Strs("terms", next.query.Invalid).
				Msg("Invalid search pattern, matching literally")
			if c.metrics != nil {
				c.metrics.InvalidSearchTerms.Add(float64(len(next.query.Invalid)))
			}
		}

		base := filter.Apply(ref.records(), params.Levels)
		if params.OnlyShowMatches {
			base = search.Filter(base, next.query)
		}
		next.base = base
		c.pipelineRuns++
	} else {
		c.sortRuns++
	}

	next.Displayed = c.sorter.Sort(next.base, params.SortKeyOrDefault(), params.DirectionOrDefault())

	next.Matches = []int{}
	if !next.query.Empty() && !params.OnlyShowMatches {
		next.Matches = search.Indices(next.Displayed, next.query)
	}

	switch {
	case !prev.computed || params.Search != prev.Params.Search:
		next.cursor = 0
		next.manual = false
	case hadActive && next.matchOf(active) >= 0:
		next.cursor = next.matchOf(active)
	case next.cursor >= len(next.Matches):
		next.cursor = max(len(next.Matches)-1, 0)
	}

	c.observe(kind, start, ref.Len, next)
	c.logger.Debug().
		Str("kind", kind).
		Int("source", ref.Len).
		Int("displayed", len(next.Displayed)).
		Int("matches", len(next.Matches)).
		Dur("took", time.Since(start)).
		Msg("View recomputed")

	return next
}

// Select marks the record at display row as selected and stops following
// search matches. A row outside the displayed range clears the selection.
func (c *Coordinator) Select(prev State, row int) State {
	next := prev
	rec, ok := prev.Record(row)
	if !ok {
		next.hasSelected = false
		next.selected = 0
		return next
	}
	next.selected = rec.Index
	next.hasSelected = true
	next.manual = true
	return next
}

// NextMatch moves the search cursor forward, wrapping at the end
func (c *Coordinator) NextMatch(prev State) State {
	return moveCursor(prev, 1)
}

// PrevMatch moves the search cursor backward, wrapping at the start
func (c *Coordinator) PrevMatch(prev State) State {
	return moveCursor(prev, -1)
}

func moveCursor(prev State, delta int) State {
	n := len(prev.Matches)
	if n == 0 {
		return prev
	}
	next := prev
	next.cursor = ((prev.cursor+delta)%n + n) % n
	return next
}

func (c *Coordinator) count(kind string) {
	if c.metrics != nil {
		c.metrics.Recomputations.WithLabelValues(kind).Inc()
	}
}

func (c *Coordinator) observe(kind string, start time.Time, sourceLen int, s State) {
	if c.metrics == nil {
		return
	}
	c.metrics.Recomputations.WithLabelValues(kind).Inc()
	c.metrics.RecomputeDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	c.metrics.SourceRecords.Set(float64(sourceLen))
	c.metrics.DisplayedRecords.Set(float64(len(s.Displayed)))
	c.metrics.MatchCount.Set(float64(len(s.Matches)))
}
