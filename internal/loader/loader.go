package loader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/valyala/fastjson"
	"go.opentelemetry.io/otel"

	"github.com/therealutkarshpriyadarshi/logview/internal/logging"
	"github.com/therealutkarshpriyadarshi/logview/internal/metrics"
	"github.com/therealutkarshpriyadarshi/logview/internal/store"
	"github.com/therealutkarshpriyadarshi/logview/internal/tracing"
	"github.com/therealutkarshpriyadarshi/logview/pkg/types"
)

// Format selects how lines are decoded
type Format string

const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

const maxLineSize = 1024 * 1024

// DefaultTextPattern splits "<timestamp> <level> <message>" lines
const DefaultTextPattern = `^(?P<timestamp>\S+(?:[ T]\d{2}:\d{2}:\d{2}\S*)?)\s+\[?(?P<level>[A-Za-z]+)\]?:?\s+(?P<message>.*)$`

// Config holds loader configuration
type Config struct {
	Format          Format
	LogType         string
	TextPattern     string
	TimeFormats     []string
	TimeField       string
	LevelField      string
	MessageField    string
	CollapseRepeats bool
	RedactMeta      bool     // mask meta values whose keys look like secrets
	SensitiveKeys   []string // defaults to DefaultSensitiveKeys
}

// Loader turns log lines into records. It reuses a JSON parser between lines
// and is not safe for concurrent use.
type Loader struct {
	cfg     Config
	pattern *regexp.Regexp
	parser  fastjson.Parser
	logger  *logging.Logger
	metrics *metrics.Collector
}

// New creates a loader
func New(cfg Config, logger *logging.Logger, collector *metrics.Collector) (*Loader, error) {
	if cfg.Format == "" {
		cfg.Format = FormatAuto
	}
	switch cfg.Format {
	case FormatAuto, FormatJSON, FormatText:
	default:
		return nil, fmt.Errorf("unknown format: %s", cfg.Format)
	}

	if cfg.TextPattern == "" {
		cfg.TextPattern = DefaultTextPattern
	}
	pattern, err := regexp.Compile(cfg.TextPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile text pattern: %w", err)
	}

	if len(cfg.TimeFormats) == 0 {
		cfg.TimeFormats = DefaultTimeFormats()
	}
	if cfg.RedactMeta && len(cfg.SensitiveKeys) == 0 {
		cfg.SensitiveKeys = DefaultSensitiveKeys
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &Loader{
		cfg:     cfg,
		pattern: pattern,
		logger:  logger.WithComponent("loader"),
		metrics: collector,
	}, nil
}

// LoadFile reads a whole file into a store. The store's log type defaults to
// the file name without extension.
func (l *Loader) LoadFile(ctx context.Context, path string) (*store.Store, error) {
	_, span := tracing.TraceLoad(ctx, otel.Tracer("loader"), path, string(l.cfg.Format))
	defer span.End()

	f, err := os.Open(path)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	logType := l.cfg.LogType
	if logType == "" {
		logType = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	recs, err := l.Read(f, logType, 0)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	l.logger.Info().
		Str("path", path).
		Str("log_type", logType).
		Int("records", len(recs)).
		Msg("Loaded log file")

	return store.New(logType, recs), nil
}

// Read decodes every line of r. Indices start at firstIndex and count every
// non-empty line, so collapsed repeats leave gaps.
func (l *Loader) Read(r io.Reader, logType string, firstIndex int) ([]*types.LogRecord, error) {
	b := l.newBatch(logType, firstIndex)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		b.add(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return b.flush(), nil
}

// NextIndex returns the index the line after recs would get
func NextIndex(recs []*types.LogRecord, fallback int) int {
	if len(recs) == 0 {
		return fallback
	}
	return recs[len(recs)-1].Index + 1
}

// batch accumulates records, holding the last one back while it may still
// absorb identical successors
type batch struct {
	l       *Loader
	logType string
	next    int
	pending *types.LogRecord
	out     []*types.LogRecord
}

func (l *Loader) newBatch(logType string, firstIndex int) *batch {
	return &batch{l: l, logType: logType, next: firstIndex}
}

func (b *batch) add(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		b.l.count("empty")
		return
	}

	rec := b.l.ParseLine(line, b.next)
	rec.LogType = b.logType
	b.next++

	if b.pending != nil && b.l.cfg.CollapseRepeats &&
		b.pending.Level == rec.Level && b.pending.Message == rec.Message {
		rec.Repeated = append(b.pending.Repeated, b.pending.Index)
		b.pending = rec
		b.l.count("collapsed")
		return
	}

	if b.pending != nil {
		b.out = append(b.out, b.pending)
	}
	b.pending = rec
}

func (b *batch) flush() []*types.LogRecord {
	if b.pending != nil {
		b.out = append(b.out, b.pending)
		b.pending = nil
	}
	out := b.out
	b.out = nil
	return out
}

// ParseLine decodes one line into a record with the given index. It never
// fails: lines that match no format become info records holding the raw text.
func (l *Loader) ParseLine(line string, index int) *types.LogRecord {
	if l.cfg.Format != FormatText && strings.HasPrefix(strings.TrimSpace(line), "{") {
		if rec, ok := l.parseJSON(line); ok {
			rec.Index = index
			l.count("json")
			return rec
		}
	}

	if rec, ok := l.parseText(line); ok {
		rec.Index = index
		l.count("text")
		return rec
	}

	l.count("raw")
	return &types.LogRecord{
		Index:   index,
		Level:   types.LevelInfo,
		Message: line,
	}
}

func (l *Loader) parseText(line string) (*types.LogRecord, bool) {
	match := l.pattern.FindStringSubmatch(line)
	if match == nil {
		return nil, false
	}

	rec := &types.LogRecord{}
	for i, name := range l.pattern.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		switch name {
		case "timestamp":
			rec.Timestamp = match[i]
		case "level":
			rec.Level = types.NormalizeLevel(match[i])
		case "message":
			rec.Message = match[i]
		default:
			if rec.Meta == nil {
				rec.Meta = make(map[string]string)
			}
			rec.Meta[name] = match[i]
		}
	}

	// a first word that is not a level means the line has no header
	if !slices.Contains(types.Levels, rec.Level) {
		return nil, false
	}

	if ts, err := ParseTimestamp(rec.Timestamp, l.cfg.TimeFormats...); err == nil {
		rec.Moment = ts
	}
	return rec, true
}

func (l *Loader) parseJSON(line string) (*types.LogRecord, bool) {
	v, err := l.parser.Parse(line)
	if err != nil {
		return nil, false
	}
	obj, err := v.Object()
	if err != nil {
		return nil, false
	}

	rec := &types.LogRecord{}
	timeKey := pickKey(obj, l.cfg.TimeField, "timestamp", "time", "ts", "@timestamp")
	levelKey := pickKey(obj, l.cfg.LevelField, "level", "severity", "loglevel", "log_level", "lvl")
	messageKey := pickKey(obj, l.cfg.MessageField, "msg", "message", "text", "log")

	obj.Visit(func(key []byte, val *fastjson.Value) {
		k := string(key)
		switch k {
		case timeKey:
			rec.Timestamp = valueString(val)
			rec.Moment = momentOf(val, l.cfg.TimeFormats)
		case levelKey:
			rec.Level = types.NormalizeLevel(valueString(val))
		case messageKey:
			rec.Message = valueString(val)
		default:
			if rec.Meta == nil {
				rec.Meta = make(map[string]string)
			}
			rec.Meta[k] = valueString(val)
		}
	})

	if levelKey == "" {
		rec.Level = types.LevelInfo
	}
	if messageKey == "" {
		rec.Message = line
		rec.Meta = nil
	}
	if l.cfg.RedactMeta {
		redactMeta(rec.Meta, l.cfg.SensitiveKeys)
	}
	return rec, true
}

func (l *Loader) count(result string) {
	if l.metrics != nil {
		l.metrics.LoaderLines.WithLabelValues(string(l.cfg.Format), result).Inc()
	}
}

func pickKey(obj *fastjson.Object, configured string, candidates ...string) string {
	if configured != "" {
		if obj.Get(configured) != nil {
			return configured
		}
		return ""
	}
	for _, c := range candidates {
		if obj.Get(c) != nil {
			return c
		}
	}
	return ""
}

func valueString(v *fastjson.Value) string {
	if v.Type() == fastjson.TypeString {
		return string(v.GetStringBytes())
	}
	return v.String()
}
