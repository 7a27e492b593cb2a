package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/therealutkarshpriyadarshi/logview/internal/search"
	"github.com/therealutkarshpriyadarshi/logview/internal/view"
)

const (
	ansiReset   = "\x1b[0m"
	ansiReverse = "\x1b[7m"
	ansiBold    = "\x1b[1m"
	ansiYellow  = "\x1b[33m"
)

// printer writes a window of the displayed sequence as aligned columns
type printer struct {
	out       io.Writer
	formatter view.CellFormatter
	offset    int
	limit     int
	color     bool
}

func newPrinter(out io.Writer, formatter view.CellFormatter, offset, limit int) *printer {
	p := &printer{out: out, formatter: formatter, offset: offset, limit: limit}
	if f, ok := out.(*os.File); ok {
		p.color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return p
}

func (p *printer) print(s view.State) error {
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)

	rows := s.Window(p.offset, p.limit)
	first := max(p.offset, 0)
	for i := range rows {
		row, ok := s.Row(first+i, p.formatter)
		if !ok {
			break
		}
		// the formatter only ever prepends to the message
		prefix := len(row.Message) - len(rows[i].Message)
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			marker(row.Highlight),
			row.Index,
			row.Timestamp,
			strings.ToUpper(string(row.Level)),
			p.message(row, prefix, s.Query()),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(p.out, summary(s))
	return err
}

// message emphasises the search hits inside the rendered message
func (p *printer) message(row view.Row, prefix int, q search.Query) string {
	if !p.color || row.Highlight == view.HighlightNone {
		return row.Message
	}

	text := row.Message
	spans := search.Highlight(text[prefix:], q)
	if len(spans) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, sp := range spans {
		start, end := sp[0]+prefix, sp[1]+prefix
		b.WriteString(text[last:start])
		b.WriteString(ansiBold + ansiYellow)
		b.WriteString(text[start:end])
		b.WriteString(ansiReset)
		last = end
	}
	b.WriteString(text[last:])

	if row.Highlight == view.HighlightActiveMatch {
		return ansiReverse + b.String() + ansiReset
	}
	return b.String()
}

func marker(h view.Highlight) string {
	switch h {
	case view.HighlightSelected:
		return "*"
	case view.HighlightActiveMatch:
		return ">"
	case view.HighlightMatch:
		return "+"
	default:
		return " "
	}
}

func summary(s view.State) string {
	text := fmt.Sprintf("-- %s of %s records",
		humanize.Comma(int64(s.Len())),
		humanize.Comma(int64(s.Source.Len)))
	if q := s.Query(); !q.Empty() {
		text += fmt.Sprintf(", %s matches", humanize.Comma(int64(len(s.Matches))))
		if len(q.Invalid) > 0 {
			text += fmt.Sprintf(" (matched literally: %s)", strings.Join(q.Invalid, " "))
		}
	}
	return text + " --"
}
