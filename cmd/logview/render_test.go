package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/therealutkarshpriyadarshi/logview/internal/search"
	"github.com/therealutkarshpriyadarshi/logview/internal/store"
	"github.com/therealutkarshpriyadarshi/logview/internal/view"
	"github.com/therealutkarshpriyadarshi/logview/pkg/types"
)

func testState(t *testing.T, params types.ViewParameters) view.State {
	t.Helper()
	src := store.New("app", []*types.LogRecord{
		{Index: 0, Timestamp: "t0", Level: types.LevelInfo, Message: "service started"},
		{Index: 1, Timestamp: "t1", Level: types.LevelError, Message: "request timeout", Repeated: []int{0}},
		{Index: 2, Timestamp: "t2", Level: types.LevelWarn, Message: "slow timeout"},
	})
	return view.New(view.Config{}).Update(view.State{}, params, src)
}

func TestPrinterMarksMatches(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, view.CellFormatter{}, 0, 0)

	if err := p.print(testState(t, types.ViewParameters{Search: "timeout"})); err != nil {
		t.Fatalf("print failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 3 rows and a summary, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], " ") || !strings.HasPrefix(lines[1], ">") || !strings.HasPrefix(lines[2], "+") {
		t.Errorf("unexpected markers:\n%s", buf.String())
	}
	if !strings.Contains(lines[1], "(×2) request timeout") || !strings.Contains(lines[1], "ERROR") {
		t.Errorf("unexpected row: %q", lines[1])
	}
	if lines[3] != "-- 3 of 3 records, 2 matches --" {
		t.Errorf("summary = %q", lines[3])
	}
}

func TestPrinterWindow(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, view.CellFormatter{}, 1, 1)

	if err := p.print(testState(t, types.ViewParameters{})); err != nil {
		t.Fatalf("print failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "request timeout") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestPrinterColorHighlightsTerms(t *testing.T) {
	p := &printer{color: true}
	row := view.Row{Message: "(×2) request timeout", Highlight: view.HighlightMatch}

	got := p.message(row, len("(×2) "), search.Parse("timeout"))
	want := "(×2) request " + ansiBold + ansiYellow + "timeout" + ansiReset
	if got != want {
		t.Errorf("message() = %q, want %q", got, want)
	}
}

func TestCombine(t *testing.T) {
	a := store.New("api", nil)
	if combine([]*store.Store{a}) != a {
		t.Error("a single store should be used as is")
	}
	if got := combine([]*store.Store{a, store.New("db", nil)}).LogType(); got != "api+db" {
		t.Errorf("merged log type = %q", got)
	}
}
