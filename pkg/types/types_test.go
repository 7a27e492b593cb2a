package types

import "testing"

func TestNormalizeLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"DEBUG", LevelDebug},
		{"trace", LevelDebug},
		{" Info ", LevelInfo},
		{"WARNING", LevelWarn},
		{"err", LevelError},
		{"CRITICAL", LevelFatal},
		{"Loud", Level("loud")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeLevel(tt.input); got != tt.want {
				t.Errorf("NormalizeLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLevelFilter(t *testing.T) {
	all, err := ParseLevelFilter("")
	if err != nil {
		t.Fatalf("ParseLevelFilter failed: %v", err)
	}
	if !all.Equal(AllLevels(true)) {
		t.Errorf("empty input should enable every level, got %v", all)
	}

	f, err := ParseLevelFilter("warn, ERROR")
	if err != nil {
		t.Fatalf("ParseLevelFilter failed: %v", err)
	}
	want := LevelFilter{LevelDebug: false, LevelInfo: false, LevelWarn: true, LevelError: true, LevelFatal: false}
	if !f.Equal(want) {
		t.Errorf("got %v, want %v", f, want)
	}

	if _, err := ParseLevelFilter("info,loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestParseSortKeyAndDirection(t *testing.T) {
	if k, err := ParseSortKey(""); err != nil || k != SortByIndex {
		t.Errorf("empty key = %q, %v", k, err)
	}
	if k, err := ParseSortKey("Message"); err != nil || k != SortByMessage {
		t.Errorf("Message = %q, %v", k, err)
	}
	if _, err := ParseSortKey("color"); err == nil {
		t.Error("expected error for unknown key")
	}

	if d, err := ParseSortDirection("descending"); err != nil || d != Descending {
		t.Errorf("descending = %q, %v", d, err)
	}
	if _, err := ParseSortDirection("up"); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestViewParametersClone(t *testing.T) {
	p := ViewParameters{Search: "x", Levels: AllLevels(true)}
	c := p.Clone()
	c.Levels[LevelInfo] = false

	if !p.Levels[LevelInfo] {
		t.Error("Clone must not share the level filter")
	}
	if c.SortKeyOrDefault() != SortByIndex || c.DirectionOrDefault() != Ascending {
		t.Error("unset sort should default to index ascending")
	}
}

func TestOccurrences(t *testing.T) {
	r := &LogRecord{Repeated: []int{3, 4}}
	if r.Occurrences() != 3 {
		t.Errorf("Occurrences() = %d, want 3", r.Occurrences())
	}
	if r.HasMeta() {
		t.Error("record without meta reports meta")
	}
}
