package store

import (
	"slices"
	"testing"
	"time"

	"github.com/therealutkarshpriyadarshi/logview/pkg/types"
)

func TestNilStore(t *testing.T) {
	var s *Store
	if s.Len() != 0 || s.Records() != nil || s.LogType() != "" {
		t.Error("nil store should behave as empty")
	}
	if _, ok := s.At(0); ok {
		t.Error("At on nil store should fail")
	}

	grown := s.Append(&types.LogRecord{Index: 0})
	if grown.Len() != 1 {
		t.Errorf("Append on nil store: Len = %d, want 1", grown.Len())
	}
}

func TestAppendProducesNewStore(t *testing.T) {
	s := New("app", []*types.LogRecord{{Index: 0, Message: "a"}})
	grown := s.Append(&types.LogRecord{Index: 1, Message: "b"})

	if grown == s {
		t.Fatal("Append must return a new store")
	}
	if s.Len() != 1 {
		t.Errorf("original store changed: Len = %d", s.Len())
	}
	if grown.Len() != 2 || grown.LogType() != "app" {
		t.Errorf("grown store = %d records, type %q", grown.Len(), grown.LogType())
	}

	// two appends from the same base must not share storage
	other := s.Append(&types.LogRecord{Index: 1, Message: "c"})
	if r, _ := grown.At(1); r.Message != "b" {
		t.Errorf("sibling append overwrote record: %q", r.Message)
	}
	if r, _ := other.At(1); r.Message != "c" {
		t.Errorf("other append = %q, want c", r.Message)
	}
}

func TestMerge(t *testing.T) {
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	at := func(sec int) time.Time { return base.Add(time.Duration(sec) * time.Second) }

	api := New("api", []*types.LogRecord{
		{Index: 0, Moment: at(1), Message: "api 1", LogType: "api"},
		{Index: 1, Moment: at(3), Message: "api 3", LogType: "api"},
		{Index: 2, Moment: at(5), Message: "api 5", LogType: "api", Repeated: []int{1}},
	})
	worker := New("worker", []*types.LogRecord{
		{Index: 0, Moment: at(2), Message: "worker 2", LogType: "worker"},
		{Index: 1, Moment: at(3), Message: "worker 3", LogType: "worker"},
		{Index: 2, Moment: at(4), Message: "worker 4", LogType: "worker"},
	})

	merged := Merge("all", api, worker)

	want := []string{"api 1", "worker 2", "api 3", "worker 3", "worker 4", "api 5"}
	wantIndex := []int{0, 1, 2, 3, 4, 6}
	if merged.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", merged.Len(), len(want))
	}
	for i, msg := range want {
		r, _ := merged.At(i)
		if r.Message != msg {
			t.Errorf("position %d = %q, want %q", i, r.Message, msg)
		}
		if r.Index != wantIndex[i] {
			t.Errorf("position %d has Index %d, want %d", i, r.Index, wantIndex[i])
		}
	}

	if r, _ := merged.At(5); !slices.Equal(r.Repeated, []int{5}) {
		t.Errorf("merged Repeated = %v, want [5]", r.Repeated)
	}

	if r, _ := api.At(0); r.Index != 0 {
		t.Error("merge must not renumber source records")
	}
	if r, _ := api.At(2); !slices.Equal(r.Repeated, []int{1}) {
		t.Errorf("merge changed source Repeated: %v", r.Repeated)
	}
	if merged.LogType() != "all" {
		t.Errorf("LogType = %q, want all", merged.LogType())
	}
}

func TestMergeRenumbersCollapsedRepeats(t *testing.T) {
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	// loader numbering: lines 1 and 2 were collapsed into record 3
	api := New("api", []*types.LogRecord{
		{Index: 0, Moment: base, Message: "start"},
		{Index: 3, Moment: base.Add(3 * time.Second), Message: "retrying", Repeated: []int{1, 2}},
	})
	worker := New("worker", []*types.LogRecord{
		{Index: 0, Moment: base.Add(time.Second), Message: "tick"},
	})

	merged := Merge("all", api, worker)

	var got []int
	for _, r := range merged.Records() {
		got = append(got, r.Index)
	}
	if !slices.Equal(got, []int{0, 1, 4}) {
		t.Errorf("indices = %v, want [0 1 4]", got)
	}

	r, _ := merged.At(2)
	if !slices.Equal(r.Repeated, []int{2, 3}) {
		t.Errorf("Repeated = %v, want [2 3]", r.Repeated)
	}
	if r.Occurrences() != 3 {
		t.Errorf("Occurrences = %d, want 3", r.Occurrences())
	}
}
