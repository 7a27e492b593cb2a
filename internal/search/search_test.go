package search

import (
	"slices"
	"testing"

	"github.com/therealutkarshpriyadarshi/logview/pkg/types"
)

func messages(msgs ...string) []*types.LogRecord {
	recs := make([]*types.LogRecord, len(msgs))
	for i, m := range msgs {
		recs[i] = &types.LogRecord{Index: i, Level: types.LevelInfo, Message: m}
	}
	return recs
}

func indexes(recs []*types.LogRecord) []int {
	out := make([]int, len(recs))
	for i, r := range recs {
		out[i] = r.Index
	}
	return out
}

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantTerms   int
		wantExclude []bool
		wantInvalid int
	}{
		{name: "empty", input: "", wantTerms: 0},
		{name: "whitespace only", input: "  \t ", wantTerms: 0},
		{name: "single inclusion", input: "foo", wantTerms: 1, wantExclude: []bool{false}},
		{name: "inclusion and exclusion", input: "foo !bar", wantTerms: 2, wantExclude: []bool{false, true}},
		{name: "bare bang is inclusion", input: "!", wantTerms: 1, wantExclude: []bool{false}},
		{name: "invalid regex falls back", input: "foo( ![", wantTerms: 2, wantExclude: []bool{false, true}, wantInvalid: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Parse(tt.input)
			if len(q.Terms) != tt.wantTerms {
				t.Fatalf("Terms = %d, want %d", len(q.Terms), tt.wantTerms)
			}
			for i, want := range tt.wantExclude {
				if q.Terms[i].Exclude != want {
					t.Errorf("term %d Exclude = %v, want %v", i, q.Terms[i].Exclude, want)
				}
			}
			if len(q.Invalid) != tt.wantInvalid {
				t.Errorf("Invalid = %v, want %d entries", q.Invalid, tt.wantInvalid)
			}
		})
	}
}

func TestSearchFilter(t *testing.T) {
	recs := messages("foo bar", "foo", "bar", "FOO baz", "a.b", "axb", "x! y")

	tests := []struct {
		name string
		text string
		want []int
	}{
		{name: "include and exclude", text: "foo !bar", want: []int{1, 3}},
		{name: "case insensitive", text: "FoO", want: []int{0, 1, 3}},
		{name: "regex", text: "^ba", want: []int{2}},
		{name: "regex dot", text: "a.b", want: []int{4, 5}},
		{name: "exclusion only", text: "!foo", want: []int{2, 4, 5, 6}},
		{name: "bare bang", text: "!", want: []int{6}},
		{name: "invalid regex literal", text: "x!(", want: nil},
		{name: "no match", text: "nothing", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := indexes(Search(recs, tt.text))
			if !slices.Equal(got, tt.want) && !(len(got) == 0 && len(tt.want) == 0) {
				t.Errorf("Search(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSearchEmptyIsIdentity(t *testing.T) {
	recs := messages("a", "b")
	got := Search(recs, "   ")
	if &got[0] != &recs[0] || len(got) != len(recs) {
		t.Error("empty search should return the input slice")
	}
}

func TestSearchLiteralFallbackMatches(t *testing.T) {
	recs := messages("call foo( now", "call foo now")
	got := indexes(Search(recs, "foo("))
	if !slices.Equal(got, []int{0}) {
		t.Errorf("Search(foo() = %v, want [0]", got)
	}
}

func TestSearchIsIntersecting(t *testing.T) {
	recs := messages("alpha beta", "alpha gamma", "beta gamma", "alpha beta gamma", "delta")
	pairs := [][2]string{
		{"alpha", "beta"},
		{"alpha", "!gamma"},
		{"!delta", "gamma"},
		{"a", "!b !c"},
	}

	for _, p := range pairs {
		chained := Search(Search(recs, p[0]), p[1])
		combined := Search(recs, p[0]+" "+p[1])
		if !slices.Equal(indexes(chained), indexes(combined)) {
			t.Errorf("%q then %q = %v, combined = %v", p[0], p[1], indexes(chained), indexes(combined))
		}
	}
}

func TestExclusionIsComplement(t *testing.T) {
	recs := messages("error: disk", "ok", "ERROR again", "fine", "")

	in := indexes(Search(recs, "error"))
	out := indexes(Search(recs, "!error"))

	if len(in)+len(out) != len(recs) {
		t.Fatalf("include %v and exclude %v do not partition %d records", in, out, len(recs))
	}
	for _, i := range in {
		if slices.Contains(out, i) {
			t.Errorf("record %d in both sets", i)
		}
	}
}

func TestIndices(t *testing.T) {
	recs := messages("foo bar", "foo", "bar", "foo baz")

	got := SearchIndices(recs, "foo !bar")
	if !slices.Equal(got, []int{1, 3}) {
		t.Errorf("SearchIndices = %v, want [1 3]", got)
	}

	if got := SearchIndices(recs, ""); got == nil || len(got) != 0 {
		t.Errorf("empty search should give an empty non-nil list, got %#v", got)
	}
}

func TestHighlight(t *testing.T) {
	q := Parse("foo o !bar")
	got := Highlight("a foo and FOO", q)
	want := [][2]int{{2, 5}, {10, 13}}
	if !slices.Equal(got, want) {
		t.Errorf("Highlight = %v, want %v", got, want)
	}
}
