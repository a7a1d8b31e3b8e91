package position

import (
	"testing"

	"csscov/css"
)

type mapping struct {
	source       string
	line, column int
}

// fakeMapper answers only for exact generated positions it knows about.
type fakeMapper struct {
	entries map[[2]int]mapping
	calls   [][2]int
}

func (m *fakeMapper) Source(genLine, genColumn int) (string, string, int, int, bool) {
	m.calls = append(m.calls, [2]int{genLine, genColumn})
	e, ok := m.entries[[2]int{genLine, genColumn}]
	if !ok {
		return "", "", 0, 0, false
	}
	return e.source, "", e.line, e.column, true
}

func TestResolver_Identity(t *testing.T) {
	r := NewIdentity("/tmp/site.css")
	if r.Active() {
		t.Fatal("identity resolver must not be active")
	}
	if r.MapPath() != "" {
		t.Errorf("MapPath() = %q, want empty", r.MapPath())
	}

	res := r.Resolve(css.Position{Line: 7, Column: 3})
	want := Result{Original: Original{Source: "/tmp/site.css", Line: 7, Column: 3}, Outcome: ResolvedAtExact}
	if res != want {
		t.Errorf("Resolve() = %+v, want %+v", res, want)
	}
}

// layout of the generated stylesheet the map below describes:
//
//	line 1: a.scss:1 from column 0, a.scss:2 from column 10
//	line 2: no mappings
//	line 3: b.scss:1 from column 0, b.scss:1 column 5 from column 5
//	line 4: b.scss:2 column 5 from column 0, unmapped from column 3
//	line 5: b.scss:3 column 5 from column 4
const layoutMap = `{"version":3,"file":"out.css","sources":["a.scss","b.scss"],"names":[],"mappings":"AAAA,UACA;;ACDA,KAAK;AACA,G;IACA"}`

func loadResolver(t *testing.T, data string) *Resolver {
	t.Helper()
	sm, err := ParseSourceMap([]byte(data))
	if err != nil {
		t.Fatalf("ParseSourceMap() error = %v", err)
	}
	return New("out.css", "out.css.map", sm)
}

func TestResolver_TwoAttempts(t *testing.T) {
	r := loadResolver(t, layoutMap)

	tests := []struct {
		name string
		pos  css.Position
		want Result
	}{
		{
			name: "first rule of the map",
			pos:  css.Position{Line: 1, Column: 1},
			want: Result{Original: Original{Source: "a.scss", Line: 1, Column: 1}, Outcome: ResolvedAtOffset},
		},
		{
			name: "past last mapping on its line",
			pos:  css.Position{Line: 1, Column: 15},
			want: Result{Original: Original{Source: "a.scss", Line: 2, Column: 1}, Outcome: ResolvedAtOffset},
		},
		{
			name: "line without mappings",
			pos:  css.Position{Line: 2, Column: 1},
			want: Result{Outcome: Unresolved},
		},
		{
			name: "second source",
			pos:  css.Position{Line: 3, Column: 7},
			want: Result{Original: Original{Source: "b.scss", Line: 1, Column: 6}, Outcome: ResolvedAtOffset},
		},
		{
			name: "before unmapped segment",
			pos:  css.Position{Line: 4, Column: 3},
			want: Result{Original: Original{Source: "b.scss", Line: 2, Column: 6}, Outcome: ResolvedAtOffset},
		},
		{
			name: "inside unmapped segment",
			pos:  css.Position{Line: 4, Column: 5},
			want: Result{Outcome: Unresolved},
		},
		{
			name: "found at exact column",
			pos:  css.Position{Line: 5, Column: 4},
			want: Result{Original: Original{Source: "b.scss", Line: 3, Column: 6}, Outcome: ResolvedAtExact},
		},
		{
			name: "before first mapping of the line",
			pos:  css.Position{Line: 5, Column: 1},
			want: Result{Outcome: Unresolved},
		},
		{
			name: "past the end of the map",
			pos:  css.Position{Line: 9, Column: 1},
			want: Result{Outcome: Unresolved},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.pos)
			if got != tt.want {
				t.Errorf("Resolve(%s) = %+v, want %+v", tt.pos, got, tt.want)
			}
		})
	}
}

func TestResolver_QueryOrder(t *testing.T) {
	m := &fakeMapper{entries: map[[2]int]mapping{}}
	r := New("out.css", "out.css.map", m)

	if res := r.Resolve(css.Position{Line: 4, Column: 9}); res.Ok() {
		t.Fatalf("expected unresolved, got %+v", res)
	}
	want := [][2]int{{4, 8}, {4, 9}}
	if len(m.calls) != len(want) || m.calls[0] != want[0] || m.calls[1] != want[1] {
		t.Errorf("calls = %v, want %v", m.calls, want)
	}
}

func TestResolver_Idempotent(t *testing.T) {
	r := loadResolver(t, layoutMap)

	first := r.Resolve(css.Position{Line: 1, Column: 1})
	for range 3 {
		if again := r.Resolve(css.Position{Line: 1, Column: 1}); again != first {
			t.Fatalf("Resolve() not stable: %+v != %+v", again, first)
		}
	}
}

func TestResolver_EmptySourceIsUnresolved(t *testing.T) {
	m := &fakeMapper{entries: map[[2]int]mapping{{1, 0}: {"", 1, 0}, {1, 1}: {"", 1, 0}}}
	r := New("out.css", "out.css.map", m)
	if res := r.Resolve(css.Position{Line: 1, Column: 1}); res.Ok() {
		t.Errorf("expected unresolved for mapping without source, got %+v", res)
	}
}

func TestResolver_ResolveSpan(t *testing.T) {
	r := loadResolver(t, layoutMap)

	t.Run("both ends", func(t *testing.T) {
		start, end := r.ResolveSpan(css.Span{Start: css.Position{Line: 1, Column: 1}, End: css.Position{Line: 1, Column: 21}})
		if start.Line != 1 || end.Line != 2 || end.Column != 1 {
			t.Errorf("got start %+v end %+v", start, end)
		}
	})

	t.Run("end degrades to start", func(t *testing.T) {
		start, end := r.ResolveSpan(css.Span{Start: css.Position{Line: 3, Column: 1}, End: css.Position{Line: 2, Column: 3}})
		if !start.Ok() || end != start {
			t.Errorf("got start %+v end %+v", start, end)
		}
	})

	t.Run("end in another source degrades to start", func(t *testing.T) {
		start, end := r.ResolveSpan(css.Span{Start: css.Position{Line: 1, Column: 1}, End: css.Position{Line: 3, Column: 2}})
		if start.Source != "a.scss" || end != start {
			t.Errorf("got start %+v end %+v", start, end)
		}
	})

	t.Run("unresolved start", func(t *testing.T) {
		start, end := r.ResolveSpan(css.Span{Start: css.Position{Line: 2, Column: 1}, End: css.Position{Line: 1, Column: 21}})
		if start.Ok() || end.Ok() {
			t.Errorf("got start %+v end %+v", start, end)
		}
	})
}

func TestOutcome_String(t *testing.T) {
	for o, want := range map[Outcome]string{
		Unresolved:       "unresolved",
		ResolvedAtOffset: "resolved-at-offset",
		ResolvedAtExact:  "resolved-at-exact",
		Outcome(9):       "Outcome(9)",
	} {
		if o.String() != want {
			t.Errorf("String() = %q, want %q", o.String(), want)
		}
	}
}
