package debug

import (
	"testing"
)

func TestTreeWriter_Line(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		format string
		args   []any
		want   string
	}{
		{"no depth", 0, "test", nil, "test\n"},
		{"depth 2", 2, "double indent", nil, "    double indent\n"},
		{"with formatting", 1, "value: %d", []any{42}, "  value: 42\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.Line(tt.depth, tt.format, tt.args...)
			if got := tw.String(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_TextBlock(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		label string
		value string
		want  string
	}{
		{"empty value", 0, "field", "", "field: \n"},
		{"with value", 1, "content", "test", "  content: \"test\"\n"},
		{"value with quotes", 0, "quoted", `he said "hello"`, "quoted: \"he said \\\"hello\\\"\"\n"},
		{"value with newline", 0, "multiline", "line1\nline2", "multiline: \"line1\\nline2\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.TextBlock(tt.depth, tt.label, tt.value)
			if got := tw.String(); got != tt.want {
				t.Errorf("TextBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_List(t *testing.T) {
	tw := NewTreeWriter()
	tw.List(1, "selectors", []string{"a", `b[x="1"]`})
	tw.List(0, "empty", nil)

	want := "  selectors: [\"a\", \"b[x=\\\"1\\\"]\"]\nempty: []\n"
	if got := tw.String(); got != want {
		t.Errorf("List() = %q, want %q", got, want)
	}
}

func TestTreeWriter_Tree(t *testing.T) {
	tw := NewTreeWriter()
	tw.Line(0, "stylesheet")
	tw.Line(1, "rule %d", 1)
	tw.TextBlock(2, "prelude", "screen")
	tw.Line(1, "rule %d", 2)

	want := "stylesheet\n  rule 1\n    prelude: \"screen\"\n  rule 2\n"
	if got := tw.String(); got != want {
		t.Errorf("tree:\ngot:\n%s\nwant:\n%s", got, want)
	}
}
