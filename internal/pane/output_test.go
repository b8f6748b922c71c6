package pane

import (
	"testing"
)

func TestOutput_Write(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   []string
	}{
		{"single line", []string{"hello\n"}, []string{"hello"}},
		{"split line", []string{"hel", "lo\n"}, []string{"hello"}},
		{"two lines in one chunk", []string{"a\nb\n"}, []string{"a", "b"}},
		{"open tail", []string{"a\nb"}, []string{"a", "b"}},
		{"open tail extended", []string{"a\nb", "c\nd\n"}, []string{"a", "bc", "d"}},
		{"blank line", []string{"a\n", "\n"}, []string{"a", ""}},
		{"crlf", []string{"x\r\ny\r\n"}, []string{"x", "y"}},
		{"empty chunk", []string{"a", ""}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Output
			for _, c := range tt.chunks {
				o.Write(c)
			}
			got := o.Lines()
			if len(got) != len(tt.want) {
				t.Fatalf("Lines() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestOutput_AppendLineClosesOpenTail(t *testing.T) {
	var o Output
	o.Write("partial")
	o.AppendLine("bash> ls")
	o.Write("next")

	want := "partial\nbash> ls\nnext"
	if o.String() != want {
		t.Errorf("String() = %q, want %q", o.String(), want)
	}
}

func TestOutput_ReplaceLast(t *testing.T) {
	var o Output
	o.ReplaceLast("first")
	o.AppendLine("Generating answer ")
	o.ReplaceLast("Generating answer ..")

	if o.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", o.Len())
	}
	if got := o.Lines()[1]; got != "Generating answer .." {
		t.Errorf("last = %q", got)
	}
}
