package brackets

import (
	"errors"
	"strings"
	"testing"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		opener Delimiter
		want   []Span
	}{
		{"empty", "", Round, nil},
		{"no opener", "abc", Round, nil},
		{"single", "(a)", Round, []Span{{0, 2}}},
		{"nested reports outer only", "(a(b))", Round, []Span{{0, 5}}},
		{"siblings", "(a) (b)", Round, []Span{{0, 2}, {4, 6}}},
		{"leading text", "x = [1, 2]", Square, []Span{{4, 9}}},
		{"other pairs ignored", "[(]", Square, []Span{{0, 2}}},
		{"curly", "{a{b}c}{}", Curly, []Span{{0, 6}, {7, 8}}},
		{"angle", "<int:pk>/<slug>", Angle, []Span{{0, 7}, {9, 14}}},
		{"stray closer before opener", ") (a)", Round, []Span{{2, 4}}},
		{"multi-byte runes", "é(ü)", Round, []Span{{1, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Scan(tt.input, tt.opener)
			if err != nil {
				t.Fatalf("Scan(%q) error = %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Scan(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Scan(%q)[%d] = %v, want %v", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScan_Unmatched(t *testing.T) {
	_, err := Scan("(a(b)", Round)
	if err == nil {
		t.Fatal("expected an error for unmatched opener")
	}

	var u *UnmatchedError
	if !errors.As(err, &u) {
		t.Fatalf("error = %T, want *UnmatchedError", err)
	}
	if u.Opener != Round {
		t.Errorf("Opener = %q, want %q", u.Opener, Round)
	}
	if u.Offset != 0 {
		t.Errorf("Offset = %d, want 0", u.Offset)
	}
	if errors.Is(err, ErrUnsupportedDelimiter) {
		t.Error("malformed input must not be reported as a usage fault")
	}
}

func TestScan_UnmatchedAfterValidSpan(t *testing.T) {
	spans, err := Scan("[a] [b", Square)
	if !IsUnmatched(err) {
		t.Fatalf("error = %v, want unmatched", err)
	}
	if spans != nil {
		t.Errorf("partial spans returned: %v", spans)
	}
}

func TestScan_UnsupportedDelimiter(t *testing.T) {
	_, err := Scan("a|b|", Delimiter('|'))
	if !errors.Is(err, ErrUnsupportedDelimiter) {
		t.Fatalf("error = %v, want ErrUnsupportedDelimiter", err)
	}
	if IsUnmatched(err) {
		t.Error("usage fault must not be reported as malformed input")
	}
}

func TestScan_BalanceInvariant(t *testing.T) {
	inputs := []string{
		"urlpatterns = [path('a/', v, name='a'), path('b/', include([path('c', w)]))]",
		"(((())))()(()())",
		"f(x) + g(h(y), [z]) - (1)",
	}

	for _, input := range inputs {
		runes := []rune(input)
		spans, err := Scan(input, Round)
		if err != nil {
			t.Fatalf("Scan(%q) error = %v", input, err)
		}

		prevEnd := -1
		for _, s := range spans {
			if runes[s.Start] != '(' || runes[s.End] != ')' {
				t.Errorf("span %v of %q is not bracketed", s, input)
			}
			if s.Start <= prevEnd {
				t.Errorf("span %v overlaps previous span ending at %d", s, prevEnd)
			}
			prevEnd = s.End

			depth := 0
			for _, r := range runes[s.Start : s.End+1] {
				switch r {
				case '(':
					depth++
				case ')':
					depth--
				}
			}
			if depth != 0 {
				t.Errorf("span %v of %q has depth %d at end", s, input, depth)
			}
		}
	}
}

func TestExtract(t *testing.T) {
	input := "urlpatterns = [\n    path('a/', view, name='a'),\n    path('b/<int:pk>/', other),\n]"

	lists, err := Extract(input, Square)
	if err != nil {
		t.Fatalf("Extract(Square) error = %v", err)
	}
	if len(lists) != 1 {
		t.Fatalf("got %d lists, want 1", len(lists))
	}
	if !strings.HasPrefix(lists[0], "[") || !strings.HasSuffix(lists[0], "]") {
		t.Errorf("list span = %q, want bracketed", lists[0])
	}

	calls, err := Extract(lists[0], Round)
	if err != nil {
		t.Fatalf("Extract(Round) error = %v", err)
	}
	want := []string{"('a/', view, name='a')", "('b/<int:pk>/', other)"}
	if len(calls) != len(want) {
		t.Fatalf("got %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestExtract_SubsequenceOfInput(t *testing.T) {
	input := "a(b)c(d(e))f"
	parts, err := Extract(input, Round)
	if err != nil {
		t.Fatalf("Extract error = %v", err)
	}

	rest := input
	for _, p := range parts {
		idx := strings.Index(rest, p)
		if idx < 0 {
			t.Fatalf("part %q not found in order in %q", p, input)
		}
		rest = rest[idx+len(p):]
	}
}

func TestWithFile(t *testing.T) {
	_, err := Scan("(", Round)
	tagged := WithFile(err, "app/urls.py")

	var u *UnmatchedError
	if !errors.As(tagged, &u) {
		t.Fatalf("tagged error = %T, want *UnmatchedError", tagged)
	}
	if u.File != "app/urls.py" {
		t.Errorf("File = %q, want app/urls.py", u.File)
	}
	if !strings.Contains(tagged.Error(), "app/urls.py") {
		t.Errorf("message %q does not mention the file", tagged.Error())
	}

	plain := errors.New("boom")
	if WithFile(plain, "x") != plain {
		t.Error("non-unmatched errors must pass through unchanged")
	}
}

func TestDelimiter(t *testing.T) {
	for _, d := range []Delimiter{Round, Square, Curly, Angle} {
		if !d.Valid() {
			t.Errorf("%q should be valid", d.String())
		}
	}
	if Delimiter(')').Valid() {
		t.Error("closers are not valid openers")
	}
	if c, _ := Square.Closer(); c != ']' {
		t.Errorf("Square.Closer() = %q, want ']'", c)
	}
}
