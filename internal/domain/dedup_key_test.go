package domain

import "testing"

func TestNewDedupKeyStableAcrossWhitespace(t *testing.T) {
	a := NewDedupKey("a.go", 3, "use a logger")
	b := NewDedupKey("a.go", 3, "  use a logger \n")
	if a != b {
		t.Error("trailing whitespace changed the key")
	}
}

func TestNewDedupKeyUnicodeNormalization(t *testing.T) {
	// Composed U+00E9 vs decomposed e + combining acute.
	composed := NewDedupKey("a.go", 1, "caf\u00e9")
	decomposed := NewDedupKey("a.go", 1, "cafe\u0301")
	if composed != decomposed {
		t.Error("NFC-equivalent bodies produced different keys")
	}
}

func TestNewDedupKeyDistinguishesInputs(t *testing.T) {
	base := NewDedupKey("a.go", 3, "body")
	cases := map[string]DedupKey{
		"path":     NewDedupKey("b.go", 3, "body"),
		"position": NewDedupKey("a.go", 4, "body"),
		"body":     NewDedupKey("a.go", 3, "other"),
	}
	for name, key := range cases {
		if key == base {
			t.Errorf("changing %s did not change the key", name)
		}
	}
}

func TestMultiline(t *testing.T) {
	single := Comment{Line: 5}
	if single.Multiline() {
		t.Error("comment without StartLine reported multiline")
	}
	ranged := Comment{Line: 5, StartLine: 3}
	if !ranged.Multiline() {
		t.Error("ranged comment not reported multiline")
	}
	degenerate := Comment{Line: 5, StartLine: 5}
	if degenerate.Multiline() {
		t.Error("StartLine equal to Line is a single-line comment")
	}
}
