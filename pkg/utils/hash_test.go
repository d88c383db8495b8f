package utils

import "testing"

func TestContentHashDeterministic(t *testing.T) {
	payload := []byte("the same bytes")

	first := ContentHash(payload)
	second := ContentHash(payload)
	if first != second {
		t.Fatalf("hash not deterministic: %s != %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(first))
	}
	if other := ContentHash([]byte("different bytes")); other == first {
		t.Error("distinct payloads produced identical hashes")
	}
}

func TestContentHashKnownVector(t *testing.T) {
	// sha256("") is a fixed vector.
	if got := ContentHash(nil); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("empty payload hash = %s", got)
	}
}

func TestSplitJoinLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"plain", "a\nb\nc", []string{"a", "b", "c"}},
		{"trailing newline dropped", "a\nb\n", []string{"a", "b"}},
		{"single line", "only", []string{"only"}},
		{"empty", "", []string{}},
		{"blank interior lines kept", "a\n\nb", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLines(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("SplitLines(%q) = %v, want %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.expected[i])
				}
			}
		})
	}

	if got := JoinLines([]string{"a", "", "b"}); got != "a\n\nb" {
		t.Errorf("JoinLines = %q", got)
	}
}

func TestNumberLines(t *testing.T) {
	got := NumberLines([]string{"first", "second"}, 1)
	want := "     1\tfirst\n     2\tsecond"
	if got != want {
		t.Errorf("NumberLines = %q, want %q", got, want)
	}

	got = NumberLines([]string{"tenth"}, 10)
	if got != "    10\ttenth" {
		t.Errorf("NumberLines offset = %q", got)
	}
}
