package index

import "testing"

func TestMatchesPatternEmptyPatternMatchesEverything(t *testing.T) {
	if !matchesPattern("anything", "", false, false, false, false) {
		t.Fatal("empty pattern should match")
	}
}

func TestMatchesPatternContiguous(t *testing.T) {
	tests := []struct {
		name, pattern          string
		anchorStart, anchorEnd bool
		want                   bool
	}{
		{"HelloWorld", "loWo", false, false, true},
		{"HelloWorld", "xyz", false, false, false},
		{"HelloWorld", "Hello", true, false, true},
		{"HelloWorld", "ello", true, false, false},
		{"HelloWorld", "World", false, true, true},
		{"HelloWorld", "Worl", false, true, false},
		{"HelloWorld", "HelloWorld", true, true, true},
		{"HelloWorld", "HelloWorl", true, true, false},
	}
	for _, tt := range tests {
		got := matchesPattern(tt.name, tt.pattern, tt.anchorStart, tt.anchorEnd, false, false)
		if got != tt.want {
			t.Errorf("matchesPattern(%q, %q, start=%v, end=%v) = %v, want %v",
				tt.name, tt.pattern, tt.anchorStart, tt.anchorEnd, got, tt.want)
		}
	}
}

func TestMatchesPatternIgnoreCase(t *testing.T) {
	if !matchesPattern("HelloWorld", "helloworld", true, true, false, true) {
		t.Fatal("case-insensitive contiguous match failed")
	}
	if matchesPattern("HelloWorld", "helloworld", true, true, false, false) {
		t.Fatal("case-sensitive match unexpectedly succeeded")
	}
}

func TestMatchesPatternSubsequence(t *testing.T) {
	tests := []struct {
		name, pattern          string
		anchorStart, anchorEnd bool
		want                   bool
	}{
		{"HelloWorld", "HlWrd", false, false, true},
		{"HelloWorld", "dlr", false, false, false}, // out of order: nothing follows the final 'd'
		{"HelloWorld", "Hlo", true, false, true},
		{"HelloWorld", "elo", true, false, false}, // doesn't start at name[0]
		{"HelloWorld", "rld", false, true, true},
		{"HelloWorld", "rl", false, true, false}, // pattern's last rune must equal name's final rune
	}
	for _, tt := range tests {
		got := matchesPattern(tt.name, tt.pattern, tt.anchorStart, tt.anchorEnd, true, false)
		if got != tt.want {
			t.Errorf("matchesPattern(subsequence, %q, %q, start=%v, end=%v) = %v, want %v",
				tt.name, tt.pattern, tt.anchorStart, tt.anchorEnd, got, tt.want)
		}
	}
}

func TestMatchesPatternSubsequenceAnchorBoth(t *testing.T) {
	if !matchesPattern("abc", "abc", true, true, true, false) {
		t.Fatal("full subsequence match with both anchors should succeed")
	}
	if !matchesPattern("abc", "ac", true, true, true, false) {
		t.Fatal("anchored subsequence may skip interior runes as long as the first/last matches land on name's ends")
	}
	if matchesPattern("abc", "bc", true, true, true, false) {
		t.Fatal("anchor_start requires the first matched rune to land on name[0]")
	}
}
