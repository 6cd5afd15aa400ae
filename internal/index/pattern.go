package index

import "strings"

// matchesPattern implements spec §4.C4's matches_pattern: (a) optional
// case folding, (b) contiguous-substring or in-order-subsequence matching,
// (c) start/end anchoring. An empty pattern matches every name.
func matchesPattern(name, pattern string, anchorStart, anchorEnd, subsequence, ignoreCase bool) bool {
	if pattern == "" {
		return true
	}
	if ignoreCase {
		name = strings.ToLower(name)
		pattern = strings.ToLower(pattern)
	}
	nameR := []rune(name)
	patR := []rune(pattern)

	if subsequence {
		return matchesSubsequence(nameR, patR, anchorStart, anchorEnd)
	}
	return matchesContiguous(nameR, patR, anchorStart, anchorEnd)
}

func matchesContiguous(name, pat []rune, anchorStart, anchorEnd bool) bool {
	if anchorStart && anchorEnd {
		return runesEqual(name, pat)
	}
	if anchorStart {
		return len(name) >= len(pat) && runesEqual(name[:len(pat)], pat)
	}
	if anchorEnd {
		return len(name) >= len(pat) && runesEqual(name[len(name)-len(pat):], pat)
	}
	return indexOfRunes(name, pat) >= 0
}

// matchesSubsequence accepts iff pat's runes occur in name in order, not
// necessarily contiguously. anchor_start requires the first matched rune to
// be name[0]. anchor_end is resolved per spec §9's open question: the last
// matched pattern rune must land on name's final rune, i.e. the greedy
// right-to-left match consumes name's last rune as the last pattern rune.
func matchesSubsequence(name, pat []rune, anchorStart, anchorEnd bool) bool {
	if len(pat) == 0 {
		return true
	}
	if anchorEnd {
		// Walk both from the end; the final pattern rune must consume
		// name's final rune exactly, then subsequence-match the rest
		// to the left.
		if len(name) == 0 || name[len(name)-1] != pat[len(pat)-1] {
			return false
		}
		name = name[:len(name)-1]
		pat = pat[:len(pat)-1]
		if len(pat) == 0 {
			return !anchorStart || len(name) == 0
		}
	}
	ni, pi := 0, 0
	firstMatch := -1
	for ni < len(name) && pi < len(pat) {
		if name[ni] == pat[pi] {
			if firstMatch < 0 {
				firstMatch = ni
			}
			pi++
		}
		ni++
	}
	if pi != len(pat) {
		return false
	}
	if anchorStart && firstMatch != 0 {
		return false
	}
	return true
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func indexOfRunes(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if runesEqual(haystack[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}
