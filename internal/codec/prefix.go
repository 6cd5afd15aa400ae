package codec

import (
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// PrefixMapping is one (original, replacement) pair registered by the host
// so that an index built under one root can be consumed under another
// (spec §4.C1). Original may end in "/**" (e.g. "/SRC_ROOT/**"), which
// matches like the literal prefix before it. Any other doublestar glob has
// to match the whole path, and a path it matches is replaced by Replacement
// as a whole. Matching is case-sensitive.
type PrefixMapping struct {
	Original    string
	Replacement string
}

// PrefixTable applies registered prefix mappings in either direction. It is
// safe for concurrent use; mappings are expected to be registered once at
// startup and read many times afterward.
type PrefixTable struct {
	mu       sync.RWMutex
	mappings []PrefixMapping
}

// NewPrefixTable builds a table from an explicit list of mappings. Both
// directions of every mapping are usable, as required by spec §4.C1.
func NewPrefixTable(mappings []PrefixMapping) *PrefixTable {
	t := &PrefixTable{}
	t.mappings = append(t.mappings, mappings...)
	return t
}

// Register adds one more mapping at runtime.
func (t *PrefixTable) Register(m PrefixMapping) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mappings = append(t.mappings, m)
}

// Apply rewrites path from its "original" form to its "replacement" form,
// following the first mapping whose original prefix matches (literally or
// as a doublestar glob).
func (t *PrefixTable) Apply(path string) string {
	return t.rewrite(path, func(m PrefixMapping) (string, string) { return m.Original, m.Replacement })
}

// Unapply rewrites path from its "replacement" form back to its "original"
// form — the reverse direction of Apply.
func (t *PrefixTable) Unapply(path string) string {
	return t.rewrite(path, func(m PrefixMapping) (string, string) { return m.Replacement, m.Original })
}

func (t *PrefixTable) rewrite(path string, pick func(PrefixMapping) (string, string)) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, m := range t.mappings {
		from, to := pick(m)
		if rest, ok := matchPrefix(from, path); ok {
			return to + rest
		}
	}
	return path
}

// matchPrefix reports whether path begins with from's literal prefix (from
// with a trailing "/**" removed) and returns the remainder of path after
// that prefix, separator included. Failing that, a from containing a glob
// that matches all of path yields an empty remainder.
func matchPrefix(from, path string) (rest string, ok bool) {
	literal := strings.TrimSuffix(strings.TrimSuffix(from, "**"), "/")
	if literal != "" && strings.HasPrefix(path, literal) {
		return path[len(literal):], true
	}
	if strings.Contains(from, "*") {
		if matched, _ := doublestar.Match(from, path); matched {
			return "", true
		}
	}
	return "", false
}
