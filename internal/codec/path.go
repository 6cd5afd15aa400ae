package codec

import (
	"path/filepath"
	"runtime"
	"strings"
)

// CanonicalPath is an absolute, normalized filesystem path. Two
// CanonicalPath values compare equal (by ==) iff they denote the same file
// entry under the canonicalization rules: cleaned of "." and "..", no
// trailing separator, and case-folded on platforms whose default
// filesystem is case-insensitive.
type CanonicalPath string

// caseInsensitiveFS mirrors the default filesystem behavior of the host
// platform. It is a variable, not a constant, so tests can force either
// branch regardless of the platform they run on.
var caseInsensitiveFS = runtime.GOOS == "windows" || runtime.GOOS == "darwin"

// Canonicalize normalizes an absolute path into a CanonicalPath. A relative
// path is cleaned as given; callers that need absolute semantics (the
// normal case for this database) must resolve it against a working
// directory before calling Canonicalize.
func Canonicalize(path string) CanonicalPath {
	clean := filepath.Clean(path)
	clean = strings.TrimSuffix(clean, string(filepath.Separator))
	if clean == "" {
		clean = string(filepath.Separator)
	}
	if caseInsensitiveFS {
		clean = strings.ToLower(clean)
	}
	return CanonicalPath(filepath.ToSlash(clean))
}

// Code derives the stable identifier for the canonical path.
func (p CanonicalPath) Code() Code {
	return Of(string(p))
}

// Dir and Base split a canonical path the way the schema's
// directory/filename decomposition expects: Dir never carries a trailing
// separator (except for the root), and Base never contains one.
func (p CanonicalPath) Split() (dir CanonicalPath, base string) {
	d, b := filepath.Split(string(p))
	d = strings.TrimSuffix(d, "/")
	if d == "" {
		d = "/"
	}
	return CanonicalPath(d), b
}

// Join reassembles a directory and filename into a full canonical path, the
// inverse of Split and the implementation backing the C4 FullPath query.
func Join(dir CanonicalPath, base string) CanonicalPath {
	if dir == "/" {
		return CanonicalPath("/" + base)
	}
	return CanonicalPath(string(dir) + "/" + base)
}
