// Package codec implements the fixed-size identifier and path primitives
// shared by every other package: the 64-bit Code hash and canonical path
// normalization.
package codec

import "github.com/cespare/xxhash/v2"

// Code is a deterministic 64-bit identifier derived from an arbitrary byte
// string (a USR, a file path, a unit name, a symbol name, ...). Equal
// strings always hash to equal Codes, across processes and runs. Collisions
// are possible and are treated as identity: the database does not defend
// against them, it documents the limitation.
type Code uint64

// Empty is the sentinel Code meaning "absent" wherever a Code field is
// optional (e.g. a unit with no main file).
const Empty Code = 0

// Of derives the Code for a string. Callers that already hold a []byte
// should prefer OfBytes to avoid the allocation.
func Of(s string) Code {
	return Code(xxhash.Sum64String(s))
}

// OfBytes derives the Code for a byte slice without allocating.
func OfBytes(b []byte) Code {
	return Code(xxhash.Sum64(b))
}

// IsEmpty reports whether c is the sentinel "absent" value.
func (c Code) IsEmpty() bool {
	return c == Empty
}
