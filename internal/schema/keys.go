package schema

import (
	"encoding/binary"

	"github.com/oxhq/indexdb/internal/codec"
)

// Sorted-duplicate maps are realized in Badger (which has a single flat
// keyspace, unlike LMDB's named sub-databases) by concatenating the map's
// one-byte namespace, its primary key, and its duplicate value into one
// physical key with an empty payload. Badger's byte-wise key ordering then
// reproduces LMDB's dupsort iteration order for free. Prefix(m, primary)
// finds every duplicate for a given primary key; Key(m, primary, value)
// finds (or deletes, or checks existence of) one specific entry.

func u64(c codec.Code) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(c))
	return b
}

// Prefix returns the byte prefix identifying every dup-entry for primary
// within map m.
func Prefix(m Map, primary []byte) []byte {
	b := make([]byte, 0, 1+len(primary))
	b = append(b, byte(m))
	b = append(b, primary...)
	return b
}

// Key returns the full physical key for one (primary, value) dup-entry.
func Key(m Map, primary, value []byte) []byte {
	b := make([]byte, 0, 1+len(primary)+len(value))
	b = append(b, byte(m))
	b = append(b, primary...)
	b = append(b, value...)
	return b
}

// SingleKey returns the physical key for a single-valued map (one value
// per key, no duplicates): SymbolProviderNameByCode, DirNameByCode,
// FilenameByCode, UnitInfoLocatorByCode, TargetNameByCode,
// ModuleNameByCode.
func SingleKey(m Map, primary []byte) []byte {
	return Prefix(m, primary)
}

// CodePrimary encodes a Code as the primary-key bytes used by every map
// whose key is a *_code (ProvidersByUSR, FilePathCodesByDir,
// TimestampedFilesByProvider, UnitByFileDependency, UnitByUnitDependency,
// ProvidersWithTestSymbols, and all six NameByCode maps).
func CodePrimary(c codec.Code) []byte { return u64(c) }

// NamePrimary encodes a name string as the primary-key bytes for
// USRsBySymbolName (byte-wise comparison per spec §4.C3).
func NamePrimary(name string) []byte { return []byte(name) }

// GlobalKind names the classes of globally interesting symbols that
// populate USRsByGlobalKind (spec §3). It lives in schema, rather than
// alongside the rest of the symbol vocabulary in internal/index, because
// the key-encoding helpers here need it and internal/index imports schema.
type GlobalKind uint8

const (
	GlobalKindClass GlobalKind = iota
	GlobalKindProtocol
	GlobalKindFunction
	GlobalKindStruct
	GlobalKindUnion
	GlobalKindEnum
	GlobalKindType
	GlobalKindGlobalVar
	GlobalKindTestClassOrExtension
	GlobalKindTestMethod
	GlobalKindCommentTag
)

// GlobalKindPrimary encodes the one-byte GlobalKind primary key for
// USRsByGlobalKind.
func GlobalKindPrimary(k GlobalKind) []byte { return []byte{byte(k)} }

// CodeValue/DecodeCodeValue encode/decode the plain 8-byte Code value used
// as the dup-value in USRsBySymbolName, USRsByGlobalKind,
// FilePathCodesByDir, UnitByFileDependency and UnitByUnitDependency.
func CodeValue(c codec.Code) []byte { return u64(c) }

func DecodeCodeValue(b []byte) codec.Code {
	return codec.Code(binary.LittleEndian.Uint64(b))
}

// UnitInfoLocator is the tiny single-value record stored under
// MapUnitInfoLocatorByCode, pointing at the variable-length UnitInfo
// record inside the mmap arena.
type UnitInfoLocator struct {
	Offset int64
	Length int32
}

func (l UnitInfoLocator) Encode() []byte {
	b := make([]byte, 12)
	binary.LittleEndian.PutUint64(b[0:8], uint64(l.Offset))
	binary.LittleEndian.PutUint32(b[8:12], uint32(l.Length))
	return b
}

func DecodeUnitInfoLocator(b []byte) UnitInfoLocator {
	return UnitInfoLocator{
		Offset: int64(binary.LittleEndian.Uint64(b[0:8])),
		Length: int32(binary.LittleEndian.Uint32(b[8:12])),
	}
}
