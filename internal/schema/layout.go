package schema

import (
	"encoding/binary"
	"fmt"

	"github.com/oxhq/indexdb/internal/codec"
)

// ProviderForUSR is the fixed-size dup-value payload for ProvidersByUSR
// (spec §4.C3): 24 bytes, little-endian, packed.
type ProviderForUSR struct {
	Provider     codec.Code
	Roles        uint64
	RelatedRoles uint64
}

const ProviderForUSRSize = 24

func (v ProviderForUSR) Encode() []byte {
	b := make([]byte, ProviderForUSRSize)
	binary.LittleEndian.PutUint64(b[0:8], uint64(v.Provider))
	binary.LittleEndian.PutUint64(b[8:16], v.Roles)
	binary.LittleEndian.PutUint64(b[16:24], v.RelatedRoles)
	return b
}

func DecodeProviderForUSR(b []byte) (ProviderForUSR, error) {
	if len(b) != ProviderForUSRSize {
		return ProviderForUSR{}, fmt.Errorf("schema: ProviderForUSR: want %d bytes, got %d", ProviderForUSRSize, len(b))
	}
	return ProviderForUSR{
		Provider:     codec.Code(binary.LittleEndian.Uint64(b[0:8])),
		Roles:        binary.LittleEndian.Uint64(b[8:16]),
		RelatedRoles: binary.LittleEndian.Uint64(b[16:24]),
	}, nil
}

// TimestampedFileForProvider is the dup-value payload for
// TimestampedFilesByProvider. Spec §4.C3 leaves the choice between a
// 33-byte packed record and a 40-byte aligned one to the implementer; this
// realization commits to 40 bytes (padded) so the record divides evenly
// into 8-byte words and can sit inline next to the UnitInfo arrays without
// a realignment copy.
type TimestampedFileForProvider struct {
	File           codec.Code
	Unit           codec.Code
	ModuleName     codec.Code
	Nanos          int64
	IsSystem       bool
}

const TimestampedFileForProviderSize = 40

func (v TimestampedFileForProvider) Encode() []byte {
	b := make([]byte, TimestampedFileForProviderSize)
	binary.LittleEndian.PutUint64(b[0:8], uint64(v.File))
	binary.LittleEndian.PutUint64(b[8:16], uint64(v.Unit))
	binary.LittleEndian.PutUint64(b[16:24], uint64(v.ModuleName))
	binary.LittleEndian.PutUint64(b[24:32], uint64(v.Nanos))
	if v.IsSystem {
		b[32] = 1
	}
	// b[33:40] is padding, left zero.
	return b
}

func DecodeTimestampedFileForProvider(b []byte) (TimestampedFileForProvider, error) {
	if len(b) != TimestampedFileForProviderSize {
		return TimestampedFileForProvider{}, fmt.Errorf(
			"schema: TimestampedFileForProvider: want %d bytes, got %d",
			TimestampedFileForProviderSize, len(b))
	}
	return TimestampedFileForProvider{
		File:       codec.Code(binary.LittleEndian.Uint64(b[0:8])),
		Unit:       codec.Code(binary.LittleEndian.Uint64(b[8:16])),
		ModuleName: codec.Code(binary.LittleEndian.Uint64(b[16:24])),
		Nanos:      int64(binary.LittleEndian.Uint64(b[24:32])),
		IsSystem:   b[32] != 0,
	}, nil
}

// SymbolInfoRecord is the value stored under MapSymbolInfoByProviderUSR: the
// canonical (provider, usr) symbol-info row from spec §3. ProvidersByUSR is
// the derived inverted index rebuilt from this row whenever it changes.
type SymbolInfoRecord struct {
	Kind         uint8
	Subkind      uint8
	Properties   uint32
	Roles        uint64
	RelatedRoles uint64
}

const SymbolInfoRecordSize = 24

func (r SymbolInfoRecord) Encode() []byte {
	b := make([]byte, SymbolInfoRecordSize)
	b[0] = r.Kind
	b[1] = r.Subkind
	binary.LittleEndian.PutUint32(b[2:6], r.Properties)
	binary.LittleEndian.PutUint64(b[8:16], r.Roles)
	binary.LittleEndian.PutUint64(b[16:24], r.RelatedRoles)
	return b
}

func DecodeSymbolInfoRecord(b []byte) (SymbolInfoRecord, error) {
	if len(b) != SymbolInfoRecordSize {
		return SymbolInfoRecord{}, fmt.Errorf("schema: SymbolInfoRecord: want %d bytes, got %d", SymbolInfoRecordSize, len(b))
	}
	return SymbolInfoRecord{
		Kind:         b[0],
		Subkind:      b[1],
		Properties:   binary.LittleEndian.Uint32(b[2:6]),
		Roles:        binary.LittleEndian.Uint64(b[8:16]),
		RelatedRoles: binary.LittleEndian.Uint64(b[16:24]),
	}, nil
}

// EncodeFilenameRecord/DecodeFilenameRecord pack FilenameByCode's value:
// the parent directory's Code followed by the raw base-name bytes, matching
// spec §3's "(file_code -> directory_code || filename)".
func EncodeFilenameRecord(dir codec.Code, name string) []byte {
	b := make([]byte, 8+len(name))
	binary.LittleEndian.PutUint64(b[0:8], uint64(dir))
	copy(b[8:], name)
	return b
}

func DecodeFilenameRecord(b []byte) (dir codec.Code, name string, err error) {
	if len(b) < 8 {
		return 0, "", fmt.Errorf("schema: FilenameRecord: truncated (%d bytes)", len(b))
	}
	dir = codec.Code(binary.LittleEndian.Uint64(b[0:8]))
	name = string(b[8:])
	return dir, name, nil
}

// ProviderDependency is one (provider_code, file_code) pair stored inline
// in a UnitInfo record's provider-dependencies array.
type ProviderDependency struct {
	Provider codec.Code
	File     codec.Code
}

// UnitInfoFlags packs the four boolean fields from spec §4.C3.
type UnitInfoFlags uint8

const (
	UnitHasMainFile UnitInfoFlags = 1 << iota
	UnitHasSysroot
	UnitIsSystem
	UnitHasTestSymbols
)

// SymbolProviderKind distinguishes the two compiler front ends the spec
// names (clang, swift).
type SymbolProviderKind uint8

const (
	SymbolProviderClang SymbolProviderKind = iota
	SymbolProviderSwift
)

// UnitInfo is the full variable-length unit record (spec §3, §4.C3). It is
// stored in the arena; DecodeUnitInfo copies FileDepends/UnitDepends/
// ProviderDepends and Name out of the record, so a decoded value does not
// alias the mapped region.
type UnitInfo struct {
	MainFile  codec.Code
	OutFile   codec.Code
	Sysroot   codec.Code
	Target    codec.Code
	Nanos     int64
	Kind      SymbolProviderKind
	Flags     UnitInfoFlags
	Name      string
	FileDepends     []codec.Code
	UnitDepends     []codec.Code
	ProviderDepends []ProviderDependency
}

const unitInfoHeaderSize = 8*4 /* codes */ + 8 /* nanos */ + 2 /* name_len */ + 1 /* kind */ + 1 /* flags */ + 4*3 /* counts */

// Encode serializes a UnitInfo using the exact field order from spec
// §4.C3's header, followed by the three packed arrays and the raw name
// bytes, padded to a multiple of 8 so the arrays remain slice-castable
// in-place when read back from the arena.
func (u UnitInfo) Encode() []byte {
	nameBytes := []byte(u.Name)
	size := unitInfoHeaderSize + 8*len(u.FileDepends) + 8*len(u.UnitDepends) + 16*len(u.ProviderDepends) + len(nameBytes)
	if pad := size % 8; pad != 0 {
		size += 8 - pad
	}
	b := make([]byte, size)
	off := 0
	putCode := func(c codec.Code) {
		binary.LittleEndian.PutUint64(b[off:off+8], uint64(c))
		off += 8
	}
	putCode(u.MainFile)
	putCode(u.OutFile)
	putCode(u.Sysroot)
	putCode(u.Target)
	binary.LittleEndian.PutUint64(b[off:off+8], uint64(u.Nanos))
	off += 8
	binary.LittleEndian.PutUint16(b[off:off+2], uint16(len(nameBytes)))
	off += 2
	b[off] = byte(u.Kind)
	off++
	b[off] = byte(u.Flags)
	off++
	binary.LittleEndian.PutUint32(b[off:off+4], uint32(len(u.FileDepends)))
	off += 4
	binary.LittleEndian.PutUint32(b[off:off+4], uint32(len(u.UnitDepends)))
	off += 4
	binary.LittleEndian.PutUint32(b[off:off+4], uint32(len(u.ProviderDepends)))
	off += 4
	for _, c := range u.FileDepends {
		putCode(c)
	}
	for _, c := range u.UnitDepends {
		putCode(c)
	}
	for _, pd := range u.ProviderDepends {
		putCode(pd.Provider)
		putCode(pd.File)
	}
	copy(b[off:off+len(nameBytes)], nameBytes)
	return b
}

// DecodeUnitInfo parses a UnitInfo out of b. The three returned slices and
// Name are copies, so they do not alias b and stay valid after the read
// transaction that produced b has ended.
func DecodeUnitInfo(b []byte) (UnitInfo, error) {
	if len(b) < unitInfoHeaderSize {
		return UnitInfo{}, fmt.Errorf("schema: UnitInfo: truncated header (%d bytes)", len(b))
	}
	off := 0
	getCode := func() codec.Code {
		c := codec.Code(binary.LittleEndian.Uint64(b[off : off+8]))
		off += 8
		return c
	}
	var u UnitInfo
	u.MainFile = getCode()
	u.OutFile = getCode()
	u.Sysroot = getCode()
	u.Target = getCode()
	u.Nanos = int64(binary.LittleEndian.Uint64(b[off : off+8]))
	off += 8
	nameLen := int(binary.LittleEndian.Uint16(b[off : off+2]))
	off += 2
	u.Kind = SymbolProviderKind(b[off])
	off++
	u.Flags = UnitInfoFlags(b[off])
	off++
	fileCount := int(binary.LittleEndian.Uint32(b[off : off+4]))
	off += 4
	unitCount := int(binary.LittleEndian.Uint32(b[off : off+4]))
	off += 4
	providerCount := int(binary.LittleEndian.Uint32(b[off : off+4]))
	off += 4

	need := off + 8*fileCount + 8*unitCount + 16*providerCount + nameLen
	if len(b) < need {
		return UnitInfo{}, fmt.Errorf("schema: UnitInfo: truncated body (need %d, have %d)", need, len(b))
	}

	if fileCount > 0 {
		u.FileDepends = make([]codec.Code, fileCount)
		for i := range u.FileDepends {
			u.FileDepends[i] = getCode()
		}
	}
	if unitCount > 0 {
		u.UnitDepends = make([]codec.Code, unitCount)
		for i := range u.UnitDepends {
			u.UnitDepends[i] = getCode()
		}
	}
	if providerCount > 0 {
		u.ProviderDepends = make([]ProviderDependency, providerCount)
		for i := range u.ProviderDepends {
			u.ProviderDepends[i].Provider = getCode()
			u.ProviderDepends[i].File = getCode()
		}
	}
	u.Name = string(b[off : off+nameLen])
	return u, nil
}

// HasMainFile, HasSysroot, IsSystem and HasTestSymbols are convenience
// accessors over the packed Flags byte.
func (u UnitInfo) HasMainFile() bool     { return u.Flags&UnitHasMainFile != 0 }
func (u UnitInfo) HasSysroot() bool      { return u.Flags&UnitHasSysroot != 0 }
func (u UnitInfo) IsSystem() bool        { return u.Flags&UnitIsSystem != 0 }
func (u UnitInfo) HasTestSymbols() bool  { return u.Flags&UnitHasTestSymbols != 0 }
