// Package ingest implements the C8 raw-store adapter boundary and the
// driver (pipeline.go) that walks it into the C5/C6 import API. The actual
// reader of the compiler's per-record/per-unit files is external (spec
// §1's "out of scope (external collaborators)"); this package only defines
// the contract such a reader must satisfy and the state machine that
// consumes it.
package ingest

import (
	"github.com/oxhq/indexdb/internal/codec"
	"github.com/oxhq/indexdb/internal/index"
	"github.com/oxhq/indexdb/internal/schema"
)

// RawStore lists and opens the units and records held by the external raw
// index-record store (spec §4.C8).
type RawStore interface {
	// ListUnits streams every known unit name. If sorted, names arrive in
	// byte-wise sorted order.
	ListUnits(sorted bool, fn func(unitName string) (bool, error)) error
	OpenUnit(unitName string) (UnitReader, error)
	OpenRecord(recordName string) (RecordReader, error)
}

// UnitReader exposes one raw unit's metadata and dependency/include lists.
type UnitReader interface {
	ProviderID() string
	ProviderVersion() int
	ModTime() int64
	IsSystemUnit() bool
	IsModuleUnit() bool
	HasMainFile() bool
	MainFilePath() codec.CanonicalPath
	ModuleName() string
	WorkingDir() codec.CanonicalPath
	OutputFile() codec.CanonicalPath
	SysrootPath() codec.CanonicalPath
	Target() string

	// ForEachDependency enumerates the unit's file/unit/provider
	// dependencies. fn returning false stops enumeration early.
	ForEachDependency(fn func(Dependency) (bool, error)) error
	// ForEachInclude enumerates #include-style edges feeding
	// UnitByFileDependency, distinct from compiled dependencies.
	ForEachInclude(fn func(Include) (bool, error)) error
}

// Dependency is one edge out of a unit: either a plain file dependency, a
// dependency on another unit by name, or a provider/file pair.
type Dependency struct {
	Kind           DependencyKind
	File           codec.CanonicalPath
	UnitName       string
	Provider       string
	ModuleName     string
	IsSystem       bool
}

// DependencyKind distinguishes the three dependency shapes a unit can
// carry (spec §3's file_depends / unit_depends / provider_depends arrays).
type DependencyKind uint8

const (
	DependencyFile DependencyKind = iota
	DependencyUnit
	DependencyProvider
)

// Include is a single #include-style edge, folded into file dependencies
// by the pipeline.
type Include struct {
	File codec.CanonicalPath
}

// RecordReader exposes one compiler-emitted record's symbols and
// occurrences.
type RecordReader interface {
	ForEachSymbol(fn func(Symbol) (bool, error)) error
	ForEachOccurrence(symbolsFilter, relatedSymbolsFilter func(Symbol) bool, fn func(Occurrence) (bool, error)) error
}

// Symbol is one compiler-minted declaration, as the raw reader presents it
// before AddSymbolInfo interns it by USR.
type Symbol struct {
	USR                       string
	Name                      string
	Kind                      index.SymbolKind
	Subkind                   uint8
	Properties                index.SymbolProperty
	Language                  uint8
	IncludeInGlobalNameSearch bool
}

// Occurrence is one (symbol, roles, related-roles, location) tuple emitted
// by the compiler for a provider.
type Occurrence struct {
	Symbol       Symbol
	Roles        index.SymbolRoleSet
	RelatedRoles index.SymbolRoleSet
}

// EventKind enumerates the raw-store's filesystem-level change notices
// (spec §4.C8's Added/Removed/Modified/DirectoryDeleted, plus the
// "initial scan complete" marker).
type EventKind uint8

const (
	EventAdded EventKind = iota
	EventRemoved
	EventModified
	EventDirectoryDeleted
	EventInitialScanComplete
)

// Event is one raw-store change notification driving re-ingestion.
type Event struct {
	Kind     EventKind
	UnitName string
}

// ProviderKindOf maps a raw unit's reported provider id string to the
// schema's compact SymbolProviderKind, defaulting to clang for anything
// unrecognized (the schema has no room for future front ends beyond the
// two the spec names).
func ProviderKindOf(providerID string) schema.SymbolProviderKind {
	if providerID == "swift" {
		return schema.SymbolProviderSwift
	}
	return schema.SymbolProviderClang
}
