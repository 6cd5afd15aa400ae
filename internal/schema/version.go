// Package schema defines the bit-exact binary layouts and named-map key
// encodings for every table in spec §3, plus the schema-version tag that
// internal/meta checks at open time (spec §4.C9).
package schema

// Version is bumped whenever a key or value layout changes incompatibly.
// A read-write open of a database whose stored schema_version does not
// match Version fails (spec §6); a read-only open does not check it.
const Version = 1

// Map identifies one of the named maps from spec §3's table. Each Map gets
// a single-byte namespace prefix inside the Badger keyspace so that one
// physical database can host every logical map without collisions.
type Map byte

const (
	MapProvidersByUSR Map = iota + 1
	MapUSRsBySymbolName
	MapUSRsByGlobalKind
	MapFilePathCodesByDir
	MapTimestampedFilesByProvider
	MapUnitByFileDependency
	MapUnitByUnitDependency
	MapProvidersWithTestSymbols
	MapSymbolProviderNameByCode
	MapDirNameByCode
	MapFilenameByCode
	MapUnitInfoLocatorByCode
	MapTargetNameByCode
	MapModuleNameByCode

	// MapSymbolInfoByProviderUSR is a supplemental single-valued map, not
	// named in the frozen table in spec §3: the spec describes a stored
	// "(provider, usr) symbol-info row" distinct from the ProvidersByUSR
	// inverted index (invariant I2 relates the two as separate facts),
	// but never names the row's own storage. This map is that storage;
	// ProvidersByUSR remains the derived inverted index rebuilt from it.
	MapSymbolInfoByProviderUSR

	// MapExplicitOutputUnits is a supplemental set, backing the
	// use_explicit_output_units configuration option and the
	// add_unit_file_identifier / add_unit_out_file_paths operation the
	// spec names in two places (§4.C5 and §6) without fully reconciling;
	// this is its storage.
	MapExplicitOutputUnits
)

// SortedDuplicate reports whether m stores multiple values per key, kept in
// sorted order (spec calls these "sorted-duplicates" maps).
func (m Map) SortedDuplicate() bool {
	switch m {
	case MapProvidersByUSR,
		MapUSRsBySymbolName,
		MapUSRsByGlobalKind,
		MapFilePathCodesByDir,
		MapTimestampedFilesByProvider,
		MapUnitByFileDependency,
		MapUnitByUnitDependency,
		MapProvidersWithTestSymbols:
		return true
	default:
		return false
	}
}
