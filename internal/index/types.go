// Package index implements the read (C4) and import (C5) transaction APIs
// over the schema defined in internal/schema, plus the unit differencer
// (C6) and pattern matcher used by the name/filename search queries.
package index

import (
	"github.com/oxhq/indexdb/internal/codec"
	"github.com/oxhq/indexdb/internal/schema"
)

// SymbolRole is a single bit position in a SymbolRoleSet (spec §3).
type SymbolRole uint32

const (
	RoleDeclaration SymbolRole = iota
	RoleDefinition
	RoleReference
	RoleRead
	RoleWrite
	RoleCall
	RoleDynamic
	RoleAddressOf
	RoleImplicit
	RoleUndefinition
	// Relation roles.
	RoleChildOf
	RoleBaseOf
	RoleOverrideOf
	RoleReceivedBy
	RoleCalledBy
	RoleExtendedBy
	RoleContainedBy
	RoleSpecializationOf
	RoleInstanceOf
	RoleGroup
	// Canonical marker bit.
	RoleCanonical
)

// SymbolRoleSet is a bit-set over the SymbolRole enumeration.
type SymbolRoleSet uint64

// Bit returns the bit-set value for a single role, for building masks.
func Bit(r SymbolRole) SymbolRoleSet { return 1 << SymbolRoleSet(r) }

// Has reports whether every bit in mask is set in rs.
func (rs SymbolRoleSet) Has(mask SymbolRoleSet) bool { return rs&mask == mask }

// Intersects reports whether rs and mask share any set bit, or mask is
// empty (the "no filter" case used throughout C4).
func (rs SymbolRoleSet) Intersects(mask SymbolRoleSet) bool {
	return mask == 0 || rs&mask != 0
}

// SymbolKind enumerates the compiler-recognized declaration kinds.
type SymbolKind uint8

const (
	KindUnknown SymbolKind = iota
	KindClass
	KindStruct
	KindEnum
	KindEnumConstant
	KindProtocol
	KindExtension
	KindUnion
	KindTypealias
	KindFunction
	KindVariable
	KindParameter
	KindField
	KindInstanceMethod
	KindClassMethod
	KindStaticMethod
	KindInstanceProperty
	KindClassProperty
	KindStaticProperty
	KindConstructor
	KindDestructor
	KindNamespace
	KindModule
	KindMacro
	KindCommentTag
)

// SymbolProperty is a bit-set over compiler-attached symbol properties.
type SymbolProperty uint32

const (
	PropGeneric SymbolProperty = 1 << iota
	PropTemplatePartialSpecialization
	PropTemplateSpecialization
	PropUnitTest
	PropIBAnnotated
	PropIBOutletCollection
	PropGKInspectable
	PropLocal
	PropProtocolInterface
	PropSwiftAsync
)

// GlobalKind is re-exported from schema, which owns the encoding of the
// USRsByGlobalKind primary key.
type GlobalKind = schema.GlobalKind

const (
	GlobalKindClass                = schema.GlobalKindClass
	GlobalKindProtocol             = schema.GlobalKindProtocol
	GlobalKindFunction             = schema.GlobalKindFunction
	GlobalKindStruct               = schema.GlobalKindStruct
	GlobalKindUnion                = schema.GlobalKindUnion
	GlobalKindEnum                 = schema.GlobalKindEnum
	GlobalKindType                 = schema.GlobalKindType
	GlobalKindGlobalVar            = schema.GlobalKindGlobalVar
	GlobalKindTestClassOrExtension = schema.GlobalKindTestClassOrExtension
	GlobalKindTestMethod           = schema.GlobalKindTestMethod
	GlobalKindCommentTag           = schema.GlobalKindCommentTag
)

// SymbolInfo is the per-(provider, USR) payload the host supplies when
// ingesting an occurrence. IncludeInGlobalNameSearch mirrors the field the
// spec names in add_symbol_info's description of USRsBySymbolName
// insertion.
type SymbolInfo struct {
	Kind                     SymbolKind
	Subkind                  uint8
	Properties               SymbolProperty
	Name                     string
	Language                 uint8
	IncludeInGlobalNameSearch bool
}

// SymbolInfoRow is the stored (provider, usr) -> roles row (spec §3).
type SymbolInfoRow struct {
	Kind         SymbolKind
	Subkind      uint8
	Properties   SymbolProperty
	Roles        SymbolRoleSet
	RelatedRoles SymbolRoleSet
}

// ProviderOccurrence is one emitted (provider, roles, related_roles) tuple
// from ProvidersForUSR.
type ProviderOccurrence struct {
	Provider     codec.Code
	Roles        SymbolRoleSet
	RelatedRoles SymbolRoleSet
}

// symbolKindToGlobalKind implements the mapping referenced by
// add_symbol_info: "if the symbol kind maps to a GlobalKind, inserts into
// USRsByGlobalKind".
func symbolKindToGlobalKind(k SymbolKind) (GlobalKind, bool) {
	switch k {
	case KindClass, KindExtension:
		return GlobalKindClass, true
	case KindProtocol:
		return GlobalKindProtocol, true
	case KindFunction, KindConstructor, KindDestructor:
		return GlobalKindFunction, true
	case KindStruct:
		return GlobalKindStruct, true
	case KindUnion:
		return GlobalKindUnion, true
	case KindEnum:
		return GlobalKindEnum, true
	case KindTypealias:
		return GlobalKindType, true
	case KindVariable:
		return GlobalKindGlobalVar, true
	case KindCommentTag:
		return GlobalKindCommentTag, true
	default:
		return 0, false
	}
}
