package index

import (
	"github.com/oxhq/indexdb/internal/codec"
	"github.com/oxhq/indexdb/internal/schema"
	"github.com/oxhq/indexdb/internal/store"
)

// Importer implements the C5 import transaction API over a single
// store.WriteTxn. Every method mutates state immediately; nothing is
// durable until Commit is called on the underlying WriteTxn.
type Importer struct {
	txn *store.WriteTxn
}

// NewImporter wraps a write transaction for the import API.
func NewImporter(txn *store.WriteTxn) *Importer { return &Importer{txn: txn} }

// GetUnitCode derives the stable Code for a unit name. Unit names are not
// interned separately: the name string lives only inside the UnitInfo
// record itself, so this is a pure hash, no storage touched.
func (imp *Importer) GetUnitCode(name string) codec.Code { return codec.Of(name) }

// AddProviderName interns name into SymbolProviderNameByCode, returning
// whether this is the first time it has been seen.
func (imp *Importer) AddProviderName(name string) (codec.Code, bool, error) {
	c := codec.Of(name)
	key := schema.SingleKey(schema.MapSymbolProviderNameByCode, schema.CodePrimary(c))
	_, ok, err := imp.txn.Get(key)
	if err != nil {
		return 0, false, err
	}
	if ok {
		return c, false, nil
	}
	if err := imp.txn.Set(key, []byte(name)); err != nil {
		return 0, false, err
	}
	return c, true, nil
}

// SetProviderContainsTestSymbols marks provider in ProvidersWithTestSymbols.
func (imp *Importer) SetProviderContainsTestSymbols(provider codec.Code) error {
	key := schema.Prefix(schema.MapProvidersWithTestSymbols, schema.CodePrimary(provider))
	return imp.txn.Set(key, nil)
}

// ProviderContainsTestSymbols reports whether provider was ever marked by
// SetProviderContainsTestSymbols. Used by the differencer to re-derive a
// unit's has_test_symbols flag (spec §4.C6).
func (imp *Importer) ProviderContainsTestSymbols(provider codec.Code) (bool, error) {
	key := schema.Prefix(schema.MapProvidersWithTestSymbols, schema.CodePrimary(provider))
	_, ok, err := imp.txn.Get(key)
	return ok, err
}

func symbolInfoKey(provider, usr codec.Code) []byte {
	primary := append(schema.CodePrimary(usr), schema.CodePrimary(provider)...)
	return schema.SingleKey(schema.MapSymbolInfoByProviderUSR, primary)
}

// AddSymbolInfo implements the bulk of spec §4.C5's add_symbol_info.
func (imp *Importer) AddSymbolInfo(provider codec.Code, usr string, info SymbolInfo, roles, relatedRoles SymbolRoleSet) (codec.Code, error) {
	usrCode := codec.Of(usr)
	key := symbolInfoKey(provider, usrCode)

	existing, ok, err := imp.txn.Get(key)
	if err != nil {
		return 0, err
	}

	newRoles, newRelated := roles, relatedRoles
	changed := !ok
	var oldRow schema.SymbolInfoRecord
	if ok {
		oldRow, err = schema.DecodeSymbolInfoRecord(existing)
		if err != nil {
			return 0, err
		}
		newRoles = SymbolRoleSet(oldRow.Roles) | roles
		newRelated = SymbolRoleSet(oldRow.RelatedRoles) | relatedRoles
		changed = newRoles != SymbolRoleSet(oldRow.Roles) || newRelated != SymbolRoleSet(oldRow.RelatedRoles)
	}

	if changed {
		row := schema.SymbolInfoRecord{
			Kind:         uint8(info.Kind),
			Subkind:      info.Subkind,
			Properties:   uint32(info.Properties),
			Roles:        uint64(newRoles),
			RelatedRoles: uint64(newRelated),
		}
		if err := imp.txn.Set(key, row.Encode()); err != nil {
			return 0, err
		}
		if ok {
			oldInvKey := schema.Key(schema.MapProvidersByUSR, schema.CodePrimary(usrCode),
				schema.ProviderForUSR{Provider: provider, Roles: uint64(oldRow.Roles), RelatedRoles: uint64(oldRow.RelatedRoles)}.Encode())
			if err := imp.txn.Delete(oldInvKey); err != nil {
				return 0, err
			}
		}
		newInvKey := schema.Key(schema.MapProvidersByUSR, schema.CodePrimary(usrCode),
			schema.ProviderForUSR{Provider: provider, Roles: uint64(newRoles), RelatedRoles: uint64(newRelated)}.Encode())
		if err := imp.txn.Set(newInvKey, nil); err != nil {
			return 0, err
		}
	}

	if roles.Has(Bit(RoleDeclaration)) || roles.Has(Bit(RoleDefinition)) {
		if info.IncludeInGlobalNameSearch {
			nameKey := schema.Key(schema.MapUSRsBySymbolName, schema.NamePrimary(info.Name), schema.CodeValue(usrCode))
			if err := imp.txn.Set(nameKey, nil); err != nil {
				return 0, err
			}
		}
	}

	if gk, ok := symbolKindToGlobalKind(info.Kind); ok {
		gkKey := schema.Key(schema.MapUSRsByGlobalKind, schema.GlobalKindPrimary(gk), schema.CodeValue(usrCode))
		if err := imp.txn.Set(gkKey, nil); err != nil {
			return 0, err
		}
	}

	if info.Properties&PropUnitTest != 0 && roles.Has(Bit(RoleDefinition)) {
		testKind := GlobalKindTestMethod
		switch info.Kind {
		case KindClass, KindStruct, KindExtension, KindProtocol:
			testKind = GlobalKindTestClassOrExtension
		}
		testKey := schema.Key(schema.MapUSRsByGlobalKind, schema.GlobalKindPrimary(testKind), schema.CodeValue(usrCode))
		if err := imp.txn.Set(testKey, nil); err != nil {
			return 0, err
		}
	}

	return usrCode, nil
}

// AddFilePath implements spec §4.C5's add_file_path: idempotent, interning
// the parent directory and maintaining the directory's reverse index.
func (imp *Importer) AddFilePath(path codec.CanonicalPath) (codec.Code, error) {
	dir, base := path.Split()
	dirCode := dir.Code()

	dirKey := schema.SingleKey(schema.MapDirNameByCode, schema.CodePrimary(dirCode))
	if _, ok, err := imp.txn.Get(dirKey); err != nil {
		return 0, err
	} else if !ok {
		if err := imp.txn.Set(dirKey, []byte(dir)); err != nil {
			return 0, err
		}
	}

	fileCode := path.Code()
	fileKey := schema.SingleKey(schema.MapFilenameByCode, schema.CodePrimary(fileCode))
	if _, ok, err := imp.txn.Get(fileKey); err != nil {
		return 0, err
	} else if !ok {
		if err := imp.txn.Set(fileKey, schema.EncodeFilenameRecord(dirCode, base)); err != nil {
			return 0, err
		}
	}

	revKey := schema.Key(schema.MapFilePathCodesByDir, schema.CodePrimary(dirCode), schema.CodeValue(fileCode))
	if _, ok, err := imp.txn.Get(revKey); err != nil {
		return 0, err
	} else if !ok {
		if err := imp.txn.Set(revKey, nil); err != nil {
			return 0, err
		}
	}

	return fileCode, nil
}

// AddUnitFileIdentifier registers a unit's output file as an explicit
// output unit, backing the use_explicit_output_units option (spec §6),
// which the spec also names add_unit_out_file_paths in §4.C5.
func (imp *Importer) AddUnitFileIdentifier(path codec.CanonicalPath) (codec.Code, error) {
	fileCode, err := imp.AddFilePath(path)
	if err != nil {
		return 0, err
	}
	key := schema.Prefix(schema.MapExplicitOutputUnits, schema.CodePrimary(fileCode))
	if err := imp.txn.Set(key, nil); err != nil {
		return 0, err
	}
	return fileCode, nil
}

// AddFileAssociationForProvider implements spec §4.C5's rule: exact-match
// no-op, (file,unit)-match-with-older-mod-time update, else insert.
func (imp *Importer) AddFileAssociationForProvider(provider codec.Code, file, unit, module codec.Code, nanos int64, isSystem bool) error {
	prefix := schema.Prefix(schema.MapTimestampedFilesByProvider, schema.CodePrimary(provider))

	var foundKey []byte
	var found schema.TimestampedFileForProvider
	err := imp.txn.PrefixIterate(prefix, func(key, _ []byte) (bool, error) {
		payload := key[len(prefix):]
		v, derr := schema.DecodeTimestampedFileForProvider(payload)
		if derr != nil {
			return true, nil
		}
		if v.File == file && v.Unit == unit {
			foundKey = append([]byte(nil), key...)
			found = v
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	want := schema.TimestampedFileForProvider{File: file, Unit: unit, ModuleName: module, Nanos: nanos, IsSystem: isSystem}

	if foundKey != nil {
		if found.ModuleName == module && found.Nanos == nanos && found.IsSystem == isSystem {
			return nil
		}
		if nanos < found.Nanos {
			want.Nanos = found.Nanos
		}
		if err := imp.txn.Delete(foundKey); err != nil {
			return err
		}
	}

	newKey := schema.Key(schema.MapTimestampedFilesByProvider, schema.CodePrimary(provider), want.Encode())
	return imp.txn.Set(newKey, nil)
}

// RemoveFileAssociationFromProvider deletes the (provider, file, unit)
// association regardless of its module/mod_time/is_system fields, and
// reports whether the provider has no file associations left.
func (imp *Importer) RemoveFileAssociationFromProvider(provider, file, unit codec.Code) (bool, error) {
	prefix := schema.Prefix(schema.MapTimestampedFilesByProvider, schema.CodePrimary(provider))
	var toDelete []byte
	remaining := 0
	err := imp.txn.PrefixIterate(prefix, func(key, _ []byte) (bool, error) {
		payload := key[len(prefix):]
		v, derr := schema.DecodeTimestampedFileForProvider(payload)
		if derr != nil {
			return true, nil
		}
		if v.File == file && v.Unit == unit && toDelete == nil {
			toDelete = append([]byte(nil), key...)
			return true, nil
		}
		remaining++
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if toDelete != nil {
		if err := imp.txn.Delete(toDelete); err != nil {
			return false, err
		}
	}
	return remaining == 0, nil
}

// unitInfoKey is the single-valued locator key for a unit.
func unitInfoKey(unit codec.Code) []byte {
	return schema.SingleKey(schema.MapUnitInfoLocatorByCode, schema.CodePrimary(unit))
}

// WriteUnitInfo appends info to the arena and rewrites its locator,
// overwriting any previous record for the same unit code.
func (imp *Importer) WriteUnitInfo(unit codec.Code, info schema.UnitInfo) error {
	encoded := info.Encode()
	offset, err := imp.txn.Arena().Append(encoded, imp.txn.Coordinator())
	if err != nil {
		return err
	}
	loc := schema.UnitInfoLocator{Offset: offset, Length: int32(len(encoded))}
	return imp.txn.Set(unitInfoKey(unit), loc.Encode())
}

// ReadUnitInfo is the write-side lookup used by RemoveUnitData and the
// differencer to fetch the previously stored record.
func (imp *Importer) ReadUnitInfo(unit codec.Code) (schema.UnitInfo, bool, error) {
	raw, ok, err := imp.txn.Get(unitInfoKey(unit))
	if err != nil || !ok {
		return schema.UnitInfo{}, ok, err
	}
	loc := schema.DecodeUnitInfoLocator(raw)
	data, err := imp.txn.Arena().Read(loc.Offset, loc.Length)
	if err != nil {
		return schema.UnitInfo{}, false, err
	}
	info, err := schema.DecodeUnitInfo(data)
	return info, true, err
}

// RemoveUnitData implements spec §4.C5's remove_unit_data cascade (I6).
func (imp *Importer) RemoveUnitData(unit codec.Code) error {
	info, ok, err := imp.ReadUnitInfo(unit)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := imp.txn.Delete(unitInfoKey(unit)); err != nil {
		return err
	}

	for _, f := range info.FileDepends {
		key := schema.Key(schema.MapUnitByFileDependency, schema.CodePrimary(f), schema.CodeValue(unit))
		if err := imp.txn.Delete(key); err != nil {
			return err
		}
	}
	for _, u2 := range info.UnitDepends {
		key := schema.Key(schema.MapUnitByUnitDependency, schema.CodePrimary(u2), schema.CodeValue(unit))
		if err := imp.txn.Delete(key); err != nil {
			return err
		}
	}
	for _, pd := range info.ProviderDepends {
		fkey := schema.Key(schema.MapUnitByFileDependency, schema.CodePrimary(pd.File), schema.CodeValue(unit))
		if err := imp.txn.Delete(fkey); err != nil {
			return err
		}
		noFilesLeft, err := imp.RemoveFileAssociationFromProvider(pd.Provider, pd.File, unit)
		if err != nil {
			return err
		}
		if noFilesLeft {
			if err := imp.clearProviderTestMark(pd.Provider); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddFileDependencyEdge and AddUnitDependencyEdge are small helpers used
// by the differencer (C6) to add the forward-reverse edge pairs that
// UnitByFileDependency/UnitByUnitDependency store.
func (imp *Importer) AddFileDependencyEdge(file, unit codec.Code) error {
	key := schema.Key(schema.MapUnitByFileDependency, schema.CodePrimary(file), schema.CodeValue(unit))
	return imp.txn.Set(key, nil)
}

func (imp *Importer) RemoveFileDependencyEdge(file, unit codec.Code) error {
	key := schema.Key(schema.MapUnitByFileDependency, schema.CodePrimary(file), schema.CodeValue(unit))
	return imp.txn.Delete(key)
}

func (imp *Importer) AddUnitDependencyEdge(dependency, dependent codec.Code) error {
	key := schema.Key(schema.MapUnitByUnitDependency, schema.CodePrimary(dependency), schema.CodeValue(dependent))
	return imp.txn.Set(key, nil)
}

// clearProviderTestMark drops provider's ProvidersWithTestSymbols entry,
// used when remove_unit_data or the differencer finds no file association
// left for that provider (spec I6).
func (imp *Importer) clearProviderTestMark(provider codec.Code) error {
	key := schema.Prefix(schema.MapProvidersWithTestSymbols, schema.CodePrimary(provider))
	return imp.txn.Delete(key)
}

func (imp *Importer) RemoveUnitDependencyEdge(dependency, dependent codec.Code) error {
	key := schema.Key(schema.MapUnitByUnitDependency, schema.CodePrimary(dependency), schema.CodeValue(dependent))
	return imp.txn.Delete(key)
}
