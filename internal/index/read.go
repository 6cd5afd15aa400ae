package index

import (
	"strings"

	"github.com/oxhq/indexdb/internal/codec"
	"github.com/oxhq/indexdb/internal/schema"
	"github.com/oxhq/indexdb/internal/store"
)

// Reader implements the C4 read transaction API over a single
// store.ReadTxn. Every batch is flushed to fn as it fills; returning false
// from fn stops iteration early without error.
type Reader struct {
	txn *store.ReadTxn
}

// NewReader wraps a read transaction for the query API.
func NewReader(txn *store.ReadTxn) *Reader { return &Reader{txn: txn} }

const defaultBatchSize = 256

// ProvidersForUSR emits every (provider, roles, related_roles) entry whose
// roles intersect roleMask and whose related_roles intersect relatedMask.
// An empty mask imposes no constraint on its side of the filter.
func (r *Reader) ProvidersForUSR(usr string, roleMask, relatedMask SymbolRoleSet, fn func(ProviderOccurrence) (bool, error)) error {
	usrCode := codec.Of(usr)
	prefix := schema.Prefix(schema.MapProvidersByUSR, schema.CodePrimary(usrCode))
	return r.txn.PrefixIterate(prefix, func(key, _ []byte) (bool, error) {
		payload := key[len(prefix):]
		v, err := schema.DecodeProviderForUSR(payload)
		if err != nil {
			return true, nil
		}
		roles, related := SymbolRoleSet(v.Roles), SymbolRoleSet(v.RelatedRoles)
		include := (roleMask == 0 || roles.Intersects(roleMask)) && (relatedMask == 0 || related.Intersects(relatedMask))
		if !include {
			return true, nil
		}
		return fn(ProviderOccurrence{Provider: v.Provider, Roles: roles, RelatedRoles: related})
	})
}

// ProviderFileRef is one emitted row from ProviderFileRefs.
type ProviderFileRef struct {
	Path     codec.CanonicalPath
	ModTime  int64
	Module   codec.Code
	IsSystem bool
	Sysroot  codec.Code
}

// ProviderFileRefs emits, for each unique file associated with provider,
// the most recent (unit, mod_time) pair passing unitFilter.
func (r *Reader) ProviderFileRefs(provider codec.Code, unitFilter func(unit codec.Code) bool, fn func(ProviderFileRef) (bool, error)) error {
	prefix := schema.Prefix(schema.MapTimestampedFilesByProvider, schema.CodePrimary(provider))
	best := map[codec.Code]schema.TimestampedFileForProvider{}
	err := r.txn.PrefixIterate(prefix, func(key, _ []byte) (bool, error) {
		payload := key[len(prefix):]
		v, derr := schema.DecodeTimestampedFileForProvider(payload)
		if derr != nil {
			return true, nil
		}
		if unitFilter != nil && !unitFilter(v.Unit) {
			return true, nil
		}
		cur, ok := best[v.File]
		if !ok || v.Nanos > cur.Nanos {
			best[v.File] = v
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	for file, v := range best {
		path, err := r.FullPath(file)
		if err != nil {
			return err
		}
		var sysroot codec.Code
		if info, ok, err := r.UnitInfo(v.Unit); err == nil && ok {
			sysroot = info.Sysroot
		}
		cont, err := fn(ProviderFileRef{Path: path, ModTime: v.Nanos, Module: v.ModuleName, IsSystem: v.IsSystem, Sysroot: sysroot})
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// UsrsOfGlobalKind streams USR codes in batches of batchSize (or
// defaultBatchSize if <= 0).
func (r *Reader) UsrsOfGlobalKind(kind GlobalKind, batchSize int, fn func([]codec.Code) (bool, error)) error {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	prefix := schema.Prefix(schema.MapUSRsByGlobalKind, schema.GlobalKindPrimary(kind))
	var batch []codec.Code
	flush := func() (bool, error) {
		if len(batch) == 0 {
			return true, nil
		}
		cont, err := fn(batch)
		batch = batch[:0]
		return cont, err
	}
	err := r.txn.PrefixIterate(prefix, func(key, _ []byte) (bool, error) {
		batch = append(batch, schema.DecodeCodeValue(key[len(prefix):]))
		if len(batch) >= batchSize {
			return flush()
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	_, err = flush()
	return err
}

// FindUsrsMatching iterates USRsBySymbolName in sort order; for each
// distinct name, applies matchesPattern and emits the whole dup-group of
// USR codes for that name when it matches.
func (r *Reader) FindUsrsMatching(pattern string, anchorStart, anchorEnd, subsequence, ignoreCase bool, fn func(name string, usrs []codec.Code) (bool, error)) error {
	prefix := []byte{byte(schema.MapUSRsBySymbolName)}
	var curName string
	var curBatch []codec.Code
	emit := func() (bool, error) {
		if curName == "" && len(curBatch) == 0 {
			return true, nil
		}
		if matchesPattern(curName, pattern, anchorStart, anchorEnd, subsequence, ignoreCase) {
			return fn(curName, curBatch)
		}
		return true, nil
	}
	err := r.txn.PrefixIterate(prefix, func(key, _ []byte) (bool, error) {
		rest := key[1:]
		if len(rest) < 8 {
			return true, nil
		}
		nameLen := len(rest) - 8
		name := string(rest[:nameLen])
		usr := schema.DecodeCodeValue(rest[nameLen:])
		if name != curName {
			cont, err := emit()
			if err != nil || !cont {
				return false, err
			}
			curName = name
			curBatch = curBatch[:0]
		}
		curBatch = append(curBatch, usr)
		return true, nil
	})
	if err != nil {
		return err
	}
	_, err = emit()
	return err
}

// FindFilenamesMatching scans FilenameByCode for entries whose base name
// matches. Entries with .o or .pcm extensions are excluded (spec §4.C4,
// flagged by spec §9 as intended-to-be-replaced workaround, preserved
// here). Iteration order follows file_code, not name: a name-sorted scan
// would need a secondary name index this schema does not carry, since
// FilenameByCode is keyed by file_code for O(1) FullPath lookups instead.
func (r *Reader) FindFilenamesMatching(pattern string, anchorStart, anchorEnd, subsequence, ignoreCase bool, fn func(file codec.Code, name string) (bool, error)) error {
	prefix := []byte{byte(schema.MapFilenameByCode)}
	return r.txn.PrefixIterate(prefix, func(key, value []byte) (bool, error) {
		fileCode := schema.DecodeCodeValue(key[1:])
		_, name, err := schema.DecodeFilenameRecord(value)
		if err != nil {
			return true, nil
		}
		if strings.HasSuffix(name, ".o") || strings.HasSuffix(name, ".pcm") {
			return true, nil
		}
		if !matchesPattern(name, pattern, anchorStart, anchorEnd, subsequence, ignoreCase) {
			return true, nil
		}
		return fn(fileCode, name)
	})
}

// FullPath joins a file's stored directory and filename.
func (r *Reader) FullPath(file codec.Code) (codec.CanonicalPath, error) {
	key := schema.SingleKey(schema.MapFilenameByCode, schema.CodePrimary(file))
	raw, ok, err := r.txn.Get(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	dirCode, name, err := schema.DecodeFilenameRecord(raw)
	if err != nil {
		return "", err
	}
	dirKey := schema.SingleKey(schema.MapDirNameByCode, schema.CodePrimary(dirCode))
	dirRaw, ok, err := r.txn.Get(dirKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return codec.Join(codec.CanonicalPath(dirRaw), name), nil
}

// UnitInfo returns the UnitInfo record for unit, decoded from the mapped
// arena into freshly copied slices (see schema.DecodeUnitInfo).
func (r *Reader) UnitInfo(unit codec.Code) (schema.UnitInfo, bool, error) {
	key := schema.SingleKey(schema.MapUnitInfoLocatorByCode, schema.CodePrimary(unit))
	raw, ok, err := r.txn.Get(key)
	if err != nil || !ok {
		return schema.UnitInfo{}, ok, err
	}
	loc := schema.DecodeUnitInfoLocator(raw)
	data, err := r.txn.Arena().Read(loc.Offset, loc.Length)
	if err != nil {
		return schema.UnitInfo{}, false, err
	}
	info, err := schema.DecodeUnitInfo(data)
	return info, true, err
}

// UnitsContainingFile emits every unit whose file- or provider-dependency
// array lists file.
func (r *Reader) UnitsContainingFile(file codec.Code, fn func(codec.Code) (bool, error)) error {
	prefix := schema.Prefix(schema.MapUnitByFileDependency, schema.CodePrimary(file))
	return r.txn.PrefixIterate(prefix, func(key, _ []byte) (bool, error) {
		return fn(schema.DecodeCodeValue(key[len(prefix):]))
	})
}

// UnitsContainingUnit emits every unit whose unit-dependency array lists
// unit.
func (r *Reader) UnitsContainingUnit(unit codec.Code, fn func(codec.Code) (bool, error)) error {
	prefix := schema.Prefix(schema.MapUnitByUnitDependency, schema.CodePrimary(unit))
	return r.txn.PrefixIterate(prefix, func(key, _ []byte) (bool, error) {
		return fn(schema.DecodeCodeValue(key[len(prefix):]))
	})
}

// RootUnitsOfFile depth-first-climbs UnitsContainingFile then
// UnitsContainingUnit, collecting units with a main file. A visited set
// prevents infinite loops on dependency cycles (spec §9).
func (r *Reader) RootUnitsOfFile(file codec.Code, fn func(codec.Code) (bool, error)) error {
	var roots []codec.Code
	visited := map[codec.Code]bool{}
	var climb func(u codec.Code) error
	climb = func(u codec.Code) error {
		if visited[u] {
			return nil
		}
		visited[u] = true
		info, ok, err := r.UnitInfo(u)
		if err != nil {
			return err
		}
		if ok && info.HasMainFile() {
			roots = append(roots, u)
		}
		var parents []codec.Code
		if err := r.UnitsContainingUnit(u, func(p codec.Code) (bool, error) {
			parents = append(parents, p)
			return true, nil
		}); err != nil {
			return err
		}
		for _, p := range parents {
			if err := climb(p); err != nil {
				return err
			}
		}
		return nil
	}
	var starters []codec.Code
	if err := r.UnitsContainingFile(file, func(u codec.Code) (bool, error) {
		starters = append(starters, u)
		return true, nil
	}); err != nil {
		return err
	}
	for _, u := range starters {
		if err := climb(u); err != nil {
			return err
		}
	}
	for _, root := range roots {
		cont, err := fn(root)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// RootUnitsOfUnit climbs from unit itself, rather than from its dependent
// files.
func (r *Reader) RootUnitsOfUnit(unit codec.Code, fn func(codec.Code) (bool, error)) error {
	var roots []codec.Code
	visited := map[codec.Code]bool{}
	var climb func(u codec.Code) error
	climb = func(u codec.Code) error {
		if visited[u] {
			return nil
		}
		visited[u] = true
		info, ok, err := r.UnitInfo(u)
		if err != nil {
			return err
		}
		if ok && info.HasMainFile() {
			roots = append(roots, u)
		}
		var parents []codec.Code
		if err := r.UnitsContainingUnit(u, func(p codec.Code) (bool, error) {
			parents = append(parents, p)
			return true, nil
		}); err != nil {
			return err
		}
		for _, p := range parents {
			if err := climb(p); err != nil {
				return err
			}
		}
		return nil
	}
	if err := climb(unit); err != nil {
		return err
	}
	for _, root := range roots {
		cont, err := fn(root)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}
