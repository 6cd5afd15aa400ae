package index

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"

	"github.com/oxhq/indexdb/internal/codec"
	"github.com/oxhq/indexdb/internal/schema"
)

// FileDependency is one file-dependency entry from a freshly decoded unit
// description.
type FileDependency struct {
	File codec.CanonicalPath
}

// ProviderDependency is one provider-dependency entry: a provider and the
// file it produced occurrences for, with that file's module/system bits.
type ProviderDependency struct {
	Provider codec.Code
	File     codec.CanonicalPath
	Module   codec.Code
	IsSystem bool
}

// UnitDescription is the fully decoded unit the raw-store adapter (C8)
// hands to the differencer: everything needed to reconcile it against the
// previously stored UnitInfo (spec §4.C6).
type UnitDescription struct {
	Name         string
	ModNanos     int64
	MainFile     codec.CanonicalPath // empty means "no main file"
	OutFile      codec.CanonicalPath
	Sysroot      codec.CanonicalPath // empty means "no sysroot"
	Target       string
	Kind         schema.SymbolProviderKind
	IsSystem     bool
	FileDeps     []FileDependency
	UnitDeps     []string // unit names
	ProviderDeps []ProviderDependency
}

type providerFileKey struct {
	provider codec.Code
	file     codec.Code
}

// ImportUnit runs the C6 differencer/C5 state machine for one unit
// description: look up the prior record, no-op if the mod-time matches,
// otherwise diff the three dependency sets against the new description,
// applying only the adds and removes that changed, then rewrite the
// UnitInfo record.
func ImportUnit(imp *Importer, logger *zap.Logger, desc UnitDescription) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	unitCode := imp.GetUnitCode(desc.Name)

	prev, existed, err := imp.ReadUnitInfo(unitCode)
	if err != nil {
		return err
	}
	if existed && prev.Nanos == desc.ModNanos {
		logger.Debug("unit up to date", zap.String("unit", desc.Name))
		return nil
	}

	prevCombinedFiles := map[codec.Code]bool{}
	prevUnits := map[codec.Code]bool{}
	prevProviders := map[providerFileKey]bool{}
	if existed {
		for _, f := range prev.FileDepends {
			prevCombinedFiles[f] = true
		}
		for _, u := range prev.UnitDepends {
			prevUnits[u] = true
		}
		for _, pd := range prev.ProviderDepends {
			prevCombinedFiles[pd.File] = true
			prevProviders[providerFileKey{pd.Provider, pd.File}] = true
		}
	}

	newFiles := make([]codec.Code, 0, len(desc.FileDeps))
	for _, fd := range desc.FileDeps {
		fileCode, err := imp.AddFilePath(fd.File)
		if err != nil {
			return err
		}
		newFiles = append(newFiles, fileCode)
		if prevCombinedFiles[fileCode] {
			delete(prevCombinedFiles, fileCode)
		} else if err := imp.AddFileDependencyEdge(fileCode, unitCode); err != nil {
			return err
		}
	}

	newUnits := make([]codec.Code, 0, len(desc.UnitDeps))
	for _, uname := range desc.UnitDeps {
		depCode := imp.GetUnitCode(uname)
		newUnits = append(newUnits, depCode)
		if prevUnits[depCode] {
			delete(prevUnits, depCode)
		} else if err := imp.AddUnitDependencyEdge(depCode, unitCode); err != nil {
			return err
		}
	}

	newProviders := make([]schema.ProviderDependency, 0, len(desc.ProviderDeps))
	var hasTestSymbols bool
	for _, pd := range desc.ProviderDeps {
		fileCode, err := imp.AddFilePath(pd.File)
		if err != nil {
			return err
		}
		newProviders = append(newProviders, schema.ProviderDependency{Provider: pd.Provider, File: fileCode})

		key := providerFileKey{pd.Provider, fileCode}
		if prevProviders[key] {
			delete(prevProviders, key)
		}
		if prevCombinedFiles[fileCode] {
			delete(prevCombinedFiles, fileCode)
		} else if !containsCode(newFiles, fileCode) {
			if err := imp.AddFileDependencyEdge(fileCode, unitCode); err != nil {
				return err
			}
		}
		if err := imp.AddFileAssociationForProvider(pd.Provider, fileCode, unitCode, pd.Module, desc.ModNanos, pd.IsSystem); err != nil {
			return err
		}
		if marked, err := imp.ProviderContainsTestSymbols(pd.Provider); err != nil {
			return err
		} else if marked {
			hasTestSymbols = true
		}
	}

	var removedFiles, removedUnits, addedFiles, addedUnits []string
	for f := range prevCombinedFiles {
		if err := imp.RemoveFileDependencyEdge(f, unitCode); err != nil {
			return err
		}
		removedFiles = append(removedFiles, fmt.Sprintf("file:%x", uint64(f)))
	}
	for u := range prevUnits {
		if err := imp.RemoveUnitDependencyEdge(u, unitCode); err != nil {
			return err
		}
		removedUnits = append(removedUnits, fmt.Sprintf("unit:%x", uint64(u)))
	}
	for key := range prevProviders {
		noFilesLeft, err := imp.RemoveFileAssociationFromProvider(key.provider, key.file, unitCode)
		if err != nil {
			return err
		}
		if noFilesLeft {
			if err := imp.clearProviderTestMark(key.provider); err != nil {
				return err
			}
		}
	}
	for _, f := range newFiles {
		addedFiles = append(addedFiles, fmt.Sprintf("file:%x", uint64(f)))
	}
	for _, u := range newUnits {
		addedUnits = append(addedUnits, fmt.Sprintf("unit:%x", uint64(u)))
	}

	logDiffSummary(logger, desc.Name, append(removedFiles, removedUnits...), append(addedFiles, addedUnits...))

	var flags schema.UnitInfoFlags
	var mainFileCode, sysrootCode codec.Code
	if desc.MainFile != "" {
		mainFileCode, err = imp.AddFilePath(desc.MainFile)
		if err != nil {
			return err
		}
		flags |= schema.UnitHasMainFile
	}
	if desc.Sysroot != "" {
		sysrootCode, err = imp.AddFilePath(desc.Sysroot)
		if err != nil {
			return err
		}
		flags |= schema.UnitHasSysroot
	}
	if desc.IsSystem {
		flags |= schema.UnitIsSystem
	}
	if hasTestSymbols {
		flags |= schema.UnitHasTestSymbols
	}
	outFileCode, err := imp.AddFilePath(desc.OutFile)
	if err != nil {
		return err
	}
	targetCode := codec.Of(desc.Target)

	info := schema.UnitInfo{
		MainFile:        mainFileCode,
		OutFile:         outFileCode,
		Sysroot:         sysrootCode,
		Target:          targetCode,
		Nanos:           desc.ModNanos,
		Kind:            desc.Kind,
		Flags:           flags,
		Name:            desc.Name,
		FileDepends:     newFiles,
		UnitDepends:     newUnits,
		ProviderDepends: newProviders,
	}
	return imp.WriteUnitInfo(unitCode, info)
}

func containsCode(s []codec.Code, c codec.Code) bool {
	for _, v := range s {
		if v == c {
			return true
		}
	}
	return false
}

func logDiffSummary(logger *zap.Logger, unitName string, removed, added []string) {
	if len(removed) == 0 && len(added) == 0 {
		return
	}
	diff := difflib.UnifiedDiff{
		A:        removed,
		B:        added,
		FromFile: "prev",
		ToFile:   "new",
		Context:  0,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return
	}
	logger.Info("unit dependency edges changed", zap.String("unit", unitName), zap.String("diff", text))
}
