package ingest

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/oxhq/indexdb/internal/codec"
	"github.com/oxhq/indexdb/internal/index"
)

// Pipeline drives the unit-import state machine from spec §4.C5/§4.C6
// over an external RawStore, firing Sinks events as it goes. It is the
// internal counterpart of the filesystem watcher / build-system harness
// the spec places out of scope (§1) — this is the part that stays inside
// the core.
type Pipeline struct {
	raw   RawStore
	sinks *Sinks
	log   *zap.Logger

	// OnlyExplicitOutputUnits mirrors the use_explicit_output_units
	// configuration option (spec §6): when set, IsExplicitOutputUnit is
	// consulted to skip units whose output file was never registered via
	// AddUnitFileIdentifier.
	OnlyExplicitOutputUnits bool
	IsExplicitOutputUnit    func(outputFile codec.CanonicalPath) (bool, error)
}

// New builds a Pipeline over raw, fanning progress/out-of-date events out
// through sinks.
func New(raw RawStore, sinks *Sinks, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if sinks == nil {
		sinks = &Sinks{}
	}
	return &Pipeline{raw: raw, sinks: sinks, log: log}
}

// ImportAll walks every unit the raw store lists, importing each through
// imp. added/completed track spec §6's on_processing_progress counters.
func (p *Pipeline) ImportAll(imp *index.Importer, sorted bool) (added, completed int, err error) {
	var total int
	if err := p.raw.ListUnits(sorted, func(string) (bool, error) {
		total++
		return true, nil
	}); err != nil {
		return 0, 0, err
	}
	added = total

	walkErr := p.raw.ListUnits(sorted, func(name string) (bool, error) {
		if ierr := p.importOne(imp, name); ierr != nil {
			p.log.Warn("unit import failed", zap.String("unit", name), zap.Error(ierr))
		}
		completed++
		p.sinks.Progress(added, completed)
		return true, nil
	})
	return added, completed, walkErr
}

func (p *Pipeline) importOne(imp *index.Importer, unitName string) error {
	ur, err := p.raw.OpenUnit(unitName)
	if err != nil {
		return fmt.Errorf("ingest: open unit %s: %w", unitName, err)
	}

	outFile := ur.OutputFile()
	if p.OnlyExplicitOutputUnits && p.IsExplicitOutputUnit != nil {
		explicit, err := p.IsExplicitOutputUnit(outFile)
		if err != nil {
			return err
		}
		if !explicit {
			return nil
		}
	}

	unitCode := imp.GetUnitCode(unitName)
	if prev, existed, err := imp.ReadUnitInfo(unitCode); err == nil && existed && prev.Nanos != ur.ModTime() {
		p.sinks.UnitOutOfDate(prev, ur.ModTime(), ur.MainFilePath(), "modification time changed", true)
	}

	desc := index.UnitDescription{
		Name:     unitName,
		ModNanos: ur.ModTime(),
		MainFile: "",
		OutFile:  outFile,
		Sysroot:  "",
		Target:   ur.Target(),
		Kind:     ProviderKindOf(ur.ProviderID()),
		IsSystem: ur.IsSystemUnit(),
	}
	if ur.HasMainFile() {
		desc.MainFile = ur.MainFilePath()
	}
	if sysroot := ur.SysrootPath(); sysroot != "" {
		desc.Sysroot = sysroot
	}

	if err := ur.ForEachDependency(func(dep Dependency) (bool, error) {
		switch dep.Kind {
		case DependencyFile:
			desc.FileDeps = append(desc.FileDeps, index.FileDependency{File: dep.File})
		case DependencyUnit:
			desc.UnitDeps = append(desc.UnitDeps, dep.UnitName)
		case DependencyProvider:
			providerCode, _, err := imp.AddProviderName(dep.Provider)
			if err != nil {
				return false, err
			}
			desc.ProviderDeps = append(desc.ProviderDeps, index.ProviderDependency{
				Provider: providerCode,
				File:     dep.File,
				Module:   codec.Of(dep.ModuleName),
				IsSystem: dep.IsSystem,
			})
		}
		return true, nil
	}); err != nil {
		return err
	}

	if err := ur.ForEachInclude(func(inc Include) (bool, error) {
		desc.FileDeps = append(desc.FileDeps, index.FileDependency{File: inc.File})
		return true, nil
	}); err != nil {
		return err
	}

	if err := index.ImportUnit(imp, p.log, desc); err != nil {
		return fmt.Errorf("ingest: import unit %s: %w", unitName, err)
	}

	return p.importRecords(imp, unitName, ur)
}

// importRecords opens the provider's record file for a unit (conventionally
// the unit's own name, matching the teacher's one-record-per-unit layout)
// and ingests every symbol and occurrence it contains.
func (p *Pipeline) importRecords(imp *index.Importer, unitName string, ur UnitReader) error {
	rr, err := p.raw.OpenRecord(unitName)
	if err != nil {
		// Module-only units may have no record of their own; that's not
		// an ingestion failure.
		return nil
	}

	providerCode, _, err := imp.AddProviderName(ur.ProviderID())
	if err != nil {
		return err
	}

	var sawTestDefinition bool
	err = rr.ForEachOccurrence(nil, nil, func(occ Occurrence) (bool, error) {
		info := index.SymbolInfo{
			Kind:                      occ.Symbol.Kind,
			Subkind:                   occ.Symbol.Subkind,
			Properties:                occ.Symbol.Properties,
			Name:                      occ.Symbol.Name,
			Language:                  occ.Symbol.Language,
			IncludeInGlobalNameSearch: occ.Symbol.IncludeInGlobalNameSearch,
		}
		if _, err := imp.AddSymbolInfo(providerCode, occ.Symbol.USR, info, occ.Roles, occ.RelatedRoles); err != nil {
			return false, err
		}
		if info.Properties&index.PropUnitTest != 0 && occ.Roles.Has(index.Bit(index.RoleDefinition)) {
			sawTestDefinition = true
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	if sawTestDefinition {
		if err := imp.SetProviderContainsTestSymbols(providerCode); err != nil {
			return err
		}
	}
	return nil
}
