package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/indexdb/internal/codec"
	"github.com/oxhq/indexdb/internal/index"
	"github.com/oxhq/indexdb/internal/store"
)

type fakeUnit struct {
	name     string
	modTime  int64
	outFile  codec.CanonicalPath
	mainFile codec.CanonicalPath
	deps     []Dependency
}

func (u *fakeUnit) ProviderID() string                  { return "clang" }
func (u *fakeUnit) ProviderVersion() int                { return 1 }
func (u *fakeUnit) ModTime() int64                      { return u.modTime }
func (u *fakeUnit) IsSystemUnit() bool                  { return false }
func (u *fakeUnit) IsModuleUnit() bool                  { return false }
func (u *fakeUnit) HasMainFile() bool                   { return u.mainFile != "" }
func (u *fakeUnit) MainFilePath() codec.CanonicalPath   { return u.mainFile }
func (u *fakeUnit) ModuleName() string                  { return "" }
func (u *fakeUnit) WorkingDir() codec.CanonicalPath     { return "" }
func (u *fakeUnit) OutputFile() codec.CanonicalPath     { return u.outFile }
func (u *fakeUnit) SysrootPath() codec.CanonicalPath    { return "" }
func (u *fakeUnit) Target() string                      { return "x86_64" }
func (u *fakeUnit) ForEachDependency(fn func(Dependency) (bool, error)) error {
	for _, d := range u.deps {
		cont, err := fn(d)
		if err != nil || !cont {
			return err
		}
	}
	return nil
}
func (u *fakeUnit) ForEachInclude(fn func(Include) (bool, error)) error { return nil }

type fakeRecord struct {
	occurrences []Occurrence
}

func (r *fakeRecord) ForEachSymbol(fn func(Symbol) (bool, error)) error { return nil }
func (r *fakeRecord) ForEachOccurrence(symbolsFilter, relatedSymbolsFilter func(Symbol) bool, fn func(Occurrence) (bool, error)) error {
	for _, occ := range r.occurrences {
		cont, err := fn(occ)
		if err != nil || !cont {
			return err
		}
	}
	return nil
}

type fakeRawStore struct {
	units   map[string]*fakeUnit
	records map[string]*fakeRecord
}

func (s *fakeRawStore) ListUnits(sorted bool, fn func(string) (bool, error)) error {
	for name := range s.units {
		cont, err := fn(name)
		if err != nil || !cont {
			return err
		}
	}
	return nil
}

func (s *fakeRawStore) OpenUnit(name string) (UnitReader, error) { return s.units[name], nil }
func (s *fakeRawStore) OpenRecord(name string) (RecordReader, error) {
	r, ok := s.records[name]
	if !ok {
		return nil, errNoRecord
	}
	return r, nil
}

var errNoRecord = &noRecordError{}

type noRecordError struct{}

func (*noRecordError) Error() string { return "no record" }

func openTestEnv(t *testing.T) *store.Env {
	t.Helper()
	env, err := store.Open(store.Options{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })
	return env
}

func TestPipelineImportAllIngestsUnitsAndRecords(t *testing.T) {
	raw := &fakeRawStore{
		units: map[string]*fakeUnit{
			"App": {
				name:     "App",
				modTime:  1,
				outFile:  codec.Canonicalize("/build/app.o"),
				mainFile: codec.Canonicalize("/src/main.swift"),
				deps: []Dependency{
					{Kind: DependencyFile, File: codec.Canonicalize("/src/header.h")},
				},
			},
		},
		records: map[string]*fakeRecord{
			"App": {occurrences: []Occurrence{
				{
					Symbol:       Symbol{USR: "s:4main3FooV", Name: "Foo", Kind: index.KindStruct, IncludeInGlobalNameSearch: true},
					Roles:        index.Bit(index.RoleDeclaration),
					RelatedRoles: 0,
				},
			}},
		},
	}

	env := openTestEnv(t)
	var sinks Sinks
	p := New(raw, &sinks, nil)

	w, err := env.BeginWrite()
	require.NoError(t, err)
	imp := index.NewImporter(w)
	added, completed, err := p.ImportAll(imp, true)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, completed)
	require.NoError(t, w.Commit())

	r, err := env.BeginRead(context.Background())
	require.NoError(t, err)
	defer r.Discard()
	reader := index.NewReader(r)

	info, ok, err := reader.UnitInfo(codec.Of("App"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, info.HasMainFile())

	var occs []index.ProviderOccurrence
	require.NoError(t, reader.ProvidersForUSR("s:4main3FooV", 0, 0, func(o index.ProviderOccurrence) (bool, error) {
		occs = append(occs, o)
		return true, nil
	}))
	require.Len(t, occs, 1)
}

func TestPipelineSkipsNonExplicitOutputUnitsWhenConfigured(t *testing.T) {
	raw := &fakeRawStore{
		units: map[string]*fakeUnit{
			"Skipped": {name: "Skipped", modTime: 1, outFile: codec.Canonicalize("/build/skipped.o")},
		},
	}
	env := openTestEnv(t)
	p := New(raw, nil, nil)
	p.OnlyExplicitOutputUnits = true
	p.IsExplicitOutputUnit = func(codec.CanonicalPath) (bool, error) { return false, nil }

	w, err := env.BeginWrite()
	require.NoError(t, err)
	imp := index.NewImporter(w)
	_, completed, err := p.ImportAll(imp, false)
	require.NoError(t, err)
	assert.Equal(t, 1, completed, "a skipped unit still counts toward completed, it simply writes nothing")
	require.NoError(t, w.Commit())

	r, err := env.BeginRead(context.Background())
	require.NoError(t, err)
	defer r.Discard()
	reader := index.NewReader(r)
	_, ok, err := reader.UnitInfo(codec.Of("Skipped"))
	require.NoError(t, err)
	assert.False(t, ok, "a unit excluded by use_explicit_output_units must not be imported")
}
