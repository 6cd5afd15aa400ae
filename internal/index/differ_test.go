package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oxhq/indexdb/internal/codec"
	"github.com/oxhq/indexdb/internal/schema"
)

func TestImportUnitFirstImportWritesFileAndUnitDeps(t *testing.T) {
	env := openTestEnv(t)
	desc := UnitDescription{
		Name:     "App",
		ModNanos: 10,
		MainFile: codec.Canonicalize("/src/main.swift"),
		OutFile:  codec.Canonicalize("/build/app.o"),
		Kind:     schema.SymbolProviderSwift,
		FileDeps: []FileDependency{{File: codec.Canonicalize("/src/header.h")}},
		UnitDeps: []string{"Lib"},
	}

	withWrite(t, env, func(imp *Importer) {
		require.NoError(t, ImportUnit(imp, zap.NewNop(), desc))
	})

	withRead(t, env, func(r *Reader) {
		info, ok, err := r.UnitInfo(codec.Of("App"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(10), info.Nanos)
		assert.True(t, info.HasMainFile())
		require.Len(t, info.FileDepends, 1)
		require.Len(t, info.UnitDepends, 1)

		var parentsOfHeader []codec.Code
		require.NoError(t, r.UnitsContainingFile(codec.Canonicalize("/src/header.h").Code(), func(u codec.Code) (bool, error) {
			parentsOfHeader = append(parentsOfHeader, u)
			return true, nil
		}))
		assert.Contains(t, parentsOfHeader, codec.Of("App"))
	})
}

func TestImportUnitIsNoopWhenModTimeUnchanged(t *testing.T) {
	env := openTestEnv(t)
	desc := UnitDescription{
		Name:     "Stable",
		ModNanos: 5,
		OutFile:  codec.Canonicalize("/build/stable.o"),
		FileDeps: []FileDependency{{File: codec.Canonicalize("/src/a.h")}},
	}

	withWrite(t, env, func(imp *Importer) {
		require.NoError(t, ImportUnit(imp, zap.NewNop(), desc))
	})
	withWrite(t, env, func(imp *Importer) {
		// Same mod time, different (and thus ignorable) dependency list.
		desc2 := desc
		desc2.FileDeps = nil
		require.NoError(t, ImportUnit(imp, zap.NewNop(), desc2))
	})

	withRead(t, env, func(r *Reader) {
		info, ok, err := r.UnitInfo(codec.Of("Stable"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Len(t, info.FileDepends, 1, "a re-import with an unchanged mod time must be a pure no-op")
	})
}

func TestImportUnitReconcilesDependenciesOnModTimeChange(t *testing.T) {
	env := openTestEnv(t)
	fileA := codec.Canonicalize("/src/a.h")
	fileB := codec.Canonicalize("/src/b.h")

	withWrite(t, env, func(imp *Importer) {
		require.NoError(t, ImportUnit(imp, zap.NewNop(), UnitDescription{
			Name:     "Evolving",
			ModNanos: 1,
			OutFile:  codec.Canonicalize("/build/evolving.o"),
			FileDeps: []FileDependency{{File: fileA}},
		}))
	})

	withWrite(t, env, func(imp *Importer) {
		require.NoError(t, ImportUnit(imp, zap.NewNop(), UnitDescription{
			Name:     "Evolving",
			ModNanos: 2,
			OutFile:  codec.Canonicalize("/build/evolving.o"),
			FileDeps: []FileDependency{{File: fileB}},
		}))
	})

	withRead(t, env, func(r *Reader) {
		info, ok, err := r.UnitInfo(codec.Of("Evolving"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []codec.Code{fileB.Code()}, info.FileDepends)

		var parentsOfA []codec.Code
		require.NoError(t, r.UnitsContainingFile(fileA.Code(), func(u codec.Code) (bool, error) {
			parentsOfA = append(parentsOfA, u)
			return true, nil
		}))
		assert.Empty(t, parentsOfA, "a file dropped from the new description must lose its dependency edge")

		var parentsOfB []codec.Code
		require.NoError(t, r.UnitsContainingFile(fileB.Code(), func(u codec.Code) (bool, error) {
			parentsOfB = append(parentsOfB, u)
			return true, nil
		}))
		assert.Contains(t, parentsOfB, codec.Of("Evolving"))
	})
}

func TestImportUnitProviderDependencyMarksTestSymbols(t *testing.T) {
	env := openTestEnv(t)
	provider := codec.Of("clang-provider")

	withWrite(t, env, func(imp *Importer) {
		require.NoError(t, imp.SetProviderContainsTestSymbols(provider))
		require.NoError(t, ImportUnit(imp, zap.NewNop(), UnitDescription{
			Name:     "TestUnit",
			ModNanos: 1,
			OutFile:  codec.Canonicalize("/build/testunit.o"),
			ProviderDeps: []ProviderDependency{
				{Provider: provider, File: codec.Canonicalize("/src/tests.m")},
			},
		}))
	})

	withRead(t, env, func(r *Reader) {
		info, ok, err := r.UnitInfo(codec.Of("TestUnit"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, info.HasTestSymbols())
	})
}
