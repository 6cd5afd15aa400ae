package indexdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/indexdb/internal/config"
	"github.com/oxhq/indexdb/internal/schema"
)

func TestOpenCreatesDatabaseAndAllowsWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(Options{DatabasePath: dir})
	require.NoError(t, err)
	defer db.Close()

	imp, wtx, err := db.Write()
	require.NoError(t, err)
	require.NoError(t, imp.WriteUnitInfo(1, schema.UnitInfo{Name: "U"}))
	require.NoError(t, wtx.Commit())

	reader, rtx, err := db.Read(context.Background())
	require.NoError(t, err)
	defer rtx.Discard()
	info, ok, err := reader.UnitInfo(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "U", info.Name)
}

func TestReopenPreservesWrittenData(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(Options{DatabasePath: dir})
	require.NoError(t, err)
	imp, wtx, err := db.Write()
	require.NoError(t, err)
	require.NoError(t, imp.WriteUnitInfo(7, schema.UnitInfo{Name: "Persisted"}))
	require.NoError(t, wtx.Commit())
	require.NoError(t, db.Close())

	db2, err := Open(Options{DatabasePath: dir})
	require.NoError(t, err)
	defer db2.Close()

	reader, rtx, err := db2.Read(context.Background())
	require.NoError(t, err)
	defer rtx.Discard()
	info, ok, err := reader.UnitInfo(7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Persisted", info.Name)
}

func TestReadOnlyOpenRejectsWrites(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(Options{DatabasePath: dir})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	ro, err := Open(Options{DatabasePath: dir, ReadOnly: true})
	require.NoError(t, err)
	defer ro.Close()

	_, _, err = ro.Write()
	assert.Error(t, err)
}

func TestFromConfigCopiesEveryRelevantField(t *testing.T) {
	cfg := config.Config{
		DatabasePath:           filepath.Join(t.TempDir(), "db"),
		ReadOnly:               true,
		InitialMapSize:         123,
		MaxReaders:             9,
		Verbose:                true,
		UseExplicitOutputUnits: true,
		PrefixMappings:         []config.PrefixMapping{{Original: "/A", Replacement: "/B"}},
	}
	opts := FromConfig(cfg)
	assert.Equal(t, cfg.DatabasePath, opts.DatabasePath)
	assert.True(t, opts.ReadOnly)
	assert.EqualValues(t, 123, opts.InitialArenaSize)
	assert.Equal(t, 9, opts.MaxReaders)
	assert.True(t, opts.Verbose)
	assert.True(t, opts.UseExplicitOutputUnits)
	require.Len(t, opts.PrefixMappings, 1)
}

func TestOpenRecoversFromOrphanedResizeMarker(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resize-in-progress.marker.tmp"), []byte("123\n"), 0o644))

	db, err := Open(Options{
		DatabasePath:   dir,
		PrefixMappings: []config.PrefixMapping{{Original: "/SRC_ROOT", Replacement: "/home/dev"}},
	})
	require.NoError(t, err)
	defer db.Close()

	matches, err := filepath.Glob(filepath.Dir(dir) + "/*.corrupt-*")
	require.NoError(t, err)
	assert.NotEmpty(t, matches, "the crashed directory must be archived alongside the fresh one")
}

func TestCompactRunsAgainstAWrittenDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(Options{DatabasePath: dir})
	require.NoError(t, err)
	defer db.Close()

	imp, wtx, err := db.Write()
	require.NoError(t, err)
	require.NoError(t, imp.WriteUnitInfo(1, schema.UnitInfo{Name: "U"}))
	require.NoError(t, wtx.Commit())

	assert.NoError(t, db.Compact())
}

func TestOpenRejectsEmptyDatabasePath(t *testing.T) {
	_, err := Open(Options{})
	assert.Error(t, err)
}

func TestPrefixesAreUsable(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(Options{
		DatabasePath:   dir,
		PrefixMappings: []config.PrefixMapping{{Original: "/SRC_ROOT", Replacement: "/home/dev"}},
	})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "/home/dev/a.swift", db.Prefixes().Apply("/SRC_ROOT/a.swift"))
}
