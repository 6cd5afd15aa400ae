package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/indexdb/internal/codec"
	"github.com/oxhq/indexdb/internal/schema"
	"github.com/oxhq/indexdb/internal/storeerr"
)

func TestGuardCheckCreatesRowOnFirstOpen(t *testing.T) {
	dir := t.TempDir()
	g, err := OpenGuard(dir, nil)
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Check("host:1"))

	var row SchemaMeta
	require.NoError(t, g.db.First(&row, 1).Error)
	assert.Equal(t, schema.Version, row.Version)
	assert.Equal(t, "host:1", row.WriterIdentity)
}

func TestGuardCheckSucceedsOnMatchingVersion(t *testing.T) {
	dir := t.TempDir()
	g, err := OpenGuard(dir, nil)
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Check("writer-a"))
	require.NoError(t, g.Check("writer-b"), "a matching schema version must never block re-opening, even from a different writer identity")
}

func TestGuardCheckRejectsVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	g, err := OpenGuard(dir, nil)
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.db.Create(&SchemaMeta{ID: 1, Version: schema.Version + 1, WriterIdentity: "x"}).Error)

	err = g.Check("y")
	require.Error(t, err)
	var serr *storeerr.Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, storeerr.KindIncompatibleVersion, serr.Kind)
}

func TestGuardRecordRecoveryInsertsEvent(t *testing.T) {
	dir := t.TempDir()
	g, err := OpenGuard(dir, nil)
	require.NoError(t, err)
	defer g.Close()

	mappings := []codec.PrefixMapping{{Original: "/SRC_ROOT", Replacement: "/home/dev"}}
	require.NoError(t, g.RecordRecovery("/tmp/archived-db", "crash mid-resize", mappings))

	var row RecoveryEvent
	require.NoError(t, g.db.First(&row, 1).Error)
	assert.Equal(t, "/tmp/archived-db", row.ArchivedDir)
	assert.Contains(t, string(row.PrefixMappings), "/SRC_ROOT")
}
