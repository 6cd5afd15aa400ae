package meta

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCheckAndRecoverNoMarkerIsNoop(t *testing.T) {
	dir := t.TempDir()
	recovered, archived, err := CheckAndRecover(dir, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, recovered)
	assert.Empty(t, archived)
}

func TestResizeMarkerBeforeAfterGrowRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := NewResizeMarker(dir)

	require.NoError(t, m.BeforeGrow())
	markerPath := filepath.Join(dir, markerFileName)
	_, err := os.Stat(markerPath)
	require.NoError(t, err, "BeforeGrow must leave the marker file on disk")

	require.NoError(t, m.AfterGrow())
	_, err = os.Stat(markerPath)
	assert.True(t, os.IsNotExist(err), "AfterGrow must remove the marker file")
}

func TestCheckAndRecoverArchivesDirectoryWithDeadProcessMarker(t *testing.T) {
	dir := t.TempDir()
	markerPath := filepath.Join(dir, markerFileName)
	// A PID that (almost certainly) does not correspond to a live process.
	require.NoError(t, os.WriteFile(markerPath, []byte("999999999\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kv.data"), []byte("stale"), 0o644))

	recovered, archived, err := CheckAndRecover(dir, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, recovered)
	require.NotEmpty(t, archived)

	_, err = os.Stat(filepath.Join(archived, "kv.data"))
	assert.NoError(t, err, "the crashed directory's contents must be preserved under the archived path")

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "a fresh empty directory must be recreated at the original path")
}

func TestCheckAndRecoverArchivesDirectoryWithOrphanedTempFile(t *testing.T) {
	dir := t.TempDir()
	// Simulates a crash between BeforeGrow's WriteFile and its Rename: the
	// ".tmp" straggler exists but the marker itself never landed.
	require.NoError(t, os.WriteFile(filepath.Join(dir, markerFileName+".tmp"), []byte("123\n"), 0o644))

	recovered, archived, err := CheckAndRecover(dir, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, recovered, "an orphaned *.tmp straggler must trigger recovery even without the final marker")
	assert.Contains(t, archived, ".corrupt-")
}

func TestCheckAndRecoverRefusesWhenHeldByLiveProcess(t *testing.T) {
	dir := t.TempDir()
	markerPath := filepath.Join(dir, markerFileName)
	require.NoError(t, os.WriteFile(markerPath, []byte("1\n"), 0o644))

	_, _, err := CheckAndRecover(dir, zap.NewNop())
	assert.Error(t, err, "a marker stamped with pid 1 (init, always alive) must not be treated as a crash")
}
