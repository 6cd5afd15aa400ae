package meta

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/oxhq/indexdb/internal/storeerr"
)

const markerFileName = "resize-in-progress.marker"

// stragglerPatterns are the doublestar globs CheckAndRecover scans the
// database directory for: the marker itself (*.marker) and any temp file
// left behind by a crash between BeforeGrow's write and its rename (*.tmp).
var stragglerPatterns = []string{"*.marker", "*.tmp"}

// ResizeMarker is a store.ResizeHook: it leaves a PID-stamped marker file
// in the database directory for the duration of an arena grow, so that a
// process crashing mid-resize leaves exactly the "lingering temp state"
// spec §4.C10 asks CheckAndRecover to detect on the next open. The
// PID-stamp-and-staleness-check idiom is the same one the teacher's
// atomic-file-writer used for its own cross-process lock file.
type ResizeMarker struct {
	path string
}

// NewResizeMarker builds the marker for the database directory dir.
func NewResizeMarker(dir string) *ResizeMarker {
	return &ResizeMarker{path: filepath.Join(dir, markerFileName)}
}

// BeforeGrow writes the marker, recording this process's PID.
func (m *ResizeMarker) BeforeGrow() error {
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644); err != nil {
		return storeerr.IO("resize-marker-write", m.path, err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		return storeerr.IO("resize-marker-rename", m.path, err)
	}
	return nil
}

// AfterGrow removes the marker; its absence on the next open means the
// last resize completed cleanly.
func (m *ResizeMarker) AfterGrow() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return storeerr.IO("resize-marker-remove", m.path, err)
	}
	return nil
}

// CheckAndRecover implements spec §4.C10: if dir contains a lingering
// resize marker or a straggler temp file left by one, a previous process
// crashed mid-growth (by the single-writer discipline, no process can
// legitimately hold that marker concurrently with this fresh open), so dir
// is archived under a timestamped name and recreated empty. Recovery is
// best-effort: the spec treats the indexed data as fully reconstructible
// from the compiler-produced record store, so data loss here is acceptable.
func CheckAndRecover(dir string, log *zap.Logger) (recovered bool, archivedDir string, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	stragglers, err := findStragglers(dir)
	if err != nil {
		return false, "", err
	}
	if len(stragglers) == 0 {
		return false, "", nil
	}

	markerPath := filepath.Join(dir, markerFileName)
	if pid, ok := readMarkerPID(markerPath); ok && isProcessAlive(pid) {
		// Another live process holds the marker; this is a concurrent
		// writer, not a crash. Refuse to touch the directory.
		return false, "", fmt.Errorf("meta: database directory %s is held by a live process (pid %d)", dir, pid)
	}

	archived := fmt.Sprintf("%s.corrupt-%s", filepath.Clean(dir), time.Now().UTC().Format("20060102-150405"))
	if err := os.Rename(dir, archived); err != nil {
		return false, "", storeerr.IO("recovery-archive", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, "", storeerr.IO("recovery-recreate", dir, err)
	}
	log.Warn("recovered from a crash mid-resize; prior database archived",
		zap.String("archived_to", archived),
		zap.Strings("stragglers", stragglers))
	return true, archived, nil
}

// findStragglers glob-matches dir's top-level entries against
// stragglerPatterns, returning the names of any that matched.
func findStragglers(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, storeerr.IO("recovery-scan", dir, err)
	}
	var found []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, pattern := range stragglerPatterns {
			if matched, _ := doublestar.Match(pattern, e.Name()); matched {
				found = append(found, e.Name())
				break
			}
		}
	}
	return found, nil
}

func readMarkerPID(path string) (int, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	var pid int
	if _, err := fmt.Sscanf(string(content), "%d", &pid); err != nil {
		return 0, false
	}
	return pid, true
}
