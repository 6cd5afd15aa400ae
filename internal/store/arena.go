package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync/atomic"
)

// arenaHeaderSize reserves the first 8 bytes of the mapped file for the
// persisted tail (bytes used so far); record data starts immediately
// after.
const arenaHeaderSize = 8

// minArenaGrowth is the minimum step size for a single grow, applied even
// when doubling the current capacity would be smaller (spec §4.C7: "at
// least doubling, with a minimum step").
const minArenaGrowth = 1 << 20 // 1 MiB

// arenaMapping is one live memory-mapping of the arena file. Replaced
// wholesale on grow; never mutated in place.
type arenaMapping struct {
	data []byte // includes the header
	size int64
}

// Arena is the append-only, memory-mapped store for UnitInfoByCode (spec
// §4.C2, §4.C3, §9). Every other named map lives in Badger; UnitInfo gets
// its own arena because the spec requires it to be sliceable straight out
// of the mapped region without a copy.
type Arena struct {
	file  *os.File
	mapfn platformMapper

	mapping atomic.Pointer[arenaMapping]
	tail    atomic.Int64
}

// platformMapper is implemented per-OS (arena_unix.go / arena_windows.go).
type platformMapper interface {
	mmap(f *os.File, size int64) ([]byte, error)
	munmap(data []byte) error
}

// OpenArena opens or creates the arena file at path, sized to at least
// initialSize bytes.
func OpenArena(path string, initialSize int64, m platformMapper) (*Arena, error) {
	if initialSize < arenaHeaderSize+minArenaGrowth {
		initialSize = arenaHeaderSize + minArenaGrowth
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: open arena %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("store: stat arena %s: %w", path, err)
	}
	size := info.Size()
	fresh := size == 0
	if size < initialSize {
		size = initialSize
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, fmt.Errorf("store: truncate arena %s: %w", path, err)
		}
	}
	data, err := m.mmap(f, size)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("store: mmap arena %s: %w", path, err)
	}
	a := &Arena{file: f, mapfn: m}
	a.mapping.Store(&arenaMapping{data: data, size: size})
	if fresh {
		a.tail.Store(arenaHeaderSize)
		binary.LittleEndian.PutUint64(data[0:8], arenaHeaderSize)
	} else {
		a.tail.Store(int64(binary.LittleEndian.Uint64(data[0:8])))
	}
	return a, nil
}

// Capacity returns the size of the current mapping, in bytes.
func (a *Arena) Capacity() int64 {
	return a.mapping.Load().size
}

// Tail returns the number of bytes currently in use (including the
// header).
func (a *Arena) Tail() int64 {
	return a.tail.Load()
}

// Read returns a zero-copy slice of length len backed by the current
// mapping at offset. Valid only until the next grow.
func (a *Arena) Read(offset int64, length int32) ([]byte, error) {
	m := a.mapping.Load()
	end := offset + int64(length)
	if offset < 0 || end > m.size {
		return nil, fmt.Errorf("store: arena read [%d:%d] out of bounds (capacity %d)", offset, end, m.size)
	}
	return m.data[offset:end], nil
}

// Append writes data to the arena, growing it first (via coordinator) if
// it doesn't fit, and returns the offset the data was written at. Only the
// single writer transaction calls Append.
func (a *Arena) Append(data []byte, coord *Coordinator) (int64, error) {
	needed := a.tail.Load() + int64(len(data))
	if needed > a.Capacity() {
		if err := a.grow(needed, coord); err != nil {
			return 0, err
		}
	}
	m := a.mapping.Load()
	offset := a.tail.Load()
	copy(m.data[offset:offset+int64(len(data))], data)
	newTail := offset + int64(len(data))
	binary.LittleEndian.PutUint64(m.data[0:8], uint64(newTail))
	a.tail.Store(newTail)
	return offset, nil
}

// grow implements the doubling protocol from spec §4.C7: quiesce readers,
// remap at (at least) double the current size or the minimum step,
// whichever covers `needed`, then let readers resume.
func (a *Arena) grow(needed int64, coord *Coordinator) error {
	return coord.QuiesceForResize(func() error {
		old := a.mapping.Load()
		newSize := old.size * 2
		if newSize < old.size+minArenaGrowth {
			newSize = old.size + minArenaGrowth
		}
		if newSize < needed {
			newSize = needed
		}
		if err := a.file.Truncate(newSize); err != nil {
			return fmt.Errorf("store: grow arena: truncate: %w", err)
		}
		if err := a.mapfn.munmap(old.data); err != nil {
			return fmt.Errorf("store: grow arena: munmap: %w", err)
		}
		data, err := a.mapfn.mmap(a.file, newSize)
		if err != nil {
			return fmt.Errorf("store: grow arena: mmap: %w", err)
		}
		a.mapping.Store(&arenaMapping{data: data, size: newSize})
		return nil
	})
}

// Sync flushes the mapping to disk. Called on write-transaction commit.
func (a *Arena) Sync() error {
	return a.file.Sync()
}

// Close unmaps and closes the underlying file.
func (a *Arena) Close() error {
	m := a.mapping.Load()
	if err := a.mapfn.munmap(m.data); err != nil {
		return err
	}
	return a.file.Close()
}
