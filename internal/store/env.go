package store

import (
	"context"
	"fmt"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/oxhq/indexdb/internal/storeerr"
)

// Options configures Env.Open, mirroring the configuration surface from
// spec §6 that's relevant to the storage layer.
type Options struct {
	// Dir is the database directory.
	Dir string
	// ReadOnly rejects all writes; skips recovery/creation (spec §6).
	ReadOnly bool
	// InitialArenaSize sizes the UnitInfo arena's first allocation.
	InitialArenaSize int64
	// MaxReaders bounds concurrent read transactions (spec §5).
	MaxReaders int64
	Logger     *zap.Logger
}

func (o *Options) setDefaults() {
	if o.InitialArenaSize <= 0 {
		o.InitialArenaSize = 4 << 20 // 4 MiB
	}
	if o.MaxReaders <= 0 {
		o.MaxReaders = 126
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Env owns the memory-mapped environment: one Badger database for every
// named map except UnitInfoByCode, one mmap arena for UnitInfoByCode, and
// the coordinator that arbitrates arena growth (spec §4.C2).
type Env struct {
	opts  Options
	db    *badger.DB
	arena *Arena
	coord *Coordinator
	log   *zap.Logger
}

// Open opens (creating if necessary) the database at opts.Dir.
func Open(opts Options) (*Env, error) {
	opts.setDefaults()
	bopts := badger.DefaultOptions(filepath.Join(opts.Dir, "kv")).
		WithReadOnly(opts.ReadOnly).
		WithLogger(nil)
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, storeerr.IO("open", opts.Dir, err)
	}
	arena, err := OpenArena(filepath.Join(opts.Dir, "unitinfo.arena"), opts.InitialArenaSize, NewPlatformMapper())
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Env{
		opts:  opts,
		db:    db,
		arena: arena,
		coord: NewCoordinator(opts.MaxReaders),
		log:   opts.Logger,
	}, nil
}

// Close releases the environment's resources. No in-flight transaction may
// outlive Close.
func (e *Env) Close() error {
	if err := e.arena.Close(); err != nil {
		return err
	}
	return e.db.Close()
}

// Arena exposes the UnitInfo arena for the schema/index layer.
func (e *Env) Arena() *Arena { return e.arena }

// Coordinator exposes the reader-quiesce barrier.
func (e *Env) Coordinator() *Coordinator { return e.coord }

// BeginRead starts a snapshot-isolated read transaction (spec §4.C2):
// reads observe exactly the state as of the last successful commit at the
// time BeginRead is called, regardless of writes that commit afterward.
func (e *Env) BeginRead(ctx context.Context) (*ReadTxn, error) {
	if err := e.coord.EnterReader(ctx); err != nil {
		return nil, err
	}
	txn := e.db.NewTransaction(false)
	return &ReadTxn{env: e, txn: txn}, nil
}

// BeginWrite starts the single write transaction. Callers must serialize
// their own calls to BeginWrite (Badger does not itself block a second
// concurrent writer from being constructed, but only one write transaction
// should ever be open against an Env at a time, per spec §4.C2/§5).
func (e *Env) BeginWrite() (*WriteTxn, error) {
	if e.opts.ReadOnly {
		return nil, fmt.Errorf("store: environment is read-only")
	}
	txn := e.db.NewTransaction(true)
	return &WriteTxn{env: e, txn: txn}, nil
}

// Compact reclaims space from deleted/overwritten keys: it runs Badger's
// value-log GC to the point of diminishing returns, then flattens the LSM
// tree into a single level. Safe to call against a read-only Env (it's a
// no-op there since there is nothing to collect without a writer holding
// a lock badger already manages internally).
func (e *Env) Compact() error {
	for {
		if err := e.db.RunValueLogGC(0.5); err != nil {
			if err == badger.ErrNoRewrite {
				break
			}
			return storeerr.IO("compact", e.opts.Dir, err)
		}
	}
	if err := e.db.Flatten(1); err != nil {
		return storeerr.IO("compact", e.opts.Dir, err)
	}
	return nil
}
