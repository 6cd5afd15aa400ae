package indexdb

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/oxhq/indexdb/internal/codec"
	"github.com/oxhq/indexdb/internal/config"
	"github.com/oxhq/indexdb/internal/index"
	"github.com/oxhq/indexdb/internal/logging"
	"github.com/oxhq/indexdb/internal/meta"
	"github.com/oxhq/indexdb/internal/store"
)

// DB is the opened database handle: one key-value environment, one
// version/fault-recovery guard, and the prefix-mapping table (spec §4.C1).
// The table is exposed through Prefixes; Read and Write do not apply it to
// any path.
type DB struct {
	env      *store.Env
	guard    *meta.Guard
	prefixes *codec.PrefixTable
	log      *zap.Logger
}

// Open opens (creating and recovering as needed) the database described by
// opts.
func Open(opts Options) (*DB, error) {
	if opts.DatabasePath == "" {
		return nil, fmt.Errorf("indexdb: DatabasePath is required")
	}
	log, err := logging.New(opts.Verbose)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.DatabasePath, 0o755); err != nil {
		return nil, fmt.Errorf("indexdb: create database directory: %w", err)
	}

	var recovered bool
	var archivedDir string
	if !opts.ReadOnly {
		recovered, archivedDir, err = meta.CheckAndRecover(opts.DatabasePath, log)
		if err != nil {
			return nil, err
		}
	}

	guard, err := meta.OpenGuard(opts.DatabasePath, log)
	if err != nil {
		return nil, err
	}
	if recovered {
		if err := guard.RecordRecovery(archivedDir, "crash mid-resize", toCodecMappings(opts.PrefixMappings)); err != nil {
			guard.Close()
			return nil, err
		}
	}
	writerIdentity := writerIdentity()
	if !opts.ReadOnly {
		if err := guard.Check(writerIdentity); err != nil {
			guard.Close()
			return nil, err
		}
	}

	env, err := store.Open(store.Options{
		Dir:              opts.DatabasePath,
		ReadOnly:         opts.ReadOnly,
		InitialArenaSize: opts.InitialArenaSize,
		MaxReaders:       int64(opts.MaxReaders),
		Logger:           log,
	})
	if err != nil {
		guard.Close()
		return nil, err
	}
	env.Coordinator().SetResizeHook(meta.NewResizeMarker(opts.DatabasePath))

	prefixes := codec.NewPrefixTable(toCodecMappings(opts.PrefixMappings))

	return &DB{env: env, guard: guard, prefixes: prefixes, log: log}, nil
}

func toCodecMappings(in []config.PrefixMapping) []codec.PrefixMapping {
	out := make([]codec.PrefixMapping, 0, len(in))
	for _, m := range in {
		out = append(out, codec.PrefixMapping{Original: m.Original, Replacement: m.Replacement})
	}
	return out
}

func writerIdentity() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s:%d", host, os.Getpid())
}

// Prefixes exposes the prefix-mapping table so callers can register
// additional mappings at runtime (spec §4.C1 requires both directions be
// usable, registered explicitly by the host).
func (db *DB) Prefixes() *codec.PrefixTable { return db.prefixes }

// Read begins a snapshot-isolated read transaction and returns the C4
// query API over it. Callers must call Discard when done.
func (db *DB) Read(ctx context.Context) (*index.Reader, *store.ReadTxn, error) {
	txn, err := db.env.BeginRead(ctx)
	if err != nil {
		return nil, nil, err
	}
	return index.NewReader(txn), txn, nil
}

// Write begins an import transaction and returns the C5 mutation API over
// it. Callers must call Commit or Discard when done. Write neither waits for
// nor refuses a second import transaction while one is already open.
func (db *DB) Write() (*index.Importer, *store.WriteTxn, error) {
	txn, err := db.env.BeginWrite()
	if err != nil {
		return nil, nil, err
	}
	return index.NewImporter(txn), txn, nil
}

// Compact reclaims space left behind by deleted or superseded map entries.
// It is an operator action, not part of the spec's transaction API, and is
// safe to run concurrently with readers.
func (db *DB) Compact() error {
	return db.env.Compact()
}

// Close releases every resource Open acquired.
func (db *DB) Close() error {
	if err := db.env.Close(); err != nil {
		db.guard.Close()
		return err
	}
	return db.guard.Close()
}
