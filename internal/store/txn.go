package store

import (
	badger "github.com/dgraph-io/badger/v4"

	"github.com/oxhq/indexdb/internal/storeerr"
)

// ReadTxn is a snapshot-isolated read transaction (spec §4.C4). It pins
// the Env's arena mapping at the time it was begun; UnitInfo reads through
// it remain valid only for ReadTxn's lifetime (spec §9).
type ReadTxn struct {
	env *Env
	txn *badger.Txn
}

// Get looks up a single-valued key. A missing key folds to (nil, false),
// matching spec §7's "NotFound ... folded into Option::None at the
// read-API boundary".
func (r *ReadTxn) Get(key []byte) ([]byte, bool, error) {
	item, err := r.txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storeerr.Store("get", "", err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, storeerr.Store("get", "", err)
	}
	return val, true, nil
}

// Has reports whether key exists, without copying its value.
func (r *ReadTxn) Has(key []byte) (bool, error) {
	_, err := r.txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, storeerr.Store("has", "", err)
	}
	return true, nil
}

// PrefixIterate calls fn for every key with the given prefix, in sorted
// (byte-wise) order, stopping early if fn returns false or an error. This
// is how every sorted-duplicates map is scanned (spec §4.C4's "batched
// reads ... using the store's multi-value page capability" maps onto
// Badger's PrefetchValues).
func (r *ReadTxn) PrefixIterate(prefix []byte, fn func(key, value []byte) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = true
	opts.PrefetchSize = 100
	it := r.txn.NewIterator(opts)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			return storeerr.Store("iterate", "", err)
		}
		cont, err := fn(item.KeyCopy(nil), val)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return nil
}

// Arena exposes the read-only arena accessor, for UnitInfo lookups.
func (r *ReadTxn) Arena() *Arena { return r.env.arena }

// Discard releases the read transaction. Safe to call after Commit is
// meaningless for reads; ReadTxn has no Commit, only Discard, matching
// spec §4.C7 ("dropping a transaction handle... discards it").
func (r *ReadTxn) Discard() {
	r.txn.Discard()
	r.env.coord.ExitReader()
}

// WriteTxn is the single serialized write transaction (spec §4.C5).
type WriteTxn struct {
	env       *Env
	txn       *badger.Txn
	committed bool
}

func (w *WriteTxn) Get(key []byte) ([]byte, bool, error) {
	item, err := w.txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storeerr.Store("get", "", err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, storeerr.Store("get", "", err)
	}
	return val, true, nil
}

func (w *WriteTxn) PrefixIterate(prefix []byte, fn func(key, value []byte) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = true
	it := w.txn.NewIterator(opts)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			return storeerr.Store("iterate", "", err)
		}
		cont, err := fn(item.KeyCopy(nil), val)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return nil
}

// Set writes key=value. If the underlying transaction has grown too large
// (Badger's ErrTxnTooBig — this engine's analogue of the spec's MAP_FULL),
// the pending writes are committed and a fresh transaction is opened
// transparently, exactly the "abort, grow, retry" contract from spec
// §4.C2, just without an actual map resize since Badger is disk-backed.
func (w *WriteTxn) Set(key, value []byte) error {
	const maxRetries = 3
	for attempt := 0; ; attempt++ {
		err := w.txn.Set(key, value)
		if err == nil {
			return nil
		}
		if err != badger.ErrTxnTooBig || attempt >= maxRetries {
			return storeerr.Store("set", "", err)
		}
		if cerr := w.txn.Commit(); cerr != nil {
			return storeerr.Store("commit", "", cerr)
		}
		w.txn = w.env.db.NewTransaction(true)
	}
}

// Delete removes key, tolerating absence (idempotent deletes are absorbed
// per spec §7's KeyExist/NotFound policy, applied symmetrically here).
func (w *WriteTxn) Delete(key []byte) error {
	if err := w.txn.Delete(key); err != nil {
		return storeerr.Store("delete", "", err)
	}
	return nil
}

// Arena exposes the writable arena accessor for UnitInfo appends.
func (w *WriteTxn) Arena() *Arena { return w.env.arena }

// Coordinator exposes the reader-quiesce barrier for arena growth.
func (w *WriteTxn) Coordinator() *Coordinator { return w.env.coord }

// Commit atomically publishes every change made within this transaction
// (spec §4.C5's commit()). Once Commit returns, a subsequently started
// ReadTxn observes the new state (spec §4.C7's ordering guarantee).
func (w *WriteTxn) Commit() error {
	if err := w.env.arena.Sync(); err != nil {
		return storeerr.IO("commit", "", err)
	}
	if err := w.txn.Commit(); err != nil {
		return storeerr.Store("commit", "", err)
	}
	w.committed = true
	return nil
}

// Discard rolls back every change made within this transaction. Safe to
// call after Commit (a no-op in that case).
func (w *WriteTxn) Discard() {
	if w.committed {
		return
	}
	w.txn.Discard()
}
