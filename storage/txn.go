package storage

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"

	"github.com/entitykv/entitykv/errs"
)

// ErrKeyNotFound is returned by Get when the key is absent, mirroring the
// teacher's kv.ErrKeyNotFound sentinel.
var ErrKeyNotFound = errors.New("key not found")

// Txn is a nested read or write transaction over an Env, implementing
// spec §4.2 and the concurrency contract of spec §5.
//
// A top-level write transaction owns one indexed pebble.Batch, flushed to
// the backend only on its own Commit. A nested write transaction (Begin
// called with a writable parent) shares that same Batch and is
// implemented as a savepoint (see savepoint.go): its writes land directly
// in the parent's Batch, visible to the parent immediately, and are only
// unwound if the nested transaction itself is aborted.
type Txn struct {
	env      *Env
	parent   *Txn
	writable bool
	depth    int

	batch *pebble.Batch
	snap  *pebble.Snapshot
	sp    *savepoint

	done bool
}

// Begin opens a transaction. parent may be nil (top-level) or a writable
// transaction (nested), per spec §4.2; a read-only parent fails with
// ErrReadOnlyParent without touching storage.
func (e *Env) Begin(ctx context.Context, parent *Txn, writable bool) (*Txn, error) {
	if e.closed.Load() {
		return nil, errEnvClosed
	}

	if parent != nil {
		if !parent.writable {
			return nil, errs.Wrap(errs.ErrReadOnlyParent)
		}
		if parent.done {
			return nil, errors.New("parent transaction is no longer valid")
		}

		t := &Txn{
			env:      e,
			parent:   parent,
			writable: writable,
			depth:    parent.depth + 1,
			batch:    parent.batch,
		}
		if writable {
			t.sp = newSavepoint()
		}
		return t, nil
	}

	if writable {
		if err := e.writeMu.lock(ctx); err != nil {
			return nil, err
		}
		return &Txn{
			env:      e,
			writable: true,
			batch:    e.db.NewIndexedBatch(),
		}, nil
	}

	return &Txn{
		env:  e,
		snap: e.db.NewSnapshot(),
	}, nil
}

// IsReadOnly reports the transaction's mode.
func (t *Txn) IsReadOnly() bool {
	return !t.writable
}

func (t *Txn) reader() pebble.Reader {
	if t.batch != nil {
		return t.batch
	}
	return t.snap
}

// Get returns the value stored at key, or ErrKeyNotFound.
func (t *Txn) Get(key []byte) ([]byte, error) {
	return get(t.reader(), key)
}

// Exists reports whether key is present.
func (t *Txn) Exists(key []byte) (bool, error) {
	return exists(t.reader(), key)
}

// Put writes key=value unconditionally, requiring a write transaction.
func (t *Txn) Put(key, value []byte) error {
	if !t.writable {
		return errs.Wrap(errs.ErrReadOnlyTxn)
	}

	if t.sp != nil {
		prior, found, err := get3(t.batch, key)
		if err != nil {
			return err
		}
		t.sp.record(key, prior, found)
	}

	return t.batch.Set(key, value, nil)
}

// Delete removes key, requiring a write transaction. Deleting an absent
// key is not an error: callers that need existence semantics check first.
func (t *Txn) Delete(key []byte) error {
	if !t.writable {
		return errs.Wrap(errs.ErrReadOnlyTxn)
	}

	if t.sp != nil {
		prior, found, err := get3(t.batch, key)
		if err != nil {
			return err
		}
		t.sp.record(key, prior, found)
	}

	return t.batch.Delete(key, nil)
}

// DeleteRange removes every key in [start, end), requiring a write
// transaction.
//
// DeleteRange inside a nested transaction is not supported: recording an
// undo log for an unbounded range would require enumerating it twice, so
// callers that need a reversible range clear should delete keys one by
// one (entity.DeleteObject and entity.DeleteArray do exactly that, via an
// iterator) rather than call this from inside a savepoint.
func (t *Txn) DeleteRange(start, end []byte) error {
	if !t.writable {
		return errs.Wrap(errs.ErrReadOnlyTxn)
	}
	if t.sp != nil {
		return errors.New("DeleteRange is not supported inside a nested transaction")
	}

	return t.batch.DeleteRange(start, end, nil)
}

// NewIter opens a forward iterator bounded to [lower, upper).
func (t *Txn) NewIter(lower, upper []byte) (*pebble.Iterator, error) {
	return t.reader().NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})
}

// Commit persists the transaction. For a top-level write transaction this
// flushes its batch to the backend; for a nested write transaction it
// hands its savepoint's pre-images to a nested parent (or drops them under
// a top-level parent), leaving the writes staged in the shared batch until
// the outermost Commit. Committing a read-only transaction
// just releases its snapshot, mirroring the backend's own read-transaction
// lifecycle rather than treating it as an error.
func (t *Txn) Commit() error {
	if t.done {
		return errors.New("transaction has already been committed or aborted")
	}
	t.done = true

	if !t.writable {
		if t.snap != nil {
			return t.snap.Close()
		}
		return nil
	}

	if t.parent != nil {
		// Hand the pre-images over to a nested parent, so that aborting
		// the parent also undoes the writes this transaction published.
		if t.parent.sp != nil {
			for k, existed := range t.sp.existed {
				t.parent.sp.record([]byte(k), t.sp.prior[k], existed)
			}
		}
		t.sp = nil
		return nil
	}

	defer t.env.writeMu.unlock()

	if err := t.batch.Commit(t.env.writeOptions()); err != nil {
		return err
	}
	return t.batch.Close()
}

// Abort discards the transaction. For a nested write transaction this
// replays its savepoint against the shared batch, undoing exactly the
// writes this transaction made; ancestor writes are untouched.
func (t *Txn) Abort() error {
	if t.done {
		return errors.New("transaction has already been committed or aborted")
	}
	t.done = true

	if !t.writable {
		if t.snap != nil {
			return t.snap.Close()
		}
		return nil
	}

	if t.parent != nil {
		err := t.sp.undo(func(key, prior []byte, existed bool) error {
			if existed {
				return t.batch.Set(key, prior, nil)
			}
			return t.batch.Delete(key, nil)
		})
		t.sp = nil
		return err
	}

	defer t.env.writeMu.unlock()
	return t.batch.Close()
}

func get(r pebble.Reader, key []byte) ([]byte, error) {
	v, found, err := get3(r, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.WithStack(ErrKeyNotFound)
	}
	return v, nil
}

func exists(r pebble.Reader, key []byte) (bool, error) {
	_, found, err := get3(r, key)
	return found, err
}

// get3 returns (value, found, error), copying the value out of pebble's
// internal buffer before the closer is released, the same pattern as the
// teacher's internal/kv/pebble/session.go get().
func get3(r pebble.Reader, key []byte) ([]byte, bool, error) {
	v, closer, err := r.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	cp := make([]byte, len(v))
	copy(cp, v)

	if err := closer.Close(); err != nil {
		return nil, false, err
	}

	return cp, true, nil
}
