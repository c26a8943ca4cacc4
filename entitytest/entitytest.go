// Package entitytest provides test helpers for opening an in-memory
// environment and transactions, mirroring the teacher's
// internal/testutil/db.go NewMemPebble/NewTestTx pattern.
package entitytest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entitykv/entitykv/idgen"
	"github.com/entitykv/entitykv/storage"
)

// NewEnv opens an in-memory environment and registers its cleanup.
func NewEnv(t testing.TB) *storage.Env {
	t.Helper()

	env, err := storage.Open("", storage.Options{InMemory: true}, idgen.UUID)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, env.Close())
	})

	return env
}

// NewTxn begins a top-level transaction against env and registers an Abort
// as cleanup, so tests that forget to commit still release the write lock.
func NewTxn(t testing.TB, env *storage.Env, writable bool) *storage.Txn {
	t.Helper()

	txn, err := env.Begin(context.Background(), nil, writable)
	require.NoError(t, err)

	t.Cleanup(func() {
		txn.Abort()
	})

	return txn
}
