package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entitykv/entitykv/entitytest"
	"github.com/entitykv/entitykv/storage"
)

func TestOpenAndClose(t *testing.T) {
	env, err := storage.Open("", storage.Options{InMemory: true}, nil)
	require.NoError(t, err)
	require.NotNil(t, env.Generator())
	require.NoError(t, env.Close())
}

func TestWriteTxnSerializesWriters(t *testing.T) {
	env := entitytest.NewEnv(t)

	t1, err := env.Begin(context.Background(), nil, true)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = env.Begin(ctx, nil, true)
	require.ErrorIs(t, err, context.Canceled)

	require.NoError(t, t1.Commit())
}

func TestReadTxnsDoNotBlockEachOther(t *testing.T) {
	env := entitytest.NewEnv(t)

	r1, err := env.Begin(context.Background(), nil, false)
	require.NoError(t, err)
	r2, err := env.Begin(context.Background(), nil, false)
	require.NoError(t, err)

	require.NoError(t, r1.Commit())
	require.NoError(t, r2.Commit())
}

func TestWriteLockReleasedAfterCommit(t *testing.T) {
	env := entitytest.NewEnv(t)

	t1 := entitytest.NewTxn(t, env, true)
	require.NoError(t, t1.Commit())

	t2, err := env.Begin(context.Background(), nil, true)
	require.NoError(t, err)
	require.NoError(t, t2.Commit())
}

func TestWriteLockReleasedAfterAbort(t *testing.T) {
	env := entitytest.NewEnv(t)

	t1 := entitytest.NewTxn(t, env, true)
	require.NoError(t, t1.Abort())

	t2, err := env.Begin(context.Background(), nil, true)
	require.NoError(t, err)
	require.NoError(t, t2.Commit())
}
