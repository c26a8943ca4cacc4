package entity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entitykv/entitykv/entity"
	"github.com/entitykv/entitykv/entitytest"
	"github.com/entitykv/entitykv/errs"
	"github.com/entitykv/entitykv/ptr"
)

func TestReadObjectMissingValueRecordsSoftError(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, true)

	p, err := entity.CreateObject(context.Background(), txn, env)
	require.NoError(t, err)
	require.NoError(t, entity.RegisterMember(txn, p, []byte("pending")))

	buf := make([]byte, 4096)
	result, err := entity.ReadObject(txn, p, buf)
	require.NoError(t, err)
	require.Equal(t, 1, result.MemberCount)
	require.Len(t, result.Errors, 1)
	require.Equal(t, entity.SoftMemberMissing, result.Errors[0].Code)

	name, _, hasValue, _ := result.Member(0)
	require.Equal(t, []byte("pending"), name)
	require.False(t, hasValue)
}

func TestReadObjectAbsentEntityIsSoftError(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, false)

	var body [16]byte
	p := ptr.New(ptr.Object, body)

	buf := make([]byte, 4096)
	result, err := entity.ReadObject(txn, p, buf)
	require.NoError(t, err)
	require.Zero(t, result.MemberCount)
	require.Len(t, result.Errors, 1)
	require.Equal(t, entity.SoftEntityNotFound, result.Errors[0].Code)
}

func TestReadObjectBufferTooSmall(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, true)

	p, err := entity.CreateObject(context.Background(), txn, env)
	require.NoError(t, err)
	require.NoError(t, entity.PutMember(txn, p, []byte("k"), []byte("v")))

	buf := make([]byte, 32)
	_, err = entity.ReadObject(txn, p, buf)
	require.ErrorIs(t, err, errs.ErrBufferTooSmall)
}

func TestReadObjectWithValuePacksNameAndValue(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, true)

	p, err := entity.CreateObject(context.Background(), txn, env)
	require.NoError(t, err)
	require.NoError(t, entity.PutMember(txn, p, []byte("name"), []byte("Alice")))

	buf := make([]byte, 4096)
	result, err := entity.ReadObject(txn, p, buf)
	require.NoError(t, err)
	require.Equal(t, 1, result.MemberCount)
	require.Empty(t, result.Errors)

	name, value, hasValue, _ := result.Member(0)
	require.Equal(t, []byte("name"), name)
	require.True(t, hasValue)
	require.Equal(t, []byte("Alice"), value)
}
