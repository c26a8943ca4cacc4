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

func TestCreateThenStatsAreZero(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, true)

	p, err := entity.CreateObject(context.Background(), txn, env)
	require.NoError(t, err)

	exists, err := entity.Exists(txn, p)
	require.NoError(t, err)
	require.True(t, exists)

	_, count, err := entity.StatMembers(txn, p)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestPutThenGetRoundTrips(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, true)

	p, err := entity.CreateObject(context.Background(), txn, env)
	require.NoError(t, err)
	require.NoError(t, entity.PutMember(txn, p, []byte("name"), []byte("Alice")))

	buf := make([]byte, 16)
	n, err := entity.GetMember(txn, p, []byte("name"), buf)
	require.NoError(t, err)
	require.Equal(t, []byte("Alice"), buf[:n])

	_, err = entity.GetMember(txn, p, []byte("missing"), buf)
	require.ErrorIs(t, err, errs.ErrMemberNotFound)
}

func TestGetMemberBufferTooSmall(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, true)

	p, err := entity.CreateObject(context.Background(), txn, env)
	require.NoError(t, err)
	require.NoError(t, entity.PutMember(txn, p, []byte("name"), []byte("Alice")))

	buf := make([]byte, 3)
	_, err = entity.GetMember(txn, p, []byte("name"), buf)
	require.ErrorIs(t, err, errs.ErrBufferTooSmall)

	buf = make([]byte, 5)
	n, err := entity.GetMember(txn, p, []byte("name"), buf)
	require.NoError(t, err)
	require.Equal(t, []byte("Alice"), buf[:n])
}

func TestPutIsIdempotentInKeySpace(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, true)

	p, err := entity.CreateObject(context.Background(), txn, env)
	require.NoError(t, err)

	require.NoError(t, entity.PutMember(txn, p, []byte("k"), []byte("v1")))
	require.NoError(t, entity.PutMember(txn, p, []byte("k"), []byte("v2")))

	_, count, err := entity.StatMembers(txn, p)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	buf := make([]byte, 16)
	n, err := entity.GetMember(txn, p, []byte("k"), buf)
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), buf[:n])
}

func TestValueDelLeavesMemberRegistered(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, true)

	p, err := entity.CreateObject(context.Background(), txn, env)
	require.NoError(t, err)
	require.NoError(t, entity.PutMember(txn, p, []byte("k"), []byte("v")))
	require.NoError(t, entity.DeleteMemberValue(txn, p, []byte("k")))

	ok, err := entity.MemberValueExists(txn, p, []byte("k"))
	require.NoError(t, err)
	require.False(t, ok)

	_, count, err := entity.StatMembers(txn, p)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestMemberDelRemovesBothRows(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, true)

	p, err := entity.CreateObject(context.Background(), txn, env)
	require.NoError(t, err)
	require.NoError(t, entity.PutMember(txn, p, []byte("k"), []byte("v")))
	require.NoError(t, entity.DeleteMember(txn, p, []byte("k")))

	_, count, err := entity.StatMembers(txn, p)
	require.NoError(t, err)
	require.Zero(t, count)

	_, err = entity.GetMember(txn, p, []byte("k"), make([]byte, 16))
	require.ErrorIs(t, err, errs.ErrMemberNotFound)
}

func TestDeleteObjectRemovesEverything(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, true)

	p, err := entity.CreateObject(context.Background(), txn, env)
	require.NoError(t, err)
	require.NoError(t, entity.PutMember(txn, p, []byte("a"), []byte("1")))
	require.NoError(t, entity.PutMember(txn, p, []byte("b"), []byte("2")))

	require.NoError(t, entity.DeleteObject(txn, p))

	exists, err := entity.Exists(txn, p)
	require.NoError(t, err)
	require.False(t, exists)

	_, count, err := entity.StatValues(txn, p)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestTypeAssertionRejectsWrongTag(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, true)

	p, err := entity.CreateArray(context.Background(), txn, env)
	require.NoError(t, err)

	err = entity.PutMember(txn, p, []byte("k"), []byte("v"))
	require.ErrorIs(t, err, errs.ErrInvalidParam)

	_, count, err := entity.StatElements(txn, p)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestRegisterRejectsExistingEntity(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, true)

	p, err := entity.CreateObject(context.Background(), txn, env)
	require.NoError(t, err)

	err = entity.RegisterObject(txn, p)
	require.ErrorIs(t, err, errs.ErrEntityExists)
}

func TestRegisterRejectsWrongTag(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, true)

	var p ptr.Ptr
	err := entity.RegisterObject(txn, p.WithTag(ptr.Array))
	require.ErrorIs(t, err, errs.ErrInvalidParam)
}
