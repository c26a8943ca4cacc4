package resultparser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entitykv/entitykv/entity"
	"github.com/entitykv/entitykv/entitytest"
	"github.com/entitykv/entitykv/toolkit/resultparser"
)

func TestObjectParsesMembers(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, true)

	p, err := entity.CreateObject(context.Background(), txn, env)
	require.NoError(t, err)
	require.NoError(t, entity.PutMember(txn, p, []byte("a"), []byte("1")))
	require.NoError(t, entity.RegisterMember(txn, p, []byte("b")))

	buf := make([]byte, 4096)
	result, err := entity.ReadObject(txn, p, buf)
	require.NoError(t, err)

	members := resultparser.Object(result)
	require.Len(t, members, 2)
	require.Equal(t, []byte("a"), members[0].Name)
	require.True(t, members[0].HasValue)
	require.Equal(t, []byte("1"), members[0].Value)
	require.Equal(t, []byte("b"), members[1].Name)
	require.False(t, members[1].HasValue)
}

func TestArrayParsesElements(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, true)

	p, err := entity.CreateArray(context.Background(), txn, env)
	require.NoError(t, err)
	require.NoError(t, entity.AppendElement(txn, p, []byte("b")))
	require.NoError(t, entity.AppendElement(txn, p, []byte("a")))

	buf := make([]byte, 4096)
	result, err := entity.ReadArray(txn, p, buf)
	require.NoError(t, err)

	elements := resultparser.Array(result)
	require.Equal(t, [][]byte{[]byte("a"), []byte("b")}, elements)
}

func TestAuditParsesEmptyReport(t *testing.T) {
	env := entitytest.NewEnv(t)
	txn := entitytest.NewTxn(t, env, true)

	p, err := entity.CreateObject(context.Background(), txn, env)
	require.NoError(t, err)

	buf := make([]byte, 4096)
	report, err := entity.AuditObject(txn, p, buf)
	require.NoError(t, err)
	require.Empty(t, resultparser.Audit(report))
}
