package idgen_test

import (
	"context"
	"testing"

	"github.com/entitykv/entitykv/idgen"
	"github.com/entitykv/entitykv/ptr"
	"github.com/stretchr/testify/require"
)

func TestUUIDVersionAndVariant(t *testing.T) {
	p, err := idgen.UUID.Generate(context.Background())
	require.NoError(t, err)

	// p[0] is the Ptr tag (untyped until a caller overwrites it), so the
	// UUID body occupies p[1:17]; version lives in byte 6 of the UUID, i.e.
	// p[1+6] = p[7], and the variant in byte 8, i.e. p[1+8] = p[9].
	require.Equal(t, byte(4), p[7]>>4)
	require.Equal(t, byte(0b10), p[9]>>6)
}

func TestUUIDUnique(t *testing.T) {
	seen := map[ptr.Ptr]bool{}
	for i := 0; i < 1000; i++ {
		p, err := idgen.UUID.Generate(context.Background())
		require.NoError(t, err)
		require.False(t, seen[p])
		seen[p] = true
	}
}

func TestUUIDRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idgen.UUID.Generate(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
