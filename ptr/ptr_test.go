package ptr_test

import (
	"strings"
	"testing"

	"github.com/entitykv/entitykv/ptr"
	"github.com/stretchr/testify/require"
)

func TestStringRoundTrip(t *testing.T) {
	var body [16]byte
	for i := range body {
		body[i] = byte(i * 7)
	}

	p := ptr.New(ptr.Object, body)

	s := p.String()
	require.Len(t, s, 34)
	require.Equal(t, strings.ToLower(s), s)

	got, err := ptr.FromString(s)
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestFromStringAcceptsUpperCase(t *testing.T) {
	p := ptr.New(ptr.Array, [16]byte{1, 2, 3})

	upper := strings.ToUpper(p.String())
	got, err := ptr.FromString(upper)
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestFromStringRejectsBadInput(t *testing.T) {
	tests := []string{
		"",
		"deadbeef",
		strings.Repeat("zz", 17),
		strings.Repeat("a", 35),
		strings.Repeat("a", 33),
	}

	for _, s := range tests {
		_, err := ptr.FromString(s)
		require.ErrorIs(t, err, ptr.ErrInvalidPointer)
	}
}

func TestTagAndIs(t *testing.T) {
	p := ptr.New(ptr.Untyped, [16]byte{})
	require.True(t, p.Is(ptr.Untyped))

	p2 := p.WithTag(ptr.Object)
	require.True(t, p2.Is(ptr.Object))
	require.False(t, p2.Is(ptr.Array))
	require.Equal(t, "object", p2.Tag().String())
}
