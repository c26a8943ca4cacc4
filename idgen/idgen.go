// Package idgen provides the pluggable identifier generator used by
// entity.CreateObject/CreateArray operations.
package idgen

import (
	"context"

	"github.com/google/uuid"

	"github.com/entitykv/entitykv/ptr"
)

// Generator produces the body of a new Ptr. The returned Ptr's tag byte is
// meaningless; callers overwrite it with ptr.WithTag before storing it.
// Implementations must be safe for concurrent use, since the environment
// shares one generator across every transaction.
type Generator interface {
	Generate(ctx context.Context) (ptr.Ptr, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context) (ptr.Ptr, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context) (ptr.Ptr, error) {
	return f(ctx)
}

// UUID generates a version-4 UUID into bytes 1..16 of the Ptr, using
// google/uuid's cryptographically seeded random source. Byte 0 is left
// Untyped; the caller overwrites it. uuid.NewRandom already sets the
// version nibble (byte 7) and variant bits (byte 9) required by spec §4.1,
// so no further bit twiddling is needed here.
var UUID Generator = GeneratorFunc(func(ctx context.Context) (ptr.Ptr, error) {
	select {
	case <-ctx.Done():
		return ptr.Ptr{}, ctx.Err()
	default:
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return ptr.Ptr{}, err
	}

	var body [16]byte
	copy(body[:], id[:])

	return ptr.New(ptr.Untyped, body), nil
})
