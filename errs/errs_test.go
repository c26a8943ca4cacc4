package errs_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/entitykv/entitykv/errs"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCode(t *testing.T) {
	err := errs.Wrap(errs.ErrMemberNotFound)

	require.True(t, errors.Is(err, errs.ErrMemberNotFound))

	code, ok := errs.Code(err)
	require.True(t, ok)
	require.Equal(t, errs.MemberNotFound, code)
}

func TestCodeFalseForBackendError(t *testing.T) {
	_, ok := errs.Code(errors.New("disk full"))
	require.False(t, ok)
}

func TestStrError(t *testing.T) {
	require.Equal(t, "buffer too small", errs.StrError(errs.BufferTooSmall))
	require.Contains(t, errs.StrError(errs.Errno(-999)), "unknown error")
}
