package dataerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := New(MissingArray, "DC/Cell/Foo", "array %q not found", "Foo")
	wrapped := fmt.Errorf("step failed: %w", err)

	assert.ErrorIs(t, wrapped, MissingArray)
	assert.NotErrorIs(t, wrapped, MissingContainer)
	assert.Equal(t, MissingArray, KindOf(wrapped))
	assert.Equal(t, -80004, CodeOf(wrapped))
	assert.Equal(t, "DC/Cell/Foo", PathOf(wrapped))
}

func TestError_Message(t *testing.T) {
	err := New(TypeMismatch, "DC/Cell/Foo", "array holds float32").WithSupported([]string{"int8", "uint8"})
	assert.Equal(t, `type mismatch at "DC/Cell/Foo": array holds float32 (supported: int8, uint8)`, err.Error())

	noPath := New(InvalidParameter, "", "value out of range")
	assert.Equal(t, "invalid parameter: value out of range", noPath.Error())
}

func TestWrap_Unwraps(t *testing.T) {
	base := errors.New("disk full")
	err := Wrap(Compute, "", base).WithCode(-4242)

	require.ErrorIs(t, err, base)
	assert.Equal(t, -4242, CodeOf(err))
}

func TestCodeOf_ForeignErrors(t *testing.T) {
	assert.Equal(t, 0, CodeOf(nil))
	assert.Equal(t, -1, CodeOf(errors.New("plain")))
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
}

func TestKindCodes_AreNegativeAndDistinct(t *testing.T) {
	seen := map[int]Kind{}
	for k := Unknown; k <= NotValidated; k++ {
		code := k.Code()
		assert.Negative(t, code, k.String())
		prev, dup := seen[code]
		assert.False(t, dup, "%s shares code %d with %s", k, code, prev)
		seen[code] = k
	}
}
