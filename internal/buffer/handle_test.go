package buffer

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateAlignedAndZeroed(t *testing.T) {
	for _, tc := range []struct{ width, align int }{
		{1, 1}, {3, 4}, {8, 8}, {16, 16}, {16, 64}, {0, 0},
	} {
		h, err := Allocate(tc.width, tc.align)
		require.NoError(t, err)

		addr, err := h.Address()
		require.NoError(t, err)
		assert.Zero(t, addr%uintptr(max(tc.align, minAlign)), "width=%d align=%d", tc.width, tc.align)

		data, err := h.Bytes()
		require.NoError(t, err)
		assert.Len(t, data, tc.width)
		for _, b := range data {
			assert.Zero(t, b)
		}

		writable, err := h.Writable()
		require.NoError(t, err)
		assert.True(t, writable)
		assert.True(t, h.Owned())
	}
}

func TestAllocateRejectsBadLayout(t *testing.T) {
	_, err := Allocate(4, 3)
	var layoutErr *LayoutError
	require.ErrorAs(t, err, &layoutErr)
	assert.Equal(t, ErrCodeInvalidLayout, layoutErr.Code())

	_, err = Allocate(-1, 8)
	assert.ErrorAs(t, err, &layoutErr)
}

func TestCaptureBorrowsRegion(t *testing.T) {
	region := make([]byte, 8)
	h, err := Capture(region, ReadOnly)
	require.NoError(t, err)

	p, err := h.Pointer()
	require.NoError(t, err)
	assert.Equal(t, unsafe.Pointer(&region[0]), p)

	width, err := h.Width()
	require.NoError(t, err)
	assert.Equal(t, 8, width)

	writable, err := h.Writable()
	require.NoError(t, err)
	assert.False(t, writable)
	assert.False(t, h.Owned())
}

func TestSecondArmFails(t *testing.T) {
	h := New()
	require.NoError(t, h.Capture(make([]byte, 4), true))
	assert.ErrorIs(t, h.Capture(make([]byte, 4), true), ErrAlreadyInitialized)
	assert.ErrorIs(t, h.Allocate(4, 8), ErrAlreadyInitialized)
}

func TestUnarmedHandle(t *testing.T) {
	h := New()
	_, err := h.Address()
	assert.ErrorIs(t, err, ErrUninitialized)
}

func TestReleaseIdempotent(t *testing.T) {
	h, err := Allocate(8, 8)
	require.NoError(t, err)

	h.Release()
	h.Release()
	assert.True(t, h.Released())

	_, err = h.Address()
	assert.ErrorIs(t, err, ErrUseAfterRelease)
	_, err = h.Width()
	assert.ErrorIs(t, err, ErrUseAfterRelease)
	_, err = h.Writable()
	assert.ErrorIs(t, err, ErrUseAfterRelease)
	_, err = h.Bytes()
	assert.ErrorIs(t, err, ErrUseAfterRelease)

	// a released handle cannot be re-armed
	assert.ErrorIs(t, h.Capture(make([]byte, 8), true), ErrAlreadyInitialized)
}

func TestReleaseLeavesBorrowedMemoryIntact(t *testing.T) {
	region := []byte{1, 2, 3, 4}
	h, err := Capture(region, ReadWrite)
	require.NoError(t, err)
	h.Release()
	assert.Equal(t, []byte{1, 2, 3, 4}, region)
}

func TestHandleIDsAreUnique(t *testing.T) {
	assert.NotEqual(t, New().ID(), New().ID())
}

func TestLifecycleErrorCodes(t *testing.T) {
	var lifecycle *LifecycleError
	require.True(t, errors.As(ErrScopeOpen, &lifecycle))
	assert.Equal(t, ErrCodeScopeOpen, lifecycle.Code())
	assert.Contains(t, ErrUseAfterRelease.Error(), ErrCodeUseAfterRelease)
}
