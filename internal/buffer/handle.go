// Package buffer manages the memory behind atomic objects: exclusively
// owned aligned allocations, borrowed caller regions, the scoped view
// protocol and memory-mapped shared regions.
package buffer

import (
	"sync/atomic"
	"unsafe"

	"github.com/google/uuid"
)

// AccessMode defines how borrowed memory may be used.
type AccessMode int

const (
	ReadWrite AccessMode = iota
	ReadOnly
)

func (m AccessMode) String() string {
	if m == ReadOnly {
		return "read-only"
	}
	return "read-write"
}

// Writable reports whether the mode permits modification.
func (m AccessMode) Writable() bool {
	return m != ReadOnly
}

const (
	stateUnarmed int32 = iota
	stateArmed
	stateReleased
)

// minAlign is the alignment of every owned allocation. Owned backing
// storage is also rounded up to a multiple of it so that word-sized access
// to the enclosing word never leaves the allocation.
const minAlign = 8

// Handle refers to a contiguous region of width bytes that is either owned
// by the handle or borrowed from the caller. A handle is armed exactly once
// and released at most once; releasing again is a no-op.
//
// Handles do not prevent other handles from aliasing the same memory.
type Handle struct {
	id       uuid.UUID
	state    atomic.Int32
	backing  []byte
	data     []byte
	writable bool
	owned    bool
}

// New returns an unarmed handle.
func New() *Handle {
	return &Handle{id: uuid.New()}
}

// Allocate returns a handle owning width zeroed bytes aligned to align.
func Allocate(width, align int) (*Handle, error) {
	h := New()
	if err := h.Allocate(width, align); err != nil {
		return nil, err
	}
	return h, nil
}

// Capture returns a handle borrowing region.
func Capture(region []byte, mode AccessMode) (*Handle, error) {
	h := New()
	if err := h.Capture(region, mode.Writable()); err != nil {
		return nil, err
	}
	return h, nil
}

// Allocate arms h with a fresh owned allocation. align must be a power of
// two; values below 8 are raised to 8.
func (h *Handle) Allocate(width, align int) error {
	if width < 0 || align < 0 || (align != 0 && align&(align-1) != 0) {
		return &LayoutError{Width: width, Align: align}
	}
	if align < minAlign {
		align = minAlign
	}
	if !h.state.CompareAndSwap(stateUnarmed, stateArmed) {
		return ErrAlreadyInitialized
	}

	size := roundUp(max(width, 1), minAlign)
	backing := make([]byte, size+align)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(backing)))
	off := int(roundUp(int(base), align) - int(base))

	h.backing = backing
	h.data = backing[off : off+width : off+size]
	h.writable = true
	h.owned = true
	return nil
}

// Capture arms h with memory borrowed from the caller. The width of the
// handle is len(region).
func (h *Handle) Capture(region []byte, writable bool) error {
	if !h.state.CompareAndSwap(stateUnarmed, stateArmed) {
		return ErrAlreadyInitialized
	}
	h.backing = region
	h.data = region
	h.writable = writable
	return nil
}

// Release drops the handle's reference to its memory. It is idempotent.
// Borrowed memory is never modified.
func (h *Handle) Release() {
	if h.state.CompareAndSwap(stateArmed, stateReleased) {
		h.backing = nil
		h.data = nil
		return
	}
	h.state.CompareAndSwap(stateUnarmed, stateReleased)
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	return h.state.Load() == stateReleased
}

// Check returns the lifecycle error for the current state, or nil while
// the handle is armed.
func (h *Handle) Check() error {
	switch h.state.Load() {
	case stateArmed:
		return nil
	case stateReleased:
		return ErrUseAfterRelease
	default:
		return ErrUninitialized
	}
}

func (h *Handle) ID() uuid.UUID {
	return h.id
}

// Owned reports whether the memory was allocated by the handle.
func (h *Handle) Owned() bool {
	return h.owned
}

// Pointer returns the start of the region.
func (h *Handle) Pointer() (unsafe.Pointer, error) {
	if err := h.Check(); err != nil {
		return nil, err
	}
	return unsafe.Pointer(unsafe.SliceData(h.data)), nil
}

// Address returns the start of the region as an integer.
func (h *Handle) Address() (uintptr, error) {
	p, err := h.Pointer()
	return uintptr(p), err
}

func (h *Handle) Width() (int, error) {
	if err := h.Check(); err != nil {
		return 0, err
	}
	return len(h.data), nil
}

func (h *Handle) Writable() (bool, error) {
	if err := h.Check(); err != nil {
		return false, err
	}
	return h.writable, nil
}

// Bytes returns the region itself, not a copy.
func (h *Handle) Bytes() ([]byte, error) {
	if err := h.Check(); err != nil {
		return nil, err
	}
	return h.data, nil
}

func roundUp(v, align int) int {
	return (v + align - 1) &^ (align - 1)
}
