package native

import (
	"encoding/binary"
	"math/bits"
	"sync"
	"unsafe"
)

const wideWidth = 16

type u128 struct {
	lo, hi uint64
}

// wideCell implements 16 byte objects with a table of striped mutexes.
// The stripe is picked from the cache line holding the object, so two
// overlapping objects that each stay within one line always share a lock.
type wideCell struct {
	locks []sync.Mutex
	line  uintptr
}

func newWideCell(stripes int, line uintptr) *wideCell {
	return &wideCell{
		locks: make([]sync.Mutex, stripes),
		line:  line,
	}
}

func (c *wideCell) lockFor(obj unsafe.Pointer) *sync.Mutex {
	return &c.locks[(uintptr(obj)/c.line)%uintptr(len(c.locks))]
}

func (c *wideCell) load(obj unsafe.Pointer) u128 {
	mu := c.lockFor(obj)
	mu.Lock()
	defer mu.Unlock()
	return c.read(obj)
}

func (c *wideCell) rmw(obj unsafe.Pointer, f func(u128) u128) u128 {
	mu := c.lockFor(obj)
	mu.Lock()
	defer mu.Unlock()
	old := c.read(obj)
	c.write(obj, f(old))
	return old
}

func (c *wideCell) cas(obj unsafe.Pointer, expected, desired u128, _ bool) (u128, bool) {
	mu := c.lockFor(obj)
	mu.Lock()
	defer mu.Unlock()
	old := c.read(obj)
	if old != expected {
		return old, false
	}
	c.write(obj, desired)
	return old, true
}

func (c *wideCell) read(p unsafe.Pointer) u128 {
	b := unsafe.Slice((*byte)(p), wideWidth)
	if littleEndian {
		return u128{lo: binary.LittleEndian.Uint64(b[0:8]), hi: binary.LittleEndian.Uint64(b[8:16])}
	}
	return u128{hi: binary.BigEndian.Uint64(b[0:8]), lo: binary.BigEndian.Uint64(b[8:16])}
}

func (c *wideCell) write(p unsafe.Pointer, v u128) {
	b := unsafe.Slice((*byte)(p), wideWidth)
	if littleEndian {
		binary.LittleEndian.PutUint64(b[0:8], v.lo)
		binary.LittleEndian.PutUint64(b[8:16], v.hi)
		return
	}
	binary.BigEndian.PutUint64(b[0:8], v.hi)
	binary.BigEndian.PutUint64(b[8:16], v.lo)
}

func wideAlgebra() *algebra[u128] {
	add := func(a, b u128) u128 {
		lo, carry := bits.Add64(a.lo, b.lo, 0)
		hi, _ := bits.Add64(a.hi, b.hi, carry)
		return u128{lo: lo, hi: hi}
	}
	sub := func(a, b u128) u128 {
		lo, borrow := bits.Sub64(a.lo, b.lo, 0)
		hi, _ := bits.Sub64(a.hi, b.hi, borrow)
		return u128{lo: lo, hi: hi}
	}
	return &algebra[u128]{
		zero: u128{},
		one:  u128{lo: 1},
		or:   func(a, b u128) u128 { return u128{lo: a.lo | b.lo, hi: a.hi | b.hi} },
		xor:  func(a, b u128) u128 { return u128{lo: a.lo ^ b.lo, hi: a.hi ^ b.hi} },
		and:  func(a, b u128) u128 { return u128{lo: a.lo & b.lo, hi: a.hi & b.hi} },
		add:  add,
		sub:  sub,
		not:  func(a u128) u128 { return u128{lo: ^a.lo, hi: ^a.hi} },
		neg:  func(a u128) u128 { return sub(u128{}, a) },
		bit: func(index int) u128 {
			shift := bitShift(index, wideWidth)
			if shift < 64 {
				return u128{lo: 1 << shift}
			}
			return u128{hi: 1 << (shift - 64)}
		},
	}
}
