package native

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"
)

var littleEndian = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// wordCell implements objects of 1..8 bytes on top of the aligned 64-bit
// word that contains them. The object must not straddle two words; the
// published alignment (minimum 1 within 8 bytes) guarantees that.
type wordCell struct {
	width int
}

func (c wordCell) locate(obj unsafe.Pointer) (*uint64, uint, uint64) {
	off := uintptr(obj) & 7
	var shift uint
	if littleEndian {
		shift = uint(off) * 8
	} else {
		shift = (8 - uint(off) - uint(c.width)) * 8
	}
	mask := widthMask(c.width) << shift
	return (*uint64)(unsafe.Add(obj, -int(off))), shift, mask
}

func (c wordCell) load(obj unsafe.Pointer) uint64 {
	ptr, shift, mask := c.locate(obj)
	return (atomic.LoadUint64(ptr) & mask) >> shift
}

func (c wordCell) rmw(obj unsafe.Pointer, f func(uint64) uint64) uint64 {
	ptr, shift, mask := c.locate(obj)
	for {
		cur := atomic.LoadUint64(ptr)
		old := (cur & mask) >> shift
		next := cur&^mask | (f(old)<<shift)&mask
		if atomic.CompareAndSwapUint64(ptr, cur, next) {
			return old
		}
	}
}

func (c wordCell) cas(obj unsafe.Pointer, expected, desired uint64, weak bool) (uint64, bool) {
	ptr, shift, mask := c.locate(obj)
	for {
		cur := atomic.LoadUint64(ptr)
		old := (cur & mask) >> shift
		if old != expected {
			return old, false
		}
		next := cur&^mask | (desired<<shift)&mask
		if atomic.CompareAndSwapUint64(ptr, cur, next) {
			return old, true
		}
		// Only the neighbouring bytes changed. A weak exchange may report
		// that as a spurious failure.
		if weak {
			return old, false
		}
	}
}

func (c wordCell) read(p unsafe.Pointer) uint64 {
	b := unsafe.Slice((*byte)(p), c.width)
	var v uint64
	if littleEndian {
		for i := c.width - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}
		return v
	}
	for i := 0; i < c.width; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func (c wordCell) write(p unsafe.Pointer, v uint64) {
	b := unsafe.Slice((*byte)(p), c.width)
	if littleEndian {
		for i := 0; i < c.width; i++ {
			b[i] = byte(v >> (8 * uint(i)))
		}
		return
	}
	for i := c.width - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

func widthMask(width int) uint64 {
	if width >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(uint(width)*8) - 1
}

// bitShift maps a bit index counted in memory order (bit index%8 of byte
// index/8) onto a shift within the native-endian value.
func bitShift(index, width int) uint {
	byteIdx, bit := index/8, index%8
	if littleEndian {
		return uint(byteIdx*8 + bit)
	}
	return uint((width-1-byteIdx)*8 + bit)
}

func wordAlgebra(width int) *algebra[uint64] {
	mask := widthMask(width)
	return &algebra[uint64]{
		zero: 0,
		one:  1,
		or:   func(a, b uint64) uint64 { return a | b },
		xor:  func(a, b uint64) uint64 { return a ^ b },
		and:  func(a, b uint64) uint64 { return a & b },
		add:  func(a, b uint64) uint64 { return (a + b) & mask },
		sub:  func(a, b uint64) uint64 { return (a - b) & mask },
		not:  func(a uint64) uint64 { return ^a & mask },
		neg:  func(a uint64) uint64 { return -a & mask },
		bit:  func(index int) uint64 { return uint64(1) << bitShift(index, width) },
	}
}
