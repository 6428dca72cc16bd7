package native

import "unsafe"

// Entry point signatures. Every entry point receives the address of the
// atomic object first, operand addresses next, then the ordering code(s).
// Results that are not booleans are written through the trailing ret
// address.
type (
	StoreFunc      func(obj, desired unsafe.Pointer, order int)
	LoadFunc       func(obj unsafe.Pointer, order int, ret unsafe.Pointer)
	ExchangeFunc   func(obj, desired unsafe.Pointer, order int, ret unsafe.Pointer)
	CmpxchgFunc    func(obj, expected, desired unsafe.Pointer, succ, fail int) int
	TestFunc       func(obj unsafe.Pointer, offset int, order int) int
	TestModifyFunc func(obj unsafe.Pointer, offset int, order int) int
	FetchFunc      func(obj, arg unsafe.Pointer, order int, ret unsafe.Pointer)
	FetchNoargFunc func(obj unsafe.Pointer, order int, ret unsafe.Pointer)
	VoidFunc       func(obj, arg unsafe.Pointer, order int)
	VoidNoargFunc  func(obj unsafe.Pointer, order int)
)

// XchgOps holds the exchange family.
type XchgOps struct {
	Exchange      ExchangeFunc
	CmpxchgWeak   CmpxchgFunc
	CmpxchgStrong CmpxchgFunc
}

// BitwiseOps holds the single-bit test family.
type BitwiseOps struct {
	Test      TestFunc
	TestCompl TestModifyFunc
	TestSet   TestModifyFunc
	TestReset TestModifyFunc
}

// BinaryOps holds whole-object bitwise operations.
type BinaryOps struct {
	Or       VoidFunc
	Xor      VoidFunc
	And      VoidFunc
	Not      VoidNoargFunc
	FetchOr  FetchFunc
	FetchXor FetchFunc
	FetchAnd FetchFunc
	FetchNot FetchNoargFunc
}

// ArithmeticOps holds integer arithmetic. Providers publish one set for
// signed and one for unsigned interpretation of the object.
type ArithmeticOps struct {
	Add      VoidFunc
	Sub      VoidFunc
	Inc      VoidNoargFunc
	Dec      VoidNoargFunc
	Neg      VoidNoargFunc
	FetchAdd FetchFunc
	FetchSub FetchFunc
	FetchInc FetchNoargFunc
	FetchDec FetchNoargFunc
	FetchNeg FetchNoargFunc
}

// OpTable is the per-width set of entry points reported by a provider.
// Any entry may be nil, independently of the others.
type OpTable struct {
	Store    StoreFunc
	Load     LoadFunc
	Xchg     XchgOps
	Bitwise  BitwiseOps
	Binary   BinaryOps
	Signed   ArithmeticOps
	Unsigned ArithmeticOps
}

// Alignment describes where an object of a given width may live.
// SizeWithin of zero means there is no wrap-around constraint.
type Alignment struct {
	Recommended uintptr
	Minimum     uintptr
	SizeWithin  uintptr
}

// IsValidRecommended reports whether addr satisfies the recommended
// alignment. A zero Recommended is treated as 1.
func (a Alignment) IsValidRecommended(addr uintptr) bool {
	return addr%max(a.Recommended, 1) == 0
}

// IsValidMinimum reports whether an object of width bytes at addr satisfies
// the minimum alignment and does not cross a SizeWithin boundary. An object
// ending exactly on the boundary is valid.
func (a Alignment) IsValidMinimum(addr uintptr, width int) bool {
	if addr%max(a.Minimum, 1) != 0 {
		return false
	}
	if a.SizeWithin == 0 {
		return true
	}
	return addr%a.SizeWithin+uintptr(width) <= a.SizeWithin
}

// Count returns the number of non-nil entry points. Read-only objects only
// ever use Load and Bitwise.Test, so only those are counted.
func (t *OpTable) Count(readonly bool) int {
	n := b2i(t.Load != nil) + b2i(t.Bitwise.Test != nil)
	if readonly {
		return n
	}

	n += b2i(t.Store != nil)
	n += b2i(t.Xchg.Exchange != nil) + b2i(t.Xchg.CmpxchgWeak != nil) + b2i(t.Xchg.CmpxchgStrong != nil)
	n += b2i(t.Bitwise.TestCompl != nil) + b2i(t.Bitwise.TestSet != nil) + b2i(t.Bitwise.TestReset != nil)

	b := &t.Binary
	n += b2i(b.Or != nil) + b2i(b.Xor != nil) + b2i(b.And != nil) + b2i(b.Not != nil)
	n += b2i(b.FetchOr != nil) + b2i(b.FetchXor != nil) + b2i(b.FetchAnd != nil) + b2i(b.FetchNot != nil)

	return n + t.Signed.count() + t.Unsigned.count()
}

func (a *ArithmeticOps) count() int {
	return b2i(a.Add != nil) + b2i(a.Sub != nil) + b2i(a.Inc != nil) + b2i(a.Dec != nil) + b2i(a.Neg != nil) +
		b2i(a.FetchAdd != nil) + b2i(a.FetchSub != nil) + b2i(a.FetchInc != nil) + b2i(a.FetchDec != nil) + b2i(a.FetchNeg != nil)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
