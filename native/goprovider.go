package native

import (
	"unsafe"

	"github.com/klauspost/cpuid/v2"
)

const (
	defaultStripes   = 64
	defaultCacheLine = 64
	wordSize         = 8
)

// GoProviderConfig tunes the in-process provider. Zero values select the
// defaults.
type GoProviderConfig struct {
	// Stripes is the number of locks backing 16 byte objects.
	Stripes int
	// CacheLine overrides the detected cache line size.
	CacheLine int
}

// GoProvider serves widths 1 through 8 lock-free through the enclosing
// 64-bit word and width 16 through striped locks. Every other width
// resolves to an empty table. Ordering codes are accepted but every
// operation runs sequentially consistent, which is valid for all of them.
//
// The stripe locks live in this process. Width 16 objects placed in memory
// shared with another process are therefore not atomic with respect to
// that process; widths 1 through 8 are.
type GoProvider struct {
	line uintptr
	wide *wideCell
}

// NewGoProvider creates an in-process provider.
func NewGoProvider(cfg GoProviderConfig) *GoProvider {
	line := cfg.CacheLine
	if line <= 0 {
		line = cpuid.CPU.CacheLine
	}
	if line < wideWidth {
		line = defaultCacheLine
	}
	stripes := cfg.Stripes
	if stripes <= 0 {
		stripes = defaultStripes
	}

	return &GoProvider{
		line: uintptr(line),
		wide: newWideCell(stripes, uintptr(line)),
	}
}

// CacheLine returns the cache line size used as the wrap size of wide objects.
func (p *GoProvider) CacheLine() uintptr {
	return p.line
}

func (p *GoProvider) Resolve(width int) (OpTable, Alignment, error) {
	switch {
	case width < 0:
		return OpTable{}, Alignment{}, ErrNegativeWidth
	case width >= 1 && width <= wordSize:
		align := Alignment{
			Recommended: nextPow2(uintptr(width)),
			Minimum:     1,
			SizeWithin:  wordSize,
		}
		return buildTable[uint64](wordCell{width: width}, wordAlgebra(width)), align, nil
	case width == wideWidth:
		align := Alignment{
			Recommended: wideWidth,
			Minimum:     wordSize,
			SizeWithin:  p.line,
		}
		return buildTable[u128](p.wide, wideAlgebra()), align, nil
	default:
		return OpTable{}, Alignment{Recommended: 1, Minimum: 1}, nil
	}
}

func (p *GoProvider) CountSupported(table *OpTable, readonly bool) int {
	return table.Count(readonly)
}

func nextPow2(v uintptr) uintptr {
	n := uintptr(1)
	for n < v {
		n <<= 1
	}
	return n
}

// cell is the storage strategy behind a table: how an object is read and
// modified atomically, and how operand scratch memory is decoded.
type cell[V comparable] interface {
	load(obj unsafe.Pointer) V
	rmw(obj unsafe.Pointer, f func(V) V) V
	cas(obj unsafe.Pointer, expected, desired V, weak bool) (V, bool)
	read(p unsafe.Pointer) V
	write(p unsafe.Pointer, v V)
}

// algebra is the value arithmetic for one width.
type algebra[V comparable] struct {
	zero, one    V
	or, xor, and func(a, b V) V
	add, sub     func(a, b V) V
	not, neg     func(a V) V
	bit          func(index int) V
}

func buildTable[V comparable](c cell[V], alg *algebra[V]) OpTable {
	var t OpTable

	t.Store = func(obj, desired unsafe.Pointer, _ int) {
		v := c.read(desired)
		c.rmw(obj, func(V) V { return v })
	}
	t.Load = func(obj unsafe.Pointer, _ int, ret unsafe.Pointer) {
		c.write(ret, c.load(obj))
	}

	t.Xchg = XchgOps{
		Exchange: func(obj, desired unsafe.Pointer, _ int, ret unsafe.Pointer) {
			v := c.read(desired)
			c.write(ret, c.rmw(obj, func(V) V { return v }))
		},
		CmpxchgWeak:   cmpxchg(c, true),
		CmpxchgStrong: cmpxchg(c, false),
	}

	testModify := func(f func(v, m V) V) TestModifyFunc {
		return func(obj unsafe.Pointer, offset int, _ int) int {
			m := alg.bit(offset)
			old := c.rmw(obj, func(v V) V { return f(v, m) })
			return b2i(alg.and(old, m) != alg.zero)
		}
	}
	t.Bitwise = BitwiseOps{
		Test: func(obj unsafe.Pointer, offset int, _ int) int {
			return b2i(alg.and(c.load(obj), alg.bit(offset)) != alg.zero)
		},
		TestCompl: testModify(alg.xor),
		TestSet:   testModify(alg.or),
		TestReset: testModify(func(v, m V) V { return alg.and(v, alg.not(m)) }),
	}

	t.Binary = BinaryOps{
		Or:       void(c, alg.or),
		Xor:      void(c, alg.xor),
		And:      void(c, alg.and),
		Not:      voidNoarg(c, alg.not),
		FetchOr:  fetch(c, alg.or),
		FetchXor: fetch(c, alg.xor),
		FetchAnd: fetch(c, alg.and),
		FetchNot: fetchNoarg(c, alg.not),
	}

	inc := func(v V) V { return alg.add(v, alg.one) }
	dec := func(v V) V { return alg.sub(v, alg.one) }
	// Two's complement arithmetic is identical for both interpretations.
	arith := ArithmeticOps{
		Add:      void(c, alg.add),
		Sub:      void(c, alg.sub),
		Inc:      voidNoarg(c, inc),
		Dec:      voidNoarg(c, dec),
		Neg:      voidNoarg(c, alg.neg),
		FetchAdd: fetch(c, alg.add),
		FetchSub: fetch(c, alg.sub),
		FetchInc: fetchNoarg(c, inc),
		FetchDec: fetchNoarg(c, dec),
		FetchNeg: fetchNoarg(c, alg.neg),
	}
	t.Signed = arith
	t.Unsigned = arith

	return t
}

func cmpxchg[V comparable](c cell[V], weak bool) CmpxchgFunc {
	return func(obj, expected, desired unsafe.Pointer, _, _ int) int {
		cur, ok := c.cas(obj, c.read(expected), c.read(desired), weak)
		if !ok {
			c.write(expected, cur)
		}
		return b2i(ok)
	}
}

func void[V comparable](c cell[V], op func(a, b V) V) VoidFunc {
	return func(obj, arg unsafe.Pointer, _ int) {
		v := c.read(arg)
		c.rmw(obj, func(old V) V { return op(old, v) })
	}
}

func voidNoarg[V comparable](c cell[V], op func(a V) V) VoidNoargFunc {
	return func(obj unsafe.Pointer, _ int) {
		c.rmw(obj, op)
	}
}

func fetch[V comparable](c cell[V], op func(a, b V) V) FetchFunc {
	return func(obj, arg unsafe.Pointer, _ int, ret unsafe.Pointer) {
		v := c.read(arg)
		c.write(ret, c.rmw(obj, func(old V) V { return op(old, v) }))
	}
}

func fetchNoarg[V comparable](c cell[V], op func(a V) V) FetchNoargFunc {
	return func(obj unsafe.Pointer, _ int, ret unsafe.Pointer) {
		c.write(ret, c.rmw(obj, op))
	}
}
