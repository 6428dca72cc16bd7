package atomics

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/nmxmxh/atomics/native"
)

// Capabilities is what the provider reported for one width.
type Capabilities struct {
	Width     int
	Table     native.OpTable
	Alignment native.Alignment

	readWrite int
	readOnly  int
}

// Count reports the number of usable entry points under the access mode.
func (c *Capabilities) Count(readonly bool) int {
	if readonly {
		return c.readOnly
	}
	return c.readWrite
}

// Supported reports whether at least one operation is usable.
func (c *Capabilities) Supported(readonly bool) bool {
	return c.Count(readonly) > 0
}

// Ops lists the operation kinds available to an object with the given
// shape, in numeric order.
func (c *Capabilities) Ops(integral, signed, readonly bool) []OpType {
	return c.reduce(integral, signed, readonly).list()
}

// opSet is the reduced operation table of one object. Entries hold the
// native function value for the kind and are never nil interfaces wrapping
// nil functions.
type opSet struct {
	entries [numOpTypes]any
	kinds   *bitset.BitSet
}

func (c *Capabilities) reduce(integral, signed, readonly bool) *opSet {
	s := &opSet{kinds: bitset.New(uint(numOpTypes))}
	for i := 0; i < numOpTypes; i++ {
		op := OpType(i)
		if !integral && op.IsArithmetic() {
			continue
		}
		if readonly && op != OpLoad && op != OpBitTest {
			continue
		}
		if fn, ok := entryFor(&c.Table, op, signed); ok {
			s.entries[op] = fn
			s.kinds.Set(uint(op))
		}
	}
	return s
}

func (s *opSet) lookup(op OpType) (any, bool) {
	if !op.Valid() || !s.kinds.Test(uint(op)) {
		return nil, false
	}
	return s.entries[op], true
}

func (s *opSet) list() []OpType {
	out := make([]OpType, 0, s.kinds.Count())
	for i, ok := s.kinds.NextSet(0); ok; i, ok = s.kinds.NextSet(i + 1) {
		out = append(out, OpType(i))
	}
	return out
}

func (s *opSet) len() int {
	return int(s.kinds.Count())
}

// entryFor picks the entry point for op out of t. Arithmetic entries come
// from the signed or unsigned set.
func entryFor(t *native.OpTable, op OpType, signed bool) (any, bool) {
	arith := &t.Unsigned
	if signed {
		arith = &t.Signed
	}

	switch op {
	case OpLoad:
		return t.Load, t.Load != nil
	case OpStore:
		return t.Store, t.Store != nil
	case OpExchange:
		return t.Xchg.Exchange, t.Xchg.Exchange != nil
	case OpCmpxchgWeak:
		return t.Xchg.CmpxchgWeak, t.Xchg.CmpxchgWeak != nil
	case OpCmpxchgStrong:
		return t.Xchg.CmpxchgStrong, t.Xchg.CmpxchgStrong != nil
	case OpBitTest:
		return t.Bitwise.Test, t.Bitwise.Test != nil
	case OpBitTestCompl:
		return t.Bitwise.TestCompl, t.Bitwise.TestCompl != nil
	case OpBitTestSet:
		return t.Bitwise.TestSet, t.Bitwise.TestSet != nil
	case OpBitTestReset:
		return t.Bitwise.TestReset, t.Bitwise.TestReset != nil
	case OpOr:
		return t.Binary.Or, t.Binary.Or != nil
	case OpXor:
		return t.Binary.Xor, t.Binary.Xor != nil
	case OpAnd:
		return t.Binary.And, t.Binary.And != nil
	case OpNot:
		return t.Binary.Not, t.Binary.Not != nil
	case OpFetchOr:
		return t.Binary.FetchOr, t.Binary.FetchOr != nil
	case OpFetchXor:
		return t.Binary.FetchXor, t.Binary.FetchXor != nil
	case OpFetchAnd:
		return t.Binary.FetchAnd, t.Binary.FetchAnd != nil
	case OpFetchNot:
		return t.Binary.FetchNot, t.Binary.FetchNot != nil
	case OpAdd:
		return arith.Add, arith.Add != nil
	case OpSub:
		return arith.Sub, arith.Sub != nil
	case OpInc:
		return arith.Inc, arith.Inc != nil
	case OpDec:
		return arith.Dec, arith.Dec != nil
	case OpNeg:
		return arith.Neg, arith.Neg != nil
	case OpFetchAdd:
		return arith.FetchAdd, arith.FetchAdd != nil
	case OpFetchSub:
		return arith.FetchSub, arith.FetchSub != nil
	case OpFetchInc:
		return arith.FetchInc, arith.FetchInc != nil
	case OpFetchDec:
		return arith.FetchDec, arith.FetchDec != nil
	case OpFetchNeg:
		return arith.FetchNeg, arith.FetchNeg != nil
	}
	return nil, false
}
