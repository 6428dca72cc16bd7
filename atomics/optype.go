package atomics

import "strconv"

// OpType identifies one atomic operation. The numeric order is significant:
// every kind from OpAdd on is integer arithmetic, every kind from OpOr on
// takes part in the binary or arithmetic families.
type OpType int

const (
	OpLoad OpType = iota
	OpStore

	OpExchange
	OpCmpxchgWeak
	OpCmpxchgStrong

	OpBitTest
	OpBitTestCompl
	OpBitTestSet
	OpBitTestReset

	OpOr
	OpXor
	OpAnd
	OpNot
	OpFetchOr
	OpFetchXor
	OpFetchAnd
	OpFetchNot

	OpAdd
	OpSub
	OpInc
	OpDec
	OpNeg
	OpFetchAdd
	OpFetchSub
	OpFetchInc
	OpFetchDec
	OpFetchNeg

	numOpTypes = int(OpFetchNeg) + 1
)

var opTypeNames = [numOpTypes]string{
	"Load", "Store",
	"Exchange", "CmpxchgWeak", "CmpxchgStrong",
	"BitTest", "BitTestCompl", "BitTestSet", "BitTestReset",
	"Or", "Xor", "And", "Not", "FetchOr", "FetchXor", "FetchAnd", "FetchNot",
	"Add", "Sub", "Inc", "Dec", "Neg", "FetchAdd", "FetchSub", "FetchInc", "FetchDec", "FetchNeg",
}

func (o OpType) String() string {
	if !o.Valid() {
		return "OpType(" + strconv.Itoa(int(o)) + ")"
	}
	return opTypeNames[o]
}

// Valid reports whether o is one of the defined kinds.
func (o OpType) Valid() bool {
	return o >= OpLoad && int(o) < numOpTypes
}

// IsArithmetic reports whether o is only available on integer objects.
func (o OpType) IsArithmetic() bool {
	return o >= OpAdd
}

func (o OpType) IsBinaryOrArithmetic() bool {
	return o >= OpOr
}

func (o OpType) IsCmpxchg() bool {
	return o == OpCmpxchgWeak || o == OpCmpxchgStrong
}

func (o OpType) IsBitTest() bool {
	return o >= OpBitTest && o <= OpBitTestReset
}

// IsFetch reports whether o returns the value held before it ran.
func (o OpType) IsFetch() bool {
	switch o {
	case OpExchange, OpFetchOr, OpFetchXor, OpFetchAnd, OpFetchNot,
		OpFetchAdd, OpFetchSub, OpFetchInc, OpFetchDec, OpFetchNeg:
		return true
	}
	return false
}

// takesOperand reports whether o reads a caller supplied value besides the
// object itself. Compare-exchange takes two and is handled separately.
func (o OpType) takesOperand() bool {
	switch o {
	case OpStore, OpExchange,
		OpOr, OpXor, OpAnd, OpFetchOr, OpFetchXor, OpFetchAnd,
		OpAdd, OpSub, OpFetchAdd, OpFetchSub:
		return true
	}
	return false
}

// AllOpTypes lists every kind in numeric order.
func AllOpTypes() []OpType {
	out := make([]OpType, numOpTypes)
	for i := range out {
		out[i] = OpType(i)
	}
	return out
}
