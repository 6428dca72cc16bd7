package atomics

import "strconv"

// MemoryOrder is the ordering constraint passed with every operation. The
// numeric values are the codes handed to the provider; they are not ordered
// by strength and are only compared when validating a failure order.
type MemoryOrder int

const (
	Relaxed MemoryOrder = 0
	// 1 is reserved for consume and is rejected everywhere.
	Acquire MemoryOrder = 2
	Release MemoryOrder = 3
	AcqRel  MemoryOrder = 4
	SeqCst  MemoryOrder = 5
)

func (m MemoryOrder) String() string {
	switch m {
	case Relaxed:
		return "Relaxed"
	case Acquire:
		return "Acquire"
	case Release:
		return "Release"
	case AcqRel:
		return "AcqRel"
	case SeqCst:
		return "SeqCst"
	}
	return "MemoryOrder(" + strconv.Itoa(int(m)) + ")"
}

// IsDefined reports whether m is one of the exported orders.
func (m MemoryOrder) IsDefined() bool {
	switch m {
	case Relaxed, Acquire, Release, AcqRel, SeqCst:
		return true
	}
	return false
}

func (m MemoryOrder) IsValidStoreOrder() bool {
	return m.IsDefined() && m != Acquire && m != AcqRel
}

func (m MemoryOrder) IsValidLoadOrder() bool {
	return m.IsDefined() && m != Release && m != AcqRel
}

// IsValidFailOrder reports whether m may be used as the failure order of a
// compare-exchange whose success order is succ.
func (m MemoryOrder) IsValidFailOrder(succ MemoryOrder) bool {
	return m <= succ && m.IsValidLoadOrder()
}

// checkOrder applies the legality rule that matches op. fail is only
// consulted for compare-exchange.
func checkOrder(op OpType, order, fail MemoryOrder) error {
	switch {
	case op == OpStore:
		if !order.IsValidStoreOrder() {
			return &MemoryOrderError{Op: op, Order: order}
		}
	case op == OpLoad || op == OpBitTest:
		if !order.IsValidLoadOrder() {
			return &MemoryOrderError{Op: op, Order: order}
		}
	case op.IsCmpxchg():
		if !order.IsDefined() {
			return &MemoryOrderError{Op: op, Order: order}
		}
		if !fail.IsValidFailOrder(order) {
			return &MemoryOrderError{Op: op, Order: fail, IsFail: true}
		}
	default:
		if !order.IsDefined() {
			return &MemoryOrderError{Op: op, Order: order}
		}
	}
	return nil
}
