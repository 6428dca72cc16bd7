package atomics

import (
	"fmt"
	"math/big"
)

// IntegralAtomic is the operation set of integer objects. Values are
// width byte two's complement integers; signedness only affects how they
// are encoded, decoded and range checked.
type IntegralAtomic interface {
	Width() int
	Readonly() bool
	Signed() bool
	OpsSupported() []OpType
	Released() bool

	Store(desired *big.Int, order MemoryOrder) error
	Load(order MemoryOrder) (*big.Int, error)
	Exchange(desired *big.Int, order MemoryOrder) (*big.Int, error)
	CmpxchgWeak(expected, desired *big.Int, succ, fail MemoryOrder) (CmpxchgResult[*big.Int], error)
	CmpxchgStrong(expected, desired *big.Int, succ, fail MemoryOrder) (CmpxchgResult[*big.Int], error)

	BitTest(index int, order MemoryOrder) (bool, error)
	BitTestCompl(index int, order MemoryOrder) (bool, error)
	BitTestSet(index int, order MemoryOrder) (bool, error)
	BitTestReset(index int, order MemoryOrder) (bool, error)

	Or(value *big.Int, order MemoryOrder) error
	Xor(value *big.Int, order MemoryOrder) error
	And(value *big.Int, order MemoryOrder) error
	Not(order MemoryOrder) error
	FetchOr(value *big.Int, order MemoryOrder) (*big.Int, error)
	FetchXor(value *big.Int, order MemoryOrder) (*big.Int, error)
	FetchAnd(value *big.Int, order MemoryOrder) (*big.Int, error)
	FetchNot(order MemoryOrder) (*big.Int, error)

	Add(value *big.Int, order MemoryOrder) error
	Sub(value *big.Int, order MemoryOrder) error
	Inc(order MemoryOrder) error
	Dec(order MemoryOrder) error
	Neg(order MemoryOrder) error
	FetchAdd(value *big.Int, order MemoryOrder) (*big.Int, error)
	FetchSub(value *big.Int, order MemoryOrder) (*big.Int, error)
	FetchInc(order MemoryOrder) (*big.Int, error)
	FetchDec(order MemoryOrder) (*big.Int, error)
	FetchNeg(order MemoryOrder) (*big.Int, error)
}

type intOps struct {
	*core
}

// Signed reports whether values are interpreted as signed.
func (i intOps) Signed() bool {
	return i.signed
}

func (i intOps) encode(v *big.Int) ([]byte, error) {
	b, err := encodeInt(v, i.width, i.signed)
	if err != nil {
		return nil, i.env.fail(err)
	}
	return b, nil
}

func (i intOps) decode(b []byte) *big.Int {
	return decodeInt(b, i.signed)
}

// withValue encodes v and runs op. Lifecycle and support errors are
// reported before range errors.
func (i intOps) withValue(op OpType, v *big.Int, order MemoryOrder) (response, error) {
	if err := i.precheck(op); err != nil {
		return response{}, err
	}
	b, err := i.encode(v)
	if err != nil {
		return response{}, err
	}
	return i.perform(request{op: op, order: order, value: b})
}

func (i intOps) fetchValue(op OpType, v *big.Int, order MemoryOrder) (*big.Int, error) {
	resp, err := i.withValue(op, v, order)
	if err != nil {
		return nil, err
	}
	return i.decode(resp.value), nil
}

func (i intOps) fetchNoarg(op OpType, order MemoryOrder) (*big.Int, error) {
	b, err := i.value(request{op: op, order: order})
	if err != nil {
		return nil, err
	}
	return i.decode(b), nil
}

func (i intOps) Store(desired *big.Int, order MemoryOrder) error {
	_, err := i.withValue(OpStore, desired, order)
	return err
}

func (i intOps) Load(order MemoryOrder) (*big.Int, error) {
	return i.fetchNoarg(OpLoad, order)
}

func (i intOps) Exchange(desired *big.Int, order MemoryOrder) (*big.Int, error) {
	return i.fetchValue(OpExchange, desired, order)
}

func (i intOps) CmpxchgWeak(expected, desired *big.Int, succ, fail MemoryOrder) (CmpxchgResult[*big.Int], error) {
	return i.cmpxchg(OpCmpxchgWeak, expected, desired, succ, fail)
}

func (i intOps) CmpxchgStrong(expected, desired *big.Int, succ, fail MemoryOrder) (CmpxchgResult[*big.Int], error) {
	return i.cmpxchg(OpCmpxchgStrong, expected, desired, succ, fail)
}

func (i intOps) cmpxchg(op OpType, expected, desired *big.Int, succ, fail MemoryOrder) (CmpxchgResult[*big.Int], error) {
	if err := i.precheck(op); err != nil {
		return CmpxchgResult[*big.Int]{}, err
	}
	exp, err := i.encode(expected)
	if err != nil {
		return CmpxchgResult[*big.Int]{}, err
	}
	des, err := i.encode(desired)
	if err != nil {
		return CmpxchgResult[*big.Int]{}, err
	}
	resp, err := i.perform(request{op: op, order: succ, fail: fail, expected: exp, value: des})
	if err != nil {
		return CmpxchgResult[*big.Int]{}, err
	}
	return CmpxchgResult[*big.Int]{Success: resp.ok, Expected: i.decode(resp.value)}, nil
}

func (i intOps) BitTest(index int, order MemoryOrder) (bool, error) {
	return i.test(OpBitTest, index, order)
}

func (i intOps) BitTestCompl(index int, order MemoryOrder) (bool, error) {
	return i.test(OpBitTestCompl, index, order)
}

func (i intOps) BitTestSet(index int, order MemoryOrder) (bool, error) {
	return i.test(OpBitTestSet, index, order)
}

func (i intOps) BitTestReset(index int, order MemoryOrder) (bool, error) {
	return i.test(OpBitTestReset, index, order)
}

func (i intOps) Or(value *big.Int, order MemoryOrder) error {
	_, err := i.withValue(OpOr, value, order)
	return err
}

func (i intOps) Xor(value *big.Int, order MemoryOrder) error {
	_, err := i.withValue(OpXor, value, order)
	return err
}

func (i intOps) And(value *big.Int, order MemoryOrder) error {
	_, err := i.withValue(OpAnd, value, order)
	return err
}

func (i intOps) Not(order MemoryOrder) error {
	return i.void(OpNot, nil, order)
}

func (i intOps) FetchOr(value *big.Int, order MemoryOrder) (*big.Int, error) {
	return i.fetchValue(OpFetchOr, value, order)
}

func (i intOps) FetchXor(value *big.Int, order MemoryOrder) (*big.Int, error) {
	return i.fetchValue(OpFetchXor, value, order)
}

func (i intOps) FetchAnd(value *big.Int, order MemoryOrder) (*big.Int, error) {
	return i.fetchValue(OpFetchAnd, value, order)
}

func (i intOps) FetchNot(order MemoryOrder) (*big.Int, error) {
	return i.fetchNoarg(OpFetchNot, order)
}

func (i intOps) Add(value *big.Int, order MemoryOrder) error {
	_, err := i.withValue(OpAdd, value, order)
	return err
}

func (i intOps) Sub(value *big.Int, order MemoryOrder) error {
	_, err := i.withValue(OpSub, value, order)
	return err
}

func (i intOps) Inc(order MemoryOrder) error {
	return i.void(OpInc, nil, order)
}

func (i intOps) Dec(order MemoryOrder) error {
	return i.void(OpDec, nil, order)
}

func (i intOps) Neg(order MemoryOrder) error {
	return i.void(OpNeg, nil, order)
}

func (i intOps) FetchAdd(value *big.Int, order MemoryOrder) (*big.Int, error) {
	return i.fetchValue(OpFetchAdd, value, order)
}

func (i intOps) FetchSub(value *big.Int, order MemoryOrder) (*big.Int, error) {
	return i.fetchValue(OpFetchSub, value, order)
}

func (i intOps) FetchInc(order MemoryOrder) (*big.Int, error) {
	return i.fetchNoarg(OpFetchInc, order)
}

func (i intOps) FetchDec(order MemoryOrder) (*big.Int, error) {
	return i.fetchNoarg(OpFetchDec, order)
}

func (i intOps) FetchNeg(order MemoryOrder) (*big.Int, error) {
	return i.fetchNoarg(OpFetchNeg, order)
}

func (i intOps) describe(kind string) string {
	if err := i.live(); err != nil {
		return kind + "{released}"
	}
	v, err := i.Load(SeqCst)
	if err != nil {
		return fmt.Sprintf("%s{width: %d, signed: %t, readonly: %t}", kind, i.width, i.signed, i.readonly)
	}
	return fmt.Sprintf("%s{value: %s, width: %d, signed: %t, readonly: %t}", kind, v, i.width, i.signed, i.readonly)
}

// Int is an owned signed atomic integer. It starts at zero.
type Int struct {
	intOps
}

// NewInt creates an owned signed integer atomic using DefaultEnv.
func NewInt(width int) (*Int, error) {
	return DefaultEnv().NewInt(width)
}

// NewInt creates an owned signed integer atomic of width bytes.
func (e *Env) NewInt(width int) (*Int, error) {
	c, err := e.newOwnedCore(width, true, true)
	if err != nil {
		return nil, err
	}
	return &Int{intOps{c}}, nil
}

// Release frees the object; it is idempotent.
func (i *Int) Release() {
	i.release()
}

func (i *Int) String() string {
	return i.describe("Int")
}

// Uint is an owned unsigned atomic integer. It starts at zero.
type Uint struct {
	intOps
}

// NewUint creates an owned unsigned integer atomic using DefaultEnv.
func NewUint(width int) (*Uint, error) {
	return DefaultEnv().NewUint(width)
}

// NewUint creates an owned unsigned integer atomic of width bytes.
func (e *Env) NewUint(width int) (*Uint, error) {
	c, err := e.newOwnedCore(width, true, false)
	if err != nil {
		return nil, err
	}
	return &Uint{intOps{c}}, nil
}

// Release frees the object; it is idempotent.
func (u *Uint) Release() {
	u.release()
}

func (u *Uint) String() string {
	return u.describe("Uint")
}

var (
	_ ByteAtomic     = (*Bytes)(nil)
	_ IntegralAtomic = (*Int)(nil)
	_ IntegralAtomic = (*Uint)(nil)
)
