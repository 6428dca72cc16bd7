package atomics

import (
	"encoding/hex"
	"fmt"
	"runtime"

	"github.com/nmxmxh/atomics/internal/buffer"
)

// ByteAtomic is the operation set of objects whose value is a byte
// sequence of exactly Width() bytes in native byte order.
type ByteAtomic interface {
	Width() int
	Readonly() bool
	OpsSupported() []OpType
	Released() bool

	Store(desired []byte, order MemoryOrder) error
	Load(order MemoryOrder) ([]byte, error)
	Exchange(desired []byte, order MemoryOrder) ([]byte, error)
	CmpxchgWeak(expected, desired []byte, succ, fail MemoryOrder) (CmpxchgResult[[]byte], error)
	CmpxchgStrong(expected, desired []byte, succ, fail MemoryOrder) (CmpxchgResult[[]byte], error)

	BitTest(index int, order MemoryOrder) (bool, error)
	BitTestCompl(index int, order MemoryOrder) (bool, error)
	BitTestSet(index int, order MemoryOrder) (bool, error)
	BitTestReset(index int, order MemoryOrder) (bool, error)

	Or(value []byte, order MemoryOrder) error
	Xor(value []byte, order MemoryOrder) error
	And(value []byte, order MemoryOrder) error
	Not(order MemoryOrder) error
	FetchOr(value []byte, order MemoryOrder) ([]byte, error)
	FetchXor(value []byte, order MemoryOrder) ([]byte, error)
	FetchAnd(value []byte, order MemoryOrder) ([]byte, error)
	FetchNot(order MemoryOrder) ([]byte, error)
}

// byteOps implements ByteAtomic on top of a core. Bit index i addresses
// bit i%8 of byte i/8.
type byteOps struct {
	*core
}

func (b byteOps) Store(desired []byte, order MemoryOrder) error {
	_, err := b.perform(request{op: OpStore, order: order, value: desired})
	return err
}

func (b byteOps) Load(order MemoryOrder) ([]byte, error) {
	return b.value(request{op: OpLoad, order: order})
}

func (b byteOps) Exchange(desired []byte, order MemoryOrder) ([]byte, error) {
	return b.value(request{op: OpExchange, order: order, value: desired})
}

func (b byteOps) CmpxchgWeak(expected, desired []byte, succ, fail MemoryOrder) (CmpxchgResult[[]byte], error) {
	return b.cmpxchg(OpCmpxchgWeak, expected, desired, succ, fail)
}

func (b byteOps) CmpxchgStrong(expected, desired []byte, succ, fail MemoryOrder) (CmpxchgResult[[]byte], error) {
	return b.cmpxchg(OpCmpxchgStrong, expected, desired, succ, fail)
}

func (b byteOps) cmpxchg(op OpType, expected, desired []byte, succ, fail MemoryOrder) (CmpxchgResult[[]byte], error) {
	resp, err := b.perform(request{op: op, order: succ, fail: fail, expected: expected, value: desired})
	if err != nil {
		return CmpxchgResult[[]byte]{}, err
	}
	return CmpxchgResult[[]byte]{Success: resp.ok, Expected: resp.value}, nil
}

func (b byteOps) BitTest(index int, order MemoryOrder) (bool, error) {
	return b.test(OpBitTest, index, order)
}

func (b byteOps) BitTestCompl(index int, order MemoryOrder) (bool, error) {
	return b.test(OpBitTestCompl, index, order)
}

func (b byteOps) BitTestSet(index int, order MemoryOrder) (bool, error) {
	return b.test(OpBitTestSet, index, order)
}

func (b byteOps) BitTestReset(index int, order MemoryOrder) (bool, error) {
	return b.test(OpBitTestReset, index, order)
}

func (b byteOps) Or(value []byte, order MemoryOrder) error {
	return b.void(OpOr, value, order)
}

func (b byteOps) Xor(value []byte, order MemoryOrder) error {
	return b.void(OpXor, value, order)
}

func (b byteOps) And(value []byte, order MemoryOrder) error {
	return b.void(OpAnd, value, order)
}

func (b byteOps) Not(order MemoryOrder) error {
	return b.void(OpNot, nil, order)
}

func (b byteOps) FetchOr(value []byte, order MemoryOrder) ([]byte, error) {
	return b.value(request{op: OpFetchOr, order: order, value: value})
}

func (b byteOps) FetchXor(value []byte, order MemoryOrder) ([]byte, error) {
	return b.value(request{op: OpFetchXor, order: order, value: value})
}

func (b byteOps) FetchAnd(value []byte, order MemoryOrder) ([]byte, error) {
	return b.value(request{op: OpFetchAnd, order: order, value: value})
}

func (b byteOps) FetchNot(order MemoryOrder) ([]byte, error) {
	return b.value(request{op: OpFetchNot, order: order})
}

// helpers shared with the integer façades

func (c *core) value(req request) ([]byte, error) {
	resp, err := c.perform(req)
	if err != nil {
		return nil, err
	}
	return resp.value, nil
}

func (c *core) test(op OpType, index int, order MemoryOrder) (bool, error) {
	resp, err := c.perform(request{op: op, order: order, index: index})
	if err != nil {
		return false, err
	}
	return resp.ok, nil
}

func (c *core) void(op OpType, value []byte, order MemoryOrder) error {
	_, err := c.perform(request{op: op, order: order, value: value})
	return err
}

func (b byteOps) describe(kind string) string {
	if err := b.live(); err != nil {
		return kind + "{released}"
	}
	v, err := b.Load(SeqCst)
	if err != nil {
		return fmt.Sprintf("%s{width: %d, readonly: %t}", kind, b.width, b.readonly)
	}
	return fmt.Sprintf("%s{value: 0x%s, width: %d, readonly: %t}", kind, hex.EncodeToString(v), b.width, b.readonly)
}

// Bytes is an owned atomic byte sequence. It is zero initialized.
type Bytes struct {
	byteOps
}

// NewBytes creates an owned byte atomic using DefaultEnv.
func NewBytes(width int) (*Bytes, error) {
	return DefaultEnv().NewBytes(width)
}

// NewBytes creates an owned byte atomic of width bytes.
func (e *Env) NewBytes(width int) (*Bytes, error) {
	c, err := e.newOwnedCore(width, false, false)
	if err != nil {
		return nil, err
	}
	return &Bytes{byteOps{c}}, nil
}

// Release frees the object. Later operations fail with ErrUseAfterRelease.
// Calling Release again has no effect.
func (b *Bytes) Release() {
	b.release()
}

func (b *Bytes) String() string {
	return b.describe("Bytes")
}

// track releases c once nothing can reach it, for callers that never call
// Release. The cleanup belongs to the core: façade method values hold only
// the core.
func track(c *core) *core {
	runtime.AddCleanup(c, releaser.release, c.releaser())
	return c
}

// newOwnedCore allocates width bytes at the provider's recommended
// alignment.
func (e *Env) newOwnedCore(width int, integral, signed bool) (*core, error) {
	caps, err := e.Capabilities(width, ReadWrite)
	if err != nil {
		return nil, err
	}
	h, err := buffer.Allocate(width, int(max(caps.Alignment.Recommended, 1)))
	if err != nil {
		return nil, err
	}
	c, err := e.newCore(h, nil, integral, signed)
	if err != nil {
		h.Release()
		return nil, err
	}
	return track(c), nil
}
