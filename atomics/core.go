package atomics

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/nmxmxh/atomics/internal/buffer"
	"github.com/nmxmxh/atomics/internal/metrics"
	"github.com/nmxmxh/atomics/internal/utils"
	"github.com/nmxmxh/atomics/native"
)

// CmpxchgResult is the outcome of a compare-exchange. Expected holds the
// caller's expected value on success and the observed value on failure.
type CmpxchgResult[T any] struct {
	Success  bool
	Expected T
}

// request describes one dispatched operation. value is the single operand
// (or the desired value of a compare-exchange).
type request struct {
	op       OpType
	order    MemoryOrder
	fail     MemoryOrder
	value    []byte
	expected []byte
	index    int
}

// response carries the prior value for fetch kinds, the updated expected
// value for compare-exchange, and the boolean result of bit tests and
// compare-exchange.
type response struct {
	value []byte
	ok    bool
}

// core owns one handle and the reduced operation table for it. It is the
// only place that calls provider entry points.
type core struct {
	env      *Env
	handle   *buffer.Handle
	scope    *buffer.Scope
	obj      unsafe.Pointer
	width    int
	readonly bool
	integral bool
	signed   bool
	ops      *opSet
}

// newCore validates h against the provider's report for its width and
// builds the supported set. scope is nil for owned objects.
func (e *Env) newCore(h *buffer.Handle, scope *buffer.Scope, integral, signed bool) (*core, error) {
	width, err := h.Width()
	if err != nil {
		return nil, err
	}
	writable, err := h.Writable()
	if err != nil {
		return nil, err
	}
	mode := ReadWrite
	if !writable {
		mode = ReadOnly
	}

	caps, err := e.Capabilities(width, mode)
	if err != nil {
		return nil, err
	}

	obj, err := h.Pointer()
	if err != nil {
		return nil, err
	}
	if !caps.Alignment.IsValidRecommended(uintptr(obj)) {
		e.logger.Warn("Misaligned object",
			utils.Int("width", width),
			utils.Hex("address", uintptr(obj)),
		)
		return nil, e.fail(&AlignmentError{Width: width, Address: uintptr(obj), UsingRecommended: true})
	}

	c := &core{
		env:      e,
		handle:   h,
		scope:    scope,
		obj:      obj,
		width:    width,
		readonly: !writable,
		integral: integral,
		signed:   signed,
		ops:      caps.reduce(integral, signed, !writable),
	}
	e.metrics.Acquired()
	if e.logger.Enabled(utils.DEBUG) {
		e.logger.With(utils.String("handle", h.ID().String())).Debug("Atomic created",
			utils.Int("width", width),
			utils.Bool("readonly", c.readonly),
			utils.Bool("integral", integral),
			utils.String("ops", fmt.Sprint(c.ops.list())),
		)
	}
	return c, nil
}

// Width is the object size in bytes. Width, Readonly and OpsSupported
// describe the object as it was created and keep answering after release;
// use Released to tell whether operations can still succeed.
func (c *core) Width() int {
	return c.width
}

// Readonly reports whether the object only permits Load and BitTest.
func (c *core) Readonly() bool {
	return c.readonly
}

// OpsSupported lists the operations usable on the object in numeric order.
func (c *core) OpsSupported() []OpType {
	return c.ops.list()
}

// Released reports whether the object was released, or, for views,
// whether the scope that produced it has been exited.
func (c *core) Released() bool {
	return c.live() != nil
}

// Supports reports whether op is usable on the object.
func (c *core) Supports(op OpType) bool {
	_, ok := c.ops.lookup(op)
	return ok
}

func (c *core) live() error {
	if c.scope != nil {
		if err := c.scope.Check(); err != nil {
			return err
		}
	}
	return c.handle.Check()
}

// precheck runs the lifecycle and support steps of dispatch on their own,
// for callers that must marshal operands before dispatching.
func (c *core) precheck(op OpType) error {
	if err := c.live(); err != nil {
		return c.env.fail(err)
	}
	if !c.Supports(op) {
		return c.env.fail(&UnsupportedOperationError{Op: op, Width: c.width, Readonly: c.readonly})
	}
	return nil
}

func (c *core) release() {
	c.releaser().release()
}

func (c *core) releaser() releaser {
	return releaser{handle: c.handle, metrics: c.env.metrics, logger: c.env.logger}
}

// releaser frees a core's handle. It holds no reference to the core, so it
// can be the argument of a cleanup attached to the core.
type releaser struct {
	handle  *buffer.Handle
	metrics *metrics.Recorder
	logger  *utils.Logger
}

func (r releaser) release() {
	if r.handle.Released() {
		return
	}
	r.handle.Release()
	r.metrics.Released()
	r.logger.Debug("Atomic released", utils.String("handle", r.handle.ID().String()))
}

func (c *core) perform(req request) (response, error) {
	resp, err := c.dispatch(req)
	if err != nil {
		return response{}, c.env.fail(err)
	}
	c.env.metrics.ObserveOp(req.op.String(), c.width)
	return resp, nil
}

func (c *core) dispatch(req request) (response, error) {
	if err := c.live(); err != nil {
		return response{}, err
	}

	entry, ok := c.ops.lookup(req.op)
	if !ok {
		return response{}, &UnsupportedOperationError{Op: req.op, Width: c.width, Readonly: c.readonly}
	}

	if req.op.IsCmpxchg() {
		if len(req.expected) != c.width {
			return response{}, &OperandLengthError{Operand: "expected", Length: len(req.expected), Width: c.width}
		}
		if len(req.value) != c.width {
			return response{}, &OperandLengthError{Operand: "desired", Length: len(req.value), Width: c.width}
		}
	} else if req.op.takesOperand() && len(req.value) != c.width {
		name := "value"
		if req.op == OpStore || req.op == OpExchange {
			name = "desired"
		}
		return response{}, &OperandLengthError{Operand: name, Length: len(req.value), Width: c.width}
	}

	if err := checkOrder(req.op, req.order, req.fail); err != nil {
		return response{}, err
	}

	if req.op.IsBitTest() && (req.index < 0 || req.index >= c.width*8) {
		return response{}, &IndexOutOfRangeError{Index: req.index, Width: c.width}
	}

	var pinner runtime.Pinner
	defer pinner.Unpin()
	pinner.Pin(c.obj)

	scratch := func(src []byte) unsafe.Pointer {
		buf := make([]byte, c.width)
		copy(buf, src)
		p := unsafe.Pointer(unsafe.SliceData(buf))
		pinner.Pin(p)
		return p
	}
	ret := func() ([]byte, unsafe.Pointer) {
		buf := make([]byte, c.width)
		p := unsafe.Pointer(unsafe.SliceData(buf))
		pinner.Pin(p)
		return buf, p
	}

	order := int(req.order)
	var resp response

	switch fn := entry.(type) {
	case native.StoreFunc:
		fn(c.obj, scratch(req.value), order)
	case native.LoadFunc:
		out, p := ret()
		fn(c.obj, order, p)
		resp.value = out
	case native.ExchangeFunc:
		out, p := ret()
		fn(c.obj, scratch(req.value), order, p)
		resp.value = out
	case native.CmpxchgFunc:
		exp := scratch(req.expected)
		des := scratch(req.value)
		resp.ok = fn(c.obj, exp, des, order, int(req.fail)) != 0
		resp.value = append([]byte(nil), unsafe.Slice((*byte)(exp), c.width)...)
	case native.TestFunc:
		resp.ok = fn(c.obj, req.index, order) != 0
	case native.TestModifyFunc:
		resp.ok = fn(c.obj, req.index, order) != 0
	case native.VoidFunc:
		fn(c.obj, scratch(req.value), order)
	case native.VoidNoargFunc:
		fn(c.obj, order)
	case native.FetchFunc:
		out, p := ret()
		fn(c.obj, scratch(req.value), order, p)
		resp.value = out
	case native.FetchNoargFunc:
		out, p := ret()
		fn(c.obj, order, p)
		resp.value = out
	}
	return resp, nil
}
