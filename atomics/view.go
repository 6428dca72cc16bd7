package atomics

import (
	"go.uber.org/multierr"

	"github.com/nmxmxh/atomics/internal/buffer"
)

// BytesView is a byte atomic over borrowed memory. It is only usable
// between Enter and Exit of the context that produced it.
type BytesView struct {
	byteOps
}

func (v *BytesView) String() string {
	return v.describe("BytesView")
}

// IntView is a signed integer atomic over borrowed memory.
type IntView struct {
	intOps
}

func (v *IntView) String() string {
	return v.describe("IntView")
}

// UintView is an unsigned integer atomic over borrowed memory.
type UintView struct {
	intOps
}

func (v *UintView) String() string {
	return v.describe("UintView")
}

var (
	_ ByteAtomic     = (*BytesView)(nil)
	_ IntegralAtomic = (*IntView)(nil)
	_ IntegralAtomic = (*UintView)(nil)
)

// ViewContext produces a view over caller memory for the duration of one
// Enter/Exit pair. The width of the view is the length of the region.
//
// Nothing stops several contexts, or code outside this package, from
// accessing the same memory. Concurrent access is only atomic when every
// accessor uses the same width and offset.
type ViewContext[V any] struct {
	env      *Env
	scope    *buffer.Scope
	integral bool
	signed   bool
	wrap     func(*core) V
	core     *core
}

type (
	BytesViewContext = ViewContext[*BytesView]
	IntViewContext   = ViewContext[*IntView]
	UintViewContext  = ViewContext[*UintView]
)

func newViewContext[V any](e *Env, region []byte, mode AccessMode, integral, signed bool, wrap func(*core) V) (*ViewContext[V], error) {
	caps, err := e.Capabilities(len(region), mode)
	if err != nil {
		return nil, err
	}
	if len(region) > 0 {
		addr := uintptrOf(region)
		if !caps.Alignment.IsValidRecommended(addr) {
			return nil, e.fail(&AlignmentError{Width: len(region), Address: addr, UsingRecommended: true})
		}
	}
	return &ViewContext[V]{
		env:      e,
		scope:    buffer.NewScope(region, mode),
		integral: integral,
		signed:   signed,
		wrap:     wrap,
	}, nil
}

// NewBytesViewContext prepares a byte view over region using DefaultEnv.
func NewBytesViewContext(region []byte, mode AccessMode) (*BytesViewContext, error) {
	return DefaultEnv().NewBytesViewContext(region, mode)
}

// NewIntViewContext prepares a signed integer view over region using
// DefaultEnv.
func NewIntViewContext(region []byte, mode AccessMode) (*IntViewContext, error) {
	return DefaultEnv().NewIntViewContext(region, mode)
}

// NewUintViewContext prepares an unsigned integer view over region using
// DefaultEnv.
func NewUintViewContext(region []byte, mode AccessMode) (*UintViewContext, error) {
	return DefaultEnv().NewUintViewContext(region, mode)
}

func (e *Env) NewBytesViewContext(region []byte, mode AccessMode) (*BytesViewContext, error) {
	return newViewContext(e, region, mode, false, false, func(c *core) *BytesView {
		return &BytesView{byteOps{c}}
	})
}

func (e *Env) NewIntViewContext(region []byte, mode AccessMode) (*IntViewContext, error) {
	return newViewContext(e, region, mode, true, true, func(c *core) *IntView {
		return &IntView{intOps{c}}
	})
}

func (e *Env) NewUintViewContext(region []byte, mode AccessMode) (*UintViewContext, error) {
	return newViewContext(e, region, mode, true, false, func(c *core) *UintView {
		return &UintView{intOps{c}}
	})
}

// Enter captures the region and returns the view. A context can be entered
// once.
func (vc *ViewContext[V]) Enter() (V, error) {
	var zero V
	h, err := vc.scope.Enter()
	if err != nil {
		return zero, vc.env.fail(err)
	}
	c, err := vc.env.newCore(h, vc.scope, vc.integral, vc.signed)
	if err != nil {
		_ = vc.scope.Exit()
		return zero, err
	}
	vc.core = c
	return vc.wrap(c), nil
}

// Exit ends the scope. The view returned by Enter fails with
// ErrScopeExited afterwards.
func (vc *ViewContext[V]) Exit() error {
	if err := vc.scope.Check(); err != nil {
		return vc.env.fail(err)
	}
	if vc.core != nil {
		vc.core.release()
		vc.core = nil
	}
	return vc.scope.Exit()
}

// Release discards a context that is not currently entered.
func (vc *ViewContext[V]) Release() error {
	if err := vc.scope.Release(); err != nil {
		return vc.env.fail(err)
	}
	return nil
}

// Entered reports whether the context is between Enter and Exit.
func (vc *ViewContext[V]) Entered() bool {
	return vc.scope.Entered()
}

// Width of the region.
func (vc *ViewContext[V]) Width() int {
	return vc.scope.Width()
}

// WithBytesView runs fn with a byte view over region and exits the view
// afterwards, even if fn panics.
func WithBytesView(region []byte, mode AccessMode, fn func(*BytesView) error) error {
	return DefaultEnv().WithBytesView(region, mode, fn)
}

// WithIntView runs fn with a signed integer view over region.
func WithIntView(region []byte, mode AccessMode, fn func(*IntView) error) error {
	return DefaultEnv().WithIntView(region, mode, fn)
}

// WithUintView runs fn with an unsigned integer view over region.
func WithUintView(region []byte, mode AccessMode, fn func(*UintView) error) error {
	return DefaultEnv().WithUintView(region, mode, fn)
}

func (e *Env) WithBytesView(region []byte, mode AccessMode, fn func(*BytesView) error) error {
	vc, err := e.NewBytesViewContext(region, mode)
	if err != nil {
		return err
	}
	return withView(vc, fn)
}

func (e *Env) WithIntView(region []byte, mode AccessMode, fn func(*IntView) error) error {
	vc, err := e.NewIntViewContext(region, mode)
	if err != nil {
		return err
	}
	return withView(vc, fn)
}

func (e *Env) WithUintView(region []byte, mode AccessMode, fn func(*UintView) error) error {
	vc, err := e.NewUintViewContext(region, mode)
	if err != nil {
		return err
	}
	return withView(vc, fn)
}

func withView[V any](vc *ViewContext[V], fn func(V) error) (err error) {
	v, err := vc.Enter()
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, vc.Exit())
	}()
	return fn(v)
}
