package atomics

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nmxmxh/atomics/internal/buffer"
)

// Error codes for programmatic handling
const (
	ErrCodeUnsupportedWidth     = "UNSUPPORTED_WIDTH"
	ErrCodeUnsupportedOperation = "UNSUPPORTED_OPERATION"
	ErrCodeAlignment            = "ALIGNMENT"
	ErrCodeInvalidMemoryOrder   = "INVALID_MEMORY_ORDER"
	ErrCodeOperandLength        = "OPERAND_LENGTH"
	ErrCodeIndexOutOfRange      = "INDEX_OUT_OF_RANGE"
	ErrCodeInvalidWidth         = "INVALID_WIDTH"
	ErrCodeValueOutOfRange      = "VALUE_OUT_OF_RANGE"
	ErrCodeProvider             = "PROVIDER"

	ErrCodeAlreadyInitialized = buffer.ErrCodeAlreadyInitialized
	ErrCodeUseAfterRelease    = buffer.ErrCodeUseAfterRelease
	ErrCodeNotEntered         = buffer.ErrCodeNotEntered
	ErrCodeAlreadyEntered     = buffer.ErrCodeAlreadyEntered
	ErrCodeScopeExited        = buffer.ErrCodeScopeExited
	ErrCodeScopeOpen          = buffer.ErrCodeScopeOpen
)

type kindError struct {
	code    string
	message string
}

func (e *kindError) Error() string {
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

func (e *kindError) Code() string {
	return e.code
}

// Sentinels matched by errors.Is. The typed errors below carry the details.
var (
	ErrUnsupportedWidth     error = &kindError{ErrCodeUnsupportedWidth, "unsupported width"}
	ErrUnsupportedOperation error = &kindError{ErrCodeUnsupportedOperation, "unsupported operation"}
	ErrAlignment            error = &kindError{ErrCodeAlignment, "misaligned object"}
	ErrInvalidMemoryOrder   error = &kindError{ErrCodeInvalidMemoryOrder, "invalid memory order"}
	ErrOperandLength        error = &kindError{ErrCodeOperandLength, "operand length does not match width"}
	ErrIndexOutOfRange      error = &kindError{ErrCodeIndexOutOfRange, "bit index out of range"}
	ErrInvalidWidth         error = &kindError{ErrCodeInvalidWidth, "invalid width"}
	ErrValueOutOfRange      error = &kindError{ErrCodeValueOutOfRange, "value not representable in width"}
)

// Lifecycle errors
var (
	ErrAlreadyInitialized = buffer.ErrAlreadyInitialized
	ErrUseAfterRelease    = buffer.ErrUseAfterRelease
	ErrNotEntered         = buffer.ErrNotEntered
	ErrAlreadyEntered     = buffer.ErrAlreadyEntered
	ErrScopeExited        = buffer.ErrScopeExited
	ErrScopeOpen          = buffer.ErrScopeOpen
)

// UnsupportedWidthError is returned when the provider reports no usable
// operation for a width under the requested access mode.
type UnsupportedWidthError struct {
	Width    int
	Readonly bool
}

func (e *UnsupportedWidthError) Error() string {
	return fmt.Sprintf("[%s] no operations available for width %d (readonly=%t)", ErrCodeUnsupportedWidth, e.Width, e.Readonly)
}

func (e *UnsupportedWidthError) Code() string         { return ErrCodeUnsupportedWidth }
func (e *UnsupportedWidthError) Is(target error) bool { return target == ErrUnsupportedWidth }

// UnsupportedOperationError is returned when an operation is not in the
// object's supported set.
type UnsupportedOperationError struct {
	Op       OpType
	Width    int
	Readonly bool
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("[%s] %s is not supported for width %d (readonly=%t)", ErrCodeUnsupportedOperation, e.Op, e.Width, e.Readonly)
}

func (e *UnsupportedOperationError) Code() string         { return ErrCodeUnsupportedOperation }
func (e *UnsupportedOperationError) Is(target error) bool { return target == ErrUnsupportedOperation }

// AlignmentError is returned when an address fails an alignment check.
type AlignmentError struct {
	Width            int
	Address          uintptr
	UsingRecommended bool
}

func (e *AlignmentError) Error() string {
	kind := "minimum"
	if e.UsingRecommended {
		kind = "recommended"
	}
	return fmt.Sprintf("[%s] address %#x does not meet %s alignment for width %d", ErrCodeAlignment, e.Address, kind, e.Width)
}

func (e *AlignmentError) Code() string         { return ErrCodeAlignment }
func (e *AlignmentError) Is(target error) bool { return target == ErrAlignment }

// MemoryOrderError is returned when an order is not legal for an operation.
// IsFail marks the failure order of a compare-exchange.
type MemoryOrderError struct {
	Op     OpType
	Order  MemoryOrder
	IsFail bool
}

func (e *MemoryOrderError) Error() string {
	which := "order"
	if e.IsFail {
		which = "failure order"
	}
	return fmt.Sprintf("[%s] %s %s is not valid for %s", ErrCodeInvalidMemoryOrder, which, e.Order, e.Op)
}

func (e *MemoryOrderError) Code() string         { return ErrCodeInvalidMemoryOrder }
func (e *MemoryOrderError) Is(target error) bool { return target == ErrInvalidMemoryOrder }

// OperandLengthError is returned when a byte operand is not exactly the
// object width.
type OperandLengthError struct {
	Operand string
	Length  int
	Width   int
}

func (e *OperandLengthError) Error() string {
	return fmt.Sprintf("[%s] %s has length %d, want %d", ErrCodeOperandLength, e.Operand, e.Length, e.Width)
}

func (e *OperandLengthError) Code() string         { return ErrCodeOperandLength }
func (e *OperandLengthError) Is(target error) bool { return target == ErrOperandLength }

// IndexOutOfRangeError is returned for bit indexes outside [0, width*8).
type IndexOutOfRangeError struct {
	Index int
	Width int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("[%s] bit index %d outside [0, %d)", ErrCodeIndexOutOfRange, e.Index, e.Width*8)
}

func (e *IndexOutOfRangeError) Code() string         { return ErrCodeIndexOutOfRange }
func (e *IndexOutOfRangeError) Is(target error) bool { return target == ErrIndexOutOfRange }

// InvalidWidthError is returned for negative widths.
type InvalidWidthError struct {
	Width int
}

func (e *InvalidWidthError) Error() string {
	return fmt.Sprintf("[%s] width %d must not be negative", ErrCodeInvalidWidth, e.Width)
}

func (e *InvalidWidthError) Code() string         { return ErrCodeInvalidWidth }
func (e *InvalidWidthError) Is(target error) bool { return target == ErrInvalidWidth }

// ValueRangeError is returned when an integer does not fit the object.
// Value is nil when the caller passed a nil *big.Int.
type ValueRangeError struct {
	Value  *big.Int
	Width  int
	Signed bool
}

func (e *ValueRangeError) Error() string {
	kind := "unsigned"
	if e.Signed {
		kind = "signed"
	}
	return fmt.Sprintf("[%s] %v does not fit a %d byte %s integer", ErrCodeValueOutOfRange, e.Value, e.Width, kind)
}

func (e *ValueRangeError) Code() string         { return ErrCodeValueOutOfRange }
func (e *ValueRangeError) Is(target error) bool { return target == ErrValueOutOfRange }

// ProviderError wraps a failure reported by the native provider.
type ProviderError struct {
	Width int
	Cause error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("[%s] resolve width %d: %v", ErrCodeProvider, e.Width, e.Cause)
}

func (e *ProviderError) Code() string  { return ErrCodeProvider }
func (e *ProviderError) Unwrap() error { return e.Cause }

// ErrorCode returns the code carried by err, or "" if it has none.
func ErrorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}
