package buffer

import "fmt"

// Error codes for buffer lifecycle failures
const (
	ErrCodeAlreadyInitialized = "ALREADY_INITIALIZED"
	ErrCodeUninitialized      = "UNINITIALIZED"
	ErrCodeUseAfterRelease    = "USE_AFTER_RELEASE"
	ErrCodeNotEntered         = "NOT_ENTERED"
	ErrCodeAlreadyEntered     = "ALREADY_ENTERED"
	ErrCodeScopeExited        = "SCOPE_EXITED"
	ErrCodeScopeOpen          = "SCOPE_OPEN"
	ErrCodeInvalidLayout      = "INVALID_LAYOUT"
)

// LifecycleError reports an operation issued in the wrong handle or scope
// state. The package level values are compared by identity.
type LifecycleError struct {
	code    string
	message string
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

// Code returns the error code for programmatic handling
func (e *LifecycleError) Code() string {
	return e.code
}

var (
	ErrAlreadyInitialized = &LifecycleError{ErrCodeAlreadyInitialized, "buffer handle is already initialized"}
	ErrUninitialized      = &LifecycleError{ErrCodeUninitialized, "buffer handle was never initialized"}
	ErrUseAfterRelease    = &LifecycleError{ErrCodeUseAfterRelease, "buffer used after release"}
	ErrNotEntered         = &LifecycleError{ErrCodeNotEntered, "view scope has not been entered"}
	ErrAlreadyEntered     = &LifecycleError{ErrCodeAlreadyEntered, "view scope is already entered"}
	ErrScopeExited        = &LifecycleError{ErrCodeScopeExited, "view scope has already exited"}
	ErrScopeOpen          = &LifecycleError{ErrCodeScopeOpen, "cannot release a view scope while it is entered"}
)

// LayoutError reports an invalid allocation request.
type LayoutError struct {
	Width int
	Align int
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("[%s] invalid layout: width=%d align=%d", ErrCodeInvalidLayout, e.Width, e.Align)
}

func (e *LayoutError) Code() string {
	return ErrCodeInvalidLayout
}
