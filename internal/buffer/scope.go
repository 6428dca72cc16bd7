package buffer

const (
	scopeCreated int32 = iota
	scopeEntered
	scopeExited
	scopeReleased
)

// Scope runs the enter/exit protocol over borrowed memory. The region is
// captured into a fresh handle on Enter and released on Exit. A scope is
// single use.
type Scope struct {
	region []byte
	mode   AccessMode
	state  int32
	handle *Handle
}

// NewScope prepares a scope over region. Nothing is captured until Enter.
func NewScope(region []byte, mode AccessMode) *Scope {
	return &Scope{region: region, mode: mode}
}

func (s *Scope) Mode() AccessMode {
	return s.mode
}

// Width is the length of the region the scope will capture.
func (s *Scope) Width() int {
	return len(s.region)
}

// Region returns the memory the scope was created over.
func (s *Scope) Region() []byte {
	return s.region
}

// Enter captures the region and returns the handle bound to this scope.
func (s *Scope) Enter() (*Handle, error) {
	switch s.state {
	case scopeEntered:
		return nil, ErrAlreadyEntered
	case scopeExited, scopeReleased:
		return nil, ErrScopeExited
	}

	h, err := Capture(s.region, s.mode)
	if err != nil {
		return nil, err
	}
	s.handle = h
	s.state = scopeEntered
	return h, nil
}

// Check reports whether operations may run inside the scope right now.
func (s *Scope) Check() error {
	switch s.state {
	case scopeEntered:
		return nil
	case scopeCreated:
		return ErrNotEntered
	default:
		return ErrScopeExited
	}
}

// Entered reports whether the scope is currently open.
func (s *Scope) Entered() bool {
	return s.state == scopeEntered
}

// Exit closes the scope and releases its handle.
func (s *Scope) Exit() error {
	if err := s.Check(); err != nil {
		return err
	}
	s.handle.Release()
	s.handle = nil
	s.state = scopeExited
	return nil
}

// Release discards a scope that is not entered. It is idempotent.
func (s *Scope) Release() error {
	if s.state == scopeEntered {
		return ErrScopeOpen
	}
	s.state = scopeReleased
	s.region = nil
	return nil
}
