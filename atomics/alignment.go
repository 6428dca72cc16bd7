package atomics

import "github.com/nmxmxh/atomics/native"

// AlignmentValidator checks addresses against the alignment the provider
// published for one width.
type AlignmentValidator struct {
	width int
	info  native.Alignment
}

// NewAlignmentValidator wraps already resolved alignment information.
func NewAlignmentValidator(width int, info native.Alignment) *AlignmentValidator {
	return &AlignmentValidator{width: width, info: info}
}

// Alignment returns a validator for width using the default environment.
func Alignment(width int) (*AlignmentValidator, error) {
	return DefaultEnv().Alignment(width)
}

func (v *AlignmentValidator) Width() int {
	return v.width
}

func (v *AlignmentValidator) Recommended() uintptr {
	return max(v.info.Recommended, 1)
}

func (v *AlignmentValidator) Minimum() uintptr {
	return max(v.info.Minimum, 1)
}

// SizeWithin is the block size an object must not cross; zero means none.
func (v *AlignmentValidator) SizeWithin() uintptr {
	return v.info.SizeWithin
}

func (v *AlignmentValidator) IsValidRecommended(addr uintptr) bool {
	return v.info.IsValidRecommended(addr)
}

func (v *AlignmentValidator) IsValidMinimum(addr uintptr) bool {
	return v.info.IsValidMinimum(addr, v.width)
}

// Validate returns an *AlignmentError if addr fails the selected check.
func (v *AlignmentValidator) Validate(addr uintptr, recommended bool) error {
	ok := v.IsValidMinimum(addr)
	if recommended {
		ok = v.IsValidRecommended(addr)
	}
	if ok {
		return nil
	}
	return &AlignmentError{Width: v.width, Address: addr, UsingRecommended: recommended}
}
