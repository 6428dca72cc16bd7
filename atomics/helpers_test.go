package atomics

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/atomics/internal/utils"
	"github.com/nmxmxh/atomics/native"
)

// mockProvider records provider traffic and returns canned tables.
type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Resolve(width int) (native.OpTable, native.Alignment, error) {
	args := m.Called(width)
	return args.Get(0).(native.OpTable), args.Get(1).(native.Alignment), args.Error(2)
}

func (m *mockProvider) CountSupported(table *native.OpTable, readonly bool) int {
	return m.Called(table, readonly).Int(0)
}

func testEnv(p native.Provider) *Env {
	return NewEnv(Config{Provider: p, Logger: utils.NopLogger()})
}

// goTable returns the in-process provider's table for width.
func goTable(t *testing.T, width int) (native.OpTable, native.Alignment) {
	t.Helper()
	table, align, err := native.NewGoProvider(native.GoProviderConfig{}).Resolve(width)
	require.NoError(t, err)
	return table, align
}

// alignedRegion returns width bytes starting at an address that is a
// multiple of align.
func alignedRegion(width, align int) []byte {
	buf := make([]byte, width+2*align)
	base := uintptr(unsafe.Pointer(&buf[0]))
	off := int((uintptr(align) - base%uintptr(align)) % uintptr(align))
	return buf[off : off+width : off+width]
}
