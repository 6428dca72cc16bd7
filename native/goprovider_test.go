package native

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// word returns an 8-aligned 16 byte buffer.
func word(t *testing.T) []byte {
	t.Helper()
	buf := make([]uint64, 2)
	return unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), 16)
}

func ptr(b []byte) unsafe.Pointer {
	return unsafe.Pointer(&b[0])
}

func TestResolveAlignment(t *testing.T) {
	p := NewGoProvider(GoProviderConfig{CacheLine: 128})
	assert.Equal(t, uintptr(128), p.CacheLine())

	for width, rec := range map[int]uintptr{1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 7: 8, 8: 8} {
		_, align, err := p.Resolve(width)
		require.NoError(t, err)
		assert.Equal(t, Alignment{Recommended: rec, Minimum: 1, SizeWithin: 8}, align, "width %d", width)
	}

	_, align, err := p.Resolve(16)
	require.NoError(t, err)
	assert.Equal(t, Alignment{Recommended: 16, Minimum: 8, SizeWithin: 128}, align)
}

func TestResolveUnsupported(t *testing.T) {
	p := NewGoProvider(GoProviderConfig{})
	for _, width := range []int{0, 9, 15, 17, 64} {
		table, _, err := p.Resolve(width)
		require.NoError(t, err)
		assert.Zero(t, p.CountSupported(&table, false), "width %d", width)
		assert.Zero(t, p.CountSupported(&table, true), "width %d", width)
	}

	_, _, err := p.Resolve(-3)
	assert.ErrorIs(t, err, ErrNegativeWidth)
}

func TestCountSupported(t *testing.T) {
	p := NewGoProvider(GoProviderConfig{})
	table, _, err := p.Resolve(4)
	require.NoError(t, err)

	// 17 byte operations plus both arithmetic halves
	assert.Equal(t, 17+10+10, p.CountSupported(&table, false))
	assert.Equal(t, 2, p.CountSupported(&table, true))

	partial := OpTable{Store: table.Store}
	assert.Equal(t, 1, partial.Count(false))
	assert.Equal(t, 0, partial.Count(true))
}

func TestCacheLineFallback(t *testing.T) {
	p := NewGoProvider(GoProviderConfig{CacheLine: 8})
	assert.Equal(t, uintptr(defaultCacheLine), p.CacheLine())
	assert.Same(t, Default(), Default())
}

func TestWordEntryPoints(t *testing.T) {
	p := NewGoProvider(GoProviderConfig{})
	table, _, err := p.Resolve(2)
	require.NoError(t, err)

	mem := word(t)
	obj := ptr(mem[2:])

	in := []byte{0x34, 0x12}
	table.Store(obj, ptr(in), 5)
	assert.Equal(t, []byte{0, 0, 0x34, 0x12, 0, 0, 0, 0}, mem[:8], "neighbours untouched")

	out := make([]byte, 2)
	table.Load(obj, 5, ptr(out))
	assert.Equal(t, in, out)

	one, sum := []byte{1, 0}, []byte{0x35, 0x12}
	if !littleEndian {
		one, sum = []byte{0, 1}, []byte{0x34, 0x13}
	}
	table.Unsigned.FetchAdd(obj, ptr(one), 5, ptr(out))
	assert.Equal(t, in, out)
	table.Load(obj, 5, ptr(out))
	assert.Equal(t, sum, out)

	exp := []byte{0, 0}
	des := []byte{9, 9}
	assert.Equal(t, 0, table.Xchg.CmpxchgStrong(obj, ptr(exp), ptr(des), 5, 5))
	assert.Equal(t, sum, exp, "observed value written back")
	assert.Equal(t, 1, table.Xchg.CmpxchgStrong(obj, ptr(exp), ptr(des), 5, 5))
	table.Load(obj, 5, ptr(out))
	assert.Equal(t, des, out)

	assert.Equal(t, 0, table.Bitwise.TestSet(obj, 9, 5))
	assert.Equal(t, byte(9|2), mem[3])
	assert.Equal(t, 1, table.Bitwise.Test(obj, 9, 5))
	assert.Equal(t, 1, table.Bitwise.TestReset(obj, 9, 5))
	assert.Equal(t, byte(9), mem[3])
}

func TestWordNegAndNot(t *testing.T) {
	p := NewGoProvider(GoProviderConfig{})
	table, _, err := p.Resolve(3)
	require.NoError(t, err)

	mem := word(t)
	obj := ptr(mem[4:])
	one := []byte{1, 0, 0}
	if !littleEndian {
		one = []byte{0, 0, 1}
	}
	table.Signed.Add(obj, ptr(one), 5)
	table.Signed.Neg(obj, 5)
	assert.Equal(t, []byte{0xff, 0xff, 0xff}, mem[4:7])
	assert.Zero(t, mem[7], "byte past the object")

	table.Binary.Not(obj, 5)
	assert.Equal(t, []byte{0, 0, 0}, mem[4:7])
}

func TestWideEntryPoints(t *testing.T) {
	p := NewGoProvider(GoProviderConfig{})
	table, _, err := p.Resolve(16)
	require.NoError(t, err)

	mem := word(t)
	obj := ptr(mem)
	table.Signed.Dec(obj, 5)
	for _, b := range mem {
		assert.Equal(t, byte(0xff), b)
	}

	out := make([]byte, 16)
	table.Signed.FetchInc(obj, 5, ptr(out))
	assert.Equal(t, mem, make([]byte, 16))
	for _, b := range out {
		assert.Equal(t, byte(0xff), b)
	}

	assert.Equal(t, 0, table.Bitwise.TestCompl(obj, 127, 5))
	assert.Equal(t, byte(0x80), mem[15])
}

func TestWordConcurrentNeighbours(t *testing.T) {
	p := NewGoProvider(GoProviderConfig{})
	table, _, err := p.Resolve(1)
	require.NoError(t, err)

	mem := word(t)
	const n = 1000
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(obj unsafe.Pointer) {
			defer wg.Done()
			for j := 0; j < n; j++ {
				table.Unsigned.Inc(obj, 5)
			}
		}(ptr(mem[i:]))
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		assert.Equal(t, byte(n%256), mem[i], "byte %d", i)
	}
}

func TestAlignmentChecks(t *testing.T) {
	a := Alignment{Recommended: 8, Minimum: 4, SizeWithin: 16}
	assert.True(t, a.IsValidRecommended(0x40))
	assert.False(t, a.IsValidRecommended(0x44))
	assert.True(t, a.IsValidMinimum(0x44, 8))
	assert.True(t, a.IsValidMinimum(0x48, 8))
	assert.False(t, a.IsValidMinimum(0x4c, 8))
	assert.False(t, a.IsValidMinimum(0x42, 2))
	assert.True(t, Alignment{}.IsValidMinimum(0x43, 100))
}

func BenchmarkWordFetchAdd(b *testing.B) {
	p := NewGoProvider(GoProviderConfig{})
	table, _, _ := p.Resolve(4)
	buf := make([]uint64, 1)
	obj := unsafe.Pointer(&buf[0])
	arg := []byte{1, 0, 0, 0}
	out := make([]byte, 4)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		table.Unsigned.FetchAdd(obj, unsafe.Pointer(&arg[0]), 5, unsafe.Pointer(&out[0]))
	}
}

func BenchmarkWideFetchAddParallel(b *testing.B) {
	p := NewGoProvider(GoProviderConfig{})
	table, _, _ := p.Resolve(16)
	buf := make([]uint64, 2)
	obj := unsafe.Pointer(&buf[0])

	b.RunParallel(func(pb *testing.PB) {
		out := make([]byte, 16)
		for pb.Next() {
			table.Unsigned.FetchInc(obj, 5, unsafe.Pointer(&out[0]))
		}
	})
}
