package atomics

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/atomics/internal/metrics"
	"github.com/nmxmxh/atomics/internal/utils"
	"github.com/nmxmxh/atomics/native"
)

func newTestBytes(t *testing.T, width int) *Bytes {
	t.Helper()
	env := testEnv(native.NewGoProvider(native.GoProviderConfig{}))
	b, err := env.NewBytes(width)
	require.NoError(t, err)
	t.Cleanup(b.Release)
	return b
}

func pattern(width int, seed byte) []byte {
	out := make([]byte, width)
	for i := range out {
		out[i] = seed + byte(i)*17
	}
	return out
}

func TestBytesStartsZeroed(t *testing.T) {
	for _, width := range testWidths {
		b := newTestBytes(t, width)
		v, err := b.Load(SeqCst)
		require.NoError(t, err)
		assert.Equal(t, make([]byte, width), v)
		assert.Equal(t, width, b.Width())
		assert.False(t, b.Readonly())
	}
}

func TestBytesStoreLoadExchange(t *testing.T) {
	for _, width := range testWidths {
		b := newTestBytes(t, width)
		first, second := pattern(width, 1), pattern(width, 99)

		require.NoError(t, b.Store(first, Release))
		v, err := b.Load(Acquire)
		require.NoError(t, err)
		assert.Equal(t, first, v, "width %d", width)

		prev, err := b.Exchange(second, AcqRel)
		require.NoError(t, err)
		assert.Equal(t, first, prev)

		v, err = b.Load(Relaxed)
		require.NoError(t, err)
		assert.Equal(t, second, v)
	}
}

func TestCmpxchgStrongLaws(t *testing.T) {
	for _, width := range testWidths {
		b := newTestBytes(t, width)
		stored := pattern(width, 3)
		require.NoError(t, b.Store(stored, SeqCst))

		// success: Expected is the caller's expected, the value becomes desired
		expected := bytes.Clone(stored)
		desired := pattern(width, 200)
		res, err := b.CmpxchgStrong(expected, desired, SeqCst, SeqCst)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, stored, res.Expected)
		v, _ := b.Load(SeqCst)
		assert.Equal(t, desired, v)

		// failure: Expected is the stored value, the value is unchanged
		wrong := pattern(width, 77)
		res, err = b.CmpxchgStrong(wrong, pattern(width, 5), SeqCst, Relaxed)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, desired, res.Expected)
		v, _ = b.Load(SeqCst)
		assert.Equal(t, desired, v)

		// the caller's buffers are never written
		assert.Equal(t, pattern(width, 77), wrong)
	}
}

func TestCmpxchgWeakEventuallySucceeds(t *testing.T) {
	b := newTestBytes(t, 3)
	expected := make([]byte, 3)
	desired := []byte{1, 2, 3}
	for {
		res, err := b.CmpxchgWeak(expected, desired, AcqRel, Acquire)
		require.NoError(t, err)
		if res.Success {
			break
		}
		expected = res.Expected
	}
	v, _ := b.Load(SeqCst)
	assert.Equal(t, desired, v)
}

func TestCmpxchgFailureOrderRejected(t *testing.T) {
	b := newTestBytes(t, 4)
	_, err := b.CmpxchgWeak(make([]byte, 4), make([]byte, 4), Relaxed, Acquire)
	var orderErr *MemoryOrderError
	require.ErrorAs(t, err, &orderErr)
	assert.True(t, orderErr.IsFail)
	assert.Equal(t, OpCmpxchgWeak, orderErr.Op)

	_, err = b.CmpxchgWeak(make([]byte, 4), make([]byte, 4), SeqCst, Acquire)
	assert.NoError(t, err)
}

func TestOrderRejectedBeforeSideEffects(t *testing.T) {
	b := newTestBytes(t, 4)
	assert.ErrorIs(t, b.Store([]byte{1, 1, 1, 1}, Acquire), ErrInvalidMemoryOrder)
	assert.ErrorIs(t, b.Store([]byte{1, 1, 1, 1}, AcqRel), ErrInvalidMemoryOrder)
	_, err := b.Load(Release)
	assert.ErrorIs(t, err, ErrInvalidMemoryOrder)
	_, err = b.Load(AcqRel)
	assert.ErrorIs(t, err, ErrInvalidMemoryOrder)

	v, _ := b.Load(SeqCst)
	assert.Equal(t, make([]byte, 4), v)
}

func TestBitOperations(t *testing.T) {
	for _, width := range testWidths {
		b := newTestBytes(t, width)
		last := width*8 - 1

		for _, idx := range []int{0, 9 % (width * 8), last} {
			was, err := b.BitTestSet(idx, SeqCst)
			require.NoError(t, err)
			assert.False(t, was)

			set, err := b.BitTest(idx, Acquire)
			require.NoError(t, err)
			assert.True(t, set)

			v, _ := b.Load(SeqCst)
			assert.NotZero(t, v[idx/8]&(1<<(idx%8)), "bit %d lives in byte %d", idx, idx/8)

			was, err = b.BitTestReset(idx, SeqCst)
			require.NoError(t, err)
			assert.True(t, was)

			was, err = b.BitTestCompl(idx, SeqCst)
			require.NoError(t, err)
			assert.False(t, was)
			was, err = b.BitTestCompl(idx, SeqCst)
			require.NoError(t, err)
			assert.True(t, was)
		}

		v, _ := b.Load(SeqCst)
		assert.Equal(t, make([]byte, width), v)
	}
}

func TestBitIndexRange(t *testing.T) {
	b := newTestBytes(t, 2)
	for _, idx := range []int{-1, 16, 100} {
		_, err := b.BitTest(idx, SeqCst)
		var idxErr *IndexOutOfRangeError
		require.ErrorAs(t, err, &idxErr, "index %d", idx)
		assert.Equal(t, idx, idxErr.Index)
		assert.Equal(t, 2, idxErr.Width)
	}
	_, err := b.BitTestSet(15, SeqCst)
	assert.NoError(t, err)
}

func TestBinaryOperations(t *testing.T) {
	for _, width := range testWidths {
		b := newTestBytes(t, width)
		a, m := pattern(width, 0x5a), pattern(width, 0x0f)
		require.NoError(t, b.Store(a, SeqCst))

		want := make([]byte, width)
		for i := range want {
			want[i] = a[i] | m[i]
		}
		prev, err := b.FetchOr(m, SeqCst)
		require.NoError(t, err)
		assert.Equal(t, a, prev)
		v, _ := b.Load(SeqCst)
		assert.Equal(t, want, v)

		require.NoError(t, b.Xor(m, SeqCst))
		require.NoError(t, b.And(a, SeqCst))
		require.NoError(t, b.Not(SeqCst))
		for i := range want {
			want[i] = ^((want[i] ^ m[i]) & a[i])
		}
		v, _ = b.Load(SeqCst)
		assert.Equal(t, want, v, "width %d", width)

		prev, err = b.FetchNot(SeqCst)
		require.NoError(t, err)
		assert.Equal(t, want, prev)

		prev, err = b.FetchAnd(make([]byte, width), SeqCst)
		require.NoError(t, err)
		for i := range want {
			want[i] = ^want[i]
		}
		assert.Equal(t, want, prev)

		prev, err = b.FetchXor(m, SeqCst)
		require.NoError(t, err)
		assert.Equal(t, make([]byte, width), prev)
		require.NoError(t, b.Or(a, SeqCst))
	}
}

func TestOperandLength(t *testing.T) {
	b := newTestBytes(t, 4)

	err := b.Store([]byte{1, 2, 3}, SeqCst)
	var lenErr *OperandLengthError
	require.ErrorAs(t, err, &lenErr)
	assert.Equal(t, "desired", lenErr.Operand)
	assert.Equal(t, 3, lenErr.Length)
	assert.Equal(t, 4, lenErr.Width)

	_, err = b.CmpxchgStrong([]byte{1}, make([]byte, 4), SeqCst, SeqCst)
	require.ErrorAs(t, err, &lenErr)
	assert.Equal(t, "expected", lenErr.Operand)

	_, err = b.CmpxchgStrong(make([]byte, 4), make([]byte, 5), SeqCst, SeqCst)
	require.ErrorAs(t, err, &lenErr)
	assert.Equal(t, "desired", lenErr.Operand)

	assert.ErrorIs(t, b.Or(nil, SeqCst), ErrOperandLength)
}

func TestBytesHasNoArithmetic(t *testing.T) {
	b := newTestBytes(t, 8)
	for _, op := range b.OpsSupported() {
		assert.False(t, op.IsArithmetic())
	}
	assert.False(t, b.Supports(OpAdd))
	_, err := b.perform(request{op: OpFetchAdd, order: SeqCst, value: make([]byte, 8)})
	var opErr *UnsupportedOperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, OpFetchAdd, opErr.Op)
	assert.Equal(t, 8, opErr.Width)
}

func TestBytesReleaseIdempotent(t *testing.T) {
	b := newTestBytes(t, 4)
	assert.False(t, b.Released())
	b.Release()
	b.Release()
	assert.True(t, b.Released())
	assert.Equal(t, 4, b.Width())
	assert.NotEmpty(t, b.OpsSupported())

	_, err := b.Load(SeqCst)
	assert.ErrorIs(t, err, ErrUseAfterRelease)
	assert.ErrorIs(t, b.Store(make([]byte, 4), SeqCst), ErrUseAfterRelease)
	assert.Equal(t, "Bytes{released}", b.String())
}

func TestBytesString(t *testing.T) {
	b := newTestBytes(t, 2)
	require.NoError(t, b.Store([]byte{0xab, 0xcd}, SeqCst))
	assert.Equal(t, "Bytes{value: 0xabcd, width: 2, readonly: false}", b.String())
}

func TestMethodValueKeepsOwnedObjectAlive(t *testing.T) {
	env := testEnv(native.NewGoProvider(native.GoProviderConfig{}))
	b, err := env.NewBytes(4)
	require.NoError(t, err)
	require.NoError(t, b.Store([]byte{1, 2, 3, 4}, SeqCst))

	load := b.Load
	b = nil
	for range 5 {
		runtime.GC()
	}

	v, err := load(SeqCst)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, v)
}

func TestUnreachableOwnedObjectIsReleased(t *testing.T) {
	rec := metrics.New()
	env := NewEnv(Config{
		Provider: native.NewGoProvider(native.GoProviderConfig{}),
		Logger:   utils.NopLogger(),
		Metrics:  rec,
	})

	func() {
		u, err := env.NewUint(8)
		require.NoError(t, err)
		_, err = u.FetchInc(SeqCst)
		require.NoError(t, err)
	}()
	require.Contains(t, liveObjects(t, rec), "atomics_live_objects 1")

	assert.Eventually(t, func() bool {
		runtime.GC()
		return strings.Contains(liveObjects(t, rec), "atomics_live_objects 0")
	}, 5*time.Second, 10*time.Millisecond)
}

func liveObjects(t *testing.T, rec *metrics.Recorder) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, rec.WriteText(&out))
	return out.String()
}
