package atomics

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testWidths = []int{1, 2, 3, 4, 5, 6, 7, 8, 16}

func boundaryValues(width int, signed bool) []*big.Int {
	lo, hi := intBounds(width, signed)
	vals := []*big.Int{lo, hi, big.NewInt(0), big.NewInt(1)}
	if signed {
		vals = append(vals, big.NewInt(-1), new(big.Int).Add(lo, big.NewInt(1)))
	} else {
		vals = append(vals, new(big.Int).Rsh(hi, 1))
	}
	return vals
}

func TestIntRoundTrip(t *testing.T) {
	for _, width := range testWidths {
		for _, signed := range []bool{true, false} {
			for _, v := range boundaryValues(width, signed) {
				b, err := encodeInt(v, width, signed)
				require.NoError(t, err, "width=%d signed=%t v=%s", width, signed, v)
				assert.Len(t, b, width)
				assert.Zero(t, decodeInt(b, signed).Cmp(v), "width=%d signed=%t v=%s", width, signed, v)
			}
		}
	}
}

func TestIntOutOfRange(t *testing.T) {
	for _, width := range testWidths {
		for _, signed := range []bool{true, false} {
			lo, hi := intBounds(width, signed)
			for _, v := range []*big.Int{
				new(big.Int).Sub(lo, big.NewInt(1)),
				new(big.Int).Add(hi, big.NewInt(1)),
			} {
				_, err := encodeInt(v, width, signed)
				var rangeErr *ValueRangeError
				require.ErrorAs(t, err, &rangeErr, "width=%d signed=%t v=%s", width, signed, v)
				assert.Equal(t, width, rangeErr.Width)
				assert.Equal(t, signed, rangeErr.Signed)
				assert.ErrorIs(t, err, ErrValueOutOfRange)
			}
		}
	}

	_, err := encodeInt(nil, 4, true)
	assert.ErrorIs(t, err, ErrValueOutOfRange)
}

func TestEncodeNativeByteOrder(t *testing.T) {
	b, err := encodeInt(big.NewInt(0x0102), 2, false)
	require.NoError(t, err)
	if nativeLittleEndian {
		assert.Equal(t, []byte{0x02, 0x01}, b)
	} else {
		assert.Equal(t, []byte{0x01, 0x02}, b)
	}

	b, err = encodeInt(big.NewInt(-2), 3, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []byte{0xff, 0xff, 0xfe}, b)
}

func TestDecodeSignedness(t *testing.T) {
	allOnes := []byte{0xff, 0xff}
	assert.Equal(t, int64(-1), decodeInt(allOnes, true).Int64())
	assert.Equal(t, int64(0xffff), decodeInt(allOnes, false).Int64())
}
