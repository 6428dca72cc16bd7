package atomics

import (
	"encoding/binary"
	"math/big"
	"slices"
	"unsafe"
)

var nativeLittleEndian = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// intBounds returns the inclusive range of a width byte integer.
func intBounds(width int, signed bool) (lo, hi *big.Int) {
	bits := uint(width) * 8
	if signed {
		hi = new(big.Int).Lsh(big.NewInt(1), bits-1)
		lo = new(big.Int).Neg(hi)
		hi.Sub(hi, big.NewInt(1))
		return lo, hi
	}
	hi = new(big.Int).Lsh(big.NewInt(1), bits)
	hi.Sub(hi, big.NewInt(1))
	return new(big.Int), hi
}

// encodeInt renders v as a width byte two's complement integer in native
// byte order.
func encodeInt(v *big.Int, width int, signed bool) ([]byte, error) {
	if v == nil {
		return nil, &ValueRangeError{Width: width, Signed: signed}
	}
	lo, hi := intBounds(width, signed)
	if v.Cmp(lo) < 0 || v.Cmp(hi) > 0 {
		return nil, &ValueRangeError{Value: new(big.Int).Set(v), Width: width, Signed: signed}
	}

	u := v
	if v.Sign() < 0 {
		u = new(big.Int).Lsh(big.NewInt(1), uint(width)*8)
		u.Add(u, v)
	}
	out := make([]byte, width)
	u.FillBytes(out)
	if nativeLittleEndian {
		slices.Reverse(out)
	}
	return out, nil
}

// decodeInt is the inverse of encodeInt.
func decodeInt(b []byte, signed bool) *big.Int {
	be := slices.Clone(b)
	if nativeLittleEndian {
		slices.Reverse(be)
	}
	v := new(big.Int).SetBytes(be)
	if signed && len(be) > 0 && be[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(len(be))*8))
	}
	return v
}

func uintptrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}
