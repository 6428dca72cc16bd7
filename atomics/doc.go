// Package atomics provides atomic operations on objects of any byte width
// the native provider supports. The operations available for a width, the
// alignment it needs and the legal memory orders are discovered at run time.
//
// Objects either own their memory (Bytes, Int, Uint) or borrow it from the
// caller for the duration of a view (BytesView, IntView, UintView):
//
//	counter, err := atomics.NewInt(16)
//	if err != nil {
//		return err
//	}
//	defer counter.Release()
//	prev, err := counter.FetchAdd(big.NewInt(5), atomics.SeqCst)
//
// Integer values are *big.Int so that widths beyond 8 bytes are usable.
// Byte values are exactly Width() bytes in native byte order.
package atomics
