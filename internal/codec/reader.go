package codec

import "unsafe"

// MaxAlign is the largest alignment any plain value needs on supported platforms.
// Buffers handed to the Read functions must start at an address that is a multiple of it.
const MaxAlign = 8

// Padding returns the number of bytes needed to move position to the next multiple of align.
func Padding(position, align int) int {
	if align <= 1 {
		return 0
	}
	remainder := position % align
	if remainder == 0 {
		return 0
	}
	return align - remainder
}

// ReadRef returns a pointer into buf for the T that starts at pos once padding is skipped,
// along with the position right after it. Nothing is copied.
func ReadRef[T any](buf []byte, pos int) (*T, int) {
	var zero T
	pos += Padding(pos, int(unsafe.Alignof(zero)))
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return new(T), pos
	}
	b := buf[pos : pos+size]
	return (*T)(unsafe.Pointer(unsafe.SliceData(b))), pos + size
}

// ReadValue is ReadRef followed by a copy of the (small) value.
func ReadValue[T any](buf []byte, pos int) (T, int) {
	ref, next := ReadRef[T](buf, pos)
	return *ref, next
}

// ReadSlice reinterprets n contiguous values starting at pos as a []T backed by buf.
func ReadSlice[T any](buf []byte, pos, n int) ([]T, int) {
	var zero T
	pos += Padding(pos, int(unsafe.Alignof(zero)))
	size := int(unsafe.Sizeof(zero))
	if n == 0 {
		return []T{}, pos
	}
	if size == 0 {
		return make([]T, n), pos
	}
	b := buf[pos : pos+size*n]
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n), pos + size*n
}

func ReadLen(buf []byte, pos int) (int, int) {
	n, next := ReadValue[uint](buf, pos)
	return int(n), next
}

func ReadFlag(buf []byte, pos int) (bool, int) {
	flag, next := ReadValue[uint8](buf, pos)
	return flag == 1, next
}

func ReadRow[T any](buf []byte, pos int) ([]T, int) {
	n, pos := ReadLen(buf, pos)
	return ReadSlice[T](buf, pos, n)
}

// ReadRows reads what WriteRows wrote. Only the outer slice of row headers is allocated;
// every row aliases buf.
func ReadRows[T any](buf []byte, pos int) ([][]T, int) {
	n, pos := ReadLen(buf, pos)
	rows := make([][]T, n)
	for i := range rows {
		rows[i], pos = ReadRow[T](buf, pos)
	}
	return rows, pos
}

// IsAligned reports whether buf starts on a MaxAlign boundary.
func IsAligned(buf []byte) bool {
	if len(buf) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(buf)))%MaxAlign == 0
}

// AlignedBytes allocates n zeroed bytes starting on a MaxAlign boundary.
func AlignedBytes(n int) []byte {
	if n == 0 {
		return []byte{}
	}
	words := make([]uint64, (n+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), n)
}
