package mem

import (
	"unsafe"
)

// PageSize is the alignment of matrix data buffers.
const PageSize = 4096

// AllocAligned allocates size bytes starting at an address divisible by align.
// align must be a power of two. The returned slice keeps the over-allocated
// backing array alive.
func AllocAligned(size, align int) []byte {
	if size <= 0 {
		return nil
	}
	if align <= 1 {
		return make([]byte, size)
	}

	buf := make([]byte, size+align)
	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // alignment needs the address
	offset := int((uintptr(align) - (addr & uintptr(align-1))) & uintptr(align-1))
	return buf[offset : offset+size : offset+size]
}

// AllocPage allocates a zeroed, page-aligned buffer of size bytes.
func AllocPage(size int) []byte {
	return AllocAligned(size, PageSize)
}

// IsAligned reports whether b starts at an address divisible by align.
func IsAligned(b []byte, align int) bool {
	if len(b) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&b[0]))%uintptr(align) == 0 //nolint:gosec // alignment check
}

// Slice reinterprets b as a slice of T. len(b) must be a multiple of
// unsafe.Sizeof(T) and b must be suitably aligned for T.
func Slice[T any](b []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(b) == 0 || size == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/size) //nolint:gosec // typed view
}

// Bytes reinterprets s as its underlying bytes.
func Bytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*size) //nolint:gosec // byte view
}
