// Package format defines the on-disk representation of a row-major matrix.
//
// A matrix named A is stored as two blobs:
//
//	A.data   row blocks, each RowBlockSize rows (the last may be short),
//	         optionally compressed, back to back
//	A.index  header, N+1 block offsets into A.data, one xxhash64 per
//	         block of compressed bytes, and a trailing xxhash64 of the
//	         index itself
//
// All integers are little-endian. Compression is why blocks vary in size
// and why the offsets are needed at all.
package format
