// Package mem provides aligned buffers for matrix data.
//
// Every in-memory matrix keeps its elements in one contiguous byte buffer
// starting on a page boundary, so rows and columns of the common element
// types never straddle a cache line at the buffer start and the buffer can be
// handed to direct I/O. Slice reinterprets such a buffer as typed elements
// without copying.
package mem
