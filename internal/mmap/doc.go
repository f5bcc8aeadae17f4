// Package mmap maps matrix data files read-only into memory.
//
// Row blocks of an on-disk matrix are read through a Mapping so a worker can
// copy a block straight out of the page cache. Before a worker issues the
// read for its next block it may call AdviseRange with AccessWillNeed, which
// lets the kernel start paging the block in while the current block is being
// computed on.
//
// # Platform Support
//
//   - Unix: mmap(2) and madvise(2) via golang.org/x/sys/unix
//   - Windows: CreateFileMapping/MapViewOfFile; advice is a no-op
//
// A Mapping is safe for concurrent reads. Close is idempotent; callers must
// not touch slices returned by Bytes after Close.
package mmap
