// Package blobstore is the file-I/O facility row blocks are read through.
//
// A matrix file is a blob. Workers only ever need positional reads,
// addressed by (blob, offset, size), and a completion that carries the bytes
// or an error; writers need to create a blob once. BlobStore captures exactly
// that, so the same engine runs over local disks, object storage, or memory.
//
// # Built-in Implementations
//
//   - LocalStore: local file system, reads served from a read-only mmap
//   - MemoryStore: in-process map, for tests and small matrices
//   - CachingStore: wraps any store with an LRU block cache
//   - s3.Store: Amazon S3 ranged GETs and multipart uploads
//   - minio.Store: MinIO and other S3-compatible servers
//
// Implementations must be safe for concurrent use; every worker reads from the
// same Blob at the same time.
package blobstore
