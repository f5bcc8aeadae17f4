// Package numa discovers NUMA nodes and pins worker threads to them.
//
// A worker bound to node n locks its goroutine to an OS thread and restricts
// that thread to the CPUs of node n, so the buffers it allocates for row
// blocks are first touched (and therefore placed) on local memory. On
// platforms without affinity support Pin is a no-op that reports
// ErrUnsupported, and callers carry on unpinned.
package numa
