// Package resource bounds the memory and I/O bandwidth an out-of-core run may use.
//
// Workers read row blocks into freshly allocated buffers. With many workers
// and several reads in flight per worker, the sum of those buffers can exceed
// what the node can hold, so every read reserves its byte size first:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   4 << 30,
//	    IOLimitBytesPerSec: 800 << 20,
//	})
//
//	if err := rc.AcquireMemory(ctx, size); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(size)
//	if err := rc.AcquireIO(ctx, int(size)); err != nil {
//	    return err
//	}
//
// AcquireMemory blocks until enough reserved bytes are released;
// TryAcquireMemory never blocks and is used by caches that may simply skip
// admission. The I/O limiter is a token bucket (golang.org/x/time/rate).
//
// A nil *Controller is valid and imposes no limits.
package resource
