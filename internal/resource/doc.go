// Package resource bounds what concurrent Recommend calls may consume.
//
// The Controller manages three resource types:
//
//   - Memory: per-call reservations for lookup maps and worker scratch
//     buffers (non-blocking, fail-fast)
//   - Calls: a cap on concurrently running batch calls (blocking)
//   - IO: a token bucket throttling segment reads from remote blob stores
//
// Memory:
//
//	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 30})
//	if err := rc.AcquireMemory(n); err != nil {
//	    return err // ErrMemoryLimitExceeded
//	}
//	defer rc.ReleaseMemory(n)
//
// Calls:
//
//	if err := rc.AcquireCall(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseCall()
//
// IO:
//
//	if err := rc.AcquireIO(ctx, len(block)); err != nil {
//	    return err
//	}
//
// All methods are safe for concurrent use and are no-ops on a nil Controller.
package resource
