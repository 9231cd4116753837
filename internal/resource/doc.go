// Package resource implements the Controller for engine-wide limits.
//
// The Controller governs two resource types:
//
//   - Memory: pattern stores, learning scores and the result pool are charged
//     against an optional hard limit (non-blocking, fail-fast)
//   - IO: knowledge pack transfers are bounded in concurrency (semaphore) and
//     throughput (token bucket)
//
// # Memory
//
// Memory tracking uses a weighted semaphore for hard limits and an atomic
// counter for usage. AcquireMemory returns ErrMemoryLimitExceeded immediately:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 20,
//	})
//
//	if err := rc.AcquireMemory(4096); err != nil {
//	    // ErrMemoryLimitExceeded
//	}
//	defer rc.ReleaseMemory(4096)
//
// The Controller satisfies arena.MemoryAcquirer and can be passed directly to
// arena.New and vectorstore.New.
//
// # IO
//
//	rc := resource.NewController(resource.Config{
//	    MaxIOWorkers:       4,
//	    IOLimitBytesPerSec: 8 << 20,
//	})
//
//	w := resource.NewRateLimitedWriter(ctx, blob, rc)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
