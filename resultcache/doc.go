// Package resultcache memoizes the outcome of expensive background
// computations, keyed by a stable identifier.
//
// A [Result] is either resolved with a value or failed with an error.
// Failures are cached like values (negative caching), so a computation
// that failed is not retried on every lookup; call [Cache.Invalidate]
// to allow a retry.
//
// Bounded caches evict through a [tracker.Tracker]: entries not looked up
// since the previous eviction pass are the candidates, and each pass
// visits a bounded number of them. The bound is soft; if every entry
// was used during the last cycle, a put may exceed capacity until the next pass.
package resultcache
