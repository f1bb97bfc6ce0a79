// Package frameloop keeps a render loop fed with work computed in the background,
// without blocking the render goroutine and without releasing resources
// the device may still be reading.
//
// A [Loop] is driven by calling [Loop.Update] once per rendered frame.
// Each update runs, in order:
//
//   - Operations queued with [Loop.OnNextUpdate].
//
//     One-shot, unprioritized.
//
//   - One task from the priority scheduler.
//
//     See package [scheduler]. At most one task per frame, so a burst of
//     submissions cannot cause a frame-time spike.
//
//   - Compile results.
//
//     Results of [Loop.Compile] that need a render-side update are merged
//     and handed to [Config.ApplyCompiled] on the updating goroutine.
//
//   - Deferred disposal.
//
//     See package [disposal]. Objects passed to [Loop.Dispose] are released
//     [Config.DisposalDepth]-1 frames later at the earliest.
//
//   - Bounded eviction.
//
//     Every cache registered with [Loop.Track] that is at capacity evicts
//     at most [Config.EvictVisits] entries not used since the previous frame.
//
// Background work enters through a [Loader], which fetches and decodes on
// a fixed pool of worker goroutines, memoizes the outcome (including failures)
// in a [resultcache.Cache], and delivers it back to the render goroutine as a
// prioritized, cancelable [scheduler.Job].
//
// Each component owns exactly one lock and never acquires another
// component's lock, so there is no lock ordering between them.
package frameloop
