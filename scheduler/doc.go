// Package scheduler runs submitted tasks on a caller-driven cycle,
// at most one task per [Scheduler.RunOnce] call.
//
// Tasks are ranked at selection time, not at submission:
//
//   - A task submitted without a [PriorityFunc] outranks every task that has one.
//   - Among tasks with a PriorityFunc, the larger score runs first.
//   - Ties are broken arbitrarily.
//
// A PriorityFunc that panics is treated as absent.
// Tasks implementing [Cancelable] that report themselves canceled when
// selected are discarded without running. [Job] is a ready-made cancelable task.
package scheduler
