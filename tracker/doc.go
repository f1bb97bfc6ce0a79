// Package tracker implements a [Tracker] that orders entries by use
// with a single sentinel marker, so that least-recently-used eviction
// costs a bounded number of steps per cycle.
//
// Glossary and invariants:
//
//   - Entry
//
//     A caller supplied value stored by the tracker, referenced by a [Token].
//
//   - Sentinel
//
//     A marker element that is never evicted and always occupies exactly one
//     position in the list.
//
//   - Hot
//
//     Entries in front of the sentinel: used since the last eviction pass.
//
//   - Cold
//
//     Entries behind the sentinel: not used since the last eviction pass.
//     These are the only eviction candidates.
//
// Operations:
//
//   - Touch
//
//     Moves an entry (or a new one) to the front of the list, ahead of the sentinel.
//
//   - Evict
//
//     Walks at most `maxVisits` cold entries starting at the sentinel,
//     removing those the predicate approves. The sentinel is then moved
//     to the front of the list so every surviving entry starts the next
//     cycle behind it; only entries touched before the next pass get ahead of it again.
//
// Tokens are weak handles. They stay valid until their entry is evicted,
// removed, or the tracker is cleared. Presenting a stale token is a caller
// error; builds using the `frameloop_debug` tag panic on it.
package tracker
