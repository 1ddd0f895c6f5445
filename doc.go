/*
Package lrudict implements a bounded-capacity, generic associative
container with least-recently-used (LRU) eviction and an optional
eviction callback.

================================================================================
OVERVIEW
================================================================================

LRUDict behaves like a map[K]V with a fixed maximum number of entries.
Once that bound is reached, inserting a new key evicts the least-recently
used entry and, if a callback is installed, hands the evicted (key, value)
pair to it. Every successful Lookup, Assign, or SetDefault hit promotes the
touched key to most-recently-used (MRU).

The data structure is the familiar pairing of a hash index with an
intrusive doubly linked list (see node.go, index.go): O(1) average lookup,
O(1) promotion, O(1) eviction.

================================================================================
THE SAFETY ENVELOPE
================================================================================

The interesting part is not the list/map pairing, it is staying internally
consistent while foreign code — a user-supplied Hasher, or the eviction
callback — runs during what would otherwise be a critical section, and
can re-enter the same LRUDict.

Three pieces cooperate:

 1. A cooperative "busy" latch (dict.go) flags the window between entering
    and leaving a write operation. A write that re-enters the same LRUDict
    while busy is already set is refused with a *BusyError* instead of
    being allowed to observe half-updated structures.
 2. Evicted nodes are not handed to the callback in place. They are parked
    on a purge queue (purge.go) and only delivered once the triggering
    operation has left its critical section — so the callback, which may
    re-enter LRUDict, never runs "inside" the very operation it was
    triggered by.
 3. Hashing a key is explicitly treated as something that can call
    arbitrary user code, so a single-key operation opens its busy latch
    before invoking the Hasher rather than after: the Hasher is the one
    reentrancy path this port can actually detect, so it has to run
    inside the guarded window, not before it. A Hasher that panics fails
    the operation cleanly, with no structures left half-updated.

================================================================================
CONCURRENCY
================================================================================

LRUDict assumes a single-writer discipline: it does not serialize
concurrent callers, it rejects overlapping calls where it can detect them.
A caller that needs real concurrent access from multiple goroutines must
wrap its calls in its own lock, the same way the host runtime this design
is ported from provides one ambient lock around all container code. The
BusyError mechanism exists to catch *reentrancy* — a Hasher calling back
into the same LRUDict instance mid-operation — not to make LRUDict
goroutine-safe on its own. The eviction callback runs after the
triggering operation has left its critical section, so a callback that
calls back into the LRUDict is not refused.

The purge queue is the one component built to tolerate genuine concurrent
callers: multiple goroutines may each trigger a drain at the same time
(for instance because each is finishing its own write), and drain workers
claim disjoint, non-overlapping ranges of the queue to deliver.
*/
package lrudict
