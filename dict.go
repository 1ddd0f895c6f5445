package lrudict

import (
	"errors"
	"fmt"
)

// Callback is invoked once per evicted (key, value) pair, outside the
// critical section of whichever operation triggered the eviction (§4.6).
//
// A non-nil return is classified into one of two buckets:
//
//   - Swallowable: any ordinary error. It is routed to the installed
//     Logger (the "unraisable" hook, §4.6/§7) and the drain continues
//     with the next item.
//   - Non-swallowable: an error that is, or wraps, ErrShutdown or a
//     *FatalCallbackError. The drain stops immediately and the error
//     propagates to the caller of the public operation that triggered
//     it. A callback panic is treated the same way: it is recovered and
//     reported as a *FatalCallbackError rather than crashing the
//     caller's goroutine.
type Callback[K comparable, V any] func(key K, value V) error

// Pair is one (key, value) entry of an ordered Update source.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// defaultPendingMax is the default PENDING_MAX (§3, §9): the maximum
// number of purge-queue drain workers allowed to run concurrently.
const defaultPendingMax = 65535

// updateBatchSize bounds how many pairs Update applies per critical
// section (§4.4 update, §5 cancellation). A large external source is
// therefore never held under one uninterrupted critical section.
const updateBatchSize = 128

// LRUDict is a bounded-capacity, generic key-value container with LRU
// eviction. See the package doc comment for the concurrency and
// reentrancy model. The zero value is not usable; construct with New.
type LRUDict[K comparable, V any] struct {
	size     int
	callback Callback[K, V]
	hasher   Hasher[K]

	idx   *index[K, V]
	order *orderList[K, V]
	purge *purgeQueue[K, V]

	hits, misses uint64

	busy           bool
	detectConflict bool
	purgeSuspended bool
	pendingMax     int64
	pending        int64

	logger  Logger
	metrics *Metrics
}

// New constructs an LRUDict bounded to size entries. size must be at
// least 1 (invariant 8); WithHasher, WithCallback and the other Options
// configure everything else.
func New[K comparable, V any](size int, opts ...Option[K, V]) (*LRUDict[K, V], error) {
	if size < 1 {
		return nil, &BadArgumentError{Msg: fmt.Sprintf("size must be >= 1, got %d", size)}
	}
	d := &LRUDict[K, V]{
		size:           size,
		hasher:         defaultHasher[K]{},
		idx:            newIndex[K, V](),
		order:          &orderList[K, V]{},
		detectConflict: true,
		pendingMax:     defaultPendingMax,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.purge = newPurgeQueue[K, V](d.pendingMax)
	return d, nil
}

// hash invokes the installed Hasher, recovering a panic into a
// *HasherError rather than letting foreign code crash the caller.
func (d *LRUDict[K, V]) hash(key K) (h uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				e = errUnwrapPanic(r)
			}
			err = &HasherError{Err: e}
		}
	}()
	return d.hasher.Hash(key), nil
}

// enter marks the start of a critical section. If one is already in
// progress (busy), and conflict detection is on, the write is refused
// with BusyError before any state changes. With detection off, the
// caller proceeds unchecked, at its own risk (§5 "the container does not
// serialize; it rejects" — turning detection off removes the rejection,
// not the risk).
func (d *LRUDict[K, V]) enter(op string) error {
	if d.busy && d.detectConflict {
		d.logBusyRejection(op)
		if d.metrics != nil {
			d.metrics.busyRejections.Inc()
		}
		return &BusyError{Op: op}
	}
	d.busy = true
	return nil
}

// exit ends the critical section opened by enter.
func (d *LRUDict[K, V]) exit() {
	d.busy = false
}

// enterHash opens the critical section for a single-key operation and
// only then computes key's hash. Go has no hookable key equality to
// stand in for §5 suspension point (b), so the Hasher (point (a)) is
// this port's one reachable foreign-code reentrancy path for a
// single-key op, and busy has to already be set when it runs: otherwise
// a Hasher that calls back into this LRUDict could never observe
// busy == true, and the reentrancy-detection contract (§5, invariant 7)
// would be unobservable through anything but literal concurrent
// goroutines. See TestBusyDetection.
//
// A Hasher failure (panic) unwinds the critical section it was opened
// under before returning, same as any other failed write.
func (d *LRUDict[K, V]) enterHash(op string, key K) (uint64, error) {
	if err := d.enter(op); err != nil {
		return 0, err
	}
	hash, err := d.hash(key)
	if err != nil {
		d.exit()
		return 0, d.finish(err)
	}
	return hash, nil
}

// finish combines an operation's own outcome with any error surfaced by
// the automatic purge-queue drain every write/read attempts on exit
// (§4.4 "Unless stated, ... attempt a purge-drain on exit"). Either half
// may be nil; errors.Join drops nils and yields nil for (nil, nil).
func (d *LRUDict[K, V]) finish(primary error) error {
	_, drainErr := d.tryDrain(false)
	return errors.Join(primary, drainErr)
}

// evictTail removes the current LRU entry (§4.5). If a callback is
// installed the node is staged on the purge queue for deferred delivery;
// otherwise it is simply unlinked and left for the garbage collector.
func (d *LRUDict[K, V]) evictTail() {
	n := d.order.back()
	if n == nil {
		return
	}
	d.order.detach(n)
	d.idx.delete(n.key, n.keyHash)
	if d.callback != nil {
		d.purge.append(n)
	}
	if d.metrics != nil {
		d.metrics.evictions.Inc()
	}
}

// insertOrEvict inserts a brand-new node at the head of the order list
// and index, evicting the tail if capacity is now exceeded. Called only
// from inside a critical section.
func (d *LRUDict[K, V]) insertOrEvict(key K, value V, hash uint64) {
	n := &node[K, V]{key: key, value: value, keyHash: hash}
	d.order.pushFront(n)
	d.idx.put(n)
	if d.idx.len() > d.size {
		d.evictTail()
	}
}

// Lookup returns the value stored at key and promotes it to
// most-recently-used. It returns ErrNotFound if key is absent.
func (d *LRUDict[K, V]) Lookup(key K) (V, error) {
	var zero V
	hash, err := d.enterHash("Lookup", key)
	if err != nil {
		return zero, err
	}
	n, ok := d.idx.get(key, hash)
	if !ok {
		d.misses++
		if d.metrics != nil {
			d.metrics.misses.Inc()
		}
		d.exit()
		return zero, d.finish(ErrNotFound)
	}
	d.order.promote(n)
	d.hits++
	if d.metrics != nil {
		d.metrics.hits.Inc()
	}
	v := n.value
	d.exit()
	return v, d.finish(nil)
}

// Contains reports whether key is present, without changing order or
// hit/miss counters.
func (d *LRUDict[K, V]) Contains(key K) (bool, error) {
	hash, err := d.enterHash("Contains", key)
	if err != nil {
		return false, err
	}
	_, ok := d.idx.get(key, hash)
	d.exit()
	return ok, d.finish(nil)
}

// Assign inserts or updates key with value, promoting it to
// most-recently-used. If inserting a new key pushes the container over
// capacity, the least-recently-used entry is evicted. Hit/miss counters
// are not affected — Assign is a write, not a read (§4.4).
func (d *LRUDict[K, V]) Assign(key K, value V) error {
	hash, err := d.enterHash("Assign", key)
	if err != nil {
		return err
	}
	if n, ok := d.idx.get(key, hash); ok {
		// The displaced value is kept alive in this local until after the
		// critical section exits, mirroring §4.4's "old value is kept
		// alive until after the critical section exits, then released" —
		// Go's GC performs the actual release, so there is no explicit
		// free step, but the ordering (swap under the critical section,
		// drop the reference only after exit) is preserved.
		old := n.value
		n.value = value
		d.order.promote(n)
		d.exit()
		_ = old
		return d.finish(nil)
	}
	d.insertOrEvict(key, value, hash)
	d.exit()
	return d.finish(nil)
}

// Remove deletes key. It returns ErrNotFound if key is absent. Unlike
// capacity-triggered eviction, an explicit Remove never invokes the
// eviction callback (§4.4 remove: "release Node after critical section",
// with no mention of callback delivery — only automatic eviction stages
// nodes on the purge queue).
func (d *LRUDict[K, V]) Remove(key K) error {
	hash, err := d.enterHash("Remove", key)
	if err != nil {
		return err
	}
	n, ok := d.idx.get(key, hash)
	if !ok {
		d.exit()
		return d.finish(ErrNotFound)
	}
	d.order.detach(n)
	d.idx.delete(key, hash)
	d.exit()
	return d.finish(nil)
}

// Get returns the value at key, or def if key is absent. It
// never returns an error for a miss; misses still increment the miss
// counter.
func (d *LRUDict[K, V]) Get(key K, def V) (V, error) {
	hash, err := d.enterHash("Get", key)
	if err != nil {
		return def, err
	}
	n, ok := d.idx.get(key, hash)
	if !ok {
		d.misses++
		if d.metrics != nil {
			d.metrics.misses.Inc()
		}
		d.exit()
		return def, d.finish(nil)
	}
	d.order.promote(n)
	d.hits++
	if d.metrics != nil {
		d.metrics.hits.Inc()
	}
	v := n.value
	d.exit()
	return v, d.finish(nil)
}

// SetDefault returns the existing value at key if present (promoting it,
// exactly like Lookup), or inserts (key, def) and returns def if absent.
// Neither branch touches the hit/miss counters: a hit returns via the
// same path as Lookup's hit branch conceptually, but §4.4 is explicit
// that "this is not counted as a miss or a hit (absent-then-insert is a
// write)" for the insert branch, and the read branch of SetDefault is
// likewise left uncounted to keep the two branches symmetric.
func (d *LRUDict[K, V]) SetDefault(key K, def V) (V, error) {
	hash, err := d.enterHash("SetDefault", key)
	if err != nil {
		return def, err
	}
	if n, ok := d.idx.get(key, hash); ok {
		d.order.promote(n)
		v := n.value
		d.exit()
		return v, d.finish(nil)
	}
	d.insertOrEvict(key, def, hash)
	d.exit()
	return def, d.finish(nil)
}

// Pop removes and returns the value at key, incrementing the hit
// counter. It returns ErrNotFound (and increments the miss counter) if
// key is absent; use PopOrDefault for a miss that should not error.
func (d *LRUDict[K, V]) Pop(key K) (V, error) {
	var zero V
	hash, err := d.enterHash("Pop", key)
	if err != nil {
		return zero, err
	}
	n, ok := d.idx.get(key, hash)
	if !ok {
		d.misses++
		if d.metrics != nil {
			d.metrics.misses.Inc()
		}
		d.exit()
		return zero, d.finish(ErrNotFound)
	}
	d.hits++
	if d.metrics != nil {
		d.metrics.hits.Inc()
	}
	d.order.detach(n)
	d.idx.delete(key, hash)
	v := n.value
	d.exit()
	return v, d.finish(nil)
}

// PopOrDefault behaves like Pop, but returns def instead of ErrNotFound
// on a miss.
func (d *LRUDict[K, V]) PopOrDefault(key K, def V) (V, error) {
	v, err := d.Pop(key)
	if errors.Is(err, ErrNotFound) {
		return def, d.finish(nil)
	}
	return v, err
}

// PopItem removes and returns the most-recently-used entry (mru = true)
// or the least-recently-used entry (mru = false). It returns ErrEmpty if
// the container holds no entries. Hit/miss counters are not affected.
func (d *LRUDict[K, V]) PopItem(mru bool) (key K, value V, err error) {
	if err := d.enter("PopItem"); err != nil {
		return key, value, err
	}
	var n *node[K, V]
	if mru {
		n = d.order.front()
	} else {
		n = d.order.back()
	}
	if n == nil {
		d.exit()
		return key, value, d.finish(ErrEmpty)
	}
	key, value = n.key, n.value
	d.order.detach(n)
	d.idx.delete(n.key, n.keyHash)
	d.exit()
	return key, value, d.finish(nil)
}

// PeekFirst returns the most-recently-used (key, value) without
// mutating order or counters. It returns ErrEmpty if the container holds
// no entries.
func (d *LRUDict[K, V]) PeekFirst() (key K, value V, err error) {
	if err := d.enter("PeekFirst"); err != nil {
		return key, value, err
	}
	n := d.order.front()
	if n == nil {
		d.exit()
		return key, value, d.finish(ErrEmpty)
	}
	key, value = n.key, n.value
	d.exit()
	return key, value, d.finish(nil)
}

// PeekLast returns the least-recently-used (key, value) without mutating
// order or counters. It returns ErrEmpty if the container holds no
// entries.
func (d *LRUDict[K, V]) PeekLast() (key K, value V, err error) {
	if err := d.enter("PeekLast"); err != nil {
		return key, value, err
	}
	n := d.order.back()
	if n == nil {
		d.exit()
		return key, value, d.finish(ErrEmpty)
	}
	key, value = n.key, n.value
	d.exit()
	return key, value, d.finish(nil)
}

// Clear empties the container and resets the hit/miss counters.
// Displaced entries are not routed through the purge queue and the
// eviction callback is never invoked for them: Clear is an
// administrative reset, and delivering a potentially large burst of
// callbacks here would surprise callers and risks a re-entrant storm
// (§4.4, and the §9 Open Question, both preserved deliberately).
func (d *LRUDict[K, V]) Clear() error {
	if err := d.enter("Clear"); err != nil {
		return err
	}
	d.idx.reset()
	d.order.reset()
	d.hits, d.misses = 0, 0
	d.exit()
	return d.finish(nil)
}

// Update merges pairs into the container in order, applying at most
// updateBatchSize pairs per critical section (§4.4 update, §5
// cancellation): a large pairs slice is never held under one
// uninterrupted critical section, and any ambient cancellation the host
// application layers on top can take effect between batches. Every pair
// is applied exactly once, in the order given.
func (d *LRUDict[K, V]) Update(pairs []Pair[K, V]) error {
	for len(pairs) > 0 {
		n := updateBatchSize
		if n > len(pairs) {
			n = len(pairs)
		}
		batch := pairs[:n]
		pairs = pairs[n:]

		// Hashes are computed for the whole batch before entering the
		// critical section (§4.2, §5): hashing may run foreign code, and
		// a batch's worth of it must not happen mid-critical-section.
		hashes := make([]uint64, n)
		for i, p := range batch {
			h, err := d.hash(p.Key)
			if err != nil {
				return err
			}
			hashes[i] = h
		}

		if err := d.enter("Update"); err != nil {
			return err
		}
		// displaced retains replaced values only until the critical
		// section exits, matching Assign's rationale above.
		displaced := make([]V, 0, n)
		for i, p := range batch {
			hash := hashes[i]
			if existing, ok := d.idx.get(p.Key, hash); ok {
				displaced = append(displaced, existing.value)
				existing.value = p.Value
				d.order.promote(existing)
				continue
			}
			d.insertOrEvict(p.Key, p.Value, hash)
		}
		d.exit()
		_ = displaced
		if err := d.finish(nil); err != nil {
			return err
		}
	}
	return nil
}

// UpdateMap merges m into the container. Go map iteration order is
// randomized per call by the runtime, so the order in which Update
// applies the pairs is, for this convenience wrapper, whatever order the
// runtime hands back — callers needing a deterministic
// order should build a []Pair and call Update directly.
func (d *LRUDict[K, V]) UpdateMap(m map[K]V) error {
	pairs := make([]Pair[K, V], 0, len(m))
	for k, v := range m {
		pairs = append(pairs, Pair[K, V]{Key: k, Value: v})
	}
	return d.Update(pairs)
}

// Resize changes the capacity bound. newSize must be at least 1. If the
// container currently holds more than newSize entries, the
// least-recently-used entries are evicted until it fits, in LRU-first
// order, exactly as ordinary capacity-triggered eviction would.
func (d *LRUDict[K, V]) Resize(newSize int) error {
	if newSize < 1 {
		return &BadArgumentError{Msg: fmt.Sprintf("size must be >= 1, got %d", newSize)}
	}
	if err := d.enter("Resize"); err != nil {
		return err
	}
	d.size = newSize
	for d.idx.len() > d.size {
		d.evictTail()
	}
	d.exit()
	return d.finish(nil)
}

// SetCallback replaces the eviction callback (nil disables delivery).
// Nodes already staged on the purge queue are delivered to whichever
// callback is installed at the moment the drain reaches them, not
// retroactively to the callback that was current when they were
// enqueued (§4.4 set_callback).
func (d *LRUDict[K, V]) SetCallback(cb Callback[K, V]) error {
	if err := d.enter("SetCallback"); err != nil {
		return err
	}
	d.callback = cb
	d.exit()
	return d.finish(nil)
}

// Purge forces a drain regardless of WithPurgeSuspended, and returns the
// number of items it delivered. It may return 0 even with a non-empty
// purge queue if PENDING_MAX concurrent drain workers are already active
// elsewhere; the items remain queued for a later drain.
func (d *LRUDict[K, V]) Purge() (int, error) {
	if err := d.enter("Purge"); err != nil {
		return 0, err
	}
	d.exit()
	return d.tryDrain(true)
}

// Len reports the number of live entries.
func (d *LRUDict[K, V]) Len() int { return d.idx.len() }

// Size reports the current capacity bound.
func (d *LRUDict[K, V]) Size() int { return d.size }

// PurgeQueueSize reports the number of evicted entries awaiting callback
// delivery (spec's read-only purge_queue_size knob, §6).
func (d *LRUDict[K, V]) PurgeQueueSize() int { return d.purge.len() }

// DetectConflict reports whether reentrant writes are currently rejected
// with BusyError.
func (d *LRUDict[K, V]) DetectConflict() bool { return d.detectConflict }

// SetDetectConflict toggles BusyError rejection at runtime.
func (d *LRUDict[K, V]) SetDetectConflict(on bool) { d.detectConflict = on }

// PurgeSuspended reports whether automatic drains are currently skipped.
func (d *LRUDict[K, V]) PurgeSuspended() bool { return d.purgeSuspended }

// SetPurgeSuspended toggles automatic drain suspension at runtime. Purge
// always drains regardless of this setting.
func (d *LRUDict[K, V]) SetPurgeSuspended(on bool) { d.purgeSuspended = on }

// Stats is the §4.7 hits/misses snapshot.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// Stats returns a snapshot of the hit/miss counters.
func (d *LRUDict[K, V]) Stats() Stats {
	return Stats{Hits: d.hits, Misses: d.misses}
}
