package lrudict

// Option configures an LRUDict at construction time. This follows the
// functional options pattern: New's signature stays stable as knobs are
// added, and each Option is self-documenting at the call site.
//
//	d, err := lrudict.New[string, int](128,
//		lrudict.WithCallback(func(k string, v int) error { ... }),
//		lrudict.WithDetectConflict[string, int](true),
//	)
type Option[K comparable, V any] func(*LRUDict[K, V])

// WithHasher installs a custom Hasher, replacing the SipHash-based
// default. Use this for a key type where the default's fmt.Sprintf-based
// hashing is too slow, or where domain-specific hashing is required.
func WithHasher[K comparable, V any](h Hasher[K]) Option[K, V] {
	return func(d *LRUDict[K, V]) {
		if h != nil {
			d.hasher = h
		}
	}
}

// WithCallback installs the eviction callback. A nil callback (the
// default) disables delivery entirely; evicted nodes are then released
// immediately instead of being staged on the purge queue (§4.5).
func WithCallback[K comparable, V any](cb Callback[K, V]) Option[K, V] {
	return func(d *LRUDict[K, V]) {
		d.callback = cb
	}
}

// WithDetectConflict controls whether a write that re-enters LRUDict
// mid-operation is rejected with BusyError (true, the default) or simply
// allowed to proceed at the caller's own risk (false).
func WithDetectConflict[K comparable, V any](on bool) Option[K, V] {
	return func(d *LRUDict[K, V]) {
		d.detectConflict = on
	}
}

// WithPurgeSuspended controls whether automatic purge-queue drains run at
// the end of each write (false, the default) or are skipped until the
// caller explicitly calls Purge (true).
func WithPurgeSuspended[K comparable, V any](on bool) Option[K, V] {
	return func(d *LRUDict[K, V]) {
		d.purgeSuspended = on
	}
}

// WithPendingMax overrides the default bound on concurrently active purge
// drain workers (spec's PENDING_MAX). Lowering it trades prompt callback
// delivery for safety against a callback that evicts and re-enters
// without bound; Purge remains available as a manual escape hatch
// regardless of this setting.
func WithPendingMax[K comparable, V any](n int64) Option[K, V] {
	return func(d *LRUDict[K, V]) {
		if n > 0 {
			d.pendingMax = n
		}
	}
}

// WithLogger installs a Logger used to report BusyError rejections and
// swallowed callback errors. The default is nil, which disables this
// logging entirely — it is pure observability, never a behavioral
// dependency.
func WithLogger[K comparable, V any](l Logger) Option[K, V] {
	return func(d *LRUDict[K, V]) {
		d.logger = l
	}
}

// WithMetrics attaches a *Metrics collector that mirrors Stats() plus
// busy-rejection and purge-queue-depth observables as Prometheus
// instruments. See metrics.go.
func WithMetrics[K comparable, V any](m *Metrics) Option[K, V] {
	return func(d *LRUDict[K, V]) {
		d.metrics = m
	}
}
