package lrudict

// index is a key→node hash table keyed by the node's cached key hash,
// giving O(1) average membership/lookup without recomputing the hash.
// Collisions chain through node.hashNext (separate chaining) rather than
// allocating a bucket slice per entry.
//
// index owns the nodes it holds (invariant 2: every node reachable from
// the Order list is reachable from the index via its key, and vice
// versa), but carries no locking of its own — it is only ever touched
// from inside LRUDict's critical section.
type index[K comparable, V any] struct {
	buckets []*node[K, V]
	count   int
}

const initialBucketCount = 16

func newIndex[K comparable, V any]() *index[K, V] {
	return &index[K, V]{buckets: make([]*node[K, V], initialBucketCount)}
}

func (x *index[K, V]) bucketOf(hash uint64) int {
	return int(hash & uint64(len(x.buckets)-1))
}

// get looks up key using its precomputed hash. The hash must be exactly
// the value returned by the Hasher for this key; index never recomputes
// it.
func (x *index[K, V]) get(key K, hash uint64) (*node[K, V], bool) {
	for n := x.buckets[x.bucketOf(hash)]; n != nil; n = n.hashNext {
		if n.keyHash == hash && n.key == key {
			return n, true
		}
	}
	return nil, false
}

// put inserts a node that the caller has already verified is not present
// (get returned false for its key). put does not overwrite: callers that
// want replace-in-place semantics mutate node.value directly and never
// call put again for that key.
func (x *index[K, V]) put(n *node[K, V]) {
	if x.count >= len(x.buckets) {
		x.grow()
	}
	b := x.bucketOf(n.keyHash)
	n.hashNext = x.buckets[b]
	x.buckets[b] = n
	x.count++
}

// delete removes key (identified by its precomputed hash) from the
// index. It is a no-op if the key is not present.
func (x *index[K, V]) delete(key K, hash uint64) {
	b := x.bucketOf(hash)
	var prev *node[K, V]
	for n := x.buckets[b]; n != nil; n = n.hashNext {
		if n.keyHash == hash && n.key == key {
			if prev == nil {
				x.buckets[b] = n.hashNext
			} else {
				prev.hashNext = n.hashNext
			}
			n.hashNext = nil
			x.count--
			return
		}
		prev = n
	}
}

func (x *index[K, V]) grow() {
	grown := make([]*node[K, V], len(x.buckets)*2)
	for _, head := range x.buckets {
		for n := head; n != nil; {
			next := n.hashNext
			b := int(n.keyHash & uint64(len(grown)-1))
			n.hashNext = grown[b]
			grown[b] = n
			n = next
		}
	}
	x.buckets = grown
}

func (x *index[K, V]) len() int { return x.count }

// reset empties the index without touching any node's payload; used by
// Clear.
func (x *index[K, V]) reset() {
	x.buckets = make([]*node[K, V], initialBucketCount)
	x.count = 0
}
