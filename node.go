package lrudict

// node is the intrusive cell backing both the Index (via hashNext) and the
// Order list (via prev/next). It carries one live or evicted (key, value)
// pair plus the key's hash, computed once at node creation and never
// recomputed.
//
// A node has exactly one logical owner at a time: the index (while live),
// the purge queue (while awaiting callback delivery), or a transient local
// variable while it is being moved between the two. Go's garbage collector
// takes care of actually freeing it once nothing references it any more;
// there is no explicit free step.
type node[K comparable, V any] struct {
	key     K
	value   V
	keyHash uint64

	// prev, next thread the node through the Order list. Both are nil
	// while the node is off the list (on the purge queue, or not yet
	// linked).
	prev, next *node[K, V]

	// hashNext chains nodes that land in the same index bucket. See
	// index.go.
	hashNext *node[K, V]
}

// orderList is a doubly linked list of nodes, head = most-recently used,
// tail = least-recently used. It is a pure in-memory structure: none of
// its operations invoke any user-supplied code, so none of them are
// suspension points.
type orderList[K comparable, V any] struct {
	head, tail *node[K, V]
	length     int
}

// pushFront links n at the head of the list. n must not currently be
// linked into any list.
func (l *orderList[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
	l.length++
}

// detach unlinks n from the list, patching up head/tail as needed. n must
// currently be linked into this list: detach does not check, and on an
// unlinked node it would reset head/tail and decrement length. Callers
// only call detach on nodes they know are on the list.
func (l *orderList[K, V]) detach(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	l.length--
}

// promote moves n to the head of the list. It is a no-op when n is
// already the head, matching invariant 4: "for any operation promoting
// node n, n is detached and reinserted at the head in one step."
func (l *orderList[K, V]) promote(n *node[K, V]) {
	if l.head == n {
		return
	}
	l.detach(n)
	l.pushFront(n)
}

func (l *orderList[K, V]) front() *node[K, V] { return l.head }
func (l *orderList[K, V]) back() *node[K, V]  { return l.tail }
func (l *orderList[K, V]) len() int           { return l.length }

// reset empties the list without touching any node's payload; used by
// Clear, which deliberately does not route displaced entries through the
// purge queue.
func (l *orderList[K, V]) reset() {
	l.head, l.tail, l.length = nil, nil, 0
}
