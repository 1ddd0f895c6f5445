// Command lrudictdemo is a small, runnable illustration of lrudict's
// eviction, deferred-callback and Stats behavior, adapted from the library's own
// package-level usage examples.
package main

import (
	"fmt"
	"log"

	"github.com/Krishna8167/lrudict"
)

func main() {
	var evicted []string

	d, err := lrudict.New[string, int](3,
		lrudict.WithCallback(func(key string, value int) error {
			evicted = append(evicted, fmt.Sprintf("%s=%d", key, value))
			return nil
		}),
	)
	if err != nil {
		log.Fatalf("lrudict.New: %v", err)
	}

	for i, key := range []string{"a", "b", "c", "d"} {
		if err := d.Assign(key, i); err != nil {
			log.Fatalf("Assign(%s): %v", key, err)
		}
	}

	// Capacity is 3, so inserting "d" evicted the least-recently-used
	// entry, "a". The callback delivery happens synchronously by the time
	// Assign returns (the purge queue drains at the end of every write),
	// so evicted is already populated here.
	fmt.Println("evicted:", evicted)

	if _, _, err := d.PeekFirst(); err != nil {
		log.Fatalf("PeekFirst: %v", err)
	}
	mruKey, mruValue, _ := d.PeekFirst()
	fmt.Printf("most recently used: %s=%d\n", mruKey, mruValue)

	stats := d.Stats()
	fmt.Printf("stats: hits=%d misses=%d\n", stats.Hits, stats.Misses)
}
