package lrudict

import "testing"

// BenchmarkAssignNoEviction measures the write-path cost when the
// container never reaches capacity: a single hot key overwritten
// repeatedly, isolating hashing + index lookup + promote from eviction
// and purge-queue overhead.
func BenchmarkAssignNoEviction(b *testing.B) {
	d, err := New[string, int](1024)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < b.N; i++ {
		if err := d.Assign("key", i); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkAssignWithEviction measures the full write path with the
// container held at capacity, so every Assign after warm-up evicts the
// tail with no callback installed: the evicted node is unlinked and never
// staged on the purge queue (the cheapest eviction path, §4.5's "may be
// released immediately" case).
func BenchmarkAssignWithEviction(b *testing.B) {
	d, err := New[int, int](128)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < b.N; i++ {
		if err := d.Assign(i, i); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkAssignWithEvictionAndCallback measures the same eviction path
// as BenchmarkAssignWithEviction, but with a (no-op) callback installed,
// so every eviction is staged on the purge queue and drained rather than
// released immediately.
func BenchmarkAssignWithEvictionAndCallback(b *testing.B) {
	d, err := New[int, int](128, WithCallback(func(int, int) error { return nil }))
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < b.N; i++ {
		if err := d.Assign(i, i); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkLookupHit measures the read path on a warm, fully populated
// container, isolating hashing + index lookup + promote cost.
func BenchmarkLookupHit(b *testing.B) {
	d, err := New[int, int](1024)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 1024; i++ {
		if err := d.Assign(i, i); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.Lookup(i % 1024); err != nil {
			b.Fatal(err)
		}
	}
}
