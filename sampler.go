package frontier

// WeightedSampler implements a streaming weighted reservoir sample: it
// selects up to k items from a single pass over an arbitrarily long stream
// of (item, weight) pairs in O(k) memory. This mirrors, line for line, the
// original implementation's weighted_sample (core/src/crawler/crawl_db.rs):
// an exponential-jump priority per item, kept in a bounded max-heap.
//
// This is deliberately built on container/heap and math/rand rather than a
// pack library: it is the spec's own 16-line algorithm, not an ambient
// concern, and no retrieved repo ships a weighted-reservoir-over-a-bounded-
// heap primitive to reuse (see DESIGN.md).

import (
	"container/heap"
	"math"
	"math/rand"
)

// epsilon matches Rust's f64::EPSILON, used to keep -ln(u+epsilon) finite
// when the stream yields u == 0.
const epsilon = 2.2204460492503131e-16

// WeightedSampler draws up to K items from a stream via Offer, biased so
// that items with larger weight are more likely to be retained. It is not
// safe for concurrent use; callers needing concurrency should use one
// sampler per goroutine.
type WeightedSampler[T any] struct {
	k    int
	rng  *rand.Rand
	heap sampledHeap[T]
}

// NewWeightedSampler creates a sampler that will retain at most k items. If
// rng is nil, a new source seeded from the runtime is used; tests that need
// determinism should pass a seeded *rand.Rand.
func NewWeightedSampler[T any](k int, rng *rand.Rand) *WeightedSampler[T] {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	s := &WeightedSampler[T]{k: k, rng: rng}
	if k > 0 {
		s.heap = make(sampledHeap[T], 0, k)
	}
	return s
}

// Offer feeds one (item, weight) pair from the stream into the reservoir.
// weight must be >= 0; negative weights are a caller precondition violation
// and are treated as weight 0 rather than panicking, since an upstream
// re-weighting bug should degrade gracefully, not bring down ingest.
func (s *WeightedSampler[T]) Offer(item T, weight float64) {
	if s.k == 0 {
		return
	}
	if weight < 0 || math.IsNaN(weight) {
		weight = 0
	}

	u := s.rng.Float64()
	priority := -math.Log(u+epsilon) / (weight + 1.0)

	if len(s.heap) < s.k {
		heap.Push(&s.heap, sampledItem[T]{item: item, priority: priority})
		return
	}

	if priority < s.heap[0].priority {
		s.heap[0].item = item
		s.heap[0].priority = priority
		heap.Fix(&s.heap, 0)
	}
}

// Result returns the retained items, in no particular order (callers must
// not rely on a weight-order guarantee).
func (s *WeightedSampler[T]) Result() []T {
	out := make([]T, len(s.heap))
	for i, si := range s.heap {
		out[i] = si.item
	}
	return out
}

// SampleWeighted is a convenience one-shot helper: it drains items through a
// sampler of size k and returns the retained items.
func SampleWeighted[T any](k int, rng *rand.Rand, items func(yield func(item T, weight float64) bool)) []T {
	s := NewWeightedSampler[T](k, rng)
	if k == 0 {
		return s.Result()
	}
	items(func(item T, weight float64) bool {
		s.Offer(item, weight)
		return true
	})
	return s.Result()
}

type sampledItem[T any] struct {
	item     T
	priority float64
}

// sampledHeap is a max-heap on priority: the root is always the largest
// priority currently retained, so a new item with a smaller priority should
// replace it. NaN priorities cannot occur here because weight is clamped to
// a non-negative finite value in Offer and u+epsilon is always positive.
type sampledHeap[T any] []sampledItem[T]

func (h sampledHeap[T]) Len() int { return len(h) }
func (h sampledHeap[T]) Less(i, j int) bool {
	return h[i].priority > h[j].priority
}
func (h sampledHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *sampledHeap[T]) Push(x any) {
	*h = append(*h, x.(sampledItem[T]))
}

func (h *sampledHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
