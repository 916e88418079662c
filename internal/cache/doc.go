// Package cache provides the small generic caching primitives shared by the
// filter pipeline.
//
// # List[K]
//
// An intrusive doubly-linked recency list. The texture pool uses it to order
// idle render targets so the least recently returned one is evicted first.
// List is not safe for concurrent use.
//
// # Cache[K, V]
//
// A mutex-guarded LRU map with a soft limit, used for blur kernels and quad
// geometry that are expensive to rebuild but cheap to keep.
//
//	kernels := cache.New[int, []float32](64)
//	k := kernels.GetOrCreate(radius, func() []float32 { return build(radius) })
package cache
