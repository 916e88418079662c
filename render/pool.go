// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/internal/cache"
)

// DefaultIdleBudget is the default amount of idle texture memory the pool
// keeps before it starts destroying the least recently returned textures.
const DefaultIdleBudget = 64 * 1024 * 1024

// poolKey buckets textures by physical size and resolution.
type poolKey struct {
	width, height int
	resolution    float32
}

// PoolStats contains texture pool statistics.
type PoolStats struct {
	// Allocated is the number of live textures (idle + in use).
	Allocated int

	// Idle is the number of textures waiting in the pool.
	Idle int

	// InUse is the number of textures checked out.
	InUse int

	// IdleBytes is the memory held by idle textures.
	IdleBytes uint64

	// Budget is the idle memory budget (0 means unlimited).
	Budget uint64

	// Hits counts Get calls served from the pool.
	Hits uint64

	// Misses counts Get calls that allocated.
	Misses uint64

	// Evictions counts idle textures destroyed to stay within budget.
	Evictions uint64
}

// String returns a human-readable summary.
func (s PoolStats) String() string {
	return fmt.Sprintf("Pool[%d allocated, %d in use, %d idle (%d KB), %d hits, %d misses, %d evictions]",
		s.Allocated, s.InUse, s.Idle, s.IdleBytes/1024, s.Hits, s.Misses, s.Evictions)
}

// PoolOption configures a TexturePool.
type PoolOption func(*poolOptions)

type poolOptions struct {
	budget uint64
	strict bool
}

// WithIdleBudget limits the memory held by idle textures. Zero disables the
// limit.
func WithIdleBudget(bytes uint64) PoolOption {
	return func(o *poolOptions) {
		o.budget = bytes
	}
}

// WithStrictOwnership makes ownership violations panic instead of being
// logged and returned as errors. Intended for tests and debug builds.
func WithStrictOwnership(strict bool) PoolOption {
	return func(o *poolOptions) {
		o.strict = strict
	}
}

// TexturePool recycles render targets.
//
// Requests are rounded up to power-of-two physical sizes so that textures of
// similar size share a bucket. Every texture carries an owner tag; returning
// or transferring a texture its holder does not own is a checked error.
//
// TexturePool is not safe for concurrent use. It belongs to a single filter
// system, which is driven from one goroutine.
type TexturePool struct {
	alloc Allocator
	opts  poolOptions

	idle      map[poolKey][]*Texture
	order     *cache.List[*Texture]
	idleBytes uint64

	nextID    uint64
	allocated int
	inUse     int

	hits      uint64
	misses    uint64
	evictions uint64

	closed bool
}

// NewTexturePool creates a pool that allocates through alloc.
func NewTexturePool(alloc Allocator, opts ...PoolOption) *TexturePool {
	o := poolOptions{budget: DefaultIdleBudget}
	for _, opt := range opts {
		opt(&o)
	}
	return &TexturePool{
		alloc: alloc,
		opts:  o,
		idle:  make(map[poolKey][]*Texture),
		order: cache.NewList[*Texture](),
	}
}

// Get returns a texture at least minWidth x minHeight logical units at the
// given resolution, owned by owner.
func (p *TexturePool) Get(minWidth, minHeight, resolution float32, owner Owner) (*Texture, error) {
	if p.closed {
		return nil, ErrPoolClosed
	}
	if resolution <= 0 {
		resolution = 1
	}
	if minWidth <= 0 || minHeight <= 0 {
		return nil, fmt.Errorf("%w: %gx%g", ErrInvalidSize, minWidth, minHeight)
	}

	key := poolKey{
		width:      BucketSize(minWidth, resolution),
		height:     BucketSize(minHeight, resolution),
		resolution: resolution,
	}

	if bucket := p.idle[key]; len(bucket) > 0 {
		tex := bucket[len(bucket)-1]
		p.idle[key] = bucket[:len(bucket)-1]
		p.order.Remove(tex.node)
		tex.node = nil
		p.idleBytes -= tex.SizeBytes()
		p.hits++
		p.checkout(tex, owner)
		return tex, nil
	}

	p.nextID++
	tex := &Texture{
		id:          p.nextID,
		pixelWidth:  key.width,
		pixelHeight: key.height,
		resolution:  resolution,
		key:         key,
		pool:        p,
	}
	if err := p.alloc.Allocate(tex); err != nil {
		return nil, fmt.Errorf("render: allocate %dx%d texture: %w", key.width, key.height, err)
	}
	p.misses++
	p.allocated++
	p.checkout(tex, owner)

	Logger().Debug("render: texture allocated",
		"id", tex.id, "width", key.width, "height", key.height, "resolution", resolution)
	return tex, nil
}

// Put returns a texture to the pool. A texture must be returned exactly once
// per Get; returning it again, or returning a texture from elsewhere, is a
// violation.
func (p *TexturePool) Put(tex *Texture) error {
	if tex == nil {
		return nil
	}
	if tex.pool != p {
		return p.violation(fmt.Errorf("%w: %s", ErrForeignTexture, tex))
	}
	if tex.owner == OwnerPool {
		return p.violation(fmt.Errorf("%w: %s", ErrTextureReleased, tex))
	}

	tex.owner = OwnerPool
	tex.Sampling = SamplingLinear
	p.inUse--

	if p.closed {
		p.destroy(tex)
		return nil
	}

	p.idle[tex.key] = append(p.idle[tex.key], tex)
	tex.node = p.order.PushFront(tex)
	p.idleBytes += tex.SizeBytes()
	p.evictIfNeeded()
	return nil
}

// Transfer hands tex from one owner to another. The current owner must be
// from.
func (p *TexturePool) Transfer(tex *Texture, from, to Owner) error {
	switch {
	case tex == nil:
		return nil
	case tex.pool != p:
		return p.violation(fmt.Errorf("%w: %s", ErrForeignTexture, tex))
	case tex.owner == OwnerPool:
		return p.violation(fmt.Errorf("%w: %s", ErrTextureReleased, tex))
	case tex.owner != from:
		return p.violation(fmt.Errorf("%w: %s held by %s, not %s", ErrOwnership, tex, tex.owner, from))
	}
	tex.owner = to
	return nil
}

// Owns reports whether tex was allocated by this pool.
func (p *TexturePool) Owns(tex *Texture) bool {
	return tex != nil && tex.pool == p
}

// InUse returns the number of textures currently checked out.
func (p *TexturePool) InUse() int { return p.inUse }

// Idle returns the number of textures waiting in the pool.
func (p *TexturePool) Idle() int { return p.order.Len() }

// Stats returns pool statistics.
func (p *TexturePool) Stats() PoolStats {
	return PoolStats{
		Allocated: p.allocated,
		Idle:      p.order.Len(),
		InUse:     p.inUse,
		IdleBytes: p.idleBytes,
		Budget:    p.opts.budget,
		Hits:      p.hits,
		Misses:    p.misses,
		Evictions: p.evictions,
	}
}

// Clear destroys every idle texture. Checked-out textures are unaffected.
func (p *TexturePool) Clear() {
	for {
		tex, ok := p.order.RemoveOldest()
		if !ok {
			break
		}
		tex.node = nil
		p.destroy(tex)
	}
	p.idle = make(map[poolKey][]*Texture)
	p.idleBytes = 0
}

// Close clears the pool and destroys textures as they are returned.
func (p *TexturePool) Close() {
	p.Clear()
	p.closed = true
}

func (p *TexturePool) checkout(tex *Texture, owner Owner) {
	tex.owner = owner
	tex.FilterFrame = geom.Rect{}
	p.inUse++
}

func (p *TexturePool) destroy(tex *Texture) {
	p.alloc.Release(tex)
	tex.Backing = nil
	p.allocated--
}

// evictIfNeeded destroys least recently returned idle textures until the idle
// memory is within budget.
func (p *TexturePool) evictIfNeeded() {
	if p.opts.budget == 0 {
		return
	}
	for p.idleBytes > p.opts.budget {
		tex, ok := p.order.RemoveOldest()
		if !ok {
			return
		}
		tex.node = nil
		bucket := p.idle[tex.key]
		for i, t := range bucket {
			if t == tex {
				p.idle[tex.key] = append(bucket[:i], bucket[i+1:]...)
				break
			}
		}
		p.idleBytes -= tex.SizeBytes()
		p.evictions++
		p.destroy(tex)
	}
}

func (p *TexturePool) violation(err error) error {
	if p.opts.strict {
		panic(err)
	}
	Logger().Warn("render: texture ownership violation", "err", err)
	return err
}

// BucketSize returns the physical dimension the pool allocates for a
// logical dimension at resolution.
func BucketSize(logical, resolution float32) int {
	return nextPow2(int(math32.Ceil(logical*resolution - 1e-6)))
}

// nextPow2 returns the smallest power of two >= v (and >= 1).
func nextPow2(v int) int {
	n := 1
	for n < v {
		n <<= 1
	}
	return n
}
