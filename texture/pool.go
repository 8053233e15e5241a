// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/texstack/internal/logging"
)

// Pool errors.
var (
	// ErrResourceExhausted is returned when an allocation would exceed the
	// pool's byte budget.
	ErrResourceExhausted = errors.New("texture: resource exhausted")

	// ErrNotTemporary is returned when releasing or detaching a buffer that
	// is not a live temporary (an owned buffer, or one already released).
	ErrNotTemporary = errors.New("texture: buffer is not a live temporary")

	// ErrForeignPool is returned when a temporary is handed to a pool that
	// did not issue it.
	ErrForeignPool = errors.New("texture: buffer belongs to another pool")
)

// Pool hands out temporary buffers and takes them back.
//
// Pool groups free buffers by their dimensions so that identically sized
// temporaries are recycled instead of reallocated. It also counts the
// temporaries currently out, which lets callers verify that every exit path
// released what it acquired.
//
// Thread safety: All methods are safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	buckets map[poolKey][]*Buffer
	maxSize int // max free buffers per bucket

	budget      int64 // 0 means unlimited
	liveBytes   int64
	outstanding int
}

// poolKey identifies a bucket of identical buffer sizes.
type poolKey struct {
	width  int
	height int
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithBudget caps the bytes of live temporaries. Zero means unlimited.
func WithBudget(bytes int64) PoolOption {
	return func(p *Pool) {
		p.budget = max(bytes, 0)
	}
}

// WithMaxPerBucket limits how many free buffers of each size are retained.
// Zero means unlimited.
func WithMaxPerBucket(n int) PoolOption {
	return func(p *Pool) {
		p.maxSize = max(n, 0)
	}
}

// NewPool creates a pool. By default it keeps up to 8 free buffers per size
// and has no budget.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		buckets: make(map[poolKey][]*Buffer),
		maxSize: 8,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire returns a cleared temporary of the given size.
// The caller must hand it back with Release or take it over with Detach.
func (p *Pool) Acquire(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	size := int64(width) * int64(height) * bytesPerPixel
	key := poolKey{width: width, height: height}

	p.mu.Lock()
	if p.budget > 0 && p.liveBytes+size > p.budget {
		live := p.liveBytes
		p.mu.Unlock()
		logging.Logger().Warn("texture: pool budget exceeded",
			"width", width, "height", height, "live", live, "budget", p.budget)
		return nil, fmt.Errorf("acquire %dx%d: %w", width, height, ErrResourceExhausted)
	}
	p.liveBytes += size
	p.outstanding++

	bucket := p.buckets[key]
	var buf *Buffer
	if len(bucket) > 0 {
		buf = bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
	}
	p.mu.Unlock()

	if buf != nil {
		buf.Clear()
	} else {
		stride := width * bytesPerPixel
		buf = &Buffer{data: make([]byte, stride*height), width: width, height: height, stride: stride}
	}
	buf.pool = p
	buf.name = ""
	return buf, nil
}

// AcquireLike returns a cleared temporary with the same size as b.
func (p *Pool) AcquireLike(b *Buffer) (*Buffer, error) {
	return p.Acquire(b.width, b.height)
}

// AcquireCopy returns a temporary holding a copy of b.
func (p *Pool) AcquireCopy(b *Buffer) (*Buffer, error) {
	t, err := p.AcquireLike(b)
	if err != nil {
		return nil, err
	}
	_ = t.CopyFrom(b)
	return t, nil
}

// Release hands a temporary back to the pool. Releasing nil is a no-op.
func (p *Pool) Release(buf *Buffer) error {
	if buf == nil {
		return nil
	}
	if err := p.untrack(buf); err != nil {
		return err
	}

	key := poolKey{width: buf.width, height: buf.height}
	p.mu.Lock()
	defer p.mu.Unlock()
	bucket := p.buckets[key]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return nil
	}
	p.buckets[key] = append(bucket, buf)
	return nil
}

// Detach transfers a temporary to the caller. The buffer becomes owned and
// no longer counts against the pool.
func (p *Pool) Detach(buf *Buffer) (*Buffer, error) {
	if buf == nil {
		return nil, ErrNotTemporary
	}
	if err := p.untrack(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (p *Pool) untrack(buf *Buffer) error {
	if buf.pool == nil {
		return ErrNotTemporary
	}
	if buf.pool != p {
		return ErrForeignPool
	}
	buf.pool = nil

	p.mu.Lock()
	p.liveBytes -= int64(len(buf.data))
	p.outstanding--
	p.mu.Unlock()
	return nil
}

// Outstanding returns the number of temporaries acquired and not yet
// released or detached.
func (p *Pool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding
}

// LiveBytes returns the bytes held by outstanding temporaries.
func (p *Pool) LiveBytes() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.liveBytes
}

// Budget returns the configured byte budget, 0 when unlimited.
func (p *Pool) Budget() int64 {
	return p.budget
}

// Drain drops every free buffer kept for reuse.
func (p *Pool) Drain() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.buckets)
}

// defaultPool is the package-level pool for convenient usage.
var defaultPool = NewPool()

// DefaultPool returns the package-level pool.
func DefaultPool() *Pool { return defaultPool }
