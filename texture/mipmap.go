// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"fmt"
	"math"
)

// MipmapChain holds pre-computed downscaled versions of a buffer.
//
// Level 0 is the source buffer and is not copied. Every following level is
// half the size of the previous one and is a temporary of the pool the chain
// was generated from, so the chain must be released with Release.
type MipmapChain struct {
	pool   *Pool
	levels []*Buffer
}

// GenerateMipmaps creates a mipmap chain of at most maxLevels levels
// (0 means down to 1 pixel) using a 2x2 box filter.
//
// On failure every level acquired so far is released.
func GenerateMipmaps(p *Pool, src *Buffer, maxLevels int) (*MipmapChain, error) {
	if src == nil {
		return nil, ErrInvalidDimensions
	}
	numLevels := 1 + int(math.Floor(math.Log2(float64(max(src.width, src.height)))))
	if maxLevels > 0 {
		numLevels = min(numLevels, maxLevels)
	}

	chain := &MipmapChain{pool: p, levels: make([]*Buffer, 1, numLevels)}
	chain.levels[0] = src
	for i := 1; i < numLevels; i++ {
		next, err := downsample(p, chain.levels[i-1])
		if err != nil {
			chain.Release()
			return nil, fmt.Errorf("mip level %d: %w", i, err)
		}
		chain.levels = append(chain.levels, next)
	}
	return chain, nil
}

// downsample creates a half-size version of src using a box filter.
func downsample(p *Pool, src *Buffer) (*Buffer, error) {
	srcW, srcH := src.Bounds()
	dstW := max(1, srcW/2)
	dstH := max(1, srcH/2)

	dst, err := p.Acquire(dstW, dstH)
	if err != nil {
		return nil, err
	}

	for dy := range dstH {
		for dx := range dstW {
			sx, sy := dx*2, dy*2
			sx1, sy1 := min(sx+1, srcW-1), min(sy+1, srcH-1)

			r0, g0, b0, a0 := src.GetRGBA(sx, sy)
			r1, g1, b1, a1 := src.GetRGBA(sx1, sy)
			r2, g2, b2, a2 := src.GetRGBA(sx, sy1)
			r3, g3, b3, a3 := src.GetRGBA(sx1, sy1)

			r := (uint16(r0) + uint16(r1) + uint16(r2) + uint16(r3)) / 4
			g := (uint16(g0) + uint16(g1) + uint16(g2) + uint16(g3)) / 4
			b := (uint16(b0) + uint16(b1) + uint16(b2) + uint16(b3)) / 4
			a := (uint16(a0) + uint16(a1) + uint16(a2) + uint16(a3)) / 4

			_ = dst.SetRGBA(dx, dy, byte(r), byte(g), byte(b), byte(a))
		}
	}
	return dst, nil
}

// Level returns the mipmap at the specified level, or nil when out of range.
func (m *MipmapChain) Level(n int) *Buffer {
	if m == nil || n < 0 || n >= len(m.levels) {
		return nil
	}
	return m.levels[n]
}

// NumLevels returns the number of levels in the chain.
func (m *MipmapChain) NumLevels() int {
	if m == nil {
		return 0
	}
	return len(m.levels)
}

// LevelForScale returns the index of the level to sample for a given
// displayed-to-original size ratio: floor(-log2(scale)), clamped to the chain.
func (m *MipmapChain) LevelForScale(scale float64) int {
	if m == nil || scale >= 1 {
		return 0
	}
	level := int(math.Floor(-math.Log2(scale)))
	return clamp(level, 0, len(m.levels)-1)
}

// Release returns every level except level 0 to the pool.
// After Release the chain must not be used.
func (m *MipmapChain) Release() {
	if m == nil {
		return
	}
	for i := 1; i < len(m.levels); i++ {
		if m.levels[i] != nil {
			_ = m.pool.Release(m.levels[i])
			m.levels[i] = nil
		}
	}
	m.levels = m.levels[:min(len(m.levels), 1)]
}
