// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package texture provides the image buffers the compositing engine and the
// decal pipeline operate on.
//
// A Buffer is a 2D RGBA8 pixel buffer with straight (non-premultiplied)
// alpha. Buffers are either owned, created with NewBuffer and held by whoever
// created them, or temporary, acquired from a Pool and handed back with
// Pool.Release. Every stage that receives a temporary either releases it or
// transfers it explicitly; temporaries are never aliased.
package texture

import (
	"errors"
	"image/color"

	"github.com/gogpu/gputypes"
)

// Common errors for buffer operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("texture: invalid dimensions")

	// ErrSizeMismatch is returned when two buffers must have equal size.
	ErrSizeMismatch = errors.New("texture: buffer size mismatch")

	// ErrOutOfBounds is returned when pixel coordinates are outside the buffer.
	ErrOutOfBounds = errors.New("texture: coordinates out of bounds")
)

// bytesPerPixel is fixed: every buffer is RGBA8.
const bytesPerPixel = 4

// Buffer is an RGBA8 straight-alpha pixel buffer.
//
// Thread safety: Buffer is safe for concurrent reads. Writes require
// external synchronization.
type Buffer struct {
	data   []byte
	width  int
	height int
	stride int

	// pool is set while the buffer is a live temporary of that pool.
	pool *Pool
	name string
}

// NewBuffer creates an owned, fully transparent buffer.
func NewBuffer(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	stride := width * bytesPerPixel
	return &Buffer{
		data:   make([]byte, stride*height),
		width:  width,
		height: height,
		stride: stride,
	}, nil
}

// NewFilled creates an owned buffer filled with a solid color.
func NewFilled(width, height int, c color.NRGBA) (*Buffer, error) {
	b, err := NewBuffer(width, height)
	if err != nil {
		return nil, err
	}
	b.Fill(c)
	return b, nil
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.height }

// Bounds returns the buffer dimensions as (width, height).
func (b *Buffer) Bounds() (int, int) { return b.width, b.height }

// Stride returns the number of bytes per row.
func (b *Buffer) Stride() int { return b.stride }

// Data returns the raw RGBA8 pixel data.
func (b *Buffer) Data() []byte { return b.data }

// Name returns the debug name of the buffer.
func (b *Buffer) Name() string { return b.name }

// SetName sets a debug name used in logs and GPU descriptors.
func (b *Buffer) SetName(name string) { b.name = name }

// Temporary reports whether the buffer is a live temporary of a pool.
func (b *Buffer) Temporary() bool { return b.pool != nil }

// SameSize reports whether both buffers have identical dimensions.
func (b *Buffer) SameSize(o *Buffer) bool {
	return b.width == o.width && b.height == o.height
}

// TextureFormat returns the GPU format a backend uploads this buffer as.
func (b *Buffer) TextureFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// ByteSize returns the size of the pixel data in bytes.
func (b *Buffer) ByteSize() int { return len(b.data) }

// RowBytes returns the pixel data of row y, or nil if y is out of bounds.
func (b *Buffer) RowBytes(y int) []byte {
	if y < 0 || y >= b.height {
		return nil
	}
	start := y * b.stride
	return b.data[start : start+b.width*bytesPerPixel]
}

// PixelOffset returns the byte offset of pixel (x, y), or -1 when out of bounds.
func (b *Buffer) PixelOffset(x, y int) int {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return -1
	}
	return y*b.stride + x*bytesPerPixel
}

// GetRGBA returns the 8-bit channels at (x, y).
// Returns (0,0,0,0) if coordinates are out of bounds.
func (b *Buffer) GetRGBA(x, y int) (r, g, bl, a uint8) {
	off := b.PixelOffset(x, y)
	if off < 0 {
		return 0, 0, 0, 0
	}
	p := b.data[off : off+4 : off+4]
	return p[0], p[1], p[2], p[3]
}

// SetRGBA sets the 8-bit channels at (x, y).
func (b *Buffer) SetRGBA(x, y int, r, g, bl, a uint8) error {
	off := b.PixelOffset(x, y)
	if off < 0 {
		return ErrOutOfBounds
	}
	p := b.data[off : off+4 : off+4]
	p[0], p[1], p[2], p[3] = r, g, bl, a
	return nil
}

// NRGBAAt returns the pixel at (x, y) as a color.NRGBA.
func (b *Buffer) NRGBAAt(x, y int) color.NRGBA {
	r, g, bl, a := b.GetRGBA(x, y)
	return color.NRGBA{R: r, G: g, B: bl, A: a}
}

// Clear sets every pixel to transparent black.
func (b *Buffer) Clear() {
	clear(b.data)
}

// Fill sets every pixel to c.
func (b *Buffer) Fill(c color.NRGBA) {
	for y := range b.height {
		row := b.RowBytes(y)
		for x := 0; x < len(row); x += 4 {
			row[x], row[x+1], row[x+2], row[x+3] = c.R, c.G, c.B, c.A
		}
	}
}

// Clone returns an owned deep copy.
func (b *Buffer) Clone() *Buffer {
	data := make([]byte, len(b.data))
	copy(data, b.data)
	return &Buffer{
		data:   data,
		width:  b.width,
		height: b.height,
		stride: b.stride,
		name:   b.name,
	}
}

// CopyFrom copies every pixel of src into b. Sizes must match.
func (b *Buffer) CopyFrom(src *Buffer) error {
	if !b.SameSize(src) {
		return ErrSizeMismatch
	}
	if b.stride == src.stride {
		copy(b.data, src.data)
		return nil
	}
	for y := range b.height {
		copy(b.RowBytes(y), src.RowBytes(y))
	}
	return nil
}

// BlitFrom copies src into b, resampling bilinearly when sizes differ.
func (b *Buffer) BlitFrom(src *Buffer) {
	if b.SameSize(src) {
		_ = b.CopyFrom(src)
		return
	}
	fw, fh := float64(b.width), float64(b.height)
	for y := range b.height {
		row := b.RowBytes(y)
		v := (float64(y) + 0.5) / fh
		for x := range b.width {
			u := (float64(x) + 0.5) / fw
			r, g, bl, a := SampleBilinear(src, u, v)
			i := x * 4
			row[i], row[i+1], row[i+2], row[i+3] = r, g, bl, a
		}
	}
}

// IsTransparent reports whether every pixel has zero alpha.
func (b *Buffer) IsTransparent() bool {
	for y := range b.height {
		row := b.RowBytes(y)
		for x := 3; x < len(row); x += 4 {
			if row[x] != 0 {
				return false
			}
		}
	}
	return true
}
