// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package decal

import (
	"image"
	"math"

	"github.com/flywave/go3d/float64/vec2"
	"golang.org/x/image/vector"

	"github.com/gogpu/texstack/texture"
)

// WrapMode controls decal samples outside the [0,1] decal square.
type WrapMode uint8

const (
	// NotWrap drops samples outside the decal square.
	NotWrap WrapMode = iota

	// Wrap repeats the decal.
	Wrap
)

// String returns the mode name.
func (w WrapMode) String() string {
	if w == Wrap {
		return "Wrap"
	}
	return "NotWrap"
}

// triangleRaster writes decal texels into a target texture one mesh
// triangle at a time. Coverage comes from a vector rasterizer over the
// triangle's bounding box; any covered pixel is written, so edge pixels are
// included.
type triangleRaster struct {
	z       *vector.Rasterizer
	pix     []byte
	wrap    WrapMode
	filter  texture.Filter
	padding float64
}

// draw rasterizes triangle tri of a mesh into dst, reading decal texels from
// src. meshUV places the triangle on dst; decalUV places it on src.
// It returns the number of pixels written.
func (r *triangleRaster) draw(dst, src *texture.Buffer, tri TriangleIndex, meshUV, decalUV []vec2.T) int {
	w, h := float64(dst.Width()), float64(dst.Height())
	var p, d [3]vec2.T
	for i, v := range tri {
		p[i] = vec2.T{meshUV[v][0] * w, meshUV[v][1] * h}
		d[i] = decalUV[v]
	}
	if math.Abs(cross2(p[0], p[1], p[2])) < 1e-12 {
		return 0
	}
	outline := pad(p, r.padding)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, q := range outline {
		minX, maxX = min(minX, q[0]), max(maxX, q[0])
		minY, maxY = min(minY, q[1]), max(maxY, q[1])
	}
	x0 := max(0, int(math.Floor(minX)))
	y0 := max(0, int(math.Floor(minY)))
	x1 := min(dst.Width(), int(math.Ceil(maxX)))
	y1 := min(dst.Height(), int(math.Ceil(maxY)))
	if x1 <= x0 || y1 <= y0 {
		return 0
	}
	bw, bh := x1-x0, y1-y0
	mask := r.mask(bw, bh)

	ox, oy := float64(x0), float64(y0)
	r.z.MoveTo(float32(outline[0][0]-ox), float32(outline[0][1]-oy))
	r.z.LineTo(float32(outline[1][0]-ox), float32(outline[1][1]-oy))
	r.z.LineTo(float32(outline[2][0]-ox), float32(outline[2][1]-oy))
	r.z.ClosePath()
	r.z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	written := 0
	for y := range bh {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+bw]
		for x, cov := range row {
			if cov == 0 {
				continue
			}
			c := vec2.T{ox + float64(x) + 0.5, oy + float64(y) + 0.5}
			w0, w1, w2, ok := barycentric(c, p[0], p[1], p[2])
			if !ok {
				continue
			}
			u := w0*d[0][0] + w1*d[1][0] + w2*d[2][0]
			v := w0*d[0][1] + w1*d[1][1] + w2*d[2][1]
			if r.wrap == Wrap {
				u -= math.Floor(u)
				v -= math.Floor(v)
			} else if u < 0 || u > 1 || v < 0 || v > 1 {
				continue
			}
			// Decal v grows upward, image rows grow downward.
			dst.Set(x0+x, y0+y, texture.Sample(src, u, 1-v, r.filter))
			written++
		}
	}
	return written
}

// mask returns a cleared w x h coverage mask and resets the rasterizer to
// the same size.
func (r *triangleRaster) mask(w, h int) *image.Alpha {
	if r.z == nil {
		r.z = vector.NewRasterizer(w, h)
	} else {
		r.z.Reset(w, h)
	}
	n := w * h
	if cap(r.pix) < n {
		r.pix = make([]byte, n)
	}
	r.pix = r.pix[:n]
	clear(r.pix)
	return &image.Alpha{Pix: r.pix, Stride: w, Rect: image.Rect(0, 0, w, h)}
}

// pad moves each vertex away from the centroid by px pixels.
func pad(p [3]vec2.T, px float64) [3]vec2.T {
	if px <= 0 {
		return p
	}
	c := vec2.T{(p[0][0] + p[1][0] + p[2][0]) / 3, (p[0][1] + p[1][1] + p[2][1]) / 3}
	var out [3]vec2.T
	for i, q := range p {
		dx, dy := q[0]-c[0], q[1]-c[1]
		l := math.Hypot(dx, dy)
		if l == 0 {
			out[i] = q
			continue
		}
		out[i] = vec2.T{q[0] + dx/l*px, q[1] + dy/l*px}
	}
	return out
}
