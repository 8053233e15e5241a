// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package decal

import (
	"fmt"
	"math"

	"github.com/flywave/go3d/float64/mat4"
	"github.com/flywave/go3d/float64/vec2"
	"github.com/flywave/go3d/float64/vec3"
	"gonum.org/v1/gonum/mat"
)

// Matrices are indexed [column][row], the go3d convention.

// transformPoint applies m to p with w = 1.
func transformPoint(m *mat4.T, p vec3.T) vec3.T {
	return vec3.T{
		m[0][0]*p[0] + m[1][0]*p[1] + m[2][0]*p[2] + m[3][0],
		m[0][1]*p[0] + m[1][1]*p[1] + m[2][1]*p[2] + m[3][1],
		m[0][2]*p[0] + m[1][2]*p[1] + m[2][2]*p[2] + m[3][2],
	}
}

// TRS returns the local-to-world matrix whose local axes are right, up and
// forward, each scaled, with its origin at position.
func TRS(position, right, up, forward vec3.T, scale vec3.T) mat4.T {
	m := mat4.Ident
	for r := range 3 {
		m[0][r] = right[r] * scale[0]
		m[1][r] = up[r] * scale[1]
		m[2][r] = forward[r] * scale[2]
		m[3][r] = position[r]
	}
	return m
}

// Invert returns the inverse of an affine or projective 4x4 matrix.
func Invert(m mat4.T) (mat4.T, error) {
	d := mat.NewDense(4, 4, nil)
	for c := range 4 {
		for r := range 4 {
			d.Set(r, c, m[c][r])
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(d); err != nil {
		return mat4.T{}, fmt.Errorf("%w: singular transform: %v", ErrNotExecutable, err)
	}
	var out mat4.T
	for c := range 4 {
		for r := range 4 {
			out[c][r] = inv.At(r, c)
		}
	}
	return out, nil
}

// LookBasis returns an orthonormal right, up, forward basis looking along
// forward with up as the vertical hint.
func LookBasis(forward, up vec3.T) (right, trueUp, fwd vec3.T, err error) {
	fwd = normalize(forward)
	right = vec3.Cross(&up, &fwd)
	if right.Length() < 1e-12 {
		return right, up, fwd, fmt.Errorf("%w: up is parallel to forward", ErrNotExecutable)
	}
	right = normalize(right)
	trueUp = vec3.Cross(&fwd, &right)
	return right, trueUp, fwd, nil
}

func normalize(v vec3.T) vec3.T {
	l := v.Length()
	if l == 0 {
		return v
	}
	return vec3.T{v[0] / l, v[1] / l, v[2] / l}
}

// rayTriangle returns the distance along dir at which the ray from origin
// hits triangle (a, b, c), using the Moller-Trumbore test. dir must be
// normalized for the distance to be metric.
func rayTriangle(origin, dir, a, b, c vec3.T) (float64, bool) {
	const eps = 1e-12
	e1 := vec3.Sub(&b, &a)
	e2 := vec3.Sub(&c, &a)
	p := vec3.Cross(&dir, &e2)
	det := vec3.Dot(&e1, &p)
	if math.Abs(det) < eps {
		return 0, false
	}
	inv := 1 / det
	s := vec3.Sub(&origin, &a)
	u := vec3.Dot(&s, &p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := vec3.Cross(&s, &e1)
	v := vec3.Dot(&dir, &q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := vec3.Dot(&e2, &q) * inv
	return t, t >= 0
}

// barycentric returns the weights of p relative to triangle (a, b, c) in 2D.
// ok is false for degenerate triangles. Weights may be negative outside.
func barycentric(p, a, b, c vec2.T) (w0, w1, w2 float64, ok bool) {
	den := (b[1]-c[1])*(a[0]-c[0]) + (c[0]-b[0])*(a[1]-c[1])
	if math.Abs(den) < 1e-12 {
		return 0, 0, 0, false
	}
	w0 = ((b[1]-c[1])*(p[0]-c[0]) + (c[0]-b[0])*(p[1]-c[1])) / den
	w1 = ((c[1]-a[1])*(p[0]-c[0]) + (a[0]-c[0])*(p[1]-c[1])) / den
	return w0, w1, 1 - w0 - w1, true
}

// segmentsIntersect reports whether segments p1p2 and q1q2 intersect in 2D.
func segmentsIntersect(p1, p2, q1, q2 vec2.T) bool {
	d1 := cross2(q1, q2, p1)
	d2 := cross2(q1, q2, p2)
	d3 := cross2(p1, p2, q1)
	d4 := cross2(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

func cross2(o, a, b vec2.T) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func onSegment(a, b, p vec2.T) bool {
	return min(a[0], b[0]) <= p[0] && p[0] <= max(a[0], b[0]) &&
		min(a[1], b[1]) <= p[1] && p[1] <= max(a[1], b[1])
}

// pointInTriangle reports whether p lies inside or on triangle (a, b, c).
func pointInTriangle(p, a, b, c vec2.T) bool {
	w0, w1, w2, ok := barycentric(p, a, b, c)
	return ok && w0 >= 0 && w1 >= 0 && w2 >= 0
}

func xy(v vec3.T) vec2.T { return vec2.T{v[0], v[1]} }
