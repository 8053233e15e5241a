// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshio

import (
	"github.com/flywave/go3d/float64/mat4"
	"github.com/flywave/go3d/float64/vec3"
	"github.com/qmuntal/gltf"
)

var identity = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// localMatrix returns the node's transform. A node carries either a
// column-major matrix or translation, rotation and scale.
func localMatrix(n *gltf.Node) mat4.T {
	if n.Matrix != identity && n.Matrix != [16]float32{} {
		var m mat4.T
		for c := range 4 {
			for r := range 4 {
				m[c][r] = float64(n.Matrix[c*4+r])
			}
		}
		return m
	}

	q := n.Rotation
	if q == [4]float32{} {
		q = [4]float32{0, 0, 0, 1}
	}
	s := n.Scale
	if s == [3]float32{} {
		s = [3]float32{1, 1, 1}
	}
	x, y, z, w := float64(q[0]), float64(q[1]), float64(q[2]), float64(q[3])
	m := mat4.Ident
	m[0] = [4]float64{1 - 2*(y*y+z*z), 2 * (x*y + z*w), 2 * (x*z - y*w), 0}
	m[1] = [4]float64{2 * (x*y - z*w), 1 - 2*(x*x+z*z), 2 * (y*z + x*w), 0}
	m[2] = [4]float64{2 * (x*z + y*w), 2 * (y*z - x*w), 1 - 2*(x*x+y*y), 0}
	for c := range 3 {
		for r := range 3 {
			m[c][r] *= float64(s[c])
		}
		m[3][c] = float64(n.Translation[c])
	}
	return m
}

// mul returns a*b.
func mul(a, b mat4.T) mat4.T {
	var out mat4.T
	for c := range 4 {
		for r := range 4 {
			for k := range 4 {
				out[c][r] += a[k][r] * b[c][k]
			}
		}
	}
	return out
}

func apply(m *mat4.T, p vec3.T) vec3.T {
	return vec3.T{
		m[0][0]*p[0] + m[1][0]*p[1] + m[2][0]*p[2] + m[3][0],
		m[0][1]*p[0] + m[1][1]*p[1] + m[2][1]*p[2] + m[3][1],
		m[0][2]*p[0] + m[1][2]*p[1] + m[2][2]*p[2] + m[3][2],
	}
}
