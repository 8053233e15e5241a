// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package decal

import (
	"github.com/flywave/go3d/float64/vec2"
	"github.com/flywave/go3d/float64/vec3"
)

// TriangleCuller decides whether a triangle is removed from a projection.
// Positions are in the projection's offset local space.
type TriangleCuller interface {
	Cull(tri TriangleIndex, pos []vec3.T) bool
}

// CullerFunc adapts a function to TriangleCuller.
type CullerFunc func(tri TriangleIndex, pos []vec3.T) bool

// Cull calls f.
func (f CullerFunc) Cull(tri TriangleIndex, pos []vec3.T) bool { return f(tri, pos) }

// FarCulling removes triangles beyond the far face.
// With AllVertices a triangle goes only when all three vertices are beyond.
type FarCulling struct {
	Far         float64
	AllVertices bool
}

// Cull implements TriangleCuller.
func (c FarCulling) Cull(tri TriangleIndex, pos []vec3.T) bool {
	return test(tri, c.AllVertices, func(i int) bool { return pos[i][2] > c.Far })
}

// NearCulling removes triangles in front of the near face.
// With AllVertices a triangle goes only when all three vertices are in front.
type NearCulling struct {
	Near        float64
	AllVertices bool
}

// Cull implements TriangleCuller.
func (c NearCulling) Cull(tri TriangleIndex, pos []vec3.T) bool {
	return test(tri, c.AllVertices, func(i int) bool { return pos[i][2] < c.Near })
}

func test(tri TriangleIndex, all bool, outside func(int) bool) bool {
	if all {
		return outside(tri[0]) && outside(tri[1]) && outside(tri[2])
	}
	return outside(tri[0]) || outside(tri[1]) || outside(tri[2])
}

// SideCulling removes triangles facing away from the projection.
type SideCulling struct{}

// Cull implements TriangleCuller.
func (SideCulling) Cull(tri TriangleIndex, pos []vec3.T) bool {
	a, b, c := pos[tri[0]], pos[tri[1]], pos[tri[2]]
	ba := vec3.Sub(&b, &a)
	ac := vec3.Sub(&a, &c)
	n := vec3.Cross(&ba, &ac)
	return n[2] < 0
}

// PolygonCulling selects how OutOfPolygonCulling tests a triangle against
// the unit square.
type PolygonCulling uint8

const (
	// PolygonVertex keeps a triangle with a vertex inside the square.
	PolygonVertex PolygonCulling = iota

	// PolygonEdge also keeps a triangle whose edges cross the square's.
	PolygonEdge

	// PolygonEdgeAndCenterRay also keeps a triangle containing the square's
	// center, which catches triangles larger than the square.
	PolygonEdgeAndCenterRay
)

// String returns the mode name.
func (m PolygonCulling) String() string {
	switch m {
	case PolygonVertex:
		return "Vertex"
	case PolygonEdge:
		return "Edge"
	case PolygonEdgeAndCenterRay:
		return "EdgeAndCenterRay"
	default:
		return "Unknown"
	}
}

// ParsePolygonCulling parses a mode name. Unknown names yield
// PolygonEdgeAndCenterRay and false.
func ParsePolygonCulling(s string) (PolygonCulling, bool) {
	for _, m := range []PolygonCulling{PolygonVertex, PolygonEdge, PolygonEdgeAndCenterRay} {
		if m.String() == s {
			return m, true
		}
	}
	return PolygonEdgeAndCenterRay, false
}

var (
	square = [4]vec2.T{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	center = vec2.T{0.5, 0.5}
)

// OutOfPolygonCulling removes triangles that miss the decal's unit square.
type OutOfPolygonCulling struct {
	Mode PolygonCulling
}

// Cull implements TriangleCuller.
func (c OutOfPolygonCulling) Cull(tri TriangleIndex, pos []vec3.T) bool {
	t := [3]vec2.T{xy(pos[tri[0]]), xy(pos[tri[1]]), xy(pos[tri[2]])}
	for _, p := range t {
		if p[0] >= 0 && p[0] <= 1 && p[1] >= 0 && p[1] <= 1 {
			return false
		}
	}
	if c.Mode == PolygonVertex {
		return true
	}
	for i := range 3 {
		p1, p2 := t[i], t[(i+1)%3]
		for j := range 4 {
			if segmentsIntersect(p1, p2, square[j], square[(j+1)%4]) {
				return false
			}
		}
	}
	if c.Mode == PolygonEdge {
		return true
	}
	return !pointInTriangle(center, t[0], t[1], t[2])
}
