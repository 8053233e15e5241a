// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package decal

import (
	"github.com/flywave/go3d/float64/vec3"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Island is a set of triangles connected through shared vertex indices.
type Island struct {
	Triangles []TriangleIndex
}

// BuildIslands groups tris into islands. Islands are ordered by their first
// triangle in tris, and each keeps the input order of its triangles.
func BuildIslands(tris []TriangleIndex) []Island {
	if len(tris) == 0 {
		return nil
	}
	g := simple.NewUndirectedGraph()
	for _, tri := range tris {
		for _, v := range tri {
			if g.Node(int64(v)) == nil {
				g.AddNode(simple.Node(v))
			}
		}
		for i := range 3 {
			a, b := tri[i], tri[(i+1)%3]
			if a != b {
				g.SetEdge(g.NewEdge(simple.Node(a), simple.Node(b)))
			}
		}
	}

	component := make(map[int64]int)
	for i, cc := range topo.ConnectedComponents(g) {
		for _, n := range cc {
			component[n.ID()] = i
		}
	}

	order := make(map[int]int)
	var islands []Island
	for _, tri := range tris {
		c := component[int64(tri[0])]
		idx, ok := order[c]
		if !ok {
			idx = len(islands)
			order[c] = idx
			islands = append(islands, Island{})
		}
		islands[idx].Triangles = append(islands[idx].Triangles, tri)
	}
	return islands
}

// IslandSelector picks islands. The result has one entry per island.
// Vertices are world-space mesh positions.
type IslandSelector interface {
	Select(islands []Island, vertices []vec3.T) []bool
}

// AllSelector selects every island.
type AllSelector struct{}

// Select implements IslandSelector.
func (AllSelector) Select(islands []Island, _ []vec3.T) []bool {
	out := make([]bool, len(islands))
	for i := range out {
		out[i] = true
	}
	return out
}

// RaySelector selects the islands hit by a ray within MaxDistance.
type RaySelector struct {
	Origin      vec3.T
	Direction   vec3.T
	MaxDistance float64
}

// Select implements IslandSelector.
func (s RaySelector) Select(islands []Island, vertices []vec3.T) []bool {
	dir := normalize(s.Direction)
	out := make([]bool, len(islands))
	for i, is := range islands {
		for _, tri := range is.Triangles {
			t, ok := rayTriangle(s.Origin, dir, vertices[tri[0]], vertices[tri[1]], vertices[tri[2]])
			if ok && t <= s.MaxDistance {
				out[i] = true
				break
			}
		}
	}
	return out
}

// AnySelector selects the islands picked by any of its selectors.
type AnySelector []IslandSelector

// Select implements IslandSelector.
func (a AnySelector) Select(islands []Island, vertices []vec3.T) []bool {
	out := make([]bool, len(islands))
	for _, s := range a {
		for i, ok := range s.Select(islands, vertices) {
			out[i] = out[i] || ok
		}
	}
	return out
}

// selectTriangles returns the triangles of the selected islands of tris,
// in island order.
func selectTriangles(tris []TriangleIndex, sel IslandSelector, vertices []vec3.T) []TriangleIndex {
	if sel == nil {
		return tris
	}
	islands := BuildIslands(tris)
	picked := sel.Select(islands, vertices)
	var out []TriangleIndex
	for i, is := range islands {
		if picked[i] {
			out = append(out, is.Triangles...)
		}
	}
	return out
}
