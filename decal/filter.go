// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package decal

import (
	"fmt"

	"github.com/flywave/go3d/float64/vec3"

	"github.com/gogpu/texstack/internal/logging"
)

// TriangleFilter selects, per sub-mesh, the triangles a projection writes.
//
// SetSpace binds the filter to a converted space and drops any cached
// result. Filtered returns the kept triangles of sub-mesh i, computing them
// once per space. Dispose drops the cache; it may be called more than once.
type TriangleFilter[S SpaceConverter] interface {
	SetSpace(space S)
	Filtered(subMesh int) ([]TriangleIndex, error)
	Dispose()
}

// filterCache memoizes per-sub-mesh results.
type filterCache struct {
	done []bool
	tris [][]TriangleIndex
}

func (c *filterCache) reset() {
	c.done = nil
	c.tris = nil
}

func (c *filterCache) get(mesh *MeshData, i int, compute func([]TriangleIndex) ([]TriangleIndex, error)) ([]TriangleIndex, error) {
	if mesh == nil {
		return nil, ErrNoInput
	}
	if i < 0 || i >= len(mesh.SubMeshes) {
		return nil, fmt.Errorf("%w: sub-mesh %d of %d", ErrNotExecutable, i, len(mesh.SubMeshes))
	}
	if len(c.done) != len(mesh.SubMeshes) {
		c.done = make([]bool, len(mesh.SubMeshes))
		c.tris = make([][]TriangleIndex, len(mesh.SubMeshes))
	}
	if c.done[i] {
		return c.tris[i], nil
	}
	tris, err := compute(mesh.SubMeshes[i])
	if err != nil {
		return nil, err
	}
	c.tris[i], c.done[i] = tris, true
	logging.Logger().Debug("decal: sub-mesh filtered", "submesh", i, "in", len(mesh.SubMeshes[i]), "kept", len(tris))
	return tris, nil
}

// ProjectionFilter removes the triangles any of its cullers rejects.
type ProjectionFilter struct {
	Cullers []TriangleCuller

	space *ParallelProjectionSpace
	cache filterCache
}

// NewProjectionFilter returns a filter applying cullers in order.
func NewProjectionFilter(cullers ...TriangleCuller) *ProjectionFilter {
	return &ProjectionFilter{Cullers: cullers}
}

// SetSpace implements TriangleFilter.
func (f *ProjectionFilter) SetSpace(space *ParallelProjectionSpace) {
	f.space = space
	f.cache.reset()
}

// Filtered implements TriangleFilter.
func (f *ProjectionFilter) Filtered(subMesh int) ([]TriangleIndex, error) {
	return f.filtered(subMesh, nil)
}

// filtered culls the triangles of subMesh, after narrowing them with pre
// when it is non-nil.
func (f *ProjectionFilter) filtered(subMesh int, pre func([]TriangleIndex) []TriangleIndex) ([]TriangleIndex, error) {
	if f.space == nil {
		return nil, ErrNoInput
	}
	return f.cache.get(f.space.Mesh(), subMesh, func(tris []TriangleIndex) ([]TriangleIndex, error) {
		pos, err := f.space.Projected()
		if err != nil {
			return nil, err
		}
		if pre != nil {
			tris = pre(tris)
		}
		return cull(tris, pos, f.Cullers), nil
	})
}

// Dispose implements TriangleFilter.
func (f *ProjectionFilter) Dispose() {
	f.space = nil
	f.cache.reset()
}

func cull(tris []TriangleIndex, pos []vec3.T, cullers []TriangleCuller) []TriangleIndex {
	out := make([]TriangleIndex, 0, len(tris))
next:
	for _, tri := range tris {
		for _, c := range cullers {
			if c.Cull(tri, pos) {
				continue next
			}
		}
		out = append(out, tri)
	}
	return out
}

// IslandCullingFilter keeps the islands of the whole sub-mesh that
// Selector picks, then culls them like ProjectionFilter.
type IslandCullingFilter struct {
	ProjectionFilter
	Selector IslandSelector
}

// NewIslandCullingFilter returns a filter applying selector, then cullers.
func NewIslandCullingFilter(selector IslandSelector, cullers ...TriangleCuller) *IslandCullingFilter {
	return &IslandCullingFilter{ProjectionFilter: ProjectionFilter{Cullers: cullers}, Selector: selector}
}

// Filtered implements TriangleFilter.
func (f *IslandCullingFilter) Filtered(subMesh int) ([]TriangleIndex, error) {
	return f.filtered(subMesh, func(tris []TriangleIndex) []TriangleIndex {
		return selectTriangles(tris, f.Selector, f.space.Mesh().Vertices)
	})
}

// IslandSelectFilter keeps the islands Selector picks from the whole
// sub-mesh. A nil Selector keeps every triangle.
type IslandSelectFilter[S SpaceConverter] struct {
	Selector IslandSelector

	space S
	bound bool
	cache filterCache
}

// NewIslandSelectFilter returns a filter using selector.
func NewIslandSelectFilter[S SpaceConverter](selector IslandSelector) *IslandSelectFilter[S] {
	return &IslandSelectFilter[S]{Selector: selector}
}

// SetSpace implements TriangleFilter.
func (f *IslandSelectFilter[S]) SetSpace(space S) {
	f.space, f.bound = space, true
	f.cache.reset()
}

// Filtered implements TriangleFilter.
func (f *IslandSelectFilter[S]) Filtered(subMesh int) ([]TriangleIndex, error) {
	if !f.bound {
		return nil, ErrNoInput
	}
	mesh := f.space.Mesh()
	return f.cache.get(mesh, subMesh, func(tris []TriangleIndex) ([]TriangleIndex, error) {
		return selectTriangles(tris, f.Selector, mesh.Vertices), nil
	})
}

// Dispose implements TriangleFilter.
func (f *IslandSelectFilter[S]) Dispose() {
	var zero S
	f.space, f.bound = zero, false
	f.cache.reset()
}
