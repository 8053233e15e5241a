// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package decal projects images onto mesh surfaces through their UV maps.
//
// A projection has three parts. A SpaceConverter maps every mesh vertex into
// decal UV space. A TriangleFilter picks, per sub-mesh, the triangles that
// receive the decal. A Context then rasterizes the decal source into one
// writable buffer per material, following the mesh UVs of the kept
// triangles. The result is a BlendPair per material, to be composited onto
// the material's texture by the caller.
package decal

import (
	"errors"
	"fmt"

	"github.com/flywave/go3d/float64/vec2"
	"github.com/flywave/go3d/float64/vec3"

	"github.com/gogpu/texstack/blend"
	"github.com/gogpu/texstack/texture"
)

// Errors reported by the decal pipeline.
var (
	// ErrNotExecutable is returned when a projection's inputs are unusable.
	ErrNotExecutable = errors.New("decal: not executable")

	// ErrNoInput is returned when a space is queried before Input.
	ErrNoInput = errors.New("decal: space has no input")
)

// TriangleIndex holds the vertex indices of one triangle.
type TriangleIndex [3]int

// MeshData is world-space mesh geometry.
// Sub-mesh i is drawn with material i of its renderer.
type MeshData struct {
	Vertices  []vec3.T
	UV        []vec2.T
	SubMeshes [][]TriangleIndex
}

// Validate checks that every index refers to a vertex with a UV.
func (m *MeshData) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil mesh", ErrNotExecutable)
	}
	if len(m.UV) != len(m.Vertices) {
		return fmt.Errorf("%w: %d vertices but %d uvs", ErrNotExecutable, len(m.Vertices), len(m.UV))
	}
	n := len(m.Vertices)
	for s, tris := range m.SubMeshes {
		for t, tri := range tris {
			for _, i := range tri {
				if i < 0 || i >= n {
					return fmt.Errorf("%w: sub-mesh %d triangle %d index %d out of range", ErrNotExecutable, s, t, i)
				}
			}
		}
	}
	return nil
}

// Material is a named set of texture properties.
type Material struct {
	Name     string
	Textures map[string]*texture.Buffer
}

// NewMaterial returns a material with one texture property set.
func NewMaterial(name, property string, tex *texture.Buffer) *Material {
	m := &Material{Name: name, Textures: make(map[string]*texture.Buffer)}
	if tex != nil {
		m.Textures[property] = tex
	}
	return m
}

// Texture returns the texture bound to property.
func (m *Material) Texture(property string) (*texture.Buffer, bool) {
	if m == nil || m.Textures == nil {
		return nil, false
	}
	t, ok := m.Textures[property]
	return t, ok && t != nil
}

// SetTexture binds tex to property.
func (m *Material) SetTexture(property string, tex *texture.Buffer) {
	if m.Textures == nil {
		m.Textures = make(map[string]*texture.Buffer)
	}
	m.Textures[property] = tex
}

// Renderer draws a mesh with one material per sub-mesh.
type Renderer struct {
	Name      string
	Mesh      *MeshData
	Materials []*Material
}

// Uses reports whether any of the renderer's materials is in set.
func (r *Renderer) Uses(set map[*Material]bool) bool {
	for _, m := range r.Materials {
		if set[m] {
			return true
		}
	}
	return false
}

// BlendPair is a projected decal image and the key to composite it with.
type BlendPair struct {
	texture  *texture.Buffer
	blendKey string
}

// NewBlendPair pairs a texture with a blend key. An empty key means
// blend.KeyDefault.
func NewBlendPair(tex *texture.Buffer, key string) BlendPair {
	if key == "" {
		key = blend.KeyDefault
	}
	return BlendPair{texture: tex, blendKey: key}
}

// Texture returns the projected image.
func (p BlendPair) Texture() *texture.Buffer { return p.texture }

// BlendKey returns the key to composite the image with.
func (p BlendPair) BlendKey() string { return p.blendKey }

// BlendOnto composites the pair onto dst in place.
func (p BlendPair) BlendOnto(reg *blend.Registry, dst *texture.Buffer) error {
	if p.texture == nil {
		return nil
	}
	return reg.Blend(dst, p.texture, p.blendKey)
}
