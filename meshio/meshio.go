// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package meshio turns glTF documents into decal renderers.
//
// Every node with a mesh becomes one renderer, positioned in world space by
// the node hierarchy. Every triangle primitive of the mesh becomes one
// sub-mesh whose material is shared across renderers by glTF material index.
// Materials come back without textures; callers attach them by property.
package meshio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/flywave/go3d/float64/mat4"
	"github.com/flywave/go3d/float64/vec2"
	"github.com/flywave/go3d/float64/vec3"
	"github.com/qmuntal/gltf"

	"github.com/gogpu/texstack/decal"
	"github.com/gogpu/texstack/internal/logging"
	"github.com/gogpu/texstack/texture"
)

// ErrUnsupported is returned for glTF content a renderer cannot be built
// from, such as a primitive without TEXCOORD_0.
var ErrUnsupported = errors.New("meshio: unsupported mesh data")

const (
	attrPosition = "POSITION"
	attrTexCoord = "TEXCOORD_0"
)

// Load reads a .gltf or .glb file.
func Load(path string) ([]*decal.Renderer, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("meshio: open %s: %w", path, err)
	}
	return FromDocument(doc)
}

type builder struct {
	doc       *gltf.Document
	materials map[int]*decal.Material
	visited   map[uint32]bool
	out       []*decal.Renderer
}

// FromDocument builds renderers from the document's default scene, or from
// every root node when it has no scenes.
func FromDocument(doc *gltf.Document) ([]*decal.Renderer, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrUnsupported)
	}
	b := &builder{
		doc:       doc,
		materials: make(map[int]*decal.Material),
		visited:   make(map[uint32]bool),
	}
	for _, n := range b.roots() {
		if err := b.node(n, mat4.Ident); err != nil {
			return nil, err
		}
	}
	logging.Logger().Debug("meshio: document loaded", "renderers", len(b.out), "materials", len(b.materials))
	return b.out, nil
}

func (b *builder) roots() []uint32 {
	if len(b.doc.Scenes) > 0 {
		i := 0
		if b.doc.Scene != nil && int(*b.doc.Scene) < len(b.doc.Scenes) {
			i = int(*b.doc.Scene)
		}
		return b.doc.Scenes[i].Nodes
	}
	child := make(map[uint32]bool)
	for _, n := range b.doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []uint32
	for i := range b.doc.Nodes {
		if !child[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

func (b *builder) node(idx uint32, parent mat4.T) error {
	if int(idx) >= len(b.doc.Nodes) {
		return fmt.Errorf("%w: node %d out of range", ErrUnsupported, idx)
	}
	if b.visited[idx] {
		return fmt.Errorf("%w: node %d reached twice", ErrUnsupported, idx)
	}
	b.visited[idx] = true

	n := b.doc.Nodes[idx]
	world := mul(parent, localMatrix(n))
	if n.Mesh != nil {
		r, err := b.renderer(n, *n.Mesh, world)
		if err != nil {
			return err
		}
		if r != nil {
			b.out = append(b.out, r)
		}
	}
	for _, c := range n.Children {
		if err := b.node(c, world); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) renderer(n *gltf.Node, meshIdx uint32, world mat4.T) (*decal.Renderer, error) {
	if int(meshIdx) >= len(b.doc.Meshes) {
		return nil, fmt.Errorf("%w: mesh %d out of range", ErrUnsupported, meshIdx)
	}
	mesh := b.doc.Meshes[meshIdx]
	name := n.Name
	if name == "" {
		name = mesh.Name
	}
	if name == "" {
		name = fmt.Sprintf("mesh %d", meshIdx)
	}

	data := &decal.MeshData{}
	r := &decal.Renderer{Name: name, Mesh: data}
	for i, p := range mesh.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			logging.Logger().Warn("meshio: skipping non-triangle primitive", "renderer", name, "primitive", i)
			continue
		}
		if err := b.primitive(data, p, world); err != nil {
			return nil, fmt.Errorf("renderer %q primitive %d: %w", name, i, err)
		}
		r.Materials = append(r.Materials, b.material(p.Material))
	}
	if len(data.SubMeshes) == 0 {
		return nil, nil
	}
	return r, data.Validate()
}

func (b *builder) primitive(data *decal.MeshData, p *gltf.Primitive, world mat4.T) error {
	posIdx, ok := p.Attributes[attrPosition]
	if !ok {
		return fmt.Errorf("%w: no %s", ErrUnsupported, attrPosition)
	}
	uvIdx, ok := p.Attributes[attrTexCoord]
	if !ok {
		return fmt.Errorf("%w: no %s", ErrUnsupported, attrTexCoord)
	}
	pos, err := b.floats(posIdx, gltf.AccessorVec3, 3)
	if err != nil {
		return fmt.Errorf("%s: %w", attrPosition, err)
	}
	uv, err := b.floats(uvIdx, gltf.AccessorVec2, 2)
	if err != nil {
		return fmt.Errorf("%s: %w", attrTexCoord, err)
	}
	count := len(pos) / 3
	if len(uv)/2 != count {
		return fmt.Errorf("%w: %d positions but %d uvs", ErrUnsupported, count, len(uv)/2)
	}

	var idx []int
	if p.Indices != nil {
		if idx, err = b.indices(*p.Indices); err != nil {
			return fmt.Errorf("indices: %w", err)
		}
	} else {
		idx = make([]int, count)
		for i := range idx {
			idx[i] = i
		}
	}

	base := len(data.Vertices)
	for i := range count {
		v := vec3.T{float64(pos[i*3]), float64(pos[i*3+1]), float64(pos[i*3+2])}
		data.Vertices = append(data.Vertices, apply(&world, v))
		data.UV = append(data.UV, vec2.T{float64(uv[i*2]), float64(uv[i*2+1])})
	}
	tris := make([]decal.TriangleIndex, 0, len(idx)/3)
	for i := 0; i+2 < len(idx); i += 3 {
		tri := decal.TriangleIndex{idx[i], idx[i+1], idx[i+2]}
		for k, v := range tri {
			if v >= count {
				return fmt.Errorf("%w: index %d out of range", ErrUnsupported, v)
			}
			tri[k] = v + base
		}
		tris = append(tris, tri)
	}
	data.SubMeshes = append(data.SubMeshes, tris)
	return nil
}

// material returns the shared material for a glTF material index.
func (b *builder) material(idx *uint32) *decal.Material {
	key := -1
	if idx != nil {
		key = int(*idx)
	}
	if m, ok := b.materials[key]; ok {
		return m
	}
	name := "default"
	if key >= 0 {
		name = fmt.Sprintf("material %d", key)
		if key < len(b.doc.Materials) && b.doc.Materials[key].Name != "" {
			name = b.doc.Materials[key].Name
		}
	}
	m := &decal.Material{Name: name, Textures: make(map[string]*texture.Buffer)}
	b.materials[key] = m
	return m
}

// view returns the bytes of an accessor and its element stride.
func (b *builder) view(acc *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if acc.Count == 0 {
		return nil, elemSize, nil
	}
	if acc.BufferView == nil || int(*acc.BufferView) >= len(b.doc.BufferViews) {
		return nil, 0, fmt.Errorf("%w: accessor without buffer view", ErrUnsupported)
	}
	bv := b.doc.BufferViews[*acc.BufferView]
	if int(bv.Buffer) >= len(b.doc.Buffers) {
		return nil, 0, fmt.Errorf("%w: buffer %d out of range", ErrUnsupported, bv.Buffer)
	}
	data := b.doc.Buffers[bv.Buffer].Data
	stride := int(bv.ByteStride)
	if stride == 0 {
		stride = elemSize
	}
	start := int(bv.ByteOffset) + int(acc.ByteOffset)
	end := start + stride*(int(acc.Count)-1) + elemSize
	if end > len(data) || end > int(bv.ByteOffset)+int(bv.ByteLength) {
		return nil, 0, fmt.Errorf("%w: accessor overruns its buffer", ErrUnsupported)
	}
	return data[start:end], stride, nil
}

func (b *builder) accessor(idx uint32) (*gltf.Accessor, error) {
	if int(idx) >= len(b.doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d out of range", ErrUnsupported, idx)
	}
	return b.doc.Accessors[idx], nil
}

// floats decodes a float accessor of the given type.
func (b *builder) floats(idx uint32, typ gltf.AccessorType, comps int) ([]float32, error) {
	acc, err := b.accessor(idx)
	if err != nil {
		return nil, err
	}
	if acc.Type != typ || acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("%w: accessor %d is not a float %d-vector", ErrUnsupported, idx, comps)
	}
	data, stride, err := b.view(acc, comps*4)
	if err != nil {
		return nil, err
	}
	out := make([]float32, 0, int(acc.Count)*comps)
	for i := range int(acc.Count) {
		elem := data[i*stride:]
		for c := range comps {
			out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(elem[c*4:])))
		}
	}
	return out, nil
}

// indices decodes an unsigned byte, short or int index accessor.
func (b *builder) indices(idx uint32) ([]int, error) {
	acc, err := b.accessor(idx)
	if err != nil {
		return nil, err
	}
	var size int
	switch acc.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("%w: index component type %v", ErrUnsupported, acc.ComponentType)
	}
	data, stride, err := b.view(acc, size)
	if err != nil {
		return nil, err
	}
	out := make([]int, acc.Count)
	for i := range out {
		elem := data[i*stride:]
		switch size {
		case 1:
			out[i] = int(elem[0])
		case 2:
			out[i] = int(binary.LittleEndian.Uint16(elem))
		default:
			out[i] = int(binary.LittleEndian.Uint32(elem))
		}
	}
	return out, nil
}
