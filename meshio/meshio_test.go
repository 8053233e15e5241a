// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/flywave/go3d/float64/vec3"
	"github.com/qmuntal/gltf"
)

// quadDocument returns a document with one quad mesh used by two nodes.
// The second node is a child of the first and is moved along z.
func quadDocument(t *testing.T) *gltf.Document {
	t.Helper()
	var buf bytes.Buffer
	write := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("binary.Write() error = %v", err)
		}
	}
	write([][3]float32{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}})
	write([][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}})
	write([]uint16{0, 3, 2, 0, 2, 1})

	mesh, mat := uint32(0), uint32(0)
	pos, uv, idx := uint32(0), uint32(1), uint32(2)
	bv0, bv1, bv2 := uint32(0), uint32(1), uint32(2)
	return &gltf.Document{
		Buffers: []*gltf.Buffer{{ByteLength: uint32(buf.Len()), Data: buf.Bytes()}},
		BufferViews: []*gltf.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 48},
			{Buffer: 0, ByteOffset: 48, ByteLength: 32},
			{Buffer: 0, ByteOffset: 80, ByteLength: 12},
		},
		Accessors: []*gltf.Accessor{
			{BufferView: &bv0, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec3, Count: 4},
			{BufferView: &bv1, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec2, Count: 4},
			{BufferView: &bv2, ComponentType: gltf.ComponentUshort, Type: gltf.AccessorScalar, Count: 6},
		},
		Materials: []*gltf.Material{{Name: "body"}},
		Meshes: []*gltf.Mesh{{
			Name: "quad",
			Primitives: []*gltf.Primitive{{
				Attributes: gltf.Attribute{attrPosition: pos, attrTexCoord: uv},
				Indices:    &idx,
				Material:   &mat,
				Mode:       gltf.PrimitiveTriangles,
			}},
		}},
		Nodes: []*gltf.Node{
			{Name: "root", Mesh: &mesh, Translation: [3]float32{0, 0, 2}, Children: []uint32{1}},
			{Name: "child", Mesh: &mesh, Scale: [3]float32{2, 2, 2}},
		},
	}
}

func near(a, b vec3.T) bool {
	for i := range 3 {
		if math.Abs(a[i]-b[i]) > 1e-6 {
			return false
		}
	}
	return true
}

func TestFromDocument(t *testing.T) {
	rs, err := FromDocument(quadDocument(t))
	if err != nil {
		t.Fatalf("FromDocument() error = %v", err)
	}
	if len(rs) != 2 {
		t.Fatalf("len(renderers) = %d, want 2", len(rs))
	}

	root, child := rs[0], rs[1]
	if root.Name != "root" || child.Name != "child" {
		t.Errorf("names = %q, %q, want root, child", root.Name, child.Name)
	}
	if got := len(root.Mesh.SubMeshes); got != 1 {
		t.Fatalf("len(SubMeshes) = %d, want 1", got)
	}
	if got := len(root.Mesh.SubMeshes[0]); got != 2 {
		t.Errorf("triangles = %d, want 2", got)
	}
	if !near(root.Mesh.Vertices[2], vec3.T{1, 1, 2}) {
		t.Errorf("root vertex = %v, want (1, 1, 2)", root.Mesh.Vertices[2])
	}
	// child = parent translation * child scale
	if !near(child.Mesh.Vertices[2], vec3.T{2, 2, 2}) {
		t.Errorf("child vertex = %v, want (2, 2, 2)", child.Mesh.Vertices[2])
	}
	if root.Mesh.UV[3] != child.Mesh.UV[3] || root.Mesh.UV[3][1] != 0 {
		t.Errorf("uv = %v, want (0, 0)", root.Mesh.UV[3])
	}
	if root.Materials[0] != child.Materials[0] {
		t.Error("renderers do not share the glTF material")
	}
	if root.Materials[0].Name != "body" {
		t.Errorf("material name = %q, want body", root.Materials[0].Name)
	}
}

func TestFromDocument_SceneRoots(t *testing.T) {
	doc := quadDocument(t)
	scene := uint32(0)
	doc.Scenes = []*gltf.Scene{{Nodes: []uint32{1}}}
	doc.Scene = &scene

	rs, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument() error = %v", err)
	}
	if len(rs) != 1 || rs[0].Name != "child" {
		t.Fatalf("renderers = %d, want only child", len(rs))
	}
	if !near(rs[0].Mesh.Vertices[0], vec3.T{-2, -2, 0}) {
		t.Errorf("vertex = %v, want (-2, -2, 0) without the parent transform", rs[0].Mesh.Vertices[0])
	}
}

func TestFromDocument_Rotation(t *testing.T) {
	doc := quadDocument(t)
	doc.Nodes = doc.Nodes[1:]
	doc.Nodes[0].Scale = [3]float32{}
	// 90 degrees about z
	s := float32(math.Sqrt2 / 2)
	doc.Nodes[0].Rotation = [4]float32{0, 0, s, s}

	rs, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument() error = %v", err)
	}
	if !near(rs[0].Mesh.Vertices[1], vec3.T{1, 1, 0}) {
		t.Errorf("rotated (1, -1, 0) = %v, want (1, 1, 0)", rs[0].Mesh.Vertices[1])
	}
}

func TestFromDocument_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*gltf.Document)
	}{
		{"missing uv", func(d *gltf.Document) {
			delete(d.Meshes[0].Primitives[0].Attributes, attrTexCoord)
		}},
		{"index out of range", func(d *gltf.Document) {
			d.Buffers[0].Data[80] = 9
		}},
		{"overrun", func(d *gltf.Document) {
			d.Accessors[0].Count = 40
		}},
		{"wrong type", func(d *gltf.Document) {
			d.Accessors[1].Type = gltf.AccessorVec3
		}},
		{"node cycle", func(d *gltf.Document) {
			d.Scenes = []*gltf.Scene{{Nodes: []uint32{0}}}
			d.Nodes[1].Children = []uint32{0}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := quadDocument(t)
			tt.mutate(doc)
			if _, err := FromDocument(doc); !errors.Is(err, ErrUnsupported) {
				t.Errorf("FromDocument() error = %v, want ErrUnsupported", err)
			}
		})
	}
}

func TestFromDocument_NoIndices(t *testing.T) {
	doc := quadDocument(t)
	doc.Meshes[0].Primitives[0].Indices = nil
	doc.Accessors[0].Count = 3
	doc.Accessors[1].Count = 3

	rs, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument() error = %v", err)
	}
	if got := rs[0].Mesh.SubMeshes[0]; len(got) != 1 || got[0][2] != 2 {
		t.Errorf("SubMeshes[0] = %v, want one sequential triangle", got)
	}
}
