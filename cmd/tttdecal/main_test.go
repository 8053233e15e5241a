// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/flywave/go3d/float64/vec3"

	"github.com/gogpu/texstack/decal"
	"github.com/gogpu/texstack/texture"
)

func TestVecFlags(t *testing.T) {
	var v3 vec3Flag
	if err := v3.Set("1, 2.5,-3"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v3.v != (vec3.T{1, 2.5, -3}) {
		t.Errorf("vec3Flag = %v, want (1, 2.5, -3)", v3.v)
	}
	if v3.String() != "1,2.5,-3" {
		t.Errorf("String() = %q, want 1,2.5,-3", v3.String())
	}

	var v2 vec2Flag
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"1,2", false},
		{"1", true},
		{"1,2,3", true},
		{"a,b", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if err := v2.Set(tt.in); (err != nil) != tt.wantErr {
				t.Errorf("Set(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"body", "body.png"},
		{"Body Paint/01", "Body_Paint_01.png"},
		{"", "material.png"},
	}
	for _, tt := range tests {
		if got := fileName(tt.in); got != tt.want {
			t.Errorf("fileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAttachBaseAndExport(t *testing.T) {
	shared := &decal.Material{Name: "skin", Textures: map[string]*texture.Buffer{}}
	other := &decal.Material{Name: "skin", Textures: map[string]*texture.Buffer{}}
	renderers := []*decal.Renderer{
		{Name: "a", Materials: []*decal.Material{shared}},
		{Name: "b", Materials: []*decal.Material{shared, other}},
	}
	base, err := texture.NewFilled(4, 4, color.NRGBA{10, 20, 30, 255})
	if err != nil {
		t.Fatalf("NewFilled() error = %v", err)
	}

	if n := attachBase(renderers, decal.DefaultProperty, base); n != 2 {
		t.Errorf("attachBase() = %d, want 2", n)
	}
	a, _ := shared.Texture(decal.DefaultProperty)
	b, _ := other.Texture(decal.DefaultProperty)
	if a == b || a == base {
		t.Error("attachBase() shares texture storage")
	}

	mats := materialsOf(renderers)
	if len(mats) != 2 || mats[0] != shared || mats[1] != other {
		t.Fatalf("materialsOf() = %v, want [shared other]", mats)
	}

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := export(dir, decal.DefaultProperty, mats, 2)
	if err != nil {
		t.Fatalf("export() error = %v", err)
	}
	want := []string{filepath.Join(dir, "skin.png"), filepath.Join(dir, "skin_1.png")}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], p)
		}
		got, err := texture.Load(p)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", p, err)
		}
		if c := got.NRGBAAt(1, 1); c != (color.NRGBA{10, 20, 30, 255}) {
			t.Errorf("%s pixel = %+v, want base color", p, c)
		}
	}

	if _, err := export(dir, "_Other", mats, 1); err == nil {
		t.Error("export() of a missing property error = nil, want error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("files in out dir = %d, want 2", len(entries))
	}
}

func TestLoadBaseDefault(t *testing.T) {
	buf, err := loadBase("")
	if err != nil {
		t.Fatalf("loadBase() error = %v", err)
	}
	if buf.Width() != 1024 || buf.NRGBAAt(0, 0) != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("default base = %dx%d %+v, want white 1024x1024", buf.Width(), buf.Height(), buf.NRGBAAt(0, 0))
	}
}
