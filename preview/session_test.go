// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package preview

import (
	"errors"
	"image/color"
	"testing"

	"github.com/flywave/go3d/float64/vec2"
	"github.com/flywave/go3d/float64/vec3"

	"github.com/gogpu/texstack/blend"
	"github.com/gogpu/texstack/decal"
	"github.com/gogpu/texstack/texture"
)

const texSize = 8

var (
	red   = color.NRGBA{255, 0, 0, 255}
	blue  = color.NRGBA{0, 0, 255, 255}
	white = color.NRGBA{255, 255, 255, 255}
)

func solid(t *testing.T, w, h int, c color.NRGBA) *texture.Buffer {
	t.Helper()
	buf, err := texture.NewFilled(w, h, c)
	if err != nil {
		t.Fatalf("NewFilled() error = %v", err)
	}
	return buf
}

// plane returns a renderer for a quad spanning x, y in [-1, 1] at z = 0.5
// whose UVs cover the whole texture.
func plane(t *testing.T) (*decal.Renderer, *decal.Material) {
	t.Helper()
	m := &decal.MeshData{
		Vertices: []vec3.T{{-1, -1, 0.5}, {1, -1, 0.5}, {1, 1, 0.5}, {-1, 1, 0.5}},
		UV:       []vec2.T{{0, 1}, {1, 1}, {1, 0}, {0, 0}},
		SubMeshes: [][]decal.TriangleIndex{
			{{0, 3, 2}, {0, 2, 1}},
		},
	}
	mat := decal.NewMaterial("body", decal.DefaultProperty, solid(t, texSize, texSize, white))
	return &decal.Renderer{Name: "plane", Mesh: m, Materials: []*decal.Material{mat}}, mat
}

// stripe returns a decal covering a quarter of the plane's width around x.
func stripe(t *testing.T, r *decal.Renderer, x float64, c color.NRGBA) *decal.SimpleDecal {
	t.Helper()
	d := decal.NewSimpleDecal(solid(t, 2, 2, c), r)
	d.Position = vec3.T{x, 0, 0}
	d.Scale = vec2.T{0.5, 2}
	d.FixedAspect = false
	d.PolygonCulling = decal.PolygonEdgeAndCenterRay
	return d
}

func pixel(t *testing.T, m *decal.Material, x, y int) color.NRGBA {
	t.Helper()
	tex, ok := m.Texture(decal.DefaultProperty)
	if !ok {
		t.Fatal("material lost its texture")
	}
	return tex.NRGBAAt(x, y)
}

func TestSession_RegisterSwapsTexture(t *testing.T) {
	r, mat := plane(t)
	original := mat.Textures[decal.DefaultProperty]
	s := NewSession()
	defer s.Close()

	d := stripe(t, r, -0.5, red)
	if err := s.Register(d); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if mat.Textures[decal.DefaultProperty] == original {
		t.Fatal("Register() did not swap the texture")
	}
	if got := pixel(t, mat, 2, 4); got != red {
		t.Errorf("preview pixel = %+v, want red", got)
	}
	if got := pixel(t, mat, 6, 4); got != white {
		t.Errorf("untouched preview pixel = %+v, want white", got)
	}
	if got := original.NRGBAAt(2, 4); got != white {
		t.Errorf("original pixel = %+v, want white", got)
	}
	if err := s.Register(d); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("second Register() error = %v, want ErrAlreadyRegistered", err)
	}
}

func TestSession_RegisterFailureRollsBack(t *testing.T) {
	r, mat := plane(t)
	original := mat.Textures[decal.DefaultProperty]
	s := NewSession()
	defer s.Close()

	kept := stripe(t, r, -0.5, red)
	broken := stripe(t, r, 0.5, blue)
	broken.MaxDistance = 0

	tests := []struct {
		name   string
		before []*decal.SimpleDecal
		want   *texture.Buffer
	}{
		{"alone", nil, original},
		{"sharing a texture", []*decal.SimpleDecal{kept}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, d := range tt.before {
				if err := s.Register(d); err != nil {
					t.Fatalf("Register() error = %v", err)
				}
			}
			if err := s.Register(broken); !errors.Is(err, decal.ErrNotExecutable) {
				t.Fatalf("Register(broken) error = %v, want ErrNotExecutable", err)
			}
			if s.Registered(broken) {
				t.Error("failed Register() left the decal registered")
			}
			if tt.want != nil && mat.Textures[decal.DefaultProperty] != tt.want {
				t.Error("failed Register() left the texture swapped")
			}
			if got := pixel(t, mat, 5, 4); got != white {
				t.Errorf("pixel under failed decal = %+v, want white", got)
			}
			if len(tt.before) > 0 {
				if got := pixel(t, mat, 2, 4); got != red {
					t.Errorf("pixel under kept decal = %+v, want red", got)
				}
			}
		})
	}

	broken.MaxDistance = 1
	if err := s.Register(broken); err != nil {
		t.Fatalf("Register() after fix error = %v", err)
	}
	if got := pixel(t, mat, 5, 4); got != blue {
		t.Errorf("pixel after fix = %+v, want blue", got)
	}
}

func TestSession_Update(t *testing.T) {
	r, mat := plane(t)
	s := NewSession()
	defer s.Close()

	d := stripe(t, r, -0.5, red)
	if err := s.Register(d); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	d.Position = vec3.T{0.5, 0, 0}
	if err := s.Update(d); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := pixel(t, mat, 2, 4); got != white {
		t.Errorf("old position = %+v, want white", got)
	}
	if got := pixel(t, mat, 5, 4); got != red {
		t.Errorf("new position = %+v, want red", got)
	}

	if err := s.Update(stripe(t, r, 0, blue)); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Update(unknown) error = %v, want ErrNotRegistered", err)
	}
}

func TestSession_StacksInRegistrationOrder(t *testing.T) {
	r, mat := plane(t)
	s := NewSession()
	defer s.Close()

	first := stripe(t, r, -0.5, red)
	second := stripe(t, r, -0.5, blue)
	for _, d := range []*decal.SimpleDecal{first, second} {
		if err := s.Register(d); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}
	if got := pixel(t, mat, 2, 4); got != blue {
		t.Errorf("stacked pixel = %+v, want blue on top", got)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}

	if err := s.Unregister(second); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}
	if got := pixel(t, mat, 2, 4); got != red {
		t.Errorf("pixel after Unregister = %+v, want red", got)
	}
	if s.Registered(second) || !s.Registered(first) {
		t.Error("Registered() does not reflect Unregister")
	}
}

func TestSession_UnregisterRestoresOriginal(t *testing.T) {
	r, mat := plane(t)
	original := mat.Textures[decal.DefaultProperty]
	s := NewSession()
	defer s.Close()

	d := stripe(t, r, -0.5, red)
	_ = s.Register(d)
	if err := s.Unregister(d); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}
	if mat.Textures[decal.DefaultProperty] != original {
		t.Error("Unregister() did not restore the original texture")
	}
	if err := s.Unregister(d); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("second Unregister() error = %v, want ErrNotRegistered", err)
	}
}

func TestSession_Close(t *testing.T) {
	r, mat := plane(t)
	original := mat.Textures[decal.DefaultProperty]
	s := NewSession(WithRegistry(blend.Default()))

	d := stripe(t, r, -0.5, red)
	_ = s.Register(d)
	_ = s.Register(stripe(t, r, 0.5, blue))
	s.Close()
	s.Close()

	if mat.Textures[decal.DefaultProperty] != original {
		t.Error("Close() did not restore the original texture")
	}
	if s.Len() != 0 {
		t.Errorf("Len() after Close = %d, want 0", s.Len())
	}
	if err := s.Register(d); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Register() after Close error = %v, want ErrSessionClosed", err)
	}
	if err := s.Update(d); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Update() after Close error = %v, want ErrSessionClosed", err)
	}
	if err := s.Unregister(d); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Unregister() after Close error = %v, want ErrSessionClosed", err)
	}
}

func TestSession_GradationDecal(t *testing.T) {
	r, mat := plane(t)
	s := NewSession()
	defer s.Close()

	g := decal.NewGradationDecal(decal.Gradient{
		{Pos: 0, Color: texture.Red},
		{Pos: 1, Color: texture.Red},
	}, []*decal.Material{mat}, r)
	if err := s.Register(g); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got := pixel(t, mat, 3, 1); got != red {
		t.Errorf("gradient pixel = %+v, want red", got)
	}
	if got := pixel(t, mat, 3, 6); got != white {
		t.Errorf("pixel below gradient = %+v, want white", got)
	}
}
