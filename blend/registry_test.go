// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package blend

import (
	"errors"
	"image/color"
	"math"
	"slices"
	"testing"

	"github.com/gogpu/texstack/texture"
)

func solid(t *testing.T, w, h int, c color.NRGBA) *texture.Buffer {
	t.Helper()
	buf, err := texture.NewFilled(w, h, c)
	if err != nil {
		t.Fatalf("NewFilled() error = %v", err)
	}
	return buf
}

func near(got, want color.NRGBA) bool {
	d := func(a, b uint8) bool { return math.Abs(float64(a)-float64(b)) <= 2 }
	return d(got.R, want.R) && d(got.G, want.G) && d(got.B, want.B) && d(got.A, want.A)
}

func TestRegistry_Keys(t *testing.T) {
	r := Default()
	keys := r.Keys()
	if len(keys) != 27 {
		t.Errorf("len(Keys()) = %d, want 27", len(keys))
	}
	if !slices.IsSorted(keys) {
		t.Error("Keys() not sorted")
	}
	for _, k := range []string{KeyNotBlend, KeyNormal, KeyMultiply, KeyLuminosity, KeyDefault} {
		if !r.Has(k) {
			t.Errorf("Has(%q) = false", k)
		}
	}
}

func TestRegistry_UnknownKey(t *testing.T) {
	dst := solid(t, 2, 2, color.NRGBA{1, 2, 3, 255})
	src := solid(t, 2, 2, color.NRGBA{4, 5, 6, 255})
	before := dst.Clone()

	for _, key := range []string{"", "normal", "Bogus"} {
		err := Default().Blend(dst, src, key)
		if !errors.Is(err, ErrUnknownBlendMode) {
			t.Errorf("Blend(%q) error = %v, want ErrUnknownBlendMode", key, err)
		}
	}
	if dst.NRGBAAt(0, 0) != before.NRGBAAt(0, 0) {
		t.Error("failed Blend modified dst")
	}
}

func TestRegistry_Blend(t *testing.T) {
	red := color.NRGBA{255, 0, 0, 255}
	tests := []struct {
		name string
		dst  color.NRGBA
		src  color.NRGBA
		key  string
		want color.NRGBA
	}{
		{"normal half blue over red", red, color.NRGBA{0, 0, 255, 128}, KeyNormal, color.NRGBA{127, 0, 128, 255}},
		{"normal opaque replaces color", red, color.NRGBA{0, 255, 0, 255}, KeyNormal, color.NRGBA{0, 255, 0, 255}},
		{"normal over transparent", color.NRGBA{}, color.NRGBA{10, 20, 30, 100}, KeyNormal, color.NRGBA{10, 20, 30, 100}},
		{"transparent source keeps dst", red, color.NRGBA{0, 255, 0, 0}, KeyMultiply, red},
		{"not blend replaces", red, color.NRGBA{0, 0, 255, 64}, KeyNotBlend, color.NRGBA{0, 0, 255, 64}},
		{"multiply", color.NRGBA{255, 128, 0, 255}, color.NRGBA{128, 255, 255, 255}, KeyMultiply, color.NRGBA{128, 128, 0, 255}},
		{"screen", color.NRGBA{128, 0, 0, 255}, color.NRGBA{128, 0, 0, 255}, KeyScreen, color.NRGBA{192, 0, 0, 255}},
		{"difference", color.NRGBA{200, 50, 0, 255}, color.NRGBA{50, 200, 0, 255}, KeyDifference, color.NRGBA{150, 150, 0, 255}},
		{"addition clamps", color.NRGBA{200, 0, 0, 255}, color.NRGBA{100, 0, 0, 255}, KeyAddition, color.NRGBA{255, 0, 0, 255}},
		{"subtract clamps", color.NRGBA{100, 0, 0, 255}, color.NRGBA{200, 0, 0, 255}, KeySubtract, color.NRGBA{0, 0, 0, 255}},
		{"darken only", color.NRGBA{100, 200, 0, 255}, color.NRGBA{200, 100, 0, 255}, KeyDarkenOnly, color.NRGBA{100, 100, 0, 255}},
		{"lighten only", color.NRGBA{100, 200, 0, 255}, color.NRGBA{200, 100, 0, 255}, KeyLightenOnly, color.NRGBA{200, 200, 0, 255}},
		{"luminosity of gray on gray", color.NRGBA{50, 50, 50, 255}, color.NRGBA{200, 200, 200, 255}, KeyLuminosity, color.NRGBA{200, 200, 200, 255}},
		{"darker color picks source", color.NRGBA{255, 255, 255, 255}, color.NRGBA{0, 0, 255, 255}, KeyDarkenColorOnly, color.NRGBA{0, 0, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := solid(t, 2, 2, tt.dst)
			src := solid(t, 2, 2, tt.src)
			if err := Default().Blend(dst, src, tt.key); err != nil {
				t.Fatalf("Blend() error = %v", err)
			}
			if got := dst.NRGBAAt(1, 1); !near(got, tt.want) {
				t.Errorf("Blend(%s) = %+v, want %+v", tt.key, got, tt.want)
			}
		})
	}
}

func TestRegistry_EveryModeOpaqueStaysOpaque(t *testing.T) {
	r := Default()
	for _, key := range r.Keys() {
		dst := solid(t, 1, 1, color.NRGBA{90, 160, 30, 255})
		src := solid(t, 1, 1, color.NRGBA{200, 40, 120, 255})
		if err := r.Blend(dst, src, key); err != nil {
			t.Fatalf("Blend(%s) error = %v", key, err)
		}
		if a := dst.NRGBAAt(0, 0).A; a != 255 {
			t.Errorf("Blend(%s) alpha = %d, want 255", key, a)
		}
	}
}

func TestRegistry_BlendAlphaKeep(t *testing.T) {
	dst := solid(t, 2, 2, color.NRGBA{255, 0, 0, 100})
	src := solid(t, 2, 2, color.NRGBA{0, 0, 255, 255})
	if err := Default().BlendAlphaKeep(dst, src, KeyNormal); err != nil {
		t.Fatalf("BlendAlphaKeep() error = %v", err)
	}
	got := dst.NRGBAAt(0, 0)
	if got.A != 100 || !near(got, color.NRGBA{0, 0, 255, 100}) {
		t.Errorf("BlendAlphaKeep() = %+v, want {0 0 255 100}", got)
	}
}

func TestRegistry_BlendResamplesSource(t *testing.T) {
	dst := solid(t, 8, 8, color.NRGBA{0, 0, 0, 255})
	src := solid(t, 2, 2, color.NRGBA{255, 255, 255, 255})
	if err := Default().Blend(dst, src, KeyNormal); err != nil {
		t.Fatalf("Blend() error = %v", err)
	}
	if got := dst.NRGBAAt(7, 0); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("Blend() corner = %+v, want white", got)
	}
}

func TestNewRegistry_Extra(t *testing.T) {
	invert := NewSeparableMode("Invert", func(_, cs float64) float64 { return 1 - cs })
	r := NewRegistry(invert, Mode{Key: "broken"})
	if !r.Has("Invert") {
		t.Fatal("custom mode not registered")
	}
	if r.Has("broken") {
		t.Error("mode without a function registered")
	}
	if Default().Has("Invert") {
		t.Error("custom mode leaked into the default registry")
	}

	dst := solid(t, 1, 1, color.NRGBA{0, 0, 0, 255})
	src := solid(t, 1, 1, color.NRGBA{255, 0, 255, 255})
	if err := r.Blend(dst, src, "Invert"); err != nil {
		t.Fatalf("Blend() error = %v", err)
	}
	if got := dst.NRGBAAt(0, 0); got != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("Invert = %+v, want {0 255 0 255}", got)
	}
}
